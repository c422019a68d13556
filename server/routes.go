package server

func (s *Server) initRoutes() {
	// Identity provider endpoints
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.Register(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.Login(), s.APIMiddleware()...))

	// OAuth2 endpoints
	s.RegisterRouteHandler("POST "+RouteOAuth2Token, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuth2Verify, ChainMiddleware(s.Verify(), s.APIMiddleware()...))

	// Discovery and health
	s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.Healthz(), s.APIMiddleware()...))
}
