package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Identity provider routes
	RouteAuthRegister = "/auth/register"
	RouteAuthLogin    = "/auth/login"

	// OAuth2 routes
	RouteOAuth2Token  = "/oauth2/token"
	RouteOAuth2Verify = "/oauth2/verify"

	// Discovery and health
	RouteWellKnownJWKS = "/.well-known/jwks.json"
	RouteHealthz       = "/healthz"
)

// sessionCookieName carries the flow session ID between login and verify
const sessionCookieName = "sso_flow_session"
