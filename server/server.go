package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ssoflow/sso-server/auth"
	"github.com/ssoflow/sso-server/internal/config"
	"github.com/ssoflow/sso-server/token"
	"github.com/ssoflow/sso-server/users"
)

type Server struct {
	env    string // Environment (e.g., "development", "production")
	mux    *http.ServeMux
	routes []string
	config config.Config
	flow   *auth.FlowService
	store  *users.Store
	signer *token.KeyPairSigner
}

func New(config config.Config, flow *auth.FlowService, store *users.Store, signer *token.KeyPairSigner) (*Server, error) {
	if flow == nil {
		return nil, fmt.Errorf("[Server New] flow service is required")
	}
	if store == nil {
		return nil, fmt.Errorf("[Server New] credential store is required")
	}
	if signer == nil {
		return nil, fmt.Errorf("[Server New] signer is required")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: config,
		flow:   flow,
		store:  store,
		signer: signer,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Str("method", method).Str("path", path).Msg("route registered")
}
