package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ssoflow/sso-server/auth"
	"github.com/ssoflow/sso-server/authcode"
)

// Token exchanges an authorization code for a signed token pair. The
// endpoint accepts the JSON body used by the demo front end as well as
// standard form encoding so stock OAuth2 clients can drive it.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, ok := tokenRequestCode(w, r)
		if !ok {
			return
		}
		if code == "" {
			writeTokenError(w, http.StatusBadRequest, "invalid_request", "code is required")
			return
		}

		pair, err := s.flow.Exchange(code)
		if err != nil {
			switch {
			case errors.Is(err, authcode.ErrCodeNotFound):
				writeTokenError(w, http.StatusUnauthorized, "invalid_grant", "authorization code not found")
			case errors.Is(err, authcode.ErrCodeExpired):
				writeTokenError(w, http.StatusUnauthorized, "invalid_grant", "authorization code expired")
			case errors.Is(err, authcode.ErrCodeAlreadyUsed):
				writeTokenError(w, http.StatusUnauthorized, "invalid_grant", "authorization code already used")
			default:
				log.Error().Err(err).Msg("token exchange failed")
				writeTokenError(w, http.StatusInternalServerError, "server_error", "token exchange failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, pair)
	}
}

// tokenRequestCode pulls the authorization code out of either a form or
// JSON token request. Reports false if the request was malformed and a
// response has already been written.
func tokenRequestCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeTokenError(w, http.StatusBadRequest, "invalid_request", "invalid form body")
			return "", false
		}
		if grantType := r.PostForm.Get("grant_type"); grantType != "" && grantType != "authorization_code" {
			writeTokenError(w, http.StatusBadRequest, "unsupported_grant_type", "only authorization_code is supported")
			return "", false
		}
		return r.PostForm.Get("code"), true
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return "", false
	}
	return req.Code, true
}

// Verify runs the token verifier for the caller's flow session and
// returns the full checklist. Check failures are data, not errors: the
// response is 200 even when verification fails.
func (s *Server) Verify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDToken     string `json:"id_token"`
			AccessToken string `json:"access_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.IDToken == "" || req.AccessToken == "" {
			writeError(w, http.StatusBadRequest, "id_token and access_token are required")
			return
		}

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "no flow session")
			return
		}

		result, err := s.flow.Verify(cookie.Value, req.IDToken, req.AccessToken)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrSessionNotFound):
				writeError(w, http.StatusUnauthorized, "no flow session")
			case errors.Is(err, auth.ErrNoTokensIssued):
				writeError(w, http.StatusConflict, "no tokens have been issued for this session")
			default:
				log.Error().Err(err).Msg("token verification failed")
				writeError(w, http.StatusInternalServerError, "token verification failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// JWKS returns the JSON Web Key Set used to validate tokens
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.signer.GetJWKS()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to get JWKS")
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, jwks)
	}
}

// Healthz reports process liveness
func (s *Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeTokenError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}
