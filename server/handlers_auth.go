package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ssoflow/sso-server/users"
)

const contentTypeJSON = "application/json; charset=utf-8"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *credentialsRequest) Validate() bool {
	return c.Username != "" && c.Password != ""
}

// Register creates a new user in the credential store
func (s *Server) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !creds.Validate() {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		if err := s.store.Register(creds.Username, creds.Password); err != nil {
			if errors.Is(err, users.ErrDuplicateUser) {
				writeError(w, http.StatusConflict, "user already exists")
				return
			}
			log.Error().Err(err).Msg("registration failed")
			writeError(w, http.StatusInternalServerError, "registration failed")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"message": "User registered successfully",
		})
	}
}

// Login verifies credentials and returns a flow session with a fresh
// authorization code. The same generic message covers unknown users and
// wrong passwords.
func (s *Server) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !creds.Validate() {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		result, err := s.flow.Login(creds.Username, creds.Password)
		if err != nil {
			if errors.Is(err, users.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid username or password")
				return
			}
			log.Error().Err(err).Msg("login failed")
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    result.SessionID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, http.StatusOK, map[string]any{
			"message":    "Credentials validated successfully",
			"session_id": result.SessionID,
			"auth_code":  result.AuthCode,
			"expires_in": result.ExpiresIn,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
