package service

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/stakebank/stakebank/internal/auth"
)

// AuthService issues operator session tokens.
type AuthService struct {
	authenticator *auth.OperatorAuthenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates an AuthService.
func NewAuthService(authenticator *auth.OperatorAuthenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{authenticator: authenticator, jwtManager: jwtManager}
}

// Register mounts the login route on the mux.
func (s *AuthService) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *AuthService) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	op, err := s.authenticator.Authenticate(r.Context(), req.Account, req.Password)
	if err != nil {
		slog.Warn("Login failed", "account", req.Account)
		http.Error(w, auth.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
		return
	}

	token, err := s.jwtManager.Generate(op.Account)
	if err != nil {
		slog.Error("Token generation failed", "account", op.Account, "error", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, loginResponse{Token: token})
}
