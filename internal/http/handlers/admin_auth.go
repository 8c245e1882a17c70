package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/http/middleware"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// AdminAuthConfig holds the single admin credential pair.
type AdminAuthConfig struct {
	Username  string
	Password  string
	JWTSecret string
	TokenTTL  time.Duration
}

// AdminAuthHandler issues admin bearer tokens.
type AdminAuthHandler struct {
	cfg    AdminAuthConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewAdminAuthHandler(cfg AdminAuthConfig, logger *logging.Logger) *AdminAuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	return &AdminAuthHandler{cfg: cfg, logger: logger, now: time.Now}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token for /admin routes.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login handles POST /admin/login.
func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if h.cfg.Password == "" || h.cfg.JWTSecret == "" {
		http.Error(w, "admin login disabled", http.StatusServiceUnavailable)
		return
	}
	if !h.credentialsMatch(req) {
		h.logger.Warn("admin login rejected", "username", req.Username)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, expires, err := middleware.IssueAdminToken(h.cfg.JWTSecret, req.Username, h.cfg.TokenTTL, h.now())
	if err != nil {
		h.logger.Error("failed to sign admin token", "error", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{AccessToken: token, TokenType: "bearer", ExpiresAt: expires})
}

func (h *AdminAuthHandler) credentialsMatch(req loginRequest) bool {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(req.Username)), []byte(h.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.Password)) == 1
	return userOK && passOK
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
