package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/provider-matcher/internal/config"
	"github.com/jonathan/provider-matcher/internal/types"
)

// AuthHandler exchanges the shared access secret for a session token.
type AuthHandler struct {
	access     *config.AccessConfig
	jwtService *JWTService
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(access *config.AccessConfig, jwtService *JWTService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{access: access, jwtService: jwtService, logger: logger}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.AccessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{Error: "invalid_body", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !h.access.VerifySecret(req.Secret) {
		h.logger.Warn("access gate login rejected", zap.String("remote_addr", r.RemoteAddr))
		writeError(w, h.logger, ErrInvalidSecret)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken()
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, types.AccessResponse{Token: token, ExpiresAt: expiresAt})
}
