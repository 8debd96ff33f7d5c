package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/api/models"
	"github.com/grownex/grownex/internal/api/response"
	"github.com/grownex/grownex/internal/auth"
	"github.com/grownex/grownex/internal/featureflags"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *auth.Service
	flags       *featureflags.Service
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service, flags *featureflags.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		flags:       flags,
		logger:      logger,
	}
}

// Signup handles POST /v1/auth/signup - create an account.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if h.flags != nil && h.flags.SignupDisabled(r.Context()) {
		response.Forbidden(w, r, "signup is currently disabled")
		return
	}

	var req models.SignupRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Signup(r.Context(), &req)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			response.ValidationFailed(w, r, verr.Errors)
		case errors.Is(err, auth.ErrEmailTaken):
			response.Conflict(w, r, "Email already exists")
		default:
			h.logger.Error().Err(err).Msg("signup failed")
			response.InternalError(w, r, "signup failed")
		}
		return
	}

	response.JSON(w, r, http.StatusCreated, resp)
}

// Login handles POST /v1/auth/login - exchange credentials for a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			response.ValidationFailed(w, r, verr.Errors)
		case errors.Is(err, auth.ErrInvalidCredentials):
			response.Unauthorized(w, r, "Invalid credentials")
		default:
			h.logger.Error().Err(err).Msg("login failed")
			response.InternalError(w, r, "login failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// Me handles GET /v1/auth/me - the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Unauthorized(w, r, "user not found")
			return
		}
		h.logger.Error().Err(err).Msg("failed to load user")
		response.InternalError(w, r, "failed to load user")
		return
	}

	response.JSON(w, r, http.StatusOK, auth.ToAPIUser(user))
}
