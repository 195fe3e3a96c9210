package handler

import (
	"errors"
	"net/http"

	"github.com/appforge/appforge-go/internal/middleware"
	"github.com/appforge/appforge-go/internal/model"
	"github.com/appforge/appforge-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
	dev     bool
}

// NewAuthHandler creates a new AuthHandler. dev enables diagnostic error
// bodies on 500 responses.
func NewAuthHandler(svc *service.AuthService, dev bool) *AuthHandler {
	return &AuthHandler{service: svc, dev: dev}
}

// HandleRegister handles POST /api/auth/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailRequired), errors.Is(err, service.ErrPasswordRequired):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrEmailTaken):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		case errors.Is(err, service.ErrSlugAssignment):
			// Retry budget exhausted under pathological contention.
			writeJSON(w, http.StatusInternalServerError, errorResponse(err.Error()))
		default:
			internalError(w, r, err, h.dev)
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /api/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailRequired), errors.Is(err, service.ErrPasswordRequired):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
		case errors.Is(err, service.ErrAccountInactive):
			writeJSON(w, http.StatusForbidden, errorResponse("your account has been deactivated"))
		default:
			internalError(w, r, err, h.dev)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /api/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("authentication required"))
		return
	}

	user, err := h.service.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("user not found"))
			return
		}
		internalError(w, r, err, h.dev)
		return
	}

	writeJSON(w, http.StatusOK, map[string]model.UserResponse{"user": user})
}
