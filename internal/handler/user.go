package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/appforge/appforge-go/internal/middleware"
	"github.com/appforge/appforge-go/internal/model"
	"github.com/appforge/appforge-go/internal/service"
)

// UserHandler handles HTTP requests for profile and admin user management.
type UserHandler struct {
	service *service.UserService
	dev     bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, dev bool) *UserHandler {
	return &UserHandler{service: svc, dev: dev}
}

// HandleGetProfile handles GET /api/users/profile requests.
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("authentication required"))
		return
	}

	user, err := h.service.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		h.writeUserError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]model.UserResponse{"user": user})
}

// HandleUpdateProfile handles PUT /api/users/profile requests.
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("authentication required"))
		return
	}

	var req model.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), identity.UserID, req)
	if err != nil {
		h.writeUserError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// HandleListUsers handles GET /api/admin/users requests.
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	q := service.ListQuery{
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
		Search: r.URL.Query().Get("search"),
	}

	resp, err := h.service.ListUsers(r.Context(), q)
	if err != nil {
		internalError(w, r, err, h.dev)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGetUser handles GET /api/admin/users/{slug} requests.
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeUserError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]model.UserResponse{"user": user})
}

// HandleUpdateUser handles PUT /api/admin/users/{slug} requests.
func (h *UserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("authentication required"))
		return
	}

	var req model.AdminUpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), identity.UserID, chi.URLParam(r, "slug"), req)
	if err != nil {
		h.writeUserError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    user,
	})
}

// HandleResetPassword handles POST /api/admin/users/{slug}/reset-password
// requests.
func (h *UserHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "slug"), req.NewPassword)
	if err != nil {
		h.writeUserError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

// HandleDeleteUser handles DELETE /api/admin/users/{slug} requests.
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("authentication required"))
		return
	}

	err := h.service.DeleteUser(r.Context(), identity.UserID, chi.URLParam(r, "slug"))
	if err != nil {
		h.writeUserError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (h *UserHandler) writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrSelfRoleChange), errors.Is(err, service.ErrSelfDelete):
		writeJSON(w, http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrNewPasswordNeeded):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	default:
		internalError(w, r, err, h.dev)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
