package handler

import (
	"net/http"

	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/server/middleware"
	"github.com/carecycle/carecycle/internal/service"
)

// AdminHandler serves account registration, login and profile routes.
type AdminHandler struct {
	admins *service.AdminService
	resp   *Responder
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admins *service.AdminService, resp *Responder) *AdminHandler {
	return &AdminHandler{admins: admins, resp: resp}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an admin account and returns it with a fresh token.
// POST /api/admin/register
func (h *AdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.AdminInput
	if err := readJSON(r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	res, err := h.admins.Register(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Login exchanges email and password for a token.
// POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	res, err := h.admins.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Me returns the authenticated admin.
// GET /api/admin/me
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	writeJSON(w, http.StatusOK, principal.Admin.View())
}

// Verify confirms the bearer token is still accepted.
// GET /api/admin/verify
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	writeJSON(w, http.StatusOK, map[string]model.AdminView{"admin": principal.Admin.View()})
}

// Logout acknowledges a logout. Tokens are stateless, so the client simply
// discards its copy.
// POST /api/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// List returns every admin account.
// GET /api/admin/admins
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.List(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admins)
}
