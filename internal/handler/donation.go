package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/service"
)

// DonationHandler serves the donation lifecycle routes.
type DonationHandler struct {
	donations *service.DonationService
	resp      *Responder
}

// NewDonationHandler creates a new DonationHandler.
func NewDonationHandler(donations *service.DonationService, resp *Responder) *DonationHandler {
	return &DonationHandler{donations: donations, resp: resp}
}

// Create records a public donation submission.
// POST /api/donations
func (h *DonationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.DonationInput
	if err := readJSON(r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	d, err := h.donations.Create(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// List returns every donation, newest first.
// GET /api/donations
func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	donations, err := h.donations.List(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, donations)
}

// Verify marks a donation verified.
// PATCH /api/donations/{id}/verify
func (h *DonationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	d, err := h.donations.Verify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Delete removes a donation.
// DELETE /api/donations/{id}
func (h *DonationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.donations.Delete(r.Context(), id); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{
		Success: true,
		Message: "Donation deleted successfully",
		ID:      id,
	})
}
