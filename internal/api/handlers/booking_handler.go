package handlers

import (
	"net/http"

	"github.com/tripsync/portal/internal/application/services"
	"github.com/tripsync/portal/internal/domain/entities"
)

// BookingHandler handles quick bookings, checkout and cancellation
type BookingHandler struct {
	bookings *services.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Book handles POST /booking/{id}
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	var req entities.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	res, err := h.bookings.Confirm(r.Context(), sess, r.PathValue("id"), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

// Checkout handles POST /checkout/{id}
func (h *BookingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	var info entities.TravelerInfo
	if err := decodeJSON(r, &info); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	res, err := h.bookings.Checkout(r.Context(), sess, r.PathValue("id"), info)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

// Cancel handles DELETE /user/bookings/{id}
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	if err := h.bookings.Cancel(r.Context(), sess, r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
