// internal/pickup/handler.go
package pickup

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/circulation"
	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleReservationCode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reservationID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid reservation ID")
		return
	}

	code, validUntil, err := h.service.ReservationCode(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"reservation_id": id,
		"otp":            code,
		"valid_until":    validUntil,
	})
}

func (h *Handler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.Unlock(r.Context(), req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) HandleConfirmPickup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
		BookID int64 `json:"book_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == 0 || req.BookID == 0 {
		httpx.Error(w, http.StatusBadRequest, "user_id and book_id are required")
		return
	}

	loan, err := h.service.ConfirmPickup(r.Context(), req.UserID, req.BookID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"loan_id":  loan.ID,
		"due_date": loan.DueDate,
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMalformedCode),
		errors.Is(err, ErrInvalidOTP),
		errors.Is(err, ErrNoActiveReservation):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, circulation.ErrReservationNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, circulation.ErrAlreadyIssued),
		errors.Is(err, circulation.ErrReservedByOther):
		httpx.Error(w, http.StatusConflict, err.Error())
	default:
		httpx.Error(w, http.StatusInternalServerError, err.Error())
	}
}
