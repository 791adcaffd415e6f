// internal/circulation/handler.go
package circulation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/catalog"
	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleCreateReservation(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.service.Reserve(r.Context(), req.UserID, req.BookID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"reservation_id": res.ID,
		"book_id":        res.BookID,
		"expiry_date":    res.ExpiryDate,
	})
}

func (h *Handler) HandleCancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reservationID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid reservation ID")
		return
	}
	res, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"reservation_id": res.ID,
		"status":         res.Status,
	})
}

func (h *Handler) HandleIssueLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
		BookID int64 `json:"book_id"`
		Days   int   `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == 0 || req.BookID == 0 {
		httpx.Error(w, http.StatusBadRequest, "user_id and book_id are required")
		return
	}

	loan, err := h.service.Issue(r.Context(), req.UserID, req.BookID, req.Days)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"loan_id":  loan.ID,
		"book_id":  loan.BookID,
		"due_date": loan.DueDate,
	})
}

func (h *Handler) HandleReturnLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "loanID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid loan ID")
		return
	}
	loan, err := h.service.Return(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"loan_id":     loan.ID,
		"return_date": loan.ReturnDate,
	})
}

func (h *Handler) HandleReturnByBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID int64 `json:"book_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookID == 0 {
		httpx.Error(w, http.StatusBadRequest, "book_id is required")
		return
	}
	loan, err := h.service.ReturnByBook(r.Context(), req.BookID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"loan_id":     loan.ID,
		"return_date": loan.ReturnDate,
	})
}

func (h *Handler) HandleExtendLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "loanID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid loan ID")
		return
	}
	var req struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	loan, err := h.service.Extend(r.Context(), id, req.Days)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"loan_id":      loan.ID,
		"new_due_date": loan.DueDate,
	})
}

func (h *Handler) HandleUserLoans(w http.ResponseWriter, r *http.Request) {
	listLoans(w, r, h.service.UserLoans)
}

func (h *Handler) HandleUserActiveLoans(w http.ResponseWriter, r *http.Request) {
	listLoans(w, r, h.service.UserActiveLoans)
}

func listLoans(w http.ResponseWriter, r *http.Request, list func(context.Context, int64) ([]*Loan, error)) {
	id, err := pathID(r, "userID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	loans, err := list(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if loans == nil {
		loans = []*Loan{}
	}
	httpx.JSON(w, http.StatusOK, loans)
}

func (h *Handler) HandleUserActiveReservations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	reservations, err := h.service.UserActiveReservations(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if reservations == nil {
		reservations = []*Reservation{}
	}
	httpx.JSON(w, http.StatusOK, reservations)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrBookNotFound),
		errors.Is(err, ErrReservationNotFound),
		errors.Is(err, ErrLoanNotFound),
		errors.Is(err, ErrNoActiveLoan):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyReserved),
		errors.Is(err, ErrAlreadyIssued),
		errors.Is(err, ErrReservedByOther),
		errors.Is(err, ErrAlreadyReturned),
		errors.Is(err, ErrReservationClosed):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrBookWithdrawn):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		httpx.Error(w, http.StatusInternalServerError, err.Error())
	}
}
