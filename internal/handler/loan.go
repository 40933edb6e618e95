package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aegisbank/ledger-engine/internal/domain"
	"github.com/aegisbank/ledger-engine/internal/service"
	"github.com/aegisbank/ledger-engine/pkg/response"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Request files a new loan application for the caller.
func (h *LoanHandler) Request(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	loan, err := h.service.Request(r.Context(), actor, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, loan)
}

// Get returns a single loan.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	loanID, ok := pathUUID(w, mux.Vars(r), "loanId")
	if !ok {
		return
	}

	loan, err := h.service.Get(r.Context(), actor, loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

// List returns the caller's loans. Staff may filter by status or inspect
// another borrower.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		loans, err := h.service.ListByStatus(r.Context(), actor, domain.LoanStatus(status))
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.Success(w, loans)
		return
	}

	borrowerID := actor.UserID
	if raw := r.URL.Query().Get("borrower"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid borrower", err)
			return
		}
		borrowerID = parsed
	}

	loans, err := h.service.ListByBorrower(r.Context(), actor, borrowerID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loans)
}

// Decide records a staff approval or rejection.
func (h *LoanHandler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	loanID, ok := pathUUID(w, mux.Vars(r), "loanId")
	if !ok {
		return
	}

	var req domain.LoanDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	loan, err := h.service.Decide(r.Context(), actor, loanID, req.Status, req.AdminNotes)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

// Cancel closes a loan with an optional reason.
func (h *LoanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	loanID, ok := pathUUID(w, mux.Vars(r), "loanId")
	if !ok {
		return
	}

	var req domain.LoanCancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	loan, err := h.service.Cancel(r.Context(), actor, loanID, req.Reason)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

// Update patches loan fields directly.
func (h *LoanHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	loanID, ok := pathUUID(w, mux.Vars(r), "loanId")
	if !ok {
		return
	}

	var req domain.LoanAdminUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	loan, err := h.service.AdminUpdate(r.Context(), actor, loanID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

// Delete removes a loan record.
func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	loanID, ok := pathUUID(w, mux.Vars(r), "loanId")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor, loanID); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}
