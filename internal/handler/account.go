package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aegisbank/ledger-engine/internal/domain"
	"github.com/aegisbank/ledger-engine/internal/service"
	"github.com/aegisbank/ledger-engine/pkg/response"
)

type AccountHandler struct {
	service   *service.AccountService
	validator *validator.Validate
}

func NewAccountHandler(service *service.AccountService) *AccountHandler {
	return &AccountHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Create opens a new account for the caller, or for the given owner when
// called by staff.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	ownerID := actor.UserID
	if req.OwnerID != nil {
		ownerID = *req.OwnerID
	}

	account, err := h.service.Create(r.Context(), actor, ownerID, req.Type, req.Nickname)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, account)
}

// Get returns a single account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, mux.Vars(r), "accountId")
	if !ok {
		return
	}

	account, err := h.service.GetByID(r.Context(), actor, accountID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, account)
}

// List returns the caller's accounts. Staff may list another owner via the
// owner query parameter.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	ownerID := actor.UserID
	if raw := r.URL.Query().Get("owner"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid owner", err)
			return
		}
		ownerID = parsed
	}

	accounts, err := h.service.ListByOwner(r.Context(), actor, ownerID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, accounts)
}

// ListPending returns the staff approval queue.
func (h *AccountHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	accounts, err := h.service.ListPending(r.Context(), actor)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, accounts)
}

// Approve activates a pending account.
func (h *AccountHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Approve)
}

// Freeze suspends an active account.
func (h *AccountHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Freeze)
}

// Unfreeze reactivates a frozen account.
func (h *AccountHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Unfreeze)
}

// Cancel closes an account.
func (h *AccountHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Cancel)
}

func (h *AccountHandler) lifecycle(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, actor domain.Actor, accountID uuid.UUID) (*domain.Account, error)) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, mux.Vars(r), "accountId")
	if !ok {
		return
	}

	account, err := op(r.Context(), actor, accountID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, account)
}

// Reject deletes a pending account.
func (h *AccountHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, mux.Vars(r), "accountId")
	if !ok {
		return
	}

	if err := h.service.Reject(r.Context(), actor, accountID); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

// Deposit credits an account directly.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, mux.Vars(r), "accountId")
	if !ok {
		return
	}

	var req domain.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	account, err := h.service.Deposit(r.Context(), actor, accountID, req.Amount)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, account)
}

// Delete removes an account and its outgoing transfers.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, mux.Vars(r), "accountId")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor, accountID); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}
