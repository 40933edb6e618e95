package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/aegisbank/ledger-engine/internal/domain"
	"github.com/aegisbank/ledger-engine/internal/service"
	"github.com/aegisbank/ledger-engine/pkg/response"
)

type TransferHandler struct {
	service   *service.TransferService
	validator *validator.Validate
}

func NewTransferHandler(service *service.TransferService) *TransferHandler {
	return &TransferHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Create files a new pending transfer.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	transfer, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, transfer)
}

// Get returns a single transfer.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	transferID, ok := pathUUID(w, mux.Vars(r), "transferId")
	if !ok {
		return
	}

	transfer, err := h.service.Get(r.Context(), actor, transferID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, transfer)
}

// Settle applies a pending transfer to the ledger.
func (h *TransferHandler) Settle(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	transferID, ok := pathUUID(w, mux.Vars(r), "transferId")
	if !ok {
		return
	}

	transfer, err := h.service.Settle(r.Context(), actor, transferID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, transfer)
}

// Reverse undoes a completed transfer.
func (h *TransferHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	transferID, ok := pathUUID(w, mux.Vars(r), "transferId")
	if !ok {
		return
	}

	transfer, err := h.service.Reverse(r.Context(), actor, transferID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, transfer)
}

// Cancel withdraws a pending transfer.
func (h *TransferHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	transferID, ok := pathUUID(w, mux.Vars(r), "transferId")
	if !ok {
		return
	}

	transfer, err := h.service.CancelPending(r.Context(), actor, transferID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, transfer)
}

// Update edits a pending transfer.
func (h *TransferHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	transferID, ok := pathUUID(w, mux.Vars(r), "transferId")
	if !ok {
		return
	}

	var req domain.UpdateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	transfer, err := h.service.Update(r.Context(), actor, transferID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, transfer)
}

// Delete removes a transfer record.
func (h *TransferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	transferID, ok := pathUUID(w, mux.Vars(r), "transferId")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor, transferID); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

// ListByAccount returns the transfers of an account, most recent first.
func (h *TransferHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, mux.Vars(r), "accountId")
	if !ok {
		return
	}

	transfers, err := h.service.ListByAccount(r.Context(), actor, accountID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, transfers)
}

// Statement returns the transfers of an account within a date range. The
// from and to query parameters take RFC 3339 timestamps or plain dates; to
// defaults to now and from to 30 days before to.
func (h *TransferHandler) Statement(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, mux.Vars(r), "accountId")
	if !ok {
		return
	}

	to := time.Now()
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := parseTimestamp(raw)
		if err != nil {
			response.BadRequest(w, "Invalid to parameter", err)
			return
		}
		to = parsed
	}

	from := to.AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := parseTimestamp(raw)
		if err != nil {
			response.BadRequest(w, "Invalid from parameter", err)
			return
		}
		from = parsed
	}

	transfers, err := h.service.ListByAccountBetween(r.Context(), actor, accountID, from, to)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, transfers)
}

func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
