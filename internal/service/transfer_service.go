package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/aegisbank/ledger-engine/internal/config"
	"github.com/aegisbank/ledger-engine/internal/domain"
	"github.com/aegisbank/ledger-engine/internal/repository"
	customError "github.com/aegisbank/ledger-engine/pkg/errors"
)

// TransferService drives transfers through their lifecycle: creation with
// classification and fee computation, settlement, reversal and cancellation.
type TransferService struct {
	Store  repository.Store
	Config *config.Config
	redis  *redis.Client
}

func NewTransferService(store repository.Store, redisClient *redis.Client, cfg *config.Config) *TransferService {
	return &TransferService{
		Store:  store,
		Config: cfg,
		redis:  redisClient,
	}
}

// Classify determines the destination class of an IBAN for a given sender:
// INTER_ACCOUNT for the sender's own accounts, INTERNAL for any other
// account of this bank, EXTERNAL when the IBAN is unknown locally.
func (s *TransferService) Classify(ctx context.Context, toIBAN string, senderID uuid.UUID) (domain.TransferType, error) {
	destination, err := s.Store.Accounts().GetByIBAN(ctx, toIBAN)
	if err != nil {
		if customError.IsNotFound(err) {
			return domain.TransferTypeExternal, nil
		}
		return "", err
	}
	if destination.OwnerID == senderID {
		return domain.TransferTypeInterAccount, nil
	}
	return domain.TransferTypeInternal, nil
}

// FeeFor maps a transfer classification to its fee. Only external transfers
// carry a fee.
func (s *TransferService) FeeFor(transferType domain.TransferType) decimal.Decimal {
	if transferType == domain.TransferTypeExternal {
		return s.Config.GetExternalTransferFee()
	}
	return decimal.Zero
}

// Create validates and persists a new PENDING transfer. Funds sufficiency is
// checked against amount plus fee but no hold is placed; settlement re-checks
// under a row lock.
func (s *TransferService) Create(ctx context.Context, actor domain.Actor, request *domain.CreateTransferRequest) (*domain.Transfer, error) {
	if err := validateAmount(request.Amount); err != nil {
		return nil, err
	}
	if request.ToIBAN == "" {
		return nil, customError.WrapValidation("destination IBAN is required")
	}

	source, err := s.Store.Accounts().GetByID(ctx, request.FromAccountID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(source.OwnerID) {
		return nil, customError.WrapForbidden("source account not owned by caller")
	}

	transferType, err := s.Classify(ctx, request.ToIBAN, source.OwnerID)
	if err != nil {
		return nil, err
	}
	fee := s.FeeFor(transferType)
	total := request.Amount.Add(fee)

	if !source.CanWithdraw(total) {
		return nil, customError.WrapInsufficientFunds(source.ID.String())
	}

	now := time.Now()
	transfer := &domain.Transfer{
		ID:            uuid.New(),
		FromAccountID: source.ID,
		ToIBAN:        request.ToIBAN,
		Amount:        request.Amount,
		Fee:           fee,
		TotalAmount:   total,
		Type:          transferType,
		Status:        domain.TransferStatusPending,
		Description:   request.Description,
		Category:      request.Category,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.Store.Transfers().Create(ctx, transfer); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	s.invalidateCache(ctx, source.ID)
	return transfer, nil
}

// Settle applies a pending transfer: the total (amount plus fee) is debited
// from the source under a row lock, and for INTERNAL and INTER_ACCOUNT
// transfers the amount is credited to the destination. A destination IBAN
// that no longer resolves skips the credit. The PENDING status is
// re-validated under the row lock, so a transfer settles at most once. All
// balance mutations commit atomically; on failure nothing is applied, the
// transfer is marked FAILED and the error is returned.
func (s *TransferService) Settle(ctx context.Context, actor domain.Actor, transferID uuid.UUID) (*domain.Transfer, error) {
	transfer, err := s.Store.Transfers().GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	source, err := s.Store.Accounts().GetByID(ctx, transfer.FromAccountID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(source.OwnerID) {
		return nil, customError.WrapForbidden("transfer not owned by caller")
	}

	if transfer.Status != domain.TransferStatusPending {
		return nil, customError.WrapInvalidState("only pending transfers can be settled")
	}

	err = s.Store.Atomic(ctx, func(st repository.Store) error {
		// Re-read under the lock: a concurrent settlement, reversal or
		// expiry may have moved the transfer since the check above.
		locked, err := st.Transfers().GetByIDForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if err := transferTransition(locked, domain.TransferStatusCompleted); err != nil {
			return err
		}

		lockedSource, err := st.Accounts().GetByIDForUpdate(ctx, locked.FromAccountID)
		if err != nil {
			return err
		}

		// Re-check under the lock: the balance may have moved since creation.
		if !lockedSource.CanWithdraw(locked.TotalAmount) {
			return customError.WrapInsufficientFunds(lockedSource.ID.String())
		}
		if err := st.Accounts().UpdateBalance(ctx, lockedSource.ID, lockedSource.Balance.Sub(locked.TotalAmount)); err != nil {
			return err
		}

		if locked.Type != domain.TransferTypeExternal {
			if err := s.creditDestination(ctx, st, locked); err != nil {
				return err
			}
		}

		if err := st.Transfers().Update(ctx, locked); err != nil {
			return err
		}
		transfer = locked
		return nil
	})
	if err != nil {
		if !customError.IsInvalidState(err) {
			s.markFailed(ctx, transfer)
		}
		return nil, err
	}

	s.invalidateCache(ctx, transfer.FromAccountID)
	return transfer, nil
}

// creditDestination credits the transfer amount (never the fee) to the
// destination account. A destination that stopped existing since creation is
// skipped: the debit stands and the credited funds go nowhere.
func (s *TransferService) creditDestination(ctx context.Context, st repository.Store, transfer *domain.Transfer) error {
	destination, err := st.Accounts().GetByIBANForUpdate(ctx, transfer.ToIBAN)
	if err != nil {
		if customError.IsNotFound(err) {
			log.Printf("transfer %s: destination %s no longer resolves, credit skipped", transfer.ID, transfer.ToIBAN)
			return nil
		}
		return err
	}
	return st.Accounts().UpdateBalance(ctx, destination.ID, destination.Balance.Add(transfer.Amount))
}

// markFailed records a settlement failure. The balance mutations of the
// failed attempt were rolled back; only the status flip is persisted, and
// only while the row is still PENDING.
func (s *TransferService) markFailed(ctx context.Context, transfer *domain.Transfer) {
	err := s.Store.Transfers().UpdateStatusIf(ctx, transfer.ID, domain.TransferStatusPending, domain.TransferStatusFailed)
	if err != nil {
		log.Printf("transfer %s: failed to persist FAILED status: %v", transfer.ID, err)
		return
	}
	transfer.Status = domain.TransferStatusFailed
}

// transferTransition validates a status flip against the transfer lifecycle
// and applies it in memory. The caller persists the change.
func transferTransition(transfer *domain.Transfer, target domain.TransferStatus) error {
	if !transfer.Status.CanTransitionTo(target) {
		return customError.WrapInvalidState("transfer cannot move from " + string(transfer.Status) + " to " + string(target))
	}
	transfer.Status = target
	return nil
}

// Reverse undoes a completed transfer: the total is credited back to the
// source and, for INTERNAL and INTER_ACCOUNT transfers, the amount is
// debited back out of the destination. The destination debit is not checked
// for sufficiency and may drive that balance negative.
func (s *TransferService) Reverse(ctx context.Context, actor domain.Actor, transferID uuid.UUID) (*domain.Transfer, error) {
	if !actor.Admin {
		return nil, customError.WrapForbidden("only staff can reverse transfers")
	}

	transfer, err := s.Store.Transfers().GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if transfer.Status != domain.TransferStatusCompleted {
		return nil, customError.WrapInvalidState("only completed transfers can be reversed")
	}

	err = s.Store.Atomic(ctx, func(st repository.Store) error {
		// Re-read under the lock: only a transfer still COMPLETED can be
		// reversed, and only once.
		locked, err := st.Transfers().GetByIDForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if locked.Status != domain.TransferStatusCompleted {
			return customError.WrapInvalidState("only completed transfers can be reversed")
		}
		if err := transferTransition(locked, domain.TransferStatusCancelled); err != nil {
			return err
		}

		source, err := st.Accounts().GetByIDForUpdate(ctx, locked.FromAccountID)
		if err != nil {
			return err
		}
		if err := st.Accounts().UpdateBalance(ctx, source.ID, source.Balance.Add(locked.TotalAmount)); err != nil {
			return err
		}

		if locked.Type != domain.TransferTypeExternal {
			destination, err := st.Accounts().GetByIBANForUpdate(ctx, locked.ToIBAN)
			switch {
			case err == nil:
				if err := st.Accounts().UpdateBalance(ctx, destination.ID, destination.Balance.Sub(locked.Amount)); err != nil {
					return err
				}
			case customError.IsNotFound(err):
				// Destination gone since settlement; nothing to debit back.
			default:
				return err
			}
		}

		locked.Description = locked.Description + domain.ReversedMarker
		if err := st.Transfers().Update(ctx, locked); err != nil {
			return err
		}
		transfer = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, transfer.FromAccountID)
	return transfer, nil
}

// CancelPending withdraws a transfer before settlement. Nothing was moved,
// so no balance is touched.
func (s *TransferService) CancelPending(ctx context.Context, actor domain.Actor, transferID uuid.UUID) (*domain.Transfer, error) {
	transfer, err := s.Store.Transfers().GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(ctx, actor, transfer); err != nil {
		return nil, err
	}
	// COMPLETED transfers also admit CANCELLED, but only via reversal;
	// cancellation is reserved for transfers nothing has moved for yet.
	if transfer.Status != domain.TransferStatusPending {
		return nil, customError.WrapInvalidState("only pending transfers can be cancelled")
	}
	if err := transferTransition(transfer, domain.TransferStatusCancelled); err != nil {
		return nil, err
	}

	if err := s.Store.Transfers().UpdateStatusIf(ctx, transfer.ID, domain.TransferStatusPending, domain.TransferStatusCancelled); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, transfer.FromAccountID)
	return transfer, nil
}

// Update edits a pending transfer. An amount change re-validates funds
// against the new total; a destination change re-runs classification and fee
// computation.
func (s *TransferService) Update(ctx context.Context, actor domain.Actor, transferID uuid.UUID, request *domain.UpdateTransferRequest) (*domain.Transfer, error) {
	transfer, err := s.Store.Transfers().GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	source, err := s.Store.Accounts().GetByID(ctx, transfer.FromAccountID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(source.OwnerID) {
		return nil, customError.WrapForbidden("transfer not owned by caller")
	}
	if transfer.Status != domain.TransferStatusPending {
		return nil, customError.WrapInvalidState("only pending transfers can be updated")
	}

	moneyChanged := false

	if request.ToIBAN != nil && *request.ToIBAN != transfer.ToIBAN {
		transferType, err := s.Classify(ctx, *request.ToIBAN, source.OwnerID)
		if err != nil {
			return nil, err
		}
		transfer.ToIBAN = *request.ToIBAN
		transfer.Type = transferType
		transfer.Fee = s.FeeFor(transferType)
		moneyChanged = true
	}

	if request.Amount != nil {
		if err := validateAmount(*request.Amount); err != nil {
			return nil, err
		}
		transfer.Amount = *request.Amount
		moneyChanged = true
	}

	if moneyChanged {
		transfer.TotalAmount = transfer.Amount.Add(transfer.Fee)
		if !source.CanWithdraw(transfer.TotalAmount) {
			return nil, customError.WrapInsufficientFunds(source.ID.String())
		}
	}

	if request.Description != nil {
		transfer.Description = *request.Description
	}
	if request.Category != nil {
		transfer.Category = *request.Category
	}

	if err := s.Store.Transfers().Update(ctx, transfer); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, transfer.FromAccountID)
	return transfer, nil
}

// Delete removes a transfer record. Owners may delete their own pending
// transfers; staff may delete anything except completed transfers, which
// must be reversed first.
func (s *TransferService) Delete(ctx context.Context, actor domain.Actor, transferID uuid.UUID) error {
	transfer, err := s.Store.Transfers().GetByID(ctx, transferID)
	if err != nil {
		return err
	}
	if err := s.checkOwnership(ctx, actor, transfer); err != nil {
		return err
	}

	if actor.Admin {
		if transfer.Status == domain.TransferStatusCompleted {
			return customError.WrapInvalidState("completed transfers must be reversed before deletion")
		}
	} else if transfer.Status != domain.TransferStatusPending {
		return customError.WrapInvalidState("only pending transfers can be deleted")
	}

	if err := s.Store.Transfers().Delete(ctx, transferID); err != nil {
		return err
	}
	s.invalidateCache(ctx, transfer.FromAccountID)
	return nil
}

// Get returns a transfer visible to the actor.
func (s *TransferService) Get(ctx context.Context, actor domain.Actor, transferID uuid.UUID) (*domain.Transfer, error) {
	transfer, err := s.Store.Transfers().GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(ctx, actor, transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

// ListByAccount returns the transfers debiting an account, most recent
// first. Results are cached per account.
func (s *TransferService) ListByAccount(ctx context.Context, actor domain.Actor, accountID uuid.UUID) ([]*domain.Transfer, error) {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(account.OwnerID) {
		return nil, customError.WrapForbidden("account not owned by caller")
	}

	if cached, ok := s.cachedList(ctx, accountID); ok {
		return cached, nil
	}

	transfers, err := s.Store.Transfers().ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	s.cacheList(ctx, accountID, transfers)
	return transfers, nil
}

// ListByAccountBetween returns the transfers of an account within a date
// range. This is the feed statement rendering consumes.
func (s *TransferService) ListByAccountBetween(ctx context.Context, actor domain.Actor, accountID uuid.UUID, from, to time.Time) ([]*domain.Transfer, error) {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(account.OwnerID) {
		return nil, customError.WrapForbidden("account not owned by caller")
	}
	return s.Store.Transfers().ListByAccountBetween(ctx, accountID, from, to)
}

// ExpirePending cancels transfers that have been pending longer than ttl.
// Returns the number of transfers cancelled.
func (s *TransferService) ExpirePending(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	stale, err := s.Store.Transfers().ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, transfer := range stale {
		err := s.Store.Transfers().UpdateStatusIf(ctx, transfer.ID, domain.TransferStatusPending, domain.TransferStatusCancelled)
		switch {
		case err == nil:
			s.invalidateCache(ctx, transfer.FromAccountID)
			expired++
		case customError.IsInvalidState(err):
			// Settled or cancelled since the sweep query ran; leave it be.
		default:
			log.Printf("transfer %s: failed to expire: %v", transfer.ID, err)
		}
	}
	return expired, nil
}

func (s *TransferService) checkOwnership(ctx context.Context, actor domain.Actor, transfer *domain.Transfer) error {
	if actor.Admin {
		return nil
	}
	source, err := s.Store.Accounts().GetByID(ctx, transfer.FromAccountID)
	if err != nil {
		return err
	}
	if !actor.Owns(source.OwnerID) {
		return customError.WrapForbidden("transfer not owned by caller")
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return customError.WrapValidation("amount must be greater than 0")
	}
	if amount.Exponent() < -2 {
		return customError.WrapValidation("amount must have at most 2 decimal places")
	}
	return nil
}

// Redis-backed per-account list cache. The cache is advisory: any miss or
// marshalling problem falls through to the database.

func transferCacheKey(accountID uuid.UUID) string {
	return "transfers:account:" + accountID.String()
}

func (s *TransferService) cachedList(ctx context.Context, accountID uuid.UUID) ([]*domain.Transfer, bool) {
	if s.redis == nil {
		return nil, false
	}
	payload, err := s.redis.Get(ctx, transferCacheKey(accountID)).Bytes()
	if err != nil {
		return nil, false
	}
	var transfers []*domain.Transfer
	if err := json.Unmarshal(payload, &transfers); err != nil {
		return nil, false
	}
	return transfers, true
}

func (s *TransferService) cacheList(ctx context.Context, accountID uuid.UUID, transfers []*domain.Transfer) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(transfers)
	if err != nil {
		return
	}
	s.redis.Set(ctx, transferCacheKey(accountID), payload, s.Config.GetTransferCacheTTL())
}

func (s *TransferService) invalidateCache(ctx context.Context, accountID uuid.UUID) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, transferCacheKey(accountID))
}
