package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultMaxConflictRetries is how many times a unit of work is re-run after a version conflict
const DefaultMaxConflictRetries = 3

// MutationRecorder receives counters for every committed or rejected stock mutation
type MutationRecorder interface {
	RecordLedgerEntry(ctx context.Context, entry *inventory.LedgerEntry)
	RecordRejected(ctx context.Context, operation, code string)
	RecordAlertRaised(ctx context.Context, alert *inventory.LowStockAlert)
}

type noopRecorder struct{}

func (noopRecorder) RecordLedgerEntry(context.Context, *inventory.LedgerEntry)   {}
func (noopRecorder) RecordRejected(context.Context, string, string)              {}
func (noopRecorder) RecordAlertRaised(context.Context, *inventory.LowStockAlert) {}

// StockChecker is invoked after every committed mutation of an account
type StockChecker interface {
	Check(ctx context.Context, key inventory.AccountKey) (*LowStockAlertResponse, error)
	GetLowStockThreshold(ctx context.Context, productID *uuid.UUID) (int, error)
}

// StockAccountService is the single mutation surface for stock quantities.
// Deduct, Add and Adjust each run read, validate, write and ledger append as one
// transaction, then hand the account to the low-stock monitor.
type StockAccountService struct {
	scope          TransactionScope
	checker        StockChecker
	eventPublisher shared.EventPublisher
	recorder       MutationRecorder
	logger         *zap.Logger
	maxRetries     int
}

// NewStockAccountService creates a new StockAccountService
func NewStockAccountService(scope TransactionScope, checker StockChecker, logger *zap.Logger) *StockAccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockAccountService{
		scope:      scope,
		checker:    checker,
		recorder:   noopRecorder{},
		logger:     logger,
		maxRetries: DefaultMaxConflictRetries,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockAccountService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRecorder sets the metrics recorder
func (s *StockAccountService) SetRecorder(recorder MutationRecorder) {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	s.recorder = recorder
}

// SetMaxConflictRetries bounds how often a conflicting unit of work is retried
func (s *StockAccountService) SetMaxConflictRetries(n int) {
	if n < 0 {
		n = 0
	}
	s.maxRetries = n
}

// OpenAccount creates the stock account of a product or variant. A positive initial
// quantity is booked as an INITIAL_STOCK addition so the ledger replays from zero.
func (s *StockAccountService) OpenAccount(ctx context.Context, input OpenAccountInput) (*StockAccountResponse, error) {
	if err := requireActor(input.ActorID); err != nil {
		return nil, err
	}
	if input.InitialQuantity < 0 {
		return nil, shared.NewValidationError("Stock quantity cannot be negative")
	}
	key := inventory.NewAccountKey(input.ProductID, input.VariantID)

	var opened *inventory.StockAccount
	_, err := s.runUnit(ctx, "open_account", func(ctx context.Context, repos TransactionalRepositories, uow *unitOfWork) error {
		if _, err := repos.Accounts().FindByKey(ctx, key); err == nil {
			return shared.NewValidationError(fmt.Sprintf("Stock account already exists for %s", key))
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		account, err := inventory.NewStockAccount(key)
		if err != nil {
			return err
		}
		if err := repos.Accounts().Create(ctx, account); err != nil {
			return err
		}
		opened = account
		if input.InitialQuantity == 0 {
			return nil
		}
		entry, err := account.Add(input.InitialQuantity, inventory.ReasonInitialStock, "", input.ActorID)
		if err != nil {
			return err
		}
		return uow.write(ctx, repos, account, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock account opened",
		zap.String("account", key.String()),
		zap.Int("initial_quantity", input.InitialQuantity),
		zap.String("actor_id", input.ActorID),
	)
	resp := ToStockAccountResponse(opened, s.threshold(ctx, key.ProductID))
	return &resp, nil
}

// Deduct removes stock. Fails with InsufficientStockError when fewer units are on hand.
// ORDER_RESERVATION and ORDER_CANCELLATION are refused; use ReservationService.
func (s *StockAccountService) Deduct(ctx context.Context, input DeductStockInput) (*LedgerEntryResponse, error) {
	if err := requireActor(input.ActorID); err != nil {
		return nil, err
	}
	key := inventory.NewAccountKey(input.ProductID, input.VariantID)

	uow, err := s.runUnit(ctx, "deduct", func(ctx context.Context, repos TransactionalRepositories, uow *unitOfWork) error {
		account, err := loadAccount(ctx, repos, key)
		if err != nil {
			return err
		}
		return uow.deduct(ctx, repos, account, input.Quantity, input.Reason, input.ReferenceID, input.ActorID)
	})
	if err != nil {
		return nil, err
	}
	return uow.lastResponse(), nil
}

// Add puts stock back on hand. The order reservation reasons are refused.
func (s *StockAccountService) Add(ctx context.Context, input AddStockInput) (*LedgerEntryResponse, error) {
	if err := requireActor(input.ActorID); err != nil {
		return nil, err
	}
	key := inventory.NewAccountKey(input.ProductID, input.VariantID)

	uow, err := s.runUnit(ctx, "add", func(ctx context.Context, repos TransactionalRepositories, uow *unitOfWork) error {
		account, err := loadAccount(ctx, repos, key)
		if err != nil {
			return err
		}
		return uow.add(ctx, repos, account, input.Quantity, input.Reason, input.ReferenceID, input.ActorID)
	})
	if err != nil {
		return nil, err
	}
	return uow.lastResponse(), nil
}

// Adjust sets the on-hand quantity to an absolute value. Notes are mandatory.
func (s *StockAccountService) Adjust(ctx context.Context, input AdjustStockInput) (*LedgerEntryResponse, error) {
	if err := requireActor(input.ActorID); err != nil {
		return nil, err
	}
	key := inventory.NewAccountKey(input.ProductID, input.VariantID)

	uow, err := s.runUnit(ctx, "adjust", func(ctx context.Context, repos TransactionalRepositories, uow *unitOfWork) error {
		account, err := loadAccount(ctx, repos, key)
		if err != nil {
			return err
		}
		entry, err := account.Adjust(input.NewQuantity, input.Reason, input.Notes, input.ActorID)
		if err != nil {
			return err
		}
		return uow.write(ctx, repos, account, entry)
	})
	if err != nil {
		return nil, err
	}
	return uow.lastResponse(), nil
}

// unitOfWork collects what one transaction wrote so it can be reported after commit
type unitOfWork struct {
	entries  []*inventory.LedgerEntry
	accounts []*inventory.StockAccount
}

func (u *unitOfWork) deduct(ctx context.Context, repos TransactionalRepositories, account *inventory.StockAccount,
	quantity int, reason inventory.Reason, referenceID, actorID string) error {
	entry, err := account.Deduct(quantity, reason, referenceID, actorID)
	if err != nil {
		return err
	}
	return u.write(ctx, repos, account, entry)
}

func (u *unitOfWork) add(ctx context.Context, repos TransactionalRepositories, account *inventory.StockAccount,
	quantity int, reason inventory.Reason, referenceID, actorID string) error {
	entry, err := account.Add(quantity, reason, referenceID, actorID)
	if err != nil {
		return err
	}
	return u.write(ctx, repos, account, entry)
}

// hold books a RESERVATION for orderID; only the reservation flow calls it
func (u *unitOfWork) hold(ctx context.Context, repos TransactionalRepositories, account *inventory.StockAccount,
	quantity int, orderID, actorID string) error {
	entry, err := account.Hold(quantity, orderID, actorID)
	if err != nil {
		return err
	}
	return u.write(ctx, repos, account, entry)
}

// restore books the RELEASE of a held line
func (u *unitOfWork) restore(ctx context.Context, repos TransactionalRepositories, account *inventory.StockAccount,
	quantity int, orderID, actorID string) error {
	entry, err := account.Restore(quantity, orderID, actorID)
	if err != nil {
		return err
	}
	return u.write(ctx, repos, account, entry)
}

// write persists the new quantity under the version check and appends the entry
func (u *unitOfWork) write(ctx context.Context, repos TransactionalRepositories, account *inventory.StockAccount, entry *inventory.LedgerEntry) error {
	if err := repos.Accounts().SaveWithLock(ctx, account); err != nil {
		return err
	}
	if err := repos.Ledger().Append(ctx, entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	u.entries = append(u.entries, entry)
	for _, a := range u.accounts {
		if a == account {
			return nil
		}
	}
	u.accounts = append(u.accounts, account)
	return nil
}

func (u *unitOfWork) lastResponse() *LedgerEntryResponse {
	if len(u.entries) == 0 {
		return nil
	}
	resp := ToLedgerEntryResponse(u.entries[len(u.entries)-1])
	return &resp
}

func (u *unitOfWork) responses() []LedgerEntryResponse {
	result := make([]LedgerEntryResponse, len(u.entries))
	for i, e := range u.entries {
		result[i] = ToLedgerEntryResponse(e)
	}
	return result
}

type unitFunc func(ctx context.Context, repos TransactionalRepositories, uow *unitOfWork) error

// runUnit executes fn in a transaction, re-running it with a fresh read when the
// version check fails. After commit it publishes events and runs the low-stock check.
func (s *StockAccountService) runUnit(ctx context.Context, operation string, fn unitFunc) (*unitOfWork, error) {
	var (
		uow *unitOfWork
		err error
	)
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		uow = &unitOfWork{}
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			return fn(ctx, repos, uow)
		})
		if err == nil || !shared.IsConflict(err) {
			break
		}
		s.logger.Debug("stock account version conflict, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
		)
	}
	if err != nil {
		s.reject(ctx, operation, err)
		return nil, err
	}

	// The mutation is committed; a client that went away must not suppress the alert.
	s.afterCommit(context.WithoutCancel(ctx), uow)
	return uow, nil
}

func (s *StockAccountService) reject(ctx context.Context, operation string, err error) {
	code := shared.ErrorCode(err)
	if code == "" {
		code = "INTERNAL"
		s.logger.Error("stock mutation failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
	} else {
		s.logger.Debug("stock mutation rejected",
			zap.String("operation", operation),
			zap.String("code", code),
			zap.String("reason", err.Error()),
		)
	}
	s.recorder.RecordRejected(ctx, operation, code)
}

// afterCommit never fails: alerting and events are best effort relative to the mutation
func (s *StockAccountService) afterCommit(ctx context.Context, uow *unitOfWork) {
	for _, entry := range uow.entries {
		s.recorder.RecordLedgerEntry(ctx, entry)
		s.logger.Info("stock changed",
			zap.String("product_id", entry.ProductID.String()),
			zap.String("variant_id", entry.VariantID.String()),
			zap.String("change_type", entry.ChangeType.String()),
			zap.Int("quantity_before", entry.QuantityBefore),
			zap.Int("quantity_change", entry.QuantityChange),
			zap.Int("quantity_after", entry.QuantityAfter),
			zap.String("reason", entry.Reason.String()),
			zap.String("reference_id", entry.ReferenceID),
			zap.String("actor_id", entry.ActorID),
		)
	}

	for _, account := range uow.accounts {
		s.publishDomainEvents(ctx, account)
		if s.checker == nil {
			continue
		}
		if _, err := s.checker.Check(ctx, account.Key()); err != nil {
			s.logger.Error("low-stock check failed",
				zap.String("account", account.Key().String()),
				zap.Error(err),
			)
		}
	}
}

// publishDomainEvents publishes all pending domain events of account
func (s *StockAccountService) publishDomainEvents(ctx context.Context, account *inventory.StockAccount) {
	events := account.GetDomainEvents()
	account.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish stock events", zap.Error(err))
	}
}

// threshold resolves the effective threshold for display, falling back to the default
func (s *StockAccountService) threshold(ctx context.Context, productID uuid.UUID) int {
	if s.checker == nil {
		return inventory.DefaultLowStockThreshold
	}
	threshold, err := s.checker.GetLowStockThreshold(ctx, &productID)
	if err != nil {
		s.logger.Warn("failed to resolve low-stock threshold", zap.Error(err))
		return inventory.DefaultLowStockThreshold
	}
	return threshold
}

// loadAccount maps a missing account to a caller facing NotFoundError
func loadAccount(ctx context.Context, repos TransactionalRepositories, key inventory.AccountKey) (*inventory.StockAccount, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	account, err := repos.Accounts().FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Stock account not found for %s", key))
		}
		return nil, err
	}
	return account, nil
}

func requireActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return shared.NewValidationError("Actor is required")
	}
	return nil
}
