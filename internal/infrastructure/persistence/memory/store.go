// Package memory is a process-local inventory store. It backs the "memory" database
// driver and the application tests. Transactions are serialized by one mutex and run
// against a copy of the state that replaces the live state only on success.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/marketplace/inventory/internal/application/inventory"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
)

type lineKey struct {
	orderID string
	key     inventory.AccountKey
}

type state struct {
	accounts     map[inventory.AccountKey]inventory.StockAccount
	ledger       []inventory.LedgerEntry
	sequence     int64
	reservations map[lineKey]inventory.Reservation
	alerts       map[uuid.UUID]inventory.LowStockAlert
	thresholds   map[uuid.UUID]inventory.ThresholdOverride
}

func newState() *state {
	return &state{
		accounts:     make(map[inventory.AccountKey]inventory.StockAccount),
		reservations: make(map[lineKey]inventory.Reservation),
		alerts:       make(map[uuid.UUID]inventory.LowStockAlert),
		thresholds:   make(map[uuid.UUID]inventory.ThresholdOverride),
	}
}

// clone copies the maps; the ledger is append-only so its backing array is shared
// up to the current length.
func (s *state) clone() *state {
	c := &state{
		accounts:     make(map[inventory.AccountKey]inventory.StockAccount, len(s.accounts)),
		ledger:       s.ledger[:len(s.ledger):len(s.ledger)],
		sequence:     s.sequence,
		reservations: make(map[lineKey]inventory.Reservation, len(s.reservations)),
		alerts:       make(map[uuid.UUID]inventory.LowStockAlert, len(s.alerts)),
		thresholds:   make(map[uuid.UUID]inventory.ThresholdOverride, len(s.thresholds)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.alerts {
		c.alerts[k] = v
	}
	for k, v := range s.thresholds {
		c.thresholds[k] = v
	}
	return c
}

// Store holds all inventory state in memory
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{state: newState()}
}

// Execute implements appinventory.TransactionScope
func (s *Store) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txRepos{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// Seed opens an account holding quantity units, booked as INITIAL_STOCK so the ledger replays.
func (s *Store) Seed(key inventory.AccountKey, quantity int) error {
	return s.Execute(context.Background(), func(repos appinventory.TransactionalRepositories) error {
		account, err := inventory.NewStockAccount(key)
		if err != nil {
			return err
		}
		if err := repos.Accounts().Create(context.Background(), account); err != nil {
			return err
		}
		if quantity == 0 {
			return nil
		}
		entry, err := account.Add(quantity, inventory.ReasonInitialStock, "", "seed")
		if err != nil {
			return err
		}
		if err := repos.Accounts().SaveWithLock(context.Background(), account); err != nil {
			return err
		}
		return repos.Ledger().Append(context.Background(), entry)
	})
}

// Quantity returns the stored quantity of an account, or -1 when it does not exist
func (s *Store) Quantity(key inventory.AccountKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.state.accounts[key]
	if !ok {
		return -1
	}
	return account.Quantity
}

// LedgerLen returns the number of ledger entries written so far
func (s *Store) LedgerLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.ledger)
}

type txRepos struct {
	state *state
}

func (t *txRepos) Accounts() inventory.StockAccountRepository    { return accountRepo{t.state} }
func (t *txRepos) Ledger() inventory.LedgerRepository            { return ledgerRepo{t.state} }
func (t *txRepos) Reservations() inventory.ReservationRepository { return reservationRepo{t.state} }
func (t *txRepos) Alerts() inventory.LowStockAlertRepository     { return alertRepo{t.state} }
func (t *txRepos) Thresholds() inventory.ThresholdRepository     { return thresholdRepo{t.state} }

type accountRepo struct{ s *state }

func (r accountRepo) FindByKey(_ context.Context, key inventory.AccountKey) (*inventory.StockAccount, error) {
	account, ok := r.s.accounts[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &account, nil
}

func (r accountRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]inventory.StockAccount, error) {
	var result []inventory.StockAccount
	for key, account := range r.s.accounts {
		if key.ProductID == productID {
			result = append(result, account)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].VariantID.String() < result[j].VariantID.String()
	})
	return result, nil
}

func (r accountRepo) Create(_ context.Context, account *inventory.StockAccount) error {
	key := account.Key()
	if _, ok := r.s.accounts[key]; ok {
		return shared.NewValidationError("Stock account already exists for " + key.String())
	}
	stored := *account
	stored.ClearDomainEvents()
	r.s.accounts[key] = stored
	return nil
}

func (r accountRepo) SaveWithLock(_ context.Context, account *inventory.StockAccount) error {
	key := account.Key()
	current, ok := r.s.accounts[key]
	if !ok || current.Version != account.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	stored := *account
	stored.ClearDomainEvents()
	r.s.accounts[key] = stored
	return nil
}

type ledgerRepo struct{ s *state }

func (r ledgerRepo) Append(_ context.Context, entry *inventory.LedgerEntry) error {
	r.s.sequence++
	entry.Sequence = r.s.sequence
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.s.ledger = append(r.s.ledger, *entry)
	return nil
}

func (r ledgerRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]inventory.LedgerEntry, error) {
	var result []inventory.LedgerEntry
	for _, e := range r.s.ledger {
		if e.ProductID == productID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r ledgerRepo) FindByAccount(_ context.Context, key inventory.AccountKey) ([]inventory.LedgerEntry, error) {
	var result []inventory.LedgerEntry
	for _, e := range r.s.ledger {
		if e.Key() == key {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r ledgerRepo) FindRecent(_ context.Context, limit int) ([]inventory.LedgerEntry, error) {
	n := len(r.s.ledger)
	if limit > n || limit <= 0 {
		limit = n
	}
	result := make([]inventory.LedgerEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, r.s.ledger[i])
	}
	return result, nil
}

type reservationRepo struct{ s *state }

func (r reservationRepo) FindByLine(_ context.Context, orderID string, key inventory.AccountKey) (*inventory.Reservation, error) {
	reservation, ok := r.s.reservations[lineKey{orderID: orderID, key: key}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &reservation, nil
}

func (r reservationRepo) FindByOrder(_ context.Context, orderID string) ([]inventory.Reservation, error) {
	var result []inventory.Reservation
	for k, reservation := range r.s.reservations {
		if k.orderID == orderID {
			result = append(result, reservation)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r reservationRepo) Create(_ context.Context, reservation *inventory.Reservation) error {
	k := lineKey{orderID: reservation.OrderID, key: reservation.Key()}
	if _, ok := r.s.reservations[k]; ok {
		return shared.ErrConcurrencyConflict
	}
	r.s.reservations[k] = *reservation
	return nil
}

func (r reservationRepo) SaveWithLock(_ context.Context, reservation *inventory.Reservation) error {
	k := lineKey{orderID: reservation.OrderID, key: reservation.Key()}
	current, ok := r.s.reservations[k]
	if !ok || current.Version != reservation.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.s.reservations[k] = *reservation
	return nil
}

type alertRepo struct{ s *state }

func (r alertRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.LowStockAlert, error) {
	alert, ok := r.s.alerts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &alert, nil
}

func (r alertRepo) FindOpenByKey(_ context.Context, key inventory.AccountKey) (*inventory.LowStockAlert, error) {
	for _, alert := range r.s.alerts {
		if !alert.Acknowledged && alert.Key() == key {
			return &alert, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r alertRepo) FindOpen(_ context.Context) ([]inventory.LowStockAlert, error) {
	var result []inventory.LowStockAlert
	for _, alert := range r.s.alerts {
		if !alert.Acknowledged {
			result = append(result, alert)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r alertRepo) Create(ctx context.Context, alert *inventory.LowStockAlert) error {
	if _, err := r.FindOpenByKey(ctx, alert.Key()); err == nil {
		return shared.ErrConcurrencyConflict
	}
	r.s.alerts[alert.ID] = *alert
	return nil
}

func (r alertRepo) Save(_ context.Context, alert *inventory.LowStockAlert) error {
	if _, ok := r.s.alerts[alert.ID]; !ok {
		return shared.ErrNotFound
	}
	r.s.alerts[alert.ID] = *alert
	return nil
}

type thresholdRepo struct{ s *state }

func (r thresholdRepo) FindByProduct(_ context.Context, productID uuid.UUID) (*inventory.ThresholdOverride, error) {
	override, ok := r.s.thresholds[productID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &override, nil
}

func (r thresholdRepo) Save(_ context.Context, override *inventory.ThresholdOverride) error {
	r.s.thresholds[override.ProductID] = *override
	return nil
}

func (r thresholdRepo) Delete(_ context.Context, productID uuid.UUID) error {
	if _, ok := r.s.thresholds[productID]; !ok {
		return shared.NewNotFoundError("No low-stock threshold override for product " + productID.String())
	}
	delete(r.s.thresholds, productID)
	return nil
}

var _ appinventory.TransactionScope = (*Store)(nil)
