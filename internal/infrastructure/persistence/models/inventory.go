package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
)

// StockAccountModel is the persistence model for the StockAccount aggregate root.
// VariantID is the zero UUID for products without variants so the unique key stays total.
type StockAccountModel struct {
	AggregateModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_account_key,priority:1"`
	VariantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_account_key,priority:2"`
	Quantity  int       `gorm:"not null;default:0;check:chk_stock_account_quantity,quantity >= 0"`
}

// TableName returns the table name for GORM
func (StockAccountModel) TableName() string {
	return "stock_accounts"
}

// ToDomain converts the persistence model to a domain StockAccount.
func (m *StockAccountModel) ToDomain() *inventory.StockAccount {
	return &inventory.StockAccount{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ProductID:         m.ProductID,
		VariantID:         m.VariantID,
		Quantity:          m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain StockAccount.
func (m *StockAccountModel) FromDomain(a *inventory.StockAccount) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.ProductID = a.ProductID
	m.VariantID = a.VariantID
	m.Quantity = a.Quantity
}

// StockAccountModelFromDomain creates a new persistence model from a domain StockAccount.
func StockAccountModelFromDomain(a *inventory.StockAccount) *StockAccountModel {
	m := &StockAccountModel{}
	m.FromDomain(a)
	return m
}

// LedgerEntryModel is the persistence model for an immutable ledger entry.
// Sequence is assigned by the database and orders entries that share a timestamp.
type LedgerEntryModel struct {
	Sequence       int64     `gorm:"primaryKey;autoIncrement"`
	ID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index:idx_ledger_account,priority:1"`
	VariantID      uuid.UUID `gorm:"type:uuid;not null;index:idx_ledger_account,priority:2"`
	ChangeType     string    `gorm:"type:varchar(20);not null;index"`
	QuantityBefore int       `gorm:"not null"`
	QuantityChange int       `gorm:"not null"`
	QuantityAfter  int       `gorm:"not null"`
	Reason         string    `gorm:"type:varchar(50);not null"`
	Notes          string    `gorm:"type:text"`
	ReferenceID    string    `gorm:"type:varchar(100);index"`
	ActorID        string    `gorm:"type:varchar(100);not null"`
	CreatedAt      time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "stock_ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry.
func (m *LedgerEntryModel) ToDomain() *inventory.LedgerEntry {
	return &inventory.LedgerEntry{
		ID:             m.ID,
		Sequence:       m.Sequence,
		ProductID:      m.ProductID,
		VariantID:      m.VariantID,
		ChangeType:     inventory.ChangeType(m.ChangeType),
		QuantityBefore: m.QuantityBefore,
		QuantityChange: m.QuantityChange,
		QuantityAfter:  m.QuantityAfter,
		Reason:         inventory.Reason(m.Reason),
		Notes:          m.Notes,
		ReferenceID:    m.ReferenceID,
		ActorID:        m.ActorID,
		CreatedAt:      m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry.
// Sequence is left zero so the database assigns it on insert.
func LedgerEntryModelFromDomain(e *inventory.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:             e.ID,
		ProductID:      e.ProductID,
		VariantID:      e.VariantID,
		ChangeType:     string(e.ChangeType),
		QuantityBefore: e.QuantityBefore,
		QuantityChange: e.QuantityChange,
		QuantityAfter:  e.QuantityAfter,
		Reason:         string(e.Reason),
		Notes:          e.Notes,
		ReferenceID:    e.ReferenceID,
		ActorID:        e.ActorID,
		CreatedAt:      e.CreatedAt,
	}
}

// ReservationModel is the persistence model for a reserved order line.
type ReservationModel struct {
	AggregateModel
	OrderID    string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_reservation_line,priority:1"`
	ProductID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_line,priority:2"`
	VariantID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_line,priority:3"`
	Quantity   int        `gorm:"not null"`
	Status     string     `gorm:"type:varchar(20);not null;index"`
	ReservedBy string     `gorm:"type:varchar(100);not null"`
	ResolvedBy string     `gorm:"type:varchar(100)"`
	ResolvedAt *time.Time
}

// TableName returns the table name for GORM
func (ReservationModel) TableName() string {
	return "stock_reservations"
}

// ToDomain converts the persistence model to a domain Reservation.
func (m *ReservationModel) ToDomain() *inventory.Reservation {
	return &inventory.Reservation{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderID:           m.OrderID,
		ProductID:         m.ProductID,
		VariantID:         m.VariantID,
		Quantity:          m.Quantity,
		Status:            inventory.ReservationStatus(m.Status),
		ReservedBy:        m.ReservedBy,
		ResolvedBy:        m.ResolvedBy,
		ResolvedAt:        m.ResolvedAt,
	}
}

// FromDomain populates the persistence model from a domain Reservation.
func (m *ReservationModel) FromDomain(r *inventory.Reservation) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.OrderID = r.OrderID
	m.ProductID = r.ProductID
	m.VariantID = r.VariantID
	m.Quantity = r.Quantity
	m.Status = string(r.Status)
	m.ReservedBy = r.ReservedBy
	m.ResolvedBy = r.ResolvedBy
	m.ResolvedAt = r.ResolvedAt
}

// ReservationModelFromDomain creates a new persistence model from a domain Reservation.
func ReservationModelFromDomain(r *inventory.Reservation) *ReservationModel {
	m := &ReservationModel{}
	m.FromDomain(r)
	return m
}

// LowStockAlertModel is the persistence model for a low-stock alert.
// The partial unique index allows a single unacknowledged alert per account.
type LowStockAlertModel struct {
	BaseModel
	ProductID          uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_low_stock_alert_open,priority:1,where:acknowledged = false"`
	VariantID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_low_stock_alert_open,priority:2,where:acknowledged = false"`
	ThresholdAtTrigger int        `gorm:"not null"`
	StockAtTrigger     int        `gorm:"not null"`
	Acknowledged       bool       `gorm:"not null;default:false;index"`
	AcknowledgedBy     *string    `gorm:"type:varchar(100)"`
	AcknowledgedAt     *time.Time
}

// TableName returns the table name for GORM
func (LowStockAlertModel) TableName() string {
	return "low_stock_alerts"
}

// ToDomain converts the persistence model to a domain LowStockAlert.
func (m *LowStockAlertModel) ToDomain() *inventory.LowStockAlert {
	return &inventory.LowStockAlert{
		BaseEntity:         m.BaseModel.ToDomain(),
		ProductID:          m.ProductID,
		VariantID:          m.VariantID,
		ThresholdAtTrigger: m.ThresholdAtTrigger,
		StockAtTrigger:     m.StockAtTrigger,
		Acknowledged:       m.Acknowledged,
		AcknowledgedBy:     m.AcknowledgedBy,
		AcknowledgedAt:     m.AcknowledgedAt,
	}
}

// FromDomain populates the persistence model from a domain LowStockAlert.
func (m *LowStockAlertModel) FromDomain(a *inventory.LowStockAlert) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.ProductID = a.ProductID
	m.VariantID = a.VariantID
	m.ThresholdAtTrigger = a.ThresholdAtTrigger
	m.StockAtTrigger = a.StockAtTrigger
	m.Acknowledged = a.Acknowledged
	m.AcknowledgedBy = a.AcknowledgedBy
	m.AcknowledgedAt = a.AcknowledgedAt
}

// LowStockAlertModelFromDomain creates a new persistence model from a domain LowStockAlert.
func LowStockAlertModelFromDomain(a *inventory.LowStockAlert) *LowStockAlertModel {
	m := &LowStockAlertModel{}
	m.FromDomain(a)
	return m
}

// ThresholdOverrideModel stores the per-product low-stock threshold.
type ThresholdOverrideModel struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Threshold int       `gorm:"not null;check:chk_threshold_override_threshold,threshold >= 0"`
	UpdatedBy string    `gorm:"type:varchar(100);not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ThresholdOverrideModel) TableName() string {
	return "low_stock_threshold_overrides"
}

// ToDomain converts the persistence model to a domain ThresholdOverride.
func (m *ThresholdOverrideModel) ToDomain() *inventory.ThresholdOverride {
	return &inventory.ThresholdOverride{
		ProductID: m.ProductID,
		Threshold: m.Threshold,
		UpdatedBy: m.UpdatedBy,
		UpdatedAt: m.UpdatedAt,
	}
}

// ThresholdOverrideModelFromDomain creates a new persistence model from a domain ThresholdOverride.
func ThresholdOverrideModelFromDomain(o *inventory.ThresholdOverride) *ThresholdOverrideModel {
	return &ThresholdOverrideModel{
		ProductID: o.ProductID,
		Threshold: o.Threshold,
		UpdatedBy: o.UpdatedBy,
		UpdatedAt: o.UpdatedAt,
	}
}

// AllModels lists every model in migration order, for AutoMigrate on embedded databases.
func AllModels() []any {
	return []any{
		&StockAccountModel{},
		&LedgerEntryModel{},
		&ReservationModel{},
		&LowStockAlertModel{},
		&ThresholdOverrideModel{},
	}
}
