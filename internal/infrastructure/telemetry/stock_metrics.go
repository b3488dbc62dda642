package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appinventory "github.com/marketplace/inventory/internal/application/inventory"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stock metric names.
const (
	MetricLedgerEntries     = "inventory_ledger_entries_total"
	MetricQuantityMoved     = "inventory_quantity_moved_total"
	MetricRejectedMutations = "inventory_rejected_mutations_total"
	MetricLowStockAlerts    = "inventory_low_stock_alerts_total"
)

// StockMetrics records stock mutations as OpenTelemetry counters.
type StockMetrics struct {
	ledgerEntries  metric.Int64Counter
	quantityMoved  metric.Int64Counter
	rejected       metric.Int64Counter
	lowStockAlerts metric.Int64Counter
}

// NewStockMetrics creates the stock counters on meter.
func NewStockMetrics(meter metric.Meter) (*StockMetrics, error) {
	var (
		m   StockMetrics
		err error
	)
	if m.ledgerEntries, err = meter.Int64Counter(MetricLedgerEntries,
		metric.WithDescription("Committed ledger entries by change type and reason"),
		metric.WithUnit("{entry}")); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetricLedgerEntries, err)
	}
	if m.quantityMoved, err = meter.Int64Counter(MetricQuantityMoved,
		metric.WithDescription("Absolute units moved by committed ledger entries"),
		metric.WithUnit("{unit}")); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetricQuantityMoved, err)
	}
	if m.rejected, err = meter.Int64Counter(MetricRejectedMutations,
		metric.WithDescription("Stock mutations rejected before commit"),
		metric.WithUnit("{mutation}")); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetricRejectedMutations, err)
	}
	if m.lowStockAlerts, err = meter.Int64Counter(MetricLowStockAlerts,
		metric.WithDescription("Low-stock alerts raised"),
		metric.WithUnit("{alert}")); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetricLowStockAlerts, err)
	}
	return &m, nil
}

// RecordLedgerEntry counts a committed entry and the units it moved.
func (m *StockMetrics) RecordLedgerEntry(ctx context.Context, entry *inventory.LedgerEntry) {
	attrs := metric.WithAttributes(
		attribute.String("change_type", string(entry.ChangeType)),
		attribute.String("reason", string(entry.Reason)),
	)
	m.ledgerEntries.Add(ctx, 1, attrs)

	moved := entry.QuantityChange
	if moved < 0 {
		moved = -moved
	}
	m.quantityMoved.Add(ctx, int64(moved), attrs)
}

// RecordRejected counts a mutation that failed with the given error code.
func (m *StockMetrics) RecordRejected(ctx context.Context, operation, code string) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("code", code),
	))
}

// RecordAlertRaised counts a new low-stock alert.
func (m *StockMetrics) RecordAlertRaised(ctx context.Context, alert *inventory.LowStockAlert) {
	m.lowStockAlerts.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("has_variant", alert.VariantID != uuid.Nil),
	))
}

var _ appinventory.MutationRecorder = (*StockMetrics)(nil)
