package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"go.uber.org/zap"
)

// ReservationService holds, releases and fulfils stock for online orders.
// A reservation deducts visible stock immediately; release credits it back and
// fulfil only closes the bookkeeping.
type ReservationService struct {
	stock  *StockAccountService
	logger *zap.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(stock *StockAccountService, logger *zap.Logger) *ReservationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{stock: stock, logger: logger}
}

// Reserve deducts the line quantity with reason ORDER_RESERVATION and records the line as RESERVED.
// A line that was reserved before, in any state, cannot be reserved again.
func (s *ReservationService) Reserve(ctx context.Context, input ReserveInput) (*ReserveResponse, error) {
	if err := requireActor(input.ActorID); err != nil {
		return nil, err
	}
	key := inventory.NewAccountKey(input.ProductID, input.VariantID)
	reservation, err := inventory.NewReservation(strings.TrimSpace(input.OrderID), key, input.Quantity, input.ActorID)
	if err != nil {
		return nil, err
	}

	uow, err := s.stock.runUnit(ctx, "reserve", func(ctx context.Context, repos TransactionalRepositories, uow *unitOfWork) error {
		existing, err := repos.Reservations().FindByLine(ctx, reservation.OrderID, key)
		if err == nil {
			return shared.NewValidationError(fmt.Sprintf(
				"Order %s already has a %s reservation for %s", existing.OrderID, existing.Status, key))
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		account, err := loadAccount(ctx, repos, key)
		if err != nil {
			return err
		}
		if err := uow.hold(ctx, repos, account, reservation.Quantity, reservation.OrderID, input.ActorID); err != nil {
			return err
		}
		return repos.Reservations().Create(ctx, reservation)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock reserved",
		zap.String("order_id", reservation.OrderID),
		zap.String("account", key.String()),
		zap.Int("quantity", reservation.Quantity),
	)
	return &ReserveResponse{
		Reservation: ToReservationResponse(reservation),
		Entry:       *uow.lastResponse(),
	}, nil
}

// Release credits back a RESERVED line with reason ORDER_CANCELLATION and marks it RELEASED.
// Releasing a line that is not RESERVED fails with NotFoundError rather than crediting twice.
func (s *ReservationService) Release(ctx context.Context, input ReleaseInput) (*ReleaseResponse, error) {
	if err := requireActor(input.ActorID); err != nil {
		return nil, err
	}
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return nil, shared.NewValidationError("Order ID is required")
	}
	key := inventory.NewAccountKey(input.ProductID, input.VariantID)

	var released *inventory.Reservation
	uow, err := s.stock.runUnit(ctx, "release", func(ctx context.Context, repos TransactionalRepositories, uow *unitOfWork) error {
		reservation, err := repos.Reservations().FindByLine(ctx, orderID, key)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return inventory.ErrNoActiveReservation
			}
			return err
		}
		if err := reservation.Release(input.Quantity, input.ActorID); err != nil {
			return err
		}

		account, err := loadAccount(ctx, repos, key)
		if err != nil {
			return err
		}
		if err := uow.restore(ctx, repos, account, reservation.Quantity, orderID, input.ActorID); err != nil {
			return err
		}
		if err := repos.Reservations().SaveWithLock(ctx, reservation); err != nil {
			return err
		}
		released = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation released",
		zap.String("order_id", orderID),
		zap.String("account", key.String()),
		zap.Int("quantity", released.Quantity),
	)
	return &ReleaseResponse{
		Reservation: ToReservationResponse(released),
		Entry:       *uow.lastResponse(),
	}, nil
}

// Fulfill closes every RESERVED line of the order. Stock is not touched.
func (s *ReservationService) Fulfill(ctx context.Context, orderID, actorID string) ([]ReservationResponse, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, shared.NewValidationError("Order ID is required")
	}

	var fulfilled []ReservationResponse
	_, err := s.stock.runUnit(ctx, "fulfill", func(ctx context.Context, repos TransactionalRepositories, _ *unitOfWork) error {
		fulfilled = nil
		lines, err := repos.Reservations().FindByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		for i := range lines {
			line := &lines[i]
			if !line.IsActive() {
				continue
			}
			if err := line.Fulfill(actorID); err != nil {
				return err
			}
			if err := repos.Reservations().SaveWithLock(ctx, line); err != nil {
				return err
			}
			fulfilled = append(fulfilled, ToReservationResponse(line))
		}
		if len(fulfilled) == 0 {
			return shared.NewNotFoundError(fmt.Sprintf("No active reservation found for order %s", orderID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order reservations fulfilled",
		zap.String("order_id", orderID),
		zap.Int("lines", len(fulfilled)),
	)
	return fulfilled, nil
}

// ListByOrder returns every reservation line of an order
func (s *ReservationService) ListByOrder(ctx context.Context, orderID string) ([]ReservationResponse, error) {
	var result []ReservationResponse
	err := s.stock.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lines, err := repos.Reservations().FindByOrder(ctx, strings.TrimSpace(orderID))
		if err != nil {
			return err
		}
		result = make([]ReservationResponse, len(lines))
		for i := range lines {
			result[i] = ToReservationResponse(&lines[i])
		}
		return nil
	})
	return result, err
}
