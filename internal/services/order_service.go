// Package services – OrderService
//
// This file implements the OrderService, which turns purchase requests into
// persisted orders. Placement is idempotent: when the caller supplies an
// Idempotency-Key, replays of the same key return the order created by the
// first attempt instead of charging stock twice. The transactional work
// (stock decrement, item rows, total computation) lives in the repository;
// this layer adds input validation, the idempotency protocol, and the
// status lifecycle.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/errs"
	"github.com/tbourn/go-market-backend/internal/repo"
)

// OrderRepo defines the repository contract required by OrderService.
type OrderRepo interface {
	// CreateOrder places an order transactionally, decrementing stock.
	CreateOrder(ctx context.Context, db *gorm.DB, userID uint, lines []repo.OrderLine) (*domain.Order, error)

	// GetOrder fetches an order with its items.
	GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error)

	// CountOrdersByUser returns the number of orders a user has placed.
	CountOrdersByUser(ctx context.Context, db *gorm.DB, userID uint) (int64, error)

	// ListOrdersByUser returns a page of a user's orders, newest first.
	ListOrdersByUser(ctx context.Context, db *gorm.DB, userID uint, offset, limit int) ([]domain.Order, error)

	// UpdateOrderStatus moves an order to a new lifecycle status.
	UpdateOrderStatus(ctx context.Context, db *gorm.DB, id uint, status string) error

	// DeleteOrder removes an order and its items transactionally.
	DeleteOrder(ctx context.Context, db *gorm.DB, id uint) error
}

// IdempotencyRepo defines the replay-detection contract required by
// OrderService.
type IdempotencyRepo interface {
	// GetIdempotency returns the live record for (userID, key), or NotFound.
	GetIdempotency(ctx context.Context, db *gorm.DB, userID uint, key string, now time.Time) (*domain.Idempotency, error)

	// CreateIdempotency records that (userID, key) produced orderID.
	CreateIdempotency(ctx context.Context, db *gorm.DB, userID uint, key string, orderID uint, status string, ttl time.Duration) (*domain.Idempotency, error)
}

// OrderService provides order-level operations: idempotent placement,
// lookup, listing, status transitions, and deletion.
type OrderService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the order repository used by this service.
	Repo OrderRepo
	// Idem is the idempotency repository used for replay detection.
	Idem IdempotencyRepo

	// IdempotencyTTL bounds how long a key replays the original order.
	IdempotencyTTL time.Duration
}

// NewOrderService constructs an OrderService with a 24h idempotency window.
func NewOrderService(db *gorm.DB, r OrderRepo, idem IdempotencyRepo) *OrderService {
	return &OrderService{
		DB:             db,
		Repo:           r,
		Idem:           idem,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Place creates an order for userID covering the given lines.
//
// When idemKey is non-empty, a previously recorded key returns the original
// order without touching stock again. A concurrent replay that loses the
// record-insert race also resolves to the winner's order. Keys are recorded
// after the order commits; if recording fails for any other reason the
// order still stands and the error is surfaced.
func (s *OrderService) Place(ctx context.Context, userID uint, idemKey string, lines []repo.OrderLine) (*domain.Order, bool, error) {
	if idemKey != "" {
		rec, err := s.Idem.GetIdempotency(ctx, s.DB, userID, idemKey, time.Now())
		switch {
		case err == nil:
			o, err := s.Repo.GetOrder(ctx, s.DB, rec.OrderID)
			if err != nil {
				return nil, false, err
			}
			return o, true, nil
		case !errs.IsNotFound(err):
			return nil, false, err
		}
	}

	order, err := s.Repo.CreateOrder(ctx, s.DB, userID, lines)
	if err != nil {
		return nil, false, err
	}

	if idemKey != "" {
		_, err := s.Idem.CreateIdempotency(ctx, s.DB, userID, idemKey, order.ID, order.Status, s.IdempotencyTTL)
		if err != nil {
			if errs.IsConflict(err) {
				// Another request with the same key committed first; defer to it.
				rec, gerr := s.Idem.GetIdempotency(ctx, s.DB, userID, idemKey, time.Now())
				if gerr != nil {
					return nil, false, gerr
				}
				o, gerr := s.Repo.GetOrder(ctx, s.DB, rec.OrderID)
				if gerr != nil {
					return nil, false, gerr
				}
				return o, true, nil
			}
			return nil, false, err
		}
	}
	return order, false, nil
}

// Get returns the order identified by id with its items.
func (s *OrderService) Get(ctx context.Context, id uint) (*domain.Order, error) {
	return s.Repo.GetOrder(ctx, s.DB, id)
}

// ListPage returns a page of userID's orders plus the total count.
func (s *OrderService) ListPage(ctx context.Context, userID uint, page, pageSize int) ([]domain.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountOrdersByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Order{}, 0, nil
	}

	items, err := s.Repo.ListOrdersByUser(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// UpdateStatus moves the order to a new lifecycle status.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) error {
	return s.Repo.UpdateOrderStatus(ctx, s.DB, id, status)
}

// Delete removes the order identified by id together with its items.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	return s.Repo.DeleteOrder(ctx, s.DB, id)
}
