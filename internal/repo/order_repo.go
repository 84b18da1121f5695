package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/errs"
	"github.com/tbourn/go-market-backend/internal/perf"
)

// OrderLine is one requested line of a new order: which asset and how many.
type OrderLine struct {
	AssetID  uint
	Quantity int
}

// CreateOrder places an order for userID covering the given lines.
//
// Everything happens inside a single transaction: each line's asset is
// loaded, its stock decremented with the same guarded update used by
// PurchaseAsset, and the price at purchase time captured into the order
// item. The order total is the sum of price * quantity across lines. Any
// failure (unknown asset, insufficient stock, constraint violation) rolls
// the whole transaction back, so a multi-line order never partially
// commits.
func CreateOrder(ctx context.Context, db *gorm.DB, userID uint, lines []OrderLine) (*domain.Order, error) {
	start := time.Now()
	if len(lines) == 0 {
		err := errs.Validation("order must contain at least one line")
		perf.Emit("create_order", start, false, err.Error())
		return nil, err
	}

	var order domain.Order
	err := InTx(ctx, db, func(tx *gorm.DB) error {
		total := decimal.Zero
		items := make([]domain.OrderItem, 0, len(lines))

		for _, ln := range lines {
			if ln.Quantity <= 0 {
				return errs.Validation("quantity must be positive for asset %d, got %d",
					ln.AssetID, ln.Quantity)
			}

			var a domain.Asset
			if err := tx.First(&a, ln.AssetID).Error; err != nil {
				return errs.Classify(err)
			}
			if a.Stock < ln.Quantity {
				return errs.Validation("insufficient stock for asset %d: requested %d, available %d",
					ln.AssetID, ln.Quantity, a.Stock)
			}

			res := tx.Model(&domain.Asset{}).
				Where("id = ? AND stock >= ?", ln.AssetID, ln.Quantity).
				Updates(map[string]any{
					"stock":      gorm.Expr("stock - ?", ln.Quantity),
					"updated_at": time.Now().UTC(),
				})
			if res.Error != nil {
				return errs.Classify(res.Error)
			}
			if res.RowsAffected == 0 {
				return errs.Validation("insufficient stock for asset %d: requested %d",
					ln.AssetID, ln.Quantity)
			}

			total = total.Add(a.Price.Mul(decimal.NewFromInt(int64(ln.Quantity))))
			items = append(items, domain.OrderItem{
				AssetID:     ln.AssetID,
				Quantity:    ln.Quantity,
				PriceAtTime: a.Price,
			})
		}

		order = domain.Order{
			UserID:      userID,
			Status:      domain.StatusPending,
			TotalAmount: total,
			Items:       items,
		}
		if err := tx.Create(&order).Error; err != nil {
			return errs.Classify(err)
		}
		return nil
	})
	if err != nil {
		perf.Emit("create_order", start, false, err.Error())
		return nil, err
	}
	perf.Emit("create_order", start, true, "order created")
	return &order, nil
}

// GetOrder fetches an order with its items by ID.
func GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, errs.Classify(err)
	}
	return &o, nil
}

// CountOrdersByUser returns the number of orders placed by userID.
func CountOrdersByUser(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return 0, errs.Classify(err)
	}
	return total, nil
}

// ListOrdersByUser returns a page of userID's orders, newest first, with
// items preloaded.
func ListOrdersByUser(ctx context.Context, db *gorm.DB, userID uint, offset, limit int) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, errs.Classify(err)
	}
	return out, nil
}

// UpdateOrderStatus moves the order identified by id to status. Unknown
// statuses are rejected before touching the database.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, id uint, status string) error {
	start := time.Now()
	if !domain.ValidStatus(status) {
		err := errs.Validation("invalid order status %q", status)
		perf.Emit("update_order_status", start, false, err.Error())
		return err
	}
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		err := errs.Classify(res.Error)
		perf.Emit("update_order_status", start, false, err.Error())
		return err
	}
	if res.RowsAffected == 0 {
		perf.Emit("update_order_status", start, false, "no matching row")
		return errs.NotFound("order %d not found", id)
	}
	perf.Emit("update_order_status", start, true, "order status updated")
	return nil
}

// DeleteOrder removes an order and its items in one transaction. Items go
// first so the asset foreign keys never dangle mid-delete.
func DeleteOrder(ctx context.Context, db *gorm.DB, id uint) error {
	start := time.Now()
	err := InTx(ctx, db, func(tx *gorm.DB) error {
		var o domain.Order
		if err := tx.First(&o, id).Error; err != nil {
			return errs.Classify(err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return errs.Classify(err)
		}
		if err := tx.Delete(&domain.Order{}, id).Error; err != nil {
			return errs.Classify(err)
		}
		return nil
	})
	if err != nil {
		perf.Emit("delete_order", start, false, err.Error())
		return err
	}
	perf.Emit("delete_order", start, true, "order deleted")
	return nil
}
