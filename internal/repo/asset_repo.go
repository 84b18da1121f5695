// Package repo implements the pooled transactional data-access layer for the
// marketplace, backed by GORM. This file provides repository operations for
// the Asset model, including the transactional stock decrement used by
// purchases.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/errs"
	"github.com/tbourn/go-market-backend/internal/perf"
)

// CreateAsset inserts one asset row and returns it with the assigned
// identifier and timestamps populated.
func CreateAsset(ctx context.Context, db *gorm.DB, a *domain.Asset) (*domain.Asset, error) {
	start := time.Now()
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		err = errs.Classify(err)
		perf.Emit("create_asset", start, false, err.Error())
		return nil, err
	}
	perf.Emit("create_asset", start, true, "asset created")
	return a, nil
}

// GetAsset fetches an asset by ID, returning NotFound when no row matches.
func GetAsset(ctx context.Context, db *gorm.DB, id uint) (*domain.Asset, error) {
	var a domain.Asset
	if err := db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, errs.Classify(err)
	}
	return &a, nil
}

// CountAssets returns the number of assets whose name contains nameFilter
// (case-insensitive); an empty filter counts all assets.
func CountAssets(ctx context.Context, db *gorm.DB, nameFilter string) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Asset{})
	if f := strings.TrimSpace(nameFilter); f != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f)+"%")
	}
	if err := q.Count(&total).Error; err != nil {
		return 0, errs.Classify(err)
	}
	return total, nil
}

// ListAssetsPage returns a page of assets ordered by name, optionally
// filtered by a case-insensitive name substring.
func ListAssetsPage(ctx context.Context, db *gorm.DB, nameFilter string, offset, limit int) ([]domain.Asset, error) {
	var out []domain.Asset
	q := db.WithContext(ctx).Order("name asc, id asc")
	if f := strings.TrimSpace(nameFilter); f != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f)+"%")
	}
	if err := q.Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, errs.Classify(err)
	}
	return out, nil
}

// UpdateAsset replaces the mutable columns of the asset identified by id and
// returns the updated row.
func UpdateAsset(ctx context.Context, db *gorm.DB, id uint, changes domain.Asset) (*domain.Asset, error) {
	start := time.Now()
	res := db.WithContext(ctx).
		Model(&domain.Asset{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":       changes.Name,
			"price":      changes.Price,
			"stock":      changes.Stock,
			"image_url":  changes.ImageURL,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		err := errs.Classify(res.Error)
		perf.Emit("update_asset", start, false, err.Error())
		return nil, err
	}
	if res.RowsAffected == 0 {
		perf.Emit("update_asset", start, false, "no matching row")
		return nil, errs.NotFound("asset %d not found", id)
	}
	perf.Emit("update_asset", start, true, "asset updated")
	return GetAsset(ctx, db, id)
}

// DeleteAsset removes the asset identified by id. Missing rows surface as
// NotFound.
func DeleteAsset(ctx context.Context, db *gorm.DB, id uint) error {
	start := time.Now()
	res := db.WithContext(ctx).Delete(&domain.Asset{}, id)
	if res.Error != nil {
		err := errs.Classify(res.Error)
		perf.Emit("delete_asset", start, false, err.Error())
		return err
	}
	if res.RowsAffected == 0 {
		perf.Emit("delete_asset", start, false, "no matching row")
		return errs.NotFound("asset %d not found", id)
	}
	perf.Emit("delete_asset", start, true, "asset deleted")
	return nil
}

// PurchaseAsset atomically decrements the stock of assetID by qty.
//
// The whole read-validate-write sequence runs inside one transaction: the
// current row is loaded, the requested quantity compared against available
// stock, and on success the stock decrement and updated_at bump are written
// together. An insufficient stock (or missing asset) aborts the unit of work
// and every statement already executed inside it is rolled back, leaving the
// stored stock untouched.
//
// The decrement itself is guarded (stock = stock - ? WHERE stock >= ?) so a
// concurrent purchase that drained the stock between the read and the write
// is detected by the engine: zero affected rows aborts with the same
// validation error. Of N concurrent unit purchases against stock S, exactly
// S commit and the stock never goes negative.
func PurchaseAsset(ctx context.Context, db *gorm.DB, assetID uint, qty int) error {
	start := time.Now()
	err := InTx(ctx, db, func(tx *gorm.DB) error {
		if qty <= 0 {
			return errs.Validation("quantity must be positive, got %d", qty)
		}

		var a domain.Asset
		if err := tx.First(&a, assetID).Error; err != nil {
			return errs.Classify(err)
		}
		if a.Stock < qty {
			return errs.Validation("insufficient stock for asset %d: requested %d, available %d",
				assetID, qty, a.Stock)
		}

		res := tx.Model(&domain.Asset{}).
			Where("id = ? AND stock >= ?", assetID, qty).
			Updates(map[string]any{
				"stock":      gorm.Expr("stock - ?", qty),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return errs.Classify(res.Error)
		}
		if res.RowsAffected == 0 {
			// A concurrent transaction won the race for the remaining stock.
			return errs.Validation("insufficient stock for asset %d: requested %d", assetID, qty)
		}
		return nil
	})
	if err != nil {
		perf.Emit("purchase_asset", start, false, err.Error())
		return err
	}
	perf.Emit("purchase_asset", start, true, "stock decremented")
	return nil
}
