package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/errs"
)

// GetIdempotency returns the idempotency record for (userID, key) if one
// exists and has not expired. Absent or expired records surface as NotFound
// so callers can treat both the same way.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID uint, key string, now time.Time) (*domain.Idempotency, error) {
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND key = ? AND expires_at > ?", userID, key, now.UTC()).
		First(&rec).Error
	if err != nil {
		return nil, errs.Classify(err)
	}
	return &rec, nil
}

// CreateIdempotency records that (userID, key) produced orderID. A duplicate
// key for the same user surfaces as Conflict, which callers use to detect a
// concurrent replay.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID uint, key string, orderID uint, status string, ttl time.Duration) (*domain.Idempotency, error) {
	rec := domain.Idempotency{
		ID:        uuid.NewString(),
		UserID:    userID,
		Key:       key,
		OrderID:   orderID,
		Status:    status,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, errs.Classify(err)
	}
	return &rec, nil
}

// PurgeExpiredIdempotency deletes idempotency records whose TTL has passed
// and reports how many rows went away.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&domain.Idempotency{})
	if res.Error != nil {
		return 0, errs.Classify(res.Error)
	}
	return res.RowsAffected, nil
}
