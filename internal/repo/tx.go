// Package repo implements the pooled transactional data-access layer for the
// marketplace, backed by GORM. This file provides the transactional executor
// used by every compound mutation.
package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/errs"
)

// InTx runs fn inside a single database transaction.
//
// The unit of work receives a live transaction handle bound to one exclusive
// connection checked out from the pool. If fn returns nil the transaction is
// committed and its effects become durable; if fn returns any error — engine
// failure or explicit business abort such as errs.Validation — the
// transaction is rolled back and every write inside it is discarded
// atomically, partial multi-statement sequences included. A panic inside fn
// also rolls back, then re-panics.
//
// No statement inside fn is ever committed individually; isolation and
// conflict detection between concurrent transactions are entirely the
// engine's. Errors crossing this boundary are always classified.
func InTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errs.Classify(tx.Error)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return errs.Database(fmt.Sprintf("rollback failed (%v) after: %v", rbErr, err), err)
		}
		return errs.Classify(err)
	}

	if err = tx.Commit().Error; err != nil {
		return errs.Classify(err)
	}
	return nil
}
