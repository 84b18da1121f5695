// Package repo implements the pooled transactional data-access layer for the
// marketplace, backed by GORM. This file provides repository operations for
// the User model.
//
// Error semantics:
//   - duplicate username/email surfaces as a Conflict with a detail naming
//     the offending values,
//   - singular lookups matching zero rows surface as NotFound,
//   - anything else surfaces as a classified Database or Connection error.
package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/errs"
	"github.com/tbourn/go-market-backend/internal/perf"
)

// CreateUser inserts one user row and returns it with the database-assigned
// identifier and timestamps populated.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) (*domain.User, error) {
	start := time.Now()
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		err = errs.Classify(err)
		if errs.IsConflict(err) {
			err = errs.Conflict(
				fmt.Sprintf("user with username %q or email %q already exists", u.Username, u.Email),
				err,
			)
		}
		perf.Emit("create_user", start, false, err.Error())
		return nil, err
	}
	perf.Emit("create_user", start, true, "user created")
	return u, nil
}

// GetUser fetches a user by ID, returning NotFound when no row matches.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, errs.Classify(err)
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email, returning NotFound when no row
// matches.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, errs.Classify(err)
	}
	return &u, nil
}

// CountUsers returns the total number of users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return 0, errs.Classify(err)
	}
	return total, nil
}

// ListUsersPage returns a page of users ordered by creation time descending.
func ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, errs.Classify(err)
	}
	return out, nil
}

// UpdateUser replaces the mutable columns of the user identified by id and
// returns the updated row. Missing rows surface as NotFound, duplicate
// username/email as Conflict.
func UpdateUser(ctx context.Context, db *gorm.DB, id uint, changes domain.User) (*domain.User, error) {
	start := time.Now()
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"username":      changes.Username,
			"email":         changes.Email,
			"password_hash": changes.PasswordHash,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		err := errs.Classify(res.Error)
		if errs.IsConflict(err) {
			err = errs.Conflict(
				fmt.Sprintf("user with username %q or email %q already exists", changes.Username, changes.Email),
				err,
			)
		}
		perf.Emit("update_user", start, false, err.Error())
		return nil, err
	}
	if res.RowsAffected == 0 {
		perf.Emit("update_user", start, false, "no matching row")
		return nil, errs.NotFound("user %d not found", id)
	}
	perf.Emit("update_user", start, true, "user updated")
	return GetUser(ctx, db, id)
}

// DeleteUser removes the user identified by id. Missing rows surface as
// NotFound.
func DeleteUser(ctx context.Context, db *gorm.DB, id uint) error {
	start := time.Now()
	res := db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		err := errs.Classify(res.Error)
		perf.Emit("delete_user", start, false, err.Error())
		return err
	}
	if res.RowsAffected == 0 {
		perf.Emit("delete_user", start, false, "no matching row")
		return errs.NotFound("user %d not found", id)
	}
	perf.Emit("delete_user", start, true, "user deleted")
	return nil
}
