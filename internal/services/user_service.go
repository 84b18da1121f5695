// Package services – UserService
//
// This file implements the UserService, which manages user accounts on top
// of the repository layer. It normalizes usernames and email addresses,
// validates input lengths before touching the database, and coordinates
// repository operations for registration, lookup, listing (with pagination),
// updates, and deletion.
//
// Persistence errors arrive already classified by the repository layer, so
// handlers can map them to HTTP results without further inspection.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/errs"
)

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	// CreateUser inserts a new user row.
	CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) (*domain.User, error)

	// GetUser fetches a user by ID.
	GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)

	// GetUserByEmail fetches a user by email address.
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)

	// CountUsers returns the total number of users for pagination.
	CountUsers(ctx context.Context, db *gorm.DB) (int64, error)

	// ListUsersPage returns a page of users ordered newest first.
	ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error)

	// UpdateUser replaces the mutable columns of a user.
	UpdateUser(ctx context.Context, db *gorm.DB, id uint, changes domain.User) (*domain.User, error)

	// DeleteUser removes a user by ID.
	DeleteUser(ctx context.Context, db *gorm.DB, id uint) error
}

// UserService provides account-level operations such as registration,
// lookup, and profile updates. It enforces input rules before delegating
// persistence to the repository.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo

	// UsernameMaxLen caps usernames by rune length.
	UsernameMaxLen int
	// PasswordHashMinLen rejects obviously unhashed or truncated secrets.
	PasswordHashMinLen int
}

// NewUserService constructs a UserService with the default input limits.
func NewUserService(db *gorm.DB, r UserRepo) *UserService {
	return &UserService{
		DB:                 db,
		Repo:               r,
		UsernameMaxLen:     50,
		PasswordHashMinLen: 8,
	}
}

// Register validates and inserts a new user. Usernames are trimmed, email
// addresses lowercased. Duplicate usernames or emails surface as Conflict.
func (s *UserService) Register(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" {
		return nil, errs.Validation("username must not be empty")
	}
	if utf8.RuneCountInString(username) > s.UsernameMaxLen {
		return nil, errs.Validation("username exceeds %d characters", s.UsernameMaxLen)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, errs.Validation("email %q is not valid", email)
	}
	if len(passwordHash) < s.PasswordHashMinLen {
		return nil, errs.Validation("password hash must be at least %d characters", s.PasswordHashMinLen)
	}

	return s.Repo.CreateUser(ctx, s.DB, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	})
}

// Get returns the user identified by id.
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.Repo.GetUser(ctx, s.DB, id)
}

// GetByEmail returns the user owning the given email address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.Repo.GetUserByEmail(ctx, s.DB, strings.ToLower(strings.TrimSpace(email)))
}

// ListPage returns a page of users plus the total count. It applies
// defaults for invalid page/pageSize.
func (s *UserService) ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.User{}, 0, nil
	}

	items, err := s.Repo.ListUsersPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Update applies the given profile changes to the user identified by id,
// validating them the same way Register does.
func (s *UserService) Update(ctx context.Context, id uint, username, email, passwordHash string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" {
		return nil, errs.Validation("username must not be empty")
	}
	if utf8.RuneCountInString(username) > s.UsernameMaxLen {
		return nil, errs.Validation("username exceeds %d characters", s.UsernameMaxLen)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, errs.Validation("email %q is not valid", email)
	}
	if len(passwordHash) < s.PasswordHashMinLen {
		return nil, errs.Validation("password hash must be at least %d characters", s.PasswordHashMinLen)
	}

	return s.Repo.UpdateUser(ctx, s.DB, id, domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	})
}

// Delete removes the user identified by id.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.Repo.DeleteUser(ctx, s.DB, id)
}
