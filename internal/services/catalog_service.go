// Package services – CatalogService
//
// This file implements the CatalogService, which manages the asset catalog.
// It validates prices and stock levels, normalizes search filters, and
// coordinates repository operations for creating, listing (with pagination
// and name filtering), updating, and purchasing assets.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/errs"
)

// AssetRepo defines the repository contract required by CatalogService.
type AssetRepo interface {
	// CreateAsset inserts a new asset row.
	CreateAsset(ctx context.Context, db *gorm.DB, a *domain.Asset) (*domain.Asset, error)

	// GetAsset fetches an asset by ID.
	GetAsset(ctx context.Context, db *gorm.DB, id uint) (*domain.Asset, error)

	// CountAssets returns the number of assets matching the name filter.
	CountAssets(ctx context.Context, db *gorm.DB, nameFilter string) (int64, error)

	// ListAssetsPage returns a page of assets matching the name filter.
	ListAssetsPage(ctx context.Context, db *gorm.DB, nameFilter string, offset, limit int) ([]domain.Asset, error)

	// UpdateAsset replaces the mutable columns of an asset.
	UpdateAsset(ctx context.Context, db *gorm.DB, id uint, changes domain.Asset) (*domain.Asset, error)

	// DeleteAsset removes an asset by ID.
	DeleteAsset(ctx context.Context, db *gorm.DB, id uint) error

	// PurchaseAsset atomically decrements stock inside one transaction.
	PurchaseAsset(ctx context.Context, db *gorm.DB, assetID uint, qty int) error
}

// CatalogService provides asset-level operations such as listing the
// catalog, maintaining entries, and purchasing stock. It enforces price
// and stock rules before delegating persistence to the repository.
type CatalogService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the asset repository used by this service.
	Repo AssetRepo

	// NameMaxLen caps asset names by rune length.
	NameMaxLen int
	// FilterLocale selects the locale for lowercasing search filters.
	FilterLocale language.Tag
	// filterFolder lowercases search filters with full Unicode case folding.
	filterFolder cases.Caser
}

// NewCatalogService constructs a CatalogService with the default limits.
func NewCatalogService(db *gorm.DB, r AssetRepo) *CatalogService {
	return &CatalogService{
		DB:           db,
		Repo:         r,
		NameMaxLen:   120,
		FilterLocale: language.Und,
		filterFolder: cases.Fold(),
	}
}

// Create validates and inserts a new catalog entry. Prices must be
// non-negative and stock cannot start below zero.
func (s *CatalogService) Create(ctx context.Context, name string, price decimal.Decimal, stock int, imageURL string) (*domain.Asset, error) {
	name = strings.TrimSpace(name)
	if err := s.checkEntry(name, price, stock); err != nil {
		return nil, err
	}
	return s.Repo.CreateAsset(ctx, s.DB, &domain.Asset{
		Name:     name,
		Price:    price,
		Stock:    stock,
		ImageURL: strings.TrimSpace(imageURL),
	})
}

// Get returns the asset identified by id.
func (s *CatalogService) Get(ctx context.Context, id uint) (*domain.Asset, error) {
	return s.Repo.GetAsset(ctx, s.DB, id)
}

// ListPage returns a page of catalog entries plus the total count.
// The name filter is case-folded so searches match regardless of case.
func (s *CatalogService) ListPage(ctx context.Context, nameFilter string, page, pageSize int) ([]domain.Asset, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	filter := s.filterFolder.String(strings.TrimSpace(nameFilter))

	total, err := s.Repo.CountAssets(ctx, s.DB, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Asset{}, 0, nil
	}

	items, err := s.Repo.ListAssetsPage(ctx, s.DB, filter, offset, pageSize)
	return items, total, err
}

// Update applies the given changes to the asset identified by id,
// validated the same way Create validates new entries.
func (s *CatalogService) Update(ctx context.Context, id uint, name string, price decimal.Decimal, stock int, imageURL string) (*domain.Asset, error) {
	name = strings.TrimSpace(name)
	if err := s.checkEntry(name, price, stock); err != nil {
		return nil, err
	}
	return s.Repo.UpdateAsset(ctx, s.DB, id, domain.Asset{
		Name:     name,
		Price:    price,
		Stock:    stock,
		ImageURL: strings.TrimSpace(imageURL),
	})
}

// Delete removes the asset identified by id from the catalog.
func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	return s.Repo.DeleteAsset(ctx, s.DB, id)
}

// Purchase decrements the asset's stock by qty inside one transaction.
// Insufficient stock surfaces as a validation error and leaves the stored
// quantity untouched.
func (s *CatalogService) Purchase(ctx context.Context, assetID uint, qty int) error {
	return s.Repo.PurchaseAsset(ctx, s.DB, assetID, qty)
}

// checkEntry enforces the shared rules for new and updated catalog entries.
func (s *CatalogService) checkEntry(name string, price decimal.Decimal, stock int) error {
	if name == "" {
		return errs.Validation("asset name must not be empty")
	}
	if utf8.RuneCountInString(name) > s.NameMaxLen {
		return errs.Validation("asset name exceeds %d characters", s.NameMaxLen)
	}
	if price.IsNegative() {
		return errs.Validation("price must not be negative, got %s", price.String())
	}
	if stock < 0 {
		return errs.Validation("stock must not be negative, got %d", stock)
	}
	return nil
}
