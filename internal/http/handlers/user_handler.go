// User HTTP handlers.
//
// This file exposes REST endpoints for user resources:
//   - POST   /users          (register)
//   - GET    /users          (list, paginated)
//   - GET    /users/{id}     (fetch)
//   - PUT    /users/{id}     (update profile)
//   - DELETE /users/{id}     (remove)
//
// It also hosts the shared handler wiring: the service contracts consumed by
// every endpoint in this package and the Handlers aggregate bound into the
// router. Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/repo"
	"github.com/tbourn/go-market-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// UserService defines account lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type UserService interface {
	// Register validates and creates a new user account.
	Register(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	// Get returns the user identified by id.
	Get(ctx context.Context, id uint) (*domain.User, error)
	// ListPage returns a page of users and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	// Update applies profile changes to an existing user.
	Update(ctx context.Context, id uint, username, email, passwordHash string) (*domain.User, error)
	// Delete removes a user account.
	Delete(ctx context.Context, id uint) error
}

// CatalogService defines asset catalog operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CatalogService interface {
	// Create adds a new asset to the catalog.
	Create(ctx context.Context, name string, price decimal.Decimal, stock int, imageURL string) (*domain.Asset, error)
	// Get returns the asset identified by id.
	Get(ctx context.Context, id uint) (*domain.Asset, error)
	// ListPage returns a page of assets matching the name filter and the total count.
	ListPage(ctx context.Context, nameFilter string, page, pageSize int) ([]domain.Asset, int64, error)
	// Update applies changes to an existing asset.
	Update(ctx context.Context, id uint, name string, price decimal.Decimal, stock int, imageURL string) (*domain.Asset, error)
	// Delete removes an asset from the catalog.
	Delete(ctx context.Context, id uint) error
	// Purchase decrements the asset's stock by qty inside one transaction.
	Purchase(ctx context.Context, assetID uint, qty int) error
}

// OrderService defines order lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type OrderService interface {
	// Place creates an order, honoring the idempotency key when present.
	// The bool result reports whether an existing order was replayed.
	Place(ctx context.Context, userID uint, idemKey string, lines []repo.OrderLine) (*domain.Order, bool, error)
	// Get returns the order identified by id with its items.
	Get(ctx context.Context, id uint) (*domain.Order, error)
	// ListPage returns a page of a user's orders and the total count.
	ListPage(ctx context.Context, userID uint, page, pageSize int) ([]domain.Order, int64, error)
	// UpdateStatus moves an order to a new lifecycle status.
	UpdateStatus(ctx context.Context, id uint, status string) error
	// Delete removes an order and its items.
	Delete(ctx context.Context, id uint) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for users, assets, and orders.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	userSvc    UserService
	catalogSvc CatalogService
	orderSvc   OrderService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(userSvc UserService, catalogSvc CatalogService, orderSvc OrderService) *Handlers {
	return &Handlers{userSvc: userSvc, catalogSvc: catalogSvc, orderSvc: orderSvc}
}

//
// DTOs
//

// CreateUserRequest is the JSON payload for registering a user.
type CreateUserRequest struct {
	// Username is the unique handle (1–50 chars).
	Username string `json:"username" binding:"required,min=1,max=50" example:"alice"`
	// Email is the unique contact address.
	Email string `json:"email" binding:"required,email" example:"alice@example.com"`
	// PasswordHash is the pre-hashed secret (min 8 chars).
	PasswordHash string `json:"password_hash" binding:"required,min=8" example:"$2a$10$abcdefguvwxyz"`
}

// UpdateUserRequest is the JSON payload for updating a user profile.
type UpdateUserRequest struct {
	Username     string `json:"username" binding:"required,min=1,max=50"`
	Email        string `json:"email" binding:"required,email"`
	PasswordHash string `json:"password_hash" binding:"required,min=8"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListUsersResponse wraps a page of users and pagination information.
type ListUsersResponse struct {
	Users      []domain.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pathID parses the numeric resource id from the named path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// paginationFor computes the pagination envelope for a page of total items.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// CreateUser godoc
// @ID          createUser
// @Summary     Register a new user
// @Description Creates a user account and returns the stored resource.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateUserRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Username or email taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Email, req.PasswordHash)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users (paginated)
// @Tags        Users
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListUsersResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.userSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListUsersResponse{
		Users:      items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// GetUser godoc
// @ID          getUser
// @Summary     Fetch a user by ID
// @Tags        Users
// @Produce     json
//
// @Param       id  path  int  true  "User ID"  minimum(1)
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}

	u, err := h.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update a user profile
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                          true  "User ID"  minimum(1)
// @Param       body  body  handlers.UpdateUserRequest   true  "Profile changes"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Username or email taken"
// @Router      /users/{id} [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Update(c.Request.Context(), id, req.Username, req.Email, req.PasswordHash)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete a user
// @Tags        Users
//
// @Param       id  path  int  true  "User ID"  minimum(1)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
