// Asset HTTP handlers.
//
// This file exposes REST endpoints for catalog resources:
//   - POST   /assets            (create)
//   - GET    /assets            (list, paginated, name filter)
//   - GET    /assets/{id}       (fetch)
//   - PUT    /assets/{id}       (update)
//   - DELETE /assets/{id}       (remove)
//   - POST   /assets/{id}/buy   (purchase, transactional stock decrement)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-market-backend/internal/domain"
)

//
// DTOs
//

// AssetRequest is the JSON payload for creating or updating an asset.
type AssetRequest struct {
	// Name identifies the asset in the catalog (1–120 chars).
	Name string `json:"name" binding:"required,min=1,max=120" example:"Mechanical keyboard"`
	// Price is the unit price as a decimal string.
	Price decimal.Decimal `json:"price" example:"79.99"`
	// Stock is the available quantity (never negative).
	Stock int `json:"stock" binding:"min=0" example:"100"`
	// ImageURL optionally links a product picture.
	ImageURL string `json:"image_url" example:"https://cdn.example.com/kb.png"`
}

// PurchaseRequest is the JSON payload for buying an asset.
type PurchaseRequest struct {
	// Quantity is the number of units to purchase (at least 1).
	Quantity int `json:"quantity" binding:"required,min=1" example:"2"`
}

// ListAssetsResponse wraps a page of assets and pagination information.
type ListAssetsResponse struct {
	Assets     []domain.Asset `json:"assets"`
	Pagination Pagination     `json:"pagination"`
}

//
// Handlers
//

// CreateAsset godoc
// @ID          createAsset
// @Summary     Add an asset to the catalog
// @Tags        Assets
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.AssetRequest  true  "Asset payload"
//
// @Success     201  {object}  domain.Asset
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /assets [post]
func (h *Handlers) CreateAsset(c *gin.Context) {
	var req AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	a, err := h.catalogSvc.Create(c.Request.Context(), req.Name, req.Price, req.Stock, req.ImageURL)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, a)
}

// ListAssets godoc
// @ID          listAssets
// @Summary     List catalog assets (paginated)
// @Description Returns a page of assets, optionally filtered by a case-insensitive name substring.
// @Tags        Assets
// @Produce     json
//
// @Param       name       query  string  false "Name filter (substring)"
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListAssetsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /assets [get]
func (h *Handlers) ListAssets(c *gin.Context) {
	page, pageSize := clampPagination(c)
	filter := strings.TrimSpace(c.Query("name"))

	items, total, err := h.catalogSvc.ListPage(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListAssetsResponse{
		Assets:     items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// GetAsset godoc
// @ID          getAsset
// @Summary     Fetch an asset by ID
// @Tags        Assets
// @Produce     json
//
// @Param       id  path  int  true  "Asset ID"  minimum(1)
//
// @Success     200  {object}  domain.Asset
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Asset not found"
// @Router      /assets/{id} [get]
func (h *Handlers) GetAsset(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "asset id must be a positive integer")
		return
	}

	a, err := h.catalogSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// UpdateAsset godoc
// @ID          updateAsset
// @Summary     Update a catalog asset
// @Tags        Assets
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                    true  "Asset ID"  minimum(1)
// @Param       body  body  handlers.AssetRequest  true  "Asset changes"
//
// @Success     200  {object}  domain.Asset
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Asset not found"
// @Router      /assets/{id} [put]
func (h *Handlers) UpdateAsset(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "asset id must be a positive integer")
		return
	}

	var req AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	a, err := h.catalogSvc.Update(c.Request.Context(), id, req.Name, req.Price, req.Stock, req.ImageURL)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// DeleteAsset godoc
// @ID          deleteAsset
// @Summary     Remove an asset from the catalog
// @Tags        Assets
//
// @Param       id  path  int  true  "Asset ID"  minimum(1)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Asset not found"
// @Router      /assets/{id} [delete]
func (h *Handlers) DeleteAsset(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "asset id must be a positive integer")
		return
	}

	if err := h.catalogSvc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// PurchaseAsset godoc
// @ID          purchaseAsset
// @Summary     Purchase units of an asset
// @Description Decrements the asset's stock inside a single transaction. Insufficient
// @Description stock returns 400 and leaves the stored quantity untouched.
// @Tags        Assets
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                       true  "Asset ID"  minimum(1)
// @Param       body  body  handlers.PurchaseRequest  true  "Purchase payload"
//
// @Success     200  {object}  domain.Asset
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or insufficient stock"
// @Failure     404  {object}  handlers.ErrorResponse  "Asset not found"
// @Router      /assets/{id}/buy [post]
func (h *Handlers) PurchaseAsset(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "asset id must be a positive integer")
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.catalogSvc.Purchase(c.Request.Context(), id, req.Quantity); err != nil {
		failErr(c, err)
		return
	}

	a, err := h.catalogSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}
