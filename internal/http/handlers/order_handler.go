// Order HTTP handlers.
//
// This file exposes REST endpoints for order resources:
//   - POST   /orders                (place, idempotent via Idempotency-Key)
//   - GET    /orders                (list current user's orders, paginated)
//   - GET    /orders/{id}           (fetch with items)
//   - PUT    /orders/{id}/status    (lifecycle transition)
//   - DELETE /orders/{id}           (remove)
//
// The user placing an order is taken from the X-User-ID header; upstream
// authentication middleware is expected to populate it in production.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/repo"
)

//
// DTOs
//

// OrderLineRequest is one line of a new order.
type OrderLineRequest struct {
	// AssetID names the purchased asset.
	AssetID uint `json:"asset_id" binding:"required,min=1" example:"3"`
	// Quantity is the number of units (at least 1).
	Quantity int `json:"quantity" binding:"required,min=1" example:"2"`
}

// CreateOrderRequest is the JSON payload for placing an order.
type CreateOrderRequest struct {
	// Items lists what the order covers (at least one line).
	Items []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderStatusRequest is the JSON payload for a status transition.
type UpdateOrderStatusRequest struct {
	// Status is the target lifecycle state.
	Status string `json:"status" binding:"required" example:"shipped"`
}

// ListOrdersResponse wraps a page of orders and pagination information.
type ListOrdersResponse struct {
	Orders     []domain.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// requestUserID extracts the acting user's numeric id from the X-User-ID
// header. Zero means absent or malformed.
func requestUserID(c *gin.Context) uint {
	h := strings.TrimSpace(c.GetHeader("X-User-ID"))
	if h == "" {
		return 0
	}
	n, err := strconv.ParseUint(h, 10, 32)
	if err != nil || n == 0 {
		return 0
	}
	return uint(n)
}

//
// Handlers
//

// CreateOrder godoc
// @ID          createOrder
// @Summary     Place an order
// @Description Creates an order for the acting user, decrementing stock for every
// @Description line inside one transaction. Supplying an Idempotency-Key header makes
// @Description retries safe: a replayed key returns the original order with 200
// @Description instead of creating a new one.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true   "Acting user ID"  example(42)
// @Param       Idempotency-Key  header  string  false  "Client-chosen retry key (UUID)"
// @Param       body             body    handlers.CreateOrderRequest  true  "Order payload"
//
// @Success     201  {object}  domain.Order
// @Success     200  {object}  domain.Order  "Replayed idempotent request"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or insufficient stock"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown asset"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	uid := requestUserID(c)
	if uid == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "X-User-ID header must be a positive integer")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order must contain at least one item")
		return
	}

	lines := make([]repo.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, repo.OrderLine{AssetID: it.AssetID, Quantity: it.Quantity})
	}

	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	order, replayed, err := h.orderSvc.Place(c.Request.Context(), uid, idemKey, lines)
	if err != nil {
		failErr(c, err)
		return
	}
	if replayed {
		ok(c, http.StatusOK, order)
		return
	}
	ok(c, http.StatusCreated, order)
}

// ListOrders godoc
// @ID          listOrders
// @Summary     List the acting user's orders (paginated)
// @Tags        Orders
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Acting user ID"  example(42)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListOrdersResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /orders [get]
func (h *Handlers) ListOrders(c *gin.Context) {
	uid := requestUserID(c)
	if uid == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "X-User-ID header must be a positive integer")
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.orderSvc.ListPage(c.Request.Context(), uid, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListOrdersResponse{
		Orders:     items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Fetch an order by ID
// @Tags        Orders
// @Produce     json
//
// @Param       id  path  int  true  "Order ID"  minimum(1)
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a positive integer")
		return
	}

	o, err := h.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// UpdateOrderStatus godoc
// @ID          updateOrderStatus
// @Summary     Update an order's lifecycle status
// @Tags        Orders
// @Accept      json
//
// @Param       id    path  int                                true  "Order ID"  minimum(1)
// @Param       body  body  handlers.UpdateOrderStatusRequest  true  "Target status"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or unknown status"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id}/status [put]
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a positive integer")
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.orderSvc.UpdateStatus(c.Request.Context(), id, strings.TrimSpace(req.Status)); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// DeleteOrder godoc
// @ID          deleteOrder
// @Summary     Delete an order
// @Tags        Orders
//
// @Param       id  path  int  true  "Order ID"  minimum(1)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id} [delete]
func (h *Handlers) DeleteOrder(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a positive integer")
		return
	}

	if err := h.orderSvc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
