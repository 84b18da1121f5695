// Package domain defines the persistence models for users, assets, orders,
// and order items. These types are mapped with GORM and form the core data
// layer of the marketplace backend.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status lifecycle. Items of an order are considered frozen once the
// order leaves StatusPending.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// User represents a registered marketplace account. Usernames and email
// addresses are unique; violating either surfaces as a Conflict from the
// repository layer.
//
// Fields:
//   - ID: numeric primary key assigned by the database on insert.
//   - Username / Email: unique identity columns.
//   - PasswordHash: opaque credential digest, never serialized to JSON.
//   - CompanyName / ContactNumber: optional business attributes.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID            uint      `json:"id"            gorm:"primaryKey"`
	Username      string    `json:"username"      gorm:"type:varchar(50);not null;uniqueIndex:ux_users_username"`
	Email         string    `json:"email"         gorm:"type:varchar(100);not null;uniqueIndex:ux_users_email"`
	PasswordHash  string    `json:"-"             gorm:"type:varchar(255);not null"`
	CompanyName   *string   `json:"company_name,omitempty"   gorm:"type:varchar(255)"`
	ContactNumber *string   `json:"contact_number,omitempty" gorm:"type:varchar(32)"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Asset is a purchasable catalog item with a non-negative stock level.
// Stock is only ever decremented inside a transaction that validates the
// requested quantity first (see repo.PurchaseAsset).
type Asset struct {
	ID        uint            `json:"id"         gorm:"primaryKey"`
	Name      string          `json:"name"       gorm:"type:varchar(255);not null;index:idx_assets_name"`
	Price     decimal.Decimal `json:"price"      gorm:"type:numeric(12,2);not null"`
	Stock     int             `json:"stock"      gorm:"not null;default:0;check:stock >= 0"`
	ImageURL  string          `json:"image_url"  gorm:"type:varchar(512)"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Asset.
func (Asset) TableName() string { return "assets" }

// Order groups one or more order items purchased by a user in a single
// transaction. TotalAmount is computed from the item prices at purchase time.
type Order struct {
	ID          uint            `json:"id"           gorm:"primaryKey"`
	UserID      uint            `json:"user_id"      gorm:"not null;index:idx_orders_user"`
	Status      string          `json:"status"       gorm:"type:varchar(32);not null;default:'pending'"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// User is the purchasing account.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// Items are the lines belonging to this order. They are written in the
	// same transaction that creates the order.
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderItem is a single line of an order, referencing exactly one asset.
// PriceAtTime preserves the unit price at the moment of purchase so later
// catalog price changes do not alter historical orders.
type OrderItem struct {
	ID          uint            `json:"id"            gorm:"primaryKey"`
	OrderID     uint            `json:"order_id"      gorm:"not null;index:idx_order_items_order"`
	AssetID     uint            `json:"asset_id"      gorm:"not null;index:idx_order_items_asset"`
	Quantity    int             `json:"quantity"      gorm:"not null;check:quantity > 0"`
	PriceAtTime decimal.Decimal `json:"price_at_time" gorm:"type:numeric(12,2);not null"`

	// Asset is the purchased catalog item.
	Asset Asset `json:"-" gorm:"foreignKey:AssetID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string { return "order_items" }

// Idempotency records a completed order placement keyed by (user, key) so
// that client retries with the same Idempotency-Key replay the stored result
// instead of placing a second order. Rows expire after a configurable TTL.
type Idempotency struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    uint      `json:"user_id"    gorm:"not null;index;uniqueIndex:ux_idempotency_user_key"`
	Key       string    `json:"key"        gorm:"type:varchar(200);not null;uniqueIndex:ux_idempotency_user_key"`
	OrderID   uint      `json:"order_id"   gorm:"not null"`
	Status    string    `json:"status"     gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

// TableName returns the database table name for Idempotency.
func (Idempotency) TableName() string { return "idempotency" }
