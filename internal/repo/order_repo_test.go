package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/errs"
)

func newOrderRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("order_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// orderFixture seeds a buyer and two assets and returns their IDs.
func orderFixture(t *testing.T, db *gorm.DB) (userID, cheapID, dearID uint) {
	t.Helper()
	u := seedUser(t, db, "buyer", "buyer@example.com")
	cheap := seedAsset(t, db, "Cable", "2.50", 10)
	dear := seedAsset(t, db, "Monitor", "199.99", 3)
	return u.ID, cheap.ID, dear.ID
}

func TestCreateOrder_ComputesTotalAndDecrementsStock(t *testing.T) {
	db := newOrderRepoDB(t)
	userID, cheapID, dearID := orderFixture(t, db)

	o, err := CreateOrder(context.Background(), db, userID, []OrderLine{
		{AssetID: cheapID, Quantity: 4}, // 10.00
		{AssetID: dearID, Quantity: 2},  // 399.98
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if o.ID == 0 || o.UserID != userID || o.Status != domain.StatusPending {
		t.Fatalf("unexpected order header: %+v", o)
	}
	want := decimal.RequireFromString("409.98")
	if !o.TotalAmount.Equal(want) {
		t.Fatalf("total = %s, want %s", o.TotalAmount, want)
	}
	if len(o.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(o.Items))
	}
	for _, it := range o.Items {
		if it.OrderID != o.ID {
			t.Fatalf("item not linked to order: %+v", it)
		}
	}

	if got := assetStock(t, db, cheapID); got != 6 {
		t.Fatalf("cheap stock = %d, want 6", got)
	}
	if got := assetStock(t, db, dearID); got != 1 {
		t.Fatalf("dear stock = %d, want 1", got)
	}
}

func TestCreateOrder_CapturesPriceAtTime(t *testing.T) {
	db := newOrderRepoDB(t)
	userID, cheapID, _ := orderFixture(t, db)

	o, err := CreateOrder(context.Background(), db, userID, []OrderLine{
		{AssetID: cheapID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// Reprice the asset; the stored order item must keep the old price.
	if _, err := UpdateAsset(context.Background(), db, cheapID, domain.Asset{
		Name: "Cable", Price: decimal.RequireFromString("5.00"), Stock: 9,
	}); err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}

	got, err := GetOrder(context.Background(), db, o.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !got.Items[0].PriceAtTime.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("price at time = %s, want 2.50", got.Items[0].PriceAtTime)
	}
}

func TestCreateOrder_MidOrderFailureRollsBackEverything(t *testing.T) {
	db := newOrderRepoDB(t)
	userID, cheapID, dearID := orderFixture(t, db)

	// Second line exceeds stock (3 available).
	_, err := CreateOrder(context.Background(), db, userID, []OrderLine{
		{AssetID: cheapID, Quantity: 4},
		{AssetID: dearID, Quantity: 5},
	})
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// The first line's decrement must have rolled back too.
	if got := assetStock(t, db, cheapID); got != 10 {
		t.Fatalf("cheap stock = %d, want 10 after rollback", got)
	}
	var orders, items int64
	db.Model(&domain.Order{}).Count(&orders)
	db.Model(&domain.OrderItem{}).Count(&items)
	if orders != 0 || items != 0 {
		t.Fatalf("no rows may survive the rollback, got orders=%d items=%d", orders, items)
	}
}

func TestCreateOrder_UnknownAssetAndEmptyLines(t *testing.T) {
	db := newOrderRepoDB(t)
	userID, _, _ := orderFixture(t, db)

	if _, err := CreateOrder(context.Background(), db, userID, []OrderLine{
		{AssetID: 999, Quantity: 1},
	}); !errs.IsNotFound(err) {
		t.Fatalf("unknown asset should be not found, got %v", err)
	}

	if _, err := CreateOrder(context.Background(), db, userID, nil); !errs.IsValidation(err) {
		t.Fatalf("empty order should be validation, got %v", err)
	}
}

func TestGetOrder_PreloadsItems(t *testing.T) {
	db := newOrderRepoDB(t)
	userID, cheapID, _ := orderFixture(t, db)

	created, err := CreateOrder(context.Background(), db, userID, []OrderLine{
		{AssetID: cheapID, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	got, err := GetOrder(context.Background(), db, created.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("items not preloaded: %+v", got.Items)
	}

	if _, err := GetOrder(context.Background(), db, 424242); !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListOrdersByUser(t *testing.T) {
	db := newOrderRepoDB(t)
	userID, cheapID, _ := orderFixture(t, db)
	other := seedUser(t, db, "other", "other@example.com")

	for i := 0; i < 3; i++ {
		if _, err := CreateOrder(context.Background(), db, userID, []OrderLine{
			{AssetID: cheapID, Quantity: 1},
		}); err != nil {
			t.Fatalf("CreateOrder %d: %v", i, err)
		}
	}

	total, err := CountOrdersByUser(context.Background(), db, userID)
	if err != nil || total != 3 {
		t.Fatalf("CountOrdersByUser = %d, %v", total, err)
	}
	if n, _ := CountOrdersByUser(context.Background(), db, other.ID); n != 0 {
		t.Fatalf("other user should have no orders, got %d", n)
	}

	page, err := ListOrdersByUser(context.Background(), db, userID, 0, 2)
	if err != nil || len(page) != 2 {
		t.Fatalf("first page = %d rows, %v", len(page), err)
	}
	for _, o := range page {
		if len(o.Items) != 1 {
			t.Fatalf("items not preloaded in list: %+v", o)
		}
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	db := newOrderRepoDB(t)
	userID, cheapID, _ := orderFixture(t, db)

	o, err := CreateOrder(context.Background(), db, userID, []OrderLine{
		{AssetID: cheapID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if err := UpdateOrderStatus(context.Background(), db, o.ID, domain.StatusShipped); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	got, _ := GetOrder(context.Background(), db, o.ID)
	if got.Status != domain.StatusShipped {
		t.Fatalf("status = %q, want shipped", got.Status)
	}

	if err := UpdateOrderStatus(context.Background(), db, o.ID, "teleported"); !errs.IsValidation(err) {
		t.Fatalf("unknown status should be validation, got %v", err)
	}
	if err := UpdateOrderStatus(context.Background(), db, 999, domain.StatusShipped); !errs.IsNotFound(err) {
		t.Fatalf("missing order should be not found, got %v", err)
	}
}

func TestDeleteOrder_RemovesItems(t *testing.T) {
	db := newOrderRepoDB(t)
	userID, cheapID, _ := orderFixture(t, db)

	o, err := CreateOrder(context.Background(), db, userID, []OrderLine{
		{AssetID: cheapID, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if err := DeleteOrder(context.Background(), db, o.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if _, err := GetOrder(context.Background(), db, o.ID); !errs.IsNotFound(err) {
		t.Fatalf("order should be gone, got %v", err)
	}
	var items int64
	db.Model(&domain.OrderItem{}).Count(&items)
	if items != 0 {
		t.Fatalf("order items should be gone, got %d", items)
	}

	if err := DeleteOrder(context.Background(), db, o.ID); !errs.IsNotFound(err) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}
