package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/repo"
	"github.com/tbourn/go-market-backend/internal/services"
)

func newAssetHandlers(db *gorm.DB) *Handlers {
	svc := services.NewCatalogService(db, testAssetRepo{})
	return New(stubUserSvc{}, svc, stubOrderSvc{})
}

func seedHandlerAsset(t *testing.T, db *gorm.DB, name, price string, stock int) *domain.Asset {
	t.Helper()
	a, err := repo.CreateAsset(context.Background(), db, &domain.Asset{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("seed asset %q: %v", name, err)
	}
	return a
}

// ---------- CreateAsset ----------

func TestCreateAsset_BadJSON_Success_Validation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := newAssetHandlers(db)
	r := gin.New()
	r.POST("/assets", h.CreateAsset)

	// Bad JSON -> 400
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/assets", bytes.NewBufferString("{bad"))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("bad json -> %d", w.Code)
		}
	}

	// Success -> 201 with decimal price preserved
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/assets",
			bytes.NewBufferString(`{"name":"Keyboard","price":"79.99","stock":5}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("create -> %d body=%s", w.Code, w.Body.String())
		}
		var out domain.Asset
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.ID == 0 || !out.Price.Equal(decimal.RequireFromString("79.99")) || out.Stock != 5 {
			t.Fatalf("unexpected asset: %#v", out)
		}
	}

	// Negative price fails service validation -> 400
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/assets",
			bytes.NewBufferString(`{"name":"Broken","price":"-1.00","stock":1}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("negative price -> %d body=%s", w.Code, w.Body.String())
		}
		var out ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.Code != ErrCodeBadRequest {
			t.Fatalf("code = %q", out.Code)
		}
	}
}

// ---------- ListAssets ----------

func TestListAssets_NameFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := newAssetHandlers(db)
	r := gin.New()
	r.GET("/assets", h.ListAssets)

	seedHandlerAsset(t, db, "Mechanical Keyboard", "79.99", 5)
	seedHandlerAsset(t, db, "Keyboard Cover", "9.99", 5)
	seedHandlerAsset(t, db, "Monitor", "199.99", 5)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/assets?name=KEYBOARD", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d body=%s", w.Code, w.Body.String())
	}
	var out ListAssetsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Pagination.Total != 2 || len(out.Assets) != 2 {
		t.Fatalf("filter mismatch: total=%d len=%d", out.Pagination.Total, len(out.Assets))
	}
	for _, a := range out.Assets {
		if a.Name == "Monitor" {
			t.Fatalf("filter leaked: %q", a.Name)
		}
	}
}

// ---------- Update / Delete ----------

func TestUpdateAsset_And_Delete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := newAssetHandlers(db)
	r := gin.New()
	r.PUT("/assets/:id", h.UpdateAsset)
	r.DELETE("/assets/:id", h.DeleteAsset)

	a := seedHandlerAsset(t, db, "Cable", "2.50", 10)

	// update -> 200 with new values
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/assets/%d", a.ID),
			bytes.NewBufferString(`{"name":"USB Cable","price":"3.00","stock":8}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("update -> %d body=%s", w.Code, w.Body.String())
		}
		var out domain.Asset
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.Name != "USB Cable" || out.Stock != 8 {
			t.Fatalf("unexpected asset: %#v", out)
		}
	}

	// update missing -> 404
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/assets/9999",
			bytes.NewBufferString(`{"name":"X","price":"1.00","stock":1}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("update missing -> %d", w.Code)
		}
	}

	// delete -> 204, then 404
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/assets/%d", a.ID), nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Fatalf("delete -> %d", w.Code)
		}

		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/assets/%d", a.ID), nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("second delete -> %d", w.Code)
		}
	}
}

// ---------- PurchaseAsset ----------

func TestPurchaseAsset_Success_Insufficient_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	h := newAssetHandlers(db)
	r := gin.New()
	r.POST("/assets/:id/buy", h.PurchaseAsset)

	a := seedHandlerAsset(t, db, "SSD", "120.00", 5)

	// buy 3 of 5 -> 200 with remaining stock
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/assets/%d/buy", a.ID),
			bytes.NewBufferString(`{"quantity":3}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("buy -> %d body=%s", w.Code, w.Body.String())
		}
		var out domain.Asset
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.Stock != 2 {
			t.Fatalf("stock after buy = %d", out.Stock)
		}
	}

	// buy more than remaining -> 400, stock untouched
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/assets/%d/buy", a.ID),
			bytes.NewBufferString(`{"quantity":10}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("insufficient -> %d body=%s", w.Code, w.Body.String())
		}

		left, err := repo.GetAsset(context.Background(), db, a.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if left.Stock != 2 {
			t.Fatalf("stock changed on failed buy: %d", left.Stock)
		}
	}

	// zero quantity fails binding -> 400
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/assets/%d/buy", a.ID),
			bytes.NewBufferString(`{"quantity":0}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("zero qty -> %d", w.Code)
		}
	}

	// unknown asset -> 404
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/assets/9999/buy",
			bytes.NewBufferString(`{"quantity":1}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("unknown asset -> %d body=%s", w.Code, w.Body.String())
		}
	}
}
