package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/internal/addresses"
	"github.com/unieats/unieats-backend/internal/cart"
	"github.com/unieats/unieats-backend/internal/checkout"
	"github.com/unieats/unieats-backend/internal/dues"
	"github.com/unieats/unieats-backend/internal/menu"
	"github.com/unieats/unieats-backend/internal/notify"
	"github.com/unieats/unieats-backend/internal/orders"
	"github.com/unieats/unieats-backend/internal/payments"
	"github.com/unieats/unieats-backend/internal/vendors"
	pkgauth "github.com/unieats/unieats-backend/pkg/auth"
	"github.com/unieats/unieats-backend/pkg/config"
	"github.com/unieats/unieats-backend/pkg/db/models"
	"github.com/unieats/unieats-backend/pkg/enums"
	"github.com/unieats/unieats-backend/pkg/logger"
	"github.com/unieats/unieats-backend/pkg/razorpay"
)

var routerJWT = config.JWTConfig{Secret: "router-test-secret", Issuer: "unieats-test"}

type gormRunner struct {
	db *gorm.DB
}

func (g gormRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type dropSink struct{}

func (dropSink) Publish(context.Context, string, any) error { return nil }

type joinNamer struct{}

func (joinNamer) ChannelName(parts ...string) string {
	return "ue:rt:" + strings.Join(parts, ":")
}

type memoryStore struct {
	values map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, held := m.values[key]; held {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "ue:idem:" + scope + ":" + id
}

const routerSchema = `
CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  upi_id TEXT,
  trial_ends_at DATETIME,
  is_open INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS menu_items (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price TEXT NOT NULL,
  available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  label TEXT NOT NULL DEFAULT '',
  line1 TEXT NOT NULL,
  line2 TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  vendor_id TEXT NOT NULL,
  subtotal TEXT NOT NULL DEFAULT '0',
  platform_fee TEXT NOT NULL DEFAULT '0',
  total TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  menu_item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  line_subtotal TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  subtotal TEXT NOT NULL,
  platform_fee TEXT NOT NULL,
  vendor_commission TEXT NOT NULL,
  total_price TEXT NOT NULL,
  vendor_receives TEXT,
  vendor_owes TEXT,
  net_revenue TEXT,
  gross_received TEXT,
  platform_gross TEXT,
  vendor_payout TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  upi_reference TEXT,
  vendor_upi_id TEXT,
  gateway_order_id TEXT,
  gateway_payment_id TEXT,
  gateway_signature TEXT,
  delivery_address TEXT NOT NULL DEFAULT '{}',
  accepted_at DATETIME,
  ready_at DATETIME,
  due_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  menu_item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  line_total TEXT NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS order_status_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS vendor_dues (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  period_start DATETIME NOT NULL,
  period_end DATETIME NOT NULL,
  amount_due TEXT NOT NULL,
  amount_paid TEXT NOT NULL DEFAULT '0',
  order_count INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  transaction_ref TEXT,
  cleared_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

type routerFixture struct {
	handler  http.Handler
	db       *gorm.DB
	userID   uuid.UUID
	vendorID uuid.UUID
	itemID   uuid.UUID
	addrID   uuid.UUID
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(routerSchema).Error)

	runner := gormRunner{db: db}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})

	notif, err := notify.NewNotifier(dropSink{}, joinNamer{}, logg)
	require.NoError(t, err)

	menuSvc, err := menu.NewService(menu.NewRepository(db))
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.NewRepository(db), menuSvc, runner)
	require.NoError(t, err)
	addrSvc, err := addresses.NewService(addresses.NewRepository(db))
	require.NoError(t, err)
	vendorSvc, err := vendors.NewService(vendors.NewRepository(db))
	require.NoError(t, err)

	ordersRepo := orders.NewRepository(db)
	ordersSvc, err := orders.NewService(ordersRepo, runner, notif, nil)
	require.NoError(t, err)

	checkoutSvc, err := checkout.NewService(ordersRepo, cartSvc, addrSvc, vendorSvc,
		nil, runner, notif, nil, logg)
	require.NoError(t, err)

	verifier, err := razorpay.New(config.RazorpayConfig{
		KeyID: "test-key", KeySecret: "test-secret", Currency: "INR",
	})
	require.NoError(t, err)
	paymentsSvc, err := payments.NewService(ordersRepo, cartSvc, verifier, runner, notif, nil)
	require.NoError(t, err)

	duesSvc, err := dues.NewService(dues.NewRepository(db), runner, notif, logg)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = routerJWT

	handler := NewRouter(Deps{
		Config:    cfg,
		Logger:    logg,
		IdemKeys:  &memoryStore{values: map[string]string{}},
		Cart:      cartSvc,
		Addresses: addrSvc,
		Checkout:  checkoutSvc,
		Orders:    ordersSvc,
		Payments:  paymentsSvc,
		Vendors:   vendorSvc,
		Menu:      menuSvc,
		Dues:      duesSvc,
	})

	userID := uuid.New()
	vendor := &models.Vendor{
		ID:     uuid.New(),
		Name:   "Hostel Mess",
		Email:  uuid.NewString() + "@vendors.test",
		IsOpen: true,
	}
	require.NoError(t, db.Create(vendor).Error)

	item := &models.MenuItem{
		ID:        uuid.New(),
		VendorID:  vendor.ID,
		Name:      "Masala Dosa",
		Price:     decimal.NewFromInt(120),
		Available: true,
	}
	require.NoError(t, db.Create(item).Error)

	addr := &models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Line1:      "Hostel 4",
		City:       "Pune",
		State:      "MH",
		PostalCode: "411001",
	}
	require.NoError(t, db.Create(addr).Error)

	return &routerFixture{
		handler:  handler,
		db:       db,
		userID:   userID,
		vendorID: vendor.ID,
		itemID:   item.ID,
		addrID:   addr.ID,
	}
}

func mintToken(t *testing.T, id uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(routerJWT, time.Now(), time.Hour, pkgauth.Principal{ID: id, Role: role})
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token, idemKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestHealthLiveIsPublic(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(t, http.MethodGet, "/health/live", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/cart", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRejectUserRole(t *testing.T) {
	f := newRouterFixture(t)
	token := mintToken(t, f.userID, enums.UserRoleUser)
	w := f.do(t, http.MethodGet, "/api/admin/v1/dues", token, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPlaceOrderFlowOverHTTP(t *testing.T) {
	f := newRouterFixture(t)
	token := mintToken(t, f.userID, enums.UserRoleUser)

	w := f.do(t, http.MethodPost, "/api/v1/cart/items", token, "cart-key-1", map[string]any{
		"menu_item_id": f.itemID,
		"quantity":     2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/cart", token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Masala Dosa")

	placeBody := map[string]any{
		"address_id":     f.addrID,
		"payment_method": "cod",
	}
	w = f.do(t, http.MethodPost, "/api/v1/orders", token, "order-key-1", placeBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Replaying the same idempotency key must not create a second order.
	w = f.do(t, http.MethodPost, "/api/v1/orders", token, "order-key-1", placeBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Where("user_id = ?", f.userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	w = f.do(t, http.MethodGet, "/api/v1/orders", token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cod")
}

func TestVendorTransitionOverHTTP(t *testing.T) {
	f := newRouterFixture(t)
	userToken := mintToken(t, f.userID, enums.UserRoleUser)
	vendorToken := mintToken(t, f.vendorID, enums.UserRoleVendor)

	w := f.do(t, http.MethodPost, "/api/v1/cart/items", userToken, "cart-key-2", map[string]any{
		"menu_item_id": f.itemID,
		"quantity":     1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/orders", userToken, "order-key-2", map[string]any{
		"address_id":     f.addrID,
		"payment_method": "cod",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, f.db.First(&order, "user_id = ?", f.userID).Error)

	path := fmt.Sprintf("/api/v1/vendor/orders/%s/status", order.ID)
	w = f.do(t, http.MethodPost, path, vendorToken, "status-key-1", map[string]any{"status": "preparing"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "preparing")

	// Users cannot drive vendor transitions.
	w = f.do(t, http.MethodPost, path, userToken, "status-key-2", map[string]any{"status": "ready"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
