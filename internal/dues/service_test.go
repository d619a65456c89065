package dues

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/internal/notify"
	"github.com/unieats/unieats-backend/pkg/db/models"
	"github.com/unieats/unieats-backend/pkg/enums"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
	"github.com/unieats/unieats-backend/pkg/logger"
)

type gormRunner struct {
	db *gorm.DB
}

func (g gormRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type recordingNotifier struct {
	vendor []string
	admin  []string
}

func (r *recordingNotifier) Vendor(_ context.Context, _ uuid.UUID, event string, _ any) {
	r.vendor = append(r.vendor, event)
}

func (r *recordingNotifier) Admin(_ context.Context, event string, _ any) {
	r.admin = append(r.admin, event)
}

func setupDuesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
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
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newDuesService(t *testing.T, db *gorm.DB) (Service, *recordingNotifier) {
	t.Helper()
	notif := &recordingNotifier{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), gormRunner{db: db}, notif, logg)
	require.NoError(t, err)
	return svc, notif
}

func seedDeliveredOrder(t *testing.T, db *gorm.DB, vendorID uuid.UUID, owes string, createdAt time.Time) *models.Order {
	t.Helper()
	amount := decimal.RequireFromString(owes)
	order := &models.Order{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		VendorID:         vendorID,
		Subtotal:         amount.Mul(decimal.NewFromInt(20)),
		PlatformFee:      decimal.NewFromInt(10),
		VendorCommission: amount,
		TotalPrice:       amount.Mul(decimal.NewFromInt(20)).Add(decimal.NewFromInt(10)),
		VendorOwes:       &amount,
		Status:           enums.OrderStatusDelivered,
		PaymentMethod:    enums.PaymentMethodCOD,
		PaymentStatus:    enums.PaymentStatusPending,
	}
	require.NoError(t, db.Create(order).Error)
	require.NoError(t, db.Model(order).Update("created_at", createdAt).Error)
	return order
}

func TestRunAggregatesVendorOrdersIntoOneDue(t *testing.T) {
	db := setupDuesTestDB(t)
	svc, notif := newDuesService(t, db)
	ctx := context.Background()

	vendorID := uuid.New()
	base := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	first := seedDeliveredOrder(t, db, vendorID, "10", base)
	second := seedDeliveredOrder(t, db, vendorID, "15", base.Add(time.Hour))
	third := seedDeliveredOrder(t, db, vendorID, "20", base.Add(2*time.Hour))

	result, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DuesCreated)
	assert.Equal(t, 3, result.OrdersStamped)

	var dues []models.VendorDue
	require.NoError(t, db.Where("vendor_id = ?", vendorID).Find(&dues).Error)
	require.Len(t, dues, 1)
	due := dues[0]
	assert.True(t, due.AmountDue.Equal(decimal.NewFromInt(45)))
	assert.Equal(t, 3, due.OrderCount)
	assert.Equal(t, enums.DueStatusPending, due.Status)

	for _, o := range []*models.Order{first, second, third} {
		var reloaded models.Order
		require.NoError(t, db.First(&reloaded, "id = ?", o.ID).Error)
		require.NotNil(t, reloaded.DueID)
		assert.Equal(t, due.ID, *reloaded.DueID)
	}
	assert.Equal(t, []string{notify.EventDueCreated}, notif.vendor)

	// Second pass with nothing new delivered creates nothing.
	again, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, again.DuesCreated)
	assert.Zero(t, again.OrdersStamped)

	require.NoError(t, db.Where("vendor_id = ?", vendorID).Find(&dues).Error)
	assert.Len(t, dues, 1)
}

func TestRunSkipsNonEligibleOrders(t *testing.T) {
	db := setupDuesTestDB(t)
	svc, _ := newDuesService(t, db)
	ctx := context.Background()

	vendorID := uuid.New()
	now := time.Now().UTC()

	pendingOrder := seedDeliveredOrder(t, db, vendorID, "10", now)
	require.NoError(t, db.Model(pendingOrder).Update("status", enums.OrderStatusPending).Error)

	gatewayOrder := seedDeliveredOrder(t, db, vendorID, "12", now)
	require.NoError(t, db.Model(gatewayOrder).Update("payment_method", enums.PaymentMethodRazorpay).Error)

	result, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, result.DuesCreated)

	var count int64
	require.NoError(t, db.Model(&models.VendorDue{}).Where("vendor_id = ?", vendorID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunDryRunPersistsNothing(t *testing.T) {
	db := setupDuesTestDB(t)
	svc, notif := newDuesService(t, db)
	ctx := context.Background()

	vendorID := uuid.New()
	order := seedDeliveredOrder(t, db, vendorID, "25", time.Now().UTC())

	result, err := svc.Run(ctx, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.DuesCreated)
	assert.Equal(t, 1, result.OrdersStamped)

	var count int64
	require.NoError(t, db.Model(&models.VendorDue{}).Where("vendor_id = ?", vendorID).Count(&count).Error)
	assert.Zero(t, count)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Nil(t, reloaded.DueID)
	assert.Empty(t, notif.vendor)
}

func TestMarkPaidAccumulatesToPaid(t *testing.T) {
	db := setupDuesTestDB(t)
	svc, notif := newDuesService(t, db)
	ctx := context.Background()

	vendorID := uuid.New()
	seedDeliveredOrder(t, db, vendorID, "45", time.Now().UTC())
	_, err := svc.Run(ctx, false)
	require.NoError(t, err)

	var due models.VendorDue
	require.NoError(t, db.First(&due, "vendor_id = ?", vendorID).Error)

	partial, err := svc.MarkPaid(ctx, due.ID, MarkPaidInput{Amount: decimal.NewFromInt(20)})
	require.NoError(t, err)
	assert.Equal(t, enums.DueStatusPartial, partial.Status)
	assert.True(t, partial.AmountPaid.Equal(decimal.NewFromInt(20)))
	assert.Nil(t, partial.ClearedAt)

	paid, err := svc.MarkPaid(ctx, due.ID, MarkPaidInput{
		Amount:         decimal.NewFromInt(25),
		TransactionRef: "NEFT-4411",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.DueStatusPaid, paid.Status)
	assert.True(t, paid.AmountPaid.Equal(decimal.NewFromInt(45)))
	require.NotNil(t, paid.ClearedAt)
	require.NotNil(t, paid.TransactionRef)
	assert.Equal(t, "NEFT-4411", *paid.TransactionRef)
	assert.Contains(t, notif.vendor, notify.EventDueSettled)
	assert.Contains(t, notif.admin, notify.EventDueSettled)

	_, err = svc.MarkPaid(ctx, due.ID, MarkPaidInput{Amount: decimal.NewFromInt(1)})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestMarkPaidRejectsNonPositiveAmount(t *testing.T) {
	db := setupDuesTestDB(t)
	svc, _ := newDuesService(t, db)

	_, err := svc.MarkPaid(context.Background(), uuid.New(), MarkPaidInput{Amount: decimal.Zero})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestListFiltersByStatus(t *testing.T) {
	db := setupDuesTestDB(t)
	svc, _ := newDuesService(t, db)
	ctx := context.Background()

	vendorID := uuid.New()
	seedDeliveredOrder(t, db, vendorID, "30", time.Now().UTC())
	_, err := svc.Run(ctx, false)
	require.NoError(t, err)

	pending := enums.DueStatusPending
	rows, err := svc.List(ctx, vendorID, &pending)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	paid := enums.DueStatusPaid
	rows, err = svc.List(ctx, vendorID, &paid)
	require.NoError(t, err)
	assert.Empty(t, rows)

	bogus := enums.DueStatus("settledish")
	_, err = svc.List(ctx, vendorID, &bogus)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
