package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/internal/addresses"
	"github.com/unieats/unieats-backend/internal/cart"
	"github.com/unieats/unieats-backend/internal/fees"
	"github.com/unieats/unieats-backend/internal/notify"
	"github.com/unieats/unieats-backend/internal/orders"
	"github.com/unieats/unieats-backend/internal/vendors"
	"github.com/unieats/unieats-backend/pkg/db/models"
	"github.com/unieats/unieats-backend/pkg/enums"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
	"github.com/unieats/unieats-backend/pkg/logger"
	"github.com/unieats/unieats-backend/pkg/metrics"
	"github.com/unieats/unieats-backend/pkg/razorpay"
)

// txRunner abstracts transactional execution.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// gateway creates remote payment intents. The concrete client lives in
// pkg/razorpay; tests substitute a stub.
type gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*razorpay.RemoteOrder, error)
}

// notifier is the realtime side channel.
type notifier interface {
	User(ctx context.Context, userID uuid.UUID, event string, payload any)
	Vendor(ctx context.Context, vendorID uuid.UUID, event string, payload any)
	Admin(ctx context.Context, event string, payload any)
}

// PlaceInput selects what the purchaser is buying and how they pay.
type PlaceInput struct {
	AddressID     uuid.UUID           `json:"address_id" validate:"required"`
	PaymentMethod enums.PaymentMethod `json:"payment_method" validate:"required"`
}

// UPIInstructions tells the purchaser where to send a manual UPI payment.
type UPIInstructions struct {
	VendorUPIID string          `json:"vendor_upi_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// GatewayCheckout carries what the client needs to complete a gateway payment.
type GatewayCheckout struct {
	GatewayOrderID string          `json:"gateway_order_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
}

// PlaceResult is the placement outcome; exactly one of UPI/Gateway is set
// for those payment modes.
type PlaceResult struct {
	Order   *models.Order    `json:"order"`
	UPI     *UPIInstructions `json:"upi,omitempty"`
	Gateway *GatewayCheckout `json:"gateway,omitempty"`
}

// Service turns a cart into a persisted order.
type Service interface {
	Place(ctx context.Context, userID uuid.UUID, input PlaceInput) (*PlaceResult, error)
}

type service struct {
	ordersRepo *orders.Repository
	carts      cart.Service
	addrs      addresses.Service
	vendors    vendors.Service
	gw         gateway
	tx         txRunner
	notif      notifier
	metrics    *metrics.OrderMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires placement dependencies. Metrics may be nil; the gateway is
// required only when RAZORPAY placement should be available.
func NewService(
	ordersRepo *orders.Repository,
	carts cart.Service,
	addrs addresses.Service,
	vendorSvc vendors.Service,
	gw gateway,
	tx txRunner,
	notif notifier,
	m *metrics.OrderMetrics,
	logg *logger.Logger,
) (Service, error) {
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart service required")
	}
	if addrs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "addresses service required")
	}
	if vendorSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendors service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if notif == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		ordersRepo: ordersRepo,
		carts:      carts,
		addrs:      addrs,
		vendors:    vendorSvc,
		gw:         gw,
		tx:         tx,
		notif:      notif,
		metrics:    m,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// Place validates, snapshots the cart into an immutable order, and branches
// per payment mode. All validations run before any write; a gateway failure
// after the write triggers a compensating delete.
func (s *service) Place(ctx context.Context, userID uuid.UUID, input PlaceInput) (*PlaceResult, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported payment method %q", input.PaymentMethod))
	}

	userCart, err := s.carts.Get(ctx, userID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, err
	}
	if len(userCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	addr, err := s.addrs.ResolveForUser(ctx, userID, input.AddressID)
	if err != nil {
		return nil, err
	}

	vendor, err := s.vendors.Get(ctx, userCart.VendorID)
	if err != nil {
		return nil, err
	}
	if input.PaymentMethod == enums.PaymentMethodUPI && !vendor.AcceptsUPI() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor is not accepting UPI payments")
	}

	now := s.now().UTC()
	commissionActive := !vendor.IsTrialActive(now)
	breakdown := fees.Calculate(userCart.Subtotal, input.PaymentMethod, commissionActive)

	order := s.buildOrder(userID, userCart, vendor, addr, input.PaymentMethod, breakdown)

	switch input.PaymentMethod {
	case enums.PaymentMethodCOD:
		return s.placeCOD(ctx, order)
	case enums.PaymentMethodUPI:
		return s.placeUPI(ctx, order)
	default:
		return s.placeGateway(ctx, order)
	}
}

// buildOrder snapshots cart lines and the delivery address into an immutable
// order payload with the fee breakdown for the chosen mode.
func (s *service) buildOrder(
	userID uuid.UUID,
	userCart *models.Cart,
	vendor *models.Vendor,
	addr *models.Address,
	method enums.PaymentMethod,
	breakdown fees.Breakdown,
) *models.Order {
	order := &models.Order{
		ID:               uuid.New(),
		UserID:           userID,
		VendorID:         vendor.ID,
		Subtotal:         breakdown.Subtotal,
		PlatformFee:      breakdown.PlatformFee,
		VendorCommission: breakdown.VendorCommission,
		TotalPrice:       breakdown.Total,
		Status:           enums.OrderStatusPending,
		PaymentMethod:    method,
		PaymentStatus:    enums.PaymentStatusPending,
		DeliveryAddress:  addresses.Snapshot(addr),
	}

	if method.IsGateway() {
		order.Status = enums.OrderStatusPaymentPending
		order.GrossReceived = &breakdown.GrossReceived
		order.PlatformGross = &breakdown.PlatformGross
		order.VendorPayout = &breakdown.VendorPayout
	} else {
		order.VendorReceives = &breakdown.VendorReceives
		order.VendorOwes = &breakdown.VendorOwes
		order.NetRevenue = &breakdown.NetRevenue
	}
	if method == enums.PaymentMethodUPI {
		order.VendorUPIID = vendor.UPIID
	}

	order.Items = make([]models.OrderItem, 0, len(userCart.Items))
	for _, line := range userCart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
			LineTotal:  line.LineSubtotal,
		})
	}
	return order
}

func (s *service) placeCOD(ctx context.Context, order *models.Order) (*PlaceResult, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ordersRepo.CreateWithTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.ordersRepo.AppendEventWithTx(tx, order.ID, order.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status event")
		}
		// COD settles at the door, so the cart clears right away.
		return s.carts.ClearWithTx(tx, order.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPlaced(order.PaymentMethod.String())
	payload := placedPayload(order)
	s.notif.Vendor(ctx, order.VendorID, notify.EventOrderPlaced, payload)
	s.notif.Admin(ctx, notify.EventOrderPlaced, payload)
	return &PlaceResult{Order: order}, nil
}

func (s *service) placeUPI(ctx context.Context, order *models.Order) (*PlaceResult, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ordersRepo.CreateWithTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.ordersRepo.AppendEventWithTx(tx, order.ID, order.Status)
	})
	if err != nil {
		return nil, err
	}

	// The cart deliberately survives placement: the payment has not been
	// observed yet, and confirmation (not placement) clears it.
	s.metrics.IncPlaced(order.PaymentMethod.String())

	result := &PlaceResult{Order: order}
	if order.VendorUPIID != nil {
		result.UPI = &UPIInstructions{VendorUPIID: *order.VendorUPIID, Amount: order.TotalPrice}
	}
	return result, nil
}

func (s *service) placeGateway(ctx context.Context, order *models.Order) (*PlaceResult, error) {
	if s.gw == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ordersRepo.CreateWithTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.ordersRepo.AppendEventWithTx(tx, order.ID, order.Status)
	})
	if err != nil {
		return nil, err
	}

	remote, err := s.gw.CreateOrder(ctx, order.TotalPrice, order.ID.String())
	if err != nil {
		s.rollbackGatewayOrder(ctx, order.ID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway order creation failed")
	}

	order.GatewayOrderID = &remote.ID
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("gateway_order_id", remote.ID).Error
	}); err != nil {
		// Without the stored gateway id the callback can never match this
		// order, so it would sit payment_pending forever.
		s.rollbackGatewayOrder(ctx, order.ID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store gateway order id")
	}

	s.metrics.IncPlaced(order.PaymentMethod.String())
	return &PlaceResult{
		Order: order,
		Gateway: &GatewayCheckout{
			GatewayOrderID: remote.ID,
			Amount:         order.TotalPrice,
			Currency:       remote.Currency,
		},
	}, nil
}

// rollbackGatewayOrder deletes a gateway order that cannot be verified.
// Never retain a payment_pending order with no usable gateway intent.
func (s *service) rollbackGatewayOrder(ctx context.Context, orderID uuid.UUID) {
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.ordersRepo.DeleteWithTx(tx, orderID)
	}); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, orderID.String()),
			"rollback of orphaned gateway order failed", err)
	}
}

func placedPayload(order *models.Order) map[string]any {
	return map[string]any{
		"order_id": order.ID,
		"total":    order.TotalPrice,
		"method":   order.PaymentMethod,
	}
}
