package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unieats/unieats-backend/api/controllers"
	"github.com/unieats/unieats-backend/api/middleware"
	"github.com/unieats/unieats-backend/internal/addresses"
	"github.com/unieats/unieats-backend/internal/cart"
	"github.com/unieats/unieats-backend/internal/checkout"
	"github.com/unieats/unieats-backend/internal/dues"
	"github.com/unieats/unieats-backend/internal/menu"
	"github.com/unieats/unieats-backend/internal/orders"
	"github.com/unieats/unieats-backend/internal/payments"
	"github.com/unieats/unieats-backend/internal/vendors"
	pkgcache "github.com/unieats/unieats-backend/pkg/cache"
	"github.com/unieats/unieats-backend/pkg/config"
	"github.com/unieats/unieats-backend/pkg/enums"
	"github.com/unieats/unieats-backend/pkg/logger"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Pingers  map[string]controllers.Pinger
	IdemKeys middleware.IdempotencyStore
	Registry *prometheus.Registry

	Cart      cart.Service
	Addresses addresses.Service
	Checkout  checkout.Service
	Orders    orders.Service
	Payments  payments.Service
	Vendors   vendors.Service
	Menu      menu.Service
	Dues      dues.Service

	OrderHistoryCache *pkgcache.Service
}

// NewRouter assembles the chi route tree.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	logg := d.Logger

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, logg, d.Pingers))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.Config.JWT, logg))
		r.Use(middleware.Idempotency(d.IdemKeys, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleUser, logg))
			r.Get("/", controllers.CartGet(d.Cart, logg))
			r.Delete("/", controllers.CartClear(d.Cart, logg))
			r.Post("/items", controllers.CartAddItem(d.Cart, logg))
			r.Patch("/items/{itemID}", controllers.CartUpdateItem(d.Cart, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(d.Cart, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleUser, logg))
			r.Get("/", controllers.AddressList(d.Addresses, logg))
			r.Post("/", controllers.AddressCreate(d.Addresses, logg))
			r.Put("/{addressID}", controllers.AddressUpdate(d.Addresses, logg))
			r.Delete("/{addressID}", controllers.AddressDelete(d.Addresses, logg))
		})

		r.Get("/vendors", controllers.VendorList(d.Vendors, logg))
		r.Get("/vendors/{vendorID}/menu", controllers.VendorMenu(d.Menu, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleUser, logg))
			r.Post("/", controllers.OrderPlace(d.Checkout, d.OrderHistoryCache, logg))
			r.Get("/", controllers.OrderList(d.Orders, d.OrderHistoryCache, logg))
			r.Get("/{orderID}", controllers.OrderGet(d.Orders, logg))
			r.Post("/{orderID}/confirm-upi", controllers.OrderConfirmUPI(d.Payments, d.OrderHistoryCache, logg))
			r.Post("/{orderID}/verify-payment", controllers.OrderVerifyPayment(d.Payments, d.OrderHistoryCache, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleVendor, logg))
			r.Get("/orders", controllers.VendorOrderList(d.Orders, logg))
			r.Get("/orders/{orderID}", controllers.VendorOrderGet(d.Orders, logg))
			r.Post("/orders/{orderID}/status", controllers.VendorOrderStatus(d.Orders, logg))
			r.Post("/profile/open", controllers.VendorSetOpen(d.Vendors, logg))
			r.Post("/profile/upi", controllers.VendorSetUPI(d.Vendors, logg))
			r.Post("/menu/{itemID}/availability", controllers.VendorItemAvailability(d.Menu, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.Config.JWT, logg))
		r.Use(middleware.Idempotency(d.IdemKeys, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

		r.Route("/dues", func(r chi.Router) {
			r.Get("/", controllers.DuesList(d.Dues, logg))
			r.Get("/{dueID}", controllers.DueGet(d.Dues, logg))
			r.Post("/reconcile", controllers.DuesReconcile(d.Dues, logg))
			r.Post("/{dueID}/mark-paid", controllers.DueMarkPaid(d.Dues, logg))
		})
	})

	return r
}
