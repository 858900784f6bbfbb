package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/itsriyaas/digitalcard-backend/api/controllers"
	authcontrollers "github.com/itsriyaas/digitalcard-backend/api/controllers/auth"
	cartcontrollers "github.com/itsriyaas/digitalcard-backend/api/controllers/cart"
	cataloguecontrollers "github.com/itsriyaas/digitalcard-backend/api/controllers/catalogues"
	couponcontrollers "github.com/itsriyaas/digitalcard-backend/api/controllers/coupons"
	ordercontrollers "github.com/itsriyaas/digitalcard-backend/api/controllers/orders"
	paymentcontrollers "github.com/itsriyaas/digitalcard-backend/api/controllers/payments"
	productcontrollers "github.com/itsriyaas/digitalcard-backend/api/controllers/products"
	"github.com/itsriyaas/digitalcard-backend/api/middleware"
	authsvc "github.com/itsriyaas/digitalcard-backend/internal/auth"
	cartsvc "github.com/itsriyaas/digitalcard-backend/internal/cart"
	cataloguesvc "github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	checkoutsvc "github.com/itsriyaas/digitalcard-backend/internal/checkout"
	couponsvc "github.com/itsriyaas/digitalcard-backend/internal/coupons"
	ordersvc "github.com/itsriyaas/digitalcard-backend/internal/orders"
	paymentsvc "github.com/itsriyaas/digitalcard-backend/internal/payments"
	productsvc "github.com/itsriyaas/digitalcard-backend/internal/products"
	"github.com/itsriyaas/digitalcard-backend/pkg/config"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth       authsvc.Service
	Catalogues cataloguesvc.Service
	Products   productsvc.Service
	Coupons    couponsvc.Service
	Cart       cartsvc.Service
	Checkout   checkoutsvc.Service
	Orders     ordersvc.Service
	Payments   paymentsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	cacheP controllers.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cacheP))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", authcontrollers.Register(svcs.Auth, logg))
		r.Post("/login", authcontrollers.Login(svcs.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Get("/profile", authcontrollers.Profile(svcs.Auth, logg))
	})

	r.With(middleware.Auth(cfg.JWT, logg)).
		Get("/api/v1/orders", ordercontrollers.ListMine(svcs.Orders, logg))

	r.Route("/api/v1/catalogues", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/", cataloguecontrollers.Create(svcs.Catalogues, logg))
		r.Get("/", cataloguecontrollers.List(svcs.Catalogues, logg))

		r.Route("/{catalogueID}", func(r chi.Router) {
			r.Use(middleware.CatalogueOwner(svcs.Catalogues, logg))
			r.Get("/", cataloguecontrollers.Get(svcs.Catalogues, logg))
			r.Patch("/", cataloguecontrollers.Update(svcs.Catalogues, logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", productcontrollers.Create(svcs.Products, logg))
				r.Get("/", productcontrollers.List(svcs.Products, logg))
				r.Patch("/{productID}", productcontrollers.Update(svcs.Products, logg))
				r.Delete("/{productID}", productcontrollers.Delete(svcs.Products, logg))
			})
			r.Route("/coupons", func(r chi.Router) {
				r.Post("/", couponcontrollers.Create(svcs.Coupons, logg))
				r.Get("/", couponcontrollers.List(svcs.Coupons, logg))
				r.Patch("/{couponID}", couponcontrollers.Update(svcs.Coupons, logg))
				r.Delete("/{couponID}", couponcontrollers.Delete(svcs.Coupons, logg))
			})
			r.Route("/categories", func(r chi.Router) {
				r.Post("/", cataloguecontrollers.CreateCategory(svcs.Catalogues, logg))
				r.Get("/", cataloguecontrollers.ListCategories(svcs.Catalogues, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(svcs.Orders, logg))
				r.Get("/{orderID}", ordercontrollers.Get(svcs.Orders, logg))
				r.Patch("/{orderID}/status", ordercontrollers.UpdateStatus(svcs.Orders, logg))
				r.Patch("/{orderID}/payment-status", ordercontrollers.UpdatePaymentStatus(svcs.Orders, logg))
			})
		})
	})

	r.Route("/api/v1/store/{slug}", func(r chi.Router) {
		r.Get("/", cataloguecontrollers.PublicGet(svcs.Catalogues, logg))
		r.Get("/categories", cataloguecontrollers.PublicCategories(svcs.Catalogues, logg))
		r.Get("/products", productcontrollers.PublicList(svcs.Catalogues, svcs.Products, logg))
		r.Get("/products/{productID}", productcontrollers.PublicGet(svcs.Catalogues, svcs.Products, logg))
		r.Post("/coupons/validate", couponcontrollers.PublicValidate(svcs.Catalogues, svcs.Coupons, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.BuyerIdentity(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.Fetch(svcs.Catalogues, svcs.Cart, logg))
				r.Post("/items", cartcontrollers.AddItem(svcs.Catalogues, svcs.Cart, logg))
				r.Patch("/items/{productID}", cartcontrollers.SetItemQuantity(svcs.Catalogues, svcs.Cart, logg))
				r.Delete("/items/{productID}", cartcontrollers.RemoveItem(svcs.Catalogues, svcs.Cart, logg))
				r.Post("/coupon", cartcontrollers.ApplyCoupon(svcs.Catalogues, svcs.Cart, logg))
				r.Delete("/coupon", cartcontrollers.RemoveCoupon(svcs.Catalogues, svcs.Cart, logg))
				r.Delete("/", cartcontrollers.Clear(svcs.Catalogues, svcs.Cart, logg))
			})

			r.Post("/checkout", ordercontrollers.Checkout(svcs.Catalogues, svcs.Checkout, logg))
			r.Get("/orders/{orderID}", ordercontrollers.PublicGet(svcs.Catalogues, svcs.Orders, logg))

			r.Route("/payments", func(r chi.Router) {
				r.Post("/{orderID}", paymentcontrollers.Create(svcs.Catalogues, svcs.Payments, logg))
				r.Post("/verify", paymentcontrollers.Verify(svcs.Catalogues, svcs.Payments, logg))
				r.Post("/fail", paymentcontrollers.Fail(svcs.Catalogues, svcs.Payments, logg))
			})
		})
	})

	return r
}
