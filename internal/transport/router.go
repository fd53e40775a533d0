package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mediplant/storefront/internal/handler"
	"github.com/mediplant/storefront/internal/ratelimit"
	"github.com/mediplant/storefront/internal/user"
)

type Handlers struct {
	Users    *handler.UserHandler
	Catalog  *handler.CatalogHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
	Reviews  *handler.ReviewHandler
	Wishlist *handler.WishlistHandler
	Auth     *handler.AuthMiddleware
	Limiter  *ratelimit.Limiter
}

// NewRouter assembles the HTTP surface: public catalog and auth routes,
// token-protected customer routes, and an admin group behind a role check.
func NewRouter(h Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.Limiter.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.Users.Register)
		r.Post("/auth/login", h.Users.Login)

		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/{id}", h.Catalog.GetProduct)
		r.Get("/categories", h.Catalog.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)

			r.Post("/auth/logout", h.Users.Logout)
			r.Get("/me", h.Users.Me)

			r.Get("/cart", h.Cart.Get)
			r.Delete("/cart", h.Cart.Clear)
			r.Post("/cart/items", h.Cart.Add)
			r.Put("/cart/items/{productID}", h.Cart.UpdateQuantity)
			r.Delete("/cart/items/{productID}", h.Cart.Remove)

			r.Get("/orders", h.Orders.List)
			r.Post("/orders", h.Orders.Place)
			r.Get("/orders/quote", h.Orders.Quote)
			r.Get("/orders/track/{number}", h.Orders.Track)
			r.Get("/orders/{id}", h.Orders.Get)
			r.Post("/orders/{id}/cancel", h.Orders.Cancel)

			r.Post("/reviews", h.Reviews.Submit)
			r.Delete("/reviews/{id}", h.Reviews.Delete)

			r.Get("/wishlist", h.Wishlist.List)
			r.Post("/wishlist/{productID}", h.Wishlist.Add)
			r.Delete("/wishlist/{productID}", h.Wishlist.Remove)
			r.Post("/wishlist/{productID}/move-to-cart", h.Wishlist.MoveToCart)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)
			r.Use(handler.RequireRole(user.RoleAdmin))

			r.Get("/products", h.Catalog.AdminListProducts)
			r.Post("/products", h.Catalog.CreateProduct)
			r.Put("/products/{id}", h.Catalog.UpdateProduct)
			r.Delete("/products/{id}", h.Catalog.DeactivateProduct)
			r.Post("/categories", h.Catalog.CreateCategory)

			r.Get("/orders", h.Orders.AdminList)
			r.Put("/orders/{id}/status", h.Orders.AdminUpdateStatus)
		})
	})

	return r
}
