package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avaldezm/marketbox-backend/api/controllers"
	"github.com/avaldezm/marketbox-backend/api/middleware"
	"github.com/avaldezm/marketbox-backend/internal/cart"
	"github.com/avaldezm/marketbox-backend/internal/favorites"
	"github.com/avaldezm/marketbox-backend/internal/notifications"
	"github.com/avaldezm/marketbox-backend/internal/orders"
	"github.com/avaldezm/marketbox-backend/pkg/config"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	pkgredis "github.com/avaldezm/marketbox-backend/pkg/redis"
)

// RouterParams carry everything the HTTP surface depends on.
type RouterParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	ReadyChecks      []controllers.ReadyCheck
	IdempotencyStore pkgredis.IdempotencyStore
	Catalog          controllers.MerchantCatalog
	Cart             cart.Service
	Favorites        favorites.Service
	Notifications    notifications.Service
	Orders           orders.Service
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.ReadyChecks...))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SessionContext(logg))
		r.Use(middleware.Idempotency(params.IdempotencyStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(params.Cart, logg))
			r.Delete("/", controllers.CartClear(params.Cart, logg))
			r.Post("/items", controllers.CartAddItem(params.Cart, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(params.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(params.Cart, logg))
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(params.Favorites, logg))
			r.Post("/toggle", controllers.FavoritesToggle(params.Favorites, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(params.Notifications, logg))
			r.Post("/refresh", controllers.RefreshNotifications(params.Notifications, logg))
			r.Post("/mark-read", controllers.MarkNotificationsRead(params.Notifications, logg))
			r.Post("/mark-unread", controllers.MarkNotificationsUnread(params.Notifications, logg))
			r.Post("/delete", controllers.DeleteNotifications(params.Notifications, logg))
			r.Post("/{notificationId}/accept-match", controllers.AcceptMatchNotification(params.Notifications, logg))
			r.Post("/{notificationId}/reject-match", controllers.RejectMatchNotification(params.Notifications, logg))
			r.Route("/selection", func(r chi.Router) {
				r.Get("/", controllers.SelectedNotifications(params.Notifications, logg))
				r.Post("/toggle", controllers.ToggleNotificationSelection(params.Notifications, logg))
				r.Post("/all", controllers.SelectAllNotifications(params.Notifications, logg))
				r.Delete("/", controllers.ClearNotificationSelection(params.Notifications, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(params.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(params.Orders, logg))
			r.Put("/{orderId}/status", controllers.UpdateOrderStatus(params.Orders, logg))
		})

		r.Route("/merchants", func(r chi.Router) {
			r.Get("/", controllers.ListMerchants(params.Catalog, logg))
			r.Get("/{merchantId}/products", controllers.MerchantProducts(params.Catalog, logg))
		})
	})

	return r
}
