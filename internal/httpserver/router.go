package httpserver

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"tiffinbox/internal/cart"
	"tiffinbox/internal/checkout"
	"tiffinbox/internal/domain"
	"tiffinbox/internal/preload"
	"tiffinbox/internal/pricing"
	"tiffinbox/internal/storage"
)

// OrdersLister is the direct-fetch fallback behind the orders cache.
type OrdersLister interface {
	ListOrders(ctx context.Context, status string) ([]domain.Order, error)
}

// Deps carries everything the routes need.
type Deps struct {
	Store     *cart.Store
	Pricing   *pricing.Reconciler
	Checkout  *checkout.Orchestrator
	Cache     *preload.Cache
	Preloader *preload.Preloader
	Orders    OrdersLister
	Notes     *storage.NoteStore
}

// buildRouter wires routes for the client core.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	v1 := router.Group("/v1")
	{
		v1.GET("/cart", cartStateHandler(deps))
		v1.DELETE("/cart", clearCartHandler(deps))
		v1.PUT("/cart", replaceCartHandler(deps))
		v1.POST("/cart/lines", addLineHandler(deps))
		v1.PATCH("/cart/lines/:id", setLineQuantityHandler(deps))
		v1.DELETE("/cart/lines/:id", removeLineHandler(deps))
		v1.POST("/cart/lines/:id/addons", addAddonHandler(deps))
		v1.PATCH("/cart/lines/:id/addons/:addonId", adjustAddonHandler(deps))
		v1.DELETE("/cart/lines/:id/addons/:addonId", removeAddonHandler(deps))
		v1.PUT("/cart/context", updateContextHandler(deps))
		v1.POST("/cart/vouchers/increment", incrementVoucherHandler(deps))
		v1.POST("/cart/vouchers/decrement", decrementVoucherHandler(deps))

		v1.GET("/pricing", pricingStateHandler(deps))
		v1.POST("/pricing/refresh", refreshPricingHandler(deps))

		v1.POST("/checkout", submitHandler(deps))
		v1.POST("/checkout/retry-payment", retryPaymentHandler(deps))

		v1.GET("/orders", listOrdersHandler(deps))
		v1.GET("/orders/:id/notes", listNotesHandler(deps))
		v1.POST("/orders/:id/notes", appendNoteHandler(deps))

		v1.POST("/session/preload", preloadHandler(deps))
		v1.POST("/session/logout", logoutHandler(deps))
	}

	return router
}
