package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/handler"
	"github.com/lossyrob/arturo-stac-api/internal/middleware"
)

// registerCatalogRoutes maps the catalog API. Reads are open; every
// mutation route additionally passes the rate limiter.
func registerCatalogRoutes(r *echo.Echo, m *middleware.Middlewares, h *handler.Handlers) {
	limited := m.RateLimit.LimitMutations()

	// Core.
	r.GET("/", h.Core.Landing)
	r.GET("/conformance", h.Core.Conformance)
	r.GET("/collections", h.Core.ListCollections)
	r.GET("/collections/:collectionId",
		handler.Handle(h.Core.Handler, h.Core.GetCollection, http.StatusOK))
	r.GET("/collections/:collectionId/items",
		handler.Handle(h.Core.Handler, h.Core.ItemsPage, http.StatusOK))
	r.GET("/collections/:collectionId/items/:itemId",
		handler.Handle(h.Core.Handler, h.Core.GetItem, http.StatusOK))
	r.GET("/search", h.Core.SearchGet)
	r.POST("/search",
		handler.Handle(h.Core.Handler, h.Core.SearchPost, http.StatusOK))

	// Transactions. The collection id travels in the body for the
	// collection routes, in the path for the item routes.
	tx := h.Transactions
	r.POST("/collections",
		handler.Handle(tx.Handler, tx.CreateCollection, http.StatusCreated), limited)
	r.PUT("/collections",
		handler.Handle(tx.Handler, tx.UpdateCollection, http.StatusOK), limited)
	r.DELETE("/collections/:collectionId",
		handler.HandleNoContent(tx.Handler, tx.DeleteCollection, http.StatusNoContent), limited)

	r.POST("/collections/:collectionId/items",
		handler.Handle(tx.Handler, tx.CreateItem, http.StatusCreated), limited)
	r.PUT("/collections/:collectionId/items",
		handler.Handle(tx.Handler, tx.UpdateItem, http.StatusOK), limited)
	r.DELETE("/collections/:collectionId/items/:itemId",
		handler.HandleNoContent(tx.Handler, tx.DeleteItem, http.StatusNoContent), limited)

	r.POST("/collections/:collectionId/bulk_items", tx.BulkItems, limited)
}
