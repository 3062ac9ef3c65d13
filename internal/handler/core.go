package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/service"
	"github.com/lossyrob/arturo-stac-api/internal/stac"
	"github.com/lossyrob/arturo-stac-api/internal/validation"
)

// CoreHandler serves the read side of the catalog: landing page,
// conformance, collections, items, and search.
type CoreHandler struct {
	Handler
	services *service.Services
}

func NewCoreHandler(s *server.Server, services *service.Services) *CoreHandler {
	return &CoreHandler{Handler: NewHandler(s), services: services}
}

// baseURL reconstructs the externally visible URL root for link
// generation. Echo resolves the scheme through X-Forwarded-Proto when
// the service runs behind a proxy.
func baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}

// Landing serves GET /.
func (h *CoreHandler) Landing(c echo.Context) error {
	landing, err := h.services.Stac.LandingPage(c.Request().Context(), baseURL(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, landing)
}

// Conformance serves GET /conformance.
func (h *CoreHandler) Conformance(c echo.Context) error {
	return c.JSON(http.StatusOK, h.services.Stac.Conformance())
}

// ListCollections serves GET /collections.
func (h *CoreHandler) ListCollections(c echo.Context) error {
	collections, err := h.services.Stac.Collections(c.Request().Context(), baseURL(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, collections)
}

// GetCollectionRequest addresses one collection by path.
type GetCollectionRequest struct {
	CollectionID string `param:"collectionId"`
}

func (r *GetCollectionRequest) Validate() error { return nil }

// GetCollection serves GET /collections/:collectionId.
func (h *CoreHandler) GetCollection(c echo.Context, req *GetCollectionRequest) (*stac.Collection, error) {
	return h.services.Stac.GetCollection(c.Request().Context(), baseURL(c), req.CollectionID)
}

// ItemsPageRequest is the GET items paging surface: path collection
// plus limit and pagination token.
type ItemsPageRequest struct {
	CollectionID string `param:"collectionId"`
	Limit        int    `query:"limit"`
	Token        string `query:"token"`
}

func (r *ItemsPageRequest) Validate() error {
	var verrs validation.CustomValidationErrors
	if r.Limit < 0 {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "limit", Message: "must be a positive integer",
		})
	}
	if r.Limit > stac.MaxLimit {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "limit", Message: fmt.Sprintf("must not exceed %d", stac.MaxLimit),
		})
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// ItemsPage serves GET /collections/:collectionId/items.
func (h *CoreHandler) ItemsPage(c echo.Context, req *ItemsPageRequest) (*stac.ItemCollection, error) {
	return h.services.Stac.ItemPage(c.Request().Context(), baseURL(c), req.CollectionID, req.Limit, req.Token)
}

// GetItemRequest addresses one item by path.
type GetItemRequest struct {
	CollectionID string `param:"collectionId"`
	ItemID       string `param:"itemId"`
}

func (r *GetItemRequest) Validate() error { return nil }

// GetItem serves GET /collections/:collectionId/items/:itemId.
func (h *CoreHandler) GetItem(c echo.Context, req *GetItemRequest) (*stac.Item, error) {
	return h.services.Stac.GetItem(c.Request().Context(), baseURL(c), req.CollectionID, req.ItemID)
}

// SearchPost serves POST /search. The request type carries its own
// validation, so it runs through the typed pipeline.
func (h *CoreHandler) SearchPost(c echo.Context, req *stac.SearchRequest) (*stac.ItemCollection, error) {
	return h.services.Stac.Search(c.Request().Context(), baseURL(c), req)
}

// SearchGet serves GET /search. Query parameters are translated into
// the POST body shape inside the service, so both routes share one
// semantics.
func (h *CoreHandler) SearchGet(c echo.Context) error {
	resp, err := h.services.Stac.SearchGet(c.Request().Context(), baseURL(c), c.QueryParams())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
