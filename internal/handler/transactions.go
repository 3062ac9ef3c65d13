package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/middleware"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/service"
	"github.com/lossyrob/arturo-stac-api/internal/stac"
	"github.com/lossyrob/arturo-stac-api/internal/validation"
)

// TransactionsHandler serves the write side of the catalog: collection
// and item CRUD plus the bulk ingestion endpoint.
type TransactionsHandler struct {
	Handler
	services *service.Services
}

func NewTransactionsHandler(s *server.Server, services *service.Services) *TransactionsHandler {
	return &TransactionsHandler{Handler: NewHandler(s), services: services}
}

// CollectionRequest is the POST/PUT /collections body. The id travels
// in the body for both, matching the original API shape.
type CollectionRequest struct {
	stac.Collection
}

func (r *CollectionRequest) Validate() error {
	var verrs validation.CustomValidationErrors
	if r.ID == "" {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "id", Message: "is required",
		})
	}
	if r.Description == "" {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "description", Message: "is required",
		})
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// CreateCollection serves POST /collections.
func (h *TransactionsHandler) CreateCollection(c echo.Context, req *CollectionRequest) (*stac.Collection, error) {
	return h.services.Stac.CreateCollection(c.Request().Context(), baseURL(c), &req.Collection)
}

// UpdateCollection serves PUT /collections.
func (h *TransactionsHandler) UpdateCollection(c echo.Context, req *CollectionRequest) (*stac.Collection, error) {
	return h.services.Stac.UpdateCollection(c.Request().Context(), baseURL(c), &req.Collection)
}

// DeleteCollectionRequest addresses one collection by path.
type DeleteCollectionRequest struct {
	CollectionID string `param:"collectionId" json:"-"`
}

func (r *DeleteCollectionRequest) Validate() error { return nil }

// DeleteCollection serves DELETE /collections/:collectionId. A
// collection that still has items fails with a 409 from the foreign
// key.
func (h *TransactionsHandler) DeleteCollection(c echo.Context, req *DeleteCollectionRequest) error {
	return h.services.Stac.DeleteCollection(c.Request().Context(), req.CollectionID)
}

// ItemRequest is the POST/PUT item body, addressed to a collection by
// path. The body's own collection field is ignored; the path wins.
type ItemRequest struct {
	CollectionID string `param:"collectionId" json:"-"`
	stac.Item
}

func (r *ItemRequest) Validate() error {
	var verrs validation.CustomValidationErrors
	if r.ID == "" {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "id", Message: "is required",
		})
	}
	if len(r.Geometry) == 0 {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "geometry", Message: "is required",
		})
	}
	if r.Datetime() == "" {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "properties.datetime", Message: "is required",
		})
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// CreateItem serves POST /collections/:collectionId/items.
func (h *TransactionsHandler) CreateItem(c echo.Context, req *ItemRequest) (*stac.Item, error) {
	return h.services.Stac.CreateItem(c.Request().Context(), baseURL(c), req.CollectionID, &req.Item)
}

// UpdateItem serves PUT /collections/:collectionId/items.
func (h *TransactionsHandler) UpdateItem(c echo.Context, req *ItemRequest) (*stac.Item, error) {
	return h.services.Stac.UpdateItem(c.Request().Context(), baseURL(c), req.CollectionID, &req.Item)
}

// DeleteItemRequest addresses one item by path.
type DeleteItemRequest struct {
	CollectionID string `param:"collectionId" json:"-"`
	ItemID       string `param:"itemId" json:"-"`
}

func (r *DeleteItemRequest) Validate() error { return nil }

// DeleteItem serves DELETE /collections/:collectionId/items/:itemId.
func (h *TransactionsHandler) DeleteItem(c echo.Context, req *DeleteItemRequest) error {
	return h.services.Stac.DeleteItem(c.Request().Context(), req.CollectionID, req.ItemID)
}

// BulkItemsRequest is the POST bulk_items body.
type BulkItemsRequest struct {
	CollectionID string       `param:"collectionId" json:"-"`
	Items        []*stac.Item `json:"items"`
}

func (r *BulkItemsRequest) Validate() error {
	var verrs validation.CustomValidationErrors
	if len(r.Items) == 0 {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "items", Message: "must not be empty",
		})
	}
	for _, item := range r.Items {
		if item == nil || item.ID == "" {
			verrs = append(verrs, validation.CustomValidationError{
				Field: "items", Message: "every item needs an id",
			})
			break
		}
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// BulkItems serves POST /collections/:collectionId/bulk_items. The
// status depends on the dispatch path (202 queued, 200 written), so
// it binds and validates by hand instead of using the fixed-status
// pipeline.
func (h *TransactionsHandler) BulkItems(c echo.Context) error {
	req := new(BulkItemsRequest)
	if err := validation.BindAndValidate(c, req); err != nil {
		return err
	}

	result, err := h.services.Ingest.Bulk(c.Request().Context(), req.CollectionID, req.Items)
	if err != nil {
		return err
	}

	logger := middleware.GetLogger(c)
	if result.Queued {
		logger.Info().
			Str("collection", req.CollectionID).
			Str("task_id", result.TaskID).
			Msg("bulk ingest accepted")
		return c.JSON(http.StatusAccepted, result)
	}

	logger.Info().
		Str("collection", req.CollectionID).
		Int("written", result.Written).
		Msg("bulk ingest written")
	return c.JSON(http.StatusOK, result)
}
