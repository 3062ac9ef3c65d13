package handler

import (
	"encoding/json"
	"testing"

	"github.com/lossyrob/arturo-stac-api/internal/stac"
	"github.com/lossyrob/arturo-stac-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()

	var verrs validation.CustomValidationErrors
	require.ErrorAs(t, err, &verrs)

	names := make([]string, len(verrs))
	for i, verr := range verrs {
		names[i] = verr.Field
	}
	return names
}

func TestCollectionRequestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := &CollectionRequest{Collection: stac.Collection{
			ID:          "joplin",
			Description: "NOAA aerial imagery",
		}}
		assert.NoError(t, req.Validate())
	})

	t.Run("missing fields", func(t *testing.T) {
		err := (&CollectionRequest{}).Validate()
		assert.ElementsMatch(t, []string{"id", "description"}, fieldNames(t, err))
	})
}

func TestItemRequestValidate(t *testing.T) {
	valid := func() *ItemRequest {
		return &ItemRequest{
			CollectionID: "joplin",
			Item: stac.Item{
				ID:         "item-1",
				Geometry:   json.RawMessage(`{"type":"Point","coordinates":[-94.6,37.05]}`),
				Properties: map[string]any{"datetime": "2020-06-01T00:00:00Z"},
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing geometry", func(t *testing.T) {
		req := valid()
		req.Geometry = nil
		assert.Contains(t, fieldNames(t, req.Validate()), "geometry")
	})

	t.Run("missing datetime", func(t *testing.T) {
		req := valid()
		req.Properties = map[string]any{}
		assert.Contains(t, fieldNames(t, req.Validate()), "properties.datetime")
	})
}

func TestBulkItemsRequestValidate(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		err := (&BulkItemsRequest{CollectionID: "joplin"}).Validate()
		assert.Contains(t, fieldNames(t, err), "items")
	})

	t.Run("item without id", func(t *testing.T) {
		err := (&BulkItemsRequest{
			CollectionID: "joplin",
			Items:        []*stac.Item{{ID: ""}},
		}).Validate()
		assert.Contains(t, fieldNames(t, err), "items")
	})

	t.Run("valid batch", func(t *testing.T) {
		err := (&BulkItemsRequest{
			CollectionID: "joplin",
			Items:        []*stac.Item{{ID: "item-1"}},
		}).Validate()
		assert.NoError(t, err)
	})
}
