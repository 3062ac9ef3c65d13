package stac

import (
	"net/url"
	"testing"
	"time"

	"github.com/lossyrob/arturo-stac-api/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestParseDatetimeInterval(t *testing.T) {
	t.Run("closed interval", func(t *testing.T) {
		interval, err := ParseDatetimeInterval("2020-01-01T00:00:00Z/2020-12-31T00:00:00Z")
		require.NoError(t, err)
		require.NotNil(t, interval.Start)
		require.NotNil(t, interval.End)
		assert.Equal(t, mustTime(t, "2020-01-01T00:00:00Z"), *interval.Start)
		assert.Equal(t, mustTime(t, "2020-12-31T00:00:00Z"), *interval.End)
	})

	t.Run("open start", func(t *testing.T) {
		interval, err := ParseDatetimeInterval("../2020-02-16T00:00:00Z")
		require.NoError(t, err)
		assert.Nil(t, interval.Start)
		require.NotNil(t, interval.End)
	})

	t.Run("open end", func(t *testing.T) {
		interval, err := ParseDatetimeInterval("2020-02-16T00:00:00Z/..")
		require.NoError(t, err)
		require.NotNil(t, interval.Start)
		assert.Nil(t, interval.End)
	})

	t.Run("bare instant bounds the end", func(t *testing.T) {
		interval, err := ParseDatetimeInterval("2020-02-16T00:00:00Z")
		require.NoError(t, err)
		assert.Nil(t, interval.Start)
		require.NotNil(t, interval.End)
		assert.Equal(t, mustTime(t, "2020-02-16T00:00:00Z"), *interval.End)
	})

	t.Run("fully open", func(t *testing.T) {
		interval, err := ParseDatetimeInterval("../..")
		require.NoError(t, err)
		assert.True(t, interval.IsZero())
	})

	t.Run("empty", func(t *testing.T) {
		interval, err := ParseDatetimeInterval("")
		require.NoError(t, err)
		assert.True(t, interval.IsZero())
	})

	t.Run("malformed instant", func(t *testing.T) {
		_, err := ParseDatetimeInterval("yesterday")
		assert.Error(t, err)
	})

	t.Run("too many parts", func(t *testing.T) {
		_, err := ParseDatetimeInterval("2020-01-01T00:00:00Z/2020-02-01T00:00:00Z/2020-03-01T00:00:00Z")
		assert.Error(t, err)
	})
}

func TestSearchRequestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := &SearchRequest{
			Collections: []string{"joplin"},
			Bbox:        []float64{-94.7, 37.0, -94.3, 37.2},
			Datetime:    "../2020-02-16T00:00:00Z",
			Limit:       50,
			Query:       map[string]map[string]any{"gsd": {"lte": 0.6}},
			SortBy:      []SortSpec{{Field: "datetime", Direction: SortDesc}},
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("bad bbox length", func(t *testing.T) {
		req := &SearchRequest{Bbox: []float64{0, 0, 1}}
		err := req.Validate()
		var verrs validation.CustomValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "bbox", verrs[0].Field)
	})

	t.Run("bbox and intersects are exclusive", func(t *testing.T) {
		req := &SearchRequest{
			Bbox:       []float64{0, 0, 1, 1},
			Intersects: []byte(`{"type":"Point","coordinates":[0,0]}`),
		}
		err := req.Validate()
		var verrs validation.CustomValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "intersects", verrs[0].Field)
	})

	t.Run("unknown sort field", func(t *testing.T) {
		req := &SearchRequest{SortBy: []SortSpec{{Field: "properties.gsd"}}}
		assert.Error(t, req.Validate())
	})

	t.Run("unknown query operator", func(t *testing.T) {
		req := &SearchRequest{Query: map[string]map[string]any{"gsd": {"like": "x"}}}
		assert.Error(t, req.Validate())
	})

	t.Run("limit bounds", func(t *testing.T) {
		assert.Error(t, (&SearchRequest{Limit: -1}).Validate())
		assert.Error(t, (&SearchRequest{Limit: MaxLimit + 1}).Validate())
		assert.NoError(t, (&SearchRequest{Limit: MaxLimit}).Validate())
	})

	t.Run("bad datetime", func(t *testing.T) {
		assert.Error(t, (&SearchRequest{Datetime: "not-a-date"}).Validate())
	})
}

func TestSearchRequestApplyDefaults(t *testing.T) {
	req := &SearchRequest{SortBy: []SortSpec{{Field: "id"}}}
	req.ApplyDefaults()

	assert.Equal(t, DefaultLimit, req.Limit)
	assert.Equal(t, SortAsc, req.SortBy[0].Direction)

	req = &SearchRequest{Limit: 42}
	req.ApplyDefaults()
	assert.Equal(t, 42, req.Limit)
}

func TestNewSearchFromParams(t *testing.T) {
	t.Run("full parameter set", func(t *testing.T) {
		params := url.Values{}
		params.Set("collections", "joplin,other")
		params.Set("ids", "a,b")
		params.Set("bbox", "-94.7,37.0,-94.3,37.2")
		params.Set("datetime", "2000-01-01T00:00:00Z/..")
		params.Set("limit", "5")
		params.Set("token", "tok")
		params.Set("query", `{"gsd":{"eq":0.6}}`)
		params.Set("sortby", "-datetime,+id")
		params.Set("fields", "id,-links")

		req, err := NewSearchFromParams(params)
		require.NoError(t, err)

		assert.Equal(t, []string{"joplin", "other"}, req.Collections)
		assert.Equal(t, []string{"a", "b"}, req.IDs)
		assert.Equal(t, []float64{-94.7, 37.0, -94.3, 37.2}, req.Bbox)
		assert.Equal(t, 5, req.Limit)
		assert.Equal(t, "tok", req.Token)
		require.Contains(t, req.Query, "gsd")
		require.Len(t, req.SortBy, 2)
		assert.Equal(t, SortSpec{Field: "datetime", Direction: SortDesc}, req.SortBy[0])
		assert.Equal(t, SortSpec{Field: "id", Direction: SortAsc}, req.SortBy[1])
		assert.Equal(t, []string{"id"}, req.Fields.Include)
		assert.Equal(t, []string{"links"}, req.Fields.Exclude)
	})

	t.Run("bad values become field errors", func(t *testing.T) {
		params := url.Values{}
		params.Set("bbox", "a,b,c,d")
		params.Set("limit", "ten")
		params.Set("query", "not-json")

		_, err := NewSearchFromParams(params)
		var verrs validation.CustomValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Len(t, verrs, 3)
	})
}

func TestFieldsFilterApply(t *testing.T) {
	feature := map[string]any{
		"id":         "x",
		"geometry":   map[string]any{"type": "Point"},
		"properties": map[string]any{"datetime": "2020-02-16T00:00:00Z"},
		"links":      []any{},
	}

	t.Run("include keeps only listed keys", func(t *testing.T) {
		filter := &FieldsFilter{Include: []string{"id", "properties"}}
		out := filter.Apply(feature)
		assert.Len(t, out, 2)
		assert.Contains(t, out, "id")
		assert.Contains(t, out, "properties")
	})

	t.Run("exclude removes listed keys", func(t *testing.T) {
		filter := &FieldsFilter{Exclude: []string{"links"}}
		out := filter.Apply(feature)
		assert.NotContains(t, out, "links")
		assert.Contains(t, out, "geometry")
		// The original map is untouched.
		assert.Contains(t, feature, "links")
	})

	t.Run("include then exclude", func(t *testing.T) {
		filter := &FieldsFilter{Include: []string{"id", "links"}, Exclude: []string{"links"}}
		out := filter.Apply(feature)
		assert.Equal(t, map[string]any{"id": "x"}, out)
	})

	t.Run("zero filter is a no-op", func(t *testing.T) {
		var filter *FieldsFilter
		assert.True(t, filter.IsZero())
		out := (&FieldsFilter{}).Apply(feature)
		assert.Len(t, out, len(feature))
	})
}

func TestAggregateBbox(t *testing.T) {
	items := []*Item{
		{Bbox: []float64{-94.7, 37.0, -94.5, 37.1}},
		{Bbox: []float64{-94.6, 36.9, -94.3, 37.2}},
	}
	assert.Equal(t, []float64{-94.7, 36.9, -94.3, 37.2}, AggregateBbox(items))
	assert.Nil(t, AggregateBbox(nil))
	assert.Nil(t, AggregateBbox([]*Item{{Bbox: nil}}))
}
