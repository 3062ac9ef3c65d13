package repository

import (
	"testing"
	"time"

	"github.com/lossyrob/arturo-stac-api/internal/stac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveSort(t *testing.T) {
	t.Run("default is datetime desc with tiebreakers", func(t *testing.T) {
		sort := effectiveSort(&stac.SearchRequest{})

		require.Len(t, sort, 3)
		assert.Equal(t, stac.SortSpec{Field: "datetime", Direction: stac.SortDesc}, sort[0])
		assert.Equal(t, stac.SortSpec{Field: "id", Direction: stac.SortAsc}, sort[1])
		assert.Equal(t, stac.SortSpec{Field: "collection", Direction: stac.SortAsc}, sort[2])
	})

	t.Run("requested sort keeps its order", func(t *testing.T) {
		sort := effectiveSort(&stac.SearchRequest{
			SortBy: []stac.SortSpec{{Field: "id", Direction: stac.SortDesc}},
		})

		require.Len(t, sort, 2)
		assert.Equal(t, stac.SortSpec{Field: "id", Direction: stac.SortDesc}, sort[0])
		assert.Equal(t, stac.SortSpec{Field: "collection", Direction: stac.SortAsc}, sort[1])
	})

	t.Run("no duplicate tiebreakers", func(t *testing.T) {
		sort := effectiveSort(&stac.SearchRequest{
			SortBy: []stac.SortSpec{
				{Field: "collection", Direction: stac.SortAsc},
				{Field: "datetime", Direction: stac.SortAsc},
			},
		})

		require.Len(t, sort, 3)
		assert.Equal(t, "collection", sort[0].Field)
		assert.Equal(t, "datetime", sort[1].Field)
		assert.Equal(t, "id", sort[2].Field)
	})

	t.Run("ids search always orders by id", func(t *testing.T) {
		sort := effectiveSort(&stac.SearchRequest{
			IDs:    []string{"a", "b"},
			SortBy: []stac.SortSpec{{Field: "datetime", Direction: stac.SortDesc}},
		})

		require.Len(t, sort, 2)
		assert.Equal(t, stac.SortSpec{Field: "id", Direction: stac.SortAsc}, sort[0])
		assert.Equal(t, stac.SortSpec{Field: "collection", Direction: stac.SortAsc}, sort[1])
	})
}

func TestBuildSearchSQL(t *testing.T) {
	t.Run("unfiltered search", func(t *testing.T) {
		req := &stac.SearchRequest{Limit: 10}
		countSQL, pageSQL, args := buildSearchSQL(req, nil, effectiveSort(req))

		assert.Equal(t, "SELECT count(*) FROM items", countSQL)
		assert.Contains(t, pageSQL, "ORDER BY datetime DESC, id ASC, collection_id ASC")
		assert.Contains(t, pageSQL, "LIMIT $1")
		require.Len(t, args, 1)
		assert.Equal(t, 11, args[0]) // limit+1 detects the next page
	})

	t.Run("collection filter", func(t *testing.T) {
		req := &stac.SearchRequest{Collections: []string{"joplin"}, Limit: 10}
		countSQL, pageSQL, args := buildSearchSQL(req, nil, effectiveSort(req))

		assert.Contains(t, countSQL, "collection_id = ANY($1)")
		assert.Contains(t, pageSQL, "collection_id = ANY($1)")
		assert.Equal(t, []string{"joplin"}, args[0])
	})

	t.Run("ids short-circuit other filters", func(t *testing.T) {
		req := &stac.SearchRequest{
			IDs:      []string{"a"},
			Bbox:     []float64{0, 0, 1, 1},
			Datetime: "2020-01-01T00:00:00Z/..",
			Limit:    10,
		}
		countSQL, _, _ := buildSearchSQL(req, nil, effectiveSort(req))

		assert.Contains(t, countSQL, "id = ANY($1)")
		assert.NotContains(t, countSQL, "ST_Intersects")
		assert.NotContains(t, countSQL, "datetime")
	})

	t.Run("bbox renders an envelope intersection", func(t *testing.T) {
		req := &stac.SearchRequest{Bbox: []float64{-94.7, 37.0, -94.4, 37.1}, Limit: 10}
		countSQL, _, args := buildSearchSQL(req, nil, effectiveSort(req))

		assert.Contains(t, countSQL, "ST_Intersects(geometry, ST_MakeEnvelope($1, $2, $3, $4, 4326))")
		assert.Equal(t, -94.7, args[0])
		assert.Equal(t, 37.1, args[3])
	})

	t.Run("6-value bbox drops the elevation bounds", func(t *testing.T) {
		req := &stac.SearchRequest{Bbox: []float64{-94.7, 37.0, 100, -94.4, 37.1, 200}, Limit: 10}
		_, _, args := buildSearchSQL(req, nil, effectiveSort(req))

		assert.Equal(t, []any{-94.7, 37.0, -94.4, 37.1, 11}, args)
	})

	t.Run("intersects renders a geometry intersection", func(t *testing.T) {
		req := &stac.SearchRequest{
			Intersects: []byte(`{"type":"Point","coordinates":[-94.6,37.05]}`),
			Limit:      10,
		}
		countSQL, _, args := buildSearchSQL(req, nil, effectiveSort(req))

		assert.Contains(t, countSQL, "ST_SetSRID(ST_GeomFromGeoJSON($1), 4326)")
		assert.JSONEq(t, `{"type":"Point","coordinates":[-94.6,37.05]}`, args[0].(string))
	})

	t.Run("datetime interval bounds the mirrored column", func(t *testing.T) {
		req := &stac.SearchRequest{Datetime: "2020-01-01T00:00:00Z/2020-12-31T00:00:00Z", Limit: 10}
		countSQL, _, args := buildSearchSQL(req, nil, effectiveSort(req))

		assert.Contains(t, countSQL, "datetime >= $1")
		assert.Contains(t, countSQL, "datetime <= $2")
		require.Len(t, args, 3)
	})

	t.Run("query extension numeric operand", func(t *testing.T) {
		req := &stac.SearchRequest{
			Query: map[string]map[string]any{"gsd": {"lte": 0.5}},
			Limit: 10,
		}
		countSQL, _, args := buildSearchSQL(req, nil, effectiveSort(req))

		assert.Contains(t, countSQL, "(properties->>$1)::numeric <= $2")
		assert.Equal(t, "gsd", args[0])
		assert.Equal(t, 0.5, args[1])
	})

	t.Run("query extension on datetime uses the column", func(t *testing.T) {
		req := &stac.SearchRequest{
			Query: map[string]map[string]any{"datetime": {"gt": "2020-06-01T00:00:00Z"}},
			Limit: 10,
		}
		countSQL, _, _ := buildSearchSQL(req, nil, effectiveSort(req))

		assert.Contains(t, countSQL, "datetime > $1::timestamptz")
	})

	t.Run("keyset predicate only applies to the page query", func(t *testing.T) {
		req := &stac.SearchRequest{Limit: 10}
		sort := effectiveSort(req)
		ks := &Keyset{
			Sort:   sort,
			Values: []string{"2020-06-01T00:00:00Z", "item-5", "joplin"},
		}
		countSQL, pageSQL, args := buildSearchSQL(req, ks, sort)

		assert.Equal(t, "SELECT count(*) FROM items", countSQL)
		assert.Contains(t, pageSQL, "(datetime < $1::timestamptz)")
		assert.Contains(t, pageSQL, "(datetime = $2::timestamptz AND id > $3)")
		assert.Contains(t, pageSQL, "(datetime = $4::timestamptz AND id = $5 AND collection_id > $6)")
		assert.Len(t, args, 7)
	})
}

func TestApplyKeysetBackward(t *testing.T) {
	sort := []stac.SortSpec{
		{Field: "datetime", Direction: stac.SortDesc},
		{Field: "id", Direction: stac.SortAsc},
	}
	b := &queryBuilder{}
	applyKeyset(b, &Keyset{
		Sort:     sort,
		Values:   []string{"2020-06-01T00:00:00Z", "item-5"},
		Backward: true,
	})

	// Walking backward flips every comparator.
	require.Len(t, b.where, 1)
	assert.Contains(t, b.where[0], "datetime > $1::timestamptz")
	assert.Contains(t, b.where[0], "id < $3")
}

func TestOrderByClause(t *testing.T) {
	sort := []stac.SortSpec{
		{Field: "datetime", Direction: stac.SortDesc},
		{Field: "id", Direction: stac.SortAsc},
	}

	assert.Equal(t, " ORDER BY datetime DESC, id ASC", orderByClause(sort, false))
	assert.Equal(t, " ORDER BY datetime ASC, id DESC", orderByClause(sort, true))
}

func TestCountArgCount(t *testing.T) {
	req := &stac.SearchRequest{
		Collections: []string{"joplin"},
		Bbox:        []float64{0, 0, 1, 1},
		Limit:       10,
	}
	sort := effectiveSort(req)
	_, _, args := buildSearchSQL(req, &Keyset{
		Sort:   sort,
		Values: []string{"2020-06-01T00:00:00Z", "item-5", "joplin"},
	}, sort)

	// Filter args, then keyset args, then the limit.
	assert.Equal(t, 5, countArgCount(req))
	assert.Len(t, args, 5+6+1)
}

func TestSortValues(t *testing.T) {
	item := &stac.Item{ID: "item-1", Collection: "joplin"}
	dt := time.Date(2020, 6, 1, 12, 30, 0, 0, time.UTC)

	values := sortValues([]stac.SortSpec{
		{Field: "datetime"},
		{Field: "id"},
		{Field: "collection"},
	}, item, dt)

	assert.Equal(t, []string{"2020-06-01T12:30:00Z", "item-1", "joplin"}, values)
}
