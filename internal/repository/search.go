package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lossyrob/arturo-stac-api/internal/sqlerr"
	"github.com/lossyrob/arturo-stac-api/internal/stac"
)

// sortColumns maps the sortable fields onto their columns. Every
// entry is backed by an index; the search grammar rejects anything
// else before it reaches this package.
var sortColumns = map[string]string{
	"datetime":   "datetime",
	"id":         "id",
	"collection": "collection_id",
}

// queryBuilder accumulates WHERE conditions with positional args.
type queryBuilder struct {
	where []string
	args  []any
}

// arg registers a value and returns its placeholder.
func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) cond(c string) {
	b.where = append(b.where, c)
}

func (b *queryBuilder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

// effectiveSort resolves the ordering a search runs under: the
// requested sort (or the default datetime DESC) with id and
// collection appended as tiebreakers, so the total order is strict
// and keysets identify exactly one position.
//
// When ids are given, results are ordered by id alone (plus the
// collection tiebreaker) and other sorts are ignored.
func effectiveSort(req *stac.SearchRequest) []stac.SortSpec {
	if len(req.IDs) > 0 {
		return []stac.SortSpec{
			{Field: "id", Direction: stac.SortAsc},
			{Field: "collection", Direction: stac.SortAsc},
		}
	}

	var sort []stac.SortSpec
	if len(req.SortBy) == 0 {
		sort = []stac.SortSpec{{Field: "datetime", Direction: stac.SortDesc}}
	} else {
		sort = append(sort, req.SortBy...)
	}

	seen := map[string]bool{}
	for _, s := range sort {
		seen[s.Field] = true
	}
	for _, tiebreak := range []string{"id", "collection"} {
		if !seen[tiebreak] {
			sort = append(sort, stac.SortSpec{Field: tiebreak, Direction: stac.SortAsc})
		}
	}
	return sort
}

// applyFilters translates the request's filters into WHERE conditions.
// When ids are present every other filter except the collection filter
// is ignored.
func applyFilters(b *queryBuilder, req *stac.SearchRequest) {
	if len(req.Collections) > 0 {
		b.cond(fmt.Sprintf("collection_id = ANY(%s)", b.arg(req.Collections)))
	}

	if len(req.IDs) > 0 {
		b.cond(fmt.Sprintf("id = ANY(%s)", b.arg(req.IDs)))
		return
	}

	if len(req.Bbox) == 4 || len(req.Bbox) == 6 {
		// A 6-value bbox carries elevation bounds at indexes 2 and 5;
		// the planar intersection ignores them.
		bbox := req.Bbox
		if len(bbox) == 6 {
			bbox = []float64{bbox[0], bbox[1], bbox[3], bbox[4]}
		}
		b.cond(fmt.Sprintf(
			"ST_Intersects(geometry, ST_MakeEnvelope(%s, %s, %s, %s, 4326))",
			b.arg(bbox[0]), b.arg(bbox[1]), b.arg(bbox[2]), b.arg(bbox[3])))
	}

	if len(req.Intersects) > 0 {
		b.cond(fmt.Sprintf(
			"ST_Intersects(geometry, ST_SetSRID(ST_GeomFromGeoJSON(%s), 4326))",
			b.arg(string(req.Intersects))))
	}

	interval := req.Interval()
	if interval.Start != nil {
		b.cond(fmt.Sprintf("datetime >= %s", b.arg(*interval.Start)))
	}
	if interval.End != nil {
		b.cond(fmt.Sprintf("datetime <= %s", b.arg(*interval.End)))
	}

	applyQueryFilters(b, req.Query)
}

// queryOpSQL maps query-extension operators onto SQL comparators.
var queryOpSQL = map[string]string{
	"eq":  "=",
	"ne":  "<>",
	"neq": "<>",
	"lt":  "<",
	"lte": "<=",
	"gt":  ">",
	"gte": ">=",
}

// applyQueryFilters renders the query extension's property operators.
// datetime compares against its mirrored column; everything else
// reads from the properties document, cast to numeric when the
// operand is a number.
func applyQueryFilters(b *queryBuilder, query map[string]map[string]any) {
	for field, expr := range query {
		for op, value := range expr {
			sqlOp, ok := queryOpSQL[op]
			if !ok {
				continue
			}

			if field == "datetime" {
				b.cond(fmt.Sprintf("datetime %s %s::timestamptz", sqlOp, b.arg(fmt.Sprintf("%v", value))))
				continue
			}

			if num, isNum := value.(float64); isNum {
				b.cond(fmt.Sprintf("(properties->>%s)::numeric %s %s", b.arg(field), sqlOp, b.arg(num)))
			} else {
				b.cond(fmt.Sprintf("properties->>%s %s %s", b.arg(field), sqlOp, b.arg(fmt.Sprintf("%v", value))))
			}
		}
	}
}

// applyKeyset renders the resume predicate for a keyset: rows strictly
// past the boundary in the traversal direction. Mixed sort directions
// rule out tuple comparison, so the predicate expands to the standard
// nested form:
//
//	(c1 > v1) OR (c1 = v1 AND c2 > v2) OR ...
//
// with each comparator flipped per-column for DESC, and flipped again
// wholesale when walking backward.
func applyKeyset(b *queryBuilder, ks *Keyset) {
	var branches []string
	for i := range ks.Sort {
		var parts []string
		for j := 0; j < i; j++ {
			parts = append(parts, fmt.Sprintf("%s = %s",
				sortColumns[ks.Sort[j].Field], keysetArg(b, ks.Sort[j].Field, ks.Values[j])))
		}

		forward := ks.Sort[i].Direction != stac.SortDesc
		if ks.Backward {
			forward = !forward
		}
		cmp := "<"
		if forward {
			cmp = ">"
		}

		parts = append(parts, fmt.Sprintf("%s %s %s",
			sortColumns[ks.Sort[i].Field], cmp, keysetArg(b, ks.Sort[i].Field, ks.Values[i])))
		branches = append(branches, "("+strings.Join(parts, " AND ")+")")
	}
	b.cond("(" + strings.Join(branches, " OR ") + ")")
}

// keysetArg registers a boundary value, casting timestamps explicitly
// since they travel as text.
func keysetArg(b *queryBuilder, field, value string) string {
	placeholder := b.arg(value)
	if field == "datetime" {
		return placeholder + "::timestamptz"
	}
	return placeholder
}

// orderByClause renders the ORDER BY for a sort, reversed when
// walking backward; the page is flipped back after scanning.
func orderByClause(sort []stac.SortSpec, backward bool) string {
	terms := make([]string, 0, len(sort))
	for _, s := range sort {
		dir := "ASC"
		if (s.Direction == stac.SortDesc) != backward {
			dir = "DESC"
		}
		terms = append(terms, sortColumns[s.Field]+" "+dir)
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// buildSearchSQL produces the count and page statements for a search.
// Both share the filter conditions; the page statement adds the
// keyset predicate, ordering, and limit+1 (the extra row detects
// whether another page exists).
func buildSearchSQL(req *stac.SearchRequest, ks *Keyset, sort []stac.SortSpec) (countSQL string, pageSQL string, args []any) {
	b := &queryBuilder{}
	applyFilters(b, req)
	countSQL = "SELECT count(*) FROM items" + b.whereClause()

	if ks != nil {
		applyKeyset(b, ks)
	}
	backward := ks != nil && ks.Backward
	pageSQL = "SELECT " + itemColumns + ", datetime FROM items" +
		b.whereClause() +
		orderByClause(sort, backward) +
		fmt.Sprintf(" LIMIT %s", b.arg(req.Limit+1))

	return countSQL, pageSQL, b.args
}

// Search runs a catalog search and returns one page plus the keysets
// to continue from. A non-nil keyset resumes a previous page; its
// recorded sort overrides the request's, since a token is only
// meaningful under the ordering it was minted with.
func (r *ItemsRepository) Search(ctx context.Context, req *stac.SearchRequest, ks *Keyset) (*SearchPage, error) {
	sort := effectiveSort(req)
	if ks != nil && len(ks.Sort) > 0 {
		sort = ks.Sort
	}

	countSQL, pageSQL, args := buildSearchSQL(req, ks, sort)

	// Filter args come first in the shared arg list, so the count
	// query takes a prefix of them; pgx only sends what the statement
	// references, but slicing keeps the call exact.
	page := &SearchPage{}
	if len(req.IDs) > 0 {
		// Mirrors the original behavior: an ids search reports the
		// requested id count without a round trip.
		page.Matched = int64(len(req.IDs))
	} else {
		countArgs := args[:countArgCount(req)]
		if err := r.server.DB.Reader.QueryRow(ctx, countSQL, countArgs...).Scan(&page.Matched); err != nil {
			return nil, sqlerr.HandleError(err)
		}
	}

	rows, err := r.server.DB.Reader.Query(ctx, pageSQL, args...)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	defer rows.Close()

	type scanned struct {
		item   *stac.Item
		values []string
	}
	var results []scanned
	for rows.Next() {
		var (
			item     stac.Item
			geometry string
			datetime time.Time
		)
		err := rows.Scan(
			&item.Collection,
			&item.ID,
			&item.StacVersion,
			&item.StacExtensions,
			&geometry,
			&item.Bbox,
			&item.Properties,
			&item.Assets,
			&datetime,
		)
		if err != nil {
			return nil, sqlerr.HandleError(err)
		}
		item.Type = "Feature"
		item.Geometry = []byte(geometry)
		results = append(results, scanned{
			item:   &item,
			values: sortValues(sort, &item, datetime),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, sqlerr.HandleError(err)
	}

	backward := ks != nil && ks.Backward
	hasMore := len(results) > req.Limit
	if hasMore {
		results = results[:req.Limit]
	}
	if backward {
		// The backward query walked away from the boundary; flip the
		// page back into serving order.
		for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
			results[i], results[j] = results[j], results[i]
		}
	}

	page.Items = make([]*stac.Item, len(results))
	for i, res := range results {
		page.Items[i] = res.item
	}

	if len(results) > 0 {
		first, last := results[0], results[len(results)-1]
		switch {
		case backward:
			// Coming back from a later page: a next page always
			// exists (it is where the token came from); an earlier
			// page exists only if the query saw rows past this page.
			page.Next = &Keyset{Sort: sort, Values: last.values}
			if hasMore {
				page.Previous = &Keyset{Sort: sort, Values: first.values, Backward: true}
			}
		default:
			if hasMore {
				page.Next = &Keyset{Sort: sort, Values: last.values}
			}
			// Any forward page reached through a token has pages
			// before it.
			if ks != nil {
				page.Previous = &Keyset{Sort: sort, Values: first.values, Backward: true}
			}
		}
	}

	return page, nil
}

// countArgCount reports how many args the filter conditions consumed,
// which is the prefix of the shared arg list the count query uses.
func countArgCount(req *stac.SearchRequest) int {
	b := &queryBuilder{}
	applyFilters(b, req)
	return len(b.args)
}

// sortValues captures an item's boundary values for a keyset, in sort
// order.
func sortValues(sort []stac.SortSpec, item *stac.Item, datetime time.Time) []string {
	values := make([]string, len(sort))
	for i, s := range sort {
		switch s.Field {
		case "datetime":
			values[i] = datetime.UTC().Format(time.RFC3339Nano)
		case "collection":
			values[i] = item.Collection
		default:
			values[i] = item.ID
		}
	}
	return values
}
