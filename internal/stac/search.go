package stac

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lossyrob/arturo-stac-api/internal/validation"
)

// Search limits. DefaultLimit applies when a request carries none.
const (
	DefaultLimit = 10
	MaxLimit     = 10000
)

// SortDirection is "asc" or "desc".
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec is one requested sort field.
type SortSpec struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// sortableFields are the only fields sorting is allowed on; each is
// backed by an index.
var sortableFields = map[string]bool{
	"datetime":   true,
	"id":         true,
	"collection": true,
}

// queryOps are the property comparison operators the query extension
// accepts. "ne" and "neq" are synonyms.
var queryOps = map[string]bool{
	"eq":  true,
	"ne":  true,
	"neq": true,
	"lt":  true,
	"lte": true,
	"gt":  true,
	"gte": true,
}

// FieldsFilter trims the serialized items of a search response down to
// (or without) the named top-level keys.
type FieldsFilter struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// IsZero reports whether the filter would change nothing.
func (f *FieldsFilter) IsZero() bool {
	return f == nil || (len(f.Include) == 0 && len(f.Exclude) == 0)
}

// Apply reshapes one serialized feature. Include wins when both sets are
// given: the feature is cut down to the included keys, then excludes are
// removed. The input map is not modified.
func (f *FieldsFilter) Apply(feature map[string]any) map[string]any {
	if f.IsZero() {
		return feature
	}

	out := make(map[string]any, len(feature))
	if len(f.Include) > 0 {
		for _, key := range f.Include {
			if v, ok := feature[key]; ok {
				out[key] = v
			}
		}
	} else {
		for k, v := range feature {
			out[k] = v
		}
	}

	for _, key := range f.Exclude {
		delete(out, key)
	}

	return out
}

// DatetimeInterval is a half-open or closed time range. A nil bound
// means the range is open on that side.
type DatetimeInterval struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether the interval constrains nothing.
func (d DatetimeInterval) IsZero() bool {
	return d.Start == nil && d.End == nil
}

// ParseDatetimeInterval parses the search datetime parameter: either an
// RFC 3339 instant or an interval "start/end" where either side may be
// ".." (or empty) for open. A bare instant is treated as an end bound.
func ParseDatetimeInterval(value string) (DatetimeInterval, error) {
	var interval DatetimeInterval
	if value == "" {
		return interval, nil
	}

	parts := []string{"..", value}
	if strings.Contains(value, "/") {
		parts = strings.Split(value, "/")
		if len(parts) != 2 {
			return interval, fmt.Errorf("interval must have exactly two parts: %q", value)
		}
	}

	parse := func(s string) (*time.Time, error) {
		if s == ".." || s == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid datetime %q", s)
		}
		return &t, nil
	}

	var err error
	if interval.Start, err = parse(parts[0]); err != nil {
		return DatetimeInterval{}, err
	}
	if interval.End, err = parse(parts[1]); err != nil {
		return DatetimeInterval{}, err
	}
	return interval, nil
}

// SearchRequest is the POST /search body. GET /search is parsed into the
// same shape and handled identically.
type SearchRequest struct {
	Collections []string                  `json:"collections,omitempty"`
	IDs         []string                  `json:"ids,omitempty"`
	Bbox        []float64                 `json:"bbox,omitempty"`
	Intersects  json.RawMessage           `json:"intersects,omitempty"`
	Datetime    string                    `json:"datetime,omitempty"`
	Limit       int                       `json:"limit,omitempty"`
	Token       string                    `json:"token,omitempty"`
	Query       map[string]map[string]any `json:"query,omitempty"`
	SortBy      []SortSpec                `json:"sortby,omitempty"`
	Fields      *FieldsFilter             `json:"fields,omitempty"`
}

// ApplyDefaults fills the limit and normalizes sort directions. Call it
// after validation, before the request reaches the repository.
func (r *SearchRequest) ApplyDefaults() {
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
	for i := range r.SortBy {
		if r.SortBy[i].Direction == "" {
			r.SortBy[i].Direction = SortAsc
		}
	}
}

// Validate checks every parameter the search grammar constrains and
// reports all violations at once as field errors.
func (r *SearchRequest) Validate() error {
	var verrs validation.CustomValidationErrors

	if r.Limit < 0 {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "limit", Message: "must be a positive integer",
		})
	}
	if r.Limit > MaxLimit {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "limit", Message: fmt.Sprintf("must not exceed %d", MaxLimit),
		})
	}

	if n := len(r.Bbox); n != 0 && n != 4 && n != 6 {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "bbox", Message: "must have 4 or 6 values",
		})
	}
	if len(r.Bbox) > 0 && len(r.Intersects) > 0 {
		verrs = append(verrs, validation.CustomValidationError{
			Field: "intersects", Message: "bbox and intersects are mutually exclusive",
		})
	}

	if r.Datetime != "" {
		if _, err := ParseDatetimeInterval(r.Datetime); err != nil {
			verrs = append(verrs, validation.CustomValidationError{
				Field: "datetime", Message: err.Error(),
			})
		}
	}

	for _, sort := range r.SortBy {
		if !sortableFields[sort.Field] {
			verrs = append(verrs, validation.CustomValidationError{
				Field: "sortby", Message: fmt.Sprintf("cannot sort by %q", sort.Field),
			})
		}
		if sort.Direction != "" && sort.Direction != SortAsc && sort.Direction != SortDesc {
			verrs = append(verrs, validation.CustomValidationError{
				Field: "sortby", Message: fmt.Sprintf("invalid direction %q", sort.Direction),
			})
		}
	}

	for field, expr := range r.Query {
		for op := range expr {
			if !queryOps[op] {
				verrs = append(verrs, validation.CustomValidationError{
					Field: "query", Message: fmt.Sprintf("unsupported operator %q on %q", op, field),
				})
			}
		}
	}

	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// Interval reports the parsed datetime bound. Validate first; a request
// that passed validation cannot fail here.
func (r *SearchRequest) Interval() DatetimeInterval {
	interval, _ := ParseDatetimeInterval(r.Datetime)
	return interval
}

// NewSearchFromParams translates GET /search query parameters into the
// POST body shape. List parameters accept comma-separated values;
// sortby and fields additionally accept "+"/"-" prefixes for direction
// and include/exclude.
func NewSearchFromParams(params url.Values) (*SearchRequest, error) {
	var verrs validation.CustomValidationErrors
	req := &SearchRequest{
		Datetime: params.Get("datetime"),
		Token:    params.Get("token"),
	}

	if v := params.Get("collections"); v != "" {
		req.Collections = splitList(v)
	}
	if v := params.Get("ids"); v != "" {
		req.IDs = splitList(v)
	}

	if v := params.Get("bbox"); v != "" {
		bbox, err := ParseBboxParam(v)
		if err != nil {
			verrs = append(verrs, validation.CustomValidationError{
				Field: "bbox", Message: err.Error(),
			})
		}
		req.Bbox = bbox
	}

	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			verrs = append(verrs, validation.CustomValidationError{
				Field: "limit", Message: "must be an integer",
			})
		}
		req.Limit = limit
	}

	if v := params.Get("query"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Query); err != nil {
			verrs = append(verrs, validation.CustomValidationError{
				Field: "query", Message: "must be a JSON object",
			})
		}
	}

	if sortby := flattenParam(params["sortby"]); len(sortby) > 0 {
		req.SortBy = ParseSortParam(sortby)
	}
	if fields := flattenParam(params["fields"]); len(fields) > 0 {
		req.Fields = ParseFieldsParam(fields)
	}

	if len(verrs) > 0 {
		return nil, verrs
	}
	return req, nil
}

// ParseBboxParam parses a comma-separated bbox.
func ParseBboxParam(value string) ([]float64, error) {
	parts := splitList(value)
	bbox := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", part)
		}
		bbox = append(bbox, f)
	}
	return bbox, nil
}

// ParseSortParam parses "+field"/"-field" sort values. An unprefixed
// field sorts ascending.
func ParseSortParam(values []string) []SortSpec {
	sorts := make([]SortSpec, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		switch v[0] {
		case '-':
			sorts = append(sorts, SortSpec{Field: v[1:], Direction: SortDesc})
		case '+':
			sorts = append(sorts, SortSpec{Field: v[1:], Direction: SortAsc})
		default:
			sorts = append(sorts, SortSpec{Field: v, Direction: SortAsc})
		}
	}
	return sorts
}

// ParseFieldsParam parses "field"/"+field"/"-field" values into a
// fields filter: "-" excludes, anything else includes.
func ParseFieldsParam(values []string) *FieldsFilter {
	filter := &FieldsFilter{}
	for _, v := range values {
		if v == "" {
			continue
		}
		switch v[0] {
		case '-':
			filter.Exclude = append(filter.Exclude, v[1:])
		case '+':
			filter.Include = append(filter.Include, v[1:])
		default:
			filter.Include = append(filter.Include, v)
		}
	}
	return filter
}

// AggregateBbox unions the bounding boxes of a result page, the bbox
// stamped on search FeatureCollections. Nil when no item carries one.
func AggregateBbox(items []*Item) []float64 {
	var agg []float64
	for _, item := range items {
		if len(item.Bbox) < 4 {
			continue
		}
		if agg == nil {
			agg = []float64{item.Bbox[0], item.Bbox[1], item.Bbox[2], item.Bbox[3]}
			continue
		}
		if item.Bbox[0] < agg[0] {
			agg[0] = item.Bbox[0]
		}
		if item.Bbox[1] < agg[1] {
			agg[1] = item.Bbox[1]
		}
		if item.Bbox[2] > agg[2] {
			agg[2] = item.Bbox[2]
		}
		if item.Bbox[3] > agg[3] {
			agg[3] = item.Bbox[3]
		}
	}
	return agg
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func flattenParam(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, splitList(v)...)
	}
	return out
}
