package stac

import "encoding/json"

// Link relates a resource to another one. Pagination links additionally
// carry a method and, for POST, a body the client merges into its next
// request.
type Link struct {
	Rel    string         `json:"rel"`
	Href   string         `json:"href"`
	Type   string         `json:"type,omitempty"`
	Title  string         `json:"title,omitempty"`
	Method string         `json:"method,omitempty"`
	Body   map[string]any `json:"body,omitempty"`
	Merge  bool           `json:"merge,omitempty"`
}

// Provider describes an organization involved in producing a collection.
type Provider struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// SpatialExtent is a list of bounding boxes covering a collection.
type SpatialExtent struct {
	Bbox [][]float64 `json:"bbox"`
}

// TemporalExtent is a list of time intervals covering a collection.
// A nil bound means the interval is open on that side.
type TemporalExtent struct {
	Interval [][]*string `json:"interval"`
}

// Extent combines the spatial and temporal coverage of a collection.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// Collection is a group of items sharing a schema and extent.
type Collection struct {
	ID             string         `json:"id"`
	StacVersion    string         `json:"stac_version"`
	StacExtensions []string       `json:"stac_extensions,omitempty"`
	Title          string         `json:"title,omitempty"`
	Description    string         `json:"description"`
	Keywords       []string       `json:"keywords,omitempty"`
	Version        string         `json:"version,omitempty"`
	License        string         `json:"license"`
	Providers      []Provider     `json:"providers,omitempty"`
	Summaries      map[string]any `json:"summaries,omitempty"`
	Extent         Extent         `json:"extent"`
	Links          []Link         `json:"links"`
}

// Collections is the response shape of GET /collections.
type Collections struct {
	Collections []Collection `json:"collections"`
	Links       []Link       `json:"links"`
}

// Item is a single catalog record: a GeoJSON feature with catalog
// metadata in its properties.
//
// Geometry is kept as raw JSON. The database is the only component that
// interprets it, via PostGIS, so the API never re-encodes coordinate
// data it does not need to understand. Properties and assets round-trip
// the same way: whatever keys the producer wrote are preserved.
type Item struct {
	Type           string          `json:"type"`
	StacVersion    string          `json:"stac_version,omitempty"`
	StacExtensions []string        `json:"stac_extensions,omitempty"`
	ID             string          `json:"id"`
	Collection     string          `json:"collection,omitempty"`
	Geometry       json.RawMessage `json:"geometry"`
	Bbox           []float64       `json:"bbox"`
	Properties     map[string]any  `json:"properties"`
	Assets         map[string]any  `json:"assets,omitempty"`
	Links          []Link          `json:"links"`
}

// Datetime reports the item's acquisition time from its properties, or
// "" when absent.
func (i *Item) Datetime() string {
	if i.Properties == nil {
		return ""
	}
	v, ok := i.Properties["datetime"].(string)
	if !ok {
		return ""
	}
	return v
}

// ToMap re-serializes the item into a generic map, the form the fields
// filter operates on.
func (i *Item) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Context describes a page of search results.
type Context struct {
	Returned int   `json:"returned"`
	Limit    int   `json:"limit"`
	Matched  int64 `json:"matched"`
}

// ItemCollection is the FeatureCollection shape returned by the items
// and search endpoints. Features holds *Item values, or generic maps
// when a fields filter reshaped them.
type ItemCollection struct {
	Type     string    `json:"type"`
	Context  *Context  `json:"context,omitempty"`
	Features []any     `json:"features"`
	Links    []Link    `json:"links"`
	Bbox     []float64 `json:"bbox,omitempty"`
}

// NewItemCollection builds an empty FeatureCollection so the features
// array serializes as [] rather than null.
func NewItemCollection() *ItemCollection {
	return &ItemCollection{
		Type:     "FeatureCollection",
		Features: []any{},
		Links:    []Link{},
	}
}

// LandingPage is the API root document.
type LandingPage struct {
	ID          string `json:"id"`
	StacVersion string `json:"stac_version"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Links       []Link `json:"links"`
}

// Conformance lists the API specifications this server implements.
type Conformance struct {
	ConformsTo []string `json:"conformsTo"`
}
