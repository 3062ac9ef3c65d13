// Package stac defines the catalog's wire types and search grammar.
//
// It holds the JSON shapes served to clients (landing page, collections,
// items, feature collections), the search request with its parsing and
// validation rules, and the link builders that ground every response at
// the request's base URL. Nothing here touches the database; the
// repository layer translates these types to SQL.
package stac

// StacVersion is the catalog version stamped on the landing page and on
// ingested items that do not carry their own.
const StacVersion = "0.9.0"

// Conformance URIs served by GET /conformance.
var ConformanceURIs = []string{
	"https://stacspec.org/STAC-api.html",
	"http://docs.opengeospatial.org/is/17-069r3/17-069r3.html#ats_geojson",
}

// Media types used in links and responses.
const (
	MediaTypeJSON    = "application/json"
	MediaTypeGeoJSON = "application/geo+json"
	MediaTypeHTML    = "text/html"
)

// Link relations.
const (
	RelSelf        = "self"
	RelRoot        = "root"
	RelParent      = "parent"
	RelChild       = "child"
	RelData        = "data"
	RelItems       = "items"
	RelCollection  = "collection"
	RelConformance = "conformance"
	RelDocs        = "docs"
	RelSearch      = "search"
	RelNext        = "next"
	RelPrevious    = "previous"
)
