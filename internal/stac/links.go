package stac

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkBuilder resolves the relative structure of the catalog against
// the base URL a request arrived on, so links survive proxies and
// port mappings.
type LinkBuilder struct {
	base string
}

// NewLinkBuilder creates a builder for one request's base URL.
func NewLinkBuilder(baseURL string) LinkBuilder {
	return LinkBuilder{base: strings.TrimSuffix(baseURL, "/")}
}

// Root is the API root URL, with trailing slash like the landing page
// self link the original catalog serves.
func (b LinkBuilder) Root() string {
	return b.base + "/"
}

func (b LinkBuilder) join(parts ...string) string {
	return b.base + "/" + strings.Join(parts, "/")
}

// Landing builds the landing page links: the fixed entry points plus a
// child link per collection.
func (b LinkBuilder) Landing(collections []Collection) []Link {
	links := []Link{
		{Rel: RelSelf, Type: MediaTypeJSON, Href: b.Root()},
		{Rel: RelData, Type: MediaTypeJSON, Href: b.join("collections")},
		{Rel: RelDocs, Type: MediaTypeHTML, Title: "OpenAPI docs", Href: b.join("docs")},
		{Rel: RelConformance, Type: MediaTypeJSON, Title: "STAC/WFS3 conformance classes implemented by this server", Href: b.join("conformance")},
		{Rel: RelSearch, Type: MediaTypeGeoJSON, Title: "STAC search", Href: b.join("search")},
	}
	for _, coll := range collections {
		links = append(links, Link{
			Rel:   RelChild,
			Type:  MediaTypeJSON,
			Title: coll.Title,
			Href:  b.join("collections", coll.ID),
		})
	}
	return links
}

// CollectionsList is the self link set of GET /collections.
func (b LinkBuilder) CollectionsList() []Link {
	return []Link{
		{Rel: RelSelf, Type: MediaTypeJSON, Href: b.join("collections")},
	}
}

// Collection builds the navigation links stamped on a collection.
func (b LinkBuilder) Collection(collectionID string) []Link {
	return []Link{
		{Rel: RelSelf, Type: MediaTypeJSON, Href: b.join("collections", collectionID)},
		{Rel: RelParent, Type: MediaTypeJSON, Href: b.Root()},
		{Rel: RelRoot, Type: MediaTypeJSON, Href: b.Root()},
		{Rel: RelItems, Type: MediaTypeGeoJSON, Href: b.join("collections", collectionID, "items")},
	}
}

// Item builds the navigation links stamped on an item.
func (b LinkBuilder) Item(collectionID, itemID string) []Link {
	collectionHref := b.join("collections", collectionID)
	return []Link{
		{Rel: RelSelf, Type: MediaTypeGeoJSON, Href: b.join("collections", collectionID, "items", itemID)},
		{Rel: RelParent, Type: MediaTypeJSON, Href: collectionHref},
		{Rel: RelCollection, Type: MediaTypeJSON, Href: collectionHref},
		{Rel: RelRoot, Type: MediaTypeJSON, Href: b.Root()},
	}
}

// ItemsPage builds the pagination links of an items page. Empty tokens
// produce no link.
func (b LinkBuilder) ItemsPage(collectionID string, limit int, next, previous string) []Link {
	links := []Link{}
	href := func(token string) string {
		return fmt.Sprintf("%s?token=%s&limit=%d", b.join("collections", collectionID, "items"), url.QueryEscape(token), limit)
	}
	if next != "" {
		links = append(links, Link{Rel: RelNext, Type: MediaTypeGeoJSON, Href: href(next), Method: "GET"})
	}
	if previous != "" {
		links = append(links, Link{Rel: RelPrevious, Type: MediaTypeGeoJSON, Href: href(previous), Method: "GET"})
	}
	return links
}

// SearchPostPage builds pagination links for POST /search: the token
// travels in a body patch the client merges into its next request.
func (b LinkBuilder) SearchPostPage(next, previous string) []Link {
	links := []Link{}
	if next != "" {
		links = append(links, Link{
			Rel: RelNext, Type: MediaTypeGeoJSON, Href: b.join("search"),
			Method: "POST", Body: map[string]any{"token": next}, Merge: true,
		})
	}
	if previous != "" {
		links = append(links, Link{
			Rel: RelPrevious, Type: MediaTypeGeoJSON, Href: b.join("search"),
			Method: "POST", Body: map[string]any{"token": previous}, Merge: true,
		})
	}
	return links
}

// SearchGetPage builds pagination links for GET /search: the caller's
// query parameters are carried over with the token swapped in.
func (b LinkBuilder) SearchGetPage(params url.Values, next, previous string) []Link {
	links := []Link{}
	href := func(token string) string {
		merged := url.Values{}
		for k, vs := range params {
			for _, v := range vs {
				merged.Add(k, v)
			}
		}
		merged.Set("token", token)
		return b.join("search") + "?" + merged.Encode()
	}
	if next != "" {
		links = append(links, Link{Rel: RelNext, Type: MediaTypeGeoJSON, Href: href(next), Method: "GET"})
	}
	if previous != "" {
		links = append(links, Link{Rel: RelPrevious, Type: MediaTypeGeoJSON, Href: href(previous), Method: "GET"})
	}
	return links
}
