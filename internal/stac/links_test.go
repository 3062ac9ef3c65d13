package stac

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findLink(t *testing.T, links []Link, rel string) Link {
	t.Helper()
	for _, link := range links {
		if link.Rel == rel {
			return link
		}
	}
	t.Fatalf("no %q link in %v", rel, links)
	return Link{}
}

func TestLandingLinks(t *testing.T) {
	b := NewLinkBuilder("http://stac.test/")
	links := b.Landing([]Collection{{ID: "joplin", Title: "Joplin"}})

	assert.Equal(t, "http://stac.test/", findLink(t, links, RelSelf).Href)
	assert.Equal(t, "http://stac.test/collections", findLink(t, links, RelData).Href)
	assert.Equal(t, "http://stac.test/docs", findLink(t, links, RelDocs).Href)
	assert.Equal(t, "http://stac.test/conformance", findLink(t, links, RelConformance).Href)
	assert.Equal(t, "http://stac.test/search", findLink(t, links, RelSearch).Href)

	child := findLink(t, links, RelChild)
	assert.Equal(t, "http://stac.test/collections/joplin", child.Href)
	assert.Equal(t, "Joplin", child.Title)
}

func TestCollectionAndItemLinks(t *testing.T) {
	b := NewLinkBuilder("http://stac.test")

	collLinks := b.Collection("joplin")
	assert.Equal(t, "http://stac.test/collections/joplin", findLink(t, collLinks, RelSelf).Href)
	assert.Equal(t, "http://stac.test/collections/joplin/items", findLink(t, collLinks, RelItems).Href)
	assert.Equal(t, "http://stac.test/", findLink(t, collLinks, RelRoot).Href)

	itemLinks := b.Item("joplin", "abc")
	self := findLink(t, itemLinks, RelSelf)
	assert.Equal(t, "http://stac.test/collections/joplin/items/abc", self.Href)
	assert.Equal(t, MediaTypeGeoJSON, self.Type)
	assert.Equal(t, "http://stac.test/collections/joplin", findLink(t, itemLinks, RelCollection).Href)
}

func TestItemsPageLinks(t *testing.T) {
	b := NewLinkBuilder("http://stac.test")

	links := b.ItemsPage("joplin", 10, "next-token", "")
	require.Len(t, links, 1)
	assert.Equal(t, RelNext, links[0].Rel)
	assert.Equal(t, "GET", links[0].Method)
	assert.Equal(t, "http://stac.test/collections/joplin/items?token=next-token&limit=10", links[0].Href)

	links = b.ItemsPage("joplin", 10, "n", "p")
	assert.Len(t, links, 2)

	assert.Empty(t, b.ItemsPage("joplin", 10, "", ""))
}

func TestSearchPostPageLinks(t *testing.T) {
	b := NewLinkBuilder("http://stac.test")
	links := b.SearchPostPage("nt", "pt")
	require.Len(t, links, 2)

	next := findLink(t, links, RelNext)
	assert.Equal(t, "http://stac.test/search", next.Href)
	assert.Equal(t, "POST", next.Method)
	assert.True(t, next.Merge)
	assert.Equal(t, map[string]any{"token": "nt"}, next.Body)
}

func TestSearchGetPageLinksMergeParams(t *testing.T) {
	b := NewLinkBuilder("http://stac.test")
	params := url.Values{}
	params.Set("collections", "joplin")
	params.Set("limit", "5")
	params.Set("token", "old")

	links := b.SearchGetPage(params, "new", "")
	require.Len(t, links, 1)

	parsed, err := url.Parse(links[0].Href)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "new", q.Get("token"))
	assert.Equal(t, "joplin", q.Get("collections"))
	assert.Equal(t, "5", q.Get("limit"))

	// Original values object stays intact.
	assert.Equal(t, "old", params.Get("token"))
}
