package repository

import (
	"github.com/lossyrob/arturo-stac-api/internal/stac"
)

// Keyset is the resume position a pagination token stands for. It
// records the sort order a page was produced under and the sort
// values of the boundary row. Clients never see a keyset; they see
// the opaque token id the tokens repository stored it under.
type Keyset struct {
	// Sort is the effective sort the page was produced under,
	// tiebreakers included. A token is only valid for the ordering it
	// was minted with.
	Sort []stac.SortSpec `json:"sort"`

	// Values holds the boundary row's value for each sort field, in
	// Sort order. Timestamps are RFC 3339 strings.
	Values []string `json:"values"`

	// Backward marks a "previous" token: the query walks the sort
	// order in reverse from the boundary, and the page is flipped
	// back before serving.
	Backward bool `json:"backward"`
}

// SearchPage is one page of search results with its pagination
// positions and the total match count.
type SearchPage struct {
	Items   []*stac.Item
	Matched int64

	// Next and Previous are the keysets to resume from, nil when the
	// page is the last or first one in that direction.
	Next     *Keyset
	Previous *Keyset
}
