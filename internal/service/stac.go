package service

import (
	"context"
	"net/url"

	"github.com/lossyrob/arturo-stac-api/internal/repository"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/stac"
)

// Landing page identity, matching the catalog this service fronts.
const (
	landingPageID      = "stac-api"
	landingTitle       = "Arturo STAC API"
	landingDescription = "Arturo raster datastore"
)

// StacService implements the catalog semantics behind the API:
// assembling documents with their links, running searches with
// pagination tokens, and the transaction operations.
type StacService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewStacService(s *server.Server, repos *repository.Repositories) *StacService {
	return &StacService{server: s, repos: repos}
}

// LandingPage assembles the API root document: the fixed entry-point
// links plus one child link per collection.
func (s *StacService) LandingPage(ctx context.Context, base string) (*stac.LandingPage, error) {
	collections, err := s.repos.Collections.All(ctx)
	if err != nil {
		return nil, err
	}

	lb := stac.NewLinkBuilder(base)
	return &stac.LandingPage{
		ID:          landingPageID,
		StacVersion: stac.StacVersion,
		Title:       landingTitle,
		Description: landingDescription,
		Links:       lb.Landing(collections),
	}, nil
}

// Conformance lists the conformance classes this server implements.
func (s *StacService) Conformance() *stac.Conformance {
	return &stac.Conformance{ConformsTo: stac.ConformanceURIs}
}

// Collections returns every collection with its navigation links.
func (s *StacService) Collections(ctx context.Context, base string) (*stac.Collections, error) {
	collections, err := s.repos.Collections.All(ctx)
	if err != nil {
		return nil, err
	}

	lb := stac.NewLinkBuilder(base)
	for i := range collections {
		collections[i].Links = lb.Collection(collections[i].ID)
	}

	return &stac.Collections{
		Collections: collections,
		Links:       lb.CollectionsList(),
	}, nil
}

// GetCollection returns one collection with links, or a 404.
func (s *StacService) GetCollection(ctx context.Context, base, id string) (*stac.Collection, error) {
	coll, err := s.repos.Collections.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	coll.Links = stac.NewLinkBuilder(base).Collection(coll.ID)
	return coll, nil
}

// GetItem returns one item with links, or a 404.
func (s *StacService) GetItem(ctx context.Context, base, collectionID, itemID string) (*stac.Item, error) {
	item, err := s.repos.Items.Get(ctx, collectionID, itemID)
	if err != nil {
		return nil, err
	}
	item.Links = stac.NewLinkBuilder(base).Item(collectionID, itemID)
	return item, nil
}

// ItemPage returns one page of a collection's items, default sort
// datetime DESC, with GET pagination links.
func (s *StacService) ItemPage(ctx context.Context, base, collectionID string, limit int, token string) (*stac.ItemCollection, error) {
	// A missing collection is a 404, not an empty page.
	if _, err := s.repos.Collections.Get(ctx, collectionID); err != nil {
		return nil, err
	}

	req := &stac.SearchRequest{
		Collections: []string{collectionID},
		Limit:       limit,
		Token:       token,
	}
	req.ApplyDefaults()

	page, next, previous, err := s.search(ctx, req)
	if err != nil {
		return nil, err
	}

	lb := stac.NewLinkBuilder(base)
	resp := stac.NewItemCollection()
	resp.Context = &stac.Context{
		Returned: len(page.Items),
		Limit:    req.Limit,
		Matched:  page.Matched,
	}
	resp.Links = lb.ItemsPage(collectionID, req.Limit, next, previous)

	for _, item := range page.Items {
		item.Links = lb.Item(collectionID, item.ID)
		resp.Features = append(resp.Features, item)
	}

	return resp, nil
}

// Search runs a POST search: filters, sort, field selection, keyset
// pagination with body-merge links, aggregate bbox, and the context
// object.
func (s *StacService) Search(ctx context.Context, base string, req *stac.SearchRequest) (*stac.ItemCollection, error) {
	req.ApplyDefaults()

	page, next, previous, err := s.search(ctx, req)
	if err != nil {
		return nil, err
	}

	lb := stac.NewLinkBuilder(base)
	resp := stac.NewItemCollection()
	resp.Context = &stac.Context{
		Returned: len(page.Items),
		Limit:    req.Limit,
		Matched:  page.Matched,
	}
	resp.Links = lb.SearchPostPage(next, previous)
	resp.Bbox = stac.AggregateBbox(page.Items)

	for _, item := range page.Items {
		item.Links = lb.Item(item.Collection, item.ID)
		if req.Fields.IsZero() {
			resp.Features = append(resp.Features, item)
			continue
		}

		feature, err := item.ToMap()
		if err != nil {
			return nil, err
		}
		resp.Features = append(resp.Features, req.Fields.Apply(feature))
	}

	return resp, nil
}

// SearchGet runs a GET search. It delegates to the POST semantics and
// rewrites the pagination links into query-string form carrying the
// caller's own parameters.
func (s *StacService) SearchGet(ctx context.Context, base string, params url.Values) (*stac.ItemCollection, error) {
	req, err := stac.NewSearchFromParams(params)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.Search(ctx, base, req)
	if err != nil {
		return nil, err
	}

	lb := stac.NewLinkBuilder(base)
	links := make([]stac.Link, 0, len(resp.Links))
	var next, previous string
	for _, link := range resp.Links {
		switch link.Rel {
		case stac.RelNext:
			next, _ = link.Body["token"].(string)
		case stac.RelPrevious:
			previous, _ = link.Body["token"].(string)
		default:
			links = append(links, link)
		}
	}
	resp.Links = append(links, lb.SearchGetPage(params, next, previous)...)

	return resp, nil
}

// search resolves an incoming token, runs the repository search, and
// mints tokens for the resulting page boundaries.
func (s *StacService) search(ctx context.Context, req *stac.SearchRequest) (*repository.SearchPage, string, string, error) {
	var ks *repository.Keyset
	if req.Token != "" {
		var err error
		ks, err = s.repos.Tokens.Get(ctx, req.Token)
		if err != nil {
			return nil, "", "", err
		}
	}

	page, err := s.repos.Items.Search(ctx, req, ks)
	if err != nil {
		return nil, "", "", err
	}

	var next, previous string
	if page.Next != nil {
		if next, err = s.repos.Tokens.Insert(ctx, page.Next); err != nil {
			return nil, "", "", err
		}
	}
	if page.Previous != nil {
		if previous, err = s.repos.Tokens.Insert(ctx, page.Previous); err != nil {
			return nil, "", "", err
		}
	}

	return page, next, previous, nil
}

// --- Transactions -----------------------------------------------------------

// CreateCollection inserts a collection and returns it with links.
// Duplicate ids are a 409.
func (s *StacService) CreateCollection(ctx context.Context, base string, coll *stac.Collection) (*stac.Collection, error) {
	if coll.StacVersion == "" {
		coll.StacVersion = stac.StacVersion
	}
	if err := s.repos.Collections.Create(ctx, coll); err != nil {
		return nil, err
	}
	coll.Links = stac.NewLinkBuilder(base).Collection(coll.ID)
	return coll, nil
}

// UpdateCollection rewrites a collection in place; missing id is 404.
func (s *StacService) UpdateCollection(ctx context.Context, base string, coll *stac.Collection) (*stac.Collection, error) {
	if err := s.repos.Collections.Update(ctx, coll); err != nil {
		return nil, err
	}
	coll.Links = stac.NewLinkBuilder(base).Collection(coll.ID)
	return coll, nil
}

// DeleteCollection removes a collection. One that still has items
// fails with a 409 from the foreign key.
func (s *StacService) DeleteCollection(ctx context.Context, id string) error {
	return s.repos.Collections.Delete(ctx, id)
}

// CreateItem inserts an item into a collection. A missing collection
// surfaces as a 404 through the foreign key, a duplicate id as 409.
func (s *StacService) CreateItem(ctx context.Context, base, collectionID string, item *stac.Item) (*stac.Item, error) {
	item.Collection = collectionID
	if item.StacVersion == "" {
		item.StacVersion = stac.StacVersion
	}
	if err := s.repos.Items.Create(ctx, collectionID, item); err != nil {
		return nil, err
	}
	item.Links = stac.NewLinkBuilder(base).Item(collectionID, item.ID)
	return item, nil
}

// UpdateItem rewrites an item in place; missing item is 404.
func (s *StacService) UpdateItem(ctx context.Context, base, collectionID string, item *stac.Item) (*stac.Item, error) {
	item.Collection = collectionID
	if err := s.repos.Items.Update(ctx, collectionID, item); err != nil {
		return nil, err
	}
	item.Links = stac.NewLinkBuilder(base).Item(collectionID, item.ID)
	return item, nil
}

// DeleteItem removes an item; missing item is 404.
func (s *StacService) DeleteItem(ctx context.Context, collectionID, itemID string) error {
	return s.repos.Items.Delete(ctx, collectionID, itemID)
}
