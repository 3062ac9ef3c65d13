package repository

import (
	"github.com/lossyrob/arturo-stac-api/internal/server"
)

// Repositories is the container for all repository instances.
type Repositories struct {
	Collections *CollectionsRepository
	Items       *ItemsRepository
	Tokens      *TokensRepository
}

// NewRepositories constructs the repository container from the
// application container (pools on s.DB, logger, config).
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Collections: NewCollectionsRepository(s),
		Items:       NewItemsRepository(s),
		Tokens:      NewTokensRepository(s),
	}
}
