package service

import (
	"github.com/lossyrob/arturo-stac-api/internal/repository"
	"github.com/lossyrob/arturo-stac-api/internal/server"
)

// Services is the container for all service instances.
type Services struct {
	Stac   *StacService
	Ingest *IngestService
}

// NewServices constructs the service container and, when a broker is
// configured, wires the bulk ingestion worker to its persistence
// routine.
func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	ingest := NewIngestService(s, repos)

	if s.Job != nil {
		s.Job.SetBulkUpsert(ingest.BulkUpsert)
	}

	return &Services{
		Stac:   NewStacService(s, repos),
		Ingest: ingest,
	}
}
