package handler

import (
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/service"
)

// Handlers groups all HTTP handlers so router setup receives one
// wired object instead of many.
type Handlers struct {
	Health       *HealthHandler
	OpenAPI      *OpenAPIHandler
	Core         *CoreHandler
	Transactions *TransactionsHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(s),
		OpenAPI:      NewOpenAPIHandler(s),
		Core:         NewCoreHandler(s, services),
		Transactions: NewTransactionsHandler(s, services),
	}
}
