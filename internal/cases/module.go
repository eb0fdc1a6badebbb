// Package cases provides the expediente bounded context module: case store,
// staff management, the messaging channel and the anonymous tracking gateway.
package cases

import (
	"hipotecas_portal_backend/internal/adapters/storage"
	"hipotecas_portal_backend/internal/cases/handler"
	"hipotecas_portal_backend/internal/cases/repository"
	"hipotecas_portal_backend/internal/cases/service"
	"hipotecas_portal_backend/internal/events"
	apphttp "hipotecas_portal_backend/internal/http"
	"hipotecas_portal_backend/platform/logger"
	"hipotecas_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the cases bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
	repo          *repository.Repository
}

// NewModule creates and initializes the cases module with all its dependencies.
func NewModule(pool *pgxpool.Pool, store storage.StorageService, bucket string, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, store, bucket, eventBus, log)

	return &Module{
		handler:       handler.New(svc, val),
		publicHandler: handler.NewPublic(svc),
		service:       svc,
		repo:          repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "cases"
}

// Service returns the cases service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the staff routes behind auth and the tracking
// gateway on the rate limited public group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	casosGroup := ctx.Protected.Group("/casos")
	m.handler.RegisterRoutes(casosGroup)

	m.publicHandler.RegisterRoutes(ctx.Public)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
