// Package leads provides the lead management bounded context module:
// lead store, staff triage and the conversion service.
package leads

import (
	"hipotecas_portal_backend/internal/events"
	apphttp "hipotecas_portal_backend/internal/http"
	"hipotecas_portal_backend/internal/leads/handler"
	"hipotecas_portal_backend/internal/leads/repository"
	"hipotecas_portal_backend/internal/leads/service"
	"hipotecas_portal_backend/platform/logger"
	"hipotecas_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetCaseCreator injects the cases-module port used by case conversion.
func (m *Module) SetCaseCreator(creator service.CaseCreator) {
	m.service.SetCaseCreator(creator)
}

// RegisterRoutes mounts the triage routes. All leads routes require staff auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
