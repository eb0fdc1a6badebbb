// Package webhook provides the lead ingestion gateway: external valuation
// widget and web form submissions, plus the widget configuration endpoint.
package webhook

import (
	apphttp "hipotecas_portal_backend/internal/http"
	"hipotecas_portal_backend/platform/config"
	"hipotecas_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the ingestion bounded context implementing http.Module.
type Module struct {
	handler *Handler
	cfg     config.WebhookConfig
	log     *logger.Logger
}

// NewModule creates and initializes the webhook module.
func NewModule(pool *pgxpool.Pool, recorder LeadRecorder, cfg config.WebhookConfig, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(recorder, log)

	return &Module{
		handler: NewHandler(svc, repo),
		cfg:     cfg,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the ingestion routes. Submissions are secret
// authenticated and rate limited; the config read is public behind the
// widget CORS allow-list; config writes require staff auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhook", ctx.PublicRateLimiter.RateLimit())

	secretAuth := SecretAuthMiddleware(m.cfg, m.log)
	group.POST("/valorador", ValoradorCORS(m.cfg), secretAuth, m.handler.HandleValorador)
	group.POST("/leads", ValoradorCORS(m.cfg), secretAuth, m.handler.HandleGenericLead)

	group.GET("/valorador/config", ValoradorCORS(m.cfg), m.handler.HandleGetValoradorConfig)
	group.OPTIONS("/valorador/config", ValoradorCORS(m.cfg))
	group.OPTIONS("/valorador", ValoradorCORS(m.cfg))
	group.OPTIONS("/leads", ValoradorCORS(m.cfg))

	group.PUT("/valorador/config", ctx.AuthMiddleware, m.handler.HandleUpdateValoradorConfig)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
