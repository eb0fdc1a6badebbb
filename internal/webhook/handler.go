package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"hipotecas_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// maxBodySize caps ingestion payloads; the widget never sends more than a
// few KB.
const maxBodySize = 256 << 10

// Handler handles ingestion and widget-config HTTP requests.
type Handler struct {
	service *Service
	repo    *Repository
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// HandleValorador processes a valuation-wizard submission.
// POST /api/v1/webhook/valorador (secret authenticated)
func (h *Handler) HandleValorador(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}

	_, err := h.service.ProcessValorador(c.Request.Context(), body)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"ok": true})
}

// HandleGenericLead processes a generic web contact-form submission.
// POST /api/v1/webhook/leads (secret authenticated)
func (h *Handler) HandleGenericLead(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}

	_, err := h.service.ProcessGenericLead(c.Request.Context(), body)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"ok": true})
}

// HandleGetValoradorConfig serves the widget configuration to the embed
// script. Public; the Origin allow-list is applied by ValoradorCORS.
// GET /api/v1/webhook/valorador/config
func (h *Handler) HandleGetValoradorConfig(c *gin.Context) {
	cfg, err := h.repo.GetValoradorConfig(c.Request.Context())
	if err == ErrConfigNotFound {
		// A missing row means defaults: the widget falls back on its own.
		httpkit.OK(c, gin.H{"ok": true, "data": gin.H{}})
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "could not load config")
		return
	}

	httpkit.OK(c, gin.H{"ok": true, "data": cfg.Settings, "updatedAt": cfg.UpdatedAt})
}

// HandleUpdateValoradorConfig replaces the widget configuration.
// PUT /api/v1/webhook/valorador/config (staff authenticated)
func (h *Handler) HandleUpdateValoradorConfig(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	if !json.Valid(body) {
		httpkit.Error(c, http.StatusBadRequest, "settings must be a JSON document")
		return
	}

	if err := h.repo.UpdateValoradorConfig(c.Request.Context(), json.RawMessage(body)); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	httpkit.OK(c, gin.H{"ok": true})
}

func (h *Handler) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil || len(body) == 0 {
		httpkit.Error(c, http.StatusBadRequest, "empty body")
		return nil, false
	}
	return body, true
}
