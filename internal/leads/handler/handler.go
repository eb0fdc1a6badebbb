// Package handler exposes the staff-facing triage and conversion endpoints.
package handler

import (
	"net/http"
	"time"

	"hipotecas_portal_backend/internal/leads/domain"
	"hipotecas_portal_backend/internal/leads/repository"
	"hipotecas_portal_backend/internal/leads/service"
	"hipotecas_portal_backend/internal/leads/transport"
	"hipotecas_portal_backend/platform/httpkit"
	"hipotecas_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	errInvalidRequest = "invalid request body"
	errInvalidLeadID  = "invalid lead ID"
	errValidation     = "validation error"
)

// Handler handles staff lead HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// RegisterRoutes mounts the triage routes on the given (authenticated) group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.HandleList)
	rg.GET("/:id", h.HandleGet)
	rg.PATCH("/:id", h.HandleUpdate)
	rg.POST("/:id/convert", h.HandleConvert)
}

// HandleList returns a filtered, paginated page of leads with summary counts.
// GET /api/v1/leads
func (h *Handler) HandleList(c *gin.Context) {
	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest)
		return
	}

	params := repository.ListLeadsParams{
		Urgent:     query.Urgent,
		Overdue:    query.Overdue,
		Incomplete: query.Incomplete,
		Search:     query.Search,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if query.Status != "" {
		status, err := domain.ParseStatus(query.Status)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid status filter")
			return
		}
		params.Status = &status
	}

	leads, count, summary, err := h.service.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	data := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		data[i] = transport.ToLeadResponse(lead)
	}

	httpkit.OK(c, gin.H{"ok": true, "data": data, "count": count, "summary": summary})
}

// HandleGet returns a single lead.
// GET /api/v1/leads/:id
func (h *Handler) HandleGet(c *gin.Context) {
	id, ok := h.parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"ok": true, "data": transport.ToLeadResponse(lead)})
}

// HandleUpdate applies a partial triage mutation.
// PATCH /api/v1/leads/:id
func (h *Handler) HandleUpdate(c *gin.Context) {
	id, ok := h.parseLeadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation)
		return
	}

	// Triage notes are staff-authored and kept verbatim; only object ids
	// and client-originated text pass through sanitize.
	update := service.TriageUpdate{
		Status:   req.Status,
		Urgente:  req.Urgent,
		Priority: req.Priority,
		Note:     req.Note,
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid due date")
			return
		}
		update.DueDate = &dueDate
	}

	lead, err := h.service.UpdateTriage(c.Request.Context(), id, update)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"ok": true, "data": transport.ToLeadResponse(lead)})
}

// HandleConvert converts a lead into a case or CRM lead, idempotently.
// POST /api/v1/leads/:id/convert
func (h *Handler) HandleConvert(c *gin.Context) {
	id, ok := h.parseLeadID(c)
	if !ok {
		return
	}

	var req transport.ConvertLeadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, errInvalidRequest)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, errValidation)
			return
		}
	}

	result, err := h.service.Convert(c.Request.Context(), id, service.ConversionTarget(req.Target))
	if httpkit.HandleError(c, err) {
		return
	}

	response := gin.H{"ok": true}
	if result.CaseID != nil {
		response["case_id"] = result.CaseID
	}
	if result.CRMLeadID != nil {
		response["crm_lead_id"] = result.CRMLeadID
	}
	httpkit.OK(c, response)
}

func (h *Handler) parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidLeadID)
		return uuid.UUID{}, false
	}
	return id, true
}
