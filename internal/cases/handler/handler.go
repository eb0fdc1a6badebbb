// Package handler exposes the staff case-management endpoints and the
// anonymous tracking gateway.
package handler

import (
	"net/http"

	"hipotecas_portal_backend/internal/cases/service"
	"hipotecas_portal_backend/internal/cases/transport"
	"hipotecas_portal_backend/platform/httpkit"
	"hipotecas_portal_backend/platform/sanitize"
	"hipotecas_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	errInvalidRequest = "invalid request body"
	errInvalidCasoID  = "invalid caso ID"
	errValidation     = "validation error"
)

// Handler handles staff case HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new cases handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// RegisterRoutes mounts the staff routes on the given (authenticated) group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.HandleList)
	rg.POST("", h.HandleCreate)
	rg.GET("/:id", h.HandleGet)
	rg.PATCH("/:id", h.HandleUpdate)
	rg.POST("/:id/read", h.HandleMarkRead)
	rg.GET("/:id/mensajes", h.HandleListMessages)
	rg.POST("/:id/mensajes", h.HandlePostMessage)
	rg.GET("/:id/logs", h.HandleListLogs)
	rg.POST("/:id/logs", h.HandleAddLog)
}

// HandleList returns a filtered, paginated page of cases.
// GET /api/v1/casos
func (h *Handler) HandleList(c *gin.Context) {
	var query transport.ListCasosQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest)
		return
	}

	casos, count, err := h.service.List(c.Request.Context(), service.ListInput{
		Estado: query.Estado,
		Search: query.Search,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	data := make([]transport.CasoResponse, len(casos))
	for i, caso := range casos {
		data[i] = transport.ToCasoResponse(caso)
	}
	httpkit.OK(c, gin.H{"ok": true, "data": data, "count": count})
}

// HandleCreate opens a case by hand.
// POST /api/v1/casos
func (h *Handler) HandleCreate(c *gin.Context) {
	var req transport.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation)
		return
	}

	caso, err := h.service.Create(c.Request.Context(), service.CreateCaseInput{
		Titulo:          sanitize.Text(req.Titulo),
		Notas:           sanitize.TextPtr(req.Notas),
		ClienteNombre:   sanitize.Text(req.ClienteNombre),
		ClienteEmail:    req.ClienteEmail,
		ClienteTelefono: req.ClienteTelefono,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": transport.ToCasoResponse(caso)})
}

// HandleGet returns a single case.
// GET /api/v1/casos/:id
func (h *Handler) HandleGet(c *gin.Context) {
	id, ok := h.parseCasoID(c)
	if !ok {
		return
	}

	caso, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true, "data": transport.ToCasoResponse(caso)})
}

// HandleUpdate applies a partial staff edit.
// PATCH /api/v1/casos/:id
func (h *Handler) HandleUpdate(c *gin.Context) {
	id, ok := h.parseCasoID(c)
	if !ok {
		return
	}

	var req transport.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation)
		return
	}

	caso, err := h.service.Update(c.Request.Context(), id, service.UpdateCaseInput{
		Titulo:   sanitize.TextPtr(req.Titulo),
		Estado:   req.Estado,
		Progreso: req.Progreso,
		Notas:    sanitize.TextPtr(req.Notas),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true, "data": transport.ToCasoResponse(caso)})
}

// HandleMarkRead clears the unread-client-messages marker.
// POST /api/v1/casos/:id/read
func (h *Handler) HandleMarkRead(c *gin.Context) {
	id, ok := h.parseCasoID(c)
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true})
}

// HandleListMessages returns the full conversation, oldest first.
// GET /api/v1/casos/:id/mensajes
func (h *Handler) HandleListMessages(c *gin.Context) {
	id, ok := h.parseCasoID(c)
	if !ok {
		return
	}

	mensajes, err := h.service.ListMessages(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true, "data": transport.ToMensajeResponses(mensajes)})
}

// HandlePostMessage appends a gestor message.
// POST /api/v1/casos/:id/mensajes
func (h *Handler) HandlePostMessage(c *gin.Context) {
	id, ok := h.parseCasoID(c)
	if !ok {
		return
	}

	var req transport.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest)
		return
	}

	mensaje, err := h.service.PostStaffMessage(c.Request.Context(), id, sanitize.Text(req.Mensaje))
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": transport.ToMensajeResponse(mensaje)})
}

// HandleListLogs returns the full timeline, internal entries included.
// GET /api/v1/casos/:id/logs
func (h *Handler) HandleListLogs(c *gin.Context) {
	id, ok := h.parseCasoID(c)
	if !ok {
		return
	}

	logs, err := h.service.ListLogs(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true, "data": transport.ToLogResponses(logs)})
}

// HandleAddLog appends a timeline entry.
// POST /api/v1/casos/:id/logs
func (h *Handler) HandleAddLog(c *gin.Context) {
	id, ok := h.parseCasoID(c)
	if !ok {
		return
	}

	var req transport.AddLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest)
		return
	}

	entry, err := h.service.AddLog(c.Request.Context(), id, service.AddLogInput{
		Texto:          sanitize.Text(req.Texto),
		VisibleCliente: req.VisibleCliente,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": transport.ToLogResponse(entry)})
}

func (h *Handler) parseCasoID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidCasoID)
		return uuid.UUID{}, false
	}
	return id, true
}
