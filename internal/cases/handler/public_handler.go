package handler

import (
	"net/http"

	"hipotecas_portal_backend/internal/cases/service"
	"hipotecas_portal_backend/internal/cases/transport"
	"hipotecas_portal_backend/platform/httpkit"
	"hipotecas_portal_backend/platform/sanitize"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the anonymous tracking page: read the case, chat,
// upload documents. Access is granted by tracking token alone.
type PublicHandler struct {
	service *service.Service
}

// NewPublic creates the tracking gateway handler.
func NewPublic(svc *service.Service) *PublicHandler {
	return &PublicHandler{service: svc}
}

// RegisterRoutes mounts the tracking routes on the public (rate limited,
// unauthenticated) group.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/casos/:token", h.HandleGet)
	rg.POST("/casos/:token/mensajes", h.HandlePostMessage)
	rg.POST("/casos/:token/documentos", h.HandleUploadDocument)
}

// HandleGet returns the public view of a case.
// GET /api/v1/public/casos/:token
func (h *PublicHandler) HandleGet(c *gin.Context) {
	view, err := h.service.GetByToken(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.ToTrackingResponse(view.Caso, view.Logs, view.Mensajes)
	httpkit.OK(c, gin.H{"ok": true, "data": resp.Caso, "logs": resp.Logs, "mensajes": resp.Mensajes})
}

// HandlePostMessage appends a cliente chat message.
// POST /api/v1/public/casos/:token/mensajes
func (h *PublicHandler) HandlePostMessage(c *gin.Context) {
	var req transport.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest)
		return
	}

	mensaje, err := h.service.PostClientMessage(c.Request.Context(), c.Param("token"), sanitize.Text(req.Mensaje))
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": transport.ToMensajeResponse(mensaje)})
}

// HandleUploadDocument stores a client document sent as multipart form data
// with fields "file" and "docId".
// POST /api/v1/public/casos/:token/documentos
func (h *PublicHandler) HandleUploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file")
		return
	}
	defer file.Close()

	mensaje, err := h.service.UploadDocument(c.Request.Context(), service.UploadDocumentInput{
		Token:       c.Param("token"),
		DocID:       sanitize.Text(c.PostForm("docId")),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": transport.ToMensajeResponse(mensaje)})
}
