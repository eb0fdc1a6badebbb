// Package transport holds the request and response shapes of the cases API,
// for both the staff panel and the anonymous tracking page.
package transport

import (
	"time"

	"github.com/google/uuid"

	"hipotecas_portal_backend/internal/cases/domain"
	"hipotecas_portal_backend/internal/cases/repository"
)

type CreateCaseRequest struct {
	Titulo          string  `json:"titulo" binding:"required"`
	Notas           *string `json:"notas"`
	ClienteNombre   string  `json:"clienteNombre"`
	ClienteEmail    *string `json:"clienteEmail" binding:"omitempty,email"`
	ClienteTelefono *string `json:"clienteTelefono"`
}

type UpdateCaseRequest struct {
	Titulo   *string `json:"titulo"`
	Estado   *string `json:"estado"`
	Progreso *int    `json:"progreso" binding:"omitempty,min=0,max=100"`
	Notas    *string `json:"notas"`
}

type ListCasosQuery struct {
	Estado string `form:"estado"`
	Search string `form:"q"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

type AddLogRequest struct {
	Texto          string `json:"texto" binding:"required"`
	VisibleCliente bool   `json:"visibleCliente"`
}

type PostMessageRequest struct {
	Mensaje string `json:"mensaje" binding:"required"`
}

type ClienteResponse struct {
	Nombre   *string `json:"nombre,omitempty"`
	Email    *string `json:"email,omitempty"`
	Telefono *string `json:"telefono,omitempty"`
}

type CasoResponse struct {
	ID                   uuid.UUID        `json:"id"`
	Titulo               string           `json:"titulo"`
	Estado               string           `json:"estado"`
	Progreso             int              `json:"progreso"`
	Notas                *string          `json:"notas,omitempty"`
	TrackingToken        string           `json:"trackingToken"`
	UnreadClientMessages bool             `json:"unreadClientMessages"`
	OriginLeadID         *uuid.UUID       `json:"originLeadId,omitempty"`
	Cliente              *ClienteResponse `json:"cliente,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

func ToCasoResponse(c repository.Caso) CasoResponse {
	resp := CasoResponse{
		ID:                   c.ID,
		Titulo:               c.Titulo,
		Estado:               c.Estado,
		Progreso:             domain.ClampProgreso(c.Progreso),
		Notas:                c.Notas,
		TrackingToken:        c.TrackingToken,
		UnreadClientMessages: c.UnreadClientMessages,
		OriginLeadID:         c.OriginLeadID,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
	if c.ClienteID != nil {
		resp.Cliente = &ClienteResponse{
			Nombre:   c.ClienteNombre,
			Email:    c.ClienteEmail,
			Telefono: c.ClienteTelefono,
		}
	}
	return resp
}

// MensajeResponse carries the attachment display name and URL; the object
// key stays internal to the storage layer.
type MensajeResponse struct {
	ID             uuid.UUID `json:"id"`
	Sender         string    `json:"sender"`
	Body           string    `json:"body"`
	AttachmentName *string   `json:"attachmentName,omitempty"`
	AttachmentURL  *string   `json:"attachmentUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func ToMensajeResponse(m repository.Mensaje) MensajeResponse {
	return MensajeResponse{
		ID:             m.ID,
		Sender:         m.Sender,
		Body:           m.Body,
		AttachmentName: m.AttachmentName,
		AttachmentURL:  m.AttachmentURL,
		CreatedAt:      m.CreatedAt,
	}
}

func ToMensajeResponses(mensajes []repository.Mensaje) []MensajeResponse {
	out := make([]MensajeResponse, 0, len(mensajes))
	for _, m := range mensajes {
		out = append(out, ToMensajeResponse(m))
	}
	return out
}

type LogResponse struct {
	ID             uuid.UUID `json:"id"`
	Texto          string    `json:"texto"`
	VisibleCliente bool      `json:"visibleCliente"`
	CreatedAt      time.Time `json:"createdAt"`
}

func ToLogResponse(l repository.CasoLog) LogResponse {
	return LogResponse{ID: l.ID, Texto: l.Texto, VisibleCliente: l.VisibleCliente, CreatedAt: l.CreatedAt}
}

func ToLogResponses(logs []repository.CasoLog) []LogResponse {
	out := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, ToLogResponse(l))
	}
	return out
}

// PublicCasoResponse is the tracking-page view. The unread marker and the
// token itself never leave through it.
type PublicCasoResponse struct {
	ID            uuid.UUID `json:"id"`
	Titulo        string    `json:"titulo"`
	Estado        string    `json:"estado"`
	Progreso      int       `json:"progreso"`
	Notas         *string   `json:"notas,omitempty"`
	ClienteNombre *string   `json:"clienteNombre,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type PublicLogResponse struct {
	Texto     string    `json:"texto"`
	CreatedAt time.Time `json:"createdAt"`
}

// TrackingResponse groups the three sections of the tracking page. The
// handler emits them as top level fields next to "ok", not nested.
type TrackingResponse struct {
	Caso     PublicCasoResponse  `json:"data"`
	Logs     []PublicLogResponse `json:"logs"`
	Mensajes []MensajeResponse   `json:"mensajes"`
}

func ToTrackingResponse(caso repository.Caso, logs []repository.CasoLog, mensajes []repository.Mensaje) TrackingResponse {
	publicLogs := make([]PublicLogResponse, 0, len(logs))
	for _, l := range logs {
		publicLogs = append(publicLogs, PublicLogResponse{Texto: l.Texto, CreatedAt: l.CreatedAt})
	}
	return TrackingResponse{
		Caso: PublicCasoResponse{
			ID:            caso.ID,
			Titulo:        caso.Titulo,
			Estado:        caso.Estado,
			Progreso:      domain.ClampProgreso(caso.Progreso),
			Notas:         caso.Notas,
			ClienteNombre: caso.ClienteNombre,
			CreatedAt:     caso.CreatedAt,
			UpdatedAt:     caso.UpdatedAt,
		},
		Logs:     publicLogs,
		Mensajes: ToMensajeResponses(mensajes),
	}
}
