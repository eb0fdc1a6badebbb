// Package transport defines the HTTP DTOs for the leads module.
package transport

import (
	"encoding/json"
	"time"

	"hipotecas_portal_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// ListLeadsQuery binds the triage listing query parameters.
type ListLeadsQuery struct {
	Status     string `form:"status"`
	Search     string `form:"q"`
	Urgent     *bool  `form:"urgent"`
	Overdue    bool   `form:"overdue"`
	Incomplete bool   `form:"incomplete"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// UpdateLeadRequest is the partial triage mutation body. Absent fields are
// left untouched.
type UpdateLeadRequest struct {
	Status   *string `json:"status" validate:"omitempty,max=20"`
	Urgent   *bool   `json:"urgent"`
	Priority *string `json:"priority" validate:"omitempty,max=50"`
	DueDate  *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Note     *string `json:"note" validate:"omitempty,max=2000"`
}

// ConvertLeadRequest selects the conversion target.
type ConvertLeadRequest struct {
	Target string `json:"target" validate:"omitempty,oneof=case crm"`
}

// LeadResponse is the staff-facing lead representation.
type LeadResponse struct {
	ID     uuid.UUID `json:"id"`
	Source string    `json:"source"`

	Nombre   *string `json:"nombre"`
	Telefono *string `json:"telefono"`
	Email    *string `json:"email"`

	Direccion      *string `json:"direccion"`
	Ciudad         *string `json:"ciudad"`
	Tipo           *string `json:"tipo"`
	SizeM2         *int    `json:"sizeM2"`
	Habitaciones   *int    `json:"habitaciones"`
	Banos          *int    `json:"banos"`
	HasGarage      *bool   `json:"hasGarage"`
	HasTerrace     *bool   `json:"hasTerrace"`
	EstadoInmueble *string `json:"estadoInmueble"`

	ResultMin *float64 `json:"resultMin"`
	ResultMax *float64 `json:"resultMax"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`

	Status        string     `json:"status"`
	Urgente       bool       `json:"urgente"`
	Priority      *string    `json:"priority"`
	DueDate       *time.Time `json:"dueDate"`
	ProcessedAt   *time.Time `json:"processedAt"`
	ProcessedNote *string    `json:"processedNote"`

	CRMLeadID  *uuid.UUID `json:"crmLeadId"`
	CRMCaseID  *uuid.UUID `json:"crmCaseId"`
	ExportedAt *time.Time `json:"exportedAt"`
	ExportedTo *string    `json:"exportedTo"`

	Raw json.RawMessage `json:"raw,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// ToLeadResponse maps a stored lead to its staff-facing representation.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:             lead.ID,
		Source:         lead.Source,
		Nombre:         lead.Nombre,
		Telefono:       lead.Telefono,
		Email:          lead.Email,
		Direccion:      lead.Direccion,
		Ciudad:         lead.Ciudad,
		Tipo:           lead.Tipo,
		SizeM2:         lead.SizeM2,
		Habitaciones:   lead.Habitaciones,
		Banos:          lead.Banos,
		HasGarage:      lead.HasGarage,
		HasTerrace:     lead.HasTerrace,
		EstadoInmueble: lead.EstadoInmueble,
		ResultMin:      lead.ResultMin,
		ResultMax:      lead.ResultMax,
		Lat:            lead.Lat,
		Lng:            lead.Lng,
		Status:         string(lead.Status),
		Urgente:        lead.Urgente,
		Priority:       lead.Priority,
		DueDate:        lead.DueDate,
		ProcessedAt:    lead.ProcessedAt,
		ProcessedNote:  lead.ProcessedNote,
		CRMLeadID:      lead.CRMLeadID,
		CRMCaseID:      lead.CRMCaseID,
		ExportedAt:     lead.ExportedAt,
		ExportedTo:     lead.ExportedTo,
		Raw:            lead.Raw,
		CreatedAt:      lead.CreatedAt,
	}
}
