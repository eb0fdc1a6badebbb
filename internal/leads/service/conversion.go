package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hipotecas_portal_backend/internal/events"
	"hipotecas_portal_backend/internal/leads/repository"
	"hipotecas_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// ConversionTarget selects what a lead converts into.
type ConversionTarget string

const (
	// TargetCase produces a client-facing expediente.
	TargetCase ConversionTarget = "case"
	// TargetCRM produces a denormalized CRM lead record.
	TargetCRM ConversionTarget = "crm"
)

// CaseFromLeadParams is what the cases module needs to open an expediente
// for a converted lead.
type CaseFromLeadParams struct {
	OriginLeadID uuid.UUID
	Titulo       string
	Notas        string
	Nombre       *string
	Email        *string
	Telefono     *string
}

// CaseRef identifies the case produced (or found) for a lead.
type CaseRef struct {
	ID      uuid.UUID
	Created bool
}

// CaseCreator is the port into the cases module. Implementations must be
// idempotent on OriginLeadID: a second call returns the existing case.
type CaseCreator interface {
	CreateForLead(ctx context.Context, params CaseFromLeadParams) (CaseRef, error)
}

// ConversionResult is the linkage produced by Convert. Exactly one of the
// two ids is set.
type ConversionResult struct {
	CRMLeadID *uuid.UUID
	CaseID    *uuid.UUID
}

// Convert turns a triaged lead into its CRM artifact. The operation is
// idempotent: an already-converted lead returns its existing linkage and
// nothing is duplicated. The target record is created before the source
// lead is marked, so a lead is never flagged converted without a real
// linked record.
func (s *Service) Convert(ctx context.Context, id uuid.UUID, target ConversionTarget) (ConversionResult, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return ConversionResult{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return ConversionResult{}, apperr.Storage("could not load lead", err)
	}

	if lead.CRMCaseID != nil {
		return ConversionResult{CaseID: lead.CRMCaseID}, nil
	}
	if lead.CRMLeadID != nil {
		return ConversionResult{CRMLeadID: lead.CRMLeadID}, nil
	}

	switch target {
	case TargetCRM:
		return s.convertToCRMLead(ctx, lead)
	case TargetCase, "":
		return s.convertToCase(ctx, lead)
	default:
		return ConversionResult{}, apperr.InvalidInput("invalid conversion target: " + string(target))
	}
}

func (s *Service) convertToCRMLead(ctx context.Context, lead repository.Lead) (ConversionResult, error) {
	crmLead, _, err := s.repo.InsertCRMLead(ctx, lead)
	if err != nil {
		return ConversionResult{}, apperr.Storage("could not create crm lead", err)
	}

	if err := s.repo.MarkConverted(ctx, lead.ID, &crmLead.ID, nil, "crm_leads"); err != nil {
		// The target exists but the source is not flagged yet. A retry will
		// find the existing crm_leads row via the origin lookup.
		return ConversionResult{}, apperr.Storage("could not mark lead as converted", err)
	}

	s.bus.Publish(ctx, events.LeadConverted{BaseEvent: events.NewBaseEvent(), LeadID: lead.ID, CRMLeadID: &crmLead.ID})
	return ConversionResult{CRMLeadID: &crmLead.ID}, nil
}

func (s *Service) convertToCase(ctx context.Context, lead repository.Lead) (ConversionResult, error) {
	if s.caseCreator == nil {
		return ConversionResult{}, apperr.Storage("case conversion is not available", nil)
	}

	notas, err := leadSnapshotJSON(lead)
	if err != nil {
		return ConversionResult{}, apperr.Storage("could not build case notes", err)
	}

	ref, err := s.caseCreator.CreateForLead(ctx, CaseFromLeadParams{
		OriginLeadID: lead.ID,
		Titulo:       CaseTitle(lead),
		Notas:        notas,
		Nombre:       lead.Nombre,
		Email:        lead.Email,
		Telefono:     lead.Telefono,
	})
	if err != nil {
		return ConversionResult{}, apperr.Storage("could not create case", err)
	}

	if err := s.repo.MarkConverted(ctx, lead.ID, nil, &ref.ID, "casos"); err != nil {
		return ConversionResult{}, apperr.Storage("could not mark lead as converted", err)
	}

	s.bus.Publish(ctx, events.LeadConverted{BaseEvent: events.NewBaseEvent(), LeadID: lead.ID, CaseID: &ref.ID})
	return ConversionResult{CaseID: &ref.ID}, nil
}

// CaseTitle builds the expediente title from the lead's contact name and
// property city, plus the size when known.
func CaseTitle(lead repository.Lead) string {
	parts := make([]string, 0, 3)
	if lead.Nombre != nil && strings.TrimSpace(*lead.Nombre) != "" {
		parts = append(parts, strings.TrimSpace(*lead.Nombre))
	}
	if lead.Ciudad != nil && strings.TrimSpace(*lead.Ciudad) != "" {
		parts = append(parts, strings.TrimSpace(*lead.Ciudad))
	}
	if len(parts) == 0 {
		parts = append(parts, "Expediente")
	}
	title := strings.Join(parts, " - ")
	if lead.SizeM2 != nil {
		title = fmt.Sprintf("%s (%dm2)", title, *lead.SizeM2)
	}
	return title
}

// leadSnapshot is the structured audit snapshot embedded in the case notes.
type leadSnapshot struct {
	LeadID    uuid.UUID       `json:"leadId"`
	Source    string          `json:"source"`
	Nombre    *string         `json:"nombre,omitempty"`
	Telefono  *string         `json:"telefono,omitempty"`
	Email     *string         `json:"email,omitempty"`
	Direccion *string         `json:"direccion,omitempty"`
	Ciudad    *string         `json:"ciudad,omitempty"`
	Tipo      *string         `json:"tipo,omitempty"`
	SizeM2    *int            `json:"sizeM2,omitempty"`
	ResultMin *float64        `json:"resultMin,omitempty"`
	ResultMax *float64        `json:"resultMax,omitempty"`
	UTM       json.RawMessage `json:"utm,omitempty"`
}

func leadSnapshotJSON(lead repository.Lead) (string, error) {
	snapshot := leadSnapshot{
		LeadID:    lead.ID,
		Source:    lead.Source,
		Nombre:    lead.Nombre,
		Telefono:  lead.Telefono,
		Email:     lead.Email,
		Direccion: lead.Direccion,
		Ciudad:    lead.Ciudad,
		Tipo:      lead.Tipo,
		SizeM2:    lead.SizeM2,
		ResultMin: lead.ResultMin,
		ResultMax: lead.ResultMax,
		UTM:       extractUTM(lead.Raw),
	}
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// extractUTM pulls the utm block out of the verbatim payload when present.
// The raw payload itself is audit-only and never parsed beyond this.
func extractUTM(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var envelope struct {
		UTM json.RawMessage `json:"utm"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	return envelope.UTM
}
