// Package adapters wires modules together without direct imports between
// bounded contexts.
package adapters

import (
	"context"
	"strings"

	casesservice "hipotecas_portal_backend/internal/cases/service"
	leadsservice "hipotecas_portal_backend/internal/leads/service"
)

// CaseCreatorAdapter adapts the cases service to the leads conversion port.
type CaseCreatorAdapter struct {
	cases *casesservice.Service
}

func NewCaseCreatorAdapter(cases *casesservice.Service) *CaseCreatorAdapter {
	return &CaseCreatorAdapter{cases: cases}
}

// CreateForLead opens (or finds) the expediente for a converted lead.
// Idempotency on the origin lead is provided by the cases service itself.
func (a *CaseCreatorAdapter) CreateForLead(ctx context.Context, params leadsservice.CaseFromLeadParams) (leadsservice.CaseRef, error) {
	input := casesservice.CreateForLeadInput{
		OriginLeadID: params.OriginLeadID,
		Titulo:       params.Titulo,
		Email:        params.Email,
		Telefono:     params.Telefono,
	}
	if notas := strings.TrimSpace(params.Notas); notas != "" {
		input.Notas = &notas
	}
	if params.Nombre != nil {
		input.Nombre = *params.Nombre
	}

	caso, created, err := a.cases.CreateForLead(ctx, input)
	if err != nil {
		return leadsservice.CaseRef{}, err
	}
	return leadsservice.CaseRef{ID: caso.ID, Created: created}, nil
}

var _ leadsservice.CaseCreator = (*CaseCreatorAdapter)(nil)
