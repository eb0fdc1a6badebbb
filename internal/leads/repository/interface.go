package repository

import (
	"context"

	"github.com/google/uuid"
)

// LeadsRepository is the persistence contract consumed by the lead services.
// The concrete *Repository implements it; tests substitute fakes.
type LeadsRepository interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListLeadsParams) ([]Lead, int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountUrgent(ctx context.Context) (int, error)
	CountOverdue(ctx context.Context) (int, error)
	UpdateTriage(ctx context.Context, id uuid.UUID, params UpdateTriageParams) (Lead, error)
	MarkConverted(ctx context.Context, id uuid.UUID, crmLeadID, caseID *uuid.UUID, exportedTo string) error

	GetCRMLeadByOrigin(ctx context.Context, originLeadID uuid.UUID) (CRMLead, error)
	InsertCRMLead(ctx context.Context, lead Lead) (CRMLead, bool, error)
}

var _ LeadsRepository = (*Repository)(nil)
