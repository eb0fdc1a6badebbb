package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrCRMLeadNotFound is returned when no CRM lead exists for an origin lead.
var ErrCRMLeadNotFound = errors.New("crm lead not found")

// CRMLead is the exported, deduplicated record produced by conversion.
// Contact, property and valuation fields are copied from the source lead
// at export time.
type CRMLead struct {
	ID           uuid.UUID
	OriginLeadID uuid.UUID

	Nombre   *string
	Telefono *string
	Email    *string

	Direccion *string
	Ciudad    *string
	Tipo      *string
	SizeM2    *int

	ResultMin *float64
	ResultMax *float64

	CreatedAt time.Time
}

const crmLeadColumns = `
	id, origin_lead_id, nombre, telefono, email,
	direccion, ciudad, tipo, size_m2, result_min, result_max, created_at`

func scanCRMLead(row pgx.Row) (CRMLead, error) {
	var c CRMLead
	err := row.Scan(
		&c.ID, &c.OriginLeadID, &c.Nombre, &c.Telefono, &c.Email,
		&c.Direccion, &c.Ciudad, &c.Tipo, &c.SizeM2, &c.ResultMin, &c.ResultMax, &c.CreatedAt,
	)
	return c, err
}

// GetCRMLeadByOrigin looks up the CRM lead linked to a source lead.
func (r *Repository) GetCRMLeadByOrigin(ctx context.Context, originLeadID uuid.UUID) (CRMLead, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+crmLeadColumns+` FROM crm_leads WHERE origin_lead_id = $1`, originLeadID)
	crmLead, err := scanCRMLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return CRMLead{}, ErrCRMLeadNotFound
	}
	return crmLead, err
}

// InsertCRMLead inserts a denormalized CRM lead for the given source lead.
// The UNIQUE constraint on origin_lead_id makes a concurrent duplicate
// insert a no-op; callers must re-fetch on the zero-row case and treat the
// existing record as the conversion result.
func (r *Repository) InsertCRMLead(ctx context.Context, lead Lead) (CRMLead, bool, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO crm_leads (origin_lead_id, nombre, telefono, email, direccion, ciudad, tipo, size_m2, result_min, result_max)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (origin_lead_id) DO NOTHING
		RETURNING `+crmLeadColumns,
		lead.ID, lead.Nombre, lead.Telefono, lead.Email,
		lead.Direccion, lead.Ciudad, lead.Tipo, lead.SizeM2, lead.ResultMin, lead.ResultMax,
	)

	crmLead, err := scanCRMLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Someone else converted this lead first; return the existing row.
		existing, lookupErr := r.GetCRMLeadByOrigin(ctx, lead.ID)
		if lookupErr != nil {
			return CRMLead{}, false, lookupErr
		}
		return existing, false, nil
	}
	if err != nil {
		return CRMLead{}, false, err
	}
	return crmLead, true, nil
}
