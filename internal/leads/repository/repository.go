// Package repository provides PostgreSQL persistence for leads and CRM leads.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hipotecas_portal_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

// Repository provides access to the leads tables.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is the raw intake record. Structured fields are a denormalized
// projection of Raw, which keeps the original payload verbatim for audit.
type Lead struct {
	ID     uuid.UUID
	Source string

	Nombre   *string
	Telefono *string
	Email    *string

	Direccion      *string
	Ciudad         *string
	Tipo           *string
	SizeM2         *int
	Habitaciones   *int
	Banos          *int
	HasGarage      *bool
	HasTerrace     *bool
	EstadoInmueble *string

	ResultMin *float64
	ResultMax *float64
	Lat       *float64
	Lng       *float64

	Status        domain.Status
	Urgente       bool
	Priority      *string
	DueDate       *time.Time
	ProcessedAt   *time.Time
	ProcessedNote *string

	CRMLeadID  *uuid.UUID
	CRMCaseID  *uuid.UUID
	ExportedAt *time.Time
	ExportedTo *string

	Raw json.RawMessage

	CreatedAt time.Time
}

const leadColumns = `
	id, source, nombre, telefono, email,
	direccion, ciudad, tipo, size_m2, habitaciones, banos, has_garage, has_terrace, estado_inmueble,
	result_min, result_max, lat, lng,
	status, urgente, priority, due_date, processed_at, processed_note,
	crm_lead_id, crm_case_id, exported_at, exported_to,
	raw, created_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	var status string
	err := row.Scan(
		&lead.ID, &lead.Source, &lead.Nombre, &lead.Telefono, &lead.Email,
		&lead.Direccion, &lead.Ciudad, &lead.Tipo, &lead.SizeM2, &lead.Habitaciones, &lead.Banos,
		&lead.HasGarage, &lead.HasTerrace, &lead.EstadoInmueble,
		&lead.ResultMin, &lead.ResultMax, &lead.Lat, &lead.Lng,
		&status, &lead.Urgente, &lead.Priority, &lead.DueDate, &lead.ProcessedAt, &lead.ProcessedNote,
		&lead.CRMLeadID, &lead.CRMCaseID, &lead.ExportedAt, &lead.ExportedTo,
		&lead.Raw, &lead.CreatedAt,
	)
	lead.Status = domain.Status(status)
	return lead, err
}

// CreateLeadParams carries the normalized projection of an ingested payload.
type CreateLeadParams struct {
	Source string

	Nombre   *string
	Telefono *string
	Email    *string

	Direccion      *string
	Ciudad         *string
	Tipo           *string
	SizeM2         *int
	Habitaciones   *int
	Banos          *int
	HasGarage      *bool
	HasTerrace     *bool
	EstadoInmueble *string

	ResultMin *float64
	ResultMax *float64
	Lat       *float64
	Lng       *float64

	Raw json.RawMessage
}

// Create inserts a new lead in status "new" and returns it.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			source, nombre, telefono, email,
			direccion, ciudad, tipo, size_m2, habitaciones, banos, has_garage, has_terrace, estado_inmueble,
			result_min, result_max, lat, lng, status, raw
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING `+leadColumns,
		params.Source, params.Nombre, params.Telefono, params.Email,
		params.Direccion, params.Ciudad, params.Tipo, params.SizeM2, params.Habitaciones, params.Banos,
		params.HasGarage, params.HasTerrace, params.EstadoInmueble,
		params.ResultMin, params.ResultMax, params.Lat, params.Lng,
		string(domain.StatusNew), normalizeRaw(params.Raw),
	)
	return scanLead(row)
}

// GetByID loads a single lead.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// ListLeadsParams are the triage listing filters.
type ListLeadsParams struct {
	Status     *domain.Status
	Urgent     *bool
	Overdue    bool
	Incomplete bool
	Search     string
	Limit      int
	Offset     int
}

// List returns a page of leads newest-first plus the total count for the
// same filter set.
func (r *Repository) List(ctx context.Context, params ListLeadsParams) ([]Lead, int, error) {
	whereClause, args := buildLeadListWhere(params)

	var count int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, count, nil
}

func buildLeadListWhere(params ListLeadsParams) (string, []interface{}) {
	whereClauses := []string{"TRUE"}
	args := make([]interface{}, 0, 4)
	argIdx := 1

	if params.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*params.Status))
		argIdx++
	}

	if params.Urgent != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("urgente = $%d", argIdx))
		args = append(args, *params.Urgent)
		argIdx++
	}

	if params.Overdue {
		whereClauses = append(whereClauses, "due_date IS NOT NULL AND due_date < CURRENT_DATE")
	}

	if params.Incomplete {
		whereClauses = append(whereClauses, "(telefono IS NULL OR telefono = '') AND (email IS NULL OR email = '')")
	}

	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := "%" + EscapeLike(search) + "%"
		whereClauses = append(whereClauses, fmt.Sprintf(
			`(nombre ILIKE $%d ESCAPE '\' OR telefono ILIKE $%d ESCAPE '\' OR email ILIKE $%d ESCAPE '\' OR ciudad ILIKE $%d ESCAPE '\' OR direccion ILIKE $%d ESCAPE '\')`,
			argIdx, argIdx, argIdx, argIdx, argIdx,
		))
		args = append(args, pattern)
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args
}

// EscapeLike escapes LIKE wildcards so a search term behaves as a literal
// substring match. The resulting pattern must be used with ESCAPE '\'.
func EscapeLike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `%`, `\%`)
	term = strings.ReplaceAll(term, `_`, `\_`)
	return term
}

// CountByStatus returns lead counts grouped by status.
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountUrgent returns the number of urgent, unconverted leads.
func (r *Repository) CountUrgent(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM leads WHERE urgente = TRUE AND status <> $1
	`, string(domain.StatusConverted)).Scan(&count)
	return count, err
}

// CountOverdue returns the number of leads whose due date has passed.
func (r *Repository) CountOverdue(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM leads WHERE due_date IS NOT NULL AND due_date < CURRENT_DATE AND status <> $1
	`, string(domain.StatusConverted)).Scan(&count)
	return count, err
}

// UpdateTriageParams is a partial update of a lead's triage fields.
// Nil fields are left untouched.
type UpdateTriageParams struct {
	Status         *domain.Status
	Urgente        *bool
	Priority       *string
	DueDate        *time.Time
	ProcessedNote  *string
	StampProcessed bool
}

// UpdateTriage applies a partial triage update and returns the updated lead.
func (r *Repository) UpdateTriage(ctx context.Context, id uuid.UUID, params UpdateTriageParams) (Lead, error) {
	setClauses := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)
	argIdx := 1

	if params.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*params.Status))
		argIdx++
	}
	if params.Urgente != nil {
		setClauses = append(setClauses, fmt.Sprintf("urgente = $%d", argIdx))
		args = append(args, *params.Urgente)
		argIdx++
	}
	if params.Priority != nil {
		setClauses = append(setClauses, fmt.Sprintf("priority = $%d", argIdx))
		args = append(args, *params.Priority)
		argIdx++
	}
	if params.DueDate != nil {
		setClauses = append(setClauses, fmt.Sprintf("due_date = $%d", argIdx))
		args = append(args, *params.DueDate)
		argIdx++
	}
	if params.ProcessedNote != nil {
		setClauses = append(setClauses, fmt.Sprintf("processed_note = $%d", argIdx))
		args = append(args, *params.ProcessedNote)
		argIdx++
	}
	if params.StampProcessed {
		setClauses = append(setClauses, "processed_at = now()")
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, leadColumns)

	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// MarkConverted stamps the conversion linkage on a lead. Exactly one of
// crmLeadID/caseID is expected to be set.
func (r *Repository) MarkConverted(ctx context.Context, id uuid.UUID, crmLeadID, caseID *uuid.UUID, exportedTo string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $2, crm_lead_id = COALESCE($3, crm_lead_id), crm_case_id = COALESCE($4, crm_case_id),
		    exported_at = now(), exported_to = $5, processed_at = COALESCE(processed_at, now())
		WHERE id = $1
	`, id, string(domain.StatusConverted), crmLeadID, caseID, exportedTo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}
