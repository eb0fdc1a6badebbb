package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Caso is a mortgage case (expediente) as stored.
type Caso struct {
	ID                   uuid.UUID
	ClienteID            *uuid.UUID
	OriginLeadID         *uuid.UUID
	Titulo               string
	Estado               string
	Progreso             int
	Notas                *string
	TrackingToken        string
	UnreadClientMessages bool
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Cliente fields joined for listing and the public view.
	ClienteNombre   *string
	ClienteEmail    *string
	ClienteTelefono *string
}

const casoColumns = `c.id, c.cliente_id, c.origin_lead_id, c.titulo, c.estado, c.progreso,
	c.notas, c.tracking_token, c.unread_client_messages, c.created_at, c.updated_at,
	cl.nombre, cl.email, cl.telefono`

const casoFrom = ` FROM casos c LEFT JOIN clientes cl ON cl.id = c.cliente_id`

func scanCaso(row pgx.Row) (Caso, error) {
	var c Caso
	err := row.Scan(
		&c.ID, &c.ClienteID, &c.OriginLeadID, &c.Titulo, &c.Estado, &c.Progreso,
		&c.Notas, &c.TrackingToken, &c.UnreadClientMessages, &c.CreatedAt, &c.UpdatedAt,
		&c.ClienteNombre, &c.ClienteEmail, &c.ClienteTelefono,
	)
	return c, err
}

type CreateCasoParams struct {
	ClienteID     *uuid.UUID
	OriginLeadID  *uuid.UUID
	Titulo        string
	Estado        string
	Progreso      int
	Notas         *string
	TrackingToken string
}

// Create inserts a case. When OriginLeadID is set the insert races with
// concurrent conversions of the same lead: ON CONFLICT DO NOTHING makes
// exactly one row win, and the loser re-fetches the winner.
func (r *Repository) Create(ctx context.Context, params CreateCasoParams) (Caso, bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO casos (cliente_id, origin_lead_id, titulo, estado, progreso, notas, tracking_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (origin_lead_id) DO NOTHING
		RETURNING id`,
		params.ClienteID, params.OriginLeadID, params.Titulo, params.Estado,
		params.Progreso, params.Notas, params.TrackingToken,
	).Scan(&id)
	if err == nil {
		caso, getErr := r.GetByID(ctx, id)
		return caso, true, getErr
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Caso{}, false, fmt.Errorf("insert caso: %w", err)
	}
	if params.OriginLeadID == nil {
		// No conflict target without an origin lead; ErrNoRows is a real failure.
		return Caso{}, false, fmt.Errorf("insert caso: %w", err)
	}
	existing, err := r.GetByOriginLead(ctx, *params.OriginLeadID)
	if err != nil {
		return Caso{}, false, err
	}
	return existing, false, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Caso, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+casoColumns+casoFrom+` WHERE c.id = $1`, id)
	caso, err := scanCaso(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Caso{}, ErrNotFound
	}
	if err != nil {
		return Caso{}, fmt.Errorf("get caso: %w", err)
	}
	return caso, nil
}

func (r *Repository) GetByOriginLead(ctx context.Context, leadID uuid.UUID) (Caso, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+casoColumns+casoFrom+` WHERE c.origin_lead_id = $1`, leadID)
	caso, err := scanCaso(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Caso{}, ErrNotFound
	}
	if err != nil {
		return Caso{}, fmt.Errorf("get caso by origin lead: %w", err)
	}
	return caso, nil
}

// GetByTrackingToken resolves the anonymous tracking capability. The token
// is matched exactly; callers mask ErrNotFound before it reaches a client.
func (r *Repository) GetByTrackingToken(ctx context.Context, token string) (Caso, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+casoColumns+casoFrom+` WHERE c.tracking_token = $1`, token)
	caso, err := scanCaso(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Caso{}, ErrNotFound
	}
	if err != nil {
		return Caso{}, fmt.Errorf("get caso by token: %w", err)
	}
	return caso, nil
}

type ListCasosFilter struct {
	Estado *string
	Search string
	Limit  int
	Offset int
}

// List returns cases newest first plus the total matching count.
func (r *Repository) List(ctx context.Context, filter ListCasosFilter) ([]Caso, int, error) {
	where, args := buildCasoListWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*)` + casoFrom + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count casos: %w", err)
	}

	query := `SELECT ` + casoColumns + casoFrom + where +
		fmt.Sprintf(` ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list casos: %w", err)
	}
	defer rows.Close()

	casos := make([]Caso, 0)
	for rows.Next() {
		caso, err := scanCaso(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan caso: %w", err)
		}
		casos = append(casos, caso)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return casos, total, nil
}

func buildCasoListWhere(filter ListCasosFilter) (string, []interface{}) {
	clauses := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	argIdx := 1

	if filter.Estado != nil {
		clauses = append(clauses, fmt.Sprintf("c.estado = $%d", argIdx))
		args = append(args, *filter.Estado)
		argIdx++
	}
	if filter.Search != "" {
		pattern := "%" + EscapeLike(filter.Search) + "%"
		clauses = append(clauses, fmt.Sprintf(
			`(c.titulo ILIKE $%d ESCAPE '\' OR cl.nombre ILIKE $%d ESCAPE '\' OR cl.email ILIKE $%d ESCAPE '\')`,
			argIdx, argIdx, argIdx))
		args = append(args, pattern)
		argIdx++
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// EscapeLike neutralizes LIKE metacharacters in user-supplied search text.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

type UpdateCasoParams struct {
	Titulo   *string
	Estado   *string
	Progreso *int
	Notas    *string
}

// Update applies a partial staff edit. Fields left nil keep their value.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateCasoParams) (Caso, error) {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	argIdx := 1

	if params.Titulo != nil {
		sets = append(sets, fmt.Sprintf("titulo = $%d", argIdx))
		args = append(args, *params.Titulo)
		argIdx++
	}
	if params.Estado != nil {
		sets = append(sets, fmt.Sprintf("estado = $%d", argIdx))
		args = append(args, *params.Estado)
		argIdx++
	}
	if params.Progreso != nil {
		sets = append(sets, fmt.Sprintf("progreso = $%d", argIdx))
		args = append(args, *params.Progreso)
		argIdx++
	}
	if params.Notas != nil {
		sets = append(sets, fmt.Sprintf("notas = $%d", argIdx))
		args = append(args, *params.Notas)
		argIdx++
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE casos SET %s WHERE id = $%d`, strings.Join(sets, ", "), argIdx)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return Caso{}, fmt.Errorf("update caso: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Caso{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// SetUnreadFlag raises or clears the unread-client-messages marker.
func (r *Repository) SetUnreadFlag(ctx context.Context, id uuid.UUID, unread bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE casos SET unread_client_messages = $1, updated_at = now() WHERE id = $2`, unread, id)
	if err != nil {
		return fmt.Errorf("set unread flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
