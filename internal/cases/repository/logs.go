package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CasoLog is a timeline entry on a case. Entries flagged visible_cliente
// appear on the public tracking page; the rest stay internal.
type CasoLog struct {
	ID             uuid.UUID
	CasoID         uuid.UUID
	Texto          string
	VisibleCliente bool
	CreatedAt      time.Time
}

type InsertLogParams struct {
	CasoID         uuid.UUID
	Texto          string
	VisibleCliente bool
}

func (r *Repository) InsertLog(ctx context.Context, params InsertLogParams) (CasoLog, error) {
	var l CasoLog
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expediente_logs (caso_id, texto, visible_cliente)
		VALUES ($1, $2, $3)
		RETURNING id, caso_id, texto, visible_cliente, created_at`,
		params.CasoID, params.Texto, params.VisibleCliente).
		Scan(&l.ID, &l.CasoID, &l.Texto, &l.VisibleCliente, &l.CreatedAt)
	if err != nil {
		return CasoLog{}, fmt.Errorf("insert log: %w", err)
	}
	return l, nil
}

// ListLogs returns timeline entries newest first. When visibleOnly is set,
// internal entries are filtered out for the public tracking view.
func (r *Repository) ListLogs(ctx context.Context, casoID uuid.UUID, visibleOnly bool) ([]CasoLog, error) {
	query := `
		SELECT id, caso_id, texto, visible_cliente, created_at
		FROM expediente_logs
		WHERE caso_id = $1`
	if visibleOnly {
		query += ` AND visible_cliente = true`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, casoID)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	logs := make([]CasoLog, 0)
	for rows.Next() {
		var l CasoLog
		if err := rows.Scan(&l.ID, &l.CasoID, &l.Texto, &l.VisibleCliente, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
