package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mensaje is one chat entry on a case. The table is append-only; messages
// are never edited or deleted. An attached document carries its display
// name, a retrievable URL and the object key inside the bucket, so the
// file stays reachable even when the URL was a short-lived presigned one.
type Mensaje struct {
	ID             uuid.UUID
	CasoID         uuid.UUID
	Sender         string
	Body           string
	AttachmentName *string
	AttachmentURL  *string
	AttachmentKey  *string
	CreatedAt      time.Time
}

type InsertMensajeParams struct {
	CasoID         uuid.UUID
	Sender         string
	Body           string
	AttachmentName *string
	AttachmentURL  *string
	AttachmentKey  *string
}

func (r *Repository) InsertMensaje(ctx context.Context, params InsertMensajeParams) (Mensaje, error) {
	var m Mensaje
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expediente_mensajes (caso_id, sender, body, attachment_name, attachment_url, attachment_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, caso_id, sender, body, attachment_name, attachment_url, attachment_key, created_at`,
		params.CasoID, params.Sender, params.Body, params.AttachmentName, params.AttachmentURL, params.AttachmentKey).
		Scan(&m.ID, &m.CasoID, &m.Sender, &m.Body, &m.AttachmentName, &m.AttachmentURL, &m.AttachmentKey, &m.CreatedAt)
	if err != nil {
		return Mensaje{}, fmt.Errorf("insert mensaje: %w", err)
	}
	return m, nil
}

// Conversations render top to bottom without re-sorting, so retrieval is
// strictly ascending; the id tiebreak keeps same-timestamp rows stable.
const listMensajesQuery = `
		SELECT id, caso_id, sender, body, attachment_name, attachment_url, attachment_key, created_at
		FROM expediente_mensajes
		WHERE caso_id = $1
		ORDER BY created_at ASC, id ASC`

// ListMensajes returns the full conversation oldest first.
func (r *Repository) ListMensajes(ctx context.Context, casoID uuid.UUID) ([]Mensaje, error) {
	rows, err := r.pool.Query(ctx, listMensajesQuery, casoID)
	if err != nil {
		return nil, fmt.Errorf("list mensajes: %w", err)
	}
	defer rows.Close()

	mensajes := make([]Mensaje, 0)
	for rows.Next() {
		var m Mensaje
		if err := rows.Scan(&m.ID, &m.CasoID, &m.Sender, &m.Body, &m.AttachmentName, &m.AttachmentURL, &m.AttachmentKey, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mensaje: %w", err)
		}
		mensajes = append(mensajes, m)
	}
	return mensajes, rows.Err()
}
