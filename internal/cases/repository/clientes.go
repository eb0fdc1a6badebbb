package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Cliente is the person behind one or more cases.
type Cliente struct {
	ID        uuid.UUID
	Nombre    string
	Email     *string
	Telefono  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateClienteParams struct {
	Nombre   string
	Email    *string
	Telefono *string
}

// FindOrCreateCliente reuses an existing cliente matched by email so that a
// returning contact does not fork into duplicate records. Without an email
// there is nothing reliable to match on and a fresh row is created.
func (r *Repository) FindOrCreateCliente(ctx context.Context, params CreateClienteParams) (Cliente, error) {
	if params.Email != nil && *params.Email != "" {
		var c Cliente
		err := r.pool.QueryRow(ctx, `
			SELECT id, nombre, email, telefono, created_at, updated_at
			FROM clientes WHERE lower(email) = lower($1)`, *params.Email).
			Scan(&c.ID, &c.Nombre, &c.Email, &c.Telefono, &c.CreatedAt, &c.UpdatedAt)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return Cliente{}, fmt.Errorf("find cliente: %w", err)
		}
	}

	var c Cliente
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clientes (nombre, email, telefono)
		VALUES ($1, $2, $3)
		RETURNING id, nombre, email, telefono, created_at, updated_at`,
		params.Nombre, params.Email, params.Telefono).
		Scan(&c.ID, &c.Nombre, &c.Email, &c.Telefono, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Cliente{}, fmt.Errorf("insert cliente: %w", err)
	}
	return c, nil
}
