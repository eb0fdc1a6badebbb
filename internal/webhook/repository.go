package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConfigNotFound is returned when the valorador config row is missing.
var ErrConfigNotFound = errors.New("valorador config not found")

// Repository provides access to the valorador widget configuration.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webhook repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ValoradorConfig is the widget display configuration served to the embed
// script. Settings is an opaque JSON document (texts, colors); the backend
// never interprets it.
type ValoradorConfig struct {
	Settings  json.RawMessage
	UpdatedAt time.Time
}

// GetValoradorConfig returns the singleton widget configuration.
func (r *Repository) GetValoradorConfig(ctx context.Context) (ValoradorConfig, error) {
	var cfg ValoradorConfig
	err := r.pool.QueryRow(ctx, `
		SELECT settings, updated_at FROM valorador_config WHERE id = 1
	`).Scan(&cfg.Settings, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ValoradorConfig{}, ErrConfigNotFound
	}
	return cfg, err
}

// UpdateValoradorConfig replaces the widget configuration.
func (r *Repository) UpdateValoradorConfig(ctx context.Context, settings json.RawMessage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO valorador_config (id, settings, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = now()
	`, settings)
	return err
}
