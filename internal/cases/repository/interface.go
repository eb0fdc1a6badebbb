package repository

import (
	"context"

	"github.com/google/uuid"
)

// CasesRepository is the persistence surface the cases service depends on.
type CasesRepository interface {
	Create(ctx context.Context, params CreateCasoParams) (Caso, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (Caso, error)
	GetByOriginLead(ctx context.Context, leadID uuid.UUID) (Caso, error)
	GetByTrackingToken(ctx context.Context, token string) (Caso, error)
	List(ctx context.Context, filter ListCasosFilter) ([]Caso, int, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateCasoParams) (Caso, error)
	SetUnreadFlag(ctx context.Context, id uuid.UUID, unread bool) error

	FindOrCreateCliente(ctx context.Context, params CreateClienteParams) (Cliente, error)

	InsertMensaje(ctx context.Context, params InsertMensajeParams) (Mensaje, error)
	ListMensajes(ctx context.Context, casoID uuid.UUID) ([]Mensaje, error)

	InsertLog(ctx context.Context, params InsertLogParams) (CasoLog, error)
	ListLogs(ctx context.Context, casoID uuid.UUID, visibleOnly bool) ([]CasoLog, error)
}

var _ CasesRepository = (*Repository)(nil)
