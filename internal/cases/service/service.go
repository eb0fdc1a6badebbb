// Package service implements case management: staff CRUD, opening cases
// from converted leads, the chat channel and the anonymous tracking view.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"hipotecas_portal_backend/internal/adapters/storage"
	"hipotecas_portal_backend/internal/cases/domain"
	"hipotecas_portal_backend/internal/cases/repository"
	"hipotecas_portal_backend/internal/events"
	"hipotecas_portal_backend/platform/apperr"
	"hipotecas_portal_backend/platform/logger"
)

const (
	MaxPageSize     = 200
	defaultPageSize = 50

	maxMessageLength = 4000
)

type Service struct {
	repo    repository.CasesRepository
	storage storage.StorageService
	bucket  string
	bus     events.Bus
	log     *logger.Logger
}

func New(repo repository.CasesRepository, store storage.StorageService, bucket string, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, storage: store, bucket: bucket, bus: bus, log: log}
}

type CreateCaseInput struct {
	Titulo          string
	Notas           *string
	ClienteNombre   string
	ClienteEmail    *string
	ClienteTelefono *string
}

// Create opens a case by hand from the staff panel.
func (s *Service) Create(ctx context.Context, input CreateCaseInput) (repository.Caso, error) {
	titulo := strings.TrimSpace(input.Titulo)
	if titulo == "" {
		return repository.Caso{}, apperr.InvalidInput("titulo is required")
	}

	var clienteID *uuid.UUID
	if strings.TrimSpace(input.ClienteNombre) != "" {
		cliente, err := s.repo.FindOrCreateCliente(ctx, repository.CreateClienteParams{
			Nombre:   strings.TrimSpace(input.ClienteNombre),
			Email:    input.ClienteEmail,
			Telefono: input.ClienteTelefono,
		})
		if err != nil {
			return repository.Caso{}, apperr.Storage("could not create cliente", err)
		}
		clienteID = &cliente.ID
	}

	token, err := domain.NewTrackingToken()
	if err != nil {
		return repository.Caso{}, apperr.Storage("could not generate tracking token", err)
	}

	caso, _, err := s.repo.Create(ctx, repository.CreateCasoParams{
		ClienteID:     clienteID,
		Titulo:        titulo,
		Estado:        string(domain.EstadoEnEstudio),
		Progreso:      domain.InitialProgreso,
		Notas:         input.Notas,
		TrackingToken: token,
	})
	if err != nil {
		return repository.Caso{}, apperr.Storage("could not create caso", err)
	}
	return caso, nil
}

type CreateForLeadInput struct {
	OriginLeadID uuid.UUID
	Titulo       string
	Notas        *string
	Nombre       string
	Email        *string
	Telefono     *string
}

// CreateForLead opens a case for a converted lead. It is idempotent on the
// origin lead: concurrent or repeated conversions of the same lead all
// resolve to the single case that won the insert.
func (s *Service) CreateForLead(ctx context.Context, input CreateForLeadInput) (repository.Caso, bool, error) {
	var clienteID *uuid.UUID
	if strings.TrimSpace(input.Nombre) != "" {
		cliente, err := s.repo.FindOrCreateCliente(ctx, repository.CreateClienteParams{
			Nombre:   strings.TrimSpace(input.Nombre),
			Email:    input.Email,
			Telefono: input.Telefono,
		})
		if err != nil {
			return repository.Caso{}, false, apperr.Storage("could not create cliente", err)
		}
		clienteID = &cliente.ID
	}

	token, err := domain.NewTrackingToken()
	if err != nil {
		return repository.Caso{}, false, apperr.Storage("could not generate tracking token", err)
	}

	titulo := strings.TrimSpace(input.Titulo)
	if titulo == "" {
		titulo = "Expediente"
	}

	caso, created, err := s.repo.Create(ctx, repository.CreateCasoParams{
		ClienteID:     clienteID,
		OriginLeadID:  &input.OriginLeadID,
		Titulo:        titulo,
		Estado:        string(domain.EstadoEnEstudio),
		Progreso:      domain.InitialProgreso,
		Notas:         input.Notas,
		TrackingToken: token,
	})
	if err != nil {
		return repository.Caso{}, false, apperr.Storage("could not create caso", err)
	}
	return caso, created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Caso, error) {
	caso, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return repository.Caso{}, apperr.NotFound("caso not found")
	}
	if err != nil {
		return repository.Caso{}, apperr.Storage("could not load caso", err)
	}
	return caso, nil
}

type ListInput struct {
	Estado string
	Search string
	Limit  int
	Offset int
}

func (s *Service) List(ctx context.Context, input ListInput) ([]repository.Caso, int, error) {
	filter := repository.ListCasosFilter{
		Search: input.Search,
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	if input.Estado != "" {
		estado, err := domain.ParseEstado(input.Estado)
		if err != nil {
			return nil, 0, apperr.InvalidInput(err.Error())
		}
		v := string(estado)
		filter.Estado = &v
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	casos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Storage("could not list casos", err)
	}
	return casos, total, nil
}

type UpdateCaseInput struct {
	Titulo   *string
	Estado   *string
	Progreso *int
	Notas    *string
}

// Update applies a staff edit. Estado changes are validated against the
// closed set and recorded as a client-visible timeline entry.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateCaseInput) (repository.Caso, error) {
	params := repository.UpdateCasoParams{
		Titulo:   input.Titulo,
		Progreso: input.Progreso,
		Notas:    input.Notas,
	}

	var estadoChanged *domain.Estado
	if input.Estado != nil {
		estado, err := domain.ParseEstado(*input.Estado)
		if err != nil {
			return repository.Caso{}, apperr.InvalidInput(err.Error())
		}
		current, err := s.Get(ctx, id)
		if err != nil {
			return repository.Caso{}, err
		}
		if current.Estado != string(estado) {
			estadoChanged = &estado
		}
		v := string(estado)
		params.Estado = &v
	}

	caso, err := s.repo.Update(ctx, id, params)
	if err == repository.ErrNotFound {
		return repository.Caso{}, apperr.NotFound("caso not found")
	}
	if err != nil {
		return repository.Caso{}, apperr.Storage("could not update caso", err)
	}

	if estadoChanged != nil {
		_, logErr := s.repo.InsertLog(ctx, repository.InsertLogParams{
			CasoID:         id,
			Texto:          fmt.Sprintf("Estado actualizado a %s", *estadoChanged),
			VisibleCliente: true,
		})
		if logErr != nil {
			s.log.Error("estado change log not recorded", slog.String("caso_id", id.String()), slog.Any("error", logErr))
		}
	}
	return caso, nil
}

type AddLogInput struct {
	Texto          string
	VisibleCliente bool
}

func (s *Service) AddLog(ctx context.Context, casoID uuid.UUID, input AddLogInput) (repository.CasoLog, error) {
	texto := strings.TrimSpace(input.Texto)
	if texto == "" {
		return repository.CasoLog{}, apperr.InvalidInput("texto is required")
	}
	if _, err := s.Get(ctx, casoID); err != nil {
		return repository.CasoLog{}, err
	}
	entry, err := s.repo.InsertLog(ctx, repository.InsertLogParams{
		CasoID:         casoID,
		Texto:          texto,
		VisibleCliente: input.VisibleCliente,
	})
	if err != nil {
		return repository.CasoLog{}, apperr.Storage("could not insert log", err)
	}
	return entry, nil
}

func (s *Service) ListLogs(ctx context.Context, casoID uuid.UUID) ([]repository.CasoLog, error) {
	if _, err := s.Get(ctx, casoID); err != nil {
		return nil, err
	}
	logs, err := s.repo.ListLogs(ctx, casoID, false)
	if err != nil {
		return nil, apperr.Storage("could not list logs", err)
	}
	return logs, nil
}

func (s *Service) ListMessages(ctx context.Context, casoID uuid.UUID) ([]repository.Mensaje, error) {
	if _, err := s.Get(ctx, casoID); err != nil {
		return nil, err
	}
	mensajes, err := s.repo.ListMensajes(ctx, casoID)
	if err != nil {
		return nil, apperr.Storage("could not list mensajes", err)
	}
	return mensajes, nil
}

// PostStaffMessage appends a gestor chat message. Staff writes never touch
// the unread flag; it belongs to client activity alone.
func (s *Service) PostStaffMessage(ctx context.Context, casoID uuid.UUID, body string) (repository.Mensaje, error) {
	body = strings.TrimSpace(body)
	if err := validateMessageBody(body); err != nil {
		return repository.Mensaje{}, err
	}
	if _, err := s.Get(ctx, casoID); err != nil {
		return repository.Mensaje{}, err
	}
	mensaje, err := s.repo.InsertMensaje(ctx, repository.InsertMensajeParams{
		CasoID: casoID,
		Sender: string(domain.SenderGestor),
		Body:   body,
	})
	if err != nil {
		return repository.Mensaje{}, apperr.Storage("could not insert mensaje", err)
	}
	return mensaje, nil
}

// MarkRead clears the unread-client-messages marker after staff review.
func (s *Service) MarkRead(ctx context.Context, casoID uuid.UUID) error {
	err := s.repo.SetUnreadFlag(ctx, casoID, false)
	if err == repository.ErrNotFound {
		return apperr.NotFound("caso not found")
	}
	if err != nil {
		return apperr.Storage("could not mark caso read", err)
	}
	return nil
}

func validateMessageBody(body string) error {
	if body == "" {
		return apperr.InvalidInput("message body is required")
	}
	if len(body) > maxMessageLength {
		return apperr.InvalidInput("message body too long")
	}
	return nil
}
