// Package service implements lead triage and conversion on top of the
// leads repository.
package service

import (
	"context"
	"time"

	"hipotecas_portal_backend/internal/events"
	"hipotecas_portal_backend/internal/leads/domain"
	"hipotecas_portal_backend/internal/leads/repository"
	"hipotecas_portal_backend/platform/apperr"
	"hipotecas_portal_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MaxPageSize caps the triage listing page size regardless of the
// requested limit.
const MaxPageSize = 200

const defaultPageSize = 50

// Service implements lead triage operations.
type Service struct {
	repo        repository.LeadsRepository
	caseCreator CaseCreator
	bus         events.Bus
	log         *logger.Logger
}

// New creates the leads service. The case creator is injected separately
// (see SetCaseCreator) because the cases module is wired after this one.
func New(repo repository.LeadsRepository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetCaseCreator injects the cases-module port used by case conversion.
func (s *Service) SetCaseCreator(creator CaseCreator) {
	s.caseCreator = creator
}

// Ingest stores a normalized lead submission. Duplicate submissions create
// duplicate rows by design; dedup happens at conversion time.
func (s *Service) Ingest(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Lead{}, apperr.Storage("could not store lead", err)
	}

	event := events.LeadReceived{BaseEvent: events.NewBaseEvent(), LeadID: lead.ID, Source: lead.Source}
	if lead.Nombre != nil {
		event.Nombre = *lead.Nombre
	}
	if lead.Ciudad != nil {
		event.Ciudad = *lead.Ciudad
	}
	s.bus.Publish(ctx, event)

	return lead, nil
}

// Summary carries the aggregate counts returned with every triage listing.
type Summary struct {
	ByStatus map[string]int `json:"byStatus"`
	Urgent   int            `json:"urgent"`
	Overdue  int            `json:"overdue"`
}

// List returns a filtered page of leads plus the total count and summary.
// The three summary counts are independent queries and run concurrently.
func (s *Service) List(ctx context.Context, params repository.ListLeadsParams) ([]repository.Lead, int, Summary, error) {
	if params.Limit <= 0 {
		params.Limit = defaultPageSize
	}
	if params.Limit > MaxPageSize {
		params.Limit = MaxPageSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	leads, count, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, Summary{}, apperr.Storage("could not list leads", err)
	}

	var summary Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byStatus, err := s.repo.CountByStatus(gctx)
		summary.ByStatus = byStatus
		return err
	})
	g.Go(func() error {
		urgent, err := s.repo.CountUrgent(gctx)
		summary.Urgent = urgent
		return err
	})
	g.Go(func() error {
		overdue, err := s.repo.CountOverdue(gctx)
		summary.Overdue = overdue
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, Summary{}, apperr.Storage("could not compute lead summary", err)
	}

	return leads, count, summary, nil
}

// TriageUpdate is the partial triage mutation accepted from staff.
type TriageUpdate struct {
	Status   *string
	Urgente  *bool
	Priority *string
	DueDate  *time.Time
	Note     *string
}

// UpdateTriage applies a partial update. Any status other than "new" stamps
// processed_at; unrecognized status values are rejected.
func (s *Service) UpdateTriage(ctx context.Context, id uuid.UUID, update TriageUpdate) (repository.Lead, error) {
	params := repository.UpdateTriageParams{
		Urgente:       update.Urgente,
		Priority:      update.Priority,
		DueDate:       update.DueDate,
		ProcessedNote: update.Note,
	}

	if update.Status != nil {
		status, err := domain.ParseStatus(*update.Status)
		if err != nil {
			return repository.Lead{}, apperr.InvalidInput("invalid status: " + *update.Status)
		}
		params.Status = &status
		params.StampProcessed = status.RequiresProcessedStamp()
	}

	lead, err := s.repo.UpdateTriage(ctx, id, params)
	if err == repository.ErrNotFound {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Storage("could not update lead", err)
	}
	return lead, nil
}

// Get loads a single lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Storage("could not load lead", err)
	}
	return lead, nil
}
