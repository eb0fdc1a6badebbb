package webhook

import (
	"context"
	"encoding/json"
	"log/slog"

	"hipotecas_portal_backend/internal/leads/repository"
	"hipotecas_portal_backend/platform/apperr"
	"hipotecas_portal_backend/platform/logger"
)

// LeadRecorder is the port into the leads module used by the ingestion
// gateway. Implemented by the leads service.
type LeadRecorder interface {
	Ingest(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
}

// Service normalizes and persists inbound lead submissions.
type Service struct {
	recorder LeadRecorder
	log      *logger.Logger
}

// NewService creates the ingestion service.
func NewService(recorder LeadRecorder, log *logger.Logger) *Service {
	return &Service{recorder: recorder, log: log}
}

// reject logs the dropped submission and returns the client-facing error.
// Every 400 at this boundary leaves a trace; the raw body already did not
// reach the store, so the log line is the only record of the attempt.
func (s *Service) reject(source, reason string) error {
	s.log.Warn("webhook_submission_rejected",
		slog.String("source", source),
		slog.String("reason", reason),
	)
	return apperr.InvalidInput(reason)
}

// ProcessValorador handles a valuation-wizard submission. The payload is
// stored verbatim in raw; the structured columns are a lenient projection.
func (s *Service) ProcessValorador(ctx context.Context, body []byte) (repository.Lead, error) {
	var envelope valoradorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return repository.Lead{}, s.reject("valorador", "malformed payload")
	}
	if envelope.isEmpty() {
		return repository.Lead{}, s.reject("valorador", "empty submission")
	}

	params := extractValoradorLead(envelope, json.RawMessage(body))
	return s.recorder.Ingest(ctx, params)
}

// ProcessGenericLead handles a generic contact-form submission. At least one
// contact channel and a city are mandatory.
func (s *Service) ProcessGenericLead(ctx context.Context, body []byte) (repository.Lead, error) {
	var req genericLeadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return repository.Lead{}, s.reject("leads", "malformed payload")
	}

	params := extractGenericLead(req, json.RawMessage(body))
	if params.Telefono == nil && params.Email == nil {
		return repository.Lead{}, s.reject("leads", "telefono or email is required")
	}
	if params.Ciudad == nil {
		return repository.Lead{}, s.reject("leads", "ciudad is required")
	}

	return s.recorder.Ingest(ctx, params)
}
