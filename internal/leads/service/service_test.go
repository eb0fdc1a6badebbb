package service

import (
	"context"
	"testing"

	"hipotecas_portal_backend/internal/leads/domain"
	"hipotecas_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestUpdateTriageRejectsUnknownStatus(t *testing.T) {
	repo := newFakeLeadsRepo()
	svc := newTestService(repo)
	lead := seedLead(repo)

	bad := "archived"
	_, err := svc.UpdateTriage(context.Background(), lead.ID, TriageUpdate{Status: &bad})
	if !apperr.Is(err, apperr.KindInvalidInput) {
		t.Errorf("expected InvalidInput for unknown status, got %v", err)
	}
}

func TestUpdateTriageStampsProcessedAt(t *testing.T) {
	repo := newFakeLeadsRepo()
	svc := newTestService(repo)
	lead := seedLead(repo)

	status := "discarded"
	note := "numero equivocado"
	updated, err := svc.UpdateTriage(context.Background(), lead.ID, TriageUpdate{Status: &status, Note: &note})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Status != domain.StatusDiscarded {
		t.Errorf("status = %q, want discarded", updated.Status)
	}
	if updated.ProcessedAt == nil {
		t.Error("processed_at must be stamped for non-new statuses")
	}
	if updated.ProcessedNote == nil || *updated.ProcessedNote != note {
		t.Errorf("processed note not stored verbatim: %v", updated.ProcessedNote)
	}
}

func TestUpdateTriageUnknownLead(t *testing.T) {
	svc := newTestService(newFakeLeadsRepo())

	urgent := true
	_, err := svc.UpdateTriage(context.Background(), uuid.New(), TriageUpdate{Urgente: &urgent})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}
