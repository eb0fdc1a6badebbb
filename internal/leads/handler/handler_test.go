package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hipotecas_portal_backend/internal/leads/repository"
	"hipotecas_portal_backend/internal/leads/service"
	"hipotecas_portal_backend/platform/logger"
	"hipotecas_portal_backend/platform/validator"
)

// triageRepo records the triage params the handler hands down.
type triageRepo struct {
	lastTriage repository.UpdateTriageParams
}

func (f *triageRepo) Create(_ context.Context, _ repository.CreateLeadParams) (repository.Lead, error) {
	return repository.Lead{}, nil
}

func (f *triageRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	return repository.Lead{ID: id}, nil
}

func (f *triageRepo) List(_ context.Context, _ repository.ListLeadsParams) ([]repository.Lead, int, error) {
	return nil, 0, nil
}

func (f *triageRepo) CountByStatus(_ context.Context) (map[string]int, error) { return nil, nil }
func (f *triageRepo) CountUrgent(_ context.Context) (int, error)              { return 0, nil }
func (f *triageRepo) CountOverdue(_ context.Context) (int, error)             { return 0, nil }

func (f *triageRepo) UpdateTriage(_ context.Context, id uuid.UUID, params repository.UpdateTriageParams) (repository.Lead, error) {
	f.lastTriage = params
	return repository.Lead{ID: id, ProcessedNote: params.ProcessedNote}, nil
}

func (f *triageRepo) MarkConverted(_ context.Context, _ uuid.UUID, _, _ *uuid.UUID, _ string) error {
	return nil
}

func (f *triageRepo) GetCRMLeadByOrigin(_ context.Context, _ uuid.UUID) (repository.CRMLead, error) {
	return repository.CRMLead{}, repository.ErrNotFound
}

func (f *triageRepo) InsertCRMLead(_ context.Context, _ repository.Lead) (repository.CRMLead, bool, error) {
	return repository.CRMLead{}, false, nil
}

var _ repository.LeadsRepository = (*triageRepo)(nil)

func newTriageEngine(repo *triageRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(repo, nil, logger.New("development"))
	h := New(svc, validator.New())
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/leads"))
	return engine
}

func TestHandleUpdateStoresNoteVerbatim(t *testing.T) {
	repo := &triageRepo{}
	engine := newTriageEngine(repo)

	body := []byte(`{"note": "presupuesto <100k & aval, ver <b>nota</b> previa"}`)
	req := httptest.NewRequest(http.MethodPatch, "/leads/"+uuid.NewString(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want := "presupuesto <100k & aval, ver <b>nota</b> previa"
	if repo.lastTriage.ProcessedNote == nil || *repo.lastTriage.ProcessedNote != want {
		t.Fatalf("note must reach the store verbatim, got %v", repo.lastTriage.ProcessedNote)
	}
}
