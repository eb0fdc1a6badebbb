package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"hipotecas_portal_backend/internal/events"
	"hipotecas_portal_backend/internal/leads/domain"
	"hipotecas_portal_backend/internal/leads/repository"
	"hipotecas_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// fakeLeadsRepo is an in-memory LeadsRepository for service tests.
type fakeLeadsRepo struct {
	leads    map[uuid.UUID]repository.Lead
	crmLeads map[uuid.UUID]repository.CRMLead // keyed by origin lead id

	failMarkConverted bool
}

func newFakeLeadsRepo() *fakeLeadsRepo {
	return &fakeLeadsRepo{
		leads:    make(map[uuid.UUID]repository.Lead),
		crmLeads: make(map[uuid.UUID]repository.CRMLead),
	}
}

func (f *fakeLeadsRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:     uuid.New(),
		Source: params.Source,
		Nombre: params.Nombre, Telefono: params.Telefono, Email: params.Email,
		Ciudad: params.Ciudad, SizeM2: params.SizeM2,
		Status: domain.StatusNew,
		Raw:    params.Raw,
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeLeadsRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeadsRepo) List(_ context.Context, _ repository.ListLeadsParams) ([]repository.Lead, int, error) {
	return nil, 0, nil
}

func (f *fakeLeadsRepo) CountByStatus(_ context.Context) (map[string]int, error) { return nil, nil }
func (f *fakeLeadsRepo) CountUrgent(_ context.Context) (int, error)              { return 0, nil }
func (f *fakeLeadsRepo) CountOverdue(_ context.Context) (int, error)             { return 0, nil }

func (f *fakeLeadsRepo) UpdateTriage(_ context.Context, id uuid.UUID, params repository.UpdateTriageParams) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if params.Status != nil {
		lead.Status = *params.Status
	}
	if params.ProcessedNote != nil {
		lead.ProcessedNote = params.ProcessedNote
	}
	if params.StampProcessed {
		now := lead.CreatedAt
		lead.ProcessedAt = &now
	}
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeLeadsRepo) MarkConverted(_ context.Context, id uuid.UUID, crmLeadID, caseID *uuid.UUID, exportedTo string) error {
	if f.failMarkConverted {
		return errors.New("connection lost")
	}
	lead, ok := f.leads[id]
	if !ok {
		return repository.ErrNotFound
	}
	lead.Status = domain.StatusConverted
	lead.CRMLeadID = crmLeadID
	lead.CRMCaseID = caseID
	lead.ExportedTo = &exportedTo
	f.leads[id] = lead
	return nil
}

func (f *fakeLeadsRepo) GetCRMLeadByOrigin(_ context.Context, originLeadID uuid.UUID) (repository.CRMLead, error) {
	crmLead, ok := f.crmLeads[originLeadID]
	if !ok {
		return repository.CRMLead{}, repository.ErrCRMLeadNotFound
	}
	return crmLead, nil
}

func (f *fakeLeadsRepo) InsertCRMLead(_ context.Context, lead repository.Lead) (repository.CRMLead, bool, error) {
	if existing, ok := f.crmLeads[lead.ID]; ok {
		return existing, false, nil
	}
	crmLead := repository.CRMLead{ID: uuid.New(), OriginLeadID: lead.ID, Nombre: lead.Nombre}
	f.crmLeads[lead.ID] = crmLead
	return crmLead, true, nil
}

// fakeCaseCreator counts how many cases it opened per origin lead.
type fakeCaseCreator struct {
	cases map[uuid.UUID]uuid.UUID
	fail  bool
}

func newFakeCaseCreator() *fakeCaseCreator {
	return &fakeCaseCreator{cases: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeCaseCreator) CreateForLead(_ context.Context, params CaseFromLeadParams) (CaseRef, error) {
	if f.fail {
		return CaseRef{}, errors.New("insert failed")
	}
	if existing, ok := f.cases[params.OriginLeadID]; ok {
		return CaseRef{ID: existing, Created: false}, nil
	}
	id := uuid.New()
	f.cases[params.OriginLeadID] = id
	return CaseRef{ID: id, Created: true}, nil
}

func newTestService(repo repository.LeadsRepository) *Service {
	return New(repo, events.NewInMemoryBus(nil), nil)
}

func seedLead(repo *fakeLeadsRepo) repository.Lead {
	nombre := "Ana"
	ciudad := "Madrid"
	telefono := "600111222"
	lead, _ := repo.Create(context.Background(), repository.CreateLeadParams{
		Source: "bkchome_valorador", Nombre: &nombre, Ciudad: &ciudad, Telefono: &telefono,
	})
	return lead
}

func TestConvertToCaseIsIdempotent(t *testing.T) {
	repo := newFakeLeadsRepo()
	creator := newFakeCaseCreator()
	svc := newTestService(repo)
	svc.SetCaseCreator(creator)

	lead := seedLead(repo)

	first, err := svc.Convert(context.Background(), lead.ID, TargetCase)
	if err != nil {
		t.Fatalf("first conversion failed: %v", err)
	}
	if first.CaseID == nil {
		t.Fatal("first conversion returned no case id")
	}

	second, err := svc.Convert(context.Background(), lead.ID, TargetCase)
	if err != nil {
		t.Fatalf("second conversion failed: %v", err)
	}
	if second.CaseID == nil || *second.CaseID != *first.CaseID {
		t.Errorf("second conversion returned %v, want %v", second.CaseID, first.CaseID)
	}
	if len(creator.cases) != 1 {
		t.Errorf("expected exactly one case, got %d", len(creator.cases))
	}

	converted, _ := repo.GetByID(context.Background(), lead.ID)
	if converted.Status != domain.StatusConverted {
		t.Errorf("lead status = %q, want converted", converted.Status)
	}
}

func TestConvertToCRMLeadIsIdempotent(t *testing.T) {
	repo := newFakeLeadsRepo()
	svc := newTestService(repo)

	lead := seedLead(repo)

	first, err := svc.Convert(context.Background(), lead.ID, TargetCRM)
	if err != nil {
		t.Fatalf("first conversion failed: %v", err)
	}
	second, err := svc.Convert(context.Background(), lead.ID, TargetCRM)
	if err != nil {
		t.Fatalf("second conversion failed: %v", err)
	}
	if first.CRMLeadID == nil || second.CRMLeadID == nil || *first.CRMLeadID != *second.CRMLeadID {
		t.Errorf("conversions returned different linkage: %v vs %v", first.CRMLeadID, second.CRMLeadID)
	}
	if len(repo.crmLeads) != 1 {
		t.Errorf("expected exactly one crm lead, got %d", len(repo.crmLeads))
	}
}

func TestConvertUnknownLeadReturnsNotFound(t *testing.T) {
	svc := newTestService(newFakeLeadsRepo())
	svc.SetCaseCreator(newFakeCaseCreator())

	_, err := svc.Convert(context.Background(), uuid.New(), TargetCase)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestConvertCaseCreatorFailureLeavesLeadUntouched(t *testing.T) {
	repo := newFakeLeadsRepo()
	creator := newFakeCaseCreator()
	creator.fail = true
	svc := newTestService(repo)
	svc.SetCaseCreator(creator)

	lead := seedLead(repo)

	_, err := svc.Convert(context.Background(), lead.ID, TargetCase)
	if !apperr.Is(err, apperr.KindStorage) {
		t.Fatalf("expected Storage error, got %v", err)
	}

	unchanged, _ := repo.GetByID(context.Background(), lead.ID)
	if unchanged.Status == domain.StatusConverted {
		t.Error("lead must not be marked converted when the target insert fails")
	}
	if unchanged.CRMCaseID != nil {
		t.Error("lead must carry no linkage after a failed conversion")
	}
}

func TestConvertRetryAfterMarkFailureReusesTarget(t *testing.T) {
	repo := newFakeLeadsRepo()
	svc := newTestService(repo)

	lead := seedLead(repo)

	// First attempt creates the crm lead but fails to mark the source.
	repo.failMarkConverted = true
	if _, err := svc.Convert(context.Background(), lead.ID, TargetCRM); err == nil {
		t.Fatal("expected mark failure")
	}
	if len(repo.crmLeads) != 1 {
		t.Fatalf("target should exist after partial failure, got %d", len(repo.crmLeads))
	}

	// The retry must find the pre-existing target instead of duplicating it.
	repo.failMarkConverted = false
	result, err := svc.Convert(context.Background(), lead.ID, TargetCRM)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(repo.crmLeads) != 1 {
		t.Errorf("retry duplicated the target: %d rows", len(repo.crmLeads))
	}
	if result.CRMLeadID == nil || *result.CRMLeadID != repo.crmLeads[lead.ID].ID {
		t.Error("retry returned a different linkage than the stored target")
	}
}

func TestCaseTitle(t *testing.T) {
	nombre := "Ana"
	ciudad := "Madrid"
	size := 80

	cases := []struct {
		name string
		lead repository.Lead
		want string
	}{
		{"full", repository.Lead{Nombre: &nombre, Ciudad: &ciudad, SizeM2: &size}, "Ana - Madrid (80m2)"},
		{"no size", repository.Lead{Nombre: &nombre, Ciudad: &ciudad}, "Ana - Madrid"},
		{"city only", repository.Lead{Ciudad: &ciudad}, "Madrid"},
		{"empty", repository.Lead{}, "Expediente"},
	}

	for _, tc := range cases {
		if got := CaseTitle(tc.lead); got != tc.want {
			t.Errorf("%s: CaseTitle = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestLeadSnapshotCarriesUTM(t *testing.T) {
	repo := newFakeLeadsRepo()
	lead := seedLead(repo)
	lead.Raw = json.RawMessage(`{"utm":{"source":"google"},"step1":{}}`)

	snapshot, err := leadSnapshotJSON(lead)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(snapshot), &decoded); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if string(decoded["utm"]) != `{"source":"google"}` {
		t.Errorf("utm = %s, want {\"source\":\"google\"}", decoded["utm"])
	}
	if _, ok := decoded["leadId"]; !ok {
		t.Error("snapshot missing leadId")
	}
}
