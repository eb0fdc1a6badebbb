package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"hipotecas_portal_backend/internal/adapters/storage"
	"hipotecas_portal_backend/internal/cases/repository"
	"hipotecas_portal_backend/platform/apperr"
	"hipotecas_portal_backend/platform/logger"
)

type fakeRepo struct {
	casos    map[uuid.UUID]repository.Caso
	byToken  map[string]uuid.UUID
	byOrigin map[uuid.UUID]uuid.UUID
	mensajes []repository.Mensaje
	logs     []repository.CasoLog
	clientes []repository.Cliente

	failInsertMensaje bool
	unreadSet         []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		casos:    make(map[uuid.UUID]repository.Caso),
		byToken:  make(map[string]uuid.UUID),
		byOrigin: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateCasoParams) (repository.Caso, bool, error) {
	if params.OriginLeadID != nil {
		if id, ok := f.byOrigin[*params.OriginLeadID]; ok {
			return f.casos[id], false, nil
		}
	}
	caso := repository.Caso{
		ID:            uuid.New(),
		ClienteID:     params.ClienteID,
		OriginLeadID:  params.OriginLeadID,
		Titulo:        params.Titulo,
		Estado:        params.Estado,
		Progreso:      params.Progreso,
		Notas:         params.Notas,
		TrackingToken: params.TrackingToken,
	}
	f.casos[caso.ID] = caso
	f.byToken[caso.TrackingToken] = caso.ID
	if params.OriginLeadID != nil {
		f.byOrigin[*params.OriginLeadID] = caso.ID
	}
	return caso, true, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Caso, error) {
	caso, ok := f.casos[id]
	if !ok {
		return repository.Caso{}, repository.ErrNotFound
	}
	return caso, nil
}

func (f *fakeRepo) GetByOriginLead(_ context.Context, leadID uuid.UUID) (repository.Caso, error) {
	id, ok := f.byOrigin[leadID]
	if !ok {
		return repository.Caso{}, repository.ErrNotFound
	}
	return f.casos[id], nil
}

func (f *fakeRepo) GetByTrackingToken(_ context.Context, token string) (repository.Caso, error) {
	id, ok := f.byToken[token]
	if !ok {
		return repository.Caso{}, repository.ErrNotFound
	}
	return f.casos[id], nil
}

func (f *fakeRepo) List(_ context.Context, _ repository.ListCasosFilter) ([]repository.Caso, int, error) {
	out := make([]repository.Caso, 0, len(f.casos))
	for _, c := range f.casos {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateCasoParams) (repository.Caso, error) {
	caso, ok := f.casos[id]
	if !ok {
		return repository.Caso{}, repository.ErrNotFound
	}
	if params.Titulo != nil {
		caso.Titulo = *params.Titulo
	}
	if params.Estado != nil {
		caso.Estado = *params.Estado
	}
	if params.Progreso != nil {
		caso.Progreso = *params.Progreso
	}
	if params.Notas != nil {
		caso.Notas = params.Notas
	}
	f.casos[id] = caso
	return caso, nil
}

func (f *fakeRepo) SetUnreadFlag(_ context.Context, id uuid.UUID, unread bool) error {
	caso, ok := f.casos[id]
	if !ok {
		return repository.ErrNotFound
	}
	caso.UnreadClientMessages = unread
	f.casos[id] = caso
	if unread {
		f.unreadSet = append(f.unreadSet, id)
	}
	return nil
}

func (f *fakeRepo) FindOrCreateCliente(_ context.Context, params repository.CreateClienteParams) (repository.Cliente, error) {
	for _, c := range f.clientes {
		if c.Email != nil && params.Email != nil && strings.EqualFold(*c.Email, *params.Email) {
			return c, nil
		}
	}
	cliente := repository.Cliente{ID: uuid.New(), Nombre: params.Nombre, Email: params.Email, Telefono: params.Telefono}
	f.clientes = append(f.clientes, cliente)
	return cliente, nil
}

func (f *fakeRepo) InsertMensaje(_ context.Context, params repository.InsertMensajeParams) (repository.Mensaje, error) {
	if f.failInsertMensaje {
		return repository.Mensaje{}, errors.New("insert failed")
	}
	m := repository.Mensaje{
		ID:             uuid.New(),
		CasoID:         params.CasoID,
		Sender:         params.Sender,
		Body:           params.Body,
		AttachmentName: params.AttachmentName,
		AttachmentURL:  params.AttachmentURL,
		AttachmentKey:  params.AttachmentKey,
		CreatedAt:      time.Now(),
	}
	f.mensajes = append(f.mensajes, m)
	return m, nil
}

// ListMensajes mirrors the repository contract: oldest first, id as the
// tiebreak, regardless of insertion order.
func (f *fakeRepo) ListMensajes(_ context.Context, casoID uuid.UUID) ([]repository.Mensaje, error) {
	out := make([]repository.Mensaje, 0)
	for _, m := range f.mensajes {
		if m.CasoID == casoID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (f *fakeRepo) InsertLog(_ context.Context, params repository.InsertLogParams) (repository.CasoLog, error) {
	l := repository.CasoLog{ID: uuid.New(), CasoID: params.CasoID, Texto: params.Texto, VisibleCliente: params.VisibleCliente}
	f.logs = append(f.logs, l)
	return l, nil
}

func (f *fakeRepo) ListLogs(_ context.Context, casoID uuid.UUID, visibleOnly bool) ([]repository.CasoLog, error) {
	out := make([]repository.CasoLog, 0)
	for _, l := range f.logs {
		if l.CasoID != casoID {
			continue
		}
		if visibleOnly && !l.VisibleCliente {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

var _ repository.CasesRepository = (*fakeRepo)(nil)

type fakeStorage struct {
	stored  []string
	deleted []string
}

func (f *fakeStorage) UploadFile(_ context.Context, _, folder, fileName, _ string, _ io.Reader, _ int64) (string, error) {
	key := folder + "/" + fileName
	f.stored = append(f.stored, key)
	return key, nil
}

func (f *fakeStorage) ObjectURL(_ context.Context, _, fileKey string) (string, error) {
	return "https://files.example.com/" + fileKey, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, _, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://files.example.com/" + fileKey, FileKey: fileKey}, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, _, fileKey string) error {
	f.deleted = append(f.deleted, fileKey)
	return nil
}

func (f *fakeStorage) EnsureBucketExists(_ context.Context, _ string) error { return nil }
func (f *fakeStorage) ValidateContentType(ct string) error {
	if ct == "video/mp4" {
		return errors.New("content type not allowed")
	}
	return nil
}
func (f *fakeStorage) ValidateFileSize(size int64) error {
	if size > 1<<20 {
		return errors.New("file too large")
	}
	return nil
}
func (f *fakeStorage) GetMaxFileSize() int64 { return 1 << 20 }

var _ storage.StorageService = (*fakeStorage)(nil)

func newTestService(repo *fakeRepo, store *fakeStorage) *Service {
	return New(repo, store, "expediente-docs", nil, logger.New("development"))
}

func TestCreateForLeadIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStorage{})
	leadID := uuid.New()

	first, created, err := svc.CreateForLead(context.Background(), CreateForLeadInput{
		OriginLeadID: leadID,
		Titulo:       "Ana - Madrid (80m2)",
		Nombre:       "Ana",
	})
	if err != nil {
		t.Fatalf("first CreateForLead: %v", err)
	}
	if !created {
		t.Fatal("first conversion should create the caso")
	}
	if first.TrackingToken == "" {
		t.Fatal("caso should carry a tracking token")
	}
	if first.Estado != "en_estudio" || first.Progreso != 10 {
		t.Fatalf("unexpected initial state: %s/%d", first.Estado, first.Progreso)
	}

	second, created, err := svc.CreateForLead(context.Background(), CreateForLeadInput{
		OriginLeadID: leadID,
		Titulo:       "Ana - Madrid (80m2)",
		Nombre:       "Ana",
	})
	if err != nil {
		t.Fatalf("second CreateForLead: %v", err)
	}
	if created {
		t.Fatal("second conversion must reuse the existing caso")
	}
	if second.ID != first.ID {
		t.Fatalf("expected caso %s, got %s", first.ID, second.ID)
	}
}

func TestGetByTokenUnknownIsMasked(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeStorage{})

	_, err := svc.GetByToken(context.Background(), "no-such-token")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Message != "expediente no encontrado" {
		t.Fatalf("public lookup must use the generic message, got %v", err)
	}
}

func TestPostClientMessageSetsUnread(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStorage{})
	caso, _, _ := svc.CreateForLead(context.Background(), CreateForLeadInput{OriginLeadID: uuid.New(), Titulo: "T"})

	msg, err := svc.PostClientMessage(context.Background(), caso.TrackingToken, "  hola, ¿alguna novedad?  ")
	if err != nil {
		t.Fatalf("PostClientMessage: %v", err)
	}
	if msg.Sender != "cliente" {
		t.Fatalf("sender = %s, want cliente", msg.Sender)
	}
	if msg.Body != "hola, ¿alguna novedad?" {
		t.Fatalf("body should be trimmed, got %q", msg.Body)
	}
	if len(repo.unreadSet) != 1 {
		t.Fatal("client message must raise the unread flag")
	}
}

func TestPostClientMessageRejectsEmpty(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStorage{})
	caso, _, _ := svc.CreateForLead(context.Background(), CreateForLeadInput{OriginLeadID: uuid.New(), Titulo: "T"})

	for _, body := range []string{"", "   ", "\n\t"} {
		if _, err := svc.PostClientMessage(context.Background(), caso.TrackingToken, body); apperr.GetKind(err) != apperr.KindInvalidInput {
			t.Errorf("body %q: expected invalid input, got %v", body, err)
		}
	}
	if len(repo.mensajes) != 0 {
		t.Fatal("no message should be stored")
	}
}

func TestPostStaffMessageLeavesUnreadAlone(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStorage{})
	caso, _, _ := svc.CreateForLead(context.Background(), CreateForLeadInput{OriginLeadID: uuid.New(), Titulo: "T"})

	msg, err := svc.PostStaffMessage(context.Background(), caso.ID, "revisando la tasación")
	if err != nil {
		t.Fatalf("PostStaffMessage: %v", err)
	}
	if msg.Sender != "gestor" {
		t.Fatalf("sender = %s, want gestor", msg.Sender)
	}
	if len(repo.unreadSet) != 0 {
		t.Fatal("staff messages must not raise the unread flag")
	}
}

func TestListMessagesAscendingByCreatedAt(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStorage{})
	caso, _, _ := svc.CreateForLead(context.Background(), CreateForLeadInput{OriginLeadID: uuid.New(), Titulo: "T"})

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		repo.mensajes = append(repo.mensajes, repository.Mensaje{
			ID:        uuid.New(),
			CasoID:    caso.ID,
			Sender:    "cliente",
			Body:      "mensaje",
			CreatedAt: base.Add(offset),
		})
	}

	mensajes, err := svc.ListMessages(context.Background(), caso.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(mensajes) != 3 {
		t.Fatalf("expected 3 mensajes, got %d", len(mensajes))
	}
	for i := 1; i < len(mensajes); i++ {
		if mensajes[i].CreatedAt.Before(mensajes[i-1].CreatedAt) {
			t.Fatalf("mensajes out of order at %d: %v before %v", i, mensajes[i].CreatedAt, mensajes[i-1].CreatedAt)
		}
	}
}

func TestUploadDocumentRecordsMessage(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStorage{}
	svc := newTestService(repo, store)
	caso, _, _ := svc.CreateForLead(context.Background(), CreateForLeadInput{OriginLeadID: uuid.New(), Titulo: "T"})

	msg, err := svc.UploadDocument(context.Background(), UploadDocumentInput{
		Token:       caso.TrackingToken,
		DocID:       "dni",
		FileName:    "dni-frontal.jpg",
		ContentType: "image/jpeg",
		Size:        2048,
		Reader:      bytes.NewReader([]byte("jpeg")),
	})
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if msg.Body != "Documento subido: dni" {
		t.Fatalf("unexpected message body %q", msg.Body)
	}
	if msg.AttachmentURL == nil || !strings.Contains(*msg.AttachmentURL, "casos/"+caso.ID.String()+"/dni.jpg") {
		t.Fatalf("attachment URL should point at the stored object, got %v", msg.AttachmentURL)
	}
	if msg.AttachmentName == nil || *msg.AttachmentName != "dni-frontal.jpg" {
		t.Fatalf("attachment name should keep the uploaded file name, got %v", msg.AttachmentName)
	}
	if len(store.stored) != 1 {
		t.Fatalf("expected one stored object, got %d", len(store.stored))
	}
	if msg.AttachmentKey == nil || *msg.AttachmentKey != store.stored[0] {
		t.Fatalf("attachment key should record the stored object key %q, got %v", store.stored[0], msg.AttachmentKey)
	}
	if len(repo.unreadSet) != 1 {
		t.Fatal("document upload must raise the unread flag")
	}
}

func TestUploadDocumentOrphanKeepsFile(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStorage{}
	svc := newTestService(repo, store)
	caso, _, _ := svc.CreateForLead(context.Background(), CreateForLeadInput{OriginLeadID: uuid.New(), Titulo: "T"})

	repo.failInsertMensaje = true
	_, err := svc.UploadDocument(context.Background(), UploadDocumentInput{
		Token:       caso.TrackingToken,
		DocID:       "nomina",
		FileName:    "nomina.pdf",
		ContentType: "application/pdf",
		Size:        512,
		Reader:      bytes.NewReader([]byte("pdf")),
	})
	if apperr.GetKind(err) != apperr.KindStorage {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(store.stored) != 1 {
		t.Fatal("file should have been stored before the insert failed")
	}
	if len(store.deleted) != 0 {
		t.Fatal("orphaned file must not be deleted")
	}
}

func TestUploadDocumentValidation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStorage{})
	caso, _, _ := svc.CreateForLead(context.Background(), CreateForLeadInput{OriginLeadID: uuid.New(), Titulo: "T"})

	tests := []struct {
		name  string
		input UploadDocumentInput
	}{
		{
			name:  "missing docId",
			input: UploadDocumentInput{Token: caso.TrackingToken, FileName: "a.jpg", ContentType: "image/jpeg", Size: 10},
		},
		{
			name:  "disallowed content type",
			input: UploadDocumentInput{Token: caso.TrackingToken, DocID: "x", FileName: "a.mp4", ContentType: "video/mp4", Size: 10},
		},
		{
			name:  "oversized file",
			input: UploadDocumentInput{Token: caso.TrackingToken, DocID: "x", FileName: "a.jpg", ContentType: "image/jpeg", Size: 2 << 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.Reader = bytes.NewReader([]byte("x"))
			if _, err := svc.UploadDocument(context.Background(), tt.input); apperr.GetKind(err) != apperr.KindInvalidInput {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestUpdateEstadoRecordsVisibleLog(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStorage{})
	caso, _, _ := svc.CreateForLead(context.Background(), CreateForLeadInput{OriginLeadID: uuid.New(), Titulo: "T"})

	estado := "tasacion"
	updated, err := svc.Update(context.Background(), caso.ID, UpdateCaseInput{Estado: &estado})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Estado != "tasacion" {
		t.Fatalf("estado = %s", updated.Estado)
	}
	if len(repo.logs) != 1 || !repo.logs[0].VisibleCliente {
		t.Fatal("estado change should add one client-visible log entry")
	}

	bad := "aprobado"
	if _, err := svc.Update(context.Background(), caso.ID, UpdateCaseInput{Estado: &bad}); apperr.GetKind(err) != apperr.KindInvalidInput {
		t.Fatalf("unknown estado should be rejected, got %v", err)
	}
}
