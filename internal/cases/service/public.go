package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"hipotecas_portal_backend/internal/cases/domain"
	"hipotecas_portal_backend/internal/cases/repository"
	"hipotecas_portal_backend/internal/events"
	"hipotecas_portal_backend/platform/apperr"
)

// TrackingView is everything the anonymous tracking page may see. Staff-only
// log entries stay out; the transport layer decides which caso fields leave.
type TrackingView struct {
	Caso     repository.Caso
	Logs     []repository.CasoLog
	Mensajes []repository.Mensaje
}

// notFoundPublic is the single error surfaced for any failed token lookup.
// An attacker probing tokens learns nothing beyond "no such expediente".
func notFoundPublic(err error) error {
	if err != nil {
		return apperr.Wrap(apperr.KindNotFound, "expediente no encontrado", err)
	}
	return apperr.NotFound("expediente no encontrado")
}

// GetByToken resolves a tracking token into the public view of its case.
func (s *Service) GetByToken(ctx context.Context, token string) (TrackingView, error) {
	caso, err := s.resolveToken(ctx, token)
	if err != nil {
		return TrackingView{}, err
	}

	logs, err := s.repo.ListLogs(ctx, caso.ID, true)
	if err != nil {
		return TrackingView{}, apperr.Storage("could not load expediente", err)
	}
	mensajes, err := s.repo.ListMensajes(ctx, caso.ID)
	if err != nil {
		return TrackingView{}, apperr.Storage("could not load expediente", err)
	}
	return TrackingView{Caso: caso, Logs: logs, Mensajes: mensajes}, nil
}

// PostClientMessage appends a cliente chat message through the token
// gateway and raises the unread marker for staff. The gateway never
// mutates estado or progreso.
func (s *Service) PostClientMessage(ctx context.Context, token, body string) (repository.Mensaje, error) {
	body = strings.TrimSpace(body)
	if err := validateMessageBody(body); err != nil {
		return repository.Mensaje{}, err
	}

	caso, err := s.resolveToken(ctx, token)
	if err != nil {
		return repository.Mensaje{}, err
	}

	mensaje, err := s.repo.InsertMensaje(ctx, repository.InsertMensajeParams{
		CasoID: caso.ID,
		Sender: string(domain.SenderCliente),
		Body:   body,
	})
	if err != nil {
		return repository.Mensaje{}, apperr.Storage("could not insert mensaje", err)
	}

	s.flagUnread(ctx, caso.ID)
	s.publishClientMessage(ctx, caso, mensaje, false)
	return mensaje, nil
}

type UploadDocumentInput struct {
	Token       string
	DocID       string
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// UploadDocument stores a client document and records it as a chat message
// carrying the object URL. The file is written first; if the message insert
// then fails the stored object is reported as an orphan rather than deleted,
// since the upload itself already succeeded.
func (s *Service) UploadDocument(ctx context.Context, input UploadDocumentInput) (repository.Mensaje, error) {
	docID := strings.TrimSpace(input.DocID)
	if docID == "" {
		return repository.Mensaje{}, apperr.InvalidInput("docId is required")
	}
	if err := s.storage.ValidateContentType(input.ContentType); err != nil {
		return repository.Mensaje{}, apperr.InvalidInput(err.Error())
	}
	if err := s.storage.ValidateFileSize(input.Size); err != nil {
		return repository.Mensaje{}, apperr.InvalidInput(err.Error())
	}

	caso, err := s.resolveToken(ctx, input.Token)
	if err != nil {
		return repository.Mensaje{}, err
	}

	folder := "casos/" + caso.ID.String()
	fileName := docID + filepath.Ext(input.FileName)
	fileKey, err := s.storage.UploadFile(ctx, s.bucket, folder, fileName, input.ContentType, input.Reader, input.Size)
	if err != nil {
		return repository.Mensaje{}, apperr.Storage("could not store document", err)
	}

	url, err := s.storage.ObjectURL(ctx, s.bucket, fileKey)
	if err != nil {
		s.log.StorageOrphan(s.bucket, fileKey, err)
		return repository.Mensaje{}, apperr.Storage("could not store document", err)
	}

	attachmentName := strings.TrimSpace(input.FileName)
	if attachmentName == "" {
		attachmentName = fileName
	}
	mensaje, err := s.repo.InsertMensaje(ctx, repository.InsertMensajeParams{
		CasoID:         caso.ID,
		Sender:         string(domain.SenderCliente),
		Body:           fmt.Sprintf("Documento subido: %s", docID),
		AttachmentName: &attachmentName,
		AttachmentURL:  &url,
		AttachmentKey:  &fileKey,
	})
	if err != nil {
		s.log.StorageOrphan(s.bucket, fileKey, err)
		return repository.Mensaje{}, apperr.Storage("could not record document", err)
	}

	s.flagUnread(ctx, caso.ID)
	s.publishClientMessage(ctx, caso, mensaje, true)
	return mensaje, nil
}

func (s *Service) resolveToken(ctx context.Context, token string) (repository.Caso, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return repository.Caso{}, notFoundPublic(nil)
	}
	caso, err := s.repo.GetByTrackingToken(ctx, token)
	if err == repository.ErrNotFound {
		return repository.Caso{}, notFoundPublic(err)
	}
	if err != nil {
		return repository.Caso{}, apperr.Storage("could not load expediente", err)
	}
	return caso, nil
}

// flagUnread raises the marker best-effort; a failure must not undo an
// already-stored message.
func (s *Service) flagUnread(ctx context.Context, casoID uuid.UUID) {
	if err := s.repo.SetUnreadFlag(ctx, casoID, true); err != nil {
		s.log.Error("unread flag not set", slog.String("caso_id", casoID.String()), slog.Any("error", err))
	}
}

func (s *Service) publishClientMessage(ctx context.Context, caso repository.Caso, mensaje repository.Mensaje, hasAttachment bool) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.ClientMessagePosted{
		BaseEvent:     events.NewBaseEvent(),
		CaseID:        caso.ID,
		MessageID:     mensaje.ID,
		HasAttachment: hasAttachment,
	})
}
