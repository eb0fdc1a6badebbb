// Package notification sends staff email alerts in reaction to domain
// events: a new lead arriving, a client writing through the tracking page.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"hipotecas_portal_backend/internal/events"
	"hipotecas_portal_backend/platform/config"
	"hipotecas_portal_backend/platform/logger"
)

// Notifier sends alert mail over SMTP. Sending is best-effort: a failed
// delivery is logged and never propagates to the request that raised the
// event.
type Notifier struct {
	cfg config.EmailConfig
	log *logger.Logger
}

func New(cfg config.EmailConfig, log *logger.Logger) *Notifier {
	return &Notifier{cfg: cfg, log: log}
}

// Subscribe registers the notifier on the event bus. With email disabled
// nothing is registered and the bus stays untouched.
func (n *Notifier) Subscribe(bus events.Bus) {
	if !n.cfg.GetEmailEnabled() {
		n.log.Info("email notifications disabled")
		return
	}

	bus.Subscribe("leads.received", events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadReceived)
		if !ok {
			return nil
		}
		subject := "Nuevo lead recibido"
		if e.Ciudad != "" {
			subject = fmt.Sprintf("Nuevo lead recibido (%s)", e.Ciudad)
		}
		body := fmt.Sprintf("Lead %s recibido desde %s.\nNombre: %s\nCiudad: %s\n",
			e.LeadID, e.Source, e.Nombre, e.Ciudad)
		return n.send(ctx, subject, body)
	}))

	bus.Subscribe("casos.client_message.posted", events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.ClientMessagePosted)
		if !ok {
			return nil
		}
		subject := "Nuevo mensaje de cliente"
		if e.HasAttachment {
			subject = "Nuevo documento de cliente"
		}
		body := fmt.Sprintf("El expediente %s tiene actividad nueva del cliente.\n", e.CaseID)
		return n.send(ctx, subject, body)
	}))
}

func (n *Notifier) send(ctx context.Context, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.GetEmailFromAddress()); err != nil {
		n.log.Error("invalid from address", slog.Any("error", err))
		return nil
	}
	if err := msg.To(n.cfg.GetNotifyToAddress()); err != nil {
		n.log.Error("invalid notify address", slog.Any("error", err))
		return nil
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(n.cfg.GetSMTPHost(),
		mail.WithPort(n.cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.GetSMTPUsername()),
		mail.WithPassword(n.cfg.GetSMTPPassword()),
	)
	if err != nil {
		n.log.Error("smtp client setup failed", slog.Any("error", err))
		return nil
	}
	defer client.Close()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		n.log.Error("notification mail not sent", slog.String("subject", subject), slog.Any("error", err))
	}
	return nil
}
