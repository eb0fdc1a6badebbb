// Package domain holds the expediente lifecycle rules: the closed estado
// set, sender roles, progress clamping and tracking token generation.
package domain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Estado is the named stage of a mortgage case. It is a closed set;
// unrecognized values are rejected at the boundary instead of stored.
type Estado string

const (
	EstadoEnEstudio   Estado = "en_estudio"
	EstadoTasacion    Estado = "tasacion"
	EstadoFein        Estado = "fein"
	EstadoNotaria     Estado = "notaria"
	EstadoCompraventa Estado = "compraventa"
	EstadoFin         Estado = "fin"
	EstadoDenegado    Estado = "denegado"
)

var allEstados = []Estado{
	EstadoEnEstudio,
	EstadoTasacion,
	EstadoFein,
	EstadoNotaria,
	EstadoCompraventa,
	EstadoFin,
	EstadoDenegado,
}

// ParseEstado validates a raw estado value.
func ParseEstado(raw string) (Estado, error) {
	for _, e := range allEstados {
		if string(e) == raw {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown estado %q", raw)
}

// AllEstados returns every recognized estado, in process order.
func AllEstados() []Estado {
	out := make([]Estado, len(allEstados))
	copy(out, allEstados)
	return out
}

// InitialProgreso is the progress assigned to a case opened by conversion.
const InitialProgreso = 10

// ClampProgreso bounds a progress value to [0, 100] for display. The stored
// value is never rewritten; clamping happens at the transport layer only.
func ClampProgreso(progreso int) int {
	if progreso < 0 {
		return 0
	}
	if progreso > 100 {
		return 100
	}
	return progreso
}

// Sender identifies who wrote a chat message. Exactly two variants exist.
type Sender string

const (
	SenderCliente Sender = "cliente"
	SenderGestor  Sender = "gestor"
)

// ParseSender validates a raw sender value.
func ParseSender(raw string) (Sender, error) {
	switch Sender(raw) {
	case SenderCliente:
		return SenderCliente, nil
	case SenderGestor:
		return SenderGestor, nil
	}
	return "", fmt.Errorf("unknown sender %q", raw)
}

// trackingTokenBytes gives 256 bits of entropy; collisions are negligible
// and the UNIQUE constraint on the column catches the impossible case.
const trackingTokenBytes = 32

// NewTrackingToken generates the opaque capability granting anonymous
// access to exactly one case. Tokens are never rotated automatically.
func NewTrackingToken() (string, error) {
	buf := make([]byte, trackingTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
