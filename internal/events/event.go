// Package events provides domain event definitions for decoupled
// communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"hipotecas_portal_backend/platform/events"
	"hipotecas_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = events.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadReceived is published when the ingestion gateway stores a new lead.
type LeadReceived struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Source string    `json:"source"`
	Nombre string    `json:"nombre,omitempty"`
	Ciudad string    `json:"ciudad,omitempty"`
}

func (e LeadReceived) EventName() string { return "leads.received" }

// LeadConverted is published when a lead is converted into a CRM lead or case.
type LeadConverted struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	CRMLeadID *uuid.UUID `json:"crmLeadId,omitempty"`
	CaseID    *uuid.UUID `json:"caseId,omitempty"`
}

func (e LeadConverted) EventName() string { return "leads.converted" }

// =============================================================================
// Cases Domain Events
// =============================================================================

// ClientMessagePosted is published when a client posts a message or document
// through the tracking token gateway.
type ClientMessagePosted struct {
	BaseEvent
	CaseID        uuid.UUID `json:"caseId"`
	MessageID     uuid.UUID `json:"messageId"`
	HasAttachment bool      `json:"hasAttachment"`
}

func (e ClientMessagePosted) EventName() string { return "casos.client_message.posted" }
