// Package domain holds the lead lifecycle rules shared by the triage and
// conversion services.
package domain

import "fmt"

// Status is the triage lifecycle state of a lead. It is a closed set;
// unrecognized values are rejected at the boundary instead of stored.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusDiscarded Status = "discarded"
	StatusLost      Status = "lost"
	StatusConverted Status = "converted"
)

var allStatuses = []Status{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusDiscarded,
	StatusLost,
	StatusConverted,
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	for _, s := range allStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown lead status %q", raw)
}

// AllStatuses returns every recognized status, in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// RequiresProcessedStamp reports whether moving a lead to this status must
// stamp processed_at. Only new leads are considered unprocessed.
func (s Status) RequiresProcessedStamp() bool {
	return s != StatusNew
}

// IsConverted reports whether the lead already produced a CRM artifact.
func (s Status) IsConverted() bool {
	return s == StatusConverted
}
