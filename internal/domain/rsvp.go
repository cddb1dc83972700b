package domain

import (
	"context"
	"errors"
	"time"
)

// RSVPStatus is the admission decision recorded on an RSVP.
type RSVPStatus string

const (
	RSVPStatusApproved RSVPStatus = "approved"
	RSVPStatusPending  RSVPStatus = "pending"
	RSVPStatusWaitlist RSVPStatus = "waitlist"
	RSVPStatusRejected RSVPStatus = "rejected"
)

// Valid reports whether s is a known RSVP status.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPStatusApproved, RSVPStatusPending, RSVPStatusWaitlist, RSVPStatusRejected:
		return true
	}
	return false
}

// Sentinel errors for RSVP admission.
var (
	// ErrDuplicateRSVP is returned when an RSVP for the same event and email
	// already exists. No record is written.
	ErrDuplicateRSVP = errors.New("an RSVP for this event and email already exists")

	// ErrInvalidGuestCount is returned when the requested guest count is
	// outside [1, MaxGuestsPerRSVP].
	ErrInvalidGuestCount = errors.New("guest count must be between 1 and 10")

	// ErrRSVPNotRequired is returned when the event does not take RSVPs.
	ErrRSVPNotRequired = errors.New("this event does not require an RSVP")

	// ErrCapacityExceeded is returned when a manual approval would push the
	// approved guest total past the event capacity.
	ErrCapacityExceeded = errors.New("approving this RSVP would exceed event capacity")

	// ErrCapacityConflict is returned when a concurrent admission invalidated
	// the state this one was decided against. Callers retry once with fresh state.
	ErrCapacityConflict = errors.New("concurrent RSVP submission conflict")
)

// MaxGuestsPerRSVP caps the party size of a single RSVP, submitter included.
const MaxGuestsPerRSVP = 10

// RSVP represents one party's reply to an event.
// swagger:model RSVP
type RSVP struct {
	ID                  string     `json:"id"`
	EventID             string     `json:"event_id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Phone               *string    `json:"phone,omitempty"`
	Guests              int        `json:"guests"`
	DietaryRestrictions *string    `json:"dietary_restrictions,omitempty"`
	// Status may be empty on rows written before admission modes existed;
	// such rows count as approved when the event admits immediately.
	Status    RSVPStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// RSVPRepository defines storage operations for RSVPs. SubmitWithAdmission and
// Approve must be atomic with respect to concurrent calls for the same event:
// the read of existing RSVPs and the write must observe and produce a
// consistent approved-guest total.
type RSVPRepository interface {
	// SubmitWithAdmission decides admission for the request against current
	// state and inserts the RSVP with the decided status, atomically.
	// The returned RSVP carries the repository-assigned ID and status.
	SubmitWithAdmission(ctx context.Context, event *Event, rsvp *RSVP) (*RSVP, error)
	GetByID(ctx context.Context, id string) (*RSVP, error)
	ListByEvent(ctx context.Context, eventID string, p PaginationParams) ([]*RSVP, int, error)
	// ListRecent returns RSVPs across all events, newest first.
	ListRecent(ctx context.Context, p PaginationParams) ([]*RSVP, int, error)
	// Approve sets the RSVP approved if the event's remaining capacity admits
	// its party, atomically; otherwise ErrCapacityExceeded.
	Approve(ctx context.Context, id string) (*RSVP, error)
	// UpdateStatus records a non-approving transition (rejected, waitlist, pending).
	UpdateStatus(ctx context.Context, id string, status RSVPStatus) (*RSVP, error)
	// Attendance reports the admission totals for one event.
	Attendance(ctx context.Context, eventID string) (*EventAttendance, error)
}

// RSVPService defines RSVP operations. Submit is public; review operations
// require the manager or admin role.
type RSVPService interface {
	Submit(ctx context.Context, eventID string, rsvp *RSVP) (*RSVP, error)
	ListByEvent(ctx context.Context, actorID, eventID string, p PaginationParams) ([]*RSVP, int, error)
	ListRecent(ctx context.Context, actorID string, p PaginationParams) ([]*RSVP, int, error)
	SetStatus(ctx context.Context, actorID, rsvpID string, status RSVPStatus) (*RSVP, error)
}
