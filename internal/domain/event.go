package domain

import (
	"context"
	"time"
)

// ApprovalMode controls how incoming RSVPs for an event are admitted.
type ApprovalMode string

const (
	// ApprovalModeImmediate auto-approves RSVPs until capacity is reached,
	// then waitlists.
	ApprovalModeImmediate ApprovalMode = "immediate"
	// ApprovalModeApproval holds every RSVP for manual review.
	ApprovalModeApproval ApprovalMode = "approval"
)

// Valid reports whether m is a known approval mode.
func (m ApprovalMode) Valid() bool {
	return m == ApprovalModeImmediate || m == ApprovalModeApproval
}

// Event represents a community event open for RSVPs.
// swagger:model Event
type Event struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Location     string       `json:"location"`
	StartsAt     time.Time    `json:"starts_at"`
	Capacity     int          `json:"capacity"`
	RequireRSVP  bool         `json:"require_rsvp"`
	ApprovalMode ApprovalMode `json:"rsvp_approval_mode"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is set by the repository on create.
func NewEvent(title, description, location string, startsAt time.Time, capacity int, requireRSVP bool, mode ApprovalMode, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:        title,
		Description:  description,
		Location:     location,
		StartsAt:     startsAt,
		Capacity:     capacity,
		RequireRSVP:  requireRSVP,
		ApprovalMode: mode,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// EventUpdate holds the optional fields of a partial event update.
// Nil fields are left unchanged.
type EventUpdate struct {
	Title        *string
	Description  *string
	Location     *string
	StartsAt     *time.Time
	Capacity     *int
	RequireRSVP  *bool
	ApprovalMode *ApprovalMode
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns all events ordered by start time ascending.
	List(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	// Delete removes the event and, by schema cascade, its RSVPs.
	Delete(ctx context.Context, id string) error
}

// EventAttendance summarizes RSVP state for one event.
// swagger:model EventAttendance
type EventAttendance struct {
	ApprovedGuests int `json:"approved_guests"`
	PendingCount   int `json:"pending_count"`
	WaitlistCount  int `json:"waitlist_count"`
	RSVPCount      int `json:"rsvp_count"`
}

// EventService defines event operations. Mutations require the acting
// principal to hold the manager or admin role, resolved immediately before
// the write.
type EventService interface {
	ListEvents(ctx context.Context) ([]*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, *EventAttendance, error)
	CreateEvent(ctx context.Context, actorID string, event *Event) error
	UpdateEvent(ctx context.Context, actorID, id string, upd EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, actorID, id string) error
}
