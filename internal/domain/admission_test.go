package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func immediateEvent(capacity int) *Event {
	return &Event{ID: "ev-1", Title: "Harvest Dinner", Capacity: capacity, RequireRSVP: true, ApprovalMode: ApprovalModeImmediate}
}

func approvalEvent(capacity int) *Event {
	return &Event{ID: "ev-2", Title: "Gala", Capacity: capacity, RequireRSVP: true, ApprovalMode: ApprovalModeApproval}
}

func rsvpWith(email string, guests int, status RSVPStatus) *RSVP {
	return &RSVP{EventID: "ev-1", Email: email, Guests: guests, Status: status}
}

func TestDecideAdmission(t *testing.T) {
	tests := []struct {
		name       string
		event      *Event
		existing   []*RSVP
		req        AdmissionRequest
		wantStatus RSVPStatus
		wantDelta  int
		wantErr    error
	}{
		{
			name:       "immediate empty event approves",
			event:      immediateEvent(40),
			existing:   nil,
			req:        AdmissionRequest{Email: "a@example.org", Guests: 2},
			wantStatus: RSVPStatusApproved,
			wantDelta:  2,
		},
		{
			name:  "immediate approves while capacity remains",
			event: immediateEvent(40),
			existing: []*RSVP{
				rsvpWith("b@example.org", 30, RSVPStatusApproved),
			},
			req:        AdmissionRequest{Email: "a@example.org", Guests: 4},
			wantStatus: RSVPStatusApproved,
			wantDelta:  4,
		},
		{
			name:  "request exactly filling capacity is approved",
			event: immediateEvent(40),
			existing: []*RSVP{
				rsvpWith("b@example.org", 36, RSVPStatusApproved),
			},
			req:        AdmissionRequest{Email: "a@example.org", Guests: 4},
			wantStatus: RSVPStatusApproved,
			wantDelta:  4,
		},
		{
			name:  "request one past capacity is waitlisted",
			event: immediateEvent(40),
			existing: []*RSVP{
				rsvpWith("b@example.org", 37, RSVPStatusApproved),
			},
			req:        AdmissionRequest{Email: "a@example.org", Guests: 4},
			wantStatus: RSVPStatusWaitlist,
			wantDelta:  0,
		},
		{
			name:  "waitlisted and pending parties do not consume capacity",
			event: immediateEvent(10),
			existing: []*RSVP{
				rsvpWith("b@example.org", 8, RSVPStatusWaitlist),
				rsvpWith("c@example.org", 8, RSVPStatusPending),
				rsvpWith("d@example.org", 8, RSVPStatusRejected),
			},
			req:        AdmissionRequest{Email: "a@example.org", Guests: 10},
			wantStatus: RSVPStatusApproved,
			wantDelta:  10,
		},
		{
			name:  "legacy rows with no status count as approved under immediate",
			event: immediateEvent(10),
			existing: []*RSVP{
				rsvpWith("b@example.org", 8, ""),
			},
			req:        AdmissionRequest{Email: "a@example.org", Guests: 3},
			wantStatus: RSVPStatusWaitlist,
			wantDelta:  0,
		},
		{
			name:       "approval mode pends even when empty",
			event:      approvalEvent(100),
			existing:   nil,
			req:        AdmissionRequest{Email: "a@example.org", Guests: 1},
			wantStatus: RSVPStatusPending,
			wantDelta:  0,
		},
		{
			name:  "approval mode pends even when over capacity",
			event: approvalEvent(5),
			existing: []*RSVP{
				rsvpWith("b@example.org", 5, RSVPStatusApproved),
			},
			req:        AdmissionRequest{Email: "a@example.org", Guests: 5},
			wantStatus: RSVPStatusPending,
			wantDelta:  0,
		},
		{
			name:  "duplicate email rejected",
			event: immediateEvent(40),
			existing: []*RSVP{
				rsvpWith("taken@example.org", 1, RSVPStatusApproved),
			},
			req:     AdmissionRequest{Email: "taken@example.org", Guests: 1},
			wantErr: ErrDuplicateRSVP,
		},
		{
			name:  "duplicate check is case and whitespace insensitive",
			event: immediateEvent(40),
			existing: []*RSVP{
				rsvpWith("taken@example.org", 1, RSVPStatusWaitlist),
			},
			req:     AdmissionRequest{Email: "  Taken@Example.org ", Guests: 1},
			wantErr: ErrDuplicateRSVP,
		},
		{
			name:  "duplicate beats capacity decision",
			event: approvalEvent(40),
			existing: []*RSVP{
				rsvpWith("taken@example.org", 1, RSVPStatusPending),
			},
			req:     AdmissionRequest{Email: "taken@example.org", Guests: 1},
			wantErr: ErrDuplicateRSVP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := DecideAdmission(tt.event, tt.existing, tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, decision.Status)
			assert.Equal(t, tt.wantDelta, decision.GuestDelta)
		})
	}
}

func TestConfirmedGuests(t *testing.T) {
	rsvps := []*RSVP{
		rsvpWith("a@example.org", 3, RSVPStatusApproved),
		rsvpWith("b@example.org", 2, ""),
		rsvpWith("c@example.org", 4, RSVPStatusWaitlist),
		rsvpWith("d@example.org", 5, RSVPStatusPending),
		rsvpWith("e@example.org", 6, RSVPStatusRejected),
	}

	assert.Equal(t, 5, ConfirmedGuests(immediateEvent(40), rsvps), "approved plus legacy empty-status")
	assert.Equal(t, 3, ConfirmedGuests(approvalEvent(40), rsvps), "legacy rows only count under immediate")
	assert.Equal(t, 0, ConfirmedGuests(immediateEvent(40), nil))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@example.org", NormalizeEmail("  A@Example.ORG \n"))
	assert.Equal(t, "", NormalizeEmail("   "))
}
