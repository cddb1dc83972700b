package domain

import "strings"

// AdmissionRequest is the part of an incoming RSVP the admission engine needs.
type AdmissionRequest struct {
	Email  string
	Guests int
}

// AdmissionDecision is the engine's output for one RSVP submission.
type AdmissionDecision struct {
	Status RSVPStatus
	// GuestDelta is the amount to add to the event's confirmed-guest total:
	// the requested guest count when the decision is approved, zero otherwise.
	GuestDelta int
}

// DecideAdmission decides the status of a new RSVP for event given the RSVPs
// that already exist for it. It is a pure function: callers own persistence
// and must make the read of existing and the subsequent write atomic with
// respect to concurrent submissions for the same event.
//
// Rules:
//   - a duplicate email among existing RSVPs fails with ErrDuplicateRSVP;
//   - approval mode always yields pending, regardless of capacity;
//   - immediate mode approves while confirmed+requested fits capacity
//     (a request that exactly fills it is approved), waitlists beyond.
//
// Callers must short-circuit events with RequireRSVP false before calling and
// validate the guest count; both are outside the engine's contract.
func DecideAdmission(event *Event, existing []*RSVP, req AdmissionRequest) (AdmissionDecision, error) {
	email := NormalizeEmail(req.Email)
	for _, r := range existing {
		if NormalizeEmail(r.Email) == email {
			return AdmissionDecision{}, ErrDuplicateRSVP
		}
	}

	if event.ApprovalMode == ApprovalModeApproval {
		return AdmissionDecision{Status: RSVPStatusPending}, nil
	}

	confirmed := ConfirmedGuests(event, existing)
	if confirmed+req.Guests <= event.Capacity {
		return AdmissionDecision{Status: RSVPStatusApproved, GuestDelta: req.Guests}, nil
	}
	return AdmissionDecision{Status: RSVPStatusWaitlist}, nil
}

// ConfirmedGuests sums guests over the RSVPs that count toward event's
// capacity: those with status approved, plus legacy rows with no status when
// the event admits immediately.
func ConfirmedGuests(event *Event, rsvps []*RSVP) int {
	total := 0
	for _, r := range rsvps {
		switch {
		case r.Status == RSVPStatusApproved:
			total += r.Guests
		case r.Status == "" && event.ApprovalMode == ApprovalModeImmediate:
			total += r.Guests
		}
	}
	return total
}

// NormalizeEmail lowercases and trims an email for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
