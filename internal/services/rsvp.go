package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"bcbevents/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type rsvpService struct {
	eventRepo domain.EventRepository
	rsvpRepo  domain.RSVPRepository
	roleRepo  domain.RoleRepository
}

// NewRSVPService creates an RSVPService with the given repositories.
func NewRSVPService(
	eventRepo domain.EventRepository,
	rsvpRepo domain.RSVPRepository,
	roleRepo domain.RoleRepository,
) domain.RSVPService {
	return &rsvpService{
		eventRepo: eventRepo,
		rsvpRepo:  rsvpRepo,
		roleRepo:  roleRepo,
	}
}

func (s *rsvpService) Submit(ctx context.Context, eventID string, rsvp *domain.RSVP) (*domain.RSVP, error) {
	if strings.TrimSpace(rsvp.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	email := domain.NormalizeEmail(rsvp.Email)
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if rsvp.Guests < 1 || rsvp.Guests > domain.MaxGuestsPerRSVP {
		return nil, domain.ErrInvalidGuestCount
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.RequireRSVP {
		return nil, domain.ErrRSVPNotRequired
	}

	stored, err := s.rsvpRepo.SubmitWithAdmission(ctx, event, rsvp)
	if errors.Is(err, domain.ErrCapacityConflict) {
		// A concurrent submission invalidated the decision. Retry exactly once
		// with fresh state; the duplicate-email check reruns inside, so the
		// write is never blindly repeated.
		event, err = s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("refresh event: %w", err)
		}
		stored, err = s.rsvpRepo.SubmitWithAdmission(ctx, event, rsvp)
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateRSVP),
			errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrCapacityConflict):
			return nil, err
		}
		return nil, fmt.Errorf("submit rsvp: %w", err)
	}
	return stored, nil
}

func (s *rsvpService) ListByEvent(ctx context.Context, actorID, eventID string, p domain.PaginationParams) ([]*domain.RSVP, int, error) {
	if err := requireManager(ctx, s.roleRepo, actorID); err != nil {
		return nil, 0, err
	}
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	rsvps, total, err := s.rsvpRepo.ListByEvent(ctx, eventID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list rsvps: %w", err)
	}
	return rsvps, total, nil
}

func (s *rsvpService) ListRecent(ctx context.Context, actorID string, p domain.PaginationParams) ([]*domain.RSVP, int, error) {
	if err := requireManager(ctx, s.roleRepo, actorID); err != nil {
		return nil, 0, err
	}
	rsvps, total, err := s.rsvpRepo.ListRecent(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list rsvps: %w", err)
	}
	return rsvps, total, nil
}

func (s *rsvpService) SetStatus(ctx context.Context, actorID, rsvpID string, status domain.RSVPStatus) (*domain.RSVP, error) {
	if err := requireManager(ctx, s.roleRepo, actorID); err != nil {
		return nil, err
	}
	switch status {
	case domain.RSVPStatusApproved:
		rsvp, err := s.rsvpRepo.Approve(ctx, rsvpID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrCapacityExceeded):
				return nil, err
			}
			return nil, fmt.Errorf("approve rsvp: %w", err)
		}
		return rsvp, nil
	case domain.RSVPStatusRejected, domain.RSVPStatusWaitlist:
		rsvp, err := s.rsvpRepo.UpdateStatus(ctx, rsvpID, status)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("update rsvp status: %w", err)
		}
		return rsvp, nil
	default:
		return nil, fmt.Errorf("%w: cannot set status %q", domain.ErrInvalidInput, status)
	}
}
