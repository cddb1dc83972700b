package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bcbevents/internal/domain"
)

type eventService struct {
	eventRepo domain.EventRepository
	rsvpRepo  domain.RSVPRepository
	roleRepo  domain.RoleRepository
}

// NewEventService creates an EventService with the given repositories.
func NewEventService(
	eventRepo domain.EventRepository,
	rsvpRepo domain.RSVPRepository,
	roleRepo domain.RoleRepository,
) domain.EventService {
	return &eventService{
		eventRepo: eventRepo,
		rsvpRepo:  rsvpRepo,
		roleRepo:  roleRepo,
	}
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, *domain.EventAttendance, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	att, err := s.rsvpRepo.Attendance(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get attendance: %w", err)
	}
	return event, att, nil
}

func validateEvent(title string, startsAt time.Time, capacity int, mode domain.ApprovalMode) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if startsAt.IsZero() {
		return fmt.Errorf("%w: start time is required", domain.ErrInvalidInput)
	}
	if capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", domain.ErrInvalidInput)
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown approval mode %q", domain.ErrInvalidInput, mode)
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, actorID string, event *domain.Event) error {
	if err := requireManager(ctx, s.roleRepo, actorID); err != nil {
		return err
	}
	if event.ApprovalMode == "" {
		event.ApprovalMode = domain.ApprovalModeImmediate
	}
	if err := validateEvent(event.Title, event.StartsAt, event.Capacity, event.ApprovalMode); err != nil {
		return err
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) UpdateEvent(ctx context.Context, actorID, id string, upd domain.EventUpdate) (*domain.Event, error) {
	if err := requireManager(ctx, s.roleRepo, actorID); err != nil {
		return nil, err
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if upd.Capacity != nil && *upd.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", domain.ErrInvalidInput)
	}
	if upd.ApprovalMode != nil && !upd.ApprovalMode.Valid() {
		return nil, fmt.Errorf("%w: unknown approval mode %q", domain.ErrInvalidInput, *upd.ApprovalMode)
	}
	event, err := s.eventRepo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, actorID, id string) error {
	if err := requireManager(ctx, s.roleRepo, actorID); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
