package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"bcbevents/internal/domain"
)

// Postgres error codes mapped to domain sentinels.
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
)

type rsvpRepository struct {
	DB *sql.DB
}

// NewRSVPRepository returns an RSVPRepository backed by Postgres. The rsvps
// table carries a unique index on (event_id, lower(email)) and a foreign key
// to events with ON DELETE CASCADE; admission paths rely on row locks on the
// parent event to serialize concurrent submissions per event.
func NewRSVPRepository(db *sql.DB) domain.RSVPRepository {
	return &rsvpRepository{
		DB: db,
	}
}

const rsvpColumns = `id, event_id, name, email, phone, guests, dietary_restrictions, status, created_at`

func scanRSVP(row interface{ Scan(...any) error }) (*domain.RSVP, error) {
	rsvp := &domain.RSVP{}
	var phone, dietary sql.NullString
	var status string
	err := row.Scan(&rsvp.ID, &rsvp.EventID, &rsvp.Name, &rsvp.Email, &phone, &rsvp.Guests, &dietary, &status, &rsvp.CreatedAt)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		rsvp.Phone = &phone.String
	}
	if dietary.Valid {
		rsvp.DietaryRestrictions = &dietary.String
	}
	rsvp.Status = domain.RSVPStatus(status)
	return rsvp, nil
}

// lockEventTx reads the event row under FOR UPDATE, blocking concurrent
// admission transactions for the same event until this one commits.
func lockEventTx(ctx context.Context, tx *sql.Tx, eventID string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
		FOR UPDATE
	`
	e, err := scanEvent(tx.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func listByEventTx(ctx context.Context, tx *sql.Tx, eventID string) ([]*domain.RSVP, error) {
	query := `
		SELECT ` + rsvpColumns + `
		FROM rsvps
		WHERE event_id = $1
	`
	rows, err := tx.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rsvps []*domain.RSVP
	for rows.Next() {
		rsvp, err := scanRSVP(rows)
		if err != nil {
			return nil, err
		}
		rsvps = append(rsvps, rsvp)
	}
	return rsvps, rows.Err()
}

// mapWriteErr converts pq failure codes on admission writes to domain errors.
// A unique violation means another transaction inserted the same
// (event, email) pair first; it is never blindly retried.
func mapWriteErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return domain.ErrDuplicateRSVP
		case pqSerializationFailure:
			return domain.ErrCapacityConflict
		}
	}
	return err
}

func (r *rsvpRepository) SubmitWithAdmission(ctx context.Context, event *domain.Event, rsvp *domain.RSVP) (*domain.RSVP, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Decide against the locked row, not the caller's snapshot: capacity or
	// mode may have changed since the event was fetched.
	locked, err := lockEventTx(ctx, tx, event.ID)
	if err != nil {
		return nil, err
	}
	existing, err := listByEventTx(ctx, tx, event.ID)
	if err != nil {
		return nil, err
	}
	decision, err := domain.DecideAdmission(locked, existing, domain.AdmissionRequest{
		Email:  rsvp.Email,
		Guests: rsvp.Guests,
	})
	if err != nil {
		return nil, err
	}

	out := *rsvp
	out.EventID = event.ID
	out.Email = domain.NormalizeEmail(rsvp.Email)
	out.Status = decision.Status
	query := `
		INSERT INTO rsvps (event_id, name, email, phone, guests, dietary_restrictions, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	var phone, dietary sql.NullString
	if out.Phone != nil {
		phone = sql.NullString{String: *out.Phone, Valid: true}
	}
	if out.DietaryRestrictions != nil {
		dietary = sql.NullString{String: *out.DietaryRestrictions, Valid: true}
	}
	err = tx.QueryRowContext(ctx, query,
		out.EventID, out.Name, out.Email, phone, out.Guests, dietary, string(out.Status),
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapWriteErr(err)
	}
	committed = true
	return &out, nil
}

func (r *rsvpRepository) GetByID(ctx context.Context, id string) (*domain.RSVP, error) {
	query := `
		SELECT ` + rsvpColumns + `
		FROM rsvps
		WHERE id = $1
	`
	rsvp, err := scanRSVP(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rsvp, nil
}

func (r *rsvpRepository) ListByEvent(ctx context.Context, eventID string, p domain.PaginationParams) ([]*domain.RSVP, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM rsvps WHERE event_id = $1`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + rsvpColumns + `
		FROM rsvps
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.listPage(ctx, total, query, eventID, p.PageSize, p.Offset())
}

func (r *rsvpRepository) ListRecent(ctx context.Context, p domain.PaginationParams) ([]*domain.RSVP, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM rsvps`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + rsvpColumns + `
		FROM rsvps
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.listPage(ctx, total, query, p.PageSize, p.Offset())
}

func (r *rsvpRepository) listPage(ctx context.Context, total int, query string, args ...interface{}) ([]*domain.RSVP, int, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	rsvps := make([]*domain.RSVP, 0)
	for rows.Next() {
		rsvp, err := scanRSVP(rows)
		if err != nil {
			return nil, 0, err
		}
		rsvps = append(rsvps, rsvp)
	}
	return rsvps, total, rows.Err()
}

// Approve transitions an RSVP to approved under the same event-row lock the
// admission path takes, so a manual approval can never race a submission past
// capacity. Approving an RSVP that already counts toward the confirmed total
// is a no-op status write.
func (r *rsvpRepository) Approve(ctx context.Context, id string) (*domain.RSVP, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var eventID string
	if err := tx.QueryRowContext(ctx, `SELECT event_id FROM rsvps WHERE id = $1`, id).Scan(&eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	event, err := lockEventTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	existing, err := listByEventTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	var target *domain.RSVP
	for _, rsvp := range existing {
		if rsvp.ID == id {
			target = rsvp
			break
		}
	}
	if target == nil {
		return nil, domain.ErrNotFound
	}

	// Parties already counted as confirmed (approved, or legacy no-status
	// under immediate mode) don't consume capacity a second time.
	counted := target.Status == domain.RSVPStatusApproved ||
		(target.Status == "" && event.ApprovalMode == domain.ApprovalModeImmediate)
	if !counted {
		confirmed := domain.ConfirmedGuests(event, existing)
		if confirmed+target.Guests > event.Capacity {
			return nil, domain.ErrCapacityExceeded
		}
	}

	updated, err := updateStatusTx(ctx, tx, id, domain.RSVPStatusApproved)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, mapWriteErr(err)
	}
	committed = true
	return updated, nil
}

func updateStatusTx(ctx context.Context, tx *sql.Tx, id string, status domain.RSVPStatus) (*domain.RSVP, error) {
	query := `
		UPDATE rsvps SET status = $2
		WHERE id = $1
		RETURNING ` + rsvpColumns + `
	`
	rsvp, err := scanRSVP(tx.QueryRowContext(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rsvp, nil
}

func (r *rsvpRepository) UpdateStatus(ctx context.Context, id string, status domain.RSVPStatus) (*domain.RSVP, error) {
	query := `
		UPDATE rsvps SET status = $2
		WHERE id = $1
		RETURNING ` + rsvpColumns + `
	`
	rsvp, err := scanRSVP(r.DB.QueryRowContext(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rsvp, nil
}

func (r *rsvpRepository) Attendance(ctx context.Context, eventID string) (*domain.EventAttendance, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN r.status = 'approved' OR (r.status = '' AND e.rsvp_approval_mode = 'immediate') THEN r.guests ELSE 0 END), 0),
			COUNT(r.id) FILTER (WHERE r.status = 'pending'),
			COUNT(r.id) FILTER (WHERE r.status = 'waitlist'),
			COUNT(r.id)
		FROM events e
		LEFT JOIN rsvps r ON r.event_id = e.id
		WHERE e.id = $1
		GROUP BY e.id
	`
	att := &domain.EventAttendance{}
	err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&att.ApprovedGuests, &att.PendingCount, &att.WaitlistCount, &att.RSVPCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return att, nil
}
