package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"bcbevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var rsvpColumnList = []string{"id", "event_id", "name", "email", "phone", "guests", "dietary_restrictions", "status", "created_at"}

func rsvpRows(rsvps ...*domain.RSVP) *sqlmock.Rows {
	rows := sqlmock.NewRows(rsvpColumnList)
	for _, r := range rsvps {
		var phone, dietary interface{}
		if r.Phone != nil {
			phone = *r.Phone
		}
		if r.DietaryRestrictions != nil {
			dietary = *r.DietaryRestrictions
		}
		created := r.CreatedAt
		if created.IsZero() {
			created = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
		}
		rows.AddRow(r.ID, r.EventID, r.Name, r.Email, phone, r.Guests, dietary, string(r.Status), created)
	}
	return rows
}

func submitEvent() *domain.Event {
	return &domain.Event{ID: "ev-1", Capacity: 40, RequireRSVP: true, ApprovalMode: domain.ApprovalModeImmediate}
}

func TestRSVPRepository_SubmitWithAdmission(t *testing.T) {
	ctx := context.Background()

	t.Run("approved within capacity", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(eventRow("ev-1", 40, "immediate"))
		mock.ExpectQuery(`FROM rsvps`).
			WithArgs("ev-1").
			WillReturnRows(rsvpRows(
				&domain.RSVP{ID: "r-1", EventID: "ev-1", Name: "Early Bird", Email: "b@example.org", Guests: 30, Status: domain.RSVPStatusApproved},
			))
		mock.ExpectQuery(`INSERT INTO rsvps`).
			WithArgs("ev-1", "Pat Doe", "pat@example.org", sql.NullString{}, 4, sql.NullString{}, "approved").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow("r-new", time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)))
		mock.ExpectCommit()

		repo := NewRSVPRepository(db)
		stored, err := repo.SubmitWithAdmission(ctx, submitEvent(), &domain.RSVP{
			Name:   "Pat Doe",
			Email:  "Pat@Example.org",
			Guests: 4,
		})
		require.NoError(t, err)
		require.Equal(t, "r-new", stored.ID)
		require.Equal(t, domain.RSVPStatusApproved, stored.Status)
		require.Equal(t, "pat@example.org", stored.Email)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("waitlisted when party does not fit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(eventRow("ev-1", 40, "immediate"))
		mock.ExpectQuery(`FROM rsvps`).
			WithArgs("ev-1").
			WillReturnRows(rsvpRows(
				&domain.RSVP{ID: "r-1", EventID: "ev-1", Email: "b@example.org", Guests: 38, Status: domain.RSVPStatusApproved},
			))
		mock.ExpectQuery(`INSERT INTO rsvps`).
			WithArgs("ev-1", "Pat Doe", "pat@example.org", sql.NullString{}, 4, sql.NullString{}, "waitlist").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow("r-new", time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)))
		mock.ExpectCommit()

		repo := NewRSVPRepository(db)
		stored, err := repo.SubmitWithAdmission(ctx, submitEvent(), &domain.RSVP{
			Name:   "Pat Doe",
			Email:  "pat@example.org",
			Guests: 4,
		})
		require.NoError(t, err)
		require.Equal(t, domain.RSVPStatusWaitlist, stored.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("decision made against locked row not caller snapshot", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		// Caller fetched the event in immediate mode, but a manager flipped
		// it to approval before this submission locked the row.
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(eventRow("ev-1", 40, "approval"))
		mock.ExpectQuery(`FROM rsvps`).
			WithArgs("ev-1").
			WillReturnRows(rsvpRows())
		mock.ExpectQuery(`INSERT INTO rsvps`).
			WithArgs("ev-1", "Pat Doe", "pat@example.org", sql.NullString{}, 2, sql.NullString{}, "pending").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow("r-new", time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)))
		mock.ExpectCommit()

		repo := NewRSVPRepository(db)
		stored, err := repo.SubmitWithAdmission(ctx, submitEvent(), &domain.RSVP{
			Name:   "Pat Doe",
			Email:  "pat@example.org",
			Guests: 2,
		})
		require.NoError(t, err)
		require.Equal(t, domain.RSVPStatusPending, stored.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email detected before insert", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(eventRow("ev-1", 40, "immediate"))
		mock.ExpectQuery(`FROM rsvps`).
			WithArgs("ev-1").
			WillReturnRows(rsvpRows(
				&domain.RSVP{ID: "r-1", EventID: "ev-1", Email: "pat@example.org", Guests: 1, Status: domain.RSVPStatusApproved},
			))
		mock.ExpectRollback()

		repo := NewRSVPRepository(db)
		_, err = repo.SubmitWithAdmission(ctx, submitEvent(), &domain.RSVP{
			Name:   "Pat Doe",
			Email:  "PAT@example.org",
			Guests: 1,
		})
		require.ErrorIs(t, err, domain.ErrDuplicateRSVP)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation on insert maps to duplicate", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(eventRow("ev-1", 40, "immediate"))
		mock.ExpectQuery(`FROM rsvps`).
			WithArgs("ev-1").
			WillReturnRows(rsvpRows())
		mock.ExpectQuery(`INSERT INTO rsvps`).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		repo := NewRSVPRepository(db)
		_, err = repo.SubmitWithAdmission(ctx, submitEvent(), &domain.RSVP{
			Name:   "Pat Doe",
			Email:  "pat@example.org",
			Guests: 1,
		})
		require.ErrorIs(t, err, domain.ErrDuplicateRSVP)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure maps to capacity conflict", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(eventRow("ev-1", 40, "immediate"))
		mock.ExpectQuery(`FROM rsvps`).
			WithArgs("ev-1").
			WillReturnRows(rsvpRows())
		mock.ExpectQuery(`INSERT INTO rsvps`).
			WillReturnError(&pq.Error{Code: "40001"})
		mock.ExpectRollback()

		repo := NewRSVPRepository(db)
		_, err = repo.SubmitWithAdmission(ctx, submitEvent(), &domain.RSVP{
			Name:   "Pat Doe",
			Email:  "pat@example.org",
			Guests: 1,
		})
		require.ErrorIs(t, err, domain.ErrCapacityConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("event deleted concurrently", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		repo := NewRSVPRepository(db)
		_, err = repo.SubmitWithAdmission(ctx, submitEvent(), &domain.RSVP{
			Name:   "Pat Doe",
			Email:  "pat@example.org",
			Guests: 1,
		})
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRSVPRepository_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("approves when party fits", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT event_id FROM rsvps WHERE id = \$1`).
			WithArgs("r-2").
			WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("ev-1"))
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(eventRow("ev-1", 40, "approval"))
		mock.ExpectQuery(`FROM rsvps`).
			WithArgs("ev-1").
			WillReturnRows(rsvpRows(
				&domain.RSVP{ID: "r-1", EventID: "ev-1", Email: "a@example.org", Guests: 30, Status: domain.RSVPStatusApproved},
				&domain.RSVP{ID: "r-2", EventID: "ev-1", Email: "b@example.org", Guests: 10, Status: domain.RSVPStatusPending},
			))
		mock.ExpectQuery(`UPDATE rsvps SET status = \$2`).
			WithArgs("r-2", "approved").
			WillReturnRows(rsvpRows(
				&domain.RSVP{ID: "r-2", EventID: "ev-1", Email: "b@example.org", Guests: 10, Status: domain.RSVPStatusApproved},
			))
		mock.ExpectCommit()

		repo := NewRSVPRepository(db)
		updated, err := repo.Approve(ctx, "r-2")
		require.NoError(t, err)
		require.Equal(t, domain.RSVPStatusApproved, updated.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("capacity exceeded", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT event_id FROM rsvps WHERE id = \$1`).
			WithArgs("r-2").
			WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("ev-1"))
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(eventRow("ev-1", 40, "approval"))
		mock.ExpectQuery(`FROM rsvps`).
			WithArgs("ev-1").
			WillReturnRows(rsvpRows(
				&domain.RSVP{ID: "r-1", EventID: "ev-1", Email: "a@example.org", Guests: 35, Status: domain.RSVPStatusApproved},
				&domain.RSVP{ID: "r-2", EventID: "ev-1", Email: "b@example.org", Guests: 10, Status: domain.RSVPStatusPending},
			))
		mock.ExpectRollback()

		repo := NewRSVPRepository(db)
		_, err = repo.Approve(ctx, "r-2")
		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("re-approving an approved rsvp does not double count", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		// 40 of 40 seats taken by this very party; approving again must not
		// fail the capacity check.
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT event_id FROM rsvps WHERE id = \$1`).
			WithArgs("r-1").
			WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("ev-1"))
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(eventRow("ev-1", 40, "immediate"))
		mock.ExpectQuery(`FROM rsvps`).
			WithArgs("ev-1").
			WillReturnRows(rsvpRows(
				&domain.RSVP{ID: "r-1", EventID: "ev-1", Email: "a@example.org", Guests: 40, Status: domain.RSVPStatusApproved},
			))
		mock.ExpectQuery(`UPDATE rsvps SET status = \$2`).
			WithArgs("r-1", "approved").
			WillReturnRows(rsvpRows(
				&domain.RSVP{ID: "r-1", EventID: "ev-1", Email: "a@example.org", Guests: 40, Status: domain.RSVPStatusApproved},
			))
		mock.ExpectCommit()

		repo := NewRSVPRepository(db)
		updated, err := repo.Approve(ctx, "r-1")
		require.NoError(t, err)
		require.Equal(t, domain.RSVPStatusApproved, updated.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rsvp not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT event_id FROM rsvps WHERE id = \$1`).
			WithArgs("r-missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		repo := NewRSVPRepository(db)
		_, err = repo.Approve(ctx, "r-missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRSVPRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE rsvps SET status = \$2`).
			WithArgs("r-1", "rejected").
			WillReturnRows(rsvpRows(
				&domain.RSVP{ID: "r-1", EventID: "ev-1", Email: "a@example.org", Guests: 2, Status: domain.RSVPStatusRejected},
			))

		repo := NewRSVPRepository(db)
		updated, err := repo.UpdateStatus(ctx, "r-1", domain.RSVPStatusRejected)
		require.NoError(t, err)
		require.Equal(t, domain.RSVPStatusRejected, updated.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE rsvps SET status = \$2`).
			WithArgs("r-missing", "waitlist").
			WillReturnError(sql.ErrNoRows)

		repo := NewRSVPRepository(db)
		_, err = repo.UpdateStatus(ctx, "r-missing", domain.RSVPStatusWaitlist)
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRSVPRepository_ListByEvent(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rsvps WHERE event_id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	phone := "555-0100"
	mock.ExpectQuery(`FROM rsvps`).
		WithArgs("ev-1", 20, 20).
		WillReturnRows(rsvpRows(
			&domain.RSVP{ID: "r-1", EventID: "ev-1", Name: "Pat", Email: "a@example.org", Phone: &phone, Guests: 2, Status: domain.RSVPStatusApproved},
			&domain.RSVP{ID: "r-2", EventID: "ev-1", Name: "Sam", Email: "b@example.org", Guests: 1, Status: domain.RSVPStatusWaitlist},
		))

	repo := NewRSVPRepository(db)
	rsvps, total, err := repo.ListByEvent(ctx, "ev-1", domain.PaginationParams{Page: 2, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, 42, total)
	require.Len(t, rsvps, 2)
	require.NotNil(t, rsvps[0].Phone)
	require.Equal(t, "555-0100", *rsvps[0].Phone)
	require.Nil(t, rsvps[1].Phone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRSVPRepository_ListRecent(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rsvps`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`FROM rsvps`).
		WithArgs(20, 0).
		WillReturnRows(rsvpRows(
			&domain.RSVP{ID: "r-3", EventID: "ev-2", Name: "Lee", Email: "c@example.org", Guests: 4, Status: domain.RSVPStatusPending},
		))

	repo := NewRSVPRepository(db)
	rsvps, total, err := repo.ListRecent(ctx, domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, rsvps, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRSVPRepository_Attendance(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`LEFT JOIN rsvps`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"approved_guests", "pending", "waitlist", "total"}).
				AddRow(35, 2, 4, 12))

		repo := NewRSVPRepository(db)
		att, err := repo.Attendance(ctx, "ev-1")
		require.NoError(t, err)
		require.Equal(t, 35, att.ApprovedGuests)
		require.Equal(t, 2, att.PendingCount)
		require.Equal(t, 4, att.WaitlistCount)
		require.Equal(t, 12, att.RSVPCount)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("event not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`LEFT JOIN rsvps`).
			WithArgs("ev-missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewRSVPRepository(db)
		_, err = repo.Attendance(ctx, "ev-missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
