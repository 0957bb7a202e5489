package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/lib/pq"
)

const lockPoolQuery = `SELECT id FROM subscription_pools WHERE id = \$1 FOR UPDATE`

func TestAddMemberUnknownPool(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubscriptionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockPoolQuery).WithArgs("missing").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.AddMember(context.Background(), "missing", "u1")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("AddMember on unknown pool = %v, want ErrNotFound", err)
	}
}

func TestAddMemberInsertErrors(t *testing.T) {
	tests := []struct {
		name   string
		insert error
		want   error
	}{
		{"already member", &pq.Error{Code: pgUniqueViolation}, apperrors.ErrAlreadyMember},
		{"pool deleted concurrently", &pq.Error{Code: pgForeignKeyViolation}, apperrors.ErrNotFound},
		{"lock timeout", &pq.Error{Code: pgLockNotAvailable}, apperrors.ErrConcurrencyConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewSubscriptionRepository(db)

			mock.ExpectBegin()
			mock.ExpectQuery(lockPoolQuery).WithArgs("pool-1").
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("pool-1"))
			mock.ExpectExec(`INSERT INTO pool_members`).WithArgs("pool-1", "u2", sqlmock.AnyArg()).
				WillReturnError(tt.insert)
			mock.ExpectRollback()

			_, err := repo.AddMember(context.Background(), "pool-1", "u2")
			if !errors.Is(err, tt.want) {
				t.Fatalf("AddMember = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddMemberIncrementsCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubscriptionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockPoolQuery).WithArgs("pool-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("pool-1"))
	mock.ExpectExec(`INSERT INTO pool_members`).WithArgs("pool-1", "u2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE subscription_pools SET member_count = member_count \+ 1`).WithArgs("pool-1").
		WillReturnRows(sqlmock.NewRows(poolColumns).
			AddRow("pool-1", "North Campus", "08:00", 1, "u1", 2, time.Now()))
	mock.ExpectCommit()

	pool, err := repo.AddMember(context.Background(), "pool-1", "u2")
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if pool.MemberCount != 2 || pool.DayOfWeek != 1 {
		t.Fatalf("pool = %+v, want 2 members on Monday", pool)
	}
}

func TestClaimOccurrence(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"first claim", 1, true},
		{"already claimed", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewSubscriptionRepository(db)

			mock.ExpectExec(`(?s)INSERT INTO pool_occurrences.*ON CONFLICT \(pool_id, occurrence_date\) DO NOTHING`).
				WithArgs("pool-1", "2024-01-01", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			claimed, err := repo.ClaimOccurrence(context.Background(), "pool-1", "2024-01-01")
			if err != nil {
				t.Fatalf("ClaimOccurrence: %v", err)
			}
			if claimed != tt.want {
				t.Fatalf("claimed = %v, want %v", claimed, tt.want)
			}
		})
	}
}
