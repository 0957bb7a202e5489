package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

var (
	rideColumns = []string{"id", "driver_id", "pickup_zone", "destination", "departure_time",
		"total_seats", "available_seats", "status", "is_subscription", "price_per_seat",
		"created_at", "updated_at"}
	participantColumns = []string{"ride_id", "user_id", "role", "status", "joined_at", "updated_at"}
	poolColumns        = []string{"id", "pickup_zone", "departure_time", "day_of_week", "created_by", "member_count", "created_at"}
)

func rideRow(id string, available int, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(rideColumns).AddRow(
		id, "driver-1", "North Campus", "Main Gate", now.Add(time.Hour),
		3, available, status, false, nil, now, now)
}
