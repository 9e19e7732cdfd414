package db

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Interval converts a retention period into a Postgres interval.
func Interval(d time.Duration) pgtype.Interval {
	return pgtype.Interval{
		Microseconds: int64(d / time.Microsecond),
		Valid:        true,
	}
}
