package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(*t)
}

func pgTimestamptzToPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

func stringPtrToPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func pgTextToPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// numericToInt64 converts an aggregate over BIGINT columns back to minor
// units. SUM widens to NUMERIC, so the result may not fit.
func numericToInt64(n pgtype.Numeric) (int64, error) {
	d := numericToDecimal(n)
	if !d.IsInteger() {
		return 0, fmt.Errorf("aggregate %s is not a whole amount", d)
	}
	if d.GreaterThan(decimal.NewFromInt(maxInt64)) || d.LessThan(decimal.NewFromInt(minInt64)) {
		return 0, fmt.Errorf("aggregate %s overflows int64", d)
	}

	return d.IntPart(), nil
}

const (
	maxInt64 = 1<<63 - 1
	minInt64 = -1 << 63
)
