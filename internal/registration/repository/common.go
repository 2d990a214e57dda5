package repository

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"matholymp/internal/datetimeutil"
	"matholymp/internal/fileutil"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("record already exists")
	ErrCodeExists    = errors.New("country code already exists")
	ErrUsernameTaken = errors.New("username already exists")
)

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullBool(b *bool) sql.NullInt64 {
	if b == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(boolInt(*b)), Valid: true}
}

func boolPtr(n sql.NullInt64) *bool {
	if !n.Valid {
		return nil
	}
	b := n.Int64 != 0
	return &b
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullID(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func dateText(t *time.Time) string {
	return datetimeutil.DateToYMDISO(t)
}

func parseDate(column, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := datetimeutil.DateFromYMDISO(column, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTime(column, s string) (*datetimeutil.TimeOfDay, error) {
	if s == "" {
		return nil, nil
	}
	t, err := datetimeutil.TimeFromHHMMISO(column, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func joinList(values []string) string {
	return fileutil.CommaJoin(values)
}

func splitList(s string) ([]string, error) {
	return fileutil.CommaSplit(s)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func unixTime(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}
