package persistence

import (
	"database/sql"
	"time"
)

// sqliteTimeLayout is fixed width so TEXT columns sort and compare chronologically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatSQLiteTime renders t in UTC for storage.
func FormatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// ParseSQLiteTime parses a value written by FormatSQLiteTime.
func ParseSQLiteTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}

// FormatNullableSQLiteTime maps nil to NULL.
func FormatNullableSQLiteTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatSQLiteTime(*t), Valid: true}
}

// ParseNullableSQLiteTime maps NULL to nil.
func ParseNullableSQLiteTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := ParseSQLiteTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
