package database

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Driver names a storage backend.
type Driver string

const (
	// DriverPostgres stores shop hours and appointments in PostgreSQL.
	DriverPostgres Driver = "postgres"
	// DriverSQLite stores them in a local SQLite file.
	DriverSQLite Driver = "sqlite"
)

// ErrUnsupportedDriver is returned for backends groomly cannot open.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

func (d Driver) String() string {
	return string(d)
}

// ParseDriver accepts a configured driver name and its common aliases.
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, name)
}

// DetectDriver infers the backend from a connection string. An empty string
// selects the local SQLite file; a key=value DSN selects PostgreSQL.
func DetectDriver(dsn string) Driver {
	if dsn == "" {
		return DriverSQLite
	}
	if u, err := url.Parse(dsn); err == nil {
		switch u.Scheme {
		case "postgres", "postgresql":
			return DriverPostgres
		case "sqlite", "file":
			return DriverSQLite
		}
	}
	switch filepath.Ext(dsn) {
	case ".db", ".sqlite", ".sqlite3":
		return DriverSQLite
	}
	return DriverPostgres
}
