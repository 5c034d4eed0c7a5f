package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// UpsertVoteQuery returns an insert into votes that replaces the row
	// for an existing (round_id, player_id) pair.
	UpsertVoteQuery() string

	// ShareLockClause is appended to a SELECT to hold a shared row lock
	// until the surrounding transaction ends. Empty when the database
	// serializes writers on its own.
	ShareLockClause() string

	// IsUniqueViolation reports whether err was caused by a unique or
	// primary key constraint.
	IsUniqueViolation(err error) bool
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

const upsertVoteOnConflict = `
	INSERT INTO votes (round_id, player_id, card, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (round_id, player_id)
	DO UPDATE SET card = excluded.card, created_at = excluded.created_at
`
