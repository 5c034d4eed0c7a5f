package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{Path: "poker.db"})
		expected := "poker.db?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
		if result != expected {
			t.Errorf("DSN() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("ShareLockClause", func(t *testing.T) {
		if clause := dialect.ShareLockClause(); clause != "" {
			t.Errorf("ShareLockClause() = %q, want empty", clause)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("ShareLockClause", func(t *testing.T) {
		if clause := dialect.ShareLockClause(); clause != " FOR SHARE" {
			t.Errorf("ShareLockClause() = %q, want %q", clause, " FOR SHARE")
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN enables parseTime", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{URL: "poker:secret@tcp(localhost:3306)/poker"})
		cfg, err := mysql.ParseDSN(result)
		if err != nil {
			t.Fatalf("ParseDSN(%q) error = %v", result, err)
		}
		if !cfg.ParseTime {
			t.Errorf("DSN() = %v, want parseTime enabled", result)
		}
		if cfg.DBName != "poker" {
			t.Errorf("DBName = %v, want poker", cfg.DBName)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM rounds WHERE id = ?",
			expected: "SELECT * FROM rounds WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM rounds WHERE id = ?",
			expected: "SELECT * FROM rounds WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO players (id, name) VALUES (?, ?)",
			expected: "INSERT INTO players (id, name) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE players SET name = ?, updated_at = ? WHERE id = ?",
			expected: "UPDATE players SET name = ?, updated_at = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{
			name:    "SQLite unique constraint",
			dialect: NewSQLiteDialect(),
			err:     sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique},
			want:    true,
		},
		{
			name:    "SQLite primary key wrapped",
			dialect: NewSQLiteDialect(),
			err:     fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}),
			want:    true,
		},
		{
			name:    "SQLite foreign key",
			dialect: NewSQLiteDialect(),
			err:     sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey},
			want:    false,
		},
		{
			name:    "PostgreSQL unique_violation",
			dialect: NewPostgresDialect(),
			err:     &pq.Error{Code: "23505"},
			want:    true,
		},
		{
			name:    "PostgreSQL foreign_key_violation",
			dialect: NewPostgresDialect(),
			err:     &pq.Error{Code: "23503"},
			want:    false,
		},
		{
			name:    "MySQL duplicate entry",
			dialect: NewMySQLDialect(),
			err:     &mysql.MySQLError{Number: 1062},
			want:    true,
		},
		{
			name:    "plain error",
			dialect: NewMySQLDialect(),
			err:     errors.New("boom"),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `
-- comment
CREATE TABLE a (
    id TEXT PRIMARY KEY
);

CREATE INDEX idx_a ON a(id);
`
	statements := splitStatements(content)
	if len(statements) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(statements), statements)
	}
	if statements[1] != "CREATE INDEX idx_a ON a(id);" {
		t.Errorf("second statement = %q", statements[1])
	}
}
