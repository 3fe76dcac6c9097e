// Package postgres implements the repository contract on a relational
// engine through sqlx. The engine's own transactions and unique indexes
// provide natively what the DynamoDB adapter has to emulate; both
// implementations present identical behavior to callers. Contract tests
// run this adapter against sqlite with the same embedded migrations.
package postgres

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	apperrors "idp-backend/pkg/errors"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Open connects, runs the embedded migrations and returns the handle.
// driver is "postgres" in production and "sqlite3" in tests.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapWriteError maps unique violations to the conflict error callers
// branch on; anything else is a database error.
func wrapWriteError(operation string, err error) error {
	if isUniqueViolation(err) {
		return apperrors.NewConflictError("a record with the same unique value already exists").WithCause(err)
	}
	return apperrors.NewDatabaseError(operation, err)
}

// timeFormat matches the serialization used by the DynamoDB adapter so
// optimistic-lock timestamp comparison is an exact string equality on
// both backends. Fixed width, microsecond precision, sortable.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// clock returns the observed-now value used for createdAt/updatedAt.
var clock = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, apperrors.NewInternalError("malformed stored timestamp").WithCause(err)
	}
	return t, nil
}

// nullableTime serializes an optional timestamp to a NULL-able column.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullableUUID serializes a reference; the zero UUID maps to NULL.
func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}

func parseNullUUID(s *string) (uuid.UUID, error) {
	if s == nil || *s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return uuid.Nil, apperrors.NewInternalError("malformed stored identifier").WithCause(err)
	}
	return id, nil
}

// encodeJSON serializes structured configuration to a NULL-able text
// column; nil maps to NULL, not a "null" literal.
func encodeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok && m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode configuration").WithCause(err)
	}
	return string(raw), nil
}

func decodeJSONMap(s *string) (map[string]any, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(*s), &m); err != nil {
		return nil, apperrors.NewInternalError("malformed stored configuration").WithCause(err)
	}
	return m, nil
}

func decodeJSONValue(s *string) (any, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(*s), &v); err != nil {
		return nil, apperrors.NewInternalError("malformed stored value").WithCause(err)
	}
	return v, nil
}
