package postgres

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/infrastructure/persistence/contracttest"
	apperrors "idp-backend/pkg/errors"
)

// openTestDB migrates a fresh on-disk sqlite database. A single
// connection keeps the file free of writer lock contention.
func openTestDB(t *testing.T) *ports.Repositories {
	t.Helper()

	db, err := Open("sqlite3", filepath.Join(t.TempDir(), "repos.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return NewRepositories(db, zap.NewNop())
}

// TestRepositoriesContract runs the shared behavioral suite against the
// relational backend.
func TestRepositoriesContract(t *testing.T) {
	contracttest.Run(t, openTestDB)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.New(
		"UNIQUE constraint failed: stacks.name, stacks.created_by")))
	assert.True(t, isUniqueViolation(errors.New(
		`pq: duplicate key value violates unique constraint "ux_blueprints_name"`)))
	assert.False(t, isUniqueViolation(errors.New("context deadline exceeded")))
	assert.False(t, isUniqueViolation(nil))
}

func TestWrapWriteErrorMapsUniqueViolations(t *testing.T) {
	err := wrapWriteError("upsert stacks", errors.New("UNIQUE constraint failed: stacks.name"))
	assert.True(t, apperrors.IsConflict(err))

	err = wrapWriteError("upsert stacks", errors.New("disk I/O error"))
	assert.False(t, apperrors.IsConflict(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDatabase))
}
