package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	apperrors "idp-backend/pkg/errors"
)

// sqlMapping binds one entity type to its table: column list in insert
// order, conversion to named arguments and back from a result row, and
// access to identifier and lifecycle timestamps. Uniqueness is enforced
// by the schema's unique indexes, not re-checked in code.
type sqlMapping[T any] struct {
	table         string
	columns       []string
	toRow         func(*T) (map[string]any, error)
	fromRows      func(*sqlx.Rows) (*T, error)
	id            func(*T) uuid.UUID
	setID         func(*T, uuid.UUID)
	timestamps    func(*T) (createdAt, updatedAt time.Time)
	setTimestamps func(e *T, createdAt, updatedAt time.Time)
}

// repository implements the base persistence contract for one entity
// type on the relational engine.
type repository[T any] struct {
	db        *sqlx.DB
	logger    *zap.Logger
	m         sqlMapping[T]
	upsertSQL string
	lockedSQL string
}

func newRepository[T any](db *sqlx.DB, logger *zap.Logger, m sqlMapping[T]) *repository[T] {
	return &repository[T]{
		db:        db,
		logger:    logger,
		m:         m,
		upsertSQL: buildUpsertSQL(m.table, m.columns),
		lockedSQL: buildLockedUpdateSQL(m.table, m.columns),
	}
}

// buildUpsertSQL produces an insert-or-overwrite statement keyed on id,
// accepted by both postgres and sqlite.
func buildUpsertSQL(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	updates := make([]string, 0, len(columns))
	for i, col := range columns {
		placeholders[i] = ":" + col
		if col != "id" && col != "created_at" {
			updates = append(updates, col+" = excluded."+col)
		}
	}
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ")" +
		" VALUES (" + strings.Join(placeholders, ", ") + ")" +
		" ON CONFLICT (id) DO UPDATE SET " + strings.Join(updates, ", ")
}

// buildLockedUpdateSQL produces the compare-and-swap update used by
// optimistically locked saves.
func buildLockedUpdateSQL(table string, columns []string) string {
	sets := make([]string, 0, len(columns))
	for _, col := range columns {
		if col != "id" && col != "created_at" {
			sets = append(sets, col+" = :"+col)
		}
	}
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") +
		" WHERE id = :id AND updated_at = :expected_updated_at"
}

func advance(prev time.Time) time.Time {
	now := clock()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// Save inserts the entity when it has no id and fully overwrites it
// otherwise. A violated unique index surfaces as a conflict error.
func (r *repository[T]) Save(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, apperrors.NewValidationError("entity must not be nil")
	}

	if r.m.id(entity) == uuid.Nil {
		r.m.setID(entity, uuid.New())
	}
	createdAt, updatedAt := r.m.timestamps(entity)
	now := advance(updatedAt)
	if createdAt.IsZero() {
		createdAt = now
	}
	r.m.setTimestamps(entity, createdAt, now)

	row, err := r.m.toRow(entity)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.NamedExecContext(ctx, r.upsertSQL, row); err != nil {
		r.m.setTimestamps(entity, createdAt, updatedAt)
		return nil, wrapWriteError("upsert "+r.m.table, err)
	}
	return entity, nil
}

// FindByID returns (nil, nil) for the zero UUID and for unknown ids.
func (r *repository[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	entities, err := r.findWhere(ctx, "id = ?", id.String())
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

func (r *repository[T]) FindAll(ctx context.Context) ([]*T, error) {
	return r.queryEntities(ctx, "SELECT * FROM "+r.m.table)
}

// Delete is idempotent: a zero or unknown id is a no-op.
func (r *repository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	query := r.db.Rebind("DELETE FROM " + r.m.table + " WHERE id = ?")
	if _, err := r.db.ExecContext(ctx, query, id.String()); err != nil {
		return apperrors.NewDatabaseError("delete "+r.m.table, err)
	}
	return nil
}

func (r *repository[T]) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	entity, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return entity != nil, nil
}

func (r *repository[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+r.m.table); err != nil {
		return 0, apperrors.NewDatabaseError("count "+r.m.table, err)
	}
	return count, nil
}

// SaveAll persists each entity with an independent write; it is not
// atomic across items.
func (r *repository[T]) SaveAll(ctx context.Context, entities []*T) ([]*T, error) {
	saved := make([]*T, 0, len(entities))
	for _, entity := range entities {
		s, err := r.Save(ctx, entity)
		if err != nil {
			return saved, err
		}
		saved = append(saved, s)
	}
	return saved, nil
}

func (r *repository[T]) DeleteAll(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// saveWithLock is the engine-native compare-and-swap: an update guarded
// by the stored updated_at. Zero affected rows against a stored record
// means a lost race; an absent record is recreated, not rejected.
func (r *repository[T]) saveWithLock(ctx context.Context, entity *T, expectedUpdatedAt time.Time) (*T, error) {
	if entity == nil {
		return nil, apperrors.NewValidationError("entity must not be nil")
	}
	if r.m.id(entity) == uuid.Nil {
		return nil, apperrors.NewValidationError("id is required for an optimistically locked save")
	}

	createdAt, prevUpdatedAt := r.m.timestamps(entity)
	now := advance(prevUpdatedAt)
	if createdAt.IsZero() {
		createdAt = now
	}
	r.m.setTimestamps(entity, createdAt, now)

	row, err := r.m.toRow(entity)
	if err != nil {
		return nil, err
	}
	row["expected_updated_at"] = formatTime(expectedUpdatedAt)

	res, err := r.db.NamedExecContext(ctx, r.lockedSQL, row)
	if err != nil {
		r.m.setTimestamps(entity, createdAt, prevUpdatedAt)
		return nil, wrapWriteError("locked update "+r.m.table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, apperrors.NewDatabaseError("locked update "+r.m.table, err)
	}
	if affected == 0 {
		var present int
		countSQL := r.db.Rebind("SELECT COUNT(*) FROM " + r.m.table + " WHERE id = ?")
		if err := r.db.GetContext(ctx, &present, countSQL, r.m.id(entity).String()); err != nil {
			r.m.setTimestamps(entity, createdAt, prevUpdatedAt)
			return nil, apperrors.NewDatabaseError("locked update "+r.m.table, err)
		}
		if present > 0 {
			r.m.setTimestamps(entity, createdAt, prevUpdatedAt)
			return nil, apperrors.NewOptimisticLockError(
				"record was modified concurrently, refetch and retry")
		}

		// No stored row to compare against: the guarded save writes the
		// record as new instead of failing.
		if _, err := r.db.NamedExecContext(ctx, r.upsertSQL, row); err != nil {
			r.m.setTimestamps(entity, createdAt, prevUpdatedAt)
			return nil, wrapWriteError("locked insert "+r.m.table, err)
		}
	}
	return entity, nil
}

// findWhere runs a filtered select; the condition uses ? placeholders
// and is rebound for the active driver.
func (r *repository[T]) findWhere(ctx context.Context, condition string, args ...any) ([]*T, error) {
	return r.queryEntities(ctx,
		r.db.Rebind("SELECT * FROM "+r.m.table+" WHERE "+condition), args...)
}

func (r *repository[T]) queryEntities(ctx context.Context, query string, args ...any) ([]*T, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("select "+r.m.table, err)
	}
	defer rows.Close()

	entities := make([]*T, 0)
	for rows.Next() {
		entity, err := r.m.fromRows(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("select "+r.m.table, err)
	}
	return entities, nil
}
