package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "idp-backend/pkg/errors"
)

// mapping binds one entity type to its table: how to convert it to and
// from the store's attribute representation and how to reach its
// identifier and lifecycle timestamps. checkConflict enforces the
// entity's composite-uniqueness invariant before a write; nil when the
// entity has none.
type mapping[T any] struct {
	table         string
	toItem        func(*T) (item, error)
	fromItem      func(item) (*T, error)
	id            func(*T) uuid.UUID
	setID         func(*T, uuid.UUID)
	timestamps    func(*T) (createdAt, updatedAt time.Time)
	setTimestamps func(e *T, createdAt, updatedAt time.Time)
	checkConflict func(ctx context.Context, entity *T) error
}

// repository implements the base persistence contract for one entity
// type. Per-entity repositories embed it and add their typed finders and
// composite operations.
type repository[T any] struct {
	client Client
	tx     *TransactionManager
	logger *zap.Logger
	m      mapping[T]
}

func newRepository[T any](client Client, tx *TransactionManager, logger *zap.Logger, m mapping[T]) *repository[T] {
	return &repository[T]{client: client, tx: tx, logger: logger, m: m}
}

// advance picks the write's observed-now value, never moving updatedAt
// backwards even when the wall clock stands still within one microsecond.
func advance(prev time.Time) time.Time {
	now := clock()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// Save inserts the entity when it has no id and fully overwrites it
// otherwise. CreatedAt is set once; UpdatedAt advances on every write.
func (r *repository[T]) Save(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, apperrors.NewValidationError("entity must not be nil")
	}
	if r.m.checkConflict != nil {
		if err := r.m.checkConflict(ctx, entity); err != nil {
			return nil, err
		}
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

	it, err := r.m.toItem(entity)
	if err != nil {
		return nil, err
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.m.table,
		Item:      it,
	}); err != nil {
		r.m.setTimestamps(entity, createdAt, updatedAt)
		return nil, storeError("put "+r.m.table, err)
	}
	return entity, nil
}

// FindByID returns (nil, nil) for the zero UUID and for unknown ids.
func (r *repository[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.m.table,
		Key:       idKey(id),
	})
	if err != nil {
		return nil, storeError("get "+r.m.table, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return r.m.fromItem(out.Item)
}

// FindAll scans the whole table, following continuation tokens until the
// logical result set is complete.
func (r *repository[T]) FindAll(ctx context.Context) ([]*T, error) {
	items, err := scanPages(ctx, r.client, &dynamodb.ScanInput{TableName: &r.m.table})
	if err != nil {
		return nil, storeError("scan "+r.m.table, err)
	}
	return r.fromItems(items)
}

// Delete is idempotent: a zero or unknown id is a no-op.
func (r *repository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &r.m.table,
		Key:       idKey(id),
	}); err != nil {
		return storeError("delete "+r.m.table, err)
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
	count, err := scanCount(ctx, r.client, r.m.table)
	if err != nil {
		return 0, storeError("count "+r.m.table, err)
	}
	return count, nil
}

// SaveAll persists each entity with an independent write. It is not
// atomic across items: a failure leaves the already-written items in
// place and reports the error.
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

// DeleteAll removes each listed id independently; like SaveAll it is not
// atomic across items.
func (r *repository[T]) DeleteAll(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// saveWithLock performs the compare-and-swap write: the put commits only
// if the stored record's updatedAt still equals expectedUpdatedAt. On a
// lost race the store is unchanged and the caller gets an
// optimistic-lock conflict to branch on; there is no internal retry.
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

	it, err := r.m.toItem(entity)
	if err != nil {
		return nil, err
	}

	write := PutWriteWithCondition(
		r.m.table,
		it,
		"updatedAt = :expectedUpdatedAt OR attribute_not_exists(updatedAt)",
		nil,
		item{":expectedUpdatedAt": &types.AttributeValueMemberS{Value: formatTime(expectedUpdatedAt)}},
		"locked save on "+r.m.table,
	)

	if err := r.tx.ExecuteTransaction(ctx, []TransactionWrite{write}); err != nil {
		r.m.setTimestamps(entity, createdAt, prevUpdatedAt)
		if apperrors.IsTransactionFailed(err) {
			return nil, apperrors.NewOptimisticLockError(
				"record was modified concurrently, refetch and retry").WithCause(err)
		}
		return nil, err
	}
	return entity, nil
}

// queryIndex runs a fully paginated exact-match query against one of the
// table's pre-declared secondary indexes.
func (r *repository[T]) queryIndex(ctx context.Context, index, attribute string, value types.AttributeValue) ([]*T, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(attribute).Equal(expression.Value(value))).
		Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("build query "+r.m.table+"/"+index, err)
	}

	items, err := queryPages(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 &r.m.table,
		IndexName:                 &index,
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, storeError("query "+r.m.table+"/"+index, err)
	}
	return r.fromItems(items)
}

// scanFilter is the fallback for attributes with no declared index: a
// full scan filtered in memory. O(table size); call sites are isolated
// behind the same finder surface so an index can be added later without
// changing callers.
func (r *repository[T]) scanFilter(ctx context.Context, keep func(*T) bool) ([]*T, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*T, 0)
	for _, entity := range all {
		if keep(entity) {
			matched = append(matched, entity)
		}
	}
	return matched, nil
}

func (r *repository[T]) fromItems(items []item) ([]*T, error) {
	entities := make([]*T, 0, len(items))
	for _, it := range items {
		entity, err := r.m.fromItem(it)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func idKey(id uuid.UUID) item {
	return item{"id": &types.AttributeValueMemberS{Value: id.String()}}
}

func stringValue(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

func boolValue(b bool) types.AttributeValue {
	return &types.AttributeValueMemberBOOL{Value: b}
}

// storeError classifies a raw store failure: throttling and capacity
// problems surface as transient unavailability, everything else as a
// database error. No internal backoff beyond what the SDK client does.
func storeError(operation string, err error) error {
	var throughput *types.ProvisionedThroughputExceededException
	var requestLimit *types.RequestLimitExceeded
	if errors.As(err, &throughput) || errors.As(err, &requestLimit) {
		return apperrors.NewUnavailableError("dynamodb").WithCause(err)
	}
	return apperrors.NewDatabaseError(operation, err)
}
