package dynamodb

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"idp-backend/infrastructure/persistence/dynamodb/dynamotest"
	apperrors "idp-backend/pkg/errors"
)

func testItem(id string) item {
	return item{
		"id":   &types.AttributeValueMemberS{Value: id},
		"name": &types.AttributeValueMemberS{Value: "item-" + id},
	}
}

func TestExecuteTransactionEmptyIsNoop(t *testing.T) {
	fake := dynamotest.NewFake()
	mgr := NewTransactionManager(fake, zap.NewNop())

	require.NoError(t, mgr.ExecuteTransaction(context.Background(), nil))
}

func TestExecuteTransactionRejectsOversizedBatch(t *testing.T) {
	fake := dynamotest.NewFake()
	fake.CreateTable("things", nil)
	mgr := NewTransactionManager(fake, zap.NewNop())

	writes := make([]TransactionWrite, 0, maxTransactionItems+1)
	for i := 0; i <= maxTransactionItems; i++ {
		writes = append(writes, PutWrite("things", testItem(fmt.Sprintf("%03d", i)), "put"))
	}

	err := mgr.ExecuteTransaction(context.Background(), writes)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err), "want validation, got %v", err)
	assert.Zero(t, fake.Len("things"))
}

func TestExecuteTransactionAppliesAllWrites(t *testing.T) {
	fake := dynamotest.NewFake()
	fake.CreateTable("things", nil)
	mgr := NewTransactionManager(fake, zap.NewNop())

	writes := make([]TransactionWrite, 0, maxTransactionItems)
	for i := 0; i < maxTransactionItems; i++ {
		writes = append(writes, PutWrite("things", testItem(fmt.Sprintf("%03d", i)), "put"))
	}
	require.NoError(t, mgr.ExecuteTransaction(context.Background(), writes))
	assert.Equal(t, maxTransactionItems, fake.Len("things"))

	require.NoError(t, mgr.ExecuteTransaction(context.Background(), []TransactionWrite{
		DeleteWrite("things", item{"id": &types.AttributeValueMemberS{Value: "000"}}, "delete"),
	}))
	assert.Equal(t, maxTransactionItems-1, fake.Len("things"))
}

// A single failing condition must leave every write unapplied.
func TestExecuteTransactionAtomicOnConditionFailure(t *testing.T) {
	fake := dynamotest.NewFake()
	fake.CreateTable("things", nil)
	mgr := NewTransactionManager(fake, zap.NewNop())

	writes := []TransactionWrite{
		PutWrite("things", testItem("a"), "put a"),
		PutWriteWithCondition("things", testItem("b"),
			"attribute_exists(id)", nil, nil, "update b"),
	}

	err := mgr.ExecuteTransaction(context.Background(), writes)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransactionFailed(err), "want transaction failed, got %v", err)
	assert.Zero(t, fake.Len("things"))
}

func TestExecuteTransactionConditionHoldsWhenSatisfied(t *testing.T) {
	fake := dynamotest.NewFake()
	fake.CreateTable("things", nil)
	mgr := NewTransactionManager(fake, zap.NewNop())

	require.NoError(t, mgr.ExecuteTransaction(context.Background(), []TransactionWrite{
		PutWrite("things", testItem("a"), "put a"),
	}))

	updated := testItem("a")
	updated["name"] = &types.AttributeValueMemberS{Value: "renamed"}
	require.NoError(t, mgr.ExecuteTransaction(context.Background(), []TransactionWrite{
		PutWriteWithCondition("things", updated, "attribute_exists(id)", nil, nil, "update a"),
		PutWrite("things", testItem("b"), "put b"),
	}))
	assert.Equal(t, 2, fake.Len("things"))
}
