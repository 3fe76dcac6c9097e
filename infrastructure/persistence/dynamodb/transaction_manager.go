package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	apperrors "idp-backend/pkg/errors"
)

// maxTransactionItems is the store's hard limit on writes per atomic
// transaction. Exceeding it is rejected up front, never silently
// truncated.
const maxTransactionItems = 100

// TransactionWrite is a single operation inside an atomic multi-item
// transaction. The description is used only for diagnostics when the
// transaction is cancelled.
type TransactionWrite struct {
	item        types.TransactWriteItem
	description string
}

// PutWrite creates an unconditioned put.
func PutWrite(table string, it item, description string) TransactionWrite {
	return TransactionWrite{
		item: types.TransactWriteItem{
			Put: &types.Put{
				TableName: &table,
				Item:      it,
			},
		},
		description: description,
	}
}

// PutWriteWithCondition creates a put accepted only if the condition
// holds against the item's current state at commit time. Used for
// optimistic locking and uniqueness emulation.
func PutWriteWithCondition(table string, it item, condition string, names map[string]string, values item, description string) TransactionWrite {
	put := &types.Put{
		TableName:           &table,
		Item:                it,
		ConditionExpression: &condition,
	}
	if len(names) > 0 {
		put.ExpressionAttributeNames = names
	}
	if len(values) > 0 {
		put.ExpressionAttributeValues = values
	}
	return TransactionWrite{
		item:        types.TransactWriteItem{Put: put},
		description: description,
	}
}

// DeleteWrite creates an unconditioned delete.
func DeleteWrite(table string, key item, description string) TransactionWrite {
	return TransactionWrite{
		item: types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: &table,
				Key:       key,
			},
		},
		description: description,
	}
}

// TransactionManager wraps the store's atomic multi-item write primitive.
// It is the only component that touches that primitive directly; all
// cross-item atomicity in the repositories flows through here.
type TransactionManager struct {
	client Client
	logger *zap.Logger
}

// NewTransactionManager creates a new TransactionManager
func NewTransactionManager(client Client, logger *zap.Logger) *TransactionManager {
	return &TransactionManager{client: client, logger: logger}
}

// ExecuteTransaction commits every write in the list atomically: if any
// condition fails, none of the writes are applied. An empty list is a
// no-op success.
func (m *TransactionManager) ExecuteTransaction(ctx context.Context, writes []TransactionWrite) error {
	if len(writes) == 0 {
		return nil
	}
	if len(writes) > maxTransactionItems {
		return apperrors.NewValidationError(fmt.Sprintf(
			"transaction contains %d items, exceeding the limit of %d", len(writes), maxTransactionItems))
	}

	items := make([]types.TransactWriteItem, len(writes))
	for i, w := range writes {
		items[i] = w.item
	}

	m.logger.Debug("executing transaction", zap.Int("operations", len(writes)))

	_, err := m.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err == nil {
		return nil
	}

	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		return m.cancellationError(cancelled, writes)
	}

	return apperrors.NewDatabaseError("transact write", err)
}

// cancellationError turns the store's cancellation reasons into a typed
// error naming which write's condition failed.
func (m *TransactionManager) cancellationError(cancelled *types.TransactionCanceledException, writes []TransactionWrite) error {
	msg := "transaction cancelled"
	conditionFailed := false

	for i, reason := range cancelled.CancellationReasons {
		code := ""
		if reason.Code != nil {
			code = *reason.Code
		}
		if code == "" || code == "None" {
			continue
		}

		description := "unknown operation"
		if i < len(writes) {
			description = writes[i].description
		}
		msg += fmt.Sprintf("; operation %d (%s): %s", i+1, description, code)

		if code == "ConditionalCheckFailed" {
			conditionFailed = true
		}
	}

	m.logger.Warn("transaction cancelled", zap.String("reasons", msg))

	appErr := apperrors.NewTransactionFailedError(msg).WithCause(cancelled)
	if conditionFailed {
		appErr = appErr.WithDetails(map[string]interface{}{"conditionFailed": true})
	}
	return appErr
}
