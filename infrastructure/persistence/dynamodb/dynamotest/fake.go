// Package dynamotest provides an in-memory stand-in for the DynamoDB
// client, faithful to the store behaviors the repositories rely on:
// id-keyed get/put/delete, exact-match index queries, page-bounded scans
// with continuation tokens, and atomic condition-checked transactions.
package dynamotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// table holds one table's items plus its declared secondary indexes
// (index name to key attribute).
type table struct {
	items   map[string]item
	indexes map[string]string
}

// Fake is an in-memory DynamoDB. PageSize bounds Query and Scan
// responses the way the real store's response size limit does; zero
// means unbounded. Safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	tables   map[string]*table
	PageSize int
}

// NewFake creates an empty store.
func NewFake() *Fake {
	return &Fake{tables: map[string]*table{}}
}

// CreateTable declares a table and its secondary indexes, mapping each
// index name to the attribute it is keyed by.
func (f *Fake) CreateTable(name string, indexes map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[name] = &table{
		items:   map[string]item{},
		indexes: indexes,
	}
}

// Len reports how many items a table holds.
func (f *Fake) Len(tableName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tables[tableName]; ok {
		return len(t.items)
	}
	return 0
}

func (f *Fake) table(name *string) (*table, error) {
	if name == nil {
		return nil, fmt.Errorf("table name is required")
	}
	t, ok := f.tables[*name]
	if !ok {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String("table not found: " + *name),
		}
	}
	return t, nil
}

func itemID(it item) (string, error) {
	av, ok := it["id"]
	if !ok {
		return "", fmt.Errorf("item has no id attribute")
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("id attribute is not a string")
	}
	return s.Value, nil
}

func copyItem(it item) item {
	dup := make(item, len(it))
	for k, v := range it {
		dup[k] = v
	}
	return dup
}

func (f *Fake) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	id, err := itemID(params.Key)
	if err != nil {
		return nil, err
	}
	stored, ok := t.items[id]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(stored)}, nil
}

func (f *Fake) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	id, err := itemID(params.Item)
	if err != nil {
		return nil, err
	}

	if params.ConditionExpression != nil {
		current := t.items[id]
		ok, err := evalCondition(*params.ConditionExpression,
			params.ExpressionAttributeNames, params.ExpressionAttributeValues, current)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{
				Message: aws.String("the conditional request failed"),
			}
		}
	}

	t.items[id] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *Fake) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	id, err := itemID(params.Key)
	if err != nil {
		return nil, err
	}
	delete(t.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *Fake) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if params.IndexName == nil {
		return nil, fmt.Errorf("fake store only supports index queries")
	}
	keyAttr, ok := t.indexes[*params.IndexName]
	if !ok {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String("index not found: " + *params.IndexName),
		}
	}
	if params.KeyConditionExpression == nil {
		return nil, fmt.Errorf("key condition expression is required")
	}

	attr, value, err := parseKeyCondition(*params.KeyConditionExpression,
		params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if attr != keyAttr {
		return nil, fmt.Errorf("key condition attribute %q does not match index key %q", attr, keyAttr)
	}

	var matched []item
	for _, id := range sortedIDs(t.items) {
		stored := t.items[id]
		if av, ok := stored[attr]; ok && attrEqual(av, value) {
			matched = append(matched, stored)
		}
	}

	page, last := f.page(matched, params.ExclusiveStartKey)
	out := &dynamodb.QueryOutput{Count: int32(len(page)), LastEvaluatedKey: last}
	for _, it := range page {
		out.Items = append(out.Items, copyItem(it))
	}
	return out, nil
}

func (f *Fake) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}

	var all []item
	for _, id := range sortedIDs(t.items) {
		all = append(all, t.items[id])
	}

	page, last := f.page(all, params.ExclusiveStartKey)
	out := &dynamodb.ScanOutput{Count: int32(len(page)), LastEvaluatedKey: last}
	if params.Select != types.SelectCount {
		for _, it := range page {
			out.Items = append(out.Items, copyItem(it))
		}
	}
	return out, nil
}

// TransactWriteItems checks every write's condition against the current
// state first; if any fails, nothing is applied and the call returns a
// TransactionCanceledException carrying per-operation reasons, exactly
// like the real store.
func (f *Fake) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false

	for i, w := range params.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}

		switch {
		case w.Put != nil:
			t, err := f.table(w.Put.TableName)
			if err != nil {
				return nil, err
			}
			id, err := itemID(w.Put.Item)
			if err != nil {
				return nil, err
			}
			if w.Put.ConditionExpression != nil {
				ok, err := evalCondition(*w.Put.ConditionExpression,
					w.Put.ExpressionAttributeNames, w.Put.ExpressionAttributeValues, t.items[id])
				if err != nil {
					return nil, err
				}
				if !ok {
					reasons[i] = types.CancellationReason{
						Code:    aws.String("ConditionalCheckFailed"),
						Message: aws.String("the conditional request failed"),
					}
					failed = true
				}
			}
		case w.Delete != nil:
			t, err := f.table(w.Delete.TableName)
			if err != nil {
				return nil, err
			}
			id, err := itemID(w.Delete.Key)
			if err != nil {
				return nil, err
			}
			if w.Delete.ConditionExpression != nil {
				ok, err := evalCondition(*w.Delete.ConditionExpression,
					w.Delete.ExpressionAttributeNames, w.Delete.ExpressionAttributeValues, t.items[id])
				if err != nil {
					return nil, err
				}
				if !ok {
					reasons[i] = types.CancellationReason{
						Code:    aws.String("ConditionalCheckFailed"),
						Message: aws.String("the conditional request failed"),
					}
					failed = true
				}
			}
		default:
			return nil, fmt.Errorf("unsupported transact write item")
		}
	}

	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, w := range params.TransactItems {
		switch {
		case w.Put != nil:
			t, _ := f.table(w.Put.TableName)
			id, _ := itemID(w.Put.Item)
			t.items[id] = copyItem(w.Put.Item)
		case w.Delete != nil:
			t, _ := f.table(w.Delete.TableName)
			id, _ := itemID(w.Delete.Key)
			delete(t.items, id)
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// page slices a result set according to PageSize and the continuation
// key, returning the page and the LastEvaluatedKey for the next one.
func (f *Fake) page(all []item, start item) ([]item, item) {
	from := 0
	if start != nil {
		startID, err := itemID(start)
		if err == nil {
			for i, it := range all {
				if id, err := itemID(it); err == nil && id == startID {
					from = i + 1
					break
				}
			}
		}
	}

	rest := all[from:]
	if f.PageSize <= 0 || len(rest) <= f.PageSize {
		return rest, nil
	}

	page := rest[:f.PageSize]
	lastID, err := itemID(page[len(page)-1])
	if err != nil {
		return page, nil
	}
	return page, item{"id": &types.AttributeValueMemberS{Value: lastID}}
}

func sortedIDs(items map[string]item) []string {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func attrEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	default:
		return false
	}
}

// parseKeyCondition handles the single shape the repositories emit:
// "attr = :value", optionally with a "#name" alias.
func parseKeyCondition(expr string, names map[string]string, values item) (string, types.AttributeValue, error) {
	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("unsupported key condition: %s", expr)
	}
	attr := resolveName(strings.TrimSpace(parts[0]), names)
	ref := strings.TrimSpace(parts[1])
	value, ok := values[ref]
	if !ok {
		return "", nil, fmt.Errorf("key condition references unknown value %s", ref)
	}
	return attr, value, nil
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if resolved, ok := names[name]; ok {
			return resolved
		}
	}
	return name
}

// evalCondition evaluates the condition expression shapes repositories
// emit: attribute_exists / attribute_not_exists, attribute equality
// against a bound value, and flat OR / AND combinations of those.
func evalCondition(expr string, names map[string]string, values item, current item) (bool, error) {
	for _, orTerm := range strings.Split(expr, " OR ") {
		result := true
		for _, andTerm := range strings.Split(orTerm, " AND ") {
			ok, err := evalTerm(strings.TrimSpace(andTerm), names, values, current)
			if err != nil {
				return false, err
			}
			if !ok {
				result = false
				break
			}
		}
		if result {
			return true, nil
		}
	}
	return false, nil
}

func evalTerm(term string, names map[string]string, values item, current item) (bool, error) {
	switch {
	case strings.HasPrefix(term, "attribute_not_exists(") && strings.HasSuffix(term, ")"):
		attr := resolveName(term[len("attribute_not_exists("):len(term)-1], names)
		if current == nil {
			return true, nil
		}
		_, exists := current[attr]
		return !exists, nil

	case strings.HasPrefix(term, "attribute_exists(") && strings.HasSuffix(term, ")"):
		attr := resolveName(term[len("attribute_exists("):len(term)-1], names)
		if current == nil {
			return false, nil
		}
		_, exists := current[attr]
		return exists, nil

	case strings.Contains(term, "="):
		attr, value, err := parseKeyCondition(term, names, values)
		if err != nil {
			return false, err
		}
		if current == nil {
			return false, nil
		}
		stored, ok := current[attr]
		return ok && attrEqual(stored, value), nil

	default:
		return false, fmt.Errorf("unsupported condition term: %s", term)
	}
}
