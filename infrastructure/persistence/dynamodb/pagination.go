package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// queryPages drains an index query, carrying the continuation token
// forward until the store reports no more pages. Callers always see the
// complete logical result set, never a partial page.
func queryPages(ctx context.Context, client Client, input *dynamodb.QueryInput) ([]item, error) {
	var items []item
	for {
		out, err := client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// scanPages drains a full-table scan the same way.
func scanPages(ctx context.Context, client Client, input *dynamodb.ScanInput) ([]item, error) {
	var items []item
	for {
		out, err := client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// scanCount counts a table's items without transferring them.
func scanCount(ctx context.Context, client Client, table string) (int64, error) {
	input := &dynamodb.ScanInput{
		TableName: &table,
		Select:    types.SelectCount,
	}

	var total int64
	for {
		out, err := client.Scan(ctx, input)
		if err != nil {
			return 0, err
		}
		total += int64(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
