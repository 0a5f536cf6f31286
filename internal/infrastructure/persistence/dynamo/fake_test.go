package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo keeps tables in memory and evaluates the small expression
// subset the stores emit.
type fakeDynamo struct {
	mu      sync.Mutex
	tables  map[string]map[string]map[string]types.AttributeValue
	failErr error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{tables: make(map[string]map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := f.tables[name]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		f.tables[name] = t
	}
	return t
}

func keyOf(item map[string]types.AttributeValue) string {
	return item["id"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	return &dynamodb.GetItemOutput{Item: f.table(aws.ToString(params.TableName))[keyOf(params.Key)]}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}

	t := f.table(aws.ToString(params.TableName))
	id := keyOf(params.Item)
	old := t[id]

	if params.ConditionExpression != nil {
		ok, err := evaluate(aws.ToString(params.ConditionExpression), old, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
		if err != nil {
			return nil, err
		}
		if !ok {
			cfe := &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
			if params.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
				cfe.Item = old
			}
			return nil, cfe
		}
	}

	t[id] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}

	t := f.table(aws.ToString(params.TableName))
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	// DynamoDB does not scan in key order
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	var items []map[string]types.AttributeValue
	for _, id := range ids {
		item := t[id]
		if params.FilterExpression != nil {
			ok, err := evaluate(aws.ToString(params.FilterExpression), item, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		items = append(items, item)
	}
	return &dynamodb.ScanOutput{Items: items, Count: int32(len(items))}, nil
}

func evaluate(expr string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)

		switch {
		case strings.HasPrefix(clause, "attribute_exists("):
			name := names[strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_exists("), ")")]
			if _, ok := item[name]; !ok {
				return false, nil
			}
		case strings.HasPrefix(clause, "attribute_not_exists("):
			name := names[strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_not_exists("), ")")]
			if _, ok := item[name]; ok {
				return false, nil
			}
		default:
			parts := strings.Fields(clause)
			if len(parts) != 3 {
				return false, fmt.Errorf("unsupported clause %q", clause)
			}
			actual, ok := item[names[parts[0]]]
			if !ok {
				return false, nil
			}
			cmp, err := compare(actual, values[parts[2]])
			if err != nil {
				return false, err
			}
			switch parts[1] {
			case "=":
				ok = cmp == 0
			case "<>":
				ok = cmp != 0
			case "<":
				ok = cmp < 0
			default:
				return false, fmt.Errorf("unsupported operator %q", parts[1])
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func compare(a, b types.AttributeValue) (int, error) {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		if !ok {
			return 0, fmt.Errorf("type mismatch")
		}
		return strings.Compare(av.Value, bv.Value), nil
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return 0, fmt.Errorf("type mismatch")
		}
		x, _ := strconv.ParseFloat(av.Value, 64)
		y, _ := strconv.ParseFloat(bv.Value, 64)
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported attribute type %T", a)
}
