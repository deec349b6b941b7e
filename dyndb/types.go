// dyndb/types.go
package dyndb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/fast-counter/counter"
)

// DynamoDBClient interface para abstrair o cliente DynamoDB
type DynamoDBClient interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)

	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// keyAttr converte o nome do contador para o tipo escalar da hash key.
func keyAttr(name string, keyType counter.KeyType) (types.AttributeValue, error) {
	switch keyType {
	case counter.KeyTypeNumber:
		if _, err := strconv.ParseFloat(name, 64); err != nil {
			return nil, fmt.Errorf("%w: %q is not numeric", counter.ErrInvalidName, name)
		}
		return &types.AttributeValueMemberN{Value: name}, nil
	case counter.KeyTypeBinary:
		return &types.AttributeValueMemberB{Value: []byte(name)}, nil
	default:
		return &types.AttributeValueMemberS{Value: name}, nil
	}
}

func keyName(av types.AttributeValue) (string, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		return v.Value, nil
	case *types.AttributeValueMemberB:
		return string(v.Value), nil
	default:
		return "", fmt.Errorf("%w: unsupported hash key attribute %T", counter.ErrMalformedRecord, av)
	}
}

// encodeRecord monta o item persistido: hash key, count, timestamps e extras.
func encodeRecord(rec counter.Record, schema counter.Schema) (map[string]types.AttributeValue, error) {
	item := map[string]types.AttributeValue{}
	if len(rec.Extra) > 0 {
		extra, err := attributevalue.MarshalMap(rec.Extra)
		if err != nil {
			return nil, fmt.Errorf("dyndb: marshal extras failed: %w", err)
		}
		for k, v := range extra {
			if counter.IsReserved(k, schema.HashKey) {
				return nil, fmt.Errorf("%w: %q", counter.ErrReservedAttribute, k)
			}
			item[k] = v
		}
	}

	key, err := keyAttr(rec.Name, schema.KeyType)
	if err != nil {
		return nil, err
	}
	item[schema.HashKey] = key
	item[counter.AttrCount] = &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.Count, 10)}
	item[counter.AttrCreatedOn] = &types.AttributeValueMemberS{Value: counter.FormatTime(rec.CreatedOn)}
	item[counter.AttrModifiedOn] = &types.AttributeValueMemberS{Value: counter.FormatTime(rec.ModifiedOn)}
	return item, nil
}

// decodeRecord é o inverso de encodeRecord. Atributos obrigatórios ausentes
// ou com tipo errado resultam em ErrMalformedRecord.
func decodeRecord(item map[string]types.AttributeValue, schema counter.Schema) (counter.Record, error) {
	var rec counter.Record

	key, ok := item[schema.HashKey]
	if !ok {
		return rec, fmt.Errorf("%w: missing %s", counter.ErrMalformedRecord, schema.HashKey)
	}
	name, err := keyName(key)
	if err != nil {
		return rec, err
	}
	rec.Name = name

	if rec.Count, err = decodeCount(item); err != nil {
		return rec, err
	}
	if rec.CreatedOn, err = decodeTime(item, counter.AttrCreatedOn); err != nil {
		return rec, err
	}
	if rec.ModifiedOn, err = decodeTime(item, counter.AttrModifiedOn); err != nil {
		return rec, err
	}

	rest := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		if !counter.IsReserved(k, schema.HashKey) {
			rest[k] = v
		}
	}
	if len(rest) > 0 {
		if err := attributevalue.UnmarshalMap(rest, &rec.Extra); err != nil {
			return rec, fmt.Errorf("%w: extras: %v", counter.ErrMalformedRecord, err)
		}
	}
	return rec, nil
}

// decodeUpdate lê os atributos UPDATED_NEW de um UpdateItem.
func decodeUpdate(attrs map[string]types.AttributeValue) (counter.Update, error) {
	var upd counter.Update
	var err error
	if upd.Count, err = decodeCount(attrs); err != nil {
		return upd, err
	}
	if upd.ModifiedOn, err = decodeTime(attrs, counter.AttrModifiedOn); err != nil {
		return upd, err
	}
	return upd, nil
}

func decodeCount(item map[string]types.AttributeValue) (int64, error) {
	av, ok := item[counter.AttrCount]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", counter.ErrMalformedRecord, counter.AttrCount)
	}
	var n int64
	if err := attributevalue.Unmarshal(av, &n); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", counter.ErrMalformedRecord, counter.AttrCount, err)
	}
	return n, nil
}

func decodeTime(item map[string]types.AttributeValue, attr string) (time.Time, error) {
	av, ok := item[attr]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: missing %s", counter.ErrMalformedRecord, attr)
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s is not a string", counter.ErrMalformedRecord, attr)
	}
	return counter.ParseTime(s.Value)
}
