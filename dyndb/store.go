// dyndb/store.go
package dyndb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/fast-counter/counter"
)

// DynamoDB limita a 25 operações por BatchWriteItem
const batchWriteLimit = 25

// maxUnprocessedRetries limita o reenvio de UnprocessedItems no Purge.
const maxUnprocessedRetries = 5

// Backend implementa counter.Backend sobre o DynamoDB.
type Backend struct {
	client         DynamoDBClient
	consistentRead bool
}

var _ counter.Backend = (*Backend)(nil)

// Option configura o Backend.
type Option func(*Backend)

// WithConsistentRead define o modo de leitura do GetItem (padrão: forte).
func WithConsistentRead(enabled bool) Option {
	return func(b *Backend) { b.consistentRead = enabled }
}

// New cria um backend reutilizável
func New(client DynamoDBClient, opts ...Option) *Backend {
	b := &Backend{client: client, consistentRead: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromConfig cria o backend com o cliente real do SDK.
func NewFromConfig(cfg aws.Config, opts ...Option) *Backend {
	return New(dynamodb.NewFromConfig(cfg), opts...)
}

// OpenTable confirma a existência da tabela via DescribeTable. A hash key
// descrita pelo DynamoDB precisa bater com o schema configurado.
func (b *Backend) OpenTable(ctx context.Context, name string, schema counter.Schema) (counter.Table, error) {
	out, err := b.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err != nil {
		return nil, describeError(name, err)
	}

	if actual, ok := hashKeyOf(out.Table); ok && actual != schema.HashKey {
		return nil, fmt.Errorf("%w: table %s has hash key %q, configured %q",
			counter.ErrConfiguration, name, actual, schema.HashKey)
	}

	return b.table(name, schema), nil
}

// CreateTable cria a tabela com hash key única e throughput provisionado.
// A tabela devolvida ainda pode estar em CREATING.
func (b *Backend) CreateTable(ctx context.Context, spec counter.TableSpec) (counter.Table, error) {
	_, err := b.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(spec.Name),
		KeySchema: []types.KeySchemaElement{{
			AttributeName: aws.String(spec.Schema.HashKey),
			KeyType:       types.KeyTypeHash,
		}},
		AttributeDefinitions: []types.AttributeDefinition{{
			AttributeName: aws.String(spec.Schema.HashKey),
			AttributeType: types.ScalarAttributeType(spec.Schema.KeyType),
		}},
		BillingMode: types.BillingModeProvisioned,
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(spec.Throughput.ReadUnits),
			WriteCapacityUnits: aws.Int64(spec.Throughput.WriteUnits),
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil, fmt.Errorf("%w: %s: %w", counter.ErrTableExists, spec.Name, err)
		}
		return nil, fmt.Errorf("dyndb: create table %s failed: %w", spec.Name, err)
	}
	return b.table(spec.Name, spec.Schema), nil
}

func (b *Backend) table(name string, schema counter.Schema) *table {
	return &table{
		client:         b.client,
		name:           name,
		schema:         schema,
		consistentRead: b.consistentRead,
	}
}

type table struct {
	client         DynamoDBClient
	name           string
	schema         counter.Schema
	consistentRead bool
}

func (t *table) Name() string { return t.name }

func (t *table) Status(ctx context.Context) (counter.TableStatus, error) {
	out, err := t.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(t.name),
	})
	if err != nil {
		return "", describeError(t.name, err)
	}
	if out.Table == nil {
		return "", fmt.Errorf("dyndb: describe table %s returned no description", t.name)
	}
	return counter.TableStatus(out.Table.TableStatus), nil
}

// GetRecord item por chave primária
func (t *table) GetRecord(ctx context.Context, name string) (counter.Record, bool, error) {
	key, err := t.key(name)
	if err != nil {
		return counter.Record{}, false, err
	}

	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.name),
		Key:            key,
		ConsistentRead: aws.Bool(t.consistentRead),
	})
	if err != nil {
		return counter.Record{}, false, fmt.Errorf("dyndb: get %s failed: %w", name, err)
	}
	if out.Item == nil {
		return counter.Record{}, false, nil
	}

	rec, err := decodeRecord(out.Item, t.schema)
	if err != nil {
		return counter.Record{}, false, err
	}
	// Hash keys numéricas voltam normalizadas ("1.0" -> "1"); o nome do
	// contador continua sendo o usado na chamada.
	rec.Name = name
	return rec, true, nil
}

// PutRecord grava o registro completo. Com ifAbsent usa attribute_not_exists
// na hash key.
func (t *table) PutRecord(ctx context.Context, rec counter.Record, ifAbsent bool) error {
	item, err := encodeRecord(rec, t.schema)
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      item,
	}
	if ifAbsent {
		expr, err := expression.NewBuilder().
			WithCondition(expression.AttributeNotExists(expression.Name(t.schema.HashKey))).
			Build()
		if err != nil {
			return fmt.Errorf("dyndb: build condition failed: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
	}

	if _, err := t.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%w: %s: %w", counter.ErrRecordExists, rec.Name, err)
		}
		return fmt.Errorf("dyndb: put %s failed: %w", rec.Name, err)
	}
	return nil
}

// AddCount executa "ADD count :delta SET modified_on = :ts" em um único
// UpdateItem, condicionado à existência do item, e devolve UPDATED_NEW.
func (t *table) AddCount(ctx context.Context, name string, delta int64, modifiedOn time.Time) (counter.Update, error) {
	key, err := t.key(name)
	if err != nil {
		return counter.Update{}, err
	}

	update := expression.
		Add(expression.Name(counter.AttrCount), expression.Value(delta)).
		Set(expression.Name(counter.AttrModifiedOn), expression.Value(counter.FormatTime(modifiedOn)))
	cond := expression.AttributeExists(expression.Name(t.schema.HashKey))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return counter.Update{}, fmt.Errorf("dyndb: build update failed: %w", err)
	}

	out, err := t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.name),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return counter.Update{}, fmt.Errorf("%w: %s: %w", counter.ErrRecordNotFound, name, err)
		}
		return counter.Update{}, fmt.Errorf("dyndb: update %s failed: %w", name, err)
	}

	return decodeUpdate(out.Attributes)
}

// Purge varre a tabela projetando só a hash key e remove os itens em lotes.
func (t *table) Purge(ctx context.Context) (int, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name(t.schema.HashKey))).
		Build()
	if err != nil {
		return 0, fmt.Errorf("dyndb: build projection failed: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(t.client, &dynamodb.ScanInput{
		TableName:                aws.String(t.name),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})

	deleted := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("dyndb: scan %s failed: %w", t.name, err)
		}

		requests := make([]types.WriteRequest, 0, len(page.Items))
		for _, item := range page.Items {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: map[string]types.AttributeValue{
					t.schema.HashKey: item[t.schema.HashKey],
				}},
			})
		}

		for i := 0; i < len(requests); i += batchWriteLimit {
			end := min(i+batchWriteLimit, len(requests))
			if err := t.batchWrite(ctx, requests[i:end]); err != nil {
				return deleted, err
			}
			deleted += end - i
		}
	}
	return deleted, nil
}

func (t *table) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{t.name: requests}

	for attempt := 0; len(pending[t.name]) > 0; attempt++ {
		if attempt > maxUnprocessedRetries {
			return fmt.Errorf("dyndb: batchwrite %s: %d items left unprocessed", t.name, len(pending[t.name]))
		}
		out, err := t.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return fmt.Errorf("dyndb: batchwrite %s failed: %w", t.name, err)
		}
		pending = out.UnprocessedItems
	}
	return nil
}

func (t *table) Drop(ctx context.Context) error {
	_, err := t.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(t.name),
	})
	if err != nil {
		return describeError(t.name, err)
	}
	return nil
}

func (t *table) key(name string) (map[string]types.AttributeValue, error) {
	av, err := keyAttr(name, t.schema.KeyType)
	if err != nil {
		return nil, err
	}
	return map[string]types.AttributeValue{t.schema.HashKey: av}, nil
}

func describeError(name string, err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s: %w", counter.ErrTableNotFound, name, err)
	}
	return fmt.Errorf("dyndb: table %s: %w", name, err)
}

func hashKeyOf(desc *types.TableDescription) (string, bool) {
	if desc == nil {
		return "", false
	}
	for _, k := range desc.KeySchema {
		if k.KeyType == types.KeyTypeHash && k.AttributeName != nil {
			return *k.AttributeName, true
		}
	}
	return "", false
}
