// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package dyndb_test

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/raywall/fast-counter/counter"
	"github.com/raywall/fast-counter/dyndb"
	"github.com/stretchr/testify/mock"
)

// MockDynamoClient grava as chamadas ao SDK; cada teste programa as
// respostas com On(...).Return(output, err).
type MockDynamoClient struct {
	mock.Mock
}

var _ dyndb.DynamoDBClient = (*MockDynamoClient)(nil)

// result converte os argumentos de retorno do mock; output nil vira (*T)(nil).
func result[T any](args mock.Arguments) (*T, error) {
	out, _ := args.Get(0).(*T)
	return out, args.Error(1)
}

func (m *MockDynamoClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return result[dynamodb.DescribeTableOutput](m.Called(ctx, params))
}

func (m *MockDynamoClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	return result[dynamodb.CreateTableOutput](m.Called(ctx, params))
}

func (m *MockDynamoClient) DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	return result[dynamodb.DeleteTableOutput](m.Called(ctx, params))
}

func (m *MockDynamoClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return result[dynamodb.GetItemOutput](m.Called(ctx, params))
}

func (m *MockDynamoClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return result[dynamodb.PutItemOutput](m.Called(ctx, params))
}

func (m *MockDynamoClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return result[dynamodb.UpdateItemOutput](m.Called(ctx, params))
}

func (m *MockDynamoClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	return result[dynamodb.BatchWriteItemOutput](m.Called(ctx, params))
}

func (m *MockDynamoClient) Scan(ctx context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return result[dynamodb.ScanOutput](m.Called(ctx, params))
}

// helper function para abrir a tabela de teste já descrita como ACTIVE
func openTestTable(client *MockDynamoClient, opts ...dyndb.Option) (counter.Table, error) {
	return dyndb.New(client, opts...).OpenTable(context.Background(), "test-table", counter.DefaultSchema)
}
