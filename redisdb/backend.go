// Package redisdb implementa o backend Redis dos contadores (go-redis v9).
//
// Cada tabela é registrada no set "<ns>tables" com seus metadados em
// "<ns>meta:<tabela>"; cada registro é um hash "<ns>rec:<len>:<tabela>:<nome>",
// onde <len> é o tamanho em bytes do nome da tabela. Assim "counters" com
// "archive:views" e "counters:archive" com "views" não colidem.
// Incrementos rodam em um script Lua (HINCRBY + HSET modified_on), então
// são atômicos no servidor como o ADD do DynamoDB.
package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/raywall/fast-counter/counter"
	"github.com/redis/go-redis/v9"
)

const (
	scanCount = 100

	metaHashKey    = "hash_key"
	metaKeyType    = "key_type"
	metaReadUnits  = "read_units"
	metaWriteUnits = "write_units"
)

// Backend implementa counter.Backend sobre Redis.
type Backend struct {
	client    redis.UniversalClient
	namespace string
}

var _ counter.Backend = (*Backend)(nil)

type Option func(*Backend)

// WithNamespace prefixa todas as chaves (ex.: "fast-counter:").
func WithNamespace(ns string) Option {
	return func(b *Backend) { b.namespace = ns }
}

func New(client redis.UniversalClient, opts ...Option) *Backend {
	b := &Backend{client: client}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) tablesKey() string       { return b.namespace + "tables" }
func (b *Backend) metaKey(t string) string { return b.namespace + "meta:" + t }

func (b *Backend) OpenTable(ctx context.Context, name string, schema counter.Schema) (counter.Table, error) {
	ok, err := b.client.SIsMember(ctx, b.tablesKey(), name).Result()
	if err != nil {
		return nil, fmt.Errorf("redisdb: open table %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", counter.ErrTableNotFound, name)
	}

	hashKey, err := b.client.HGet(ctx, b.metaKey(name), metaHashKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redisdb: open table %s: %w", name, err)
	}
	if hashKey != "" && hashKey != schema.HashKey {
		return nil, fmt.Errorf("%w: table %s has hash key %q, configured %q",
			counter.ErrConfiguration, name, hashKey, schema.HashKey)
	}
	return b.table(name, schema), nil
}

// CreateTable registra a tabela. O Redis não provisiona capacidade; o
// throughput fica apenas nos metadados.
func (b *Backend) CreateTable(ctx context.Context, spec counter.TableSpec) (counter.Table, error) {
	added, err := b.client.SAdd(ctx, b.tablesKey(), spec.Name).Result()
	if err != nil {
		return nil, fmt.Errorf("redisdb: create table %s: %w", spec.Name, err)
	}
	if added == 0 {
		return nil, fmt.Errorf("%w: %s", counter.ErrTableExists, spec.Name)
	}

	err = b.client.HSet(ctx, b.metaKey(spec.Name),
		metaHashKey, spec.Schema.HashKey,
		metaKeyType, string(spec.Schema.KeyType),
		metaReadUnits, spec.Throughput.ReadUnits,
		metaWriteUnits, spec.Throughput.WriteUnits,
	).Err()
	if err != nil {
		return nil, fmt.Errorf("redisdb: create table %s metadata: %w", spec.Name, err)
	}
	return b.table(spec.Name, spec.Schema), nil
}

func (b *Backend) table(name string, schema counter.Schema) *table {
	return &table{backend: b, name: name, schema: schema}
}

type table struct {
	backend *Backend
	name    string
	schema  counter.Schema
}

func (t *table) Name() string { return t.name }

func (t *table) prefix() string {
	return t.backend.namespace + "rec:" + strconv.Itoa(len(t.name)) + ":" + t.name + ":"
}

func (t *table) recordKey(name string) string { return t.prefix() + name }

// Status é ACTIVE enquanto a tabela estiver registrada.
func (t *table) Status(ctx context.Context) (counter.TableStatus, error) {
	ok, err := t.backend.client.SIsMember(ctx, t.backend.tablesKey(), t.name).Result()
	if err != nil {
		return "", fmt.Errorf("redisdb: status %s: %w", t.name, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", counter.ErrTableNotFound, t.name)
	}
	return counter.TableActive, nil
}

func (t *table) GetRecord(ctx context.Context, name string) (counter.Record, bool, error) {
	fields, err := t.backend.client.HGetAll(ctx, t.recordKey(name)).Result()
	if err != nil {
		return counter.Record{}, false, fmt.Errorf("redisdb: get %s: %w", name, err)
	}
	if len(fields) == 0 {
		return counter.Record{}, false, nil
	}
	rec, err := decodeRecord(name, fields, t.schema)
	if err != nil {
		return counter.Record{}, false, err
	}
	return rec, true, nil
}

func (t *table) PutRecord(ctx context.Context, rec counter.Record, ifAbsent bool) error {
	args, err := encodeRecord(rec, t.schema)
	if err != nil {
		return err
	}
	flag := "0"
	if ifAbsent {
		flag = "1"
	}

	written, err := putScript.Run(ctx, t.backend.client, []string{t.recordKey(rec.Name)},
		append([]any{flag}, args...)...).Int()
	if err != nil {
		return fmt.Errorf("redisdb: put %s: %w", rec.Name, err)
	}
	if written == 0 {
		return fmt.Errorf("%w: %s", counter.ErrRecordExists, rec.Name)
	}
	return nil
}

func (t *table) AddCount(ctx context.Context, name string, delta int64, modifiedOn time.Time) (counter.Update, error) {
	res, err := addScript.Run(ctx, t.backend.client, []string{t.recordKey(name)},
		delta, counter.FormatTime(modifiedOn)).Slice()
	if errors.Is(err, redis.Nil) {
		return counter.Update{}, fmt.Errorf("%w: %s", counter.ErrRecordNotFound, name)
	}
	if err != nil {
		return counter.Update{}, fmt.Errorf("redisdb: add %s: %w", name, err)
	}
	if len(res) != 2 {
		return counter.Update{}, fmt.Errorf("%w: unexpected add reply %v", counter.ErrMalformedRecord, res)
	}

	n, ok := res[0].(int64)
	if !ok {
		return counter.Update{}, fmt.Errorf("%w: count reply %T", counter.ErrMalformedRecord, res[0])
	}
	ts, _ := res[1].(string)
	modified, err := counter.ParseTime(ts)
	if err != nil {
		return counter.Update{}, err
	}
	return counter.Update{Count: n, ModifiedOn: modified}, nil
}

// Purge remove todos os registros da tabela via SCAN + DEL.
func (t *table) Purge(ctx context.Context) (int, error) {
	client := t.backend.client
	match := escapeGlob(t.prefix()) + "*"

	deleted := 0
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, match, scanCount).Result()
		if err != nil {
			return deleted, fmt.Errorf("redisdb: scan %s: %w", t.name, err)
		}
		if len(keys) > 0 {
			n, err := client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("redisdb: delete from %s: %w", t.name, err)
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

// Drop remove os registros, os metadados e o registro da tabela.
func (t *table) Drop(ctx context.Context) error {
	if _, err := t.Status(ctx); err != nil {
		return err
	}
	if _, err := t.Purge(ctx); err != nil {
		return err
	}
	client := t.backend.client
	if err := client.Del(ctx, t.backend.metaKey(t.name)).Err(); err != nil {
		return fmt.Errorf("redisdb: drop %s: %w", t.name, err)
	}
	if err := client.SRem(ctx, t.backend.tablesKey(), t.name).Err(); err != nil {
		return fmt.Errorf("redisdb: drop %s: %w", t.name, err)
	}
	return nil
}

// encodeRecord devolve os pares campo/valor do hash. Extras são gravados
// como JSON para preservar o tipo.
func encodeRecord(rec counter.Record, schema counter.Schema) ([]any, error) {
	args := []any{
		schema.HashKey, rec.Name,
		counter.AttrCount, strconv.FormatInt(rec.Count, 10),
		counter.AttrCreatedOn, counter.FormatTime(rec.CreatedOn),
		counter.AttrModifiedOn, counter.FormatTime(rec.ModifiedOn),
	}
	for k, v := range rec.Extra {
		if counter.IsReserved(k, schema.HashKey) {
			return nil, fmt.Errorf("%w: %q", counter.ErrReservedAttribute, k)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("redisdb: encode extra %q: %w", k, err)
		}
		args = append(args, k, string(raw))
	}
	return args, nil
}

func decodeRecord(name string, fields map[string]string, schema counter.Schema) (counter.Record, error) {
	rec := counter.Record{Name: name}

	raw, ok := fields[counter.AttrCount]
	if !ok {
		return rec, fmt.Errorf("%w: missing %s", counter.ErrMalformedRecord, counter.AttrCount)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return rec, fmt.Errorf("%w: %s: %v", counter.ErrMalformedRecord, counter.AttrCount, err)
	}
	rec.Count = n

	if rec.CreatedOn, err = counter.ParseTime(fields[counter.AttrCreatedOn]); err != nil {
		return rec, err
	}
	if rec.ModifiedOn, err = counter.ParseTime(fields[counter.AttrModifiedOn]); err != nil {
		return rec, err
	}

	for k, v := range fields {
		if counter.IsReserved(k, schema.HashKey) {
			continue
		}
		var val any
		if err := json.Unmarshal([]byte(v), &val); err != nil {
			return rec, fmt.Errorf("%w: extra %q: %v", counter.ErrMalformedRecord, k, err)
		}
		if rec.Extra == nil {
			rec.Extra = map[string]any{}
		}
		rec.Extra[k] = val
	}
	return rec, nil
}

func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
