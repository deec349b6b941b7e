// counter/memory.go
package counter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryBackend é um Backend em memória, útil para testes e execução local.
//
// ActivateAfter simula o provisionamento: uma tabela recém-criada reporta
// CREATING nas primeiras ActivateAfter consultas de Status.
type MemoryBackend struct {
	ActivateAfter int

	mu     sync.Mutex
	tables map[string]*memoryTable

	opens   atomic.Int64
	creates atomic.Int64
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tables: make(map[string]*memoryTable)}
}

// Opens devolve quantas vezes OpenTable foi chamado.
func (b *MemoryBackend) Opens() int64 { return b.opens.Load() }

// Creates devolve quantas vezes CreateTable foi chamado.
func (b *MemoryBackend) Creates() int64 { return b.creates.Load() }

func (b *MemoryBackend) OpenTable(ctx context.Context, name string, schema Schema) (Table, error) {
	b.opens.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

func (b *MemoryBackend) CreateTable(ctx context.Context, spec TableSpec) (Table, error) {
	b.creates.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tables == nil {
		b.tables = make(map[string]*memoryTable)
	}
	if _, ok := b.tables[spec.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, spec.Name)
	}
	t := &memoryTable{
		backend: b,
		spec:    spec,
		pending: b.ActivateAfter,
		records: make(map[string]Record),
	}
	b.tables[spec.Name] = t
	return t, nil
}

// Spec devolve a especificação usada na criação da tabela.
func (b *MemoryBackend) Spec(name string) (TableSpec, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tables[name]
	if !ok {
		return TableSpec{}, false
	}
	return t.spec, true
}

type memoryTable struct {
	backend *MemoryBackend
	spec    TableSpec

	mu      sync.Mutex
	pending int
	dropped bool
	records map[string]Record
}

func (t *memoryTable) Name() string { return t.spec.Name }

func (t *memoryTable) Status(ctx context.Context) (TableStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dropped {
		return "", fmt.Errorf("%w: %s", ErrTableNotFound, t.spec.Name)
	}
	if t.pending > 0 {
		t.pending--
		return TableCreating, nil
	}
	return TableActive, nil
}

func (t *memoryTable) GetRecord(ctx context.Context, name string) (Record, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable(); err != nil {
		return Record{}, false, err
	}
	rec, ok := t.records[name]
	if !ok {
		return Record{}, false, nil
	}
	return rec.Clone(), true, nil
}

func (t *memoryTable) PutRecord(ctx context.Context, rec Record, ifAbsent bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable(); err != nil {
		return err
	}
	if _, ok := t.records[rec.Name]; ok && ifAbsent {
		return fmt.Errorf("%w: %s", ErrRecordExists, rec.Name)
	}
	t.records[rec.Name] = rec.Clone()
	return nil
}

func (t *memoryTable) AddCount(ctx context.Context, name string, delta int64, modifiedOn time.Time) (Update, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable(); err != nil {
		return Update{}, err
	}
	rec, ok := t.records[name]
	if !ok {
		return Update{}, fmt.Errorf("%w: %s", ErrRecordNotFound, name)
	}
	rec.Count += delta
	rec.ModifiedOn = modifiedOn.UTC().Truncate(time.Second)
	t.records[name] = rec
	return Update{Count: rec.Count, ModifiedOn: rec.ModifiedOn}, nil
}

// Set grava um registro diretamente, simulando uma escrita externa.
func (t *memoryTable) Set(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[rec.Name] = rec.Clone()
}

func (t *memoryTable) Purge(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable(); err != nil {
		return 0, err
	}
	n := len(t.records)
	t.records = make(map[string]Record)
	return n, nil
}

func (t *memoryTable) Drop(ctx context.Context) error {
	t.mu.Lock()
	t.dropped = true
	t.mu.Unlock()

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if t.backend.tables[t.spec.Name] == t {
		delete(t.backend.tables, t.spec.Name)
	}
	return nil
}

// usable exige t.mu.
func (t *memoryTable) usable() error {
	if t.dropped {
		return fmt.Errorf("%w: %s", ErrTableNotFound, t.spec.Name)
	}
	return nil
}
