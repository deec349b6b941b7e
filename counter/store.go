// counter/store.go
package counter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raywall/fast-counter/envloader"
	"github.com/raywall/fast-counter/pkg/metrics"
	"github.com/rs/zerolog"
)

const (
	defaultPollInterval = time.Second
	defaultMaxWait      = 5 * time.Minute
)

// Store resolve a tabela de contadores, cria-a sob demanda e produz Counters.
//
// Um Store deve ser construído uma vez por tabela lógica e reutilizado: o
// handle da tabela fica em cache durante toda a vida da instância.
type Store struct {
	provider     Provider
	autoCreate   bool
	strictCreate bool
	pollInterval time.Duration
	maxWait      time.Duration
	logger       zerolog.Logger
	metrics      metrics.Provider
	now          func() time.Time

	mu      sync.Mutex
	backend Backend
	table   Table
}

// Option configura um Store.
type Option func(*Store)

// WithAutoCreate define se uma tabela ausente deve ser criada (padrão true).
func WithAutoCreate(enabled bool) Option {
	return func(s *Store) { s.autoCreate = enabled }
}

// WithStrictCreate troca a criação last-write-wins por uma escrita
// condicional: quem perde a corrida relê o registro do vencedor.
func WithStrictCreate(enabled bool) Option {
	return func(s *Store) { s.strictCreate = enabled }
}

// WithPolling define o intervalo fixo e a espera máxima pela ativação da tabela.
func WithPolling(interval, maxWait time.Duration) Option {
	return func(s *Store) {
		if interval > 0 {
			s.pollInterval = interval
		}
		if maxWait > 0 {
			s.maxWait = maxWait
		}
	}
}

// WithLogger define o logger do Store (padrão zerolog.Nop).
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics define onde o Store emite contagens e latências.
func WithMetrics(p metrics.Provider) Option {
	return func(s *Store) { s.metrics = p }
}

// WithClock substitui a fonte de tempo (usado em testes).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New cria um Store a partir de um Provider.
func New(provider Provider, opts ...Option) *Store {
	s := &Store{
		provider:     provider,
		autoCreate:   true,
		pollInterval: defaultPollInterval,
		maxWait:      defaultMaxWait,
		logger:       zerolog.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnvPrefix é o prefixo das variáveis lidas por NewFromConfig.
const EnvPrefix = "COUNTER_"

// NewFromConfig cria um Store usando Config como Provider. Quando TableName
// está vazio a configuração é lida das variáveis de ambiente COUNTER_*.
func NewFromConfig(cfg Config, opts ...Option) (*Store, error) {
	if cfg.TableName == "" {
		if err := envloader.Load(&cfg, envloader.WithPrefix(EnvPrefix)); err != nil {
			return nil, fmt.Errorf("%w: load from env: %w", ErrConfiguration, err)
		}
	}
	return New(cfg, append(cfg.options(), opts...)...), nil
}

// Table devolve o handle da tabela, resolvendo-o (e criando a tabela, se
// permitido) na primeira chamada. Chamadas seguintes devolvem o handle em
// cache sem nova verificação de existência.
func (s *Store) Table(ctx context.Context) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table != nil {
		return s.table, nil
	}

	name, err := s.provider.ResolveTableName()
	if err != nil {
		return nil, err
	}
	backend, err := s.acquireBackend(ctx)
	if err != nil {
		return nil, err
	}
	schema, err := s.provider.ResolveSchema()
	if err != nil {
		return nil, err
	}

	table, err := backend.OpenTable(ctx, name, schema)
	switch {
	case err == nil:
	case errors.Is(err, ErrTableNotFound) && s.autoCreate:
		s.logger.Info().Str("table", name).Msg("table not found, creating")
		table, err = s.createTable(ctx, backend, name, schema)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.table = table
	return table, nil
}

// CreateTable cria a tabela explicitamente (pré-provisionamento). Se a tabela
// já existir o erro do backend (ErrTableExists) é devolvido.
func (s *Store) CreateTable(ctx context.Context) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.provider.ResolveTableName()
	if err != nil {
		return nil, err
	}
	backend, err := s.acquireBackend(ctx)
	if err != nil {
		return nil, err
	}
	schema, err := s.provider.ResolveSchema()
	if err != nil {
		return nil, err
	}

	table, err := s.createTable(ctx, backend, name, schema)
	if err != nil {
		return nil, err
	}
	s.table = table
	return table, nil
}

// acquireBackend exige s.mu.
func (s *Store) acquireBackend(ctx context.Context) (Backend, error) {
	if s.backend != nil {
		return s.backend, nil
	}
	b, err := s.provider.AcquireBackend(ctx)
	if err != nil {
		return nil, err
	}
	s.backend = b
	return b, nil
}

func (s *Store) createTable(ctx context.Context, backend Backend, name string, schema Schema) (Table, error) {
	throughput, err := s.provider.ResolveThroughput()
	if err != nil {
		return nil, err
	}

	table, err := backend.CreateTable(ctx, TableSpec{
		Name:       name,
		Schema:     schema,
		Throughput: throughput,
	})
	if err != nil {
		return nil, err
	}

	if err := s.waitActive(ctx, table); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("table", name).
		Str("hash_key", schema.HashKey).
		Int64("read_units", throughput.ReadUnits).
		Int64("write_units", throughput.WriteUnits).
		Msg("table created")
	s.count(metrics.TableCreated, 1, name)
	return table, nil
}

// waitActive consulta o status em intervalo fixo até ACTIVE, cancelamento
// do contexto ou estouro de maxWait.
func (s *Store) waitActive(ctx context.Context, table Table) error {
	ctx, cancel := context.WithTimeout(ctx, s.maxWait)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		status, err := table.Status(ctx)
		if err != nil && !errors.Is(err, ErrTableNotFound) {
			return fmt.Errorf("counter: describe table %s: %w", table.Name(), err)
		}
		if status == TableActive {
			return nil
		}

		s.logger.Debug().Str("table", table.Name()).Str("status", string(status)).Msg("waiting for table")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrTableNotActive, table.Name(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// GetOrCreateRecord busca o registro do contador e, se não existir, cria-o
// com count=start. Sem StrictCreate a criação não é condicional: dois
// chamadores concorrentes podem ambos criar e o último a escrever vence.
func (s *Store) GetOrCreateRecord(ctx context.Context, name string, start int64, extra map[string]any) (Record, error) {
	if name == "" {
		return Record{}, ErrInvalidName
	}
	schema, err := s.provider.ResolveSchema()
	if err != nil {
		return Record{}, err
	}
	for k := range extra {
		if IsReserved(k, schema.HashKey) {
			return Record{}, fmt.Errorf("%w: %q", ErrReservedAttribute, k)
		}
	}

	table, err := s.Table(ctx)
	if err != nil {
		return Record{}, err
	}

	rec, found, err := table.GetRecord(ctx, name)
	if err != nil {
		return Record{}, err
	}
	if found {
		return rec, nil
	}

	now := s.now().UTC().Truncate(time.Second)
	rec = Record{
		Name:       name,
		Count:      start,
		CreatedOn:  now,
		ModifiedOn: now,
	}
	if len(extra) > 0 {
		rec.Extra = make(map[string]any, len(extra))
		for k, v := range extra {
			rec.Extra[k] = v
		}
	}

	err = table.PutRecord(ctx, rec, s.strictCreate)
	if errors.Is(err, ErrRecordExists) && s.strictCreate {
		s.logger.Debug().Str("counter", name).Msg("lost creation race, refetching")
		winner, found, err := table.GetRecord(ctx, name)
		if err != nil {
			return Record{}, err
		}
		if !found {
			return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, name)
		}
		return winner, nil
	}
	if err != nil {
		return Record{}, err
	}

	s.logger.Debug().Str("table", table.Name()).Str("counter", name).Int64("start", start).Msg("counter created")
	s.count(metrics.RecordCreated, 1, table.Name())
	return rec, nil
}

// GetCounter é o ponto de entrada principal: busca ou cria o registro e o
// envolve em um Counter.
func (s *Store) GetCounter(ctx context.Context, name string, start int64) (*Counter, error) {
	rec, err := s.GetOrCreateRecord(ctx, name, start, nil)
	if err != nil {
		return nil, err
	}
	return &Counter{record: rec, store: s}, nil
}

// Purge remove todos os registros da tabela (ferramenta de limpeza).
func (s *Store) Purge(ctx context.Context) (int, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return 0, err
	}
	n, err := table.Purge(ctx)
	if err != nil {
		return n, err
	}
	s.logger.Info().Str("table", table.Name()).Int("deleted", n).Msg("table purged")
	return n, nil
}

// Drop remove a tabela e descarta o handle em cache.
func (s *Store) Drop(ctx context.Context) error {
	table, err := s.Table(ctx)
	if err != nil {
		return err
	}
	if err := table.Drop(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.table = nil
	s.mu.Unlock()

	s.logger.Info().Str("table", table.Name()).Msg("table dropped")
	return nil
}

func (s *Store) fetch(ctx context.Context, name string) (Record, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return Record{}, err
	}
	rec, found, err := table.GetRecord(ctx, name)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, name)
	}
	return rec, nil
}

func (s *Store) add(ctx context.Context, name string, delta int64) (Update, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return Update{}, err
	}

	start := time.Now()
	upd, err := table.AddCount(ctx, name, delta, s.now().UTC().Truncate(time.Second))
	if err != nil {
		return Update{}, err
	}

	s.count(metrics.Increment, float64(delta), table.Name())
	s.histogram(metrics.AddLatency, float64(time.Since(start).Milliseconds()), table.Name())
	return upd, nil
}

func (s *Store) count(name string, value float64, table string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.Count(name, value, []string{"table:" + table}); err != nil {
		s.logger.Warn().Err(err).Str("metric", name).Msg("failed to emit metric")
	}
}

func (s *Store) histogram(name string, value float64, table string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.Histogram(name, value, []string{"table:" + table}); err != nil {
		s.logger.Warn().Err(err).Str("metric", name).Msg("failed to emit metric")
	}
}
