package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/raywall/fast-counter/counter"
	"github.com/raywall/fast-counter/dyndb"
	"github.com/raywall/fast-counter/pkg/awsconf"
	"github.com/raywall/fast-counter/pkg/config"
	"github.com/raywall/fast-counter/pkg/logger"
	"github.com/raywall/fast-counter/pkg/metrics"
	"github.com/raywall/fast-counter/pkg/observability"
	"github.com/raywall/fast-counter/redisdb"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ServiceEngine liga a configuração do serviço ao Store de contadores.
type ServiceEngine struct {
	ConfigSource string
	Config       *config.ServiceConfig
	Logger       zerolog.Logger
	Metrics      metrics.Provider
	Store        *counter.Store

	closer io.Closer
}

var _ Executor = (*ServiceEngine)(nil)

// EngineOption ajusta a construção do engine (usado em testes e pela CLI).
type EngineOption func(*engineOptions)

type engineOptions struct {
	backend counter.Backend
	logger  *zerolog.Logger
}

// WithBackend usa um backend já construído em vez do declarado no YAML.
func WithBackend(b counter.Backend) EngineOption {
	return func(o *engineOptions) { o.backend = b }
}

// WithLogger substitui o logger configurado a partir do YAML.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(o *engineOptions) { o.logger = &l }
}

func NewServiceEngine(ctx context.Context, cfg *config.ServiceConfig, configSource string, opts ...EngineOption) (*ServiceEngine, error) {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.Configure(cfg.Service.Logging)
	if o.logger != nil {
		log = *o.logger
	}
	log = log.With().Str("service", cfg.Service.Name).Logger()

	metricProvider, err := observability.SetupMetrics(cfg.Service.Metrics,
		"service:"+cfg.Service.Name, "backend:"+cfg.Backend.Type)
	if err != nil {
		return nil, fmt.Errorf("falha métricas: %w", err)
	}

	se := &ServiceEngine{
		ConfigSource: configSource,
		Config:       cfg,
		Logger:       log,
		Metrics:      metricProvider,
	}

	backend := o.backend
	if backend == nil {
		backend, se.closer, err = buildBackend(ctx, cfg.Backend, cfg.Table)
		if err != nil {
			return nil, fmt.Errorf("falha backend %s: %w", cfg.Backend.Type, err)
		}
	}

	storeCfg, err := StoreConfig(cfg.Table)
	if err == nil {
		storeCfg.Backend = backend
		se.Store, err = counter.NewFromConfig(storeCfg,
			counter.WithLogger(logger.Component(log, "store")),
			counter.WithMetrics(metricProvider),
		)
	}
	if err != nil {
		if se.closer != nil {
			_ = se.closer.Close()
		}
		return nil, err
	}

	log.Info().
		Str("backend", cfg.Backend.Type).
		Str("table", cfg.Table.Name).
		Bool("auto_create", cfg.Table.AutoCreateEnabled()).
		Msg("engine initialized")
	return se, nil
}

// StoreConfig traduz a seção table do YAML para counter.Config; as opções
// de criação e polling saem do próprio Config em counter.NewFromConfig.
func StoreConfig(t config.TableConf) (counter.Config, error) {
	poll, maxWait, err := t.Durations()
	if err != nil {
		return counter.Config{}, fmt.Errorf("%w: %v", counter.ErrConfiguration, err)
	}

	cfg := counter.Config{
		TableName:         t.Name,
		HashKey:           t.HashKey,
		KeyType:           counter.KeyType(t.KeyType),
		ReadUnits:         t.ReadUnits,
		WriteUnits:        t.WriteUnits,
		DisableAutoCreate: !t.AutoCreateEnabled(),
		PollInterval:      poll,
		MaxWait:           maxWait,
		StrictCreate:      t.StrictCreate,
	}
	return cfg, nil
}

func buildBackend(ctx context.Context, b config.BackendConf, t config.TableConf) (counter.Backend, io.Closer, error) {
	switch b.Type {
	case "dynamodb":
		awsCfg, err := awsconf.Load(ctx, awsconf.Options{
			Region:    b.AWS.Region,
			Endpoint:  b.AWS.Endpoint,
			AccessKey: b.AWS.AccessKey,
			SecretKey: b.AWS.SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return dyndb.NewFromConfig(awsCfg, dyndb.WithConsistentRead(t.ConsistentReadEnabled())), nil, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     b.Redis.Addr,
			Password: b.Redis.Password,
			DB:       b.Redis.DB,
		})
		return redisdb.New(client, redisdb.WithNamespace(b.Redis.Namespace)), client, nil

	case "memory":
		return counter.NewMemoryBackend(), nil, nil
	}
	return nil, nil, fmt.Errorf("%w: backend desconhecido %q", counter.ErrConfiguration, b.Type)
}

func (se *ServiceEngine) Get(ctx context.Context, name string, start int64) (counter.Record, error) {
	return se.Store.GetOrCreateRecord(ctx, name, start, nil)
}

func (se *ServiceEngine) Apply(ctx context.Context, name string, amount, start int64) (counter.Record, error) {
	c, err := se.Store.GetCounter(ctx, name, start)
	if err != nil {
		return counter.Record{}, err
	}
	if _, err := c.Increment(ctx, amount); err != nil {
		return counter.Record{}, err
	}
	return c.Snapshot(), nil
}

func (se *ServiceEngine) Shutdown(ctx context.Context) error {
	if se.closer == nil {
		return nil
	}
	if err := se.closer.Close(); err != nil {
		return fmt.Errorf("falha ao fechar backend: %w", err)
	}
	return nil
}
