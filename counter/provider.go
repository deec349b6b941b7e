// counter/provider.go
package counter

import (
	"context"
	"fmt"
	"time"
)

// Provider reúne os pontos de extensão do Store: nome da tabela, schema,
// throughput e aquisição do backend. Estratégias alternativas são injetadas
// implementando esta interface.
type Provider interface {
	ResolveTableName() (string, error)
	ResolveSchema() (Schema, error)
	ResolveThroughput() (Throughput, error)
	AcquireBackend(ctx context.Context) (Backend, error)
}

// Config é a implementação padrão de Provider. Pode ser preenchida pelo
// chamador ou a partir de variáveis de ambiente (ver NewFromConfig).
type Config struct {
	TableName  string  `env:"TABLE_NAME"`
	HashKey    string  `env:"HASH_KEY"`
	KeyType    KeyType `env:"KEY_TYPE"`
	ReadUnits  int64   `env:"READ_UNITS"`
	WriteUnits int64   `env:"WRITE_UNITS"`

	DisableAutoCreate bool          `env:"DISABLE_AUTO_CREATE"`
	PollInterval      time.Duration `env:"POLL_INTERVAL"`
	MaxWait           time.Duration `env:"MAX_WAIT"`
	StrictCreate      bool          `env:"STRICT_CREATE"`

	// Backend é o cliente já construído (DynamoDB, Redis, memória).
	Backend Backend
}

var _ Provider = Config{}

// ResolveTableName exige TableName preenchido.
func (c Config) ResolveTableName() (string, error) {
	if c.TableName == "" {
		return "", fmt.Errorf("%w: table name is required", ErrConfiguration)
	}
	return c.TableName, nil
}

// ResolveSchema completa HashKey/KeyType com DefaultSchema e valida o resultado.
func (c Config) ResolveSchema() (Schema, error) {
	s := DefaultSchema
	if c.HashKey != "" {
		s.HashKey = c.HashKey
	}
	if c.KeyType != "" {
		s.KeyType = c.KeyType
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// ResolveThroughput usa DefaultThroughput para unidades zeradas e rejeita negativas.
func (c Config) ResolveThroughput() (Throughput, error) {
	if c.ReadUnits < 0 || c.WriteUnits < 0 {
		return Throughput{}, fmt.Errorf("%w: throughput units must be positive", ErrConfiguration)
	}
	t := DefaultThroughput
	if c.ReadUnits > 0 {
		t.ReadUnits = c.ReadUnits
	}
	if c.WriteUnits > 0 {
		t.WriteUnits = c.WriteUnits
	}
	return t, nil
}

// AcquireBackend devolve o Backend configurado, ou ErrConfiguration se nil.
func (c Config) AcquireBackend(ctx context.Context) (Backend, error) {
	if c.Backend == nil {
		return nil, fmt.Errorf("%w: backend is required", ErrConfiguration)
	}
	return c.Backend, nil
}

// options converte os campos operacionais do Config em Options do Store.
func (c Config) options() []Option {
	opts := []Option{
		WithAutoCreate(!c.DisableAutoCreate),
		WithStrictCreate(c.StrictCreate),
	}
	if c.PollInterval > 0 || c.MaxWait > 0 {
		opts = append(opts, WithPolling(c.PollInterval, c.MaxWait))
	}
	return opts
}
