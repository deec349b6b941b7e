package config

import "time"

// ServiceConfig representa a estrutura raiz do arquivo YAML do serviço de contadores.
type ServiceConfig struct {
	Version string         `yaml:"version" validate:"required"`
	Service ServiceDetails `yaml:"service" validate:"required"`
	Backend BackendConf    `yaml:"backend" validate:"required"`
	Table   TableConf      `yaml:"table" validate:"required"`
	Events  EventsConf     `yaml:"events"`
}

// ServiceDetails contém os metadados e configurações de runtime do serviço.
type ServiceDetails struct {
	Name    string      `yaml:"name" validate:"required,hostname_rfc1123"`
	Runtime string      `yaml:"runtime" validate:"required,oneof=local lambda"`
	Port    int         `yaml:"port" validate:"required_if=Runtime local"` // Obrigatório apenas se local
	Timeout string      `yaml:"timeout"`                                   // Ex: "500ms", "2s"
	Logging LoggingConf `yaml:"logging"`
	Metrics MetricsConf `yaml:"metrics"`
}

// BackendConf seleciona o key-value store que guarda os contadores.
type BackendConf struct {
	Type  string    `yaml:"type" env:"COUNTER_BACKEND" validate:"required,oneof=dynamodb redis memory"`
	AWS   AWSConf   `yaml:"aws"`
	Redis RedisConf `yaml:"redis"`
}

type AWSConf struct {
	Region    string `yaml:"region" env:"AWS_REGION"`
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"` // DynamoDB Local, LocalStack...
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key" validate:"required_with=AccessKey"`
}

type RedisConf struct {
	Addr      string `yaml:"addr" env:"REDIS_ADDR"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db" validate:"gte=0"`
	Namespace string `yaml:"namespace"`
}

// TableConf espelha counter.Config; valores zerados assumem os padrões.
type TableConf struct {
	Name           string `yaml:"name" env:"COUNTER_TABLE_NAME" validate:"required"`
	HashKey        string `yaml:"hash_key"`
	KeyType        string `yaml:"key_type" validate:"omitempty,oneof=S N B"`
	ReadUnits      int64  `yaml:"read_units" validate:"gte=0"`
	WriteUnits     int64  `yaml:"write_units" validate:"gte=0"`
	AutoCreate     *bool  `yaml:"auto_create" env:"COUNTER_AUTO_CREATE"` // Ponteiro para distinguir ausente (true) de false
	PollInterval   string `yaml:"poll_interval"`
	MaxWait        string `yaml:"max_wait"`
	StrictCreate   bool   `yaml:"strict_create"`
	ConsistentRead *bool  `yaml:"consistent_read" env:"COUNTER_CONSISTENT_READ"`
}

// EventsConf habilita o consumo de eventos de incremento via SQS.
type EventsConf struct {
	QueueURL string `yaml:"queue_url" env:"COUNTER_EVENTS_QUEUE" validate:"omitempty,url"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled   bool     `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string   `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

func (s ServiceDetails) GetTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// AutoCreateEnabled devolve true quando auto_create não foi informado.
func (t TableConf) AutoCreateEnabled() bool {
	return t.AutoCreate == nil || *t.AutoCreate
}

// ConsistentReadEnabled devolve true quando consistent_read não foi informado.
func (t TableConf) ConsistentReadEnabled() bool {
	return t.ConsistentRead == nil || *t.ConsistentRead
}

// Durations interpreta poll_interval e max_wait (zero quando ausentes).
func (t TableConf) Durations() (poll, maxWait time.Duration, err error) {
	if t.PollInterval != "" {
		if poll, err = time.ParseDuration(t.PollInterval); err != nil {
			return 0, 0, err
		}
	}
	if t.MaxWait != "" {
		if maxWait, err = time.ParseDuration(t.MaxWait); err != nil {
			return 0, 0, err
		}
	}
	return poll, maxWait, nil
}
