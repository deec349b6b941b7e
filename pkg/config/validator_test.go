package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *ServiceConfig {
	return &ServiceConfig{
		Version: "1.0",
		Service: ServiceDetails{
			Name:    "counter-service",
			Runtime: "local",
			Port:    8080,
			Timeout: "5s",
			Logging: LoggingConf{Enabled: true, Level: "info", Format: "console"},
		},
		Backend: BackendConf{Type: "dynamodb", AWS: AWSConf{Region: "us-east-1"}},
		Table:   TableConf{Name: "counters"},
	}
}

func TestValidator_Validate(t *testing.T) {
	validator := NewValidator()
	no := false

	tests := []struct {
		name    string
		mutate  func(cfg *ServiceConfig)
		wantErr bool
	}{
		{name: "Valid Config", mutate: func(cfg *ServiceConfig) {}},
		{
			name:    "Missing Table Name",
			mutate:  func(cfg *ServiceConfig) { cfg.Table.Name = "" },
			wantErr: true,
		},
		{
			name:    "Invalid Backend Type",
			mutate:  func(cfg *ServiceConfig) { cfg.Backend.Type = "cassandra" },
			wantErr: true,
		},
		{
			name:    "Redis sem endereço",
			mutate:  func(cfg *ServiceConfig) { cfg.Backend.Type = "redis" },
			wantErr: true,
		},
		{
			name: "Redis com endereço",
			mutate: func(cfg *ServiceConfig) {
				cfg.Backend.Type = "redis"
				cfg.Backend.Redis.Addr = "localhost:6379"
			},
		},
		{
			name: "Memory em lambda",
			mutate: func(cfg *ServiceConfig) {
				cfg.Backend.Type = "memory"
				cfg.Service.Runtime = "lambda"
			},
			wantErr: true,
		},
		{
			name:    "Local sem porta",
			mutate:  func(cfg *ServiceConfig) { cfg.Service.Port = 0 },
			wantErr: true,
		},
		{
			name:    "Lambda sem porta",
			mutate:  func(cfg *ServiceConfig) { cfg.Service.Runtime = "lambda"; cfg.Service.Port = 0 },
			wantErr: false,
		},
		{
			name:    "Key type inválido",
			mutate:  func(cfg *ServiceConfig) { cfg.Table.KeyType = "X" },
			wantErr: true,
		},
		{
			name:    "Throughput negativo",
			mutate:  func(cfg *ServiceConfig) { cfg.Table.ReadUnits = -1 },
			wantErr: true,
		},
		{
			name: "Max wait menor que poll interval",
			mutate: func(cfg *ServiceConfig) {
				cfg.Table.PollInterval = "10s"
				cfg.Table.MaxWait = "1s"
			},
			wantErr: true,
		},
		{
			name:    "Poll interval inválido",
			mutate:  func(cfg *ServiceConfig) { cfg.Table.PollInterval = "rápido" },
			wantErr: true,
		},
		{
			name:    "Timeout inválido",
			mutate:  func(cfg *ServiceConfig) { cfg.Service.Timeout = "cinco" },
			wantErr: true,
		},
		{
			name:    "Secret sem access key",
			mutate:  func(cfg *ServiceConfig) { cfg.Backend.AWS.AccessKey = "AKIA" },
			wantErr: true,
		},
		{
			name:    "Auto create desabilitado",
			mutate:  func(cfg *ServiceConfig) { cfg.Table.AutoCreate = &no },
			wantErr: false,
		},
		{
			name:    "Datadog sem endereço",
			mutate:  func(cfg *ServiceConfig) { cfg.Service.Metrics.Datadog.Enabled = true },
			wantErr: true,
		},
		{
			name: "Eventos com lambda",
			mutate: func(cfg *ServiceConfig) {
				cfg.Service.Runtime = "lambda"
				cfg.Events.QueueURL = "https://sqs.us-east-1.amazonaws.com/123/counter-events"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validator.Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTableConf_Helpers(t *testing.T) {
	yes, no := true, false

	assert.True(t, TableConf{}.AutoCreateEnabled())
	assert.True(t, TableConf{AutoCreate: &yes}.AutoCreateEnabled())
	assert.False(t, TableConf{AutoCreate: &no}.AutoCreateEnabled())
	assert.True(t, TableConf{}.ConsistentReadEnabled())
	assert.False(t, TableConf{ConsistentRead: &no}.ConsistentReadEnabled())

	poll, maxWait, err := TableConf{PollInterval: "2s", MaxWait: "1m"}.Durations()
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Second, poll)
	assert.Equal(t, time.Minute, maxWait)

	poll, maxWait, err = TableConf{}.Durations()
	assert.NoError(t, err)
	assert.Zero(t, poll)
	assert.Zero(t, maxWait)
}

func TestServiceDetails_GetTimeout(t *testing.T) {
	assert.Equal(t, 2*time.Second, ServiceDetails{Timeout: "2s"}.GetTimeout())
	assert.Equal(t, 30*time.Second, ServiceDetails{}.GetTimeout())
	assert.Equal(t, 30*time.Second, ServiceDetails{Timeout: "x"}.GetTimeout())
}
