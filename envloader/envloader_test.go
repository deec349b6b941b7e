package envloader

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) Option {
	return WithLookup(func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	})
}

type tableConfig struct {
	Name       string        `env:"TABLE_NAME"`
	HashKey    string        `env:"HASH_KEY" envDefault:"counter_name"`
	ReadUnits  int64         `env:"READ_UNITS" envDefault:"3"`
	WriteUnits uint32        `env:"WRITE_UNITS" envDefault:"5"`
	Strict     bool          `env:"STRICT_CREATE"`
	Ratio      float64       `env:"RATIO" envDefault:"0.5"`
	Poll       time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	AutoCreate *bool         `env:"AUTO_CREATE"`
	Tables     []string      `env:"TABLES"`
	Units      []int64       `env:"UNITS" envSeparator:";"`
	Skipped    string        `env:"-"`
	Backend    interface{}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := &tableConfig{Skipped: "keep"}
	require.NoError(t, Load(cfg, env(nil)))

	assert.Equal(t, "", cfg.Name)
	assert.Equal(t, "counter_name", cfg.HashKey)
	assert.Equal(t, int64(3), cfg.ReadUnits)
	assert.Equal(t, uint32(5), cfg.WriteUnits)
	assert.False(t, cfg.Strict)
	assert.Equal(t, 0.5, cfg.Ratio)
	assert.Equal(t, time.Second, cfg.Poll)
	assert.Nil(t, cfg.AutoCreate, "ponteiro sem valor continua nil")
	assert.Nil(t, cfg.Tables)
	assert.Equal(t, "keep", cfg.Skipped)
	assert.Nil(t, cfg.Backend)
}

func TestLoad_FromEnvironment(t *testing.T) {
	cfg := &tableConfig{}
	err := Load(cfg, env(map[string]string{
		"TABLE_NAME":    "counters",
		"HASH_KEY":      "",
		"READ_UNITS":    "10",
		"WRITE_UNITS":   "20",
		"STRICT_CREATE": "TRUE",
		"POLL_INTERVAL": "250ms",
		"AUTO_CREATE":   "false",
		"TABLES":        "a, b,c",
		"UNITS":         "3;5",
	}))
	require.NoError(t, err)

	assert.Equal(t, "counters", cfg.Name)
	assert.Equal(t, "counter_name", cfg.HashKey, "variável vazia usa o default")
	assert.Equal(t, int64(10), cfg.ReadUnits)
	assert.Equal(t, uint32(20), cfg.WriteUnits)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll)
	require.NotNil(t, cfg.AutoCreate)
	assert.False(t, *cfg.AutoCreate)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tables)
	assert.Equal(t, []int64{3, 5}, cfg.Units)
}

func TestLoad_Prefix(t *testing.T) {
	type redisConfig struct {
		Addr string `env:"ADDR"`
	}
	type serviceConfig struct {
		Table tableConfig
		Redis *redisConfig `envPrefix:"REDIS_"`
	}

	cfg := &serviceConfig{}
	err := Load(cfg, WithPrefix("COUNTER_"), env(map[string]string{
		"COUNTER_TABLE_NAME": "prefixed",
		"TABLE_NAME":         "ignored",
		"COUNTER_REDIS_ADDR": "localhost:6379",
	}))
	require.NoError(t, err)

	assert.Equal(t, "prefixed", cfg.Table.Name)
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("COUNTER_TABLE_NAME", "from-os")

	cfg := &tableConfig{}
	require.NoError(t, Load(cfg, WithPrefix("COUNTER_")))
	assert.Equal(t, "from-os", cfg.Name)
}

func TestLoad_InvalidConfig(t *testing.T) {
	var nilCfg *tableConfig
	for _, target := range []interface{}{nil, "counters", tableConfig{}, nilCfg, new(int)} {
		err := Load(target)
		require.Error(t, err)

		var invalid *InvalidConfigError
		assert.True(t, errors.As(err, &invalid))
		assert.Contains(t, err.Error(), "pointer to struct")
	}
}

func TestLoad_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		vars  map[string]string
		field string
	}{
		{"inteiro inválido", map[string]string{"READ_UNITS": "muitos"}, "ReadUnits"},
		{"unsigned negativo", map[string]string{"WRITE_UNITS": "-1"}, "WriteUnits"},
		{"bool inválido", map[string]string{"STRICT_CREATE": "talvez"}, "Strict"},
		{"duração inválida", map[string]string{"POLL_INTERVAL": "cinco minutos"}, "Poll"},
		{"ponteiro inválido", map[string]string{"AUTO_CREATE": "sim"}, "AutoCreate"},
		{"item de lista inválido", map[string]string{"UNITS": "3;x"}, "Units"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Load(&tableConfig{}, WithPrefix("C_"), env(prefixed("C_", tt.vars)))
			require.Error(t, err)

			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tt.field, fieldErr.FieldName)
			assert.Contains(t, fieldErr.EnvVar, "C_")
			assert.NotNil(t, errors.Unwrap(err))
		})
	}
}

func TestLoad_UnsupportedType(t *testing.T) {
	type config struct {
		Labels map[string]string `env:"LABELS" envDefault:"a=b"`
	}

	err := Load(&config{})
	require.Error(t, err)

	var unsupported *UnsupportedTypeError
	assert.True(t, errors.As(err, &unsupported))
}

func TestMustLoad(t *testing.T) {
	cfg := &tableConfig{}
	assert.NotPanics(t, func() { MustLoad(cfg, env(nil)) })
	assert.Equal(t, "counter_name", cfg.HashKey)

	assert.Panics(t, func() { MustLoad("not-a-pointer") })
}

func prefixed(prefix string, vars map[string]string) map[string]string {
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[prefix+k] = v
	}
	return out
}
