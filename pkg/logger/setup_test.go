package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/raywall/fast-counter/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	t.Run("Default Level Info", func(t *testing.T) {
		_ = Configure(config.LoggingConf{Enabled: true})
		assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	})

	t.Run("Custom Level Debug", func(t *testing.T) {
		_ = Configure(config.LoggingConf{Enabled: true, Level: "debug"})
		assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	})

	t.Run("Disabled Logger", func(t *testing.T) {
		var buf bytes.Buffer
		l := ConfigureTo(config.LoggingConf{Enabled: false}, &buf)
		l.Info().Msg("teste")
		assert.Zero(t, buf.Len())
	})
}

func TestComponent(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	l := Component(ConfigureTo(config.LoggingConf{Enabled: true, Format: "json"}, &buf), "store")
	l.Info().Str("table", "counters").Msg("table created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "store", line["component"])
	assert.Equal(t, "counters", line["table"])
	assert.Equal(t, "table created", line["message"])
}
