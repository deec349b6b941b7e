package transport

import (
	"context"
	"testing"

	"github.com/raywall/fast-counter/counter"
	"github.com/raywall/fast-counter/pkg/config"
	"github.com/raywall/fast-counter/pkg/engine"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *engine.ServiceEngine {
	t.Helper()
	cfg := &config.ServiceConfig{
		Version: "1.0",
		Service: config.ServiceDetails{Name: "counter-test", Runtime: "local", Port: 8080, Timeout: "1s"},
		Backend: config.BackendConf{Type: "memory"},
		Table:   config.TableConf{Name: "counters", PollInterval: "5ms", MaxWait: "1s"},
	}
	se, err := engine.NewServiceEngine(context.Background(), cfg, "memory", engine.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return se
}

// failingExecutor devolve sempre o mesmo erro.
type failingExecutor struct {
	err error
}

func (f failingExecutor) Get(ctx context.Context, name string, start int64) (counter.Record, error) {
	return counter.Record{}, f.err
}

func (f failingExecutor) Apply(ctx context.Context, name string, amount, start int64) (counter.Record, error) {
	return counter.Record{}, f.err
}

func (f failingExecutor) Shutdown(ctx context.Context) error { return nil }
