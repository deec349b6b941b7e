package engine

import (
	"context"

	"github.com/raywall/fast-counter/counter"
	"github.com/raywall/fast-counter/pkg/config"
)

// Loader é responsável por carregar e decodificar a configuração do serviço.
// Ele abstrai a origem do arquivo (Sistema de arquivos, S3, DynamoDB).
type Loader interface {
	// Load lê a configuração a partir de uma origem e retorna a struct validada.
	Load(ctx context.Context, source string) (*config.ServiceConfig, error)
}

// Executor é a interface de tempo de execução usada pelos transportes
// (HTTP, Lambda, SQS). Deve ser thread-safe.
type Executor interface {
	// Get devolve o registro do contador, criando-o com start se não existir.
	Get(ctx context.Context, name string, start int64) (counter.Record, error)
	// Apply soma amount ao contador (criando-o com start) e devolve o snapshot.
	Apply(ctx context.Context, name string, amount, start int64) (counter.Record, error)
	// Shutdown libera conexões do backend.
	Shutdown(ctx context.Context) error
}
