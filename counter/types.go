// counter/types.go
package counter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Nomes dos atributos persistidos em cada registro de contador.
const (
	AttrCount      = "count"
	AttrCreatedOn  = "created_on"
	AttrModifiedOn = "modified_on"
)

// TimeFormat é o layout ISO-8601 (precisão de segundos, UTC) dos timestamps.
const TimeFormat = "2006-01-02T15:04:05"

var (
	// ErrConfiguration – configuração obrigatória ausente ou inválida.
	ErrConfiguration = errors.New("counter: configuration error")
	// ErrTableNotFound – tabela inexistente e auto-create desabilitado.
	ErrTableNotFound = errors.New("counter: table not found")
	// ErrTableExists – CreateTable chamado para uma tabela que já existe.
	ErrTableExists = errors.New("counter: table already exists")
	// ErrTableNotActive – a tabela não ficou ACTIVE dentro do tempo máximo.
	ErrTableNotActive = errors.New("counter: table did not become active")
	// ErrRecordNotFound – registro inexistente (tratado internamente pelo get-or-create).
	ErrRecordNotFound = errors.New("counter: record not found")
	// ErrRecordExists – escrita condicional perdeu a corrida de criação.
	ErrRecordExists = errors.New("counter: record already exists")
	// ErrMalformedRecord – registro persistido fora do formato esperado.
	ErrMalformedRecord = errors.New("counter: malformed record")
	// ErrInvalidName – nome de contador vazio.
	ErrInvalidName = errors.New("counter: invalid counter name")
	// ErrReservedAttribute – atributo extra colide com um atributo padrão.
	ErrReservedAttribute = errors.New("counter: reserved attribute")
	// ErrInvalidAmount – quantidade sem negativo representável (math.MinInt64).
	ErrInvalidAmount = errors.New("counter: invalid amount")
)

// KeyType é o tipo escalar da hash key (mesmos códigos do DynamoDB).
type KeyType string

const (
	KeyTypeString KeyType = "S"
	KeyTypeNumber KeyType = "N"
	KeyTypeBinary KeyType = "B"
)

// Schema descreve a hash key usada ao criar a tabela.
type Schema struct {
	HashKey string
	KeyType KeyType
}

// DefaultSchema é o schema usado quando nenhum é configurado.
var DefaultSchema = Schema{HashKey: "counter_name", KeyType: KeyTypeString}

// Validate verifica se o schema pode ser usado para criar uma tabela.
func (s Schema) Validate() error {
	if s.HashKey == "" {
		return fmt.Errorf("%w: schema hash key is empty", ErrConfiguration)
	}
	switch s.KeyType {
	case KeyTypeString, KeyTypeNumber, KeyTypeBinary:
		return nil
	default:
		return fmt.Errorf("%w: unsupported key type %q", ErrConfiguration, s.KeyType)
	}
}

// Throughput é a capacidade provisionada pedida na criação da tabela.
type Throughput struct {
	ReadUnits  int64
	WriteUnits int64
}

// DefaultThroughput reproduz os valores padrão de leitura/escrita (3/5).
var DefaultThroughput = Throughput{ReadUnits: 3, WriteUnits: 5}

// TableSpec reúne tudo o que um backend precisa para criar a tabela.
type TableSpec struct {
	Name       string
	Schema     Schema
	Throughput Throughput
}

// TableStatus segue os estados reportados pelo DynamoDB.
type TableStatus string

const (
	TableCreating TableStatus = "CREATING"
	TableActive   TableStatus = "ACTIVE"
	TableUpdating TableStatus = "UPDATING"
	TableDeleting TableStatus = "DELETING"
)

// Record é o snapshot de um registro de contador persistido.
type Record struct {
	Name       string
	Count      int64
	CreatedOn  time.Time
	ModifiedOn time.Time
	Extra      map[string]any
}

// Clone devolve uma cópia que não compartilha o mapa de extras.
func (r Record) Clone() Record {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Update contém os atributos devolvidos (UPDATED_NEW) por um AddCount.
type Update struct {
	Count      int64
	ModifiedOn time.Time
}

// Backend abstrai o cliente do key-value store externo.
type Backend interface {
	// OpenTable devolve ErrTableNotFound quando a tabela não existe.
	OpenTable(ctx context.Context, name string, schema Schema) (Table, error)
	// CreateTable devolve ErrTableExists quando a tabela já existe.
	CreateTable(ctx context.Context, spec TableSpec) (Table, error)
}

// Table é o handle de uma tabela resolvida.
type Table interface {
	Name() string
	Status(ctx context.Context) (TableStatus, error)

	// GetRecord devolve found=false quando a chave não existe.
	GetRecord(ctx context.Context, name string) (Record, bool, error)
	// PutRecord grava o registro; com ifAbsent a escrita é condicional e
	// devolve ErrRecordExists se outro chamador criou primeiro.
	PutRecord(ctx context.Context, rec Record, ifAbsent bool) error
	// AddCount aplica count += delta no servidor e define modified_on na
	// mesma requisição, devolvendo os valores novos.
	AddCount(ctx context.Context, name string, delta int64, modifiedOn time.Time) (Update, error)

	// Purge remove todos os itens; Drop remove a tabela.
	Purge(ctx context.Context) (int, error)
	Drop(ctx context.Context) error
}

// Negate devolve -amount, ou ErrInvalidAmount quando amount é math.MinInt64.
func Negate(amount int64) (int64, error) {
	if amount == math.MinInt64 {
		return 0, fmt.Errorf("%w: cannot negate %d", ErrInvalidAmount, amount)
	}
	return -amount, nil
}

// FormatTime serializa t em UTC com precisão de segundos.
func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimeFormat)
}

// ParseTime interpreta um timestamp persistido.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedRecord, s, err)
	}
	return t, nil
}

// IsReserved indica se name é um atributo controlado pelo store.
func IsReserved(name, hashKey string) bool {
	switch name {
	case hashKey, AttrCount, AttrCreatedOn, AttrModifiedOn:
		return true
	}
	return false
}
