package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/fast-counter/pkg/awsconf"
	localConfig "github.com/raywall/fast-counter/pkg/config"
	"github.com/raywall/fast-counter/pkg/config/injector"
	"gopkg.in/yaml.v3"
)

// ErrSourceNotFound indica que a fonte remota não contém a configuração.
var ErrSourceNotFound = errors.New("configuração não encontrada na fonte")

// Atributos padrão do item em dynamodb://tabela/chave.
const (
	defaultConfigKeyAttr     = "id"
	defaultConfigContentAttr = "content"
)

// Load é a função simplificada usada pelos binários na inicialização.
func Load(source string) (*localConfig.ServiceConfig, error) {
	return NewUniversalLoader().Load(context.Background(), source)
}

// --- Interfaces para Mocking ---

type S3Downloader interface {
	FetchObject(ctx context.Context, bucket, key string) ([]byte, error)
}

type DynamoGetter interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// UniversalLoader lê a configuração de arquivo local, S3 ou de um item
// DynamoDB. Os clientes AWS são criados na primeira fonte remota.
type UniversalLoader struct {
	validator *localConfig.ConfigValidator
	injector  *injector.Injector

	mu     sync.Mutex
	s3     S3Downloader
	dynamo DynamoGetter
}

var _ Loader = (*UniversalLoader)(nil)

// LoaderOption injeta dependências do loader.
type LoaderOption func(*UniversalLoader)

// WithS3 usa client para fontes s3://.
func WithS3(client S3Downloader) LoaderOption {
	return func(ul *UniversalLoader) { ul.s3 = client }
}

// WithDynamo usa client para fontes dynamodb://.
func WithDynamo(client DynamoGetter) LoaderOption {
	return func(ul *UniversalLoader) { ul.dynamo = client }
}

// WithInjector troca o injector (ex.: fontes ssm/secret falsas).
func WithInjector(i *injector.Injector) LoaderOption {
	return func(ul *UniversalLoader) { ul.injector = i }
}

// NewUniversalLoader cria uma nova instância.
func NewUniversalLoader(opts ...LoaderOption) *UniversalLoader {
	ul := &UniversalLoader{
		validator: localConfig.NewValidator(),
		injector:  injector.New(),
	}
	for _, opt := range opts {
		opt(ul)
	}
	return ul
}

// Load lê a fonte, aplica YAML, injeção e validação.
func (ul *UniversalLoader) Load(ctx context.Context, source string) (*localConfig.ServiceConfig, error) {
	raw, err := ul.read(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("falha leitura config (%s): %w", source, err)
	}
	return ul.parseAndValidate(ctx, raw)
}

// read aceita "caminho", "file://caminho", "s3://bucket/chave" e
// "dynamodb://tabela/chave?pk=atributo&col=atributo".
func (ul *UniversalLoader) read(ctx context.Context, source string) ([]byte, error) {
	scheme, rest, found := strings.Cut(source, "://")
	if !found {
		return os.ReadFile(source)
	}

	switch scheme {
	case "file":
		return os.ReadFile(rest)

	case "s3":
		u, err := parseRemote(source)
		if err != nil {
			return nil, err
		}
		client, err := ul.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		return fromS3(ctx, client, u)

	case "dynamodb":
		u, err := parseRemote(source)
		if err != nil {
			return nil, err
		}
		client, err := ul.dynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		return fromDynamoDB(ctx, client, u)
	}
	return nil, fmt.Errorf("esquema %q não suportado", scheme)
}

func parseRemote(source string) (*url.URL, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("URL inválida: %w", err)
	}
	if u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return nil, fmt.Errorf("URL %s deve ter o formato %s://<origem>/<chave>", source, u.Scheme)
	}
	return u, nil
}

func fromS3(ctx context.Context, client S3Downloader, u *url.URL) ([]byte, error) {
	return client.FetchObject(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
}

func fromDynamoDB(ctx context.Context, client DynamoGetter, u *url.URL) ([]byte, error) {
	keyAttr := u.Query().Get("pk")
	if keyAttr == "" {
		keyAttr = defaultConfigKeyAttr
	}
	contentAttr := u.Query().Get("col")
	if contentAttr == "" {
		contentAttr = defaultConfigContentAttr
	}

	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(u.Host),
		Key: map[string]types.AttributeValue{
			keyAttr: &types.AttributeValueMemberS{Value: strings.TrimPrefix(u.Path, "/")},
		},
		ProjectionExpression:     aws.String("#content"),
		ExpressionAttributeNames: map[string]string{"#content": contentAttr},
		ConsistentRead:           aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	av, ok := out.Item[contentAttr]
	if !ok {
		return nil, fmt.Errorf("%w: item %s sem atributo %q", ErrSourceNotFound, u.Path, contentAttr)
	}
	var content string
	if err := attributevalue.Unmarshal(av, &content); err != nil {
		return nil, fmt.Errorf("atributo %q não é string: %w", contentAttr, err)
	}
	return []byte(content), nil
}

func (ul *UniversalLoader) s3Client(ctx context.Context) (S3Downloader, error) {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	if ul.s3 == nil {
		cfg, err := loadAWS(ctx)
		if err != nil {
			return nil, err
		}
		ul.s3 = awsconf.NewFetcher(cfg)
	}
	return ul.s3, nil
}

func (ul *UniversalLoader) dynamoClient(ctx context.Context) (DynamoGetter, error) {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	if ul.dynamo == nil {
		cfg, err := loadAWS(ctx)
		if err != nil {
			return nil, err
		}
		ul.dynamo = dynamodb.NewFromConfig(cfg)
	}
	return ul.dynamo, nil
}

// loadAWS usa a cadeia padrão do SDK; a config do serviço ainda não foi lida.
func loadAWS(ctx context.Context) (aws.Config, error) {
	return awsconf.Load(ctx, awsconf.Options{Region: os.Getenv("AWS_REGION")})
}

// parseAndValidate aplica YAML -> struct, injeção (env/ssm/secret) e validação.
func (ul *UniversalLoader) parseAndValidate(ctx context.Context, data []byte) (*localConfig.ServiceConfig, error) {
	var cfg localConfig.ServiceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("YAML malformado: %w", err)
	}

	if ul.injector != nil {
		if err := ul.injector.Inject(ctx, &cfg); err != nil {
			return nil, fmt.Errorf("falha na injeção de variáveis: %w", err)
		}
	}

	if ul.validator != nil {
		if err := ul.validator.Validate(&cfg); err != nil {
			return nil, fmt.Errorf("validação da configuração falhou: %w", err)
		}
	}
	return &cfg, nil
}
