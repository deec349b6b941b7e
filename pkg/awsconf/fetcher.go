package awsconf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher busca valores remotos (parâmetros, segredos, objetos).
type Fetcher struct {
	SSM     SSMClient
	Secrets SecretsClient
	S3      S3Client
}

// NewFetcher cria um Fetcher com os clientes reais do SDK.
func NewFetcher(cfg aws.Config) *Fetcher {
	return &Fetcher{
		SSM:     ssm.NewFromConfig(cfg),
		Secrets: secretsmanager.NewFromConfig(cfg),
		S3:      s3.NewFromConfig(cfg),
	}
}

// FetchParameter lê um parâmetro do SSM Parameter Store.
func (f *Fetcher) FetchParameter(ctx context.Context, path string, decrypt bool) (string, error) {
	if f.SSM == nil {
		return "", fmt.Errorf("awsconf: ssm client not configured")
	}
	out, err := f.SSM.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		return "", fmt.Errorf("awsconf: ssm get parameter %s: %w", path, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("awsconf: ssm parameter %s has no value", path)
	}
	return *out.Parameter.Value, nil
}

// FetchSecret lê um segredo do Secrets Manager. O id aceita o sufixo
// "#campo" para extrair uma chave de um segredo JSON.
func (f *Fetcher) FetchSecret(ctx context.Context, secretID, field string) (string, error) {
	if f.Secrets == nil {
		return "", fmt.Errorf("awsconf: secrets manager client not configured")
	}
	out, err := f.Secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("awsconf: get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("awsconf: secret %s is not a string", secretID)
	}

	val := *out.SecretString
	if field == "" {
		return val, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return "", fmt.Errorf("awsconf: secret %s is not a json object: %w", secretID, err)
	}
	v, ok := data[field]
	if !ok {
		return "", fmt.Errorf("awsconf: secret %s has no field %q", secretID, field)
	}
	return fmt.Sprintf("%v", v), nil
}

// FetchObject baixa o conteúdo completo de um objeto S3.
func (f *Fetcher) FetchObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if f.S3 == nil {
		return nil, fmt.Errorf("awsconf: s3 client not configured")
	}
	out, err := f.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("awsconf: s3 get object s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
