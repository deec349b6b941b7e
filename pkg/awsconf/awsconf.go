// Package awsconf centraliza o carregamento da configuração AWS usada pelos
// backends e pela injeção de segredos (SSM, Secrets Manager, S3).
package awsconf

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Options descreve como montar o aws.Config. Campos vazios deixam a cadeia
// padrão do SDK decidir (env vars, profile, IAM role).
type Options struct {
	Region    string
	Endpoint  string // DynamoDB Local, LocalStack...
	AccessKey string
	SecretKey string
}

// Load monta um aws.Config a partir das opções.
func Load(ctx context.Context, opts Options) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("awsconf: load default config: %w", err)
	}
	if opts.Endpoint != "" {
		cfg.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return cfg, nil
}
