package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/raywall/fast-counter/pkg/awsconf"
	"github.com/raywall/fast-counter/pkg/engine"
	"github.com/raywall/fast-counter/pkg/transport"
)

var (
	configPath string
	// Variáveis injetáveis para mocking
	serverStarter   = transport.StartHTTPServer
	lambdaStarter   = lambda.Start
	consumerStarter = startConsumer
)

func init() {
	configPath = os.Getenv("CONFIG_FILE_PATH")
}

func main() {
	if configPath == "" {
		log.Fatalln("FATAL: CONFIG_FILE_PATH não informado")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configPath); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// run contém a lógica principal testável
func run(ctx context.Context, cfgPath string) error {
	cfg, err := engine.NewUniversalLoader().Load(ctx, cfgPath)
	if err != nil {
		return err
	}

	svcEngine, err := engine.NewServiceEngine(ctx, cfg, cfgPath)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svcEngine.Shutdown(shutdownCtx); err != nil {
			svcEngine.Logger.Warn().Err(err).Msg("falha no shutdown do engine")
		}
	}()

	switch cfg.Service.Runtime {
	case "local":
		if cfg.Events.QueueURL != "" {
			consumerCtx, stopConsumer := context.WithCancel(ctx)
			done, err := consumerStarter(consumerCtx, svcEngine)
			if err != nil {
				stopConsumer()
				return fmt.Errorf("falha ao iniciar consumidor SQS: %w", err)
			}
			// Roda antes do Shutdown do engine: nenhum Apply em andamento
			// encontra o backend fechado.
			defer func() {
				stopConsumer()
				<-done
			}()
		}
		return serverStarter(ctx, svcEngine)
	case "lambda":
		handler := transport.NewLambdaHandler(svcEngine, cfg.Service.GetTimeout(), svcEngine.Logger)
		lambdaStarter(handler.Handle)
		return nil
	default:
		return fmt.Errorf("runtime desconhecido: %s", cfg.Service.Runtime)
	}
}

// startConsumer inicia o consumidor de eventos em background; ele para
// junto com ctx e fecha o canal devolvido ao terminar.
func startConsumer(ctx context.Context, svc *engine.ServiceEngine) (<-chan struct{}, error) {
	aws := svc.Config.Backend.AWS
	awsCfg, err := awsconf.Load(ctx, awsconf.Options{
		Region:    aws.Region,
		Endpoint:  aws.Endpoint,
		AccessKey: aws.AccessKey,
		SecretKey: aws.SecretKey,
	})
	if err != nil {
		return nil, err
	}

	consumer := transport.NewEventConsumer(sqs.NewFromConfig(awsCfg), svc.Config.Events.QueueURL, svc, svc.Metrics, svc.Logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.Start(ctx)
	}()
	return done, nil
}
