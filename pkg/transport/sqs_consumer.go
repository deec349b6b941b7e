package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/raywall/fast-counter/pkg/engine"
	"github.com/raywall/fast-counter/pkg/metrics"
	"github.com/rs/zerolog"
)

// SQSClient define a interface necessária para o consumidor (permite Mocking)
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// IncrementEvent é o corpo das mensagens da fila de eventos.
type IncrementEvent struct {
	Counter string `json:"counter"`
	Amount  *int64 `json:"amount"`
	Start   int64  `json:"start"`
}

// EventConsumer aplica eventos de incremento lidos do SQS. A mensagem só é
// removida após o Apply; falhas voltam para a fila (entrega at-least-once).
type EventConsumer struct {
	client     SQSClient
	queueURL   string
	exec       engine.Executor
	metrics    metrics.Provider
	logger     zerolog.Logger
	retryDelay time.Duration
	waitTime   int32
}

// NewEventConsumer cria uma nova instância do consumidor
func NewEventConsumer(client SQSClient, queueURL string, exec engine.Executor, m metrics.Provider, logger zerolog.Logger) *EventConsumer {
	return &EventConsumer{
		client:     client,
		queueURL:   queueURL,
		exec:       exec,
		metrics:    m,
		logger:     logger.With().Str("component", "sqs_consumer").Logger(),
		retryDelay: 5 * time.Second,
		waitTime:   20, // Long polling
	}
}

// Start inicia o consumo (bloqueante) até o cancelamento de ctx.
func (c *EventConsumer) Start(ctx context.Context) {
	if c.queueURL == "" {
		c.logger.Warn().Msg("URL da fila SQS não configurada. Consumo de eventos desativado.")
		return
	}

	c.logger.Info().Str("queue", c.queueURL).Msg("consumindo eventos de incremento")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("parando consumo SQS")
			return
		default:
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     c.waitTime,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error().Err(err).Dur("retry_in", c.retryDelay).Msg("erro no SQS")
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
			continue
		}

		for _, msg := range out.Messages {
			c.handle(ctx, msg)
		}
	}
}

func (c *EventConsumer) handle(ctx context.Context, msg types.Message) {
	logger := c.logger.With().Str("message_id", aws.ToString(msg.MessageId)).Logger()

	ev, err := decodeEvent(aws.ToString(msg.Body))
	if err != nil {
		// Mensagem inválida nunca será aplicada; remove para não reciclar.
		logger.Error().Err(err).Msg("evento inválido descartado")
		c.count(metrics.EventFailed, "reason:invalid")
		c.delete(ctx, msg, logger)
		return
	}

	amount := int64(1)
	if ev.Amount != nil {
		amount = *ev.Amount
	}

	rec, err := c.exec.Apply(logger.WithContext(ctx), ev.Counter, amount, ev.Start)
	if err != nil {
		logger.Error().Err(err).Str("counter", ev.Counter).Msg("falha ao aplicar evento; mensagem volta para a fila")
		c.count(metrics.EventFailed, "reason:apply")
		return
	}

	logger.Debug().Str("counter", rec.Name).Int64("count", rec.Count).Msg("evento aplicado")
	c.count(metrics.EventApplied)
	c.delete(ctx, msg, logger)
}

func (c *EventConsumer) delete(ctx context.Context, msg types.Message, logger zerolog.Logger) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("falha ao remover mensagem")
	}
}

func (c *EventConsumer) count(name string, tags ...string) {
	if c.metrics == nil {
		return
	}
	if err := c.metrics.Count(name, 1, tags); err != nil {
		c.logger.Warn().Err(err).Str("metric", name).Msg("failed to emit metric")
	}
}

func decodeEvent(body string) (IncrementEvent, error) {
	var ev IncrementEvent
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		return ev, fmt.Errorf("json inválido: %w", err)
	}
	if ev.Counter == "" {
		return ev, fmt.Errorf("campo 'counter' obrigatório")
	}
	return ev, nil
}
