package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/raywall/fast-counter/counter"
	"github.com/raywall/fast-counter/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSQS struct {
	mock.Mock
}

func (m *MockSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sqs.ReceiveMessageOutput)
	return out, args.Error(1)
}

func (m *MockSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sqs.DeleteMessageOutput)
	return out, args.Error(1)
}

type recordingMetrics struct {
	calls  map[string]int
	counts map[string][]string
}

func (r *recordingMetrics) Count(name string, value float64, tags []string) error {
	if r.counts == nil {
		r.calls = map[string]int{}
		r.counts = map[string][]string{}
	}
	r.calls[name]++
	r.counts[name] = append(r.counts[name], tags...)
	return nil
}

func (r *recordingMetrics) Gauge(string, float64, []string) error     { return nil }
func (r *recordingMetrics) Histogram(string, float64, []string) error { return nil }

func message(id, body string) types.Message {
	return types.Message{MessageId: aws.String(id), ReceiptHandle: aws.String("rh-" + id), Body: aws.String(body)}
}

func deleteOf(id string) any {
	return mock.MatchedBy(func(in *sqs.DeleteMessageInput) bool {
		return aws.ToString(in.ReceiptHandle) == "rh-"+id
	})
}

func TestEventConsumer_Start(t *testing.T) {
	se := newTestEngine(t)
	client := new(MockSQS)
	m := &recordingMetrics{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batch := &sqs.ReceiveMessageOutput{Messages: []types.Message{
		message("1", `{"counter": "page:42", "amount": 5, "start": 10}`),
		message("2", `{"counter": "page:42"}`),
		message("3", `não é json`),
		message("4", `{"amount": 1}`),
	}}

	client.On("ReceiveMessage", mock.Anything, mock.MatchedBy(func(in *sqs.ReceiveMessageInput) bool {
		return aws.ToString(in.QueueUrl) == "queue" && in.MaxNumberOfMessages == 10
	})).Return(batch, nil).Once()
	client.On("ReceiveMessage", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)
	for _, id := range []string{"1", "2", "3", "4"} {
		client.On("DeleteMessage", mock.Anything, deleteOf(id)).Return(&sqs.DeleteMessageOutput{}, nil).Once()
	}

	consumer := NewEventConsumer(client, "queue", se, m, zerolog.Nop())
	consumer.Start(ctx)

	client.AssertExpectations(t)
	rec, err := se.Get(context.Background(), "page:42", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(16), rec.Count)
	assert.Equal(t, 2, m.calls[metrics.EventApplied])
	assert.Equal(t, []string{"reason:invalid", "reason:invalid"}, m.counts[metrics.EventFailed])
}

func TestEventConsumer_ApplyFailureKeepsMessage(t *testing.T) {
	client := new(MockSQS)
	m := &recordingMetrics{}
	consumer := NewEventConsumer(client, "queue", failingExecutor{err: counter.ErrTableNotActive}, m, zerolog.Nop())

	consumer.handle(context.Background(), message("1", `{"counter": "x"}`))

	client.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"reason:apply"}, m.counts[metrics.EventFailed])
}

func TestEventConsumer_ReceiveErrorRetries(t *testing.T) {
	se := newTestEngine(t)
	client := new(MockSQS)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client.On("ReceiveMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()
	client.On("ReceiveMessage", mock.Anything, mock.Anything).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{message("1", `{"counter": "c", "amount": -2}`)}}, nil).Once()
	client.On("ReceiveMessage", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(&sqs.ReceiveMessageOutput{}, nil)
	client.On("DeleteMessage", mock.Anything, deleteOf("1")).Return(&sqs.DeleteMessageOutput{}, nil).Once()

	consumer := NewEventConsumer(client, "queue", se, nil, zerolog.Nop())
	consumer.retryDelay = time.Millisecond
	consumer.Start(ctx)

	client.AssertExpectations(t)
	rec, err := se.Get(context.Background(), "c", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), rec.Count)
}

func TestEventConsumer_NoQueue(t *testing.T) {
	client := new(MockSQS)
	NewEventConsumer(client, "", failingExecutor{}, nil, zerolog.Nop()).Start(context.Background())
	client.AssertNotCalled(t, "ReceiveMessage", mock.Anything, mock.Anything)
}
