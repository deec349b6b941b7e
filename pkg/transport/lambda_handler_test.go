package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/raywall/fast-counter/counter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLambdaHandler_REST(t *testing.T) {
	handler := NewLambdaHandler(newTestEngine(t), time.Second, zerolog.Nop())
	ctx := context.Background()

	resp, err := handler.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/counters/page:42/increment",
		Body:       `{"amount": 4, "start": 1}`,
		Headers:    map[string]string{HeaderCorrelationID: "corr-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "corr-1", resp.Headers[HeaderCorrelationID])

	var body CounterResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, int64(5), body.Count)

	resp, err = handler.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/counters/page%3A42/decrement",
		PathParameters:  map[string]string{"name": "page:42"},
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"amount": 2}`)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, int64(3), body.Count)
	assert.NotEmpty(t, resp.Headers[HeaderCorrelationID])

	resp, err = handler.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/counters/page:42",
	})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, int64(3), body.Count)
}

func TestLambdaHandler_Routing(t *testing.T) {
	handler := NewLambdaHandler(newTestEngine(t), 0, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		method, path string
		code         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/unknown", http.StatusNotFound},
		{http.MethodDelete, "/counters/x", http.StatusMethodNotAllowed},
		{http.MethodGet, "/counters/x/increment", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		resp, err := handler.Handle(ctx, events.APIGatewayProxyRequest{HTTPMethod: tt.method, Path: tt.path})
		require.NoError(t, err)
		assert.Equal(t, tt.code, resp.StatusCode, tt.method+" "+tt.path)
	}
}

func TestLambdaHandler_Errors(t *testing.T) {
	handler := NewLambdaHandler(failingExecutor{err: counter.ErrTableNotFound}, 0, zerolog.Nop())

	resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/counters/x",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
