package transport

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/raywall/fast-counter/pkg/engine"
	"github.com/rs/zerolog"
)

// Mesmas rotas do NewRouter, quando o API Gateway não envia PathParameters.
var lambdaRoute = regexp.MustCompile(`^/counters/([^/]+)(?:/(increment|decrement))?/?$`)

// LambdaHandler adapta eventos do API Gateway para o Executor
type LambdaHandler struct {
	api     counterAPI
	timeout time.Duration
	logger  zerolog.Logger
}

// NewLambdaHandler cria uma nova instância do adaptador
func NewLambdaHandler(exec engine.Executor, timeout time.Duration, logger zerolog.Logger) *LambdaHandler {
	return &LambdaHandler{api: counterAPI{exec: exec}, timeout: timeout, logger: logger}
}

// Handle processa a requisição Lambda
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()

	// O API Gateway pode normalizar o nome do header
	corrID := req.Headers[HeaderCorrelationID]
	if corrID == "" {
		corrID = req.Headers["X-Correlation-Id"]
	}
	if corrID == "" {
		corrID = uuid.NewString()
	}

	logger := h.logger.With().Str("correlation_id", corrID).Logger()
	ctx = logger.WithContext(ctx)
	ctx = context.WithValue(ctx, ContextKeyCorrID, corrID)

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	code, body := h.route(ctx, req)

	duration := time.Since(start).Milliseconds()
	logger.Info().
		Str("method", req.HTTPMethod).
		Str("path", req.Path).
		Int("status", code).
		Int64("latency_ms", duration).
		Msg("lambda request completed")

	return events.APIGatewayProxyResponse{
		StatusCode: code,
		Headers: map[string]string{
			"Content-Type":      "application/json",
			HeaderCorrelationID: corrID,
		},
		Body: string(body),
	}, nil
}

func (h *LambdaHandler) route(ctx context.Context, req events.APIGatewayProxyRequest) (int, []byte) {
	if req.HTTPMethod == http.MethodGet && req.Path == "/health" {
		return http.StatusOK, []byte(`{"status":"ok"}`)
	}

	m := lambdaRoute.FindStringSubmatch(req.Path)
	if m == nil {
		return jsonError(http.StatusNotFound, "route not found")
	}
	name := req.PathParameters["name"]
	if name == "" {
		var err error
		if name, err = url.PathUnescape(m[1]); err != nil {
			return jsonError(http.StatusBadRequest, "invalid counter name")
		}
	}

	switch op := m[2]; {
	case op == "" && req.HTTPMethod == http.MethodGet:
		return h.api.get(ctx, name, req.QueryStringParameters["start"])
	case op != "" && req.HTTPMethod == http.MethodPost:
		sign := int64(1)
		if op == "decrement" {
			sign = -1
		}
		body := []byte(strings.TrimSpace(req.Body))
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return jsonError(http.StatusBadRequest, "invalid base64 body")
			}
			body = decoded
		}
		return h.api.apply(ctx, name, body, sign)
	}
	return jsonError(http.StatusMethodNotAllowed, "method not allowed")
}
