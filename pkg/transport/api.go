package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/raywall/fast-counter/counter"
	"github.com/raywall/fast-counter/pkg/engine"
	"github.com/rs/zerolog/log"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
)

type ctxKey string

const ContextKeyCorrID ctxKey = "correlation_id"

// ApplyRequest é o corpo de POST /counters/{name}/increment|decrement.
type ApplyRequest struct {
	Amount *int64 `json:"amount"`
	Start  int64  `json:"start"`
}

// CounterResponse é a representação JSON de um registro de contador.
type CounterResponse struct {
	Name       string         `json:"name"`
	Count      int64          `json:"count"`
	CreatedOn  string         `json:"created_on"`
	ModifiedOn string         `json:"modified_on"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewCounterResponse converte um registro para a representação JSON.
func NewCounterResponse(rec counter.Record) CounterResponse {
	return CounterResponse{
		Name:       rec.Name,
		Count:      rec.Count,
		CreatedOn:  counter.FormatTime(rec.CreatedOn),
		ModifiedOn: counter.FormatTime(rec.ModifiedOn),
		Attributes: rec.Extra,
	}
}

// counterAPI concentra a lógica comum ao HTTP e ao Lambda; cada operação
// devolve status e corpo JSON.
type counterAPI struct {
	exec engine.Executor
}

func (a counterAPI) get(ctx context.Context, name, start string) (int, []byte) {
	var s int64
	if start != "" {
		var err error
		if s, err = strconv.ParseInt(start, 10, 64); err != nil {
			return jsonError(http.StatusBadRequest, "start must be an integer")
		}
	}
	rec, err := a.exec.Get(ctx, name, s)
	if err != nil {
		return errorStatus(ctx, err)
	}
	return jsonBody(http.StatusOK, NewCounterResponse(rec))
}

// apply aplica +amount (sign=1) ou -amount (sign=-1); amount ausente vale 1.
func (a counterAPI) apply(ctx context.Context, name string, body []byte, sign int64) (int, []byte) {
	var req ApplyRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return jsonError(http.StatusBadRequest, "invalid JSON body")
		}
	}
	amount := int64(1)
	if req.Amount != nil {
		amount = *req.Amount
	}

	if sign < 0 {
		negated, err := counter.Negate(amount)
		if err != nil {
			return errorStatus(ctx, err)
		}
		amount = negated
	}

	rec, err := a.exec.Apply(ctx, name, amount, req.Start)
	if err != nil {
		return errorStatus(ctx, err)
	}
	return jsonBody(http.StatusOK, NewCounterResponse(rec))
}

// errorStatus traduz a taxonomia de erros do counter para HTTP.
func errorStatus(ctx context.Context, err error) (int, []byte) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, counter.ErrInvalidName), errors.Is(err, counter.ErrReservedAttribute),
		errors.Is(err, counter.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, counter.ErrTableNotFound), errors.Is(err, counter.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, counter.ErrTableNotActive):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		log.Ctx(ctx).Error().Err(err).Int("status", status).Msg("counter operation failed")
	}
	return jsonError(status, err.Error())
}

func jsonError(status int, msg string) (int, []byte) {
	return jsonBody(status, errorResponse{Error: msg})
}

func jsonBody(status int, v any) (int, []byte) {
	b, err := json.Marshal(v)
	if err != nil {
		return http.StatusInternalServerError, []byte(`{"error": "internal server error"}`)
	}
	return status, b
}
