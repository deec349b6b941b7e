package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/raywall/fast-counter/pkg/engine"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 16

// NewRouter registra as rotas REST dos contadores:
//
//	GET  /counters/{name}?start=n
//	POST /counters/{name}/increment  {"amount": n, "start": s}
//	POST /counters/{name}/decrement  {"amount": n, "start": s}
//	GET  /health
func NewRouter(exec engine.Executor, timeout time.Duration, logger zerolog.Logger) http.Handler {
	api := counterAPI{exec: exec}
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/counters/{name}", withTimeout(timeout, func(w http.ResponseWriter, r *http.Request) {
		code, body := api.get(r.Context(), mux.Vars(r)["name"], r.URL.Query().Get("start"))
		writeJSON(w, code, body)
	})).Methods(http.MethodGet)

	r.HandleFunc("/counters/{name}/{op:increment|decrement}", withTimeout(timeout, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			code, msg := jsonError(http.StatusBadRequest, "unreadable body")
			writeJSON(w, code, msg)
			return
		}
		sign := int64(1)
		if mux.Vars(r)["op"] == "decrement" {
			sign = -1
		}
		code, resp := api.apply(r.Context(), mux.Vars(r)["name"], body, sign)
		writeJSON(w, code, resp)
	})).Methods(http.MethodPost)

	r.Use(ObservabilityMiddleware(logger))
	return r
}

// StartHTTPServer sobe o servidor e o encerra graciosamente quando ctx termina.
func StartHTTPServer(ctx context.Context, svc *engine.ServiceEngine) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", svc.Config.Service.Port),
		Handler:           NewRouter(svc, svc.Config.Service.GetTimeout(), svc.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		svc.Logger.Info().Msgf("Servidor HTTP ouvindo em %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc.Logger.Info().Msg("encerrando servidor HTTP")
		return srv.Shutdown(shutdownCtx)
	}
}

func withTimeout(timeout time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if timeout <= 0 {
			next(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

func writeJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// --- MIDDLEWARE DE OBSERVABILIDADE ---

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	startTime   time.Time
	wroteHeader bool
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	duration := time.Since(rw.startTime)
	rw.Header().Set(HeaderLatency, fmt.Sprintf("%d", duration.Milliseconds()))
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriterWrapper) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// ObservabilityMiddleware propaga/gera o correlation id, injeta o logger no
// contexto e registra uma linha por requisição.
func ObservabilityMiddleware(base zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			corrID := r.Header.Get(HeaderCorrelationID)
			if corrID == "" {
				corrID = uuid.NewString()
			}
			w.Header().Set(HeaderCorrelationID, corrID)

			logger := base.With().Str("correlation_id", corrID).Logger()
			ctx := logger.WithContext(r.Context())
			ctx = context.WithValue(ctx, ContextKeyCorrID, corrID)

			wrapper := &responseWriterWrapper{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				startTime:      start,
			}

			next.ServeHTTP(wrapper, r.WithContext(ctx))

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapper.statusCode).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Msg("request completed")
		})
	}
}
