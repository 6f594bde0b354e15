package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-Id"

// maxRequestIDLen bounds ids accepted from clients.
const maxRequestIDLen = 128

type ctxKeyRequestID struct{}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return v
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

// RequestIDField is the zap field for the request id in ctx.
func RequestIDField(ctx context.Context) zap.Field {
	return zap.String("request_id", RequestIDFromContext(ctx))
}

// Logger returns log tagged with the request id in ctx, if any.
func Logger(ctx context.Context, log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	if RequestIDFromContext(ctx) == "" {
		return log
	}
	return log.With(RequestIDField(ctx))
}

// RequestIDMiddleware reuses a well-formed incoming id and mints a UUID
// otherwise. The id is echoed on the response.
func RequestIDMiddleware(headerName string) func(next http.Handler) http.Handler {
	if strings.TrimSpace(headerName) == "" {
		headerName = RequestIDHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(headerName))
			if !validRequestID(rid) {
				rid = uuid.NewString()
			}
			w.Header().Set(headerName, rid)
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), rid)))
		})
	}
}

// validRequestID accepts short ids of visible ASCII so client input cannot
// forge log lines or bloat them.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
