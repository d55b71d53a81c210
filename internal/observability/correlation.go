package observability

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type correlationKey struct{}

// correlationField is the log field every request-scoped line carries.
const correlationField = "correlationId"

func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id, id != ""
}

// EnsureCorrelationID keeps an id already on ctx. Otherwise it attaches
// candidate, or a fresh UUID when candidate is blank.
func EnsureCorrelationID(ctx context.Context, candidate string) (context.Context, string) {
	if id, ok := CorrelationIDFromContext(ctx); ok {
		return ctx, id
	}

	id := strings.TrimSpace(candidate)
	if id == "" {
		id = uuid.NewString()
	}
	return WithCorrelationID(ctx, id), id
}

// LoggerFromContext scopes logger to the correlation id on ctx, if any.
func LoggerFromContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return nil
	}
	if id, ok := CorrelationIDFromContext(ctx); ok {
		return logger.With(zap.String(correlationField, id))
	}
	return logger
}
