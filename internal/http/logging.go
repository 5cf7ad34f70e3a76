package http

import (
	"context"
	"log/slog"
)

func orDefaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// requestLogger prefers the logger RequestLogger stored in ctx over base. The
// result carries the handler name, the operation and, behind RequireSession,
// the caller's user ID and role.
func requestLogger(ctx context.Context, base *slog.Logger, handler, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = orDefaultLogger(base)
	}

	fields := make([]any, 0, 8+len(attrs))
	fields = append(fields, "handler", handler)
	if operation != "" {
		fields = append(fields, "operation", operation)
	}
	if principal, ok := PrincipalFromContext(ctx); ok && principal.UserID != "" {
		fields = append(fields, "principal_id", principal.UserID, "principal_role", string(principal.Role))
	}
	return logger.With(append(fields, attrs...)...)
}
