package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger writes the application's recurring events with a fixed
// set of fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart logs the start of a request at debug level.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		With(FieldClientIP, clientIP)
	sl.logger.WithComponent(ComponentHTTP).DebugContext(ctx, "HTTP request started", fields.Args()...)
}

// LogHTTPEnd logs a finished request: info below 400, warn for 4xx, error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, status int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		With(FieldStatusCode, status).
		With(FieldDuration, durationMs).
		With(FieldClientIP, clientIP)
	sl.logger.WithComponent(ComponentHTTP).Log(ctx, level, "HTTP request completed", fields.Args()...)
}

func (sl *StructuredLogger) LogExpenseAppended(ctx context.Context, sessionID, date, category, desc string, amountCents int64) {
	fields := NewFields().
		WithSessionID(sessionID).
		WithExpense(date, category, desc, amountCents).
		WithOperation(OpAppend)
	sl.logger.WithComponent(ComponentLedger).InfoContext(ctx, "Expense appended", fields.Args()...)
}

func (sl *StructuredLogger) LogBudgetUpdated(ctx context.Context, sessionID string, incomeCents, savingsCents int64, overBudget bool) {
	fields := NewFields().
		WithSessionID(sessionID).
		WithBudget(incomeCents, savingsCents).
		With(FieldOverBudget, overBudget).
		WithOperation(OpUpdate)
	sl.logger.WithComponent(ComponentLedger).InfoContext(ctx, "Budget updated", fields.Args()...)
}

// LogError logs err under component with any extra fields.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	fields = append(fields.WithError(err), slog.String(FieldOperation, operation))
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, fields.Args()...)
}
