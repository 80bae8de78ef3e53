package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID identifies one review session of one category.
	FieldSessionID = "session_id"
	// FieldCategory is the species category under review.
	FieldCategory = "category"
	// FieldClip is the clip file name.
	FieldClip = "clip"
	// FieldState is the session state machine state.
	FieldState = "state"
	// FieldDecision is the reviewer decision applied to a clip.
	FieldDecision = "decision"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldReason carries a short machine-friendly failure label.
	FieldReason = "reason"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	categoryKey
)

// WithSessionID stores the session identifier on ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithCategory stores the category under review on ctx.
func WithCategory(ctx context.Context, category string) context.Context {
	return context.WithValue(ctx, categoryKey, category)
}

// SessionIDFromContext returns the session identifier stored on ctx.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// CategoryFromContext returns the category stored on ctx.
func CategoryFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	category, ok := ctx.Value(categoryKey).(string)
	return category, ok && category != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if category, ok := CategoryFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCategory, category))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
