package logger

import "context"

type contextKey string

const operationIDKey contextKey = "operation_id"

// WithOperationID returns a context carrying the caller's operation ID, the
// source identifier of the movement being processed, so SQL trace lines can
// be tied back to one engine operation.
func WithOperationID(ctx context.Context, operationID string) context.Context {
	return context.WithValue(ctx, operationIDKey, operationID)
}

// GetOperationID extracts the operation ID from the context, empty when absent
func GetOperationID(ctx context.Context) string {
	if v, ok := ctx.Value(operationIDKey).(string); ok {
		return v
	}
	return ""
}
