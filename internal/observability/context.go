package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

type contextKey string

const (
	traceIDBytes = 16 // OpenTelemetry trace ID size in bytes
)

const (
	// TraceIDKey holds the OpenTelemetry trace ID.
	TraceIDKey contextKey = "trace_id"

	// RequestIDKey holds the unique request identifier.
	RequestIDKey contextKey = "request_id"

	// CallerIDKey holds the identity of the submitting caller.
	CallerIDKey contextKey = "caller_id"

	// ConversationKey holds the outbound conversation reference.
	ConversationKey contextKey = "conversation"

	// ReportIDKey holds the identifier of the report being assembled.
	ReportIDKey contextKey = "report_id"

	// ProviderKey holds the provider name for this attempt.
	ProviderKey contextKey = "provider"

	// ModelKey holds the model name for this attempt.
	ModelKey contextKey = "model"
)

// WithTraceID injects trace ID into context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithRequestID injects request ID into context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithCallerID injects the caller identity into context.
func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, CallerIDKey, callerID)
}

// WithConversation injects the conversation reference into context.
func WithConversation(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, ConversationKey, ref)
}

// WithReportID injects the report identifier into context.
func WithReportID(ctx context.Context, reportID string) context.Context {
	return context.WithValue(ctx, ReportIDKey, reportID)
}

// WithProvider injects provider name into context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ProviderKey, provider)
}

// WithModel injects model name into context.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetTraceID extracts trace ID from context.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetCallerID extracts the caller identity from context.
func GetCallerID(ctx context.Context) string {
	return stringValue(ctx, CallerIDKey)
}

// GetConversation extracts the conversation reference from context.
func GetConversation(ctx context.Context) string {
	return stringValue(ctx, ConversationKey)
}

// GetReportID extracts the report identifier from context.
func GetReportID(ctx context.Context) string {
	return stringValue(ctx, ReportIDKey)
}

// GetProvider extracts provider name from context.
func GetProvider(ctx context.Context) string {
	return stringValue(ctx, ProviderKey)
}

// GetModel extracts model name from context.
func GetModel(ctx context.Context) string {
	return stringValue(ctx, ModelKey)
}

// GenerateTraceID generates an OpenTelemetry-compatible trace ID (32 hex chars).
func GenerateTraceID() string {
	bytes := make([]byte, traceIDBytes)
	if _, err := rand.Read(bytes); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(bytes)
}

// GenerateRequestID generates a unique request identifier (UUID).
func GenerateRequestID() string {
	return uuid.New().String()
}
