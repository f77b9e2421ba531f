package logger

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type contextKey string

const SessionIDKey contextKey = "session_id"

// NewSessionID returns a fresh, time-ordered session identifier.
func NewSessionID() string {
	return ulid.Make().String()
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}
