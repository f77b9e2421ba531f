// Package transport carries vendor payloads to model endpoints.
package transport

import (
	"context"
	"encoding/json"
)

// Transport sends a JSON payload and returns the JSON body of the reply.
// Error envelopes come back as ordinary bodies; interpreting them is up to the caller.
type Transport interface {
	Send(ctx context.Context, url string, payload any, headers, query map[string]string) (json.RawMessage, error)
}
