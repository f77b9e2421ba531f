package transport

import (
	"context"
	"encoding/json"
	"sync"
)

// Request is one call captured by Stub.
type Request struct {
	URL     string
	Payload json.RawMessage
	Headers map[string]string
	Query   map[string]string
}

// Stub replays queued replies and records every request. It is meant for tests.
type Stub struct {
	mu       sync.Mutex
	replies  []stubReply
	requests []Request
}

type stubReply struct {
	body json.RawMessage
	err  error
}

// NewStub returns a stub that answers with bodies in order.
func NewStub(bodies ...string) *Stub {
	s := &Stub{}
	for _, b := range bodies {
		s.Reply(b)
	}
	return s
}

// Reply queues a JSON body.
func (s *Stub) Reply(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, stubReply{body: json.RawMessage(body)})
}

// Fail queues an error.
func (s *Stub) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, stubReply{err: err})
}

func (s *Stub) Send(_ context.Context, url string, payload any, headers, query map[string]string) (json.RawMessage, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{
		URL:     url,
		Payload: encoded,
		Headers: headers,
		Query:   query,
	})

	if len(s.replies) == 0 {
		return json.RawMessage(`{}`), nil
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	return next.body, next.err
}

// Requests returns the captured requests.
func (s *Stub) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Last returns the most recent request.
func (s *Stub) Last() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}
