package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/harunnryd/apprentice/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_SendPostsJSONWithHeadersAndQuery(t *testing.T) {
	var gotBody []byte
	var gotHeader, gotContentType, gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotBody, _ = io.ReadAll(r.Body)
		gotHeader = r.Header.Get("x-api-key")
		gotContentType = r.Header.Get("Content-Type")
		gotKey = r.URL.Query().Get("key")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	h := NewHTTPWithClient(srv.Client())
	body, err := h.Send(context.Background(), srv.URL+"/v1/x", map[string]string{"model": "m"},
		map[string]string{"x-api-key": "secret"}, map[string]string{"key": "k1"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.JSONEq(t, `{"model":"m"}`, string(gotBody))
	assert.Equal(t, "secret", gotHeader)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "k1", gotKey)
}

func TestHTTP_SendReturnsErrorBodiesVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	body, err := NewHTTPWithClient(srv.Client()).Send(context.Background(), srv.URL, struct{}{}, nil, nil)
	require.NoError(t, err)

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "rate limited", envelope.Error.Message)
}

func TestHTTP_SendRejectsNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := NewHTTPWithClient(srv.Client()).Send(context.Background(), srv.URL, struct{}{}, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrTransport))
	assert.Contains(t, err.Error(), "502")
}

func TestHTTP_SendNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTP().Send(context.Background(), url, struct{}{}, nil, nil)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrTransport))
}

func TestStub_RecordsAndReplays(t *testing.T) {
	s := NewStub(`{"a":1}`)
	s.Fail(apperrors.Transport("boom"))

	body, err := s.Send(context.Background(), "u1", map[string]int{"x": 1}, map[string]string{"h": "v"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(body))

	_, err = s.Send(context.Background(), "u2", nil, nil, nil)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrTransport))

	reqs := s.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "u1", reqs[0].URL)
	assert.JSONEq(t, `{"x":1}`, string(reqs[0].Payload))
	assert.Equal(t, "u2", s.Last().URL)
}
