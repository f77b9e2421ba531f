package rag

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/harunnryd/apprentice/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// letterEmbedder counts letters, which is enough for similar texts to land
// close together.
type letterEmbedder struct {
	model string
}

func (e *letterEmbedder) Model() string { return e.model }

func (e *letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 27)
	vec[26] = 1
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec, nil
}

func TestIndex_AddQueryAndReopen(t *testing.T) {
	dir := t.TempDir()
	emb := &letterEmbedder{model: "letters"}

	idx, err := Open(context.Background(), dir, emb)
	require.NoError(t, err)

	docs, err := idx.Add(context.Background(), "gcloud.txt", "gcloud compute instances list")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].ID, 26)
	assert.Equal(t, "gcloud.txt", docs[0].Source)

	_, err = idx.Add(context.Background(), "aws.txt", "zzz yyy xxx")
	require.NoError(t, err)

	results, err := idx.Query(context.Background(), "compute instances", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "gcloud.txt", results[0].Source)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)

	manifest := idx.Manifest()
	assert.Equal(t, "letters", manifest.Model)
	assert.Equal(t, 27, manifest.Dimensions)
	assert.Len(t, manifest.Documents, 2)
	require.NoError(t, idx.Close())

	raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.GetBytes(raw, "documents.#").Int())

	reopened, err := Open(context.Background(), dir, emb)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 2, reopened.Count())
}

func TestIndex_EmptyQuery(t *testing.T) {
	idx, err := Open(context.Background(), t.TempDir(), &letterEmbedder{model: "letters"})
	require.NoError(t, err)
	defer idx.Close()

	results, err := idx.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_SecondOpenIsLocked(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(context.Background(), dir, &letterEmbedder{model: "letters"})
	require.NoError(t, err)
	defer first.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err = Open(ctx, dir, &letterEmbedder{model: "letters"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is locked by another instance")
}

func TestIndex_ModelMismatch(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(context.Background(), dir, &letterEmbedder{model: "letters"})
	require.NoError(t, err)
	_, err = idx.Add(context.Background(), "a", "hello")
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, err = Open(context.Background(), dir, &letterEmbedder{model: "other"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrInvalidConfig))
}

// failingEmbedder rejects texts that contain fail.
type failingEmbedder struct {
	letterEmbedder
	fail string
}

func (e *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, e.fail) {
		return nil, apperrors.Transport("embedding service unavailable")
	}
	return e.letterEmbedder.Embed(ctx, text)
}

func TestIndex_PartialAddKeepsManifest(t *testing.T) {
	dir := t.TempDir()
	emb := &failingEmbedder{letterEmbedder: letterEmbedder{model: "letters"}, fail: "broken"}

	idx, err := Open(context.Background(), dir, emb)
	require.NoError(t, err)

	content := strings.Repeat("a", maxChunkRunes) + "\n\nbroken tail"
	docs, err := idx.Add(context.Background(), "big.txt", content)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrTransport))
	require.Len(t, docs, 1)
	assert.Equal(t, 1, idx.Count())
	require.NoError(t, idx.Close())

	raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.GetBytes(raw, "documents.#").Int())
	assert.Equal(t, docs[0].ID, gjson.GetBytes(raw, "documents.0.id").String())
}

func TestChunk(t *testing.T) {
	assert.Empty(t, Chunk("  \n\n  ", 10))
	assert.Equal(t, []string{"one\n\ntwo"}, Chunk("one\n\ntwo", 10))
	assert.Equal(t, []string{"alpha", "bravo"}, Chunk("alpha\r\n\r\nbravo", 8))
	assert.Equal(t, []string{"abcdefgh", "ij\n\nxy"}, Chunk("abcdefghij\n\nxy", 8))
}

func TestOpenAIEmbedder(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ = readAll(r)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": []float32{0.25, 0.5}}},
		})
	}))
	defer srv.Close()

	emb, err := NewEmbedder(context.Background(), EmbedderOptions{Provider: "openai", APIKey: "sk-test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, emb.Model())

	vec, err := emb.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5}, vec)
	assert.Equal(t, "hello", gjson.GetBytes(body, "input.0").String())
	assert.Equal(t, DefaultOpenAIModel, gjson.GetBytes(body, "model").String())
}

func TestOpenAIEmbedder_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	emb := NewOpenAIEmbedder(EmbedderOptions{APIKey: "sk", BaseURL: srv.URL, Model: "m"})
	_, err := emb.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrProvider))
	assert.Equal(t, "invalid api key", err.Error())
}

func TestNewEmbedder_Rejects(t *testing.T) {
	_, err := NewEmbedder(context.Background(), EmbedderOptions{Provider: "openai"})
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrMissingArgument))

	_, err = NewEmbedder(context.Background(), EmbedderOptions{Provider: "anthropic", APIKey: "k"})
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "has no embedding API")
}

func TestNewEmbedder_Gemini(t *testing.T) {
	emb, err := NewEmbedder(context.Background(), EmbedderOptions{Provider: "GCP", APIKey: "k", Model: "gemini-embedding-001"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-embedding-001", emb.Model())
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
