package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/harunnryd/apprentice/internal/errors"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"github.com/oklog/ulid/v2"
	"github.com/philippgille/chromem-go"
)

const (
	collectionName = "documents"
	manifestFile   = "manifest.json"
	lockFile       = "index.lock"
	vectorsDir     = "vectors"

	lockRetryDelay = 100 * time.Millisecond
	maxChunkRunes  = 2000
)

// Manifest records what was indexed and with which embedding model.
type Manifest struct {
	Model      string         `json:"model"`
	Dimensions int            `json:"dimensions"`
	Documents  []DocumentInfo `json:"documents"`
}

type DocumentInfo struct {
	ID      string    `json:"id"`
	Source  string    `json:"source"`
	Chunk   int       `json:"chunk"`
	Runes   int       `json:"runes"`
	AddedAt time.Time `json:"added_at"`
}

// Result is one query match.
type Result struct {
	ID         string
	Source     string
	Content    string
	Similarity float32
}

// Index is a persistent vector index guarded by a file lock. Only one
// process may hold it open.
type Index struct {
	dir      string
	embedder Embedder
	lock     *flock.Flock
	col      *chromem.Collection
	manifest Manifest
}

// Open locks dir and loads the index in it, creating both when missing.
func Open(ctx context.Context, dir string, embedder Embedder) (*Index, error) {
	if err := os.MkdirAll(filepath.Join(dir, vectorsDir), 0o755); err != nil {
		return nil, apperrors.WrapWithCategory(err, "failed to create index dir", apperrors.ErrInternal)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil && ctx.Err() == nil {
		return nil, apperrors.WrapWithCategory(err, fmt.Sprintf("failed to lock index %s", dir), apperrors.ErrInternal)
	}
	if !locked {
		return nil, apperrors.Internal(fmt.Sprintf("index %s is locked by another instance", dir))
	}

	idx, err := open(dir, embedder, lock)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	slog.Debug("Index opened", "path", dir, "documents", idx.col.Count(), "model", embedder.Model())
	return idx, nil
}

func open(dir string, embedder Embedder, lock *flock.Flock) (*Index, error) {
	manifest, err := readManifest(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	if manifest.Model != "" && manifest.Model != embedder.Model() {
		return nil, apperrors.InvalidConfig(fmt.Sprintf("index was built with embedding model %q, not %q", manifest.Model, embedder.Model()))
	}

	db, err := chromem.NewPersistentDB(filepath.Join(dir, vectorsDir), false)
	if err != nil {
		return nil, apperrors.WrapWithCategory(err, "failed to open vector db", apperrors.ErrInternal)
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, embedder.Embed)
	if err != nil {
		return nil, apperrors.WrapWithCategory(err, "failed to open collection", apperrors.ErrInternal)
	}

	return &Index{dir: dir, embedder: embedder, lock: lock, col: col, manifest: manifest}, nil
}

func readManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return m, apperrors.WrapWithCategory(err, "failed to read index manifest", apperrors.ErrInternal)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, apperrors.WrapWithCategory(err, "index manifest is corrupt", apperrors.ErrInternal)
	}
	return m, nil
}

func (i *Index) saveManifest() error {
	data, err := json.MarshalIndent(i.manifest, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(filepath.Join(i.dir, manifestFile), bytes.NewReader(data))
}

// Add splits content into chunks, embeds and stores them. Chunks stored
// before a failure stay recorded in the manifest.
func (i *Index) Add(ctx context.Context, source, content string) ([]DocumentInfo, error) {
	added, err := i.addChunks(ctx, source, Chunk(content, maxChunkRunes))
	if len(added) > 0 {
		if serr := i.saveManifest(); serr != nil {
			return added, apperrors.WrapWithCategory(errors.Join(err, serr), "failed to write index manifest", apperrors.ErrInternal)
		}
	}
	if err != nil {
		return added, err
	}

	slog.Info("Indexed document", "source", source, "chunks", len(added))
	return added, nil
}

func (i *Index) addChunks(ctx context.Context, source string, chunks []string) ([]DocumentInfo, error) {
	added := make([]DocumentInfo, 0, len(chunks))

	for n, chunk := range chunks {
		vec, err := i.embedder.Embed(ctx, chunk)
		if err != nil {
			return added, err
		}
		if i.manifest.Dimensions == 0 {
			i.manifest.Dimensions = len(vec)
			i.manifest.Model = i.embedder.Model()
		} else if len(vec) != i.manifest.Dimensions {
			return added, apperrors.ResponseFormat(fmt.Sprintf("embedding has %d dimensions, index expects %d", len(vec), i.manifest.Dimensions))
		}

		info := DocumentInfo{
			ID:      ulid.Make().String(),
			Source:  source,
			Chunk:   n,
			Runes:   len([]rune(chunk)),
			AddedAt: time.Now().UTC(),
		}
		err = i.col.AddDocument(ctx, chromem.Document{
			ID:        info.ID,
			Metadata:  map[string]string{"source": source, "chunk": fmt.Sprint(n)},
			Embedding: vec,
			Content:   chunk,
		})
		if err != nil {
			return added, apperrors.WrapWithCategory(err, "failed to store document", apperrors.ErrInternal)
		}

		i.manifest.Documents = append(i.manifest.Documents, info)
		added = append(added, info)
	}
	return added, nil
}

// Query returns up to n chunks most similar to text.
func (i *Index) Query(ctx context.Context, text string, n int) ([]Result, error) {
	if n > i.col.Count() {
		n = i.col.Count()
	}
	if n <= 0 {
		return []Result{}, nil
	}

	docs, err := i.col.Query(ctx, text, n, nil, nil)
	if err != nil {
		if apperrors.IsInterrupted(err) {
			return nil, err
		}
		return nil, apperrors.WrapWithCategory(err, "query failed", apperrors.ErrInternal)
	}

	results := make([]Result, 0, len(docs))
	for _, d := range docs {
		results = append(results, Result{
			ID:         d.ID,
			Source:     d.Metadata["source"],
			Content:    d.Content,
			Similarity: d.Similarity,
		})
	}
	return results, nil
}

// Manifest returns a copy of the index manifest.
func (i *Index) Manifest() Manifest {
	m := i.manifest
	m.Documents = append([]DocumentInfo(nil), i.manifest.Documents...)
	return m
}

func (i *Index) Count() int {
	return i.col.Count()
}

// Close releases the index lock.
func (i *Index) Close() error {
	if i.lock == nil {
		return nil
	}
	err := i.lock.Unlock()
	i.lock = nil
	return err
}

// Chunk splits text on blank lines and packs paragraphs into chunks of at
// most limit runes. A longer paragraph is cut at limit runes.
func Chunk(text string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	curRunes := 0

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curRunes = 0
	}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		runes := []rune(para)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}

		if curRunes > 0 && curRunes+2+len(runes) > limit {
			flush()
		}
		if curRunes > 0 {
			cur.WriteString("\n\n")
			curRunes += 2
		}
		cur.WriteString(string(runes))
		curRunes += len(runes)
	}
	flush()
	return chunks
}
