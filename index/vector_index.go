package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/SaiNageswarS/go-api-boot/logger"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"

	"studybuddy-backend/embedding"
)

// IndexedDocument is a chunk plus its embedding vector, owned exclusively by
// the index.
type IndexedDocument struct {
	ID        string `badgerhold:"key"`
	Text      string
	Source    string
	Section   string
	Embedding []float32
}

// SearchResult is one similarity hit, closest first when returned from Search.
type SearchResult struct {
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
	ID       string            `json:"id"`
}

// Stats describes the current index state.
type Stats struct {
	DocumentCount int    `json:"documentCount"`
	IndexDir      string `json:"indexDir"`
}

// VectorIndex is a durable store of (vector, text, metadata) triples backed
// by badgerhold under a configured directory. The store opens lazily and
// exactly once; id assignment is serialized on the index mutex so concurrent
// ingestion batches cannot collide.
type VectorIndex struct {
	dir      string
	embedder embedding.Provider

	mu    sync.Mutex
	store *badgerhold.Store
}

func ProvideVectorIndex(dir string, embedder embedding.Provider) *VectorIndex {
	return &VectorIndex{dir: dir, embedder: embedder}
}

// ensureOpen opens the badgerhold store on first use. Idempotent and safe to
// race: the mutex makes initialization single-flight.
func (v *VectorIndex) ensureOpen() (*badgerhold.Store, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ensureOpenLocked()
}

func (v *VectorIndex) ensureOpenLocked() (*badgerhold.Store, error) {
	if v.store != nil {
		return v.store, nil
	}

	if err := os.MkdirAll(v.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = v.dir
	options.ValueDir = v.dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}

	v.store = store
	logger.Info("Vector index opened", zap.String("dir", v.dir))
	return store, nil
}

// Add embeds texts and persists them with sequential "doc_{n}" ids seeded
// from the current document count when ids are omitted. Returns the number
// of documents stored; empty input is a no-op returning 0.
func (v *VectorIndex) Add(ctx context.Context, texts []string, metadatas []map[string]string, ids []string) (int, error) {
	if len(texts) == 0 {
		return 0, nil
	}
	if ids != nil && len(ids) != len(texts) {
		return 0, fmt.Errorf("ids length %d does not match texts length %d", len(ids), len(texts))
	}
	if metadatas != nil && len(metadatas) != len(texts) {
		return 0, fmt.Errorf("metadatas length %d does not match texts length %d", len(metadatas), len(texts))
	}

	// Embedding happens outside the index lock: it is the slow part and
	// needs no id coordination.
	vectors, err := v.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed documents: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	store, err := v.ensureOpenLocked()
	if err != nil {
		return 0, err
	}

	if ids == nil {
		count, err := store.Count(&IndexedDocument{}, allDocuments())
		if err != nil {
			return 0, fmt.Errorf("failed to count documents: %w", err)
		}
		seed := int(count)
		ids = make([]string, len(texts))
		for i := range texts {
			ids[i] = fmt.Sprintf("doc_%d", seed+i)
		}
	}

	tx := store.Badger().NewTransaction(true)
	defer tx.Discard()

	for i, text := range texts {
		doc := &IndexedDocument{
			ID:        ids[i],
			Text:      text,
			Embedding: vectors[i],
		}
		if metadatas != nil {
			doc.Source = metadatas[i]["source"]
			doc.Section = metadatas[i]["section"]
		}

		err := store.TxUpsert(tx, doc.ID, doc)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err = tx.Commit(); err != nil {
				return 0, fmt.Errorf("failed to commit index batch: %w", err)
			}
			tx = store.Badger().NewTransaction(true)
			err = store.TxUpsert(tx, doc.ID, doc)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to store document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit index batch: %w", err)
	}

	logger.Info("Added documents to vector index", zap.Int("count", len(texts)))
	return len(texts), nil
}

// Search embeds the query and returns the k nearest documents by cosine
// distance, ascending. An optional metadata filter restricts candidates by
// source and/or section. An empty index yields an empty result, not an error.
func (v *VectorIndex) Search(ctx context.Context, query string, k int, filter map[string]string) ([]SearchResult, error) {
	store, err := v.ensureOpen()
	if err != nil {
		return nil, err
	}

	q := allDocuments()
	if source, ok := filter["source"]; ok {
		q = q.And("Source").Eq(source)
	}
	if section, ok := filter["section"]; ok {
		q = q.And("Section").Eq(section)
	}

	var docs []IndexedDocument
	if err := store.Find(&docs, q); err != nil {
		return nil, fmt.Errorf("failed to scan vector index: %w", err)
	}
	if len(docs) == 0 {
		return []SearchResult{}, nil
	}

	queryVec, err := v.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results := make([]SearchResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, SearchResult{
			Document: doc.Text,
			Metadata: map[string]string{"source": doc.Source, "section": doc.Section},
			Distance: 1 - embedding.Similarity(queryVec, doc.Embedding),
			ID:       doc.ID,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Delete removes documents by id, returning how many existed.
func (v *VectorIndex) Delete(ids []string) (int, error) {
	store, err := v.ensureOpen()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		err := store.Delete(id, &IndexedDocument{})
		if errors.Is(err, badgerhold.ErrNotFound) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to delete document %s: %w", id, err)
		}
		deleted++
	}

	logger.Info("Deleted documents from vector index", zap.Int("count", deleted))
	return deleted, nil
}

// Clear drops the index directory and recreates an empty store. Irreversible.
func (v *VectorIndex) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.store != nil {
		if err := v.store.Close(); err != nil {
			return fmt.Errorf("failed to close vector index: %w", err)
		}
		v.store = nil
	}

	if err := os.RemoveAll(v.dir); err != nil {
		return fmt.Errorf("failed to drop index directory: %w", err)
	}

	_, err := v.ensureOpenLocked()
	return err
}

// Stats reports the current document count and persistence location.
func (v *VectorIndex) Stats() (*Stats, error) {
	store, err := v.ensureOpen()
	if err != nil {
		return nil, err
	}

	count, err := store.Count(&IndexedDocument{}, allDocuments())
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	return &Stats{DocumentCount: int(count), IndexDir: v.dir}, nil
}

// Close releases the underlying store. The index reopens lazily if used again.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.store == nil {
		return nil
	}
	err := v.store.Close()
	v.store = nil
	return err
}

// badgerhold needs a concrete query to select everything.
func allDocuments() *badgerhold.Query {
	return badgerhold.Where("ID").Ne("")
}
