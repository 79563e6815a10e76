// Package semantic provides the vector similarity index the resolver and
// ranker query. Documents are indexed by identifier with their file path in
// metadata; queries return identifiers with raw cosine similarity, which may
// be negative and is clamped by the ranker, not here.
package semantic

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
)

// DefaultTopK bounds per-dependency semantic queries.
const DefaultTopK = 3

// Hit is one similarity-search result.
type Hit struct {
	Identifier string  `yaml:"identifier" json:"identifier"`
	Path       string  `yaml:"path" json:"path"`
	Similarity float64 `yaml:"similarity" json:"similarity"`
}

// Index is the query surface the pipeline consumes.
type Index interface {
	// Query returns up to topK hits for the text, ordered by similarity.
	Query(ctx context.Context, text string, topK int) ([]Hit, error)

	// Count returns the number of indexed documents.
	Count() int
}

// Store is the chromem-backed Index with write access for the indexer.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	model      string
}

const collectionName = "lens"

// NewStore creates an in-memory vector store using the given embedder.
func NewStore(embedder Embedder) (*Store, error) {
	db := chromem.NewDB()
	return newStore(db, embedder)
}

// NewPersistentStore creates a vector store persisted under dir, so index
// runs survive process restarts.
func NewPersistentStore(dir string, embedder Embedder) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	return newStore(db, embedder)
}

func newStore(db *chromem.DB, embedder Embedder) (*Store, error) {
	embedFn := chromem.EmbeddingFunc(func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	})

	collection, err := db.GetOrCreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Store{
		db:         db,
		collection: collection,
		model:      embedder.ModelVersion(),
	}, nil
}

// Add indexes one document. identifier must be unique; path lands in
// metadata so hits can be turned into read instructions.
func (s *Store) Add(ctx context.Context, identifier, path, content string) error {
	err := s.collection.AddDocument(ctx, chromem.Document{
		ID:       identifier,
		Metadata: map[string]string{"path": path},
		Content:  content,
	})
	if err != nil {
		return fmt.Errorf("index document %s: %w", identifier, err)
	}
	return nil
}

// Query returns up to topK hits for the text, ordered by similarity.
func (s *Store) Query(ctx context.Context, text string, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.Query(ctx, text, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("semantic query: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		hits = append(hits, Hit{
			Identifier: res.ID,
			Path:       res.Metadata["path"],
			Similarity: float64(res.Similarity),
		})
	}
	return hits, nil
}

// Count returns the number of indexed documents.
func (s *Store) Count() int {
	return s.collection.Count()
}

// ModelVersion returns the embedding model the store was built with.
func (s *Store) ModelVersion() string {
	return s.model
}
