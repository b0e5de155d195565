package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"braindump/internal/contextutil"
	"braindump/internal/storage"
)

const (
	// DefaultMinSimilarity is the cosine score below which search hits are dropped.
	DefaultMinSimilarity = 0.25

	// DefaultQueryCacheSize is the number of query vectors kept in memory.
	DefaultQueryCacheSize = 1000
)

// Candidate is a document vector considered by Search.
type Candidate struct {
	ID     string
	Vector []float32
}

// Scored is a search hit.
type Scored struct {
	ID    string
	Score float64
}

// Cache keeps stored document embeddings in step with document content and
// ranks candidates against a query.
type Cache struct {
	provider Provider
	store    storage.EmbeddingStore
	queries  *lru.Cache[string, []float32]
	now      func() time.Time
}

// NewCache creates a cache over provider and store. queryCacheSize bounds the
// number of query vectors memoized; <= 0 uses DefaultQueryCacheSize.
func NewCache(provider Provider, store storage.EmbeddingStore, queryCacheSize int) *Cache {
	if queryCacheSize <= 0 {
		queryCacheSize = DefaultQueryCacheSize
	}
	queries, _ := lru.New[string, []float32](queryCacheSize)
	return &Cache{
		provider: provider,
		store:    store,
		queries:  queries,
		now:      time.Now,
	}
}

// Embed returns the vector for text straight from the provider.
func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.provider.Embed(ctx, text)
}

// Dimension returns the provider's vector size.
func (c *Cache) Dimension() int {
	return c.provider.Dimension()
}

// UpdateEmbedding makes sure the stored vector for docID was computed from
// content with the given hash. It returns true only when a new vector was
// generated and stored. Provider and store failures are logged and reported
// as false so indexing can carry on without a vector.
func (c *Cache) UpdateEmbedding(ctx context.Context, docID, text, hash string) bool {
	logger := contextutil.LoggerFromContext(ctx).With("document_id", docID)

	existing, err := c.store.Get(ctx, docID)
	switch {
	case err == nil && existing.ContentHash == hash:
		return false
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		logger.WarnContext(ctx, "failed to load cached embedding", "error", err)
		return false
	}

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		logger.WarnContext(ctx, "embedding generation failed", "error", err)
		return false
	}

	rec := &storage.EmbeddingRecord{
		DocumentID:  docID,
		ContentHash: hash,
		Vector:      vec,
		CreatedAt:   c.now(),
	}
	if err := c.store.Upsert(ctx, rec); err != nil {
		logger.WarnContext(ctx, "failed to store embedding", "error", err)
		return false
	}

	logger.DebugContext(ctx, "embedding generated", "dimension", len(vec))
	return true
}

// Search embeds query and ranks candidates by cosine similarity.
// The query vector is memoized per model.
func (c *Cache) Search(ctx context.Context, query string, candidates []Candidate, topK int, minSimilarity float64) ([]Scored, error) {
	if topK <= 0 || len(candidates) == 0 {
		return nil, nil
	}

	key := c.queryKey(query)
	vec, ok := c.queries.Get(key)
	if !ok {
		var err error
		vec, err = c.provider.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		c.queries.Add(key, vec)
	}

	return Rank(vec, candidates, topK, minSimilarity), nil
}

func (c *Cache) queryKey(text string) string {
	hash := sha256.Sum256([]byte(text + "\x00" + c.provider.ModelName()))
	return hex.EncodeToString(hash[:])
}

// Rank scores candidates against query, drops those below minSimilarity,
// and returns at most topK hits in descending score order. Equal scores keep
// candidate order.
func Rank(query []float32, candidates []Candidate, topK int, minSimilarity float64) []Scored {
	if topK <= 0 {
		return nil
	}

	var hits []Scored
	for _, cand := range candidates {
		score := CosineSimilarity(query, cand.Vector)
		if score < minSimilarity {
			continue
		}
		hits = append(hits, Scored{ID: cand.ID, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

