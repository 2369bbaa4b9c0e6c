package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/vectorstore"
)

var (
	// ErrEmbedding marks failures computing the query embedding.
	ErrEmbedding = errors.New("embedding failed")
	// ErrRetrieval marks failures querying the similarity index.
	// Callers must treat it as recoverable by substituting an empty passage set.
	ErrRetrieval = errors.New("similarity query failed")
)

// Passage is a retrieved context snippet. Produced transiently per request,
// never persisted by the pipeline.
type Passage struct {
	Id       string
	Score    float32
	Text     string
	Metadata map[string]interface{}
}

type IRetriever interface {
	Retrieve(ctx context.Context, message string, topK int) ([]Passage, error)
}

// Retriever embeds a message and runs a top-K similarity query.
// Query embeddings are cached briefly so a retried or repeated message
// does not re-hit the embedding service.
type Retriever struct {
	embedder embedding.EmbeddingProvider
	index    vectorstore.Index
	vecCache *cache.Cache
}

var _ IRetriever = &Retriever{}

func NewRetriever(embedder embedding.EmbeddingProvider, index vectorstore.Index) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		vecCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Retrieve returns passages ranked by similarity score, best first. Ties keep
// the index's native order; no re-ranking happens here or downstream.
func (r *Retriever) Retrieve(ctx context.Context, message string, topK int) ([]Passage, error) {
	if topK < 1 {
		topK = 1
	}

	vector, err := r.embedMessage(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	results, err := r.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	passages := make([]Passage, len(results))
	for i, res := range results {
		text := res.Text
		if text == "" {
			text = "[no text]"
		}
		metadata := res.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		passages[i] = Passage{
			Id:       res.Id,
			Score:    res.Score,
			Text:     text,
			Metadata: metadata,
		}
	}
	return passages, nil
}

func (r *Retriever) embedMessage(ctx context.Context, message string) ([]float32, error) {
	if cached, found := r.vecCache.Get(message); found {
		return cached.([]float32), nil
	}

	vector, err := r.embedder.Generate(ctx, message, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}

	r.vecCache.Set(message, vector, cache.DefaultExpiration)
	return vector, nil
}
