package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Item is a passage to index.
type Item struct {
	Id       uuid.UUID
	Text     string
	Metadata map[string]interface{}
	Vector   []float32
}

// Result is one ranked hit from a similarity query.
type Result struct {
	Id       string
	Score    float32
	Text     string
	Metadata map[string]interface{}
}

// Index is the similarity-index contract consumed by the retriever and the
// ingestion pipeline. Query results are ranked best-first.
type Index interface {
	EnsureIndex(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, items []Item) error
	Query(ctx context.Context, vector []float32, topK int) ([]Result, error)
}

type passageModel struct {
	Id        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Text      string            `gorm:"type:text;not null"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	Embedding pgvector.Vector   `gorm:"type:vector"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime"`
}

func (passageModel) TableName() string {
	return "passages"
}

// PgIndex stores passages in Postgres with pgvector, using cosine distance.
// Score is reported as cosine similarity: 1 - (embedding <=> query).
type PgIndex struct {
	db *gorm.DB

	mu      sync.Mutex
	ensured bool
}

var _ Index = &PgIndex{}

func NewPgIndex(db *gorm.DB) *PgIndex {
	return &PgIndex{db: db}
}

// EnsureIndex creates the extension, table and ANN index if missing.
// Safe to call before every query; only the first call does work.
func (x *PgIndex) EnsureIndex(ctx context.Context, dimension int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.ensured {
		return nil
	}

	if err := x.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS passages (
		id uuid PRIMARY KEY,
		text text NOT NULL,
		metadata jsonb,
		embedding vector(%d),
		created_at timestamptz DEFAULT now(),
		updated_at timestamptz DEFAULT now()
	)`, dimension)
	if err := x.db.WithContext(ctx).Exec(createTable).Error; err != nil {
		return fmt.Errorf("create passages table: %w", err)
	}

	createIvf := "CREATE INDEX IF NOT EXISTS passages_embedding_idx ON passages USING ivfflat (embedding vector_cosine_ops)"
	if err := x.db.WithContext(ctx).Exec(createIvf).Error; err != nil {
		return fmt.Errorf("create ann index: %w", err)
	}

	x.ensured = true
	return nil
}

func (x *PgIndex) Upsert(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	if err := x.EnsureIndex(ctx, len(items[0].Vector)); err != nil {
		return err
	}

	models := make([]*passageModel, len(items))
	for i, item := range items {
		id := item.Id
		if id == uuid.Nil {
			id = uuid.New()
		}
		models[i] = &passageModel{
			Id:        id,
			Text:      item.Text,
			Metadata:  datatypes.JSONMap(item.Metadata),
			Embedding: pgvector.NewVector(item.Vector),
		}
	}

	// Upsert on primary key so re-ingesting a passage replaces it.
	return x.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "metadata", "embedding", "updated_at"}),
		}).
		Create(&models).Error
}

func (x *PgIndex) Query(ctx context.Context, vector []float32, topK int) ([]Result, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("no embedding passed to Query")
	}
	if topK <= 0 {
		topK = 5
	}

	if err := x.EnsureIndex(ctx, len(vector)); err != nil {
		return nil, err
	}

	// Cosine distance in pgvector is 1 - cosine_similarity,
	// so 1 - (embedding <=> query_vector) = cosine_similarity.
	type row struct {
		Id         uuid.UUID
		Text       string
		Metadata   datatypes.JSONMap
		Similarity float32
	}
	var rows []row

	queryVector := pgvector.NewVector(vector)
	err := x.db.WithContext(ctx).
		Table("passages").
		Select("id, text, metadata, 1 - (embedding <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(topK).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(rows))
	for i, r := range rows {
		results[i] = Result{
			Id:       r.Id.String(),
			Score:    r.Similarity,
			Text:     r.Text,
			Metadata: map[string]interface{}(r.Metadata),
		}
	}
	return results, nil
}
