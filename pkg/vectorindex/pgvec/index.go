package pgvec

import (
	"context"
	"fmt"
	"time"

	"doc-assistant-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// unitEmbedding is the persistence row for one indexed unit.
type unitEmbedding struct {
	UnitId     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentId uuid.UUID       `gorm:"type:uuid;not null;index"`
	SourceName string          `gorm:"type:text"`
	UnitText   string          `gorm:"type:text"`
	Vector     pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (unitEmbedding) TableName() string {
	return "unit_embeddings"
}

// Index is the pgvector-backed similarity index.
type Index struct {
	db *gorm.DB
}

var _ vectorindex.Index = (*Index)(nil)

func New(db *gorm.DB) *Index {
	return &Index{db: db}
}

// Migrate creates the unit_embeddings table. The pgvector extension must
// already be installed on the target database.
func (x *Index) Migrate() error {
	return x.db.AutoMigrate(&unitEmbedding{})
}

func (x *Index) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*unitEmbedding, len(entries))
	for i, e := range entries {
		rows[i] = &unitEmbedding{
			UnitId:     e.UnitId,
			DocumentId: e.DocumentId,
			SourceName: e.SourceName,
			UnitText:   e.Text,
			Vector:     pgvector.NewVector(e.Vector),
		}
	}

	// single transaction so a document's batch lands whole or not at all
	err := x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(rows).Error
	})
	if err != nil {
		return fmt.Errorf("%w: upsert: %v", vectorindex.ErrUnavailable, err)
	}
	return nil
}

func (x *Index) Search(ctx context.Context, vector []float32, topK int) ([]vectorindex.Match, error) {
	if topK <= 0 {
		topK = 5
	}

	// cosine distance in pgvector is 1 - cosine_similarity
	type result struct {
		UnitId     uuid.UUID
		SourceName string
		UnitText   string
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)
	err := x.db.WithContext(ctx).
		Table("unit_embeddings").
		Select("unit_id, source_name, unit_text, 1 - (vector <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", vectorindex.ErrUnavailable, err)
	}

	matches := make([]vectorindex.Match, len(results))
	for i, r := range results {
		matches[i] = vectorindex.Match{
			UnitId:     r.UnitId,
			SourceName: r.SourceName,
			Text:       r.UnitText,
			Score:      r.Similarity,
		}
	}
	return matches, nil
}

func (x *Index) DeleteUnit(ctx context.Context, unitId uuid.UUID) error {
	err := x.db.WithContext(ctx).Delete(&unitEmbedding{}, "unit_id = ?", unitId).Error
	if err != nil {
		return fmt.Errorf("%w: delete unit: %v", vectorindex.ErrUnavailable, err)
	}
	return nil
}

func (x *Index) DeleteByDocument(ctx context.Context, documentId uuid.UUID) error {
	err := x.db.WithContext(ctx).Delete(&unitEmbedding{}, "document_id = ?", documentId).Error
	if err != nil {
		return fmt.Errorf("%w: delete document: %v", vectorindex.ErrUnavailable, err)
	}
	return nil
}
