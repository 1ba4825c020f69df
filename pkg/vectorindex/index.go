package vectorindex

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUnavailable signals the index itself could not be reached or queried.
// Callers must keep this distinct from an empty result set.
var ErrUnavailable = errors.New("vector index unavailable")

// Entry is one unit vector plus the metadata needed to present a match
// without a second lookup.
type Entry struct {
	UnitId     uuid.UUID
	DocumentId uuid.UUID
	SourceName string
	Text       string
	Vector     []float32
}

// Match is a scored search hit, ordered by descending score.
type Match struct {
	UnitId     uuid.UUID
	SourceName string
	Text       string
	Score      float64
}

// Index is the similarity index capability the retrieval core consumes.
// A document's entries are upserted as one batch; Search never returns
// entries from a batch that failed partway.
type Index interface {
	Upsert(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float32, topK int) ([]Match, error)
	DeleteUnit(ctx context.Context, unitId uuid.UUID) error
	DeleteByDocument(ctx context.Context, documentId uuid.UUID) error
}
