package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	StatusPending = "pending"
	StatusIndexed = "indexed"
	StatusFailed  = "failed"
)

type IngestStatus struct {
	DocumentId uuid.UUID
	Status     string
	Reason     string
	UpdatedAt  time.Time
}

// StatusRepository tracks the ingest state of documents between the
// accept step and the background indexing step. Entries expire on their
// own once the pipeline has long moved on.
type StatusRepository struct {
	cache *cache.Cache
}

func NewStatusRepository() *StatusRepository {
	// Default expiration of 24 hours, purge sweep every hour
	c := cache.New(24*time.Hour, 1*time.Hour)
	return &StatusRepository{
		cache: c,
	}
}

func (r *StatusRepository) MarkPending(documentId uuid.UUID) {
	r.set(documentId, StatusPending, "")
}

func (r *StatusRepository) MarkIndexed(documentId uuid.UUID) {
	r.set(documentId, StatusIndexed, "")
}

func (r *StatusRepository) MarkFailed(documentId uuid.UUID, reason string) {
	r.set(documentId, StatusFailed, reason)
}

func (r *StatusRepository) Get(documentId uuid.UUID) (*IngestStatus, bool) {
	if x, found := r.cache.Get(documentId.String()); found {
		return x.(*IngestStatus), true
	}
	return nil, false
}

func (r *StatusRepository) Delete(documentId uuid.UUID) {
	r.cache.Delete(documentId.String())
}

func (r *StatusRepository) set(documentId uuid.UUID, status, reason string) {
	r.cache.Set(documentId.String(), &IngestStatus{
		DocumentId: documentId,
		Status:     status,
		Reason:     reason,
		UpdatedAt:  time.Now(),
	}, cache.DefaultExpiration)
}
