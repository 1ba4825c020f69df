package memstore

import (
	"context"
	"sort"
	"sync"

	"doc-assistant-be/pkg/vectorindex"

	"github.com/google/uuid"
)

// Store is an in-process brute-force cosine index. It backs local
// development and tests; production runs on the pgvector index.
type Store struct {
	mu      sync.RWMutex
	entries []vectorindex.Entry
}

var _ vectorindex.Index = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		replaced := false
		for i := range s.entries {
			if s.entries[i].UnitId == e.UnitId {
				s.entries[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			s.entries = append(s.entries, e)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]vectorindex.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]vectorindex.Match, 0, len(s.entries))
	for _, e := range s.entries {
		matches = append(matches, vectorindex.Match{
			UnitId:     e.UnitId,
			SourceName: e.SourceName,
			Text:       e.Text,
			Score:      dot(e.Vector, vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Store) DeleteUnit(ctx context.Context, unitId uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.filter(func(e vectorindex.Entry) bool { return e.UnitId != unitId })
	return nil
}

func (s *Store) DeleteByDocument(ctx context.Context, documentId uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.filter(func(e vectorindex.Entry) bool { return e.DocumentId != documentId })
	return nil
}

// Len reports the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) filter(keep func(vectorindex.Entry) bool) []vectorindex.Entry {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	return kept
}

// dot assumes both vectors are L2-normalized, so the dot product is the
// cosine similarity.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
