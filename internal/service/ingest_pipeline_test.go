package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"doc-assistant-be/internal/dto"
	"doc-assistant-be/internal/entity"
	"doc-assistant-be/internal/repository/contract"
	"doc-assistant-be/internal/repository/memory"
	"doc-assistant-be/internal/repository/specification"
	"doc-assistant-be/internal/repository/unitofwork"
	"doc-assistant-be/pkg/chunker"
	"doc-assistant-be/pkg/extract"
	"doc-assistant-be/pkg/fingerprint"
	"doc-assistant-be/pkg/vectorindex/memstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDocumentRepository keeps documents in a map. Only the ByID
// specification is honored, which is all the pipeline uses.
type fakeDocumentRepository struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*entity.Document
}

func newFakeDocumentRepository() *fakeDocumentRepository {
	return &fakeDocumentRepository{docs: make(map[uuid.UUID]*entity.Document)}
}

func (r *fakeDocumentRepository) Create(ctx context.Context, document *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *document
	r.docs[document.Id] = &copied
	return nil
}

func (r *fakeDocumentRepository) Update(ctx context.Context, document *entity.Document) error {
	return r.Create(ctx, document)
}

func (r *fakeDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *fakeDocumentRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if doc, found := r.docs[byID.ID]; found {
				copied := *doc
				return &copied, nil
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		copied := *doc
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeDocumentRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.docs)), nil
}

type fakeUnitOfWork struct {
	repo contract.DocumentRepository
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }
func (u *fakeUnitOfWork) DocumentRepository() contract.DocumentRepository {
	return u.repo
}

type fakeUowFactory struct {
	repo contract.DocumentRepository
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{repo: f.repo}
}

func waitForStatus(t *testing.T, statusRepo *memory.StatusRepository, id uuid.UUID, want string) *memory.IngestStatus {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if status, found := statusRepo.Get(id); found && status.Status == want {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("document %s never reached status %q", id, want)
	return nil
}

func TestIngestPipelineIndexesDocument(t *testing.T) {
	ctx := context.Background()

	repo := newFakeDocumentRepository()
	uowFactory := &fakeUowFactory{repo: repo}
	statusRepo := memory.NewStatusRepository()
	index := memstore.New()

	splitter, err := chunker.New(chunker.Config{ChunkSize: 40, Overlap: 10})
	require.NoError(t, err)
	generator, err := fingerprint.New(16)
	require.NoError(t, err)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	topic := "INGEST_DOCUMENT_TEST"

	consumer := NewConsumerService(pubSub, topic, uowFactory, splitter, generator, index, statusRepo, nil)
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(topic, pubSub)
	docService := NewDocumentService(uowFactory, extract.NewRegistry(nil), statusRepo, publisher, index, nil, nil)

	res, err := docService.Ingest(ctx, &dto.IngestDocumentRequest{
		SourceName: "quarterly-report.txt",
		Format:     "txt",
		Content:    "Revenue grew nine percent. Margins held steady through the quarter despite freight costs.",
	})
	require.NoError(t, err)
	assert.Equal(t, memory.StatusPending, res.Status)

	waitForStatus(t, statusRepo, res.Id, memory.StatusIndexed)

	assert.Greater(t, index.Len(), 1)

	doc, err := repo.FindOne(ctx, specification.ByID{ID: res.Id})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Greater(t, doc.UnitCount, 1)

	status, err := docService.Status(ctx, res.Id)
	require.NoError(t, err)
	assert.Equal(t, memory.StatusIndexed, status.Status)
}

func TestIngestRejectsUnsupportedFormat(t *testing.T) {
	ctx := context.Background()

	repo := newFakeDocumentRepository()
	uowFactory := &fakeUowFactory{repo: repo}
	statusRepo := memory.NewStatusRepository()
	index := memstore.New()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	publisher := NewPublisherService("INGEST_DOCUMENT_TEST", pubSub)
	docService := NewDocumentService(uowFactory, extract.NewRegistry(nil), statusRepo, publisher, index, nil, nil)

	_, err := docService.Ingest(ctx, &dto.IngestDocumentRequest{
		SourceName: "slides.key",
		Format:     "key",
		Content:    "irrelevant",
	})
	require.ErrorIs(t, err, extract.ErrUnsupportedFormat)

	// Nothing was persisted or queued
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteDocumentRemovesVectors(t *testing.T) {
	ctx := context.Background()

	repo := newFakeDocumentRepository()
	uowFactory := &fakeUowFactory{repo: repo}
	statusRepo := memory.NewStatusRepository()
	index := memstore.New()

	splitter, err := chunker.New(chunker.Config{ChunkSize: 40, Overlap: 10})
	require.NoError(t, err)
	generator, err := fingerprint.New(16)
	require.NoError(t, err)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	topic := "INGEST_DOCUMENT_TEST"

	consumer := NewConsumerService(pubSub, topic, uowFactory, splitter, generator, index, statusRepo, nil)
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(topic, pubSub)
	docService := NewDocumentService(uowFactory, extract.NewRegistry(nil), statusRepo, publisher, index, nil, nil)

	res, err := docService.Ingest(ctx, &dto.IngestDocumentRequest{
		SourceName: "handbook.md",
		Format:     "md",
		Content:    "Expense reports are due on the fifth. Late reports roll into the next cycle.",
	})
	require.NoError(t, err)
	waitForStatus(t, statusRepo, res.Id, memory.StatusIndexed)
	require.Greater(t, index.Len(), 0)

	deleted, err := docService.Delete(ctx, res.Id)
	require.NoError(t, err)
	require.NotNil(t, deleted)

	assert.Zero(t, index.Len())
	_, found := statusRepo.Get(res.Id)
	assert.False(t, found)

	doc, err := repo.FindOne(ctx, specification.ByID{ID: res.Id})
	require.NoError(t, err)
	assert.Nil(t, doc)
}
