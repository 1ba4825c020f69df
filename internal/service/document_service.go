package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"doc-assistant-be/internal/dto"
	"doc-assistant-be/internal/entity"
	"doc-assistant-be/internal/repository/memory"
	"doc-assistant-be/internal/repository/specification"
	"doc-assistant-be/internal/repository/unitofwork"
	"doc-assistant-be/pkg/events"
	"doc-assistant-be/pkg/extract"
	pktNats "doc-assistant-be/pkg/nats"
	"doc-assistant-be/pkg/vectorindex"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context) ([]*dto.ShowDocumentResponse, error)
	Status(ctx context.Context, id uuid.UUID) (*dto.DocumentStatusResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (*dto.DeleteDocumentResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	extractor        *extract.Registry
	statusRepo       *memory.StatusRepository
	publisherService IPublisherService
	index            vectorindex.Index
	answerCache      *memory.AnswerCache
	eventPublisher   *pktNats.Publisher
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	extractor *extract.Registry,
	statusRepo *memory.StatusRepository,
	publisherService IPublisherService,
	index vectorindex.Index,
	answerCache *memory.AnswerCache,
	eventPublisher *pktNats.Publisher,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		extractor:        extractor,
		statusRepo:       statusRepo,
		publisherService: publisherService,
		index:            index,
		answerCache:      answerCache,
		eventPublisher:   eventPublisher,
	}
}

func (s *documentService) Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	// Extraction happens up front so unsupported formats fail the request,
	// not the background pipeline.
	text, err := s.extractor.Extract([]byte(req.Content), req.Format)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	document := entity.Document{
		Id:         uuid.New(),
		SourceName: req.SourceName,
		Format:     req.Format,
		Content:    text,
		Metadata:   req.Metadata,
		CreatedAt:  time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	s.statusRepo.MarkPending(document.Id)

	msgPayload := dto.PublishIngestDocumentMessage{
		DocumentId: document.Id,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TypeDocumentIngested, map[string]interface{}{
		"document_id": document.Id,
		"source_name": document.SourceName,
	})

	return &dto.IngestDocumentResponse{
		Id:     document.Id,
		Status: memory.StatusPending,
	}, nil
}

func (s *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil // Not found
	}
	return toShowDocumentResponse(document), nil
}

func (s *documentService) List(ctx context.Context) ([]*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ShowDocumentResponse, len(documents))
	for i, document := range documents {
		responses[i] = toShowDocumentResponse(document)
	}
	return responses, nil
}

func (s *documentService) Status(ctx context.Context, id uuid.UUID) (*dto.DocumentStatusResponse, error) {
	if status, found := s.statusRepo.Get(id); found {
		return &dto.DocumentStatusResponse{
			Id:     id,
			Status: status.Status,
			Reason: status.Reason,
		}, nil
	}

	// Status entries expire; fall back to the persisted row. A row with
	// units went through the pipeline successfully.
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil
	}

	status := memory.StatusPending
	if document.UnitCount > 0 {
		status = memory.StatusIndexed
	}
	return &dto.DocumentStatusResponse{
		Id:     id,
		Status: status,
	}, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) (*dto.DeleteDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil
	}

	// Index entries go first. If this fails the document row stays, and the
	// delete can be retried without orphaning vectors.
	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		return nil, fmt.Errorf("delete document vectors: %w", err)
	}

	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return nil, err
	}

	s.statusRepo.Delete(id)

	// Cached answers may cite the removed passages.
	if s.answerCache != nil {
		s.answerCache.Flush(ctx)
	}

	s.publishEvent(ctx, events.TypeDocumentDeleted, map[string]interface{}{
		"document_id": id,
		"source_name": document.SourceName,
	})

	return &dto.DeleteDocumentResponse{Id: id}, nil
}

func (s *documentService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	// Log and move on, lifecycle events are auxiliary
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		fmt.Printf("[WARN] Failed to publish %s event: %v\n", eventType, err)
	}
}

func toShowDocumentResponse(document *entity.Document) *dto.ShowDocumentResponse {
	return &dto.ShowDocumentResponse{
		Id:         document.Id,
		SourceName: document.SourceName,
		Format:     document.Format,
		UnitCount:  document.UnitCount,
		Metadata:   document.Metadata,
		CreatedAt:  document.CreatedAt,
		UpdatedAt:  document.UpdatedAt,
	}
}
