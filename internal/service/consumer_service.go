package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"doc-assistant-be/internal/dto"
	"doc-assistant-be/internal/repository/memory"
	"doc-assistant-be/internal/repository/specification"
	"doc-assistant-be/internal/repository/unitofwork"
	"doc-assistant-be/pkg/chunker"
	"doc-assistant-be/pkg/events"
	"doc-assistant-be/pkg/fingerprint"
	pktNats "doc-assistant-be/pkg/nats"
	"doc-assistant-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	splitter       *chunker.Chunker
	generator      *fingerprint.Generator
	index          vectorindex.Index
	statusRepo     *memory.StatusRepository
	eventPublisher *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	splitter *chunker.Chunker,
	generator *fingerprint.Generator,
	index vectorindex.Index,
	statusRepo *memory.StatusRepository,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		splitter:       splitter,
		generator:      generator,
		index:          index,
		statusRepo:     statusRepo,
		eventPublisher: eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Indexing document %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if document == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocumentId)
		msg.Ack() // Deleted before indexing? Ack.
		return
	}

	units, err := cs.splitter.Chunk(document.Content)
	if err != nil {
		// Chunking failures are deterministic, retrying cannot help.
		log.Printf("[ERROR] Failed to chunk document %s: %v", payload.DocumentId, err)
		cs.markFailed(ctx, payload.DocumentId, document.SourceName, err)
		msg.Ack()
		return
	}

	log.Printf("[INFO] Document %s split into %d units", payload.DocumentId, len(units))

	entries := make([]vectorindex.Entry, len(units))
	for i, unit := range units {
		entries[i] = vectorindex.Entry{
			UnitId:     uuid.New(),
			DocumentId: document.Id,
			SourceName: document.SourceName,
			Text:       unit.Text,
			Vector:     cs.generator.Fingerprint(unit.Text),
		}
	}

	if err := cs.index.Upsert(ctx, entries); err != nil {
		log.Printf("[ERROR] Failed to upsert %d entries for document %s: %v", len(entries), payload.DocumentId, err)
		cs.markFailed(ctx, payload.DocumentId, document.SourceName, err)
		msg.Nack()
		return
	}

	document.UnitCount = len(units)
	now := time.Now()
	document.UpdatedAt = &now
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		log.Printf("[ERROR] Failed to update unit count for document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}

	cs.statusRepo.MarkIndexed(payload.DocumentId)
	cs.publishEvent(ctx, events.TypeDocumentIndexed, map[string]interface{}{
		"document_id": payload.DocumentId,
		"source_name": document.SourceName,
		"unit_count":  len(units),
	})

	log.Printf("[SUCCESS] Document indexed: %d units for %s", len(units), payload.DocumentId)
	msg.Ack()
}

func (cs *consumerService) markFailed(ctx context.Context, documentId uuid.UUID, sourceName string, cause error) {
	cs.statusRepo.MarkFailed(documentId, cause.Error())
	cs.publishEvent(ctx, events.TypeDocumentFailed, map[string]interface{}{
		"document_id": documentId,
		"source_name": sourceName,
		"reason":      cause.Error(),
	})
}

func (cs *consumerService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if cs.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", eventType, err)
	}
}
