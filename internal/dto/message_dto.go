package dto

import "github.com/google/uuid"

// PublishIngestDocumentMessage is the payload handed to the ingest pipeline
// after a document row has been persisted.
type PublishIngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
