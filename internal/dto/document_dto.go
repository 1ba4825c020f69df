package dto

import (
	"time"

	"github.com/google/uuid"
)

type IngestDocumentRequest struct {
	SourceName string                 `json:"source_name" validate:"required"`
	Format     string                 `json:"format" validate:"required"`
	Content    string                 `json:"content" validate:"required"`
	Metadata   map[string]interface{} `json:"metadata"`
}

type IngestDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type ShowDocumentResponse struct {
	Id         uuid.UUID              `json:"id"`
	SourceName string                 `json:"source_name"`
	Format     string                 `json:"format"`
	UnitCount  int                    `json:"unit_count"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  *time.Time             `json:"updated_at"`
}

type DocumentStatusResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"` // "pending" | "indexed" | "failed"
	Reason string    `json:"reason,omitempty"`
}

type DeleteDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}
