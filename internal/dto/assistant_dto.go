package dto

import (
	"time"

	"github.com/google/uuid"
)

type AskRequest struct {
	Query string `json:"query" validate:"required"`
}

type CitedPassage struct {
	UnitId     uuid.UUID `json:"unit_id"`
	SourceName string    `json:"source_name"`
	Text       string    `json:"text"`
	Score      float64   `json:"score"`
	Rank       int       `json:"rank"`
}

type AskResponse struct {
	Answer      string         `json:"answer"`
	QueryType   string         `json:"query_type"` // "factual" | "explanatory" | "summarization" | "general"
	Passages    []CitedPassage `json:"passages"`
	Refinements int            `json:"refinements"`
	Degraded    bool           `json:"degraded"`
	Cached      bool           `json:"cached"`
}

type MemoryTurnResponse struct {
	QueryText  string         `json:"query_text"`
	QueryType  string         `json:"query_type"`
	AnswerText string         `json:"answer_text"`
	Passages   []CitedPassage `json:"passages"`
	CreatedAt  time.Time      `json:"created_at"`
}

type MemoryResponse struct {
	Turns []MemoryTurnResponse `json:"turns"`
}
