package store

import (
	"time"

	"github.com/google/uuid"
)

// QueryType classifies what kind of answer a query is asking for.
type QueryType string

const (
	QueryFactual       QueryType = "factual"
	QueryExplanatory   QueryType = "explanatory"
	QuerySummarization QueryType = "summarization"
	QueryGeneral       QueryType = "general"
)

// Candidate is a retrieved passage scored against a specific query.
// Rank is 1-based and reflects the order returned by the index (or the
// re-ranked order when a reranker is in play).
type Candidate struct {
	UnitId         uuid.UUID `json:"unit_id"`
	SourceDocument string    `json:"source_document"`
	Text           string    `json:"text"`
	Score          float64   `json:"score"`
	Rank           int       `json:"rank"`
}

// Turn is one completed query/answer exchange. Turns are immutable once
// appended to conversation memory.
type Turn struct {
	QueryText  string      `json:"query_text"`
	QueryType  QueryType   `json:"query_type"`
	Candidates []Candidate `json:"candidates"`
	AnswerText string      `json:"answer_text"`
	CreatedAt  time.Time   `json:"created_at"`
}
