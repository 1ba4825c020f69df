package service

import (
	"context"
	"testing"

	"doc-assistant-be/internal/dto"
	"doc-assistant-be/pkg/llm"
	ragmemory "doc-assistant-be/pkg/rag/memory"
	"doc-assistant-be/pkg/rag/orchestrator"
	"doc-assistant-be/pkg/rag/prompt"
	"doc-assistant-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	candidates []store.Candidate
}

func (s *stubSearcher) Retrieve(ctx context.Context, query string, topK int) ([]store.Candidate, error) {
	return s.candidates, nil
}

type stubProvider struct {
	answer string
}

func (p *stubProvider) Generate(ctx context.Context, promptText string, options ...llm.Option) (string, error) {
	return p.answer, nil
}

func (p *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.answer, nil
}

func newTestAssistant(answer string, candidates []store.Candidate) (IAssistantService, *ragmemory.Memory) {
	mem := ragmemory.New(0)
	engine := orchestrator.NewEngine(
		&stubSearcher{candidates: candidates},
		&stubProvider{answer: answer},
		prompt.NewBuilder(4000),
		mem,
		orchestrator.Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 2},
		nil,
	)
	return NewAssistantService(engine, mem, nil, nil), mem
}

func TestAskReturnsAnswerWithPassages(t *testing.T) {
	candidates := []store.Candidate{
		{UnitId: uuid.New(), SourceDocument: "report.txt", Text: "revenue grew nine percent", Score: 0.9, Rank: 1},
	}
	svc, _ := newTestAssistant("Revenue grew nine percent.", candidates)

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Query: "what was the revenue growth"})
	require.NoError(t, err)

	assert.Equal(t, "Revenue grew nine percent.", res.Answer)
	assert.Equal(t, "factual", res.QueryType)
	require.Len(t, res.Passages, 1)
	assert.Equal(t, "report.txt", res.Passages[0].SourceName)
	assert.False(t, res.Degraded)
	assert.False(t, res.Cached)
}

func TestMemoryAccumulatesAndResets(t *testing.T) {
	candidates := []store.Candidate{
		{UnitId: uuid.New(), SourceDocument: "handbook.md", Text: "reports due on the fifth", Score: 0.8, Rank: 1},
	}
	svc, mem := newTestAssistant("They are due on the fifth.", candidates)

	_, err := svc.Ask(context.Background(), &dto.AskRequest{Query: "what day are expense reports due"})
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), &dto.AskRequest{Query: "why is there a deadline"})
	require.NoError(t, err)

	history, err := svc.Memory(context.Background())
	require.NoError(t, err)
	require.Len(t, history.Turns, 2)
	assert.Equal(t, "what day are expense reports due", history.Turns[0].QueryText)
	assert.Equal(t, "factual", history.Turns[0].QueryType)
	assert.Equal(t, "explanatory", history.Turns[1].QueryType)

	require.NoError(t, svc.ResetMemory(context.Background()))
	assert.Zero(t, mem.Len())

	history, err = svc.Memory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history.Turns)
}
