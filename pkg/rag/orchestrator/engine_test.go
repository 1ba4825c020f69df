package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"doc-assistant-be/pkg/llm"
	"doc-assistant-be/pkg/rag/memory"
	"doc-assistant-be/pkg/rag/prompt"
	"doc-assistant-be/pkg/store"
	"doc-assistant-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSearcher counts retrieval attempts and replays canned results.
type recordingSearcher struct {
	results  []store.Candidate
	err      error
	attempts int
	queries  []string
}

func (s *recordingSearcher) Retrieve(ctx context.Context, query string, topK int) ([]store.Candidate, error) {
	s.attempts++
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

// scriptedProvider returns a fixed answer or error and remembers prompts.
type scriptedProvider struct {
	answer  string
	err     error
	prompts []string
}

func (p *scriptedProvider) Generate(ctx context.Context, promptText string, options ...llm.Option) (string, error) {
	p.prompts = append(p.prompts, promptText)
	if p.err != nil {
		return "", p.err
	}
	return p.answer, nil
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.answer, nil
}

func goodCandidates(n int) []store.Candidate {
	out := make([]store.Candidate, n)
	for i := range out {
		out[i] = store.Candidate{
			UnitId:         uuid.New(),
			SourceDocument: "handbook.txt",
			Text:           "a relevant passage",
			Score:          0.9,
			Rank:           i + 1,
		}
	}
	return out
}

func lowScoreCandidates(n int) []store.Candidate {
	out := goodCandidates(n)
	for i := range out {
		out[i].Score = 0.1
	}
	return out
}

func newEngine(s Searcher, p llm.Provider, mem *memory.Memory, cfg Config) *Engine {
	return NewEngine(s, p, prompt.NewBuilder(0), mem, cfg, nil)
}

func TestAnswerHappyPath(t *testing.T) {
	searcher := &recordingSearcher{results: goodCandidates(3)}
	provider := &scriptedProvider{answer: "the grounded answer"}
	mem := memory.New(0)

	engine := newEngine(searcher, provider, mem, Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 2})
	result, err := engine.Answer(context.Background(), "what is in the handbook?")
	require.NoError(t, err)

	assert.Equal(t, "the grounded answer", result.Answer)
	assert.Equal(t, store.QueryFactual, result.QueryType)
	assert.Len(t, result.Candidates, 3)
	assert.Equal(t, 0, result.Refinements)
	assert.False(t, result.Degraded)
	assert.Equal(t, 1, searcher.attempts, "good scores need no refinement")

	history := mem.History()
	require.Len(t, history, 1)
	assert.Equal(t, "what is in the handbook?", history[0].QueryText)
	assert.Equal(t, "the grounded answer", history[0].AnswerText)
}

func TestRefinementLoopTerminates(t *testing.T) {
	// index stub always returns low scores, so every attempt wants another
	// refinement; the budget must still bound the loop
	searcher := &recordingSearcher{results: lowScoreCandidates(2)}
	provider := &scriptedProvider{answer: "best effort answer"}

	engine := newEngine(searcher, provider, memory.New(0), Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 2})
	result, err := engine.Answer(context.Background(), "why is the report in the archive")
	require.NoError(t, err)

	assert.Equal(t, 3, searcher.attempts, "at most MaxRefinements+1 retrieval attempts")
	assert.Equal(t, 2, result.Refinements)
}

func TestZeroCandidatesRefinesOnceThenGenerates(t *testing.T) {
	searcher := &recordingSearcher{results: nil}
	provider := &scriptedProvider{answer: "nothing in the documents covers this"}

	engine := newEngine(searcher, provider, memory.New(0), Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 1})
	result, err := engine.Answer(context.Background(), "what about the missing topic")
	require.NoError(t, err)

	assert.Equal(t, 2, searcher.attempts, "one refinement, then generation")
	assert.Empty(t, result.Candidates)
	// with no candidates, the prompt instructs the model to admit it
	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "No supporting documents were found")
}

func TestRefinementRewritesWorkingQuery(t *testing.T) {
	searcher := &recordingSearcher{results: lowScoreCandidates(1)}
	provider := &scriptedProvider{answer: "ok"}

	engine := newEngine(searcher, provider, memory.New(0), Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 1})
	_, err := engine.Answer(context.Background(), "what is the margin in the report")
	require.NoError(t, err)

	require.Len(t, searcher.queries, 2)
	assert.Equal(t, "what is the margin in the report", searcher.queries[0])
	assert.Equal(t, "what margin report", searcher.queries[1])
}

func TestEmptyRewriteExhaustsRefinement(t *testing.T) {
	// query made entirely of stop words rewrites to "", which must fall
	// through to generation instead of looping
	searcher := &recordingSearcher{results: nil}
	provider := &scriptedProvider{answer: "ok"}

	engine := newEngine(searcher, provider, memory.New(0), Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 3})
	_, err := engine.Answer(context.Background(), "the a an is")
	require.NoError(t, err)

	assert.Equal(t, 1, searcher.attempts)
}

func TestGenerationFailureDegrades(t *testing.T) {
	searcher := &recordingSearcher{results: goodCandidates(3)}
	provider := &scriptedProvider{err: llm.ErrUnavailable}
	mem := memory.New(0)

	engine := newEngine(searcher, provider, mem, Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 2})
	result, err := engine.Answer(context.Background(), "what happened in march")
	require.NoError(t, err, "a degraded result is still a result")

	assert.True(t, result.Degraded)
	assert.Len(t, result.Candidates, 3, "retrieved passages keep their value")
	assert.Contains(t, strings.ToLower(result.Answer), "synthesis failed")

	history := mem.History()
	require.Len(t, history, 1)
	assert.Contains(t, strings.ToLower(history[0].AnswerText), "synthesis failed")
}

func TestQuotaExceededDegradesToo(t *testing.T) {
	searcher := &recordingSearcher{results: goodCandidates(1)}
	provider := &scriptedProvider{err: llm.ErrQuotaExceeded}

	engine := newEngine(searcher, provider, memory.New(0), Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 0})
	result, err := engine.Answer(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, result.Degraded)
}

func TestRetrievalOutageEscalates(t *testing.T) {
	searcher := &recordingSearcher{err: vectorindex.ErrUnavailable}
	provider := &scriptedProvider{answer: "never reached"}
	mem := memory.New(0)

	engine := newEngine(searcher, provider, mem, Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 2})
	result, err := engine.Answer(context.Background(), "anything")

	require.Error(t, err)
	assert.Nil(t, result)

	var failure *StateFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, StateRetrieving, failure.State, "error is tagged with the failing state")
	assert.ErrorIs(t, err, vectorindex.ErrUnavailable)
	assert.Empty(t, mem.History(), "no partial memory mutation on failure")
}

func TestCancellationAtStateBoundary(t *testing.T) {
	searcher := &recordingSearcher{results: goodCandidates(1)}
	provider := &scriptedProvider{answer: "never reached"}
	mem := memory.New(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := newEngine(searcher, provider, mem, Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 2})
	_, err := engine.Answer(ctx, "anything")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, searcher.attempts, "no state may start after cancellation")
	assert.Empty(t, mem.History())
}

func TestUnexpectedGenerationErrorEscalates(t *testing.T) {
	searcher := &recordingSearcher{results: goodCandidates(1)}
	provider := &scriptedProvider{err: errors.New("malformed response")}
	mem := memory.New(0)

	engine := newEngine(searcher, provider, mem, Config{TopK: 5, RelevanceThreshold: 0.5, MaxRefinements: 0})
	_, err := engine.Answer(context.Background(), "anything")

	var failure *StateFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, StateGenerating, failure.State)
	assert.Empty(t, mem.History())
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		ok   bool
	}{
		{name: "analyze to retrieve", from: StateAnalyzing, to: StateRetrieving, ok: true},
		{name: "retrieve to process", from: StateRetrieving, to: StateProcessing, ok: true},
		{name: "retrieve to generate", from: StateRetrieving, to: StateGenerating, ok: true},
		{name: "process to retrieve", from: StateProcessing, to: StateRetrieving, ok: true},
		{name: "process to generate", from: StateProcessing, to: StateGenerating, ok: true},
		{name: "generate to complete", from: StateGenerating, to: StateCompleted, ok: true},
		{name: "analyze cannot skip to generate", from: StateAnalyzing, to: StateGenerating, ok: false},
		{name: "completed is terminal", from: StateCompleted, to: StateAnalyzing, ok: false},
		{name: "error is terminal", from: StateError, to: StateRetrieving, ok: false},
		{name: "generate cannot loop back", from: StateGenerating, to: StateRetrieving, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qc := &queryContext{state: tt.from}
			err := qc.advance(tt.to)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, qc.state)
			} else {
				assert.Error(t, err)
				assert.Equal(t, tt.from, qc.state)
			}
		})
	}
}
