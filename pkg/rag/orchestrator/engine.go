package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doc-assistant-be/pkg/llm"
	"doc-assistant-be/pkg/rag/intent"
	"doc-assistant-be/pkg/rag/memory"
	"doc-assistant-be/pkg/rag/prompt"
	"doc-assistant-be/pkg/rag/refine"
	"doc-assistant-be/pkg/store"

	"go.uber.org/zap"
)

// Searcher is the retrieval capability the engine drives. The concrete
// retriever satisfies it; tests substitute stubs.
type Searcher interface {
	Retrieve(ctx context.Context, query string, topK int) ([]store.Candidate, error)
}

// Config bundles the knobs of the control loop. One value is built from
// application configuration and injected at construction.
type Config struct {
	TopK               int
	RelevanceThreshold float64
	MaxRefinements     int
	MaxAnswerTokens    int
}

// Result is what one completed query produces.
type Result struct {
	Answer      string
	QueryType   store.QueryType
	Candidates  []store.Candidate
	Refinements int
	// Degraded is set when retrieval succeeded but synthesis failed; the
	// answer then states the failure instead of fabricating content.
	Degraded bool
}

// Engine drives one query through analyze, retrieve, refine, and generate.
// Each Answer call owns its queryContext; many calls may run concurrently
// against the same shared Memory.
type Engine struct {
	searcher Searcher
	provider llm.Provider
	prompts  *prompt.Builder
	mem      *memory.Memory
	cfg      Config
	logger   *zap.Logger
}

func NewEngine(searcher Searcher, provider llm.Provider, prompts *prompt.Builder, mem *memory.Memory, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.MaxRefinements < 0 {
		cfg.MaxRefinements = 0
	}
	return &Engine{
		searcher: searcher,
		provider: provider,
		prompts:  prompts,
		mem:      mem,
		cfg:      cfg,
		logger:   logger,
	}
}

// Answer runs the full control loop for one query. Cancellation is honored
// at state boundaries only: a state either runs to completion or is never
// entered, and Memory is mutated exactly once, by a successful or degraded
// generation.
func (e *Engine) Answer(ctx context.Context, query string) (*Result, error) {
	qc := newQueryContext(query)

	for {
		if err := ctx.Err(); err != nil {
			return nil, e.fail(qc, err)
		}

		switch qc.state {
		case StateAnalyzing:
			qc.queryType = intent.Classify(qc.queryText)
			e.logger.Debug("query classified",
				zap.String("query_type", string(qc.queryType)))
			if err := qc.advance(StateRetrieving); err != nil {
				return nil, e.fail(qc, err)
			}

		case StateRetrieving:
			candidates, err := e.searcher.Retrieve(ctx, qc.workingQuery, e.cfg.TopK)
			if err != nil {
				return nil, e.fail(qc, err)
			}
			qc.candidates = candidates

			next := StateGenerating
			if e.needsRefinement(qc) {
				next = StateProcessing
			}
			if err := qc.advance(next); err != nil {
				return nil, e.fail(qc, err)
			}

		case StateProcessing:
			rewritten := refine.Rewrite(qc.workingQuery)
			qc.refinements++
			if rewritten == "" {
				// nothing left to sharpen: fall through to generation with
				// whatever we have
				e.logger.Debug("refinement exhausted, rewrite is empty")
				if err := qc.advance(StateGenerating); err != nil {
					return nil, e.fail(qc, err)
				}
				continue
			}
			e.logger.Debug("query refined",
				zap.Int("refinement", qc.refinements),
				zap.String("working_query", rewritten))
			qc.workingQuery = rewritten
			if err := qc.advance(StateRetrieving); err != nil {
				return nil, e.fail(qc, err)
			}

		case StateGenerating:
			result, err := e.generate(ctx, qc)
			if err != nil {
				return nil, e.fail(qc, err)
			}
			if err := qc.advance(StateCompleted); err != nil {
				return nil, e.fail(qc, err)
			}
			return result, nil

		default:
			return nil, e.fail(qc, fmt.Errorf("engine entered unexpected state %s", qc.state))
		}
	}
}

// needsRefinement decides whether another retrieval pass is worth it:
// weak results and budget remaining. Once the budget is spent the loop is
// forced into generation, so at most MaxRefinements+1 retrieval attempts
// ever run.
func (e *Engine) needsRefinement(qc *queryContext) bool {
	if qc.refinements >= e.cfg.MaxRefinements {
		return false
	}
	if len(qc.candidates) == 0 {
		return true
	}
	var sum float64
	for _, c := range qc.candidates {
		sum += c.Score
	}
	return sum/float64(len(qc.candidates)) < e.cfg.RelevanceThreshold
}

func (e *Engine) generate(ctx context.Context, qc *queryContext) (*Result, error) {
	promptText := e.prompts.Build(qc.queryText, qc.candidates)

	opts := []llm.Option{}
	if e.cfg.MaxAnswerTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(e.cfg.MaxAnswerTokens))
	}

	answer, err := e.provider.Generate(ctx, promptText, opts...)
	degraded := false
	if err != nil {
		if !errors.Is(err, llm.ErrUnavailable) && !errors.Is(err, llm.ErrQuotaExceeded) {
			return nil, err
		}
		// the retrieved passages still have value on their own; return them
		// with an honest notice instead of escalating
		e.logger.Warn("generation capability failed, degrading", zap.Error(err))
		degraded = true
		answer = degradedAnswer(qc)
	}

	e.mem.Append(store.Turn{
		QueryText:  qc.queryText,
		QueryType:  qc.queryType,
		Candidates: qc.candidates,
		AnswerText: answer,
		CreatedAt:  time.Now(),
	})

	e.logger.Info("query answered",
		zap.String("query_type", string(qc.queryType)),
		zap.Int("candidates", len(qc.candidates)),
		zap.Int("refinements", qc.refinements),
		zap.Bool("degraded", degraded))

	return &Result{
		Answer:      answer,
		QueryType:   qc.queryType,
		Candidates:  qc.candidates,
		Refinements: qc.refinements,
		Degraded:    degraded,
	}, nil
}

func degradedAnswer(qc *queryContext) string {
	if len(qc.candidates) == 0 {
		return "Answer synthesis failed and no supporting passages were retrieved. Please try again later."
	}
	return fmt.Sprintf(
		"Answer synthesis failed, so no generated answer is available. %d retrieved passages are included below; they may still contain what you were looking for.",
		len(qc.candidates))
}

// fail marks the context as failed and tags the error with the state that
// raised it. The context is discarded afterwards; Memory is untouched.
func (e *Engine) fail(qc *queryContext, err error) error {
	failed := qc.state
	qc.state = StateError
	e.logger.Error("query failed",
		zap.String("state", string(failed)),
		zap.Error(err))
	return &StateFailure{State: failed, Err: err}
}
