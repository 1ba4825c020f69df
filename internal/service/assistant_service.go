package service

import (
	"context"
	"fmt"
	"time"

	"doc-assistant-be/internal/dto"
	repomem "doc-assistant-be/internal/repository/memory"
	"doc-assistant-be/pkg/events"
	pktNats "doc-assistant-be/pkg/nats"
	"doc-assistant-be/pkg/rag/memory"
	"doc-assistant-be/pkg/rag/orchestrator"
	"doc-assistant-be/pkg/store"
)

type IAssistantService interface {
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
	Memory(ctx context.Context) (*dto.MemoryResponse, error)
	ResetMemory(ctx context.Context) error
}

type assistantService struct {
	engine         *orchestrator.Engine
	mem            *memory.Memory
	answerCache    *repomem.AnswerCache
	eventPublisher *pktNats.Publisher
}

func NewAssistantService(
	engine *orchestrator.Engine,
	mem *memory.Memory,
	answerCache *repomem.AnswerCache,
	eventPublisher *pktNats.Publisher,
) IAssistantService {
	return &assistantService{
		engine:         engine,
		mem:            mem,
		answerCache:    answerCache,
		eventPublisher: eventPublisher,
	}
}

func (s *assistantService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	if s.answerCache != nil {
		if cached, found := s.answerCache.Get(ctx, req.Query); found {
			cached.Cached = true
			return cached, nil
		}
	}

	result, err := s.engine.Answer(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	resp := &dto.AskResponse{
		Answer:      result.Answer,
		QueryType:   string(result.QueryType),
		Passages:    toCitedPassages(result.Candidates),
		Refinements: result.Refinements,
		Degraded:    result.Degraded,
	}

	// Degraded answers are not worth caching, the provider may recover
	// before the TTL runs out.
	if s.answerCache != nil && !result.Degraded {
		s.answerCache.Set(ctx, req.Query, resp)
	}

	return resp, nil
}

func (s *assistantService) Memory(ctx context.Context) (*dto.MemoryResponse, error) {
	turns := s.mem.History()
	resp := &dto.MemoryResponse{
		Turns: make([]dto.MemoryTurnResponse, len(turns)),
	}
	for i, turn := range turns {
		resp.Turns[i] = dto.MemoryTurnResponse{
			QueryText:  turn.QueryText,
			QueryType:  string(turn.QueryType),
			AnswerText: turn.AnswerText,
			Passages:   toCitedPassages(turn.Candidates),
			CreatedAt:  turn.CreatedAt,
		}
	}
	return resp, nil
}

func (s *assistantService) ResetMemory(ctx context.Context) error {
	s.mem.Reset()

	if s.answerCache != nil {
		s.answerCache.Flush(ctx)
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type:       events.TypeMemoryReset,
			Data:       map[string]interface{}{},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.TypeMemoryReset, err)
		}
	}

	return nil
}

func toCitedPassages(candidates []store.Candidate) []dto.CitedPassage {
	passages := make([]dto.CitedPassage, len(candidates))
	for i, c := range candidates {
		passages[i] = dto.CitedPassage{
			UnitId:     c.UnitId,
			SourceName: c.SourceDocument,
			Text:       c.Text,
			Score:      c.Score,
			Rank:       c.Rank,
		}
	}
	return passages
}
