package memory

import (
	"fmt"
	"sync"
	"testing"

	"doc-assistant-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(query string) store.Turn {
	return store.Turn{
		QueryText: query,
		QueryType: store.QueryGeneral,
		Candidates: []store.Candidate{
			{UnitId: uuid.New(), SourceDocument: "doc.txt", Text: "passage", Score: 0.9, Rank: 1},
		},
		AnswerText: "answer to " + query,
	}
}

func TestAppendThenHistory(t *testing.T) {
	m := New(0)
	first := turn("first")
	m.Append(first)

	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, "first", history[0].QueryText)
	assert.Equal(t, "answer to first", history[0].AnswerText)
	assert.False(t, history[0].CreatedAt.IsZero(), "append stamps missing timestamps")
}

func TestResetThenHistoryEmpty(t *testing.T) {
	m := New(0)
	m.Append(turn("one"))
	m.Append(turn("two"))
	m.Reset()
	assert.Empty(t, m.History())
	assert.Equal(t, 0, m.Len())
}

func TestHistoryPreservesInsertionOrder(t *testing.T) {
	m := New(0)
	for i := 0; i < 5; i++ {
		m.Append(turn(fmt.Sprintf("q%d", i)))
	}
	history := m.History()
	require.Len(t, history, 5)
	for i, h := range history {
		assert.Equal(t, fmt.Sprintf("q%d", i), h.QueryText)
	}
}

func TestHistoryReturnsSnapshots(t *testing.T) {
	m := New(0)
	m.Append(turn("original"))

	history := m.History()
	history[0].AnswerText = "tampered"
	history[0].Candidates[0].Text = "tampered"

	fresh := m.History()
	assert.Equal(t, "answer to original", fresh[0].AnswerText)
	assert.Equal(t, "passage", fresh[0].Candidates[0].Text)
}

func TestAppendCopiesCallerCandidates(t *testing.T) {
	m := New(0)
	in := turn("shared slice")
	m.Append(in)

	in.Candidates[0].Text = "mutated after append"
	assert.Equal(t, "passage", m.History()[0].Candidates[0].Text)
}

func TestFIFOCap(t *testing.T) {
	m := New(3)
	for i := 0; i < 5; i++ {
		m.Append(turn(fmt.Sprintf("q%d", i)))
	}

	history := m.History()
	require.Len(t, history, 3)
	assert.Equal(t, "q2", history[0].QueryText)
	assert.Equal(t, "q3", history[1].QueryText)
	assert.Equal(t, "q4", history[2].QueryText)
}

func TestConcurrentAppendHistoryReset(t *testing.T) {
	m := New(0)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Append(turn(fmt.Sprintf("w%d-%d", n, j)))
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				for _, h := range m.History() {
					// every observed turn is whole
					assert.NotEmpty(t, h.QueryText)
					assert.NotEmpty(t, h.AnswerText)
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 10; j++ {
			m.Reset()
		}
	}()

	wg.Wait()
}
