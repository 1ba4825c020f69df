package orchestrator

import (
	"fmt"

	"doc-assistant-be/pkg/store"
)

// State identifies one phase of a query's pass through the engine. The set
// is closed; transitions outside the table below indicate a logic defect.
type State string

const (
	StateAnalyzing  State = "ANALYZING"
	StateRetrieving State = "RETRIEVING"
	StateProcessing State = "PROCESSING"
	StateGenerating State = "GENERATING"
	StateCompleted  State = "COMPLETED"
	StateError      State = "ERROR"
)

// transitions is the explicit table of legal moves. StateError is reachable
// from any non-terminal state and is handled separately in fail().
var transitions = map[State][]State{
	StateAnalyzing:  {StateRetrieving},
	StateRetrieving: {StateProcessing, StateGenerating},
	StateProcessing: {StateRetrieving, StateGenerating},
	StateGenerating: {StateCompleted},
	StateCompleted:  {},
	StateError:      {},
}

// queryContext carries one query's transient state through the machine. It
// is exclusively owned by the Answer call that created it and is discarded
// on completion or error, so it needs no locking.
type queryContext struct {
	state        State
	queryText    string
	workingQuery string
	queryType    store.QueryType
	candidates   []store.Candidate
	refinements  int
}

func newQueryContext(query string) *queryContext {
	return &queryContext{
		state:        StateAnalyzing,
		queryText:    query,
		workingQuery: query,
	}
}

// advance moves to the next state, enforcing the transition table.
func (qc *queryContext) advance(to State) error {
	for _, allowed := range transitions[qc.state] {
		if allowed == to {
			qc.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", qc.state, to)
}

// StateFailure tags an error with the state that raised it.
type StateFailure struct {
	State State
	Err   error
}

func (e *StateFailure) Error() string {
	return fmt.Sprintf("state %s: %v", e.State, e.Err)
}

func (e *StateFailure) Unwrap() error {
	return e.Err
}
