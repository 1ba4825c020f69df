package refine

import "strings"

// stopWords are dropped from a query when retrieval came back weak. The
// list is intentionally small: refinement only needs to strip filler, not
// do real linguistics.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {},
	"is": {}, "are": {}, "was": {}, "were": {},
	"in": {}, "on": {}, "at": {},
}

// Rewrite strips low-information words from query, keeping the remaining
// terms in their original order. The rewrite is deterministic. An empty
// result means the query had nothing left to sharpen; callers treat that as
// refinement exhausted.
func Rewrite(query string) string {
	words := strings.Fields(query)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopWords[strings.ToLower(w)]; stop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
