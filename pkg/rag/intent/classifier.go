package intent

import (
	"strings"

	"doc-assistant-be/pkg/store"
)

// Classify buckets a query by its lexical shape. This runs before every
// retrieval pass and must stay cheap: interrogative stems only, no model
// call.
func Classify(query string) store.QueryType {
	lowered := strings.ToLower(query)

	if containsAny(lowered, "what", "which", "who") {
		return store.QueryFactual
	}
	if containsAny(lowered, "why", "how") {
		return store.QueryExplanatory
	}
	if containsAny(lowered, "summarize", "summary", "overview") {
		return store.QuerySummarization
	}
	return store.QueryGeneral
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
