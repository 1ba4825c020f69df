package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrInvalidConfig is returned by New when chunk size or overlap are
	// outside their valid ranges. This is a setup failure, not a data failure.
	ErrInvalidConfig = errors.New("chunker: invalid configuration")

	// ErrNoProgress indicates an iteration failed to advance the start
	// offset. It means a logic defect, never bad input.
	ErrNoProgress = errors.New("chunker: start offset did not advance")
)

// Mode selects the boundary policy used when splitting text.
type Mode string

const (
	ModeCharacter Mode = "character"
	ModeSentence  Mode = "sentence"
)

// Config holds the splitting parameters. ChunkSize and Overlap are measured
// in runes so multi-byte text chunks the same way everywhere.
type Config struct {
	ChunkSize int
	Overlap   int
	Mode      Mode
}

// Unit is one bounded slice of a document's text. Start and End are rune
// offsets into the original text; units within a document are ordered by
// Index with strictly increasing Start.
type Unit struct {
	Index int
	Text  string
	Start int
	End   int
}

// CharCount returns the rune length of the unit text.
func (u Unit) CharCount() int {
	return u.End - u.Start
}

// Chunker splits raw text into overlapping units.
type Chunker struct {
	cfg Config
}

// New validates the configuration and returns a ready Chunker.
func New(cfg Config) (*Chunker, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, cfg.ChunkSize)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, chunk size), got %d", ErrInvalidConfig, cfg.Overlap)
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeCharacter
	}
	if cfg.Mode != ModeCharacter && cfg.Mode != ModeSentence {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, cfg.Mode)
	}
	return &Chunker{cfg: cfg}, nil
}

// Chunk splits text into ordered units. Empty text yields an empty slice and
// no error. Text shorter than the chunk size yields a single unit spanning
// the whole text.
func (c *Chunker) Chunk(text string) ([]Unit, error) {
	if text == "" {
		return []Unit{}, nil
	}
	if c.cfg.Mode == ModeSentence {
		return c.chunkBySentences(text)
	}
	return c.chunkByCharacters(text)
}

func (c *Chunker) chunkByCharacters(text string) ([]Unit, error) {
	runes := []rune(text)
	total := len(runes)
	step := c.cfg.ChunkSize - c.cfg.Overlap

	var units []Unit
	prevStart := -1
	for start := 0; start < total; start += step {
		if start <= prevStart {
			return nil, fmt.Errorf("%w: character mode stalled at offset %d", ErrNoProgress, start)
		}
		prevStart = start

		end := start + c.cfg.ChunkSize
		if end > total {
			end = total
		}
		units = append(units, Unit{
			Index: len(units),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == total {
			break
		}
	}
	return units, nil
}

// sentenceSpan is a whole sentence located inside the source text.
type sentenceSpan struct {
	start, end int // rune offsets
}

func (c *Chunker) chunkBySentences(text string) ([]Unit, error) {
	runes := []rune(text)
	sentences := splitSentences(runes)
	if len(sentences) == 0 {
		return []Unit{}, nil
	}

	var units []Unit
	prevStart := -1
	i := 0
	for i < len(sentences) {
		start := i
		length := 0
		for i < len(sentences) && length < c.cfg.ChunkSize {
			length += sentences[i].end - sentences[i].start
			i++
		}
		first := sentences[start]
		last := sentences[i-1]
		if first.start <= prevStart {
			return nil, fmt.Errorf("%w: sentence mode stalled at offset %d", ErrNoProgress, first.start)
		}
		prevStart = first.start

		units = append(units, Unit{
			Index: len(units),
			Text:  strings.TrimSpace(string(runes[first.start:last.end])),
			Start: first.start,
			End:   last.end,
		})
		if i >= len(sentences) {
			break
		}

		// Back up over trailing sentences until roughly Overlap characters are
		// re-covered, but never past the first sentence of the unit we just
		// emitted: the next start must strictly advance.
		back := i
		covered := 0
		for back > start+1 && covered < c.cfg.Overlap {
			covered += sentences[back-1].end - sentences[back-1].start
			back--
		}
		i = back
	}
	return units, nil
}

// splitSentences finds whole sentences: runs of text ending at terminal
// punctuation followed by whitespace (or end of text). Text without any
// terminal punctuation is a single sentence.
func splitSentences(runes []rune) []sentenceSpan {
	var spans []sentenceSpan
	start := 0
	for pos := 0; pos < len(runes); pos++ {
		if !isTerminal(runes[pos]) {
			continue
		}
		// absorb consecutive terminals ("...", "?!")
		end := pos
		for end+1 < len(runes) && isTerminal(runes[end+1]) {
			end++
		}
		if end+1 < len(runes) && !unicode.IsSpace(runes[end+1]) {
			pos = end
			continue
		}
		spans = append(spans, sentenceSpan{start: start, end: end + 1})
		pos = end
		start = pos + 1
		for start < len(runes) && unicode.IsSpace(runes[start]) {
			start++
		}
		pos = start - 1
	}
	if start < len(runes) {
		// trailing text without terminal punctuation
		if trimmed := strings.TrimSpace(string(runes[start:])); trimmed != "" {
			spans = append(spans, sentenceSpan{start: start, end: len(runes)})
		}
	}
	return spans
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
