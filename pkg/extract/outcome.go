package extract

import (
	"fmt"
	"strings"
)

// PlaceholderComplex is substituted verbatim for articles the structural
// screener refuses to parse. Downstream consumers match on it exactly.
const PlaceholderComplex = "[Article skipped: contains complex nested structures that cause parsing issues]"

// TimeoutPlaceholder returns the exact placeholder substituted for an
// article whose extraction exceeded its wall-clock budget.
func TimeoutPlaceholder(seconds uint32) string {
	return fmt.Sprintf("[Article skipped: parsing timeout after %d seconds]", seconds)
}

// Kind tags the three possible outcomes of extracting one article.
type Kind int

const (
	// KindSuccess means extraction completed and Paragraphs is populated.
	KindSuccess Kind = iota
	// KindTimedOut means the wall-clock budget expired.
	KindTimedOut
	// KindSkipped means the structural screener rejected the raw text.
	KindSkipped
)

// Outcome is the single terminal result of one article's extraction.
// Every article resolves to exactly one Outcome; there is no error state.
type Outcome struct {
	Kind Kind

	// Paragraphs holds the ordered non-empty trimmed paragraphs of a
	// successful extraction.
	Paragraphs []string

	// ElapsedSeconds is the configured budget reported by a timeout.
	ElapsedSeconds uint32

	// Reason is the placeholder for a structurally skipped article.
	Reason string
}

// Success wraps extracted paragraphs.
func Success(paragraphs []string) Outcome {
	return Outcome{Kind: KindSuccess, Paragraphs: paragraphs}
}

// TimedOut marks an article abandoned after the given budget.
func TimedOut(seconds uint32) Outcome {
	return Outcome{Kind: KindTimedOut, ElapsedSeconds: seconds}
}

// Skipped marks an article rejected by the structural screener.
func Skipped(reason string) Outcome {
	return Outcome{Kind: KindSkipped, Reason: reason}
}

// Text renders the outcome as the uniform text field downstream writers
// store: joined paragraphs on success, a fixed placeholder otherwise.
func (o Outcome) Text() string {
	switch o.Kind {
	case KindTimedOut:
		return TimeoutPlaceholder(o.ElapsedSeconds)
	case KindSkipped:
		return o.Reason
	default:
		return strings.Join(o.Paragraphs, "\n\n")
	}
}
