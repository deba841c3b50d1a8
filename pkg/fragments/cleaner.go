// Package fragments repairs residual markup that leaks through extraction:
// {{...}} directive fragments and image-file spans left behind in already
// extracted paragraph text. Cleaners are composable and every pattern uses
// explicitly bounded quantifiers so matching stays linear on any input.
package fragments

import (
	"strings"
)

// Cleaner transforms dirty paragraph text into cleaner text.
type Cleaner interface {
	// Clean rewrites the input. Implementations degrade gracefully: on an
	// internal failure they return the input unchanged.
	Clean(text string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// Chain applies multiple cleaners in sequence.
type Chain struct {
	cleaners []Cleaner
}

// NewChain creates a cleaner that applies the given cleaners in order.
func NewChain(cleaners ...Cleaner) *Chain {
	return &Chain{cleaners: cleaners}
}

// Clean applies all cleaners in sequence.
func (c *Chain) Clean(text string) (string, error) {
	var err error
	for _, cleaner := range c.cleaners {
		text, err = cleaner.Clean(text)
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

// Name returns the names of all chained cleaners.
func (c *Chain) Name() string {
	names := make([]string, len(c.cleaners))
	for i, cleaner := range c.cleaners {
		names[i] = cleaner.Name()
	}
	return "chain(" + strings.Join(names, "->") + ")"
}

// Noop passes text through unchanged. Use it to disable repair while
// keeping the pipeline shape.
type Noop struct{}

// NewNoop creates a pass-through cleaner.
func NewNoop() *Noop { return &Noop{} }

// Clean returns the input unchanged.
func (*Noop) Clean(text string) (string, error) { return text, nil }

// Name returns the cleaner name.
func (*Noop) Name() string { return "noop" }
