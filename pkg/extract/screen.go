package extract

import "strings"

// ScreenPolicy holds the structural pre-scan thresholds. The defaults are
// empirical: articles combining heavy tables with hundreds of templates or
// dozens of images are the ones that make tree construction disproportionate.
// The decision depends only on marker counts, never on nesting shape.
type ScreenPolicy struct {
	MaxTableRows int
	MaxTemplates int
	MaxImages    int
}

// DefaultScreenPolicy returns the stock thresholds.
func DefaultScreenPolicy() ScreenPolicy {
	return ScreenPolicy{
		MaxTableRows: 50,
		MaxTemplates: 200,
		MaxImages:    50,
	}
}

// Screen counts structural markers in the raw text and reports whether the
// article should bypass extraction. This is a heuristic performance gate,
// not a correctness filter: false positives are an accepted trade-off.
func (p ScreenPolicy) Screen(text string) (skip bool, reason string) {
	tableRows := strings.Count(text, "|-")
	templates := strings.Count(text, "{{")
	images := strings.Count(text, "[[Файл:") + strings.Count(text, "[[File:")

	if tableRows > p.MaxTableRows && (templates > p.MaxTemplates || images > p.MaxImages) {
		return true, PlaceholderComplex
	}
	return false, ""
}
