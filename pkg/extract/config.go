package extract

// Config controls per-article extraction. It is immutable for the duration
// of a run and read by every stage.
type Config struct {
	// SkipLists drops bullet, numbered and definition list items entirely,
	// children included.
	SkipLists bool

	// TimeoutSeconds bounds one article's wall-clock extraction cost.
	// Zero disables the bound and the article runs to completion.
	TimeoutSeconds uint32

	// ExpandTemplates renders the fixed date/number directive catalog to
	// literal text instead of discarding those directives.
	ExpandTemplates bool
}

// DefaultConfig returns the standard extraction settings.
func DefaultConfig() Config {
	return Config{
		SkipLists:       false,
		TimeoutSeconds:  30,
		ExpandTemplates: true,
	}
}
