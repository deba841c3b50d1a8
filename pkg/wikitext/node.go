// Package wikitext parses MediaWiki markup into a flat-ish node tree.
//
// The parser is total: any input, however malformed, yields some finite
// tree. Constructs the tokenizer cannot close (an unterminated template,
// a dangling "[[") degrade to plain Text nodes instead of failing.
package wikitext

// Node is a single parsed markup construct. The set of implementations
// is closed; consumers dispatch with a type switch over every variant.
type Node interface {
	node()
}

// Text is a literal run of characters with no markup of its own.
type Text struct {
	Value string
}

// Bold is text wrapped in ''' markers.
type Bold struct {
	Children []Node
}

// Italic is text wrapped in '' markers.
type Italic struct {
	Children []Node
}

// BoldItalic is text wrapped in ''''' markers.
type BoldItalic struct {
	Children []Node
}

// Link is an internal [[target|display]] link. Children hold the display
// label when one is present; Target holds the raw link target.
type Link struct {
	Target   string
	Children []Node
}

// ExternalLink is a bracketed [url label] link. Children hold the label,
// which may be empty for bare [url] links.
type ExternalLink struct {
	Target   string
	Children []Node
}

// Heading is a == section heading ==. Level counts the equals signs,
// clamped to 1..6.
type Heading struct {
	Level    int
	Children []Node
}

// Preformatted is one or more space-indented lines.
type Preformatted struct {
	Children []Node
}

// Tag is a paired or self-closing HTML-style tag such as <ref> or <small>.
// Name is lowercased. Children hold the parsed tag body.
type Tag struct {
	Name     string
	Children []Node
}

// UnorderedListItem is a single *-prefixed list line.
type UnorderedListItem struct {
	Children []Node
}

// OrderedListItem is a single #-prefixed list line.
type OrderedListItem struct {
	Children []Node
}

// DefinitionListItem is a single ;- or :-prefixed list line.
type DefinitionListItem struct {
	Children []Node
}

// Template is a {{...}} transclusion. Raw preserves the full source span,
// braces included, so callers that recognize a directive can expand it.
type Template struct {
	Raw string
}

// Table is a {| ... |} block. Raw preserves the source span.
type Table struct {
	Raw string
}

// Image is a [[Файл:...]] / [[File:...]] inclusion. Raw preserves the
// source span, caption and parameters included.
type Image struct {
	Raw string
}

// Category is a [[Категория:...]] / [[Category:...]] assignment.
type Category struct {
	Raw string
}

// Comment is a <!-- --> comment.
type Comment struct {
	Raw string
}

// MagicWord is a __WORD__ behavior switch.
type MagicWord struct {
	Name string
}

// Redirect is a #REDIRECT / #ПЕРЕНАПРАВЛЕНИЕ directive at the top of a page.
type Redirect struct {
	Target string
}

// Parameter is a {{{...}}} template parameter placeholder.
type Parameter struct {
	Raw string
}

// ParagraphBreak separates paragraphs; produced for blank lines.
type ParagraphBreak struct{}

func (Text) node()               {}
func (Bold) node()               {}
func (Italic) node()             {}
func (BoldItalic) node()         {}
func (Link) node()               {}
func (ExternalLink) node()       {}
func (Heading) node()            {}
func (Preformatted) node()       {}
func (Tag) node()                {}
func (UnorderedListItem) node()  {}
func (OrderedListItem) node()    {}
func (DefinitionListItem) node() {}
func (Template) node()           {}
func (Table) node()              {}
func (Image) node()              {}
func (Category) node()           {}
func (Comment) node()            {}
func (MagicWord) node()          {}
func (Redirect) node()           {}
func (Parameter) node()          {}
func (ParagraphBreak) node()     {}
