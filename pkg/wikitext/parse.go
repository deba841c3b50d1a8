package wikitext

import (
	"context"
	"strings"
)

const (
	// Templates and links nested deeper than this are left as literal text.
	maxBraceDepth = 64

	// A single {{...}} or [[...]] span longer than this never closes.
	maxSpanScan = 256 * 1024

	// Cancellation is polled once per this many scanned bytes.
	cancelStride = 64 * 1024
)

// Parse tokenizes wikitext into a sequence of nodes. It never fails: every
// input yields a finite tree, with unclosable constructs degrading to Text.
// When ctx is cancelled mid-scan, Parse returns the nodes built so far.
func Parse(ctx context.Context, text string) []Node {
	p := &parser{ctx: ctx, src: text}
	return p.parseBlocks()
}

type parser struct {
	ctx     context.Context
	src     string
	scanned int // bytes scanned since the last cancellation poll
}

// cancelled polls ctx at most once per cancelStride bytes of progress.
func (p *parser) cancelled(progress int) bool {
	p.scanned += progress
	if p.scanned < cancelStride {
		return false
	}
	p.scanned = 0
	return p.ctx.Err() != nil
}

func (p *parser) parseBlocks() []Node {
	var nodes []Node
	i := 0
	first := true
	for i < len(p.src) {
		if p.ctx.Err() != nil {
			return nodes
		}
		end, next := lineSpan(p.src, i)
		line := p.src[i:end]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			nodes = append(nodes, ParagraphBreak{})
			i = next

		case first && isRedirectLine(trimmed):
			nodes = append(nodes, Redirect{Target: redirectTarget(trimmed)})
			i = next

		case line[0] == '=' && headingLevel(trimmed) > 0:
			lvl := headingLevel(trimmed)
			inner := strings.TrimSpace(trimmed[lvl : len(trimmed)-lvl])
			nodes = append(nodes, Heading{Level: lvl, Children: p.parseInline(inner)})
			i = next

		case strings.HasPrefix(line, "{|"):
			raw, after := p.scanTable(i)
			nodes = append(nodes, Table{Raw: raw})
			i = after

		case line[0] == '*' || line[0] == '#':
			item := p.parseInline(strings.TrimSpace(strings.TrimLeft(line, "*#;:")))
			if line[0] == '*' {
				nodes = append(nodes, UnorderedListItem{Children: item})
			} else {
				nodes = append(nodes, OrderedListItem{Children: item})
			}
			i = next

		case line[0] == ';' || line[0] == ':':
			item := p.parseInline(strings.TrimSpace(strings.TrimLeft(line, "*#;:")))
			nodes = append(nodes, DefinitionListItem{Children: item})
			i = next

		case line[0] == ' ':
			raw, after := p.scanPreformatted(i)
			nodes = append(nodes, Preformatted{Children: []Node{Text{Value: raw}}})
			i = after

		default:
			flow, after := p.inline(p.src, i, true)
			nodes = append(nodes, flow...)
			i = after
		}
		first = false
	}
	return nodes
}

// lineSpan returns the end of the line starting at i (exclusive of the
// newline) and the start of the following line.
func lineSpan(s string, i int) (end, next int) {
	if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
		return i + nl, i + nl + 1
	}
	return len(s), len(s)
}

// headingLevel reports the heading depth of a trimmed line, or 0 when the
// line is not a well-formed heading.
func headingLevel(trimmed string) int {
	if len(trimmed) < 3 || trimmed[0] != '=' || trimmed[len(trimmed)-1] != '=' {
		return 0
	}
	lead := 0
	for lead < len(trimmed) && trimmed[lead] == '=' {
		lead++
	}
	trail := 0
	for trail < len(trimmed) && trimmed[len(trimmed)-1-trail] == '=' {
		trail++
	}
	lvl := lead
	if trail < lvl {
		lvl = trail
	}
	if lvl > 6 {
		lvl = 6
	}
	if 2*lvl >= len(trimmed) {
		return 0
	}
	return lvl
}

func isRedirectLine(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	rest := trimmed[1:]
	return hasFoldPrefix(rest, "REDIRECT") || hasFoldPrefix(rest, "ПЕРЕНАПРАВЛЕНИЕ")
}

func redirectTarget(trimmed string) string {
	open := strings.Index(trimmed, "[[")
	if open < 0 {
		return ""
	}
	cl := strings.Index(trimmed[open:], "]]")
	if cl < 0 {
		return strings.TrimSpace(trimmed[open+2:])
	}
	target := trimmed[open+2 : open+cl]
	if pipe := strings.IndexByte(target, '|'); pipe >= 0 {
		target = target[:pipe]
	}
	return strings.TrimSpace(target)
}

// hasFoldPrefix is a case-insensitive strings.HasPrefix over runes.
func hasFoldPrefix(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return strings.EqualFold(s[:len(prefix)], prefix)
}

// scanTable consumes a {| ... |} block starting at a line start, tracking
// nested tables by their line-leading markers.
func (p *parser) scanTable(start int) (string, int) {
	depth := 0
	i := start
	for i < len(p.src) {
		if p.ctx.Err() != nil {
			break
		}
		end, next := lineSpan(p.src, i)
		line := strings.TrimSpace(p.src[i:end])
		if strings.HasPrefix(line, "{|") {
			depth++
		} else if strings.HasPrefix(line, "|}") {
			depth--
			if depth <= 0 {
				return p.src[start:end], next
			}
		}
		i = next
	}
	return p.src[start:], len(p.src)
}

// scanPreformatted consumes consecutive space-indented lines.
func (p *parser) scanPreformatted(start int) (string, int) {
	var b strings.Builder
	i := start
	for i < len(p.src) {
		end, next := lineSpan(p.src, i)
		line := p.src[i:end]
		if !strings.HasPrefix(line, " ") || strings.TrimSpace(line) == "" {
			break
		}
		b.WriteString(line[1:])
		b.WriteByte('\n')
		i = next
	}
	return b.String(), i
}

func (p *parser) parseInline(s string) []Node {
	nodes, _ := p.inline(s, 0, false)
	return nodes
}

// inline parses inline markup in s starting at pos. In flow mode
// (stopAtNewline) scanning ends after the first top-level newline, which
// lets the block loop re-examine the next line start.
func (p *parser) inline(s string, pos int, stopAtNewline bool) ([]Node, int) {
	var nodes []Node
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, Text{Value: lit.String()})
			lit.Reset()
		}
	}

	i := pos
scan:
	for i < len(s) {
		if p.cancelled(1) {
			break
		}
		c := s[i]
		switch {
		case c == '\n' && stopAtNewline:
			lit.WriteByte('\n')
			i++
			break scan

		case strings.HasPrefix(s[i:], "<!--"):
			flush()
			raw, end := scanComment(s, i)
			nodes = append(nodes, Comment{Raw: raw})
			i = end

		case strings.HasPrefix(s[i:], "{{{"):
			if raw, end, ok := p.scanBraces(s, i, "{{{", "}}}"); ok {
				flush()
				nodes = append(nodes, Parameter{Raw: raw})
				i = end
			} else {
				lit.WriteString("{{{")
				i += 3
			}

		case strings.HasPrefix(s[i:], "{{"):
			if raw, end, ok := p.scanBraces(s, i, "{{", "}}"); ok {
				flush()
				nodes = append(nodes, Template{Raw: raw})
				i = end
			} else {
				lit.WriteString("{{")
				i += 2
			}

		case strings.HasPrefix(s[i:], "[["):
			if node, end, ok := p.scanBracketLink(s, i); ok {
				flush()
				nodes = append(nodes, node)
				i = end
			} else {
				lit.WriteString("[[")
				i += 2
			}

		case c == '[' && isExternalLinkStart(s[i:]):
			if node, end, ok := p.scanExternalLink(s, i); ok {
				flush()
				nodes = append(nodes, node)
				i = end
			} else {
				lit.WriteByte('[')
				i++
			}

		case strings.HasPrefix(s[i:], "''"):
			if node, end, ok := p.scanEmphasis(s, i); ok {
				flush()
				nodes = append(nodes, node)
				i = end
			} else {
				run := quoteRun(s, i)
				lit.WriteString(s[i : i+run])
				i += run
			}

		case c == '<':
			if node, end, ok := p.scanTag(s, i); ok {
				flush()
				nodes = append(nodes, node)
				i = end
			} else {
				lit.WriteByte('<')
				i++
			}

		case strings.HasPrefix(s[i:], "__"):
			if name, end, ok := scanMagicWord(s, i); ok {
				flush()
				nodes = append(nodes, MagicWord{Name: name})
				i = end
			} else {
				lit.WriteString("__")
				i += 2
			}

		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return nodes, i
}

func scanComment(s string, i int) (string, int) {
	if end := strings.Index(s[i+4:], "-->"); end >= 0 {
		stop := i + 4 + end + 3
		return s[i:stop], stop
	}
	return s[i:], len(s)
}

// scanBraces matches a balanced open/close pair starting at i. The window
// is bounded so a never-closing span cannot force a full-input rescan per
// occurrence.
func (p *parser) scanBraces(s string, i int, open, cl string) (string, int, bool) {
	depth := 0
	j := i
	limit := i + maxSpanScan
	if limit > len(s) {
		limit = len(s)
	}
	for j < limit {
		if p.cancelled(1) {
			return "", 0, false
		}
		switch {
		case strings.HasPrefix(s[j:], open):
			depth++
			if depth > maxBraceDepth {
				return "", 0, false
			}
			j += len(open)
		case strings.HasPrefix(s[j:], cl):
			depth--
			j += len(cl)
			if depth == 0 {
				return s[i:j], j, true
			}
		default:
			j++
		}
	}
	return "", 0, false
}

var imagePrefixes = []string{"Файл:", "File:", "Изображение:", "Image:"}
var categoryPrefixes = []string{"Категория:", "Category:"}

func hasAnyFoldPrefix(s string, prefixes []string) bool {
	for _, pre := range prefixes {
		if hasFoldPrefix(s, pre) {
			return true
		}
	}
	return false
}

func (p *parser) scanBracketLink(s string, i int) (Node, int, bool) {
	raw, end, ok := p.scanBraces(s, i, "[[", "]]")
	if !ok {
		return nil, 0, false
	}
	inner := raw[2 : len(raw)-2]
	switch {
	case hasAnyFoldPrefix(inner, imagePrefixes):
		return Image{Raw: raw}, end, true
	case hasAnyFoldPrefix(inner, categoryPrefixes):
		return Category{Raw: raw}, end, true
	}
	target := inner
	var children []Node
	if pipe := strings.IndexByte(inner, '|'); pipe >= 0 {
		target = inner[:pipe]
		children = p.parseInline(inner[pipe+1:])
	}
	return Link{Target: strings.TrimSpace(target), Children: children}, end, true
}

func isExternalLinkStart(s string) bool {
	if len(s) < 2 || s[0] != '[' {
		return false
	}
	rest := s[1:]
	return hasFoldPrefix(rest, "http://") || hasFoldPrefix(rest, "https://") || hasFoldPrefix(rest, "ftp://")
}

func (p *parser) scanExternalLink(s string, i int) (Node, int, bool) {
	stop := strings.IndexAny(s[i+1:], "]\n")
	if stop < 0 || s[i+1+stop] != ']' {
		return nil, 0, false
	}
	inner := s[i+1 : i+1+stop]
	end := i + 1 + stop + 1
	if sp := strings.IndexByte(inner, ' '); sp >= 0 {
		label := strings.TrimSpace(inner[sp+1:])
		return ExternalLink{Target: inner[:sp], Children: p.parseInline(label)}, end, true
	}
	return ExternalLink{Target: inner}, end, true
}

func quoteRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '\'' {
		n++
	}
	return n
}

func (p *parser) scanEmphasis(s string, i int) (Node, int, bool) {
	run := quoteRun(s, i)
	m := 2
	switch {
	case run >= 5:
		m = 5
	case run >= 3:
		m = 3
	}
	marker := s[i : i+m]

	// Emphasis never crosses a line boundary.
	region := s[i+m:]
	if nl := strings.IndexByte(region, '\n'); nl >= 0 {
		region = region[:nl]
	}
	cl := strings.Index(region, marker)
	if cl < 0 {
		return nil, 0, false
	}
	children := p.parseInline(region[:cl])
	end := i + m + cl + m
	switch m {
	case 5:
		return BoldItalic{Children: children}, end, true
	case 3:
		return Bold{Children: children}, end, true
	default:
		return Italic{Children: children}, end, true
	}
}

var voidTags = map[string]bool{"br": true, "hr": true, "wbr": true}

func (p *parser) scanTag(s string, i int) (Node, int, bool) {
	j := i + 1
	start := j
	for j < len(s) && isTagNameByte(s[j]) {
		j++
	}
	if j == start {
		return nil, 0, false
	}
	name := strings.ToLower(s[start:j])

	gt := strings.IndexByte(s[j:], '>')
	if gt < 0 {
		return nil, 0, false
	}
	openEnd := j + gt + 1
	if strings.HasSuffix(s[j:openEnd], "/>") || voidTags[name] {
		return Tag{Name: name}, openEnd, true
	}

	contentEnd, tagEnd, ok := indexCloseTag(s, openEnd, name)
	if !ok {
		// Dangling open tag: drop the tag itself, keep its trailing text.
		return Tag{Name: name}, openEnd, true
	}
	content := s[openEnd:contentEnd]
	var children []Node
	if name == "nowiki" || name == "pre" || name == "math" {
		children = []Node{Text{Value: content}}
	} else {
		children = p.parseInline(content)
	}
	return Tag{Name: name, Children: children}, tagEnd, true
}

func isTagNameByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func indexCloseTag(s string, from int, name string) (contentEnd, tagEnd int, ok bool) {
	for j := from; j+2+len(name) <= len(s); j++ {
		if s[j] != '<' || s[j+1] != '/' {
			continue
		}
		if !strings.EqualFold(s[j+2:j+2+len(name)], name) {
			continue
		}
		gt := strings.IndexByte(s[j:], '>')
		if gt < 0 {
			return 0, 0, false
		}
		return j, j + gt + 1, true
	}
	return 0, 0, false
}

func scanMagicWord(s string, i int) (string, int, bool) {
	j := i + 2
	for j < len(s) && s[j] >= 'A' && s[j] <= 'Z' {
		j++
	}
	if j == i+2 || !strings.HasPrefix(s[j:], "__") {
		return "", 0, false
	}
	return s[i+2 : j], j + 2, true
}
