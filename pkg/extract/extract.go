// Package extract turns raw wikitext into clean paragraph text. One article
// in, exactly one Outcome out: extracted paragraphs, a timeout placeholder,
// or a structural-skip placeholder. The node policy lives here; grammar
// parsing is delegated to pkg/wikitext and consumed only through its node
// contract.
package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wikiplain/wikiplain/pkg/fragments"
	"github.com/wikiplain/wikiplain/pkg/wikitext"
)

// Extractor runs the per-article pipeline: structural screen, then under a
// wall-clock budget: parse, policy walk, directive expansion, image-fragment
// scrub, section collapse, paragraph assembly.
type Extractor struct {
	cfg    Config
	screen ScreenPolicy
	scrub  fragments.Cleaner
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithScreenPolicy overrides the structural screening thresholds.
func WithScreenPolicy(p ScreenPolicy) Option {
	return func(e *Extractor) { e.screen = p }
}

// New creates an Extractor with the given config.
func New(cfg Config, opts ...Option) *Extractor {
	e := &Extractor{
		cfg:    cfg,
		screen: DefaultScreenPolicy(),
		scrub:  fragments.NewImageFragments(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract resolves one article. It never returns an error: pathological
// inputs resolve to a skip or timeout outcome instead.
func (e *Extractor) Extract(ctx context.Context, raw string) Outcome {
	if skip, reason := e.screen.Screen(raw); skip {
		return Skipped(reason)
	}
	return e.withTimeout(ctx, raw)
}

// ExtractBatch resolves a batch of articles concurrently, preserving
// indexes. Articles share no state; each result slot is written once.
func (e *Extractor) ExtractBatch(ctx context.Context, texts []string, workers int) []Outcome {
	if workers < 1 {
		workers = 1
	}
	out := make([]Outcome, len(texts))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i] = e.Extract(ctx, text)
		}(i, text)
	}

	wg.Wait()
	return out
}

// extract is the inner pipeline run under the timeout envelope.
func (e *Extractor) extract(ctx context.Context, raw string) Outcome {
	nodes := wikitext.Parse(ctx, raw)

	w := &walker{ctx: ctx, cfg: e.cfg}
	w.collect(nodes, &w.b)
	w.b.flush()

	paras := w.b.paras[:0]
	for _, p := range w.b.paras {
		text := p.text
		if e.cfg.ExpandTemplates {
			text = ExpandText(text)
		}
		if scrubbed, err := e.scrub.Clean(text); err == nil {
			text = scrubbed
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		paras = append(paras, paragraph{level: p.level, text: text})
	}

	return Success(collapseSections(paras))
}

// paragraph is one assembled block; level is non-zero for headings.
type paragraph struct {
	level int
	text  string
}

// builder assembles paragraphs from the walk. Consecutive separators
// collapse because empty buffers are never flushed.
type builder struct {
	paras []paragraph
	cur   strings.Builder
}

func (b *builder) flush() {
	text := strings.TrimSpace(b.cur.String())
	b.cur.Reset()
	if text != "" {
		b.paras = append(b.paras, paragraph{text: text})
	}
}

func (b *builder) heading(level int, text string) {
	b.flush()
	if text = strings.TrimSpace(text); text != "" {
		b.paras = append(b.paras, paragraph{level: level, text: text})
	}
}

type walker struct {
	ctx   context.Context
	cfg   Config
	b     builder
	count int
}

// halted polls ctx once every 256 visited nodes so a timed-out walk
// actually stops instead of burning CPU after the caller gave up.
func (w *walker) halted() bool {
	w.count++
	if w.count&0xff != 0 {
		return false
	}
	return w.ctx.Err() != nil
}

// collect applies the per-variant emission policy, depth-first, pre-order.
// The variant set is closed; an unknown node is a programming error and
// fails loudly rather than being silently skipped.
func (w *walker) collect(nodes []wikitext.Node, b *builder) {
	for _, n := range nodes {
		if w.halted() {
			return
		}
		switch n := n.(type) {
		case wikitext.Text:
			b.cur.WriteString(n.Value)

		case wikitext.Bold:
			w.collect(n.Children, b)
		case wikitext.Italic:
			w.collect(n.Children, b)
		case wikitext.BoldItalic:
			w.collect(n.Children, b)

		case wikitext.Link:
			// Display label when present, bare target otherwise.
			if len(n.Children) > 0 {
				w.collect(n.Children, b)
			} else {
				b.cur.WriteString(n.Target)
			}

		case wikitext.ExternalLink:
			// Label only; a bare URL contributes nothing.
			w.collect(n.Children, b)

		case wikitext.Heading:
			b.heading(n.Level, w.inlineText(n.Children))

		case wikitext.Preformatted:
			w.collect(n.Children, b)

		case wikitext.Tag:
			// Citation subtrees are discarded whole; for every other tag
			// the wrapper goes and the content stays.
			if n.Name != "ref" {
				w.collect(n.Children, b)
			}

		case wikitext.UnorderedListItem:
			w.listItem(n.Children, b)
		case wikitext.OrderedListItem:
			w.listItem(n.Children, b)
		case wikitext.DefinitionListItem:
			w.listItem(n.Children, b)

		case wikitext.ParagraphBreak:
			b.flush()

		case wikitext.Template:
			if w.cfg.ExpandTemplates {
				if lit, ok := ExpandDirective(n.Raw); ok {
					b.cur.WriteString(lit)
				}
			}

		case wikitext.Table, wikitext.Image, wikitext.Category,
			wikitext.Comment, wikitext.MagicWord, wikitext.Redirect,
			wikitext.Parameter:
			// Structural and meta markup: never emitted, never recursed.

		default:
			panic(fmt.Sprintf("extract: unhandled node type %T", n))
		}
	}
}

func (w *walker) listItem(children []wikitext.Node, b *builder) {
	if w.cfg.SkipLists {
		return
	}
	if text := w.inlineText(children); text != "" {
		b.cur.WriteString(text)
		b.cur.WriteByte(' ')
	}
}

// inlineText collects a subtree into a single trimmed string.
func (w *walker) inlineText(nodes []wikitext.Node) string {
	var sub builder
	w.collect(nodes, &sub)
	sub.flush()
	parts := make([]string, len(sub.paras))
	for i, p := range sub.paras {
		parts[i] = p.text
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
