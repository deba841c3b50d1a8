package fragments

import (
	"context"
	"regexp"
	"strings"
	"sync"
)

// maxRounds caps the fixed-point template removal. Each round strips one
// nesting level, so ten rounds cover any realistic leak depth.
const maxRounds = 10

var (
	innerTemplateRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	longTemplateRe  = regexp.MustCompile(`\{\{[^}]{0,500}\}\}`)
	orphanBraceRe   = regexp.MustCompile(`[{}]`)
)

// TemplateResidue removes leaked {{...}} directive fragments. Innermost
// spans go first; removing one can expose an enclosing span, so the loop
// iterates to a fixed point or maxRounds, whichever comes first. A bounded
// sweep then catches malformed spans, and orphan braces are dropped.
type TemplateResidue struct{}

// NewTemplateResidue creates the directive-fragment cleaner.
func NewTemplateResidue() *TemplateResidue { return &TemplateResidue{} }

// Name returns the cleaner name.
func (*TemplateResidue) Name() string { return "template-residue" }

// Clean strips directive fragments from the text.
func (*TemplateResidue) Clean(text string) (string, error) {
	prev := len(text)
	for i := 0; i < maxRounds; i++ {
		text = innerTemplateRe.ReplaceAllString(text, "")
		if len(text) == prev {
			break
		}
		prev = len(text)
	}
	text = longTemplateRe.ReplaceAllString(text, "")
	text = orphanBraceRe.ReplaceAllString(text, "")
	return text, nil
}

var (
	fileSpanRe       = regexp.MustCompile(`\[\[(?:Файл|File):[^\]]{0,500}\]\]`)
	imageParamLineRe = regexp.MustCompile(`^\d+px\|(?:мини|thumb|миниатюра|left|right|center|слева|справа|центр)\|.{0,200}$`)
	imageFragmentRes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*\d+px\|мини\|(?:слева|справа|центр)?.{0,200}$`),
		regexp.MustCompile(`(?m)^\s*альт=.{0,100}\|мини\|.{0,200}$`),
		regexp.MustCompile(`(?m)^\s*\d+px\|мини$`),
	}
)

// ImageFragments removes leaked image-file markup: whole [[Файл:...]] /
// [[File:...]] spans, and stranded size/position/alt parameter lines.
type ImageFragments struct{}

// NewImageFragments creates the image-fragment cleaner.
func NewImageFragments() *ImageFragments { return &ImageFragments{} }

// Name returns the cleaner name.
func (*ImageFragments) Name() string { return "image-fragments" }

// Clean strips image markup fragments from the text.
func (*ImageFragments) Clean(text string) (string, error) {
	text = fileSpanRe.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !imageParamLineRe.MatchString(strings.TrimSpace(line)) {
			kept = append(kept, line)
		}
	}
	text = strings.Join(kept, "\n")

	for _, re := range imageFragmentRes {
		text = re.ReplaceAllString(text, "")
	}
	return text, nil
}

var multiNewlineRe = regexp.MustCompile(`\n{3,}`)

// Normalize collapses runs of three or more newlines to a paragraph break
// and trims surrounding whitespace.
type Normalize struct{}

// NewNormalize creates the whitespace normalizer.
func NewNormalize() *Normalize { return &Normalize{} }

// Name returns the cleaner name.
func (*Normalize) Name() string { return "normalize" }

// Clean normalizes newline runs and trims the text.
func (*Normalize) Clean(text string) (string, error) {
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

// Default returns the standard repair chain: directive fragments, image
// fragments, then whitespace normalization.
func Default() *Chain {
	return NewChain(NewTemplateResidue(), NewImageFragments(), NewNormalize())
}

// Repair runs the default chain over one text.
func Repair(text string) string {
	out, err := Default().Clean(text)
	if err != nil {
		return text
	}
	return out
}

// RepairBatch cleans a batch of texts with the given cleaner, preserving
// indexes. Each slot is written exactly once; texts are independent, so
// the pool needs no locking. A cleaner error leaves that slot unchanged.
func RepairBatch(ctx context.Context, c Cleaner, texts []string, workers int) []string {
	if workers < 1 {
		workers = 1
	}
	out := make([]string, len(texts))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				out[i] = text
				return
			}
			cleaned, err := c.Clean(text)
			if err != nil {
				out[i] = text
				return
			}
			out[i] = cleaned
		}(i, text)
	}

	wg.Wait()
	return out
}
