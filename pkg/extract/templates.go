package extract

import (
	"fmt"
	"regexp"
	"strconv"
)

// The expander recognizes a closed catalog of date/number directive shapes
// common in Russian Wikipedia text and rewrites them to literal values.
// Expansion is single-pass: expander output is never re-expanded.
var (
	dateDirectiveRe   = regexp.MustCompile(`\{\{СС3\|(\d+)\.(\d+)\.(\d+)\}\}`)
	yearDirectiveRe   = regexp.MustCompile(`\{\{год\|(\d{3,4})\}\}`)
	numDirectiveRe    = regexp.MustCompile(`\{\{num\|(\d+)\}\}`)
	simpleDirectiveRe = regexp.MustCompile(`\{\{[^|{}]+\|([^|{}]+)\}\}`)
)

// Month names in genitive case, as they appear after a day number.
var monthsGenitive = [...]string{
	"", "января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// ExpandDirective renders a whole {{...}} span when it matches the closed
// catalog exactly. It is applied to template nodes about to be discarded;
// anything unrecognized reports false and falls back to the discard policy.
func ExpandDirective(raw string) (string, bool) {
	if m := dateDirectiveRe.FindStringSubmatch(raw); m != nil && m[0] == raw {
		return renderDate(m), true
	}
	if m := yearDirectiveRe.FindStringSubmatch(raw); m != nil && m[0] == raw {
		return m[1], true
	}
	if m := numDirectiveRe.FindStringSubmatch(raw); m != nil && m[0] == raw {
		return m[1], true
	}
	return "", false
}

// ExpandText rewrites recognized directives inside already extracted text,
// then collapses remaining single-argument {{Name|value}} directives to
// their value. Single pass over each pattern.
func ExpandText(text string) string {
	text = dateDirectiveRe.ReplaceAllStringFunc(text, func(m string) string {
		return renderDate(dateDirectiveRe.FindStringSubmatch(m))
	})
	text = yearDirectiveRe.ReplaceAllString(text, "$1")
	text = numDirectiveRe.ReplaceAllString(text, "$1")
	text = simpleDirectiveRe.ReplaceAllString(text, "$1")
	return text
}

// renderDate turns a СС3 day.month.year match into "day month-name year".
func renderDate(m []string) string {
	month, _ := strconv.Atoi(m[2])
	if month >= 1 && month <= 12 {
		return fmt.Sprintf("%s %s %s", m[1], monthsGenitive[month], m[3])
	}
	return fmt.Sprintf("%s.%d.%s", m[1], month, m[3])
}
