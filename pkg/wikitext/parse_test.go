package wikitext

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func parse(t *testing.T, text string) []Node {
	t.Helper()
	return Parse(context.Background(), text)
}

func TestParse_Inline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Node
	}{
		{
			"plain_text",
			"просто текст",
			[]Node{Text{Value: "просто текст"}},
		},
		{
			"italic",
			"''курсив''",
			[]Node{Italic{Children: []Node{Text{Value: "курсив"}}}},
		},
		{
			"bold",
			"'''смелый''' текст",
			[]Node{
				Bold{Children: []Node{Text{Value: "смелый"}}},
				Text{Value: " текст"},
			},
		},
		{
			"bold_italic",
			"'''''всё'''''",
			[]Node{BoldItalic{Children: []Node{Text{Value: "всё"}}}},
		},
		{
			"piped_link",
			"[[Москва|столице]]",
			[]Node{Link{Target: "Москва", Children: []Node{Text{Value: "столице"}}}},
		},
		{
			"bare_link",
			"[[Москва]]",
			[]Node{Link{Target: "Москва"}},
		},
		{
			"image_link",
			"[[Файл:Пример.jpg|мини|Подпись]]",
			[]Node{Image{Raw: "[[Файл:Пример.jpg|мини|Подпись]]"}},
		},
		{
			"image_link_english",
			"[[File:Example.png|thumb|caption]]",
			[]Node{Image{Raw: "[[File:Example.png|thumb|caption]]"}},
		},
		{
			"category_link",
			"[[Категория:Города]]",
			[]Node{Category{Raw: "[[Категория:Города]]"}},
		},
		{
			"template",
			"{{нет ссылок|дата=2012-09-05}}",
			[]Node{Template{Raw: "{{нет ссылок|дата=2012-09-05}}"}},
		},
		{
			"nested_template",
			"{{внеш|{{внутр}}}}",
			[]Node{Template{Raw: "{{внеш|{{внутр}}}}"}},
		},
		{
			"parameter",
			"{{{1}}}",
			[]Node{Parameter{Raw: "{{{1}}}"}},
		},
		{
			"external_link_with_label",
			"[https://example.com сайт]",
			[]Node{ExternalLink{Target: "https://example.com", Children: []Node{Text{Value: "сайт"}}}},
		},
		{
			"external_link_bare",
			"[https://example.com]",
			[]Node{ExternalLink{Target: "https://example.com"}},
		},
		{
			"comment",
			"до<!-- скрыто -->после",
			[]Node{
				Text{Value: "до"},
				Comment{Raw: "<!-- скрыто -->"},
				Text{Value: "после"},
			},
		},
		{
			"magic_word",
			"__TOC__",
			[]Node{MagicWord{Name: "TOC"}},
		},
		{
			"ref_tag",
			"<ref>сноска</ref>",
			[]Node{Tag{Name: "ref", Children: []Node{Text{Value: "сноска"}}}},
		},
		{
			"nowiki_content_is_literal",
			"<nowiki>''не курсив''</nowiki>",
			[]Node{Tag{Name: "nowiki", Children: []Node{Text{Value: "''не курсив''"}}}},
		},
		{
			"void_tag",
			"<br>далее",
			[]Node{Tag{Name: "br"}, Text{Value: "далее"}},
		},
		{
			"self_closing_tag",
			"<ref name=\"x\"/>конец",
			[]Node{Tag{Name: "ref"}, Text{Value: "конец"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse(t, tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Blocks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Node
	}{
		{
			"heading",
			"== Заголовок ==",
			[]Node{Heading{Level: 2, Children: []Node{Text{Value: "Заголовок"}}}},
		},
		{
			"deep_heading",
			"==== Подраздел ====",
			[]Node{Heading{Level: 4, Children: []Node{Text{Value: "Подраздел"}}}},
		},
		{
			"unordered_list_item",
			"* один",
			[]Node{UnorderedListItem{Children: []Node{Text{Value: "один"}}}},
		},
		{
			"ordered_list_item",
			"# два",
			[]Node{OrderedListItem{Children: []Node{Text{Value: "два"}}}},
		},
		{
			"definition_list_item",
			"; термин",
			[]Node{DefinitionListItem{Children: []Node{Text{Value: "термин"}}}},
		},
		{
			"preformatted",
			" код",
			[]Node{Preformatted{Children: []Node{Text{Value: "код\n"}}}},
		},
		{
			"table",
			"{|\n|-\n| ячейка\n|}",
			[]Node{Table{Raw: "{|\n|-\n| ячейка\n|}"}},
		},
		{
			"redirect",
			"#REDIRECT [[Цель]]",
			[]Node{Redirect{Target: "Цель"}},
		},
		{
			"redirect_russian",
			"#ПЕРЕНАПРАВЛЕНИЕ [[Цель]]",
			[]Node{Redirect{Target: "Цель"}},
		},
		{
			"paragraph_break",
			"а\n\nб",
			[]Node{Text{Value: "а\n"}, ParagraphBreak{}, Text{Value: "б"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse(t, tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

// Malformed markup must degrade to Text, never fail or loop.
func TestParse_MalformedDegradesToText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Node
	}{
		{
			"unclosed_template",
			"{{незакрытый",
			[]Node{Text{Value: "{{незакрытый"}},
		},
		{
			"unclosed_link",
			"[[незакрытая",
			[]Node{Text{Value: "[[незакрытая"}},
		},
		{
			"stray_close_braces",
			"текст }} хвост",
			[]Node{Text{Value: "текст }} хвост"}},
		},
		{
			"unclosed_emphasis",
			"'''без конца",
			[]Node{Text{Value: "'''без конца"}},
		},
		{
			"unclosed_comment",
			"до<!-- без конца",
			[]Node{Text{Value: "до"}, Comment{Raw: "<!-- без конца"}},
		},
		{
			"lone_bracket",
			"[не ссылка]",
			[]Node{Text{Value: "[не ссылка]"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse(t, tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

// A dangling open tag drops the tag itself but keeps the trailing text.
func TestParse_DanglingOpenTag(t *testing.T) {
	got := parse(t, "<ref>обрыв")
	want := []Node{Tag{Name: "ref"}, Text{Value: "обрыв"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %#v, want %#v", got, want)
	}
}

func TestParse_RedirectOnlyOnFirstLine(t *testing.T) {
	got := parse(t, "текст\n#REDIRECT [[Цель]]")
	for _, n := range got {
		if _, ok := n.(Redirect); ok {
			t.Fatalf("redirect recognized past the first line: %#v", got)
		}
	}
}

func TestParse_DeepNestingIsBounded(t *testing.T) {
	input := strings.Repeat("{{", 200) + "x" + strings.Repeat("}}", 200)
	got := parse(t, input)
	if len(got) == 0 {
		t.Fatal("expected nodes for deeply nested input")
	}
	// Past the depth limit the construct degrades to text.
	if _, ok := got[0].(Text); !ok {
		t.Errorf("expected leading Text node, got %T", got[0])
	}
}

func TestParse_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := strings.Repeat("слово ", 64*1024)
	got := Parse(ctx, input)

	var total int
	for _, n := range got {
		if txt, ok := n.(Text); ok {
			total += len(txt.Value)
		}
	}
	if total >= len(input) {
		t.Errorf("cancelled parse consumed the whole input (%d bytes)", total)
	}
}

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"== Секция ==", 2},
		{"=== Подсекция ===", 3},
		{"= Верх =", 1},
		{"== несимметрично =", 1},
		{"====", 0},
		{"не заголовок", 0},
		{"== без конца", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := headingLevel(tt.input); got != tt.want {
				t.Errorf("headingLevel(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
