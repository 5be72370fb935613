package blocks

import (
	"html/template"
	"regexp"
	"strings"
)

var emphasisRe = regexp.MustCompile(`\*\*(.+?)\*\*`)

// Span is a run of text with uniform inline styling.
type Span struct {
	Text     string `json:"text"`
	Emphasis bool   `json:"emphasis,omitempty"`
}

// Spans resolves **bold** markup into inline-emphasis spans. Unterminated
// markers are left as literal text.
func Spans(text string) []Span {
	var spans []Span
	rest := text
	for {
		loc := emphasisRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		if loc[0] > 0 {
			spans = append(spans, Span{Text: rest[:loc[0]]})
		}
		spans = append(spans, Span{Text: rest[loc[2]:loc[3]], Emphasis: true})
		rest = rest[loc[1]:]
	}
	if rest != "" {
		spans = append(spans, Span{Text: rest})
	}
	return spans
}

// Render maps a block sequence to an HTML fragment for the chat widget. All
// text is escaped; the only markup produced is structural.
func Render(blocksList []ContentBlock) template.HTML {
	var b strings.Builder
	for _, block := range blocksList {
		switch block.Type {
		case BlockSectionHeader:
			writeTag(&b, "h4", "msg-section-header", block.Text)
		case BlockInfoCallout:
			writeTag(&b, "div", "msg-callout", block.Text)
		case BlockBulletList:
			writeList(&b, "ul", block.Items)
		case BlockNumberedList:
			writeList(&b, "ol", block.Items)
		case BlockKeyValueGrid:
			b.WriteString(`<div class="msg-kv-grid">`)
			for _, pair := range block.Pairs {
				b.WriteString(`<div class="msg-kv-card" data-tag="`)
				b.WriteString(template.HTMLEscapeString(pair.Tag))
				b.WriteString(`"><span class="msg-kv-key">`)
				writeInline(&b, pair.Key)
				b.WriteString(`</span><span class="msg-kv-value">`)
				writeInline(&b, pair.Value)
				b.WriteString(`</span></div>`)
			}
			b.WriteString(`</div>`)
		default:
			writeTag(&b, "p", "msg-paragraph", block.Text)
		}
	}
	return template.HTML(b.String())
}

// RenderText parses raw answer text and renders it in one step.
func RenderText(text string) template.HTML {
	return Render(Parse(text))
}

func writeTag(b *strings.Builder, tag, class, text string) {
	b.WriteString("<" + tag + ` class="` + class + `">`)
	writeInline(b, text)
	b.WriteString("</" + tag + ">")
}

func writeList(b *strings.Builder, tag string, items []ListItem) {
	b.WriteString("<" + tag + ` class="msg-list">`)
	for _, item := range items {
		b.WriteString("<li>")
		writeInline(b, item.Text)
		for _, cont := range item.Continuations {
			b.WriteString(`<div class="msg-list-continuation">`)
			writeInline(b, cont)
			b.WriteString("</div>")
		}
		b.WriteString("</li>")
	}
	b.WriteString("</" + tag + ">")
}

func writeInline(b *strings.Builder, text string) {
	for _, span := range Spans(text) {
		if span.Emphasis {
			b.WriteString("<strong>")
			b.WriteString(template.HTMLEscapeString(span.Text))
			b.WriteString("</strong>")
		} else {
			b.WriteString(template.HTMLEscapeString(span.Text))
		}
	}
}
