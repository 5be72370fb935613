package blocks

import (
	"regexp"
	"strings"
)

// BlockType identifies the structural classification of a parsed block.
type BlockType string

const (
	BlockParagraph     BlockType = "paragraph"
	BlockSectionHeader BlockType = "section_header"
	BlockBulletList    BlockType = "bullet_list"
	BlockNumberedList  BlockType = "numbered_list"
	BlockKeyValueGrid  BlockType = "key_value_grid"
	BlockInfoCallout   BlockType = "info_callout"
)

// ContentBlock is one structurally-classified unit of agent answer text.
// Which fields are populated depends on Type: Text for paragraphs, headers
// and callouts; Items for lists; Pairs for key-value grids.
type ContentBlock struct {
	Type  BlockType      `json:"type"`
	Text  string         `json:"text,omitempty"`
	Items []ListItem     `json:"items,omitempty"`
	Pairs []KeyValuePair `json:"pairs,omitempty"`
}

// ListItem is a single list entry. Continuations holds plain lines that were
// absorbed as visual continuations of a numbered item.
type ListItem struct {
	Text          string   `json:"text"`
	Continuations []string `json:"continuations,omitempty"`
}

// KeyValuePair is a structured fact extracted from a short "Key: value"
// bullet. Tag is a decorative category derived from the key.
type KeyValuePair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Tag   string `json:"tag"`
}

// LookaheadWindow bounds how many subsequent lines are scanned when deciding
// whether a plain line continues the previous numbered item.
const LookaheadWindow = 5

// maxHeaderLen bounds how long a colon-terminated line may be and still be
// treated as a section header rather than a paragraph.
const maxHeaderLen = 60

var (
	bulletRe = regexp.MustCompile(`^[•\-\*]\s+(.+)`)
	// A "1.1" style prefix marks a sub-point, rendered as a bullet rather
	// than a top-level sequence step.
	subNumberedRe = regexp.MustCompile(`^\d+\.\d+[.)]?\s+(.+)`)
	numberedRe    = regexp.MustCompile(`^\d+[.)]\s+(.+)`)
	// Short key, colon, value: the structured-fact heuristic. Key capture is
	// lazy and capped at 39 characters.
	keyValueRe = regexp.MustCompile(`^(.{1,39}?):\s+(.+)`)
	calloutRe  = regexp.MustCompile(`(?i)^(Contact|Note|Important|Tip|Submit|For more):`)
)

type lineClass int

const (
	classPlain lineClass = iota
	classBullet
	classNumbered
)

// classifiers is the ordered classification table. Order matters: bullets
// (including the sub-numbered form) take priority over numbered items.
var classifiers = []struct {
	class lineClass
	re    *regexp.Regexp
}{
	{classBullet, bulletRe},
	{classBullet, subNumberedRe},
	{classNumbered, numberedRe},
}

func classifyLine(line string) (lineClass, string) {
	for _, c := range classifiers {
		if m := c.re.FindStringSubmatch(line); m != nil {
			return c.class, m[1]
		}
	}
	return classPlain, line
}

// kvTagKeywords maps key substrings to decorative category tags on the
// resulting fact cards. First match wins; keys with no match get tagGeneral.
var kvTagKeywords = []struct {
	keyword string
	tag     string
}{
	{"vacation", "leave"},
	{"sick", "leave"},
	{"pto", "leave"},
	{"leave", "leave"},
	{"salary", "payroll"},
	{"pay", "payroll"},
	{"bonus", "payroll"},
	{"insurance", "benefits"},
	{"medical", "benefits"},
	{"dental", "benefits"},
	{"retirement", "benefits"},
	{"401k", "benefits"},
	{"date", "schedule"},
	{"deadline", "schedule"},
}

const tagGeneral = "general"

func tagForKey(key string) string {
	lower := strings.ToLower(key)
	for _, kw := range kvTagKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.tag
		}
	}
	return tagGeneral
}

// parser holds the single-pass state: the block accumulator, the currently
// open list (if any) and the buffered key-value pairs awaiting a flush.
type parser struct {
	lines        []string
	result       []ContentBlock
	openList     *ContentBlock
	pendingPairs []KeyValuePair
}

// Parse converts raw agent answer text into an ordered block sequence. It is
// pure and total: malformed or unclassifiable input degrades to paragraphs,
// and no non-blank line is ever dropped.
func Parse(text string) []ContentBlock {
	p := &parser{lines: strings.Split(text, "\n")}

	for i := range p.lines {
		line := strings.TrimSpace(p.lines[i])
		class, content := classifyLine(line)
		switch class {
		case classBullet:
			p.handleBullet(content)
		case classNumbered:
			p.handleNumbered(content)
		default:
			p.handlePlain(i, line)
		}
	}

	p.flushPairs()
	p.closeList()
	return p.result
}

// handleBullet buffers short "Key: value" bullets as structured facts;
// anything else becomes a regular bullet list item.
func (p *parser) handleBullet(content string) {
	if m := keyValueRe.FindStringSubmatch(content); m != nil {
		key := strings.TrimSpace(m[1])
		p.pendingPairs = append(p.pendingPairs, KeyValuePair{
			Key:   key,
			Value: strings.TrimSpace(m[2]),
			Tag:   tagForKey(key),
		})
		return
	}

	p.flushPairs()
	if p.openList != nil && p.openList.Type == BlockNumberedList {
		p.closeList()
	}
	if p.openList == nil {
		p.openList = &ContentBlock{Type: BlockBulletList}
	}
	p.openList.Items = append(p.openList.Items, ListItem{Text: content})
}

func (p *parser) handleNumbered(content string) {
	p.flushPairs()
	if p.openList != nil && p.openList.Type != BlockNumberedList {
		p.closeList()
	}
	if p.openList == nil {
		p.openList = &ContentBlock{Type: BlockNumberedList}
	}
	p.openList.Items = append(p.openList.Items, ListItem{Text: content})
}

func (p *parser) handlePlain(idx int, line string) {
	// Inside an open numbered list, blanks are swallowed and non-blank lines
	// may continue the previous item.
	if p.openList != nil && p.openList.Type == BlockNumberedList {
		if line == "" {
			return
		}
		if p.continuesNumberedItem(idx) {
			last := &p.openList.Items[len(p.openList.Items)-1]
			last.Continuations = append(last.Continuations, line)
			return
		}
	}

	p.flushPairs()
	p.closeList()

	switch {
	case line == "":
		// Paragraph break; each non-blank plain line already forms its own
		// paragraph block, so the blank itself emits nothing.
	case strings.HasSuffix(line, ":") && len(line) < maxHeaderLen:
		p.result = append(p.result, ContentBlock{
			Type: BlockSectionHeader,
			Text: strings.TrimSuffix(line, ":"),
		})
	case calloutRe.MatchString(line):
		p.result = append(p.result, ContentBlock{Type: BlockInfoCallout, Text: line})
	default:
		p.result = append(p.result, ContentBlock{Type: BlockParagraph, Text: line})
	}
}

// continuesNumberedItem scans up to LookaheadWindow subsequent lines: if
// another numbered item shows up before a bullet or a section-header line,
// the current line is treated as a continuation of the last numbered item.
func (p *parser) continuesNumberedItem(idx int) bool {
	end := idx + LookaheadWindow
	for j := idx + 1; j <= end && j < len(p.lines); j++ {
		next := strings.TrimSpace(p.lines[j])
		class, _ := classifyLine(next)
		switch {
		case class == classNumbered:
			return true
		case class == classBullet:
			return false
		case strings.HasSuffix(next, ":") && len(next) < maxHeaderLen && next != "":
			return false
		}
	}
	return false
}

func (p *parser) flushPairs() {
	if len(p.pendingPairs) == 0 {
		return
	}
	p.result = append(p.result, ContentBlock{Type: BlockKeyValueGrid, Pairs: p.pendingPairs})
	p.pendingPairs = nil
}

func (p *parser) closeList() {
	if p.openList == nil {
		return
	}
	p.result = append(p.result, *p.openList)
	p.openList = nil
}
