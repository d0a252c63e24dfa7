package ingestion

import (
	"regexp"
	"strings"
)

// ChunkerConfig tunes chunk granularity.
//
// TargetSize: approximate characters per chunk.
// Overlap:    characters carried from the end of one chunk into the next.
type ChunkerConfig struct {
	TargetSize int
	Overlap    int
}

// Chunk is one emitted passage plus its section bookkeeping.
type Chunk struct {
	Content         string
	Index           int
	Offset          int // byte offset into the cleaned text
	Section         string
	SectionPart     int
	SectionComplete bool
}

type section struct {
	name   string
	body   string
	offset int
}

var sectionTitleRe = regexp.MustCompile(`(?m)^\s*(?:\d+(?:\.\d+)*\s+)?(INTRODUCTION|SAFETY(?:\s+INSTRUCTIONS)?|INSTALLATION|OPERATION|MAINTENANCE|TROUBLESHOOTING|SPECIFICATIONS?|SPARE\s+PARTS|PARTS\s+LIST|WARRANTY|TECHNICAL\s+DATA|WIRING|LUBRICATION)\s*$`)

// Chunker splits cleaned manual text into semantically bounded, overlapping
// passages. Section boundaries are detected conservatively and never split
// or merged across.
type Chunker struct {
	cfg ChunkerConfig
}

func NewChunker(cfg ChunkerConfig) *Chunker {
	if cfg.TargetSize <= 0 {
		cfg.TargetSize = 1500
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.TargetSize {
		cfg.Overlap = cfg.TargetSize / 8
	}
	return &Chunker{cfg: cfg}
}

// Chunk runs both passes: section detection with fragment-line merging,
// then per-section splitting with overlap.
func (c *Chunker) Chunk(text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []Chunk
	for _, sec := range detectSections(text) {
		body := strings.TrimSpace(sec.body)
		if body == "" {
			continue
		}
		if len(body) <= c.cfg.TargetSize {
			out = append(out, Chunk{
				Content:         body,
				Index:           len(out),
				Offset:          sec.offset,
				Section:         sec.name,
				SectionPart:     0,
				SectionComplete: true,
			})
			continue
		}
		for part, p := range c.splitWithOverlap(body) {
			out = append(out, Chunk{
				Content:         p.text,
				Index:           len(out),
				Offset:          sec.offset + p.offset,
				Section:         sec.name,
				SectionPart:     part,
				SectionComplete: false,
			})
		}
	}
	return out
}

// detectSections finds major boundaries and rebuilds coherent paragraphs by
// merging short fragment lines into their neighbors, never across a
// detected boundary.
func detectSections(text string) []section {
	lines := strings.Split(text, "\n")

	var sections []section
	cur := section{name: "document"}
	var buf []string
	offset := 0
	curOffset := 0

	flush := func() {
		if len(buf) > 0 {
			cur.body = mergeFragments(buf)
			cur.offset = curOffset
			sections = append(sections, cur)
		}
		buf = buf[:0]
	}

	for _, line := range lines {
		lineLen := len(line) + 1
		trimmed := strings.TrimSpace(line)
		if isSectionBoundary(trimmed) {
			flush()
			cur = section{name: trimmed}
			curOffset = offset + lineLen
			offset += lineLen
			continue
		}
		if len(buf) == 0 {
			curOffset = offset
		}
		buf = append(buf, line)
		offset += lineLen
	}
	flush()
	return sections
}

// isSectionBoundary applies the conservative heuristics: an all-caps line of
// bounded length with at least two words, or a known section title.
func isSectionBoundary(line string) bool {
	if line == "" {
		return false
	}
	if sectionTitleRe.MatchString(line) {
		return true
	}
	if len(line) < 4 || len(line) > 60 {
		return false
	}
	if line != strings.ToUpper(line) || !strings.ContainsAny(line, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return false
	}
	return len(strings.Fields(line)) >= 2
}

// mergeFragments joins short broken lines back into paragraphs. A line that
// doesn't end a sentence and is shorter than a typical printed line gets
// glued to the next one.
func mergeFragments(lines []string) string {
	var paras []string
	var cur strings.Builder

	endPara := func() {
		if cur.Len() > 0 {
			paras = append(paras, cur.String())
			cur.Reset()
		}
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			endPara()
			continue
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(line)
		if strings.HasSuffix(line, ".") || strings.HasSuffix(line, ":") || len(line) > 80 {
			endPara()
		}
	}
	endPara()
	return strings.Join(paras, "\n\n")
}

type piece struct {
	text   string
	offset int
}

// Separator ladder for the recursive split: paragraph break, list markers,
// sentence end, then bare whitespace.
var separators = []string{"\n\n", "\n- ", "\n• ", ". ", " "}

// splitWithOverlap cuts an oversized section into target-sized pieces with a
// fixed character overlap carried between consecutive pieces.
func (c *Chunker) splitWithOverlap(body string) []piece {
	fragments := splitRecursive(body, separators, c.cfg.TargetSize)

	var pieces []piece
	var cur strings.Builder
	curStart := 0
	offset := 0

	flush := func() {
		text := strings.TrimSpace(cur.String())
		if text != "" {
			pieces = append(pieces, piece{text: text, offset: curStart})
		}
		cur.Reset()
	}

	for _, frag := range fragments {
		if cur.Len() > 0 && cur.Len()+len(frag) > c.cfg.TargetSize {
			flush()
			// Seed the next piece with the overlap tail of the previous one.
			prev := pieces[len(pieces)-1].text
			tail := overlapTail(prev, c.cfg.Overlap)
			curStart = offset - len(tail)
			cur.WriteString(tail)
		}
		if cur.Len() == 0 {
			curStart = offset
		}
		cur.WriteString(frag)
		offset += len(frag)
	}
	flush()
	return pieces
}

// splitRecursive walks the separator ladder until every fragment fits the
// target size, or no separator splits any further.
func splitRecursive(text string, seps []string, target int) []string {
	if len(text) <= target || len(seps) == 0 {
		return []string{text}
	}
	sep := seps[0]
	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		return splitRecursive(text, seps[1:], target)
	}
	var out []string
	for _, part := range parts {
		if len(part) > target {
			out = append(out, splitRecursive(part, seps[1:], target)...)
		} else if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// overlapTail returns the last n characters of s, extended left to the
// nearest word boundary so the overlap never starts mid-word.
func overlapTail(s string, n int) string {
	if n <= 0 || len(s) == 0 {
		return ""
	}
	if len(s) <= n {
		return s + " "
	}
	tail := s[len(s)-n:]
	if i := strings.IndexByte(tail, ' '); i >= 0 && i < len(tail)-1 {
		tail = tail[i+1:]
	}
	return tail + " "
}
