package pdf

import (
	"strings"
)

// DecodeContentText recovers the human-readable strings from a raw PDF page
// content stream: the parenthesized operands of Tj/TJ show operators. It is
// deliberately conservative; anything it cannot read is dropped, and the
// scanned-page heuristic treats the resulting short output as a signal.
func DecodeContentText(content string) string {
	var b strings.Builder
	var cur strings.Builder
	depth := 0
	escaped := false

	flush := func() {
		s := strings.TrimSpace(cur.String())
		cur.Reset()
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}

	for i := 0; i < len(content); i++ {
		ch := content[i]
		if depth == 0 {
			if ch == '(' {
				depth = 1
			} else if ch == '\n' && b.Len() > 0 {
				// Keep rough line structure from ET/BT blocks.
				b.WriteByte('\n')
			}
			continue
		}

		if escaped {
			switch ch {
			case 'n':
				cur.WriteByte('\n')
			case 't':
				cur.WriteByte('\t')
			case '(', ')', '\\':
				cur.WriteByte(ch)
			}
			escaped = false
			continue
		}

		switch ch {
		case '\\':
			escaped = true
		case '(':
			depth++
			cur.WriteByte(ch)
		case ')':
			depth--
			if depth == 0 {
				flush()
			} else {
				cur.WriteByte(ch)
			}
		default:
			cur.WriteByte(ch)
		}
	}
	return collapseBlankRuns(b.String())
}

// IsScanned reports whether a document looks scanned: the mean count of
// extractable characters per page falls below minCharsPerPage (images-only
// pages yield almost nothing from the content stream).
func IsScanned(pages []PageText, minCharsPerPage int) bool {
	if len(pages) == 0 {
		return true
	}
	total := 0
	for _, p := range pages {
		total += len(strings.TrimSpace(p.Text))
	}
	return total/len(pages) < minCharsPerPage
}

func collapseBlankRuns(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
