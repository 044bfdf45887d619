// Package render turns a syntax.Diagnostic into its terminal-facing form:
// a red "Error:" banner, the message, and the offending source line with
// the range underlined.
//
// No terminal-color library appears anywhere in the retrieval pack (see
// DESIGN.md); ANSI escapes are produced directly against the standard
// library, using a plain-text errorWithDetails/errorExpected style
// composition.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/vela-lang/vela/suggest"
	"github.com/vela-lang/vela/syntax"
)

// maxKeywordSuggestions bounds how many ranked candidates an error
// diagnostic with no precomputed Suggestion shows, keeping the fallback
// "did you mean" line as short as the ones warnIfNearKeyword attaches at
// parse time.
const maxKeywordSuggestions = 3

const (
	ansiRed   = "\x1b[31;1m"
	ansiReset = "\x1b[0m"
)

// Diagnostic renders one diagnostic against src to w: a banner line with the
// message, the Context line if any, the source line, a caret/underline
// line, and a suggestion line if there is one. Byte offsets in d are 1-based inclusive,
// matching syntax.TaggedRange.
func Diagnostic(w io.Writer, src []byte, d syntax.Diagnostic) error {
	first, last := normalizeRange(src, d.FirstByte, d.LastByte)

	lineStart, lineEnd, lineNo, col := locate(src, first)
	line := src[lineStart:lineEnd]

	banner := ansiRed + "Error:" + ansiReset
	if d.Severity == syntax.SeverityWarning {
		banner = "\x1b[33;1mWarning:" + ansiReset
	}

	if _, err := fmt.Fprintf(w, "%s %s\n", banner, d.Message); err != nil {
		return err
	}
	if d.Context != "" {
		if _, err := fmt.Fprintf(w, "  %s\n", d.Context); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "  %d | %s\n", lineNo, line); err != nil {
		return err
	}

	underlineLen := last - first + 1
	if underlineLen < 1 {
		underlineLen = 1
	}
	padding := strings.Repeat(" ", len(fmt.Sprintf("  %d | ", lineNo))+col)
	underline := strings.Repeat("^", underlineLen)
	if _, err := fmt.Fprintf(w, "%s%s%s%s\n", padding, ansiRed, underline, ansiReset); err != nil {
		return err
	}
	suggestion := d.Suggestion
	if suggestion == "" && d.Severity == syntax.SeverityError {
		suggestion = fallbackKeywordSuggestion(src, first, last)
	}
	if suggestion != "" {
		if _, err := fmt.Fprintf(w, "  %s\n", suggestion); err != nil {
			return err
		}
	}
	return nil
}

// fallbackKeywordSuggestion ranks Vela's reserved words against the text
// an error diagnostic points at and renders the closest few as a "did you
// mean" line. Diagnostics that already carry their own Suggestion (e.g.
// warnIfNearKeyword's single tight match) never reach this path.
func fallbackKeywordSuggestion(src []byte, first, last int) string {
	text := string(src[first-1 : last])
	matches := suggest.Keyword(text, maxKeywordSuggestions)
	if len(matches) == 0 {
		return ""
	}
	quoted := make([]string, len(matches))
	for i, m := range matches {
		quoted[i] = "`" + m + "`"
	}
	return "did you mean " + strings.Join(quoted, ", ") + "?"
}

// normalizeRange applies two edge-case rules: a range with no bytes, or
// one whose only byte is '\n', grows by one code point on each side, and
// an end byte that is not on a valid UTF-8 boundary is
// rounded down to the previous valid boundary.
func normalizeRange(src []byte, first, last int) (int, int) {
	first = clampByte(src, first)
	last = clampByte(src, last)

	if last < first || (first >= 1 && first == last && src[first-1] == '\n') {
		// Empty or invisible range: expand symmetrically by one code point each way.
		first = prevRuneStart(src, first)
		last = nextRuneEnd(src, last)
	}

	last = roundDownToRuneBoundary(src, last)
	if last < first {
		last = first
	}
	return first, last
}

func clampByte(src []byte, b int) int {
	if b < 1 {
		return 1
	}
	if n := len(src); b > n {
		return n
	}
	return b
}

func prevRuneStart(src []byte, pos int) int {
	idx := pos - 2 // 0-based index of the byte just before pos
	if idx <= 0 {
		return 1
	}
	for idx > 0 && !utf8.RuneStart(src[idx]) {
		idx--
	}
	return idx + 1 // 1-based first_byte of the prior rune
}

func nextRuneEnd(src []byte, pos int) int {
	idx := pos // 0-based index of current last_byte+1, i.e. the next byte
	if idx >= len(src) {
		return len(src)
	}
	_, size := utf8.DecodeRune(src[idx:])
	return idx + size // 1-based inclusive end of the following rune
}

func roundDownToRuneBoundary(src []byte, lastByte int) int {
	end := lastByte // 0-based index of the byte after the range
	if end <= 0 || end >= len(src) {
		return lastByte
	}
	for end > 0 && !utf8.RuneStart(src[end]) {
		end--
	}
	return end // 1-based inclusive end of the last whole rune
}

// locate finds the 1-based line number, the 0-based column of byte pos
// within its line, and the 0-based half-open [start, end) byte range of
// that line (excluding its trailing newline).
func locate(src []byte, pos int) (lineStart, lineEnd, lineNo, col int) {
	lineNo = 1
	lineStart = 0
	for i := 0; i < pos-1 && i < len(src); i++ {
		if src[i] == '\n' {
			lineNo++
			lineStart = i + 1
		}
	}
	lineEnd = lineStart
	for lineEnd < len(src) && src[lineEnd] != '\n' {
		lineEnd++
	}
	col = (pos - 1) - lineStart
	if col < 0 {
		col = 0
	}
	return lineStart, lineEnd, lineNo, col
}
