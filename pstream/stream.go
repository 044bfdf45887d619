// Package pstream implements ParseStream, the lazy lookahead buffer that
// sits between an external lexsrc.TokenSource and the parser core's productions.
//
// A Stream never pulls more tokens from the lexer than a production
// actually peeks at. Trivia encountered while looking ahead stays in the
// lookahead buffer alongside the significant tokens around it; a
// production consumes a whole trivia-then-token run in one Bump. This
// keeps whitespace and comments in the emitted span log without forcing
// every production to skip them by hand.
package pstream

import (
	"github.com/vela-lang/vela/internal/invariant"
	"github.com/vela-lang/vela/lexsrc"
	"github.com/vela-lang/vela/syntax"
	"github.com/vela-lang/vela/token"
)

// maxPeeksWithoutBump bounds how many times a production may call Peek
// without an intervening Bump before the stream concludes the parser is
// stuck and panics. 100,000 is far beyond any legitimate lookahead depth
// for a single production.
const maxPeeksWithoutBump = 100_000

// SyntaxToken augments a lexer RawToken with whether any whitespace or any
// newline appeared somewhere in the run of trivia since the previous
// significant token. These bits are computed once, when the token is
// first drawn into the lookahead buffer, and never recomputed.
type SyntaxToken struct {
	Raw           lexsrc.RawToken
	HadWhitespace bool
	HadNewline    bool
}

// Stream is the lazy lookahead buffer owning an external lexer. Productions
// never talk to the lexer directly - they call Stream's Peek/Bump family,
// usually through a parse.ParseState wrapper.
type Stream struct {
	lexer lexsrc.TokenSource
	src   []byte

	lookahead []SyntaxToken
	// aggWhitespace/aggNewline track trivia seen since the last significant
	// token was appended to lookahead; reset whenever one is appended.
	aggWhitespace bool
	aggNewline    bool

	nextByte int // 1-based byte offset of the next unread byte

	spans       []syntax.TaggedRange
	diagnostics []syntax.Diagnostic

	peekCount int // peeks since the last bump; reset to 0 on every bump
	bumpCount int // total significant-token bumps over the whole parse
}

// BumpCount returns the total number of significant tokens consumed so
// far, for telemetry.
func (s *Stream) BumpCount() int {
	return s.bumpCount
}

// New creates a Stream pulling tokens from lex over src. Byte offsets
// reported by Position and emitted spans are 1-based, even though lex
// itself reports 0-based half-open offsets. src is kept only for
// Text lookups (checked-identifier validation, diagnostic snippets); the
// Stream never re-lexes it.
func New(lex lexsrc.TokenSource, src []byte) *Stream {
	return &Stream{lexer: lex, src: src, nextByte: 1}
}

// Text returns the source bytes covered by the 1-based inclusive range
// [first, last], or "" for an invisible range.
func (s *Stream) Text(first, last int) string {
	if last < first {
		return ""
	}
	return string(s.src[first-1 : last])
}

// pullOne draws exactly one more RawToken from the lexer and appends it to
// lookahead as a SyntaxToken carrying the whitespace/newline bits
// accumulated from the trivia run in progress.
func (s *Stream) pullOne() {
	raw := s.lexer.Next()
	st := SyntaxToken{Raw: raw, HadWhitespace: s.aggWhitespace, HadNewline: s.aggNewline}
	if raw.Kind.IsTrivia() {
		s.aggWhitespace = true
		if raw.Kind == token.NewlineWs {
			s.aggNewline = true
		}
	} else {
		s.aggWhitespace = false
		s.aggNewline = false
	}
	s.lookahead = append(s.lookahead, st)
}

// isSignificant reports whether a buffered token counts towards the
// n-th-significant-token count for the given skip_newlines setting.
// Whitespace and Comment are always skipped; NewlineWs is skipped only
// when skipNewlines is true.
func isSignificant(kind token.Kind, skipNewlines bool) bool {
	switch kind {
	case token.Whitespace, token.Comment:
		return false
	case token.NewlineWs:
		return !skipNewlines
	default:
		return true
	}
}

// lookaheadIndex returns the 0-based index into lookahead of the n-th
// significant token from the current position (n=0 is the next one),
// pulling more tokens from the lexer as needed.
func (s *Stream) lookaheadIndex(n int, skipNewlines bool) int {
	seen := 0
	i := 0
	for {
		for ; i < len(s.lookahead); i++ {
			if isSignificant(s.lookahead[i].Raw.Kind, skipNewlines) {
				if seen == n {
					return i
				}
				seen++
			}
		}
		s.pullOne()
	}
}

func (s *Stream) guardedPeek(n int, skipNewlines bool) SyntaxToken {
	s.peekCount++
	invariant.Invariant(s.peekCount <= maxPeeksWithoutBump,
		"parser stuck: %d peeks since last bump at byte %d", s.peekCount, s.nextByte)
	return s.lookahead[s.lookaheadIndex(n, skipNewlines)]
}

// Peek reports the Kind of the n-th significant token ahead (0 = next).
func (s *Stream) Peek(n int, skipNewlines bool) token.Kind {
	return s.guardedPeek(n, skipNewlines).Raw.Kind
}

// PeekToken returns the full SyntaxToken n positions ahead.
func (s *Stream) PeekToken(n int, skipNewlines bool) SyntaxToken {
	return s.guardedPeek(n, skipNewlines)
}

// Position returns the 1-based byte offset of the next unread byte - a
// mark a production saves before attempting a production, to use as an
// interior span's start or to compare against later.
func (s *Stream) Position() int {
	return s.nextByte
}

// Bump consumes the run of trivia plus the next significant token (per
// skipNewlines), emitting each trivia token as a TriviaFlag span under its
// own Kind and the significant token under newKind (or its own Kind, if
// newKind is token.Nothing) with the given flags. If diagMsg is non-empty,
// the significant token's span additionally carries ErrorFlag and a
// matching Diagnostic. An EndMarker found before the expected stopping
// point halts consumption there regardless. Bump resets the progress
// guard.
func (s *Stream) Bump(skipNewlines bool, flags token.Flags, newKind token.Kind, diagMsg string) syntax.TaggedRange {
	stop := s.lookaheadIndex(0, skipNewlines)
	for i := 0; i < stop; i++ {
		if s.lookahead[i].Raw.Kind == token.EndMarker {
			stop = i
			break
		}
	}

	consumed := s.lookahead[:stop+1]
	s.lookahead = s.lookahead[stop+1:]
	s.peekCount = 0
	s.bumpCount++

	for i := 0; i < len(consumed)-1; i++ {
		triv := consumed[i].Raw
		s.emitRaw(triv, triv.Kind, token.EmptyFlags.With(token.TriviaFlag), "")
	}

	last := consumed[len(consumed)-1].Raw
	kind := newKind
	if kind == token.Nothing {
		kind = last.Kind
	}
	f := flags
	if last.Dotted {
		f = f.With(token.DottedFlag)
	}
	if last.Suffix {
		f = f.With(token.SuffixFlag)
	}
	return s.emitRaw(last, kind, f, diagMsg)
}

// BumpTrivia consumes and emits exactly one leading trivia token without
// touching the significant token behind it.
//
// BumpTrivia panics if the next buffered token is not trivia - callers
// must check (typically via PeekToken's HadWhitespace bit) before calling.
func (s *Stream) BumpTrivia() syntax.TaggedRange {
	if len(s.lookahead) == 0 {
		s.pullOne()
	}
	invariant.Precondition(s.lookahead[0].Raw.Kind.IsTrivia(), "BumpTrivia called with no leading trivia")
	triv := s.lookahead[0].Raw
	s.lookahead = s.lookahead[1:]
	return s.emitRaw(triv, triv.Kind, token.EmptyFlags.With(token.TriviaFlag), "")
}

// DrainTrailingTrivia emits any trivia still sitting ahead of the next
// significant token without consuming that token itself. EndMarker is
// never bumped - ParseNary stops as soon as it sees one - so a
// Whitespace/Comment/newline run between the last bumped token and
// end-of-input would otherwise never make it into the span log. ParseNary
// calls this when it reaches EndMarker, just before emitting its wrap
// node, with EndMarker left as the unconsumed significant token ahead.
func (s *Stream) DrainTrailingTrivia() {
	for {
		found := false
		for _, t := range s.lookahead {
			if t.Raw.Kind == token.EndMarker {
				found = true
				break
			}
		}
		if found {
			break
		}
		s.pullOne()
	}
	for len(s.lookahead) > 0 && s.lookahead[0].Raw.Kind.IsTrivia() {
		s.BumpTrivia()
	}
}

// BumpInvisible emits a zero-width span at the stream's current position
// under kind, without consuming any input. Used for synthesized nodes such
// as an implicit macro name or an elided operand.
func (s *Stream) BumpInvisible(kind token.Kind, flags token.Flags) syntax.TaggedRange {
	r := syntax.TaggedRange{
		Head:      token.NewHead(kind, flags),
		FirstByte: s.nextByte,
		LastByte:  s.nextByte - 1,
	}
	s.spans = append(s.spans, r)
	return r
}

// ResetToken rewrites the Kind and Flags of the span at mark in place,
// used when a token's role is only decided after more input is seen.
// mark must be an index previously returned by Mark (equivalently, the
// length of Spans() immediately before the span of interest was
// appended).
func (s *Stream) ResetToken(mark int, kind token.Kind, flags token.Flags) {
	invariant.Precondition(mark >= 0 && mark < len(s.spans), "ResetToken mark %d out of range (len=%d)", mark, len(s.spans))
	s.spans[mark].Head = token.NewHead(kind, flags)
}

// Mark returns the index of the most recently emitted span, for later use
// with ResetToken.
func (s *Stream) Mark() int {
	invariant.Precondition(len(s.spans) > 0, "Mark called with no prior emitted span")
	return len(s.spans) - 1
}

// Emit appends an interior-node span [from, next_byte-1] to the log, for
// productions that need to record a node whose range spans several
// already-bumped child tokens. from is typically a Position mark taken
// before the production began. If diagMsg is non-empty, a matching
// Diagnostic is appended over the same range.
func (s *Stream) Emit(kind token.Kind, flags token.Flags, from int, diagMsg string) syntax.TaggedRange {
	last := s.nextByte - 1
	if diagMsg != "" {
		flags = flags.With(token.ErrorFlag)
		s.diagnostics = append(s.diagnostics, syntax.Diagnostic{
			Message: diagMsg, FirstByte: from, LastByte: last, Severity: syntax.SeverityError,
		})
	}
	r := syntax.TaggedRange{Head: token.NewHead(kind, flags), FirstByte: from, LastByte: last}
	s.spans = append(s.spans, r)
	return r
}

// EmitDiagnostic attaches a diagnostic to the next significant token's
// range, or - when attachToWhitespace is true - to the range of the
// trivia immediately preceding it. If there is no preceding trivia, the
// whitespace-attached diagnostic falls back to a zero-width range at the
// current position.
func (s *Stream) EmitDiagnostic(attachToWhitespace bool, message string, skipNewlines bool) {
	stop := s.lookaheadIndex(0, skipNewlines)

	if attachToWhitespace {
		if stop == 0 {
			s.diagnostics = append(s.diagnostics, syntax.Diagnostic{
				Message: message, FirstByte: s.nextByte, LastByte: s.nextByte - 1, Severity: syntax.SeverityError,
			})
			return
		}
		first := s.lookahead[0].Raw
		last := s.lookahead[stop-1].Raw
		s.diagnostics = append(s.diagnostics, syntax.Diagnostic{
			Message: message, FirstByte: first.StartByte + 1, LastByte: last.EndByte, Severity: syntax.SeverityError,
		})
		return
	}

	tok := s.lookahead[stop].Raw
	s.diagnostics = append(s.diagnostics, syntax.Diagnostic{
		Message: message, FirstByte: tok.StartByte + 1, LastByte: tok.EndByte, Severity: syntax.SeverityError,
	})
}

// AddDiagnostic appends a fully-formed Diagnostic, for callers that need
// Context/Suggestion beyond the bare message Bump/Emit/EmitDiagnostic take.
func (s *Stream) AddDiagnostic(d syntax.Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
}

func (s *Stream) emitRaw(raw lexsrc.RawToken, kind token.Kind, flags token.Flags, diagMsg string) syntax.TaggedRange {
	first := raw.StartByte + 1
	last := raw.EndByte // half-open 0-based EndByte == inclusive 1-based LastByte
	if diagMsg != "" {
		flags = flags.With(token.ErrorFlag)
		s.diagnostics = append(s.diagnostics, syntax.Diagnostic{
			Message: diagMsg, FirstByte: first, LastByte: last, Severity: syntax.SeverityError,
		})
	}
	r := syntax.TaggedRange{Head: token.NewHead(kind, flags), FirstByte: first, LastByte: last}
	s.spans = append(s.spans, r)
	s.nextByte = last + 1
	return r
}

// Spans returns the flat span log accumulated so far, in emission order.
// Callers typically pass this to syntax.Build once parsing completes.
func (s *Stream) Spans() []syntax.TaggedRange {
	return s.spans
}

// Diagnostics returns every diagnostic recorded so far, in emission order.
func (s *Stream) Diagnostics() []syntax.Diagnostic {
	return s.diagnostics
}
