// Package parse implements ParseState - the immutable context-flag value
// threaded through recursive descent - and the parser
// productions built on top of a pstream.Stream.
package parse

import (
	"github.com/vela-lang/vela/config"
	"github.com/vela-lang/vela/pstream"
	"github.com/vela-lang/vela/syntax"
	"github.com/vela-lang/vela/token"
)

// ParseState is an immutable value carrying the six Boolean context flags
// that make context-sensitive recursive descent decidable with a single
// production per nonterminal. Productions never mutate
// their caller's ParseState: a production that needs a different flag
// value constructs a derived copy with one of the With* withers and passes
// that down instead.
type ParseState struct {
	stream *pstream.Stream

	// Grammar gates version-specific productions (where-clauses, the
	// generator and hash shapes of parse_cat) through config.FeatureEnabled.
	// A nil Grammar leaves every gated feature on, for callers that parse
	// without a vela.json (tests, ad-hoc snippets).
	Grammar *config.Grammar

	rangeColonEnabled bool
	spaceSensitive    bool
	forGenerator      bool
	endSymbol         bool
	whitespaceNewline bool
	whereEnabled      bool
}

// New builds the initial ParseState for a top-level parse: range colons
// and where-clauses enabled, space sensitivity and generator-terminated
// argument lists off (those only turn on inside bracketed forms), `end`
// terminates blocks (endSymbol=false), and newlines are statement
// separators rather than ordinary whitespace. grammar may be nil.
func New(stream *pstream.Stream, grammar *config.Grammar) ParseState {
	return ParseState{
		stream:            stream,
		Grammar:           grammar,
		rangeColonEnabled: true,
		spaceSensitive:    false,
		forGenerator:      false,
		endSymbol:         false,
		whitespaceNewline: false,
		whereEnabled:      true,
	}
}

// FeatureEnabled reports whether a gated grammar feature is active: always
// true with no Grammar attached, otherwise delegated to
// config.Grammar.FeatureEnabled.
func (ps ParseState) FeatureEnabled(feature string) bool {
	if ps.Grammar == nil {
		return true
	}
	return ps.Grammar.FeatureEnabled(feature)
}

func (ps ParseState) WithRangeColonEnabled(v bool) ParseState { ps.rangeColonEnabled = v; return ps }
func (ps ParseState) WithSpaceSensitive(v bool) ParseState    { ps.spaceSensitive = v; return ps }
func (ps ParseState) WithForGenerator(v bool) ParseState      { ps.forGenerator = v; return ps }
func (ps ParseState) WithEndSymbol(v bool) ParseState         { ps.endSymbol = v; return ps }
func (ps ParseState) WithWhitespaceNewline(v bool) ParseState { ps.whitespaceNewline = v; return ps }
func (ps ParseState) WithWhereEnabled(v bool) ParseState      { ps.whereEnabled = v; return ps }

func (ps ParseState) RangeColonEnabled() bool { return ps.rangeColonEnabled }
func (ps ParseState) SpaceSensitive() bool    { return ps.spaceSensitive }
func (ps ParseState) ForGenerator() bool      { return ps.forGenerator }
func (ps ParseState) EndSymbol() bool         { return ps.endSymbol }
func (ps ParseState) WhitespaceNewline() bool { return ps.whitespaceNewline }
func (ps ParseState) WhereEnabled() bool      { return ps.whereEnabled }

// The accessor wrappers below delegate to the owning ParseStream, always
// supplying skip_newlines = whitespace_newline as the default.
// Productions should call these rather than reach into the stream field
// directly - there is no exported way to do so from outside this package.

func (ps ParseState) Peek(n int) token.Kind {
	return ps.stream.Peek(n, ps.whitespaceNewline)
}

func (ps ParseState) PeekToken(n int) pstream.SyntaxToken {
	return ps.stream.PeekToken(n, ps.whitespaceNewline)
}

func (ps ParseState) Bump(flags token.Flags, newKind token.Kind, diagMsg string) syntax.TaggedRange {
	return ps.stream.Bump(ps.whitespaceNewline, flags, newKind, diagMsg)
}

func (ps ParseState) BumpTrivia() syntax.TaggedRange {
	return ps.stream.BumpTrivia()
}

// DrainTrailingTrivia flushes any trivia sitting between the last bumped
// token and the upcoming EndMarker, without consuming EndMarker itself.
func (ps ParseState) DrainTrailingTrivia() {
	ps.stream.DrainTrailingTrivia()
}

func (ps ParseState) BumpInvisible(kind token.Kind, flags token.Flags) syntax.TaggedRange {
	return ps.stream.BumpInvisible(kind, flags)
}

func (ps ParseState) Position() int {
	return ps.stream.Position()
}

func (ps ParseState) Mark() int {
	return ps.stream.Mark()
}

func (ps ParseState) ResetToken(mark int, kind token.Kind, flags token.Flags) {
	ps.stream.ResetToken(mark, kind, flags)
}

func (ps ParseState) Emit(kind token.Kind, flags token.Flags, from int, diagMsg string) syntax.TaggedRange {
	return ps.stream.Emit(kind, flags, from, diagMsg)
}

func (ps ParseState) EmitDiagnostic(attachToWhitespace bool, message string) {
	ps.stream.EmitDiagnostic(attachToWhitespace, message, ps.whitespaceNewline)
}

// Text returns the source snippet covered by a 1-based inclusive range,
// used by checked-identifier validation to fuzzy-match against reserved
// words.
func (ps ParseState) Text(first, last int) string {
	return ps.stream.Text(first, last)
}

// AddDiagnostic appends a fully-formed diagnostic (Context/Suggestion
// included) straight to the stream.
func (ps ParseState) AddDiagnostic(d syntax.Diagnostic) {
	ps.stream.AddDiagnostic(d)
}

// BumpCount returns the total number of significant tokens consumed so
// far; exposed for telemetry (see parse.Telemetry).
func (ps ParseState) BumpCount() int {
	return ps.stream.BumpCount()
}
