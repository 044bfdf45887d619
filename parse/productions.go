package parse

import (
	"fmt"

	"github.com/vela-lang/vela/config"
	"github.com/vela-lang/vela/suggest"
	"github.com/vela-lang/vela/syntax"
	"github.com/vela-lang/vela/token"
)

// keywordTypoDistance bounds how close (in edits) an identifier must be to
// a reserved word before checked identifier validation warns about it.
// Kept small: Vela has many short keywords (do, in, if) and a loose bound
// would flag ordinary short identifiers as "did you mean".
const keywordTypoDistance = 1

// structural is the flag set used for punctuation and keywords whose only
// job is to delimit or introduce a form whose meaning is already carried
// by the interior node's own Kind (brackets, commas, assignment operators,
// block keywords). Bare leaves that are themselves the payload -
// identifiers, literals, the quoting colon, the call-forming tilde - keep
// EmptyFlags instead, since nothing else records what they were.
var structural = token.EmptyFlags.With(token.TriviaFlag)

// IsClosingToken reports whether tok terminates a bounded expression list
// in the current context: every production
// that parses a separated run of items stops here.
func IsClosingToken(ps ParseState, tok token.Kind) bool {
	switch tok {
	case token.KwElse, token.KwElseif, token.KwCatch, token.KwFinally,
		token.Comma, token.RParen, token.RBracket, token.RBrace, token.Semicolon, token.EndMarker:
		return true
	case token.KwEnd:
		return !ps.EndSymbol()
	default:
		return false
	}
}

// ParseAtom parses one primary expression.
// checked runs the near-keyword check (warnIfNearKeyword) on a bare
// Identifier, never on a VarIdentifier; the check only adds a warning and
// never rejects the name.
func ParseAtom(ps ParseState, checked bool) syntax.TaggedRange {
	start := ps.Position()
	switch ps.Peek(0) {
	case token.Colon:
		return parseColonAtom(ps, start)
	case token.OpEquals:
		return ps.Bump(token.EmptyFlags, token.Error, "unexpected `=`")
	case token.Identifier, token.VarIdentifier:
		atom := ps.Bump(token.EmptyFlags, token.Nothing, "")
		if checked && atom.Head.Kind == token.Identifier {
			warnIfNearKeyword(ps, atom)
		}
		return maybeParseWhereClause(ps, start, atom)
	case token.LParen:
		return maybeParseWhereClause(ps, start, ParseParen(ps))
	case token.LBracket:
		open := ps.Bump(structural, token.Nothing, "")
		return maybeParseWhereClause(ps, start, ParseCat(ps, open, token.RBracket, ps.EndSymbol()))
	case token.LBrace:
		open := ps.Bump(structural, token.Nothing, "")
		return maybeParseWhereClause(ps, start, ParseCat(ps, open, token.RBrace, ps.EndSymbol()))
	case token.BackTick:
		return parseCommandLiteral(ps, start)
	case token.Integer, token.Float, token.String, token.Char, token.Boolean:
		atom := ps.Bump(token.EmptyFlags, token.Nothing, "")
		return maybeParseWhereClause(ps, start, atom)
	default:
		peeked := ps.Peek(0)
		if IsClosingToken(ps, peeked) {
			return ps.Bump(token.EmptyFlags, token.Error, fmt.Sprintf("unexpected: %s", peeked))
		}
		return ps.Bump(token.EmptyFlags, token.Error, "invalid syntax")
	}
}

// warnIfNearKeyword flags an identifier that is one typo away from a
// reserved word. It never rejects the identifier - the parse continues
// exactly as if the name were fine - it only attaches a Warning
// diagnostic with a suggestion, the way a fuzzy "did you mean" lookup
// flags a near-miss name without rejecting it.
func warnIfNearKeyword(ps ParseState, atom syntax.TaggedRange) {
	name := ps.Text(atom.FirstByte, atom.LastByte)
	match, _, ok := suggest.NearestKeyword(name, keywordTypoDistance)
	if !ok {
		return
	}
	ps.AddDiagnostic(syntax.Diagnostic{
		Message:    fmt.Sprintf("%q is very close to the reserved word %q", name, match),
		Suggestion: fmt.Sprintf("did you mean `%s`?", match),
		FirstByte:  atom.FirstByte,
		LastByte:   atom.LastByte,
		Severity:   syntax.SeverityWarning,
	})
}

// maybeParseWhereClause wraps atom in a NodeWhereClause if a trailing
// `where` follows and where-clauses are enabled both contextually
// (ParseState.WhereEnabled,) and by the active grammar
// (config.FeatureWhereClauses). Otherwise atom is returned unchanged.
func maybeParseWhereClause(ps ParseState, start int, atom syntax.TaggedRange) syntax.TaggedRange {
	if !ps.WhereEnabled() || !ps.FeatureEnabled(config.FeatureWhereClauses) {
		return atom
	}
	if ps.Peek(0) != token.KwWhere {
		return atom
	}
	ps.Bump(structural, token.Nothing, "")
	constraints := ps.WithWhereEnabled(false)
	ParseEq(constraints)
	for constraints.Peek(0) == token.Comma {
		constraints.Bump(structural, token.Nothing, "")
		ParseEq(constraints)
	}
	return ps.Emit(token.NodeWhereClause, token.EmptyFlags, start, "")
}

// parseColonAtom implements the `:` branch of parse_atom: a bare colon, a
// quoting colon, or a whitespace-after-colon error that still recovers
// into a quote.
func parseColonAtom(ps ParseState, start int) syntax.TaggedRange {
	next := ps.PeekToken(1)
	isClosing := IsClosingToken(ps, next.Raw.Kind)
	bareColon := isClosing && !(next.Raw.Kind.IsKeyword() && next.HadWhitespace)
	if bareColon {
		return ps.Bump(token.EmptyFlags, token.Nothing, "")
	}

	// Consume the colon itself first - EmitDiagnostic attaches to the span
	// of whatever is now the *next* significant token, so the diagnostic
	// must be raised after the colon is behind us, not before.
	ps.Bump(token.EmptyFlags, token.Nothing, "") // the colon itself is the quote's meaningful head
	if next.HadWhitespace || next.HadNewline {
		ps.EmitDiagnostic(true, "whitespace not allowed after ':' used for quoting")
	}
	ParseAtom(ps.WithEndSymbol(false), true)
	return ps.Emit(token.NodeQuote, token.EmptyFlags, start, "")
}

// parseCommandLiteral represents a backtick command literal as an implicit
// macro call: an invisible macro-name token plus the backtick content.
func parseCommandLiteral(ps ParseState, start int) syntax.TaggedRange {
	ps.BumpInvisible(token.Identifier, token.EmptyFlags)
	ps.Bump(token.EmptyFlags, token.Nothing, "")
	return ps.Emit(token.NodeImplicitMacroCall, token.EmptyFlags, start, "")
}

// ParseParen parses `(...)`: empty `()` is
// a zero-element tuple, a lone expression with no comma is a parenthesized
// expression, and one or more commas (including a forced trailing one)
// make it an N-tuple.
func ParseParen(ps ParseState) syntax.TaggedRange {
	start := ps.Position()
	ps.Bump(structural, token.Nothing, "")
	inner := ps.WithWhitespaceNewline(true)

	if inner.Peek(0) == token.RParen {
		inner.Bump(structural, token.Nothing, "")
		return ps.Emit(token.NodeTuple, token.EmptyFlags, start, "")
	}

	down := func(s ParseState) syntax.TaggedRange { return ParseEq(s) }
	_, isTuple := ParseComma(inner, down)

	if inner.Peek(0) == token.RParen {
		inner.Bump(structural, token.Nothing, "")
	} else {
		inner.EmitDiagnostic(false, "expected `)`")
	}

	kind := token.NodeParen
	if isTuple {
		kind = token.NodeTuple
	}
	return ps.Emit(kind, token.EmptyFlags, start, "")
}

// ParseComma is the comma-separated list combinator shared by ParseParen
// and (eventually) call argument lists:
// parses down(ps), then while the current token is `,`, bumps it and
// parses another down(ps), stopping at IsClosingToken. A comma immediately
// followed by a closing token is a trailing comma and does not parse a
// further item. Returns the element count and whether any comma was seen
// at all (a single trailing comma after one element still forces a tuple).
func ParseComma(ps ParseState, down func(ParseState) syntax.TaggedRange) (count int, sawComma bool) {
	down(ps)
	count = 1
	for ps.Peek(0) == token.Comma {
		sawComma = true
		ps.Bump(structural, token.Nothing, "")
		if IsClosingToken(ps, ps.Peek(0)) {
			break
		}
		down(ps)
		count++
	}
	return count, sawComma
}

// ParseCat parses the contents of a bracketed form opened by opening.
func ParseCat(ps ParseState, opening syntax.TaggedRange, closer token.Kind, lastEndSymbol bool) syntax.TaggedRange {
	start := opening.FirstByte
	inner := ps.
		WithRangeColonEnabled(true).
		WithSpaceSensitive(true).
		WithWhereEnabled(true).
		WithWhitespaceNewline(false).
		WithForGenerator(true).
		WithEndSymbol(lastEndSymbol)

	if inner.Peek(0) == closer {
		inner.Bump(structural, token.Nothing, "")
		return ps.Emit(emptyCatKind(inner, closer), token.EmptyFlags, start, "")
	}

	kind := parseCatBody(inner, closer)

	if inner.Peek(0) == closer {
		inner.Bump(structural, token.Nothing, "")
	} else {
		inner.EmitDiagnostic(false, fmt.Sprintf("expected `%s`", closer))
	}
	return ps.Emit(kind, token.EmptyFlags, start, "")
}

func emptyCatKind(ps ParseState, closer token.Kind) token.Kind {
	if closer == token.RBrace && ps.FeatureEnabled(config.FeatureHashLiteral) {
		return token.NodeHash
	}
	return token.NodeVect
}

// parseCatBody dispatches on the shape of a non-empty bracketed form:
// vector, matrix (space-sensitive rows), generator, or hash. The
// generator and hash shapes are gated behind config.FeatureGeneratorLiteral
// and config.FeatureHashLiteral respectively; when a feature is off its
// trigger is ignored and the body falls through to the ungated shapes.
func parseCatBody(ps ParseState, closer token.Kind) token.Kind {
	down := func(s ParseState) syntax.TaggedRange { return ParseEq(s) }

	if closer == token.RBrace && ps.FeatureEnabled(config.FeatureHashLiteral) {
		return parseHashBody(ps, down)
	}

	rowStart := ps.Position()
	down(ps)

	switch ps.Peek(0) {
	case token.KwFor:
		if !ps.FeatureEnabled(config.FeatureGeneratorLiteral) {
			return parseMatrixRows(ps, down, rowStart)
		}
		parseGeneratorTail(ps)
		return token.NodeGenerator
	case token.Semicolon, token.NewlineWs:
		return parseMatrixRows(ps, down, rowStart)
	case token.Comma:
		for ps.Peek(0) == token.Comma {
			ps.Bump(structural, token.Nothing, "")
			if IsClosingToken(ps, ps.Peek(0)) {
				break
			}
			down(ps)
		}
		return token.NodeVect
	default:
		if ps.SpaceSensitive() && !IsClosingToken(ps, ps.Peek(0)) {
			return parseMatrixRows(ps, down, rowStart)
		}
		return token.NodeVect
	}
}

func parseMatrixRows(ps ParseState, down func(ParseState) syntax.TaggedRange, firstRowStart int) token.Kind {
	rowStart := firstRowStart
	for {
		for !IsClosingToken(ps, ps.Peek(0)) && ps.Peek(0) != token.Semicolon && ps.Peek(0) != token.NewlineWs {
			down(ps)
		}
		ps.Emit(token.NodeMatrixRow, token.EmptyFlags, rowStart, "")
		if ps.Peek(0) == token.Semicolon || ps.Peek(0) == token.NewlineWs {
			ps.Bump(structural, token.Nothing, "")
			rowStart = ps.Position()
			continue
		}
		break
	}
	return token.NodeMatrix
}

func parseGeneratorTail(ps ParseState) {
	for ps.Peek(0) == token.KwFor {
		ps.Bump(structural, token.Nothing, "")
		parseForIteration(ps.WithForGenerator(false))
		for ps.Peek(0) == token.Comma {
			ps.Bump(structural, token.Nothing, "")
			parseForIteration(ps.WithForGenerator(false))
		}
	}
}

func parseHashBody(ps ParseState, down func(ParseState) syntax.TaggedRange) token.Kind {
	parseHashPair(ps, down)
	for ps.Peek(0) == token.Comma {
		ps.Bump(structural, token.Nothing, "")
		if IsClosingToken(ps, ps.Peek(0)) {
			break
		}
		parseHashPair(ps, down)
	}
	return token.NodeHash
}

func parseHashPair(ps ParseState, down func(ParseState) syntax.TaggedRange) syntax.TaggedRange {
	start := ps.Position()
	down(ps)
	if ps.Peek(0) == token.FatArrow {
		ps.Bump(structural, token.Nothing, "")
	} else {
		ps.EmitDiagnostic(false, "expected `=>` in hash literal")
	}
	down(ps)
	return ps.Emit(token.NodeHashPair, token.EmptyFlags, start, "")
}

// ParseStatements parses a separated run of statements into a single
// interior node of wrapKind, via ParseNary. Callers pass
// token.NodeToplevel for the whole-file entry point and token.NodeBlock
// for every nested statement sequence (if/while/for/begin bodies). At top
// level only EndMarker ends the run: a stray closing token is parsed as an
// error item, so the tree still covers the whole file.
func ParseStatements(ps ParseState, wrapKind token.Kind) syntax.TaggedRange {
	ps = ps.WithWhitespaceNewline(false)
	isSeparator := func(k token.Kind) bool { return k == token.Semicolon || k == token.NewlineWs }
	isTerminator := func(s ParseState, k token.Kind) bool { return k == token.EndMarker || IsClosingToken(s, k) }
	if wrapKind == token.NodeToplevel {
		isTerminator = func(_ ParseState, k token.Kind) bool { return k == token.EndMarker }
	}
	return ParseNary(ps, ParseStatement, isSeparator, isTerminator, wrapKind)
}

// ParseNary is the shared N-ary combinator: parses items with
// parseItem until isTerminator, bumping a separator between items whenever
// one is present, and emits a single interior node of wrapKind covering
// the whole run.
func ParseNary(
	ps ParseState,
	parseItem func(ParseState) syntax.TaggedRange,
	isSeparator func(token.Kind) bool,
	isTerminator func(ParseState, token.Kind) bool,
	wrapKind token.Kind,
) syntax.TaggedRange {
	start := ps.Position()
	for !isTerminator(ps, ps.Peek(0)) {
		parseItem(ps)
		for isSeparator(ps.Peek(0)) {
			ps.Bump(structural, token.Nothing, "")
			if isTerminator(ps, ps.Peek(0)) {
				break
			}
		}
	}
	if ps.Peek(0) == token.EndMarker {
		// EndMarker is never bumped, so any trailing whitespace or comment
		// run ahead of it would otherwise never reach the span log. Drain
		// it before emitting the wrap node so it ends up inside this
		// node's range instead of becoming an orphan sibling span.
		ps.DrainTrailingTrivia()
	}
	return ps.Emit(wrapKind, token.EmptyFlags, start, "")
}

// ParseStatement is the per-item production ParseStatements passes to
// ParseNary: it tries the keyword-introduced block forms and falls back
// to ParseEq.
func ParseStatement(ps ParseState) syntax.TaggedRange {
	switch ps.Peek(0) {
	case token.KwBegin:
		return parseBlockLike(ps, token.NodeBlock)
	case token.KwQuote:
		return parseBlockLike(ps, token.NodeQuote)
	case token.KwIf:
		return parseIfLike(ps)
	case token.KwFor:
		return parseForLoop(ps)
	case token.KwWhile:
		return parseWhileLoop(ps)
	default:
		return ParseEq(ps)
	}
}

func parseBlockLike(ps ParseState, kind token.Kind) syntax.TaggedRange {
	start := ps.Position()
	ps.Bump(structural, token.Nothing, "")
	ParseStatements(ps.WithEndSymbol(false), token.NodeBlock)
	consumeEnd(ps)
	return ps.Emit(kind, token.EmptyFlags, start, "")
}

func parseWhileLoop(ps ParseState) syntax.TaggedRange {
	start := ps.Position()
	ps.Bump(structural, token.Nothing, "") // 'while'
	ParseEq(ps)
	ParseStatements(ps.WithEndSymbol(false), token.NodeBlock)
	consumeEnd(ps)
	return ps.Emit(token.NodeWhileLoop, token.EmptyFlags, start, "")
}

func parseForLoop(ps ParseState) syntax.TaggedRange {
	start := ps.Position()
	ps.Bump(structural, token.Nothing, "") // 'for'
	parseForIteration(ps)
	for ps.Peek(0) == token.Comma {
		ps.Bump(structural, token.Nothing, "")
		parseForIteration(ps)
	}
	ParseStatements(ps.WithEndSymbol(false), token.NodeBlock)
	consumeEnd(ps)
	return ps.Emit(token.NodeForLoop, token.EmptyFlags, start, "")
}

func parseForIteration(ps ParseState) syntax.TaggedRange {
	start := ps.Position()
	ParseAtom(ps, true)
	if ps.Peek(0) == token.KwIn {
		ps.Bump(structural, token.Nothing, "")
	} else {
		ps.EmitDiagnostic(false, "expected `in`")
	}
	ParseEq(ps.WithForGenerator(false))
	return ps.Emit(token.NodeForIteration, token.EmptyFlags, start, "")
}

func parseIfLike(ps ParseState) syntax.TaggedRange {
	start := ps.Position()
	ps.Bump(structural, token.Nothing, "") // 'if'
	ParseEq(ps)
	ParseStatements(ps.WithEndSymbol(false), token.NodeBlock)

	for ps.Peek(0) == token.KwElseif {
		clauseStart := ps.Position()
		ps.Bump(structural, token.Nothing, "")
		ParseEq(ps)
		ParseStatements(ps.WithEndSymbol(false), token.NodeBlock)
		ps.Emit(token.NodeElseifClause, token.EmptyFlags, clauseStart, "")
	}
	if ps.Peek(0) == token.KwElse {
		clauseStart := ps.Position()
		ps.Bump(structural, token.Nothing, "")
		ParseStatements(ps.WithEndSymbol(false), token.NodeBlock)
		ps.Emit(token.NodeElseClause, token.EmptyFlags, clauseStart, "")
	}

	consumeEnd(ps)
	return ps.Emit(token.NodeIf, token.EmptyFlags, start, "")
}

func consumeEnd(ps ParseState) {
	if ps.EndSymbol() {
		return
	}
	if ps.Peek(0) == token.KwEnd {
		ps.Bump(structural, token.Nothing, "")
	} else {
		ps.EmitDiagnostic(false, "expected `end`")
	}
}

// isAssignmentOp reports whether k is one of the assignment-precedence
// operators ParseAssignment recognizes.
func isAssignmentOp(k token.Kind) bool {
	switch k {
	case token.OpEquals, token.OpPlusEq, token.OpMinusEq, token.OpStarEq, token.OpSlashEq, token.Tilde:
		return true
	default:
		return false
	}
}

// ParseEq parses a top-precedence expression, i.e. assignment over atoms.
// The full operator-precedence table beyond atoms and assignment is out
// of this core's scope.
func ParseEq(ps ParseState) syntax.TaggedRange {
	return ParseAssignment(ps, func(s ParseState) syntax.TaggedRange { return ParseAtom(s, true) })
}

// ParseAssignment parses down(ps), then, if an assignment-precedence
// operator follows, right-associatively recurses on itself with the same
// down. The resulting interior node reuses
// the operator's own Kind as its head - it is "tagged with the operator
// kind" rather than wrapped in a separate generic kind - except for `~`,
// which is not assignment at all and produces a call node instead.
func ParseAssignment(ps ParseState, down func(ParseState) syntax.TaggedRange) syntax.TaggedRange {
	start := ps.Position()
	lhs := down(ps)

	op := ps.Peek(0)
	if !isAssignmentOp(op) {
		return lhs
	}

	if op == token.Tilde {
		ps.Bump(token.EmptyFlags, token.Nothing, "") // kept: the call's operator child
		ParseAssignment(ps, down)
		return ps.Emit(token.NodeCall, token.EmptyFlags, start, "")
	}

	ps.Bump(structural, token.Nothing, "")
	ParseAssignment(ps, down)
	return ps.Emit(op, token.EmptyFlags, start, "")
}
