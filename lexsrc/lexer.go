package lexsrc

import (
	"unicode"
	"unicode/utf8"

	"github.com/vela-lang/vela/token"
)

// ASCII character lookup tables for fast classification, avoiding a
// unicode package call on the lexer's hot loop for the common case.
var (
	isWhitespaceASCII [128]bool
	isIdentStartASCII [128]bool
	isIdentPartASCII  [128]bool
	isDigitASCII      [128]bool
	singleCharKind    [128]token.Kind
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespaceASCII[i] = ch == ' ' || ch == '\t' || ch == '\r'
		isIdentStartASCII[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
		isDigitASCII[i] = '0' <= ch && ch <= '9'
		isIdentPartASCII[i] = isIdentStartASCII[i] || isDigitASCII[i]
	}

	singleCharKind['('] = token.LParen
	singleCharKind[')'] = token.RParen
	singleCharKind['['] = token.LBracket
	singleCharKind[']'] = token.RBracket
	singleCharKind['{'] = token.LBrace
	singleCharKind['}'] = token.RBrace
	singleCharKind[','] = token.Comma
	singleCharKind[';'] = token.Semicolon
	singleCharKind['@'] = token.At
	singleCharKind['?'] = token.Question
	singleCharKind['^'] = token.OpCaret
	singleCharKind['%'] = token.OpPercent
}

var keywords = map[string]token.Kind{
	"end":      token.KwEnd,
	"else":     token.KwElse,
	"elseif":   token.KwElseif,
	"if":       token.KwIf,
	"for":      token.KwFor,
	"in":       token.KwIn,
	"while":    token.KwWhile,
	"do":       token.KwDo,
	"begin":    token.KwBegin,
	"quote":    token.KwQuote,
	"where":    token.KwWhere,
	"catch":    token.KwCatch,
	"finally":  token.KwFinally,
	"try":      token.KwTry,
	"function": token.KwFunction,
	"return":   token.KwReturn,
	"break":    token.KwBreak,
	"continue": token.KwContinue,
	"local":    token.KwLocal,
	"global":   token.KwGlobal,
	"const":    token.KwConst,
	"module":   token.KwModule,
	"import":   token.KwImport,
	"export":   token.KwExport,
	"macro":    token.KwMacro,
	"struct":   token.KwStruct,
	"mutable":  token.KwMutable,
	"abstract": token.KwAbstract,
	"nothing":  token.KwNothing,
	"true":     token.Boolean,
	"false":    token.Boolean,
}

// Keywords returns the reserved-word set, keyed by spelling. Exported for
// package suggest, which fuzzy-matches a rejected identifier against it.
func Keywords() map[string]token.Kind {
	return keywords
}

// Lexer is the reference implementation of the TokenSource contract for Vela
// source text. It is hand-written (no scanner-generator library appears in
// any example repo's dependency list) and split one method per token
// class, mirroring runtime/lexer/v2/lexer.go's lex<Class> method family.
type Lexer struct {
	src      []byte
	pos      int // 0-based byte offset of the next unread byte
	emittedEnd bool
}

// New creates a Lexer over src. The lexer does not copy src.
func New(src []byte) *Lexer {
	return &Lexer{src: src}
}

func (l *Lexer) Next() RawToken {
	if l.pos >= len(l.src) {
		if l.emittedEnd {
			// Contract: never emit past EndMarker. A caller that keeps
			// pulling after EOF gets an infinite run of empty EndMarkers,
			// which is what ParseStream's peek_count guard exists to catch.
		}
		l.emittedEnd = true
		return RawToken{Kind: token.EndMarker, StartByte: len(l.src), EndByte: len(l.src)}
	}

	start := l.pos
	ch := l.src[l.pos]

	switch {
	case ch < 128 && isWhitespaceASCII[ch]:
		return l.lexWhitespace(start)
	case ch == '\n':
		l.pos++
		return RawToken{Kind: token.NewlineWs, StartByte: start, EndByte: l.pos}
	case ch == '#':
		return l.lexComment(start)
	case ch < 128 && isIdentStartASCII[ch]:
		return l.lexIdentifier(start)
	case ch >= 0x80:
		return l.lexUnicodeIdentifier(start)
	case ch < 128 && isDigitASCII[ch]:
		return l.lexNumber(start)
	case ch == '"':
		return l.lexString(start, '"')
	case ch == '\'':
		return l.lexChar(start)
	case ch == '`':
		return l.lexBacktick(start)
	case ch == '$':
		return l.lexVarIdentifier(start)
	case ch == ':':
		return l.lexColon(start)
	case ch == '.':
		return l.lexDot(start)
	case ch == '=':
		return l.lexEquals(start)
	case ch == '!':
		return l.lexBang(start)
	case ch == '<':
		return l.lexLess(start)
	case ch == '>':
		return l.lexGreater(start)
	case ch == '&':
		return l.lex2(start, '&', token.OpAndAnd, token.Error)
	case ch == '|':
		return l.lexPipe(start)
	case ch == '~':
		l.pos++
		return RawToken{Kind: token.Tilde, StartByte: start, EndByte: l.pos}
	case ch == '+':
		return l.lexCompoundAssign(start, token.OpPlus, token.OpPlusEq)
	case ch == '-':
		return l.lexMinus(start)
	case ch == '*':
		return l.lexCompoundAssign(start, token.OpStar, token.OpStarEq)
	case ch == '/':
		return l.lexCompoundAssign(start, token.OpSlash, token.OpSlashEq)
	case ch < 128 && singleCharKind[ch] != token.TOMBSTONE:
		l.pos++
		return RawToken{Kind: singleCharKind[ch], StartByte: start, EndByte: l.pos}
	default:
		l.pos++
		return RawToken{Kind: token.Error, StartByte: start, EndByte: l.pos}
	}
}

func (l *Lexer) lexWhitespace(start int) RawToken {
	for l.pos < len(l.src) && l.src[l.pos] < 128 && isWhitespaceASCII[l.src[l.pos]] {
		l.pos++
	}
	return RawToken{Kind: token.Whitespace, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexComment(start int) RawToken {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
	return RawToken{Kind: token.Comment, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexIdentifier(start int) RawToken {
	l.pos++
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch < 128 && isIdentPartASCII[ch] {
			l.pos++
			continue
		}
		if ch >= 0x80 {
			r, size := utf8.DecodeRune(l.src[l.pos:])
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				l.pos += size
				continue
			}
		}
		break
	}
	text := string(l.src[start:l.pos])
	if kind, ok := keywords[text]; ok {
		return RawToken{Kind: kind, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: token.Identifier, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexUnicodeIdentifier(start int) RawToken {
	r, size := utf8.DecodeRune(l.src[l.pos:])
	if !unicode.IsLetter(r) {
		l.pos += size
		return RawToken{Kind: token.Error, StartByte: start, EndByte: l.pos}
	}
	l.pos += size
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch < 128 && isIdentPartASCII[ch] {
			l.pos++
			continue
		}
		if ch >= 0x80 {
			r, size := utf8.DecodeRune(l.src[l.pos:])
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				l.pos += size
				continue
			}
		}
		break
	}
	return RawToken{Kind: token.Identifier, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexVarIdentifier(start int) RawToken {
	l.pos++ // consume '$'
	for l.pos < len(l.src) && l.src[l.pos] < 128 && isIdentPartASCII[l.src[l.pos]] {
		l.pos++
	}
	return RawToken{Kind: token.VarIdentifier, StartByte: start, EndByte: l.pos}
}

// lexNumber consumes an Integer or Float, including an optional trailing
// identifier-like suffix (e.g. "1.5f0"), marked with the Suffix bit.
func (l *Lexer) lexNumber(start int) RawToken {
	kind := token.Integer
	for l.pos < len(l.src) && l.src[l.pos] < 128 && isDigitASCII[l.src[l.pos]] {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && l.src[l.pos+1] != '.' {
		kind = token.Float
		l.pos++
		for l.pos < len(l.src) && l.src[l.pos] < 128 && isDigitASCII[l.src[l.pos]] {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && l.src[l.pos] < 128 && isDigitASCII[l.src[l.pos]] {
			kind = token.Float
			for l.pos < len(l.src) && l.src[l.pos] < 128 && isDigitASCII[l.src[l.pos]] {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	suffix := false
	if l.pos < len(l.src) && l.src[l.pos] < 128 && isIdentStartASCII[l.src[l.pos]] {
		suffix = true
		for l.pos < len(l.src) && l.src[l.pos] < 128 && isIdentPartASCII[l.src[l.pos]] {
			l.pos++
		}
	}
	return RawToken{Kind: kind, StartByte: start, EndByte: l.pos, Suffix: suffix}
}

func (l *Lexer) lexString(start int, quote byte) RawToken {
	l.pos++ // opening quote
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		if ch == quote {
			l.pos++
			break
		}
		l.pos++
	}
	suffix := false
	if l.pos < len(l.src) && l.src[l.pos] < 128 && isIdentStartASCII[l.src[l.pos]] {
		suffix = true
		for l.pos < len(l.src) && l.src[l.pos] < 128 && isIdentPartASCII[l.src[l.pos]] {
			l.pos++
		}
	}
	return RawToken{Kind: token.String, StartByte: start, EndByte: l.pos, Suffix: suffix}
}

func (l *Lexer) lexChar(start int) RawToken {
	l.pos++ // opening quote
	if l.pos < len(l.src) && l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
		l.pos += 2
	} else if l.pos < len(l.src) {
		_, size := utf8.DecodeRune(l.src[l.pos:])
		l.pos += size
	}
	if l.pos < len(l.src) && l.src[l.pos] == '\'' {
		l.pos++
		return RawToken{Kind: token.Char, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: token.Error, StartByte: start, EndByte: l.pos}
}

// lexBacktick consumes a whole backtick command literal `...` as a single
// token.
func (l *Lexer) lexBacktick(start int) RawToken {
	l.pos++
	for l.pos < len(l.src) && l.src[l.pos] != '`' {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		l.pos++
	}
	if l.pos < len(l.src) {
		l.pos++
	}
	return RawToken{Kind: token.BackTick, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexColon(start int) RawToken {
	l.pos++
	if l.pos < len(l.src) && l.src[l.pos] == ':' {
		l.pos++
		return RawToken{Kind: token.DoubleColon, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: token.Colon, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexDot(start int) RawToken {
	l.pos++
	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && l.src[l.pos+1] == '.' {
		l.pos += 2
		return RawToken{Kind: token.DotDotDot, StartByte: start, EndByte: l.pos}
	}
	// A dot immediately followed by an operator character is the
	// "broadcast"/dotted form of that operator (sets the Dotted bit).
	if l.pos < len(l.src) {
		if kind, ok := dottableOperator(l.src[l.pos]); ok {
			opStart := l.pos
			l.pos++
			if l.src[opStart] == '=' && l.pos < len(l.src) && l.src[l.pos] == '=' {
				l.pos++
				return RawToken{Kind: token.OpEqEq, StartByte: start, EndByte: l.pos, Dotted: true}
			}
			return RawToken{Kind: kind, StartByte: start, EndByte: l.pos, Dotted: true}
		}
	}
	return RawToken{Kind: token.Dot, StartByte: start, EndByte: l.pos}
}

func dottableOperator(ch byte) (token.Kind, bool) {
	switch ch {
	case '+':
		return token.OpPlus, true
	case '-':
		return token.OpMinus, true
	case '*':
		return token.OpStar, true
	case '/':
		return token.OpSlash, true
	case '^':
		return token.OpCaret, true
	case '=':
		return token.OpEquals, true
	default:
		return token.TOMBSTONE, false
	}
}

func (l *Lexer) lexEquals(start int) RawToken {
	l.pos++
	if l.pos < len(l.src) && l.src[l.pos] == '=' {
		l.pos++
		return RawToken{Kind: token.OpEqEq, StartByte: start, EndByte: l.pos}
	}
	if l.pos < len(l.src) && l.src[l.pos] == '>' {
		l.pos++
		return RawToken{Kind: token.FatArrow, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: token.OpEquals, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexBang(start int) RawToken {
	l.pos++
	if l.pos < len(l.src) && l.src[l.pos] == '=' {
		l.pos++
		return RawToken{Kind: token.OpNotEq, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: token.OpNot, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexLess(start int) RawToken {
	l.pos++
	if l.pos < len(l.src) && l.src[l.pos] == '=' {
		l.pos++
		return RawToken{Kind: token.OpLessEq, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: token.OpLess, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexGreater(start int) RawToken {
	l.pos++
	if l.pos < len(l.src) && l.src[l.pos] == '=' {
		l.pos++
		return RawToken{Kind: token.OpGreaterEq, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: token.OpGreater, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexPipe(start int) RawToken {
	l.pos++
	if l.pos < len(l.src) && l.src[l.pos] == '|' {
		l.pos++
		return RawToken{Kind: token.OpOrOr, StartByte: start, EndByte: l.pos}
	}
	if l.pos < len(l.src) && l.src[l.pos] == '>' {
		l.pos++
		return RawToken{Kind: token.OpPipe, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: token.Error, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexMinus(start int) RawToken {
	l.pos++
	if l.pos < len(l.src) && l.src[l.pos] == '=' {
		l.pos++
		return RawToken{Kind: token.OpMinusEq, StartByte: start, EndByte: l.pos}
	}
	if l.pos < len(l.src) && l.src[l.pos] == '>' {
		l.pos++
		return RawToken{Kind: token.Arrow, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: token.OpMinus, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lexCompoundAssign(start int, base, withEquals token.Kind) RawToken {
	l.pos++
	if l.pos < len(l.src) && l.src[l.pos] == '=' {
		l.pos++
		return RawToken{Kind: withEquals, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: base, StartByte: start, EndByte: l.pos}
}

func (l *Lexer) lex2(start int, second byte, matched, fallback token.Kind) RawToken {
	l.pos++
	if l.pos < len(l.src) && l.src[l.pos] == second {
		l.pos++
		return RawToken{Kind: matched, StartByte: start, EndByte: l.pos}
	}
	if fallback == token.Error {
		return RawToken{Kind: token.Error, StartByte: start, EndByte: l.pos}
	}
	return RawToken{Kind: fallback, StartByte: start, EndByte: l.pos}
}
