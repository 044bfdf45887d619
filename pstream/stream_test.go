package pstream

import (
	"testing"

	"github.com/vela-lang/vela/lexsrc"
	"github.com/vela-lang/vela/syntax"
	"github.com/vela-lang/vela/token"
)

func newStream(src string) *Stream {
	return New(lexsrc.New([]byte(src)), []byte(src))
}

func TestPeekSkipsTriviaAndReportsHadWhitespace(t *testing.T) {
	s := newStream("a   b")
	if got := s.Peek(0, true); got != token.Identifier {
		t.Fatalf("Peek(0) = %s, want Identifier", got)
	}
	tok := s.PeekToken(1, true)
	if tok.Raw.Kind != token.Identifier {
		t.Fatalf("PeekToken(1) kind = %s, want Identifier", tok.Raw.Kind)
	}
	if !tok.HadWhitespace {
		t.Error("expected HadWhitespace=true for token preceded by spaces")
	}
}

func TestPeekNewlineSkippingToggle(t *testing.T) {
	s := newStream("a\nb")
	if got := s.Peek(1, true); got != token.Identifier {
		t.Fatalf("skipNewlines=true: Peek(1) = %s, want Identifier", got)
	}

	s2 := newStream("a\nb")
	if got := s2.Peek(1, false); got != token.NewlineWs {
		t.Fatalf("skipNewlines=false: Peek(1) = %s, want NewlineWs", got)
	}
}

func TestBumpEmitsTriviaThenSignificantSpan(t *testing.T) {
	s := newStream("  a")
	r := s.Bump(true, token.EmptyFlags, token.Nothing, "")
	if r.Head.Kind != token.Identifier {
		t.Fatalf("Bump returned %s, want Identifier", r.Head.Kind)
	}
	spans := s.Spans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2 (whitespace + identifier)", len(spans))
	}
	if spans[0].Head.Kind != token.Whitespace || !spans[0].Head.IsTrivia() {
		t.Errorf("spans[0] = %+v, want trivia Whitespace", spans[0])
	}
	if spans[1].Head.Kind != token.Identifier {
		t.Errorf("spans[1] = %+v, want Identifier", spans[1])
	}
}

func TestBumpWithNewKindOverridesSignificantSpanKind(t *testing.T) {
	s := newStream("if")
	r := s.Bump(true, token.EmptyFlags, token.NodeBlock, "")
	if r.Head.Kind != token.NodeBlock {
		t.Fatalf("Bump newKind override got %s, want NodeBlock", r.Head.Kind)
	}
}

func TestBumpWithDiagMsgSetsErrorFlagAndDiagnostic(t *testing.T) {
	s := newStream("x")
	r := s.Bump(true, token.EmptyFlags, token.Nothing, "unexpected x")
	if !r.Head.Flags.Has(token.ErrorFlag) {
		t.Error("expected ErrorFlag set on the bumped span")
	}
	diags := s.Diagnostics()
	if len(diags) != 1 || diags[0].Message != "unexpected x" {
		t.Fatalf("diagnostics = %+v, want one diagnostic with message %q", diags, "unexpected x")
	}
}

func TestBumpStopsAtEndMarker(t *testing.T) {
	s := newStream("")
	r := s.Bump(true, token.EmptyFlags, token.Nothing, "")
	if r.Head.Kind != token.EndMarker {
		t.Fatalf("Bump on empty input = %s, want EndMarker", r.Head.Kind)
	}
}

func TestBumpIncrementsBumpCount(t *testing.T) {
	s := newStream("a b c")
	if s.BumpCount() != 0 {
		t.Fatalf("BumpCount() = %d before any Bump, want 0", s.BumpCount())
	}
	s.Bump(true, token.EmptyFlags, token.Nothing, "")
	s.Bump(true, token.EmptyFlags, token.Nothing, "")
	if got := s.BumpCount(); got != 2 {
		t.Fatalf("BumpCount() = %d after 2 bumps, want 2", got)
	}
}

func TestBumpTriviaConsumesOneLeadingTrivium(t *testing.T) {
	s := newStream("  a")
	r := s.BumpTrivia()
	if r.Head.Kind != token.Whitespace {
		t.Fatalf("BumpTrivia() = %s, want Whitespace", r.Head.Kind)
	}
	// The significant token behind it is untouched.
	if got := s.Peek(0, true); got != token.Identifier {
		t.Fatalf("Peek(0) after BumpTrivia = %s, want Identifier", got)
	}
}

func TestBumpTriviaPanicsWithoutLeadingTrivia(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling BumpTrivia with no leading trivia")
		}
	}()
	s := newStream("a")
	s.BumpTrivia()
}

func TestBumpInvisibleEmitsZeroWidthSpanAtCurrentPosition(t *testing.T) {
	s := newStream("a")
	pos := s.Position()
	r := s.BumpInvisible(token.NodeImplicitMacroCall, token.EmptyFlags)
	if !r.Invisible() {
		t.Fatal("expected invisible span")
	}
	if r.FirstByte != pos {
		t.Errorf("invisible span FirstByte = %d, want %d", r.FirstByte, pos)
	}
}

func TestMarkAndResetToken(t *testing.T) {
	s := newStream("a")
	s.Bump(true, token.EmptyFlags, token.Nothing, "")
	mark := s.Mark()
	s.ResetToken(mark, token.VarIdentifier, token.EmptyFlags)
	if s.Spans()[mark].Head.Kind != token.VarIdentifier {
		t.Errorf("ResetToken did not rewrite kind: %+v", s.Spans()[mark])
	}
}

func TestMarkPanicsWithNoPriorSpan(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling Mark with no emitted spans")
		}
	}()
	s := newStream("a")
	s.Mark()
}

func TestEmitWrapsFromMarkToCurrentPosition(t *testing.T) {
	s := newStream("(a)")
	from := s.Position()
	s.Bump(true, token.EmptyFlags, token.Nothing, "") // (
	s.Bump(true, token.EmptyFlags, token.Nothing, "") // a
	s.Bump(true, token.EmptyFlags, token.Nothing, "") // )
	r := s.Emit(token.NodeParen, token.EmptyFlags, from, "")
	if r.Head.Kind != token.NodeParen {
		t.Fatalf("Emit returned %s, want NodeParen", r.Head.Kind)
	}
	if r.FirstByte != from || r.LastByte != 3 {
		t.Errorf("Emit range = [%d,%d], want [%d,3]", r.FirstByte, r.LastByte, from)
	}
}

func TestEmitWithDiagMsgAppendsDiagnostic(t *testing.T) {
	s := newStream("a")
	from := s.Position()
	s.Bump(true, token.EmptyFlags, token.Nothing, "")
	s.Emit(token.NodeBlock, token.EmptyFlags, from, "broken block")
	diags := s.Diagnostics()
	if len(diags) != 1 || diags[0].Message != "broken block" {
		t.Fatalf("diagnostics = %+v", diags)
	}
}

func TestTextReturnsSourceSlice(t *testing.T) {
	s := newStream("hello world")
	if got := s.Text(1, 5); got != "hello" {
		t.Errorf("Text(1,5) = %q, want %q", got, "hello")
	}
	if got := s.Text(5, 4); got != "" {
		t.Errorf("Text on invisible range = %q, want empty", got)
	}
}

func TestAddDiagnosticAppendsVerbatim(t *testing.T) {
	s := newStream("x")
	d := syntax.Diagnostic{Message: "custom warning", Severity: syntax.SeverityWarning, FirstByte: 1, LastByte: 1}
	s.AddDiagnostic(d)
	diags := s.Diagnostics()
	if len(diags) != 1 || diags[0].Message != "custom warning" {
		t.Fatalf("diagnostics = %+v", diags)
	}
}

func TestPeekCountGuardPanicsWhenParserIsStuck(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from the stuck-parser progress guard")
		}
	}()
	s := newStream("a")
	for i := 0; i < maxPeeksWithoutBump+1; i++ {
		s.Peek(0, true)
	}
}
