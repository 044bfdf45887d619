package parse_test

import (
	"strings"
	"testing"

	"github.com/vela-lang/vela/config"
	"github.com/vela-lang/vela/parse"
	"github.com/vela-lang/vela/syntax"
	"github.com/vela-lang/vela/token"
)

func firstChildKinds(n *syntax.GreenNode) []token.Kind {
	kinds := make([]token.Kind, len(n.Children))
	for i, c := range n.Children {
		kinds[i] = c.Head.Kind
	}
	return kinds
}

func nonTrivia(n *syntax.GreenNode) []*syntax.GreenNode {
	var out []*syntax.GreenNode
	for _, c := range n.Children {
		if !c.Head.IsTrivia() {
			out = append(out, c)
		}
	}
	return out
}

// TestBareColonAtom checks that ":" alone is a single ":" leaf wrapped in
// the toplevel node, with no diagnostics.
func TestBareColonAtom(t *testing.T) {
	result := parse.Parse([]byte(":"), nil)
	if len(result.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v, want none", result.Diagnostics)
	}
	leaves := nonTrivia(result.Tree)
	if len(leaves) != 1 || leaves[0].Head.Kind != token.Colon {
		t.Fatalf("non-trivia children = %v, want a single Colon leaf", firstChildKinds(result.Tree))
	}
}

// TestQuoteOfIdentifier checks that ":foo" is a quote node wrapping the
// colon and the identifier.
func TestQuoteOfIdentifier(t *testing.T) {
	result := parse.Parse([]byte(":foo"), nil)
	if len(result.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v, want none", result.Diagnostics)
	}
	top := nonTrivia(result.Tree)
	if len(top) != 1 || top[0].Head.Kind != token.NodeQuote {
		t.Fatalf("expected a single NodeQuote, got %v", firstChildKinds(result.Tree))
	}
	quote := nonTrivia(top[0])
	if len(quote) != 2 || quote[0].Head.Kind != token.Colon || quote[1].Head.Kind != token.Identifier {
		t.Fatalf("quote children = %v, want [Colon Identifier]", firstChildKinds(top[0]))
	}
}

// TestWhitespaceAfterColonIsAnError checks that a space right after a
// bare ":" is flagged rather than silently accepted as a quote.
func TestWhitespaceAfterColonIsAnError(t *testing.T) {
	src := []byte(": foo")
	result := parse.Parse(src, nil)
	if len(result.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want exactly one", result.Diagnostics)
	}
	if !strings.Contains(result.Diagnostics[0].Message, "whitespace not allowed after ':'") {
		t.Errorf("diagnostic message = %q", result.Diagnostics[0].Message)
	}
	if result.Tree.FirstByte != 1 || result.Tree.LastByte != len(src) {
		t.Errorf("tree range = [%d,%d], want [1,%d]", result.Tree.FirstByte, result.Tree.LastByte, len(src))
	}
}

// TestUnexpectedEquals checks that a bare "=" with no left-hand side
// produces a single error leaf rather than panicking or looping.
func TestUnexpectedEquals(t *testing.T) {
	result := parse.Parse([]byte("="), nil)
	if len(result.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want exactly one", result.Diagnostics)
	}
	if !strings.Contains(result.Diagnostics[0].Message, "unexpected") {
		t.Errorf("diagnostic message = %q", result.Diagnostics[0].Message)
	}
	top := nonTrivia(result.Tree)
	if len(top) != 1 || top[0].Head.Kind != token.Error {
		t.Fatalf("expected a single error leaf, got %v", firstChildKinds(result.Tree))
	}
	if top[0].FirstByte != 1 || top[0].LastByte != 1 {
		t.Errorf("error leaf range = [%d,%d], want [1,1]", top[0].FirstByte, top[0].LastByte)
	}
}

// TestAssignmentRightAssociates checks that "a = b = c" builds
// (= a (= b c)), the assignment node reusing the operator's own Kind.
func TestAssignmentRightAssociates(t *testing.T) {
	result := parse.Parse([]byte("a = b = c"), nil)
	if len(result.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v, want none", result.Diagnostics)
	}
	top := nonTrivia(result.Tree)
	if len(top) != 1 || top[0].Head.Kind != token.OpEquals {
		t.Fatalf("expected single OpEquals root, got %v", firstChildKinds(result.Tree))
	}
	// The `=` operator tokens are themselves trivia-flagged, since the
	// interior node's own Kind (OpEquals) already records which operator
	// was used.
	outer := nonTrivia(top[0])
	if len(outer) != 2 {
		t.Fatalf("outer assignment non-trivia children = %d, want 2 (a, nested assignment)", len(outer))
	}
	if outer[0].Head.Kind != token.Identifier {
		t.Errorf("outer[0] = %s, want Identifier", outer[0].Head.Kind)
	}
	if outer[1].Head.Kind != token.OpEquals {
		t.Errorf("outer[1] = %s, want nested OpEquals", outer[1].Head.Kind)
	}
	inner := nonTrivia(outer[1])
	if len(inner) != 2 || inner[0].Head.Kind != token.Identifier || inner[1].Head.Kind != token.Identifier {
		t.Fatalf("inner assignment children = %v, want [Identifier Identifier]", firstChildKinds(outer[1]))
	}

	var hasEqualsTrivia bool
	for _, c := range top[0].Children {
		if c.Head.Kind == token.OpEquals && c.Head.IsTrivia() {
			hasEqualsTrivia = true
		}
	}
	if !hasEqualsTrivia {
		t.Error("expected a trivia-flagged OpEquals leaf among the outer assignment's children")
	}
}

// TestTildeIsACall checks that "a ~ b" is a call node, not an
// assignment, with ~ as the operator child.
func TestTildeIsACall(t *testing.T) {
	result := parse.Parse([]byte("a ~ b"), nil)
	top := nonTrivia(result.Tree)
	if len(top) != 1 || top[0].Head.Kind != token.NodeCall {
		t.Fatalf("expected a single NodeCall, got %v", firstChildKinds(result.Tree))
	}
	children := nonTrivia(top[0])
	if len(children) != 3 {
		t.Fatalf("call children = %d, want 3 (a, ~, b)", len(children))
	}
	if children[1].Head.Kind != token.Tilde {
		t.Errorf("call operator child = %s, want Tilde", children[1].Head.Kind)
	}
}

// TestEmptyBracketedForm checks that "[]" is an interior vect node with
// two trivia-flagged bracket leaves and no payload children.
func TestEmptyBracketedForm(t *testing.T) {
	result := parse.Parse([]byte("[]"), nil)
	top := nonTrivia(result.Tree)
	if len(top) != 1 || top[0].Head.Kind != token.NodeVect {
		t.Fatalf("expected a single NodeVect, got %v", firstChildKinds(result.Tree))
	}
	if len(nonTrivia(top[0])) != 0 {
		t.Errorf("empty vect should have no non-trivia children, got %v", firstChildKinds(top[0]))
	}
	if len(top[0].Children) != 2 {
		t.Fatalf("empty vect should have exactly 2 (bracket) children, got %d", len(top[0].Children))
	}
	for _, c := range top[0].Children {
		if !c.Head.IsTrivia() {
			t.Errorf("bracket leaf %s should carry TriviaFlag", c.Head.Kind)
		}
	}
}

func TestRoundTripLeafConcatenationReproducesSource(t *testing.T) {
	srcs := []string{
		":", ":foo", ": foo", "=", "a = b = c", "a ~ b", "[]", "[1 2; 3 4]", "(a, b)",
		// Trailing trivia after the last significant token: EndMarker is
		// never bumped, so this only round-trips if it is drained
		// separately before the toplevel node is closed off.
		"a #done",
		"   ",
		"a = 1\n\n",
	}
	for _, src := range srcs {
		result := parse.Parse([]byte(src), nil)
		var sb strings.Builder
		result.Tree.Walk(func(n *syntax.GreenNode) {
			if len(n.Children) == 0 {
				sb.WriteString(n.Text([]byte(src)))
			}
		})
		if got := sb.String(); got != src {
			t.Errorf("leaf concatenation for %q = %q, want %q", src, got, src)
		}
	}
}

func TestHashLiteralGatedByFeature(t *testing.T) {
	src := []byte(`{"a" => 1}`)

	on := &config.Grammar{Version: "v1.2.0", Features: map[string]bool{}}
	withFeature := parse.Parse(src, on)
	top := nonTrivia(withFeature.Tree)
	if len(top) != 1 || top[0].Head.Kind != token.NodeHash {
		t.Fatalf("with hash_literal enabled, expected NodeHash, got %v", firstChildKinds(withFeature.Tree))
	}

	off := &config.Grammar{Version: "v1.0.0", Features: map[string]bool{}}
	withoutFeature := parse.Parse(src, off)
	top2 := nonTrivia(withoutFeature.Tree)
	if len(top2) != 1 || top2[0].Head.Kind == token.NodeHash {
		t.Fatalf("with hash_literal disabled, expected fallback shape, got %v", firstChildKinds(withoutFeature.Tree))
	}
}

func TestGeneratorLiteralGatedByFeature(t *testing.T) {
	src := []byte("[x for x in y]")

	on := &config.Grammar{Version: "v1.0.0", Features: map[string]bool{}}
	withFeature := parse.Parse(src, on)
	top := nonTrivia(withFeature.Tree)
	if len(top) != 1 || top[0].Head.Kind != token.NodeGenerator {
		t.Fatalf("with generator_literal enabled, expected NodeGenerator, got %v", firstChildKinds(withFeature.Tree))
	}

	off := &config.Grammar{Version: "v0.9.0", Features: map[string]bool{}}
	withoutFeature := parse.Parse(src, off)
	top2 := nonTrivia(withoutFeature.Tree)
	if len(top2) != 1 || top2[0].Head.Kind == token.NodeGenerator {
		t.Fatalf("with generator_literal disabled, expected fallback shape, got %v", firstChildKinds(withoutFeature.Tree))
	}
}

func TestWhereClauseGatedByFeature(t *testing.T) {
	src := []byte("x where y")

	on := &config.Grammar{Version: "v1.0.0", Features: map[string]bool{}}
	withFeature := parse.Parse(src, on)
	top := nonTrivia(withFeature.Tree)
	if len(top) != 1 || top[0].Head.Kind != token.NodeWhereClause {
		t.Fatalf("with where_clauses enabled, expected NodeWhereClause, got %v", firstChildKinds(withFeature.Tree))
	}

	off := &config.Grammar{Version: "v0.9.0", Features: map[string]bool{}}
	withoutFeature := parse.Parse(src, off)
	top2 := nonTrivia(withoutFeature.Tree)
	if len(top2) == 0 || top2[0].Head.Kind == token.NodeWhereClause {
		t.Fatalf("with where_clauses disabled, expected bare atom, got %v", firstChildKinds(withoutFeature.Tree))
	}
}

func TestCheckedIdentifierWarnsOnKeywordTypo(t *testing.T) {
	// "ende" is one insertion away from the reserved word "end" -
	// keywordTypoDistance is 1, so this must trigger the warning.
	result := parse.Parse([]byte("ende"), nil)
	var found bool
	for _, d := range result.Diagnostics {
		if d.Severity == syntax.SeverityWarning && strings.Contains(d.Suggestion, "end") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning suggesting \"end\", got diagnostics: %+v", result.Diagnostics)
	}
}

func TestCheckedIdentifierNoWarningForOrdinaryName(t *testing.T) {
	result := parse.Parse([]byte("totallyOrdinaryName"), nil)
	for _, d := range result.Diagnostics {
		if d.Severity == syntax.SeverityWarning {
			t.Errorf("unexpected warning for an ordinary identifier: %+v", d)
		}
	}
}

func TestTelemetryOffByDefault(t *testing.T) {
	result := parse.Parse([]byte("a = 1"), nil)
	if result.Telemetry != nil {
		t.Errorf("Telemetry = %+v, want nil without an opt-in Opt", result.Telemetry)
	}
}

func TestTelemetryBasicReportsCounts(t *testing.T) {
	result := parse.Parse([]byte("a = 1"), nil, parse.WithTelemetryBasic())
	if result.Telemetry == nil {
		t.Fatal("expected non-nil Telemetry with WithTelemetryBasic")
	}
	if result.Telemetry.BumpCount == 0 {
		t.Error("expected a non-zero BumpCount")
	}
	if result.Telemetry.DiagnosticCount != len(result.Diagnostics) {
		t.Errorf("DiagnosticCount = %d, want %d", result.Telemetry.DiagnosticCount, len(result.Diagnostics))
	}
	if result.Telemetry.ParseTime != 0 {
		t.Error("ParseTime should stay zero under WithTelemetryBasic")
	}
}

func TestTelemetryTimingRecordsDuration(t *testing.T) {
	result := parse.Parse([]byte("a = 1"), nil, parse.WithTelemetryTiming())
	if result.Telemetry == nil {
		t.Fatal("expected non-nil Telemetry with WithTelemetryTiming")
	}
	if result.Telemetry.ParseTime < 0 {
		t.Error("ParseTime should never be negative")
	}
}
