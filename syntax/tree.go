// Package syntax holds the lossless tree representation produced by the
// Vela parser core: the flat span log a parse run emits, and the algorithm
// that folds that log into a nested, homogeneous concrete syntax tree.
//
// Nothing here is grounded on a byte-range containment stack found
// elsewhere in the retrieval pack - no example repo builds a tree this way
// - so the algorithm in Build is original, following only the Marker/wrap
// vocabulary of a textbook incremental-parser green tree (as seen in
// gotypst's parser) loosely, and opal's flat Event buffer for the shape of
// "append now, structure later".
package syntax

import (
	"fmt"

	"github.com/vela-lang/vela/internal/invariant"
	"github.com/vela-lang/vela/token"
)

// TaggedRange is one entry in the flat span log a parse run produces: a
// head (Kind+Flags) plus a 1-based, inclusive byte range. A zero-width
// "invisible" span (e.g. an elided token) has LastByte = FirstByte - 1.
type TaggedRange struct {
	Head      token.SyntaxHead
	FirstByte int
	LastByte  int
}

// Invisible reports whether r occupies no source bytes.
func (r TaggedRange) Invisible() bool {
	return r.LastByte < r.FirstByte
}

// Len returns the byte width of the range; zero for an invisible range.
func (r TaggedRange) Len() int {
	if r.Invisible() {
		return 0
	}
	return r.LastByte - r.FirstByte + 1
}

func (r TaggedRange) String() string {
	if r.Invisible() {
		return fmt.Sprintf("%s@%d+0", r.Head, r.FirstByte)
	}
	return fmt.Sprintf("%s@%d..%d", r.Head, r.FirstByte, r.LastByte)
}

// Diagnostic is an in-band parse error or warning attached to a span.
// Diagnostics never halt a parse; a production that detects a problem
// records one of these (often, but not always, alongside an Error-flagged
// span) and keeps going.
// Context and Suggestion are optional enrichments (both may be empty):
// Context names the grammatical position the error occurred in ("struct
// declaration", "function body"), Suggestion is a one-line fix, typically
// produced by the suggest package for a near-miss on a reserved word.
type Diagnostic struct {
	Message    string
	Context    string
	Suggestion string
	FirstByte  int
	LastByte   int
	Severity   Severity
}

// Severity classifies a Diagnostic. Warnings are informational only and
// never set a span's ErrorFlag.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// GreenNode is the nested tree shape folded out of a flat []TaggedRange by
// Build. A leaf has no Children; an interior node's Children span exactly
// its own byte range with no gaps other than trivia already folded in as
// leaves.
type GreenNode struct {
	Head      token.SyntaxHead
	FirstByte int
	LastByte  int
	Children  []*GreenNode
}

// Invisible reports whether this node occupies no source bytes.
func (n *GreenNode) Invisible() bool {
	return n.LastByte < n.FirstByte
}

// Len returns the node's byte width.
func (n *GreenNode) Len() int {
	if n.Invisible() {
		return 0
	}
	return n.LastByte - n.FirstByte + 1
}

// Walk calls visit for n and every descendant, depth-first, pre-order.
func (n *GreenNode) Walk(visit func(*GreenNode)) {
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// Text extracts the substring of src this node spans. src must be the same
// buffer the parse run that produced n was parsing; an invisible node
// yields "".
func (n *GreenNode) Text(src []byte) string {
	if n.Invisible() {
		return ""
	}
	return string(src[n.FirstByte-1 : n.LastByte])
}

// Build folds a flat, source-ordered span log into a single root
// GreenNode using a stack algorithm:
//
// Maintain a stack of already-built nodes. For each span s in arrival
// order (skipping TOMBSTONE): if the stack is empty or s.FirstByte is
// strictly past the last byte of the node on top of the stack, s does not
// enclose anything yet built - push it as a new leaf. Otherwise s is an
// interior node enclosing a suffix of the stack: pop every node whose
// FirstByte is ≥ s.FirstByte (they are s's children, in order), and push
// the resulting interior node in their place.
//
// This works because productions emit a span's own head only after all of
// that span's children are already in the log: by the time an interior
// span arrives, the nodes it encloses are already sitting on top of the
// stack, fully built.
//
// Build panics if spans is empty or the folded result is not a single
// root - both indicate a bug in the caller's production logic, not a
// malformed-but-recoverable input, since spans come from the parser core
// itself and not from untrusted source text.
func Build(spans []TaggedRange) *GreenNode {
	if len(spans) == 0 {
		panic("syntax: Build called with no spans")
	}

	var stack []*GreenNode
	for _, span := range spans {
		if span.Head.Kind == token.TOMBSTONE {
			continue
		}

		if len(stack) == 0 || span.FirstByte > stack[len(stack)-1].LastByte {
			stack = append(stack, &GreenNode{
				Head: span.Head, FirstByte: span.FirstByte, LastByte: span.LastByte,
			})
			continue
		}

		j := len(stack)
		for j > 0 && stack[j-1].FirstByte >= span.FirstByte {
			j--
		}
		children := append([]*GreenNode(nil), stack[j:]...)
		stack = stack[:j]
		stack = append(stack, &GreenNode{
			Head: span.Head, FirstByte: span.FirstByte, LastByte: span.LastByte, Children: children,
		})
	}

	invariant.Postcondition(len(stack) == 1, "syntax: Build produced %d roots, want exactly 1", len(stack))
	return stack[0]
}
