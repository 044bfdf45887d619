// Package lexsrc defines the external lexer contract consumed by the Vela
// parser core and ships a reference lexer that implements it for real
// Vela source text.
//
// The core never depends on this reference implementation directly - it
// depends on the TokenSource interface below - but every test and the CLI
// use this package as their lexer.
package lexsrc

import "github.com/vela-lang/vela/token"

// RawToken is what the external lexer delivers: a Kind, 0-based half-open
// byte range, and the dotted/suffix bits the lexer alone can cheaply
// compute.
type RawToken struct {
	Kind      token.Kind
	StartByte int // 0-based, inclusive
	EndByte   int // 0-based, exclusive
	Dotted    bool
	Suffix    bool
}

// TokenSource is the contract the parser core consumes. The lexer must emit
// EndMarker exactly once at end-of-input and never past it; it must not
// fail outright - any lexical error is delivered as a token.Error-kind
// token instead.
type TokenSource interface {
	// Next returns the next RawToken in source order.
	Next() RawToken
}
