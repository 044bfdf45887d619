package token

// SyntaxHead is the (Kind, Flags) pair carried by every emitted span and
// every tree node.
type SyntaxHead struct {
	Kind  Kind
	Flags Flags
}

// NewHead builds a SyntaxHead from kind and flags.
func NewHead(kind Kind, flags Flags) SyntaxHead {
	return SyntaxHead{Kind: kind, Flags: flags}
}

// IsTrivia reports whether this head's span is structurally irrelevant.
func (h SyntaxHead) IsTrivia() bool {
	return h.Flags.Has(TriviaFlag)
}

func (h SyntaxHead) String() string {
	return h.Kind.String()
}
