// Package rete implements a Rete discrimination network: an alpha network
// that filters asserted facts by constant tests, a beta network that joins
// partial matches across conditions, and the incremental maintenance
// protocol that keeps every production's match set current as facts are
// asserted and retracted.
package rete

import "fmt"

// Field names a position in a Fact triple.
type Field string

const (
	FieldIdentifier Field = "identifier"
	FieldAttribute  Field = "attribute"
	FieldValue      Field = "value"
)

// Fields lists the recognized triple positions in canonical order. Alpha
// discrimination paths are always built by walking Fields in this order.
var Fields = []Field{FieldIdentifier, FieldAttribute, FieldValue}

// Fact is a ground (identifier, attribute, value) triple asserted into a
// Network. Facts are owned by the caller; the network only holds weak
// back-links to them through alpha memories and token chains.
type Fact struct {
	Identifier string
	Attribute  string
	Value      string

	amems               []*AlphaMemory
	tokens              []*Token
	negativeJoinResults []*NegativeJoinResult
}

// NewFact constructs a Fact from its three fields.
func NewFact(identifier, attribute, value string) *Fact {
	return &Fact{Identifier: identifier, Attribute: attribute, Value: value}
}

func (f *Fact) String() string {
	return fmt.Sprintf("(%s ^%s %s)", f.Identifier, f.Attribute, f.Value)
}

// Get returns the value of the given field.
func (f *Fact) Get(field Field) string {
	switch field {
	case FieldIdentifier:
		return f.Identifier
	case FieldAttribute:
		return f.Attribute
	case FieldValue:
		return f.Value
	default:
		panic(fmt.Sprintf("rete: unknown field %q", field))
	}
}

// equalFact reports whether two facts carry the same triple. Facts compare
// by value, never by identity: the network must recognize re-asserting the
// same triple through a different *Fact value as a duplicate.
func equalFact(a, b *Fact) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Identifier == b.Identifier && a.Attribute == b.Attribute && a.Value == b.Value
}

func (f *Fact) addAmem(am *AlphaMemory) {
	f.amems = append(f.amems, am)
}

func (f *Fact) removeAmem(am *AlphaMemory) {
	for i, a := range f.amems {
		if a == am {
			f.amems = append(f.amems[:i], f.amems[i+1:]...)
			return
		}
	}
}

// Tokens returns the tokens currently referencing this fact.
func (f *Fact) Tokens() []*Token {
	return f.tokens
}

func (f *Fact) addToken(t *Token) {
	for _, existing := range f.tokens {
		if existing == t {
			return
		}
	}
	f.tokens = append(f.tokens, t)
}

func (f *Fact) removeToken(t *Token) {
	for i, existing := range f.tokens {
		if existing == t {
			f.tokens = append(f.tokens[:i], f.tokens[i+1:]...)
			return
		}
	}
}

func (f *Fact) addNegativeJoinResult(jr *NegativeJoinResult) {
	f.negativeJoinResults = append(f.negativeJoinResults, jr)
}

func (f *Fact) removeNegativeJoinResult(jr *NegativeJoinResult) {
	for i, existing := range f.negativeJoinResults {
		if existing == jr {
			f.negativeJoinResults = append(f.negativeJoinResults[:i], f.negativeJoinResults[i+1:]...)
			return
		}
	}
}

// isVar reports whether a symbol is a rule variable (its textual form
// begins with '$') as opposed to a constant.
func isVar(symbol string) bool {
	return len(symbol) > 0 && symbol[0] == '$'
}
