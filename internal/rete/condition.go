package rete

// Condition is one conjunct of a Rule's left-hand side. The concrete set is
// closed: Has, Neg, Ncc, Filter, Bind. Callers type-switch on the concrete
// type; there is deliberately no shared activation-like method here, since
// each condition kind is compiled into the beta network differently.
type Condition interface {
	isCondition()
}

// VarRef names a triple field that is bound to a rule variable.
type VarRef struct {
	Field  Field
	Symbol string // e.g. "$x"
}

// tripleCondition is implemented by the two condition kinds shaped like a
// triple pattern (Has, Neg). Only Has conditions serve as join sources when
// join tests are derived from earlier conditions: Neg binds no variables,
// and Ncc/Filter/Bind have no triple fields.
type tripleCondition interface {
	Condition
	Get(field Field) string
	Vars() []VarRef
	Contains(value string) (Field, bool)
	Match(fact *Fact) bool
}

// triple holds the three (possibly variable) fields shared by Has and Neg.
type triple struct {
	Identifier string
	Attribute  string
	Value      string
}

func (t triple) Get(field Field) string {
	switch field {
	case FieldIdentifier:
		return t.Identifier
	case FieldAttribute:
		return t.Attribute
	case FieldValue:
		return t.Value
	default:
		panic("rete: unknown field " + string(field))
	}
}

// Vars returns the (field, variable) pairs among this triple's fields.
func (t triple) Vars() []VarRef {
	var out []VarRef
	for _, f := range Fields {
		v := t.Get(f)
		if isVar(v) {
			out = append(out, VarRef{Field: f, Symbol: v})
		}
	}
	return out
}

// Contains reports the field at which this triple mentions the given
// symbol (variable or constant), if any.
func (t triple) Contains(value string) (Field, bool) {
	for _, f := range Fields {
		if t.Get(f) == value {
			return f, true
		}
	}
	return "", false
}

// Match reports whether fact satisfies every constant field of this
// triple; variable fields match unconditionally.
func (t triple) Match(fact *Fact) bool {
	for _, f := range Fields {
		v := t.Get(f)
		if isVar(v) {
			continue
		}
		if v != fact.Get(f) {
			return false
		}
	}
	return true
}

// Has is a positive condition: it must find a supporting fact.
type Has struct {
	triple
}

func (Has) isCondition() {}

// NewHas builds a positive condition over the given (possibly variable)
// fields.
func NewHas(identifier, attribute, value string) Has {
	return Has{triple{Identifier: identifier, Attribute: attribute, Value: value}}
}

// Neg is a negated condition: it succeeds only while no supporting fact
// exists (antijoin semantics).
type Neg struct {
	triple
}

func (Neg) isCondition() {}

// NewNeg builds a negated condition over the given (possibly variable)
// fields.
func NewNeg(identifier, attribute, value string) Neg {
	return Neg{triple{Identifier: identifier, Attribute: attribute, Value: value}}
}

// Rule is an ordered conjunction of conditions. Order is significant: it
// determines the join plan and which bindings are visible to later
// filter/bind/Ncc sub-conditions.
type Rule []Condition

// Ncc is a compound negation: it succeeds iff its enclosed conjunction has
// no match extending the current partial match.
type Ncc struct {
	Conditions Rule
}

func (Ncc) isCondition() {}

// NewNcc builds a compound negation over the given sub-conditions.
func NewNcc(conditions ...Condition) Ncc {
	return Ncc{Conditions: Rule(conditions)}
}

// NumberOfConditions is how many parent-chain steps the NCC partner must
// walk up to find the outer partial match it belongs to.
func (n Ncc) NumberOfConditions() int {
	return len(n.Conditions)
}

// Filter evaluates a textual expression template against the current
// bindings; it succeeds iff the evaluator returns a truthy value.
type Filter struct {
	Template string
}

func (Filter) isCondition() {}

// NewFilter builds a filter condition from a template.
func NewFilter(template string) Filter {
	return Filter{Template: template}
}

// Bind evaluates a textual expression template and stores the result
// under Symbol in the binding environment.
type Bind struct {
	Template string
	Symbol   string
}

func (Bind) isCondition() {}

// NewBind builds a bind condition from a template and target variable.
func NewBind(template, symbol string) Bind {
	return Bind{Template: template, Symbol: symbol}
}
