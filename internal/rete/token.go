package rete

// Bindings is a variable-to-value environment. Each Token carries only the
// bindings newly introduced at its own step; the full environment for a
// token is the union of Bindings along its parent chain (see
// Token.AllBindings).
type Bindings map[string]string

// clone returns an independent copy, so that fanning a binding environment
// out to multiple children never lets one child's mutation leak to a
// sibling.
func (b Bindings) clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Token is a node in a rule's partial-match tree: a parent token plus one
// contributing fact and the bindings introduced at this step. The root
// token (used as the sole member of the dummy top beta memory) has neither
// parent nor fact.
type Token struct {
	Parent  *Token
	Fact    *Fact
	Node    Node // the node whose memory owns this token
	Binding Bindings

	Children []*Token

	// JoinResults is populated only for tokens owned by a NegativeNode.
	JoinResults []*NegativeJoinResult
	// NccResults is populated only for tokens owned by an NccNode.
	NccResults []*Token
	// Owner is set only on NCC-partner result tokens: the NCC token they
	// currently block (nil while stranded in the partner's result
	// buffer awaiting a matching outer token).
	Owner *Token
}

// NewToken builds a token linking parent and fact under node, recording it
// in the fact's token list and the parent's children list as required by
// the token invariants.
func NewToken(parent *Token, fact *Fact, node Node, binding Bindings) *Token {
	if binding == nil {
		binding = Bindings{}
	}
	t := &Token{Parent: parent, Fact: fact, Node: node, Binding: binding}
	if fact != nil {
		fact.addToken(t)
	}
	if parent != nil {
		parent.Children = append(parent.Children, t)
	}
	return t
}

// IsRoot reports whether this is the dummy top token.
func (t *Token) IsRoot() bool {
	return t.Parent == nil && t.Fact == nil
}

// WMEs returns the sequence of facts from the oldest non-root ancestor
// down to this token.
func (t *Token) WMEs() []*Fact {
	ret := []*Fact{t.Fact}
	cur := t
	for cur.Parent != nil && !cur.Parent.IsRoot() {
		cur = cur.Parent
		ret = append([]*Fact{cur.Fact}, ret...)
	}
	return ret
}

// GetBinding looks up a variable's value, walking up the parent chain
// until it is found.
func (t *Token) GetBinding(symbol string) (string, bool) {
	for cur := t; cur != nil; cur = cur.Parent {
		if v, ok := cur.Binding[symbol]; ok {
			return v, true
		}
	}
	return "", false
}

// AllBindings returns the union of bindings along this token's entire
// parent chain: the full binding environment in effect at this token.
// Later steps shadow earlier ones when a symbol is rebound.
func (t *Token) AllBindings() Bindings {
	var chain []*Token
	for cur := t; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	out := Bindings{}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Binding {
			out[k] = v
		}
	}
	return out
}

// NegativeJoinResult records that fact currently blocks owner at a
// negative node. It is linked from both sides and removed as soon as
// either side is removed or the join test stops holding.
type NegativeJoinResult struct {
	Owner *Token
	Fact  *Fact
}

// JoinTest is a single equi-join constraint evaluated when a new condition
// is joined against the facts already bound earlier in the rule: the
// value of Field1 on the candidate fact must equal the value of Field2 on
// the fact at position ConditionIndex of the candidate token's WMEs list.
type JoinTest struct {
	Field1         Field
	ConditionIndex int
	Field2         Field
}

func joinTestsEqual(a, b []JoinTest) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DeleteTokenAndDescendants removes a token and, recursively, all of its
// descendants (post-order, children first), unwinding every back-reference
// the token invariants require: the owning node's memory, the fact's token
// list, the parent's children list, and any negative-join-result or NCC
// bookkeeping attached to the token.
func DeleteTokenAndDescendants(t *Token) {
	for _, child := range append([]*Token(nil), t.Children...) {
		DeleteTokenAndDescendants(child)
	}

	if _, isPartner := t.Node.(*NccPartnerNode); !isPartner {
		if mh, ok := t.Node.(memoryHolder); ok {
			mh.RemoveToken(t)
		}
	}
	if t.Fact != nil {
		t.Fact.removeToken(t)
	}
	if t.Parent != nil {
		removeTokenFromSlice(&t.Parent.Children, t)
	}

	switch n := t.Node.(type) {
	case *NegativeNode:
		for _, jr := range t.JoinResults {
			jr.Fact.removeNegativeJoinResult(jr)
		}
	case *NccNode:
		for _, result := range t.NccResults {
			if result.Fact != nil {
				result.Fact.removeToken(result)
			}
			if result.Parent != nil {
				removeTokenFromSlice(&result.Parent.Children, result)
			}
		}
	case *NccPartnerNode:
		if t.Owner != nil {
			removeTokenFromSlice(&t.Owner.NccResults, t)
			if len(t.Owner.NccResults) == 0 {
				for _, child := range n.nccNode.Children() {
					leftActivate(child, t.Owner, nil, nil)
				}
			}
		}
	}
}

func removeTokenFromSlice(s *[]*Token, t *Token) {
	for i, v := range *s {
		if v == t {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return
		}
	}
}
