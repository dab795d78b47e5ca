package rete

import "fmt"

// leftActivate dispatches a left activation to whichever concrete node
// kind node is. This is the single point where the "asymmetric activation
// interface" of the design is reconciled: a JoinNode only ever needs the
// token (it looks up facts itself), every other kind needs the full
// (token, fact, binding) triple.
func leftActivate(node Node, token *Token, fact *Fact, binding Bindings) {
	switch n := node.(type) {
	case *BetaMemory:
		n.LeftActivate(token, fact, binding)
	case *JoinNode:
		n.LeftActivate(token)
	case *NegativeNode:
		n.LeftActivate(token, fact, binding)
	case *NccNode:
		n.LeftActivate(token, fact, binding)
	case *NccPartnerNode:
		n.LeftActivate(token, fact, binding)
	case *FilterNode:
		n.LeftActivate(token, fact, binding)
	case *BindNode:
		n.LeftActivate(token, fact, binding)
	case *ProductionNode:
		n.LeftActivate(token, fact, binding)
	default:
		panic(fmt.Sprintf("rete: unknown node kind %T in left activation", node))
	}
}

// rightActivate dispatches a right activation (a fact arriving from the
// alpha side) to an alpha memory's child, which is always a join or
// negative node.
func rightActivate(node Node, fact *Fact) {
	switch n := node.(type) {
	case *JoinNode:
		n.RightActivate(fact)
	case *NegativeNode:
		n.RightActivate(fact)
	default:
		panic(fmt.Sprintf("rete: unknown alpha-memory child kind %T in right activation", node))
	}
}

// BetaMemory holds every token representing a partial match for the
// prefix of conditions ending at this memory. Its children are always
// join nodes: only a positive condition ever creates a beta memory, and a
// join node is built immediately under it.
type BetaMemory struct {
	nodeBase
	memory []*Token
}

func (bm *BetaMemory) Kind() NodeKind  { return KindBetaMemory }
func (bm *BetaMemory) Dump() string    { return fmt.Sprintf("BetaMemory_%p", bm) }
func (bm *BetaMemory) Memory() []*Token { return bm.memory }

func (bm *BetaMemory) AppendToken(t *Token) { bm.memory = append(bm.memory, t) }
func (bm *BetaMemory) RemoveToken(t *Token) { removeTokenFromSlice(&bm.memory, t) }

// LeftActivate constructs a new token linking parent and fact, records it,
// and left-activates every child (always a join node) in insertion order.
func (bm *BetaMemory) LeftActivate(parent *Token, fact *Fact, binding Bindings) *Token {
	newToken := NewToken(parent, fact, bm, binding)
	bm.memory = append(bm.memory, newToken)
	for _, child := range bm.children {
		leftActivate(child, newToken, nil, nil)
	}
	return newToken
}

// JoinNode is the incremental equi-join between a beta memory and an
// alpha memory.
type JoinNode struct {
	nodeBase
	amem  *AlphaMemory
	tests []JoinTest
	has   Has
}

func (jn *JoinNode) Kind() NodeKind { return KindJoin }
func (jn *JoinNode) Dump() string   { return fmt.Sprintf("JoinNode_%p", jn) }

func (jn *JoinNode) parentMemory() *BetaMemory {
	return jn.parent.(*BetaMemory)
}

// RightActivate is invoked when fact newly enters this join's alpha
// memory: every token already in the parent beta memory is tried against
// it.
func (jn *JoinNode) RightActivate(fact *Fact) {
	for _, token := range jn.parentMemory().memory {
		if jn.performJoinTest(token, fact) {
			binding := jn.makeBinding(fact)
			for _, child := range jn.children {
				leftActivate(child, token, fact, binding)
			}
		}
	}
}

// LeftActivate is invoked when a token newly arrives from the parent beta
// memory: every fact already in this join's alpha memory is tried
// against it.
func (jn *JoinNode) LeftActivate(token *Token) {
	for _, fact := range jn.amem.Memory() {
		if jn.performJoinTest(token, fact) {
			binding := jn.makeBinding(fact)
			for _, child := range jn.children {
				leftActivate(child, token, fact, binding)
			}
		}
	}
}

func (jn *JoinNode) performJoinTest(token *Token, fact *Fact) bool {
	if len(jn.tests) == 0 {
		return true
	}
	wmes := token.WMEs()
	for _, test := range jn.tests {
		arg1 := fact.Get(test.Field1)
		wme2 := wmes[test.ConditionIndex]
		arg2 := wme2.Get(test.Field2)
		if arg1 != arg2 {
			return false
		}
	}
	return true
}

func (jn *JoinNode) makeBinding(fact *Fact) Bindings {
	b := Bindings{}
	for _, v := range jn.has.Vars() {
		b[v.Symbol] = fact.Get(v.Field)
	}
	return b
}

// NegativeNode is the antijoin against an alpha memory: a token
// propagates iff no fact in the alpha memory currently passes its join
// tests.
type NegativeNode struct {
	nodeBase
	memory []*Token
	amem   *AlphaMemory
	tests  []JoinTest
}

func (n *NegativeNode) Kind() NodeKind   { return KindNegative }
func (n *NegativeNode) Dump() string     { return fmt.Sprintf("NegativeNode_%p", n) }
func (n *NegativeNode) Memory() []*Token { return n.memory }
func (n *NegativeNode) RemoveToken(t *Token) { removeTokenFromSlice(&n.memory, t) }

func (n *NegativeNode) LeftActivate(parent *Token, fact *Fact, binding Bindings) {
	newToken := NewToken(parent, fact, n, binding)
	n.memory = append(n.memory, newToken)
	for _, item := range n.amem.Memory() {
		if n.performJoinTest(newToken, item) {
			jr := &NegativeJoinResult{Owner: newToken, Fact: item}
			newToken.JoinResults = append(newToken.JoinResults, jr)
			item.addNegativeJoinResult(jr)
		}
	}
	if len(newToken.JoinResults) == 0 {
		for _, child := range n.children {
			leftActivate(child, newToken, nil, nil)
		}
	}
}

// RightActivate is invoked when fact newly enters this node's alpha
// memory. Any token this blocks for the first time is cascade-deleted;
// the blocking relationship is recorded either way.
func (n *NegativeNode) RightActivate(fact *Fact) {
	for _, t := range append([]*Token(nil), n.memory...) {
		if n.performJoinTest(t, fact) {
			if len(t.JoinResults) == 0 {
				DeleteTokenAndDescendants(t)
			}
			jr := &NegativeJoinResult{Owner: t, Fact: fact}
			t.JoinResults = append(t.JoinResults, jr)
			fact.addNegativeJoinResult(jr)
		}
	}
}

func (n *NegativeNode) performJoinTest(token *Token, fact *Fact) bool {
	if len(n.tests) == 0 {
		return true
	}
	wmes := token.WMEs()
	for _, test := range n.tests {
		arg1 := fact.Get(test.Field1)
		wme2 := wmes[test.ConditionIndex]
		arg2 := wme2.Get(test.Field2)
		if arg1 != arg2 {
			return false
		}
	}
	return true
}

// NccNode is the outer half of a compound-negation pair: it propagates a
// token iff the paired sub-network produced no result extending it.
type NccNode struct {
	nodeBase
	memory  []*Token
	partner *NccPartnerNode
}

func (n *NccNode) Kind() NodeKind   { return KindNcc }
func (n *NccNode) Dump() string     { return fmt.Sprintf("NccNode_%p", n) }
func (n *NccNode) Memory() []*Token { return n.memory }
func (n *NccNode) RemoveToken(t *Token) { removeTokenFromSlice(&n.memory, t) }

func (n *NccNode) LeftActivate(parent *Token, fact *Fact, binding Bindings) {
	newToken := NewToken(parent, fact, n, binding)
	n.memory = append(n.memory, newToken)

	buffered := n.partner.newResultBuffer
	n.partner.newResultBuffer = nil
	for _, result := range buffered {
		newToken.NccResults = append(newToken.NccResults, result)
		result.Owner = newToken
	}

	if len(newToken.NccResults) == 0 {
		for _, child := range n.children {
			leftActivate(child, newToken, nil, nil)
		}
	}
}

// NccPartnerNode is the terminal node of an NCC's sub-network. It never
// has real children of its own; matches it sees either block an existing
// outer NCC token or wait in a buffer for one to arrive.
type NccPartnerNode struct {
	nodeBase
	nccNode            *NccNode
	numberOfConditions int
	newResultBuffer    []*Token
}

func (p *NccPartnerNode) Kind() NodeKind { return KindNccPartner }
func (p *NccPartnerNode) Dump() string   { return fmt.Sprintf("NccPartnerNode_%p", p) }

func (p *NccPartnerNode) LeftActivate(token *Token, fact *Fact, binding Bindings) {
	newResult := NewToken(token, fact, p, binding)

	ownerToken, ownerFact := token, fact
	for i := 0; i < p.numberOfConditions; i++ {
		ownerFact = ownerToken.Fact
		ownerToken = ownerToken.Parent
	}

	for _, t := range p.nccNode.memory {
		if t.Parent == ownerToken && equalFact(t.Fact, ownerFact) {
			t.NccResults = append(t.NccResults, newResult)
			newResult.Owner = t
			deleteTokenChildren(t)
			return
		}
	}
	p.newResultBuffer = append(p.newResultBuffer, newResult)
}

// deleteTokenChildren cascade-deletes every descendant of t without
// deleting t itself: t remains in its owning NCC node's memory, newly
// blocked, ready to re-propagate to its own (untouched) children once
// unblocked.
func deleteTokenChildren(t *Token) {
	for _, child := range append([]*Token(nil), t.Children...) {
		DeleteTokenAndDescendants(child)
	}
}

// FilterNode evaluates a textual template against the merged binding
// environment and propagates iff the result is truthy.
type FilterNode struct {
	nodeBase
	template  string
	evaluator Evaluator
}

func (n *FilterNode) Kind() NodeKind { return KindFilter }
func (n *FilterNode) Dump() string   { return fmt.Sprintf("FilterNode_%p", n) }

func (n *FilterNode) LeftActivate(token *Token, fact *Fact, binding Bindings) {
	env := token.AllBindings()
	for k, v := range binding {
		env[k] = v
	}
	code := substitute(n.template, env)
	result := evaluateOrPanic(n.evaluator, code)
	if isTruthy(result) {
		for _, child := range n.children {
			leftActivate(child, token, fact, binding)
		}
	}
}

// BindNode evaluates a textual template and stores the result under its
// target variable in a copy of the bindings, so propagation to one child
// can never mutate what a sibling sees.
type BindNode struct {
	nodeBase
	template  string
	symbol    string
	evaluator Evaluator
}

func (n *BindNode) Kind() NodeKind { return KindBind }
func (n *BindNode) Dump() string   { return fmt.Sprintf("BindNode_%p", n) }

func (n *BindNode) LeftActivate(token *Token, fact *Fact, binding Bindings) {
	env := token.AllBindings()
	for k, v := range binding {
		env[k] = v
	}
	code := substitute(n.template, env)
	result := evaluateOrPanic(n.evaluator, code)

	updated := binding.clone()
	updated[n.symbol] = fmt.Sprint(result)
	for _, child := range n.children {
		leftActivate(child, token, fact, updated.clone())
	}
}

// ProductionNode is the terminal sink for one rule: its memory is the
// rule's current match set.
type ProductionNode struct {
	nodeBase
	memory []*Token
	RHS    map[string]string
}

func (p *ProductionNode) Kind() NodeKind   { return KindProduction }
func (p *ProductionNode) Dump() string     { return fmt.Sprintf("ProductionNode_%p", p) }
func (p *ProductionNode) Memory() []*Token { return p.memory }
func (p *ProductionNode) RemoveToken(t *Token) { removeTokenFromSlice(&p.memory, t) }

func (p *ProductionNode) LeftActivate(parent *Token, fact *Fact, binding Bindings) {
	newToken := NewToken(parent, fact, p, binding)
	p.memory = append(p.memory, newToken)
}

// betaRoot is the inert sentinel node that anchors the beta network: the
// dummy top beta memory is built as its sole child the first time a rule
// is compiled.
type betaRoot struct {
	nodeBase
}

func (r *betaRoot) Kind() NodeKind { return KindBetaRoot }
func (r *betaRoot) Dump() string   { return "<beta-root>" }
