package rete

import (
	"fmt"
	"strings"
)

// Network is the builder and controller for a Rete discrimination
// network: it constructs and shares nodes while compiling rules, routes
// asserted and retracted facts into the alpha root, and owns the dummy
// top beta memory. All state belongs to exactly one Network instance;
// nothing here is safe for concurrent mutation.
type Network struct {
	alphaRoot *ConstantTestNode
	betaRoot  *betaRoot
	evaluator Evaluator

	factLimit int
	factCount int
}

// New constructs an empty network. evaluator resolves Filter/Bind
// templates; pass nil only for networks built from rules with no
// Filter/Bind conditions.
func New(evaluator Evaluator) *Network {
	return &Network{
		alphaRoot: newAlphaRoot(),
		betaRoot:  &betaRoot{},
		evaluator: evaluator,
	}
}

// SetFactLimit bounds the number of live facts the network will accept;
// zero (the default) means unbounded.
func (net *Network) SetFactLimit(n int) {
	net.factLimit = n
}

// AddProduction compiles rule into the network (building or sharing
// nodes as required) and returns its production node. rhs is carried
// through untouched as the opaque right-hand-side payload.
func (net *Network) AddProduction(rule Rule, rhs map[string]string) (prod *ProductionNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(evalError); ok {
				err = ee.err
				return
			}
			panic(r)
		}
	}()

	current := net.buildOrShareNetworkForConditions(Node(net.betaRoot), rule, nil)
	return net.buildOrShareProductionNode(current, rhs), nil
}

// RemoveProduction deletes a production node and any ancestor nodes left
// unused once it (and its now-childless ancestors) are detached.
func (net *Network) RemoveProduction(node *ProductionNode) {
	deleteNodeAndAnyUnusedAncestors(node)
}

// AddFact asserts fact into the network, propagating through the alpha
// and beta networks synchronously. Re-asserting an already-present
// triple is a silent no-op (deduplicated at each alpha memory).
func (net *Network) AddFact(fact *Fact) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(evalError); ok {
				err = ee.err
				return
			}
			panic(r)
		}
	}()

	if net.factLimit > 0 && net.factCount >= net.factLimit {
		return fmt.Errorf("rete: fact limit of %d reached", net.factLimit)
	}
	before := len(net.alphaRoot.amem.Memory())
	net.alphaRoot.activation(fact)
	if len(net.alphaRoot.amem.Memory()) > before {
		net.factCount++
	}
	return nil
}

// RemoveFact retracts fact: it is detached from every alpha memory that
// holds it, every token mentioning it is cascade-deleted, and every
// negative-join result it participated in is unwound, re-propagating any
// token that becomes unblocked as a result. Retracting an unknown fact is
// a no-op.
func (net *Network) RemoveFact(fact *Fact) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(evalError); ok {
				err = ee.err
				return
			}
			panic(r)
		}
	}()

	known := len(fact.amems) > 0
	for _, am := range append([]*AlphaMemory(nil), fact.amems...) {
		am.removeFact(fact)
	}
	fact.amems = nil

	for _, t := range append([]*Token(nil), fact.tokens...) {
		DeleteTokenAndDescendants(t)
	}

	for _, jr := range append([]*NegativeJoinResult(nil), fact.negativeJoinResults...) {
		removeJoinResultFromSlice(&jr.Owner.JoinResults, jr)
		if len(jr.Owner.JoinResults) == 0 {
			if node, ok := jr.Owner.Node.(*NegativeNode); ok {
				for _, child := range node.Children() {
					leftActivate(child, jr.Owner, nil, nil)
				}
			}
		}
	}
	fact.negativeJoinResults = nil

	if known {
		net.factCount--
	}
	return nil
}

func removeJoinResultFromSlice(s *[]*NegativeJoinResult, jr *NegativeJoinResult) {
	for i, v := range *s {
		if v == jr {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return
		}
	}
}

// buildOrShareAlphaMemory computes the (field, constant) path for
// condition, walks/extends the discrimination tree, and seeds the
// resulting alpha memory from every fact already known to the root.
func (net *Network) buildOrShareAlphaMemory(cond tripleCondition) *AlphaMemory {
	var path []pathStep
	for _, f := range Fields {
		v := cond.Get(f)
		if !isVar(v) {
			path = append(path, pathStep{field: f, symbol: v})
		}
	}
	am := buildOrShareAlphaMemory(net.alphaRoot, path)
	for _, w := range net.alphaRoot.amem.Memory() {
		if cond.Match(w) {
			am.Activation(w)
		}
	}
	return am
}

// getJoinTestsFromCondition derives join tests from cond's variables
// against the fields of earlier Has conditions. Neg and Ncc conditions
// bind nothing and are never used as a join source, but each still adds
// one (fact-less) step to the token chain and so counts towards
// ConditionIndex. Filter and Bind add no step and contribute no
// join-testable position, so they are not counted at all.
func getJoinTestsFromCondition(cond tripleCondition, earlier []Condition) []JoinTest {
	var result []JoinTest
	for _, ref := range cond.Vars() {
		pos := 0
		for _, prior := range earlier {
			switch prior.(type) {
			case Filter, Bind:
				continue
			}
			idx := pos
			pos++
			has, ok := prior.(Has)
			if !ok {
				continue
			}
			field2, found := has.Contains(ref.Symbol)
			if !found {
				continue
			}
			result = append(result, JoinTest{Field1: ref.Field, ConditionIndex: idx, Field2: field2})
		}
	}
	return result
}

func (net *Network) buildOrShareJoinNode(parent Node, amem *AlphaMemory, tests []JoinTest, has Has) *JoinNode {
	for _, child := range parent.Children() {
		if jn, ok := child.(*JoinNode); ok && jn.amem == amem && joinTestsEqual(jn.tests, tests) && jn.has == has {
			return jn
		}
	}
	node := &JoinNode{nodeBase: newNodeBase(parent), amem: amem, tests: tests, has: has}
	parent.AddChild(node)
	amem.AddChild(node)
	return node
}

func (net *Network) buildOrShareNegativeNode(parent Node, amem *AlphaMemory, tests []JoinTest) *NegativeNode {
	for _, child := range parent.Children() {
		if nn, ok := child.(*NegativeNode); ok && nn.amem == amem && joinTestsEqual(nn.tests, tests) {
			return nn
		}
	}
	node := &NegativeNode{nodeBase: newNodeBase(parent), amem: amem, tests: tests}
	parent.AddChild(node)
	amem.AddChild(node)
	net.updateNewNodeWithMatchesFromAbove(node)
	return node
}

func (net *Network) buildOrShareBetaMemory(parent Node) *BetaMemory {
	for _, child := range parent.Children() {
		if bm, ok := child.(*BetaMemory); ok {
			return bm
		}
	}
	node := &BetaMemory{nodeBase: newNodeBase(parent)}
	if parent == Node(net.betaRoot) {
		node.memory = append(node.memory, NewToken(nil, nil, node, nil))
	}
	parent.AddChild(node)
	net.updateNewNodeWithMatchesFromAbove(node)
	return node
}

func (net *Network) buildOrShareProductionNode(parent Node, rhs map[string]string) *ProductionNode {
	for _, child := range parent.Children() {
		if pn, ok := child.(*ProductionNode); ok {
			return pn
		}
	}
	node := &ProductionNode{nodeBase: newNodeBase(parent), RHS: rhs}
	parent.AddChild(node)
	net.updateNewNodeWithMatchesFromAbove(node)
	return node
}

func (net *Network) buildOrShareNccNodes(parent Node, ncc Ncc, earlier []Condition) *NccNode {
	bottom := net.buildOrShareNetworkForConditions(parent, ncc.Conditions, append([]Condition(nil), earlier...))
	for _, child := range parent.Children() {
		if existing, ok := child.(*NccNode); ok && existing.partner.Parent() == bottom {
			return existing
		}
	}
	nccNode := &NccNode{nodeBase: newNodeBase(parent)}
	partner := &NccPartnerNode{nodeBase: newNodeBase(bottom), numberOfConditions: ncc.NumberOfConditions()}
	parent.AddChild(nccNode)
	bottom.AddChild(partner)
	nccNode.partner = partner
	partner.nccNode = nccNode
	net.updateNewNodeWithMatchesFromAbove(nccNode)
	net.updateNewNodeWithMatchesFromAbove(partner)
	return nccNode
}

func (net *Network) buildOrShareFilterNode(parent Node, f Filter) *FilterNode {
	for _, child := range parent.Children() {
		if fn, ok := child.(*FilterNode); ok && fn.template == f.Template {
			return fn
		}
	}
	node := &FilterNode{nodeBase: newNodeBase(parent), template: f.Template, evaluator: net.evaluator}
	parent.AddChild(node)
	net.updateNewNodeWithMatchesFromAbove(node)
	return node
}

func (net *Network) buildOrShareBindNode(parent Node, b Bind) *BindNode {
	for _, child := range parent.Children() {
		if bn, ok := child.(*BindNode); ok && bn.template == b.Template && bn.symbol == b.Symbol {
			return bn
		}
	}
	node := &BindNode{nodeBase: newNodeBase(parent), template: b.Template, symbol: b.Symbol, evaluator: net.evaluator}
	parent.AddChild(node)
	net.updateNewNodeWithMatchesFromAbove(node)
	return node
}

// buildOrShareNetworkForConditions walks rule's conditions left to right
// under parent, maintaining an accumulating earlier-conditions list, and
// returns the bottom-most node of the compiled chain.
func (net *Network) buildOrShareNetworkForConditions(parent Node, rule Rule, earlier []Condition) Node {
	current := parent
	condsHigherUp := earlier
	for _, cond := range rule {
		switch c := cond.(type) {
		case Neg:
			tests := getJoinTestsFromCondition(c, condsHigherUp)
			am := net.buildOrShareAlphaMemory(c)
			current = net.buildOrShareNegativeNode(current, am, tests)
		case Has:
			current = net.buildOrShareBetaMemory(current)
			tests := getJoinTestsFromCondition(c, condsHigherUp)
			am := net.buildOrShareAlphaMemory(c)
			current = net.buildOrShareJoinNode(current, am, tests, c)
		case Ncc:
			current = net.buildOrShareNccNodes(current, c, condsHigherUp)
		case Filter:
			current = net.buildOrShareFilterNode(current, c)
		case Bind:
			current = net.buildOrShareBindNode(current, c)
		}
		condsHigherUp = append(condsHigherUp, cond)
	}
	return current
}

// updateNewNodeWithMatchesFromAbove back-fills a freshly installed node
// with matches already flowing through its parent, so that rules added
// after facts already exist see the same matches a from-scratch build
// would have produced. The seeding policy depends only on the parent's
// kind, never on the new node's own kind.
func (net *Network) updateNewNodeWithMatchesFromAbove(newNode Node) {
	switch parent := newNode.Parent().(type) {
	case *BetaMemory:
		for _, tok := range parent.memory {
			leftActivate(newNode, tok, nil, nil)
		}
	case *JoinNode:
		saved := parent.ReplaceChildren(newNode)
		for _, fact := range parent.amem.Memory() {
			parent.RightActivate(fact)
		}
		parent.ReplaceChildren(saved...)
	case *NegativeNode:
		for _, tok := range parent.memory {
			if len(tok.JoinResults) == 0 {
				leftActivate(newNode, tok, nil, nil)
			}
		}
	case *NccNode:
		for _, tok := range parent.memory {
			if len(tok.NccResults) == 0 {
				leftActivate(newNode, tok, nil, nil)
			}
		}
	}
}

// deleteNodeAndAnyUnusedAncestors removes node, cascade-deleting its
// tokens (or, for a join node, detaching it from its alpha memory, since
// join nodes hold no token memory of their own), then recurses up through
// any ancestor left childless.
func deleteNodeAndAnyUnusedAncestors(node Node) {
	if jn, ok := node.(*JoinNode); ok {
		jn.amem.RemoveChild(jn)
	} else if mh, ok := node.(memoryHolder); ok {
		for _, tok := range append([]*Token(nil), mh.Memory()...) {
			DeleteTokenAndDescendants(tok)
		}
	}
	parent := node.Parent()
	parent.RemoveChild(node)
	if len(parent.Children()) == 0 {
		if _, isRoot := parent.(*betaRoot); !isRoot {
			deleteNodeAndAnyUnusedAncestors(parent)
		}
	}
}

// Dump renders the alpha and beta networks as Graphviz "dot" source,
// suitable for visual inspection.
func (net *Network) Dump() string {
	var b strings.Builder
	b.WriteString("digraph {\n")
	dumpBeta(&b, net.betaRoot, net.betaRoot)
	dumpAlpha(&b, net.alphaRoot, net.alphaRoot)
	dumpAlphaToBeta(&b, net.alphaRoot)
	b.WriteString("}")
	return b.String()
}

func dumpAlpha(b *strings.Builder, root, node *ConstantTestNode) {
	if node == root {
		b.WriteString("    subgraph cluster_0 {\n    label = alpha\n")
	}
	for _, child := range node.children {
		fmt.Fprintf(b, "    %q -> %q;\n", node.dump(), child.dump())
		dumpAlpha(b, root, child)
	}
	if node == root {
		b.WriteString("    }\n")
	}
}

func dumpAlphaToBeta(b *strings.Builder, node *ConstantTestNode) {
	if node.amem != nil {
		for _, child := range node.amem.children {
			fmt.Fprintf(b, "    %q -> %q;\n", node.dump(), child.Dump())
		}
	}
	for _, child := range node.children {
		dumpAlphaToBeta(b, child)
	}
}

func dumpBeta(b *strings.Builder, root *betaRoot, node Node) {
	isRoot := node == Node(root)
	if isRoot {
		b.WriteString("    subgraph cluster_1 {\n    label = beta\n")
	}
	if partner, ok := node.(*NccPartnerNode); ok {
		fmt.Fprintf(b, "    %q -> %q;\n", partner.Dump(), partner.nccNode.Dump())
	}
	for _, child := range node.Children() {
		fmt.Fprintf(b, "    %q -> %q;\n", node.Dump(), child.Dump())
		dumpBeta(b, root, child)
	}
	if isRoot {
		b.WriteString("    }\n")
	}
}
