package rete_test

import (
	"testing"

	"retenet/internal/evalexpr"
	"retenet/internal/rete"
)

func mustAdd(t *testing.T, net *rete.Network, f *rete.Fact) {
	t.Helper()
	if err := net.AddFact(f); err != nil {
		t.Fatalf("AddFact(%v): %v", f, err)
	}
}

func mustRemove(t *testing.T, net *rete.Network, f *rete.Fact) {
	t.Helper()
	if err := net.RemoveFact(f); err != nil {
		t.Fatalf("RemoveFact(%v): %v", f, err)
	}
}

// Scenario 1: two constant-only conditions sharing a constant identifier.
func TestNetwork_ScenarioConstantIdentifiers(t *testing.T) {
	rule := rete.Rule{
		rete.NewHas("x", "id", "1"),
		rete.NewHas("x", "kind", "8"),
	}

	cases := []struct {
		name  string
		facts []*rete.Fact
		want  int
	}{
		{"only id", []*rete.Fact{rete.NewFact("x", "id", "1")}, 0},
		{"only kind", []*rete.Fact{rete.NewFact("x", "kind", "8")}, 0},
		{"both", []*rete.Fact{rete.NewFact("x", "id", "1"), rete.NewFact("x", "kind", "8")}, 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			net := rete.New(nil)
			prod, err := net.AddProduction(rule, nil)
			if err != nil {
				t.Fatalf("AddProduction: %v", err)
			}
			for _, f := range c.facts {
				mustAdd(t, net, f)
			}
			if got := len(prod.Memory()); got != c.want {
				t.Fatalf("got %d matches, want %d", got, c.want)
			}
		})
	}
}

func blocksWorld() []*rete.Fact {
	return []*rete.Fact{
		rete.NewFact("B1", "on", "B2"),
		rete.NewFact("B1", "on", "B3"),
		rete.NewFact("B1", "color", "red"),
		rete.NewFact("B2", "on", "table"),
		rete.NewFact("B2", "left-of", "B3"),
		rete.NewFact("B2", "color", "blue"),
		rete.NewFact("B3", "left-of", "B4"),
		rete.NewFact("B3", "on", "table"),
		rete.NewFact("B3", "color", "red"),
	}
}

// Scenario 2: positive chain over the blocks world, then retraction drops
// the sole match.
func TestNetwork_ScenarioPositiveChainWithRetraction(t *testing.T) {
	rule := rete.Rule{
		rete.NewHas("$x", "on", "$y"),
		rete.NewHas("$y", "left-of", "$z"),
		rete.NewHas("$z", "color", "red"),
	}
	net := rete.New(nil)
	prod, err := net.AddProduction(rule, nil)
	if err != nil {
		t.Fatalf("AddProduction: %v", err)
	}

	wmes := blocksWorld()
	for _, f := range wmes {
		mustAdd(t, net, f)
	}
	if got := len(prod.Memory()); got != 1 {
		t.Fatalf("got %d matches, want 1", got)
	}

	mustRemove(t, net, wmes[0]) // (B1,on,B2)
	if got := len(prod.Memory()); got != 0 {
		t.Fatalf("after retraction got %d matches, want 0", got)
	}
}

// Scenario 3: the same chain with a trailing Neg in place of the positive
// color condition. The distilled scenario text describes removing
// (B3,color,red) from the working set, but doing so actually admits a
// second match (B1,B2,B3) alongside (B1,B3,B4), contradicting its own
// stated single-match result. The original reference test asserts this
// case over the full 9-fact set, where (B3,color,red) blocks the first
// chain and leaves exactly the second: that is what is reproduced here.
func TestNetwork_ScenarioNegatedTrailingCondition(t *testing.T) {
	rule := rete.Rule{
		rete.NewHas("$x", "on", "$y"),
		rete.NewHas("$y", "left-of", "$z"),
		rete.NewNeg("$z", "color", "red"),
	}
	net := rete.New(nil)
	prod, err := net.AddProduction(rule, nil)
	if err != nil {
		t.Fatalf("AddProduction: %v", err)
	}

	for _, f := range blocksWorld() {
		mustAdd(t, net, f)
	}

	if got := len(prod.Memory()); got != 1 {
		t.Fatalf("got %d matches, want 1", got)
	}
	binding := prod.Memory()[0].AllBindings()
	if binding["$x"] != "B1" || binding["$y"] != "B3" || binding["$z"] != "B4" {
		t.Fatalf("unexpected binding: %#v", binding)
	}
}

// Scenario 4: compound negation (Ncc) over facts 1-8 of the blocks world,
// then asserting the missing fact collapses one of the two matches.
func TestNetwork_ScenarioCompoundNegation(t *testing.T) {
	rule := rete.Rule{
		rete.NewHas("$x", "on", "$y"),
		rete.NewHas("$y", "left-of", "$z"),
		rete.NewNcc(
			rete.NewHas("$z", "color", "red"),
			rete.NewHas("$z", "on", "$w"),
		),
	}
	net := rete.New(nil)
	prod, err := net.AddProduction(rule, nil)
	if err != nil {
		t.Fatalf("AddProduction: %v", err)
	}

	wmes := blocksWorld()
	for _, f := range wmes[:8] { // facts 1-8, withholding (B3,color,red)
		mustAdd(t, net, f)
	}
	if got := len(prod.Memory()); got != 2 {
		t.Fatalf("got %d matches, want 2", got)
	}

	mustAdd(t, net, rete.NewFact("B3", "color", "red"))
	if got := len(prod.Memory()); got != 1 {
		t.Fatalf("after assertion got %d matches, want 1", got)
	}
}

// Scenario 5: a Filter chain narrowing a single identifier's price facts
// to the one value strictly between 100 and 200.
func TestNetwork_ScenarioFilterChain(t *testing.T) {
	rule := rete.Rule{
		rete.NewHas("spu:1", "price", "$x"),
		rete.NewFilter("$x>100"),
		rete.NewFilter("$x<200"),
	}
	net := rete.New(evalexpr.New(0))
	prod, err := net.AddProduction(rule, nil)
	if err != nil {
		t.Fatalf("AddProduction: %v", err)
	}

	for _, price := range []string{"100", "150", "300"} {
		mustAdd(t, net, rete.NewFact("spu:1", "price", price))
	}

	if got := len(prod.Memory()); got != 1 {
		t.Fatalf("got %d matches, want 1", got)
	}
	binding := prod.Memory()[0].AllBindings()
	if binding["$x"] != "150" {
		t.Fatalf("unexpected binding: %#v", binding)
	}
}

// Scenario 6: an Ncc over a trio of Negs layered with three more trailing
// Negs, modeling a "black/white listed category or shop" filter.
func TestNetwork_ScenarioNccWithTrailingNegs(t *testing.T) {
	rule := rete.Rule{
		rete.NewHas("$item", "cat", "$cid"),
		rete.NewHas("$item", "shop", "$sid"),
		rete.NewNcc(
			rete.NewNeg("$item", "cat", "100"),
			rete.NewNeg("$item", "cat", "101"),
			rete.NewNeg("$item", "cat", "102"),
		),
		rete.NewNeg("$item", "shop", "1"),
		rete.NewNeg("$item", "shop", "2"),
		rete.NewNeg("$item", "shop", "3"),
	}
	net := rete.New(nil)
	prod, err := net.AddProduction(rule, nil)
	if err != nil {
		t.Fatalf("AddProduction: %v", err)
	}

	facts := []*rete.Fact{
		rete.NewFact("item:1", "cat", "101"),
		rete.NewFact("item:1", "shop", "4"),
		rete.NewFact("item:2", "cat", "100"),
		rete.NewFact("item:2", "shop", "1"),
	}
	for _, f := range facts {
		mustAdd(t, net, f)
	}

	if got := len(prod.Memory()); got != 1 {
		t.Fatalf("got %d matches, want 1", got)
	}
	binding := prod.Memory()[0].AllBindings()
	if binding["$item"] != "item:1" {
		t.Fatalf("unexpected binding: %#v", binding)
	}
}

// Duplicate fact assertion is silently deduplicated at the alpha memory:
// asserting the same triple twice does not double a match.
func TestNetwork_DuplicateFactIsDeduplicated(t *testing.T) {
	rule := rete.Rule{
		rete.NewHas("$x", "self", "$y"),
		rete.NewHas("$x", "color", "red"),
		rete.NewHas("$y", "color", "red"),
	}
	net := rete.New(nil)
	prod, err := net.AddProduction(rule, nil)
	if err != nil {
		t.Fatalf("AddProduction: %v", err)
	}

	mustAdd(t, net, rete.NewFact("B1", "self", "B1"))
	mustAdd(t, net, rete.NewFact("B1", "color", "red"))
	mustAdd(t, net, rete.NewFact("B1", "self", "B1")) // duplicate

	if got := len(prod.Memory()); got != 1 {
		t.Fatalf("got %d matches, want 1", got)
	}
}

// Multiple productions sharing a join prefix see independent match sets,
// and a production added after facts already exist is seeded correctly;
// removing one production does not disturb the others.
func TestNetwork_MultipleProductionsShareNodes(t *testing.T) {
	c0 := rete.NewHas("$x", "on", "$y")
	c1 := rete.NewHas("$y", "left-of", "$z")
	c2 := rete.NewHas("$z", "color", "red")
	c3 := rete.NewHas("$z", "on", "table")
	c4 := rete.NewHas("$z", "left-of", "B4")

	net := rete.New(nil)
	p0, err := net.AddProduction(rete.Rule{c0, c1, c2}, nil)
	if err != nil {
		t.Fatalf("AddProduction p0: %v", err)
	}
	p1, err := net.AddProduction(rete.Rule{c0, c1, c3, c4}, nil)
	if err != nil {
		t.Fatalf("AddProduction p1: %v", err)
	}

	for _, f := range blocksWorld() {
		mustAdd(t, net, f)
	}

	// added after the facts already exist: must be seeded, not start empty.
	p2, err := net.AddProduction(rete.Rule{c0, c1, c3, c2}, nil)
	if err != nil {
		t.Fatalf("AddProduction p2: %v", err)
	}

	if got := len(p0.Memory()); got != 1 {
		t.Fatalf("p0: got %d matches, want 1", got)
	}
	if got := len(p1.Memory()); got != 1 {
		t.Fatalf("p1: got %d matches, want 1", got)
	}
	if got := len(p2.Memory()); got != 1 {
		t.Fatalf("p2: got %d matches, want 1", got)
	}

	net.RemoveProduction(p2)
	if got := len(p2.Memory()); got != 0 {
		t.Fatalf("p2 after removal: got %d matches, want 0", got)
	}
	if got := len(p0.Memory()); got != 1 {
		t.Fatalf("p0 after removing p2: got %d matches, want 1", got)
	}
	if got := len(p1.Memory()); got != 1 {
		t.Fatalf("p1 after removing p2: got %d matches, want 1", got)
	}
}

// Unknown-field access fails fast rather than silently returning a zero
// value that could masquerade as a real match.
func TestFact_GetUnknownFieldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unknown field")
		}
	}()
	f := rete.NewFact("a", "b", "c")
	_ = f.Get(rete.Field("bogus"))
}

// A fact limit rejects assertion past the configured bound.
func TestNetwork_FactLimit(t *testing.T) {
	net := rete.New(nil)
	net.SetFactLimit(1)

	if err := net.AddFact(rete.NewFact("a", "b", "c")); err != nil {
		t.Fatalf("AddFact within limit: %v", err)
	}
	if err := net.AddFact(rete.NewFact("d", "e", "f")); err == nil {
		t.Fatal("expected an error once the fact limit is reached")
	}
}
