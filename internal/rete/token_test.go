package rete_test

import (
	"testing"

	"retenet/internal/rete"
)

// AllBindings merges the full parent chain, not just the immediate parent:
// a binding introduced two steps up must still be visible at a child token.
func TestToken_AllBindingsMergesFullChain(t *testing.T) {
	root := rete.NewToken(nil, nil, nil, nil)
	step1 := rete.NewToken(root, rete.NewFact("a", "b", "c"), nil, rete.Bindings{"$x": "1"})
	step2 := rete.NewToken(step1, rete.NewFact("d", "e", "f"), nil, rete.Bindings{"$y": "2"})
	step3 := rete.NewToken(step2, rete.NewFact("g", "h", "i"), nil, rete.Bindings{"$z": "3"})

	got := step3.AllBindings()
	want := rete.Bindings{"$x": "1", "$y": "2", "$z": "3"}
	if len(got) != len(want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	}
}

// A later step rebinding a symbol shadows the earlier value.
func TestToken_AllBindingsLaterStepShadows(t *testing.T) {
	root := rete.NewToken(nil, nil, nil, nil)
	step1 := rete.NewToken(root, rete.NewFact("a", "b", "c"), nil, rete.Bindings{"$x": "1"})
	step2 := rete.NewToken(step1, rete.NewFact("d", "e", "f"), nil, rete.Bindings{"$x": "2"})

	if got := step2.AllBindings()["$x"]; got != "2" {
		t.Fatalf("got %q, want %q", got, "2")
	}
}

func TestToken_GetBindingWalksParentChain(t *testing.T) {
	root := rete.NewToken(nil, nil, nil, nil)
	step1 := rete.NewToken(root, rete.NewFact("a", "b", "c"), nil, rete.Bindings{"$x": "1"})
	step2 := rete.NewToken(step1, rete.NewFact("d", "e", "f"), nil, nil)

	v, ok := step2.GetBinding("$x")
	if !ok || v != "1" {
		t.Fatalf("got (%q, %v), want (\"1\", true)", v, ok)
	}
	if _, ok := step2.GetBinding("$nope"); ok {
		t.Fatal("expected no binding for an unbound symbol")
	}
}

func TestToken_WMEsExcludesRoot(t *testing.T) {
	root := rete.NewToken(nil, nil, nil, nil)
	fa := rete.NewFact("a", "b", "c")
	fb := rete.NewFact("d", "e", "f")
	step1 := rete.NewToken(root, fa, nil, nil)
	step2 := rete.NewToken(step1, fb, nil, nil)

	wmes := step2.WMEs()
	if len(wmes) != 2 || wmes[0] != fa || wmes[1] != fb {
		t.Fatalf("got %v, want [%v %v]", wmes, fa, fb)
	}
}

func TestToken_IsRoot(t *testing.T) {
	root := rete.NewToken(nil, nil, nil, nil)
	if !root.IsRoot() {
		t.Fatal("expected root token to report IsRoot")
	}
	child := rete.NewToken(root, rete.NewFact("a", "b", "c"), nil, nil)
	if child.IsRoot() {
		t.Fatal("expected non-root token to report !IsRoot")
	}
}

// DeleteTokenAndDescendants unlinks a token from its fact and its parent's
// children list, and recursively removes every descendant first.
func TestToken_DeleteTokenAndDescendantsUnlinks(t *testing.T) {
	root := rete.NewToken(nil, nil, nil, nil)
	fa := rete.NewFact("a", "b", "c")
	parent := rete.NewToken(root, fa, nil, nil)
	fb := rete.NewFact("d", "e", "f")
	child := rete.NewToken(parent, fb, nil, nil)

	rete.DeleteTokenAndDescendants(parent)

	if len(root.Children) != 0 {
		t.Fatalf("expected parent removed from root's children, got %v", root.Children)
	}
	if len(fa.Tokens()) != 0 {
		t.Fatalf("expected parent unlinked from its fact's token list")
	}
	if len(fb.Tokens()) != 0 {
		t.Fatalf("expected child unlinked from its fact's token list")
	}
	_ = child // deleted as a descendant of parent
}
