package rete

import (
	"sort"
	"strings"
)

// Evaluator is the external collaborator that resolves filter and bind
// templates. Given a plain expression string (every "$name" occurrence
// already textually substituted with the string form of its bound value),
// it returns the expression's value. The network invokes it synchronously
// and treats it as pure: side effects, if any, are not part of matching
// semantics.
type Evaluator interface {
	Evaluate(expression string) (any, error)
}

// substitute replaces every occurrence of a bound variable's name in
// template with the string form of its value. Variables are substituted
// longest-name-first so that, e.g., "$x" cannot accidentally clobber part
// of an occurrence of "$xy" before "$xy" itself is substituted.
func substitute(template string, env Bindings) string {
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	result := template
	for _, name := range names {
		result = strings.ReplaceAll(result, name, env[name])
	}
	return result
}

// isTruthy applies the filter condition's truthiness rule to an
// evaluator's result.
func isTruthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "0" && x != "false"
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

// evalError wraps an Evaluator failure so it can be propagated through
// the recursive activation call chain via panic/recover, converted back
// into a returned error at the Network boundary (AddFact, RemoveFact,
// AddProduction). Whatever tokens were already fully constructed before
// the failure remain valid; the network never attempts to roll them back.
type evalError struct{ err error }

func evaluateOrPanic(ev Evaluator, expression string) any {
	result, err := ev.Evaluate(expression)
	if err != nil {
		panic(evalError{err})
	}
	return result
}
