// Package evalexpr implements the external expression-evaluator contract
// that retenet's Filter and Bind conditions depend on: given a plain
// expression string (variables already substituted with their string
// values), return its value. It is backed by goja, the pure-Go
// ECMAScript interpreter also used for scriptable tracing elsewhere in
// this dependency stack.
package evalexpr

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"retenet/internal/logging"
)

// JSEvaluator evaluates expressions as JavaScript. A fresh goja.Runtime
// is used per call: templates are short, side-effect-free expressions,
// and isolating each evaluation avoids one rule's Filter/Bind leaking
// global state into another's.
type JSEvaluator struct {
	// timeout bounds a single Evaluate call. Zero means no timeout.
	timeout time.Duration
}

// New constructs a JSEvaluator. A zero timeout means Evaluate never
// interrupts a running script.
func New(timeout time.Duration) *JSEvaluator {
	return &JSEvaluator{timeout: timeout}
}

// Evaluate runs expression as a JavaScript expression and returns its
// result as a native Go value (bool, string, float64, int64, nil, ...).
// If the evaluator was constructed with a non-zero timeout and the
// script has not returned by then, the goja runtime is interrupted and
// Evaluate returns an error.
func (e *JSEvaluator) Evaluate(expression string) (any, error) {
	vm := goja.New()

	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() {
			vm.Interrupt(fmt.Sprintf("evalexpr: expression exceeded %s timeout", e.timeout))
		})
		defer timer.Stop()
	}

	value, err := vm.RunString(expression)
	if err != nil {
		logging.For(logging.CategoryEval).Debug("evaluation failed",
			zap.String("expression", expression),
			zap.Error(err),
		)
		return nil, fmt.Errorf("evalexpr: evaluate %q: %w", expression, err)
	}
	return value.Export(), nil
}
