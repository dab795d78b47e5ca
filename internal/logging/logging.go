// Package logging provides the category-scoped logger used across retenet.
// It mirrors the teacher codebase's per-category logging convenience funcs,
// but is backed by a single zap.Logger rather than bespoke per-category files.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Category identifies the subsystem a log line originates from. Kept as a
// distinct type (rather than a bare string) so call sites read as
// logging.CategoryAlpha, logging.CategoryNetwork, etc.
type Category string

const (
	CategoryNetwork Category = "network"
	CategoryAlpha   Category = "alpha"
	CategoryBeta    Category = "beta"
	CategoryEval    Category = "eval"
	CategoryRuleset Category = "ruleset"
	CategoryCLI     Category = "cli"
)

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	enabled = true
)

// Init installs the process-wide zap logger used by every category logger.
// Passing nil resets logging to a no-op sink.
func Init(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		base = zap.NewNop()
		return
	}
	base = l
}

// SetEnabled toggles all category logging on or off without tearing down
// the underlying zap logger, matching the teacher's debug_mode switch.
func SetEnabled(v bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = v
}

// Sync flushes the underlying zap logger. Safe to call even when Init was
// never called.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

// For returns a logger scoped to the given category. The returned value is
// cheap to construct and is not expected to be retained across Init calls.
func For(category Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return zap.NewNop()
	}
	return base.With(zap.String("component", string(category)))
}
