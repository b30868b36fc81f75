package machine

import "github.com/mna/koto/lang/types"

// Universe holds the language-level built-ins available to every module
// without an import (spec §3 "Universal" resolver scope) — things like
// `print`, `type`, `range` that are not specific to any one host embedding.
// It starts empty: no package in this module fills it, and lang/machine
// imports no built-in library package; a program embedding the VM adds
// entries to it.
var Universe = map[string]types.Value{}

// CoreLibAccess is the fallback hook consulted by Access/AccessString when a
// value has no matching Map data/@meta entry (or is not a Map at all): it
// looks up a method table keyed by the value's Kind and returns a bound
// callable capturing the value as its implicit receiver (spec §4.3 "for any
// other object, fallback to the corresponding core library", §9 "return a
// callable that captures self"). No package in this module sets it; while
// it is nil every lookup misses.
var CoreLibAccess func(self types.Value, name string) (types.Value, bool)

func lookupGlobal(ctx *VmContext, name string) (types.Value, bool) {
	if ctx.Predeclared != nil {
		if v, ok := ctx.Predeclared[name]; ok {
			return v, true
		}
	}
	v, ok := Universe[name]
	return v, ok
}
