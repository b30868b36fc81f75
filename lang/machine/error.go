package machine

import (
	"fmt"
	"strings"

	"github.com/mna/koto/lang/token"
	"github.com/mna/koto/lang/types"
)

// traceEntry is one stack frame recorded while a KotoError unwinds (spec
// §4.3 "Error handling... trace of (source_path, position)").
type traceEntry struct {
	SourcePath string
	Pos        token.Position
	FnName     string
}

// KotoError is a thrown or runtime-raised value, carrying the trace built up
// as it unwinds uncaught frames. A bare Go error from outside the VM (e.g.
// a host-provided NativeFunction) is wrapped the first time it crosses an
// opcode boundary.
type KotoError struct {
	Value types.Value
	Trace []traceEntry
}

func (e *KotoError) Error() string {
	var b strings.Builder
	b.WriteString(e.Value.Display())
	for _, t := range e.Trace {
		fmt.Fprintf(&b, "\n  at %s:%d", t.SourcePath, t.Pos.Line)
	}
	return b.String()
}

// toKotoError wraps a plain Go error as a thrown Str the first time it
// surfaces from inside the dispatch loop, so every error the VM propagates
// is catchable as a Koto value (spec §4.3 "runtime errors are thrown as
// strings unless a richer value was explicitly raised").
func toKotoError(err error) *KotoError {
	if ke, ok := err.(*KotoError); ok {
		return ke
	}
	return &KotoError{Value: types.Str(err.Error())}
}

// raise wraps err (if needed), appends fr's current position to its trace,
// and either resumes fr at its innermost catch handler or returns the error
// to be propagated to fr's Go-level caller. The bool return reports whether
// fr was resumed in place (caller should `continue` its dispatch loop).
func (vm *Vm) raise(fr *callFrame, err error) (*KotoError, bool) {
	ke := toKotoError(err)
	ke.Trace = append(ke.Trace, traceEntry{
		SourcePath: fr.chunk.SourcePath,
		Pos:        fr.chunk.PosForIP(fr.ip),
		FnName:     fr.fnName,
	})
	if n := len(fr.catches); n > 0 {
		cp := fr.catches[n-1]
		fr.catches = fr.catches[:n-1]
		vm.setReg(fr, cp.reg, ke.Value)
		fr.ip = cp.ip
		return ke, true
	}
	return ke, false
}

// raiseValue is the Throw opcode's entry point: it has no underlying Go
// error, just a thrown Koto value.
func (vm *Vm) raiseValue(fr *callFrame, v types.Value) (*KotoError, bool) {
	return vm.raise(fr, &KotoError{Value: v})
}
