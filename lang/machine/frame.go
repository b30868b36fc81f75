package machine

import (
	"github.com/mna/koto/lang/compiler"
	"github.com/mna/koto/lang/types"
)

// catchPoint is one pending try/catch handler, pushed by TryStart and
// popped by TryEnd on normal fall-through, or by the unwinder on error
// (spec §4.3 "Error handling").
type catchPoint struct {
	reg int // frame-relative register to receive the caught value
	ip  int // ip to resume at, right after the catch variable is written
}

// callFrame records one pushed Koto function activation: the chunk/ip
// driving it, the register window it owns in the shared Vm.regs stack, its
// captured values, and the catch handlers currently in scope (spec §4.3
// "call frame").
type callFrame struct {
	chunk    *compiler.Chunk
	ip       int
	base     int // vm.regs[base] is this frame's register 0
	captures []types.Value

	catches []catchPoint
	// barrier names the execution-barrier concept (spec §4.3
	// "execution_barrier"); it is never set or read. Under Go-native
	// recursion an error naturally stops unwinding at the Go call boundary
	// that pushed the frame, so no flag is needed for that.
	barrier bool

	// exports accumulates `export`/`export @op` bindings for a module-level
	// frame; nil for an ordinary function frame (spec §4.3 "Module import").
	exports *types.Map

	fnName string // best-effort, for traces and error messages
}

// reg reads fr's register r, treating an unset/out-of-range slot as Null
// (the register stack is zero-extended lazily by setReg, so a register a
// frame never writes — e.g. an omitted optional argument — reads as Null).
func (vm *Vm) reg(fr *callFrame, r int) types.Value {
	idx := fr.base + r
	if idx < 0 || idx >= len(vm.regs) || vm.regs[idx] == nil {
		return types.Null{}
	}
	return vm.regs[idx]
}

// setReg writes fr's register r, growing the shared register stack as
// needed (spec §4.3 "the register stack grows on demand; registers above
// the frame's declared local count are temporaries with no fixed owner").
func (vm *Vm) setReg(fr *callFrame, r int, v types.Value) {
	idx := fr.base + r
	vm.ensureRegs(idx + 1)
	vm.regs[idx] = v
}

func (vm *Vm) ensureRegs(n int) {
	if n <= len(vm.regs) {
		return
	}
	grown := make([]types.Value, n)
	copy(grown, vm.regs)
	vm.regs = grown
}

// regSlice returns a fresh copy of fr's registers [start, start+count), used
// whenever a contiguous register window must outlive further mutation of
// that window (call arguments, sequence spreads).
func (vm *Vm) regSlice(fr *callFrame, start, count int) []types.Value {
	out := make([]types.Value, count)
	for i := 0; i < count; i++ {
		out[i] = vm.reg(fr, start+i)
	}
	return out
}
