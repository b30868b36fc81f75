// Package machine implements the register-based virtual machine that
// executes a compiled lang/compiler.Chunk against the lang/types value
// model (spec §4.3 "Virtual machine"). Dispatch, call-frame mechanics,
// generators, overridable-operator re-entry, module import/caching, and
// error unwinding all live here.
package machine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/mna/koto/lang/compiler"
	"github.com/mna/koto/lang/types"
)

// Settings configures one Vm's execution environment (spec §6 "Settings
// { run_import_tests, execution_limit, module_imported_callback, stdin,
// stdout, stderr }").
type Settings struct {
	RunImportTests         bool
	ExecutionLimit         time.Duration
	ModuleImportedCallback func(path string)
	Stdin                  io.Reader
	Stdout                 io.Writer
	Stderr                 io.Writer
}

// Loader compiles a module's source into a runnable Chunk, keeping
// lang/machine decoupled from lang/parser/lang/resolver/lang/compiler
// wiring details (spec §4.3 "Compilation is delegated to the loader").
type Loader interface {
	Load(path string) (*compiler.Chunk, error)
}

// VmContext is the shared, by-reference state a Vm and every sibling VM it
// spawns for generators have in common (spec §5 "A VmContext ... is shared
// by reference between a VM and its spawned siblings").
type VmContext struct {
	Settings    Settings
	Predeclared map[string]types.Value
	Loader      Loader

	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader

	modules *moduleCache
}

// NewVmContext builds a VmContext ready to share between a root Vm and the
// sibling VMs spawned for its generators.
func NewVmContext(settings Settings, predeclared map[string]types.Value, loader Loader) *VmContext {
	c := &VmContext{
		Settings:    settings,
		Predeclared: predeclared,
		Loader:      loader,
		modules:     newModuleCache(),
	}
	c.stdout = settings.Stdout
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	c.stderr = settings.Stderr
	if c.stderr == nil {
		c.stderr = os.Stderr
	}
	c.stdin = settings.Stdin
	if c.stdin == nil {
		c.stdin = os.Stdin
	}
	return c
}

// Vm is one register stack + call-frame stack executing cooperatively on a
// single goroutine (spec §5 "single-threaded and cooperative"). A Vm
// spawned for a generator (see generator.go) shares its parent's *VmContext
// but owns an entirely independent set of stacks (spec §5 "The child VM
// holds a shared reference to the parent's context but not its stacks").
type Vm struct {
	Ctx *VmContext

	regs   []types.Value
	frames []*callFrame

	steps    uint64
	maxSteps uint64

	ctx       context.Context
	ctxCancel context.CancelFunc
	cancelled atomic.Bool

	// generator handshake, nil on a root Vm and set on every Vm spawned
	// to run a generator; see generator.go.
	gen *generatorState
}

// NewVm creates a root Vm against ctx. Multiple independent Vm values may
// share one *VmContext (e.g. `run_function` calls against the same loaded
// program), but each Vm owns its own register/call stacks.
func NewVm(context *VmContext) *Vm {
	return &Vm{Ctx: context}
}

func (vm *Vm) init() {
	if vm.ctx != nil {
		return
	}
	if vm.Ctx.Settings.ExecutionLimit > 0 {
		vm.ctx, vm.ctxCancel = context.WithTimeout(context.Background(), vm.Ctx.Settings.ExecutionLimit)
		go func() {
			<-vm.ctx.Done()
			vm.cancelled.Store(true)
		}()
	} else {
		vm.ctx, vm.ctxCancel = context.WithCancel(context.Background())
	}
}

// Run executes chunk's top level as a parameterless function call and
// returns its final value (spec §6 "run(chunk) -> Value").
func (vm *Vm) Run(chunk *compiler.Chunk) (types.Value, error) {
	vm.init()
	fn := &types.Function{Chunk: chunk, IP: 0, Name: chunk.SourcePath}
	return vm.call(fn, nil)
}

// CallArgs mirrors spec §6's CallArgs union for the host-facing call
// helpers: None, a single value, a slice of separate positional values, or
// a slice that should be passed to the callee as one packed Tuple.
type CallArgs struct {
	kind     callArgsKind
	single   types.Value
	separate []types.Value
}

type callArgsKind int

const (
	callArgsNone callArgsKind = iota
	callArgsSingle
	callArgsSeparate
	callArgsAsTuple
)

func NoArgs() CallArgs                    { return CallArgs{kind: callArgsNone} }
func SingleArg(v types.Value) CallArgs    { return CallArgs{kind: callArgsSingle, single: v} }
func SeparateArgs(vs []types.Value) CallArgs { return CallArgs{kind: callArgsSeparate, separate: vs} }
func TupleArg(vs []types.Value) CallArgs  { return CallArgs{kind: callArgsAsTuple, separate: vs} }

func (a CallArgs) resolve() []types.Value {
	switch a.kind {
	case callArgsSingle:
		return []types.Value{a.single}
	case callArgsSeparate:
		return a.separate
	case callArgsAsTuple:
		return []types.Value{types.NewTuple(a.separate...)}
	default:
		return nil
	}
}

// RunFunction calls callable with args, re-entering the instruction loop
// exactly as an internal Call instruction would (spec §6 "run_function").
func (vm *Vm) RunFunction(callable types.Value, args CallArgs) (types.Value, error) {
	vm.init()
	return vm.call(callable, args.resolve())
}

// RunInstanceFunction is RunFunction with instance staged into the new
// frame's reserved register 0 (spec §6 "run_instance_function", spec §4.3
// "register 0 = instance/self").
func (vm *Vm) RunInstanceFunction(instance types.Value, callable types.Value, args CallArgs) (types.Value, error) {
	vm.init()
	return vm.callWithSelf(callable, instance, args.resolve())
}

// RunUnaryOp and RunBinaryOp re-enter the VM for the listed operator,
// honoring @meta overrides exactly like the compiled Neg/Not/Add/... opcodes
// (spec §6 "run_unary_op"/"run_binary_op").
func (vm *Vm) RunUnaryOp(op compiler.Opcode, v types.Value) (types.Value, error) {
	vm.init()
	return vm.unary(op, v)
}

func (vm *Vm) RunBinaryOp(op compiler.Opcode, lhs, rhs types.Value) (types.Value, error) {
	vm.init()
	return vm.binary(op, lhs, rhs)
}

// MakeIterator wraps value in an Iterator, re-entering the VM if value
// overrides @iterator (spec §6 "make_iterator(value) -> Iterator").
func (vm *Vm) MakeIterator(value types.Value) (types.Iterator, error) {
	vm.init()
	return vm.makeIterator(value)
}

// errAbort is declared but never constructed or recovered: timeout and
// step-limit conditions are returned by checkBudget as ordinary errors.
type errAbort struct{ err error }

func (vm *Vm) checkBudget() error {
	vm.steps++
	if vm.maxSteps != 0 && vm.steps >= vm.maxSteps {
		return fmt.Errorf("thread cancelled: execution step limit reached")
	}
	if vm.cancelled.Load() {
		return fmt.Errorf("timeout: execution exceeded %s", vm.Ctx.Settings.ExecutionLimit)
	}
	return nil
}
