package machine

import (
	"fmt"

	"github.com/mna/koto/lang/compiler"
	"github.com/mna/koto/lang/types"
)

// genResult is one message from a generator's sibling goroutine back to
// whatever is driving its Iterator (spec §5 "generator functions... a
// sibling VM sharing context, handed values over a channel").
type genResult struct {
	value types.Value
	done  bool
	err   error
}

// generatorIterator adapts a suspended sibling Vm to the Iterator
// interface. Each Next() hands the sibling a resume signal and blocks for
// its next Yield (or completion/error); the sibling's own goroutine blocks
// on the same rendezvous between yields, so exactly one side runs at a
// time (spec §5 "single-threaded and cooperative" extends across the
// parent/sibling pair).
type generatorIterator struct {
	toGen   chan struct{}
	fromGen chan genResult
	done    bool
	started bool

	// spawn recreates an equivalent, not-yet-started sibling; used both for
	// the first run and for Clone before any value has been pulled.
	spawn func() *generatorIterator
}

func (*generatorIterator) Kind() types.Kind  { return types.KindIterator }
func (*generatorIterator) Display() string { return "|| generator" }

func (g *generatorIterator) Next() (types.Value, bool, error) {
	if g.done {
		return nil, false, nil
	}
	g.started = true
	g.toGen <- struct{}{}
	res := <-g.fromGen
	if res.err != nil {
		g.done = true
		return nil, false, res.err
	}
	if res.done {
		g.done = true
		return nil, false, nil
	}
	return res.value, true, nil
}

// Clone restarts an independent copy of the generator from its beginning
// if it has not yet produced a value, matching the common case of cloning
// an iterator before iteration begins. A generator cloned mid-iteration
// cannot be supported: its suspended execution lives entirely on a Go
// goroutine's call stack, which this VM's Go-native-recursion dispatch
// design (chosen over an explicit, snapshot-able frame stack) has no way
// to snapshot and replay (spec §5's "clones its child VM's stacks" assumes
// an explicitly represented stack; a known, documented limitation here).
func (g *generatorIterator) Clone() (types.Iterator, error) {
	if g.started {
		return nil, fmt.Errorf("cannot clone a generator iterator once iteration has begun")
	}
	return g.spawn(), nil
}

// startGenerator spawns the sibling Vm/goroutine backing a generator
// function call. The goroutine blocks immediately, waiting for the first
// Next() before executing any bytecode (spec §5 "lazily").
func (vm *Vm) startGenerator(fn *types.Function, chunk *compiler.Chunk, captures []types.Value, self types.Value, args []types.Value) (types.Value, error) {
	var spawn func() *generatorIterator
	spawn = func() *generatorIterator {
		g := &generatorIterator{
			toGen:   make(chan struct{}),
			fromGen: make(chan genResult),
			spawn:   spawn,
		}

		child := &Vm{Ctx: vm.Ctx}
		child.gen = &generatorState{toGen: g.toGen, fromGen: g.fromGen}
		child.init()

		child.ensureRegs(1)
		child.regs[0] = self
		fr := &callFrame{chunk: chunk, ip: fn.IP, captures: captures, fnName: fn.Name}
		child.stageArgs(fr, fn, args)

		go func() {
			if _, ok := <-g.toGen; !ok {
				return
			}
			_, err := child.runFrame(fr)
			if err != nil {
				g.fromGen <- genResult{err: err, done: true}
				return
			}
			g.fromGen <- genResult{done: true}
		}()

		return g
	}
	return spawn(), nil
}

// generatorState is the handshake a generator-frame's Yield opcode uses to
// hand a value to its consumer and block until resumed; nil on every Vm
// except the sibling spawned by startGenerator.
type generatorState struct {
	toGen   chan struct{}
	fromGen chan genResult
}

// doYield implements Yield: it hands v to the waiting consumer and blocks
// until the next Next() call resumes this goroutine.
func (vm *Vm) doYield(v types.Value) error {
	if vm.gen == nil {
		return fmt.Errorf("yield used outside of a generator function")
	}
	vm.gen.fromGen <- genResult{value: v}
	if _, ok := <-vm.gen.toGen; !ok {
		return fmt.Errorf("generator abandoned by its consumer")
	}
	return nil
}
