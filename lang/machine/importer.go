package machine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mna/koto/lang/compiler"
	"github.com/mna/koto/lang/types"
)

// moduleEntry tracks one module's load state: in-flight (to detect import
// cycles), or resolved to its export Map/error (spec §4.3 "Module import").
type moduleEntry struct {
	loading bool
	value   types.Value
	err     error
}

// moduleCache memoizes resolved modules by dotted path, shared across a
// VmContext's root Vm and any sibling VMs it spawns for generators.
type moduleCache struct {
	mu      sync.Mutex
	modules map[string]*moduleEntry
}

func newModuleCache() *moduleCache {
	return &moduleCache{modules: make(map[string]*moduleEntry)}
}

// importModule resolves path (already joined with '.'), inserting a
// recursion sentinel before compiling/running a newly seen module so a
// cyclic import is reported instead of recursing forever.
func (vm *Vm) importModule(path string) (types.Value, error) {
	mc := vm.Ctx.modules

	mc.mu.Lock()
	if e, ok := mc.modules[path]; ok {
		mc.mu.Unlock()
		if e.loading {
			return nil, fmt.Errorf("import cycle detected while loading %q", path)
		}
		return e.value, e.err
	}
	e := &moduleEntry{loading: true}
	mc.modules[path] = e
	mc.mu.Unlock()

	value, err := vm.loadModule(path)

	mc.mu.Lock()
	e.loading = false
	e.value, e.err = value, err
	mc.mu.Unlock()

	if err == nil && vm.Ctx.Settings.ModuleImportedCallback != nil {
		vm.Ctx.Settings.ModuleImportedCallback(path)
	}
	return value, err
}

func (vm *Vm) loadModule(path string) (types.Value, error) {
	if vm.Ctx.Loader == nil {
		return nil, fmt.Errorf("cannot import %q: no module loader configured", path)
	}
	chunk, err := vm.Ctx.Loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("cannot import %q: %w", path, err)
	}
	exports, err := vm.runModuleChunk(chunk)
	if err != nil {
		return nil, err
	}
	if vm.Ctx.Settings.RunImportTests {
		if err := vm.runModuleTests(exports); err != nil {
			return nil, err
		}
	}
	return exports, nil
}

// runModuleChunk executes chunk's top level as a module body (rather than
// as a value-producing function like Run does) and returns its export table
// — the Map built up by ValueExport/MetaExport[Named] instructions along
// the way (spec §6 "Import dst... leaving its export table's root
// identifier accessible in dst as a Map").
func (vm *Vm) runModuleChunk(chunk *compiler.Chunk) (*types.Map, error) {
	base := len(vm.regs)
	vm.ensureRegs(base + 1)
	vm.regs[base] = types.Null{}

	fr := &callFrame{chunk: chunk, ip: 0, base: base, fnName: chunk.SourcePath}
	_, err := vm.runFrame(fr)
	vm.regs = vm.regs[:base]
	if err != nil {
		return nil, err
	}
	return fr.exportsMap(), nil
}

// runModuleTests invokes a freshly imported module's @pre_test/@tests/
// @post_test hooks, if declared, per Settings.RunImportTests (spec §4.3
// "run_import_tests"). Every entry of @tests is run and each failure is
// reported individually; any failure fails the import and skips @post_test.
func (vm *Vm) runModuleTests(exports *types.Map) error {
	if exports.Meta == nil {
		return nil
	}
	if pre, ok := exports.Meta.Get(types.MetaKey{Kind: types.MetaPreTest}); ok {
		if _, err := vm.call(pre, nil); err != nil {
			return fmt.Errorf("@pre_test failed: %w", err)
		}
	}
	if tests, ok := exports.Meta.Get(types.MetaKey{Kind: types.MetaTests}); ok {
		if tm, ok := tests.(*types.Map); ok {
			var failed []string
			tm.Each(func(k, v types.Value) bool {
				if _, err := vm.call(v, nil); err != nil {
					failed = append(failed, fmt.Sprintf("%s: %v", k.Display(), err))
				}
				return true
			})
			if len(failed) > 0 {
				return fmt.Errorf("%d test(s) failed:\n%s", len(failed), strings.Join(failed, "\n"))
			}
		}
	}
	if post, ok := exports.Meta.Get(types.MetaKey{Kind: types.MetaPostTest}); ok {
		if _, err := vm.call(post, nil); err != nil {
			return fmt.Errorf("@post_test failed: %w", err)
		}
	}
	return nil
}
