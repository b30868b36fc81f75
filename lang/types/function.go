package types

import "fmt"

// Function is a compiled Koto function literal, referencing its owning
// Chunk by an opaque handle (a *compiler.Chunk, held as interface{} so that
// lang/types does not import lang/compiler) plus the fixed metadata the
// compiler emitted with the
// Function instruction (spec §6 "Function dst, arg_count, capture_count,
// variadic, generator, arg_is_unpacked_tuple, size").
type Function struct {
	Chunk              interface{} // *compiler.Chunk
	IP                 int
	ArgCount           int
	CaptureCount       int
	Variadic           bool
	Generator          bool
	ArgIsUnpackedTuple bool
	Name               string // best-effort, for error messages/@display
}

func (*Function) Kind() Kind { return KindFunction }
func (f *Function) Display() string {
	if f.Name != "" {
		return fmt.Sprintf("|| function %s", f.Name)
	}
	return "|| function"
}

// CaptureFunction pairs a Function with the captured values filled in by
// the compiler's trailing Capture instructions (spec §6 "Capture
// function,slot,source"). Plain functions with CaptureCount==0 never need
// this wrapper and are represented by a bare *Function instead.
type CaptureFunction struct {
	Fn       *Function
	Captures []Value
}

func (*CaptureFunction) Kind() Kind { return KindCaptureFunction }
func (f *CaptureFunction) Display() string { return f.Fn.Display() }

// NativeFunction wraps a Go function exposed to Koto code, used by the core
// library and host-provided callbacks (spec §6 "Settings", "run_function").
type NativeFunction struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

func (*NativeFunction) Kind() Kind         { return KindNativeFunction }
func (f *NativeFunction) Display() string { return fmt.Sprintf("|| native function %s", f.Name) }

// Object is an opaque host-provided value (e.g. a wrapped Go struct) that
// participates in Koto expressions only via its own method table, reached
// through the core-library fallback path (spec §4.3 "Member access").
type Object struct {
	TypeName string
	Data     interface{}
}

func (*Object) Kind() Kind         { return KindObject }
func (o *Object) Display() string { return fmt.Sprintf("%s(%p)", o.TypeName, o) }
