package compiler

import "github.com/mna/koto/lang/token"

// Chunk is the immutable output of compiling one source file (spec §3
// "Bytecode chunk"). Nested function bodies are not separate chunks: their
// code lives inline in Bytes, entered only via a Call that jumps to the
// IP recorded on the Function value created by the enclosing Function
// instruction (spec §6 "Function ... size").
type Chunk struct {
	SourcePath string
	Bytes      []byte
	Constants  []interface{} // string | int64 | float64, positionally aligned with ast.ConstantPool
	Debug      []DebugEntry
}

// DebugEntry maps a contiguous instruction-pointer range to the source span
// that produced it, used for error messages and the `debug` expression
// (spec §3 "debug_info").
type DebugEntry struct {
	StartIP, EndIP int
	Pos            token.Position
}

// PosForIP returns the source position of the first (innermost) entry
// whose range contains ip, or the zero Position if none does.
func (c *Chunk) PosForIP(ip int) token.Position {
	for _, d := range c.Debug {
		if ip >= d.StartIP && ip < d.EndIP {
			return d.Pos
		}
	}
	return token.Position{}
}
