package resolver

import (
	"fmt"

	"github.com/mna/koto/lang/ast"
)

// Scope records how a Binding relates to the function frame that uses it.
type Scope uint8

const (
	Undefined   Scope = iota // name is not defined
	Local                    // name is local to its function
	Cell                     // name is function-local but shared with a nested function
	Free                     // name is a cell captured from an enclosing function
	Predeclared              // name is provided to the module's environment (e.g. import args)
	Universal                // name is a language built-in
)

var scopeNames = [...]string{
	Undefined:   "undefined",
	Local:       "local",
	Cell:        "cell",
	Free:        "free",
	Predeclared: "predeclared",
	Universal:   "universal",
}

func (s Scope) String() string {
	if int(s) >= len(scopeNames) {
		return fmt.Sprintf("<invalid Scope %d>", s)
	}
	return scopeNames[s]
}

// Binding ties together every IdentExpr that denotes the same variable.
type Binding struct {
	Scope Scope

	// Index is the slot index into the enclosing function's Locals (if
	// Scope==Local or Cell) or FreeVars (if Scope==Free). Zero for
	// Predeclared, Universal or Undefined.
	Index int

	// Decl is the identifier whose assignment first introduced this binding.
	Decl *ast.IdentExpr
}

// Function accumulates the bindings belonging to one function body (or the
// top-level chunk, treated as a function with no parameters).
type Function struct {
	Definition ast.Node // *ast.Chunk or *ast.FuncExpr
	Locals     []*Binding
	FreeVars   []*Binding // enclosing cells to capture in the closure, in capture order
	Loops      int        // nesting depth of for/while/until/loop, for break/continue validation
}
