// Much of the resolver package is adapted from the Starlark source code:
// https://github.com/google/starlark-go/tree/ee8ed142361c69d52fe8e9fb5e311d2a0a7c02de
//
// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolver walks a parsed chunk and resolves every identifier to a
// Binding, turning locals that are read from a nested function into cells
// and recording, on each function literal, the set of outer names it
// captures (spec "Capture analysis": assigned-in-frame vs
// accessed-non-local, propagated to the enclosing frame).
//
// There is no concept of global variables: a name not found in any
// enclosing block is either predeclared (supplied to the chunk's
// environment), universal (a language built-in) or undefined (an error).
package resolver

import (
	"context"
	"fmt"

	"github.com/mna/koto/lang/ast"
	"github.com/mna/koto/lang/scanner"
	"github.com/mna/koto/lang/token"
)

// ResolveFiles resolves the identifiers used in each parsed chunk, enriching
// the AST with binding information and filling in each FuncExpr's
// LocalCount and AccessedNonLocals fields.
//
// The returned error, if non-nil, is a scanner.ErrorList.
func ResolveFiles(ctx context.Context, fset *token.FileSet, chunks []*ast.Chunk,
	isPredeclared, isUniversal func(name string) bool) error {
	if len(chunks) == 0 {
		return nil
	}

	var r resolver
	r.isPredeclared = isPredeclared
	if isPredeclared == nil {
		r.isPredeclared = func(string) bool { return false }
	}
	r.isUniversal = isUniversal
	if isUniversal == nil {
		r.isUniversal = func(string) bool { return false }
	}

	for _, ch := range chunks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.file = fset.File(ch.Name)
		if r.file == nil {
			if files := fset.Files(); len(files) > 0 {
				r.file = files[0]
			}
		}
		r.env = nil
		r.globals = make(map[string]*Binding)

		blk := &block{fn: &Function{Definition: ch}}
		r.push(blk)
		r.stmts(ch.Block)
		r.pop()
	}
	r.errors.Sort()
	return r.errors.Err()
}

// block is one lexical scope: a function body, a loop body, a branch of a
// conditional, or a synthetic scope introduced to hold loop/pattern
// variables.
type block struct {
	parent   *block
	fn       *Function // the innermost enclosing function; shared by nested blocks
	bindings map[string]*Binding
}

type resolver struct {
	file   *token.File
	errors scanner.ErrorList

	env *block

	// globals caches the bindings of predeclared/universal names so repeated
	// references share one Binding.
	globals map[string]*Binding

	isPredeclared, isUniversal func(name string) bool
}

func (r *resolver) push(b *block) {
	if r.env != nil && b.fn == nil {
		b.fn = r.env.fn
	}
	b.parent = r.env
	b.bindings = make(map[string]*Binding)
	r.env = b
}

func (r *resolver) pop() { r.env = r.env.parent }

func (r *resolver) errorf(p token.Pos, format string, args ...interface{}) {
	pos := token.Position{Line: 1}
	if r.file != nil {
		pos = r.file.Position(p)
	}
	r.errors.Add(pos, fmt.Sprintf(format, args...))
}

func (r *resolver) stmts(b *ast.Block) {
	for _, n := range b.Nodes {
		r.node(n)
	}
}

// block resolves a nested block in a fresh scope belonging to the same
// function as the current one.
func (r *resolver) block(b *ast.Block) {
	r.push(&block{})
	r.stmts(b)
	r.pop()
}

func (r *resolver) node(n ast.Node) {
	switch n := n.(type) {
	case *ast.LiteralExpr, *ast.ContinueExpr:
		// nothing to resolve

	case *ast.IdentExpr:
		r.use(n)

	case *ast.WildcardExpr, *ast.EllipsisExpr, *ast.MetaExpr:
		// standalone occurrences (e.g. `_` as an expression) need no resolution

	case *ast.ArrayLikeExpr:
		for _, it := range n.Items {
			r.node(it)
		}

	case *ast.MapExpr:
		for _, it := range n.Items {
			if id, ok := it.Key.Kind.(*ast.IdentExpr); ok {
				r.use(id)
			}
			r.node(it.Value)
		}

	case *ast.RangeExpr:
		if n.Start != nil {
			r.node(n.Start)
		}
		if n.End != nil {
			r.node(n.End)
		}

	case *ast.BinOpExpr:
		r.node(n.Left)
		r.node(n.Right)

	case *ast.UnaryOpExpr:
		r.node(n.Right)

	case *ast.LookupExpr:
		r.node(n.Root)
		for _, step := range n.Chain {
			switch {
			case step.Str != nil:
				r.node(step.Str)
			case step.Index != nil:
				r.node(step.Index)
			case step.Call != nil:
				for _, a := range step.Call.Args {
					r.node(a)
				}
			}
		}

	case *ast.IfExpr:
		r.node(n.Cond)
		if n.Then != nil {
			r.block(n.Then)
		}
		if n.ElseIf != nil {
			r.node(n.ElseIf)
		}
		if n.Else != nil {
			r.block(n.Else)
		}

	case *ast.MatchExpr:
		r.node(n.Value)
		for _, arm := range n.Arms {
			r.push(&block{})
			for _, p := range arm.Patterns {
				r.pattern(p)
			}
			if arm.Guard != nil {
				r.node(arm.Guard)
			}
			r.stmts(arm.Body)
			r.pop()
		}

	case *ast.SwitchExpr:
		for _, arm := range n.Arms {
			if arm.Cond != nil {
				r.node(arm.Cond)
			}
			r.block(arm.Body)
		}

	case *ast.ForExpr:
		r.node(n.Iterable)
		r.push(&block{})
		for _, v := range n.Vars {
			r.pattern(v)
		}
		r.env.fn.Loops++
		r.stmts(n.Body)
		r.env.fn.Loops--
		r.pop()

	case *ast.WhileExpr:
		r.node(n.Cond)
		r.push(&block{})
		r.env.fn.Loops++
		r.stmts(n.Body)
		r.env.fn.Loops--
		r.pop()

	case *ast.UntilExpr:
		r.node(n.Cond)
		r.push(&block{})
		r.env.fn.Loops++
		r.stmts(n.Body)
		r.env.fn.Loops--
		r.pop()

	case *ast.LoopExpr:
		r.push(&block{})
		r.env.fn.Loops++
		r.stmts(n.Body)
		r.env.fn.Loops--
		r.pop()

	case *ast.BreakExpr:
		if r.env.fn.Loops == 0 {
			r.errorf(n.Start, "break outside of a loop")
		}
		if n.Value != nil {
			r.node(n.Value)
		}

	case *ast.ReturnExpr:
		if n.Value != nil {
			r.node(n.Value)
		}

	case *ast.YieldExpr:
		r.node(n.Value)

	case *ast.ThrowExpr:
		r.node(n.Value)

	case *ast.TryExpr:
		r.block(n.Body)
		if n.CatchVar != nil {
			r.push(&block{})
			r.bind(n.CatchVar)
			r.stmts(n.CatchBody)
			r.pop()
		}
		if n.Finally != nil {
			r.block(n.Finally)
		}

	case *ast.AssignExpr:
		for _, v := range n.Values {
			r.node(v)
		}
		for _, t := range n.Targets {
			r.assignTarget(t)
		}

	case *ast.FuncExpr:
		r.function(n)

	case *ast.ImportExpr:
		name := n.Path[0].Name
		if n.Alias != nil {
			name = n.Alias.Name
		}
		n.Binding = r.bindName(name, n.Path[0].Start)

	case *ast.FromImportExpr:
		for _, it := range n.Items {
			name := it.Name.Name
			if it.Alias != nil {
				name = it.Alias.Name
			}
			it.Binding = r.bindName(name, it.Name.Start)
		}

	case *ast.ExportExpr:
		r.node(n.Value)
		if id, ok := n.Target.(*ast.IdentExpr); ok {
			r.assignTarget(id)
		}

	case *ast.DebugExpr:
		r.node(n.Expr)

	case *ast.Block:
		r.block(n)

	default:
		panic(fmt.Sprintf("resolver: unexpected node %T", n))
	}
}

// assignTarget resolves the LHS of an assignment: an existing binding is
// reused (a plain re-assignment), otherwise a new local is created (Koto has
// no explicit `let`; the first assignment to a name in a block declares it).
func (r *resolver) assignTarget(n ast.Node) {
	switch n := n.(type) {
	case *ast.IdentExpr:
		if _, ok := r.lookup(n.Name); ok {
			r.use(n)
			return
		}
		r.bind(n)
	case *ast.WildcardExpr:
		// assigning to `_` discards the value, nothing to bind
	case *ast.MetaExpr:
		// meta keys are resolved at compile time against the enclosing map/object
	case *ast.LookupExpr:
		r.node(n)
	default:
		panic(fmt.Sprintf("resolver: invalid assignment target %T", n))
	}
}

// pattern resolves a for-loop variable, function parameter, or match-arm
// pattern: bare identifiers introduce new bindings (capture semantics),
// wildcards are ignored, and nested tuples/lists recurse.
func (r *resolver) pattern(n ast.Node) {
	switch n := n.(type) {
	case *ast.IdentExpr:
		r.bind(n)
	case *ast.WildcardExpr:
		// ignored
	case *ast.EllipsisExpr:
		if n.Name != "" {
			r.bindName(n.Name, n.Start)
		}
	case *ast.ArrayLikeExpr:
		for _, it := range n.Items {
			r.pattern(it)
		}
	case *ast.RangeExpr:
		if n.Start != nil {
			r.node(n.Start)
		}
		if n.End != nil {
			r.node(n.End)
		}
	case *ast.LiteralExpr:
		// matched by value, nothing to bind
	default:
		panic(fmt.Sprintf("resolver: invalid pattern %T", n))
	}
}

func (r *resolver) function(fn *ast.FuncExpr) {
	blk := &block{fn: &Function{Definition: fn}}
	r.push(blk)
	for _, p := range fn.Params {
		switch {
		case p.Ident != nil:
			r.bind(p.Ident)
		case p.Wildcard != nil:
			// ignored
		case p.Tuple != nil:
			r.pattern(p.Tuple)
		}
	}
	r.stmts(fn.Body)
	r.pop()

	fn.LocalCount = len(blk.fn.Locals)
	names := make([]string, len(blk.fn.FreeVars))
	for i, fv := range blk.fn.FreeVars {
		names[i] = fv.Decl.Name
	}
	fn.AccessedNonLocals = names
}

// lookup searches the current block chain, including the blocks of
// enclosing functions, for name, without mutating any binding.
func (r *resolver) lookup(name string) (*Binding, bool) {
	for env := r.env; env != nil; env = env.parent {
		if bdg, ok := env.bindings[name]; ok {
			return bdg, true
		}
	}
	return nil, false
}

func (r *resolver) bind(ident *ast.IdentExpr) {
	if _, ok := r.env.bindings[ident.Name]; ok {
		r.errorf(ident.Start, "already declared in this block: %s", ident.Name)
		return
	}
	bdg := &Binding{Scope: Local, Decl: ident}
	bdg.Index = len(r.env.fn.Locals)
	r.env.fn.Locals = append(r.env.fn.Locals, bdg)
	r.env.bindings[ident.Name] = bdg
	ident.Binding = bdg
}

// bindName is like bind but for synthetic identifiers (import aliases,
// named ellipsis captures) that don't already have an *ast.IdentExpr node.
func (r *resolver) bindName(name string, pos token.Pos) *Binding {
	synthetic := &ast.IdentExpr{Start: pos, Name: name}
	r.bind(synthetic)
	return synthetic.Binding.(*Binding)
}

// use resolves a read of ident, promoting a Local found in an enclosing
// function's block into a Cell and adding a Free binding to every frame
// between the use site and the declaring function.
func (r *resolver) use(ident *ast.IdentExpr) {
	startFn := r.env.fn
	for env := r.env; env != nil; env = env.parent {
		bdg, ok := env.bindings[ident.Name]
		if !ok {
			continue
		}
		if env.fn != startFn {
			if bdg.Scope == Local {
				bdg.Scope = Cell
			}
			ix := len(r.env.fn.FreeVars)
			r.env.fn.FreeVars = append(r.env.fn.FreeVars, bdg)
			bdg = &Binding{Decl: bdg.Decl, Scope: Free, Index: ix}
			r.env.bindings[ident.Name] = bdg
		}
		ident.Binding = bdg
		return
	}

	if r.isPredeclared(ident.Name) {
		ident.Binding = r.global(ident.Name, Predeclared)
		return
	}
	if r.isUniversal(ident.Name) {
		ident.Binding = r.global(ident.Name, Universal)
		return
	}

	r.errorf(ident.Start, "undefined: %s", ident.Name)
	ident.Binding = &Binding{Scope: Undefined}
}

func (r *resolver) global(name string, scope Scope) *Binding {
	if bdg, ok := r.globals[name]; ok {
		return bdg
	}
	bdg := &Binding{Scope: scope}
	r.globals[name] = bdg
	return bdg
}
