// Package semantics is a narrow stand-in for the external semantic
// analysis collaborator named in the lowering pass's interface contract.
// It holds no type checker and no expression evaluator: only the scope
// lookup and expression-analysis surface the control-flow pass calls
// through, exactly as much as spec'd and not one function more.
package semantics

import (
	"firlower/internal/ast"
	"firlower/internal/source"
)

// Scope is an opaque lexical scope handle returned by GlobalScope.FindScope.
type Scope struct {
	Name   string
	Parent *Scope
}

// GlobalScope answers scope lookups for a location in the program.
type GlobalScope struct {
	root *Scope
}

// NewGlobalScope returns a global scope rooted at an unnamed top scope.
func NewGlobalScope() *GlobalScope {
	return &GlobalScope{root: &Scope{Name: "<global>"}}
}

// FindScope returns the scope enclosing loc. The stub always returns the
// root scope: real scope tracking belongs to the semantic analyzer this
// package stands in for.
func (g *GlobalScope) FindScope(loc source.Location) *Scope {
	return g.root
}

// Context is the handle passed into the driver; it owns the global scope
// and the analyzer used to resolve designators into typed expressions.
type Context struct {
	Global   *GlobalScope
	Analyzer Analyzer
}

// NewContext returns a context with a fresh global scope and no analyzer;
// callers that need designator resolution set one explicitly.
func NewContext() *Context {
	return &Context{Global: NewGlobalScope()}
}

// GlobalScope returns ctx's global scope.
func (ctx *Context) GlobalScope() *GlobalScope {
	return ctx.Global
}

// Analyzer resolves a bare designator into the typed expression the
// lowering pass attaches statements and conditions to. A nil Analyzer is
// valid: ast.Designator.TypedExpr already returns itself as a fallback.
type Analyzer interface {
	Analyze(scope *Scope, d *ast.Designator) (ast.Expr, error)
}

// IdentityAnalyzer returns every designator unchanged — the default used
// by the driver's demo mode, where no real semantic analysis is wired in.
type IdentityAnalyzer struct{}

func (IdentityAnalyzer) Analyze(scope *Scope, d *ast.Designator) (ast.Expr, error) {
	return d, nil
}
