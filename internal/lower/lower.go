// Package lower converts the typed syntax tree of one file into an ir.Module.
// Operators become calls to operator identifiers, `.` becomes member access,
// compound assignment is expanded, and anything missing becomes Poison with a
// diagnostic so later passes can keep going.
package lower

import (
	"github.com/stork-lang/stork/internal/ast"
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/parser"
	"github.com/stork-lang/stork/internal/syntax"
)

// Lowerer holds the module being built.
type Lowerer struct {
	m *ir.Module
}

// Source lexes, parses and lowers src. Diagnostics from every stage are
// stored on the returned module.
func Source(id ir.ModuleID, path, src string) *ir.Module {
	root, diags := parser.Parse(src, parser.WithFilename(path))
	m := ir.NewModule(id, path, src)
	m.Diagnostics = append(m.Diagnostics, diags...)

	l := &Lowerer{m: m}
	if r, ok := ast.CastRoot(root); ok {
		l.lowerRoot(r)
	}
	return m
}

func (l *Lowerer) lowerRoot(root ast.Root) {
	for _, item := range root.Items() {
		switch item := item.(type) {
		case ast.System:
			l.lowerSystem(item)
		case ast.Component:
			name, ty := l.lowerField(item, item.Field)
			l.m.AllocTopLevel(&ir.Component{TypedIdent: ir.TypedIdent{Name: name, Type: ty}}, spanOf(item))
		case ast.Resource:
			name, ty := l.lowerField(item, item.Field)
			l.m.AllocTopLevel(&ir.Resource{TypedIdent: ir.TypedIdent{Name: name, Type: ty}}, spanOf(item))
		case ast.Import:
			path := ""
			if tok := item.Path(); tok != nil {
				path = tok.Text()
			} else {
				l.report(item.Syntax(), diag.CodeLowerMissingNode, "`use` needs a module name")
			}
			l.m.AllocTopLevel(&ir.Import{Path: path}, spanOf(item))
		}
	}
}

func (l *Lowerer) lowerSystem(sys ast.System) {
	name := ""
	if tok := sys.Name(); tok != nil {
		name = tok.Text()
	}
	var body ir.Idx
	if block, ok := sys.Body(); ok {
		body = l.lowerExpr(block, sys.Syntax())
	} else {
		body = l.missing(sys.Syntax(), "system body")
	}
	l.m.AllocTopLevel(&ir.System{Name: name, Body: body}, spanOf(sys))
}

// lowerField lowers the `name: type` part of a component or resource.
func (l *Lowerer) lowerField(item ast.Node, field func() (ast.FieldType, bool)) (string, ir.Idx) {
	f, ok := field()
	if !ok {
		return "", l.missing(item.Syntax(), "name")
	}
	return f.Name().Text(), l.lowerFieldType(f)
}

// lowerFieldType lowers an annotation. An omitted type is an empty struct,
// which makes marker components possible.
func (l *Lowerer) lowerFieldType(f ast.FieldType) ir.Idx {
	switch t := f.Type().(type) {
	case ast.IdentType:
		return l.m.Alloc(&ir.TypeIdent{Name: t.Name().Text()}, spanOf(t))
	case ast.StructType:
		var fields []ir.TypedIdent
		for _, field := range t.Fields() {
			fields = append(fields, ir.TypedIdent{Name: field.Name().Text(), Type: l.lowerFieldType(field)})
		}
		return l.m.Alloc(&ir.StructType{Fields: fields}, spanOf(t))
	default:
		return l.m.Alloc(&ir.StructType{}, spanOf(f))
	}
}

func spanOf(n ast.Node) ir.Span {
	r := n.Syntax().TrimmedRange()
	return ir.Span{Start: r.Start, End: r.End}
}

func tokenSpan(t *syntax.Token) ir.Span {
	r := t.Range()
	return ir.Span{Start: r.Start, End: r.End}
}

func (l *Lowerer) diagSpan(r syntax.Range) diag.Span {
	return diag.SpanAt(l.m.Path, l.m.Source, r.Start, r.End)
}

func (l *Lowerer) report(at *syntax.Node, code diag.Code, msg string) {
	l.m.Diagnostics = append(l.m.Diagnostics, diag.New(diag.StageLower, code, l.diagSpan(at.TrimmedRange()), "%s", msg))
}

// missing allocates Poison for an absent child of parent.
func (l *Lowerer) missing(parent *syntax.Node, what string) ir.Idx {
	l.report(parent, diag.CodeLowerMissingNode, "missing "+what)
	r := parent.TrimmedRange()
	return l.m.Alloc(&ir.Poison{}, ir.Span{Start: r.Start, End: r.End})
}
