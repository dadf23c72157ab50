// Package gosrc builds an IR module from the type information of a Go
// package, so the weaver can be run against real APIs.
//
// Every exported named type becomes a module type. Its methods are the
// methods of the pointer method set declared on the type itself; promoted
// methods are reached through the base-type link to the embedded type.
// Bodies are not imported: methods are implemented by the host.
package gosrc

import (
	"fmt"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/licshee/dutiful/ir"
)

// TypeSystem returns the type system of imported Go modules.
func TypeSystem() ir.TypeSystem {
	return ir.TypeSystem{
		Object: ir.TypeRef{Name: "any"},
		Void:   ir.TypeRef{Name: "void"},
	}
}

// Import loads a Go package by import path and returns it as a module. The
// include filter, if non-nil, restricts which exported type names are
// imported.
func Import(importPath string, include map[string]bool) (*ir.Module, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax,
	}

	pkgs, err := packages.Load(cfg, importPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", importPath, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for %s", importPath)
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkgs[0].Errors)
	}

	pkg := pkgs[0]
	if pkg.Types == nil {
		return nil, fmt.Errorf("type information not available for %s", importPath)
	}
	return FromTypes(pkg.Types, include), nil
}

// importer carries the state of one package conversion.
type importer struct {
	pkg   *types.Package
	mod   *ir.Module
	named map[*types.TypeName]*ir.Type
}

// FromTypes converts a type-checked package.
func FromTypes(pkg *types.Package, include map[string]bool) *ir.Module {
	mod := ir.NewModule(pkg.Path())
	mod.TypeSystem = TypeSystem()

	imp := &importer{
		pkg:   pkg,
		mod:   mod,
		named: make(map[*types.TypeName]*ir.Type),
	}

	scope := pkg.Scope()
	enums := imp.enumTypes(scope)

	var order []*types.Named
	for _, name := range scope.Names() {
		if include != nil && !include[name] {
			continue
		}
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !tn.Exported() || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}

		t := ir.NewType(pkg.Path(), tn.Name(), category(named, enums[tn]))
		mod.AddType(t)
		imp.named[tn] = t
		order = append(order, named)
	}

	for _, named := range order {
		imp.addMethods(named)
	}
	for _, named := range order {
		imp.linkEmbedded(named)
	}
	return mod
}

// category classifies a named type.
func category(named *types.Named, hasConstants bool) ir.Category {
	switch u := named.Underlying().(type) {
	case *types.Struct:
		return ir.CategoryStruct
	case *types.Interface:
		return ir.CategoryInterface
	case *types.Basic:
		if hasConstants && u.Info()&types.IsInteger != 0 {
			return ir.CategoryEnum
		}
	}
	return ir.CategoryClass
}

// enumTypes returns the named types that have package-level constants.
func (imp *importer) enumTypes(scope *types.Scope) map[*types.TypeName]bool {
	enums := make(map[*types.TypeName]bool)
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if !ok {
			continue
		}
		if named, ok := c.Type().(*types.Named); ok && named.Obj().Pkg() == imp.pkg {
			enums[named.Obj()] = true
		}
	}
	return enums
}

func (imp *importer) addMethods(named *types.Named) {
	t := imp.named[named.Obj()]

	if iface, ok := named.Underlying().(*types.Interface); ok {
		for i := 0; i < iface.NumExplicitMethods(); i++ {
			fn := iface.ExplicitMethod(i)
			m := imp.method(fn)
			m.Attributes |= ir.AttrAbstract | ir.AttrNewSlot
			imp.mod.AddMethod(t, m)
		}
		return
	}

	// Collect pointer-receiver methods
	mset := types.NewMethodSet(types.NewPointer(named))
	for i := 0; i < mset.Len(); i++ {
		sel := mset.At(i)
		fn, ok := sel.Obj().(*types.Func)
		if !ok {
			continue
		}
		// Only include methods directly defined on this type (not promoted)
		if len(sel.Index()) > 1 {
			continue
		}
		imp.mod.AddMethod(t, imp.method(fn))
	}
}

// method converts a function with a receiver.
func (imp *importer) method(fn *types.Func) *ir.Method {
	sig := fn.Type().(*types.Signature)

	attrs := ir.AttrAssembly
	if fn.Exported() {
		attrs = ir.AttrPublic
	}
	attrs |= ir.AttrHideBySig | ir.AttrVirtual

	params := sig.Params()
	var ps []*ir.Parameter
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		name := p.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		ps = append(ps, &ir.Parameter{Name: name, Type: imp.typeRef(p.Type())})
	}
	if sig.Variadic() && len(ps) > 0 {
		last := ps[len(ps)-1]
		last.Type = ir.TypeRef{Name: "..." + types.TypeString(params.At(params.Len()-1).Type().(*types.Slice).Elem(), imp.qualifier)}
	}

	return ir.NewMethod(fn.Name(), attrs, imp.returnType(sig.Results()), ps...)
}

// returnType maps a result list: none is void, one is that type, several
// form a tuple.
func (imp *importer) returnType(results *types.Tuple) ir.TypeRef {
	switch results.Len() {
	case 0:
		return imp.mod.TypeSystem.Void
	case 1:
		return imp.typeRef(results.At(0).Type())
	}
	parts := make([]string, results.Len())
	for i := 0; i < results.Len(); i++ {
		parts[i] = types.TypeString(results.At(i).Type(), imp.qualifier)
	}
	return ir.TypeRef{Name: "(" + strings.Join(parts, ", ") + ")"}
}

// typeRef maps a Go type. Named types and pointers to named types refer to
// the named type; module types have reference semantics in the IR.
func (imp *importer) typeRef(t types.Type) ir.TypeRef {
	t = types.Unalias(t)
	if ptr, ok := t.(*types.Pointer); ok {
		if named, ok := ptr.Elem().(*types.Named); ok {
			t = named
		}
	}
	if named, ok := t.(*types.Named); ok && named.TypeArgs().Len() == 0 {
		obj := named.Obj()
		if obj.Pkg() == nil {
			return ir.TypeRef{Name: obj.Name()}
		}
		return ir.TypeRef{Namespace: obj.Pkg().Path(), Name: obj.Name()}
	}
	return ir.TypeRef{Name: types.TypeString(t, imp.qualifier)}
}

func (imp *importer) qualifier(other *types.Package) string {
	return other.Path()
}

// linkEmbedded sets the base type of a struct to its first embedded module
// type and links methods the struct redeclares to the embedded methods they
// shadow.
func (imp *importer) linkEmbedded(named *types.Named) {
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return
	}
	t := imp.named[named.Obj()]

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}
		ft := types.Unalias(f.Type())
		if ptr, ok := ft.(*types.Pointer); ok {
			ft = ptr.Elem()
		}
		en, ok := ft.(*types.Named)
		if !ok {
			continue
		}
		base := imp.named[en.Obj()]
		if base == nil || base.IsInterface() {
			continue
		}
		if t.BaseType == ir.NoType {
			t.BaseType = base.ID
		}
		for _, m := range imp.mod.MethodsOf(t) {
			if m.BaseMethod != ir.NoMethod {
				continue
			}
			if shadowed := imp.mod.FindMethod(base, m.Name); shadowed != nil {
				m.BaseMethod = shadowed.ID
			}
		}
	}
}
