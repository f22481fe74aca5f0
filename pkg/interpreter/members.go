package interpreter

import (
	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/runtime"
)

// field looks a record key up. A plain name falls back to the atom of the
// same name, so `r.ok` reads both `#{ok = 1}` and `#{:ok = 1}`.
func (m *machine) field(rec *runtime.RecordValue, key ast.RecordKey) (runtime.Value, bool) {
	if key.Atom {
		return rec.Get(runtime.AtomKey(m.interp.atoms.Intern(key.Name)))
	}
	if v, ok := rec.Get(runtime.StringKey(key.Name)); ok {
		return v, true
	}
	if atom, ok := m.interp.atoms.Lookup(key.Name); ok {
		return rec.Get(runtime.AtomKey(atom))
	}
	return nil, false
}

func (m *machine) member(node *ast.MemberAccess, obj runtime.Value) (runtime.Value, error) {
	pos := node.Position()
	if node.Index >= 0 {
		elems, ok := sequence(obj)
		if !ok {
			return nil, runtime.NewTypeError(pos, "tuple or list", obj)
		}
		if node.Index >= len(elems) {
			return nil, runtime.Errorf(runtime.TypeError, pos, "index %d out of range for %s of length %d", node.Index, runtime.TypeName(obj), len(elems))
		}
		return elems[node.Index], nil
	}

	switch o := obj.(type) {
	case *runtime.RecordValue:
		if v, ok := m.field(o, ast.RecordKey{Name: node.Member}); ok {
			return v, nil
		}
	case *runtime.ModuleValue:
		if v, ok := o.Export(node.Member); ok {
			return v, nil
		}
	default:
		return nil, runtime.NewTypeError(pos, "record or module", obj)
	}
	return nil, &runtime.Error{
		Kind:    runtime.TypeError,
		Pos:     pos,
		Name:    node.Member,
		Message: runtime.TypeName(obj) + " has no member '" + node.Member + "'",
	}
}
