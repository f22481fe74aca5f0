package interpreter

import (
	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/runtime"
	"github.com/ajkachnic/bliss/pkg/token"
)

// unify matches v against pat, writing bindings into the current frame.
// Guards of guarded sub-patterns are appended to guards in source order;
// the caller evaluates them once the whole pattern has been bound.
func (m *machine) unify(pat ast.Pattern, v runtime.Value, guards []ast.Expression) ([]ast.Expression, bool) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return guards, true
	case *ast.BindingPattern:
		m.env().Set(p.Name.Binding.Slot, v)
		return guards, true
	case *ast.LiteralPattern:
		return guards, runtime.Equal(literalValue(p.Literal), v)
	case *ast.AtomPattern:
		atom, ok := v.(*runtime.AtomValue)
		return guards, ok && atom == m.interp.atoms.Intern(p.Name)
	case *ast.TuplePattern:
		elems, ok := sequence(v)
		if !ok || len(elems) != len(p.Elements) {
			return guards, false
		}
		for idx, el := range p.Elements {
			if guards, ok = m.unify(el, elems[idx], guards); !ok {
				return guards, false
			}
		}
		return guards, true
	case *ast.ListPattern:
		elems, ok := sequence(v)
		if !ok || len(elems) < len(p.Elements) || (!p.HasRest && len(elems) != len(p.Elements)) {
			return guards, false
		}
		for idx, el := range p.Elements {
			if guards, ok = m.unify(el, elems[idx], guards); !ok {
				return guards, false
			}
		}
		if p.Rest != nil {
			rest := append([]runtime.Value(nil), elems[len(p.Elements):]...)
			return m.unify(p.Rest, runtime.NewList(rest...), guards)
		}
		return guards, true
	case *ast.RecordPattern:
		rec, ok := v.(*runtime.RecordValue)
		if !ok {
			return guards, false
		}
		for _, field := range p.Fields {
			fv, found := m.field(rec, field.Key)
			if !found {
				return guards, false
			}
			if guards, ok = m.unify(field.Pattern, fv, guards); !ok {
				return guards, false
			}
		}
		return guards, true
	case *ast.GuardedPattern:
		guards, ok := m.unify(p.Pattern, v, guards)
		if !ok {
			return guards, false
		}
		return append(guards, p.Guard), true
	}
	return guards, false
}

func simpleBinding(pat ast.Pattern) (int, bool) {
	if bp, ok := pat.(*ast.BindingPattern); ok {
		return bp.Name.Binding.Slot, true
	}
	return 0, false
}

func literalValue(expr ast.Expression) runtime.Value {
	switch lit := expr.(type) {
	case *ast.NumberLiteral:
		return runtime.Number(lit.Value)
	case *ast.StringLiteral:
		return runtime.String(lit.Value)
	case *ast.BooleanLiteral:
		return runtime.Bool(lit.Value)
	}
	return runtime.Null
}

func sequence(v runtime.Value) ([]runtime.Value, bool) {
	switch seq := v.(type) {
	case *runtime.TupleValue:
		return seq.Elements, true
	case *runtime.ListValue:
		return seq.Elements, true
	}
	return nil, false
}

//----------------------------------------------------------------------------
// Guards and clause selection

// guardState tracks the guards of one successful unification while they are
// evaluated one at a time. match is set while a match expression chooses a
// clause; otherwise a failing guard is a MatchError.
type guardState struct {
	guards  []ast.Expression
	next    int
	subject runtime.Value
	pos     token.Position

	match  *ast.MatchExpression
	clause int

	// body runs once every guard passed (function parameters).
	body ast.Expression
}

func (m *machine) startGuards(st *guardState) error {
	st.next = 0
	m.push(task{op: opGuard, guard: st})
	m.pushEval(st.guards[0])
	return nil
}

func (m *machine) guardResult(st *guardState, v runtime.Value) error {
	if !runtime.Truthy(v) {
		if st.match != nil {
			st.clause++
			return m.tryClauses(st)
		}
		return runtime.NewMatchError(st.pos, st.subject)
	}
	st.next++
	if st.next < len(st.guards) {
		m.push(task{op: opGuard, guard: st})
		m.pushEval(st.guards[st.next])
		return nil
	}
	switch {
	case st.match != nil:
		m.pushEval(st.match.Clauses[st.clause].Body)
	case st.body != nil:
		m.pushEval(st.body)
	}
	return nil
}

// tryClauses schedules the body of the first clause, starting at
// st.clause, whose pattern and guards accept the subject.
func (m *machine) tryClauses(st *guardState) error {
	for ; st.clause < len(st.match.Clauses); st.clause++ {
		clause := st.match.Clauses[st.clause]
		guards, ok := m.unify(clause.Pattern, st.subject, nil)
		if !ok {
			continue
		}
		if clause.Guard != nil {
			guards = append(guards, clause.Guard)
		}
		if len(guards) == 0 {
			m.pushEval(clause.Body)
			return nil
		}
		st.guards = guards
		return m.startGuards(st)
	}
	return runtime.NewMatchError(st.pos, st.subject)
}

// bind destructures v into pat for a declaration.
func (m *machine) bind(pat ast.Pattern, v runtime.Value, pos token.Position) error {
	if slot, ok := simpleBinding(pat); ok {
		m.env().Set(slot, v)
		return nil
	}
	guards, ok := m.unify(pat, v, nil)
	if !ok {
		return runtime.NewMatchError(pos, v)
	}
	if len(guards) == 0 {
		return nil
	}
	return m.startGuards(&guardState{guards: guards, subject: v, pos: pos})
}
