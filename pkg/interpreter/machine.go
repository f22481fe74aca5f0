package interpreter

import (
	"context"
	"errors"
	"strings"

	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/runtime"
	"github.com/ajkachnic/bliss/pkg/token"
)

// The machine evaluates with an explicit task stack and value stack, so the
// depth of the Go stack does not depend on how deeply programs recurse.
// Each task either produces a value on the value stack or schedules further
// tasks.

type opcode uint8

const (
	opEval opcode = iota
	opExec
	opPop
	opPushNull
	opUnary
	opBinary
	opLogical
	opCall
	opPipeline
	opMember
	opList
	opTuple
	opRecord
	opInterpolate
	opIf
	opMatch
	opGuard
	opAssign
	opReturn
	opFrameReturn
)

type task struct {
	op    opcode
	node  ast.Node
	guard *guardState
}

// callFrame is one function activation. taskBase and valueBase mark where
// the activation's work starts on the two stacks.
type callFrame struct {
	fn        *runtime.ClosureValue // nil for a program frame
	env       *runtime.Environment
	pos       token.Position
	taskBase  int
	valueBase int
}

type machine struct {
	interp *Interpreter
	ctx    context.Context
	source string

	tasks  []task
	values []runtime.Value
	frames []callFrame

	depth int
	peak  int
	steps int
}

// Cancellation is polled once per this many steps.
const cancelCheckInterval = 1024

func (i *Interpreter) newMachine(ctx context.Context, source string) *machine {
	if ctx == nil {
		ctx = context.Background()
	}
	return &machine{
		interp: i,
		ctx:    ctx,
		source: source,
		tasks:  make([]task, 0, 64),
		values: make([]runtime.Value, 0, 64),
	}
}

//----------------------------------------------------------------------------
// Stack helpers

func (m *machine) push(t task) {
	m.tasks = append(m.tasks, t)
}

func (m *machine) pushEval(expr ast.Expression) {
	m.tasks = append(m.tasks, task{op: opEval, node: expr})
}

// pushEvals schedules exprs so that they run left to right and leave their
// values on the stack in the same order.
func (m *machine) pushEvals(exprs []ast.Expression) {
	for idx := len(exprs) - 1; idx >= 0; idx-- {
		m.pushEval(exprs[idx])
	}
}

func (m *machine) pushValue(v runtime.Value) {
	m.values = append(m.values, v)
}

func (m *machine) pop() runtime.Value {
	last := len(m.values) - 1
	v := m.values[last]
	m.values[last] = nil
	m.values = m.values[:last]
	return v
}

func (m *machine) popN(n int) []runtime.Value {
	base := len(m.values) - n
	out := make([]runtime.Value, n)
	copy(out, m.values[base:])
	clear(m.values[base:])
	m.values = m.values[:base]
	return out
}

func (m *machine) env() *runtime.Environment {
	return m.frames[len(m.frames)-1].env
}

// unwindTo drops everything the current frame scheduled or produced.
func (m *machine) unwindTo(f *callFrame) {
	m.tasks = m.tasks[:f.taskBase]
	clear(m.values[f.valueBase:])
	m.values = m.values[:f.valueBase]
}

//----------------------------------------------------------------------------
// Driver

func (m *machine) runProgram(prog *ast.Program, env *runtime.Environment) (runtime.Value, error) {
	m.push(task{op: opFrameReturn})
	m.frames = append(m.frames, callFrame{env: env, taskBase: len(m.tasks), valueBase: len(m.values)})
	m.pushBlock(prog.Statements)
	if err := m.run(0); err != nil {
		return nil, err
	}
	return m.pop(), nil
}

// run executes tasks until the stack shrinks back to stop.
func (m *machine) run(stop int) error {
	for len(m.tasks) > stop {
		m.steps++
		if m.steps%cancelCheckInterval == 0 {
			if err := m.ctx.Err(); err != nil {
				return err
			}
		}
		last := len(m.tasks) - 1
		t := m.tasks[last]
		m.tasks[last] = task{}
		m.tasks = m.tasks[:last]
		if err := m.step(t); err != nil {
			return m.fail(err)
		}
	}
	return nil
}

// fail stamps the program name and the active calls onto a runtime error.
func (m *machine) fail(err error) error {
	var rerr *runtime.Error
	if !errors.As(err, &rerr) {
		return err
	}
	if rerr.Source == "" {
		rerr.Source = m.source
	}
	if rerr.Trace == nil {
		for idx := len(m.frames) - 1; idx >= 0; idx-- {
			f := m.frames[idx]
			if f.fn == nil {
				continue
			}
			rerr.Trace = append(rerr.Trace, runtime.TraceEntry{Function: f.fn.Name(), Pos: f.pos})
		}
	}
	return err
}

func (m *machine) step(t task) error {
	switch t.op {
	case opEval:
		return m.eval(t.node.(ast.Expression))
	case opExec:
		return m.exec(t.node.(ast.Statement))
	case opPop:
		m.pop()
	case opPushNull:
		m.pushValue(runtime.Null)
	case opUnary:
		node := t.node.(*ast.UnaryExpression)
		v, err := unary(node.Operator, m.pop(), node.Position())
		if err != nil {
			return err
		}
		m.pushValue(v)
	case opBinary:
		node := t.node.(*ast.BinaryExpression)
		right := m.pop()
		left := m.pop()
		v, err := binary(node.Operator, left, right, node.Position())
		if err != nil {
			return err
		}
		m.pushValue(v)
	case opLogical:
		node := t.node.(*ast.BinaryExpression)
		left := m.pop()
		if runtime.Truthy(left) == (node.Operator == "||") {
			m.pushValue(left)
			return nil
		}
		m.pushEval(node.Right)
	case opCall:
		node := t.node.(*ast.CallExpression)
		vals := m.popN(len(node.Arguments) + 1)
		return m.apply(vals[0], vals[1:], node.Position(), node.Tail)
	case opPipeline:
		node := t.node.(*ast.PipelineExpression)
		_, explicit := node.Callee()
		vals := m.popN(len(explicit) + 2)
		args := make([]runtime.Value, 0, len(explicit)+1)
		args = append(args, vals[0])
		args = append(args, vals[2:]...)
		return m.apply(vals[1], args, node.Position(), node.Tail)
	case opMember:
		node := t.node.(*ast.MemberAccess)
		v, err := m.member(node, m.pop())
		if err != nil {
			return err
		}
		m.pushValue(v)
	case opList:
		node := t.node.(*ast.ListLiteral)
		m.pushValue(runtime.NewList(m.popN(len(node.Elements))...))
	case opTuple:
		node := t.node.(*ast.TupleLiteral)
		m.pushValue(runtime.NewTuple(m.popN(len(node.Elements))...))
	case opRecord:
		node := t.node.(*ast.RecordLiteral)
		vals := m.popN(len(node.Fields))
		b := runtime.NewRecordBuilder(len(node.Fields))
		for idx, field := range node.Fields {
			b.Set(m.recordKey(field.Key), vals[idx])
		}
		m.pushValue(b.Build())
	case opInterpolate:
		node := t.node.(*ast.StringInterpolation)
		var sb strings.Builder
		for _, part := range m.popN(len(node.Parts)) {
			sb.WriteString(runtime.ToString(part))
		}
		m.pushValue(runtime.String(sb.String()))
	case opIf:
		node := t.node.(*ast.IfExpression)
		switch {
		case runtime.Truthy(m.pop()):
			m.pushEval(node.Consequent)
		case node.Alternate != nil:
			m.pushEval(node.Alternate)
		default:
			m.pushValue(runtime.Null)
		}
	case opMatch:
		node := t.node.(*ast.MatchExpression)
		return m.tryClauses(&guardState{match: node, subject: m.pop(), pos: node.Position()})
	case opGuard:
		return m.guardResult(t.guard, m.pop())
	case opAssign:
		node := t.node.(*ast.Assignment)
		return m.bind(node.Target, m.pop(), node.Position())
	case opReturn:
		v := m.pop()
		m.unwindTo(&m.frames[len(m.frames)-1])
		m.pushValue(v)
	case opFrameReturn:
		last := len(m.frames) - 1
		f := m.frames[last]
		m.frames[last] = callFrame{}
		m.frames = m.frames[:last]
		if f.fn != nil {
			m.depth--
			m.interp.heap.Release(f.env)
		}
	}
	return nil
}

//----------------------------------------------------------------------------
// Expressions and statements

func (m *machine) eval(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.Identifier:
		v, err := m.lookup(e)
		if err != nil {
			return err
		}
		m.pushValue(v)
	case *ast.NumberLiteral:
		m.pushValue(runtime.Number(e.Value))
	case *ast.StringLiteral:
		m.pushValue(runtime.String(e.Value))
	case *ast.BooleanLiteral:
		m.pushValue(runtime.Bool(e.Value))
	case *ast.NullLiteral:
		m.pushValue(runtime.Null)
	case *ast.AtomLiteral:
		m.pushValue(m.interp.atoms.Intern(e.Name))
	case *ast.ListLiteral:
		m.push(task{op: opList, node: e})
		m.pushEvals(e.Elements)
	case *ast.TupleLiteral:
		m.push(task{op: opTuple, node: e})
		m.pushEvals(e.Elements)
	case *ast.RecordLiteral:
		m.push(task{op: opRecord, node: e})
		for idx := len(e.Fields) - 1; idx >= 0; idx-- {
			m.pushEval(e.Fields[idx].Value)
		}
	case *ast.StringInterpolation:
		m.push(task{op: opInterpolate, node: e})
		m.pushEvals(e.Parts)
	case *ast.UnaryExpression:
		m.push(task{op: opUnary, node: e})
		m.pushEval(e.Operand)
	case *ast.BinaryExpression:
		if e.Operator == "&&" || e.Operator == "||" {
			m.push(task{op: opLogical, node: e})
			m.pushEval(e.Left)
			return nil
		}
		m.push(task{op: opBinary, node: e})
		m.pushEval(e.Right)
		m.pushEval(e.Left)
	case *ast.CallExpression:
		m.push(task{op: opCall, node: e})
		m.pushEvals(e.Arguments)
		m.pushEval(e.Callee)
	case *ast.PipelineExpression:
		callee, args := e.Callee()
		m.push(task{op: opPipeline, node: e})
		m.pushEvals(args)
		m.pushEval(callee)
		m.pushEval(e.Value)
	case *ast.MemberAccess:
		m.push(task{op: opMember, node: e})
		m.pushEval(e.Object)
	case *ast.FunctionLiteral:
		env := m.env()
		env.Capture()
		m.pushValue(&runtime.ClosureValue{Function: e, Env: env})
	case *ast.BlockExpression:
		m.pushBlock(e.Body)
	case *ast.IfExpression:
		m.push(task{op: opIf, node: e})
		m.pushEval(e.Condition)
	case *ast.MatchExpression:
		m.push(task{op: opMatch, node: e})
		m.pushEval(e.Subject)
	default:
		return runtime.Errorf(runtime.TypeError, expr.Position(), "cannot evaluate %s", expr.NodeType())
	}
	return nil
}

// pushBlock schedules a statement list whose value is that of its last
// statement, or null when the list is empty or ends in a declaration.
func (m *machine) pushBlock(stmts []ast.Statement) {
	if len(stmts) == 0 {
		m.pushValue(runtime.Null)
		return
	}
	for idx := len(stmts) - 1; idx >= 0; idx-- {
		last := idx == len(stmts)-1
		if expr, ok := stmts[idx].(ast.Expression); ok {
			if !last {
				m.push(task{op: opPop})
			}
			m.pushEval(expr)
			continue
		}
		if last {
			m.push(task{op: opPushNull})
		}
		m.push(task{op: opExec, node: stmts[idx]})
	}
}

func (m *machine) exec(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Assignment:
		m.push(task{op: opAssign, node: s})
		m.pushEval(s.Value)
	case *ast.ImportDeclaration:
		mod, err := m.interp.registry.Import(m.ctx, s.Path, m.source)
		if err != nil {
			return runtime.AsError(err, s.Position())
		}
		m.env().Set(s.Name.Binding.Slot, mod)
	case *ast.ReturnStatement:
		m.push(task{op: opReturn, node: s})
		if s.Argument != nil {
			m.pushEval(s.Argument)
		} else {
			m.pushValue(runtime.Null)
		}
	default:
		return runtime.Errorf(runtime.TypeError, stmt.Position(), "cannot execute %s", stmt.NodeType())
	}
	return nil
}

func (m *machine) lookup(ident *ast.Identifier) (runtime.Value, error) {
	b := ident.Binding
	var v runtime.Value
	switch {
	case b.Prelude:
		v = m.interp.prelude[b.Slot]
	case b.Kind == ast.Local:
		v = m.env().Get(b.Slot)
	case b.Kind == ast.Upvalue, b.Kind == ast.Module:
		if env := m.env().Ancestor(b.Depth); env != nil {
			v = env.Get(b.Slot)
		}
	}
	if v == nil {
		return nil, &runtime.Error{
			Kind:    runtime.UnboundNameError,
			Pos:     ident.Position(),
			Name:    ident.Name,
			Message: "'" + ident.Name + "' has no value yet",
		}
	}
	return v, nil
}

func (m *machine) recordKey(key ast.RecordKey) runtime.RecordKey {
	if key.Atom {
		return runtime.AtomKey(m.interp.atoms.Intern(key.Name))
	}
	return runtime.StringKey(key.Name)
}
