package resolver

import (
	"math"

	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/diagnostics"
	"github.com/ajkachnic/bliss/pkg/token"
)

// Options configures name resolution.
type Options struct {
	// Prelude lists the names always in scope, in the order of the runtime
	// prelude table.
	Prelude []string
}

// Resolve annotates prog in place: every identifier receives its Binding,
// function literals and the program receive their frame sizes, and tail
// calls are marked. The returned list holds UnboundNameError and ArityError
// diagnostics (fatal) and redeclaration warnings.
func Resolve(prog *ast.Program, opts Options) diagnostics.List {
	return NewSession(opts).Resolve(prog)
}

// Session resolves a sequence of programs against one persistent top-level
// scope, as an interactive prompt does.
type Session struct {
	prelude map[string]int
	top     *frame
	global  *scope
	seq     int
}

func NewSession(opts Options) *Session {
	prelude := make(map[string]int, len(opts.Prelude))
	for i, name := range opts.Prelude {
		prelude[name] = i
	}
	top := &frame{topLevel: true, cutoff: math.MaxInt}
	return &Session{prelude: prelude, top: top, global: newScope(nil, top)}
}

// FrameSize is the number of top-level slots allocated so far.
func (s *Session) FrameSize() int { return s.top.slots }

func (s *Session) Resolve(prog *ast.Program) diagnostics.List {
	r := &resolver{session: s}
	for _, stmt := range prog.Statements {
		r.statement(stmt, s.global, false)
	}
	s.top.drain()
	r.reportUnbound()
	prog.FrameSize = s.top.slots
	prog.Globals = make(map[string]int, len(s.global.names))
	for name := range s.global.names {
		if decl := s.global.latest(name); decl != nil {
			prog.Globals[name] = decl.slot
		}
	}
	r.diags.Sort()
	return r.diags
}

type resolver struct {
	session *Session
	diags   diagnostics.List
	unbound []unboundRef
	// open holds frames of function literals whose statement is still
	// being resolved.
	open []*frame
}

type unboundRef struct {
	ident *ast.Identifier
	scope *scope
}

// reportUnbound runs once every scope is complete, so a name that is
// declared later in an enclosing scope is reported as used too early.
func (r *resolver) reportUnbound() {
	for _, ref := range r.unbound {
		msg := "undefined name '" + ref.ident.Name + "'"
		if decl, _ := r.lookup(ref.scope, ref.ident.Name); decl != nil {
			msg = "'" + ref.ident.Name + "' used before declaration"
		}
		r.diags = append(r.diags, diagnostics.Diagnostic{
			Severity: diagnostics.SeverityError,
			Kind:     diagnostics.UnboundNameError,
			Pos:      ref.ident.Position(),
			Name:     ref.ident.Name,
			Message:  msg,
		})
	}
	r.unbound = nil
}

//----------------------------------------------------------------------------
// Declarations and lookup

func (r *resolver) declare(sc *scope, ident *ast.Identifier, kind ast.BindingKind, arity int) *declaration {
	if ident.Name != "_" && len(sc.names[ident.Name]) > 0 {
		r.diags.Warnf(diagnostics.Redeclaration, ident.Position(), "'%s' is already declared in this scope", ident.Name)
	}
	r.session.seq++
	decl := &declaration{
		name:  ident.Name,
		slot:  sc.frame.allocate(),
		kind:  kind,
		pos:   ident.Position(),
		seq:   r.session.seq,
		arity: arity,
	}
	sc.names[ident.Name] = append(sc.names[ident.Name], decl)
	ident.Binding = ast.Binding{Kind: kind, Slot: decl.slot}
	if kind != ast.Module {
		ident.Binding.Kind = ast.Local
	}
	return decl
}

func (r *resolver) declarePattern(sc *scope, pat ast.Pattern, arity int) {
	for _, ident := range ast.PatternNames(pat) {
		r.declare(sc, ident, ast.Local, arity)
	}
}

// lookup finds the declaration visible for name from sc, counting the
// function frames crossed on the way. Leaving a function body narrows the
// enclosing scopes to what was declared where the function was written.
func (r *resolver) lookup(sc *scope, name string) (*declaration, int) {
	hops := 0
	limit := math.MaxInt
	for s := sc; s != nil; s = s.parent {
		if decl := s.visible(name, limit); decl != nil {
			return decl, hops
		}
		if s.parent != nil && s.parent.frame != s.frame {
			hops++
			limit = min(limit, s.frame.cutoff)
		}
	}
	return nil, 0
}

// closeFunctions fixes the cutoff of every function literal opened since
// mark.
func (r *resolver) closeFunctions(mark int) {
	for _, fr := range r.open[mark:] {
		fr.cutoff = r.session.seq
	}
	r.open = r.open[:mark]
}

func (r *resolver) reference(sc *scope, ident *ast.Identifier) *declaration {
	decl, hops := r.lookup(sc, ident.Name)
	if decl == nil {
		if idx, ok := r.session.prelude[ident.Name]; ok {
			ident.Binding = ast.Binding{Kind: ast.Module, Slot: idx, Prelude: true}
			return nil
		}
		r.unbound = append(r.unbound, unboundRef{ident: ident, scope: sc})
		return nil
	}
	kind := decl.kind
	if kind != ast.Module {
		kind = ast.Local
		if hops > 0 {
			kind = ast.Upvalue
		}
	}
	ident.Binding = ast.Binding{Kind: kind, Depth: hops, Slot: decl.slot}
	return decl
}

//----------------------------------------------------------------------------
// Statements

func (r *resolver) statement(stmt ast.Statement, sc *scope, tail bool) {
	defer r.closeFunctions(len(r.open))
	switch s := stmt.(type) {
	case *ast.Assignment:
		r.expression(s.Value, sc, false)
		arity := -1
		if fn, ok := s.Value.(*ast.FunctionLiteral); ok {
			if _, simple := s.Target.(*ast.BindingPattern); simple {
				arity = len(fn.Params)
			}
		}
		r.declarePattern(sc, s.Target, arity)
		r.patternGuards(s.Target, sc)
	case *ast.ImportDeclaration:
		r.declare(sc, s.Name, ast.Module, -1)
	case *ast.ReturnStatement:
		if s.Argument != nil {
			r.expression(s.Argument, sc, !sc.frame.topLevel)
		}
	case ast.Expression:
		r.expression(s, sc, tail)
	}
}

//----------------------------------------------------------------------------
// Expressions

func (r *resolver) expression(expr ast.Expression, sc *scope, tail bool) {
	switch e := expr.(type) {
	case nil:
	case *ast.Identifier:
		r.reference(sc, e)
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BooleanLiteral, *ast.NullLiteral, *ast.AtomLiteral:
	case *ast.ListLiteral:
		r.expressions(e.Elements, sc)
	case *ast.TupleLiteral:
		r.expressions(e.Elements, sc)
	case *ast.RecordLiteral:
		for _, f := range e.Fields {
			r.expression(f.Value, sc, false)
		}
	case *ast.StringInterpolation:
		r.expressions(e.Parts, sc)
	case *ast.UnaryExpression:
		r.expression(e.Operand, sc, false)
	case *ast.BinaryExpression:
		r.expression(e.Left, sc, false)
		r.expression(e.Right, sc, false)
	case *ast.CallExpression:
		e.Tail = tail && !sc.frame.topLevel
		r.expression(e.Callee, sc, false)
		r.expressions(e.Arguments, sc)
		r.checkArity(sc, e.Callee, len(e.Arguments), e.Position())
	case *ast.PipelineExpression:
		e.Tail = tail && !sc.frame.topLevel
		r.expression(e.Value, sc, false)
		callee, args := e.Callee()
		r.expression(callee, sc, false)
		r.expressions(args, sc)
		r.checkArity(sc, callee, len(args)+1, e.Position())
	case *ast.MemberAccess:
		r.expression(e.Object, sc, false)
	case *ast.FunctionLiteral:
		r.function(e, sc)
	case *ast.BlockExpression:
		inner := newScope(sc, sc.frame)
		for i, stmt := range e.Body {
			r.statement(stmt, inner, tail && i == len(e.Body)-1)
		}
	case *ast.IfExpression:
		r.expression(e.Condition, sc, false)
		r.expression(e.Consequent, sc, tail)
		r.expression(e.Alternate, sc, tail)
	case *ast.MatchExpression:
		r.expression(e.Subject, sc, false)
		for _, clause := range e.Clauses {
			inner := newScope(sc, sc.frame)
			r.declarePattern(inner, clause.Pattern, -1)
			r.patternGuards(clause.Pattern, inner)
			r.expression(clause.Guard, inner, false)
			r.expression(clause.Body, inner, tail)
		}
	}
}

func (r *resolver) expressions(exprs []ast.Expression, sc *scope) {
	for _, e := range exprs {
		r.expression(e, sc, false)
	}
}

// patternGuards resolves guard expressions nested in a pattern. They run in
// the scope holding every binding of the pattern.
func (r *resolver) patternGuards(pat ast.Pattern, sc *scope) {
	switch p := pat.(type) {
	case *ast.GuardedPattern:
		r.patternGuards(p.Pattern, sc)
		r.expression(p.Guard, sc, false)
	case *ast.TuplePattern:
		for _, el := range p.Elements {
			r.patternGuards(el, sc)
		}
	case *ast.ListPattern:
		for _, el := range p.Elements {
			r.patternGuards(el, sc)
		}
	case *ast.RecordPattern:
		for _, f := range p.Fields {
			r.patternGuards(f.Pattern, sc)
		}
	}
}

// function queues the body of fn for resolution once the enclosing frame
// has declared everything, which lets functions refer to names bound later
// in the same scope.
func (r *resolver) function(fn *ast.FunctionLiteral, sc *scope) {
	fr := &frame{parent: sc.frame, cutoff: math.MaxInt}
	r.open = append(r.open, fr)
	sc.frame.deferred = append(sc.frame.deferred, func() {
		mark := len(r.open)
		body := newScope(sc, fr)
		for _, param := range fn.Params {
			r.declarePattern(body, param, -1)
		}
		for _, param := range fn.Params {
			r.patternGuards(param, body)
		}
		r.expression(fn.Body, body, true)
		r.closeFunctions(mark)
		fr.drain()
		fn.FrameSize = fr.slots
	})
}

// checkArity reports calls whose argument count cannot match a callee known
// statically: a function literal, or a name bound directly to one.
func (r *resolver) checkArity(sc *scope, callee ast.Expression, argc int, pos token.Position) {
	expected := -1
	name := ""
	switch c := callee.(type) {
	case *ast.FunctionLiteral:
		expected = len(c.Params)
		name = "function literal"
	case *ast.Identifier:
		if c.Binding.Kind == ast.Local || c.Binding.Kind == ast.Upvalue {
			if decl, _ := r.lookup(sc, c.Name); decl != nil {
				expected = decl.arity
			}
		}
		name = "'" + c.Name + "'"
	}
	if expected < 0 || expected == argc {
		return
	}
	r.diags.Errorf(diagnostics.ArityError, pos, "%s expects %d argument%s, got %d", name, expected, plural(expected), argc)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
