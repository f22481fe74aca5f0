package ast

import "github.com/ajkachnic/bliss/pkg/token"

type NodeType string

const (
	NodeProgram             NodeType = "Program"
	NodeIdentifier          NodeType = "Identifier"
	NodeNumberLiteral       NodeType = "NumberLiteral"
	NodeStringLiteral       NodeType = "StringLiteral"
	NodeBooleanLiteral      NodeType = "BooleanLiteral"
	NodeNullLiteral         NodeType = "NullLiteral"
	NodeAtomLiteral         NodeType = "AtomLiteral"
	NodeListLiteral         NodeType = "ListLiteral"
	NodeTupleLiteral        NodeType = "TupleLiteral"
	NodeRecordLiteral       NodeType = "RecordLiteral"
	NodeRecordField         NodeType = "RecordField"
	NodeUnaryExpression     NodeType = "UnaryExpression"
	NodeBinaryExpression    NodeType = "BinaryExpression"
	NodeCallExpression      NodeType = "CallExpression"
	NodePipeline            NodeType = "PipelineExpression"
	NodeMemberAccess        NodeType = "MemberAccess"
	NodeFunctionLiteral     NodeType = "FunctionLiteral"
	NodeBlockExpression     NodeType = "BlockExpression"
	NodeIfExpression        NodeType = "IfExpression"
	NodeMatchExpression     NodeType = "MatchExpression"
	NodeMatchClause         NodeType = "MatchClause"
	NodeStringInterpolation NodeType = "StringInterpolation"
	NodeAssignment          NodeType = "Assignment"
	NodeImportDeclaration   NodeType = "ImportDeclaration"
	NodeReturnStatement     NodeType = "ReturnStatement"
	NodeWildcardPattern     NodeType = "WildcardPattern"
	NodeLiteralPattern      NodeType = "LiteralPattern"
	NodeAtomPattern         NodeType = "AtomPattern"
	NodeBindingPattern      NodeType = "BindingPattern"
	NodeTuplePattern        NodeType = "TuplePattern"
	NodeListPattern         NodeType = "ListPattern"
	NodeRecordPattern       NodeType = "RecordPattern"
	NodeRecordPatternField  NodeType = "RecordPatternField"
	NodeGuardedPattern      NodeType = "GuardedPattern"
)

type Node interface {
	NodeType() NodeType
	Position() token.Position
	setPosition(token.Position)
	isNode()
}

type nodeImpl struct {
	Type NodeType       `json:"type"`
	Pos  token.Position `json:"pos"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType              { return n.Type }
func (n nodeImpl) Position() token.Position        { return n.Pos }
func (n *nodeImpl) setPosition(pos token.Position) { n.Pos = pos }
func (nodeImpl) isNode()                           {}

// At stamps a source position on a freshly built node.
func At[T Node](pos token.Position, node T) T {
	node.setPosition(pos)
	return node
}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
	statementNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

type Pattern interface {
	Node
	patternNode()
}

type patternMarker struct{}

func (patternMarker) patternNode() {}

//----------------------------------------------------------------------------
// Bindings

// BindingKind says where a resolved name lives at runtime.
type BindingKind int

const (
	Unresolved BindingKind = iota
	// Local slots live in the current function frame.
	Local
	// Upvalue slots live Depth frames outward along the closure chain.
	Upvalue
	// Module bindings hold an imported module or a prelude export.
	Module
)

func (k BindingKind) String() string {
	switch k {
	case Local:
		return "local"
	case Upvalue:
		return "upvalue"
	case Module:
		return "module"
	}
	return "unresolved"
}

// Binding is the storage location the resolver assigned to an identifier.
// For prelude exports Prelude is set and Slot indexes the prelude table.
type Binding struct {
	Kind    BindingKind `json:"kind"`
	Depth   int         `json:"depth"`
	Slot    int         `json:"slot"`
	Prelude bool        `json:"prelude,omitempty"`
}

//----------------------------------------------------------------------------
// Program

// Program is the root of a parsed source file. FrameSize and Globals are
// filled in by the resolver.
type Program struct {
	nodeImpl

	Name       string      `json:"name"`
	Statements []Statement `json:"statements"`
	FrameSize  int         `json:"frameSize"`
	// Globals maps each top-level name to the slot of its latest declaration.
	Globals map[string]int `json:"globals,omitempty"`
}

func NewProgram(name string, statements []Statement) *Program {
	return &Program{nodeImpl: newNodeImpl(NodeProgram), Name: name, Statements: statements}
}

//----------------------------------------------------------------------------
// Literals

type Identifier struct {
	nodeImpl
	expressionMarker
	statementMarker

	Name    string  `json:"name"`
	Binding Binding `json:"binding"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

type NumberLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value float64 `json:"value"`
}

func NewNumberLiteral(value float64) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNodeImpl(NodeNumberLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

type BooleanLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

type NullLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
}

func NewNullLiteral() *NullLiteral {
	return &NullLiteral{nodeImpl: newNodeImpl(NodeNullLiteral)}
}

type AtomLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Name string `json:"name"`
}

func NewAtomLiteral(name string) *AtomLiteral {
	return &AtomLiteral{nodeImpl: newNodeImpl(NodeAtomLiteral), Name: name}
}

type ListLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Elements []Expression `json:"elements"`
}

func NewListLiteral(elements []Expression) *ListLiteral {
	return &ListLiteral{nodeImpl: newNodeImpl(NodeListLiteral), Elements: elements}
}

type TupleLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Elements []Expression `json:"elements"`
}

func NewTupleLiteral(elements []Expression) *TupleLiteral {
	return &TupleLiteral{nodeImpl: newNodeImpl(NodeTupleLiteral), Elements: elements}
}

// RecordKey names a record field. Atom keys are written `:name`; every other
// key form is a string key.
type RecordKey struct {
	Name string `json:"name"`
	Atom bool   `json:"atom,omitempty"`
}

type RecordField struct {
	nodeImpl

	Key   RecordKey  `json:"key"`
	Value Expression `json:"value"`
}

func NewRecordField(key RecordKey, value Expression) *RecordField {
	return &RecordField{nodeImpl: newNodeImpl(NodeRecordField), Key: key, Value: value}
}

type RecordLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Fields []*RecordField `json:"fields"`
}

func NewRecordLiteral(fields []*RecordField) *RecordLiteral {
	return &RecordLiteral{nodeImpl: newNodeImpl(NodeRecordLiteral), Fields: fields}
}

type StringInterpolation struct {
	nodeImpl
	expressionMarker
	statementMarker

	// Parts alternate between *StringLiteral segments and embedded expressions.
	Parts []Expression `json:"parts"`
}

func NewStringInterpolation(parts []Expression) *StringInterpolation {
	return &StringInterpolation{nodeImpl: newNodeImpl(NodeStringInterpolation), Parts: parts}
}

//----------------------------------------------------------------------------
// Operators and calls

type UnaryExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"`
	Operand  Expression `json:"operand"`
}

func NewUnaryExpression(operator string, operand Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Operand: operand}
}

// BinaryExpression covers arithmetic, comparison, range and the
// short-circuiting `&&`/`||` operators.
type BinaryExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryExpression(operator string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

type CallExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Callee    Expression   `json:"callee"`
	Arguments []Expression `json:"arguments"`
	// Tail is set by the resolver when the call is in tail position.
	Tail bool `json:"tail,omitempty"`
}

func NewCallExpression(callee Expression, args []Expression) *CallExpression {
	return &CallExpression{nodeImpl: newNodeImpl(NodeCallExpression), Callee: callee, Arguments: args}
}

// PipelineExpression is `value |> target`. When Target is a call the value is
// prepended to its arguments, otherwise Target is called with the value.
type PipelineExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value  Expression `json:"value"`
	Target Expression `json:"target"`
	Tail   bool       `json:"tail,omitempty"`
}

func NewPipelineExpression(value, target Expression) *PipelineExpression {
	return &PipelineExpression{nodeImpl: newNodeImpl(NodePipeline), Value: value, Target: target}
}

// Callee returns the function expression and explicit arguments the pipeline
// applies to its value.
func (p *PipelineExpression) Callee() (Expression, []Expression) {
	if call, ok := p.Target.(*CallExpression); ok {
		return call.Callee, call.Arguments
	}
	return p.Target, nil
}

type MemberAccess struct {
	nodeImpl
	expressionMarker
	statementMarker

	Object Expression `json:"object"`
	Member string     `json:"member"`
	// Index is the position for numeric access like `pair.0`, or -1.
	Index int `json:"index"`
}

func NewMemberAccess(object Expression, member string) *MemberAccess {
	return &MemberAccess{nodeImpl: newNodeImpl(NodeMemberAccess), Object: object, Member: member, Index: -1}
}

func NewIndexAccess(object Expression, index int) *MemberAccess {
	return &MemberAccess{nodeImpl: newNodeImpl(NodeMemberAccess), Object: object, Index: index}
}

//----------------------------------------------------------------------------
// Functions, blocks and control flow

type FunctionLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Params []Pattern  `json:"params"`
	Body   Expression `json:"body"`
	// Name is the binding the literal was assigned to, for diagnostics.
	Name      string `json:"name,omitempty"`
	FrameSize int    `json:"frameSize"`
}

func NewFunctionLiteral(params []Pattern, body Expression) *FunctionLiteral {
	return &FunctionLiteral{nodeImpl: newNodeImpl(NodeFunctionLiteral), Params: params, Body: body}
}

type BlockExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Body []Statement `json:"body"`
}

func NewBlockExpression(body []Statement) *BlockExpression {
	return &BlockExpression{nodeImpl: newNodeImpl(NodeBlockExpression), Body: body}
}

type IfExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Condition  Expression `json:"condition"`
	Consequent Expression `json:"consequent"`
	Alternate  Expression `json:"alternate,omitempty"`
}

func NewIfExpression(condition, consequent, alternate Expression) *IfExpression {
	return &IfExpression{nodeImpl: newNodeImpl(NodeIfExpression), Condition: condition, Consequent: consequent, Alternate: alternate}
}

type MatchClause struct {
	nodeImpl

	Pattern Pattern    `json:"pattern"`
	Guard   Expression `json:"guard,omitempty"`
	Body    Expression `json:"body"`
}

func NewMatchClause(pattern Pattern, body Expression, guard Expression) *MatchClause {
	return &MatchClause{nodeImpl: newNodeImpl(NodeMatchClause), Pattern: pattern, Guard: guard, Body: body}
}

type MatchExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Subject Expression     `json:"subject"`
	Clauses []*MatchClause `json:"clauses"`
}

func NewMatchExpression(subject Expression, clauses []*MatchClause) *MatchExpression {
	return &MatchExpression{nodeImpl: newNodeImpl(NodeMatchExpression), Subject: subject, Clauses: clauses}
}

//----------------------------------------------------------------------------
// Statements

// Assignment declares the names bound by Target in the current scope.
// Let records whether the `let` keyword was written.
type Assignment struct {
	nodeImpl
	statementMarker

	Target Pattern    `json:"target"`
	Value  Expression `json:"value"`
	Let    bool       `json:"let,omitempty"`
}

func NewAssignment(target Pattern, value Expression, let bool) *Assignment {
	return &Assignment{nodeImpl: newNodeImpl(NodeAssignment), Target: target, Value: value, Let: let}
}

type ImportDeclaration struct {
	nodeImpl
	statementMarker

	Name *Identifier `json:"name"`
	Path string      `json:"path"`
}

func NewImportDeclaration(name *Identifier, path string) *ImportDeclaration {
	return &ImportDeclaration{nodeImpl: newNodeImpl(NodeImportDeclaration), Name: name, Path: path}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Argument Expression `json:"argument,omitempty"`
}

func NewReturnStatement(argument Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: argument}
}
