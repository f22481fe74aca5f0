package ast

import (
	"strconv"
	"strings"
)

// Describe renders a node as a compact, fully parenthesized string. It is
// meant for tests and debugging output, not for round-tripping source.
func Describe(node Node) string {
	var sb strings.Builder
	describe(&sb, node)
	return sb.String()
}

func describe(sb *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Program:
		for i, stmt := range n.Statements {
			if i > 0 {
				sb.WriteString("; ")
			}
			describe(sb, stmt)
		}
	case *Identifier:
		sb.WriteString(n.Name)
	case *NumberLiteral:
		sb.WriteString(strconv.FormatFloat(n.Value, 'f', -1, 64))
	case *StringLiteral:
		sb.WriteString(strconv.Quote(n.Value))
	case *BooleanLiteral:
		sb.WriteString(strconv.FormatBool(n.Value))
	case *NullLiteral:
		sb.WriteString("null")
	case *AtomLiteral:
		sb.WriteString(":" + n.Name)
	case *ListLiteral:
		sb.WriteString("#[")
		describeList(sb, n.Elements)
		sb.WriteString("]")
	case *TupleLiteral:
		sb.WriteString("[")
		describeList(sb, n.Elements)
		sb.WriteString("]")
	case *RecordLiteral:
		sb.WriteString("#{")
		for i, f := range n.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(describeKey(f.Key))
			sb.WriteString(" = ")
			describe(sb, f.Value)
		}
		sb.WriteString("}")
	case *StringInterpolation:
		sb.WriteString("(str")
		for _, part := range n.Parts {
			sb.WriteString(" ")
			describe(sb, part)
		}
		sb.WriteString(")")
	case *UnaryExpression:
		sb.WriteString("(" + n.Operator)
		describe(sb, n.Operand)
		sb.WriteString(")")
	case *BinaryExpression:
		sb.WriteString("(")
		describe(sb, n.Left)
		sb.WriteString(" " + n.Operator + " ")
		describe(sb, n.Right)
		sb.WriteString(")")
	case *CallExpression:
		describe(sb, n.Callee)
		sb.WriteString("(")
		describeList(sb, n.Arguments)
		sb.WriteString(")")
	case *PipelineExpression:
		sb.WriteString("(")
		describe(sb, n.Value)
		sb.WriteString(" |> ")
		describe(sb, n.Target)
		sb.WriteString(")")
	case *MemberAccess:
		describe(sb, n.Object)
		if n.Index >= 0 {
			sb.WriteString("." + strconv.Itoa(n.Index))
		} else {
			sb.WriteString("." + n.Member)
		}
	case *FunctionLiteral:
		sb.WriteString("(fn (")
		for i, p := range n.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			describe(sb, p)
		}
		sb.WriteString(") -> ")
		describe(sb, n.Body)
		sb.WriteString(")")
	case *BlockExpression:
		sb.WriteString("{")
		for i, stmt := range n.Body {
			if i > 0 {
				sb.WriteString(";")
			}
			sb.WriteString(" ")
			describe(sb, stmt)
		}
		sb.WriteString(" }")
	case *IfExpression:
		sb.WriteString("(if ")
		describe(sb, n.Condition)
		sb.WriteString(" ")
		describe(sb, n.Consequent)
		if n.Alternate != nil {
			sb.WriteString(" else ")
			describe(sb, n.Alternate)
		}
		sb.WriteString(")")
	case *MatchExpression:
		sb.WriteString("(")
		describe(sb, n.Subject)
		sb.WriteString(" :: {")
		for i, c := range n.Clauses {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(" ")
			describe(sb, c)
		}
		sb.WriteString(" })")
	case *MatchClause:
		describe(sb, n.Pattern)
		if n.Guard != nil {
			sb.WriteString(" if ")
			describe(sb, n.Guard)
		}
		sb.WriteString(" -> ")
		describe(sb, n.Body)
	case *Assignment:
		if n.Let {
			sb.WriteString("let ")
		}
		describe(sb, n.Target)
		sb.WriteString(" = ")
		describe(sb, n.Value)
	case *ImportDeclaration:
		sb.WriteString("import " + n.Name.Name + " from " + strconv.Quote(n.Path))
	case *ReturnStatement:
		sb.WriteString("return")
		if n.Argument != nil {
			sb.WriteString(" ")
			describe(sb, n.Argument)
		}
	case *WildcardPattern:
		sb.WriteString("_")
	case *LiteralPattern:
		describe(sb, n.Literal)
	case *AtomPattern:
		sb.WriteString(":" + n.Name)
	case *BindingPattern:
		sb.WriteString(n.Name.Name)
	case *TuplePattern:
		sb.WriteString("[")
		describePatterns(sb, n.Elements)
		sb.WriteString("]")
	case *ListPattern:
		sb.WriteString("#[")
		describePatterns(sb, n.Elements)
		if n.HasRest {
			if len(n.Elements) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("..")
			describe(sb, n.Rest)
		}
		sb.WriteString("]")
	case *RecordPattern:
		sb.WriteString("#{")
		for i, f := range n.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(describeKey(f.Key))
			sb.WriteString(" = ")
			describe(sb, f.Pattern)
		}
		sb.WriteString("}")
	case *GuardedPattern:
		sb.WriteString("(")
		describe(sb, n.Pattern)
		sb.WriteString(" if ")
		describe(sb, n.Guard)
		sb.WriteString(")")
	default:
		sb.WriteString("<" + string(node.NodeType()) + ">")
	}
}

func describeList(sb *strings.Builder, exprs []Expression) {
	for i, e := range exprs {
		if i > 0 {
			sb.WriteString(", ")
		}
		describe(sb, e)
	}
}

func describePatterns(sb *strings.Builder, pats []Pattern) {
	for i, p := range pats {
		if i > 0 {
			sb.WriteString(", ")
		}
		describe(sb, p)
	}
}

func describeKey(key RecordKey) string {
	if key.Atom {
		return ":" + key.Name
	}
	return key.Name
}
