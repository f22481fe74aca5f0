package ast

type WildcardPattern struct {
	nodeImpl
	patternMarker
}

func NewWildcardPattern() *WildcardPattern {
	return &WildcardPattern{nodeImpl: newNodeImpl(NodeWildcardPattern)}
}

// LiteralPattern matches a number, string, boolean or null literal by equality.
type LiteralPattern struct {
	nodeImpl
	patternMarker

	Literal Expression `json:"literal"`
}

func NewLiteralPattern(literal Expression) *LiteralPattern {
	return &LiteralPattern{nodeImpl: newNodeImpl(NodeLiteralPattern), Literal: literal}
}

type AtomPattern struct {
	nodeImpl
	patternMarker

	Name string `json:"name"`
}

func NewAtomPattern(name string) *AtomPattern {
	return &AtomPattern{nodeImpl: newNodeImpl(NodeAtomPattern), Name: name}
}

// BindingPattern always matches and binds the subject to Name.
type BindingPattern struct {
	nodeImpl
	patternMarker

	Name *Identifier `json:"name"`
}

func NewBindingPattern(name *Identifier) *BindingPattern {
	return &BindingPattern{nodeImpl: newNodeImpl(NodeBindingPattern), Name: name}
}

type TuplePattern struct {
	nodeImpl
	patternMarker

	Elements []Pattern `json:"elements"`
}

func NewTuplePattern(elements []Pattern) *TuplePattern {
	return &TuplePattern{nodeImpl: newNodeImpl(NodeTuplePattern), Elements: elements}
}

// ListPattern matches a fixed prefix and, when HasRest is set, binds the
// remaining elements to Rest (a binding or wildcard pattern).
type ListPattern struct {
	nodeImpl
	patternMarker

	Elements []Pattern `json:"elements"`
	Rest     Pattern   `json:"rest,omitempty"`
	HasRest  bool      `json:"hasRest,omitempty"`
}

func NewListPattern(elements []Pattern, rest Pattern) *ListPattern {
	return &ListPattern{nodeImpl: newNodeImpl(NodeListPattern), Elements: elements, Rest: rest, HasRest: rest != nil}
}

type RecordPatternField struct {
	nodeImpl

	Key     RecordKey `json:"key"`
	Pattern Pattern   `json:"pattern"`
}

func NewRecordPatternField(key RecordKey, pattern Pattern) *RecordPatternField {
	return &RecordPatternField{nodeImpl: newNodeImpl(NodeRecordPatternField), Key: key, Pattern: pattern}
}

// RecordPattern matches records holding every listed key; extra keys are ignored.
type RecordPattern struct {
	nodeImpl
	patternMarker

	Fields []*RecordPatternField `json:"fields"`
}

func NewRecordPattern(fields []*RecordPatternField) *RecordPattern {
	return &RecordPattern{nodeImpl: newNodeImpl(NodeRecordPattern), Fields: fields}
}

// GuardedPattern matches when Pattern matches and Guard is truthy in the
// scope extended with the bindings of Pattern.
type GuardedPattern struct {
	nodeImpl
	patternMarker

	Pattern Pattern    `json:"pattern"`
	Guard   Expression `json:"guard"`
}

func NewGuardedPattern(pattern Pattern, guard Expression) *GuardedPattern {
	return &GuardedPattern{nodeImpl: newNodeImpl(NodeGuardedPattern), Pattern: pattern, Guard: guard}
}

// PatternNames lists the identifiers a pattern binds, in source order.
func PatternNames(p Pattern) []*Identifier {
	var out []*Identifier
	var walk func(Pattern)
	walk = func(p Pattern) {
		switch pat := p.(type) {
		case *BindingPattern:
			out = append(out, pat.Name)
		case *TuplePattern:
			for _, el := range pat.Elements {
				walk(el)
			}
		case *ListPattern:
			for _, el := range pat.Elements {
				walk(el)
			}
			if pat.Rest != nil {
				walk(pat.Rest)
			}
		case *RecordPattern:
			for _, f := range pat.Fields {
				walk(f.Pattern)
			}
		case *GuardedPattern:
			walk(pat.Pattern)
		}
	}
	walk(p)
	return out
}
