package domain

import (
	"fmt"
	"strings"
)

// ParamKind discriminates the Param tagged union.
type ParamKind string

const (
	ParamPrimitive     ParamKind = "primitive"
	ParamReference     ParamKind = "reference"
	ParamStruct        ParamKind = "struct"
	ParamVector        ParamKind = "vector"
	ParamTypeParameter ParamKind = "type-parameter"
	ParamUnknown       ParamKind = "unknown"
)

// Param describes one parameter of a public function. Exactly the fields
// relevant to the Kind are populated:
//
//   - ParamPrimitive: Primitive holds the type name ("u64", "address", ...)
//   - ParamReference: Mutable plus Type (the referent's fully-qualified type)
//   - ParamStruct: Type ("address::module::Name") and optional TypeArgs
//   - ParamVector: Elem holds the element type
//   - ParamTypeParameter: TypeParamIndex
//
// Params are immutable after construction.
type Param struct {
	Kind           ParamKind `json:"kind"`
	Primitive      string    `json:"primitive,omitempty"`
	Mutable        bool      `json:"mutable,omitempty"`
	Type           string    `json:"type,omitempty"`
	TypeArgs       []Param   `json:"typeArgs,omitempty"`
	Elem           *Param    `json:"elem,omitempty"`
	TypeParamIndex int       `json:"typeParamIndex,omitempty"`
}

// String renders the parameter in Move surface syntax, e.g.
// "&mut 0x2::coin::Coin<0x2::sui::SUI>". Capability detection matches
// against this rendering, so it must include the full type path.
func (p Param) String() string {
	switch p.Kind {
	case ParamPrimitive:
		return p.Primitive
	case ParamReference:
		if p.Mutable {
			return "&mut " + p.Type
		}
		return "&" + p.Type
	case ParamStruct:
		if len(p.TypeArgs) == 0 {
			return p.Type
		}
		args := make([]string, len(p.TypeArgs))
		for i, a := range p.TypeArgs {
			args[i] = a.String()
		}
		return fmt.Sprintf("%s<%s>", p.Type, strings.Join(args, ", "))
	case ParamVector:
		if p.Elem == nil {
			return "vector<?>"
		}
		return fmt.Sprintf("vector<%s>", p.Elem.String())
	case ParamTypeParameter:
		return fmt.Sprintf("T%d", p.TypeParamIndex)
	default:
		return "unknown"
	}
}

// IsReference reports whether the parameter is passed by reference.
func (p Param) IsReference() bool { return p.Kind == ParamReference }

// IsMutableReference reports whether the parameter is a &mut reference.
func (p Param) IsMutableReference() bool { return p.Kind == ParamReference && p.Mutable }

// TypeName returns the short (unqualified) struct name for struct and
// reference parameters, and the empty string otherwise.
func (p Param) TypeName() string {
	if p.Type == "" {
		return ""
	}
	parts := strings.Split(p.Type, "::")
	return parts[len(parts)-1]
}

// PublicFunction is one externally callable entry point of a module.
type PublicFunction struct {
	Module string  `json:"module"`
	Name   string  `json:"name"`
	Params []Param `json:"params"`
}

// QualifiedName returns "module::name".
func (f PublicFunction) QualifiedName() string {
	return f.Module + "::" + f.Name
}
