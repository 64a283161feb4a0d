package sui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/movesec/auditor/internal/domain"
)

// normalizedModule mirrors the slice of SuiMoveNormalizedModule we consume.
type normalizedModule struct {
	Name             string                        `json:"name"`
	ExposedFunctions map[string]normalizedFunction `json:"exposedFunctions"`
}

type normalizedFunction struct {
	Visibility string            `json:"visibility"`
	IsEntry    bool              `json:"isEntry"`
	Parameters []json.RawMessage `json:"parameters"`
}

// normalizeFunctions converts the fullnode's normalized module map into the
// flat PublicFunction list the analysis core consumes. Only public-visibility
// functions survive, and the trailing TxContext parameter every entry point
// carries is dropped since it says nothing about the function's surface.
// Output is sorted by module then name so downstream analysis is
// order-independent of the RPC reply.
func normalizeFunctions(modules map[string]normalizedModule) []domain.PublicFunction {
	var functions []domain.PublicFunction
	for moduleName, module := range modules {
		for fnName, fn := range module.ExposedFunctions {
			if !strings.EqualFold(fn.Visibility, "Public") {
				continue
			}
			params := normalizeParams(fn.Parameters)
			functions = append(functions, domain.PublicFunction{
				Module: moduleName,
				Name:   fnName,
				Params: params,
			})
		}
	}

	sort.Slice(functions, func(i, j int) bool {
		if functions[i].Module != functions[j].Module {
			return functions[i].Module < functions[j].Module
		}
		return functions[i].Name < functions[j].Name
	})
	return functions
}

func normalizeParams(raw []json.RawMessage) []domain.Param {
	params := make([]domain.Param, 0, len(raw))
	for _, r := range raw {
		p := normalizeType(r)
		if isTxContext(p) {
			continue
		}
		params = append(params, p)
	}
	return params
}

// normalizeType maps one SuiMoveNormalizedType into the Param union. The
// wire shape is either a bare string ("U64", "Address") or a single-key
// object naming the variant.
func normalizeType(raw json.RawMessage) domain.Param {
	var primitive string
	if err := json.Unmarshal(raw, &primitive); err == nil {
		return domain.Param{Kind: domain.ParamPrimitive, Primitive: strings.ToLower(primitive)}
	}

	var variant map[string]json.RawMessage
	if err := json.Unmarshal(raw, &variant); err != nil {
		return domain.Param{Kind: domain.ParamUnknown}
	}

	if inner, ok := variant["Reference"]; ok {
		referent := normalizeType(inner)
		return domain.Param{Kind: domain.ParamReference, Type: referent.String()}
	}
	if inner, ok := variant["MutableReference"]; ok {
		referent := normalizeType(inner)
		return domain.Param{Kind: domain.ParamReference, Mutable: true, Type: referent.String()}
	}
	if inner, ok := variant["Vector"]; ok {
		elem := normalizeType(inner)
		return domain.Param{Kind: domain.ParamVector, Elem: &elem}
	}
	if inner, ok := variant["TypeParameter"]; ok {
		var index int
		if err := json.Unmarshal(inner, &index); err == nil {
			return domain.Param{Kind: domain.ParamTypeParameter, TypeParamIndex: index}
		}
		return domain.Param{Kind: domain.ParamUnknown}
	}
	if inner, ok := variant["Struct"]; ok {
		return normalizeStruct(inner)
	}

	return domain.Param{Kind: domain.ParamUnknown}
}

func normalizeStruct(raw json.RawMessage) domain.Param {
	var s struct {
		Address       string            `json:"address"`
		Module        string            `json:"module"`
		Name          string            `json:"name"`
		TypeArguments []json.RawMessage `json:"typeArguments"`
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Param{Kind: domain.ParamUnknown}
	}

	param := domain.Param{
		Kind: domain.ParamStruct,
		Type: fmt.Sprintf("%s::%s::%s", s.Address, s.Module, s.Name),
	}
	for _, arg := range s.TypeArguments {
		param.TypeArgs = append(param.TypeArgs, normalizeType(arg))
	}
	return param
}

func isTxContext(p domain.Param) bool {
	typeName := p.Type
	if p.Kind != domain.ParamStruct && p.Kind != domain.ParamReference {
		return false
	}
	return strings.HasSuffix(typeName, "::tx_context::TxContext")
}
