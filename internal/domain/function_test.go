package domain_test

import (
	"testing"

	"github.com/movesec/auditor/internal/domain"
)

func TestParamString(t *testing.T) {
	cases := []struct {
		name  string
		param domain.Param
		want  string
	}{
		{
			name:  "primitive",
			param: domain.Param{Kind: domain.ParamPrimitive, Primitive: "u64"},
			want:  "u64",
		},
		{
			name:  "mutable reference",
			param: domain.Param{Kind: domain.ParamReference, Mutable: true, Type: "0x2::coin::Coin"},
			want:  "&mut 0x2::coin::Coin",
		},
		{
			name:  "immutable reference",
			param: domain.Param{Kind: domain.ParamReference, Type: "0x1::admin::AdminCap"},
			want:  "&0x1::admin::AdminCap",
		},
		{
			name: "generic struct",
			param: domain.Param{
				Kind: domain.ParamStruct,
				Type: "0x2::coin::Coin",
				TypeArgs: []domain.Param{
					{Kind: domain.ParamStruct, Type: "0x2::sui::SUI"},
				},
			},
			want: "0x2::coin::Coin<0x2::sui::SUI>",
		},
		{
			name: "vector",
			param: domain.Param{
				Kind: domain.ParamVector,
				Elem: &domain.Param{Kind: domain.ParamPrimitive, Primitive: "u8"},
			},
			want: "vector<u8>",
		},
		{
			name:  "vector without element type",
			param: domain.Param{Kind: domain.ParamVector},
			want:  "vector<?>",
		},
		{
			name:  "type parameter",
			param: domain.Param{Kind: domain.ParamTypeParameter, TypeParamIndex: 1},
			want:  "T1",
		},
		{
			name:  "unknown",
			param: domain.Param{Kind: domain.ParamUnknown},
			want:  "unknown",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.param.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParamTypeName(t *testing.T) {
	p := domain.Param{Kind: domain.ParamStruct, Type: "0x1::admin::AdminCap"}
	if got := p.TypeName(); got != "AdminCap" {
		t.Errorf("TypeName() = %q, want AdminCap", got)
	}

	empty := domain.Param{Kind: domain.ParamPrimitive, Primitive: "u64"}
	if got := empty.TypeName(); got != "" {
		t.Errorf("TypeName() on primitive = %q, want empty", got)
	}
}

func TestPublicFunctionQualifiedName(t *testing.T) {
	fn := domain.PublicFunction{Module: "vault", Name: "withdraw"}
	if got := fn.QualifiedName(); got != "vault::withdraw" {
		t.Errorf("QualifiedName() = %q, want vault::withdraw", got)
	}
}

func TestStaticFindingKey(t *testing.T) {
	a := domain.StaticFinding{PatternID: "STATIC-ADMINCAP-TRANSFER", ModuleName: "admin", FunctionName: "grant"}
	b := domain.StaticFinding{PatternID: "STATIC-ADMINCAP-TRANSFER", ModuleName: "admin", FunctionName: "grant", Severity: domain.SeverityCritical}

	if a.Key() != b.Key() {
		t.Error("key should depend only on pattern, module, and function")
	}

	c := domain.StaticFinding{PatternID: "STATIC-ADMINCAP-TRANSFER", ModuleName: "admin", FunctionName: "revoke"}
	if a.Key() == c.Key() {
		t.Error("different functions must have different keys")
	}
}
