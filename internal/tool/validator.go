package tool

import (
	"fmt"
	"math"
	"strings"

	"github.com/harunnryd/apprentice/internal/model/contract"
)

// CheckParams compares call-site params against their declarations, by
// position. It returns an empty string when they match, otherwise a
// diagnostic meant for the model.
func CheckParams(specs []contract.ParamSpec, params []contract.ToolParam) string {
	expect := expectation(specs)

	if len(params) != len(specs) {
		return "wrong number of input parameters, " + expect
	}
	for i, spec := range specs {
		if params[i].Name != spec.Name {
			return "wrong parameter name, " + expect
		}
		if !matchesType(spec.Type, params[i].Value) {
			return "wrong parameter value type, " + expect
		}
	}
	return ""
}

func expectation(specs []contract.ParamSpec) string {
	if len(specs) == 1 {
		return fmt.Sprintf("expect 1 parameter called %q of type %s.", specs[0].Name, specs[0].Type)
	}

	parts := make([]string, 0, len(specs))
	for _, s := range specs {
		parts = append(parts, fmt.Sprintf("%q of type %s", s.Name, s.Type))
	}
	return fmt.Sprintf("expect %d parameters: %s.", len(specs), strings.Join(parts, ", "))
}

func matchesType(t contract.ParamType, value any) bool {
	switch t {
	case contract.ParamString:
		_, ok := value.(string)
		return ok
	case contract.ParamInteger:
		f, ok := value.(float64)
		return ok && f == math.Trunc(f)
	case contract.ParamNumber:
		_, ok := value.(float64)
		return ok
	case contract.ParamBoolean:
		_, ok := value.(bool)
		return ok
	default:
		return false
	}
}
