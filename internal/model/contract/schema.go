package contract

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Schema is a JSON object that marshals its keys in insertion order.
type Schema = *orderedmap.OrderedMap[string, any]

// BuildSchema turns tool parameters into an object schema. Property order and
// the required list follow declaration order. Strict schemas reject unknown
// properties, which OpenAI and Anthropic require for strict tool use.
func BuildSchema(params []ParamSpec, strict bool) Schema {
	properties := orderedmap.New[string, any](orderedmap.WithCapacity[string, any](len(params)))
	required := make([]string, 0, len(params))

	for _, p := range params {
		prop := orderedmap.New[string, any]()
		prop.Set("type", p.Type.String())
		prop.Set("description", p.Description)
		properties.Set(p.Name, prop)

		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := orderedmap.New[string, any]()
	schema.Set("type", "object")
	schema.Set("properties", properties)
	schema.Set("required", required)
	if strict {
		schema.Set("additionalProperties", false)
	}
	return schema
}
