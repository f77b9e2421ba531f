package contract

import (
	"github.com/tidwall/gjson"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
)

// DecodeParams flattens a JSON object of tool arguments into params, keeping
// the key order the vendor emitted.
func DecodeParams(raw []byte) ([]ToolParam, error) {
	if !gjson.ValidBytes(raw) {
		return nil, apperrors.ResponseFormat("tool arguments are not valid JSON.")
	}

	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return nil, apperrors.ResponseFormat("can't enumerate arguments.")
	}

	params := make([]ToolParam, 0)
	obj.ForEach(func(key, value gjson.Result) bool {
		params = append(params, ToolParam{Name: key.String(), Value: value.Value()})
		return true
	})
	return params, nil
}
