package state

import (
	"encoding/json"

	"github.com/forgetree/forge"
)

// encodeValue serializes a SchemaValue to JSON text for storage, going
// through its plain-Go-value form so the wire format is ordinary JSON
// rather than a SchemaValue-specific encoding.
func encodeValue(v forge.SchemaValue) (string, error) {
	b, err := json.Marshal(v.AsGo())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeValue parses JSON text back into a SchemaValue.
func decodeValue(raw string) (forge.SchemaValue, error) {
	var native any
	if err := json.Unmarshal([]byte(raw), &native); err != nil {
		return forge.Null, err
	}
	return forge.FromGo(native), nil
}
