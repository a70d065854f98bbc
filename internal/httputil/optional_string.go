package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString tells an absent JSON field apart from an explicit null,
// which *string cannot:
//   - Present=false: field absent (leave as is)
//   - Present=true, Value=nil: field is null (clear)
//   - Present=true, Value=&s: field is set
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only called for fields present in the input
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Patch returns the value to apply: nil when absent, "" when cleared
func (o OptionalString) Patch() *string {
	if !o.Present {
		return nil
	}
	if o.Value == nil {
		empty := ""
		return &empty
	}
	return o.Value
}
