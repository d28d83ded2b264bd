package schemas

import "encoding/json"

// OptionalString distinguishes a JSON field that was absent from one that was
// explicitly set to null, which a plain *string cannot do. Set reports the
// field was present in the payload; a present field with a nil Value clears
// the column.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}
