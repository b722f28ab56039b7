package fronius

import (
	"bytes"
	"encoding/json"
)

// UnitAndValue is a single reading. Value is nil when the device did not
// report the channel.
type UnitAndValue[T any] struct {
	Unit  string `json:"Unit"`
	Value *T     `json:"Value"`
}

// UnitAndValues holds one reading per device for system scoped requests,
// keyed by the device number. A nil entry means the slot exists but the
// device did not report a value.
type UnitAndValues[T any] struct {
	Unit   string        `json:"Unit"`
	Values map[string]*T `json:"Values"`
}

type rawUnitAndValue struct {
	Unit  *string         `json:"Unit"`
	Value json.RawMessage `json:"Value"`
}

type rawUnitAndValues struct {
	Unit   *string                    `json:"Unit"`
	Values map[string]json.RawMessage `json:"Values"`
}

// UnmarshalJSON requires Unit and accepts a missing or null Value.
func (u *UnitAndValue[T]) UnmarshalJSON(b []byte) error {
	var raw rawUnitAndValue
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Unit == nil {
		return &MissingFieldError{Field: "Unit"}
	}
	u.Unit = *raw.Unit
	u.Value = nil
	if !isNull(raw.Value) {
		v := new(T)
		if err := json.Unmarshal(raw.Value, v); err != nil {
			return err
		}
		u.Value = v
	}
	return nil
}

// UnmarshalJSON requires Unit and Values, individual values may be null.
func (u *UnitAndValues[T]) UnmarshalJSON(b []byte) error {
	var raw rawUnitAndValues
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Unit == nil {
		return &MissingFieldError{Field: "Unit"}
	}
	if raw.Values == nil {
		return &MissingFieldError{Field: "Values"}
	}
	u.Unit = *raw.Unit
	u.Values = make(map[string]*T, len(raw.Values))
	for k, rv := range raw.Values {
		if isNull(rv) {
			u.Values[k] = nil
			continue
		}
		v := new(T)
		if err := json.Unmarshal(rv, v); err != nil {
			return err
		}
		u.Values[k] = v
	}
	return nil
}

// Get returns the value and whether it was reported.
func (u *UnitAndValue[T]) Get() (T, bool) {
	if u == nil || u.Value == nil {
		var zero T
		return zero, false
	}
	return *u.Value, true
}

// responseBody is the Body of every realtime and inventory endpoint.
type responseBody[T any] struct {
	Data T
}

type rawBody struct {
	Data json.RawMessage `json:"Data"`
}

func (r *responseBody[T]) UnmarshalJSON(b []byte) error {
	var raw rawBody
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if isNull(raw.Data) {
		return &MissingFieldError{Field: "Data"}
	}
	return json.Unmarshal(raw.Data, &r.Data)
}

// requireFields checks that every field is present in the JSON object b and
// is not null.
func requireFields(b []byte, fields ...string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	for _, f := range fields {
		if isNull(obj[f]) {
			return &MissingFieldError{Field: f}
		}
	}
	return nil
}

func isNull(b json.RawMessage) bool {
	return len(b) == 0 || bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
