package progression

import (
	"encoding/json"
	"fmt"
)

// FlagKind discriminates the two value shapes a flag can hold.
type FlagKind string

const (
	FlagBool   FlagKind = "bool"
	FlagNumber FlagKind = "number"
)

// FlagValue is a boolean or numeric side-channel signal. External
// detectors set flags; exit rules read them. The rule engine recognizes
// booleans through FlagEquals and numerics through CounterThreshold;
// any other name is carried for display only.
type FlagValue struct {
	Kind   FlagKind
	Bool   bool
	Number float64
}

// BoolFlag wraps a boolean flag value.
func BoolFlag(v bool) FlagValue {
	return FlagValue{Kind: FlagBool, Bool: v}
}

// NumberFlag wraps a numeric flag value.
func NumberFlag(v float64) FlagValue {
	return FlagValue{Kind: FlagNumber, Number: v}
}

// AsBool reads the flag as a boolean. Numeric flags are true when
// nonzero; the zero FlagValue (unset flag) reads false.
func (f FlagValue) AsBool() bool {
	if f.Kind == FlagNumber {
		return f.Number != 0
	}
	return f.Bool
}

// AsNumber reads the flag as a number. Boolean flags read 1/0; the zero
// FlagValue reads 0.
func (f FlagValue) AsNumber() float64 {
	if f.Kind == FlagBool {
		if f.Bool {
			return 1
		}
		return 0
	}
	return f.Number
}

// MarshalJSON writes the bare bool or number so flag maps render
// naturally in API responses and persisted state.
func (f FlagValue) MarshalJSON() ([]byte, error) {
	if f.Kind == FlagNumber {
		return json.Marshal(f.Number)
	}
	return json.Marshal(f.Bool)
}

// UnmarshalJSON accepts a bare bool or number.
func (f *FlagValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = BoolFlag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = NumberFlag(n)
		return nil
	}
	return fmt.Errorf("flag value must be a bool or number, got %s", data)
}
