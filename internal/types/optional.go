package types

import "encoding/json"

// Optional distinguishes a JSON field that was absent from one that was
// explicitly null. The zero value means the field did not appear in the
// payload; Set with Valid=false means an explicit null.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// UnmarshalJSON is only invoked by encoding/json when the field is present,
// which is what makes the absent/null distinction observable.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Valid = false
		o.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// Some returns a present, non-null Optional. Used by service tests.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null returns a present but explicitly-null Optional.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}
