package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Optional distinguishes an absent JSON key from an explicit null and from a value.
// The zero value is absent.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a present Optional carrying JSON null
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// HasValue reports whether the key was present with a non-null value
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

// UnmarshalJSON is only invoked for keys present in the document, null included.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// TodoPatch is a partial update. Absent fields keep their stored values.
type TodoPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Completed   Optional[bool]
	Priority    Optional[string]
	Category    Optional[string]
	// DueDate clears the due date when present and null
	DueDate Optional[time.Time]
}

// Apply copies present fields onto t. A present null resets the field to its zero value.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Completed.Set {
		t.Completed = p.Completed.Value
	}
	if p.Priority.Set {
		t.Priority = p.Priority.Value
	}
	if p.Category.Set {
		t.Category = p.Category.Value
	}
	if p.DueDate.Set {
		if p.DueDate.Null {
			t.DueDate = nil
		} else {
			due := p.DueDate.Value.UTC()
			t.DueDate = &due
		}
	}
}
