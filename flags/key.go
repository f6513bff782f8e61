package flags

import "fmt"

// Value enumerates the types a live variable may declare.
type Value interface {
	string | bool | int64 | float64
}

// Key names a live variable and carries the value used when the variable
// is unset or unreadable. The value type is fixed by the type parameter.
type Key[T Value] struct {
	ID      string
	Default T
}

// NewKey returns a Key for id with the given default.
func NewKey[T Value](id string, def T) Key[T] {
	return Key[T]{ID: id, Default: def}
}

func (k Key[T]) String() string {
	return fmt.Sprintf("%s (default %v)", k.ID, k.Default)
}
