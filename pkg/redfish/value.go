package redfish

import (
	"math"
)

// Kind classifies a Value.
type Kind int

const (
	// KindScalar is a JSON string, number, boolean or null.
	KindScalar Kind = iota
	// KindObject is an inline JSON object without an address.
	KindObject
	// KindLink is a JSON object carrying an address; it is independently fetchable.
	KindLink
	// KindArray is a JSON array.
	KindArray
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindLink:
		return "link"
	case KindArray:
		return "array"
	default:
		return "scalar"
	}
}

// Value is a built field of a resource. Objects and links are wrapped as resources,
// arrays element-wise, scalars are kept as decoded by encoding/json.
type Value struct {
	kind     Kind
	scalar   interface{}
	resource *Resource
	array    []Value
}

func scalarValue(v interface{}) Value {
	return Value{kind: KindScalar, scalar: v}
}

func resourceValue(r *Resource) Value {
	if r.Address() != "" {
		return Value{kind: KindLink, resource: r}
	}

	return Value{kind: KindObject, resource: r}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Resource returns the wrapped resource of an object or link value, or nil.
func (v Value) Resource() *Resource {
	return v.resource
}

// Array returns the elements of an array value, or nil.
func (v Value) Array() []Value {
	return v.array
}

// Scalar returns the scalar payload, or nil for non-scalar values.
func (v Value) Scalar() interface{} {
	return v.scalar
}

// String returns the value as a string.
func (v Value) String() (string, bool) {
	s, ok := v.scalar.(string)

	return s, ok
}

// Float returns the value as a float64.
func (v Value) Float() (float64, bool) {
	f, ok := v.scalar.(float64)

	return f, ok
}

// Int returns the value as an int64 if it is an integral number.
func (v Value) Int() (int64, bool) {
	f, ok := v.scalar.(float64)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return int64(f), true
}

// Bool returns the value as a bool.
func (v Value) Bool() (bool, bool) {
	b, ok := v.scalar.(bool)

	return b, ok
}

// IsNull reports whether the value is JSON null.
func (v Value) IsNull() bool {
	return v.kind == KindScalar && v.scalar == nil
}

// JSON returns the plain JSON form of the value. Resources contribute their currently
// loaded content; stubs are not resolved.
func (v Value) JSON() interface{} {
	switch v.kind {
	case KindObject, KindLink:
		return v.resource.Content()
	case KindArray:
		items := make([]interface{}, len(v.array))
		for i, item := range v.array {
			items[i] = item.JSON()
		}

		return items
	default:
		return v.scalar
	}
}
