package protocol

import "math"

// Tag identifies the wire type of a Value. The values are the ASCII bytes
// the servers use on the wire.
type Tag byte

const (
	TagNull        Tag = 42  // '*'
	TagBool        Tag = 111 // 'o'
	TagByte        Tag = 98  // 'b'
	TagShort       Tag = 107 // 'k'
	TagInt         Tag = 105 // 'i'
	TagLong        Tag = 108 // 'l'
	TagFloat       Tag = 102 // 'f'
	TagDouble      Tag = 100 // 'd'
	TagString      Tag = 115 // 's'
	TagBytes       Tag = 120 // 'x'
	TagArray       Tag = 121 // 'y'
	TagObjectArray Tag = 122 // 'z'
	TagMap         Tag = 104 // 'h'
	TagVector      Tag = 118 // 'v'
)

// String returns the name of the tag.
func (t Tag) String() string {
	switch t {
	case TagNull:
		return "Null"
	case TagBool:
		return "Bool"
	case TagByte:
		return "Byte"
	case TagShort:
		return "Short"
	case TagInt:
		return "Int"
	case TagLong:
		return "Long"
	case TagFloat:
		return "Float"
	case TagDouble:
		return "Double"
	case TagString:
		return "String"
	case TagBytes:
		return "Bytes"
	case TagArray:
		return "Array"
	case TagObjectArray:
		return "ObjectArray"
	case TagMap:
		return "Map"
	case TagVector:
		return "Vector"
	default:
		return "Unknown"
	}
}

// Value is the closed union over every wire type. Exactly one concrete type
// exists per tag; consumers switch exhaustively so an unexpected tag is a
// decode-time concern, never a silent nil.
type Value interface {
	Tag() Tag
}

// Null is the absence of a value.
type Null struct{}

// Bool is a one-byte boolean.
type Bool bool

// Byte is an unsigned 8-bit integer.
type Byte uint8

// Short is a signed 16-bit integer.
type Short int16

// Int is a signed 32-bit integer.
type Int int32

// Long is a signed 64-bit integer.
type Long int64

// Float is an IEEE 754 single-precision float.
type Float float32

// Double is an IEEE 754 double-precision float.
type Double float64

// String is UTF-8 text with a 16-bit length prefix.
type String string

// Bytes is a raw byte array with a 32-bit length prefix.
type Bytes []byte

// Array is a homogeneous sequence: every element shares Elem as its tag and
// is encoded without a per-element tag byte.
type Array struct {
	Elem  Tag
	Items []Value
}

// ObjectArray is a heterogeneous sequence of fully tagged values.
type ObjectArray []Value

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key Value
	Val Value
}

// Map is an order-preserving sequence of key/value pairs. Keys are typically
// small integers, bytes or strings; the codec does not enforce uniqueness.
type Map []MapEntry

// Vector is a fixed 3-component single-precision vector.
type Vector struct {
	X, Y, Z float32
}

func (Null) Tag() Tag        { return TagNull }
func (Bool) Tag() Tag        { return TagBool }
func (Byte) Tag() Tag        { return TagByte }
func (Short) Tag() Tag       { return TagShort }
func (Int) Tag() Tag         { return TagInt }
func (Long) Tag() Tag        { return TagLong }
func (Float) Tag() Tag       { return TagFloat }
func (Double) Tag() Tag      { return TagDouble }
func (String) Tag() Tag      { return TagString }
func (Bytes) Tag() Tag       { return TagBytes }
func (Array) Tag() Tag       { return TagArray }
func (ObjectArray) Tag() Tag { return TagObjectArray }
func (Map) Tag() Tag         { return TagMap }
func (Vector) Tag() Tag      { return TagVector }

// IntArray builds a homogeneous array of Int values.
func IntArray(vs ...int32) Array {
	items := make([]Value, len(vs))
	for i, v := range vs {
		items[i] = Int(v)
	}
	return Array{Elem: TagInt, Items: items}
}

// StringArray builds a homogeneous array of String values.
func StringArray(vs ...string) Array {
	items := make([]Value, len(vs))
	for i, v := range vs {
		items[i] = String(v)
	}
	return Array{Elem: TagString, Items: items}
}

// Equal reports whether two values are identical on the wire. Floats compare
// bit-exact, so NaN equals NaN and signed zeros are distinguished.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Tag() != b.Tag() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Byte:
		return av == b.(Byte)
	case Short:
		return av == b.(Short)
	case Int:
		return av == b.(Int)
	case Long:
		return av == b.(Long)
	case Float:
		return math.Float32bits(float32(av)) == math.Float32bits(float32(b.(Float)))
	case Double:
		return math.Float64bits(float64(av)) == math.Float64bits(float64(b.(Double)))
	case String:
		return av == b.(String)
	case Bytes:
		bv := b.(Bytes)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case Array:
		bv := b.(Array)
		if av.Elem != bv.Elem || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case ObjectArray:
		bv := b.(ObjectArray)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv := b.(Map)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i].Key, bv[i].Key) || !Equal(av[i].Val, bv[i].Val) {
				return false
			}
		}
		return true
	case Vector:
		bv := b.(Vector)
		return math.Float32bits(av.X) == math.Float32bits(bv.X) &&
			math.Float32bits(av.Y) == math.Float32bits(bv.Y) &&
			math.Float32bits(av.Z) == math.Float32bits(bv.Z)
	default:
		return false
	}
}

// AsInt64 widens any integer-family value to int64. The second return is
// false for non-integer values.
func AsInt64(v Value) (int64, bool) {
	switch n := v.(type) {
	case Byte:
		return int64(n), true
	case Short:
		return int64(n), true
	case Int:
		return int64(n), true
	case Long:
		return int64(n), true
	default:
		return 0, false
	}
}

// AsFloat64 widens any numeric value to float64. The second return is false
// for non-numeric values.
func AsFloat64(v Value) (float64, bool) {
	switch n := v.(type) {
	case Float:
		return float64(n), true
	case Double:
		return float64(n), true
	default:
		if i, ok := AsInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}
