package protocol

import (
	"fmt"
	"math"
)

// Encoder is a binary encoder that appends to an internal buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new encoder with a small initial capacity.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 128)}
}

// Reset empties the encoder, reusing the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded bytes. The slice is valid until the next write.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteByte appends a single byte. The returned error is always nil; the
// signature satisfies io.ByteWriter.
func (e *Encoder) WriteByte(b byte) error {
	e.buf = append(e.buf, b)
	return nil
}

// WriteBytes appends raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteUint16 appends a uint16 in big-endian byte order.
func (e *Encoder) WriteUint16(v uint16) {
	e.buf = append(e.buf, byte(v>>8), byte(v))
}

// WriteUint32 appends a uint32 in big-endian byte order.
func (e *Encoder) WriteUint32(v uint32) {
	e.buf = append(e.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteUint64 appends a uint64 in big-endian byte order.
func (e *Encoder) WriteUint64(v uint64) {
	e.buf = append(e.buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteFloat32 appends a float32 in IEEE 754 big-endian format. Non-finite
// values pass through bit-exact.
func (e *Encoder) WriteFloat32(v float32) {
	e.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends a float64 in IEEE 754 big-endian format. Non-finite
// values pass through bit-exact.
func (e *Encoder) WriteFloat64(v float64) {
	e.WriteUint64(math.Float64bits(v))
}

// WriteValue appends v with its leading type tag. It fails if a container
// exceeds the 16-bit count space, if a homogeneous array holds an element
// whose tag disagrees with Array.Elem, or if a string or byte array is too
// long for its length prefix.
func (e *Encoder) WriteValue(v Value) error {
	if v == nil {
		v = Null{}
	}
	e.WriteByte(byte(v.Tag()))
	return e.writeValueBody(v)
}

// writeValueBody appends the payload of v without its tag.
func (e *Encoder) writeValueBody(v Value) error {
	switch tv := v.(type) {
	case Null:
		return nil
	case Bool:
		if tv {
			e.WriteByte(1)
		} else {
			e.WriteByte(0)
		}
		return nil
	case Byte:
		e.WriteByte(byte(tv))
		return nil
	case Short:
		e.WriteUint16(uint16(tv))
		return nil
	case Int:
		e.WriteUint32(uint32(tv))
		return nil
	case Long:
		e.WriteUint64(uint64(tv))
		return nil
	case Float:
		e.WriteFloat32(float32(tv))
		return nil
	case Double:
		e.WriteFloat64(float64(tv))
		return nil
	case String:
		if len(tv) > math.MaxUint16 {
			return fmt.Errorf("%w: string of %d bytes", ErrValueTooLarge, len(tv))
		}
		e.WriteUint16(uint16(len(tv)))
		e.buf = append(e.buf, tv...)
		return nil
	case Bytes:
		e.WriteUint32(uint32(len(tv)))
		e.WriteBytes(tv)
		return nil
	case Array:
		if len(tv.Items) > math.MaxUint16 {
			return fmt.Errorf("%w: array of %d elements", ErrValueTooLarge, len(tv.Items))
		}
		e.WriteByte(byte(tv.Elem))
		e.WriteUint16(uint16(len(tv.Items)))
		for _, item := range tv.Items {
			if item == nil || item.Tag() != tv.Elem {
				return fmt.Errorf("%w: element in %s array", ErrMixedArray, tv.Elem)
			}
			if err := e.writeValueBody(item); err != nil {
				return err
			}
		}
		return nil
	case ObjectArray:
		if len(tv) > math.MaxUint16 {
			return fmt.Errorf("%w: object array of %d elements", ErrValueTooLarge, len(tv))
		}
		e.WriteUint16(uint16(len(tv)))
		for _, item := range tv {
			if err := e.WriteValue(item); err != nil {
				return err
			}
		}
		return nil
	case Map:
		if len(tv) > math.MaxUint16 {
			return fmt.Errorf("%w: map of %d pairs", ErrValueTooLarge, len(tv))
		}
		e.WriteUint16(uint16(len(tv)))
		for _, entry := range tv {
			if err := e.WriteValue(entry.Key); err != nil {
				return err
			}
			if err := e.WriteValue(entry.Val); err != nil {
				return err
			}
		}
		return nil
	case Vector:
		e.WriteFloat32(tv.X)
		e.WriteFloat32(tv.Y)
		e.WriteFloat32(tv.Z)
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrInvalidTag, v)
	}
}

// EncodeValue encodes a single tagged value to a fresh byte slice.
func EncodeValue(v Value) ([]byte, error) {
	e := NewEncoder()
	if err := e.WriteValue(v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
