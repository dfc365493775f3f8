package protocol

import (
	"errors"
	"fmt"
	"math"
)

// Process-wide decode limits. These are a safety floor against hostile
// input, not a tuning knob, so they are constants rather than configuration.
const (
	// MaxDepth bounds the nesting of arrays and maps. Deeper input is a
	// decode error before the recursion can exhaust the stack.
	MaxDepth = 32

	// MaxCollectionCount bounds the declared element/pair count of any
	// single container, independent of how much buffer remains.
	MaxCollectionCount = 10_000
)

// Decode errors. Every error returned by the decoder wraps one of these, so
// callers can treat the whole family as a recoverable DecodeError at the
// channel boundary.
var (
	ErrTruncated          = errors.New("protocol: buffer truncated")
	ErrInvalidTag         = errors.New("protocol: invalid type tag")
	ErrDepthExceeded      = errors.New("protocol: nesting depth exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
	ErrValueTooLarge      = errors.New("protocol: value exceeds length prefix")
	ErrMixedArray         = errors.New("protocol: mixed element types in homogeneous array")
)

// IsDecodeError reports whether err belongs to the decode error family.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrTruncated) ||
		errors.Is(err, ErrInvalidTag) ||
		errors.Is(err, ErrDepthExceeded) ||
		errors.Is(err, ErrCollectionTooLarge) ||
		errors.Is(err, ErrValueTooLarge) ||
		errors.Is(err, ErrMixedArray) ||
		errors.Is(err, ErrBadMagic) ||
		errors.Is(err, ErrInvalidKind)
}

// Decoder is a binary decoder that reads from a byte buffer.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a decoder over buf. The decoder does not copy buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// Position returns the current read offset.
func (d *Decoder) Position() int {
	return d.pos
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrTruncated
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the decoder's
// buffer; callers that retain it must copy.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, ErrTruncated
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadUint16 reads a big-endian uint16.
func (d *Decoder) ReadUint16() (uint16, error) {
	if d.pos+2 > len(d.buf) {
		return 0, ErrTruncated
	}
	v := uint16(d.buf[d.pos])<<8 | uint16(d.buf[d.pos+1])
	d.pos += 2
	return v, nil
}

// ReadUint32 reads a big-endian uint32.
func (d *Decoder) ReadUint32() (uint32, error) {
	if d.pos+4 > len(d.buf) {
		return 0, ErrTruncated
	}
	v := uint32(d.buf[d.pos])<<24 | uint32(d.buf[d.pos+1])<<16 |
		uint32(d.buf[d.pos+2])<<8 | uint32(d.buf[d.pos+3])
	d.pos += 4
	return v, nil
}

// ReadUint64 reads a big-endian uint64.
func (d *Decoder) ReadUint64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, ErrTruncated
	}
	v := uint64(d.buf[d.pos])<<56 | uint64(d.buf[d.pos+1])<<48 |
		uint64(d.buf[d.pos+2])<<40 | uint64(d.buf[d.pos+3])<<32 |
		uint64(d.buf[d.pos+4])<<24 | uint64(d.buf[d.pos+5])<<16 |
		uint64(d.buf[d.pos+6])<<8 | uint64(d.buf[d.pos+7])
	d.pos += 8
	return v, nil
}

// ReadFloat32 reads a big-endian IEEE 754 float32, bit-exact.
func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads a big-endian IEEE 754 float64, bit-exact.
func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// readCount reads a 16-bit container count and validates it against the
// collection limit and the remaining buffer, assuming each element occupies
// at least minElem bytes.
func (d *Decoder) readCount(minElem int) (int, error) {
	count, err := d.ReadUint16()
	if err != nil {
		return 0, err
	}
	n := int(count)
	if n > MaxCollectionCount {
		return 0, fmt.Errorf("%w: declared %d", ErrCollectionTooLarge, n)
	}
	if n*minElem > d.Remaining() {
		return 0, fmt.Errorf("%w: %d elements declared, %d bytes remain", ErrTruncated, n, d.Remaining())
	}
	return n, nil
}

// ReadValue reads one fully tagged value.
func (d *Decoder) ReadValue() (Value, error) {
	return d.readValue(0)
}

func (d *Decoder) readValue(depth int) (Value, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	return d.readValueBody(Tag(tag), depth)
}

// minBodySize is the smallest possible payload for a value of the given tag,
// used to validate declared counts against the remaining buffer.
func minBodySize(tag Tag) int {
	switch tag {
	case TagNull:
		return 0
	case TagBool, TagByte:
		return 1
	case TagShort, TagString, TagArray, TagObjectArray, TagMap:
		// containers and strings carry at least their count/length prefix
		return 2
	case TagInt, TagFloat, TagBytes:
		return 4
	case TagLong, TagDouble:
		return 8
	case TagVector:
		return 12
	default:
		return 1
	}
}

func (d *Decoder) readValueBody(tag Tag, depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: %d", ErrDepthExceeded, depth)
	}
	switch tag {
	case TagNull:
		return Null{}, nil
	case TagBool:
		b, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		return Bool(b != 0), nil
	case TagByte:
		b, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		return Byte(b), nil
	case TagShort:
		v, err := d.ReadUint16()
		if err != nil {
			return nil, err
		}
		return Short(int16(v)), nil
	case TagInt:
		v, err := d.ReadUint32()
		if err != nil {
			return nil, err
		}
		return Int(int32(v)), nil
	case TagLong:
		v, err := d.ReadUint64()
		if err != nil {
			return nil, err
		}
		return Long(int64(v)), nil
	case TagFloat:
		v, err := d.ReadFloat32()
		if err != nil {
			return nil, err
		}
		return Float(v), nil
	case TagDouble:
		v, err := d.ReadFloat64()
		if err != nil {
			return nil, err
		}
		return Double(v), nil
	case TagString:
		length, err := d.ReadUint16()
		if err != nil {
			return nil, err
		}
		b, err := d.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		return String(b), nil
	case TagBytes:
		length, err := d.ReadUint32()
		if err != nil {
			return nil, err
		}
		if uint64(length) > uint64(d.Remaining()) {
			return nil, fmt.Errorf("%w: byte array of %d declared, %d remain", ErrTruncated, length, d.Remaining())
		}
		raw, err := d.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		b := make([]byte, len(raw))
		copy(b, raw)
		return Bytes(b), nil
	case TagArray:
		elemTag, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		elem := Tag(elemTag)
		n, err := d.readCount(minBodySize(elem))
		if err != nil {
			return nil, err
		}
		items := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			item, err := d.readValueBody(elem, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return Array{Elem: elem, Items: items}, nil
	case TagObjectArray:
		n, err := d.readCount(1)
		if err != nil {
			return nil, err
		}
		items := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			item, err := d.readValue(depth + 1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return ObjectArray(items), nil
	case TagMap:
		n, err := d.readCount(2)
		if err != nil {
			return nil, err
		}
		m := make(Map, 0, n)
		for i := 0; i < n; i++ {
			key, err := d.readValue(depth + 1)
			if err != nil {
				return nil, err
			}
			val, err := d.readValue(depth + 1)
			if err != nil {
				return nil, err
			}
			m = append(m, MapEntry{Key: key, Val: val})
		}
		return m, nil
	case TagVector:
		x, err := d.ReadFloat32()
		if err != nil {
			return nil, err
		}
		y, err := d.ReadFloat32()
		if err != nil {
			return nil, err
		}
		z, err := d.ReadFloat32()
		if err != nil {
			return nil, err
		}
		return Vector{X: x, Y: y, Z: z}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidTag, byte(tag))
	}
}

// DecodeValue decodes one tagged value from data, returning the value and
// the number of bytes consumed.
func DecodeValue(data []byte) (Value, int, error) {
	d := NewDecoder(data)
	v, err := d.ReadValue()
	if err != nil {
		return nil, d.pos, err
	}
	return v, d.pos, nil
}
