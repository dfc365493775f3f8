package protocol

import (
	"errors"
	"fmt"
	"math"
)

// Magic is the first byte of every packet on the wire.
const Magic byte = 0xF3

// Kind classifies a packet within the request/response/event model.
type Kind byte

const (
	KindRequest  Kind = 2
	KindResponse Kind = 3
	KindEvent    Kind = 4
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "Request"
	case KindResponse:
		return "Response"
	case KindEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// Packet envelope errors. Both belong to the decode error family.
var (
	ErrBadMagic    = errors.New("protocol: bad packet magic")
	ErrInvalidKind = errors.New("protocol: invalid packet kind")
)

// Packet is one protocol message: an operation or event code plus a mapping
// from small-integer parameter codes to values. Parameter insertion order is
// preserved so encoding is reproducible. A Packet is built just before
// sending or produced by decoding; it is never mutated after that.
type Packet struct {
	Kind Kind
	Code byte

	codes  []byte
	params map[byte]Value
}

// NewRequest creates an empty request packet for the given operation code.
func NewRequest(code byte) *Packet {
	return newPacket(KindRequest, code)
}

// NewResponse creates an empty response packet for the given operation code.
func NewResponse(code byte) *Packet {
	return newPacket(KindResponse, code)
}

// NewEvent creates an empty event packet for the given event code.
func NewEvent(code byte) *Packet {
	return newPacket(KindEvent, code)
}

func newPacket(kind Kind, code byte) *Packet {
	return &Packet{
		Kind:   kind,
		Code:   code,
		params: make(map[byte]Value),
	}
}

// Set stores a parameter, replacing any previous value under the same code
// without disturbing its position. It returns the packet for chaining while
// a packet is being built.
func (p *Packet) Set(code byte, v Value) *Packet {
	if _, exists := p.params[code]; !exists {
		p.codes = append(p.codes, code)
	}
	p.params[code] = v
	return p
}

// Get returns the parameter stored under code.
func (p *Packet) Get(code byte) (Value, bool) {
	v, ok := p.params[code]
	return v, ok
}

// Len returns the number of parameters.
func (p *Packet) Len() int {
	return len(p.codes)
}

// Codes returns the parameter codes in insertion order. The slice is shared;
// callers must not modify it.
func (p *Packet) Codes() []byte {
	return p.codes
}

// GetString returns the string parameter under code, if present and a String.
func (p *Packet) GetString(code byte) (string, bool) {
	if v, ok := p.params[code]; ok {
		if s, ok := v.(String); ok {
			return string(s), true
		}
	}
	return "", false
}

// GetInt64 returns the integer parameter under code widened to int64; any of
// Byte, Short, Int, Long qualifies.
func (p *Packet) GetInt64(code byte) (int64, bool) {
	if v, ok := p.params[code]; ok {
		return AsInt64(v)
	}
	return 0, false
}

// GetMap returns the map parameter under code, if present and a Map.
func (p *Packet) GetMap(code byte) (Map, bool) {
	if v, ok := p.params[code]; ok {
		if m, ok := v.(Map); ok {
			return m, true
		}
	}
	return nil, false
}

// GetObjectArray returns the heterogeneous array parameter under code.
func (p *Packet) GetObjectArray(code byte) (ObjectArray, bool) {
	if v, ok := p.params[code]; ok {
		if a, ok := v.(ObjectArray); ok {
			return a, true
		}
	}
	return nil, false
}

// GetStringArray returns the homogeneous string array parameter under code.
func (p *Packet) GetStringArray(code byte) ([]string, bool) {
	v, ok := p.params[code]
	if !ok {
		return nil, false
	}
	a, ok := v.(Array)
	if !ok || a.Elem != TagString {
		return nil, false
	}
	out := make([]string, len(a.Items))
	for i, item := range a.Items {
		s, ok := item.(String)
		if !ok {
			return nil, false
		}
		out[i] = string(s)
	}
	return out, true
}

// Encode serializes the packet including the envelope header.
func (p *Packet) Encode() ([]byte, error) {
	if len(p.codes) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d parameters", ErrValueTooLarge, len(p.codes))
	}
	e := NewEncoder()
	e.WriteByte(Magic)
	e.WriteByte(byte(p.Kind))
	e.WriteByte(p.Code)
	e.WriteUint16(uint16(len(p.codes)))
	for _, code := range p.codes {
		e.WriteByte(code)
		if err := e.WriteValue(p.params[code]); err != nil {
			return nil, fmt.Errorf("param %d: %w", code, err)
		}
	}
	return e.Bytes(), nil
}

// DecodePacket parses one packet from data. A later parameter under a
// duplicated code silently wins; that mirrors how the servers behave.
func DecodePacket(data []byte) (*Packet, error) {
	d := NewDecoder(data)
	magic, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: 0x%02x", ErrBadMagic, magic)
	}
	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch Kind(kind) {
	case KindRequest, KindResponse, KindEvent:
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidKind, kind)
	}
	code, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	// A parameter is at least a code byte plus a tag byte.
	count, err := d.readCount(2)
	if err != nil {
		return nil, err
	}
	p := newPacket(Kind(kind), code)
	for i := 0; i < count; i++ {
		pcode, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		v, err := d.ReadValue()
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", pcode, err)
		}
		p.Set(pcode, v)
	}
	return p, nil
}
