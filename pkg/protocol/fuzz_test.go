package protocol

import "testing"

// FuzzDecodeValue feeds arbitrary bytes to the value decoder. Decoding must
// never panic, and anything that decodes must re-encode to a form that
// decodes back to an equal value.
func FuzzDecodeValue(f *testing.F) {
	seed := []Value{
		Null{},
		Bool(true),
		Long(-1),
		String("Arena (#12345)"),
		Bytes{0, 1, 2},
		IntArray(1, 2, 3),
		ObjectArray{Int(1), String("x")},
		Map{{Key: Byte(1), Val: Double(1.5)}},
		Vector{X: 1, Y: 2, Z: 3},
	}
	for _, v := range seed {
		data, err := EncodeValue(v)
		if err != nil {
			f.Fatal(err)
		}
		f.Add(data)
	}
	f.Add([]byte{byte(TagMap), 0xFF, 0xFF})
	f.Add([]byte{byte(TagArray), byte(TagNull), 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		v, consumed, err := DecodeValue(data)
		if err != nil {
			return
		}
		if consumed > len(data) {
			t.Fatalf("consumed %d of %d bytes", consumed, len(data))
		}
		reencoded, err := EncodeValue(v)
		if err != nil {
			t.Fatalf("decoded value failed to encode: %v", err)
		}
		v2, _, err := DecodeValue(reencoded)
		if err != nil {
			t.Fatalf("re-encoded value failed to decode: %v", err)
		}
		if !Equal(v, v2) {
			t.Fatalf("round trip mismatch: %#v vs %#v", v, v2)
		}
	})
}

// FuzzDecodePacket feeds arbitrary bytes to the packet decoder.
func FuzzDecodePacket(f *testing.F) {
	p := NewRequest(OpAuthenticate)
	p.Set(ParamToken, String("tok"))
	data, err := p.Encode()
	if err != nil {
		f.Fatal(err)
	}
	f.Add(data)
	f.Add([]byte{Magic, byte(KindEvent), EvJoin, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		p, err := DecodePacket(data)
		if err != nil {
			return
		}
		if _, err := p.Encode(); err != nil {
			t.Fatalf("decoded packet failed to encode: %v", err)
		}
	})
}
