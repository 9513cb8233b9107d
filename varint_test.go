package font

import "testing"

func TestUIntBase128RoundTrip(t *testing.T) {
	values := []uint32{
		0, 1, 2, 127, 128, 129, 16383, 16384, 16385,
		2097151, 2097152, 268435455, 268435456, 0x7FFFFFFF, 0xFFFFFFFF,
	}
	for _, v := range values {
		w := NewBinaryWriter(nil)
		writeUintBase128(w, v)
		if n := w.Len(); n == 0 || 5 < n {
			t.Fatalf("writeUintBase128(%d): wrote %d bytes, want 1..5", v, n)
		}
		r := NewBinaryReader(w.Bytes())
		got, err := readUintBase128(r)
		if err != nil {
			t.Fatalf("readUintBase128(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("readUintBase128: got %d, want %d", got, v)
		}
	}
}

func TestUIntBase128MinimalLength(t *testing.T) {
	// a value that fits in one byte must round-trip as exactly one byte,
	// matching the spec's requirement that the encoder choose the shortest
	// form.
	w := NewBinaryWriter(nil)
	writeUintBase128(w, 42)
	if w.Len() != 1 {
		t.Fatalf("writeUintBase128(42): wrote %d bytes, want 1", w.Len())
	}
}

func TestUIntBase128RejectsLeadingZeroByte(t *testing.T) {
	r := NewBinaryReader([]byte{0x80, 0x01})
	if _, err := readUintBase128(r); err == nil {
		t.Fatal("expected error for a leading 0x80 byte")
	}
}

func TestUIntBase128RejectsOverlongEncoding(t *testing.T) {
	r := NewBinaryReader([]byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01})
	if _, err := readUintBase128(r); err == nil {
		t.Fatal("expected error for a 6-byte encoding")
	}
}

func TestUIntBase128RejectsOverflow(t *testing.T) {
	// five bytes encoding 2^32, whose accumulated value would exceed 32 bits
	// (0x8F 0xFF 0xFF 0xFF 0x7F encodes 0xFFFFFFFF, which still fits)
	r := NewBinaryReader([]byte{0x90, 0x80, 0x80, 0x80, 0x00})
	if _, err := readUintBase128(r); err == nil {
		t.Fatal("expected overflow error")
	}
}

func Test255UShortRoundTrip(t *testing.T) {
	values := []uint16{0, 1, 100, 252, 253, 508, 509, 761, 762, 763, 1000, 65535}
	for _, v := range values {
		w := NewBinaryWriter(nil)
		write255Uint16(w, v)
		r := NewBinaryReader(w.Bytes())
		got, err := read255UintOrErr(r)
		if err != nil {
			t.Fatalf("read255UintOrErr(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("255UShort round trip: got %d, want %d", got, v)
		}
	}
}

func Test255UShortMinimalLength(t *testing.T) {
	cases := []struct {
		val  uint16
		want int
	}{
		{0, 1}, {252, 1}, {253, 2}, {508, 2}, {509, 2}, {761, 2}, {762, 3}, {65535, 3},
	}
	for _, c := range cases {
		w := NewBinaryWriter(nil)
		write255Uint16(w, c.val)
		if int(w.Len()) != c.want {
			t.Fatalf("write255Uint16(%d): wrote %d bytes, want %d", c.val, w.Len(), c.want)
		}
	}
}
