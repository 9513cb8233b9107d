package font

import "testing"

func TestBinaryReaderEOFLatchesOnUnderflow(t *testing.T) {
	r := NewBinaryReader([]byte{0x01, 0x02})
	if r.EOF() {
		t.Fatal("fresh reader must not report EOF")
	}
	_ = r.ReadUint16()
	if r.EOF() {
		t.Fatal("a read that exactly exhausts the buffer must not set EOF")
	}
	_ = r.ReadByte()
	if !r.EOF() {
		t.Fatal("a read past the end of the buffer must set EOF")
	}
}

func TestBinaryReaderSeekPastEndSetsEOF(t *testing.T) {
	r := NewBinaryReader([]byte{0x01, 0x02, 0x03, 0x04})
	r.Seek(10)
	if !r.EOF() {
		t.Fatal("seeking past the end must set EOF")
	}
	if r.Pos() != 4 {
		t.Fatalf("Pos() after an out-of-range seek = %d, want 4", r.Pos())
	}
}

func TestBinaryWriterRoundTrip(t *testing.T) {
	w := NewBinaryWriter(nil)
	w.WriteUint32(0xDEADBEEF)
	w.WriteInt16(-1)
	w.WriteString("glyf")

	r := NewBinaryReader(w.Bytes())
	if got := r.ReadUint32(); got != 0xDEADBEEF {
		t.Fatalf("ReadUint32() = %#x, want 0xDEADBEEF", got)
	}
	if got := r.ReadInt16(); got != -1 {
		t.Fatalf("ReadInt16() = %d, want -1", got)
	}
	if got := r.ReadString(4); got != "glyf" {
		t.Fatalf("ReadString(4) = %q, want %q", got, "glyf")
	}
	if r.EOF() {
		t.Fatal("reading exactly the written bytes must not set EOF")
	}
}

func TestBitmapRoundTrip(t *testing.T) {
	bits := []bool{true, false, false, true, true, true, false, false, true, false}
	w := NewBitmapWriter(nil)
	for _, b := range bits {
		w.Write(b)
	}
	r := NewBitmapReader(w.Bytes())
	for i, want := range bits {
		if got := r.Read(); got != want {
			t.Fatalf("bit %d: got %v, want %v", i, got, want)
		}
	}
}

func TestBitmapReaderPastEndReadsFalse(t *testing.T) {
	r := NewBitmapReader([]byte{0xFF})
	for i := 0; i < 8; i++ {
		if !r.Read() {
			t.Fatalf("bit %d of 0xFF must be set", i)
		}
	}
	if r.Read() {
		t.Fatal("reading past the end of the bitmap must return false")
	}
}
