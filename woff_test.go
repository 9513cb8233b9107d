package font

import (
	"bytes"
	"testing"
)

func TestWOFFRoundTrip(t *testing.T) {
	sfntBytes := buildTrueTypeFixture()
	sfnt, err := ParseSFNT(sfntBytes, 0)
	if err != nil {
		t.Fatalf("ParseSFNT: %v", err)
	}

	woffBytes, err := WriteWOFF(sfnt, 9)
	if err != nil {
		t.Fatalf("WriteWOFF: %v", err)
	}
	if string(woffBytes[:4]) != "wOFF" {
		t.Fatalf("WriteWOFF signature = %q, want wOFF", woffBytes[:4])
	}

	out, err := ParseWOFF(woffBytes)
	if err != nil {
		t.Fatalf("ParseWOFF: %v", err)
	}
	if !bytes.Equal(out, sfntBytes) {
		t.Fatal("WOFF round trip did not reproduce the original SFNT bytes")
	}
}

func TestWOFFEncodeDecodeAPI(t *testing.T) {
	sfntBytes := buildTrueTypeFixture()
	woffBytes, err := WOFFEncode(sfntBytes, DefaultWOFFEncodeOptions())
	if err != nil {
		t.Fatalf("WOFFEncode: %v", err)
	}
	out, err := WOFFDecode(woffBytes)
	if err != nil {
		t.Fatalf("WOFFDecode: %v", err)
	}
	if !bytes.Equal(out, sfntBytes) {
		t.Fatal("WOFFEncode/WOFFDecode round trip did not reproduce the original SFNT bytes")
	}
}

func TestWOFFLevelClampedToValidRange(t *testing.T) {
	sfntBytes := buildTrueTypeFixture()
	sfnt, err := ParseSFNT(sfntBytes, 0)
	if err != nil {
		t.Fatalf("ParseSFNT: %v", err)
	}
	for _, level := range []int{-5, 0, 1, 9, 20} {
		woffBytes, err := WriteWOFF(sfnt, level)
		if err != nil {
			t.Fatalf("WriteWOFF(level=%d): %v", level, err)
		}
		out, err := ParseWOFF(woffBytes)
		if err != nil {
			t.Fatalf("ParseWOFF(level=%d): %v", level, err)
		}
		if !bytes.Equal(out, sfntBytes) {
			t.Fatalf("round trip at level=%d did not reproduce the original bytes", level)
		}
	}
}

func TestWOFFTotalSfntSizeMatchesHeader(t *testing.T) {
	sfntBytes := buildTrueTypeFixture()
	sfnt, err := ParseSFNT(sfntBytes, 0)
	if err != nil {
		t.Fatalf("ParseSFNT: %v", err)
	}
	woffBytes, err := WriteWOFF(sfnt, 9)
	if err != nil {
		t.Fatalf("WriteWOFF: %v", err)
	}

	r := NewBinaryReader(woffBytes)
	_ = r.ReadString(4) // signature
	_ = r.ReadUint32()  // flavor
	_ = r.ReadUint32()  // length
	_ = r.ReadUint16()  // numTables
	_ = r.ReadUint16()  // reserved
	totalSfntSize := r.ReadUint32()
	if totalSfntSize != uint32(len(sfntBytes)) {
		t.Fatalf("totalSfntSize = %d, want %d", totalSfntSize, len(sfntBytes))
	}
}

func TestWOFFBadSignature(t *testing.T) {
	b := buildTrueTypeFixture()
	woffBytes, err := WOFFEncode(b, DefaultWOFFEncodeOptions())
	if err != nil {
		t.Fatalf("WOFFEncode: %v", err)
	}
	woffBytes[0] = 'x'

	_, err = ParseWOFF(woffBytes)
	if err == nil {
		t.Fatal("expected an error for a corrupted signature")
	}
	if _, ok := err.(*BadSignatureError); !ok {
		t.Fatalf("error type = %T, want *BadSignatureError", err)
	}
}

func TestWOFFTruncated(t *testing.T) {
	_, err := ParseWOFF([]byte{0x77, 0x4F, 0x46, 0x46}) // "wOFF" with nothing else
	if err == nil {
		t.Fatal("expected an error for a truncated file")
	}
	if _, ok := err.(*TruncatedError); !ok {
		t.Fatalf("error type = %T, want *TruncatedError", err)
	}
}

func TestWOFFRejectsUnsortedDirectory(t *testing.T) {
	b := buildTrueTypeFixture()
	sfnt, err := ParseSFNT(b, 0)
	if err != nil {
		t.Fatalf("ParseSFNT: %v", err)
	}
	woffBytes, err := WriteWOFF(sfnt, 9)
	if err != nil {
		t.Fatalf("WriteWOFF: %v", err)
	}

	// swap the first two directory entries (each 20 bytes, starting at
	// offset 44) so the tag order is no longer ascending.
	const entryLen = 20
	const dirStart = 44
	first := append([]byte{}, woffBytes[dirStart:dirStart+entryLen]...)
	second := append([]byte{}, woffBytes[dirStart+entryLen:dirStart+2*entryLen]...)
	copy(woffBytes[dirStart:dirStart+entryLen], second)
	copy(woffBytes[dirStart+entryLen:dirStart+2*entryLen], first)

	_, err = ParseWOFF(woffBytes)
	if err == nil {
		t.Fatal("expected an error for an unsorted table directory")
	}
	if _, ok := err.(*BadDirectoryError); !ok {
		t.Fatalf("error type = %T, want *BadDirectoryError", err)
	}
}

func TestWOFFRejectsTableBeyondFile(t *testing.T) {
	b := buildTrueTypeFixture()
	sfnt, err := ParseSFNT(b, 0)
	if err != nil {
		t.Fatalf("ParseSFNT: %v", err)
	}
	woffBytes, err := WriteWOFF(sfnt, 9)
	if err != nil {
		t.Fatalf("WriteWOFF: %v", err)
	}

	_, err = ParseWOFF(woffBytes[:len(woffBytes)-1])
	if err == nil {
		t.Fatal("expected an error when a table's bytes run past the end of the file")
	}
}
