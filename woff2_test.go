package font

import (
	"encoding/binary"
	"testing"
)

// TestWOFF2RoundTrip exercises S4/S5 and testable property 1: a TrueType
// SFNT encoded at the default and at lower Brotli qualities must decode,
// and decoding, re-encoding and decoding that result again must reproduce
// the first decode byte for byte. The first decode is not byte-identical to
// the fixture itself: it has head.flags bit 11 set, a recomputed
// checkSumAdjustment, and glyphs padded to 4 bytes.
func TestWOFF2RoundTrip(t *testing.T) {
	sfntBytes := buildTrueTypeFixture()

	for _, quality := range []int{11, 4, 0} {
		woff2, err := WOFF2Encode(sfntBytes, WOFF2EncodeOptions{Quality: quality})
		if err != nil {
			t.Fatalf("quality %d: WOFF2Encode: %v", quality, err)
		}

		want, err := WOFF2Decode(woff2)
		if err != nil {
			t.Fatalf("quality %d: WOFF2Decode: %v", quality, err)
		}
		again, err := WOFF2Encode(want, WOFF2EncodeOptions{Quality: quality})
		if err != nil {
			t.Fatalf("quality %d: second WOFF2Encode: %v", quality, err)
		}
		got, err := WOFF2Decode(again)
		if err != nil {
			t.Fatalf("quality %d: second WOFF2Decode: %v", quality, err)
		}
		if len(got) != len(want) {
			t.Fatalf("quality %d: decoded length %d, want %d", quality, len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("quality %d: decoded byte %d = %#x, want %#x", quality, i, got[i], want[i])
			}
		}
	}
}

// TestWOFF2DoubleRoundTripSizeStable checks S6: re-encoding a decoded WOFF2
// should not balloon in size.
func TestWOFF2DoubleRoundTripSizeStable(t *testing.T) {
	sfntBytes := buildTrueTypeFixture()
	first, err := WOFF2Encode(sfntBytes, DefaultWOFF2EncodeOptions())
	if err != nil {
		t.Fatalf("first WOFF2Encode: %v", err)
	}
	decoded, err := WOFF2Decode(first)
	if err != nil {
		t.Fatalf("WOFF2Decode: %v", err)
	}
	second, err := WOFF2Encode(decoded, DefaultWOFF2EncodeOptions())
	if err != nil {
		t.Fatalf("second WOFF2Encode: %v", err)
	}

	lo := float64(len(first)) * 0.9
	hi := float64(len(first)) * 1.1
	if float64(len(second)) < lo || hi < float64(len(second)) {
		t.Fatalf("double round trip size %d is not within 10%% of %d", len(second), len(first))
	}
}

// TestWOFF2HeadFlagsBit11Set checks testable property 4 and scenario S4.
func TestWOFF2HeadFlagsBit11Set(t *testing.T) {
	woff2, err := WOFF2Encode(buildTrueTypeFixture(), DefaultWOFF2EncodeOptions())
	if err != nil {
		t.Fatal(err)
	}
	sfntBytes, err := WOFF2Decode(woff2)
	if err != nil {
		t.Fatal(err)
	}
	sfnt, err := ParseSFNT(sfntBytes, 0)
	if err != nil {
		t.Fatal(err)
	}
	flags := sfnt.Head.Flags
	if !flags[11] {
		t.Fatal("head.flags bit 11 must be set after a WOFF2 round trip")
	}
}

// TestWOFF2ChecksumAdjustment checks testable property 4's checksum half.
func TestWOFF2ChecksumAdjustment(t *testing.T) {
	woff2, err := WOFF2Encode(buildTrueTypeFixture(), DefaultWOFF2EncodeOptions())
	if err != nil {
		t.Fatal(err)
	}
	sfntBytes, err := WOFF2Decode(woff2)
	if err != nil {
		t.Fatal(err)
	}

	checkSumAdjustment := binary.BigEndian.Uint32(sfntBytes[findHeadOffset(t, sfntBytes)+8:])
	patched := append([]byte{}, sfntBytes...)
	binary.BigEndian.PutUint32(patched[findHeadOffset(t, sfntBytes)+8:], 0)
	sum := calcChecksum(patched)
	want := 0xB1B0AFBA - sum
	if checkSumAdjustment != want {
		t.Fatalf("head.checkSumAdjustment = %#x, want %#x", checkSumAdjustment, want)
	}
}

func findHeadOffset(t *testing.T, sfntBytes []byte) uint32 {
	r := NewBinaryReader(sfntBytes)
	_ = r.ReadUint32() // version
	numTables := r.ReadUint16()
	_ = r.ReadBytes(6) // searchRange, entrySelector, rangeShift
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		_ = r.ReadUint32() // checksum
		offset := r.ReadUint32()
		_ = r.ReadUint32() // length
		if tag == "head" {
			return offset
		}
	}
	t.Fatal("no head table in reconstructed SFNT")
	return 0
}

// TestWOFF2DropsDSIG checks testable property 5.
func TestWOFF2DropsDSIG(t *testing.T) {
	sfntBytes := buildTrueTypeFixture()
	sfnt, err := ParseSFNT(sfntBytes, 0)
	if err != nil {
		t.Fatal(err)
	}
	sfnt.Tables["DSIG"] = []byte{0x00, 0x00, 0x00, 0x01}

	// Re-derive the input bytes with DSIG present using the same assembler
	// the fixture was built with, so WOFF2Encode sees it in the directory.
	tables := make(map[string][]byte, len(sfnt.Tables))
	for tag, data := range sfnt.Tables {
		tables[tag] = data
	}
	withDSIG := buildSFNT(sfnt.Version, tables)

	woff2, err := WOFF2Encode(withDSIG, DefaultWOFF2EncodeOptions())
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := WOFF2Decode(woff2)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ParseSFNT(decoded, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.Tables["DSIG"]; ok {
		t.Fatal("DSIG must not survive a WOFF2 round trip")
	}
}

// TestWOFF2BadSignature checks testable property 8 and scenario S7.
func TestWOFF2BadSignature(t *testing.T) {
	_, err := WOFF2Decode([]byte{0x00})
	if err == nil {
		t.Fatal("expected an error for a truncated, non-matching input")
	}
	if _, ok := err.(*BadSignatureError); !ok {
		t.Fatalf("got error type %T, want *BadSignatureError", err)
	}

	bad := buildValidWOFF2Bytes(t)
	bad[0] = 'x'
	_, err = WOFF2Decode(bad)
	if _, ok := err.(*BadSignatureError); !ok {
		t.Fatalf("got error type %T, want *BadSignatureError", err)
	}
}

// TestWOFF2Truncated checks testable property 8's second half: truncating a
// valid file by one byte must fail, never silently succeed or panic.
func TestWOFF2Truncated(t *testing.T) {
	valid := buildValidWOFF2Bytes(t)
	truncated := valid[:len(valid)-1]
	if _, err := WOFF2Decode(truncated); err == nil {
		t.Fatal("expected an error for a one-byte-truncated WOFF2 file")
	}
}

func buildValidWOFF2Bytes(t *testing.T) []byte {
	woff2, err := WOFF2Encode(buildTrueTypeFixture(), DefaultWOFF2EncodeOptions())
	if err != nil {
		t.Fatal(err)
	}
	return woff2
}

// TestWOFF2TableSetPreserved checks testable property 2: the sorted tag
// list, numGlyphs, and numHMetrics must survive the round trip.
func TestWOFF2TableSetPreserved(t *testing.T) {
	sfntBytes := buildTrueTypeFixture()
	before, err := ParseSFNT(sfntBytes, 0)
	if err != nil {
		t.Fatal(err)
	}

	woff2, err := WOFF2Encode(sfntBytes, DefaultWOFF2EncodeOptions())
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := WOFF2Decode(woff2)
	if err != nil {
		t.Fatal(err)
	}
	after, err := ParseSFNT(decoded, 0)
	if err != nil {
		t.Fatal(err)
	}

	if before.NumGlyphs() != after.NumGlyphs() {
		t.Fatalf("numGlyphs = %d, want %d", after.NumGlyphs(), before.NumGlyphs())
	}
	if before.Hhea.NumberOfHMetrics != after.Hhea.NumberOfHMetrics {
		t.Fatalf("numHMetrics = %d, want %d", after.Hhea.NumberOfHMetrics, before.Hhea.NumberOfHMetrics)
	}
	if len(before.Tables) != len(after.Tables) {
		t.Fatalf("table count = %d, want %d", len(after.Tables), len(before.Tables))
	}
	for tag := range before.Tables {
		if _, ok := after.Tables[tag]; !ok {
			t.Fatalf("table %q missing after round trip", tag)
		}
	}
}

// TestWOFF2GlyfLocaInverse checks testable property 3: per-glyph contour
// endpoints and coordinates must be bit-exact, including across the
// composite glyph in the fixture.
func TestWOFF2GlyfLocaInverse(t *testing.T) {
	sfntBytes := buildTrueTypeFixture()
	before, err := ParseSFNT(sfntBytes, 0)
	if err != nil {
		t.Fatal(err)
	}

	woff2, err := WOFF2Encode(sfntBytes, DefaultWOFF2EncodeOptions())
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := WOFF2Decode(woff2)
	if err != nil {
		t.Fatal(err)
	}
	after, err := ParseSFNT(decoded, 0)
	if err != nil {
		t.Fatal(err)
	}

	if before.NumGlyphs() != after.NumGlyphs() {
		t.Fatalf("numGlyphs mismatch: %d vs %d", before.NumGlyphs(), after.NumGlyphs())
	}
	for gid := uint16(0); gid < before.NumGlyphs(); gid++ {
		wantContour, err := before.Glyf.Contour(gid)
		if err != nil {
			t.Fatalf("glyph %d: original contour: %v", gid, err)
		}
		gotContour, err := after.Glyf.Contour(gid)
		if err != nil {
			t.Fatalf("glyph %d: reconstructed contour: %v", gid, err)
		}
		if len(wantContour.EndPoints) != len(gotContour.EndPoints) {
			t.Fatalf("glyph %d: endpoint count %d, want %d", gid, len(gotContour.EndPoints), len(wantContour.EndPoints))
		}
		for i := range wantContour.EndPoints {
			if wantContour.EndPoints[i] != gotContour.EndPoints[i] {
				t.Fatalf("glyph %d: endpoint %d = %d, want %d", gid, i, gotContour.EndPoints[i], wantContour.EndPoints[i])
			}
		}
		for i := range wantContour.XCoordinates {
			if wantContour.XCoordinates[i] != gotContour.XCoordinates[i] || wantContour.YCoordinates[i] != gotContour.YCoordinates[i] {
				t.Fatalf("glyph %d point %d: got (%d,%d), want (%d,%d)", gid, i,
					gotContour.XCoordinates[i], gotContour.YCoordinates[i],
					wantContour.XCoordinates[i], wantContour.YCoordinates[i])
			}
		}
	}
}

// TestWOFF2HmtxRoundTrip checks testable property 6: the elided LSBs must
// reconstruct bit-exact from the xMin vector the glyf transform produces.
func TestWOFF2HmtxRoundTrip(t *testing.T) {
	sfntBytes := buildTrueTypeFixture()
	before, err := ParseSFNT(sfntBytes, 0)
	if err != nil {
		t.Fatal(err)
	}

	woff2, err := WOFF2Encode(sfntBytes, DefaultWOFF2EncodeOptions())
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := WOFF2Decode(woff2)
	if err != nil {
		t.Fatal(err)
	}
	after, err := ParseSFNT(decoded, 0)
	if err != nil {
		t.Fatal(err)
	}

	for gid := uint16(0); gid < before.NumGlyphs(); gid++ {
		if before.Hmtx.Advance(gid) != after.Hmtx.Advance(gid) {
			t.Fatalf("glyph %d: advanceWidth = %d, want %d", gid, after.Hmtx.Advance(gid), before.Hmtx.Advance(gid))
		}
		if before.Hmtx.LeftSideBearing(gid) != after.Hmtx.LeftSideBearing(gid) {
			t.Fatalf("glyph %d: lsb = %d, want %d", gid, after.Hmtx.LeftSideBearing(gid), before.Hmtx.LeftSideBearing(gid))
		}
	}
}

// TestWOFF2CFFPassThrough checks S2: a CFF-flavored font carries its
// flavor and CFF table through untransformed (glyf/loca only apply to
// TrueType outlines).
func TestWOFF2CFFPassThrough(t *testing.T) {
	cff := []byte{0x01, 0x00, 0x04, 0x01, 0x00, 0x01, 0x01, 0x02}
	tables := map[string][]byte{
		"CFF ": cff,
		"head": minimalHeadForCFF(),
		"hhea": minimalHheaForCFF(1),
		"maxp": minimalMaxpCFF(1),
		"hmtx": minimalHmtxCFF(1),
		"name": minimalName(),
		"post": minimalPostV3(),
	}
	sfntBytes := buildSFNT("OTTO", tables)

	woff2, err := WOFF2Encode(sfntBytes, DefaultWOFF2EncodeOptions())
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := WOFF2Decode(woff2)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ParseSFNT(decoded, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Version != "OTTO" {
		t.Fatalf("flavor = %q, want OTTO", out.Version)
	}
	got, ok := out.Tables["CFF "]
	if !ok {
		t.Fatal("CFF table missing after round trip")
	}
	if string(got) != string(cff) {
		t.Fatalf("CFF table bytes changed across round trip")
	}
}

func minimalHeadForCFF() []byte {
	w := NewBinaryWriter(nil)
	w.WriteUint16(1)
	w.WriteUint16(0)
	w.WriteUint32(0x00010000)
	w.WriteUint32(0)
	w.WriteUint32(0x5F0F3CF5)
	w.WriteUint16(0)
	w.WriteUint16(1000)
	w.WriteInt64(0)
	w.WriteInt64(0)
	w.WriteInt16(0)
	w.WriteInt16(0)
	w.WriteInt16(0)
	w.WriteInt16(0)
	w.WriteUint16(0)
	w.WriteUint16(8)
	w.WriteInt16(2)
	w.WriteInt16(0)
	w.WriteInt16(0)
	return w.Bytes()
}

func minimalHheaForCFF(numHMetrics uint16) []byte {
	w := NewBinaryWriter(nil)
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	for i := 0; i < 15; i++ {
		// ascender, descender, lineGap, advanceWidthMax,
		// minLeftSideBearing, minRightSideBearing, xMaxExtent,
		// caretSlopeRise, caretSlopeRun, caretOffset, 4 reserved,
		// metricDataFormat
		w.WriteInt16(0)
	}
	w.WriteUint16(numHMetrics)
	return w.Bytes()
}

func minimalMaxpCFF(numGlyphs uint16) []byte {
	w := NewBinaryWriter(nil)
	w.WriteUint32(0x00005000)
	w.WriteUint16(numGlyphs)
	return w.Bytes()
}

func minimalHmtxCFF(numHMetrics uint16) []byte {
	w := NewBinaryWriter(nil)
	for i := uint16(0); i < numHMetrics; i++ {
		w.WriteUint16(500)
		w.WriteInt16(0)
	}
	return w.Bytes()
}

func minimalName() []byte {
	w := NewBinaryWriter(nil)
	w.WriteUint16(0)
	w.WriteUint16(0)
	w.WriteUint16(6)
	return w.Bytes()
}

func minimalPostV3() []byte {
	w := NewBinaryWriter(nil)
	w.WriteUint32(0x00030000)
	for i := 0; i < 7; i++ {
		w.WriteUint32(0)
	}
	return w.Bytes()
}
