package font

import (
	"encoding/binary"
)

// buildSFNT assembles a complete SFNT byte stream from a set of already
// encoded table bodies: it lays out the directory in tag order, pads each
// table to a 4-byte boundary, computes per-table and head.checkSumAdjustment
// checksums, and returns the finished file. It mirrors the bookkeeping
// ParseWOFF2 performs in reverse, so a file built here exercises exactly the
// invariants the decoder checks.
func buildSFNT(version string, tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	for i := 1; i < len(tags); i++ {
		for j := i; 0 < j && tags[j-1] > tags[j]; j-- {
			tags[j-1], tags[j] = tags[j], tags[j-1]
		}
	}

	numTables := uint16(len(tags))
	var searchRange uint16 = 1
	var entrySelector uint16
	for searchRange*2 <= numTables {
		searchRange *= 2
		entrySelector++
	}
	searchRange *= 16
	rangeShift := numTables*16 - searchRange

	w := NewBinaryWriter(make([]byte, 0, 1024))
	w.WriteString(version)
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)

	type entry struct {
		tag    string
		padded []byte
		offset uint32
	}
	offset := uint32(12 + 16*int(numTables))
	entries := make([]entry, len(tags))
	for i, tag := range tags {
		padded := padTo4(tables[tag])
		entries[i] = entry{tag: tag, padded: padded, offset: offset}
		offset += uint32(len(padded))
	}

	for _, e := range entries {
		w.WriteString(e.tag)
		w.WriteUint32(calcChecksum(e.padded))
		w.WriteUint32(e.offset)
		w.WriteUint32(uint32(len(tables[e.tag])))
	}

	var headOffset uint32
	for _, e := range entries {
		if e.tag == "head" {
			headOffset = w.Len() + 8
		}
		w.WriteBytes(e.padded)
	}

	buf := w.Bytes()
	checkSumAdjustment := 0xB1B0AFBA - calcChecksum(buf)
	binary.BigEndian.PutUint32(buf[headOffset:], checkSumAdjustment)
	return buf
}

// buildTrueTypeFixture returns a minimal but structurally complete
// TrueType SFNT: three glyphs (an empty glyph, a triangle, and a composite
// glyph referencing the triangle), laid out so that the triangle's bounding
// box is computable from its points and the composite's LSB equals its
// xMin, exercising both the bbox-elision and hmtx-elision paths of the
// glyf/loca and hmtx transforms.
func buildTrueTypeFixture() []byte {
	const numGlyphs = 3
	const numHMetrics = 3

	// glyph 1: a triangle (0,0)-(100,0)-(50,100), all on-curve, stored with
	// full int16 deltas (no short-vector flags) to keep the byte layout
	// obvious to a reader.
	glyph1 := NewBinaryWriter(nil)
	glyph1.WriteInt16(1)   // numberOfContours
	glyph1.WriteInt16(0)   // xMin
	glyph1.WriteInt16(0)   // yMin
	glyph1.WriteInt16(100) // xMax
	glyph1.WriteInt16(100) // yMax
	glyph1.WriteUint16(2)  // endPtsOfContours[0]
	glyph1.WriteUint16(0)  // instructionLength
	glyph1.WriteByte(0x01) // flags: on-curve, no short vectors
	glyph1.WriteByte(0x01)
	glyph1.WriteByte(0x01)
	glyph1.WriteInt16(0) // x deltas: 0, 100, -50
	glyph1.WriteInt16(100)
	glyph1.WriteInt16(-50)
	glyph1.WriteInt16(0) // y deltas: 0, 0, 100
	glyph1.WriteInt16(0)
	glyph1.WriteInt16(100)
	glyph1Bytes := glyph1.Bytes()
	if len(glyph1Bytes)%2 != 0 {
		glyph1Bytes = append(glyph1Bytes, 0x00) // loca format 0 needs even offsets
	}

	// glyph 2: a composite that places glyph 1 at (10, 20).
	glyph2 := NewBinaryWriter(nil)
	glyph2.WriteInt16(-1) // numberOfContours: composite
	glyph2.WriteInt16(10) // xMin = glyph1.xMin + dx
	glyph2.WriteInt16(20) // yMin
	glyph2.WriteInt16(110)
	glyph2.WriteInt16(120)
	glyph2.WriteUint16(0x0003) // ARGS_ARE_WORDS | ARGS_ARE_XY_VALUES
	glyph2.WriteUint16(1)      // glyphIndex
	glyph2.WriteInt16(10)      // dx
	glyph2.WriteInt16(20)      // dy
	glyph2Bytes := glyph2.Bytes()

	glyf := NewBinaryWriter(nil)
	glyf.WriteBytes(glyph1Bytes)
	glyf.WriteBytes(glyph2Bytes)

	loca := NewBinaryWriter(nil)
	loca.WriteUint16(0)                                   // glyph 0 (empty) starts at 0
	loca.WriteUint16(0)                                   // glyph 1 starts at 0
	loca.WriteUint16(uint16(len(glyph1Bytes) / 2))         // glyph 2 starts here
	loca.WriteUint16(uint16((len(glyph1Bytes) + len(glyph2Bytes)) / 2)) // end

	head := NewBinaryWriter(nil)
	head.WriteUint16(1) // majorVersion
	head.WriteUint16(0) // minorVersion
	head.WriteUint32(0x00010000) // fontRevision
	head.WriteUint32(0)          // checkSumAdjustment, patched by buildSFNT
	head.WriteUint32(0x5F0F3CF5) // magicNumber
	head.WriteUint16(0)          // flags
	head.WriteUint16(1000)       // unitsPerEm
	head.WriteInt64(0)           // created
	head.WriteInt64(0)           // modified
	head.WriteInt16(0)           // xMin
	head.WriteInt16(0)           // yMin
	head.WriteInt16(110)         // xMax
	head.WriteInt16(120)         // yMax
	head.WriteUint16(0)          // macStyle
	head.WriteUint16(8)          // lowestRecPPEM
	head.WriteInt16(2)           // fontDirectionHint
	head.WriteInt16(0)           // indexToLocFormat: short
	head.WriteInt16(0)           // glyphDataFormat

	hhea := NewBinaryWriter(nil)
	hhea.WriteUint16(1) // majorVersion
	hhea.WriteUint16(0) // minorVersion
	hhea.WriteInt16(800)
	hhea.WriteInt16(-200)
	hhea.WriteInt16(0)
	hhea.WriteUint16(100)
	hhea.WriteInt16(0)
	hhea.WriteInt16(0)
	hhea.WriteInt16(100)
	hhea.WriteInt16(1)
	hhea.WriteInt16(0)
	hhea.WriteInt16(0)
	hhea.WriteInt16(0) // reserved x4
	hhea.WriteInt16(0)
	hhea.WriteInt16(0)
	hhea.WriteInt16(0)
	hhea.WriteInt16(0)                 // metricDataFormat
	hhea.WriteUint16(numHMetrics) // numberOfHMetrics

	maxp := NewBinaryWriter(nil)
	maxp.WriteUint32(0x00010000)
	maxp.WriteUint16(numGlyphs)
	maxp.WriteUint16(3) // maxPoints
	maxp.WriteUint16(1) // maxContours
	maxp.WriteUint16(3) // maxCompositePoints
	maxp.WriteUint16(1) // maxCompositeContours
	maxp.WriteUint16(0) // maxZones
	maxp.WriteUint16(0) // maxTwilightPoints
	maxp.WriteUint16(0) // maxStorage
	maxp.WriteUint16(0) // maxFunctionDefs
	maxp.WriteUint16(0) // maxInstructionDefs
	maxp.WriteUint16(1) // maxStackElements
	maxp.WriteUint16(0) // maxSizeOfInstructions
	maxp.WriteUint16(1) // maxComponentElements
	maxp.WriteUint16(1) // maxComponentDepth

	hmtx := NewBinaryWriter(nil)
	hmtx.WriteUint16(0) // glyph 0: advanceWidth
	hmtx.WriteInt16(0)  // glyph 0: lsb
	hmtx.WriteUint16(100)
	hmtx.WriteInt16(0) // glyph 1 lsb == xMin
	hmtx.WriteUint16(100)
	hmtx.WriteInt16(10) // glyph 2 lsb == xMin

	name := NewBinaryWriter(nil)
	name.WriteUint16(0) // version
	name.WriteUint16(0) // count
	name.WriteUint16(6) // storageOffset

	post := NewBinaryWriter(nil)
	post.WriteUint32(0x00030000) // version: no glyph names
	post.WriteInt32(0)           // italicAngle
	post.WriteInt16(0)           // underlinePosition
	post.WriteInt16(0)           // underlineThickness
	post.WriteUint32(0)          // isFixedPitch
	post.WriteUint32(0)          // minMemType42
	post.WriteUint32(0)          // maxMemType42
	post.WriteUint32(0)          // minMemType1
	post.WriteUint32(0)          // maxMemType1

	tables := map[string][]byte{
		"glyf": glyf.Bytes(),
		"loca": loca.Bytes(),
		"head": head.Bytes(),
		"hhea": hhea.Bytes(),
		"maxp": maxp.Bytes(),
		"hmtx": hmtx.Bytes(),
		"name": name.Bytes(),
		"post": post.Bytes(),
	}
	return buildSFNT("\x00\x01\x00\x00", tables)
}
