package font

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/andybalholm/brotli"
)

// Specification:
// https://www.w3.org/TR/WOFF2/

// Validation tests:
// https://github.com/w3c/woff2-tests

// Other implementations:
// http://git.savannah.gnu.org/cgit/freetype/freetype2.git/tree/src/sfnt/sfwoff2.c
// https://github.com/google/woff2/tree/master/src
// https://github.com/fonttools/fonttools/blob/master/Lib/fontTools/ttLib/woff2.py

type woff2Table struct {
	tag              string
	origLength       uint32
	transformVersion int
	transformLength  uint32
	data             []byte
}

var woff2TableTags = []string{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

// ParseWOFF2 parses the WOFF2 font format and returns its contained SFNT font format (TTF, OTF, or TTC). See https://www.w3.org/TR/WOFF2/
func ParseWOFF2(b []byte) ([]byte, error) {
	if len(b) < 48 {
		return nil, newBadSignatureError(0, "file shorter than WOFF2 header")
	}

	r := NewBinaryReader(b)
	signature := r.ReadString(4)
	if signature != "wOF2" {
		return nil, newBadSignatureError(0, signature)
	}
	flavor := r.ReadUint32()
	isCollection := uint32ToString(flavor) == "ttcf"
	length := r.ReadUint32()              // length
	numTables := r.ReadUint16()           // numTables
	reserved := r.ReadUint16()            // reserved
	totalSfntSize := r.ReadUint32()       // totalSfntSize
	totalCompressedSize := r.ReadUint32() // totalCompressedSize
	_ = r.ReadUint16()                    // majorVersion
	_ = r.ReadUint16()                    // minorVersion
	_ = r.ReadUint32()                    // metaOffset
	_ = r.ReadUint32()                    // metaLength
	_ = r.ReadUint32()                    // metaOrigLength
	_ = r.ReadUint32()                    // privOffset
	_ = r.ReadUint32()                    // privLength
	if r.EOF() {
		return nil, newTruncatedError(r.Pos(), "woff2 header")
	} else if length != uint32(len(b)) {
		return nil, newBadDirectoryError("length in header must match file size")
	} else if numTables == 0 {
		return nil, newBadDirectoryError("numTables in header must not be zero")
	} else if reserved != 0 {
		return nil, newBadDirectoryError("reserved in header must be zero")
	}

	// tags may repeat across entries when the file is a collection: each
	// physical table entry belongs to exactly one sub-font, and two
	// sub-fonts may each carry their own "glyf" entry.
	tables := make([]woff2Table, 0, numTables)
	var uncompressedSize uint32
	for i := 0; i < int(numTables); i++ {
		flags := r.ReadByte()
		tagIndex := int(flags & 0x3F)
		transformVersion := int((flags & 0xC0) >> 6)

		var tag string
		if tagIndex == 63 {
			tag = uint32ToString(r.ReadUint32())
		} else {
			tag = woff2TableTags[tagIndex]
		}

		origLength, err := readUintBase128(r) // if EOF is encountered above
		if err != nil {
			return nil, newBadDirectoryError(fmt.Sprintf("%s: %v", tag, err))
		}

		var transformLength uint32
		if (tag == "glyf" || tag == "loca") && transformVersion == 0 || tag == "hmtx" && transformVersion == 1 {
			transformLength, err = readUintBase128(r)
			if err != nil || tag != "loca" && transformLength == 0 {
				return nil, newBadTransformError(tag, -1, "transformLength must be set")
			}
			if math.MaxUint32-uncompressedSize < transformLength {
				return nil, newBadDirectoryError(tag + ": transformLength overflows uncompressed size")
			}
			uncompressedSize += transformLength
		} else if transformVersion == 0 || transformVersion == 3 && (tag == "glyf" || tag == "loca") {
			if math.MaxUint32-uncompressedSize < origLength {
				return nil, newBadDirectoryError(tag + ": origLength overflows uncompressed size")
			}
			uncompressedSize += origLength
		} else {
			return nil, newBadTransformError(tag, -1, "invalid transformation")
		}

		if tag == "loca" {
			glyfBefore := false
			for _, prev := range tables {
				if prev.tag == "glyf" {
					glyfBefore = true
				}
			}
			if !glyfBefore {
				return nil, newBadDirectoryError("loca: must come after its glyf table")
			}
		}

		tables = append(tables, woff2Table{
			tag:              tag,
			origLength:       origLength,
			transformVersion: transformVersion,
			transformLength:  transformLength,
		})
	}

	// collection directory: one entry per sub-font, each a list of indices
	// into the flat table directory above
	var fontTableIndices [][]int
	var fontFlavors []uint32
	if isCollection {
		_ = r.ReadUint32() // collection header version
		numFonts, err := read255UintOrErr(r)
		if err != nil {
			return nil, newBadDirectoryError("bad collection font count")
		}
		fontTableIndices = make([][]int, numFonts)
		fontFlavors = make([]uint32, numFonts)
		for i := range fontTableIndices {
			numFontTables, err := read255UintOrErr(r)
			if err != nil {
				return nil, newBadDirectoryError("bad collection table count")
			}
			fontFlavors[i] = r.ReadUint32()
			indices := make([]int, numFontTables)
			for j := range indices {
				idx, err := read255UintOrErr(r)
				if err != nil || int(idx) >= len(tables) {
					return nil, newBadDirectoryError("collection table index out of range")
				}
				indices[j] = int(idx)
			}
			fontTableIndices[i] = indices
		}
		if r.EOF() {
			return nil, newTruncatedError(r.Pos(), "woff2 collection directory")
		}
	} else {
		indices := make([]int, len(tables))
		for i := range indices {
			indices[i] = i
		}
		fontTableIndices = [][]int{indices}
		fontFlavors = []uint32{flavor}
	}

	// decompress font data using Brotli
	compData := r.ReadBytes(totalCompressedSize)
	if r.EOF() {
		return nil, newTruncatedError(r.Pos(), "woff2 compressed payload")
	}
	if err := checkMemoryBudget(uncompressedSize, "woff2: uncompressedSize"); err != nil {
		return nil, err
	}
	rBrotli := brotli.NewReader(bytes.NewReader(compData)) // err is always nil
	dataBuf := bytes.NewBuffer(make([]byte, 0, uncompressedSize))
	if _, err := io.Copy(dataBuf, rBrotli); err != nil {
		return nil, newBrotliFailedError(err)
	}
	data := dataBuf.Bytes()
	if uint32(len(data)) != uncompressedSize {
		return nil, newBrotliFailedError(fmt.Errorf("sum of table lengths (%d) does not match decompressed size (%d)", uncompressedSize, len(data)))
	}

	// read font data
	var offset uint32
	for i := range tables {
		if tables[i].tag == "loca" && tables[i].transformVersion == 0 {
			continue // will be reconstructed
		}

		n := tables[i].origLength
		if tables[i].transformLength != 0 {
			n = tables[i].transformLength
		}
		if uint32(len(data))-offset < n {
			return nil, newBadDirectoryError(tables[i].tag + ": table extends beyond decompressed payload")
		}
		tables[i].data = data[offset : offset+n : offset+n]
		offset += n
	}

	// detransform and reassemble each sub-font independently; a "glyf" or
	// "hmtx" entry only ever needs companion tables from its own font
	fontData := make([][]byte, len(fontTableIndices))
	for fi, indices := range fontTableIndices {
		byTag := map[string]int{}
		for _, i := range indices {
			if _, ok := byTag[tables[i].tag]; ok {
				return nil, newBadDirectoryError(fmt.Sprintf("%s: table defined more than once in font %d", tables[i].tag, fi))
			}
			byTag[tables[i].tag] = i
		}

		iGlyf, hasGlyf := byTag["glyf"]
		iLoca, hasLoca := byTag["loca"]
		if hasGlyf != hasLoca || hasGlyf && tables[iGlyf].transformVersion != tables[iLoca].transformVersion {
			return nil, newBadTransformError("glyf/loca", fi, "must both be present and use the same transform")
		}
		if hasLoca && tables[iLoca].transformLength != 0 {
			return nil, newBadTransformError("loca", fi, "transformLength must be zero")
		}

		if hasGlyf {
			if tables[iGlyf].transformVersion == 0 {
				var err error
				tables[iGlyf].data, tables[iLoca].data, err = reconstructGlyfLoca(tables[iGlyf].data, tables[iLoca].origLength)
				if err != nil {
					return nil, newBadTransformError("glyf", fi, err.Error())
				}
				if tables[iLoca].origLength != uint32(len(tables[iLoca].data)) {
					return nil, newBadTransformError("loca", fi, "invalid value for origLength")
				}
			} else {
				rGlyf := NewBinaryReader(tables[iGlyf].data)
				_ = rGlyf.ReadUint32() // version
				numGlyphs := uint32(rGlyf.ReadUint16())
				indexFormat := rGlyf.ReadUint16()
				if rGlyf.EOF() {
					return nil, newTruncatedError(rGlyf.Pos(), "glyf transformed header")
				}
				if indexFormat == 0 && tables[iLoca].origLength != (numGlyphs+1)*2 || indexFormat == 1 && tables[iLoca].origLength != (numGlyphs+1)*4 {
					return nil, newBadTransformError("loca", fi, "invalid value for origLength")
				}
			}
		}

		if iHmtx, hasHmtx := byTag["hmtx"]; hasHmtx && tables[iHmtx].transformVersion == 1 {
			iHead, ok := byTag["head"]
			if !ok {
				return nil, newBadTransformError("hmtx", fi, "head table must be defined in order to rebuild hmtx table")
			}
			if !hasGlyf || !hasLoca {
				return nil, newBadTransformError("hmtx", fi, "glyf and loca tables must be defined in order to rebuild hmtx table")
			}
			iMaxp, ok := byTag["maxp"]
			if !ok {
				return nil, newBadTransformError("hmtx", fi, "maxp table must be defined in order to rebuild hmtx table")
			}
			iHhea, ok := byTag["hhea"]
			if !ok {
				return nil, newBadTransformError("hmtx", fi, "hhea table must be defined in order to rebuild hmtx table")
			}
			var err error
			tables[iHmtx].data, err = reconstructHmtx(tables[iHmtx].data, tables[iHead].data, tables[iGlyf].data, tables[iLoca].data, tables[iMaxp].data, tables[iHhea].data)
			if err != nil {
				return nil, newBadTransformError("hmtx", fi, err.Error())
			}
		}

		// set checkSumAdjustment to zero to enable calculation of table checksum and overal checksum
		// also clear 11th bit in flags field
		iHead, hasHead := byTag["head"]
		if !hasHead || len(tables[iHead].data) < 18 {
			return nil, newBadDirectoryError("head: must be present")
		}
		binary.BigEndian.PutUint32(tables[iHead].data[8:], 0x00000000) // clear checkSumAdjustment
		if flags := binary.BigEndian.Uint16(tables[iHead].data[16:]); flags&0x0800 == 0 {
			return nil, newSfntInvalidError("head", "bit 11 in flags must be set")
		}

		if _, hasDSIG := byTag["DSIG"]; hasDSIG {
			return nil, newSfntInvalidError("DSIG", "must be removed")
		}

		fontNumTables := uint16(len(indices))
		var searchRange uint16 = 1
		var entrySelector uint16
		for {
			if searchRange*2 > fontNumTables {
				break
			}
			searchRange *= 2
			entrySelector++
		}
		searchRange *= 16
		rangeShift := fontNumTables*16 - searchRange

		fontFlavor := fontFlavors[fi]
		tags := make([]string, len(indices))
		for j, i := range indices {
			tags[j] = tables[i].tag
		}
		sort.Strings(tags)

		if err := checkMemoryBudget(totalSfntSize, "woff2: totalSfntSize"); err != nil {
			return nil, err
		}
		w := NewBinaryWriter(make([]byte, 0, totalSfntSize/uint32(len(fontTableIndices))+1024))
		w.WriteUint32(fontFlavor)
		w.WriteUint16(fontNumTables)
		w.WriteUint16(searchRange)
		w.WriteUint16(entrySelector)
		w.WriteUint16(rangeShift)

		sfntOffset := 12 + 16*uint32(fontNumTables)
		for _, tag := range tags {
			i := byTag[tag]
			actualLength := uint32(len(tables[i].data))

			nPadding := (4 - actualLength&3) & 3
			if math.MaxUint32-actualLength < nPadding || math.MaxUint32-actualLength-nPadding < sfntOffset {
				return nil, newBadDirectoryError(tag + ": padded table offset overflows sfnt size")
			}
			for j := 0; j < int(nPadding); j++ {
				tables[i].data = append(tables[i].data, 0x00)
			}

			w.WriteUint32(binary.BigEndian.Uint32([]byte(tables[i].tag)))
			w.WriteUint32(calcChecksum(tables[i].data))
			w.WriteUint32(sfntOffset)
			w.WriteUint32(actualLength)
			sfntOffset += uint32(len(tables[i].data))
		}

		var iCheckSumAdjustment uint32
		for _, tag := range tags {
			if tag == "head" {
				iCheckSumAdjustment = w.Len() + 8
			}
			w.WriteBytes(tables[byTag[tag]].data)
		}

		buf := w.Bytes()
		checkSumAdjustment := 0xB1B0AFBA - calcChecksum(buf)
		binary.BigEndian.PutUint32(buf[iCheckSumAdjustment:], checkSumAdjustment)
		fontData[fi] = buf
	}

	if !isCollection {
		return fontData[0], nil
	}

	// assemble a TrueType Collection container around the sub-fonts; tables
	// shared between fonts via the same directory index are duplicated in
	// the output rather than physically shared, which keeps the offset
	// table a plain array of absolute positions
	headerLength := uint32(12 + 4*len(fontData))
	ttc := NewBinaryWriter(make([]byte, 0, headerLength))
	ttc.WriteString("ttcf")
	ttc.WriteUint16(1) // majorVersion
	ttc.WriteUint16(0) // minorVersion
	ttc.WriteUint32(uint32(len(fontData)))
	offset = headerLength
	for _, fd := range fontData {
		ttc.WriteUint32(offset)
		offset += uint32(len(fd))
	}
	for _, fd := range fontData {
		ttc.WriteBytes(fd)
	}
	return ttc.Bytes(), nil
}

// glyfSubstreams bundles the seven WOFF2 glyf substreams (carved out of the
// single decompressed payload) plus the bbox/overlap bitmaps, so the per-glyph decoders below
// take one cursor set instead of a long positional argument list.
type glyfSubstreams struct {
	nContour    *BinaryReader
	nPoints     *BinaryReader
	flag        *BinaryReader
	glyph       *BinaryReader
	composite   *BinaryReader
	instruction *BinaryReader
	bbox        *BinaryReader
	bboxSet     *BitmapReader
	overlapSet  *BitmapReader // nil when the overlapSimpleBitmap is absent
}

// tripletSign returns the sign a WOFF2 point-triplet flag encodes for the
// coordinate selected by bit: +1 if the bit is set, -1 otherwise.
func tripletSign(flag byte, bit uint) int16 {
	if flag&(1<<bit) != 0 {
		return 1
	}
	return -1
}

// compositeRecordLength returns the total byte length of a glyf composite
// glyph component encoded with the given flags, including the 4-byte
// flags+glyphIndex header, and whether another component follows.
func compositeRecordLength(flags uint16) (length uint32, more bool) {
	length = 4 + 2
	if flags&0x0001 != 0 { // ARG_1_AND_2_ARE_WORDS
		length += 2
	}
	if flags&0x0008 != 0 { // WE_HAVE_A_SCALE
		length += 2
	} else if flags&0x0040 != 0 { // WE_HAVE_AN_X_AND_Y_SCALE
		length += 4
	} else if flags&0x0080 != 0 { // WE_HAVE_A_TWO_BY_TWO
		length += 8
	}
	more = flags&0x0020 != 0 // MORE_COMPONENTS
	return
}

func reconstructGlyfLoca(b []byte, origLocaLength uint32) ([]byte, []byte, error) {
	r := NewBinaryReader(b)
	_ = r.ReadUint16() // version
	optionFlags := r.ReadUint16()
	numGlyphs := r.ReadUint16()
	indexFormat := r.ReadUint16()
	var streamSizes [7]uint32
	for i := range streamSizes {
		streamSizes[i] = r.ReadUint32()
	}
	nContourSize, nPointsSize, flagSize := streamSizes[0], streamSizes[1], streamSizes[2]
	glyphSize, compositeSize, bboxSize, instructionSize := streamSizes[3], streamSizes[4], streamSizes[5], streamSizes[6]
	if r.EOF() || nContourSize != 2*uint32(numGlyphs) {
		return nil, nil, newBadTransformError("glyf", -1, "substream header truncated or nContour size mismatch")
	}

	bitmapSize := ((uint32(numGlyphs) + 31) >> 5) << 2
	streams := &glyfSubstreams{
		nContour:    NewBinaryReader(r.ReadBytes(nContourSize)),
		nPoints:     NewBinaryReader(r.ReadBytes(nPointsSize)),
		flag:        NewBinaryReader(r.ReadBytes(flagSize)),
		glyph:       NewBinaryReader(r.ReadBytes(glyphSize)),
		composite:   NewBinaryReader(r.ReadBytes(compositeSize)),
		bboxSet:     NewBitmapReader(r.ReadBytes(bitmapSize)),
		bbox:        NewBinaryReader(r.ReadBytes(bboxSize - bitmapSize)),
		instruction: NewBinaryReader(r.ReadBytes(instructionSize)),
	}
	if optionFlags&0x0001 != 0 { // overlapSimpleBitmap present
		streams.overlapSet = NewBitmapReader(r.ReadBytes(bitmapSize))
	}
	if r.EOF() {
		return nil, nil, newBadTransformError("glyf", -1, "substream data truncated")
	}

	locaLength := (uint32(numGlyphs) + 1) * 2
	if indexFormat != 0 {
		locaLength *= 2
	}
	if locaLength != origLocaLength {
		return nil, nil, newBadTransformError("loca", -1, "origLength must match numGlyphs+1 entries")
	}

	w := NewBinaryWriter(make([]byte, 0)) // size unknown
	loca := NewBinaryWriter(make([]byte, locaLength))
	markLoca := func() {
		if indexFormat == 0 {
			loca.WriteUint16(uint16(w.Len() >> 1))
		} else {
			loca.WriteUint32(w.Len())
		}
	}

	for iGlyph := uint16(0); iGlyph < numGlyphs; iGlyph++ {
		markLoca()

		hasBbox := streams.bboxSet.Read()       // EOF cannot occur
		nContours := streams.nContour.ReadInt16() // EOF cannot occur

		var err error
		switch {
		case nContours == 0:
			if hasBbox {
				err = newBadTransformError("glyf", -1, "empty glyph cannot have bbox definition")
			}
		case nContours > 0:
			err = decodeSimpleGlyph(w, streams, nContours, hasBbox)
		default:
			err = decodeCompositeGlyph(w, streams, nContours, hasBbox)
		}
		if err != nil {
			return nil, nil, err
		}

		for w.Len()%4 != 0 { // loca entries must be 4-byte aligned
			w.WriteByte(0x00)
		}
	}
	markLoca() // trailing loca entry

	return w.Bytes(), loca.Bytes(), nil
}

// decodeSimpleGlyph decodes one non-empty, non-composite glyph from streams
// and appends its SFNT-form "glyf" record to w. See
// https://www.w3.org/TR/WOFF2/#glyf_table_format for the point-triplet codec.
func decodeSimpleGlyph(w *BinaryWriter, streams *glyfSubstreams, nContours int16, hasBbox bool) error {
	var xMin, yMin, xMax, yMax int16
	if hasBbox {
		xMin = streams.bbox.ReadInt16()
		yMin = streams.bbox.ReadInt16()
		xMax = streams.bbox.ReadInt16()
		yMax = streams.bbox.ReadInt16()
		if streams.bbox.EOF() {
			return newBadTransformError("glyf", -1, "bbox stream truncated")
		}
	}

	var nPoints uint16
	endPts := make([]uint16, nContours)
	for c := int16(0); c < nContours; c++ {
		count := read255Uint16(streams.nPoints)
		if math.MaxUint16-nPoints < count {
			return newBadTransformError("glyf", -1, "point count overflows uint16")
		}
		nPoints += count
		endPts[c] = nPoints - 1
	}
	if streams.nPoints.EOF() {
		return newBadTransformError("glyf", -1, "point count stream truncated")
	}

	var x, y int16
	outlineFlags := make([]byte, 0, nPoints)
	xs := make([]int16, 0, nPoints)
	ys := make([]int16, 0, nPoints)
	for iPoint := uint16(0); iPoint < nPoints; iPoint++ {
		flag := streams.flag.ReadByte()
		onCurve := flag&0x80 == 0
		flag &= 0x7f

		var dx, dy int16
		switch {
		case flag < 10:
			c0 := int16(streams.glyph.ReadByte())
			dy = tripletSign(flag, 0) * (int16(flag&0x0E)<<7 + c0)
		case flag < 20:
			c0 := int16(streams.glyph.ReadByte())
			dx = tripletSign(flag, 0) * (int16((flag-10)&0x0E)<<7 + c0)
		case flag < 84:
			c0 := int16(streams.glyph.ReadByte())
			dx = tripletSign(flag, 0) * (1 + int16((flag-20)&0x30) + c0>>4)
			dy = tripletSign(flag, 1) * (1 + int16((flag-20)&0x0C)<<2 + (c0 & 0x0F))
		case flag < 120:
			c0 := int16(streams.glyph.ReadByte())
			c1 := int16(streams.glyph.ReadByte())
			dx = tripletSign(flag, 0) * (1 + int16((flag-84)/12)<<8 + c0)
			dy = tripletSign(flag, 1) * (1 + (int16((flag-84)%12)>>2)<<8 + c1)
		case flag < 124:
			c0 := int16(streams.glyph.ReadByte())
			c1 := int16(streams.glyph.ReadByte())
			c2 := int16(streams.glyph.ReadByte())
			dx = tripletSign(flag, 0) * (c0<<4 + c1>>4)
			dy = tripletSign(flag, 1) * ((c1&0x0F)<<8 + c2)
		default:
			c0 := int16(streams.glyph.ReadByte())
			c1 := int16(streams.glyph.ReadByte())
			c2 := int16(streams.glyph.ReadByte())
			c3 := int16(streams.glyph.ReadByte())
			dx = tripletSign(flag, 0) * (c0<<8 + c1)
			dy = tripletSign(flag, 1) * (c2<<8 + c3)
		}
		xs = append(xs, dx)
		ys = append(ys, dy)

		var outlineFlag byte
		if onCurve {
			outlineFlag |= 0x01 // ON_CURVE_POINT
		}
		if streams.overlapSet != nil && streams.overlapSet.Read() {
			outlineFlag |= 0x40 // OVERLAP_SIMPLE
		}
		outlineFlags = append(outlineFlags, outlineFlag)

		if !hasBbox {
			if 0 < x && math.MaxInt16-x < dx || x < 0 && dx < math.MinInt16-x ||
				0 < y && math.MaxInt16-y < dy || y < 0 && dy < math.MinInt16-y {
				return newBadTransformError("glyf", -1, "coordinate accumulator overflows int16")
			}
			x += dx
			y += dy
			if iPoint == 0 {
				xMin, xMax = x, x
				yMin, yMax = y, y
			} else {
				if x < xMin {
					xMin = x
				} else if xMax < x {
					xMax = x
				}
				if y < yMin {
					yMin = y
				} else if yMax < y {
					yMax = y
				}
			}
		}
	}
	if streams.flag.EOF() || streams.glyph.EOF() {
		return newBadTransformError("glyf", -1, "flag or glyph stream truncated")
	}

	instructionLength := read255Uint16(streams.glyph)
	instructions := streams.instruction.ReadBytes(uint32(instructionLength))
	if streams.instruction.EOF() {
		return newBadTransformError("glyf", -1, "instruction stream truncated")
	}

	w.WriteInt16(nContours)
	w.WriteInt16(xMin)
	w.WriteInt16(yMin)
	w.WriteInt16(xMax)
	w.WriteInt16(yMax)
	for _, e := range endPts {
		w.WriteUint16(e)
	}
	w.WriteUint16(instructionLength)
	w.WriteBytes(instructions)
	for _, f := range outlineFlags {
		w.WriteByte(f)
	}
	for _, c := range xs {
		w.WriteInt16(c)
	}
	for _, c := range ys {
		w.WriteInt16(c)
	}
	return nil
}

// decodeCompositeGlyph decodes one composite glyph (nContours < 0) from
// streams, scanning its component records via the ARGS_ARE_WORDS /
// MORE_COMPONENTS / WE_HAVE_INSTRUCTIONS flag bits, and appends its
// SFNT-form "glyf" record to w.
func decodeCompositeGlyph(w *BinaryWriter, streams *glyfSubstreams, nContours int16, hasBbox bool) error {
	if !hasBbox {
		return newBadTransformError("glyf", -1, "composite glyph must have bbox definition")
	}

	xMin := streams.bbox.ReadInt16()
	yMin := streams.bbox.ReadInt16()
	xMax := streams.bbox.ReadInt16()
	yMax := streams.bbox.ReadInt16()
	if streams.bbox.EOF() {
		return newBadTransformError("glyf", -1, "bbox stream truncated")
	}

	w.WriteInt16(nContours)
	w.WriteInt16(xMin)
	w.WriteInt16(yMin)
	w.WriteInt16(xMax)
	w.WriteInt16(yMax)

	hasInstructions := false
	for {
		flag := streams.composite.ReadUint16()
		argsAreWords := flag&0x0001 != 0
		haveScale := flag&0x0008 != 0
		moreComponents := flag&0x0020 != 0
		haveXYScales := flag&0x0040 != 0
		have2by2 := flag&0x0080 != 0
		haveInstructions := flag&0x0100 != 0

		n := 4 // glyphIndex (2 bytes) + XY args (at least 2 bytes)
		if argsAreWords {
			n += 2
		}
		if haveScale {
			n += 2
		} else if haveXYScales {
			n += 4
		} else if have2by2 {
			n += 8
		}
		record := streams.composite.ReadBytes(uint32(n))
		if streams.composite.EOF() {
			return newBadTransformError("glyf", -1, "composite stream truncated")
		}

		w.WriteUint16(flag)
		w.WriteBytes(record)

		if haveInstructions {
			hasInstructions = true
		}
		if !moreComponents {
			break
		}
	}

	if hasInstructions {
		instructionLength := read255Uint16(streams.glyph)
		instructions := streams.instruction.ReadBytes(uint32(instructionLength))
		if streams.instruction.EOF() {
			return newBadTransformError("glyf", -1, "instruction stream truncated")
		}
		w.WriteUint16(instructionLength)
		w.WriteBytes(instructions)
	}
	return nil
}

// readLocaOffset reads one loca entry at the cursor's current position,
// scaling a short-format entry (stored as half the byte offset) back up.
func readLocaOffset(r *BinaryReader, indexFormat int16) uint32 {
	if indexFormat != 0 {
		return r.ReadUint32()
	}
	return uint32(r.ReadUint16()) << 1
}

// glyfXMinAt seeks rGlyf to offset and reads the xMin field of the glyph
// header stored there; callers already know numContours is irrelevant to
// the left side bearing and skip past it.
func glyfXMinAt(rGlyf *BinaryReader, offset uint32) (int16, error) {
	rGlyf.Seek(offset)
	_ = rGlyf.ReadInt16() // numberOfContours
	xMin := rGlyf.ReadInt16()
	if rGlyf.EOF() {
		return 0, newBadTransformError("hmtx", -1, "glyf table truncated while reading xMin")
	}
	return xMin, nil
}

func reconstructHmtx(b, head, glyf, loca, maxp, hhea []byte) ([]byte, error) {
	rHead := NewBinaryReader(head)
	_ = rHead.ReadBytes(50) // skip to indexToLocFormat
	indexFormat := rHead.ReadInt16()
	if rHead.EOF() {
		return nil, newBadTransformError("hmtx", -1, "head table truncated")
	}

	rMaxp := NewBinaryReader(maxp)
	_ = rMaxp.ReadUint32() // version
	numGlyphs := rMaxp.ReadUint16()
	if rMaxp.EOF() {
		return nil, newBadTransformError("hmtx", -1, "maxp table truncated")
	}

	rHhea := NewBinaryReader(hhea)
	_ = rHhea.ReadBytes(34) // skip to numberOfHMetrics
	numHMetrics := rHhea.ReadUint16()
	if rHhea.EOF() {
		return nil, newBadTransformError("hmtx", -1, "hhea table truncated")
	} else if numHMetrics < 1 {
		return nil, newBadTransformError("hmtx", -1, "must have at least one entry")
	} else if numGlyphs < numHMetrics {
		return nil, newBadTransformError("hmtx", -1, "more entries than glyphs in glyf")
	}

	locaLength := (uint32(numGlyphs) + 1) * 2
	if indexFormat != 0 {
		locaLength *= 2
	}
	if locaLength != uint32(len(loca)) {
		return nil, newBadTransformError("loca", -1, "length does not match numGlyphs")
	}
	rLoca := NewBinaryReader(loca)

	r := NewBinaryReader(b)
	flags := r.ReadByte()
	reconstructProportional := flags&0x01 != 0
	reconstructMonospaced := flags&0x02 != 0
	if flags&0xFC != 0 {
		return nil, newBadTransformError("hmtx", -1, "reserved bits in flags must be zero")
	} else if !reconstructProportional && !reconstructMonospaced {
		return nil, newBadTransformError("hmtx", -1, "must reconstruct at least one left side bearing array")
	}

	wantLen := 1 + uint32(numHMetrics)*2
	if !reconstructProportional {
		wantLen += uint32(numHMetrics) * 2
	} else if !reconstructMonospaced {
		wantLen += (uint32(numGlyphs) - uint32(numHMetrics)) * 2
	}
	if wantLen != uint32(len(b)) {
		return nil, newBadTransformError("hmtx", -1, "stream size does not match flags byte")
	}

	advanceWidths := make([]uint16, numHMetrics)
	lsbs := make([]int16, numGlyphs)
	for i := uint16(0); i < numHMetrics; i++ {
		advanceWidths[i] = r.ReadUint16()
	}
	if !reconstructProportional {
		for i := uint16(0); i < numHMetrics; i++ {
			lsbs[i] = r.ReadInt16()
		}
	}
	if !reconstructMonospaced {
		for i := numHMetrics; i < numGlyphs; i++ {
			lsbs[i] = r.ReadInt16()
		}
	}

	rGlyf := NewBinaryReader(glyf)
	first, last := uint16(0), numGlyphs
	if !reconstructProportional {
		first = numHMetrics
		skip := 2 * uint32(first)
		if indexFormat != 0 {
			skip *= 2
		}
		_ = rLoca.ReadBytes(skip)
	} else if !reconstructMonospaced {
		last = numHMetrics
	}

	offset := readLocaOffset(rLoca, indexFormat)
	for i := first; i < last; i++ {
		next := readLocaOffset(rLoca, indexFormat)
		if next == offset {
			lsbs[i] = 0
		} else {
			xMin, err := glyfXMinAt(rGlyf, offset)
			if err != nil {
				return nil, err
			}
			lsbs[i] = xMin
		}
		offset = next
	}

	w := NewBinaryWriter(make([]byte, 2*numGlyphs+2*numHMetrics))
	for i := uint16(0); i < numHMetrics; i++ {
		w.WriteUint16(advanceWidths[i])
		w.WriteInt16(lsbs[i])
	}
	for i := numHMetrics; i < numGlyphs; i++ {
		w.WriteInt16(lsbs[i])
	}
	return w.Bytes(), nil
}

// readUintBase128 reads one UIntBase128 varint: 7 payload bits per byte,
// high bit set on every byte but the last, at most 5 bytes, no leading-zero
// byte. See https://www.w3.org/TR/WOFF2/#DataTypes.
func readUintBase128(r *BinaryReader) (uint32, error) {
	var accum uint32
	for i := 0; i < 5; i++ {
		b := r.ReadByte()
		if r.EOF() {
			return 0, newTruncatedError(r.Pos(), "UIntBase128")
		}
		if i == 0 && b == 0x80 {
			return 0, newBadDirectoryError("UIntBase128 has a leading zero byte")
		}
		if accum&0xFE000000 != 0 {
			return 0, newBadDirectoryError("UIntBase128 overflows uint32")
		}
		accum = accum<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return accum, nil
		}
	}
	return 0, newBadDirectoryError("UIntBase128 exceeds 5 bytes")
}

func read255Uint16(r *BinaryReader) uint16 {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	code := r.ReadByte()
	if code == 253 {
		return r.ReadUint16()
	} else if code == 255 {
		return uint16(r.ReadByte()) + 253
	} else if code == 254 {
		return uint16(r.ReadByte()) + 253*2
	} else {
		return uint16(code)
	}
}

// read255UintOrErr is read255Uint16 with an explicit EOF check, for callers
// in the collection directory that cannot tolerate silent zero-fill.
func read255UintOrErr(r *BinaryReader) (uint16, error) {
	v := read255Uint16(r)
	if r.EOF() {
		return 0, newTruncatedError(r.Pos(), "255UShort")
	}
	return v, nil
}

// woff2TagIndex returns tag's index into woff2TableTags, or -1 if tag is
// not one of the 63 well-known tags and must be spelled out in the
// directory entry.
func woff2TagIndex(tag string) int {
	for i, known := range woff2TableTags {
		if known == tag {
			return i
		}
	}
	return -1
}

// woff2GlyfHmtxTransforms applies the glyf/loca and hmtx transforms to sfnt
// ahead of encoding, returning nil for either when the font lacks the
// tables the transform needs (the caller then stores the table untransformed).
func woff2GlyfHmtxTransforms(sfnt *SFNT) (glyf, hmtx []byte) {
	_, hasGlyf := sfnt.Tables["glyf"]
	_, hasLoca := sfnt.Tables["loca"]
	_, hasHmtx := sfnt.Tables["hmtx"]
	if !hasGlyf || !hasLoca {
		return nil, nil
	}
	var xMins []int16
	glyf, xMins = transformGlyf(sfnt.NumGlyphs(), sfnt.Glyf, sfnt.Loca)
	if glyf != nil && hasHmtx {
		hmtx = transformHmtx(sfnt.Hmtx, xMins)
	}
	return glyf, hmtx
}

func (sfnt *SFNT) WriteWOFF2(quality int) ([]byte, error) {
	tags := make([]string, 0, len(sfnt.Tables))
	for tag := range sfnt.Tables {
		if tag != "DSIG" {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	glyf, hmtx := woff2GlyfHmtxTransforms(sfnt)

	w := NewBinaryWriter(make([]byte, sfnt.Length*6/10)) // rough estimate, grows as needed
	w.WriteString("wOF2")
	w.WriteString(sfnt.Version)
	w.WriteUint32(0) // length, patched in below once known
	w.WriteUint16(uint16(len(tags)))
	w.WriteUint16(0) // reserved
	w.WriteUint32(sfnt.Length)
	w.WriteUint32(0) // totalCompressedSize, patched in below
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	for i := 0; i < 5; i++ {
		w.WriteUint32(0) // metaOffset, metaLength, metaOrigLength, privOffset, privLength
	}

	for _, tag := range tags {
		transformVersion := 0
		switch {
		case glyf == nil && (tag == "glyf" || tag == "loca"):
			transformVersion = 3
		case hmtx != nil && tag == "hmtx":
			transformVersion = 1
		}

		tagIndex := woff2TagIndex(tag)
		w.WriteUint8(byte(transformVersion)<<6 | byte(tagIndex)&0x3F)
		if tagIndex == -1 {
			w.WriteString(tag)
		}
		writeUintBase128(w, uint32(len(sfnt.Tables[tag])))

		switch {
		case glyf != nil && tag == "glyf":
			writeUintBase128(w, uint32(len(glyf)))
		case glyf != nil && tag == "loca":
			writeUintBase128(w, 0)
		case hmtx != nil && tag == "hmtx":
			writeUintBase128(w, uint32(len(hmtx)))
		}
	}

	directoryLength := w.Len()
	brotliWriter := brotli.NewWriterLevel(w, quality)
	for _, tag := range tags {
		table := sfnt.Tables[tag]
		switch {
		case tag == "head":
			head := make([]byte, len(table))
			copy(head, table)
			flags := binary.BigEndian.Uint16(head[16:]) | 0x0800 // font is WOFF2-compressed
			binary.BigEndian.PutUint16(head[16:], flags)
			table = head
		case glyf != nil && tag == "glyf":
			table = glyf
		case glyf != nil && tag == "loca":
			continue // loca is reconstructed from glyf on decode, not stored
		case hmtx != nil && tag == "hmtx":
			table = hmtx
		}
		if _, err := brotliWriter.Write(table); err != nil {
			return nil, newBrotliFailedError(err)
		}
	}
	if err := brotliWriter.Close(); err != nil {
		return nil, newBrotliFailedError(err)
	}
	compressedSize := w.Len() - directoryLength

	// the WOFF2 spec never requires the file itself to end on a 4-byte
	// boundary, but some consumers choke on an unaligned file; the padding
	// bytes are appended after compressedSize is captured so they are not
	// counted as part of the Brotli payload.
	for w.Len()%4 != 0 {
		w.WriteByte(0)
	}

	out := w.Bytes()
	binary.BigEndian.PutUint32(out[8:], uint32(len(out)))
	binary.BigEndian.PutUint32(out[20:], compressedSize)
	return out, nil
}

// WriteWOFF2Collection packs several fonts into a single WOFF2 container
// with a "ttcf" flavor, as used for TrueType Collections. Each font's tables
// are transformed independently, exactly as in WriteWOFF2; no table sharing
// is attempted between fonts, so a table common to every font (as is often
// the case for "cmap") is stored once per font rather than once overall.
func WriteWOFF2Collection(sfnts []*SFNT, quality int) ([]byte, error) {
	if len(sfnts) == 0 {
		return nil, fmt.Errorf("WriteWOFF2Collection: no fonts given")
	}

	type fontTables struct {
		tags []string
		glyf []byte
		hmtx []byte
	}
	fonts := make([]fontTables, len(sfnts))
	var totalSfntSize uint32
	numTables := 0
	for fi, sfnt := range sfnts {
		tags := make([]string, 0, len(sfnt.Tables))
		for tag := range sfnt.Tables {
			if tag == "DSIG" {
				continue
			}
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		glyf, hmtx := woff2GlyfHmtxTransforms(sfnt)
		fonts[fi] = fontTables{tags: tags, glyf: glyf, hmtx: hmtx}
		numTables += len(tags)
		totalSfntSize += sfnt.Length
	}

	w := NewBinaryWriter(make([]byte, 0, totalSfntSize*6/10))
	w.WriteString("wOF2")       // signature
	w.WriteString("ttcf")       // flavor
	w.WriteUint32(0)            // length (set later)
	w.WriteUint16(uint16(numTables))
	w.WriteUint16(0)            // reserved
	w.WriteUint32(totalSfntSize)
	w.WriteUint32(0) // totalCompressedSize (set later)
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	w.WriteUint32(0) // metaOffset
	w.WriteUint32(0) // metaLength
	w.WriteUint32(0) // metaOrigLength
	w.WriteUint32(0) // privOffset
	w.WriteUint32(0) // privLength

	flatIndex := make([][]int, len(sfnts)) // index of each font's tags into the flat directory
	idx := 0
	for fi, sfnt := range sfnts {
		ft := fonts[fi]
		flatIndex[fi] = make([]int, len(ft.tags))
		for ti, tag := range ft.tags {
			flatIndex[fi][ti] = idx
			idx++

			tagIndex := woff2TagIndex(tag)

			transformVersion := 0
			if ft.glyf == nil && (tag == "glyf" || tag == "loca") {
				transformVersion = 3
			} else if ft.hmtx != nil && tag == "hmtx" {
				transformVersion = 1
			}
			w.WriteUint8(byte(transformVersion)<<6 | byte(tagIndex)&0x3F) // flags
			if tagIndex == -1 {
				w.WriteString(tag)
			}
			writeUintBase128(w, uint32(len(sfnt.Tables[tag])))
			if ft.glyf != nil && tag == "glyf" {
				writeUintBase128(w, uint32(len(ft.glyf)))
			} else if ft.glyf != nil && tag == "loca" {
				writeUintBase128(w, 0)
			} else if ft.hmtx != nil && tag == "hmtx" {
				writeUintBase128(w, uint32(len(ft.hmtx)))
			}
		}
	}

	// collection directory
	w.WriteUint32(0x00020000) // collection header version
	write255Uint16(w, uint16(len(sfnts)))
	for fi, sfnt := range sfnts {
		ft := fonts[fi]
		write255Uint16(w, uint16(len(ft.tags)))
		w.WriteString(sfnt.Version)
		for _, i := range flatIndex[fi] {
			write255Uint16(w, uint16(i))
		}
	}

	headerLength := w.Len()
	wBrotli := brotli.NewWriterLevel(w, quality)
	for fi, sfnt := range sfnts {
		ft := fonts[fi]
		for _, tag := range ft.tags {
			table := sfnt.Tables[tag]
			if tag == "head" {
				head := make([]byte, len(table))
				copy(head, table)
				flags := binary.BigEndian.Uint16(head[16:])
				flags |= 0x0800
				binary.BigEndian.PutUint16(head[16:], flags)
				table = head
			} else if ft.glyf != nil && tag == "glyf" {
				table = ft.glyf
			} else if ft.glyf != nil && tag == "loca" {
				continue
			} else if ft.hmtx != nil && tag == "hmtx" {
				table = ft.hmtx
			}
			if _, err := wBrotli.Write(table); err != nil {
				return nil, err
			}
		}
	}
	if err := wBrotli.Close(); err != nil {
		return nil, err
	}

	totalCompressedSize := w.Len() - headerLength
	padding := (4 - w.Len()&3) & 3
	for i := 0; i < int(padding); i++ {
		w.WriteByte(0)
	}

	b := w.Bytes()
	binary.BigEndian.PutUint32(b[8:], uint32(len(b)))
	binary.BigEndian.PutUint32(b[20:], uint32(totalCompressedSize))
	return b, nil
}

func transformGlyf(numGlyphs uint16, glyf *glyfTable, loca *locaTable) ([]byte, []int16) {
	bitmapSize := ((uint32(numGlyphs) + 31) >> 5) << 2
	nContourStream := NewBinaryWriter([]byte{})
	nPointsStream := NewBinaryWriter([]byte{})
	flagStream := NewBinaryWriter([]byte{})
	glyphStream := NewBinaryWriter([]byte{})
	compositeStream := NewBinaryWriter([]byte{})
	bboxBitmapStream := NewBitmapWriter(make([]byte, bitmapSize))
	bboxStream := NewBinaryWriter([]byte{})
	instructionStream := NewBinaryWriter([]byte{})
	overlapSimpleStream := NewBitmapWriter(make([]byte, bitmapSize))

	var optionFlags uint16
	xMins := make([]int16, numGlyphs)
	for glyphID := 0; glyphID < int(numGlyphs); glyphID++ {
		// simple glyphs are split into the point streams; composite glyphs
		// are copied record by record into the composite stream
		bboxEqual := false
		hasOverlap := false
		var xMin, yMin, xMax, yMax int16
		if !glyf.IsComposite(uint16(glyphID)) {
			// simple glyph
			contour, err := glyf.Contour(uint16(glyphID))
			if err != nil {
				return nil, nil
			} else if len(contour.EndPoints) == 0 {
				// empty glyph
				nContourStream.WriteInt16(0)
				bboxBitmapStream.Write(false)
				continue
			}
			xMins[glyphID] = contour.XMin

			// nContour and nPoints streams
			nContourStream.WriteInt16(int16(len(contour.EndPoints)))
			for i, endPoint := range contour.EndPoints {
				if 0 < i {
					endPoint -= contour.EndPoints[i-1]
				} else {
					endPoint++
				}
				write255Uint16(nPointsStream, endPoint)
			}

			// glyph, flag, and overlapSimple streams
			for i := range contour.XCoordinates {
				dx, dy := contour.XCoordinates[i], contour.YCoordinates[i]
				if 0 < i {
					dx -= contour.XCoordinates[i-1]
					dy -= contour.YCoordinates[i-1]
				}
				dxSign, dySign := byte(1), byte(1)
				if dx < 0 {
					dxSign = 0
					dx = -dx
				}
				if dy < 0 {
					dySign = 0
					dy = -dy
				}

				var flag byte
				if dx == 0 && dy < 1280 {
					// also dx==0 and dy==0
					delta := dy >> 8
					flag = byte(delta<<1) + dySign
					glyphStream.WriteByte(byte(dy - (delta << 8)))
				} else if dx < 1280 && dy == 0 {
					delta := dx >> 8
					flag = 10 + byte(delta<<1) + dxSign
					glyphStream.WriteByte(byte(dx - (delta << 8)))
				} else if dx < 65 && dy < 65 {
					deltax := (dx - 1) >> 4
					deltay := (dy - 1) >> 4
					flag = 20 + byte(deltax<<4) + byte(deltay<<2) + (dySign << 1) + dxSign
					glyphStream.WriteByte(byte(dx-1-(deltax<<4))<<4 | byte(dy-1-(deltay<<4)))
				} else if dx < 769 && dy < 769 {
					deltax := (dx - 1) >> 8
					deltay := (dy - 1) >> 8
					flag = 84 + byte(deltax<<2)*3 + byte(deltay<<2) + (dySign << 1) + dxSign
					glyphStream.WriteByte(byte(dx - 1 - (deltax << 8)))
					glyphStream.WriteByte(byte(dy - 1 - (deltay << 8)))
				} else if dx < 4096 && dy < 4096 {
					flag = 120 + (dySign << 1) + dxSign
					glyphStream.WriteByte(byte(dx & 0x0FF0 >> 4))
					glyphStream.WriteByte(byte(dx&0x000F)<<4 | byte(dy&0x0F00>>8))
					glyphStream.WriteByte(byte(dy & 0x00FF))
				} else {
					flag = 124 + (dySign << 1) + dxSign
					glyphStream.WriteInt16(dx)
					glyphStream.WriteInt16(dy)
				}
				if dxSign == 0 {
					dx = -dx
				}
				if dySign == 0 {
					dy = -dy
				}

				if !contour.OnCurve[i] {
					flag |= 0x80
				}
				flagStream.WriteByte(flag)
				if i == 0 && contour.OverlapSimple[i] {
					hasOverlap = true
					optionFlags |= 0x01
				}
			}

			// bbox streams
			xMin, xMax = contour.XCoordinates[0], contour.XCoordinates[0]
			yMin, yMax = contour.YCoordinates[0], contour.YCoordinates[0]
			for _, x := range contour.XCoordinates[1:] {
				if x < xMin {
					xMin = x
				}
				if xMax < x {
					xMax = x
				}
			}
			if xMin == contour.XMin && xMax == contour.XMax {
				for _, y := range contour.YCoordinates[1:] {
					if y < yMin {
						yMin = y
					}
					if yMax < y {
						yMax = y
					}
				}
				if yMin == contour.YMin && yMax == contour.YMax {
					bboxEqual = true
				} else {
					xMin, xMax = contour.XMin, contour.XMax
					yMin, yMax = contour.YMin, contour.YMax
				}
			}

			// instruction stream
			write255Uint16(glyphStream, uint16(len(contour.Instructions)))
			instructionStream.WriteBytes(contour.Instructions)
		} else {
			// composite glyph
			r := NewBinaryReader(glyf.Get(uint16(glyphID)))
			_ = r.ReadInt16() // numberOfContours
			xMin = r.ReadInt16()
			yMin = r.ReadInt16()
			xMax = r.ReadInt16()
			yMax = r.ReadInt16()
			xMins[glyphID] = xMin

			hasInstructions := false
			for {
				flags := r.ReadUint16()
				length, more := compositeRecordLength(flags)
				if flags&0x0100 != 0 {
					hasInstructions = true
				}

				compositeStream.WriteUint16(flags)
				compositeStream.WriteBytes(r.ReadBytes(length - 2))
				if !more {
					break
				}
			}
			if hasInstructions {
				instructionLength := r.ReadUint16()
				write255Uint16(glyphStream, instructionLength)
				instructionStream.WriteBytes(r.ReadBytes(uint32(instructionLength)))
			}
		}

		bboxBitmapStream.Write(!bboxEqual)
		if !bboxEqual {
			bboxStream.WriteInt16(xMin)
			bboxStream.WriteInt16(yMin)
			bboxStream.WriteInt16(xMax)
			bboxStream.WriteInt16(yMax)
		}

		overlapSimpleStream.Write(hasOverlap)
	}

	n := uint32(36)
	n += nContourStream.Len() + nPointsStream.Len()
	n += flagStream.Len() + glyphStream.Len() + compositeStream.Len()
	n += bboxBitmapStream.Len() + bboxStream.Len() + instructionStream.Len()
	if optionFlags&0x01 != 0 {
		n += overlapSimpleStream.Len()
	}
	w := NewBinaryWriter(make([]byte, 0, n))
	w.WriteUint16(0) // reserved
	w.WriteUint16(optionFlags)
	w.WriteUint16(numGlyphs)
	w.WriteUint16(uint16(loca.Format))
	w.WriteUint32(nContourStream.Len())
	w.WriteUint32(nPointsStream.Len())
	w.WriteUint32(flagStream.Len())
	w.WriteUint32(glyphStream.Len())
	w.WriteUint32(compositeStream.Len())
	w.WriteUint32(bboxBitmapStream.Len() + bboxStream.Len())
	w.WriteUint32(instructionStream.Len())
	w.WriteBytes(nContourStream.Bytes())
	w.WriteBytes(nPointsStream.Bytes())
	w.WriteBytes(flagStream.Bytes())
	w.WriteBytes(glyphStream.Bytes())
	w.WriteBytes(compositeStream.Bytes())
	w.WriteBytes(bboxBitmapStream.Bytes())
	w.WriteBytes(bboxStream.Bytes())
	w.WriteBytes(instructionStream.Bytes())
	if optionFlags&0x01 != 0 {
		w.WriteBytes(overlapSimpleStream.Bytes())
	}
	return w.Bytes(), xMins
}

func transformHmtx(hmtx *hmtxTable, xMins []int16) []byte {
	if len(xMins) != len(hmtx.HMetrics)+len(hmtx.LeftSideBearings) {
		return nil
	}

	omitLSBs, omitLeftSideBearings := true, true
	for i, hmetrics := range hmtx.HMetrics {
		if hmetrics.LeftSideBearing != xMins[i] {
			omitLSBs = false
			break
		}
	}
	for i, leftSideBearing := range hmtx.LeftSideBearings {
		if leftSideBearing != xMins[+len(hmtx.HMetrics)+i] {
			omitLeftSideBearings = false
			break
		}
	}
	if !omitLSBs && !omitLeftSideBearings {
		return nil
	}

	var flags byte
	n := 1 + len(hmtx.HMetrics)*2
	if !omitLSBs {
		n += len(hmtx.HMetrics) * 2
	} else {
		flags |= 0x01
	}
	if !omitLeftSideBearings {
		n += len(hmtx.LeftSideBearings) * 2
	} else {
		flags |= 0x02
	}

	w := NewBinaryWriter(make([]byte, 0, n))
	w.WriteUint8(flags)
	for _, hmetrics := range hmtx.HMetrics {
		w.WriteUint16(hmetrics.AdvanceWidth)
	}
	if !omitLSBs {
		for _, hmetrics := range hmtx.HMetrics {
			w.WriteInt16(hmetrics.LeftSideBearing)
		}
	}
	if !omitLeftSideBearings {
		for _, leftSideBearing := range hmtx.LeftSideBearings {
			w.WriteInt16(leftSideBearing)
		}
	}
	return w.Bytes()
}

func writeUintBase128(w *BinaryWriter, accum uint32) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	if accum == 0 {
		w.WriteByte(0)
	}
	written := false
	for i := 4; 0 <= i; i-- {
		mask := uint32(0x7F) << (i * 7)
		if v := accum & mask; written || v != 0 {
			v >>= i * 7
			if i != 0 {
				v |= 0x80
			}
			w.WriteByte(byte(v))
			written = true
		}
	}
}

func write255Uint16(w *BinaryWriter, val uint16) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	if val < 253 {
		w.WriteByte(byte(val))
	} else if val < 256+253 {
		w.WriteByte(255)
		w.WriteByte(byte(val - 253))
	} else if val < 256+253*2 {
		w.WriteByte(254)
		w.WriteByte(byte(val - 253*2))
	} else {
		w.WriteByte(253)
		w.WriteUint16(val)
	}
}
