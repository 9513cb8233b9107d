package font

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"sort"
)

// Specification:
// https://www.w3.org/TR/WOFF/

type woffTable struct {
	tag          string
	offset       uint32
	length       uint32
	origLength   uint32
	origChecksum uint32
}

// ParseWOFF parses the WOFF 1.0 font format and returns its contained SFNT
// font format (TTF or OTF). See https://www.w3.org/TR/WOFF/
func ParseWOFF(b []byte) ([]byte, error) {
	if len(b) < 44 {
		return nil, newTruncatedError(uint32(len(b)), "file shorter than WOFF header")
	}

	r := NewBinaryReader(b)
	signature := r.ReadString(4)
	if signature != "wOFF" {
		return nil, newBadSignatureError(0, signature)
	}
	flavor := r.ReadUint32()
	_ = r.ReadUint32() // length
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()      // reserved
	totalSfntSize := r.ReadUint32() // totalSfntSize
	_ = r.ReadUint16()              // majorVersion
	_ = r.ReadUint16()              // minorVersion
	_ = r.ReadUint32()              // metaOffset
	_ = r.ReadUint32()              // metaLength
	_ = r.ReadUint32()              // metaOrigLength
	_ = r.ReadUint32()              // privOffset
	_ = r.ReadUint32()              // privLength

	frontSize := uint32(12 + 16*int(numTables))
	if r.EOF() || numTables == 0 || r.Len() < frontSize || reserved != 0 {
		return nil, newBadDirectoryError("bad header")
	}

	tables := []woffTable{}
	for i := 0; i < int(numTables); i++ {
		tag := uint32ToString(r.ReadUint32())
		offset := r.ReadUint32()
		compLength := r.ReadUint32()
		origLength := r.ReadUint32()
		origChecksum := r.ReadUint32()
		if uint32(len(b)) < offset+compLength {
			return nil, newBadDirectoryError(tag + ": table extends beyond file")
		}
		if 0 < i && tag < tables[i-1].tag {
			return nil, newBadDirectoryError("tables not sorted alphabetically")
		}
		if origLength < compLength {
			return nil, newBadDirectoryError(tag + ": compressed length exceeds original length")
		}
		tables = append(tables, woffTable{
			tag:          tag,
			offset:       offset,
			length:       compLength,
			origLength:   origLength,
			origChecksum: origChecksum,
		})
	}

	var searchRange uint16 = 1
	var entrySelector uint16
	for {
		if searchRange*2 > numTables {
			break
		}
		searchRange *= 2
		entrySelector++
	}
	searchRange *= 16
	rangeShift := numTables*16 - searchRange

	if err := checkMemoryBudget(totalSfntSize, "woff: totalSfntSize"); err != nil {
		return nil, err
	}
	w := NewBinaryWriter(make([]byte, totalSfntSize))
	w.WriteUint32(flavor)
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)

	sfntOffset := uint32(12 + 16*int(numTables))
	for _, table := range tables {
		w.WriteString(table.tag)
		w.WriteUint32(table.origChecksum)
		w.WriteUint32(sfntOffset)
		w.WriteUint32(table.origLength)
		sfntOffset += table.origLength
		sfntOffset = (sfntOffset + 3) &^ 3 // padding
	}

	var iCheckSumAdjustment uint32
	var checkSumAdjustment uint32
	for _, table := range tables {
		data := b[table.offset : table.offset+table.length : table.offset+table.length]
		if table.length != table.origLength {
			var buf bytes.Buffer
			zr, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, newBadTransformError(table.tag, -1, err.Error())
			}
			if _, err = io.Copy(&buf, zr); err != nil {
				return nil, newBadTransformError(table.tag, -1, err.Error())
			}
			if err = zr.Close(); err != nil {
				return nil, newBadTransformError(table.tag, -1, err.Error())
			}
			data = buf.Bytes()
		}

		if len(data) != int(table.origLength) {
			return nil, newBadTransformError(table.tag, -1, "decompressed length does not match origLength")
		}

		nPadding := (4 - len(data)&3) & 3
		for i := 0; i < nPadding; i++ {
			data = append(data, 0x00)
		}

		if table.tag == "head" {
			if len(data) < 12 {
				return nil, newSfntInvalidError("head", "table too short")
			}
			checkSumAdjustment = binary.BigEndian.Uint32(data[8:])
			iCheckSumAdjustment = w.Len() + 8

			// to check checksum for the head table, replace the overall checksum with zero
			binary.BigEndian.PutUint32(data[8:], 0)
			if calcChecksum(data) != table.origChecksum {
				return nil, newSfntInvalidError(table.tag, "bad checksum")
			}
		} else if calcChecksum(data) != table.origChecksum {
			return nil, newSfntInvalidError(table.tag, "bad checksum")
		}

		w.WriteBytes(data)
	}
	if w.Len() != totalSfntSize {
		return nil, newBadDirectoryError("totalSfntSize does not match reconstructed size")
	}
	if iCheckSumAdjustment == 0 {
		return nil, newSfntInvalidError("head", "missing head table")
	}

	buf := w.Bytes()
	binary.BigEndian.PutUint32(buf[iCheckSumAdjustment:], checkSumAdjustment)
	return buf, nil
}

// WriteWOFF packs an SFNT into the WOFF 1.0 container, zlib-compressing
// each table independently and keeping the original bytes only when
// compression does not shrink them, as real encoders do to avoid wasting a
// byte on tables too small to benefit.
func WriteWOFF(sfnt *SFNT, level int) ([]byte, error) {
	if level < 1 || 9 < level {
		level = 9
	}

	tags := make([]string, 0, len(sfnt.Tables))
	for tag := range sfnt.Tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	type compressed struct {
		orig, comp []byte
	}
	tables := make(map[string]compressed, len(tags))
	for _, tag := range tags {
		orig := sfnt.Tables[tag]
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, newBadTransformError(tag, -1, err.Error())
		}
		if _, err := zw.Write(orig); err != nil {
			return nil, newBadTransformError(tag, -1, err.Error())
		}
		if err := zw.Close(); err != nil {
			return nil, newBadTransformError(tag, -1, err.Error())
		}
		comp := buf.Bytes()
		if len(orig) <= len(comp) {
			comp = orig // store uncompressed when compression doesn't help
		}
		tables[tag] = compressed{orig: orig, comp: comp}
	}

	w := NewBinaryWriter(make([]byte, 0, sfnt.Length))
	w.WriteString("wOFF")
	w.WriteString(sfnt.Version)
	w.WriteUint32(0) // length (set later)
	w.WriteUint16(uint16(len(tags)))
	w.WriteUint16(0) // reserved
	w.WriteUint32(sfnt.Length)
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	w.WriteUint32(0) // metaOffset
	w.WriteUint32(0) // metaLength
	w.WriteUint32(0) // metaOrigLength
	w.WriteUint32(0) // privOffset
	w.WriteUint32(0) // privLength

	offset := uint32(44 + 20*len(tags))
	for _, tag := range tags {
		ct := tables[tag]
		padded := padTo4(ct.orig)
		if tag == "head" && 12 <= len(padded) {
			// the head checksum is taken with checkSumAdjustment zeroed, which is how ParseWOFF verifies it
			padded = append([]byte{}, padded...)
			binary.BigEndian.PutUint32(padded[8:], 0)
		}
		checksum := calcChecksum(padded)

		w.WriteString(tag)
		w.WriteUint32(offset)
		w.WriteUint32(uint32(len(ct.comp)))
		w.WriteUint32(uint32(len(ct.orig)))
		w.WriteUint32(checksum)
		offset += uint32(len(ct.comp))
	}
	for _, tag := range tags {
		w.WriteBytes(tables[tag].comp)
	}

	b := w.Bytes()
	binary.BigEndian.PutUint32(b[8:], uint32(len(b)))
	return b, nil
}

func padTo4(b []byte) []byte {
	padding := (4 - len(b)&3) & 3
	if padding == 0 {
		return b
	}
	padded := make([]byte, len(b)+padding)
	copy(padded, b)
	return padded
}
