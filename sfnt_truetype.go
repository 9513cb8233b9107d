package font

import (
	"encoding/binary"
	"fmt"
	"strings"
)

////////////////////////////////////////////////////////////////

type glyfContour struct {
	GlyphID                uint16
	XMin, YMin, XMax, YMax int16
	EndPoints              []uint16
	Instructions           []byte
	OnCurve                []bool
	OverlapSimple          []bool
	XCoordinates           []int16
	YCoordinates           []int16
}

func (contour *glyfContour) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Glyph %v:\n", contour.GlyphID)
	fmt.Fprintf(&b, "  Contours: %v\n", len(contour.EndPoints))
	fmt.Fprintf(&b, "  XMin: %v\n", contour.XMin)
	fmt.Fprintf(&b, "  YMin: %v\n", contour.YMin)
	fmt.Fprintf(&b, "  XMax: %v\n", contour.XMax)
	fmt.Fprintf(&b, "  YMax: %v\n", contour.YMax)
	fmt.Fprintf(&b, "  EndPoints: %v\n", contour.EndPoints)
	fmt.Fprintf(&b, "  Instruction length: %v\n", len(contour.Instructions))
	if len(contour.EndPoints) == 0 {
		fmt.Fprintf(&b, "  Empty glyph\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  Coordinates:\n")
	for i := 0; i <= int(contour.EndPoints[len(contour.EndPoints)-1]); i++ {
		fmt.Fprintf(&b, "    ")
		if i < len(contour.XCoordinates) {
			fmt.Fprintf(&b, "%8v", contour.XCoordinates[i])
		} else {
			fmt.Fprintf(&b, "  ----  ")
		}
		if i < len(contour.YCoordinates) {
			fmt.Fprintf(&b, " %8v", contour.YCoordinates[i])
		} else {
			fmt.Fprintf(&b, "   ----  ")
		}
		if i < len(contour.OnCurve) {
			onCurve := "Off"
			if contour.OnCurve[i] {
				onCurve = "On"
			}
			fmt.Fprintf(&b, " %3v\n", onCurve)
		} else {
			fmt.Fprintf(&b, " ---\n")
		}
	}
	return b.String()
}

type glyfTable struct {
	data []byte
	loca *locaTable
}

// Get returns the raw glyph outline data for glyphID, or nil if the glyph
// index is out of range.
func (glyf *glyfTable) Get(glyphID uint16) []byte {
	start, startOK := glyf.loca.Get(glyphID)
	end, endOK := glyf.loca.Get(glyphID + 1)
	if !startOK || !endOK {
		return nil
	}
	return glyf.data[start:end]
}

// IsComposite reports whether glyphID's outline is built from other glyphs
// rather than drawn directly.
func (glyf *glyfTable) IsComposite(glyphID uint16) bool {
	b := glyf.Get(glyphID)
	if len(b) < 1 {
		return false
	}
	return b[0]&0x80 != 0 // sign bit set on numberOfContours means composite
}

// Dependencies returns glyphID and every glyph index it (transitively)
// references through composite glyph components.
func (glyf *glyfTable) Dependencies(glyphID uint16) ([]uint16, error) {
	return glyf.dependencies(glyphID, 0)
}

const maxCompositeDepth = 8

func (glyf *glyfTable) dependencies(glyphID uint16, depth int) ([]uint16, error) {
	deps := []uint16{glyphID}
	b := glyf.Get(glyphID)
	if b == nil {
		return nil, newSfntInvalidError("glyf", fmt.Sprintf("bad glyph index %d", glyphID))
	} else if len(b) == 0 {
		return deps, nil
	}

	r := NewBinaryReader(b)
	if r.Len() < 10 {
		return nil, newSfntInvalidError("glyf", fmt.Sprintf("truncated glyph header for glyph %d", glyphID))
	}
	numberOfContours := r.ReadInt16()
	_ = r.ReadBytes(8) // bbox, not needed to walk dependencies
	if 0 <= numberOfContours {
		return deps, nil
	}
	if maxCompositeDepth < depth {
		return nil, newSfntInvalidError("glyf", "composite glyphs nested too deeply")
	}
	for {
		rec, more, err := readCompositeGlyphRecord(r)
		if err != nil {
			return nil, err
		}
		subDeps, err := glyf.dependencies(rec.subGlyphID, depth+1)
		if err != nil {
			return nil, err
		}
		deps = append(deps, subDeps...)
		if !more {
			break
		}
	}
	return deps, nil
}

// compositeGlyphRecord holds one decoded component of a composite glyph.
type compositeGlyphRecord struct {
	subGlyphID         uint16
	dx, dy             int16
	txx, txy, tyx, tyy int16
	hasInstructions    bool
}

// readCompositeGlyphRecord decodes one composite glyph component from r,
// positioned right after the numberOfContours/bbox header or a previous
// component. more reports whether MORE_COMPONENTS was set.
func readCompositeGlyphRecord(r *BinaryReader) (rec compositeGlyphRecord, more bool, err error) {
	if r.Len() < 4 {
		return rec, false, newSfntInvalidError("glyf", "truncated composite glyph component")
	}
	flags := r.ReadUint16()
	rec.subGlyphID = r.ReadUint16()
	if flags&0x0002 == 0 { // ARGS_ARE_XY_VALUES must be set
		return rec, false, newSfntInvalidError("glyf", "composite glyph component without point matching is not supported")
	}

	if flags&0x0001 != 0 { // ARG_1_AND_2_ARE_WORDS
		if r.Len() < 4 {
			return rec, false, newSfntInvalidError("glyf", "truncated composite glyph component")
		}
		rec.dx = r.ReadInt16()
		rec.dy = r.ReadInt16()
	} else {
		if r.Len() < 2 {
			return rec, false, newSfntInvalidError("glyf", "truncated composite glyph component")
		}
		rec.dx = int16(r.ReadInt8())
		rec.dy = int16(r.ReadInt8())
	}

	switch {
	case flags&0x0008 != 0: // WE_HAVE_A_SCALE
		if r.Len() < 2 {
			return rec, false, newSfntInvalidError("glyf", "truncated composite glyph component")
		}
		rec.txx = r.ReadInt16()
		rec.tyy = rec.txx
	case flags&0x0040 != 0: // WE_HAVE_AN_X_AND_Y_SCALE
		if r.Len() < 4 {
			return rec, false, newSfntInvalidError("glyf", "truncated composite glyph component")
		}
		rec.txx = r.ReadInt16()
		rec.tyy = r.ReadInt16()
	case flags&0x0080 != 0: // WE_HAVE_A_TWO_BY_TWO
		if r.Len() < 8 {
			return rec, false, newSfntInvalidError("glyf", "truncated composite glyph component")
		}
		rec.txx = r.ReadInt16()
		rec.txy = r.ReadInt16()
		rec.tyx = r.ReadInt16()
		rec.tyy = r.ReadInt16()
	}
	rec.hasInstructions = flags&0x0100 != 0
	more = flags&0x0020 != 0 // MORE_COMPONENTS
	return rec, more, nil
}

// hasTransform reports whether the component carries a scale or 2x2
// transform (as opposed to a plain translation); an explicit identity
// scale counts as a transform too.
func (rec compositeGlyphRecord) hasTransform() bool {
	return rec.txx != 0 || rec.txy != 0 || rec.tyx != 0 || rec.tyy != 0
}

func (rec compositeGlyphRecord) apply(x, y int16) (int16, int16) {
	if !rec.hasTransform() {
		return rec.dx + x, rec.dy + y
	}
	const half = 1 << 13
	xt := int16((uint32(x)*uint32(rec.txx)+half)>>14) + int16((uint32(y)*uint32(rec.tyx)+half)>>14)
	yt := int16((uint32(x)*uint32(rec.txy)+half)>>14) + int16((uint32(y)*uint32(rec.tyy)+half)>>14)
	return rec.dx + xt, rec.dy + yt
}

// Contour flattens glyphID's outline, resolving composite glyph components
// into a single set of point arrays.
func (glyf *glyfTable) Contour(glyphID uint16) (*glyfContour, error) {
	return glyf.contour(glyphID, 0)
}

func (glyf *glyfTable) contour(glyphID uint16, depth int) (*glyfContour, error) {
	b := glyf.Get(glyphID)
	if b == nil {
		return nil, newSfntInvalidError("glyf", fmt.Sprintf("bad glyph index %d", glyphID))
	} else if len(b) == 0 {
		return &glyfContour{GlyphID: glyphID}, nil
	}

	r := NewBinaryReader(b)
	if r.Len() < 10 {
		return nil, newSfntInvalidError("glyf", fmt.Sprintf("truncated glyph header for glyph %d", glyphID))
	}

	contour := &glyfContour{GlyphID: glyphID}
	numberOfContours := r.ReadInt16()
	contour.XMin = r.ReadInt16()
	contour.YMin = r.ReadInt16()
	contour.XMax = r.ReadInt16()
	contour.YMax = r.ReadInt16()
	if 0 <= numberOfContours {
		if err := parseSimpleGlyphOutline(r, contour, numberOfContours); err != nil {
			return nil, err
		}
		return contour, nil
	}
	if err := glyf.parseCompositeGlyphOutline(r, contour, depth); err != nil {
		return nil, err
	}
	return contour, nil
}

func parseSimpleGlyphOutline(r *BinaryReader, contour *glyfContour, numberOfContours int16) error {
	if r.Len() < 2*uint32(numberOfContours)+2 {
		return newSfntInvalidError("glyf", fmt.Sprintf("truncated glyph for glyph %d", contour.GlyphID))
	}
	contour.EndPoints = make([]uint16, numberOfContours)
	for i := range contour.EndPoints {
		contour.EndPoints[i] = r.ReadUint16()
	}

	instructionLength := r.ReadUint16()
	if r.Len() < uint32(instructionLength) {
		return newSfntInvalidError("glyf", fmt.Sprintf("truncated glyph for glyph %d", contour.GlyphID))
	}
	contour.Instructions = r.ReadBytes(uint32(instructionLength))

	numPoints := int(contour.EndPoints[numberOfContours-1]) + 1
	flags := make([]byte, numPoints)
	contour.OnCurve = make([]bool, numPoints)
	contour.OverlapSimple = make([]bool, numPoints)
	for i := 0; i < numPoints; i++ {
		if r.Len() < 1 {
			return newSfntInvalidError("glyf", fmt.Sprintf("truncated glyph for glyph %d", contour.GlyphID))
		}
		flags[i] = r.ReadUint8()
		contour.OnCurve[i] = flags[i]&0x01 != 0
		contour.OverlapSimple[i] = flags[i]&0x40 != 0
		if flags[i]&0x08 != 0 { // REPEAT_FLAG
			repeats := r.ReadUint8()
			for j := 1; j <= int(repeats); j++ {
				flags[i+j] = flags[i]
				contour.OnCurve[i+j] = contour.OnCurve[i]
				contour.OverlapSimple[i+j] = contour.OverlapSimple[i]
			}
			i += int(repeats)
		}
	}

	var x int16
	contour.XCoordinates = make([]int16, numPoints)
	for i := 0; i < numPoints; i++ {
		shortVector := flags[i]&0x02 != 0
		samePositive := flags[i]&0x10 != 0
		switch {
		case shortVector:
			if r.Len() < 1 {
				return newSfntInvalidError("glyf", fmt.Sprintf("truncated glyph coordinates for glyph %d", contour.GlyphID))
			}
			if samePositive {
				x += int16(r.ReadUint8())
			} else {
				x -= int16(r.ReadUint8())
			}
		case !samePositive:
			if r.Len() < 2 {
				return newSfntInvalidError("glyf", fmt.Sprintf("truncated glyph coordinates for glyph %d", contour.GlyphID))
			}
			x += r.ReadInt16()
		}
		contour.XCoordinates[i] = x
	}

	var y int16
	contour.YCoordinates = make([]int16, numPoints)
	for i := 0; i < numPoints; i++ {
		shortVector := flags[i]&0x04 != 0
		samePositive := flags[i]&0x20 != 0
		switch {
		case shortVector:
			if r.Len() < 1 {
				return newSfntInvalidError("glyf", fmt.Sprintf("truncated glyph coordinates for glyph %d", contour.GlyphID))
			}
			if samePositive {
				y += int16(r.ReadUint8())
			} else {
				y -= int16(r.ReadUint8())
			}
		case !samePositive:
			if r.Len() < 2 {
				return newSfntInvalidError("glyf", fmt.Sprintf("truncated glyph coordinates for glyph %d", contour.GlyphID))
			}
			y += r.ReadInt16()
		}
		contour.YCoordinates[i] = y
	}
	return nil
}

func (glyf *glyfTable) parseCompositeGlyphOutline(r *BinaryReader, contour *glyfContour, depth int) error {
	if maxCompositeDepth < depth {
		return newSfntInvalidError("glyf", "composite glyphs nested too deeply")
	}

	hasInstructions := false
	for {
		rec, more, err := readCompositeGlyphRecord(r)
		if err != nil {
			return err
		}
		if rec.hasInstructions {
			hasInstructions = true
		}

		subContour, err := glyf.contour(rec.subGlyphID, depth+1)
		if err != nil {
			return err
		}

		var base uint16
		if 0 < len(contour.EndPoints) {
			base = contour.EndPoints[len(contour.EndPoints)-1] + 1
		}
		for _, end := range subContour.EndPoints {
			contour.EndPoints = append(contour.EndPoints, base+end)
		}
		contour.OnCurve = append(contour.OnCurve, subContour.OnCurve...)
		contour.OverlapSimple = append(contour.OverlapSimple, subContour.OverlapSimple...)
		for i, x := range subContour.XCoordinates {
			px, py := rec.apply(x, subContour.YCoordinates[i])
			contour.XCoordinates = append(contour.XCoordinates, px)
			contour.YCoordinates = append(contour.YCoordinates, py)
		}
		if !more {
			break
		}
	}
	if hasInstructions {
		instructionLength := r.ReadUint16()
		if r.Len() < uint32(instructionLength) {
			return newSfntInvalidError("glyf", fmt.Sprintf("truncated glyph for glyph %d", contour.GlyphID))
		}
		contour.Instructions = r.ReadBytes(uint32(instructionLength))
	}
	return nil
}

// ToPath walks glyphID's outline, converting the quadratic on/off-curve
// point runs into MoveTo/LineTo/QuadTo/Close calls on p.
func (glyf *glyfTable) ToPath(p Pather, glyphID, ppem uint16, x, y, f float64, hinting Hinting) error {
	contour, err := glyf.Contour(glyphID)
	if err != nil {
		return err
	}

	var i uint16
	for _, endPoint := range contour.EndPoints {
		j := i
		first := true
		firstOff := false
		prevOff := false
		startX, startY := 0.0, 0.0
		for ; i <= endPoint; i++ {
			if first {
				if contour.OnCurve[i] {
					startX = float64(contour.XCoordinates[i])
					startY = float64(contour.YCoordinates[i])
					p.MoveTo(x+f*startX, y+f*startY)
					first = false
				} else if !prevOff {
					firstOff = true
					prevOff = true
				} else {
					startX = float64(contour.XCoordinates[i-1]+contour.XCoordinates[i]) / 2.0
					startY = float64(contour.YCoordinates[i-1]+contour.YCoordinates[i]) / 2.0
					p.MoveTo(x+f*startX, y+f*startY)
					first = false
				}
			} else if !prevOff {
				if contour.OnCurve[i] {
					p.LineTo(x+f*float64(contour.XCoordinates[i]), y+f*float64(contour.YCoordinates[i]))
				} else {
					prevOff = true
				}
			} else {
				if contour.OnCurve[i] {
					p.QuadTo(x+f*float64(contour.XCoordinates[i-1]), y+f*float64(contour.YCoordinates[i-1]), x+f*float64(contour.XCoordinates[i]), y+f*float64(contour.YCoordinates[i]))
					prevOff = false
				} else {
					midX := float64(contour.XCoordinates[i-1]+contour.XCoordinates[i]) / 2.0
					midY := float64(contour.YCoordinates[i-1]+contour.YCoordinates[i]) / 2.0
					p.QuadTo(x+f*float64(contour.XCoordinates[i-1]), y+f*float64(contour.YCoordinates[i-1]), x+f*midX, y+f*midY)
				}
			}
		}
		if firstOff {
			if prevOff {
				midX := float64(contour.XCoordinates[i-1]+contour.XCoordinates[j]) / 2.0
				midY := float64(contour.YCoordinates[i-1]+contour.YCoordinates[j]) / 2.0
				p.QuadTo(x+f*float64(contour.XCoordinates[i-1]), y+f*float64(contour.YCoordinates[i-1]), x+f*midX, y+f*midY)
				p.QuadTo(x+f*float64(contour.XCoordinates[j]), y+f*float64(contour.YCoordinates[j]), x+f*startX, y+f*startY)
			} else {
				p.QuadTo(x+f*float64(contour.XCoordinates[j]), y+f*float64(contour.YCoordinates[j]), x+f*startX, y+f*startY)
			}
		} else if prevOff {
			p.QuadTo(x+f*float64(contour.XCoordinates[i-1]), y+f*float64(contour.YCoordinates[i-1]), x+f*startX, y+f*startY)
		}
		p.Close()
	}
	return nil
}

func (sfnt *SFNT) parseGlyf() error {
	if sfnt.Loca == nil {
		return newSfntInvalidError("glyf", "missing loca table")
	} else if sfnt.Maxp == nil {
		return newSfntInvalidError("glyf", "missing maxp table")
	}

	b, err := sfnt.requireTable("glyf", 0)
	if err != nil {
		return err
	}
	if length, _ := sfnt.Loca.Get(sfnt.Maxp.NumGlyphs); uint32(len(b)) < length {
		return newSfntInvalidError("glyf", "table shorter than loca's last offset")
	}

	sfnt.Glyf = &glyfTable{
		data: b,
		loca: sfnt.Loca,
	}
	return nil
}

////////////////////////////////////////////////////////////////

type locaTable struct {
	Format int16
	data   []byte
}

func (loca *locaTable) Get(glyphID uint16) (uint32, bool) {
	switch {
	case loca.Format == 0 && int(glyphID)*2 < len(loca.data):
		return 2 * uint32(binary.BigEndian.Uint16(loca.data[int(glyphID)*2:])), true
	case loca.Format == 1 && int(glyphID)*4 < len(loca.data):
		return binary.BigEndian.Uint32(loca.data[int(glyphID)*4:]), true
	}
	return 0, false
}

func (sfnt *SFNT) parseLoca() error {
	if sfnt.Head == nil {
		return newSfntInvalidError("loca", "missing head table")
	}

	b, err := sfnt.requireTable("loca", 0)
	if err != nil {
		return err
	}

	sfnt.Loca = &locaTable{
		Format: sfnt.Head.IndexToLocFormat,
		data:   b,
	}
	return nil
}
