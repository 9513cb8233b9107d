package font

// WOFF2EncodeOptions controls WOFF2Encode. Quality is clamped to [0, 11]
// and forwarded to the Brotli encoder as its compression level; 11 is
// the slowest and smallest, matching the reference WOFF2 encoder's default.
type WOFF2EncodeOptions struct {
	Quality int
}

// DefaultWOFF2EncodeOptions returns the default options for WOFF2Encode:
// quality 11.
func DefaultWOFF2EncodeOptions() WOFF2EncodeOptions {
	return WOFF2EncodeOptions{Quality: 11}
}

func (o WOFF2EncodeOptions) quality() int {
	if o.Quality < 0 {
		return 0
	} else if 11 < o.Quality {
		return 11
	}
	return o.Quality
}

// WOFFEncodeOptions controls WOFFEncode. Level is clamped to [1, 9] and
// forwarded to compress/zlib as its compression level.
type WOFFEncodeOptions struct {
	Level int
}

// DefaultWOFFEncodeOptions returns the default options for WOFFEncode:
// level 9.
func DefaultWOFFEncodeOptions() WOFFEncodeOptions {
	return WOFFEncodeOptions{Level: 9}
}

func (o WOFFEncodeOptions) level() int {
	if o.Level < 1 {
		return 1
	} else if 9 < o.Level {
		return 9
	}
	return o.Level
}

// WOFF2Decode converts a WOFF2 font to its uncompressed SFNT form (TTF,
// OTF, or TTC). It fails with a BadSignatureError, TruncatedError,
// BadDirectoryError, BadTransformError, BrotliFailedError, or
// SfntInvalidError describing why the input could not be decoded.
func WOFF2Decode(b []byte) ([]byte, error) {
	return ParseWOFF2(b)
}

// WOFF2Encode converts an uncompressed SFNT font (TTF, OTF, or TTC) to
// WOFF2. A TTC input is packed with WriteWOFF2Collection; a single SFNT
// uses WriteWOFF2.
func WOFF2Encode(b []byte, opts WOFF2EncodeOptions) ([]byte, error) {
	quality := opts.quality()

	r := NewBinaryReader(b)
	if r.Len() < 4 {
		return nil, newTruncatedError(0, "file shorter than SFNT header")
	}
	if uint32ToString(binaryPeekUint32(b)) == "ttcf" {
		sfnts, err := parseSFNTCollection(b)
		if err != nil {
			return nil, err
		}
		return WriteWOFF2Collection(sfnts, quality)
	}

	sfnt, err := ParseSFNT(b, 0)
	if err != nil {
		return nil, err
	}
	return sfnt.WriteWOFF2(quality)
}

// WOFFDecode converts a WOFF 1.0 font to its uncompressed SFNT form.
func WOFFDecode(b []byte) ([]byte, error) {
	return ParseWOFF(b)
}

// WOFFEncode converts an uncompressed SFNT font to WOFF 1.0. WOFF 1.0 has
// no collection directory format, so a TTC input is rejected.
func WOFFEncode(b []byte, opts WOFFEncodeOptions) ([]byte, error) {
	if uint32ToString(binaryPeekUint32(b)) == "ttcf" {
		return nil, newSfntInvalidError("ttcf", "a font collection cannot be packed as WOFF 1.0")
	}
	sfnt, err := ParseSFNT(b, 0)
	if err != nil {
		return nil, err
	}
	return WriteWOFF(sfnt, opts.level())
}

func binaryPeekUint32(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// parseSFNTCollection parses every font in a TTC so it can be re-packed as
// a WOFF2 collection.
func parseSFNTCollection(b []byte) ([]*SFNT, error) {
	r := NewBinaryReader(b)
	_ = r.ReadString(4) // "ttcf"
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 && majorVersion != 2 || minorVersion != 0 {
		return nil, newBadDirectoryError("bad TTC version")
	}
	numFonts := r.ReadUint32()
	if r.EOF() || numFonts == 0 {
		return nil, newBadDirectoryError("bad TTC font count")
	}

	sfnts := make([]*SFNT, numFonts)
	for i := range sfnts {
		sfnt, err := ParseSFNT(b, i)
		if err != nil {
			return nil, err
		}
		sfnts[i] = sfnt
	}
	return sfnts, nil
}
