package font

import "fmt"

// BadSignatureError reports a container whose leading magic bytes don't
// match any supported format (WOFF, WOFF2, SFNT/TTC).
type BadSignatureError struct {
	Offset uint32
	Got    string
}

func (e *BadSignatureError) Error() string {
	return fmt.Sprintf("bad signature at offset %d: %q", e.Offset, e.Got)
}

func newBadSignatureError(offset uint32, got string) error {
	return &BadSignatureError{Offset: offset, Got: got}
}

// TruncatedError reports a buffer that ends before a length field it
// declared said it should.
type TruncatedError struct {
	Offset uint32
	Detail string
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated at offset %d: %s", e.Offset, e.Detail)
}

func newTruncatedError(offset uint32, detail string) error {
	return &TruncatedError{Offset: offset, Detail: detail}
}

// BadDirectoryError reports a malformed table directory: bad counts, tags
// out of order, overlapping or out-of-range table entries.
type BadDirectoryError struct {
	Detail string
}

func (e *BadDirectoryError) Error() string {
	return fmt.Sprintf("bad table directory: %s", e.Detail)
}

func newBadDirectoryError(detail string) error {
	return &BadDirectoryError{Detail: detail}
}

// BadTransformError reports a glyf/loca or hmtx transform stream that
// could not be reconstructed. FontIndex is -1 when the error occurs before
// tables have been attributed to a sub-font (e.g. in a TTC).
type BadTransformError struct {
	Tag       string
	FontIndex int
	Detail    string
}

func (e *BadTransformError) Error() string {
	if e.FontIndex < 0 {
		return fmt.Sprintf("%s: bad transform: %s", e.Tag, e.Detail)
	}
	return fmt.Sprintf("%s: bad transform in font %d: %s", e.Tag, e.FontIndex, e.Detail)
}

func newBadTransformError(tag string, fontIndex int, detail string) error {
	return &BadTransformError{Tag: tag, FontIndex: fontIndex, Detail: detail}
}

// BrotliFailedError wraps an error returned by the Brotli codec while
// compressing or decompressing a WOFF2 payload.
type BrotliFailedError struct {
	Err error
}

func (e *BrotliFailedError) Error() string {
	return fmt.Sprintf("brotli: %v", e.Err)
}

func (e *BrotliFailedError) Unwrap() error {
	return e.Err
}

func newBrotliFailedError(err error) error {
	return &BrotliFailedError{Err: err}
}

// SfntInvalidError reports an SFNT that fails a table-level check rather
// than a directory or transform decoding failure: a missing or malformed
// table when parsing an SFNT, or an invariant a reconstructed WOFF/WOFF2
// font must meet (head flags, forbidden tables, checksum).
type SfntInvalidError struct {
	Tag    string
	Detail string
}

func (e *SfntInvalidError) Error() string {
	return fmt.Sprintf("%s: invalid sfnt: %s", e.Tag, e.Detail)
}

func newSfntInvalidError(tag, detail string) error {
	return &SfntInvalidError{Tag: tag, Detail: detail}
}
