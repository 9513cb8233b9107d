package font

import "encoding/binary"

// MaxMemory bounds the total decompressed SFNT size this package will
// allocate while reconstructing a WOFF or WOFF2 font. Callers that need to
// process untrusted, possibly adversarial input at a different ceiling can
// override it before calling Parse/Decode.
var MaxMemory uint32 = 30 * 1024 * 1024

// checkMemoryBudget returns a BadDirectoryError if n exceeds MaxMemory,
// tagged with where the budget was exceeded (e.g. "woff2: totalSfntSize").
func checkMemoryBudget(n uint32, where string) error {
	if MaxMemory < n {
		return newBadDirectoryError(where + ": exceeds memory budget of " + uint32ToDecimal(MaxMemory) + " bytes")
	}
	return nil
}

func uint32ToDecimal(v uint32) string {
	if v == 0 {
		return "0"
	}
	var digits [10]byte
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[i:])
}

// calcChecksum sums b as big-endian uint32 words, per the SFNT checksum
// algorithm (overflow wraps, matching the unsigned arithmetic the format
// expects). b's length must be a multiple of four.
func calcChecksum(b []byte) uint32 {
	if len(b)%4 != 0 {
		panic("font: checksum input is not a multiple of four bytes")
	}
	var sum uint32
	for len(b) > 0 {
		sum += binary.BigEndian.Uint32(b)
		b = b[4:]
	}
	return sum
}

// Uint8ToFlags unpacks v into 8 bits, flags[0] being the least significant.
func Uint8ToFlags(v uint8) [8]bool {
	var flags [8]bool
	for i := range flags {
		flags[i] = v&(1<<uint(i)) != 0
	}
	return flags
}

// Uint16ToFlags unpacks v into 16 bits, flags[0] being the least significant.
func Uint16ToFlags(v uint16) [16]bool {
	var flags [16]bool
	for i := range flags {
		flags[i] = v&(1<<uint(i)) != 0
	}
	return flags
}

// flagsToUint8 is the inverse of Uint8ToFlags.
func flagsToUint8(flags [8]bool) uint8 {
	var v uint8
	for i, set := range flags {
		if set {
			v |= 1 << uint(i)
		}
	}
	return v
}

// uint32ToString reinterprets a big-endian uint32 as a 4-byte tag string,
// as used for sfnt table tags and the "OTTO"/"true"/"ttcf" flavor markers.
func uint32ToString(v uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return string(b[:])
}
