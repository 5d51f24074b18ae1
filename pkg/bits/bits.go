// Package bits provides byte-level helpers using the 1-based bit numbering
// of the ISO/IEC 7816-4 tables (bit 1 is the least significant, bit 8 the most).
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// Set returns b with bit n raised.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// Clear returns b with bit n lowered.
func Clear(b byte, n uint) byte {
	return b &^ Bit(n)
}

// SetIf raises bit n when cond is true and returns b unchanged otherwise.
func SetIf(b byte, n uint, cond bool) byte {
	if cond {
		return Set(b, n)
	}
	return b
}

func rangeMask(high, low uint) (byte, bool) {
	if high < low || high > 8 || low < 1 {
		return 0, false
	}
	width := high - low + 1
	return byte((1 << width) - 1), true
}

// GetRange extracts the value from a range of bits (e.g., bits 4 to 3).
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	mask, ok := rangeMask(high, low)
	if !ok {
		return 0
	}
	return (b >> (low - 1)) & mask
}

// PutRange writes v into bits high..low of b. Bits of v beyond the range width are dropped.
// Example: PutRange(0, 4, 3, 0b10) returns 0b00001000
func PutRange(b byte, high, low uint, v byte) byte {
	mask, ok := rangeMask(high, low)
	if !ok {
		return b
	}
	shift := low - 1
	return (b &^ (mask << shift)) | ((v & mask) << shift)
}
