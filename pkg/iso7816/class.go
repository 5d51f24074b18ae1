package iso7816

import (
	"fmt"

	"github.com/gregLibert/apdu/pkg/bits"
)

// Class Byte (CLA) Structure according to ISO/IEC 7816-4.
//
// Only the interindustry classes (bit 8 = 0) are supported.
//
// Bit 8: Proprietary (1), rejected.
// Bit 7: Range (0=Basic, 1=Extended).
// Bit 5: Command Chaining (0=Last/Only, 1=More follow), in both ranges.
//
// 1. Basic Range (000x xxxx):
//    - Bit 6: reserved, must be 0.
//    - Bits 4-3: Secure Messaging (00=None, 10=Authenticated, 11=Header authenticated).
//      01 (proprietary SM) is rejected.
//    - Bits 2-1: Logical Channel number (0-3).
//
// 2. Extended Range (01xx xxxx):
//    - Bit 6: Secure Messaging active.
//    - Bits 4-1: Logical Channel number minus 4 (encoding 0-15 for channels 4-19).

const (
	maxBasicChannel    = 3
	maxExtendedChannel = 19
)

// SecureMessaging records the secure messaging indication of a class byte.
// The protection itself is not performed by this package.
type SecureMessaging int

const (
	// SMNone indicates no secure messaging.
	SMNone SecureMessaging = iota
	// SMAuthenticated indicates ISO secure messaging, header not authenticated.
	// In the extended range this is the only active mode.
	SMAuthenticated
	// SMHeaderAuthenticated indicates ISO secure messaging with the header
	// authenticated (basic range only).
	SMHeaderAuthenticated
)

func (sm SecureMessaging) String() string {
	switch sm {
	case SMNone:
		return "None"
	case SMAuthenticated:
		return "ISO (Header not authenticated)"
	case SMHeaderAuthenticated:
		return "ISO (Header authenticated)"
	default:
		return fmt.Sprintf("SecureMessaging(%d)", int(sm))
	}
}

// basicSMBits maps a mode to bits 4-3 of a basic range class byte.
func (sm SecureMessaging) basicSMBits() byte {
	switch sm {
	case SMAuthenticated:
		return 0b10
	case SMHeaderAuthenticated:
		return 0b11
	default:
		return 0b00
	}
}

// Class is a decoded interindustry class byte. It is immutable: the zero value
// is the basic class on channel 0 without chaining nor secure messaging (CLA 00),
// and every other value comes from NewClass or NewInterindustryClass.
// The channel number selects the variant: 0-3 basic range, 4-19 extended range.
type Class struct {
	chained bool
	sm      SecureMessaging
	channel uint8
}

// NewClass decodes a raw CLA byte. It wraps ErrInvalidClass for bytes >= 0x80
// and for the reserved basic range patterns.
func NewClass(cla byte) (Class, error) {
	if bits.IsSet(cla, 8) {
		return Class{}, fmt.Errorf("%w: 0x%02X is not an interindustry class", ErrInvalidClass, cla)
	}

	c := Class{chained: bits.IsSet(cla, 5)}

	if bits.IsSet(cla, 7) {
		if bits.IsSet(cla, 6) {
			c.sm = SMAuthenticated
		}
		c.channel = bits.GetRange(cla, 4, 1) + 4
		return c, nil
	}

	if bits.IsSet(cla, 6) {
		return Class{}, fmt.Errorf("%w: 0x%02X uses reserved bit 6 in the basic range", ErrInvalidClass, cla)
	}

	switch bits.GetRange(cla, 4, 3) {
	case 0b00:
		c.sm = SMNone
	case 0b01:
		return Class{}, fmt.Errorf("%w: 0x%02X uses proprietary secure messaging", ErrInvalidClass, cla)
	case 0b10:
		c.sm = SMAuthenticated
	case 0b11:
		c.sm = SMHeaderAuthenticated
	}
	c.channel = bits.GetRange(cla, 2, 1)

	return c, nil
}

// NewInterindustryClass builds a Class from its fields. Channels 0-3 use the
// basic range, 4-19 the extended range, which only knows SMNone and SMAuthenticated.
func NewInterindustryClass(chained bool, sm SecureMessaging, channel uint8) (Class, error) {
	if channel > maxExtendedChannel {
		return Class{}, fmt.Errorf("%w: channel %d out of range (max %d)", ErrInvalidClass, channel, maxExtendedChannel)
	}
	if sm < SMNone || sm > SMHeaderAuthenticated {
		return Class{}, fmt.Errorf("%w: unknown secure messaging mode %d", ErrInvalidClass, sm)
	}
	if channel > maxBasicChannel && sm == SMHeaderAuthenticated {
		return Class{}, fmt.Errorf("%w: %s not available on extended channel %d", ErrInvalidClass, sm, channel)
	}

	return Class{chained: chained, sm: sm, channel: channel}, nil
}

// MustClass is NewClass for constant class bytes; it panics on invalid input.
func MustClass(cla byte) Class {
	c, err := NewClass(cla)
	if err != nil {
		panic(err)
	}
	return c
}

// Encode returns the raw CLA byte. It is the inverse of NewClass.
func (c Class) Encode() byte {
	var res byte
	res = bits.SetIf(res, 5, c.chained)

	if !c.IsExtended() {
		res = bits.PutRange(res, 4, 3, c.sm.basicSMBits())
		return bits.PutRange(res, 2, 1, c.channel)
	}

	res = bits.Set(res, 7)
	res = bits.SetIf(res, 6, c.sm != SMNone)
	return bits.PutRange(res, 4, 1, c.channel-4)
}

// IsExtended reports whether the class uses the extended range (channels 4-19).
func (c Class) IsExtended() bool {
	return c.channel > maxBasicChannel
}

// IsChained reports whether the command chaining bit is set.
func (c Class) IsChained() bool {
	return c.chained
}

// Channel returns the logical channel number (0-19).
func (c Class) Channel() uint8 {
	return c.channel
}

// SecureMessaging returns the secure messaging indication.
func (c Class) SecureMessaging() SecureMessaging {
	return c.sm
}

// WithChaining returns a copy of c with the chaining bit set.
func (c Class) WithChaining() Class {
	c.chained = true
	return c
}

// WithoutChaining returns a copy of c with the chaining bit cleared.
func (c Class) WithoutChaining() Class {
	c.chained = false
	return c
}

func (c Class) String() string {
	return fmt.Sprintf("%02X", c.Encode())
}

// Verbose returns a human-readable description of the CLA byte configuration.
func (c Class) Verbose() string {
	rangeName := "Basic (Ch 0-3)"
	if c.IsExtended() {
		rangeName = "Extended (Ch 4-19)"
	}

	chaining := "Last or only command"
	if c.chained {
		chaining = "More commands follow (Chaining)"
	}

	return fmt.Sprintf(
		"Range: %s\nChaining: %s\nSecure Messaging: %s\nLogical Channel: %d",
		rangeName, chaining, c.sm, c.channel,
	)
}
