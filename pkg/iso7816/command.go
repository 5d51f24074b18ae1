package iso7816

import (
	"fmt"
)

// COMMAND APDU (C-APDU):
// A command consists of a mandatory Header (4 bytes) and an optional Body.
//
// 1. Header:
//   - CLA (Class): Security, Chaining, Logical Channel.
//   - INS (Instruction): The specific command to execute.
//   - P1, P2 (Parameters): Command modifiers.
//
// 2. Body:
//   - Lc (Length Command): Number of bytes in the data field.
//   - Data: The command payload.
//   - Le (Length Expected): Maximum number of bytes expected in the response.
//
// ENCODING CASES (ISO 7816-3):
// - Case 1: No Data, No Response (Header only).
// - Case 2: No Data, Response Expected (Header + Le).
// - Case 3: Data Present, No Response (Header + Lc + Data).
// - Case 4: Data Present, Response Expected (Header + Lc + Data + Le).
//
// LENGTH MODES:
//   - Short Length: Lc/Le encoded on 1 byte (Max 255/256).
//   - Extended Length: Lc/Le encoded on multiple bytes (Max 65535/65536).
//     Extended mode is triggered if Lc > 255 or Le > 256.
//
// A Command does not carry Le. The expected length is a property of the reply
// region the command is executed against and is supplied at encoding time.

// APDU Limits and Constants according to ISO 7816-3.
const (
	// MaxShortLc is the maximum data length (Nc) encodable in Short Length mode (1 byte).
	MaxShortLc = 255

	// MaxShortLe is the maximum expected response length (Ne) encodable in Short Length mode.
	// In Short mode, 0x00 encodes 256.
	MaxShortLe = 256

	// MaxExtendedLc is the limit for Lc in Extended mode (16-bit unsigned).
	MaxExtendedLc = 65535

	// MaxExtendedLe is the maximum Ne encodable in Extended Length mode.
	// In Extended mode, 0x0000 encodes 65536.
	MaxExtendedLe = 65536

	// MaxAPDUBufferSize bounds an encoded extended command:
	// Header(4) + ExtLc(3) + MaxData(65535) + ExtLe(2).
	MaxAPDUBufferSize = 4 + 3 + MaxExtendedLc + 2
)

// Command describes one physical APDU.
// Data is a view over caller memory; the Command never copies it.
type Command struct {
	Class       Class
	Instruction InsCode
	P1, P2      byte
	Data        []byte
}

// NewCommand creates a command without copying data.
func NewCommand(cla Class, ins InsCode, p1, p2 byte, data []byte) Command {
	return Command{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
	}
}

// AppendBytes appends the wire encoding of the command, expecting ne response
// bytes (0 means none), to dst. Short or extended length is selected from
// the data length and ne.
func (c Command) AppendBytes(dst []byte, ne int) ([]byte, error) {
	if err := c.Instruction.Validate(); err != nil {
		return dst, err
	}

	nc := len(c.Data)
	if nc > MaxExtendedLc {
		return dst, fmt.Errorf("%w: Nc %d exceeds %d", ErrDataTooLong, nc, MaxExtendedLc)
	}
	if ne < 0 || ne > MaxExtendedLe {
		return dst, fmt.Errorf("%w: Ne %d outside [0, %d]", ErrDataTooLong, ne, MaxExtendedLe)
	}

	// 1. Header
	dst = append(dst, c.Class.Encode(), byte(c.Instruction), c.P1, c.P2)

	isExtended := nc > MaxShortLc || ne > MaxShortLe

	// 2. Lc and Data
	if nc > 0 {
		if !isExtended {
			dst = append(dst, byte(nc))
		} else {
			dst = append(dst, 0x00, byte(nc>>8), byte(nc))
		}
		dst = append(dst, c.Data...)
	}

	// 3. Le
	if ne > 0 {
		if !isExtended {
			// 0x00 represents 256
			dst = append(dst, byte(ne))
		} else {
			// Case 2 extended needs the leading 00 that Lc would otherwise carry.
			if nc == 0 {
				dst = append(dst, 0x00)
			}
			// 0x0000 represents 65536
			dst = append(dst, byte(ne>>8), byte(ne))
		}
	}

	return dst, nil
}

// Bytes returns the wire encoding of the command in a new slice.
func (c Command) Bytes(ne int) ([]byte, error) {
	return c.AppendBytes(make([]byte, 0, 4+3+len(c.Data)+3), ne)
}

// String returns a readable representation of the command meta-data.
func (c Command) String() string {
	return fmt.Sprintf("CLA: %s | %s | P1: %02X, P2: %02X | Lc: %d",
		c.Class, c.Instruction.Verbose(), c.P1, c.P2, len(c.Data))
}

// Chunk returns a Chunker splitting the command data into pieces of at most
// maxSize bytes.
func (c Command) Chunk(maxSize int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, maxSize)
	}
	return &Chunker{base: c, maxSize: maxSize}, nil
}

// COMMAND CHAINING (ISO 7816-4 5.3.3):
// When the command data does not fit a single exchange, it is sent as a chain
// of commands sharing the same header. Every command but the last has the
// chaining bit (b5 of CLA) set. The last one keeps the class of the original
// command.

// Chunker yields the chained commands of one logical command.
// It is single-pass: chunks are produced on demand and a consumed Chunker
// cannot be rewound. Each chunk's Data is a sub-slice of the original data.
type Chunker struct {
	base    Command
	maxSize int
	offset  int
	started bool
}

// Next returns the next chunk. The second result is false once the sequence is exhausted.
// A command without data yields exactly one chunk.
func (ch *Chunker) Next() (Command, bool) {
	if ch.started && ch.offset >= len(ch.base.Data) {
		return Command{}, false
	}
	ch.started = true

	end := min(ch.offset+ch.maxSize, len(ch.base.Data))
	cmd := ch.base
	cmd.Data = ch.base.Data[ch.offset:end]
	ch.offset = end

	if ch.offset < len(ch.base.Data) {
		cmd.Class = cmd.Class.WithChaining()
	}
	return cmd, true
}

// Remaining returns the number of data bytes not yet handed out.
func (ch *Chunker) Remaining() int {
	return len(ch.base.Data) - ch.offset
}

// Last reports whether the chunk most recently returned by Next closed the sequence.
func (ch *Chunker) Last() bool {
	return ch.started && ch.Remaining() == 0
}
