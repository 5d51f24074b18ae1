package iso7816

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidClass reports a class byte outside the interindustry range or
	// using a reserved bit pattern.
	ErrInvalidClass = errors.New("invalid class byte")

	// ErrInvalidInstruction reports an INS byte in the reserved 6X or 9X ranges.
	ErrInvalidInstruction = errors.New("invalid instruction byte")

	// ErrDataTooLong reports command data or an expected length beyond the extended APDU limits.
	ErrDataTooLong = errors.New("APDU length out of range")

	// ErrResponseTooShort reports a reply without room for SW1 SW2.
	ErrResponseTooShort = errors.New("response too short")

	// ErrInvalidChunkSize reports a non-positive maximum chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrZeroPayloadSize reports a transport refusing a payload while declaring a
	// maximum size of zero. Chunking is impossible; this is a configuration error.
	ErrZeroPayloadSize = errors.New("transport reported a zero maximum payload size")

	// ErrReplyBufferTooShort reports an operation reply buffer that cannot even hold a status word.
	ErrReplyBufferTooShort = errors.New("reply buffer cannot hold a status word")

	// ErrTransportOverrun reports a transport returning more bytes than the reply region holds.
	ErrTransportOverrun = errors.New("transport reply exceeds the reply region")

	// ErrStalledContinuation reports a card announcing more data through 61XX
	// while GET RESPONSE keeps returning nothing.
	ErrStalledContinuation = errors.New("GET RESPONSE returned no data")
)

// BufferTooSmallError is returned when the card announces more response data
// (through 6CXX or 61XX) than the operation's reply buffer can hold.
// Sizes are counted in data bytes, excluding the status word.
type BufferTooSmallError struct {
	Required  int
	Available int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("reply buffer too small: card needs %d bytes, %d available", e.Required, e.Available)
}

// PayloadTooLargeError is returned by a Transport that cannot carry the command
// data in one exchange. MaxSize is the largest data field it accepts.
// The Client consumes it to drive command chaining.
type PayloadTooLargeError struct {
	MaxSize int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload too large for transport (max %d bytes)", e.MaxSize)
}

// StatusError carries a response whose status word an operation does not treat
// as success. The Response data aliases the operation's reply buffer.
type StatusError struct {
	Response Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("card returned %s", e.Response.Status.Verbose())
}

// Status returns the status word that caused the error.
func (e *StatusError) Status() StatusWord {
	return e.Response.Status
}
