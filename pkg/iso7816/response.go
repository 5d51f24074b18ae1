package iso7816

import (
	"fmt"
)

// RESPONSE APDU (R-APDU):
// A response sent by the card consists of an optional Body and a mandatory Trailer.
//
// 1. Body (Data Field):
//   - Variable length sequence of bytes containing the response data.
//
// 2. Trailer (Status Word):
//   - SW1 (1 byte): Command processing status (High byte).
//   - SW2 (1 byte): Command processing qualification (Low byte).
//   - Example: 0x9000 indicates success.

// Response is the reply from the card.
// Data is a view into the reply buffer the response was parsed from; it stays
// valid until that buffer is reused.
type Response struct {
	Data   []byte
	Status StatusWord
}

// ParseResponse splits raw into data and the trailing status word.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponse(raw []byte) (Response, error) {
	if len(raw) < 2 {
		return Response{}, fmt.Errorf("%w: length %d", ErrResponseTooShort, len(raw))
	}

	indexSW1 := len(raw) - 2
	return Response{
		Data:   raw[:indexSW1:indexSW1],
		Status: NewStatusWord(raw[indexSW1], raw[indexSW1+1]),
	}, nil
}

// Is reports whether the response status exactly matches sw.
func (r Response) Is(sw StatusWord) bool {
	return r.Status.Is(sw)
}

// Expect returns the data when the status is sw, and a *StatusError otherwise.
func (r Response) Expect(sw StatusWord) ([]byte, error) {
	if !r.Status.Is(sw) {
		return nil, &StatusError{Response: r}
	}
	return r.Data, nil
}

// String returns a readable representation of the response.
func (r Response) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
