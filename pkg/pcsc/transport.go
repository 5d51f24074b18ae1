// Package pcsc carries iso7816 commands over a PC/SC reader.
package pcsc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gregLibert/apdu/pkg/iso7816"
)

// ErrReplyOverflow reports a card answer larger than the reply region it was asked for.
var ErrReplyOverflow = errors.New("card reply exceeds the reply region")

// Card is the part of *scard.Card the transport needs.
type Card interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Transport implements iso7816.Transport over a Card.
//
// Commands carrying more than MaxPayload data bytes are refused with an
// *iso7816.PayloadTooLargeError so the Client chains them. Ne is derived from
// the reply region and capped to the short (256) or extended (65536) limit.
type Transport struct {
	Card       Card
	MaxPayload int
	Extended   bool

	buf []byte
}

// NewTransport creates a short-length transport over card.
func NewTransport(card Card) *Transport {
	return &Transport{
		Card:       card,
		MaxPayload: iso7816.MaxShortLc,
	}
}

// MaxPayloadSize returns the largest command data field sent in one exchange.
func (t *Transport) MaxPayloadSize() int {
	limit := iso7816.MaxShortLc
	if t.Extended {
		limit = iso7816.MaxExtendedLc
	}
	return min(t.MaxPayload, limit)
}

// Execute sends one APDU and copies the card answer into reply.
func (t *Transport) Execute(ctx context.Context, cmd iso7816.Command, reply []byte) (iso7816.Response, error) {
	if err := ctx.Err(); err != nil {
		return iso7816.Response{}, err
	}

	if limit := t.MaxPayloadSize(); len(cmd.Data) > limit {
		return iso7816.Response{}, &iso7816.PayloadTooLargeError{MaxSize: limit}
	}
	if len(reply) < 2 {
		return iso7816.Response{}, iso7816.ErrReplyBufferTooShort
	}

	neLimit := iso7816.MaxShortLe
	if t.Extended {
		neLimit = iso7816.MaxExtendedLe
	}
	ne := min(len(reply)-2, neLimit)

	var err error
	t.buf, err = cmd.AppendBytes(t.buf[:0], ne)
	if err != nil {
		return iso7816.Response{}, fmt.Errorf("encode %s: %w", cmd.Instruction, err)
	}

	raw, err := t.Card.Transmit(t.buf)
	if err != nil {
		return iso7816.Response{}, fmt.Errorf("pcsc transmit: %w", err)
	}
	if len(raw) > len(reply) {
		return iso7816.Response{}, fmt.Errorf("%w: %d bytes for %d", ErrReplyOverflow, len(raw), len(reply))
	}

	n := copy(reply, raw)
	return iso7816.ParseResponse(reply[:n])
}
