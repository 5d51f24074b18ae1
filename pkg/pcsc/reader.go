package pcsc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ebfe/scard"
)

// ErrNoReader reports a PC/SC context without any reader attached.
var ErrNoReader = errors.New("no smart card reader found")

// ParseProtocol maps "t0", "t1" or "any" to the scard protocol mask.
func ParseProtocol(s string) (scard.Protocol, error) {
	switch strings.ToLower(s) {
	case "t0", "t=0":
		return scard.ProtocolT0, nil
	case "t1", "t=1":
		return scard.ProtocolT1, nil
	case "", "any":
		// Force T=0 or T=1 to avoid "Parameter Incorrect" errors (Error 57)
		return scard.ProtocolT0 | scard.ProtocolT1, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q (want t0, t1 or any)", s)
	}
}

// Readers lists the readers known to the PC/SC service.
func Readers() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish context: %w", err)
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}
	return readers, nil
}

// Reader is a connected card in a PC/SC reader.
type Reader struct {
	Name string

	ctx  *scard.Context
	card *scard.Card
}

// Connect connects to the card in the named reader, or in the first reader
// when name is empty.
func Connect(name string, protocol scard.Protocol) (*Reader, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish context: %w", err)
	}

	if name == "" {
		readers, err := ctx.ListReaders()
		if err != nil || len(readers) == 0 {
			ctx.Release()
			if err != nil {
				return nil, fmt.Errorf("list readers: %w", err)
			}
			return nil, ErrNoReader
		}
		name = readers[0]
	}

	card, err := ctx.Connect(name, scard.ShareShared, protocol)
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("connect to %q: %w", name, err)
	}

	return &Reader{Name: name, ctx: ctx, card: card}, nil
}

// Transport returns a short-length transport over the connected card.
func (r *Reader) Transport() *Transport {
	return NewTransport(r.card)
}

// ATR returns the answer to reset of the connected card.
func (r *Reader) ATR() ([]byte, error) {
	status, err := r.card.Status()
	if err != nil {
		return nil, fmt.Errorf("card status: %w", err)
	}
	return status.Atr, nil
}

// Close disconnects the card, leaving it powered, and releases the context.
func (r *Reader) Close() error {
	return errors.Join(
		r.card.Disconnect(scard.LeaveCard),
		r.ctx.Release(),
	)
}
