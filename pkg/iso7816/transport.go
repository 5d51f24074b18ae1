package iso7816

import (
	"context"
)

// Transport moves one physical APDU to the card and back.
//
// Execute sends cmd expecting at most len(reply)-2 response bytes and returns the
// Response parsed over reply: data first, then SW1 SW2. A transport that cannot
// carry len(cmd.Data) bytes in one exchange must return a *PayloadTooLargeError
// naming the largest payload it accepts; any other error is opaque to the Client.
type Transport interface {
	Execute(ctx context.Context, cmd Command, reply []byte) (Response, error)
	MaxPayloadSize() int
}
