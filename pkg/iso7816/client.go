package iso7816

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// CLIENT & PROTOCOL LOGIC:
// The Client drives one logical command to completion over a Transport.
// It implements the ISO 7816-3/4 behaviors that T=0 style transports expose
// to the application layer:
//
// 1. Payload too large:
//    The transport cannot carry the data in one exchange. The command is split
//    into chained APDUs. Intermediate chunks only return a status word; a
//    status other than 9000 aborts the chain.
//
// 2. "6C XX" (Wrong Length):
//    The card indicates that the expected length was incorrect and suggests XX.
//    The client re-sends the original command once with the reply region cut to XX.
//
// 3. "61 XX" (Response Available):
//    The card indicates that XX bytes are waiting. The client sends GET RESPONSE
//    into the unfilled tail of the reply buffer until the card stops announcing data.
//    Capacity is checked before each GET RESPONSE is sent.

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// Client manages the communication with the card over one logical channel.
// Exchanges are serialized: one operation owns the client for its whole duration.
// A context cancelled in the middle of a chain leaves the card mid-chain; callers
// should reselect before reusing the channel.
type Client struct {
	Transport Transport

	// Logger receives one Debug entry per physical exchange.
	Logger logrus.FieldLogger

	// Trace, when set, records every physical exchange.
	Trace *Trace

	mu    sync.Mutex
	class Class
}

// NewClient creates a Client over t with class 00 and a logger that discards output.
func NewClient(t Transport) *Client {
	return &Client{
		Transport: t,
		Logger:    discardLogger,
	}
}

// WithTrace makes the client record every exchange into t.
func (c *Client) WithTrace(t *Trace) *Client {
	c.Trace = t
	return c
}

// Class returns the class operations are built against.
func (c *Client) Class() Class {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.class
}

// SetClass changes the class (logical channel, secure messaging indication)
// used for subsequent operations.
func (c *Client) SetClass(cla Class) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.class = cla
}

// Send executes cmd with reply as the reply buffer.
// It is the Raw operation executed through the client.
func (c *Client) Send(ctx context.Context, cmd Command, reply []byte) (Response, error) {
	return Execute(ctx, c, &Raw{Command: cmd, Reply: reply})
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return discardLogger
	}
	return c.Logger
}

// run executes cmd against buf and settles wrong-length and more-data statuses.
// The returned Response data is buf[:n] where n is the number of accumulated bytes.
func (c *Client) run(ctx context.Context, cmd Command, buf []byte) (Response, error) {
	if len(buf) < 2 {
		return Response{}, fmt.Errorf("%w: %d bytes", ErrReplyBufferTooShort, len(buf))
	}
	capacity := len(buf) - 2

	resp, err := c.transmit(ctx, cmd, buf)
	if err != nil {
		return Response{}, err
	}

	if n, ok := resp.Status.WrongLength(); ok {
		if n > capacity {
			return Response{}, &BufferTooSmallError{Required: n, Available: capacity}
		}
		c.logger().WithFields(logrus.Fields{"ins": cmd.Instruction, "le": n}).Debug("wrong length, resending")

		resp, err = c.transmit(ctx, cmd, buf[:n+2])
		if err != nil {
			return Response{}, err
		}
	}

	offset := len(resp.Data)
	for {
		n, ok := resp.Status.MoreData()
		if !ok {
			break
		}
		if offset+n > capacity {
			return Response{}, &BufferTooSmallError{Required: offset + n, Available: capacity}
		}
		c.logger().WithFields(logrus.Fields{"offset": offset, "available": n}).Debug("more data, sending GET RESPONSE")

		get, region := NewGetResponse(buf[offset : offset+n+2]).Build(cmd.Class)
		resp, err = c.transmit(ctx, get, region)
		if err != nil {
			return Response{}, err
		}
		if len(resp.Data) == 0 {
			if _, more := resp.Status.MoreData(); more {
				return Response{}, ErrStalledContinuation
			}
		}
		offset += len(resp.Data)
	}

	return Response{Data: buf[:offset:offset], Status: resp.Status}, nil
}

// transmit sends cmd, falling back to command chaining when the transport
// rejects the payload size.
func (c *Client) transmit(ctx context.Context, cmd Command, reply []byte) (Response, error) {
	resp, err := c.exchange(ctx, cmd, reply)

	var tooLarge *PayloadTooLargeError
	if err == nil || !errors.As(err, &tooLarge) {
		return resp, err
	}
	if tooLarge.MaxSize <= 0 {
		return Response{}, ErrZeroPayloadSize
	}

	chunker, err := cmd.Chunk(tooLarge.MaxSize)
	if err != nil {
		return Response{}, err
	}
	c.logger().WithFields(logrus.Fields{
		"ins":      cmd.Instruction,
		"lc":       len(cmd.Data),
		"max_size": tooLarge.MaxSize,
	}).Debug("payload too large, chaining")

	var scratch [2]byte
	for {
		chunk, ok := chunker.Next()
		if !ok {
			// Unreachable: Last() reports the final chunk before exhaustion.
			return Response{}, fmt.Errorf("chaining %s: no chunk left", cmd.Instruction)
		}
		if chunker.Last() {
			return c.exchange(ctx, chunk, reply)
		}

		resp, err := c.exchange(ctx, chunk, scratch[:])
		if err != nil {
			return Response{}, err
		}
		if !resp.Status.IsSuccess() {
			c.logger().WithFields(logrus.Fields{"sw": resp.Status, "remaining": chunker.Remaining()}).Debug("chain aborted")
			return Response{Data: reply[:0:0], Status: resp.Status}, nil
		}
	}
}

// exchange performs one physical exchange and places the response data at the
// start of reply.
func (c *Client) exchange(ctx context.Context, cmd Command, reply []byte) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	resp, err := c.Transport.Execute(ctx, cmd, reply)
	if err != nil {
		return Response{}, fmt.Errorf("transmit %s: %w", cmd.Instruction, err)
	}

	resp, err = settle(resp, reply)
	if err != nil {
		return Response{}, err
	}

	ne := len(reply) - 2
	c.logger().WithFields(logrus.Fields{
		"cla": cmd.Class,
		"ins": cmd.Instruction,
		"p1":  fmt.Sprintf("%02X", cmd.P1),
		"p2":  fmt.Sprintf("%02X", cmd.P2),
		"lc":  len(cmd.Data),
		"ne":  ne,
		"sw":  fmt.Sprintf("%04X", uint16(resp.Status)),
		"len": len(resp.Data),
	}).Debug("exchange")

	if c.Trace != nil {
		c.Trace.record(Transaction{
			Command:    cmd,
			Ne:         ne,
			Status:     resp.Status,
			DataLength: len(resp.Data),
		})
	}
	return resp, nil
}

// settle makes sure the response data sits at the start of reply.
// Transports that parsed their own buffer are copied in.
func settle(resp Response, reply []byte) (Response, error) {
	n := len(resp.Data)
	if n+2 > len(reply) {
		return Response{}, fmt.Errorf("%w: %d data bytes for a %d byte region", ErrTransportOverrun, n, len(reply))
	}
	if n > 0 && &resp.Data[0] != &reply[0] {
		copy(reply, resp.Data)
	}
	reply[n] = resp.Status.SW1()
	reply[n+1] = resp.Status.SW2()
	return Response{Data: reply[:n:n], Status: resp.Status}, nil
}
