package iso7816

import (
	"context"
	"testing"

	"github.com/gregLibert/apdu/pkg/tlv"
)

// exchangeRecord is what the scripted card observed for one physical exchange.
type exchangeRecord struct {
	Class  byte
	Ins    InsCode
	P1, P2 byte
	Data   []byte
	Window int
}

// cardStep is one canned answer: raw reply bytes (data + SW) or an error.
type cardStep struct {
	reply []byte
	err   error
}

// scriptedCard is a Transport replaying canned replies in order.
// Commands with more than maxPayload data bytes are refused with a
// *PayloadTooLargeError without consuming a step.
type scriptedCard struct {
	t          *testing.T
	maxPayload int
	steps      []cardStep
	seen       []exchangeRecord
	refused    int

	// detached returns responses over a private buffer instead of reply.
	detached bool
}

func newScriptedCard(t *testing.T, maxPayload int, replies ...string) *scriptedCard {
	c := &scriptedCard{t: t, maxPayload: maxPayload}
	for _, r := range replies {
		c.steps = append(c.steps, cardStep{reply: tlv.Hex(r)})
	}
	return c
}

func (c *scriptedCard) MaxPayloadSize() int {
	return c.maxPayload
}

func (c *scriptedCard) Execute(_ context.Context, cmd Command, reply []byte) (Response, error) {
	if len(cmd.Data) > c.maxPayload {
		c.refused++
		return Response{}, &PayloadTooLargeError{MaxSize: c.maxPayload}
	}

	c.seen = append(c.seen, exchangeRecord{
		Class:  cmd.Class.Encode(),
		Ins:    cmd.Instruction,
		P1:     cmd.P1,
		P2:     cmd.P2,
		Data:   append([]byte(nil), cmd.Data...),
		Window: len(reply),
	})

	if len(c.steps) == 0 {
		c.t.Fatalf("unexpected exchange #%d: %s", len(c.seen), cmd)
	}
	step := c.steps[0]
	c.steps = c.steps[1:]
	if step.err != nil {
		return Response{}, step.err
	}

	if c.detached {
		return ParseResponse(append([]byte(nil), step.reply...))
	}
	if len(step.reply) > len(reply) {
		c.t.Fatalf("exchange #%d: reply of %d bytes for a %d byte window", len(c.seen), len(step.reply), len(reply))
	}
	n := copy(reply, step.reply)
	return ParseResponse(reply[:n])
}

func (c *scriptedCard) done() {
	c.t.Helper()
	if len(c.steps) != 0 {
		c.t.Errorf("%d scripted replies left unused", len(c.steps))
	}
}
