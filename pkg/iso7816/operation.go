package iso7816

import (
	"context"
)

// OPERATIONS:
// An Operation turns a typed request into a Command plus the reply buffer the
// card answer is written to (Build), then turns the final Response back into a
// typed result (Parse). The Client runs everything in between.

// Operation is the build/parse contract executed by a Client.
type Operation[R any] interface {
	// Build returns the command for the given class and the reply buffer.
	Build(cla Class) (Command, []byte)

	// Parse interprets the final response. Status words the operation does not
	// expect are reported here, not by the Client.
	Parse(resp Response) (R, error)
}

// Execute runs op on c: it builds the command against the client's current
// class, sends it (chaining, wrong-length retry and GET RESPONSE included) and
// parses the final response.
//
// Errors returned are transport failures, *BufferTooSmallError and the
// configuration errors of the engine; protocol statuses reach op.Parse.
func Execute[R any](ctx context.Context, c *Client, op Operation[R]) (R, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero R

	cmd, buf := op.Build(c.class)
	resp, err := c.run(ctx, cmd, buf)
	if err != nil {
		return zero, err
	}
	return op.Parse(resp)
}

// GetResponse retrieves response bytes announced by a 61XX status.
// INS 'C0', P1 = P2 = 00, no data; Ne is derived from the reply buffer.
type GetResponse struct {
	Reply []byte
}

// NewGetResponse creates a GET RESPONSE writing into reply.
func NewGetResponse(reply []byte) *GetResponse {
	return &GetResponse{Reply: reply}
}

// Build sends on the same channel as cla, never chained.
func (g *GetResponse) Build(cla Class) (Command, []byte) {
	return NewCommand(cla.WithoutChaining(), INS_GET_RESPONSE, 0x00, 0x00, nil), g.Reply
}

// Parse returns the response unchanged.
func (g *GetResponse) Parse(resp Response) (Response, error) {
	return resp, nil
}

// Raw sends a caller-built command. Its class is used as is.
type Raw struct {
	Command Command
	Reply   []byte
}

func (r *Raw) Build(Class) (Command, []byte) {
	return r.Command, r.Reply
}

// Parse returns the response unchanged.
func (r *Raw) Parse(resp Response) (Response, error) {
	return resp, nil
}
