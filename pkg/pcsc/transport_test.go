package pcsc

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/apdu/pkg/iso7816"
	"github.com/gregLibert/apdu/pkg/tlv"
)

// fakeCard answers raw APDUs from a script and records what it received.
type fakeCard struct {
	replies [][]byte
	sent    [][]byte
	err     error
}

func (c *fakeCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, append([]byte(nil), cmd...))
	if c.err != nil {
		return nil, c.err
	}
	if len(c.replies) == 0 {
		return tlv.Hex("6F 00"), nil
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r, nil
}

func TestTransport_Execute(t *testing.T) {
	card := &fakeCard{replies: [][]byte{tlv.Hex("01 02 90 00")}}
	tr := NewTransport(card)

	reply := make([]byte, 10)
	cmd := iso7816.NewCommand(iso7816.MustClass(0x00), iso7816.INS_GET_DATA, 0x9F, 0x36, nil)

	resp, err := tr.Execute(context.Background(), cmd, reply)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if diff := cmp.Diff([][]byte{tlv.Hex("00 CA 9F 36 08")}, card.sent); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(resp.Data, tlv.Hex("01 02")) || !resp.Is(iso7816.SW_NO_ERROR) {
		t.Errorf("response = %s", resp)
	}
	if &resp.Data[0] != &reply[0] {
		t.Error("response should be parsed over the reply region")
	}
}

func TestTransport_NeLimits(t *testing.T) {
	tests := []struct {
		name     string
		extended bool
		reply    int
		want     []byte
	}{
		{"status only", false, 2, tlv.Hex("00 B0 00 00")},
		{"short capped at 256", false, 1000, tlv.Hex("00 B0 00 00 00")},
		{"extended", true, 1002, tlv.Hex("00 B0 00 00 00 03 E8")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &fakeCard{replies: [][]byte{tlv.Hex("90 00")}}
			tr := NewTransport(card)
			tr.Extended = tt.extended

			cmd := iso7816.NewCommand(iso7816.MustClass(0x00), iso7816.INS_READ_BINARY, 0, 0, nil)
			if _, err := tr.Execute(context.Background(), cmd, make([]byte, tt.reply)); err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, card.sent[0]); diff != "" {
				t.Errorf("sent mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransport_Errors(t *testing.T) {
	cmd := iso7816.NewCommand(iso7816.MustClass(0x00), iso7816.INS_PUT_DATA, 0, 0, make([]byte, 8))

	t.Run("payload too large", func(t *testing.T) {
		tr := NewTransport(&fakeCard{})
		tr.MaxPayload = 4

		_, err := tr.Execute(context.Background(), cmd, make([]byte, 2))
		var tooLarge *iso7816.PayloadTooLargeError
		if !errors.As(err, &tooLarge) || tooLarge.MaxSize != 4 {
			t.Errorf("error = %v, want PayloadTooLargeError{4}", err)
		}
	})

	t.Run("reply overflow", func(t *testing.T) {
		tr := NewTransport(&fakeCard{replies: [][]byte{tlv.Hex("01 02 03 90 00")}})

		_, err := tr.Execute(context.Background(), cmd, make([]byte, 4))
		if !errors.Is(err, ErrReplyOverflow) {
			t.Errorf("error = %v, want ErrReplyOverflow", err)
		}
	})

	t.Run("card failure", func(t *testing.T) {
		errRemoved := errors.New("card removed")
		tr := NewTransport(&fakeCard{err: errRemoved})

		_, err := tr.Execute(context.Background(), cmd, make([]byte, 2))
		if !errors.Is(err, errRemoved) {
			t.Errorf("error = %v, want %v", err, errRemoved)
		}
	})

	t.Run("short answer", func(t *testing.T) {
		tr := NewTransport(&fakeCard{replies: [][]byte{{0x90}}})

		_, err := tr.Execute(context.Background(), cmd, make([]byte, 2))
		if !errors.Is(err, iso7816.ErrResponseTooShort) {
			t.Errorf("error = %v, want ErrResponseTooShort", err)
		}
	})
}

func TestTransport_WithClientChaining(t *testing.T) {
	card := &fakeCard{replies: [][]byte{
		tlv.Hex("90 00"),
		tlv.Hex("61 02"),
		tlv.Hex("AA BB 90 00"),
	}}
	tr := NewTransport(card)
	tr.MaxPayload = 3

	client := iso7816.NewClient(tr)
	cmd := iso7816.NewCommand(iso7816.MustClass(0x00), iso7816.INS_PUT_DATA, 0x01, 0x00, tlv.Hex("01 02 03 04 05"))

	resp, err := client.Send(context.Background(), cmd, make([]byte, 8))
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	want := [][]byte{
		tlv.Hex("10 DA 01 00 03 01 02 03"),
		tlv.Hex("00 DA 01 00 02 04 05 06"),
		tlv.Hex("00 C0 00 00 02"),
	}
	if diff := cmp.Diff(want, card.sent); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(resp.Data, tlv.Hex("AA BB")) || !resp.Is(iso7816.SW_NO_ERROR) {
		t.Errorf("response = %s % X", resp, resp.Data)
	}
}

func TestParseProtocol(t *testing.T) {
	for _, s := range []string{"t0", "T1", "any", ""} {
		if _, err := ParseProtocol(s); err != nil {
			t.Errorf("ParseProtocol(%q) error: %v", s, err)
		}
	}
	if _, err := ParseProtocol("t2"); err == nil {
		t.Error("ParseProtocol(t2) should fail")
	}
}
