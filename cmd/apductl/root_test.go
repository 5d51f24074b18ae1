package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/apdu/internal/config"
	"github.com/gregLibert/apdu/internal/output"
	"github.com/gregLibert/apdu/pkg/iso7816"
	"github.com/gregLibert/apdu/pkg/pcsc"
	"github.com/gregLibert/apdu/pkg/tlv"
)

type fakeCard struct {
	replies [][]byte
	sent    [][]byte
	closed  bool
}

func (c *fakeCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, append([]byte(nil), cmd...))
	if len(c.replies) == 0 {
		return tlv.Hex("6F 00"), nil
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r, nil
}

func (c *fakeCard) Close() error {
	c.closed = true
	return nil
}

// run executes apductl with args against card and returns stdout.
func run(t *testing.T, card *fakeCard, args ...string) (string, error) {
	t.Helper()

	a := newApp()
	a.connect = func(cfg config.Config) (iso7816.Transport, io.Closer, error) {
		return pcsc.NewTransport(card), card, nil
	}

	root := newRootCmd(a)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if card.sent != nil && !card.closed {
		t.Error("reader was not released")
	}
	return stdout.String(), err
}

func decodeResult(t *testing.T, out string) output.Result {
	t.Helper()
	var res output.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	return res
}

func TestSendCommand(t *testing.T) {
	card := &fakeCard{replies: [][]byte{
		tlv.Hex("6C 03"),
		tlv.Hex("AB CD EF 90 00"),
	}}

	out, err := run(t, card, "send", "-o", "json", "00 B0", "00 00")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	wantSent := [][]byte{
		tlv.Hex("00 B0 00 00 00"),
		tlv.Hex("00 B0 00 00 03"),
	}
	if diff := cmp.Diff(wantSent, card.sent); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}

	res := decodeResult(t, out)
	if res.Operation != "READ BINARY" || res.Status != "9000" || res.Data != "ABCDEF" {
		t.Errorf("result = %+v", res)
	}
	wantEx := []output.Exchange{
		{Command: "00 READ BINARY 00 00 Lc=0", Ne: 256, Status: "6C03", Length: 0},
		{Command: "00 READ BINARY 00 00 Lc=0", Ne: 3, Status: "9000", Length: 3},
	}
	if diff := cmp.Diff(wantEx, res.Exchanges); diff != "" {
		t.Errorf("exchanges mismatch (-want +got):\n%s", diff)
	}
}

func TestSendCommand_TextOutput(t *testing.T) {
	card := &fakeCard{replies: [][]byte{tlv.Hex("01 02 90 00")}}

	out, err := run(t, card, "send", "00CA9F7F")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	want := "GET DATA: [9000] [9000] SW_NO_ERROR 0102\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestSelectCommand(t *testing.T) {
	card := &fakeCard{replies: [][]byte{tlv.Hex("6F 03 84 01 AA 90 00")}}

	out, err := run(t, card, "select", "--aid", "A0000000031010", "-o", "json")
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	if diff := cmp.Diff([][]byte{tlv.Hex("00 A4 04 04 07 A0000000031010 00")}, card.sent); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}

	res := decodeResult(t, out)
	if diff := cmp.Diff([]output.Record{{Tag: "6F", Value: "8401AA"}}, res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectCommand_FileIDAndControl(t *testing.T) {
	card := &fakeCard{replies: [][]byte{tlv.Hex("90 00")}}

	_, err := run(t, card, "select", "--fid", "2F00", "--control", "none", "--occurrence", "next")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if diff := cmp.Diff([][]byte{tlv.Hex("00 A4 00 02 02 2F00 00")}, card.sent); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectCommand_Refused(t *testing.T) {
	card := &fakeCard{replies: [][]byte{tlv.Hex("6A 82")}}

	out, err := run(t, card, "select", "--aid", "A000000003")

	var se *iso7816.StatusError
	if !errors.As(err, &se) || !se.Status().Is(iso7816.SW_ERR_FILE_NOT_FOUND) {
		t.Fatalf("error = %v, want file not found status", err)
	}
	if out == "" {
		t.Error("the report should be printed even when the card refuses")
	}
}

func TestReadRecordCommand(t *testing.T) {
	card := &fakeCard{replies: [][]byte{tlv.Hex("70 02 5A 00 90 00")}}

	_, err := run(t, card, "read-record", "--sfi", "1", "--record", "2")
	if err != nil {
		t.Fatalf("read-record: %v", err)
	}
	if diff := cmp.Diff([][]byte{tlv.Hex("00 B2 02 0C 00")}, card.sent); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRecordCommand_InvalidSFI(t *testing.T) {
	card := &fakeCard{}
	if _, err := run(t, card, "read-record", "--sfi", "31"); err == nil {
		t.Fatal("expected an error for SFI 31")
	}
	if len(card.sent) != 0 {
		t.Error("nothing should be sent for an invalid SFI")
	}
}

func TestConfigFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apductl.toml")
	content := "output = \"json\"\nreply_buffer_size = 7\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	card := &fakeCard{replies: [][]byte{tlv.Hex("01 02 90 00")}}
	out, err := run(t, card, "--config", path, "send", "00CA0000")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	// A 7 byte reply buffer leaves room for 5 data bytes.
	if diff := cmp.Diff([][]byte{tlv.Hex("00 CA 00 00 05")}, card.sent); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}
	decodeResult(t, out)

	if _, err := run(t, &fakeCard{}, "--log-level", "loud", "send", "00CA0000"); err == nil {
		t.Error("expected an error for an unknown log level")
	}
	if _, err := run(t, &fakeCard{}, "--output", "xml", "send", "00CA0000"); err == nil {
		t.Error("expected an error for an unknown output format")
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    iso7816.Command
		wantErr bool
	}{
		{
			name: "Header only",
			args: []string{"00B2010C"},
			want: iso7816.NewCommand(iso7816.MustClass(0x00), iso7816.INS_READ_RECORD, 0x01, 0x0C, nil),
		},
		{
			name: "Spaced header with data",
			args: []string{"00", "A4", "04", "00", "A0 00 00 00 03"},
			want: iso7816.NewCommand(iso7816.MustClass(0x00), iso7816.INS_SELECT, 0x04, 0x00, tlv.Hex("A000000003")),
		},
		{name: "Proprietary class", args: []string{"80CA9F7F"}, wantErr: true},
		{name: "Short header", args: []string{"00A404"}, wantErr: true},
		{name: "Odd digits", args: []string{"00A4040"}, wantErr: true},
		{name: "Invalid class", args: []string{"FFA40400"}, wantErr: true},
		{name: "Invalid instruction", args: []string{"00600000"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(iso7816.Class{})); diff != "" {
				t.Errorf("parseCommand() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSelectFlags(t *testing.T) {
	occ, err := parseOccurrence("Previous")
	if err != nil || occ != iso7816.PreviousOccurrence {
		t.Errorf("parseOccurrence(Previous) = %v, %v", occ, err)
	}
	if _, err := parseOccurrence("middle"); err == nil {
		t.Error("parseOccurrence(middle) should fail")
	}

	fc, err := parseFileControl("FMD")
	if err != nil || fc != iso7816.ReturnFMD {
		t.Errorf("parseFileControl(FMD) = %v, %v", fc, err)
	}
	if _, err := parseFileControl("all"); err == nil {
		t.Error("parseFileControl(all) should fail")
	}

	fid, err := parseFileID("0x3F00")
	if err != nil || fid != 0x3F00 {
		t.Errorf("parseFileID(0x3F00) = %04X, %v", fid, err)
	}
	for _, bad := range []string{"3F", "3F000", "ZZZZ"} {
		if _, err := parseFileID(bad); err == nil {
			t.Errorf("parseFileID(%q) should fail", bad)
		}
	}
}
