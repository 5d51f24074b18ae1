package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/gregLibert/apdu/pkg/iso7816"
	"github.com/gregLibert/apdu/pkg/tlv"
)

func sampleResult() Result {
	cla := iso7816.MustClass(0x00)
	trace := iso7816.Trace{
		{Command: iso7816.NewCommand(cla, iso7816.INS_SELECT, 0x04, 0x04, tlv.Hex("A0 00 00 00 03")), Ne: 256, Status: iso7816.NewStatusWord(0x61, 0x05)},
		{Command: iso7816.NewCommand(cla, iso7816.INS_GET_RESPONSE, 0x00, 0x00, nil), Ne: 5, Status: iso7816.SW_NO_ERROR, DataLength: 5},
	}
	resp := iso7816.Response{Data: tlv.Hex("6F 03 84 01 AA"), Status: iso7816.SW_NO_ERROR}
	return NewResult("select", resp, trace, "=== SELECT COMMAND REPORT ===")
}

func TestNewResult(t *testing.T) {
	r := sampleResult()

	if r.Status != "9000" || r.Data != "6F038401AA" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if diff := cmp.Diff([]Record{{Tag: "6F", Value: "8401AA"}}, r.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	want := []Exchange{
		{Command: "00 SELECT 04 04 Lc=5", Ne: 256, Status: "6105", Length: 0},
		{Command: "00 GET RESPONSE 00 00 Lc=0", Ne: 5, Status: "9000", Length: 5},
	}
	if diff := cmp.Diff(want, r.Exchanges); diff != "" {
		t.Errorf("exchanges mismatch (-want +got):\n%s", diff)
	}
}

func TestNewResult_NonTLVData(t *testing.T) {
	resp := iso7816.Response{Data: tlv.Hex("01 05 02"), Status: iso7816.SW_NO_ERROR}
	r := NewResult("send", resp, nil, "")

	if r.Records != nil {
		t.Errorf("records = %+v, want none for malformed TLV", r.Records)
	}
	if got := r.Text(); !strings.HasPrefix(got, "send: [9000]") {
		t.Errorf("Text() = %q", got)
	}
}

func TestFormatters(t *testing.T) {
	r := sampleResult()

	t.Run("text uses the report", func(t *testing.T) {
		got := NewFormatter("text").Format(r)
		if got != "=== SELECT COMMAND REPORT ===\n" {
			t.Errorf("text = %q", got)
		}
	})

	t.Run("json", func(t *testing.T) {
		var back map[string]any
		if err := json.Unmarshal([]byte(NewFormatter("JSON").Format(r)), &back); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if back["status"] != "9000" || back["operation"] != "select" {
			t.Errorf("json = %v", back)
		}
		if _, ok := back["report"]; ok {
			t.Error("report should not be serialized")
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var back Result
		if err := yaml.Unmarshal([]byte(NewFormatter("yaml").Format(r)), &back); err != nil {
			t.Fatalf("invalid YAML: %v", err)
		}
		if diff := cmp.Diff(r.Exchanges, back.Exchanges); diff != "" {
			t.Errorf("exchanges mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("text list", func(t *testing.T) {
		got := NewFormatter("").Format([]string{"Reader A", "Reader B"})
		if got != "Reader A\nReader B\n" {
			t.Errorf("text = %q", got)
		}
		if got := NewFormatter("text").Format([]string{}); got != "Nothing found.\n" {
			t.Errorf("empty = %q", got)
		}
	})
}
