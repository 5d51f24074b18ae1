package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/apdu/pkg/tlv"
)

// ReadRecordResult represents the outcome of a READ RECORD command execution.
type ReadRecordResult struct {
	Request  Command
	Response Response
}

// IsSuccess reports whether the card answered 9000.
func (r *ReadRecordResult) IsSuccess() bool {
	return r.Response.Status.IsSuccess()
}

// Err returns a *StatusError when the read did not succeed.
func (r *ReadRecordResult) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &StatusError{Response: r.Response}
}

// Data returns the record content, or the status error.
func (r *ReadRecordResult) Data() ([]byte, error) {
	return r.Response.Expect(SW_NO_ERROR)
}

// Describe generates a detailed, ASCII-formatted report of the read operation.
// trace holds the physical exchanges of the read and may be nil.
func (r *ReadRecordResult) Describe(trace Trace) string {
	var sb strings.Builder

	sb.WriteString("=== READ RECORD COMMAND REPORT ===\n")

	cmd := r.Request
	sfi := cmd.P2 >> 3
	mode := ReadRecordMode(cmd.P2 & 0x07)

	sb.WriteString("[1] Command: READ RECORD\n")

	targetStr := "Current EF"
	if sfi > 0 {
		targetStr = fmt.Sprintf("SFI %02X (%d)", sfi, sfi)
	}
	fmt.Fprintf(&sb, "    + Target:  %s\n", targetStr)

	var p1Desc string
	if (mode & 0b100) != 0 {
		if cmd.P1 == 0 {
			p1Desc = "Current Record"
		} else {
			p1Desc = fmt.Sprintf("Record Number %d", cmd.P1)
		}
	} else {
		p1Desc = fmt.Sprintf("Record Identifier %02X", cmd.P1)
	}

	fmt.Fprintf(&sb, "    + P1:      %02X -> %s\n", cmd.P1, p1Desc)
	fmt.Fprintf(&sb, "    + Mode:    %02X -> %s\n", byte(mode), mode)
	sb.WriteString("\n")

	writeSteps(&sb, trace)

	sb.WriteString("[=] DATA OUTCOME:\n")
	fmt.Fprintf(&sb, "    + Result: %s\n", statusSummary(r.Response.Status))

	payload := r.Response.Data
	if len(payload) > 0 {
		fmt.Fprintf(&sb, "    + Length: %d bytes\n", len(payload))
		fmt.Fprintf(&sb, "    + Dump:   %X\n", payload)
		fmt.Fprintf(&sb, "    + ASCII:  %q\n", tlv.MakeSafeASCII(payload))
	} else {
		sb.WriteString("    - No Data Received.\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
