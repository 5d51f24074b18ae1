package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/apdu/pkg/tlv"
)

// SELECT RESULT ANALYSIS:
// The Client already folded retries and GET RESPONSE sequences into one final
// Response. SelectResult gives access to that data as a flat TLV sequence
// (Records), as BER-TLV File Control Information (FCI) and as a human-readable
// report (Describe).

// SelectResult represents the outcome of a SELECT command execution.
// A selection refused by the card is a SelectResult too; Err reports it.
type SelectResult struct {
	Request  Command
	Control  FileControl
	Response Response
}

// IsSuccess reports whether the card answered 9000.
func (r *SelectResult) IsSuccess() bool {
	return r.Response.Status.IsSuccess()
}

// Err returns a *StatusError when the selection did not succeed.
func (r *SelectResult) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &StatusError{Response: r.Response}
}

// Records iterates the response data as one-byte tag, one-byte length entries.
// The iterator reads the reply buffer in place.
func (r *SelectResult) Records() (tlv.Iterator, error) {
	data, err := r.Response.Expect(SW_NO_ERROR)
	if err != nil {
		return tlv.Iterator{}, err
	}
	return tlv.NewIterator(data), nil
}

// FCI decodes the response data as BER-TLV according to the file control
// requested in P2.
func (r *SelectResult) FCI() (*FileControlInfo, error) {
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("selection failed, cannot parse FCI: %w", err)
	}
	if len(r.Response.Data) == 0 {
		return nil, fmt.Errorf("no response data found")
	}
	return ParseSelectData(r.Response.Data, r.Control)
}

// Describe generates a detailed, ASCII-formatted report of the selection.
// trace holds the physical exchanges of the selection and may be nil.
func (r *SelectResult) Describe(trace Trace) string {
	var sb strings.Builder

	sb.WriteString("=== SELECT COMMAND REPORT ===\n")

	cmd := r.Request
	method := SelectionMethod(cmd.P1)
	occ := FileOccurrence(cmd.P2 & 0x03)
	ctrl := FileControl(cmd.P2 & 0x0C)

	sb.WriteString("[1] Command: SELECT FILE (Initial Request)\n")
	fmt.Fprintf(&sb, "    + Class:   %s\n", cmd.Class.Verbose())
	fmt.Fprintf(&sb, "    + Method:  %02X -> %s\n", cmd.P1, method)
	fmt.Fprintf(&sb, "    + Control: %02X -> %s | %s\n", cmd.P2, occ, ctrl)
	if len(cmd.Data) > 0 {
		fmt.Fprintf(&sb, "    + Data:    %X (%q)\n", cmd.Data, tlv.MakeSafeASCII(cmd.Data))
	}
	sb.WriteString("\n")

	writeSteps(&sb, trace)

	sb.WriteString("[=] FINAL OUTCOME:\n")
	fmt.Fprintf(&sb, "    + Result:  %s\n", statusSummary(r.Response.Status))

	payload := r.Response.Data
	if len(payload) > 0 {
		fmt.Fprintf(&sb, "    + Payload: %d bytes\n", len(payload))
		fmt.Fprintf(&sb, "      Dump:    %X\n", payload)
	}

	fci, err := r.FCI()
	if err != nil {
		if len(payload) > 0 && r.IsSuccess() {
			fmt.Fprintf(&sb, "    - FCI Parsing Failed: %v\n", err)
		} else {
			sb.WriteString("    - No Data returned to parse.\n")
		}
		return strings.TrimRight(sb.String(), "\n")
	}
	if fci == nil {
		sb.WriteString("    - No file control information requested.\n")
		return strings.TrimRight(sb.String(), "\n")
	}

	var fields strings.Builder
	tlv.WriteStructFields(&fields, "FCP", fci.FCP)
	fcpLen := fields.Len()
	tlv.WriteStructFields(&fields, "FMD", fci.FMD)

	var structures []string
	if fcpLen > 0 {
		structures = append(structures, "FCP")
	}
	if fields.Len() > fcpLen {
		structures = append(structures, "FMD")
	}
	if len(fci.ProprietaryRawData) > 0 {
		structures = append(structures, "ProprietaryRaw")
	}

	strList := "None"
	if len(structures) > 0 {
		strList = strings.Join(structures, " + ")
	}
	fmt.Fprintf(&sb, "    - Structure: %s\n", strList)

	if fields.Len() > 0 {
		sb.WriteString(fields.String())
		sb.WriteString("\n")
	}
	for _, u := range fci.Unknown {
		fmt.Fprintf(&sb, "    - Unknown Tag %s: %X\n", u.Tag, u.Value)
	}
	if len(fci.ProprietaryRawData) > 0 {
		fmt.Fprintf(&sb, "    - Proprietary:   %X\n", fci.ProprietaryRawData)
	}

	return strings.TrimRight(sb.String(), "\n")
}
