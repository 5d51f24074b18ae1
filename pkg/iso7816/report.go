package iso7816

import (
	"fmt"
	"strings"
)

// statusSummary renders a status word for the Describe reports.
func statusSummary(sw StatusWord) string {
	mark := "[OK]"
	desc := "SW_NO_ERROR"

	if n, ok := sw.MoreData(); ok {
		desc = fmt.Sprintf("%02X (%d) bytes still available", sw.SW2(), n)
	} else if n, ok := sw.WrongLength(); ok {
		mark = "[!!]"
		desc = fmt.Sprintf("Wrong length, correct is %02X (%d)", sw.SW2(), n)
	} else if !sw.IsSuccess() {
		mark = "[!!]"
		desc = sw.Verbose()
	}
	return fmt.Sprintf("[%02X %02X] %s %s", sw.SW1(), sw.SW2(), mark, desc)
}

// writeSteps lists the physical exchanges of a trace when the client needed
// more than one of them.
func writeSteps(sb *strings.Builder, trace Trace) {
	if len(trace) < 2 {
		return
	}

	fmt.Fprintf(sb, "[2] Protocol: Auto-handling (Sequence of %d steps)\n", len(trace))
	for i, tx := range trace {
		action := tx.Command.Instruction.String()
		switch {
		case tx.Command.Class.IsChained():
			action += " (Chained)"
		case i > 0 && tx.Command.Instruction == trace[0].Command.Instruction:
			action += " (Correction)"
		}
		fmt.Fprintf(sb, "    + Step %d: %-24s Ne %-5d -> %s | %d bytes\n",
			i+1, action, tx.Ne, statusSummary(tx.Status), tx.DataLength)
	}
	sb.WriteString("\n")
}
