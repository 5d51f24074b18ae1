package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gregLibert/apdu/internal/output"
	"github.com/gregLibert/apdu/pkg/iso7816"
	"github.com/gregLibert/apdu/pkg/tlv"
)

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send CLA INS P1 P2 [DATA...]",
		Short: "Send a raw command",
		Long: `Send a raw command built from its header and optional data, all in hex.
Lc and Le are not given: Lc comes from the data and Ne from the reply
buffer size. Arguments are concatenated so both "00A4040007A0000000031010"
style and spaced bytes are accepted.`,
		Example: `  apductl send 00 A4 04 00 A0000000031010
  apductl send 00CA9F7F`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := parseCommand(args...)
			if err != nil {
				return err
			}

			client, trace, closer, err := a.client()
			if err != nil {
				return err
			}
			defer a.closeQuietly(closer)

			resp, err := client.Send(cmd.Context(), command, a.replyBuffer())
			if err != nil {
				return err
			}
			a.print(cmd, output.NewResult(command.Instruction.String(), resp, *trace, ""))
			return nil
		},
	}
}

// parseCommand decodes "CLA INS P1 P2 [DATA]" given as hex.
func parseCommand(parts ...string) (iso7816.Command, error) {
	raw, err := tlv.ParseHex(parts...)
	if err != nil {
		return iso7816.Command{}, err
	}
	if len(raw) < 4 {
		return iso7816.Command{}, fmt.Errorf("command header needs 4 bytes, got %d", len(raw))
	}

	cla, err := iso7816.NewClass(raw[0])
	if err != nil {
		return iso7816.Command{}, err
	}
	ins := iso7816.InsCode(raw[1])
	if err := ins.Validate(); err != nil {
		return iso7816.Command{}, err
	}

	var data []byte
	if len(raw) > 4 {
		data = raw[4:]
	}
	return iso7816.NewCommand(cla, ins, raw[2], raw[3], data), nil
}
