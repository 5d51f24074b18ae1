package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gregLibert/apdu/internal/output"
	"github.com/gregLibert/apdu/pkg/iso7816"
)

func newReadRecordCmd(a *app) *cobra.Command {
	var (
		sfi    uint8
		record uint8
		all    bool
	)

	cmd := &cobra.Command{
		Use:     "read-record",
		Short:   "Read a record from a record-structured EF",
		Example: `  apductl read-record --sfi 1 --record 1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sfi > 30 {
				return fmt.Errorf("SFI must be in 0..30, got %d", sfi)
			}

			op := iso7816.ReadRecordNumber(sfi, record, a.replyBuffer())
			if all {
				op = iso7816.ReadAllRecords(sfi, record, a.replyBuffer())
			}

			client, trace, closer, err := a.client()
			if err != nil {
				return err
			}
			defer a.closeQuietly(closer)

			res, err := iso7816.Execute(cmd.Context(), client, op)
			if err != nil {
				return err
			}
			a.print(cmd, output.NewResult("read-record", res.Response, *trace, res.Describe(*trace)))
			return res.Err()
		},
	}

	cmd.Flags().Uint8Var(&sfi, "sfi", 0, "short EF identifier (0 = current EF)")
	cmd.Flags().Uint8Var(&record, "record", 1, "record number")
	cmd.Flags().BoolVar(&all, "all", false, "read all records from --record onwards")
	return cmd
}
