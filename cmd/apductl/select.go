package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gregLibert/apdu/internal/output"
	"github.com/gregLibert/apdu/pkg/iso7816"
	"github.com/gregLibert/apdu/pkg/tlv"
)

func newSelectCmd(a *app) *cobra.Command {
	var (
		aid        string
		fid        string
		occurrence string
		control    string
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select an application or a file",
		Example: `  apductl select --aid A0000000031010
  apductl select --fid 3F00 --control fcp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			occ, err := parseOccurrence(occurrence)
			if err != nil {
				return err
			}
			fc, err := parseFileControl(control)
			if err != nil {
				return err
			}

			var op *iso7816.Select
			switch {
			case aid != "" && fid != "":
				return fmt.Errorf("--aid and --fid are mutually exclusive")
			case aid != "":
				name, err := tlv.ParseHex(aid)
				if err != nil {
					return fmt.Errorf("invalid AID: %w", err)
				}
				op = iso7816.SelectByAID(name, a.replyBuffer())
			case fid != "":
				id, err := parseFileID(fid)
				if err != nil {
					return err
				}
				op = iso7816.SelectByFileID(id, a.replyBuffer())
			default:
				op = iso7816.SelectMF(a.replyBuffer())
			}
			op = op.WithOccurrence(occ).WithFileControl(fc)

			client, trace, closer, err := a.client()
			if err != nil {
				return err
			}
			defer a.closeQuietly(closer)

			res, err := iso7816.Execute(cmd.Context(), client, op)
			if err != nil {
				return err
			}
			a.print(cmd, output.NewResult("select", res.Response, *trace, res.Describe(*trace)))
			return res.Err()
		},
	}

	cmd.Flags().StringVar(&aid, "aid", "", "application identifier (DF name) in hex")
	cmd.Flags().StringVar(&fid, "fid", "", "2-byte file identifier in hex")
	cmd.Flags().StringVar(&occurrence, "occurrence", "first", "occurrence: first, last, next, previous")
	cmd.Flags().StringVar(&control, "control", "fci", "requested file control: none, fci, fcp, fmd")
	return cmd
}

func parseOccurrence(s string) (iso7816.FileOccurrence, error) {
	switch strings.ToLower(s) {
	case "", "first":
		return iso7816.FirstOrOnlyOccurrence, nil
	case "last":
		return iso7816.LastOccurrence, nil
	case "next":
		return iso7816.NextOccurrence, nil
	case "previous", "prev":
		return iso7816.PreviousOccurrence, nil
	}
	return 0, fmt.Errorf("unknown occurrence %q", s)
}

func parseFileControl(s string) (iso7816.FileControl, error) {
	switch strings.ToLower(s) {
	case "none":
		return iso7816.ReturnNoData, nil
	case "", "fci":
		return iso7816.ReturnFCI, nil
	case "fcp":
		return iso7816.ReturnFCP, nil
	case "fmd":
		return iso7816.ReturnFMD, nil
	}
	return 0, fmt.Errorf("unknown file control %q", s)
}

func parseFileID(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if len(s) != 4 {
		return 0, fmt.Errorf("invalid file identifier %q: want 4 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid file identifier %q: %w", s, err)
	}
	return uint16(v), nil
}
