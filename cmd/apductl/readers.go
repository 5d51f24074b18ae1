package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gregLibert/apdu/pkg/pcsc"
)

func newReadersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "readers",
		Short: "List the PC/SC readers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := pcsc.Readers()
			if err != nil {
				return err
			}
			a.print(cmd, names)
			return nil
		},
	}
}

func newATRCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "atr",
		Short: "Print the answer to reset of the card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			protocol, err := pcsc.ParseProtocol(a.cfg.Protocol)
			if err != nil {
				return err
			}
			reader, err := pcsc.Connect(a.cfg.Reader, protocol)
			if err != nil {
				return err
			}
			defer a.closeQuietly(reader)

			atr, err := reader.ATR()
			if err != nil {
				return err
			}
			a.print(cmd, fmt.Sprintf("%s: %X", reader.Name, atr))
			return nil
		},
	}
}
