package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gregLibert/apdu/internal/config"
	"github.com/gregLibert/apdu/internal/output"
	"github.com/gregLibert/apdu/pkg/iso7816"
	"github.com/gregLibert/apdu/pkg/pcsc"
)

// connectFunc opens a transport to the configured card.
type connectFunc func(cfg config.Config) (iso7816.Transport, io.Closer, error)

// app is the state shared by the commands.
type app struct {
	// Global flags
	cfgFile   string
	reader    string
	logLevel  string
	outputFmt string

	// Set during PersistentPreRun
	cfg       config.Config
	logger    *logrus.Logger
	formatter output.Formatter

	connect connectFunc
}

func newApp() *app {
	return &app{connect: connectPCSC}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "apductl",
		Short: "Send ISO 7816-4 commands to a smart card",
		Long: `apductl drives a smart card through a PC/SC reader.
Commands go through the APDU engine: oversized data is chained, wrong
length answers are retried and GET RESPONSE is issued automatically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "TOML config file")
	root.PersistentFlags().StringVar(&a.reader, "reader", "", "PC/SC reader name (default: first reader)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: panic, fatal, error, warn, info, debug, trace")
	root.PersistentFlags().StringVarP(&a.outputFmt, "output", "o", "", "output format: text, json, yaml (default \"text\")")

	root.AddCommand(
		newReadersCmd(a),
		newATRCmd(a),
		newSelectCmd(a),
		newSendCmd(a),
		newReadRecordCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with flags
	if a.reader != "" {
		cfg.Reader = a.reader
	}
	if a.logLevel != "" {
		lvl, err := logrus.ParseLevel(a.logLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = lvl
	}
	if a.outputFmt != "" {
		cfg.Output = a.outputFmt
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logrus.New()
	a.logger.SetOutput(cmd.ErrOrStderr())
	a.logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	a.logger.SetLevel(cfg.LogLevel)

	a.formatter = output.NewFormatter(cfg.Output)
	return nil
}

// client connects to the card and returns a Client with tracing enabled.
// The returned closer must be called once the command is done.
func (a *app) client() (*iso7816.Client, *iso7816.Trace, io.Closer, error) {
	transport, closer, err := a.connect(a.cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	trace := &iso7816.Trace{}
	client := iso7816.NewClient(transport).WithTrace(trace)
	client.Logger = a.logger.WithField("reader", a.cfg.Reader)
	client.SetClass(a.cfg.Class)
	return client, trace, closer, nil
}

func (a *app) replyBuffer() []byte {
	return make([]byte, a.cfg.ReplyBufferSize)
}

func (a *app) closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to release the reader")
	}
}

func (a *app) print(cmd *cobra.Command, v any) {
	fmt.Fprint(cmd.OutOrStdout(), a.formatter.Format(v))
}

func connectPCSC(cfg config.Config) (iso7816.Transport, io.Closer, error) {
	protocol, err := pcsc.ParseProtocol(cfg.Protocol)
	if err != nil {
		return nil, nil, err
	}

	reader, err := pcsc.Connect(cfg.Reader, protocol)
	if err != nil {
		return nil, nil, err
	}

	transport := reader.Transport()
	transport.MaxPayload = cfg.MaxPayloadSize
	transport.Extended = cfg.ExtendedLength
	return transport, reader, nil
}
