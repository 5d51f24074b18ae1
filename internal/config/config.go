// Package config loads the apductl settings from a TOML file.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/gregLibert/apdu/pkg/iso7816"
	"github.com/gregLibert/apdu/pkg/pcsc"
)

// Config holds the resolved CLI settings.
type Config struct {
	Reader          string
	Protocol        string
	MaxPayloadSize  int
	ExtendedLength  bool
	Class           iso7816.Class
	ReplyBufferSize int
	LogLevel        logrus.Level
	Output          string
}

type fileConfig struct {
	Reader          string `toml:"reader"`
	Protocol        string `toml:"protocol"`
	MaxPayloadSize  int    `toml:"max_payload_size"`
	ExtendedLength  bool   `toml:"extended_length"`
	Class           string `toml:"class"`
	ReplyBufferSize int    `toml:"reply_buffer_size"`
	LogLevel        string `toml:"log_level"`
	Output          string `toml:"output"`
}

// Default returns the settings used when no file overrides them.
func Default() Config {
	return Config{
		Protocol:        "any",
		MaxPayloadSize:  iso7816.MaxShortLc,
		ReplyBufferSize: iso7816.MaxShortLe + 2,
		LogLevel:        logrus.InfoLevel,
		Output:          "text",
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default; an empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("reader") {
		cfg.Reader = strings.TrimSpace(raw.Reader)
	}

	if meta.IsDefined("protocol") {
		cfg.Protocol = strings.ToLower(strings.TrimSpace(raw.Protocol))
	}

	if meta.IsDefined("max_payload_size") {
		cfg.MaxPayloadSize = raw.MaxPayloadSize
	}

	if meta.IsDefined("extended_length") {
		cfg.ExtendedLength = raw.ExtendedLength
	}

	if meta.IsDefined("class") {
		cla, err := ParseClass(raw.Class)
		if err != nil {
			return Config{}, err
		}
		cfg.Class = cla
	}

	if meta.IsDefined("reply_buffer_size") {
		cfg.ReplyBufferSize = raw.ReplyBufferSize
	}

	if meta.IsDefined("log_level") {
		lvl, err := logrus.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return Config{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = lvl
	}

	if meta.IsDefined("output") {
		cfg.Output = strings.ToLower(strings.TrimSpace(raw.Output))
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	return cfg, cfg.Validate()
}

// ParseClass decodes a hex class byte such as "00" or "0x01".
func ParseClass(s string) (iso7816.Class, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 1 {
		return iso7816.Class{}, fmt.Errorf("parse class %q: want one hex byte", s)
	}
	cla, err := iso7816.NewClass(b[0])
	if err != nil {
		return iso7816.Class{}, fmt.Errorf("parse class %q: %w", s, err)
	}
	return cla, nil
}

// Validate rejects settings the transport or the engine cannot run with.
func (c Config) Validate() error {
	if _, err := pcsc.ParseProtocol(c.Protocol); err != nil {
		return err
	}

	limit := iso7816.MaxShortLc
	if c.ExtendedLength {
		limit = iso7816.MaxExtendedLc
	}
	if c.MaxPayloadSize <= 0 || c.MaxPayloadSize > limit {
		return fmt.Errorf("max_payload_size %d outside [1, %d]", c.MaxPayloadSize, limit)
	}

	if c.ReplyBufferSize < 2 || c.ReplyBufferSize > iso7816.MaxExtendedLe+2 {
		return fmt.Errorf("reply_buffer_size %d outside [2, %d]", c.ReplyBufferSize, iso7816.MaxExtendedLe+2)
	}

	switch c.Output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output %q (want text, json or yaml)", c.Output)
	}
	return nil
}
