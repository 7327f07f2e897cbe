// Package log configures the default logger from command line flags.
package log

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ocm.software/open-component-model/artifact/cli/internal/flags/enum"
)

const (
	LevelFlag  = "loglevel"
	FormatFlag = "logformat"

	FormatText = "text"
	FormatJSON = "json"
)

func RegisterLoggingFlags(flags *pflag.FlagSet) {
	enum.Var(flags, LevelFlag, []string{
		"warn",
		"debug",
		"info",
		"error",
	}, "set the log level")
	enum.VarP(flags, FormatFlag, "f", []string{FormatText, FormatJSON}, "set the log format")
}

// GetBaseLogger builds a logger writing to the error output of cmd.
func GetBaseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	logLevel, err := GetLoggerLevel(cmd)
	if err != nil {
		return nil, err
	}

	format, err := enum.Get(cmd.Flags(), FormatFlag)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case FormatText:
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	return slog.New(handler), nil
}

func GetLoggerLevel(cmd *cobra.Command) (slog.Level, error) {
	logLevel, err := enum.Get(cmd.Flags(), LevelFlag)
	if err != nil {
		return slog.LevelWarn, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", logLevel)
	}
	return level, nil
}
