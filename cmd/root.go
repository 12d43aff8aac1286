package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/djcass44/cef-packager/cmd/cache"
	"github.com/djcass44/go-utils/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var command = &cobra.Command{
	Use:          "cef-packager",
	Short:        "keep debian source packages of vendor binary builds up to date",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel, _ := cmd.Flags().GetInt(flagLogLevel)

		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.Level(logLevel * -1))

		_, ctx := logging.NewZap(cmd.Context(), zc)
		cmd.SetContext(ctx)
	},
}

const (
	flagLogLevel = "v"
	flagConfig   = "config"
)

func init() {
	command.PersistentFlags().Int(flagLogLevel, 0, "log level. Higher is more")
	command.PersistentFlags().StringP(flagConfig, "c", "packages.yaml", "path to the package configuration file")

	_ = command.MarkPersistentFlagFilename(flagConfig, ".yaml", ".yml", ".json")

	command.AddCommand(listCmd, downloadCmd, updateCmd, cache.Command)
}

func Execute(version string) {
	command.Version = version
	if err := command.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// ExitError carries the exit code that the
// process should terminate with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d: %s", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}
