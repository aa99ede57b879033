// The `hydractl` command line: convert records between formats and
// hydrate them against the schemas of an OpenAPI document.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pasqal-io/gohydrate/hydrate"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

const (
	FlagLogLevel  = "log-level"
	FlagFrom      = "from"
	FlagTo        = "to"
	FlagCanonical = "canonical"
	FlagOpenAPI   = "openapi"
	FlagBase      = "base"
	FlagNamespace = "namespace"
)

// Run the root command, exiting with status 1 on failure.
func Execute() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hydractl [sub-command]",
		Short: "Convert and hydrate records",
		Long: `hydractl reads records as JSON, YAML or url-encoded key/value lists,
converts them between formats and builds polymorphic documents from them,
selecting concrete types with the discriminators of an OpenAPI document.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: setupLogger,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.PersistentFlags().String(FlagLogLevel, "warn", "minimal level of the logs written to stderr: debug, info, warn or error")
	cmd.AddCommand(NewConvert())
	cmd.AddCommand(NewResolve())
	cmd.AddCommand(NewHydrate())
	return cmd
}

func setupLogger(cmd *cobra.Command, _ []string) error {
	level, err := cmd.Flags().GetString(FlagLogLevel)
	if err != nil {
		return fmt.Errorf("getting log-level flag failed: %w", err)
	}
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: parsed}) //nolint:exhaustruct
	slog.SetDefault(slog.New(handler))
	return nil
}

// Read the record stored at `path`, or on stdin for "-".
//
// The format is `from` if specified, otherwise the extension of `path`.
func readRecord(cmd *cobra.Command, path string) (*shared.Record, error) {
	from, err := cmd.Flags().GetString(FlagFrom)
	if err != nil {
		return nil, fmt.Errorf("getting from flag failed: %w", err)
	}
	if from == "" {
		from = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	driver, err := hydrate.DriverFor(from)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s, use --%s to specify its format: %w", path, FlagFrom, err)
	}

	var buf []byte
	if path == "-" {
		buf, err = io.ReadAll(cmd.InOrStdin())
	} else {
		buf, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	record, err := driver.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s as %s: %w", path, driver.Name(), err)
	}
	slog.Debug("read record", "path", path, "format", driver.Name(), "keys", record.Len())
	return record, nil
}

func addFromFlag(cmd *cobra.Command) {
	cmd.Flags().String(FlagFrom, "", "format of the input: json, yaml or kvlist (default: from the file extension)")
}
