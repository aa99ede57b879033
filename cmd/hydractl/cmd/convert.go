package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pasqal-io/gohydrate/hydrate"
	"github.com/pasqal-io/gohydrate/hydrate/json"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

func NewConvert() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Re-encode a record in another format",
		Long: `Decode a record and encode it again, preserving the order of its keys.

With --canonical, JSON output is canonicalized (RFC 8785): keys are sorted and
numbers written in their shortest form.`,
		Example: `  hydractl convert drawing.yaml --to json
  hydractl convert - --from kvlist --to yaml < query.txt`,
		Args:              cobra.ExactArgs(1),
		RunE:              ConvertRecord,
		DisableAutoGenTag: true,
	}
	addFromFlag(cmd)
	cmd.Flags().String(FlagTo, "json", "format of the output: json, yaml or kvlist")
	cmd.Flags().Bool(FlagCanonical, false, "write canonical JSON, only with --to json")
	return cmd
}

func ConvertRecord(cmd *cobra.Command, args []string) error {
	record, err := readRecord(cmd, args[0])
	if err != nil {
		return err
	}
	return writeRecord(cmd, record)
}

func writeRecord(cmd *cobra.Command, record *shared.Record) error {
	to, err := cmd.Flags().GetString(FlagTo)
	if err != nil {
		return fmt.Errorf("getting to flag failed: %w", err)
	}
	canonical, err := cmd.Flags().GetBool(FlagCanonical)
	if err != nil {
		return fmt.Errorf("getting canonical flag failed: %w", err)
	}

	var buf []byte
	if canonical {
		if to != "json" {
			return fmt.Errorf("--%s requires --%s json, got %q", FlagCanonical, FlagTo, to)
		}
		buf, err = json.EncodeCanonical(record)
	} else {
		var driver shared.Driver
		driver, err = hydrate.DriverFor(to)
		if err != nil {
			return err
		}
		buf, err = driver.Encode(record)
	}
	if err != nil {
		return fmt.Errorf("cannot encode record as %s: %w", to, err)
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(buf); err != nil {
		return fmt.Errorf("writing output failed: %w", err)
	}
	if len(buf) > 0 && buf[len(buf)-1] != '\n' {
		_, err = fmt.Fprintln(out)
	}
	return err //nolint:wrapcheck
}
