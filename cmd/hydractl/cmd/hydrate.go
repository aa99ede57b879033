package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pasqal-io/gohydrate/hydrate"
)

func NewHydrate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hydrate FILE",
		Short: "Build a document from a record and print it back",
		Long: `Build a document of the base schema from the record, selecting its concrete
schema with the discriminators of an OpenAPI document, then print the
dehydrated document.`,
		Example: `  hydractl hydrate pet.json --openapi petstore.yaml --base Pet --to yaml`,
		Args:              cobra.ExactArgs(1),
		RunE:              HydrateRecord,
		DisableAutoGenTag: true,
	}
	addFromFlag(cmd)
	addSchemaFlags(cmd)
	cmd.Flags().String(FlagTo, "json", "format of the output: json, yaml or kvlist")
	cmd.Flags().Bool(FlagCanonical, false, "write canonical JSON, only with --to json")
	return cmd
}

func HydrateRecord(cmd *cobra.Command, args []string) error {
	registry, base, err := loadSchemas(cmd)
	if err != nil {
		return err
	}
	record, err := readRecord(cmd, args[0])
	if err != nil {
		return err
	}
	options := hydrate.DefaultOptions()
	options.RootPath = base
	instance, err := hydrate.New(registry, options).Construct(base, record)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if document, ok := instance.(*hydrate.Document); ok {
		slog.Info("hydrated document", "type", document.TypeName())
	}
	dehydrated, err := hydrate.NewDehydrator(registry).Dehydrate(instance)
	if err != nil {
		return err //nolint:wrapcheck
	}
	return writeRecord(cmd, dehydrated)
}
