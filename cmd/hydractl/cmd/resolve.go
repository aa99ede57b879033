package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pasqal-io/gohydrate/hydrate"
	"github.com/pasqal-io/gohydrate/hydrate/openapi"
)

func NewResolve() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve FILE",
		Short: "Print the concrete schema selected for a record",
		Long: `Register every schema of an OpenAPI document, then print the name of the
schema that the discriminator of the base schema selects for the record.`,
		Example: `  hydractl resolve pet.json --openapi petstore.yaml --base Pet`,
		Args:              cobra.ExactArgs(1),
		RunE:              ResolveRecord,
		DisableAutoGenTag: true,
	}
	addFromFlag(cmd)
	addSchemaFlags(cmd)
	return cmd
}

func ResolveRecord(cmd *cobra.Command, args []string) error {
	registry, base, err := loadSchemas(cmd)
	if err != nil {
		return err
	}
	record, err := readRecord(cmd, args[0])
	if err != nil {
		return err
	}
	info, err := registry.ResolveName(base, record)
	if err != nil {
		return err //nolint:wrapcheck
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), info.Name)
	return err //nolint:wrapcheck
}

func addSchemaFlags(cmd *cobra.Command) {
	cmd.Flags().String(FlagOpenAPI, "", "OpenAPI 3 document declaring the schemas, as JSON or YAML")
	cmd.Flags().String(FlagBase, "", "name of the base schema, e.g. Pet")
	cmd.Flags().String(FlagNamespace, "", "namespace under which the schemas are registered")
	_ = cmd.MarkFlagRequired(FlagOpenAPI)
	_ = cmd.MarkFlagRequired(FlagBase)
}

// Register the schemas of the --openapi document, returning the registry
// and the qualified name of the --base schema.
func loadSchemas(cmd *cobra.Command) (*hydrate.Registry, string, error) {
	path, err := cmd.Flags().GetString(FlagOpenAPI)
	if err != nil {
		return nil, "", fmt.Errorf("getting openapi flag failed: %w", err)
	}
	base, err := cmd.Flags().GetString(FlagBase)
	if err != nil {
		return nil, "", fmt.Errorf("getting base flag failed: %w", err)
	}
	namespace, err := cmd.Flags().GetString(FlagNamespace)
	if err != nil {
		return nil, "", fmt.Errorf("getting namespace flag failed: %w", err)
	}

	descriptors, err := openapi.LoadFile(cmd.Context(), path, openapi.DefaultOptions())
	if err != nil {
		return nil, "", err //nolint:wrapcheck
	}
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	if err := descriptors.RegisterDocuments(registry, namespace); err != nil {
		return nil, "", err //nolint:wrapcheck
	}
	slog.Debug("registered schemas", "document", path, "schemas", len(descriptors.Schemas), "polymorphic", len(descriptors.Discriminators))

	qualified := registry.Qualify(namespace, base)
	if _, ok := registry.Lookup(qualified); !ok {
		return nil, "", fmt.Errorf("schema %s is not declared by %s", base, path)
	}
	return registry, qualified, nil
}
