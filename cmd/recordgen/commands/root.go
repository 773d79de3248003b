// Package commands implements the recordgen command line.
package commands

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/recordgen/internal/config"
)

var version = "dev"

// NewRootCmd returns the recordgen root command with its subcommands. Each
// call binds a fresh viper instance, so commands can be built repeatedly
// in tests.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:   "recordgen",
		Short: "recordgen - active record entity generator",
		Long: `recordgen reads table metadata from a live database or a schema file and
writes Go active record entities, field manifests and validator stubs.

Examples:
  recordgen convert-mapping go ./entity --schema-file schema.yaml --namespace example.com/app/entity
  recordgen convert-mapping yaml ./mapping --from-database --dialect postgres --dsn $DATABASE_URL`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default: ./recordgen.yaml or ~/.config/recordgen/recordgen.yaml)")
	root.PersistentFlags().String(config.KeyLogLevel, "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool(config.KeyLogJSON, false, "log as JSON")

	root.AddCommand(NewConvertMappingCmd(v))
	return root
}

// Describe formats err with the hints attached to it.
func Describe(err error) string {
	msg := err.Error()
	if hint := errors.FlattenHints(err); hint != "" {
		msg += "\nhint: " + hint
	}
	return msg
}
