package cli

import (
	"os"

	"github.com/bcnelson/apikey-console/internal/config"
	"github.com/bcnelson/apikey-console/internal/logging"
	"github.com/bcnelson/apikey-console/internal/storage"
	"github.com/bcnelson/apikey-console/internal/storage/factory"
	"github.com/spf13/cobra"
)

var (
	storeDriver string
	verbose     bool
)

// openStore is replaced in tests.
var openStore = func(cfg *config.Config) (storage.Storage, error) {
	return factory.Open(cfg.Store)
}

// Execute creates the root command tree and runs it.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyctl",
		Short: "Manage API keys in the key store",
		Long: `keyctl manages the api_keys table directly: list, create, edit, toggle
and delete keys, check a key in the playground and run the expiry sweep.

The store is selected with the same STORE_* and DB_DSN environment variables
the server reads.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			logging.SetupWriter(logging.Config{Level: level, Format: "pretty"}, os.Stderr)
		},
	}

	cmd.PersistentFlags().StringVar(&storeDriver, "store", "", "store driver (overrides STORE_DRIVER)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newToggleCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newReconcileCmd())

	return cmd
}
