package cli

import (
	"fmt"
	"os"

	"github.com/assetcrawler/import-services/models/common"
	"github.com/spf13/cobra"
)

// Options are the flags shared by every import_crawler command.
type Options struct {
	ConfigDir  string
	ConfigName string
	Workers    int
}

var EnvMessage = `If you don't set --config-dir and --config-name on the command line,
this requires the following environment vars:

IMPORTER_CONFIG_DIR - Path to the directory containing the .env settings file.

IMPORTER_ENV - Name of the configuration to load. For example:
    test - Loads .env.test from IMPORTER_CONFIG_DIR
    prod - Loads .env.prod from IMPORTER_CONFIG_DIR

Any setting in the .env file can be overridden by an environment
variable of the same name.
`

// AddFlags registers the shared flags on cmd as persistent flags, so
// every subcommand accepts them.
func AddFlags(cmd *cobra.Command, opts *Options) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigDir, "config-dir", "", "Directory containing the .env settings file (default $IMPORTER_CONFIG_DIR)")
	flags.StringVar(&opts.ConfigName, "config-name", "", "Name of the configuration to load (default $IMPORTER_ENV)")
	flags.IntVar(&opts.Workers, "workers", 0, "Number of concurrent queue sends. Overrides DISPATCH_WORKERS when greater than zero.")
}

// LoadConfig loads the config named by opts, falling back to
// IMPORTER_CONFIG_DIR and IMPORTER_ENV for anything not set by flag.
func LoadConfig(opts *Options) (*common.Config, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		configDir = os.Getenv("IMPORTER_CONFIG_DIR")
	}
	configName := opts.ConfigName
	if configName == "" {
		configName = os.Getenv("IMPORTER_ENV")
	}
	if configDir == "" || configName == "" {
		return nil, fmt.Errorf("no config specified\n\n%s", EnvMessage)
	}
	config, err := common.LoadConfig(configDir, configName)
	if err != nil {
		return nil, err
	}
	if opts.Workers > 0 {
		config.DispatchWorkers = opts.Workers
	}
	return config, nil
}
