// =============================================================================
// Merchant Fee Intake - Root Command
// =============================================================================
//
// COBRA CLI STRUCTURE:
//   rootCmd (intake)
//   ├── validateCmd  (intake validate)
//   ├── serveCmd     (intake serve)
//   ├── templateCmd  (intake template)
//   ├── migrateCmd   (intake migrate)
//   └── versionCmd   (intake version)
//
// Before any subcommand runs, the root command loads the configuration file
// (plus .env and INTAKE_* overrides) and initialises the global logger.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/merchant-fee-intake/internal/config"
	"github.com/ginjaninja78/merchant-fee-intake/pkg/logger"
)

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// appConfig is loaded once before any subcommand runs.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Merchant Fee Intake - validate merchant transaction batches",
	Long: `Merchant Fee Intake ingests merchant transaction records from CSV or Excel
files, validates them against a required-column schema and reports every
problem by row and column. Accepted batches can be exported, stored and
submitted with fee-structure parameters to a pricing backend.

Example Usage:
  intake validate ./uploads                 # validate every CSV/XLSX under ./uploads
  intake validate march.csv --schema extended
  intake template --out template.csv        # write an example upload file
  intake serve                              # run the HTTP API`,
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		if err := logger.Init(level); err != nil {
			return fmt.Errorf("failed to initialise logger: %w", err)
		}
		appConfig = cfg
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml",
		"Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
}
