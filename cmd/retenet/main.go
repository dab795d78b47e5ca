// Package main is the retenet command-line entry point: load a rule file
// and a fact file, compile them into a Rete network, and either dump the
// compiled network or watch both files and show live match counts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"retenet/internal/config"
	"retenet/internal/logging"
)

var (
	configPath string
	rulesPath  string
	factsPath  string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "retenet",
	Short: "Incremental Rete production-rule matcher",
	Long: `retenet compiles a conjunctive rule file into a Rete
discrimination network and incrementally maintains every rule's match
set as facts are asserted and retracted.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = cfg.BuildZapLogger()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logging.Init(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "retenet.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "rules.xml", "Path to the XML rule file")
	rootCmd.PersistentFlags().StringVar(&factsPath, "facts", "facts.txt", "Path to the working-set fact file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(dumpCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
