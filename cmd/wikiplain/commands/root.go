// Package commands implements the CLI commands for wikiplain.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wikiplain/wikiplain/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "wikiplain",
	Short: "Convert wikitext article dumps to clean paragraph text",
	Long: `Wikiplain converts raw wikitext articles into plain,
paragraph-structured text at dump scale.

Articles come in and go out as parquet batches. Processing is two-phase:
per-article extraction under a wall-clock budget, then a batch-wide repair
pass over the extracted text that removes markup fragments which leaked
through.

Examples:
  # Parse a single-column dump shard
  wikiplain parse -i shard.parquet -o parsed.parquet

  # Drop lists and tighten the per-article budget
  wikiplain parse -i shard.parquet -o parsed.parquet --skip-lists --timeout 10

  # Parse a two-sided official/clone shard
  wikiplain parse-pair -i pairs.parquet -o parsed.parquet

  # Phase-2 cleanup over parsed output
  wikiplain clean -i parsed.parquet -o clean.parquet

  # Export parsed articles to per-page text files
  wikiplain export -i clean.parquet --official-dir data/official`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.wikiplain.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit logs as JSON")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".wikiplain")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("WIKIPLAIN")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
}
