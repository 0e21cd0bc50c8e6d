package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "forge-cli",
	Short: "forge-cli is the command-line interface for review-forge.",
	Long: `A CLI for generating systematic literature reviews with review-forge and
managing the stored reviews and their attachments without the HTTP server.`,
	SilenceUsage: true,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
}

// initConfig points viper at the --config file; everything else is read by
// config.LoadConfig.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}
