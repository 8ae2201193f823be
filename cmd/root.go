package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/pkg/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "br4nd0n",
	Short: "Channel minigame hosting core",
	Long: `br4nd0n hosts turn-based minigames inside chat channels: one
persistent game per channel, driven by commands and button clicks, with
wall-clock timers that survive restarts.

The chat platform itself is plugged in from outside; use the playground
subcommand to drive games against a simulated channel.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.br4nd0n.yaml)")
	rootCmd.PersistentFlags().String("data_dir", "data", "document store root directory")
	rootCmd.PersistentFlags().String("redis_url", "", "redis URL; when set, documents persist to redis instead of files")
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data_dir"))
	viper.BindPFlag("redis_url", rootCmd.PersistentFlags().Lookup("redis_url"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	logger.Init()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".br4nd0n")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
