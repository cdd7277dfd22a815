package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "symscanner",
	Short: "symscanner, java method analyzer based on symbolic execution",
	Long:  "",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var (
	ProgramFile string
	ConfigFile  string
	LogLevel    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&ProgramFile, "file", "", "control-flow graph file (yaml)")
	rootCmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "configuration file (toml)")
	rootCmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "log level, overrides log.level of the configuration")
}

func main() {
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)

	rootCmd.AddCommand(versionCommand)
	rootCmd.AddCommand(analyzeCommand)
	rootCmd.AddCommand(dumpCommand)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
