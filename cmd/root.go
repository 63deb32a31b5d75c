/*
Package cmd implements the command-line interface: a demo A2A agent server
and a small client for talking to any A2A agent.
*/
package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	projectName = "a2a"
	cfgFile     string

	rootCmd = &cobra.Command{
		Use:   "a2a",
		Short: "An implementation of the Agent-to-Agent (A2A) protocol",
		Long:  longRoot,
	}
)

// Execute is the main entry point for the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is $HOME/."+projectName+"/config.yml)",
	)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(home + "/." + projectName)
	}

	viper.SetEnvPrefix("A2A")
	viper.AutomaticEnv()

	// A missing config file is fine: flags, env, and defaults cover
	// everything the demo commands need.
	if err := viper.ReadInConfig(); err == nil {
		log.Debug("loaded config file", "path", viper.ConfigFileUsed())
	}
}

var longRoot = `
a2a is a Go implementation of the Agent-to-Agent (A2A) protocol. It serves
agents over JSON-RPC 2.0 and HTTP+JSON with SSE streaming, and ships a
client that can talk to any A2A-compliant agent.
`
