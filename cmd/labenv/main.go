// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the labenv CLI. labenv provisions
// the isolated Python environment the RAG lab exercises run in: it creates
// a virtual environment, installs the declared dependency set with pip,
// verifies the result, and writes a completion marker for downstream
// automation to poll.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/labenv/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the labenv CLI.
var rootCmd = &cobra.Command{
	Use:   "labenv",
	Short: "Provision and verify the RAG lab Python environment",
	Long: `labenv bootstraps the Python environment the RAG lab depends on. It
creates an isolated virtual environment, installs the declared dependency
set (vector store, embedding, chunking, ranking, and NLP libraries), and
writes a completion marker only when every step succeeded.

Runs are idempotent: steps whose target already exists in the desired state
are skipped, so reruns after a partial failure are safe. Every run is
recorded in a local ledger readable through the status and history
subcommands.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./labenv.yaml or ~/.config/labenv/config.yaml)")
	rootCmd.PersistentFlags().String("root-dir", "", "workspace root (default \".\")")
	rootCmd.PersistentFlags().String("project-dir", "", "project directory name under the root (default \"rag-lab\")")
	rootCmd.PersistentFlags().String("venv-dir", "", "virtual environment directory name under the project (default \"venv\")")
	rootCmd.PersistentFlags().String("marker-file", "", "completion marker filename under the root (default \"setup-complete.txt\")")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("labenv")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "labenv"))
		}
	}

	viper.SetEnvPrefix("LABENV")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// environmentConfig resolves the environment layout from flags, falling
// back to config file / environment values, then to built-in defaults.
func environmentConfig(cmd *cobra.Command) types.EnvironmentConfig {
	cfg := types.EnvironmentConfig{
		RootDir:    stringSetting(cmd, "root-dir", "root_dir"),
		ProjectDir: stringSetting(cmd, "project-dir", "project_dir"),
		VenvDir:    stringSetting(cmd, "venv-dir", "venv_dir"),
		MarkerFile: stringSetting(cmd, "marker-file", "marker_file"),
		PythonBin:  viper.GetString("python_bin"),
	}
	return cfg.Normalized()
}

// stringSetting returns the flag value when set, otherwise the viper value.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return viper.GetString(key)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
