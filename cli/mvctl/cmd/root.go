// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mvctl [command] [flags]",
	Short: "Command-line utilities for the Intuition multivault",
	Long: `mvctl bundles offline utilities for the Intuition multivault: it derives term ids,
previews the emission schedule, maps timestamps to epochs and prints the default
configuration.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
