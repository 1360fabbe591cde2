// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/0xIntuition/intuition-core/config"
)

// configCmd prints the default configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the default configuration as YAML",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(config.Default)
		if err != nil {
			return errors.Wrap(err, "failed to marshal the default config")
		}
		fmt.Print(string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
