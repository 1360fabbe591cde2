// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"time"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/0xIntuition/intuition-core/config"
	"github.com/0xIntuition/intuition-core/epochs"
)

var (
	epochGenesis string
	epochLength  time.Duration
	epochAt      string
)

// epochCmd maps a timestamp to its epoch number and window
var epochCmd = &cobra.Command{
	Use:   "epoch",
	Short: "Maps a timestamp to its epoch",
	Long: `Maps a timestamp to its epoch number and prints the epoch window. Without --at the
current time is used. Timestamps follow RFC 3339.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		genesis, err := time.Parse(time.RFC3339, epochGenesis)
		if err != nil {
			return errors.Wrap(err, "failed to parse the genesis timestamp")
		}
		calc, err := epochs.NewCalculator(genesis, epochLength, clock.New())
		if err != nil {
			return errors.Wrap(err, "failed to build the calculator")
		}
		at := calc.Now()
		if epochAt != "" {
			if at, err = time.Parse(time.RFC3339, epochAt); err != nil {
				return errors.Wrap(err, "failed to parse the timestamp")
			}
		}
		epoch, err := calc.AtTime(at)
		if err != nil {
			return errors.Wrap(err, "failed to resolve the epoch")
		}
		fmt.Printf("epoch: %d\n", epoch)
		fmt.Printf("start: %s\n", calc.StartOf(epoch).Format(time.RFC3339))
		fmt.Printf("end:   %s\n", calc.EndOf(epoch).Format(time.RFC3339))
		return nil
	},
}

func init() {
	defaults := config.Default.Epochs
	epochCmd.Flags().StringVar(&epochGenesis, "genesis", defaults.Genesis.Format(time.RFC3339), "epoch zero start")
	epochCmd.Flags().DurationVar(&epochLength, "length", defaults.Length, "epoch length")
	epochCmd.Flags().StringVar(&epochAt, "at", "", "timestamp to resolve instead of now")
	rootCmd.AddCommand(epochCmd)
}
