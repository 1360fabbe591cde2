// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/0xIntuition/intuition-core/config"
	"github.com/0xIntuition/intuition-core/emissions"
)

var (
	emissionBase      string
	emissionCliff     uint64
	emissionReduction uint64
	emissionEpochs    uint64
)

// emissionsCmd previews the emission schedule for the given parameters
var emissionsCmd = &cobra.Command{
	Use:   "emissions",
	Short: "Prints the per-epoch emission schedule",
	Long: `Prints the per-epoch emission and the cumulative total for the given base emission,
reduction cliff and reduction rate.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		schedule, err := emissions.NewSchedule(config.Emissions{
			BaseEmissionStr: emissionBase,
			CliffEpochs:     emissionCliff,
			ReductionBps:    emissionReduction,
		})
		if err != nil {
			return errors.Wrap(err, "failed to build the schedule")
		}
		for epoch := uint64(0); epoch <= emissionEpochs; epoch++ {
			fmt.Printf("epoch %4d  emission %s  total %s\n",
				epoch, schedule.EmissionAt(epoch), schedule.TotalThrough(epoch))
		}
		return nil
	},
}

func init() {
	defaults := config.Default.Emissions
	emissionsCmd.Flags().StringVar(&emissionBase, "base", defaults.BaseEmissionStr, "emission of the first cliff")
	emissionsCmd.Flags().Uint64Var(&emissionCliff, "cliff", defaults.CliffEpochs, "epochs per reduction cliff")
	emissionsCmd.Flags().Uint64Var(&emissionReduction, "reduction", defaults.ReductionBps, "per-cliff reduction in basis points")
	emissionsCmd.Flags().Uint64Var(&emissionEpochs, "epochs", 10, "last epoch to print")
	rootCmd.AddCommand(emissionsCmd)
}
