// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/0xIntuition/intuition-core/multivault"
)

var payloadIsHex bool

// termidCmd represents the termid command
var termidCmd = &cobra.Command{
	Use:   "termid",
	Short: "Derives term ids offline",
}

// termidAtomCmd derives the atom id for a payload
var termidAtomCmd = &cobra.Command{
	Use:   "atom [payload]",
	Short: "Derives the atom id for the given payload",
	Long: `Derives the atom id for the given payload. The payload is taken verbatim unless
--hex is set, in which case it is decoded first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := []byte(args[0])
		if payloadIsHex {
			var err error
			if payload, err = hex.DecodeString(args[0]); err != nil {
				return errors.Wrap(err, "failed to decode payload")
			}
		}
		id := multivault.AtomID(payload)
		fmt.Printf("atom id: %x\n", id)
		return nil
	},
}

// termidTripleCmd derives the triple and counter triple ids from three atom ids
var termidTripleCmd = &cobra.Command{
	Use:   "triple [subject] [predicate] [object]",
	Short: "Derives the triple and counter triple ids from three hex atom ids",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var atoms [3]hash.Hash256
		for i, arg := range args {
			b, err := hex.DecodeString(arg)
			if err != nil {
				return errors.Wrapf(err, "failed to decode atom id %q", arg)
			}
			if len(b) != len(hash.ZeroHash256) {
				return errors.Errorf("atom id %q is not 32 bytes", arg)
			}
			copy(atoms[i][:], b)
		}
		tripleID := multivault.TripleID(atoms[0], atoms[1], atoms[2])
		fmt.Printf("triple id:  %x\n", tripleID)
		fmt.Printf("counter id: %x\n", multivault.CounterTripleID(tripleID))
		return nil
	},
}

func init() {
	termidAtomCmd.Flags().BoolVar(&payloadIsHex, "hex", false, "treat the payload as a hex string")
	termidCmd.AddCommand(termidAtomCmd)
	termidCmd.AddCommand(termidTripleCmd)
	rootCmd.AddCommand(termidCmd)
}
