// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package identityset provides a set of deterministic addresses for tests
package identityset

import (
	"fmt"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"

	"github.com/0xIntuition/intuition-core/pkg/log"
)

// Size is the number of addresses in the set
const Size = 30

// Address returns the i-th test address
func Address(i int) address.Address {
	if i < 0 || i >= Size {
		log.S().Panicf("Test address index %d out of range", i)
	}
	h := hash.Hash160b([]byte(fmt.Sprintf("identity.%d", i)))
	addr, err := address.FromBytes(h[:])
	if err != nil {
		log.L().Panic(err.Error())
	}
	return addr
}
