// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"
	"time"

	"github.com/iotexproject/iotex-address/address"

	"github.com/0xIntuition/intuition-core/pkg/log"
)

type actionCtxKey struct{}

// ActionCtx carries the caller information of one state-mutating call. It is stamped by the
// service before the call is dispatched to a protocol and stays constant for the whole call.
type ActionCtx struct {
	// Caller is the address the call acts on behalf of
	Caller address.Address
	// Timestamp is the time the call was accepted
	Timestamp time.Time
	// Epoch is the epoch index at Timestamp
	Epoch uint64
}

// WithActionCtx adds the action context to the context
func WithActionCtx(ctx context.Context, ac ActionCtx) context.Context {
	return context.WithValue(ctx, actionCtxKey{}, ac)
}

// GetActionCtx gets the action context
func GetActionCtx(ctx context.Context) (ActionCtx, bool) {
	ac, ok := ctx.Value(actionCtxKey{}).(ActionCtx)
	return ac, ok
}

// MustGetActionCtx must get the action context. If the context is not exist, it is a bug
func MustGetActionCtx(ctx context.Context) ActionCtx {
	ac, ok := ctx.Value(actionCtxKey{}).(ActionCtx)
	if !ok {
		log.S().Panic("Miss action context")
	}
	return ac
}
