// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package lifecycle provides the life cycle model for the service components
package lifecycle

import "context"

type (
	// Starter is the interface with a Start method
	Starter interface {
		Start(context.Context) error
	}

	// Stopper is the interface with a Stop method
	Stopper interface {
		Stop(context.Context) error
	}

	// StartStopper is the interface that groups Start and Stop
	StartStopper interface {
		Starter
		Stopper
	}

	// Lifecycle manages the life cycle of the added models. Models are started in the order they
	// were added and stopped in the same order
	Lifecycle struct {
		models []interface{}
	}
)

// Add adds a model into the lifecycle
func (lc *Lifecycle) Add(m interface{}) { lc.models = append(lc.models, m) }

// AddModels adds multiple models into the lifecycle
func (lc *Lifecycle) AddModels(m ...interface{}) { lc.models = append(lc.models, m...) }

// OnStart runs models' Start function if models implement Starter interface. It exits on the
// first error encountered
func (lc *Lifecycle) OnStart(ctx context.Context) error {
	for _, m := range lc.models {
		if starter, ok := m.(Starter); ok {
			if err := starter.Start(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnStop runs models' Stop function if models implement Stopper interface. It exits on the
// first error encountered
func (lc *Lifecycle) OnStop(ctx context.Context) error {
	for _, m := range lc.models {
		if stopper, ok := m.(Stopper); ok {
			if err := stopper.Stop(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
