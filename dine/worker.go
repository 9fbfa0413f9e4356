// Copyright 2025 The Dinelock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package dine

import (
	"context"
	"time"

	"github.com/dinelock/dinelock/notify"
)

// State is the externally observable position of a worker in its
// think/eat cycle.
type State int

const (
	Thinking State = iota
	AcquiringFirst
	AcquiringSecond
	Eating
	Releasing
	Done
)

func (s State) String() string {
	switch s {
	case Thinking:
		return "thinking"
	case AcquiringFirst:
		return "acquiringFirst"
	case AcquiringSecond:
		return "acquiringSecond"
	case Eating:
		return "eating"
	case Releasing:
		return "releasing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// DineFunc is an optional critical-section body invoked while the
// worker holds both of its resources. Tests use it to plant collision
// detectors; the CLI leaves it nil and just sleeps.
type DineFunc func(ctx context.Context, worker, first, second int) error

// A worker cycles through think, acquire, eat, release until it is
// told to stop or its cycle budget runs out. Its acquisition order is
// fixed at construction.
type worker struct {
	id        int
	order     order
	resources *ResourceSet
	gate      *Gate // Non-nil only under AdmissionLimited.
	think     time.Duration
	eat       time.Duration
	dine      DineFunc
	sink      *sink
	state     *notify.Var[State]
}

// run executes the worker's cycle loop. A nil stopping channel means
// the loop is bounded by cycles alone; cycles <= 0 means free-running
// until stopping closes. Stop requests are observed only at the
// thinking boundary, so a worker never abandons a held resource;
// cancellation of ctx mid-acquisition unwinds with every held
// resource and permit returned.
func (w *worker) run(ctx context.Context, stopping <-chan struct{}, cycles int) error {
	defer w.state.Set(Done)

	for cycle := 0; cycles <= 0 || cycle < cycles; cycle++ {
		select {
		case <-stopping:
			return nil
		default:
		}

		w.state.Set(Thinking)
		w.sink.emit(w.id, StartThink, -1)
		if err := w.pause(ctx, w.think); err != nil {
			return err
		}

		permit := false
		if w.gate != nil {
			if err := w.gate.Acquire(ctx); err != nil {
				return err
			}
			permit = true
		}

		w.state.Set(AcquiringFirst)
		if err := w.resources.Acquire(ctx, w.order.first); err != nil {
			w.unwind(permit)
			return err
		}
		w.sink.emit(w.id, AcquireFirst, w.order.first)

		if err := w.pause(ctx, w.think); err != nil {
			w.unwind(permit, w.order.first)
			return err
		}

		w.state.Set(AcquiringSecond)
		if err := w.resources.Acquire(ctx, w.order.second); err != nil {
			w.unwind(permit, w.order.first)
			return err
		}
		w.sink.emit(w.id, AcquireSecond, w.order.second)

		w.state.Set(Eating)
		w.sink.emit(w.id, StartEat, -1)
		if w.dine != nil {
			if err := w.dine(ctx, w.id, w.order.first, w.order.second); err != nil {
				w.unwind(permit, w.order.first, w.order.second)
				return err
			}
		}
		if err := w.pause(ctx, w.eat); err != nil {
			w.unwind(permit, w.order.first, w.order.second)
			return err
		}

		// Release events are emitted while still holding the
		// resource, so the log never shows two concurrent holders.
		w.state.Set(Releasing)
		w.sink.emit(w.id, ReleaseSecond, w.order.second)
		w.resources.Release(w.order.second)
		w.sink.emit(w.id, ReleaseFirst, w.order.first)
		w.resources.Release(w.order.first)
		if permit {
			w.gate.Release()
		}
	}
	return nil
}

// unwind releases held resources in reverse acquisition order, then
// the admission permit, on the cancellation path.
func (w *worker) unwind(permit bool, held ...int) {
	for i := len(held) - 1; i >= 0; i-- {
		w.resources.Release(held[i])
	}
	if permit {
		w.gate.Release()
	}
}

// pause sleeps for the given duration, or until ctx is canceled.
func (w *worker) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
