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
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dinelock/dinelock/notify"
	"github.com/dinelock/dinelock/stopper"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrConfig is raised for invalid construction parameters. It is
	// never retried: a configuration that invalidates a policy's
	// correctness argument must be rejected before any worker runs.
	ErrConfig = errors.New("invalid configuration")

	// ErrTimedOut is returned by [Coordinator.RunBounded] when its
	// overall deadline elapses before all workers finish. Under the
	// [Naive] policy this is the expected signature of deadlock; the
	// partial log is returned alongside it for diagnosis.
	ErrTimedOut = errors.New("bounded run timed out")
)

// Six events per think/eat cycle; see EventKind.
const eventsPerCycle = 6

// Sink buffer for free-running mode, where the total event count is
// unknown in advance.
const defaultEventBuffer = 1024

// Config describes a simulation.
type Config struct {
	// Workers is the number of concurrent participants. Must equal
	// Resources: the ring model places exactly one resource between
	// each pair of neighbors.
	Workers int

	// Resources is the number of exclusive resources.
	Resources int

	// Policy selects the acquisition order strategy.
	Policy Kind

	// GateCapacity is the admission-gate permit count. Required for
	// [AdmissionLimited], where it must be below Workers to preserve
	// the deadlock-freedom argument; it must be zero otherwise.
	GateCapacity int

	// ThinkDelay is slept before each acquisition, widening the
	// window for contention. EatDelay is slept while both resources
	// are held. Both are tunables, not correctness requirements, and
	// default to zero.
	ThinkDelay time.Duration
	EatDelay   time.Duration

	// Timeout bounds the total duration of [Coordinator.RunBounded].
	// Zero leaves the caller's context in charge.
	Timeout time.Duration

	// EventBuffer overrides the event sink's channel capacity. When
	// zero, bounded runs size the buffer to hold every event of the
	// run, so nothing is dropped.
	EventBuffer int

	// Seed makes the Randomized policy's coin flips reproducible.
	// Zero seeds from the clock.
	Seed int64

	// Dine, when non-nil, runs while a worker holds both resources.
	Dine DineFunc

	// Monitor receives inline per-transition callbacks.
	Monitor *Monitor

	// Runner launches worker goroutines in free-running mode. Nil
	// means plain goroutines via [GoRunner].
	Runner Runner
}

func (c *Config) validate() error {
	if c.Workers < 2 {
		return fmt.Errorf("%w: need at least 2 workers, got %d", ErrConfig, c.Workers)
	}
	if c.Resources != c.Workers {
		return fmt.Errorf("%w: resources (%d) must equal workers (%d)",
			ErrConfig, c.Resources, c.Workers)
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.Policy.Gated() {
		if c.GateCapacity < 1 || c.GateCapacity >= c.Workers {
			return fmt.Errorf("%w: gate capacity must be in [1, %d), got %d",
				ErrConfig, c.Workers, c.GateCapacity)
		}
	} else if c.GateCapacity != 0 {
		return fmt.Errorf("%w: gate capacity is only meaningful for the %s policy",
			ErrConfig, AdmissionLimited)
	}
	if c.ThinkDelay < 0 || c.EatDelay < 0 || c.Timeout < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrConfig)
	}
	return nil
}

// A Coordinator owns the configuration of a simulation and creates
// runs from it. The same Coordinator can create any number of
// independent runs.
type Coordinator struct {
	cfg Config
}

// New validates the configuration and returns a Coordinator. All
// precondition failures surface here, wrapped in [ErrConfig]; nothing
// is deferred to runtime.
func New(cfg Config) (*Coordinator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Coordinator{cfg: cfg}, nil
}

// A run bundles the shared state of one simulation: the resources,
// the optional gate, the worker pool, and the event pipeline.
type run struct {
	resources *ResourceSet
	gate      *Gate
	workers   []*worker
	log       *Log
	sink      *sink
}

func (c *Coordinator) newRun(cycles int) *run {
	buffer := c.cfg.EventBuffer
	if buffer <= 0 {
		if cycles > 0 {
			buffer = cycles * c.cfg.Workers * eventsPerCycle
		} else {
			buffer = defaultEventBuffer
		}
	}
	log := &Log{}
	s := newSink(log, c.cfg.Monitor, buffer)

	resources := NewResourceSet(c.cfg.Resources)
	var gate *Gate
	if c.cfg.Policy.Gated() {
		gate, _ = NewGate(c.cfg.GateCapacity) // Capacity validated in New.
	}

	seed := c.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	workers := make([]*worker, c.cfg.Workers)
	for i := range workers {
		coin := rng.Intn(2) == 0
		workers[i] = &worker{
			id:        i,
			order:     c.cfg.Policy.orderFor(i, c.cfg.Workers, coin),
			resources: resources,
			gate:      gate,
			think:     c.cfg.ThinkDelay,
			eat:       c.cfg.EatDelay,
			dine:      c.cfg.Dine,
			sink:      s,
			state:     notify.VarOf(Thinking),
		}
	}
	return &run{
		resources: resources,
		gate:      gate,
		workers:   workers,
		log:       log,
		sink:      s,
	}
}

// RunBounded runs every worker for the given number of think/eat
// cycles and blocks until all finish or the run's deadline elapses.
// The aggregated event log is returned in both cases; on deadline
// expiry the error wraps [ErrTimedOut] and the log is partial. Under
// a policy with a deadlock-freedom guarantee, RunBounded always
// completes.
func (c *Coordinator) RunBounded(ctx context.Context, cycles int) (*Log, error) {
	if cycles < 1 {
		return nil, fmt.Errorf("%w: cycles must be at least 1, got %d", ErrConfig, cycles)
	}
	r := c.newRun(cycles)
	return r.log, r.bounded(ctx, c.cfg.Timeout, cycles)
}

func (r *run) bounded(ctx context.Context, timeout time.Duration, cycles int) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	eg, egCtx := errgroup.WithContext(ctx)
	for _, w := range r.workers {
		w := w
		eg.Go(func() error {
			return w.run(egCtx, nil, cycles)
		})
	}
	err := eg.Wait()
	r.sink.close()
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimedOut, err)
	}
	return err
}

// A Handle controls a free-running simulation started by
// [Coordinator.Start].
type Handle struct {
	id      uuid.UUID
	run     *run
	stop    *stopper.Context
	outcome *notify.Var[*Status]

	mu struct {
		sync.Mutex
		err error // First worker error.
	}
}

// Start launches the simulation in free-running mode: workers cycle
// until [Handle.Stop] is called. The returned Handle is the only way
// to interact with the run.
func (c *Coordinator) Start(ctx context.Context) (*Handle, error) {
	r := c.newRun(0)
	h := &Handle{
		id:      uuid.New(),
		run:     r,
		stop:    stopper.WithContext(ctx),
		outcome: notify.VarOf(running),
	}

	runner := c.cfg.Runner
	if runner == nil {
		runner = GoRunner(ctx)
	}
	for _, w := range r.workers {
		w := w
		// The Runner owns the goroutine, so register it with the
		// stopper by hand; otherwise Stop's grace period would see
		// no live workers and cancel straight away.
		release := h.stop.Track()
		err := runner.Go(func(context.Context) {
			defer release()
			if err := w.run(h.stop, h.stop.Stopping(), 0); err != nil {
				h.setErr(err)
			}
		})
		if err != nil {
			release()
			h.stop.Stop(0)
			h.stop.Wait()
			r.sink.close()
			return nil, err
		}
	}

	go func() {
		h.stop.Wait()
		r.sink.close()
		h.outcome.Set(StatusFor(h.err()))
	}()
	return h, nil
}

// ID returns the unique identifier of this run.
func (h *Handle) ID() uuid.UUID { return h.id }

// Log returns the run's event log. It keeps accumulating events until
// the run stops.
func (h *Handle) Log() *Log { return h.run.log }

// Outcome returns the observable status of the run.
func (h *Handle) Outcome() Outcome { return h.outcome }

// States returns a snapshot of every worker's current state.
func (h *Handle) States() []State {
	states := make([]State, len(h.run.workers))
	for i, w := range h.run.workers {
		states[i] = w.state.Peek()
	}
	return states
}

// Stop requests a cooperative shutdown and blocks until every worker
// has exited. Workers finish their current cycle first, so no
// resource is ever abandoned mid-release; a worker still blocked when
// the grace period elapses is canceled and unwinds, releasing
// whatever it holds.
func (h *Handle) Stop(ctx context.Context, gracePeriod time.Duration) error {
	h.stop.Stop(gracePeriod)
	return WaitStopped(ctx, h.outcome)
}

func (h *Handle) setErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mu.err == nil {
		h.mu.err = err
	}
}

func (h *Handle) err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mu.err
}
