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
	"fmt"

	"github.com/dinelock/dinelock/notify"
)

// Outcome is a convenience type alias for the observable status of a
// free-running simulation.
type Outcome = *notify.Var[*Status]

// Status describes the lifecycle of a [Handle].
type Status struct {
	err error
}

// Sentinel instances of Status.
var (
	running = &Status{}
	stopped = &Status{}
)

// StatusFor returns the stopped status if err is nil. Otherwise, it
// returns a new Status that reports the error.
func StatusFor(err error) *Status {
	if err == nil {
		return stopped
	}
	return &Status{err: err}
}

// Err returns the error that ended the run, if any.
func (s *Status) Err() error {
	return s.err
}

// Running returns true while workers are still cycling.
func (s *Status) Running() bool {
	return s == running
}

// Stopped returns true once all workers have exited cleanly.
func (s *Status) Stopped() bool {
	return s == stopped
}

func (s *Status) String() string {
	switch s {
	case running:
		return "running"
	case stopped:
		return "stopped"
	default:
		return fmt.Sprintf("error: %v", s.err)
	}
}

// WaitStopped blocks until the outcome leaves the running state or
// the context is canceled, and returns the run's error, if any.
func WaitStopped(ctx context.Context, outcome Outcome) error {
	for {
		status, changed := outcome.Get()
		if !status.Running() {
			return status.Err()
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
