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

	"golang.org/x/sync/semaphore"
)

// A Gate is a counting permit pool limiting how many workers may be
// mid-acquisition at once. Capacity is fixed at construction; the
// deadlock-freedom argument for [AdmissionLimited] depends on it
// never growing, so there is deliberately no resize operation.
type Gate struct {
	capacity int
	sem      *semaphore.Weighted
}

// NewGate returns a Gate holding the given number of permits.
func NewGate(capacity int) (*Gate, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: gate capacity must be positive, got %d", ErrConfig, capacity)
	}
	return &Gate{
		capacity: capacity,
		sem:      semaphore.NewWeighted(int64(capacity)),
	}, nil
}

// Capacity returns the number of permits the Gate was built with.
func (g *Gate) Capacity() int { return g.capacity }

// Acquire blocks until a permit is available or the context is
// canceled.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// TryAcquire takes a permit without blocking, reporting whether one
// was available.
func (g *Gate) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Release returns a permit to the pool. Returning more permits than
// were taken is a programming error and panics.
func (g *Gate) Release() {
	g.sem.Release(1)
}
