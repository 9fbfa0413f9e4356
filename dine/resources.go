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

	"golang.org/x/sync/semaphore"
)

// A ResourceSet owns a fixed number of exclusive resources, indexed
// 0..N-1. Workers hold a lease on a resource between Acquire and
// Release; they never own it.
//
// The set carries no retry or deadlock-avoidance logic of its own:
// each resource is a raw mutual-exclusion primitive, and avoiding
// circular waits is entirely the business of the acquisition policy
// and the admission gate.
type ResourceSet struct {
	slots []*semaphore.Weighted
}

// NewResourceSet returns a set of n unheld resources.
func NewResourceSet(n int) *ResourceSet {
	slots := make([]*semaphore.Weighted, n)
	for i := range slots {
		slots[i] = semaphore.NewWeighted(1)
	}
	return &ResourceSet{slots: slots}
}

// Len returns the number of resources in the set.
func (s *ResourceSet) Len() int { return len(s.slots) }

// Acquire blocks until the caller holds exclusive use of the resource
// or the context is canceled. Waiters are served in FIFO order; no
// other fairness is promised.
func (s *ResourceSet) Acquire(ctx context.Context, index int) error {
	return s.slots[index].Acquire(ctx, 1)
}

// TryAcquire acquires the resource without blocking, reporting
// whether it succeeded.
func (s *ResourceSet) TryAcquire(index int) bool {
	return s.slots[index].TryAcquire(1)
}

// TryAcquireTimeout is a bounded-wait Acquire, intended for probing
// suspected-deadlocked resources without hanging. The returned error
// wraps [context.DeadlineExceeded] when the timeout elapses.
func (s *ResourceSet) TryAcquireTimeout(ctx context.Context, index int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.slots[index].Acquire(ctx, 1)
}

// Release returns the resource to the set. The caller must currently
// hold it; releasing an unheld resource is a programming error and
// panics.
func (s *ResourceSet) Release(index int) {
	s.slots[index].Release(1)
}
