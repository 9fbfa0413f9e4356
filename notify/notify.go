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

// Package notify contains a utility for notifying callers of changes
// to some variable.
package notify

import "sync"

// A Var is a variable that notifies its consumers of changes. The
// zero value of a Var holds the zero value of T.
//
// A Var is internally synchronized and is safe for concurrent use. A
// Var should not be copied after it has been created.
type Var[T any] struct {
	mu struct {
		sync.RWMutex
		data    T
		updated chan struct{} // Closed and replaced by Set.
	}
}

// VarOf returns a new Var that holds the given value.
func VarOf[T any](val T) *Var[T] {
	v := &Var[T]{}
	v.mu.data = val
	return v
}

// Get returns the current value of the variable and a channel that
// will be closed the next time [Var.Set] is called.
func (v *Var[T]) Get() (value T, changed <-chan struct{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mu.updated == nil {
		v.mu.updated = make(chan struct{})
	}
	return v.mu.data, v.mu.updated
}

// Peek returns the current value of the variable without allocating a
// notification channel.
func (v *Var[T]) Peek() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mu.data
}

// Set the value and notify any waiters.
func (v *Var[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mu.data = val
	if v.mu.updated != nil {
		close(v.mu.updated)
		v.mu.updated = nil
	}
}

// Swap stores the given value and returns the previous value.
func (v *Var[T]) Swap(val T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	old := v.mu.data
	v.mu.data = val
	if v.mu.updated != nil {
		close(v.mu.updated)
		v.mu.updated = nil
	}
	return old
}
