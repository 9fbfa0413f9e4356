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

// Package workgroup contains a bounded analogue to the go keyword.
package workgroup

import (
	"context"
	"fmt"
	"sync"
)

// A Group executes functions with a bounded amount of parallelism,
// queueing work when all executors are busy. It implements the
// [github.com/dinelock/dinelock/dine.Runner] contract.
//
// A Group is internally synchronized and is safe for concurrent use.
type Group struct {
	ctx        context.Context
	queueDepth int
	work       chan func(context.Context)

	mu struct {
		sync.Mutex
		executors int
	}

	maxExecutors int
}

// WithSize returns a Group that will execute functions using up to
// size goroutines, holding up to queueDepth functions in an internal
// queue when all executors are busy. [Group.Go] rejects work beyond
// that limit rather than blocking.
func WithSize(ctx context.Context, size, queueDepth int) *Group {
	if size < 1 {
		size = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	return &Group{
		ctx:          ctx,
		queueDepth:   queueDepth,
		work:         make(chan func(context.Context), queueDepth),
		maxExecutors: size,
	}
}

// Go executes the function in a non-blocking fashion, starting a new
// executor goroutine if the Group is below its size limit. An error
// is returned if the queue is full.
func (g *Group) Go(fn func(context.Context)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.mu.executors < g.maxExecutors {
		g.mu.executors++
		go g.run(fn)
		return nil
	}

	// Enqueueing under the lock keeps retiring executors from
	// missing work that arrives while they re-check the queue.
	select {
	case g.work <- fn:
		return nil
	default:
		return fmt.Errorf("workgroup queue depth %d exceeded", g.queueDepth)
	}
}

// run invokes fn and then drains queued work until none remains.
func (g *Group) run(fn func(context.Context)) {
	for {
		fn(g.ctx)

		select {
		case fn = <-g.work:
			continue
		default:
		}

		// No queued work; retire this executor. Re-check the queue
		// under the lock to avoid stranding a function enqueued
		// between the check above and the decrement.
		g.mu.Lock()
		select {
		case fn = <-g.work:
			g.mu.Unlock()
			continue
		default:
			g.mu.executors--
			g.mu.Unlock()
			return
		}
	}
}
