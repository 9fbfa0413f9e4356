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

// Package stopper provides a context.Context that supports graceful,
// cooperative shutdown of long-running goroutines.
//
// A [Context] distinguishes between "stopping" and "stopped": calling
// [Context.Stop] closes the [Context.Stopping] channel so that
// goroutines can finish their current unit of work, and only cancels
// the underlying context once the grace period has elapsed.
package stopper

import (
	"context"
	"sync"
	"time"
)

// Context implements [context.Context] and manages a set of
// goroutines that should exit when the Context is stopped.
type Context struct {
	context.Context
	cancel context.CancelFunc

	stopping  chan struct{}
	stopOnce  sync.Once
	waitGroup sync.WaitGroup
}

// WithContext returns a stopper Context derived from the given parent
// context. Canceling the parent cancels the returned Context, but
// does not trigger the graceful-stop channel.
func WithContext(ctx context.Context) *Context {
	ctx, cancel := context.WithCancel(ctx)
	return &Context{
		Context:  ctx,
		cancel:   cancel,
		stopping: make(chan struct{}),
	}
}

// Track registers a goroutine that was launched elsewhere, typically
// by a worker pool that owns its own goroutines. The Context counts
// the goroutine as live until the returned release function is
// called; [Context.Stop]'s grace period and [Context.Wait] both cover
// tracked goroutines.
func (c *Context) Track() (release func()) {
	c.waitGroup.Add(1)
	return c.waitGroup.Done
}

// IsStopping returns true once [Context.Stop] has been called.
func (c *Context) IsStopping() bool {
	select {
	case <-c.stopping:
		return true
	default:
		return false
	}
}

// Stop begins a graceful shutdown. The [Context.Stopping] channel is
// closed immediately; the underlying context is canceled once all
// tracked goroutines have exited or the grace period has elapsed,
// whichever comes first. A zero grace period cancels immediately.
func (c *Context) Stop(gracePeriod time.Duration) {
	c.stopOnce.Do(func() {
		close(c.stopping)
		if gracePeriod == 0 {
			c.cancel()
			return
		}
		go func() {
			done := make(chan struct{})
			go func() {
				c.waitGroup.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(gracePeriod):
			}
			c.cancel()
		}()
	})
}

// Stopping returns a channel that is closed when a graceful shutdown
// has been requested.
func (c *Context) Stopping() <-chan struct{} {
	return c.stopping
}

// Wait blocks until every tracked goroutine has released, then
// cancels the underlying context.
func (c *Context) Wait() {
	c.waitGroup.Wait()
	c.cancel()
}
