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

import "context"

// A Runner supplies the goroutines that free-running workers execute
// on. The pool must seat every worker at once: with fewer slots the
// workers queue behind one another instead of contending for
// resources, and the simulation degenerates. [GoRunner] is the
// unbounded default; [github.com/dinelock/dinelock/workgroup.Group]
// is the bounded alternative.
type Runner interface {
	// Go starts fn without blocking, or reports that the pool
	// refused it.
	Go(func(context.Context)) error
}

type runnerFunc func(func(context.Context)) error

func (r runnerFunc) Go(fn func(context.Context)) error { return r(fn) }

// GoRunner returns a Runner that starts one plain goroutine per call,
// all sharing ctx.
func GoRunner(ctx context.Context) Runner {
	return runnerFunc(func(fn func(context.Context)) error {
		go fn(ctx)
		return nil
	})
}
