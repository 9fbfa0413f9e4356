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

/*
Package dine coordinates a fixed pool of workers competing for a fixed
set of exclusive resources, in the shape of the classic dining
philosophers problem: N workers seated in a ring, resource i shared
between neighboring workers i and (i+1) mod N, each worker repeatedly
thinking, picking up its two adjacent resources, eating, and putting
them back down.

The interesting part is the acquisition order. Four policies are
provided, each a different answer to the circular-wait deadlock that
the naive ordering invites:

	cfg := dine.Config{Workers: 5, Resources: 5, Policy: dine.Hierarchical}
	coord, err := dine.New(cfg)
	if err != nil {
		return err
	}
	log, err := coord.RunBounded(ctx, 3)

[Naive] always acquires clockwise and can deadlock. [Randomized] flips
a coin per worker and makes deadlock unlikely but not impossible.
[Hierarchical] reverses the order for the last worker and is provably
deadlock-free. [AdmissionLimited] keeps the naive order but caps how
many workers may hold resources at once, which is also provably
deadlock-free.

Every state transition of every worker is reported as an [Event] to a
best-effort, non-blocking sink; the aggregated [Log] is what tests and
callers use to reason about a run. Correctness of the locking protocol
never depends on event delivery.
*/
package dine
