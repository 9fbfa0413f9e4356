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

import "fmt"

// Kind selects the acquisition policy used by every worker in a run.
type Kind string

const (
	// Naive acquires resource id first and (id+1) mod N second, for
	// every worker. If all N workers pick up their first resource
	// before any picks up its second, the wait-for graph closes into
	// a ring and no worker ever proceeds. This policy is the
	// deadlock-producing baseline, kept for demonstration and
	// testing; deadlocking under it is expected behavior, not a bug.
	Naive Kind = "naive"

	// Randomized flips one fair coin per worker at startup: heads
	// keeps the naive order, tails reverses it. Breaking the symmetry
	// makes the full circular wait unlikely, but an unlucky set of
	// coins can still reproduce the naive ordering, so this is a
	// probabilistic mitigation rather than a guarantee.
	Randomized Kind = "randomized"

	// Hierarchical keeps the naive order for all workers except the
	// last, which acquires resource 0 before resource N-1. The ring
	// can no longer close: whichever worker would complete the cycle
	// is ordered against it. Deadlock freedom is guaranteed.
	Hierarchical Kind = "hierarchical"

	// AdmissionLimited keeps the naive order, but a worker must hold
	// a permit from the run's admission gate before touching its
	// first resource. With capacity K <= N-1 at least one worker is
	// always excluded from contention, so the circular wait can never
	// cover all N workers. Deadlock freedom is guaranteed.
	AdmissionLimited Kind = "admission-limited"
)

// ParseKind converts a policy name, as used in configuration files and
// CLI flags, to a [Kind].
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

// Validate returns an error wrapping [ErrConfig] if the Kind is not
// one of the defined policies.
func (k Kind) Validate() error {
	switch k {
	case Naive, Randomized, Hierarchical, AdmissionLimited:
		return nil
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrConfig, string(k))
	}
}

// DeadlockFree returns true if the policy carries a hard
// deadlock-freedom guarantee regardless of scheduling.
func (k Kind) DeadlockFree() bool {
	return k == Hierarchical || k == AdmissionLimited
}

// Gated returns true if the policy requires an admission gate.
func (k Kind) Gated() bool {
	return k == AdmissionLimited
}

func (k Kind) String() string { return string(k) }

// An order is the pair of resource indices a worker acquires, in
// acquisition order. Releases happen in the reverse order.
type order struct {
	first, second int
}

// orderFor computes a worker's acquisition order under the policy.
// The coin argument is consulted only by [Randomized]; it is flipped
// once per worker at startup, never per cycle.
func (k Kind) orderFor(id, n int, coin bool) order {
	low, high := id, (id+1)%n
	switch k {
	case Randomized:
		if !coin {
			return order{first: high, second: low}
		}
	case Hierarchical:
		if id == n-1 {
			return order{first: high, second: low}
		}
	}
	return order{first: low, second: high}
}
