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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNaiveOrder(t *testing.T) {
	r := require.New(t)

	for _, n := range []int{2, 3, 5, 8, 16} {
		for id := 0; id < n; id++ {
			o := Naive.orderFor(id, n, true)
			r.Equal(order{first: id, second: (id + 1) % n}, o)
			// The coin must be ignored.
			r.Equal(o, Naive.orderFor(id, n, false))
			// AdmissionLimited shares the naive order.
			r.Equal(o, AdmissionLimited.orderFor(id, n, true))
		}
	}
}

func TestRandomizedOrder(t *testing.T) {
	r := require.New(t)

	const n = 5
	for id := 0; id < n; id++ {
		heads := Randomized.orderFor(id, n, true)
		tails := Randomized.orderFor(id, n, false)
		r.Equal(order{first: id, second: (id + 1) % n}, heads)
		r.Equal(order{first: (id + 1) % n, second: id}, tails)
	}
}

func TestHierarchicalOrder(t *testing.T) {
	r := require.New(t)

	for _, n := range []int{2, 3, 5, 8, 16} {
		for id := 0; id < n-1; id++ {
			r.Equal(order{first: id, second: id + 1}, Hierarchical.orderFor(id, n, true))
		}
		// The last worker reverses: resource 0 before resource n-1,
		// which is what keeps the wait-for graph from closing.
		r.Equal(order{first: 0, second: n - 1}, Hierarchical.orderFor(n-1, n, true))
	}
}

func TestKindValidate(t *testing.T) {
	r := require.New(t)

	for _, k := range []Kind{Naive, Randomized, Hierarchical, AdmissionLimited} {
		r.NoError(k.Validate())
	}
	r.ErrorIs(Kind("round-robin").Validate(), ErrConfig)
	r.ErrorIs(Kind("").Validate(), ErrConfig)
}

func TestParseKind(t *testing.T) {
	r := require.New(t)

	k, err := ParseKind("hierarchical")
	r.NoError(err)
	r.Equal(Hierarchical, k)

	_, err = ParseKind("nope")
	r.ErrorIs(err, ErrConfig)
}

func TestKindProperties(t *testing.T) {
	r := require.New(t)

	r.False(Naive.DeadlockFree())
	r.False(Randomized.DeadlockFree())
	r.True(Hierarchical.DeadlockFree())
	r.True(AdmissionLimited.DeadlockFree())

	r.True(AdmissionLimited.Gated())
	r.False(Naive.Gated())
	r.False(Randomized.Gated())
	r.False(Hierarchical.Gated())
}
