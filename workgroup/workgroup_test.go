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

package workgroup

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllWorkRuns(t *testing.T) {
	const tasks = 256
	r := require.New(t)

	g := WithSize(context.Background(), 4, tasks)

	var ran atomic.Int32
	var wg sync.WaitGroup
	wg.Add(tasks)
	for i := 0; i < tasks; i++ {
		r.NoError(g.Go(func(context.Context) {
			ran.Add(1)
			wg.Done()
		}))
	}
	wg.Wait()
	r.Equal(int32(tasks), ran.Load())
}

func TestQueueDepthExceeded(t *testing.T) {
	r := require.New(t)

	g := WithSize(context.Background(), 1, 0)

	block := make(chan struct{})
	done := make(chan struct{})
	r.NoError(g.Go(func(context.Context) {
		<-block
		close(done)
	}))

	err := g.Go(func(context.Context) {
		r.Fail("should not execute")
	})
	r.ErrorContains(err, "queue depth 0 exceeded")

	close(block)
	<-done
}

func TestContextPlumbing(t *testing.T) {
	r := require.New(t)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")
	g := WithSize(ctx, 1, 1)

	got := make(chan any, 1)
	r.NoError(g.Go(func(ctx context.Context) {
		got <- ctx.Value(key{})
	}))
	r.Equal("marker", <-got)
}
