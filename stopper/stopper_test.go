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

package stopper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGracefulStop(t *testing.T) {
	r := require.New(t)

	s := WithContext(context.Background())
	r.False(s.IsStopping())

	cycles := 0
	release := s.Track()
	go func() {
		defer release()
		for {
			select {
			case <-s.Stopping():
				return
			default:
			}
			cycles++
			time.Sleep(time.Millisecond)
		}
	}()

	time.Sleep(10 * time.Millisecond)
	s.Stop(time.Second)
	r.True(s.IsStopping())
	s.Wait()
	r.Positive(cycles)
	// The underlying context is canceled once all goroutines exit.
	r.Error(s.Err())
}

// A tracked goroutine that is still live keeps the grace period from
// canceling; cancellation follows its release, not the full grace.
func TestGraceWaitsForTrackedGoroutines(t *testing.T) {
	r := require.New(t)

	s := WithContext(context.Background())
	release := s.Track()

	s.Stop(time.Minute)
	time.Sleep(10 * time.Millisecond)
	r.NoError(s.Err())

	release()
	s.Wait()
	r.ErrorIs(s.Err(), context.Canceled)
}

func TestStopCancelsAfterGrace(t *testing.T) {
	r := require.New(t)

	s := WithContext(context.Background())
	release := s.Track()
	go func() {
		defer release()
		<-s.Done() // Ignores the stopping channel.
	}()

	s.Stop(5 * time.Millisecond)
	s.Wait()
	r.ErrorIs(s.Err(), context.Canceled)
}

func TestParentCancellation(t *testing.T) {
	r := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	s := WithContext(ctx)
	cancel()
	r.ErrorIs(s.Err(), context.Canceled)
	// Parent cancellation is not a graceful stop.
	r.False(s.IsStopping())
}
