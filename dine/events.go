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
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// EventKind identifies a worker state transition. A complete
// think/eat cycle emits exactly six events, in the order the
// constants are declared.
type EventKind int

const (
	StartThink EventKind = iota
	AcquireFirst
	AcquireSecond
	StartEat
	ReleaseSecond
	ReleaseFirst
)

func (k EventKind) String() string {
	switch k {
	case StartThink:
		return "startThink"
	case AcquireFirst:
		return "acquireFirst"
	case AcquireSecond:
		return "acquireSecond"
	case StartEat:
		return "startEat"
	case ReleaseSecond:
		return "releaseSecond"
	case ReleaseFirst:
		return "releaseFirst"
	default:
		return fmt.Sprintf("eventKind(%d)", int(k))
	}
}

// An Event records one worker state transition. Acquire and release
// events occur while the worker holds the named resource: acquire is
// reported after the resource is obtained and release just before it
// is returned, so a well-formed [Log] shows at most one holder per
// resource at any point.
type Event struct {
	Worker   int       // Worker id, 0..N-1.
	Kind     EventKind // The transition taken.
	Resource int       // Resource index, or -1 for think/eat events.
	Nanos    int64     // Wall-clock timestamp, UnixNano.
}

func (e Event) String() string {
	if e.Resource < 0 {
		return fmt.Sprintf("worker %d %s", e.Worker, e.Kind)
	}
	return fmt.Sprintf("worker %d %s resource %d", e.Worker, e.Kind, e.Resource)
}

// A Log is the aggregated event record of one run. Events arrive via
// a best-effort sink and may have been dropped under backpressure;
// [Log.Dropped] reports how many.
//
// A Log is internally synchronized and is safe for concurrent use.
type Log struct {
	dropped atomic.Int64

	mu struct {
		sync.RWMutex
		events []Event
	}
}

func (l *Log) append(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mu.events = append(l.mu.events, ev)
}

func (l *Log) drop() {
	l.dropped.Add(1)
}

// Events returns a copy of the recorded events in arrival order.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Event(nil), l.mu.events...)
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.mu.events)
}

// CountKind returns the number of recorded events of the given kind.
func (l *Log) CountKind(kind EventKind) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, ev := range l.mu.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// Dropped returns the number of events discarded under backpressure.
func (l *Log) Dropped() int64 {
	return l.dropped.Load()
}

// A Monitor provides optional callbacks observed inline by workers as
// they emit events. Unlike the sink feeding the [Log], callbacks run
// on the worker's goroutine; a callback that blocks stalls the
// worker, which is exactly what deterministic-schedule tests exploit.
//
// See [Config.Monitor].
type Monitor struct {
	// OnEvent is invoked for every transition, before the event is
	// offered to the log sink.
	OnEvent func(ev Event)
	// OnDrop is invoked when the sink rejects an event.
	OnDrop func(ev Event)
}

func (m *Monitor) doEvent(ev Event) {
	if m != nil && m.OnEvent != nil {
		m.OnEvent(ev)
	}
}

func (m *Monitor) doDrop(ev Event) {
	if m != nil && m.OnDrop != nil {
		m.OnDrop(ev)
	}
}

// A sink fans worker events into a Log through a buffered channel. A
// full buffer drops the event rather than blocking the worker.
type sink struct {
	ch        chan Event
	closeOnce sync.Once
	drained   chan struct{}
	log       *Log
	monitor   *Monitor
}

func newSink(log *Log, monitor *Monitor, buffer int) *sink {
	s := &sink{
		ch:      make(chan Event, buffer),
		drained: make(chan struct{}),
		log:     log,
		monitor: monitor,
	}
	go func() {
		defer close(s.drained)
		for ev := range s.ch {
			s.log.append(ev)
		}
	}()
	return s
}

func (s *sink) emit(worker int, kind EventKind, resource int) {
	ev := Event{
		Worker:   worker,
		Kind:     kind,
		Resource: resource,
		Nanos:    time.Now().UnixNano(),
	}
	s.monitor.doEvent(ev)
	select {
	case s.ch <- ev:
	default:
		s.log.drop()
		s.monitor.doDrop(ev)
	}
}

// close stops the collector and waits for buffered events to land in
// the log. All emitters must have exited.
func (s *sink) close() {
	s.closeOnce.Do(func() { close(s.ch) })
	<-s.drained
}
