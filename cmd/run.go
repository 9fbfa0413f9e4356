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

package cmd

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/dinelock/dinelock/dine"
	"github.com/dinelock/dinelock/workgroup"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd starts a free-running simulation that narrates every worker
// transition until interrupted.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a free-running simulation",
	Long: `Run the dining-philosophers simulation until interrupted (or for
--duration). Every worker transition is narrated to the log writer.

Under --policy naive the simulation is expected to eventually seize up;
that is the demonstration.`,
	Run: func(cmd *cobra.Command, args []string) {
		runDemo(cmd)
	},
}

func init() {
	runCmd.Flags().Int("philosophers", 5, "number of workers (and resources)")
	runCmd.Flags().String("policy", "hierarchical", "acquisition policy: naive|randomized|hierarchical|admission-limited")
	runCmd.Flags().Int("permits", 0, "admission gate capacity (admission-limited only; default philosophers-1)")
	runCmd.Flags().Duration("think", time.Second, "delay before each acquisition")
	runCmd.Flags().Duration("eat", time.Second, "delay while holding both resources")
	runCmd.Flags().Duration("duration", 0, "stop after this long (default: run until interrupted)")
	runCmd.Flags().Duration("grace", 5*time.Second, "grace period for workers to finish their cycle on stop")

	RootCmd.AddCommand(runCmd)
}

func runDemo(cmd *cobra.Command) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		log.Fatal(err)
	}

	kind, err := dine.ParseKind(viper.GetString("policy"))
	if err != nil {
		log.Fatal(err)
	}
	n := viper.GetInt("philosophers")
	permits := viper.GetInt("permits")
	if kind.Gated() && permits == 0 {
		permits = n - 1
	}

	l := newLogWriter()
	defer l.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	coord, err := dine.New(dine.Config{
		Workers:      n,
		Resources:    n,
		Policy:       kind,
		GateCapacity: permits,
		ThinkDelay:   viper.GetDuration("think"),
		EatDelay:     viper.GetDuration("eat"),
		Monitor:      narrator(l),
		Runner:       workgroup.WithSize(ctx, n, 0),
	})
	if err != nil {
		log.Fatal(err)
	}

	h, err := coord.Start(ctx)
	if err != nil {
		log.Fatal(err)
	}
	color.New(color.Bold).Fprintf(l, "run %s: %d philosophers, %s policy\n", h.ID(), n, kind)

	if d := viper.GetDuration("duration"); d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}

	if err := h.Stop(context.Background(), viper.GetDuration("grace")); err != nil {
		color.New(color.FgRed).Fprintf(l, "stopped with error: %v\n", err)
	}
	color.New(color.Bold).Fprintf(l, "recorded %d events, dropped %d\n",
		h.Log().Len(), h.Log().Dropped())
}

// narrator renders events in the voice of the classic exercise.
func narrator(w io.Writer) *dine.Monitor {
	var mu sync.Mutex
	think := color.New(color.FgCyan)
	pick := color.New(color.FgYellow)
	eat := color.New(color.FgGreen)
	put := color.New(color.FgMagenta)

	return &dine.Monitor{
		OnEvent: func(ev dine.Event) {
			mu.Lock()
			defer mu.Unlock()
			switch ev.Kind {
			case dine.StartThink:
				think.Fprintf(w, "Philosopher %d is thinking.\n", ev.Worker)
			case dine.AcquireFirst:
				pick.Fprintf(w, "Philosopher %d picked up utensil %d (first).\n", ev.Worker, ev.Resource)
			case dine.AcquireSecond:
				pick.Fprintf(w, "Philosopher %d picked up utensil %d (second).\n", ev.Worker, ev.Resource)
			case dine.StartEat:
				eat.Fprintf(w, "Philosopher %d is eating.\n", ev.Worker)
			case dine.ReleaseSecond, dine.ReleaseFirst:
				put.Fprintf(w, "Philosopher %d put down utensil %d.\n", ev.Worker, ev.Resource)
			}
		},
	}
}
