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
	"errors"
	"log"
	"os"
	"time"

	"github.com/dinelock/dinelock/dine"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// checkCmd runs a bounded simulation and reports whether it
// completed, which is the lecture-hall question "does this variant
// deadlock?" as a command. Exit status 1 means a timeout, the
// signature of deadlock.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a bounded simulation and report a deadlock verdict",
	Run: func(cmd *cobra.Command, args []string) {
		check(cmd)
	},
}

func init() {
	checkCmd.Flags().Int("philosophers", 5, "number of workers (and resources)")
	checkCmd.Flags().String("policy", "naive", "acquisition policy: naive|randomized|hierarchical|admission-limited")
	checkCmd.Flags().Int("permits", 0, "admission gate capacity (admission-limited only; default philosophers-1)")
	checkCmd.Flags().Int("cycles", 25, "think/eat cycles per worker")
	checkCmd.Flags().Duration("think", 10*time.Millisecond, "delay before each acquisition")
	checkCmd.Flags().Duration("eat", 10*time.Millisecond, "delay while holding both resources")
	checkCmd.Flags().Duration("timeout", 10*time.Second, "overall deadline before declaring deadlock")
	checkCmd.Flags().Int64("seed", 0, "seed for the randomized policy's coin flips (0 = clock)")

	RootCmd.AddCommand(checkCmd)
}

func check(cmd *cobra.Command) {
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

	coord, err := dine.New(dine.Config{
		Workers:      n,
		Resources:    n,
		Policy:       kind,
		GateCapacity: permits,
		ThinkDelay:   viper.GetDuration("think"),
		EatDelay:     viper.GetDuration("eat"),
		Timeout:      viper.GetDuration("timeout"),
		Seed:         viper.GetInt64("seed"),
	})
	if err != nil {
		log.Fatal(err)
	}

	cycles := viper.GetInt("cycles")
	start := time.Now()
	eventLog, err := coord.RunBounded(context.Background(), cycles)
	elapsed := time.Since(start).Round(time.Millisecond)

	switch {
	case err == nil:
		color.New(color.FgGreen).Fprintf(l, "%s: completed %d cycles x %d workers in %s (%d events, %d dropped)\n",
			kind, cycles, n, elapsed, eventLog.Len(), eventLog.Dropped())
		if kind.DeadlockFree() {
			color.New(color.Faint).Fprintf(l, "deadlock freedom is guaranteed for this policy\n")
		}
	case errors.Is(err, dine.ErrTimedOut):
		color.New(color.FgRed).Fprintf(l, "%s: timed out after %s, deadlock suspected (%d events recorded before the stall)\n",
			kind, elapsed, eventLog.Len())
		l.Cleanup()
		os.Exit(1)
	default:
		log.Fatal(err)
	}
}
