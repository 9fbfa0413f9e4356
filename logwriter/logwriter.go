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

// Package logwriter wraps an io.Writer for dinelock CLI output.
package logwriter

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

// Writer is a log writer and its configuration.
type Writer struct {
	io.Writer

	LogFile       string
	EnableLogging bool
	EnableColour  bool
	Cleanup       func()
}

// NewFile returns a writer that will log to the given file, or to
// stdout if the path is empty.
func NewFile(logfile string, enableLogging, enableColour bool) *Writer {
	return &Writer{
		LogFile:       logfile,
		EnableLogging: enableLogging,
		EnableColour:  enableColour,
	}
}

// New returns a writer that logs to w.
func New(w io.Writer, enableLogging, enableColour bool) *Writer {
	return &Writer{
		Writer:        w,
		EnableLogging: enableLogging,
		EnableColour:  enableColour,
	}
}

// Create initialises the writer. Cleanup must be called when done.
func (w *Writer) Create() error {
	color.NoColor = !w.EnableColour
	w.Cleanup = func() {}
	if !w.EnableLogging {
		w.Writer = io.Discard
		return nil
	}
	if w.Writer != nil {
		return nil
	}
	if w.LogFile == "" {
		w.Writer = os.Stdout
		return nil
	}
	f, err := os.Create(w.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	bufWriter := bufio.NewWriter(f)
	w.Writer = bufWriter
	w.Cleanup = func() {
		if err := bufWriter.Flush(); err != nil {
			log.Printf("flush: %s", err)
		}
		if err := f.Close(); err != nil {
			log.Printf("close: %s", err)
		}
	}
	return nil
}
