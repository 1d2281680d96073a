// Copyright 2025 Alibaba Group Holding Ltd.
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

package monitor

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/alibaba/opensandbox/loadprobe/pkg/log"
)

const (
	reportHeader = "=== Go Runtime Metrics ==="
	reportFooter = "=========================="
)

// Reporter receives every sample the monitor takes.
type Reporter interface {
	Report(Sample)
}

// FormatReport renders a sample as a human-readable block.
func FormatReport(s Sample) string {
	var b strings.Builder
	b.WriteString(reportHeader)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "CPU Load: %s\n", formatLoad(s))
	fmt.Fprintf(&b, "Live Threads: %d\n", s.LiveThreads)
	fmt.Fprintf(&b, "OS Threads: %s\n", formatCount(s.OSThreads))
	fmt.Fprintf(&b, "Runnable: %d, Waiting: %d, TimedWaiting: %d, Blocked: %d, Terminated: %d\n",
		s.Breakdown.Runnable,
		s.Breakdown.Waiting,
		s.Breakdown.TimedWaiting,
		s.Breakdown.Blocked,
		s.Breakdown.Terminated,
	)
	b.WriteString(reportFooter)
	b.WriteString("\n\n")
	return b.String()
}

func formatLoad(s Sample) string {
	if !s.CPULoadAvailable() {
		return "unavailable"
	}
	return strconv.FormatFloat(s.ProcessCPULoad, 'f', 4, 64)
}

func formatCount(n int) string {
	if n < 0 {
		return "unavailable"
	}
	return strconv.Itoa(n)
}

// WriterReporter prints reports to w and mirrors them as a debug log entry.
type WriterReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterReporter(w io.Writer) *WriterReporter {
	return &WriterReporter{w: w}
}

func (r *WriterReporter) Report(s Sample) {
	r.mu.Lock()
	_, err := io.WriteString(r.w, FormatReport(s))
	r.mu.Unlock()
	if err != nil {
		log.Error("write runtime report: %v", err)
	}

	log.Debugw("runtime sample",
		"cpu_load", s.ProcessCPULoad,
		"live_threads", s.LiveThreads,
		"os_threads", s.OSThreads,
		"runnable", s.Breakdown.Runnable,
		"waiting", s.Breakdown.Waiting,
		"timed_waiting", s.Breakdown.TimedWaiting,
		"blocked", s.Breakdown.Blocked,
		"terminated", s.Breakdown.Terminated,
		"classified", s.Breakdown.Total(),
		"other", s.Other,
	)
}
