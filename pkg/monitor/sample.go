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

import "time"

// ThreadState is the five-way classification used to summarize live goroutines.
type ThreadState string

const (
	StateRunnable     ThreadState = "RUNNABLE"
	StateWaiting      ThreadState = "WAITING"
	StateTimedWaiting ThreadState = "TIMED_WAITING"
	StateBlocked      ThreadState = "BLOCKED"
	StateTerminated   ThreadState = "TERMINATED"
)

// Unavailable marks a metric the platform could not provide.
const Unavailable = -1

// Breakdown counts live goroutines per state.
type Breakdown struct {
	Runnable     int `json:"runnable"`
	Waiting      int `json:"waiting"`
	TimedWaiting int `json:"timed_waiting"`
	Blocked      int `json:"blocked"`
	Terminated   int `json:"terminated"`
}

func (b *Breakdown) add(state ThreadState) {
	switch state {
	case StateRunnable:
		b.Runnable++
	case StateWaiting:
		b.Waiting++
	case StateTimedWaiting:
		b.TimedWaiting++
	case StateBlocked:
		b.Blocked++
	case StateTerminated:
		b.Terminated++
	}
}

func (b Breakdown) Total() int {
	return b.Runnable + b.Waiting + b.TimedWaiting + b.Blocked + b.Terminated
}

// Sample is one monitor tick. Breakdown.Total() never exceeds LiveThreads;
// goroutines parked in states outside the five are counted in Other.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	// ProcessCPULoad is a fraction of all processing units in [0, 1], or Unavailable.
	ProcessCPULoad float64   `json:"process_cpu_load"`
	LiveThreads    int       `json:"live_threads"`
	OSThreads      int       `json:"os_threads"`
	Breakdown      Breakdown `json:"breakdown"`
	Other          int       `json:"other"`
}

func (s Sample) CPULoadAvailable() bool {
	return s.ProcessCPULoad >= 0
}
