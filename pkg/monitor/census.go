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
	"bufio"
	"bytes"
	"runtime"
	"strconv"
	"strings"
)

const (
	initialStackBuf = 64 << 10
	maxStackBuf     = 64 << 20
)

// goroutineRecord is one goroutine header of a runtime stack dump.
type goroutineRecord struct {
	ID         uint64
	WaitReason string
}

// waitReasonStates maps runtime wait reasons onto the five thread states.
var waitReasonStates = map[string]ThreadState{
	"running":   StateRunnable,
	"runnable":  StateRunnable,
	"syscall":   StateRunnable,
	"preempted": StateRunnable,
	"copystack": StateRunnable,

	"sleep": StateTimedWaiting,

	"semacquire":         StateBlocked,
	"sync.Mutex.Lock":    StateBlocked,
	"sync.RWMutex.Lock":  StateBlocked,
	"sync.RWMutex.RLock": StateBlocked,

	"chan receive":            StateWaiting,
	"chan send":               StateWaiting,
	"chan receive (nil chan)": StateWaiting,
	"chan send (nil chan)":    StateWaiting,
	"select":                  StateWaiting,
	"select (no cases)":       StateWaiting,
	"IO wait":                 StateWaiting,
	"sync.Cond.Wait":          StateWaiting,
	"sync.WaitGroup.Wait":     StateWaiting,
	"finalizer wait":          StateWaiting,
	"wait for GC cycle":       StateWaiting,

	"dead": StateTerminated,
}

func classify(reason string) (ThreadState, bool) {
	state, ok := waitReasonStates[reason]
	return state, ok
}

// takeCensus enumerates goroutines from one full stack dump. The dump is
// taken with the world stopped, so every record belongs to the same instant.
func takeCensus() []goroutineRecord {
	return parseGoroutines(dumpGoroutines())
}

func dumpGoroutines() []byte {
	buf := make([]byte, initialStackBuf)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) || len(buf) >= maxStackBuf {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

// parseGoroutines extracts headers such as
//
//	goroutine 18 [sleep, 2 minutes]:
//	goroutine 7 [chan receive, locked to thread]:
//
// Lines that do not parse are skipped.
func parseGoroutines(dump []byte) []goroutineRecord {
	var records []goroutineRecord
	scanner := bufio.NewScanner(bytes.NewReader(dump))
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		if rec, ok := parseHeader(scanner.Text()); ok {
			records = append(records, rec)
		}
	}
	return records
}

func parseHeader(line string) (goroutineRecord, bool) {
	rest, ok := strings.CutPrefix(line, "goroutine ")
	if !ok || !strings.HasSuffix(rest, "]:") {
		return goroutineRecord{}, false
	}

	idEnd := strings.IndexByte(rest, ' ')
	if idEnd <= 0 {
		return goroutineRecord{}, false
	}
	id, err := strconv.ParseUint(rest[:idEnd], 10, 64)
	if err != nil {
		return goroutineRecord{}, false
	}

	open := strings.IndexByte(rest, '[')
	if open < 0 {
		return goroutineRecord{}, false
	}
	status := rest[open+1 : len(rest)-2]
	if i := strings.Index(status, ", "); i >= 0 {
		status = status[:i]
	}
	status = strings.TrimSuffix(status, " (scan)")
	if status == "" {
		return goroutineRecord{}, false
	}

	return goroutineRecord{ID: id, WaitReason: status}, true
}

// tally resolves each record to a state. Live is the number of records;
// those with unknown wait reasons are counted in other and left out of the
// breakdown.
func tally(records []goroutineRecord) (live int, breakdown Breakdown, other int) {
	for _, rec := range records {
		state, ok := classify(rec.WaitReason)
		if !ok {
			other++
			continue
		}
		breakdown.add(state)
	}
	return len(records), breakdown, other
}
