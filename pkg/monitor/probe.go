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
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/alibaba/opensandbox/loadprobe/pkg/log"
)

// ProcessProbe exposes best-effort process level metrics. Implementations
// report ok=false instead of failing when the platform lacks a metric.
type ProcessProbe interface {
	// CPULoad returns the process CPU usage as a fraction of all processing units.
	CPULoad() (float64, bool)
	// OSThreads returns the number of kernel threads of the process.
	OSThreads() (int, bool)
}

var probeInitBackoff = wait.Backoff{
	Steps:    3,
	Duration: 50 * time.Millisecond,
	Factor:   2,
	Jitter:   0.1,
}

// NewProcessProbe picks the probe for this platform once. It falls back to
// the unavailable probe when process metrics cannot be read.
func NewProcessProbe() ProcessProbe {
	return newProcessProbe(int32(os.Getpid()))
}

func newProcessProbe(pid int32) ProcessProbe {
	var proc *process.Process
	err := retry.OnError(probeInitBackoff, isRetriable, func() error {
		p, err := process.NewProcess(pid)
		if err != nil {
			return err
		}
		if _, err := p.Times(); err != nil {
			return err
		}
		proc = p
		return nil
	})
	if err != nil {
		log.Warn("process metrics are unavailable for pid %d after %d attempts: %v", pid, probeInitBackoff.Steps, err)
		return UnavailableProbe{}
	}
	return newGopsutilProbe(proc)
}

func isRetriable(err error) bool {
	return err != nil
}

type gopsutilProbe struct {
	mu     sync.Mutex
	proc   *process.Process
	numCPU int
}

func newGopsutilProbe(proc *process.Process) *gopsutilProbe {
	p := &gopsutilProbe{proc: proc, numCPU: runtime.NumCPU()}
	// prime the delta so the first tick reports the load since startup
	_, _ = proc.Percent(0)
	return p
}

// CPULoad normalizes gopsutil's per-core percent over all host CPUs.
func (p *gopsutilProbe) CPULoad() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pct, err := p.proc.Percent(0)
	if err != nil {
		log.Debug("read process cpu percent: %v", err)
		return Unavailable, false
	}
	return normalizeCPULoad(pct, p.numCPU), true
}

func (p *gopsutilProbe) OSThreads() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.proc.NumThreads()
	if err != nil {
		log.Debug("read process thread count: %v", err)
		return Unavailable, false
	}
	return int(n), true
}

func normalizeCPULoad(percent float64, numCPU int) float64 {
	if numCPU <= 0 {
		numCPU = 1
	}
	return lo.Clamp(percent/100/float64(numCPU), 0, 1)
}

// UnavailableProbe is used where the platform exposes no process metrics.
type UnavailableProbe struct{}

func (UnavailableProbe) CPULoad() (float64, bool) {
	return Unavailable, false
}

func (UnavailableProbe) OSThreads() (int, bool) {
	return Unavailable, false
}
