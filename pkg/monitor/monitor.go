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
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/alibaba/opensandbox/loadprobe/pkg/log"
	"github.com/alibaba/opensandbox/loadprobe/pkg/util/safego"
)

const DefaultInterval = 5 * time.Second

type Config struct {
	Interval time.Duration
	Probe    ProcessProbe
	Reporter Reporter
}

// Monitor periodically samples process CPU load and the goroutine
// population and hands each sample to its Reporter.
type Monitor struct {
	interval time.Duration
	probe    ProcessProbe
	reporter Reporter
	census   func() []goroutineRecord

	startOnce sync.Once
	done      chan struct{}

	latest atomic.Pointer[Sample]
}

// New fills unset fields with the platform probe, a stdout reporter and
// DefaultInterval.
func New(cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Probe == nil {
		cfg.Probe = NewProcessProbe()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NewWriterReporter(os.Stdout)
	}
	return &Monitor{
		interval: cfg.Interval,
		probe:    cfg.Probe,
		reporter: cfg.Reporter,
		census:   takeCensus,
		done:     make(chan struct{}),
	}
}

// Start launches the sampling loop on its own goroutine. The first sample is
// taken immediately, then one per interval until ctx is done. Only the first
// call has an effect; it returns false otherwise.
func (m *Monitor) Start(ctx context.Context) bool {
	launched := false
	m.startOnce.Do(func() {
		launched = true
		safego.Go(func() {
			defer close(m.done)
			m.run(ctx)
		})
	})
	return launched
}

func (m *Monitor) run(ctx context.Context) {
	log.Info("runtime monitor started, interval=%v", m.interval)
	wait.UntilWithContext(ctx, func(context.Context) {
		safego.Run(m.tick)
	}, m.interval)
	log.Debug("runtime monitor stopped: %v", context.Cause(ctx))
}

func (m *Monitor) tick() {
	s := m.Sample()
	m.latest.Store(&s)
	m.reporter.Report(s)
}

// Sample takes one snapshot without publishing it.
func (m *Monitor) Sample() Sample {
	load, ok := m.probe.CPULoad()
	if !ok {
		load = Unavailable
	}
	osThreads, ok := m.probe.OSThreads()
	if !ok {
		osThreads = Unavailable
	}

	live, breakdown, other := tally(m.census())
	return Sample{
		Timestamp:      time.Now(),
		ProcessCPULoad: load,
		LiveThreads:    live,
		OSThreads:      osThreads,
		Breakdown:      breakdown,
		Other:          other,
	}
}

// Latest returns the most recent published sample.
func (m *Monitor) Latest() (Sample, bool) {
	s := m.latest.Load()
	if s == nil {
		return Sample{}, false
	}
	return *s, true
}

// Done is closed when the loop exits.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}
