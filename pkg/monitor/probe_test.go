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
	"errors"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alibaba/opensandbox/loadprobe/pkg/workload"
)

func TestNormalizeCPULoad(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		numCPU  int
		want    float64
	}{
		{name: "idle", percent: 0, numCPU: 4, want: 0},
		{name: "one core of four", percent: 100, numCPU: 4, want: 0.25},
		{name: "all cores", percent: 400, numCPU: 4, want: 1},
		{name: "overshoot is clamped", percent: 450, numCPU: 4, want: 1},
		{name: "negative is clamped", percent: -1, numCPU: 4, want: 0},
		{name: "zero cpus treated as one", percent: 50, numCPU: 0, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, normalizeCPULoad(tt.percent, tt.numCPU), 1e-9)
		})
	}
}

func TestUnavailableProbe(t *testing.T) {
	var p ProcessProbe = UnavailableProbe{}

	load, ok := p.CPULoad()
	assert.False(t, ok)
	assert.Equal(t, float64(Unavailable), load)

	n, ok := p.OSThreads()
	assert.False(t, ok)
	assert.Equal(t, Unavailable, n)
}

func TestProcessProbeFallsBackForMissingProcess(t *testing.T) {
	start := time.Now()
	p := newProcessProbe(math.MaxInt32)

	assert.Equal(t, UnavailableProbe{}, p)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestIsRetriable(t *testing.T) {
	assert.False(t, isRetriable(nil))
	assert.True(t, isRetriable(errors.New("not ready")))
}

func TestProcessProbeOnHost(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("process metrics are only asserted on linux and darwin")
	}

	p := NewProcessProbe()
	_, isGopsutil := p.(*gopsutilProbe)
	assert.True(t, isGopsutil)

	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		_ = workload.SqrtSum(1000)
	}

	load, ok := p.CPULoad()
	assert.True(t, ok)
	assert.GreaterOrEqual(t, load, 0.0)
	assert.LessOrEqual(t, load, 1.0)

	threads, ok := p.OSThreads()
	assert.True(t, ok)
	assert.Greater(t, threads, 0)
}
