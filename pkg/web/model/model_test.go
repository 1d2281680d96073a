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

package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/opensandbox/loadprobe/pkg/monitor"
)

func TestWorkloadRequestValidate(t *testing.T) {
	for _, kind := range []string{"cpu", "io", "CPU", "IO"} {
		req := WorkloadRequest{Kind: kind}
		if err := req.Validate(); err != nil {
			t.Fatalf("expected %q to validate: %v", kind, err)
		}
	}

	for _, kind := range []string{"", "gpu", "disk"} {
		req := WorkloadRequest{Kind: kind}
		if err := req.Validate(); err == nil {
			t.Fatalf("expected validation error for kind %q", kind)
		}
	}
}

func TestMetricsOmitsMissingRuntimeSample(t *testing.T) {
	m := NewMetrics()
	assert.NotZero(t, m.Timestamp)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"runtime"`)

	m.Runtime = &monitor.Sample{
		Timestamp:      time.Now(),
		ProcessCPULoad: monitor.Unavailable,
		LiveThreads:    3,
	}
	data, err = json.Marshal(m)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	rt, ok := decoded["runtime"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, rt["live_threads"])
	assert.EqualValues(t, -1, rt["process_cpu_load"])
	assert.Contains(t, rt, "breakdown")
}
