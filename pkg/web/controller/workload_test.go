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

package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/opensandbox/loadprobe/pkg/monitor"
	"github.com/alibaba/opensandbox/loadprobe/pkg/web/model"
	"github.com/alibaba/opensandbox/loadprobe/pkg/workload"
)

func setupWorkloadController(method, path string, body []byte) (*WorkloadController, *httptest.ResponseRecorder) {
	ctx, w := newTestContext(method, path, body)
	ctrl := NewWorkloadController(ctx)
	return ctrl, w
}

func testDispatcher(cfg workload.Config) *workload.Dispatcher {
	if cfg.Processors == nil {
		cfg.Processors = func() int { return 2 }
	}
	if cfg.CPUIterations == 0 {
		cfg.CPUIterations = 1000
	}
	if cfg.IOTaskWait == 0 {
		cfg.IOTaskWait = 50 * time.Millisecond
	}
	return workload.NewDispatcher(cfg)
}

// withTestWorkload swaps the package dispatcher and monitor for the duration of a test.
func withTestWorkload(t *testing.T, d *workload.Dispatcher, m *monitor.Monitor) {
	t.Helper()
	prevDispatcher, prevMonitor := dispatcher, runtimeMonitor
	InitWorkload(d, m)
	t.Cleanup(func() {
		InitWorkload(prevDispatcher, prevMonitor)
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRunCPU(t *testing.T) {
	d := testDispatcher(workload.Config{})
	withTestWorkload(t, d, nil)
	ctrl, w := setupWorkloadController(http.MethodGet, "/cpu", nil)

	ctrl.RunCPU()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CPU-bound task started!", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(model.BatchIDHeader))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.EqualValues(t, 2, d.Stats().TasksSubmitted)
}

func TestRunIO(t *testing.T) {
	d := testDispatcher(workload.Config{})
	withTestWorkload(t, d, nil)
	ctrl, w := setupWorkloadController(http.MethodGet, "/io", nil)

	start := time.Now()
	ctrl.RunIO()

	assert.Less(t, time.Since(start), 50*time.Millisecond+time.Second)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "IO-bound task started!", w.Body.String())
	assert.EqualValues(t, 20, d.Stats().TasksSubmitted)
}

func TestRunIOTooManyPools(t *testing.T) {
	d := testDispatcher(workload.Config{IOTaskWait: time.Second, MaxLivePools: 1})
	withTestWorkload(t, d, nil)

	first, w := setupWorkloadController(http.MethodGet, "/io", nil)
	first.RunIO()
	require.Equal(t, http.StatusOK, w.Code)

	second, w := setupWorkloadController(http.MethodGet, "/io", nil)
	second.RunIO()

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, model.ErrorCodeTooManyPools, decodeError(t, w).Code)
}

func TestRunWithoutDispatcher(t *testing.T) {
	withTestWorkload(t, nil, nil)
	ctrl, w := setupWorkloadController(http.MethodGet, "/cpu", nil)

	ctrl.RunCPU()

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, model.ErrorCodeRuntimeError, decodeError(t, w).Code)
}

func TestRunWorkload(t *testing.T) {
	d := testDispatcher(workload.Config{})
	withTestWorkload(t, d, nil)
	ctrl, w := setupWorkloadController(http.MethodPost, "/workload", []byte(`{"kind":"io"}`))

	ctrl.RunWorkload()

	require.Equal(t, http.StatusOK, w.Code)
	var resp model.WorkloadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "io", resp.Kind)
	assert.Equal(t, workload.IOPoolSize, resp.Workers)
	assert.Equal(t, workload.IOPoolSize, resp.Tasks)
	assert.Equal(t, "IO-bound task started!", resp.Message)
	assert.Equal(t, w.Header().Get(model.BatchIDHeader), resp.BatchID)
}

func TestRunWorkloadInvalidBody(t *testing.T) {
	withTestWorkload(t, testDispatcher(workload.Config{}), nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"kind":`},
		{name: "missing kind", body: `{}`},
		{name: "unknown kind", body: `{"kind":"gpu"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, w := setupWorkloadController(http.MethodPost, "/workload", []byte(tt.body))

			ctrl.RunWorkload()

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, model.ErrorCodeInvalidRequest, decodeError(t, w).Code)
		})
	}
}
