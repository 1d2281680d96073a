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
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/alibaba/opensandbox/loadprobe/pkg/flag"
	"github.com/alibaba/opensandbox/loadprobe/pkg/log"
	"github.com/alibaba/opensandbox/loadprobe/pkg/monitor"
	"github.com/alibaba/opensandbox/loadprobe/pkg/web/model"
)

const minWatchInterval = 100 * time.Millisecond

// MetricController handles system metrics requests
type MetricController struct {
	*basicController
}

func NewMetricController(ctx *gin.Context) *MetricController {
	return &MetricController{basicController: newBasicController(ctx)}
}

// GetMetrics returns current host metrics, the latest runtime sample and
// dispatcher counters.
func (c *MetricController) GetMetrics() {
	metrics, err := c.readMetrics()
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error reading runtime metrics. %v", err),
		)
		return
	}

	c.RespondSuccess(metrics)
}

// GetRuntimeReport returns the latest monitor report as plain text.
func (c *MetricController) GetRuntimeReport() {
	if runtimeMonitor == nil {
		c.RespondError(http.StatusServiceUnavailable, model.ErrorCodeMonitorNotReady, "runtime monitor is not initialized")
		return
	}
	sample, ok := runtimeMonitor.Latest()
	if !ok {
		c.RespondError(http.StatusServiceUnavailable, model.ErrorCodeMonitorNotReady, "no runtime sample taken yet")
		return
	}
	c.RespondText(monitor.FormatReport(sample))
}

// WatchMetrics streams metrics as newline-delimited JSON events.
func (c *MetricController) WatchMetrics() {
	interval := c.watchInterval()
	c.setupSSEResponse()

	for {
		select {
		case <-c.ctx.Request.Context().Done():
			return
		case <-time.After(interval):
			func() {
				if flusher, ok := c.ctx.Writer.(http.Flusher); ok {
					defer flusher.Flush()
				}
				msg := c.metricsMessage()
				if _, err := c.ctx.Writer.Write(append(msg, '\n')); err != nil {
					log.Error("WatchMetrics write data %s error: %v", string(msg), err)
				}
			}()
		}
	}
}

func (c *MetricController) watchInterval() time.Duration {
	interval := flag.MetricsWatchInterval
	if ms := c.QueryInt64(c.ctx.Query("interval_ms"), 0); ms > 0 {
		interval = time.Duration(ms) * time.Millisecond
	}
	if interval < minWatchInterval {
		interval = minWatchInterval
	}
	return interval
}

// metricsMessage renders either the metrics or the read error as JSON.
func (c *MetricController) metricsMessage() []byte {
	metrics, err := c.readMetrics()
	if err != nil {
		msg, _ := json.Marshal(map[string]string{ //nolint:errchkjson
			"error": err.Error(),
		})
		return msg
	}
	msg, _ := json.Marshal(metrics) //nolint:errchkjson
	return msg
}

// readMetrics collects host CPU and memory plus the runtime view.
func (c *MetricController) readMetrics() (*model.Metrics, error) {
	metric := model.NewMetrics()

	metric.CpuCount = float64(runtime.GOMAXPROCS(-1))
	cpuPercent, err := cpu.Percent(0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get CPU percent: %w", err)
	}
	if len(cpuPercent) > 0 {
		metric.CpuUsedPct = cpuPercent[0]
	}

	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to get memory info: %w", err)
	}
	metric.MemTotalMiB = float64(vmStat.Total) / 1024 / 1024
	metric.MemUsedMiB = float64(vmStat.Used) / 1024 / 1024

	if runtimeMonitor != nil {
		sample, ok := runtimeMonitor.Latest()
		if !ok {
			sample = runtimeMonitor.Sample()
		}
		metric.Runtime = &sample
	}
	if dispatcher != nil {
		metric.Workload = dispatcher.Stats()
	}

	return metric, nil
}
