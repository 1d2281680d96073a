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
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alibaba/opensandbox/loadprobe/pkg/monitor"
	"github.com/alibaba/opensandbox/loadprobe/pkg/web/model"
	"github.com/alibaba/opensandbox/loadprobe/pkg/workload"
)

var (
	dispatcher     *workload.Dispatcher
	runtimeMonitor *monitor.Monitor
)

// InitWorkload wires the process-wide dispatcher and monitor into the handlers.
func InitWorkload(d *workload.Dispatcher, m *monitor.Monitor) {
	dispatcher = d
	runtimeMonitor = m
}

// WorkloadController triggers workload batches.
type WorkloadController struct {
	*basicController
}

func NewWorkloadController(ctx *gin.Context) *WorkloadController {
	return &WorkloadController{basicController: newBasicController(ctx)}
}

// RunCPU starts a CPU-bound batch and acknowledges without waiting for it.
func (c *WorkloadController) RunCPU() {
	c.trigger(workload.CPU)
}

// RunIO starts an IO-bound batch and acknowledges without waiting for it.
func (c *WorkloadController) RunIO() {
	c.trigger(workload.IO)
}

// RunWorkload starts the batch named in the JSON body.
func (c *WorkloadController) RunWorkload() {
	var request model.WorkloadRequest
	if err := c.bindJSON(&request); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("error parsing request, MAYBE invalid body format. %v", err),
		)
		return
	}
	if err := request.Validate(); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("invalid request, validation error %v", err),
		)
		return
	}

	kind, err := workload.ParseKind(request.Kind)
	if err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeUnknownWorkload, err.Error())
		return
	}

	batch, ok := c.dispatch(kind)
	if !ok {
		return
	}
	c.RespondSuccess(model.WorkloadResponse{
		BatchID: batch.ID,
		Kind:    string(batch.Kind),
		Workers: batch.Workers,
		Tasks:   batch.Tasks,
		Message: batch.Ack(),
	})
}

func (c *WorkloadController) trigger(kind workload.Kind) {
	batch, ok := c.dispatch(kind)
	if !ok {
		return
	}
	c.RespondText(batch.Ack())
}

func (c *WorkloadController) dispatch(kind workload.Kind) (*workload.Batch, bool) {
	if dispatcher == nil {
		c.RespondError(http.StatusInternalServerError, model.ErrorCodeRuntimeError, "workload dispatcher is not initialized")
		return nil, false
	}

	batch, err := dispatcher.Dispatch(kind)
	switch {
	case err == nil:
	case errors.Is(err, workload.ErrTooManyPools):
		c.RespondError(http.StatusTooManyRequests, model.ErrorCodeTooManyPools, err.Error())
		return nil, false
	case errors.Is(err, workload.ErrUnknownKind):
		c.RespondError(http.StatusBadRequest, model.ErrorCodeUnknownWorkload, err.Error())
		return nil, false
	default:
		c.RespondError(http.StatusInternalServerError, model.ErrorCodeRuntimeError, err.Error())
		return nil, false
	}

	c.ctx.Header(model.BatchIDHeader, batch.ID)
	return batch, true
}
