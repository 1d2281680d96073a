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

package workload

import (
	"context"
	"math"
	"time"

	"github.com/alibaba/opensandbox/loadprobe/pkg/log"
)

// Task is a best-effort unit of work. It has no error result: cancellation
// of ctx is ordinary completion.
type Task func(ctx context.Context)

// SqrtSum accumulates sqrt(j) for j in [0, iterations).
func SqrtSum(iterations int) float64 {
	var acc float64
	for j := 0; j < iterations; j++ {
		acc += math.Sqrt(float64(j))
	}
	return acc
}

// CPUTask never blocks and ignores ctx.
func CPUTask(iterations int) Task {
	return func(context.Context) {
		sum := SqrtSum(iterations)
		log.Debug("cpu task finished: iterations=%d sum=%.3f", iterations, sum)
	}
}

// IOTask parks the goroutine in one sleep for wait, so it stays in the
// runtime "sleep" state for the whole duration.
func IOTask(wait time.Duration) Task {
	return func(context.Context) {
		time.Sleep(wait)
	}
}
