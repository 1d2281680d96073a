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
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitPool(t *testing.T, p *Pool, timeout time.Duration) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(timeout):
		t.Fatalf("pool %s did not terminate within %v", p.Name(), timeout)
	}
}

func TestNewPoolRejectsInvalidSize(t *testing.T) {
	_, err := NewPool("empty", 0)
	assert.Error(t, err)

	_, err = NewPool("negative", -3)
	assert.Error(t, err)
}

func TestPoolRunsEverySubmittedTask(t *testing.T) {
	p, err := NewPool("count", 4)
	require.NoError(t, err)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(func(context.Context) { ran.Add(1) }))
	}
	p.Shutdown()
	waitPool(t, p, 2*time.Second)

	assert.EqualValues(t, 10, ran.Load())
	assert.EqualValues(t, 10, p.Completed())
	assert.Equal(t, 4, p.Workers())
}

func TestPoolRunsTasksConcurrently(t *testing.T) {
	const workers = 5
	p, err := NewPool("concurrent", workers)
	require.NoError(t, err)

	var inflight, peak atomic.Int32
	release := make(chan struct{})
	for i := 0; i < workers; i++ {
		require.NoError(t, p.Submit(func(context.Context) {
			cur := inflight.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			<-release
			inflight.Add(-1)
		}))
	}
	p.Shutdown()

	assert.Eventually(t, func() bool { return peak.Load() == workers }, 2*time.Second, 10*time.Millisecond)
	close(release)
	waitPool(t, p, 2*time.Second)
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	p, err := NewPool("closed", 1)
	require.NoError(t, err)

	p.Shutdown()
	p.Shutdown()

	err = p.Submit(func(context.Context) {})
	assert.True(t, errors.Is(err, ErrPoolShutdown))
	waitPool(t, p, time.Second)
}

func TestPoolSubmitNilTask(t *testing.T) {
	p, err := NewPool("nil", 1)
	require.NoError(t, err)
	defer p.Shutdown()

	assert.Error(t, p.Submit(nil))
}

func TestPoolSurvivesPanickingTask(t *testing.T) {
	p, err := NewPool("panic", 1)
	require.NoError(t, err)

	var ran atomic.Bool
	require.NoError(t, p.Submit(func(context.Context) { panic("boom") }))
	require.NoError(t, p.Submit(func(context.Context) { ran.Store(true) }))
	p.Shutdown()
	waitPool(t, p, 2*time.Second)

	assert.True(t, ran.Load(), "task after the panicking one should still run")
	assert.EqualValues(t, 2, p.Completed())
}

func TestPoolDrainsQueuedTasksAfterShutdown(t *testing.T) {
	p, err := NewPool("drain", 2)
	require.NoError(t, err)

	require.NoError(t, p.Submit(IOTask(100*time.Millisecond)))
	require.NoError(t, p.Submit(IOTask(100*time.Millisecond)))
	p.Shutdown()

	select {
	case <-p.Done():
		t.Fatalf("pool must not terminate while tasks are still sleeping")
	case <-time.After(20 * time.Millisecond):
	}

	waitPool(t, p, 2*time.Second)
	assert.EqualValues(t, 2, p.Completed())
}
