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
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/alibaba/opensandbox/loadprobe/pkg/log"
	"github.com/alibaba/opensandbox/loadprobe/pkg/util/safego"
)

// IOPoolSize is both the worker count and the task count of every IO batch.
const IOPoolSize = 20

const (
	DefaultCPUIterations = 10_000_000
	DefaultIOTaskWait    = 5 * time.Second
)

// Config sizes the batches a Dispatcher launches.
type Config struct {
	// Processors reports the available processing units; it sizes CPU batches.
	Processors    func() int
	CPUIterations int
	IOTaskWait    time.Duration
	// MaxLivePools caps pools that have not finished yet. Zero means unlimited.
	MaxLivePools int
}

func DefaultConfig() Config {
	return Config{
		Processors:    availableProcessors,
		CPUIterations: DefaultCPUIterations,
		IOTaskWait:    DefaultIOTaskWait,
	}
}

// availableProcessors honors the container CPU quota once automaxprocs has
// adjusted GOMAXPROCS at startup.
func availableProcessors() int {
	return runtime.GOMAXPROCS(0)
}

// Batch describes one started workload batch.
type Batch struct {
	ID        string
	Kind      Kind
	Workers   int
	Tasks     int
	StartedAt time.Time

	pool *Pool
}

// Ack is the acknowledgement for the batch kind.
func (b *Batch) Ack() string {
	return b.Kind.Ack()
}

// Done is closed when every task of the batch has returned. Callers of the
// dispatch operations are not expected to wait on it.
func (b *Batch) Done() <-chan struct{} {
	return b.pool.Done()
}

// Stats is a point-in-time view of dispatcher counters.
type Stats struct {
	PoolsStarted   int64 `json:"pools_started"`
	PoolsLive      int64 `json:"pools_live"`
	PoolsRejected  int64 `json:"pools_rejected"`
	TasksSubmitted int64 `json:"tasks_submitted"`
	TasksCompleted int64 `json:"tasks_completed"`
}

// Dispatcher launches fire-and-forget workload batches, each on a new pool.
type Dispatcher struct {
	cfg     Config
	limiter *semaphore.Weighted

	poolsStarted   atomic.Int64
	poolsLive      atomic.Int64
	poolsRejected  atomic.Int64
	tasksSubmitted atomic.Int64
	tasksCompleted atomic.Int64
}

func NewDispatcher(cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.Processors == nil {
		cfg.Processors = def.Processors
	}
	if cfg.CPUIterations <= 0 {
		cfg.CPUIterations = def.CPUIterations
	}
	if cfg.IOTaskWait <= 0 {
		cfg.IOTaskWait = def.IOTaskWait
	}

	d := &Dispatcher{cfg: cfg}
	if cfg.MaxLivePools > 0 {
		d.limiter = semaphore.NewWeighted(int64(cfg.MaxLivePools))
	}
	return d
}

// Dispatch starts a batch of the given kind.
func (d *Dispatcher) Dispatch(kind Kind) (*Batch, error) {
	switch kind {
	case CPU:
		return d.DispatchCPU()
	case IO:
		return d.DispatchIO()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// DispatchCPU runs one square-root task per available processing unit on a
// pool of the same size.
func (d *Dispatcher) DispatchCPU() (*Batch, error) {
	n := d.cfg.Processors()
	return d.launch(CPU, n, CPUTask(d.cfg.CPUIterations))
}

// DispatchIO runs IOPoolSize blocking tasks on a pool of the same size.
func (d *Dispatcher) DispatchIO() (*Batch, error) {
	return d.launch(IO, IOPoolSize, IOTask(d.cfg.IOTaskWait))
}

// launch submits workers copies of task to a fresh pool and returns as soon
// as the pool stops accepting work.
func (d *Dispatcher) launch(kind Kind, workers int, task Task) (*Batch, error) {
	if d.limiter != nil && !d.limiter.TryAcquire(1) {
		d.poolsRejected.Add(1)
		log.Warn("%s batch rejected: %d pools still live", kind, d.poolsLive.Load())
		return nil, ErrTooManyPools
	}

	id := uuid.New().String()
	pool, err := NewPool(fmt.Sprintf("%s-%s", kind, id), workers)
	if err != nil {
		panic(fmt.Sprintf("failed to allocate %s pool: %v", kind, err))
	}
	d.poolsStarted.Add(1)
	d.poolsLive.Add(1)

	for i := 0; i < workers; i++ {
		if err := pool.Submit(task); err != nil {
			panic(fmt.Sprintf("failed to submit to %s: %v", pool.Name(), err))
		}
		d.tasksSubmitted.Add(1)
	}
	pool.Shutdown()

	batch := &Batch{
		ID:        id,
		Kind:      kind,
		Workers:   pool.Workers(),
		Tasks:     workers,
		StartedAt: time.Now(),
		pool:      pool,
	}
	safego.Go(func() { d.reap(batch) })

	log.Info("%s batch %s started: workers=%d tasks=%d", kind, id, workers, workers)
	return batch, nil
}

func (d *Dispatcher) reap(batch *Batch) {
	<-batch.Done()
	d.tasksCompleted.Add(batch.pool.Completed())
	d.poolsLive.Add(-1)
	if d.limiter != nil {
		d.limiter.Release(1)
	}
	log.Info("%s batch %s finished: tasks=%d elapsed=%v",
		batch.Kind, batch.ID, batch.pool.Completed(), time.Since(batch.StartedAt))
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		PoolsStarted:   d.poolsStarted.Load(),
		PoolsLive:      d.poolsLive.Load(),
		PoolsRejected:  d.poolsRejected.Load(),
		TasksSubmitted: d.tasksSubmitted.Load(),
		TasksCompleted: d.tasksCompleted.Load(),
	}
}
