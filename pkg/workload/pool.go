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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/alibaba/opensandbox/loadprobe/pkg/util/safego"
)

var ErrPoolShutdown = errors.New("pool is shut down")

// Pool is a fixed set of worker goroutines draining one task queue.
//
// The queue holds as many tasks as there are workers; Submit blocks once it
// is full until a worker picks a task up. After Shutdown no task is
// accepted, queued tasks still run, and Done is closed once the last worker
// returns.
type Pool struct {
	name    string
	workers int

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	queue  chan Task

	wg   sync.WaitGroup
	done chan struct{}

	completed atomic.Int64
}

// NewPool starts workers goroutines right away.
func NewPool(name string, workers int) (*Pool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("pool %s: invalid worker count %d", name, workers)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		name:    name,
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		queue:   make(chan Task, workers),
		done:    make(chan struct{}),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		safego.Go(func() {
			defer p.wg.Done()
			p.work()
		})
	}
	safego.Go(func() {
		p.wg.Wait()
		p.cancel()
		close(p.done)
	})
	return p, nil
}

func (p *Pool) work() {
	for task := range p.queue {
		safego.Run(func() { task(p.ctx) })
		p.completed.Add(1)
	}
}

// Submit enqueues task.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return fmt.Errorf("pool %s: nil task", p.name)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolShutdown
	}
	p.queue <- task
	return nil
}

// Shutdown stops accepting tasks without waiting for queued ones.
// It is safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.queue)
}

// Done is closed when every worker has exited.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

func (p *Pool) Name() string {
	return p.name
}

func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) Completed() int64 {
	return p.completed.Load()
}
