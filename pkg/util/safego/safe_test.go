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

package safego

import (
	"testing"
	"time"
)

func TestRunSwallowsPanic(t *testing.T) {
	ran := false
	Run(func() {
		ran = true
		panic("boom")
	})
	if !ran {
		t.Fatalf("expected f to run")
	}
}

func TestGoRecoversOnOwnGoroutine(t *testing.T) {
	done := make(chan struct{})
	Go(func() {
		defer close(done)
		panic(struct{ reason string }{"boom"})
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("goroutine did not finish")
	}
}
