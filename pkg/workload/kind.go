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
	"errors"
	"fmt"
	"strings"
)

// Kind selects the shape of a workload batch.
type Kind string

const (
	CPU Kind = "cpu"
	IO  Kind = "io"
)

const (
	CPUAck = "CPU-bound task started!"
	IOAck  = "IO-bound task started!"
)

var (
	ErrUnknownKind  = errors.New("unknown workload kind")
	ErrTooManyPools = errors.New("too many live workload pools")
)

// ParseKind is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case CPU:
		return CPU, nil
	case IO:
		return IO, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Ack is the acknowledgement returned once a batch of this kind is started.
func (k Kind) Ack() string {
	switch k {
	case CPU:
		return CPUAck
	case IO:
		return IOAck
	default:
		return ""
	}
}
