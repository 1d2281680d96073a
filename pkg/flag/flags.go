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

package flag

import "time"

var (
	// ServerPort controls the HTTP listener port.
	ServerPort int

	// ServerLogLevel controls the server log verbosity.
	ServerLogLevel int

	// ServerAccessToken guards API entrypoints when set.
	ServerAccessToken string

	// ConfigFile optionally points to a YAML file overriding the flags below.
	ConfigFile string

	// MonitorInterval is the period between two runtime reports.
	MonitorInterval time.Duration

	// MetricsWatchInterval is the push period of the streaming metrics endpoints.
	MetricsWatchInterval time.Duration

	// CPUIterations is the number of square roots each CPU task accumulates.
	CPUIterations int

	// IOTaskWait is how long each IO task stays blocked.
	IOTaskWait time.Duration

	// MaxLivePools caps concurrently live workload pools. Zero means unlimited.
	MaxLivePools int
)
