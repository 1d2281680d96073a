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

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alibaba/opensandbox/loadprobe/pkg/log"
)

const (
	portEnv            = "LOADPROBE_PORT"
	accessTokenEnv     = "LOADPROBE_ACCESS_TOKEN"
	monitorIntervalEnv = "LOADPROBE_MONITOR_INTERVAL"
	maxLivePoolsEnv    = "LOADPROBE_MAX_LIVE_POOLS"
	configFileEnv      = "LOADPROBE_CONFIG"
)

// fileConfig mirrors the flags that may be set from a YAML file.
// Zero values leave the flag value untouched.
type fileConfig struct {
	Server struct {
		Port        int    `yaml:"port"`
		LogLevel    int    `yaml:"log_level"`
		AccessToken string `yaml:"access_token"`
	} `yaml:"server"`

	Monitor struct {
		Interval      time.Duration `yaml:"interval"`
		WatchInterval time.Duration `yaml:"watch_interval"`
	} `yaml:"monitor"`

	Workload struct {
		CPUIterations int           `yaml:"cpu_iterations"`
		IOTaskWait    time.Duration `yaml:"io_task_wait"`
		MaxLivePools  int           `yaml:"max_live_pools"`
	} `yaml:"workload"`
}

// InitFlags registers CLI flags and env overrides.
func InitFlags() {
	setDefaults()

	// Environment first, flags override below.
	if port := os.Getenv(portEnv); port != "" {
		v, err := strconv.Atoi(port)
		if err != nil {
			stdlog.Panicf("Invalid %s: %v", portEnv, err)
		}
		ServerPort = v
	}
	if token := os.Getenv(accessTokenEnv); token != "" {
		ServerAccessToken = token
	}
	if interval := os.Getenv(monitorIntervalEnv); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			stdlog.Panicf("Failed to parse monitor interval from env: %v", err)
		}
		MonitorInterval = d
	}
	if limit := os.Getenv(maxLivePoolsEnv); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			stdlog.Panicf("Invalid %s: %v", maxLivePoolsEnv, err)
		}
		MaxLivePools = v
	}
	ConfigFile = os.Getenv(configFileEnv)

	registerFlags(flag.CommandLine)

	// Parse flags - these will override environment variables if provided
	flag.Parse()

	if err := applyConfigFile(flag.CommandLine); err != nil {
		stdlog.Panicf("Failed to load config file %s: %v", ConfigFile, err)
	}

	log.Info("loadprobe port=%d monitor-interval=%v io-task-wait=%v max-live-pools=%d",
		ServerPort, MonitorInterval, IOTaskWait, MaxLivePools)
}

func registerFlags(fs *flag.FlagSet) {
	fs.IntVar(&ServerPort, "port", ServerPort, "Server listening port (default: 8080)")
	fs.IntVar(&ServerLogLevel, "log-level", ServerLogLevel, "Server log level (0=LevelEmergency, 1=LevelAlert, 2=LevelCritical, 3=LevelError, 4=LevelWarning, 5=LevelNotice, 6=LevelInformational, 7=LevelDebug, default: 6)")
	fs.StringVar(&ServerAccessToken, "access-token", ServerAccessToken, "Server access token for API authentication")
	fs.StringVar(&ConfigFile, "config", ConfigFile, "Optional YAML config file; its values override env, explicit flags override it")
	fs.DurationVar(&MonitorInterval, "monitor-interval", MonitorInterval, "Period between runtime reports (default: 5s)")
	fs.DurationVar(&MetricsWatchInterval, "watch-interval", MetricsWatchInterval, "Push period of streaming metrics endpoints (default: 1s)")
	fs.IntVar(&CPUIterations, "cpu-iterations", CPUIterations, "Square roots accumulated by each CPU task (default: 10000000)")
	fs.DurationVar(&IOTaskWait, "io-task-wait", IOTaskWait, "Blocking time of each IO task (default: 5s)")
	fs.IntVar(&MaxLivePools, "max-live-pools", MaxLivePools, "Cap on concurrently live workload pools, 0 means unlimited")
}

// applyConfigFile loads ConfigFile, then restores every flag set explicitly
// on fs. Precedence is defaults < env < file < flags.
func applyConfigFile(fs *flag.FlagSet) error {
	if ConfigFile == "" {
		return nil
	}

	explicit := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	if err := LoadFile(ConfigFile); err != nil {
		return err
	}
	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("restore flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults() {
	ServerPort = 8080
	ServerLogLevel = 6
	ServerAccessToken = ""
	ConfigFile = ""
	MonitorInterval = 5 * time.Second
	MetricsWatchInterval = time.Second
	CPUIterations = 10_000_000
	IOTaskWait = 5 * time.Second
	MaxLivePools = 0
}

// LoadFile applies the non-zero fields of a YAML config file.
func LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var c fileConfig
	if err := yaml.Unmarshal(b, &c); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	applyFileConfig(c)
	return nil
}

func applyFileConfig(c fileConfig) {
	if c.Server.Port != 0 {
		ServerPort = c.Server.Port
	}
	if c.Server.LogLevel != 0 {
		ServerLogLevel = c.Server.LogLevel
	}
	if c.Server.AccessToken != "" {
		ServerAccessToken = c.Server.AccessToken
	}
	if c.Monitor.Interval != 0 {
		MonitorInterval = c.Monitor.Interval
	}
	if c.Monitor.WatchInterval != 0 {
		MetricsWatchInterval = c.Monitor.WatchInterval
	}
	if c.Workload.CPUIterations != 0 {
		CPUIterations = c.Workload.CPUIterations
	}
	if c.Workload.IOTaskWait != 0 {
		IOTaskWait = c.Workload.IOTaskWait
	}
	if c.Workload.MaxLivePools != 0 {
		MaxLivePools = c.Workload.MaxLivePools
	}
}
