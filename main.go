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

package main

import (
	"context"
	"fmt"

	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/alibaba/opensandbox/loadprobe/pkg/flag"
	"github.com/alibaba/opensandbox/loadprobe/pkg/log"
	"github.com/alibaba/opensandbox/loadprobe/pkg/monitor"
	_ "github.com/alibaba/opensandbox/loadprobe/pkg/util/safego"
	"github.com/alibaba/opensandbox/loadprobe/pkg/web"
	"github.com/alibaba/opensandbox/loadprobe/pkg/web/controller"
	"github.com/alibaba/opensandbox/loadprobe/pkg/workload"
)

// main starts the runtime monitor and serves the workload triggers.
func main() {
	flag.InitFlags()

	log.SetLevel(flag.ServerLogLevel)
	defer log.Sync()

	dispatcher := workload.NewDispatcher(workload.Config{
		CPUIterations: flag.CPUIterations,
		IOTaskWait:    flag.IOTaskWait,
		MaxLivePools:  flag.MaxLivePools,
	})

	// runs for the lifetime of the process; only a server exit stops it
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	runtimeMonitor := monitor.New(monitor.Config{Interval: flag.MonitorInterval})
	runtimeMonitor.Start(monitorCtx)

	controller.InitWorkload(dispatcher, runtimeMonitor)
	engine := web.NewRouter(flag.ServerAccessToken)
	addr := fmt.Sprintf(":%d", flag.ServerPort)
	log.Info("loadprobe listening on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Error("failed to start loadprobe server: %v", err)
	}

	stopMonitor()
	<-runtimeMonitor.Done()
}
