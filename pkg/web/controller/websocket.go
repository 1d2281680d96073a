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
	"time"

	"github.com/gorilla/websocket"

	"github.com/alibaba/opensandbox/loadprobe/pkg/log"
	"github.com/alibaba/opensandbox/loadprobe/pkg/util/safego"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// WatchMetricsWS streams the same payload as WatchMetrics over a websocket.
func (c *MetricController) WatchMetricsWS() {
	interval := c.watchInterval()

	conn, err := upgrader.Upgrade(c.ctx.Writer, c.ctx.Request, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		log.Warn("WatchMetricsWS upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// the client never sends data; reading surfaces its close frame
	closed := make(chan struct{})
	safego.Go(func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := c.writeWSMetrics(conn); err != nil {
			log.Debug("WatchMetricsWS write error: %v", err)
			return
		}
		select {
		case <-closed:
			return
		case <-c.ctx.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *MetricController) writeWSMetrics(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, c.metricsMessage())
}
