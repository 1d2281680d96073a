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

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alibaba/opensandbox/loadprobe/pkg/log"
	"github.com/alibaba/opensandbox/loadprobe/pkg/web/controller"
	"github.com/alibaba/opensandbox/loadprobe/pkg/web/model"
)

// NewRouter builds a Gin engine with all loadprobe routes.
func NewRouter(accessToken string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logMiddleware(), accessTokenMiddleware(accessToken))

	r.GET("/ping", controller.PingHandler)

	r.GET("/cpu", withWorkload(func(c *controller.WorkloadController) { c.RunCPU() }))
	r.GET("/io", withWorkload(func(c *controller.WorkloadController) { c.RunIO() }))
	r.POST("/workload", withWorkload(func(c *controller.WorkloadController) { c.RunWorkload() }))

	metric := r.Group("/metrics")
	{
		metric.GET("", withMetric(func(c *controller.MetricController) { c.GetMetrics() }))
		metric.GET("/report", withMetric(func(c *controller.MetricController) { c.GetRuntimeReport() }))
		metric.GET("/watch", withMetric(func(c *controller.MetricController) { c.WatchMetrics() }))
		metric.GET("/ws", withMetric(func(c *controller.MetricController) { c.WatchMetricsWS() }))
	}

	return r
}

func withWorkload(fn func(*controller.WorkloadController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewWorkloadController(ctx))
	}
}

func withMetric(fn func(*controller.MetricController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewMetricController(ctx))
	}
}

func accessTokenMiddleware(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" || ctx.Request.URL.Path == "/ping" {
			ctx.Next()
			return
		}

		requestedToken := ctx.GetHeader(model.ApiAccessTokenHeader)
		if requestedToken == "" || requestedToken != token {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, map[string]any{
				"error": "Unauthorized: invalid or missing header " + model.ApiAccessTokenHeader,
			})
			return
		}

		ctx.Next()
	}
}

func logMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		log.Info("Requested: %v - %v", ctx.Request.Method, ctx.Request.URL.String())
		ctx.Next()
	}
}
