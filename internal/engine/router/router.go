// Copyright 2026 Tunera Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tunerix/tunera/internal/engine/config"
	"github.com/tunerix/tunera/internal/engine/service"
	"github.com/tunerix/tunera/pkg/http/middleware"
	"github.com/tunerix/tunera/pkg/metrics"
)

// Router wires the HTTP surface to the job service.
type Router struct {
	cfg        *config.AppConfig
	jobService *service.JobService
	collector  *metrics.Metrics
}

func New(cfg *config.AppConfig, jobService *service.JobService, collector *metrics.Metrics) *Router {
	return &Router{cfg: cfg, jobService: jobService, collector: collector}
}

// App builds the fiber application with all routes registered.
func (rt *Router) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(rt.cfg.Http.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(rt.cfg.Http.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(rt.cfg.Http.IdleTimeout) * time.Second,
		BodyLimit:    rt.cfg.Http.BodyLimit,
	})

	app.Use(recover.New())
	if rt.cfg.Http.AccessLog {
		app.Use(middleware.AccessLogMiddleware())
	}

	if rt.cfg.Metrics.Enabled && rt.collector != nil {
		app.Get(rt.cfg.Metrics.Path, adaptor.HTTPHandler(rt.collector.Handler()))
	}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	v1 := app.Group("/api/v1")
	rt.jobRouter(v1)
	return app
}

// Addr is the listen address from configuration.
func (rt *Router) Addr() string {
	return fmt.Sprintf("%s:%d", rt.cfg.Http.Host, rt.cfg.Http.Port)
}
