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

package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tunerix/tunera/internal/engine/config"
	"github.com/tunerix/tunera/internal/engine/repo"
	"github.com/tunerix/tunera/internal/engine/router"
	"github.com/tunerix/tunera/internal/engine/service"
	"github.com/tunerix/tunera/internal/pkg/artifact"
	"github.com/tunerix/tunera/internal/pkg/gpu"
	"github.com/tunerix/tunera/internal/pkg/notify"
	"github.com/tunerix/tunera/internal/pkg/orchestrator"
	"github.com/tunerix/tunera/internal/pkg/storage"
	"github.com/tunerix/tunera/internal/pkg/store"
	"github.com/tunerix/tunera/internal/pkg/trainer"
	"github.com/tunerix/tunera/pkg/database"
	"github.com/tunerix/tunera/pkg/log"
	"github.com/tunerix/tunera/pkg/metrics"
)

// App holds the assembled components of a running server.
type App struct {
	HttpApp   *fiber.App
	Refresher *artifact.Refresher
	AppConf   *config.AppConfig
	DB        database.Manager
}

// NewApp wires every component from configuration.
func NewApp(configFile string) (*App, func(), error) {
	appConf := config.NewConf(configFile)

	if err := log.Init(&appConf.Log); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	db, err := database.NewManager(appConf.Database)
	if err != nil {
		return nil, nil, err
	}

	s, err := store.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	st, err := storage.NewStorage(&appConf.Storage)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	collector := metrics.New()
	jobRepo := repo.NewJobRepo(db)
	eventRepo := repo.NewEventRepo(db)
	artifactRepo := repo.NewArtifactRepo(db)

	publisher := artifact.NewPublisher(s, st, artifactRepo)
	notifier := notify.NewNotifier(appConf.Notify)
	orch := orchestrator.New(appConf.Orchestrator, s,
		trainer.NewCommandTrainer(appConf.Trainer), publisher, notifier, gpu.NewNvidiaSMI(), collector)
	jobService := service.NewJobService(s, jobRepo, eventRepo, artifactRepo, orch, notifier, collector)

	rt := router.New(appConf, jobService, collector)
	refresher := artifact.NewRefresher(artifactRepo, st)

	app := &App{
		HttpApp:   rt.App(),
		Refresher: refresher,
		AppConf:   appConf,
		DB:        db,
	}

	cleanup := func() {
		refresher.Stop()
		if err := db.Close(); err != nil {
			log.Errorw("failed to close database", "error", err)
		}
		_ = log.Sync()
	}
	return app, cleanup, nil
}

// Run starts the server and blocks until an exit signal, then shuts
// down gracefully.
func Run(app *App, cleanup func()) error {
	defer cleanup()

	if err := app.Refresher.Start(app.AppConf.Refresh.Cron); err != nil {
		return fmt.Errorf("failed to start artifact refresher: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	addr := fmt.Sprintf("%s:%d", app.AppConf.Http.Host, app.AppConf.Http.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("HTTP listener started", "address", addr)
		return app.HttpApp.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(app.AppConf.Http.ShutdownTimeout)*time.Second)
		defer cancel()
		return app.HttpApp.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("Server shutdown complete")
	return nil
}

// Exit terminates the process after logging the startup failure.
func Exit(err error) {
	log.Errorw("startup failed", "error", err)
	os.Exit(1)
}
