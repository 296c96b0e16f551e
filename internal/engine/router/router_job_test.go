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
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/tunerix/tunera/internal/engine/config"
	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/internal/engine/repo"
	"github.com/tunerix/tunera/internal/engine/service"
	"github.com/tunerix/tunera/internal/pkg/artifact"
	"github.com/tunerix/tunera/internal/pkg/gpu"
	"github.com/tunerix/tunera/internal/pkg/notify"
	"github.com/tunerix/tunera/internal/pkg/orchestrator"
	"github.com/tunerix/tunera/internal/pkg/store"
	"github.com/tunerix/tunera/internal/pkg/trainer"
	"github.com/tunerix/tunera/pkg/database"
	tunerahttp "github.com/tunerix/tunera/pkg/http"
)

type quickTrainer struct{}

func (quickTrainer) Train(ctx context.Context, spec trainer.Spec, reporter trainer.StepReporter) (*trainer.Result, error) {
	reporter.Report(trainer.StepInfo{CurrentStep: 1, TotalSteps: 1, CurrentEpoch: 1, Loss: 0.9})
	return &trainer.Result{FinalLoss: 0.9, StepsCompleted: 1, EpochsCompleted: 1, Duration: time.Millisecond}, nil
}

type noStorage struct{}

func (noStorage) Upload(context.Context, string, string) error { return nil }
func (noStorage) PresignGet(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://storage.test/" + objectName, nil
}
func (noStorage) Provider() string { return "fake" }

func newTestApp(t *testing.T) (*fiber.App, *service.JobService) {
	t.Helper()
	db, err := database.NewManager(database.Database{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "router_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := store.NewStore(db)
	require.NoError(t, err)

	artifacts := repo.NewArtifactRepo(db)
	pub := artifact.NewPublisher(s, noStorage{}, artifacts)
	orch := orchestrator.New(orchestrator.Config{WorkDir: t.TempDir()}, s, quickTrainer{}, pub,
		notify.NewNotifier(notify.Config{}), gpu.Fixed(0), nil)
	orch.SetDownloader(func(_ context.Context, _, dest string) error {
		return os.WriteFile(dest, []byte(`{"messages": [{"role": "user", "content": "hi"}]}`+"\n"), 0o644)
	})
	js := service.NewJobService(s, repo.NewJobRepo(db), repo.NewEventRepo(db), artifacts, orch,
		notify.NewNotifier(notify.Config{}), nil)

	cfg := &config.AppConfig{}
	cfg.Http.SetDefaults()
	rt := New(cfg, js, nil)
	return rt.App(), js
}

const submitBody = `{
  "job_id": "%s",
  "dataset_source": "https://datasets.example.com/d.jsonl",
  "hyperparameters": {
    "base_model": "meta-llama/Llama-3.1-8B",
    "learning_rate": 0.0002,
    "batch_size": 1,
    "epochs": 1,
    "rank": 16
  },
  "gpu_config": {"type": "A100", "count": 1}
}`

func postJSON(t *testing.T, app *fiber.App, path, body string) *tunerahttp.Resp {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 10_000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope tunerahttp.Resp
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return &envelope
}

func getJSON(t *testing.T, app *fiber.App, path string) *tunerahttp.Resp {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), 10_000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope tunerahttp.Resp
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return &envelope
}

func waitTerminal(t *testing.T, js *service.JobService, jobID string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		doc, err := js.Status(jobID)
		require.NoError(t, err)
		if doc.Status == model.JobStatusCompleted || doc.Status == model.JobStatusFailed {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal status")
}

func TestSubmitAndQueryLifecycle(t *testing.T) {
	app, js := newTestApp(t)

	env := postJSON(t, app, "/api/v1/jobs/", strings.ReplaceAll(submitBody, "%s", "job-r1"))
	require.Equal(t, tunerahttp.Success.Code, env.Code)

	waitTerminal(t, js, "job-r1")

	env = getJSON(t, app, "/api/v1/jobs/job-r1/status")
	require.Equal(t, tunerahttp.Success.Code, env.Code)
	detail := env.Detail.(map[string]any)
	require.Equal(t, model.JobStatusCompleted, detail["status"])
	require.Equal(t, float64(100), detail["progress"])

	env = getJSON(t, app, "/api/v1/jobs/job-r1/events?pageSize=100")
	require.Equal(t, tunerahttp.Success.Code, env.Code)
	page := env.Detail.(map[string]any)
	require.NotEmpty(t, page["events"])

	env = getJSON(t, app, "/api/v1/jobs/job-r1/result")
	require.Equal(t, tunerahttp.Success.Code, env.Code)
	result := env.Detail.(map[string]any)
	require.Equal(t, "success", result["status"])
}

func TestSubmitValidationFailureReturnsReason(t *testing.T) {
	app, _ := newTestApp(t)

	body := strings.Replace(strings.ReplaceAll(submitBody, "%s", "job-r2"), `"rank": 16`, `"rank": 2`, 1)
	env := postJSON(t, app, "/api/v1/jobs/", body)
	require.Equal(t, tunerahttp.BadRequest.Code, env.Code)
	require.Equal(t, "rank must be between 4 and 128", env.Msg)
}

func TestUnknownJobReturnsNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	env := getJSON(t, app, "/api/v1/jobs/missing/status")
	require.Equal(t, tunerahttp.NotFound.Code, env.Code)
}

func TestExportSetsDownloadHeaders(t *testing.T) {
	app, js := newTestApp(t)

	env := postJSON(t, app, "/api/v1/jobs/", strings.ReplaceAll(submitBody, "%s", "job-r3"))
	require.Equal(t, tunerahttp.Success.Code, env.Code)
	waitTerminal(t, js, "job-r3")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/jobs/job-r3/events/export?format=csv", nil), 10_000)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), "job-r3-event-log-")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "event_id,job_id,event_type")
}
