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

package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/internal/engine/repo"
	"github.com/tunerix/tunera/internal/pkg/artifact"
	"github.com/tunerix/tunera/internal/pkg/gpu"
	"github.com/tunerix/tunera/internal/pkg/notify"
	"github.com/tunerix/tunera/internal/pkg/orchestrator"
	"github.com/tunerix/tunera/internal/pkg/store"
	"github.com/tunerix/tunera/internal/pkg/trainer"
	"github.com/tunerix/tunera/internal/pkg/validate"
	"github.com/tunerix/tunera/pkg/database"
)

type instantTrainer struct{}

func (instantTrainer) Train(ctx context.Context, spec trainer.Spec, reporter trainer.StepReporter) (*trainer.Result, error) {
	reporter.Report(trainer.StepInfo{CurrentStep: 1, TotalSteps: 1, CurrentEpoch: 1, Loss: 1.0})
	return &trainer.Result{FinalLoss: 1.0, StepsCompleted: 1, EpochsCompleted: 1, Duration: time.Millisecond}, nil
}

type nullStorage struct{}

func (nullStorage) Upload(context.Context, string, string) error { return nil }
func (nullStorage) PresignGet(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://storage.test/" + objectName, nil
}
func (nullStorage) Provider() string { return "fake" }

func newService(t *testing.T) *JobService {
	t.Helper()
	db, err := database.NewManager(database.Database{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "service_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := store.NewStore(db)
	require.NoError(t, err)

	artifacts := repo.NewArtifactRepo(db)
	pub := artifact.NewPublisher(s, nullStorage{}, artifacts)
	orch := orchestrator.New(orchestrator.Config{WorkDir: t.TempDir()}, s, instantTrainer{}, pub,
		notify.NewNotifier(notify.Config{}), gpu.Fixed(0), nil)
	orch.SetDownloader(func(_ context.Context, _, dest string) error {
		return os.WriteFile(dest, []byte(`{"messages": [{"role": "user", "content": "hi"}]}`+"\n"), 0o644)
	})

	return NewJobService(s, repo.NewJobRepo(db), repo.NewEventRepo(db), artifacts, orch,
		notify.NewNotifier(notify.Config{}), nil)
}

func submitRequest(jobID string) *validate.SubmitRequest {
	url := "https://datasets.example.com/" + jobID + ".jsonl"
	baseModel := "meta-llama/Llama-3.1-8B"
	lr := 2e-4
	batch, epochs, rank, count := 1, 1, 16, 1
	gpuType := "A100"
	return &validate.SubmitRequest{
		JobID:         &jobID,
		DatasetSource: &url,
		Hyperparameters: &validate.Hyperparameters{
			BaseModel:    &baseModel,
			LearningRate: &lr,
			BatchSize:    &batch,
			Epochs:       &epochs,
			Rank:         &rank,
		},
		GPUConfig: &validate.GPUConfig{Type: &gpuType, Count: &count},
	}
}

func waitForTerminal(t *testing.T, js *JobService, jobID string) *StatusDoc {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		doc, err := js.Status(jobID)
		require.NoError(t, err)
		if doc.Status == model.JobStatusCompleted || doc.Status == model.JobStatusFailed {
			return doc
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal status")
	return nil
}

func TestSubmitRunsJobToCompletion(t *testing.T) {
	js := newService(t)
	req := submitRequest("job-s1")

	ack, err := js.Submit(req)
	require.NoError(t, err)
	require.Equal(t, "job-s1", ack.JobID)
	require.Equal(t, model.JobStatusInitializing, ack.Status)

	doc := waitForTerminal(t, js, "job-s1")
	require.Equal(t, model.JobStatusCompleted, doc.Status)
	require.Equal(t, float64(100), doc.Progress)

	res, err := js.Result("job-s1")
	require.NoError(t, err)
	require.Equal(t, "success", res.Status)
	require.Equal(t, 16, res.ModelMetadata.AdapterRank)
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	js := newService(t)
	req := submitRequest("job-s2")
	req.Hyperparameters.Rank = nil

	_, err := js.Submit(req)
	var verr *validate.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Missing hyperparameter: rank", verr.Reason)

	// No record exists for a rejected submission.
	_, err = js.Status("job-s2")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestSubmitRejectsDuplicateJobID(t *testing.T) {
	js := newService(t)

	_, err := js.Submit(submitRequest("job-s3"))
	require.NoError(t, err)
	waitForTerminal(t, js, "job-s3")

	_, err = js.Submit(submitRequest("job-s3"))
	require.ErrorIs(t, err, ErrDuplicateJobID)
}

func TestEventsAndExport(t *testing.T) {
	js := newService(t)
	_, err := js.Submit(submitRequest("job-s4"))
	require.NoError(t, err)
	waitForTerminal(t, js, "job-s4")

	page, err := js.Events("job-s4", repo.EventQuery{PageSize: 100})
	require.NoError(t, err)
	require.NotEmpty(t, page.Events)
	require.GreaterOrEqual(t, page.TotalCount, int64(2))

	filtered, err := js.Events("job-s4", repo.EventQuery{EventType: model.EventTypeStatusChange, PageSize: 100})
	require.NoError(t, err)
	for _, e := range filtered.Events {
		require.Equal(t, model.EventTypeStatusChange, e.EventType)
	}

	filename, contentType, body, err := js.Export("job-s4", "", "json")
	require.NoError(t, err)
	require.Contains(t, filename, "job-s4-event-log-")
	require.Equal(t, "application/json", contentType)
	require.NotEmpty(t, body)
}

func TestCancelUnknownJob(t *testing.T) {
	js := newService(t)
	require.ErrorIs(t, js.Cancel("nope"), ErrJobNotFound)
}
