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

package progress

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/internal/engine/repo"
	"github.com/tunerix/tunera/internal/pkg/gpu"
	"github.com/tunerix/tunera/internal/pkg/store"
	"github.com/tunerix/tunera/internal/pkg/trainer"
	"github.com/tunerix/tunera/pkg/database"
)

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		step, total int
		want        float64
	}{
		{50, 200, 42.5},
		{0, 200, 25},
		{200, 200, 95},
		{300, 200, 95}, // overshoot clamps
		{10, 0, 25},    // unknown total stays at the floor
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Compute(tt.step, tt.total), "step=%d total=%d", tt.step, tt.total)
	}
}

func newRunningJob(t *testing.T, jobID string) (*store.Store, database.Manager) {
	t.Helper()
	db, err := database.NewManager(database.Database{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "progress_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := store.NewStore(db)
	require.NoError(t, err)

	_, err = s.CreateJob(&model.Job{JobID: jobID})
	require.NoError(t, err)
	_, err = s.Transition(jobID, model.JobStatusRunning, model.StageTraining, 25, "training started")
	require.NoError(t, err)
	return s, db
}

func TestReportUpdatesSnapshotAndEvents(t *testing.T) {
	s, db := newRunningJob(t, "job-p1")
	r := NewReporter("job-p1", s, gpu.Fixed(80), nil)

	r.Report(trainer.StepInfo{CurrentStep: 50, TotalSteps: 200, CurrentEpoch: 1, Loss: 1.3, LearningRate: 2e-4})

	job, err := s.Get("job-p1")
	require.NoError(t, err)
	require.Equal(t, 42.5, job.Progress)
	require.Equal(t, 50, job.CurrentStep)
	require.Equal(t, 1, job.CurrentEpoch)
	require.Equal(t, 1.3, job.Metrics["loss"])
	require.Equal(t, 80.0, job.Metrics["gpu_utilization"])

	events, _, err := repo.NewEventRepo(db).List("job-p1", repo.EventQuery{EventType: model.EventTypeMetricsUpdate})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestReportEmitsCheckpointOnEpochChange(t *testing.T) {
	s, db := newRunningJob(t, "job-p2")
	r := NewReporter("job-p2", s, gpu.Fixed(0), nil)

	r.Report(trainer.StepInfo{CurrentStep: 10, TotalSteps: 40, CurrentEpoch: 1, Loss: 2.0})
	r.Report(trainer.StepInfo{CurrentStep: 20, TotalSteps: 40, CurrentEpoch: 1, Loss: 1.8})
	r.Report(trainer.StepInfo{CurrentStep: 21, TotalSteps: 40, CurrentEpoch: 2, Loss: 1.7})

	events, _, err := repo.NewEventRepo(db).List("job-p2", repo.EventQuery{EventType: model.EventTypeCheckpoint})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "epoch completed", events[0].Summary)
}

func TestReportNeverPropagatesStoreFailure(t *testing.T) {
	s, _ := newRunningJob(t, "job-p3")

	// Finishing the job makes further metrics writes fail; Report must
	// swallow that instead of panicking into the training computation.
	_, err := s.Fail("job-p3", "boom", nil)
	require.NoError(t, err)

	r := NewReporter("job-p3", s, gpu.Fixed(0), nil)
	require.NotPanics(t, func() {
		r.Report(trainer.StepInfo{CurrentStep: 30, TotalSteps: 40, CurrentEpoch: 2})
	})
}
