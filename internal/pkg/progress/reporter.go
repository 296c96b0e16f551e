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
	"context"

	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/internal/pkg/gpu"
	"github.com/tunerix/tunera/internal/pkg/store"
	"github.com/tunerix/tunera/internal/pkg/trainer"
	"github.com/tunerix/tunera/pkg/log"
	"github.com/tunerix/tunera/pkg/metrics"
)

// Training occupies the progress band between these bounds; the stages
// flanking it own the endpoints.
const (
	floorTraining   = 25.0
	ceilingTraining = 95.0
)

const logEvery = 10

// Reporter receives step callbacks from inside the training computation
// and turns them into metrics_update events and snapshot updates. It
// never propagates a fault back across the training boundary: any
// telemetry failure degrades to a warning event and a log line.
type Reporter struct {
	jobID     string
	store     *store.Store
	prober    gpu.Prober
	collector *metrics.Metrics

	lastEpoch int
}

var _ trainer.StepReporter = (*Reporter)(nil)

func NewReporter(jobID string, s *store.Store, prober gpu.Prober, collector *metrics.Metrics) *Reporter {
	return &Reporter{jobID: jobID, store: s, prober: prober, collector: collector}
}

// Report handles one completed training step. Must not raise.
func (r *Reporter) Report(info trainer.StepInfo) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Warnw("progress report panicked", "jobId", r.jobID, "panic", rec)
		}
	}()

	progress := Compute(info.CurrentStep, info.TotalSteps)
	utilization := r.prober.Utilization(context.Background())

	err := r.store.RecordMetrics(r.jobID, info.CurrentEpoch, info.CurrentStep, progress, map[string]float64{
		"loss":            info.Loss,
		"learning_rate":   info.LearningRate,
		"gpu_utilization": utilization,
	})
	if err != nil {
		log.Warnw("metrics write failed", "jobId", r.jobID, "step", info.CurrentStep, "error", err)
		if _, aerr := r.store.Append(r.jobID, model.EventTypeWarning, "metrics write failed", map[string]any{
			"step":  info.CurrentStep,
			"error": err.Error(),
		}); aerr != nil {
			log.Warnw("warning event write failed", "jobId", r.jobID, "error", aerr)
		}
	}

	if r.collector != nil {
		r.collector.TrainingSteps.Inc()
	}

	if info.CurrentEpoch > r.lastEpoch {
		if r.lastEpoch > 0 {
			if _, err := r.store.Append(r.jobID, model.EventTypeCheckpoint, "epoch completed", map[string]any{
				"epoch": r.lastEpoch,
				"step":  info.CurrentStep,
				"loss":  info.Loss,
			}); err != nil {
				log.Warnw("checkpoint event write failed", "jobId", r.jobID, "error", err)
			}
		}
		r.lastEpoch = info.CurrentEpoch
	}

	if info.CurrentStep%logEvery == 0 {
		log.Infow("training progress", "jobId", r.jobID,
			"step", info.CurrentStep, "totalSteps", info.TotalSteps,
			"epoch", info.CurrentEpoch, "loss", info.Loss, "progress", progress)
	}
}

// Compute maps a step position into the training progress band,
// clamped to its bounds.
func Compute(currentStep, totalSteps int) float64 {
	if totalSteps <= 0 {
		return floorTraining
	}
	p := floorTraining + float64(currentStep)/float64(totalSteps)*(ceilingTraining-floorTraining)
	if p < floorTraining {
		return floorTraining
	}
	if p > ceilingTraining {
		return ceilingTraining
	}
	return p
}
