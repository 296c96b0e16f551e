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

// Package trainer defines the boundary to the external training
// computation. The orchestrator hands a Spec across it and receives
// step callbacks plus a final Result; everything behind the boundary
// is opaque.
package trainer

import (
	"context"
	"time"
)

// StepInfo is one completed training step as reported from inside the
// training computation.
type StepInfo struct {
	CurrentStep  int     `json:"current_step"`
	TotalSteps   int     `json:"total_steps"`
	CurrentEpoch int     `json:"current_epoch"`
	Loss         float64 `json:"loss"`
	LearningRate float64 `json:"learning_rate"`
}

// StepReporter receives step telemetry from within the training
// computation. Implementations must not raise: a telemetry fault may be
// logged but must never abort training.
type StepReporter interface {
	Report(info StepInfo)
}

// Spec is everything the training computation needs to run one job.
type Spec struct {
	JobID        string
	ModelSource  string
	DatasetPath  string
	OutputDir    string
	LearningRate float64
	BatchSize    int
	Epochs       int
	Rank         int
	Alpha        float64
	Dropout      float64
	TotalSteps   int
}

// Result is the summary returned when training finishes cleanly.
type Result struct {
	FinalLoss       float64
	StepsCompleted  int
	EpochsCompleted int
	Duration        time.Duration
}

// Trainer runs one training job to completion, delivering step
// callbacks to the reporter as they happen. Blocking; honors ctx
// cancellation.
type Trainer interface {
	Train(ctx context.Context, spec Spec, reporter StepReporter) (*Result, error)
}
