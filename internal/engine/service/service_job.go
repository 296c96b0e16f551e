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
	"errors"
	"sync"
	"time"

	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/internal/engine/repo"
	"github.com/tunerix/tunera/internal/pkg/export"
	"github.com/tunerix/tunera/internal/pkg/notify"
	"github.com/tunerix/tunera/internal/pkg/orchestrator"
	"github.com/tunerix/tunera/internal/pkg/store"
	"github.com/tunerix/tunera/internal/pkg/validate"
	"github.com/tunerix/tunera/pkg/log"
	"github.com/tunerix/tunera/pkg/metrics"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrDuplicateJobID  = errors.New("job_id already exists")
	ErrJobNotCancelled = errors.New("job is not running")
)

// SubmitAck acknowledges an accepted submission.
type SubmitAck struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// StatusDoc is the dashboard view of a job snapshot.
type StatusDoc struct {
	JobID        string             `json:"job_id"`
	Status       string             `json:"status"`
	Stage        string             `json:"stage"`
	Progress     float64            `json:"progress"`
	CurrentEpoch int                `json:"current_epoch"`
	CurrentStep  int                `json:"current_step"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

// EventPage is one page of a job's event history.
type EventPage struct {
	Events     []model.JobEvent `json:"events"`
	TotalCount int64            `json:"total_count"`
}

// JobService accepts submissions and runs each accepted job on its own
// goroutine; one orchestration run per job, cancellable by id.
type JobService struct {
	store     *store.Store
	jobRepo   repo.IJobRepository
	eventRepo repo.IEventRepository
	artifacts repo.IArtifactRepository
	orch      *orchestrator.Orchestrator
	notifier  *notify.Notifier
	collector *metrics.Metrics

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewJobService(s *store.Store, jobRepo repo.IJobRepository, eventRepo repo.IEventRepository,
	artifacts repo.IArtifactRepository, orch *orchestrator.Orchestrator, notifier *notify.Notifier,
	collector *metrics.Metrics) *JobService {
	return &JobService{
		store:     s,
		jobRepo:   jobRepo,
		eventRepo: eventRepo,
		artifacts: artifacts,
		orch:      orch,
		notifier:  notifier,
		collector: collector,
		cancels:   make(map[string]context.CancelFunc),
	}
}

// Submit validates the request, registers the job, and starts its
// orchestration run in the background. Validation failures surface
// before any job record exists.
func (js *JobService) Submit(req *validate.SubmitRequest) (*SubmitAck, error) {
	if ok, reason := req.Validate(); !ok {
		return nil, &validate.ValidationError{Reason: reason}
	}

	jobID := *req.JobID
	exists, err := js.jobRepo.Exists(jobID)
	if err != nil {
		log.Errorw("failed to check job existence", "jobId", jobID, "error", err)
		return nil, errors.New("failed to register job")
	}
	if exists {
		return nil, ErrDuplicateJobID
	}

	job := &model.Job{
		JobID:         jobID,
		DatasetSource: *req.DatasetSource,
		CallbackURI:   req.CallbackURI,
		Hyperparameters: model.Hyperparameters{
			BaseModel:    *req.Hyperparameters.BaseModel,
			LearningRate: *req.Hyperparameters.LearningRate,
			BatchSize:    *req.Hyperparameters.BatchSize,
			Epochs:       *req.Hyperparameters.Epochs,
			Rank:         *req.Hyperparameters.Rank,
			Alpha:        req.Hyperparameters.Alpha,
			Dropout:      req.Hyperparameters.Dropout,
		},
		GPUConfig: model.GPUConfig{
			Type:  *req.GPUConfig.Type,
			Count: *req.GPUConfig.Count,
		},
	}
	event, err := js.store.CreateJob(job)
	if err != nil {
		// A concurrent submission can slip past the pre-check; the unique
		// index settles the race.
		if errors.Is(err, store.ErrDuplicateJob) {
			return nil, ErrDuplicateJobID
		}
		log.Errorw("failed to create job", "jobId", jobID, "error", err)
		return nil, errors.New("failed to register job")
	}
	js.notifier.Notify(job.CallbackURI, event)

	if js.collector != nil {
		js.collector.JobsSubmitted.Inc()
	}

	ctx, cancel := context.WithCancel(context.Background())
	js.mu.Lock()
	js.cancels[jobID] = cancel
	js.mu.Unlock()

	go func() {
		defer js.release(jobID)
		if err := js.orch.Run(ctx, jobID); err != nil {
			log.Warnw("orchestration finished with error", "jobId", jobID, "error", err)
		}
	}()

	log.Infow("job submitted", "jobId", jobID)
	return &SubmitAck{JobID: jobID, Status: model.JobStatusInitializing}, nil
}

// Cancel signals the job's orchestration run to abort. The run itself
// records the terminal failed state with the cancelled classification.
func (js *JobService) Cancel(jobID string) error {
	js.mu.Lock()
	cancel, ok := js.cancels[jobID]
	js.mu.Unlock()
	if !ok {
		// Distinguish an unknown job from one that already finished.
		if _, err := js.store.Get(jobID); err != nil {
			return ErrJobNotFound
		}
		return ErrJobNotCancelled
	}
	cancel()
	log.Infow("job cancellation requested", "jobId", jobID)
	return nil
}

// Status returns the current snapshot.
func (js *JobService) Status(jobID string) (*StatusDoc, error) {
	job, err := js.store.Get(jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		log.Errorw("failed to get job", "jobId", jobID, "error", err)
		return nil, errors.New("failed to get job status")
	}
	return &StatusDoc{
		JobID:        job.JobID,
		Status:       job.Status,
		Stage:        job.Stage,
		Progress:     job.Progress,
		CurrentEpoch: job.CurrentEpoch,
		CurrentStep:  job.CurrentStep,
		Metrics:      job.Metrics,
		ErrorMessage: job.ErrorMessage,
	}, nil
}

// Events returns one page of the job's history, newest first.
func (js *JobService) Events(jobID string, q repo.EventQuery) (*EventPage, error) {
	if _, err := js.store.Get(jobID); err != nil {
		return nil, ErrJobNotFound
	}
	events, total, err := js.eventRepo.List(jobID, q)
	if err != nil {
		log.Errorw("failed to list events", "jobId", jobID, "error", err)
		return nil, errors.New("failed to list events")
	}
	return &EventPage{Events: events, TotalCount: total}, nil
}

// Export renders the full or type-filtered event history as a
// downloadable document.
func (js *JobService) Export(jobID, eventType, format string) (filename, contentType string, body []byte, err error) {
	if _, err := js.store.Get(jobID); err != nil {
		return "", "", nil, ErrJobNotFound
	}

	events, err := js.eventRepo.ListAll(jobID)
	if err != nil {
		log.Errorw("failed to load events for export", "jobId", jobID, "error", err)
		return "", "", nil, errors.New("failed to export events")
	}
	if eventType != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.EventType == eventType {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	body, contentType, err = export.Render(events, format)
	if err != nil {
		return "", "", nil, err
	}
	return export.Filename(jobID, format, time.Now()), contentType, body, nil
}

// Result returns the terminal document for a job.
func (js *JobService) Result(jobID string) (*orchestrator.Result, error) {
	job, err := js.store.Get(jobID)
	if err != nil {
		return nil, ErrJobNotFound
	}
	artifacts, err := js.artifacts.ListByJob(jobID)
	if err != nil {
		log.Errorw("failed to list artifacts", "jobId", jobID, "error", err)
		return nil, errors.New("failed to build job result")
	}
	return orchestrator.BuildResult(job, artifacts), nil
}

func (js *JobService) release(jobID string) {
	js.mu.Lock()
	if cancel, ok := js.cancels[jobID]; ok {
		cancel()
		delete(js.cancels, jobID)
	}
	js.mu.Unlock()
}
