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

package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/pkg/database"
	"gorm.io/gorm"
)

// ErrJobTerminal is returned when a caller tries to move or annotate a
// job that already reached completed or failed.
var ErrJobTerminal = errors.New("job is in a terminal status")

// ErrJobNotFound is returned when the referenced job does not exist.
var ErrJobNotFound = errors.New("job not found")

// ErrDuplicateJob is returned when a job with the same job_id already
// exists; the unique index is the authority, not a racy pre-check.
var ErrDuplicateJob = errors.New("job already exists")

// Store owns every write to the job snapshot and its event log. A status
// or stage change and the event describing it always land in one
// transaction, so readers never observe a snapshot without its history.
type Store struct {
	db database.Manager
}

// NewStore migrates the schema and returns the write handle.
func NewStore(db database.Manager) (*Store, error) {
	err := db.DB().AutoMigrate(&model.Job{}, &model.JobEvent{}, &model.Artifact{})
	if err != nil {
		return nil, errors.Wrap(err, "migrate job tables")
	}
	return &Store{db: db}, nil
}

// CreateJob registers an accepted submission in the initializing status
// with a status_change event in the same transaction.
func (s *Store) CreateJob(job *model.Job) (*model.JobEvent, error) {
	now := time.Now()
	job.Status = model.JobStatusInitializing
	job.Stage = model.StageInitializing
	job.Progress = 0
	job.StartedAt = &now

	event := newEvent(job.JobID, model.EventTypeStatusChange, "job accepted", map[string]any{
		"status":   job.Status,
		"stage":    job.Stage,
		"progress": job.Progress,
	})

	err := s.db.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateJob
		}
		return nil, errors.Wrap(err, "create job")
	}
	return event, nil
}

// Transition moves a job to a new status and stage, raising progress to
// at least floor, and appends the matching status_change event. The
// snapshot update and the event insert share one transaction. Progress
// never decreases; transitions out of a terminal status are refused.
func (s *Store) Transition(jobID, toStatus, toStage string, floor float64, summary string) (*model.JobEvent, error) {
	var event *model.JobEvent
	err := s.db.DB().Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(tx, jobID)
		if err != nil {
			return err
		}
		if model.TerminalStatus(job.Status) {
			return ErrJobTerminal
		}

		progress := job.Progress
		if floor > progress {
			progress = floor
		}

		updates := map[string]any{
			"status":   toStatus,
			"stage":    toStage,
			"progress": progress,
		}
		if model.TerminalStatus(toStatus) {
			updates["finished_at"] = time.Now()
		}
		if err := tx.Model(job).Updates(updates).Error; err != nil {
			return err
		}

		event = newEvent(jobID, model.EventTypeStatusChange, summary, map[string]any{
			"status":   toStatus,
			"stage":    toStage,
			"progress": progress,
		})
		return tx.Create(event).Error
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// RecordMetrics persists a mid-training measurement: snapshot progress,
// step counters and metric values plus a metrics_update event, in one
// transaction. Progress below the current snapshot is clamped to it.
func (s *Store) RecordMetrics(jobID string, epoch, step int, progress float64, metrics map[string]float64) error {
	return s.db.DB().Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(tx, jobID)
		if err != nil {
			return err
		}
		if model.TerminalStatus(job.Status) {
			return ErrJobTerminal
		}

		if progress < job.Progress {
			progress = job.Progress
		}
		merged := job.Metrics
		if merged == nil {
			merged = make(map[string]float64, len(metrics))
		}
		for k, v := range metrics {
			merged[k] = v
		}

		// Struct-based update so the json serializer runs for metrics; a
		// plain value map would hand gorm the raw Go map.
		updates := &model.Job{
			CurrentEpoch: epoch,
			CurrentStep:  step,
			Progress:     progress,
			Metrics:      merged,
		}
		err = tx.Model(job).
			Select("current_epoch", "current_step", "progress", "metrics").
			Updates(updates).Error
		if err != nil {
			return err
		}

		payload := map[string]any{
			"epoch":    epoch,
			"step":     step,
			"progress": progress,
		}
		for k, v := range metrics {
			payload[k] = v
		}
		event := newEvent(jobID, model.EventTypeMetricsUpdate, "training metrics", payload)
		return tx.Create(event).Error
	})
}

// SetPlan records the computed step budget for the training run.
func (s *Store) SetPlan(jobID string, totalSteps int) error {
	res := s.db.DB().Model(&model.Job{}).Where("job_id = ?", jobID).Update("total_steps", totalSteps)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Fail marks the job failed with a classified error message and appends
// the error event atomically.
func (s *Store) Fail(jobID, message string, payload map[string]any) (*model.JobEvent, error) {
	var event *model.JobEvent
	err := s.db.DB().Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(tx, jobID)
		if err != nil {
			return err
		}
		if model.TerminalStatus(job.Status) {
			return ErrJobTerminal
		}

		updates := map[string]any{
			"status":        model.JobStatusFailed,
			"error_message": message,
			"finished_at":   time.Now(),
		}
		if err := tx.Model(job).Updates(updates).Error; err != nil {
			return err
		}

		event = newEvent(jobID, model.EventTypeError, message, payload)
		return tx.Create(event).Error
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Append records an informational, warning or checkpoint event without
// touching the snapshot. Terminal jobs still accept these; the history
// of a finished job may gain annotations but its status cannot move.
func (s *Store) Append(jobID, eventType, summary string, payload map[string]any) (*model.JobEvent, error) {
	event := newEvent(jobID, eventType, summary, payload)
	if err := s.db.DB().Create(event).Error; err != nil {
		return nil, errors.Wrap(err, "append event")
	}
	return event, nil
}

// Get returns the current job snapshot.
func (s *Store) Get(jobID string) (*model.Job, error) {
	var job model.Job
	err := s.db.DB().Where("job_id = ?", jobID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func lockJob(tx *gorm.DB, jobID string) (*model.Job, error) {
	var job model.Job
	err := tx.Where("job_id = ?", jobID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func newEvent(jobID, eventType, summary string, payload map[string]any) *model.JobEvent {
	return &model.JobEvent{
		EventID:    uuid.NewString(),
		JobID:      jobID,
		EventType:  eventType,
		Summary:    summary,
		Payload:    payload,
		ReceivedAt: time.Now(),
	}
}
