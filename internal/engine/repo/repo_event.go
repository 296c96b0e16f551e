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

package repo

import (
	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/pkg/database"
)

// EventQuery narrows and pages an event listing. Zero values mean
// no filter and default pagination.
type EventQuery struct {
	EventType string
	Keyword   string
	PageSize  int
	PageNo    int
}

type IEventRepository interface {
	// List returns events for a job, newest first, with the total count
	// before pagination
	List(jobID string, q EventQuery) ([]model.JobEvent, int64, error)

	// ListAll returns every event for a job, newest first
	ListAll(jobID string) ([]model.JobEvent, error)
}

type EventRepo struct {
	database.Manager
}

func NewEventRepo(db database.Manager) IEventRepository {
	return &EventRepo{Manager: db}
}

func (r *EventRepo) List(jobID string, q EventQuery) ([]model.JobEvent, int64, error) {
	if q.PageSize <= 0 {
		q.PageSize = 50
	}
	if q.PageNo <= 0 {
		q.PageNo = 1
	}

	tx := r.DB().Model(&model.JobEvent{}).Where("job_id = ?", jobID)
	if q.EventType != "" {
		tx = tx.Where("event_type = ?", q.EventType)
	}
	if q.Keyword != "" {
		tx = tx.Where("message_summary LIKE ?", "%"+q.Keyword+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []model.JobEvent
	err := tx.Order("received_at DESC, id DESC").
		Limit(q.PageSize).
		Offset((q.PageNo - 1) * q.PageSize).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *EventRepo) ListAll(jobID string) ([]model.JobEvent, error) {
	var events []model.JobEvent
	err := r.DB().Where("job_id = ?", jobID).
		Order("received_at DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
