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
	"errors"

	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/pkg/database"
	"gorm.io/gorm"
)

type IJobRepository interface {
	// Create inserts a new job snapshot
	Create(job *model.Job) error

	// Get returns the job by its external id, nil when absent
	Get(jobID string) (*model.Job, error)

	// Exists reports whether a job with the given id is already registered
	Exists(jobID string) (bool, error)
}

type JobRepo struct {
	database.Manager
}

func NewJobRepo(db database.Manager) IJobRepository {
	return &JobRepo{Manager: db}
}

func (r *JobRepo) Create(job *model.Job) error {
	return r.DB().Create(job).Error
}

func (r *JobRepo) Get(jobID string) (*model.Job, error) {
	var job model.Job
	err := r.DB().Where("job_id = ?", jobID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepo) Exists(jobID string) (bool, error) {
	var count int64
	err := r.DB().Model(&model.Job{}).Where("job_id = ?", jobID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
