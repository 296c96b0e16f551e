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
	"time"

	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/pkg/database"
	"gorm.io/gorm/clause"
)

type IArtifactRepository interface {
	// Upsert inserts or refreshes the record for (job_id, filename)
	Upsert(artifact *model.Artifact) error

	// ListByJob returns all artifacts published for a job
	ListByJob(jobID string) ([]model.Artifact, error)

	// ListExpiringBefore returns artifacts whose download URL expires
	// before the given instant
	ListExpiringBefore(t time.Time) ([]model.Artifact, error)
}

type ArtifactRepo struct {
	database.Manager
}

func NewArtifactRepo(db database.Manager) IArtifactRepository {
	return &ArtifactRepo{Manager: db}
}

func (r *ArtifactRepo) Upsert(artifact *model.Artifact) error {
	return r.DB().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}, {Name: "filename"}},
		DoUpdates: clause.AssignmentColumns([]string{"storage_key", "url", "size_bytes", "expires_at", "updated_at"}),
	}).Create(artifact).Error
}

func (r *ArtifactRepo) ListByJob(jobID string) ([]model.Artifact, error) {
	var artifacts []model.Artifact
	err := r.DB().Where("job_id = ?", jobID).Order("filename ASC").Find(&artifacts).Error
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (r *ArtifactRepo) ListExpiringBefore(t time.Time) ([]model.Artifact, error) {
	var artifacts []model.Artifact
	err := r.DB().Where("expires_at < ?", t).Find(&artifacts).Error
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}
