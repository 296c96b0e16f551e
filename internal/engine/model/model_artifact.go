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

package model

import (
	"time"
)

// Artifact records one published output file for a job.
type Artifact struct {
	BaseModel
	JobID      string    `gorm:"column:job_id;uniqueIndex:uk_job_filename" json:"jobId"`
	Filename   string    `gorm:"column:filename;uniqueIndex:uk_job_filename" json:"filename"`
	StorageKey string    `gorm:"column:storage_key" json:"storageKey"`
	URL        string    `gorm:"column:url" json:"url"`
	SizeBytes  int64     `gorm:"column:size_bytes" json:"sizeBytes"`
	ExpiresAt  time.Time `gorm:"column:expires_at" json:"expiresAt"`
}

func (Artifact) TableName() string {
	return "t_artifact"
}
