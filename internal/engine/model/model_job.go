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

// Job is the live snapshot of a fine-tuning job.
type Job struct {
	BaseModel
	JobID           string             `gorm:"column:job_id;uniqueIndex" json:"jobId"`
	Status          string             `gorm:"column:status" json:"status"`
	Stage           string             `gorm:"column:stage" json:"stage"`
	Progress        float64            `gorm:"column:progress" json:"progress"`
	CurrentEpoch    int                `gorm:"column:current_epoch" json:"currentEpoch"`
	CurrentStep     int                `gorm:"column:current_step" json:"currentStep"`
	TotalSteps      int                `gorm:"column:total_steps" json:"totalSteps"`
	DatasetSource   string             `gorm:"column:dataset_source" json:"datasetSource"`
	Hyperparameters Hyperparameters    `gorm:"column:hyperparameters;serializer:json" json:"hyperparameters"`
	GPUConfig       GPUConfig          `gorm:"column:gpu_config;serializer:json" json:"gpuConfig"`
	Metrics         map[string]float64 `gorm:"column:metrics;serializer:json" json:"metrics"`
	CallbackURI     string             `gorm:"column:callback_uri" json:"callbackUri"`
	ErrorMessage    string             `gorm:"column:error_message" json:"errorMessage,omitempty"`
	StartedAt       *time.Time         `gorm:"column:started_at" json:"startedAt,omitempty"`
	FinishedAt      *time.Time         `gorm:"column:finished_at" json:"finishedAt,omitempty"`
}

func (Job) TableName() string {
	return "t_job"
}

// Hyperparameters is the accepted tuning configuration, persisted as JSON.
type Hyperparameters struct {
	BaseModel    string   `json:"base_model,omitempty"`
	LearningRate float64  `json:"learning_rate"`
	BatchSize    int      `json:"batch_size"`
	Epochs       int      `json:"epochs"`
	Rank         int      `json:"rank"`
	Alpha        *float64 `json:"alpha,omitempty"`
	Dropout      *float64 `json:"dropout,omitempty"`
}

// GPUConfig describes the requested accelerator allocation.
type GPUConfig struct {
	Type  string `json:"type,omitempty"`
	Count int    `json:"count,omitempty"`
}

const (
	JobStatusInitializing = "initializing"
	JobStatusRunning      = "running"
	JobStatusCompleted    = "completed"
	JobStatusFailed       = "failed"
)

const (
	StageInitializing = "initializing"
	StageDownloading  = "downloading"
	StagePreparing    = "preparing"
	StageLoadingModel = "loading_model"
	StageConfiguring  = "configuring"
	StageTraining     = "training"
	StageSaving       = "saving"
	StageUploading    = "uploading"
	StageCompleted    = "completed"
)

// TerminalStatus reports whether a status admits no further transitions.
func TerminalStatus(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}
