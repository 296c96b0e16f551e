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

package validate

import (
	"fmt"
	"strings"
)

// SubmitRequest is a fine-tuning job submission. Pointer fields let the
// validator distinguish an absent field from a zero value.
type SubmitRequest struct {
	JobID           *string          `json:"job_id"`
	DatasetSource   *string          `json:"dataset_source"`
	Hyperparameters *Hyperparameters `json:"hyperparameters"`
	GPUConfig       *GPUConfig       `json:"gpu_config"`
	CallbackURI     string           `json:"callback_uri,omitempty"`
}

type Hyperparameters struct {
	BaseModel    *string  `json:"base_model"`
	LearningRate *float64 `json:"learning_rate"`
	BatchSize    *int     `json:"batch_size"`
	Epochs       *int     `json:"epochs"`
	Rank         *int     `json:"rank"`
	Alpha        *float64 `json:"alpha,omitempty"`
	Dropout      *float64 `json:"dropout,omitempty"`
}

type GPUConfig struct {
	Type  *string `json:"type"`
	Count *int    `json:"count"`
}

// Validate checks the submission field by field and stops at the first
// violation. It returns ok plus a reason naming the failing field; it
// touches nothing outside the request.
func (r *SubmitRequest) Validate() (bool, string) {
	if r.JobID == nil || *r.JobID == "" {
		return false, "Missing required field: job_id"
	}
	if r.DatasetSource == nil || *r.DatasetSource == "" {
		return false, "Missing required field: dataset_source"
	}
	if r.Hyperparameters == nil {
		return false, "Missing required field: hyperparameters"
	}
	if r.GPUConfig == nil {
		return false, "Missing required field: gpu_config"
	}

	h := r.Hyperparameters
	if h.BaseModel == nil || *h.BaseModel == "" {
		return false, "Missing hyperparameter: base_model"
	}
	if h.LearningRate == nil {
		return false, "Missing hyperparameter: learning_rate"
	}
	if h.BatchSize == nil {
		return false, "Missing hyperparameter: batch_size"
	}
	if h.Epochs == nil {
		return false, "Missing hyperparameter: epochs"
	}
	if h.Rank == nil {
		return false, "Missing hyperparameter: rank"
	}

	if *h.LearningRate < 0.00001 || *h.LearningRate > 0.001 {
		return false, "learning_rate must be between 0.00001 and 0.001"
	}
	if *h.BatchSize < 1 || *h.BatchSize > 64 {
		return false, "batch_size must be between 1 and 64"
	}
	if *h.Epochs < 1 || *h.Epochs > 20 {
		return false, "epochs must be between 1 and 20"
	}
	if *h.Rank < 4 || *h.Rank > 128 {
		return false, "rank must be between 4 and 128"
	}

	g := r.GPUConfig
	if g.Type == nil || *g.Type == "" {
		return false, "Missing gpu_config.type"
	}
	if g.Count == nil {
		return false, "Missing gpu_config.count"
	}
	if *g.Count < 1 || *g.Count > 8 {
		return false, "count must be between 1 and 8"
	}

	if !strings.HasPrefix(*r.DatasetSource, "https://") {
		return false, "dataset_source must be a valid HTTPS URL"
	}

	return true, ""
}

// ValidationError wraps a rejection reason so callers can surface it
// unchanged to the submitter.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s", e.Reason)
}
