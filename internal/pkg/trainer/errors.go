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

package trainer

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies a training-path failure.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindResourceAcquisition  Kind = "resource_acquisition"
	KindDataFormat           Kind = "data_format"
	KindComputeExhaustion    Kind = "compute_exhaustion"
	KindNumericalInstability Kind = "numerical_instability"
	KindUpload               Kind = "upload"
	KindCancelled            Kind = "cancelled"
	KindInternal             Kind = "internal"
)

// TrainError is a classified failure crossing the training boundary.
type TrainError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *TrainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *TrainError) Unwrap() error {
	return e.Err
}

// NewError builds a classified error.
func NewError(kind Kind, msg string, err error) *TrainError {
	return &TrainError{Kind: kind, Msg: msg, Err: err}
}

// Classify resolves an error to its failure kind and a caller-facing
// message with a remediation hint where one is known. Typed errors win;
// string sniffing is only a fallback for untyped faults crossing the
// boundary.
func Classify(err error) (Kind, string) {
	if err == nil {
		return KindInternal, "unknown failure"
	}

	var te *TrainError
	if errors.As(err, &te) {
		return te.Kind, hint(te.Kind, te.Error())
	}

	if errors.Is(err, context.Canceled) {
		return KindCancelled, "Job cancelled by caller"
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "out of memory"):
		return KindComputeExhaustion, hint(KindComputeExhaustion, msg)
	case strings.Contains(lower, "download"):
		return KindResourceAcquisition, hint(KindResourceAcquisition, msg)
	case strings.Contains(lower, "nan"):
		return KindNumericalInstability, hint(KindNumericalInstability, msg)
	}
	return KindInternal, msg
}

func hint(kind Kind, msg string) string {
	switch kind {
	case KindComputeExhaustion:
		return fmt.Sprintf("GPU Out of Memory: %s. Try reducing batch_size or rank.", msg)
	case KindResourceAcquisition:
		return fmt.Sprintf("Download failed: %s. Please check dataset URL and retry.", msg)
	case KindNumericalInstability:
		return fmt.Sprintf("Training instability (NaN): %s. Try reducing learning_rate.", msg)
	case KindDataFormat:
		return fmt.Sprintf("Invalid dataset: %s", msg)
	case KindCancelled:
		return "Job cancelled by caller"
	default:
		return msg
	}
}
