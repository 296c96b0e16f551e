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
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestClassifyTypedErrorWins(t *testing.T) {
	err := NewError(KindDataFormat, "no valid records in dataset", nil)
	kind, msg := Classify(err)
	require.Equal(t, KindDataFormat, kind)
	require.Contains(t, msg, "no valid records in dataset")
}

func TestClassifyWrappedTypedError(t *testing.T) {
	inner := NewError(KindComputeExhaustion, "CUDA error", nil)
	kind, msg := Classify(errors.Wrap(inner, "training stage"))
	require.Equal(t, KindComputeExhaustion, kind)
	require.Contains(t, msg, "Try reducing batch_size or rank")
}

func TestClassifyContextCancelled(t *testing.T) {
	kind, msg := Classify(context.Canceled)
	require.Equal(t, KindCancelled, kind)
	require.Equal(t, "Job cancelled by caller", msg)
}

func TestClassifyStringSniffingFallback(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
		hint string
	}{
		{fmt.Errorf("CUDA Out of Memory on device 0"), KindComputeExhaustion, "Try reducing batch_size or rank"},
		{fmt.Errorf("dataset Download timed out"), KindResourceAcquisition, "Please check dataset URL and retry"},
		{fmt.Errorf("loss became NaN at step 120"), KindNumericalInstability, "Try reducing learning_rate"},
	}
	for _, tt := range tests {
		kind, msg := Classify(tt.err)
		require.Equal(t, tt.kind, kind)
		require.Contains(t, msg, tt.hint)
	}
}

func TestClassifyUnknownIsInternal(t *testing.T) {
	kind, msg := Classify(fmt.Errorf("segfault in kernel"))
	require.Equal(t, KindInternal, kind)
	require.Equal(t, "segfault in kernel", msg)
}
