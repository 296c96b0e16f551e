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

package gpu

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Prober samples device utilization. Implementations must be bounded in
// latency and must degrade to 0.0 on any fault instead of returning an
// error to the caller.
type Prober interface {
	Utilization(ctx context.Context) float64
}

const probeTimeout = 2 * time.Second

// NvidiaSMI probes the first visible device via nvidia-smi.
type NvidiaSMI struct{}

func NewNvidiaSMI() *NvidiaSMI {
	return &NvidiaSMI{}
}

func (p *NvidiaSMI) Utilization(ctx context.Context) float64 {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=utilization.gpu",
		"--format=csv,noheader,nounits").Output()
	if err != nil {
		return 0.0
	}
	return ParseUtilization(string(out))
}

// ParseUtilization reads the first line of nvidia-smi query output.
// Malformed output degrades to 0.0.
func ParseUtilization(out string) float64 {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil || v < 0 {
		return 0.0
	}
	return v
}

// Fixed is a Prober returning a constant value, for environments
// without accelerators and for tests.
type Fixed float64

func (f Fixed) Utilization(context.Context) float64 {
	return float64(f)
}
