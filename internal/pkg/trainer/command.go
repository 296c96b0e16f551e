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
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tunerix/tunera/pkg/log"
)

// CommandConfig points at the external training runtime.
type CommandConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// CommandTrainer launches the training runtime as a subprocess and
// reads its telemetry protocol from stdout: one JSON document per line,
// either a step record or the final result record.
type CommandTrainer struct {
	cfg CommandConfig
}

func NewCommandTrainer(cfg CommandConfig) *CommandTrainer {
	return &CommandTrainer{cfg: cfg}
}

// stdout line shapes. A line carrying "event":"step" is step telemetry;
// "event":"result" closes the run. Anything else is passed through to
// the log.
type wireLine struct {
	Event        string  `json:"event"`
	CurrentStep  int     `json:"current_step"`
	TotalSteps   int     `json:"total_steps"`
	CurrentEpoch int     `json:"current_epoch"`
	Loss         float64 `json:"loss"`
	LearningRate float64 `json:"learning_rate"`
	FinalLoss    float64 `json:"final_loss"`
	Error        string  `json:"error"`
}

func (t *CommandTrainer) Train(ctx context.Context, spec Spec, reporter StepReporter) (*Result, error) {
	if t.cfg.Command == "" {
		return nil, NewError(KindInternal, "training command not configured", nil)
	}

	args := append([]string{}, t.cfg.Args...)
	args = append(args,
		"--job-id", spec.JobID,
		"--model", spec.ModelSource,
		"--dataset", spec.DatasetPath,
		"--output-dir", spec.OutputDir,
		"--learning-rate", strconv.FormatFloat(spec.LearningRate, 'g', -1, 64),
		"--batch-size", strconv.Itoa(spec.BatchSize),
		"--epochs", strconv.Itoa(spec.Epochs),
		"--rank", strconv.Itoa(spec.Rank),
	)
	if spec.Alpha > 0 {
		args = append(args, "--alpha", strconv.FormatFloat(spec.Alpha, 'g', -1, 64))
	}
	if spec.Dropout > 0 {
		args = append(args, "--dropout", strconv.FormatFloat(spec.Dropout, 'g', -1, 64))
	}

	cmd := exec.CommandContext(ctx, t.cfg.Command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, NewError(KindInternal, "open trainer stdout", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, NewError(KindInternal, "open trainer stderr", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, NewError(KindInternal, "start training runtime", err)
	}

	var stderrTail strings.Builder
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			if stderrTail.Len() < 8*1024 {
				stderrTail.WriteString(line)
				stderrTail.WriteByte('\n')
			}
			log.Debugw("trainer stderr", "jobId", spec.JobID, "line", line)
		}
	}()

	var (
		result   *Result
		lastStep StepInfo
	)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		var wl wireLine
		if err := sonic.Unmarshal(line, &wl); err != nil {
			log.Debugw("trainer stdout", "jobId", spec.JobID, "line", string(line))
			continue
		}
		switch wl.Event {
		case "step":
			info := StepInfo{
				CurrentStep:  wl.CurrentStep,
				TotalSteps:   wl.TotalSteps,
				CurrentEpoch: wl.CurrentEpoch,
				Loss:         wl.Loss,
				LearningRate: wl.LearningRate,
			}
			lastStep = info
			reporter.Report(info)
		case "result":
			if wl.Error != "" {
				_ = cmd.Wait()
				return nil, classifyRuntimeMessage(wl.Error)
			}
			result = &Result{
				FinalLoss:       wl.FinalLoss,
				StepsCompleted:  lastStep.CurrentStep,
				EpochsCompleted: lastStep.CurrentEpoch,
				Duration:        time.Since(start),
			}
		default:
			log.Debugw("trainer stdout", "jobId", spec.JobID, "line", string(line))
		}
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil, NewError(KindCancelled, "training aborted", ctx.Err())
	}
	if waitErr != nil {
		msg := strings.TrimSpace(stderrTail.String())
		if msg == "" {
			msg = waitErr.Error()
		}
		return nil, classifyRuntimeMessage(msg)
	}
	if result == nil {
		return nil, NewError(KindInternal, "training runtime exited without a result record", nil)
	}
	return result, nil
}

// classifyRuntimeMessage maps an untyped runtime failure message to a
// classified error by content.
func classifyRuntimeMessage(msg string) *TrainError {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "out of memory"):
		return NewError(KindComputeExhaustion, msg, nil)
	case strings.Contains(lower, "download"):
		return NewError(KindResourceAcquisition, msg, nil)
	case strings.Contains(lower, "nan"):
		return NewError(KindNumericalInstability, msg, nil)
	}
	return NewError(KindInternal, fmt.Sprintf("training runtime failed: %s", msg), nil)
}
