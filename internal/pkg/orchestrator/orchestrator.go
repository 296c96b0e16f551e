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

// Package orchestrator drives one job through the fixed stage sequence,
// writing every transition to the store and mirroring it to the
// caller's webhook.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/internal/pkg/artifact"
	"github.com/tunerix/tunera/internal/pkg/dataset"
	"github.com/tunerix/tunera/internal/pkg/gpu"
	"github.com/tunerix/tunera/internal/pkg/notify"
	"github.com/tunerix/tunera/internal/pkg/progress"
	"github.com/tunerix/tunera/internal/pkg/store"
	"github.com/tunerix/tunera/internal/pkg/trainer"
	"github.com/tunerix/tunera/pkg/log"
	"github.com/tunerix/tunera/pkg/metrics"
)

// Config tunes one orchestration run.
type Config struct {
	WorkDir   string `mapstructure:"workDir"`   // base directory for job-scoped working areas
	ModelPath string `mapstructure:"modelPath"` // optional local model override
}

// Orchestrator owns the stage state machine. One Run per job; stages
// within a run are strictly sequential.
type Orchestrator struct {
	cfg       Config
	store     *store.Store
	trainer   trainer.Trainer
	publisher *artifact.Publisher
	notifier  *notify.Notifier
	prober    gpu.Prober
	collector *metrics.Metrics
	download  func(ctx context.Context, url, dest string) error
}

func New(cfg Config, s *store.Store, t trainer.Trainer, p *artifact.Publisher, n *notify.Notifier, prober gpu.Prober, collector *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		store:     s,
		trainer:   t,
		publisher: p,
		notifier:  n,
		prober:    prober,
		collector: collector,
		download:  dataset.Download,
	}
}

// SetDownloader swaps the dataset acquisition step, for deployments
// where the dataset is staged by other means.
func (o *Orchestrator) SetDownloader(fn func(ctx context.Context, url, dest string) error) {
	if fn != nil {
		o.download = fn
	}
}

// run carries the working state threaded through a job's stages.
type run struct {
	job         *model.Job
	workDir     string
	datasetPath string
	outputDir   string
	modelSource string
	records     int
	totalSteps  int
	result      *trainer.Result
	archivePath string
	modelFiles  map[string]string
}

// stage pairs a status/stage transition with the work performed after
// entering it. The floor is the progress written on entry.
type stage struct {
	status string
	name   string
	floor  float64
	work   func(ctx context.Context, r *run) error
}

func (o *Orchestrator) stages() []stage {
	return []stage{
		{model.JobStatusRunning, model.StageDownloading, 5, o.stageDownload},
		{model.JobStatusRunning, model.StagePreparing, 10, o.stagePrepare},
		{model.JobStatusRunning, model.StageLoadingModel, 15, o.stageLoadModel},
		{model.JobStatusRunning, model.StageConfiguring, 20, o.stageConfigure},
		{model.JobStatusRunning, model.StageTraining, 25, o.stageTrain},
		{model.JobStatusRunning, model.StageSaving, 95, o.stageSave},
		{model.JobStatusRunning, model.StageUploading, 97, o.stageUpload},
	}
}

// Run drives the job through every stage in order. On any stage
// failure the error is classified, a terminal failure is recorded, and
// no further stages execute. The job-scoped working area is released on
// every exit path.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	job, err := o.store.Get(jobID)
	if err != nil {
		return err
	}

	r := &run{job: job}

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorw("orchestration panicked", "jobId", jobID, "panic", rec)
			o.fail(jobID, job.CallbackURI, trainer.NewError(trainer.KindInternal, fmt.Sprintf("unexpected fault: %v", rec), nil))
		}
		if r.workDir != "" {
			if err := os.RemoveAll(r.workDir); err != nil {
				log.Warnw("working area cleanup failed", "jobId", jobID, "workDir", r.workDir, "error", err)
			}
		}
	}()

	r.workDir, err = os.MkdirTemp(o.cfg.WorkDir, "tunera-"+jobID+"-")
	if err != nil {
		ferr := trainer.NewError(trainer.KindInternal, "allocate working area", err)
		o.fail(jobID, job.CallbackURI, ferr)
		return ferr
	}
	r.datasetPath = filepath.Join(r.workDir, "dataset.jsonl")
	r.outputDir = filepath.Join(r.workDir, "output")
	if err := os.Mkdir(r.outputDir, 0o755); err != nil {
		ferr := trainer.NewError(trainer.KindInternal, "allocate output directory", err)
		o.fail(jobID, job.CallbackURI, ferr)
		return ferr
	}

	for _, st := range o.stages() {
		if ctx.Err() != nil {
			o.fail(jobID, job.CallbackURI, trainer.NewError(trainer.KindCancelled, "job cancelled", ctx.Err()))
			return ctx.Err()
		}

		event, err := o.store.Transition(jobID, st.status, st.name, st.floor, "stage "+st.name)
		if err != nil {
			return err
		}
		o.notifier.Notify(job.CallbackURI, event)

		if err := st.work(ctx, r); err != nil {
			o.fail(jobID, job.CallbackURI, err)
			return err
		}
	}

	return o.complete(jobID, r)
}

func (o *Orchestrator) stageDownload(ctx context.Context, r *run) error {
	return o.download(ctx, r.job.DatasetSource, r.datasetPath)
}

func (o *Orchestrator) stagePrepare(_ context.Context, r *run) error {
	sum, err := dataset.Inspect(r.datasetPath)
	if err != nil {
		return err
	}
	r.records = sum.Total()
	return nil
}

// stageLoadModel resolves where the training runtime loads weights
// from: a locally provisioned model path wins over the hub identifier
// from the submission.
func (o *Orchestrator) stageLoadModel(_ context.Context, r *run) error {
	if o.cfg.ModelPath != "" {
		if _, err := os.Stat(o.cfg.ModelPath); err == nil {
			r.modelSource = o.cfg.ModelPath
			log.Infow("using local model", "jobId", r.job.JobID, "path", r.modelSource)
			return nil
		}
		log.Warnw("configured model path missing, falling back to base model", "jobId", r.job.JobID, "path", o.cfg.ModelPath)
	}
	r.modelSource = r.job.Hyperparameters.BaseModel
	if r.modelSource == "" {
		return trainer.NewError(trainer.KindInternal, "no model source available", nil)
	}
	return nil
}

func (o *Orchestrator) stageConfigure(_ context.Context, r *run) error {
	batch := r.job.Hyperparameters.BatchSize
	if batch <= 0 {
		batch = 1
	}
	stepsPerEpoch := (r.records + batch - 1) / batch
	if stepsPerEpoch < 1 {
		stepsPerEpoch = 1
	}
	r.totalSteps = stepsPerEpoch * r.job.Hyperparameters.Epochs

	if err := o.store.SetPlan(r.job.JobID, r.totalSteps); err != nil {
		return trainer.NewError(trainer.KindInternal, "record training plan", err)
	}
	log.Infow("training configured", "jobId", r.job.JobID,
		"records", r.records, "stepsPerEpoch", stepsPerEpoch, "totalSteps", r.totalSteps)
	return nil
}

func (o *Orchestrator) stageTrain(ctx context.Context, r *run) error {
	spec := trainer.Spec{
		JobID:        r.job.JobID,
		ModelSource:  r.modelSource,
		DatasetPath:  r.datasetPath,
		OutputDir:    r.outputDir,
		LearningRate: r.job.Hyperparameters.LearningRate,
		BatchSize:    r.job.Hyperparameters.BatchSize,
		Epochs:       r.job.Hyperparameters.Epochs,
		Rank:         r.job.Hyperparameters.Rank,
		TotalSteps:   r.totalSteps,
	}
	if r.job.Hyperparameters.Alpha != nil {
		spec.Alpha = *r.job.Hyperparameters.Alpha
	}
	if r.job.Hyperparameters.Dropout != nil {
		spec.Dropout = *r.job.Hyperparameters.Dropout
	}

	reporter := progress.NewReporter(r.job.JobID, o.store, o.prober, o.collector)
	result, err := o.trainer.Train(ctx, spec, reporter)
	if err != nil {
		return err
	}
	r.result = result

	// The reporter marks an epoch once a later epoch's step arrives, so
	// the final epoch is closed here.
	if result.EpochsCompleted > 0 {
		if _, aerr := o.store.Append(r.job.JobID, model.EventTypeCheckpoint, "epoch completed", map[string]any{
			"epoch": result.EpochsCompleted,
			"step":  result.StepsCompleted,
			"loss":  result.FinalLoss,
		}); aerr != nil {
			log.Warnw("checkpoint event write failed", "jobId", r.job.JobID, "error", aerr)
		}
	}
	return nil
}

func (o *Orchestrator) stageSave(_ context.Context, r *run) error {
	archivePath, err := packageOutputs(r.job.JobID, r.outputDir, r.workDir)
	if err != nil {
		// Training already succeeded; a packaging fault degrades the
		// artifact set rather than failing the job.
		log.Warnw("output packaging failed", "jobId", r.job.JobID, "error", err)
		if _, aerr := o.store.Append(r.job.JobID, model.EventTypeWarning, "output packaging failed", map[string]any{
			"error": err.Error(),
		}); aerr != nil {
			log.Warnw("warning event write failed", "jobId", r.job.JobID, "error", aerr)
		}
		return nil
	}
	r.archivePath = archivePath
	return nil
}

func (o *Orchestrator) stageUpload(ctx context.Context, r *run) error {
	urls, err := o.publisher.Publish(ctx, r.job.JobID, r.outputDir)
	if err != nil {
		// Same policy as individual upload faults: training succeeded,
		// so publishing problems degrade instead of failing the job.
		log.Warnw("artifact publishing failed", "jobId", r.job.JobID, "error", err)
		if _, aerr := o.store.Append(r.job.JobID, model.EventTypeWarning, "artifact publishing failed", map[string]any{
			"error": err.Error(),
		}); aerr != nil {
			log.Warnw("warning event write failed", "jobId", r.job.JobID, "error", aerr)
		}
		urls = map[string]string{}
	}
	// The archive lives in the workspace, not the output directory, so
	// it is still publishable when the directory enumeration failed.
	if r.archivePath != "" {
		if url := o.publisher.PublishFile(ctx, r.job.JobID, r.archivePath); url != "" {
			urls[filepath.Base(r.archivePath)] = url
		}
	}
	r.modelFiles = urls
	return nil
}

func (o *Orchestrator) complete(jobID string, r *run) error {
	if r.result != nil {
		err := o.store.RecordMetrics(jobID, r.result.EpochsCompleted, r.result.StepsCompleted, 97, map[string]float64{
			"final_loss":    r.result.FinalLoss,
			"training_time": r.result.Duration.Seconds(),
		})
		if err != nil {
			log.Warnw("final metrics write failed", "jobId", jobID, "error", err)
		}
	}

	event, err := o.store.Transition(jobID, model.JobStatusCompleted, model.StageCompleted, 100, "job completed")
	if err != nil {
		return err
	}
	o.notifier.Notify(r.job.CallbackURI, event)

	if o.collector != nil {
		o.collector.JobsCompleted.Inc()
		if r.result != nil {
			o.collector.JobDurationSec.Observe(r.result.Duration.Seconds())
		}
	}
	log.Infow("job completed", "jobId", jobID, "artifacts", len(r.modelFiles))
	return nil
}

func (o *Orchestrator) fail(jobID, callbackURI string, err error) {
	kind, msg := trainer.Classify(err)
	event, ferr := o.store.Fail(jobID, msg, map[string]any{"kind": string(kind)})
	if ferr != nil {
		log.Errorw("failure record write failed", "jobId", jobID, "error", ferr)
		return
	}
	o.notifier.Notify(callbackURI, event)

	if o.collector != nil {
		o.collector.JobsFailed.WithLabelValues(string(kind)).Inc()
	}
	log.Warnw("job failed", "jobId", jobID, "kind", kind, "message", msg)
}

// Result is the terminal document returned to the caller.
type Result struct {
	Status        string             `json:"status"`
	JobID         string             `json:"job_id"`
	ModelFiles    map[string]string  `json:"model_files,omitempty"`
	ModelMetadata *ResultMetadata    `json:"model_metadata,omitempty"`
	Progress      float64            `json:"progress"`
	CurrentEpoch  int                `json:"current_epoch"`
	CurrentStep   int                `json:"current_step"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	ErrorMessage  string             `json:"error_message,omitempty"`
}

type ResultMetadata struct {
	BaseModel    string  `json:"base_model"`
	AdapterRank  int     `json:"adapter_rank"`
	FinalLoss    float64 `json:"final_loss"`
	TrainingTime float64 `json:"training_time"`
}

// BuildResult assembles the terminal document from the job snapshot and
// its published artifacts.
func BuildResult(job *model.Job, artifacts []model.Artifact) *Result {
	switch job.Status {
	case model.JobStatusCompleted:
		files := make(map[string]string, len(artifacts))
		for _, a := range artifacts {
			files[a.Filename] = a.URL
		}
		return &Result{
			Status:     "success",
			JobID:      job.JobID,
			ModelFiles: files,
			ModelMetadata: &ResultMetadata{
				BaseModel:    job.Hyperparameters.BaseModel,
				AdapterRank:  job.Hyperparameters.Rank,
				FinalLoss:    job.Metrics["final_loss"],
				TrainingTime: job.Metrics["training_time"],
			},
			Progress:     job.Progress,
			CurrentEpoch: job.CurrentEpoch,
			CurrentStep:  job.CurrentStep,
			Metrics:      job.Metrics,
		}
	case model.JobStatusFailed:
		return &Result{
			Status:       "failed",
			JobID:        job.JobID,
			ErrorMessage: job.ErrorMessage,
		}
	default:
		return &Result{
			Status:       job.Status,
			JobID:        job.JobID,
			Progress:     job.Progress,
			CurrentEpoch: job.CurrentEpoch,
			CurrentStep:  job.CurrentStep,
			Metrics:      job.Metrics,
		}
	}
}
