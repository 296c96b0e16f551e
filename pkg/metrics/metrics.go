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

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig defines metrics exposure configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func (m *MetricsConfig) SetDefaults() {
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Metrics holds the collectors for job orchestration.
type Metrics struct {
	registry *prometheus.Registry

	JobsSubmitted  prometheus.Counter
	JobsCompleted  prometheus.Counter
	JobsFailed     *prometheus.CounterVec
	TrainingSteps  prometheus.Counter
	JobDurationSec prometheus.Histogram
}

// New creates a metrics set backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		JobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tunera_jobs_submitted_total",
			Help: "Number of accepted fine-tuning job submissions.",
		}),
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tunera_jobs_completed_total",
			Help: "Number of jobs that reached the completed state.",
		}),
		JobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tunera_jobs_failed_total",
			Help: "Number of failed jobs by classified error kind.",
		}, []string{"kind"}),
		TrainingSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tunera_training_steps_total",
			Help: "Number of reported training steps across all jobs.",
		}),
		JobDurationSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tunera_job_duration_seconds",
			Help:    "Wall-clock duration of finished jobs.",
			Buckets: prometheus.ExponentialBuckets(30, 2, 12),
		}),
	}

	registry.MustRegister(
		m.JobsSubmitted,
		m.JobsCompleted,
		m.JobsFailed,
		m.TrainingSteps,
		m.JobDurationSec,
	)
	return m
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
