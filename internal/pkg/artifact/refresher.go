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

package artifact

import (
	"context"
	"time"

	"github.com/robfig/cron"
	"github.com/tunerix/tunera/internal/engine/repo"
	"github.com/tunerix/tunera/internal/pkg/storage"
	"github.com/tunerix/tunera/pkg/log"
)

// refreshWindow is how close to expiry a link must be before it is
// re-minted.
const refreshWindow = time.Hour

// Refresher periodically re-presigns download links that are about to
// expire, so a published artifact stays retrievable without republishing.
type Refresher struct {
	artifacts repo.IArtifactRepository
	storage   storage.IStorage
	cron      *cron.Cron
}

func NewRefresher(artifacts repo.IArtifactRepository, st storage.IStorage) *Refresher {
	return &Refresher{
		artifacts: artifacts,
		storage:   st,
		cron:      cron.New(),
	}
}

// Start schedules the refresh loop. Spec follows the standard cron
// format; "@every 30m" is a sensible default.
func (r *Refresher) Start(spec string) error {
	if spec == "" {
		spec = "@every 30m"
	}
	if err := r.cron.AddFunc(spec, r.refreshExpiring); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule. In-flight refreshes finish.
func (r *Refresher) Stop() {
	r.cron.Stop()
}

func (r *Refresher) refreshExpiring() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	expiring, err := r.artifacts.ListExpiringBefore(time.Now().Add(refreshWindow))
	if err != nil {
		log.Warnw("artifact refresh listing failed", "error", err)
		return
	}

	for _, a := range expiring {
		url, err := r.storage.PresignGet(ctx, a.StorageKey, URLExpiry)
		if err != nil {
			log.Warnw("artifact refresh presign failed", "jobId", a.JobID, "filename", a.Filename, "error", err)
			continue
		}
		a.URL = url
		a.ExpiresAt = time.Now().Add(URLExpiry)
		if err := r.artifacts.Upsert(&a); err != nil {
			log.Warnw("artifact refresh write failed", "jobId", a.JobID, "filename", a.Filename, "error", err)
			continue
		}
		log.Infow("artifact link refreshed", "jobId", a.JobID, "filename", a.Filename)
	}
}
