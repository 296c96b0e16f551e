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

// Package artifact publishes trained adapter files to object storage
// and hands out expiring download links.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/internal/engine/repo"
	"github.com/tunerix/tunera/internal/pkg/storage"
	"github.com/tunerix/tunera/internal/pkg/store"
	"github.com/tunerix/tunera/pkg/log"
)

const (
	// MaxFileSize is the per-file upload ceiling. Larger files are
	// skipped with a warning, never a failure.
	MaxFileSize = 100_000_000

	// URLExpiry bounds every minted download link.
	URLExpiry = 24 * time.Hour
)

// Exact filenames always published when present.
var allowNames = map[string]struct{}{
	"adapter_model.bin":         {},
	"adapter_model.safetensors": {},
	"adapter_config.json":       {},
	"training_args.bin":         {},
}

// Extensions published for any other file in the output directory.
var allowExts = map[string]struct{}{
	".json":        {},
	".bin":         {},
	".safetensors": {},
}

// Publisher uploads qualifying output files and records each published
// artifact. Uploads for the same job and filename land under the same
// key, so a retried publish overwrites instead of duplicating.
type Publisher struct {
	store     *store.Store
	storage   storage.IStorage
	artifacts repo.IArtifactRepository
}

func NewPublisher(s *store.Store, st storage.IStorage, artifacts repo.IArtifactRepository) *Publisher {
	return &Publisher{store: s, storage: st, artifacts: artifacts}
}

// Publish enumerates outputDir against the allow-list and uploads each
// qualifying file under models/{job_id}/{filename}, minting a 24h
// download URL. Individual upload failures degrade the artifact set and
// are reported as warning events; Publish only returns an error when
// the directory itself is unreadable. Zero qualifying files is reported
// as a warning, not an error.
func (p *Publisher) Publish(ctx context.Context, jobID, outputDir string) (map[string]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	urls := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !Qualifies(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() > MaxFileSize {
			log.Warnw("skipping oversized artifact", "jobId", jobID, "filename", entry.Name(), "sizeBytes", info.Size())
			p.warn(jobID, "skipping oversized artifact", map[string]any{
				"filename":   entry.Name(),
				"size_bytes": info.Size(),
				"limit":      MaxFileSize,
			})
			continue
		}

		key := ObjectKey(jobID, entry.Name())
		if err := p.storage.Upload(ctx, key, filepath.Join(outputDir, entry.Name())); err != nil {
			log.Warnw("artifact upload failed", "jobId", jobID, "filename", entry.Name(), "error", err)
			p.warn(jobID, "artifact upload failed", map[string]any{
				"filename": entry.Name(),
				"error":    err.Error(),
			})
			continue
		}

		url, err := p.storage.PresignGet(ctx, key, URLExpiry)
		if err != nil {
			log.Warnw("artifact presign failed", "jobId", jobID, "filename", entry.Name(), "error", err)
			p.warn(jobID, "artifact presign failed", map[string]any{
				"filename": entry.Name(),
				"error":    err.Error(),
			})
			continue
		}

		if err := p.artifacts.Upsert(&model.Artifact{
			JobID:      jobID,
			Filename:   entry.Name(),
			StorageKey: key,
			URL:        url,
			SizeBytes:  info.Size(),
			ExpiresAt:  time.Now().Add(URLExpiry),
		}); err != nil {
			log.Warnw("artifact record write failed", "jobId", jobID, "filename", entry.Name(), "error", err)
		}
		urls[entry.Name()] = url
	}

	if len(urls) == 0 {
		p.warn(jobID, "no qualifying output files to publish", nil)
	}
	return urls, nil
}

// PublishFile uploads one file outside the allow-list flow, such as the
// packaged archive. The size ceiling still applies. Returns the minted
// URL, or empty when the file was skipped or the upload degraded.
func (p *Publisher) PublishFile(ctx context.Context, jobID, path string) string {
	info, err := os.Stat(path)
	if err != nil {
		log.Warnw("artifact stat failed", "jobId", jobID, "path", path, "error", err)
		return ""
	}
	name := filepath.Base(path)
	if info.Size() > MaxFileSize {
		log.Warnw("skipping oversized artifact", "jobId", jobID, "filename", name, "sizeBytes", info.Size())
		p.warn(jobID, "skipping oversized artifact", map[string]any{
			"filename":   name,
			"size_bytes": info.Size(),
			"limit":      MaxFileSize,
		})
		return ""
	}

	key := ObjectKey(jobID, name)
	if err := p.storage.Upload(ctx, key, path); err != nil {
		log.Warnw("artifact upload failed", "jobId", jobID, "filename", name, "error", err)
		p.warn(jobID, "artifact upload failed", map[string]any{
			"filename": name,
			"error":    err.Error(),
		})
		return ""
	}
	url, err := p.storage.PresignGet(ctx, key, URLExpiry)
	if err != nil {
		log.Warnw("artifact presign failed", "jobId", jobID, "filename", name, "error", err)
		return ""
	}

	if err := p.artifacts.Upsert(&model.Artifact{
		JobID:      jobID,
		Filename:   name,
		StorageKey: key,
		URL:        url,
		SizeBytes:  info.Size(),
		ExpiresAt:  time.Now().Add(URLExpiry),
	}); err != nil {
		log.Warnw("artifact record write failed", "jobId", jobID, "filename", name, "error", err)
	}
	return url
}

func (p *Publisher) warn(jobID, summary string, payload map[string]any) {
	if _, err := p.store.Append(jobID, model.EventTypeWarning, summary, payload); err != nil {
		log.Warnw("warning event write failed", "jobId", jobID, "error", err)
	}
}

// Qualifies checks a filename against the allow-list.
func Qualifies(name string) bool {
	if _, ok := allowNames[name]; ok {
		return true
	}
	_, ok := allowExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ObjectKey derives the deterministic storage key for a job's file.
func ObjectKey(jobID, filename string) string {
	return fmt.Sprintf("models/%s/%s", jobID, filename)
}
