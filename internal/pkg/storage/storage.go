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

package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Supported providers.
const (
	Minio = "minio"
	S3    = "s3"
)

// Storage holds object storage configuration.
type Storage struct {
	Provider  string `mapstructure:"provider"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseTLS    bool   `mapstructure:"useTLS"`
	BasePath  string `mapstructure:"basePath"`
}

// IStorage is the object storage boundary used by the artifact
// publisher: put a local file under a key, mint an expiring download
// link for it.
type IStorage interface {
	// Upload stores the local file at filePath under objectName
	Upload(ctx context.Context, objectName, filePath string) error

	// PresignGet returns a time-bounded download URL for objectName
	PresignGet(ctx context.Context, objectName string, expiry time.Duration) (string, error)

	// Provider returns the provider name for logging
	Provider() string
}

// NewStorage creates the provider instance for the configuration.
func NewStorage(s *Storage) (IStorage, error) {
	switch s.Provider {
	case Minio:
		return newMinio(s)
	case S3:
		return newS3(s)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", s.Provider)
	}
}

// getFullPath joins BasePath and objectName without double slashes.
func getFullPath(basePath, objectName string) string {
	if basePath == "" {
		return objectName
	}
	basePath = strings.Trim(basePath, "/")
	objectName = strings.TrimPrefix(objectName, "/")
	return basePath + "/" + objectName
}
