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
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioStorage struct {
	client *minio.Client
	conf   *Storage
}

func newMinio(s *Storage) (IStorage, error) {
	client, err := minio.New(s.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
		Secure: s.UseTLS,
		Region: s.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &minioStorage{client: client, conf: s}, nil
}

func (m *minioStorage) Upload(ctx context.Context, objectName, filePath string) error {
	fullPath := getFullPath(m.conf.BasePath, objectName)
	_, err := m.client.FPutObject(ctx, m.conf.Bucket, fullPath, filePath, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("minio upload %s: %w", fullPath, err)
	}
	return nil
}

func (m *minioStorage) PresignGet(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	fullPath := getFullPath(m.conf.BasePath, objectName)
	u, err := m.client.PresignedGetObject(ctx, m.conf.Bucket, fullPath, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("minio presign %s: %w", fullPath, err)
	}
	return u.String(), nil
}

func (m *minioStorage) Provider() string {
	return Minio
}
