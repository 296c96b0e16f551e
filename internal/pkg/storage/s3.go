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
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	conf      *Storage
}

func newS3(s *Storage) (IStorage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(s.Region),
		awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		conf:      s,
	}, nil
}

func (s *s3Storage) Upload(ctx context.Context, objectName, filePath string) error {
	fullPath := getFullPath(s.conf.BasePath, objectName)

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("s3 open %s: %w", filePath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.conf.Bucket),
		Key:    aws.String(fullPath),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s: %w", fullPath, err)
	}
	return nil
}

func (s *s3Storage) PresignGet(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	fullPath := getFullPath(s.conf.BasePath, objectName)
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.conf.Bucket),
		Key:    aws.String(fullPath),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s: %w", fullPath, err)
	}
	return req.URL, nil
}

func (s *s3Storage) Provider() string {
	return S3
}
