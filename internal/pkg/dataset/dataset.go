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

// Package dataset fetches a training dataset and checks it holds usable
// records before any GPU time is spent on it.
package dataset

import (
	"bufio"
	"context"
	"os"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/tunerix/tunera/internal/pkg/trainer"
	"github.com/tunerix/tunera/pkg/log"
)

// Download fetches the dataset at url into dest. Failures are returned
// as resource-acquisition errors so the caller can surface the
// check-your-URL hint.
func Download(ctx context.Context, url, dest string) error {
	client := resty.New()
	resp, err := client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)
	if err != nil {
		return trainer.NewError(trainer.KindResourceAcquisition, "dataset download failed", err)
	}
	if resp.IsError() {
		return trainer.NewError(trainer.KindResourceAcquisition,
			"dataset download failed with status "+resp.Status(), nil)
	}
	return nil
}

// Summary counts the record shapes found in a JSONL dataset.
type Summary struct {
	ChatRecords      int
	ConvertedRecords int
	Skipped          int
}

// Total returns the number of usable records.
func (s Summary) Total() int {
	return s.ChatRecords + s.ConvertedRecords
}

// jsonl record shapes. A chat record carries a messages array; a raw
// record carries prompt/response fields that convert into one. A line
// with a _meta key is a format header, not a record.
type record struct {
	Meta             any    `json:"_meta"`
	Messages         []any  `json:"messages"`
	SystemPrompt     string `json:"system_prompt"`
	CurrentUserInput string `json:"current_user_input"`
	TargetResponse   string `json:"target_response"`
}

// Inspect scans a JSONL file line by line and classifies each record.
// Blank lines and metadata headers are ignored; malformed JSON and
// unknown shapes count as skipped. Zero usable records is a data-format
// failure.
func Inspect(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, trainer.NewError(trainer.KindDataFormat, "open dataset", err)
	}
	defer f.Close()

	var sum Summary
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := sonic.Unmarshal(line, &rec); err != nil {
			sum.Skipped++
			continue
		}
		switch {
		case rec.Meta != nil:
			// format header
		case rec.Messages != nil:
			if len(rec.Messages) > 0 {
				sum.ChatRecords++
			} else {
				sum.Skipped++
			}
		case rec.TargetResponse != "" && rec.CurrentUserInput != "":
			sum.ConvertedRecords++
		default:
			sum.Skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return Summary{}, trainer.NewError(trainer.KindDataFormat, "read dataset", err)
	}

	log.Infow("dataset inspected", "path", path,
		"chatRecords", sum.ChatRecords, "convertedRecords", sum.ConvertedRecords, "skipped", sum.Skipped)

	if sum.Total() == 0 {
		return sum, trainer.NewError(trainer.KindDataFormat, "Dataset loading failed - invalid format or empty file", nil)
	}
	return sum, nil
}
