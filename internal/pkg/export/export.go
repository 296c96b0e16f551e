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

// Package export renders a job's event history as a self-contained
// document for download.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tunerix/tunera/internal/engine/model"
)

// Format selects the export rendering.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

const timeLayout = "2006-01-02 15:04:05"

// Filename derives the export filename for a job at a point in time.
func Filename(jobID, format string, at time.Time) string {
	return fmt.Sprintf("%s-event-log-%s.%s", jobID, at.Format("20060102-150405"), format)
}

// Render serializes events into the requested format. JSON is a
// structured-record array; CSV is a flat table with the payload
// serialized into one column.
func Render(events []model.JobEvent, format string) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		b, err := renderJSON(events)
		return b, "application/json", err
	case FormatCSV:
		b, err := renderCSV(events)
		return b, "text/csv", err
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func renderJSON(events []model.JobEvent) ([]byte, error) {
	docs := make([]map[string]any, 0, len(events))
	for _, e := range events {
		docs = append(docs, map[string]any{
			"event_id":        e.EventID,
			"job_id":          e.JobID,
			"event_type":      e.EventType,
			"message_summary": e.Summary,
			"payload":         e.Payload,
			"received_at":     e.ReceivedAt.Format(timeLayout),
		})
	}
	return sonic.MarshalIndent(docs, "", "  ")
}

func renderCSV(events []model.JobEvent) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"event_id", "job_id", "event_type", "message_summary", "payload", "received_at"}); err != nil {
		return nil, err
	}
	for _, e := range events {
		payload := ""
		if len(e.Payload) > 0 {
			b, err := sonic.Marshal(e.Payload)
			if err != nil {
				payload = strconv.Quote(fmt.Sprint(e.Payload))
			} else {
				payload = string(b)
			}
		}
		row := []string{e.EventID, e.JobID, e.EventType, e.Summary, payload, e.ReceivedAt.Format(timeLayout)}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
