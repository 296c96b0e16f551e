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

package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tunerix/tunera/internal/engine/model"
)

func sampleEvents() []model.JobEvent {
	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return []model.JobEvent{
		{EventID: "ev-2", JobID: "job-x", EventType: model.EventTypeMetricsUpdate, Summary: "training metrics",
			Payload: map[string]any{"loss": 1.5, "step": 10}, ReceivedAt: base.Add(time.Minute)},
		{EventID: "ev-1", JobID: "job-x", EventType: model.EventTypeStatusChange, Summary: "training started",
			ReceivedAt: base},
	}
}

func TestFilenamePattern(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 15, 0, time.UTC)
	require.Equal(t, "job-x-event-log-20260314-093015.json", Filename("job-x", FormatJSON, at))
	require.Equal(t, "job-x-event-log-20260314-093015.csv", Filename("job-x", FormatCSV, at))
}

func TestRenderJSON(t *testing.T) {
	b, contentType, err := Render(sampleEvents(), FormatJSON)
	require.NoError(t, err)
	require.Equal(t, "application/json", contentType)

	s := string(b)
	require.Contains(t, s, `"event_id"`)
	require.Contains(t, s, "ev-1")
	require.Contains(t, s, "training metrics")
	require.Contains(t, s, "2026-03-14 09:31:00")
}

func TestRenderCSV(t *testing.T) {
	b, contentType, err := Render(sampleEvents(), FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", contentType)

	rows, err := csv.NewReader(strings.NewReader(string(b))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two events
	require.Equal(t, []string{"event_id", "job_id", "event_type", "message_summary", "payload", "received_at"}, rows[0])
	require.Equal(t, "ev-2", rows[1][0])
	require.Contains(t, rows[1][4], `"loss"`)
	require.Empty(t, rows[2][4])
}

func TestUnfilteredEqualsAllTypesFilter(t *testing.T) {
	events := sampleEvents()

	// Filtering to "every known type" must not change the rendered bytes.
	filtered := make([]model.JobEvent, 0, len(events))
	for _, e := range events {
		if model.KnownEventType(e.EventType) {
			filtered = append(filtered, e)
		}
	}

	full, _, err := Render(events, FormatJSON)
	require.NoError(t, err)
	sub, _, err := Render(filtered, FormatJSON)
	require.NoError(t, err)
	require.Equal(t, full, sub)
}

func TestRenderUnknownFormat(t *testing.T) {
	_, _, err := Render(sampleEvents(), "xml")
	require.Error(t, err)
}
