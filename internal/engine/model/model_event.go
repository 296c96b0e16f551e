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

package model

import (
	"time"
)

// JobEvent is one append-only entry in a job's history.
type JobEvent struct {
	BaseModel
	EventID    string         `gorm:"column:event_id;uniqueIndex" json:"eventId"`
	JobID      string         `gorm:"column:job_id;index" json:"jobId"`
	EventType  string         `gorm:"column:event_type" json:"eventType"`
	Summary    string         `gorm:"column:message_summary" json:"messageSummary"`
	Payload    map[string]any `gorm:"column:payload;serializer:json" json:"payload,omitempty"`
	ReceivedAt time.Time      `gorm:"column:received_at;index" json:"receivedAt"`
}

func (JobEvent) TableName() string {
	return "t_job_event"
}

const (
	EventTypeStatusChange  = "status_change"
	EventTypeMetricsUpdate = "metrics_update"
	EventTypeCheckpoint    = "checkpoint"
	EventTypeWarning       = "warning"
	EventTypeError         = "error"
	EventTypeInfo          = "info"
)

// KnownEventType reports whether t is one of the recorded event types.
func KnownEventType(t string) bool {
	switch t {
	case EventTypeStatusChange, EventTypeMetricsUpdate, EventTypeCheckpoint,
		EventTypeWarning, EventTypeError, EventTypeInfo:
		return true
	}
	return false
}
