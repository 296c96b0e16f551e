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

// Package notify mirrors job events to a caller-supplied endpoint.
// Delivery is best-effort: the store stays authoritative and a dead
// endpoint never slows or fails a job.
package notify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tunerix/tunera/internal/engine/model"
	"github.com/tunerix/tunera/pkg/log"
)

// Config tunes webhook delivery.
type Config struct {
	Secret     string `mapstructure:"secret"`     // optional: signing secret, empty disables signing
	RetryCount int    `mapstructure:"retryCount"` // attempts beyond the first
	TimeoutSec int    `mapstructure:"timeoutSec"`
}

func (c *Config) SetDefaults() {
	if c.RetryCount == 0 {
		c.RetryCount = 2
	}
	if c.TimeoutSec == 0 {
		c.TimeoutSec = 10
	}
}

// Notifier pushes event documents to callback URIs.
type Notifier struct {
	cfg    Config
	client *resty.Client
}

func NewNotifier(cfg Config) *Notifier {
	cfg.SetDefaults()
	client := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second).
		SetRetryCount(cfg.RetryCount)
	return &Notifier{cfg: cfg, client: client}
}

// Notify pushes the event to callbackURI, fire-and-forget. An empty
// URI is a no-op. Delivery failure is logged, never escalated.
func (n *Notifier) Notify(callbackURI string, event *model.JobEvent) {
	if callbackURI == "" || event == nil {
		return
	}
	go n.deliver(callbackURI, event)
}

func (n *Notifier) deliver(callbackURI string, event *model.JobEvent) {
	req := n.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(event)

	if n.cfg.Secret != "" {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		req.SetHeader("X-Tunera-Timestamp", ts)
		req.SetHeader("X-Tunera-Signature", sign(ts, n.cfg.Secret))
	}

	resp, err := req.Post(callbackURI)
	if err != nil {
		log.Warnw("webhook delivery failed", "jobId", event.JobID, "eventType", event.EventType, "error", err)
		return
	}
	if resp.IsError() {
		log.Warnw("webhook endpoint rejected event", "jobId", event.JobID, "eventType", event.EventType, "status", resp.StatusCode())
		return
	}
	log.Debugw("webhook delivered", "jobId", event.JobID, "eventType", event.EventType)
}

// sign builds an HmacSHA256 signature over timestamp + "\n" + secret.
func sign(timestamp, secret string) string {
	payload := fmt.Sprintf("%s\n%s", timestamp, secret)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
