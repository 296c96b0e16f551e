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

package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/tunerix/tunera/internal/pkg/notify"
	"github.com/tunerix/tunera/internal/pkg/orchestrator"
	"github.com/tunerix/tunera/internal/pkg/storage"
	"github.com/tunerix/tunera/internal/pkg/trainer"
	"github.com/tunerix/tunera/pkg/database"
	"github.com/tunerix/tunera/pkg/http"
	"github.com/tunerix/tunera/pkg/log"
	"github.com/tunerix/tunera/pkg/metrics"
)

// RefreshConfig schedules the artifact link refresh loop.
type RefreshConfig struct {
	Cron string `mapstructure:"cron"` // robfig/cron spec, e.g. "@every 30m"
}

type AppConfig struct {
	Log          log.Conf              `mapstructure:"log"`
	Http         http.Http             `mapstructure:"http"`
	Database     database.Database     `mapstructure:"database"`
	Storage      storage.Storage       `mapstructure:"storage"`
	Trainer      trainer.CommandConfig `mapstructure:"trainer"`
	Orchestrator orchestrator.Config   `mapstructure:"orchestrator"`
	Notify       notify.Config         `mapstructure:"notify"`
	Refresh      RefreshConfig         `mapstructure:"refresh"`
	Metrics      metrics.MetricsConfig `mapstructure:"metrics"`
}

var (
	cfg  AppConfig
	mu   sync.RWMutex
	once sync.Once
)

func NewConf(confDir string) *AppConfig {
	once.Do(func() {
		var err error
		cfg, err = LoadConfigFile(confDir)
		if err != nil {
			panic(fmt.Sprintf("load config file error: %s", err))
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return &cfg
}

// GetConfig returns the current configuration, safe against reloads.
func GetConfig() AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// LoadConfigFile loads the config file and watches it for changes.
func LoadConfigFile(confDir string) (AppConfig, error) {
	config := viper.New()
	config.SetConfigFile(confDir)
	if err := config.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read configuration file: %v", err)
	}

	config.WatchConfig()
	config.OnConfigChange(func(e fsnotify.Event) {
		log.Infow("The configuration changes, re-analyze the configuration file", "file", e.Name)
		if err := config.ReadInConfig(); err != nil {
			log.Errorw("failed to re-read configuration file", "error", err, "file", e.Name)
			return
		}
		mu.Lock()
		if err := config.Unmarshal(&cfg); err != nil {
			mu.Unlock()
			log.Errorw("failed to unmarshal configuration file", "error", err, "file", e.Name)
			return
		}
		applyDefaults(&cfg)
		mu.Unlock()
		log.Infow("configuration reloaded successfully", "file", e.Name)
	})
	if err := config.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal configuration file: %v", err)
	}
	applyDefaults(&cfg)
	log.Infow("config file loaded",
		"path", confDir,
	)

	return cfg, nil
}

func applyDefaults(c *AppConfig) {
	c.Http.SetDefaults()
	c.Database.SetDefaults()
	c.Notify.SetDefaults()
	c.Metrics.SetDefaults()
}
