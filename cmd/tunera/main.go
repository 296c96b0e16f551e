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

package main

import (
	"github.com/spf13/cobra"

	"github.com/tunerix/tunera/internal/engine/bootstrap"
	"github.com/tunerix/tunera/pkg/version"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "tunera",
	Short: "tunera is a GPU fine-tuning job orchestration service",
	Long:  "tunera accepts fine-tuning job submissions, drives them through the training pipeline, and publishes the resulting adapters.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := bootstrap.NewApp(configFile)
		if err != nil {
			return err
		}
		return bootstrap.Run(app, cleanup)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "conf.d/config.yaml", "config file path, e.g. --conf ./conf.d/config.yaml")
	rootCmd.AddCommand(version.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		bootstrap.Exit(err)
	}
}
