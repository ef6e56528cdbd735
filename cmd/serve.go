// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/packetd/streamsplit/common"
	"github.com/packetd/streamsplit/confengine"
	"github.com/packetd/streamsplit/controller"
	"github.com/packetd/streamsplit/internal/sigs"
)

// runController 启动 controller 并阻塞直到收到退出信号
func runController(cfg *confengine.Config) {
	ctr, err := controller.New(cfg, common.GetBuildInfo())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create controller: %v\n", err)
		os.Exit(1)
	}
	if err := ctr.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start controller: %v\n", err)
		os.Exit(1)
	}

	<-sigs.Terminate()
	if err := ctr.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop controller: %v\n", err)
		os.Exit(1)
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run streamsplit as a TCP framing service",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := confengine.LoadConfigPath(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		runController(cfg)
	},
}

var configPath string

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "streamsplit.yaml", "Configuration file path")
	rootCmd.AddCommand(serveCmd)
}
