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
	"bytes"
	"fmt"
	"os"
	"strconv"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/packetd/streamsplit/confengine"
	"github.com/packetd/streamsplit/framer"
)

type listenCmdConfig struct {
	Address      string
	Mode         string
	Token        string
	BlockSize    int
	MaxFrameSize int
	Console      bool
	WithData     bool
	FramesFile   string
	FramesSize   int
	FramesBackup int
	Server       string
}

func (c *listenCmdConfig) Yaml() ([]byte, error) {
	text := `
logger:
  stdout: true

server:
  enabled: {{ ne .Server "" }}
  address: {{ quote .Server }}

controller:
  listeners:
    - name: default
      address: {{ quote .Address }}
      mode: {{ .Mode }}
      token: {{ quote .Token }}
      blockSize: {{ .BlockSize }}
      maxFrameSize: {{ .MaxFrameSize }}

exporter:
  frames:
    enabled: true
    console: {{ .Console }}
    filename: {{ quote .FramesFile }}
    maxSize: {{ .FramesSize }}
    maxBackups: {{ .FramesBackup }}
    maxAge: 7
    withData: {{ .WithData }}
`
	token, err := framer.UnescapeToken(c.Token)
	if err != nil {
		return nil, err
	}

	tpl, err := template.New("Config").Funcs(template.FuncMap{"quote": strconv.Quote}).Parse(text)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tpl.Execute(&buf, map[string]any{
		"Address":      c.Address,
		"Mode":         c.Mode,
		"Token":        token,
		"BlockSize":    c.BlockSize,
		"MaxFrameSize": c.MaxFrameSize,
		"Console":      c.Console,
		"WithData":     c.WithData,
		"FramesFile":   c.FramesFile,
		"FramesSize":   c.FramesSize,
		"FramesBackup": c.FramesBackup,
		"Server":       c.Server,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var listenConfig listenCmdConfig

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Accept TCP connections and log the frames of each stream",
	Run: func(cmd *cobra.Command, args []string) {
		content, err := listenConfig.Yaml()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to render config: %v\n", err)
			os.Exit(1)
		}

		cfg, err := confengine.LoadContent(content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		runController(cfg)
	},
	Example: `# streamsplit listen --address 127.0.0.1:9090 --token '\r\n\r\n' --console`,
}

func init() {
	listenCmd.Flags().StringVar(&listenConfig.Address, "address", "127.0.0.1:9090", "TCP address to listen on")
	listenCmd.Flags().StringVar(&listenConfig.Mode, "mode", string(framer.ModeToken), "Framing mode [token|line]")
	listenCmd.Flags().StringVar(&listenConfig.Token, "token", `\r\n`, "Delimiter token, Go escape sequences supported")
	listenCmd.Flags().IntVar(&listenConfig.BlockSize, "block-size", 0, "Read block size in bytes")
	listenCmd.Flags().IntVar(&listenConfig.MaxFrameSize, "max-frame-size", 0, "Maximum captured bytes per frame")
	listenCmd.Flags().BoolVar(&listenConfig.Console, "console", false, "Print frames to console")
	listenCmd.Flags().BoolVar(&listenConfig.WithData, "data", false, "Include frame data in records")
	listenCmd.Flags().StringVar(&listenConfig.FramesFile, "frames.file", "", "Path to frames file")
	listenCmd.Flags().IntVar(&listenConfig.FramesSize, "frames.size", 100, "Maximum size of frames file in MB")
	listenCmd.Flags().IntVar(&listenConfig.FramesBackup, "frames.backups", 10, "Maximum number of old frames files to retain")
	listenCmd.Flags().StringVar(&listenConfig.Server, "server", "", "Admin server address, disabled if empty")
	rootCmd.AddCommand(listenCmd)
}
