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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/packetd/streamsplit/common"
	"github.com/packetd/streamsplit/exporter"
	"github.com/packetd/streamsplit/framer"
	"github.com/packetd/streamsplit/internal/sigs"
	"github.com/packetd/streamsplit/internal/zerocopy"
)

type splitCmdConfig struct {
	Mode         string
	Token        string
	BlockSize    int
	MaxFrameSize int
	WithData     bool
}

func (c *splitCmdConfig) Options() common.Options {
	opts := common.NewOptions()
	opts.Merge(framer.OptMode, c.Mode)
	opts.Merge(framer.OptBlockSize, c.BlockSize)
	opts.Merge(framer.OptMaxFrameSize, c.MaxFrameSize)
	if c.Mode != string(framer.ModeLine) {
		opts.Merge(framer.OptToken, c.Token)
	}
	return opts
}

// splitStream 将 r 切分为 frame 并以 JSON Lines 格式写入 w 返回 frame 数量
func splitStream(ctx context.Context, w io.Writer, r io.Reader, name string, c splitCmdConfig) (int, error) {
	cfg, err := framer.ConfigFromOptions(c.Options())
	if err != nil {
		return 0, err
	}

	f, err := framer.New(name, zerocopy.NewBlockReader(r, cfg.BlockSize), cfg)
	if err != nil {
		return 0, err
	}

	sinker := exporter.NewWriterSinker("stdout", w, c.WithData)
	defer sinker.Close()

	var n int
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		frame, err := f.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := sinker.Sink(frame); err != nil {
			return n, err
		}
		n++
	}
}

func runSplit(cmd *cobra.Command, args []string, c splitCmdConfig) {
	var r io.Reader = os.Stdin
	name := "stdin"
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r, name = f, args[0]
	}

	ctx, cancel := sigs.Context(context.Background())
	defer cancel()

	if _, err := splitStream(ctx, cmd.OutOrStdout(), r, name, c); err != nil {
		fmt.Fprintf(os.Stderr, "failed to split %s: %v\n", name, err)
		os.Exit(1)
	}
}

var splitConfig splitCmdConfig

var splitCmd = &cobra.Command{
	Use:   "split [file]",
	Short: "Split a file or stdin by token and print one JSON record per frame",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSplit(cmd, args, splitConfig)
	},
	Example: `# printf 'a\r\nb' | streamsplit split --token '\r\n' --data`,
}

var linesConfig splitCmdConfig

var linesCmd = &cobra.Command{
	Use:   "lines [file]",
	Short: "Split a file or stdin by LF / CRLF and print one JSON record per line",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		linesConfig.Mode = string(framer.ModeLine)
		runSplit(cmd, args, linesConfig)
	},
}

func init() {
	splitCmd.Flags().StringVar(&splitConfig.Token, "token", `\r\n`, "Delimiter token, Go escape sequences supported")
	splitCmd.Flags().IntVar(&splitConfig.BlockSize, "block-size", common.ReadWriteBlockSize, "Read block size in bytes")
	splitCmd.Flags().IntVar(&splitConfig.MaxFrameSize, "max-frame-size", common.MaxFrameSize, "Maximum captured bytes per frame")
	splitCmd.Flags().BoolVar(&splitConfig.WithData, "data", false, "Include frame data in records")
	splitConfig.Mode = string(framer.ModeToken)
	rootCmd.AddCommand(splitCmd)

	linesCmd.Flags().IntVar(&linesConfig.BlockSize, "block-size", common.ReadWriteBlockSize, "Read block size in bytes")
	linesCmd.Flags().IntVar(&linesConfig.MaxFrameSize, "max-frame-size", common.MaxFrameSize, "Maximum captured bytes per frame")
	linesCmd.Flags().BoolVar(&linesConfig.WithData, "data", false, "Include frame data in records")
	rootCmd.AddCommand(linesCmd)
}
