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
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"

	"github.com/packetd/streamsplit/confengine"
	"github.com/packetd/streamsplit/controller"
	"github.com/packetd/streamsplit/exporter"
	"github.com/packetd/streamsplit/framer"
	"github.com/packetd/streamsplit/internal/json"
)

func decodeFrames(t *testing.T, b []byte) []framer.Frame {
	var frames []framer.Frame
	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		var frame framer.Frame
		assert.NoError(t, json.Unmarshal(scanner.Bytes(), &frame))
		frames = append(frames, frame)
	}
	return frames
}

func TestSplitStream(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cfg   splitCmdConfig
		want  []string
		eols  []string
	}{
		{
			name:  "Token",
			input: "12345TOKEN678TOKEN9",
			cfg:   splitCmdConfig{Mode: "token", Token: "TOKEN", BlockSize: 4, WithData: true},
			want:  []string{"12345", "678", "9"},
			eols:  []string{"", "", ""},
		},
		{
			name:  "EscapedToken",
			input: "a\r\n\r\nb",
			cfg:   splitCmdConfig{Mode: "token", Token: `\r\n\r\n`, BlockSize: 1, WithData: true},
			want:  []string{"a", "b"},
			eols:  []string{"", ""},
		},
		{
			name:  "Lines",
			input: "one\r\ntwo\nthree",
			cfg:   splitCmdConfig{Mode: "line", Token: "ignored", BlockSize: 2, WithData: true},
			want:  []string{"one", "two", "three"},
			eols:  []string{"CRLF", "LF", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			n, err := splitStream(context.Background(), &out, iotest.HalfReader(strings.NewReader(tt.input)), "test", tt.cfg)
			assert.NoError(t, err)
			assert.Equal(t, len(tt.want), n)

			var data, eols []string
			for _, frame := range decodeFrames(t, out.Bytes()) {
				assert.Equal(t, "test", frame.Conn)
				data = append(data, string(frame.Data))
				eols = append(eols, frame.Eol)
			}
			assert.Equal(t, tt.want, data)
			assert.Equal(t, tt.eols, eols)
		})
	}
}

func TestSplitStreamInvalid(t *testing.T) {
	_, err := splitStream(context.Background(), &bytes.Buffer{}, strings.NewReader("abc"), "test", splitCmdConfig{Mode: "token"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = splitStream(ctx, &bytes.Buffer{}, strings.NewReader("abc"), "test", splitCmdConfig{Mode: "line"})
	assert.Equal(t, context.Canceled, err)
}

func TestListenYaml(t *testing.T) {
	c := listenCmdConfig{
		Address:    "127.0.0.1:9090",
		Mode:       "token",
		Token:      `\r\n\r\n`,
		Console:    true,
		FramesFile: "frames.jsonl",
		FramesSize: 100,
	}
	content, err := c.Yaml()
	assert.NoError(t, err)

	conf, err := confengine.LoadContent(content)
	assert.NoError(t, err)

	var ctrCfg controller.Config
	assert.NoError(t, conf.UnpackChild("controller", &ctrCfg))
	assert.Len(t, ctrCfg.Listeners, 1)
	assert.Equal(t, "\r\n\r\n", ctrCfg.Listeners[0].Token)
	assert.Equal(t, "127.0.0.1:9090", ctrCfg.Listeners[0].Address)

	var expCfg exporter.Config
	assert.NoError(t, conf.UnpackChild("exporter", &expCfg))
	assert.True(t, expCfg.Frames.Console)
	assert.Equal(t, "frames.jsonl", expCfg.Frames.Filename)

	assert.False(t, conf.Enabled("server"))
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.True(t, strings.HasPrefix(out.String(), "streamsplit "))
}
