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

package exporter

type Config struct {
	Frames FramesConfig `config:"frames"`
}

type FramesConfig struct {
	Enabled    bool   `config:"enabled"`
	Console    bool   `config:"console"`
	Filename   string `config:"filename"`
	MaxSize    int    `config:"maxSize"`
	MaxBackups int    `config:"maxBackups"`
	MaxAge     int    `config:"maxAge"`
	WithData   bool   `config:"withData"`

	// Buffer 订阅队列长度 消费不及时的 frame 会被丢弃
	Buffer int `config:"buffer"`
}

func (fc *FramesConfig) Validate() error {
	if fc.MaxSize <= 0 {
		fc.MaxSize = 100
	}
	if fc.MaxAge <= 0 {
		fc.MaxAge = 7
	}
	if fc.MaxBackups <= 0 {
		fc.MaxBackups = 10
	}
	if fc.Buffer <= 0 {
		fc.Buffer = 1024
	}
	return nil
}
