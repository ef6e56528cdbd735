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

package framer

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/packetd/streamsplit/common"
	"github.com/packetd/streamsplit/internal/mapstructure"
	"github.com/packetd/streamsplit/splitio"
)

type Mode string

const (
	// ModeToken 以任意 token 作为分隔符
	ModeToken Mode = "token"

	// ModeLine 以 LF / CRLF 作为分隔符
	ModeLine Mode = "line"
)

type Config struct {
	Mode         Mode   `config:"mode" mapstructure:"mode"`
	Token        string `config:"token" mapstructure:"token"`
	BlockSize    int    `config:"blockSize" mapstructure:"blockSize"`
	MaxFrameSize int    `config:"maxFrameSize" mapstructure:"maxFrameSize"`
}

// Validate 补齐默认值并校验配置 可重复调用
func (c *Config) Validate() error {
	c.Mode = Mode(strings.ToLower(string(c.Mode)))
	if c.Mode == "" {
		c.Mode = ModeToken
	}

	switch c.Mode {
	case ModeToken:
		if c.Token == "" {
			return errors.Wrap(splitio.ErrEmptyToken, "framer")
		}
	case ModeLine:
	default:
		return newError("unknown mode %q", c.Mode)
	}

	if c.BlockSize <= 0 {
		c.BlockSize = common.ReadWriteBlockSize
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = common.MaxFrameSize
	}
	return nil
}

// Options 中可用的 key
const (
	OptMode         = "mode"
	OptToken        = "token"
	OptBlockSize    = "blockSize"
	OptMaxFrameSize = "maxFrameSize"
)

// ConfigFromOptions 从松散结构的 Options 中解析 Config
//
// token 支持 Go 字符串转义语法 如 `\r\n` / `\x00`
func ConfigFromOptions(opts common.Options) (Config, error) {
	var c Config
	if err := mapstructure.Decode(map[string]any(opts), &c); err != nil {
		return c, errors.Wrap(err, "framer: decode options")
	}

	token, err := UnescapeToken(c.Token)
	if err != nil {
		return c, err
	}
	c.Token = token
	return c, c.Validate()
}

// UnescapeToken 解析带有 Go 转义字符的 token
func UnescapeToken(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil
	}

	token, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
	if err != nil {
		return "", newError("invalid token %q", s)
	}
	return token, nil
}
