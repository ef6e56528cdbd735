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

package controller

import (
	"time"

	"github.com/packetd/streamsplit/framer"
)

type Config struct {
	Listeners []ListenerConfig `config:"listeners"`

	// IdleTimeout 链接在此时间内没有任何数据到达时会被关闭
	IdleTimeout time.Duration `config:"idleTimeout"`

	// PollInterval 每次读取数据的最长等待时间 决定了响应退出信号的延迟
	PollInterval time.Duration `config:"pollInterval"`
}

func (c *Config) Validate() error {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 5 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}

	names := make(map[string]struct{})
	for i := range c.Listeners {
		lc := &c.Listeners[i]
		if err := lc.Validate(); err != nil {
			return err
		}
		if _, ok := names[lc.Name]; ok {
			return newError("duplicated listener %q", lc.Name)
		}
		names[lc.Name] = struct{}{}
	}
	return nil
}

type ListenerConfig struct {
	Name          string `config:"name"`
	Address       string `config:"address"`
	framer.Config `config:",inline"`
}

func (lc *ListenerConfig) Validate() error {
	if lc.Address == "" {
		return newError("listener %q requires address", lc.Name)
	}
	if lc.Name == "" {
		lc.Name = lc.Address
	}
	return lc.Config.Validate()
}
