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

package confengine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type listenerConfig struct {
	Address   string        `config:"address"`
	BlockSize int           `config:"blockSize"`
	Idle      time.Duration `config:"idle"`
}

func (c *listenerConfig) Validate() error {
	if c.Address == "" {
		return errors.New("empty address")
	}
	if c.BlockSize <= 0 {
		c.BlockSize = 4096
	}
	return nil
}

const content = `
server:
  enabled: true
listener:
  address: 127.0.0.1:9090
  idle: 3s
exporter:
  frames:
    disabled: true
`

func TestLoadContent(t *testing.T) {
	conf, err := LoadContent([]byte(content))
	assert.NoError(t, err)

	assert.True(t, conf.Has("listener.address"))
	assert.False(t, conf.Has("listener.token"))
	assert.True(t, conf.Enabled("server"))
	assert.False(t, conf.Enabled("exporter.frames"))
	assert.True(t, conf.Disabled("exporter.frames"))

	var lc listenerConfig
	assert.NoError(t, conf.UnpackChild("listener", &lc))
	assert.Equal(t, "127.0.0.1:9090", lc.Address)
	assert.Equal(t, 4096, lc.BlockSize)
	assert.Equal(t, 3*time.Second, lc.Idle)

	child := conf.MustChild("listener")
	var again listenerConfig
	assert.NoError(t, child.Unpack(&again))
	assert.Equal(t, lc, again)
}

func TestUnpackChildMissing(t *testing.T) {
	conf, err := LoadContent([]byte(content))
	assert.NoError(t, err)

	var lc listenerConfig
	assert.EqualError(t, conf.UnpackChild("missing", &lc), "empty address")
}

func TestLoadConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streamsplit.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	conf, err := LoadConfigPath(path)
	assert.NoError(t, err)
	assert.True(t, conf.Has("server.enabled"))

	_, err = LoadConfigPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
