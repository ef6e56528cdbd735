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

package mapstructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	type config struct {
		Size    int           `mapstructure:"size"`
		Enabled bool          `mapstructure:"enabled"`
		Timeout time.Duration `mapstructure:"timeout"`
	}

	var c config
	err := Decode(map[string]any{"size": "8", "enabled": "true", "timeout": "5s"}, &c)
	assert.NoError(t, err)
	assert.Equal(t, config{Size: 8, Enabled: true, Timeout: 5 * time.Second}, c)

	err = Decode(map[string]any{"size": "many"}, &c)
	assert.Error(t, err)
}
