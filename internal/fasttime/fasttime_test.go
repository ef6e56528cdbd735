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

package fasttime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnixNano(t *testing.T) {
	start := UnixNano()
	assert.InDelta(t, time.Now().UnixNano(), start, float64(2*Resolution))

	assert.Eventually(t, func() bool {
		return Since(start) >= Resolution
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, time.Duration(0), Since(start+int64(time.Hour)))
}
