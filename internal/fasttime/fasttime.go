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
	"sync/atomic"
	"time"
)

// Resolution 缓存时间的刷新间隔
const Resolution = 100 * time.Millisecond

func init() {
	go func() {
		ticker := time.NewTicker(Resolution)
		defer ticker.Stop()
		for tm := range ticker.C {
			atomic.StoreInt64(&currentNano, tm.UnixNano())
		}
	}()
}

var currentNano = time.Now().UnixNano()

// UnixNano 获取缓存的 unix 纳秒时间戳 精度为 Resolution 性能更快
func UnixNano() int64 {
	return atomic.LoadInt64(&currentNano)
}

// Since 返回距离 ns 经过的时间 结果不会小于 0
func Since(ns int64) time.Duration {
	d := time.Duration(UnixNano() - ns)
	if d < 0 {
		return 0
	}
	return d
}
