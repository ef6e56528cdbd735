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

package common

import (
	"runtime"
	"time"
)

// Concurrency 返回默认的并发度
//
// 以 GOMAXPROCS 为准 容器环境下其值由 automaxprocs 根据 CPU quota 调整
func Concurrency() int {
	return runtime.GOMAXPROCS(0) * 2
}

var started = time.Now()

// Uptime 返回进程已运行的时长
func Uptime() time.Duration {
	return time.Since(started)
}
