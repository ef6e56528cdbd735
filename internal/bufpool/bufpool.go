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

package bufpool

import (
	"github.com/valyala/bytebufferpool"
)

var pool bytebufferpool.Pool

// Acquire 从池中获取 *bytebufferpool.ByteBuffer 实例 使用完毕后需调用 Release 归还
func Acquire() *bytebufferpool.ByteBuffer {
	return pool.Get()
}

// Release 归还 *bytebufferpool.ByteBuffer 实例 归还后不允许再使用
func Release(b *bytebufferpool.ByteBuffer) {
	if b == nil {
		return
	}
	pool.Put(b)
}
