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

const (
	// App 应用程序名称
	App = "streamsplit"

	// Version 应用程序版本
	Version = "v0.0.1"

	// ReadWriteBlockSize 默认的 block 长度
	//
	// 每次从链接中读取的数据不会超过此长度 分隔符可能横跨多个 block
	// 过大的 block 会为每条链接带来额外的内存开销
	ReadWriteBlockSize = 4096

	// MaxFrameSize 默认的单个 frame 最大长度
	MaxFrameSize = 1024 * 1024
)
