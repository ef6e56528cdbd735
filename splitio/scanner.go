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

package splitio

import (
	"github.com/packetd/streamsplit/internal/bufbytes"
)

// MaxSegmentSize Scanner 默认允许的单个分段最大长度
const MaxSegmentSize = 64 * 1024

// Scanner 按 token 将 Source 切割成若干分段
//
// 用法与 *bufio.Scanner 类似 但不会缓存完整的 chunk 分段内容直接写入内部的有界 buffer
// Bytes 返回的切片在下一次 Scan 之后失效 如有修改需求 请拷贝一份
type Scanner struct {
	src   Source
	ts    *TokenScan
	buf   *bufbytes.Bytes
	found bool
	done  bool
	err   error
}

// NewScanner 创建并返回 *Scanner 实例
func NewScanner(src Source, token []byte) *Scanner {
	ts, err := NewTokenScan(token)
	return &Scanner{
		src:  src,
		ts:   ts,
		buf:  bufbytes.New(MaxSegmentSize),
		done: err != nil,
		err:  err,
	}
}

// Buffer 设置单个分段的最大长度 需要在 Scan 之前调用
func (s *Scanner) Buffer(max int) {
	s.buf = bufbytes.New(max)
}

// Scan 扫描下一个分段
//
// 到达 EOF 时 末尾非空的分段依旧会被返回 此时 Found 为 false
// Source 返回 ErrWouldBlock 时 Scan 返回 false 且 Err 为 ErrWouldBlock
// 待 Source 有新数据后再次调用 Scan 会从中断处继续
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	if s.ts.Done() {
		s.ts.Reset()
		s.buf.Reset()
	}

	s.err = s.ts.Run(s.src, s.buf)
	if s.err != nil {
		if !IsWouldBlock(s.err) {
			s.done = true
		}
		return false
	}

	s.found = s.ts.Found()
	if !s.found {
		s.done = true
		return s.buf.Len() > 0
	}
	return true
}

// Bytes 返回当前分段 不包含 token
func (s *Scanner) Bytes() []byte {
	return s.buf.Bytes()
}

// Found 返回当前分段是否以 token 结尾
func (s *Scanner) Found() bool {
	return s.found
}

// Err 返回扫描过程中出现的错误 EOF 不视为错误
func (s *Scanner) Err() error {
	return s.err
}
