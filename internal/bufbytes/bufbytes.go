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

package bufbytes

import (
	"github.com/pkg/errors"
)

// ErrTooLong 写入的数据超过了 Bytes 的容量上限
var ErrTooLong = errors.New("bufbytes: too long")

// Bytes 有容量上限的 io.Writer
//
// 超出上限的部分会被截断 并返回 ErrTooLong
// size <= 0 代表不限制容量
type Bytes struct {
	size int
	buf  []byte
}

func New(size int) *Bytes {
	return &Bytes{
		size: size,
	}
}

// Write 实现 io.Writer 接口
func (b *Bytes) Write(p []byte) (int, error) {
	if b.size <= 0 {
		b.buf = append(b.buf, p...)
		return len(p), nil
	}

	l := b.size - len(b.buf)
	if l >= len(p) {
		b.buf = append(b.buf, p...)
		return len(p), nil
	}

	if l > 0 {
		b.buf = append(b.buf, p[:l]...)
	} else {
		l = 0
	}
	return l, ErrTooLong
}

func (b *Bytes) Len() int {
	return len(b.buf)
}

// Cap 返回容量上限
func (b *Bytes) Cap() int {
	return b.size
}

// Bytes 返回已写入的内容 下一次 Write/Reset 之后失效
func (b *Bytes) Bytes() []byte {
	return b.buf
}

func (b *Bytes) Text() string {
	return string(b.buf)
}

func (b *Bytes) Clone() []byte {
	if b.buf == nil {
		return nil
	}
	return append([]byte{}, b.buf...)
}

func (b *Bytes) Reset() {
	b.buf = b.buf[:0]
}
