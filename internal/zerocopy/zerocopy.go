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

package zerocopy

import (
	"io"

	"github.com/packetd/streamsplit/splitio"
)

// Reader ZeroCopy-API
//
// Reader Read 零拷贝方式读取 n 字节数据
type Reader interface {
	Read(n int) ([]byte, error)
}

// Writer ZeroCopy-API
//
// Writer Write 零拷贝方式追加数据 写入不会失败
type Writer interface {
	Write(p []byte)
}

// Closer ZeroCopy-API
//
// Close 标记数据流已经结束 剩余数据读取完毕后 Reader 置为 EOF 状态
type Closer interface {
	Close()
}

// Buffer ZeroCopy-API
//
// 支持 Write/Read/Close 方法 同时实现了 splitio.Source 接口 此接口的所有操作均为零拷贝
type Buffer interface {
	Writer
	Reader
	Closer
	splitio.Source

	// Len 返回尚未消费的字节数
	Len() int

	// SetChunkSizes 设置每次 Peek 最多返回的字节数
	// 传入多个值时循环使用 用于模拟任意的分块边界
	SetChunkSizes(sizes ...int)
}

type buffer struct {
	r      int      // payloads[0] 已消费的偏移
	avail  int      // 当前 chunk 剩余未消费的字节数
	idx    int      // 下一个 chunk 使用的 sizes 下标
	sizes  []int    // chunk 大小序列
	bs     [][]byte // 待消费的 payload 队列
	closed bool
}

// NewBuffer 创建并返回 Buffer 实例
//
// 可以避免拷贝从网络中读取的数据 但前提条件是使用此接口的调用方 `不修改任何字节数据`
// p 不为空时会作为第一个 payload 写入
func NewBuffer(p []byte) Buffer {
	buf := &buffer{}
	buf.Write(p)
	return buf
}

// NewClosedBuffer 创建并返回已经处于 Close 状态的 Buffer 实例
func NewClosedBuffer(p []byte, sizes ...int) Buffer {
	buf := NewBuffer(p)
	buf.SetChunkSizes(sizes...)
	buf.Close()
	return buf
}

func (buf *buffer) SetChunkSizes(sizes ...int) {
	buf.sizes = sizes
	buf.idx = 0
}

func (buf *buffer) Len() int {
	var n int
	for _, b := range buf.bs {
		n += len(b)
	}
	return n - buf.r
}

// drop 丢弃已经消费完毕的 payload
func (buf *buffer) drop() {
	for len(buf.bs) > 0 && buf.r >= len(buf.bs[0]) {
		buf.bs[0] = nil
		buf.bs = buf.bs[1:]
		buf.r = 0
		buf.avail = 0
	}
}

func (buf *buffer) nextChunkSize() int {
	if len(buf.sizes) == 0 {
		return 0
	}
	n := buf.sizes[buf.idx%len(buf.sizes)]
	buf.idx++
	return n
}

// Peek 实现 splitio.Source 接口
//
// 当前 chunk 未被完全消费时 Peek 返回其剩余部分 否则按 chunk 大小序列切出新的 chunk
func (buf *buffer) Peek() ([]byte, error) {
	buf.drop()
	if len(buf.bs) == 0 {
		if buf.closed {
			return nil, nil
		}
		return nil, splitio.ErrWouldBlock
	}

	b := buf.bs[0][buf.r:]
	if buf.avail <= 0 {
		buf.avail = len(b)
		if n := buf.nextChunkSize(); n > 0 && n < len(b) {
			buf.avail = n
		}
	}
	if buf.avail < len(b) {
		b = b[:buf.avail]
	}
	return b, nil
}

// Advance 实现 splitio.Source 接口
func (buf *buffer) Advance(n int) {
	if n <= 0 || len(buf.bs) == 0 {
		return
	}
	if n > buf.avail {
		n = buf.avail
	}
	buf.r += n
	buf.avail -= n
}

// Read 实现 Reader 接口
func (buf *buffer) Read(n int) ([]byte, error) {
	buf.drop()
	if len(buf.bs) == 0 {
		return nil, io.EOF
	}

	buf.avail = 0
	b := buf.bs[0][buf.r:]
	if n >= len(b) {
		buf.r += len(b)
		return b, nil
	}

	buf.r += n
	return b[:n], nil
}

// Write 实现 Writer 接口 Close 之后的写入会被忽略
func (buf *buffer) Write(p []byte) {
	if buf.closed || len(p) == 0 {
		return
	}
	buf.bs = append(buf.bs, p)
}

// Close 实现 Closer 接口
func (buf *buffer) Close() {
	buf.closed = true
}
