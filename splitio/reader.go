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
	"io"

	"github.com/packetd/streamsplit/internal/bufbytes"
)

// Reader 按行读取 Source 行结束符为 LF 或者 CRLF
type Reader struct {
	src Source
	ls  LineScan
	buf *bufbytes.Bytes
	eof bool
}

// NewReader 创建并返回 *Reader 实例
//
// 返回的行内容不包含行结束符 行结束符类型由 ReadLine 单独返回
func NewReader(src Source) *Reader {
	return &Reader{
		src: src,
		buf: bufbytes.New(MaxSegmentSize),
	}
}

// Buffer 设置单行的最大长度 需要在 ReadLine 之前调用
func (lr *Reader) Buffer(max int) {
	lr.buf = bufbytes.New(max)
}

// ReadLine 读取下一行数据 返回的切片在下一次 ReadLine 之后失效
//
// 到达 EOF 且无任何剩余数据时返回 io.EOF
func (lr *Reader) ReadLine() ([]byte, Eol, error) {
	if lr.eof {
		return nil, EolNone, io.EOF
	}
	if lr.ls.Done() {
		lr.ls.Reset()
		lr.buf.Reset()
	}

	if err := lr.ls.Run(lr.src, lr.buf); err != nil {
		if !IsWouldBlock(err) {
			lr.eof = true
		}
		return nil, EolNone, err
	}

	eol := lr.ls.Eol()
	if eol == EolNone {
		lr.eof = true
		if lr.buf.Len() == 0 {
			return nil, EolNone, io.EOF
		}
	}
	return lr.buf.Bytes(), eol, nil
}

// EOF 返回 Reader 是否已到达 EOF
func (lr *Reader) EOF() bool {
	return lr.eof
}
