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
	"os"
	"syscall"

	"github.com/pkg/errors"

	"github.com/packetd/streamsplit/common"
	"github.com/packetd/streamsplit/splitio"
)

const maxConsecutiveEmptyReads = 100

// BlockReader 以固定大小的 block 读取 io.Reader 并实现 splitio.Source 接口
//
// 与 *bufio.Reader 不同 BlockReader 只有在当前 block 被完全消费后才会再次读取
// 因此每次 Peek 返回的 chunk 边界完全由底层 io.Reader 决定
type BlockReader struct {
	rd   io.Reader
	buf  []byte
	r, w int
	err  error
}

// NewBlockReader 创建并返回 *BlockReader 实例 size <= 0 时使用 common.ReadWriteBlockSize
func NewBlockReader(rd io.Reader, size int) *BlockReader {
	if size <= 0 {
		size = common.ReadWriteBlockSize
	}
	return &BlockReader{
		rd:  rd,
		buf: make([]byte, size),
	}
}

// Size 返回 block 大小
func (br *BlockReader) Size() int {
	return len(br.buf)
}

// Buffered 返回当前 block 中尚未消费的字节数
func (br *BlockReader) Buffered() int {
	return br.w - br.r
}

// Peek 实现 splitio.Source 接口
//
// * io.EOF 返回空 chunk
// * syscall.EINTR 转换为 splitio.ErrInterrupted
// * 读超时(os.ErrDeadlineExceeded) 转换为 splitio.ErrWouldBlock
// * 其余错误原样返回 且之后的 Peek 均返回该错误
func (br *BlockReader) Peek() ([]byte, error) {
	if br.r < br.w {
		return br.buf[br.r:br.w], nil
	}
	if br.err != nil {
		return nil, br.sticky()
	}

	br.r, br.w = 0, 0
	for i := 0; i < maxConsecutiveEmptyReads; i++ {
		n, err := br.rd.Read(br.buf)
		if n < 0 {
			return nil, errors.New("zerocopy: reader returned negative count")
		}
		br.w = n

		switch {
		case err == nil:
		case errors.Is(err, syscall.EINTR):
			err = splitio.ErrInterrupted
		case errors.Is(err, os.ErrDeadlineExceeded):
			err = splitio.ErrWouldBlock
		default:
			br.err = err
		}

		if n > 0 {
			return br.buf[:n], nil
		}
		if br.err != nil {
			return nil, br.sticky()
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, io.ErrNoProgress
}

func (br *BlockReader) sticky() error {
	if br.err == io.EOF {
		return nil
	}
	return br.err
}

// Advance 实现 splitio.Source 接口
func (br *BlockReader) Advance(n int) {
	if n <= 0 {
		return
	}
	if n > br.w-br.r {
		n = br.w - br.r
	}
	br.r += n
}
