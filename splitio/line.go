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
	"bytes"
	"io"
)

// Eol 行结束符类型
type Eol uint8

const (
	// EolNone 到达 EOF 前未找到任何行结束符
	EolNone Eol = iota
	EolLF
	EolCRLF
)

func (e Eol) String() string {
	switch e {
	case EolLF:
		return "LF"
	case EolCRLF:
		return "CRLF"
	}
	return ""
}

// Bytes 返回行结束符对应的字节序列
func (e Eol) Bytes() []byte {
	switch e {
	case EolLF:
		return CharLF
	case EolCRLF:
		return CharCRLF
	}
	return nil
}

// StreamLine 将 src 中下一个 LF 或 CRLF 之前的所有字节写入 w 并消费掉行结束符
//
// 返回写入 w 的字节数(不包含行结束符) 以及找到的行结束符类型
// 返回 EolNone 代表 src 已经到达 EOF
// 单独出现的 `\r` 作为普通数据处理
func StreamLine(src Source, w io.Writer) (int, Eol, error) {
	var ls LineScan
	err := ls.Run(src, w)
	return ls.Streamed(), ls.Eol(), err
}

// LineScan 记录一次行扫描的中间状态
//
// 相比 TokenScan 只需要一个标记位来记录 chunk 末尾被暂存的 `\r`
type LineScan struct {
	heldbackCR bool
	streamed   int
	eol        Eol
	done       bool
}

// Reset 重置扫描状态
func (ls *LineScan) Reset() {
	*ls = LineScan{}
}

func (ls *LineScan) Streamed() int {
	return ls.streamed
}

func (ls *LineScan) Eol() Eol {
	return ls.eol
}

func (ls *LineScan) Done() bool {
	return ls.done
}

// Run 持续处理 src 直到找到行结束符或者到达 EOF
func (ls *LineScan) Run(src Source, w io.Writer) error {
	if ls.done {
		return ErrScanDone
	}

	for {
		b, err := peek(src)
		if err != nil {
			return err
		}

		if len(b) == 0 {
			if ls.heldbackCR {
				ls.heldbackCR = false
				if err := ls.emit(w, CharCR); err != nil {
					return err
				}
			}
			ls.done = true
			return nil
		}

		used, err := ls.next(b, w)
		if err != nil {
			return err
		}
		src.Advance(used)

		if ls.eol != EolNone {
			ls.done = true
			return nil
		}
	}
}

func (ls *LineScan) next(b []byte, w io.Writer) (int, error) {
	if ls.heldbackCR {
		ls.heldbackCR = false
		if b[0] == CharLF[0] {
			ls.eol = EolCRLF
			return 1, nil
		}
		// 上一个 chunk 末尾的 `\r` 不是行结束符的一部分
		if err := ls.emit(w, CharCR); err != nil {
			return 0, err
		}
	}

	if i := bytes.IndexByte(b, CharLF[0]); i >= 0 {
		if i > 0 && b[i-1] == CharCR[0] {
			ls.eol = EolCRLF
			return i + 1, ls.emit(w, b[:i-1])
		}
		ls.eol = EolLF
		return i + 1, ls.emit(w, b[:i])
	}

	if b[len(b)-1] == CharCR[0] {
		ls.heldbackCR = true
		return len(b), ls.emit(w, b[:len(b)-1])
	}
	return len(b), ls.emit(w, b)
}

func (ls *LineScan) emit(w io.Writer, p []byte) error {
	n, err := write(w, p)
	ls.streamed += n
	return err
}
