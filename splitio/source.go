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
	"syscall"

	"github.com/pkg/errors"
)

func newError(format string, args ...any) error {
	format = "splitio: " + format
	return errors.Errorf(format, args...)
}

var (
	CharCRLF = []byte("\r\n")
	CharCR   = []byte("\r")
	CharLF   = []byte("\n")
)

var (
	// ErrEmptyToken token 长度为 0 无法作为分隔符
	ErrEmptyToken = newError("empty token")

	// ErrInterrupted Source 暂时被中断 调用方应立即重试 Peek
	ErrInterrupted = newError("interrupted")

	// ErrWouldBlock Source 当前无可读数据 但数据流尚未结束
	ErrWouldBlock = newError("would block")

	// ErrScanDone 扫描已经处于结束态 不允许再次执行
	ErrScanDone = newError("scan already done")
)

// Source 分块字节流
//
// Peek 返回下一块可读数据但不消费 返回空切片且 err 为 nil 代表 EOF
// 返回的切片仅在下一次 Advance 之前有效 调用方不允许修改
//
// Advance 消费 n 字节 n 不会超过最近一次 Peek 返回的长度
type Source interface {
	Peek() ([]byte, error)
	Advance(n int)
}

// IsInterrupted 判断 err 是否为可立即重试的中断信号
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, syscall.EINTR)
}

// IsWouldBlock 判断 err 是否为 `暂无数据` 信号
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}

// IsTransient 判断 err 是否为非致命错误
func IsTransient(err error) bool {
	return IsInterrupted(err) || IsWouldBlock(err)
}

// peek 读取下一块数据 中断信号会被静默重试
func peek(src Source) ([]byte, error) {
	for {
		b, err := src.Peek()
		if err == nil {
			return b, nil
		}
		if IsInterrupted(err) {
			continue
		}
		return nil, err
	}
}

// write 将 p 写入 w 并返回写入字节数
func write(w io.Writer, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := w.Write(p)
	if err != nil {
		return n, err
	}
	if n != len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}
