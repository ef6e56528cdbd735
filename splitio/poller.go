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
	"context"
	"io"
)

// ErrStalled ready 信号已经关闭 但 Source 仍然没有可读数据
var ErrStalled = newError("source stalled")

type resumable interface {
	Run(src Source, w io.Writer) error
	Done() bool
	Reset()
}

// Poller 非阻塞场景下驱动一次完整的扫描
//
// Source 返回 ErrWouldBlock 时 Poll 返回 (false, nil) 由调用方在数据就绪后再次调用
// 扫描的中间状态(候选前缀 / 暂存的 `\r`) 保存在 Poller 中 不会因为多次 Poll 而丢失
type Poller struct {
	src Source
	w   io.Writer
	sc  resumable
}

// Poll 继续执行扫描 返回扫描是否已经结束
//
// 扫描结束后再次调用 Poll 会返回 ErrScanDone
func (p *Poller) Poll() (bool, error) {
	err := p.sc.Run(p.src, p.w)
	if err == nil {
		return true, nil
	}
	if IsWouldBlock(err) {
		return false, nil
	}
	return false, err
}

// Reset 重置扫描状态 以便在同一个 Source 上开始下一次扫描
func (p *Poller) Reset() {
	p.sc.Reset()
}

// Wait 每次收到 ready 信号后执行 Poll 直到扫描结束 ctx 取消或者出现错误
//
// ready 被关闭后仅会再 Poll 一次
func (p *Poller) Wait(ctx context.Context, ready <-chan struct{}) error {
	for {
		done, err := p.Poll()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case _, ok := <-ready:
			if ok {
				continue
			}
			done, err := p.Poll()
			if err != nil {
				return err
			}
			if !done {
				return ErrStalled
			}
			return nil
		}
	}
}

// TokenPoller 非阻塞版本的 StreamUntilToken
type TokenPoller struct {
	Poller
	ts *TokenScan
}

// NewTokenPoller 创建并返回 *TokenPoller 实例
func NewTokenPoller(src Source, token []byte, w io.Writer) (*TokenPoller, error) {
	ts, err := NewTokenScan(token)
	if err != nil {
		return nil, err
	}
	return &TokenPoller{
		Poller: Poller{src: src, w: w, sc: ts},
		ts:     ts,
	}, nil
}

// Result 返回已写入的字节数以及是否找到 token 仅在扫描结束后有意义
func (tp *TokenPoller) Result() (int, bool) {
	return tp.ts.Streamed(), tp.ts.Found()
}

// LinePoller 非阻塞版本的 StreamLine
type LinePoller struct {
	Poller
	ls *LineScan
}

// NewLinePoller 创建并返回 *LinePoller 实例
func NewLinePoller(src Source, w io.Writer) *LinePoller {
	ls := &LineScan{}
	return &LinePoller{
		Poller: Poller{src: src, w: w, sc: ls},
		ls:     ls,
	}
}

// Result 返回已写入的字节数以及行结束符类型 仅在扫描结束后有意义
func (lp *LinePoller) Result() (int, Eol) {
	return lp.ls.Streamed(), lp.ls.Eol()
}
