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

// StreamUntilToken 将 src 中 token 之前的所有字节写入 w 并消费掉 token 本身
//
// 返回写入 w 的字节数(不包含 token) 以及是否找到了 token
// 未找到 token 代表 src 已经到达 EOF 此时 src 所有剩余字节均已写入 w
//
// src 返回的 ErrInterrupted 会被静默重试 其余错误原样返回
// 出错前已经写入 w 的数据不会回滚
func StreamUntilToken(src Source, token []byte, w io.Writer) (int, bool, error) {
	ts, err := NewTokenScan(token)
	if err != nil {
		return 0, false, err
	}

	err = ts.Run(src, w)
	return ts.Streamed(), ts.Found(), err
}

// TokenScan 记录一次 token 扫描的中间状态
//
// token 可能横跨多个 chunk 因此每个 chunk 末尾与 token 前缀相同的部分需要暂存
// 等待下一个 chunk 到来后才能确定其是否为 token 的开头
//
// prefixes 按由长到短的顺序记录所有候选前缀长度 token 存在内部周期时(如 `barbarian`)
// 同一个 chunk 末尾可能同时匹配多个不同长度的前缀 所以不能只记录最长的一个
// 暂存的字节恒等于 token[:prefixes[0]] 因此无需额外拷贝
type TokenScan struct {
	token    []byte
	prefixes []int
	spare    []int
	streamed int
	found    bool
	done     bool
}

// NewTokenScan 创建并返回 *TokenScan 实例 token 不允许为空
func NewTokenScan(token []byte) (*TokenScan, error) {
	if len(token) == 0 {
		return nil, ErrEmptyToken
	}

	return &TokenScan{
		token:    token,
		prefixes: make([]int, 0, len(token)),
		spare:    make([]int, 0, len(token)),
	}, nil
}

// Reset 重置扫描状态 以便复用同一实例进行下一次扫描
func (ts *TokenScan) Reset() {
	ts.prefixes = ts.prefixes[:0]
	ts.streamed = 0
	ts.found = false
	ts.done = false
}

// Streamed 返回已经写入的字节数
func (ts *TokenScan) Streamed() int {
	return ts.streamed
}

// Found 返回是否已经找到 token
func (ts *TokenScan) Found() bool {
	return ts.found
}

// Done 返回扫描是否已经结束
func (ts *TokenScan) Done() bool {
	return ts.done
}

// Run 持续处理 src 直到找到 token 或者到达 EOF
//
// Run 返回 ErrWouldBlock 等错误时扫描状态不会丢失 待 src 有新数据后可再次调用 Run 继续扫描
func (ts *TokenScan) Run(src Source, w io.Writer) error {
	if ts.done {
		return ErrScanDone
	}

	for {
		b, err := peek(src)
		if err != nil {
			return err
		}

		// EOF 暂存的前缀已经不可能成为 token 按普通数据写出
		if len(b) == 0 {
			if len(ts.prefixes) > 0 {
				held := ts.prefixes[0]
				ts.prefixes = ts.prefixes[:0]
				if err := ts.emit(w, ts.token[:held]); err != nil {
					return err
				}
			}
			ts.done = true
			return nil
		}

		used, err := ts.next(b, w)
		if err != nil {
			return err
		}
		src.Advance(used)

		if ts.found {
			ts.done = true
			return nil
		}
	}
}

// next 处理单个 chunk 并返回需要消费的字节数
func (ts *TokenScan) next(b []byte, w io.Writer) (int, error) {
	token := ts.token

	// 1) 尝试用 chunk 的开头补全上一个 chunk 遗留的候选前缀
	if len(ts.prefixes) > 0 {
		held := ts.prefixes[0]
		grown := ts.spare[:0]

		for _, p := range ts.prefixes {
			need := len(token) - p
			if len(b) >= need {
				if !bytes.Equal(b[:need], token[p:]) {
					continue
				}
				// 比 p 更长的候选均已失败 其多出来的部分是普通数据
				ts.prefixes = ts.prefixes[:0]
				if err := ts.emit(w, token[:held-p]); err != nil {
					return 0, err
				}
				ts.found = true
				return need, nil
			}

			// chunk 不足以补全 但目前为止仍然匹配 候选前缀增长
			if bytes.Equal(b, token[p:p+len(b)]) {
				grown = append(grown, p+len(b))
			}
		}

		// 存活下来的最长候选之前的字节已被证实不是 token 的一部分
		var alive int
		if len(grown) > 0 {
			alive = grown[0] - len(b)
		}
		ts.spare = ts.prefixes[:0]
		ts.prefixes = grown
		if err := ts.emit(w, token[:held-alive]); err != nil {
			return 0, err
		}
	}

	// 2) 候选前缀有增长时 chunk 长度必然小于 token 不可能在其内部完整出现
	if len(ts.prefixes) == 0 {
		if i := bytes.Index(b, token); i >= 0 {
			if err := ts.emit(w, b[:i]); err != nil {
				return 0, err
			}
			ts.found = true
			return i + len(token), nil
		}
	}

	// 3) 记录 chunk 末尾所有与 token 前缀相同的部分 由长到短
	var reserve int
	if len(ts.prefixes) > 0 {
		reserve = len(b)
	}

	window := len(token) - 1
	if len(b) < window {
		window = len(b)
	}
	for n := window; n > 0; n-- {
		if !bytes.Equal(b[len(b)-n:], token[:n]) {
			continue
		}
		if reserve == 0 {
			reserve = n
		}
		ts.prefixes = append(ts.prefixes, n)
	}

	if err := ts.emit(w, b[:len(b)-reserve]); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (ts *TokenScan) emit(w io.Writer, p []byte) error {
	n, err := write(w, p)
	ts.streamed += n
	return err
}
