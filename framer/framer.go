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

package framer

import (
	"fmt"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/packetd/streamsplit/internal/bufbytes"
	"github.com/packetd/streamsplit/splitio"
)

func newError(format string, args ...any) error {
	format = "framer: " + format
	return errors.Errorf(format, args...)
}

// Frame 数据流中以分隔符结尾(或者以 EOF 结尾)的一段数据
type Frame struct {
	Listener  string    `json:"listener,omitempty"`
	Conn      string    `json:"conn"`
	Index     int       `json:"index"`
	Size      int       `json:"size"`
	Found     bool      `json:"found"`
	Eol       string    `json:"eol,omitempty"`
	Hash      string    `json:"hash"`
	Truncated bool      `json:"truncated,omitempty"`
	Data      []byte    `json:"data,omitempty"`
	Time      time.Time `json:"time"`
}

// frameSink 计算整个 frame 的摘要 并保留不超过上限的数据
type frameSink struct {
	digest    *xxhash.Digest
	buf       *bufbytes.Bytes
	truncated bool
}

func newFrameSink(max int) *frameSink {
	return &frameSink{
		digest: xxhash.New(),
		buf:    bufbytes.New(max),
	}
}

func (s *frameSink) Write(p []byte) (int, error) {
	s.digest.Write(p)
	if !s.truncated {
		if _, err := s.buf.Write(p); err != nil {
			s.truncated = true
		}
	}
	return len(p), nil
}

func (s *frameSink) Reset() {
	s.digest.Reset()
	s.buf.Reset()
	s.truncated = false
}

type poller interface {
	Poll() (bool, error)
	Reset()
}

// Framer 将 Source 切分为连续的 Frame
//
// Source 返回 ErrWouldBlock 时扫描状态会被保留 待数据就绪后再次调用 Poll 即可
type Framer struct {
	conn  string
	mode  Mode
	sink  *frameSink
	index int
	eof   bool

	p  poller
	tp *splitio.TokenPoller
	lp *splitio.LinePoller
}

// New 创建并返回 *Framer 实例 conn 为数据流标识
func New(conn string, src splitio.Source, cfg Config) (*Framer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Framer{
		conn: conn,
		mode: cfg.Mode,
		sink: newFrameSink(cfg.MaxFrameSize),
	}

	switch cfg.Mode {
	case ModeToken:
		tp, err := splitio.NewTokenPoller(src, []byte(cfg.Token), f.sink)
		if err != nil {
			return nil, err
		}
		f.tp, f.p = tp, tp

	case ModeLine:
		lp := splitio.NewLinePoller(src, f.sink)
		f.lp, f.p = lp, lp
	}
	return f, nil
}

// Conn 返回数据流标识
func (f *Framer) Conn() string {
	return f.conn
}

// Poll 尝试切分出下一个 Frame
//
// 数据尚未就绪时返回 (nil, nil)
// 数据流结束后返回 io.EOF 以 EOF 结尾的空 frame 不会被返回
func (f *Framer) Poll() (*Frame, error) {
	if f.eof {
		return nil, io.EOF
	}

	done, err := f.p.Poll()
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, nil
	}

	frame := &Frame{
		Conn:      f.conn,
		Index:     f.index,
		Hash:      fmt.Sprintf("%016x", f.sink.digest.Sum64()),
		Truncated: f.sink.truncated,
		Data:      f.sink.buf.Clone(),
		Time:      time.Now(),
	}

	switch f.mode {
	case ModeToken:
		frame.Size, frame.Found = f.tp.Result()
	case ModeLine:
		var eol splitio.Eol
		frame.Size, eol = f.lp.Result()
		frame.Found = eol != splitio.EolNone
		frame.Eol = eol.String()
	}

	f.sink.Reset()
	f.p.Reset()

	if !frame.Found {
		f.eof = true
		if frame.Size == 0 {
			return nil, io.EOF
		}
	}
	f.index++
	return frame, nil
}

// Next 阻塞式地切分出下一个 Frame 适用于不会返回 ErrWouldBlock 的 Source
func (f *Framer) Next() (*Frame, error) {
	frame, err := f.Poll()
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, splitio.ErrWouldBlock
	}
	return frame, nil
}
