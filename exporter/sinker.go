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

package exporter

import (
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/packetd/streamsplit/framer"
	"github.com/packetd/streamsplit/internal/bufpool"
	"github.com/packetd/streamsplit/internal/json"
)

// Sinker 负责将 frame `写入` 到指定存储中
type Sinker interface {
	// Name Sinker 名称
	Name() string

	// Sink 写入函数
	Sink(frame *framer.Frame) error

	// Close 关闭并进行资源清理
	Close() error
}

type CreateFunc func(FramesConfig) (Sinker, error)

var sinkFactory = map[string]CreateFunc{}

func Get(name string) CreateFunc {
	return sinkFactory[name]
}

func Register(name string, createFunc CreateFunc) {
	sinkFactory[name] = createFunc
}

const (
	SinkerConsole = "console"
	SinkerFile    = "file"
)

func init() {
	Register(SinkerConsole, func(conf FramesConfig) (Sinker, error) {
		return NewWriterSinker(SinkerConsole, os.Stdout, conf.WithData), nil
	})
	Register(SinkerFile, func(conf FramesConfig) (Sinker, error) {
		if conf.Filename == "" {
			return nil, newError("file sinker requires filename")
		}
		return NewWriterSinker(SinkerFile, &lumberjack.Logger{
			Filename:   conf.Filename,
			MaxSize:    conf.MaxSize,
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAge,
			LocalTime:  true,
		}, conf.WithData), nil
	})
}

// writerSinker 将 frame 以 JSON Lines 格式写入 io.Writer
type writerSinker struct {
	name     string
	withData bool

	mut sync.Mutex
	w   io.Writer
}

// NewWriterSinker 创建并返回写入 w 的 Sinker 实例
//
// withData 为 false 时不输出 frame 数据本身
// 若 w 实现了 io.Closer 会在 Close 时一并关闭(os.Stdout / os.Stderr 除外)
func NewWriterSinker(name string, w io.Writer, withData bool) Sinker {
	return &writerSinker{
		name:     name,
		withData: withData,
		w:        w,
	}
}

func (s *writerSinker) Name() string {
	return s.name
}

func (s *writerSinker) Sink(frame *framer.Frame) error {
	if !s.withData && frame.Data != nil {
		cloned := *frame
		cloned.Data = nil
		frame = &cloned
	}

	buf := bufpool.Acquire()
	defer bufpool.Release(buf)

	if err := json.NewEncoder(buf).Encode(frame); err != nil {
		return err
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	_, err := s.w.Write(buf.B)
	return err
}

func (s *writerSinker) Close() error {
	if s.w == os.Stdout || s.w == os.Stderr {
		return nil
	}
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
