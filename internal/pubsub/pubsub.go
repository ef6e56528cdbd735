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

package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Queue PubSub 返回的订阅队列实例
type Queue[T any] interface {
	// ID 队列唯一标识
	ID() string

	// Pop 从队列中弹出一个元素 操作会 block 直到有元素或者 ctx 结束
	Pop(ctx context.Context) (T, bool)

	// PopTimeout 从队列中弹出一个元素 操作会 block 直到有元素或者超时
	PopTimeout(timeout time.Duration) (T, bool)

	// Push 推送一个元素至队列中 队列已满时丢弃并返回 false
	Push(data T) bool

	// Dropped 返回因队列已满而被丢弃的元素数量
	Dropped() uint64

	// Close 关闭并清理队列
	Close()
}

// channel 为 Queue 的一种实现
type channel[T any] struct {
	id      string
	ch      chan T
	dropped atomic.Uint64
	closed  atomic.Bool
}

func newChannel[T any](size int) *channel[T] {
	if size <= 0 {
		size = 1
	}

	return &channel[T]{
		id: uuid.New().String(),
		ch: make(chan T, size),
	}
}

func (ch *channel[T]) ID() string {
	return ch.id
}

func (ch *channel[T]) Pop(ctx context.Context) (T, bool) {
	var zero T
	if ch.closed.Load() {
		return zero, false
	}

	select {
	case data, ok := <-ch.ch:
		return data, ok

	case <-ctx.Done():
		return zero, false
	}
}

func (ch *channel[T]) PopTimeout(timeout time.Duration) (T, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return ch.Pop(ctx)
}

func (ch *channel[T]) Push(data T) bool {
	if ch.closed.Load() {
		return false
	}

	select {
	case ch.ch <- data:
		return true
	default:
		ch.dropped.Add(1)
		return false
	}
}

func (ch *channel[T]) Dropped() uint64 {
	return ch.dropped.Load()
}

func (ch *channel[T]) Close() {
	if ch.closed.CompareAndSwap(false, true) {
		close(ch.ch)
	}
}

// PubSub 将发布的消息广播给所有订阅者 订阅者之间互不阻塞
type PubSub[T any] struct {
	mut    sync.RWMutex
	queues map[string]Queue[T]
}

func New[T any]() *PubSub[T] {
	return &PubSub[T]{
		queues: make(map[string]Queue[T]),
	}
}

func (p *PubSub[T]) Num() int {
	p.mut.RLock()
	defer p.mut.RUnlock()

	return len(p.queues)
}

func (p *PubSub[T]) Subscribe(size int) Queue[T] {
	p.mut.Lock()
	defer p.mut.Unlock()

	ch := newChannel[T](size)
	p.queues[ch.ID()] = ch
	return ch
}

func (p *PubSub[T]) Publish(msg T) {
	p.mut.RLock()
	defer p.mut.RUnlock()

	for _, q := range p.queues {
		q.Push(msg)
	}
}

// Unsubscribe 取消订阅并关闭队列
func (p *PubSub[T]) Unsubscribe(q Queue[T]) {
	p.mut.Lock()
	defer p.mut.Unlock()

	delete(p.queues, q.ID())
	q.Close()
}
