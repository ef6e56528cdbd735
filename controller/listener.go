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

package controller

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/packetd/streamsplit/framer"
	"github.com/packetd/streamsplit/internal/fasttime"
	"github.com/packetd/streamsplit/internal/pubsub"
	"github.com/packetd/streamsplit/internal/rescue"
	"github.com/packetd/streamsplit/internal/zerocopy"
	"github.com/packetd/streamsplit/logger"
)

// idleConn 记录最近一次读到数据的时间
type idleConn struct {
	net.Conn
	last atomic.Int64
}

func newIdleConn(conn net.Conn) *idleConn {
	c := &idleConn{Conn: conn}
	c.last.Store(fasttime.UnixNano())
	return c
}

func (c *idleConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.last.Store(fasttime.UnixNano())
	}
	return n, err
}

func (c *idleConn) idle() time.Duration {
	return fasttime.Since(c.last.Load())
}

// listener 接收 TCP 链接 并将每条链接的数据流切分为 frame 后发布
type listener struct {
	cfg          ListenerConfig
	idleTimeout  time.Duration
	pollInterval time.Duration
	bus          *pubsub.PubSub[*framer.Frame]
	log          logger.Logger

	ln    net.Listener
	done  chan struct{}
	wg    sync.WaitGroup
	mut   sync.Mutex
	conns map[string]net.Conn
}

func newListener(cfg ListenerConfig, ctrCfg Config, bus *pubsub.PubSub[*framer.Frame]) *listener {
	return &listener{
		cfg:          cfg,
		idleTimeout:  ctrCfg.IdleTimeout,
		pollInterval: ctrCfg.PollInterval,
		bus:          bus,
		log:          logger.With("listener", cfg.Name),
		conns:        make(map[string]net.Conn),
	}
}

func (l *listener) listen() error {
	ln, err := net.Listen("tcp", l.cfg.Address)
	if err != nil {
		return errors.Wrapf(err, "listener %s", l.cfg.Name)
	}
	l.ln = ln
	l.done = make(chan struct{})
	l.log.Infof("listening on %s (mode=%s)", ln.Addr(), l.cfg.Mode)
	return nil
}

func (l *listener) addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

func (l *listener) serve(ctx context.Context) {
	defer close(l.done)

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			l.log.Warnf("failed to accept connection: %v", err)
			continue
		}

		acceptedConnections.WithLabelValues(l.cfg.Name).Inc()
		id := uuid.New().String()
		l.track(id, conn)

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer rescue.HandleCrash()
			defer l.untrack(id)

			l.handle(ctx, id, conn)
		}()
	}
}

func (l *listener) track(id string, conn net.Conn) {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.conns[id] = conn
	activeConnections.WithLabelValues(l.cfg.Name).Inc()
}

func (l *listener) untrack(id string) {
	l.mut.Lock()
	defer l.mut.Unlock()

	if conn, ok := l.conns[id]; ok {
		conn.Close()
		delete(l.conns, id)
		activeConnections.WithLabelValues(l.cfg.Name).Dec()
	}
}

func (l *listener) handle(ctx context.Context, id string, conn net.Conn) {
	log := l.log.With("conn", id, "remote", conn.RemoteAddr().String())
	log.Debugf("connection accepted")

	ic := newIdleConn(conn)
	f, err := framer.New(id, zerocopy.NewBlockReader(ic, l.cfg.BlockSize), l.cfg.Config)
	if err != nil {
		log.Errorf("failed to create framer: %v", err)
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(l.pollInterval)); err != nil {
			log.Debugf("failed to set read deadline: %v", err)
			return
		}

		frame, err := f.Poll()
		if errors.Is(err, io.EOF) {
			log.Debugf("connection closed by peer")
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				log.Warnf("connection aborted: %v", err)
			}
			return
		}

		if frame == nil {
			if ic.idle() >= l.idleTimeout {
				log.Infof("connection idle for %s, closing", l.idleTimeout)
				return
			}
			continue
		}

		frame.Listener = l.cfg.Name
		framesTotal.WithLabelValues(l.cfg.Name, strconv.FormatBool(frame.Found)).Inc()
		streamedBytes.WithLabelValues(l.cfg.Name).Add(float64(frame.Size))
		l.bus.Publish(frame)
	}
}

// abort 关闭尚未开始 serve 的 listener
func (l *listener) abort() {
	if l.ln != nil {
		l.ln.Close()
		l.ln = nil
	}
}

// close 停止接收新链接并关闭所有活跃链接
func (l *listener) close() error {
	if l.ln == nil {
		return nil
	}
	err := l.ln.Close()
	<-l.done

	l.mut.Lock()
	for _, conn := range l.conns {
		conn.Close()
	}
	l.mut.Unlock()

	l.wg.Wait()
	return err
}
