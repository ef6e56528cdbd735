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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/packetd/streamsplit/common"
	"github.com/packetd/streamsplit/internal/json"
	"github.com/packetd/streamsplit/logger"
)

func (c *Controller) setupServer() {
	if c.svr == nil {
		return
	}

	// Admin Routes
	c.svr.RegisterGetRoute("/-/healthy", c.routeHealthy)
	c.svr.RegisterPostRoute("/-/logger", c.routeLogger)

	// Watch Routes
	c.svr.RegisterGetRoute("/watch", c.routeWatch)

	// Metrics Routes
	c.svr.RegisterGetRoute("/metrics", c.routeMetrics)
}

func (c *Controller) routeMetrics(w http.ResponseWriter, r *http.Request) {
	c.recordMetrics()
	promhttp.Handler().ServeHTTP(w, r)
}

func (c *Controller) routeHealthy(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{"status": "success"}`))
}

func (c *Controller) routeLogger(w http.ResponseWriter, r *http.Request) {
	level := r.FormValue("level")
	logger.SetLoggerLevel(level)
	w.Write([]byte(`{"status": "success"}`))
}

const (
	defaultWatchMessages = 100
	defaultWatchTimeout  = 5 * time.Second
)

type watchQuery struct {
	maxMessage int
	timeout    time.Duration
	listener   string
	withData   bool
}

func parseWatchQuery(r *http.Request) (watchQuery, error) {
	opts := common.NewOptions()
	for k := range r.URL.Query() {
		opts.Merge(k, r.URL.Query().Get(k))
	}

	q := watchQuery{
		maxMessage: defaultWatchMessages,
		timeout:    defaultWatchTimeout,
	}
	if opts.Has("max_message") {
		n, err := opts.GetInt("max_message")
		if err != nil || n <= 0 {
			return q, newError("invalid max_message %q", r.URL.Query().Get("max_message"))
		}
		q.maxMessage = n
	}
	if opts.Has("timeout") {
		d, err := opts.GetDuration("timeout")
		if err != nil || d <= 0 {
			return q, newError("invalid timeout %q", r.URL.Query().Get("timeout"))
		}
		q.timeout = d
	}
	if opts.Has("data") {
		q.withData, _ = opts.GetBool("data")
	}
	q.listener, _ = opts.GetString("listener")
	return q, nil
}

// routeWatch 以 JSON Lines 格式持续输出新切分出来的 frame
//
// 支持 max_message / timeout / listener / data 查询参数 timeout 为整个请求的最长时间
func (c *Controller) routeWatch(w http.ResponseWriter, r *http.Request) {
	query, err := parseWatchQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	queue := c.Subscribe(query.maxMessage)
	defer c.Unsubscribe(queue)

	ctx, cancel := context.WithTimeout(r.Context(), query.timeout)
	defer cancel()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for sent := 0; sent < query.maxMessage; {
		frame, ok := queue.Pop(ctx)
		if !ok {
			return
		}
		if query.listener != "" && frame.Listener != query.listener {
			continue
		}
		if !query.withData {
			cloned := *frame
			cloned.Data = nil
			frame = &cloned
		}
		if err := enc.Encode(frame); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		sent++
	}
}
