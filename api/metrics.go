// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type apiMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func (m *apiMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.requestsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftvoter_api_requests_total",
			Help: "total API requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)
	m.requestDuration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nftvoter_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

func (m *apiMetrics) observe(
	method string,
	route string,
	status int,
	elapsed time.Duration,
) {
	m.requestsTotal.WithLabelValues(
		method,
		route,
		strconv.Itoa(status),
	).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
