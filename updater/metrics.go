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

package updater

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
	resultError    = "error"
)

type updaterMetrics struct {
	attestationsTotal   *prometheus.CounterVec
	attestationDuration prometheus.Histogram
	lastAttestedSlot    prometheus.Gauge
	rejectionsTotal     *prometheus.CounterVec
}

func (m *updaterMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.attestationsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftvoter_attestations_total",
			Help: "voter weight update attempts by result",
		},
		[]string{"result"},
	)
	m.rejectionsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftvoter_attestation_rejections_total",
			Help: "rejected voter weight updates by error kind",
		},
		[]string{"kind"},
	)
	m.attestationDuration = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nftvoter_attestation_duration_seconds",
			Help:    "time spent processing a voter weight update",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
	)
	m.lastAttestedSlot = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "nftvoter_last_attested_slot",
		Help: "slot of the most recent successful attestation",
	})
}
