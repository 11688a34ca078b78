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

package node

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type nodeMetrics struct {
	currentSlot  prometheus.Gauge
	currentEpoch prometheus.Gauge
}

func (m *nodeMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.currentSlot = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "nftvoter_current_slot",
		Help: "current slot according to the slot clock",
	})
	m.currentEpoch = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "nftvoter_current_epoch",
		Help: "current epoch according to the slot clock",
	})
}
