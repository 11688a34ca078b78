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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/nftvoter/api"
	"github.com/blinklabs-io/nftvoter/chaintime"
	"github.com/blinklabs-io/nftvoter/database"
	"github.com/blinklabs-io/nftvoter/event"
	"github.com/blinklabs-io/nftvoter/internal/config"
	"github.com/blinklabs-io/nftvoter/metadata"
	"github.com/blinklabs-io/nftvoter/updater"
	"github.com/blinklabs-io/nftvoter/voter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Node holds the components shared by every run mode
type Node struct {
	config    *config.Config
	logger    *slog.Logger
	db        *database.Database
	slotClock *chaintime.SlotClock
	eventBus  *event.EventBus
	updater   *updater.Updater
	metrics   *nodeMetrics
}

// New opens the database and builds the voter weight services. The slot
// clock is not started
func New(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Node, error) {
	genesisTime, err := cfg.ParseGenesisTime()
	if err != nil {
		return nil, err
	}
	slotLength, err := cfg.ParseSlotLength()
	if err != nil {
		return nil, err
	}
	slotClock, err := chaintime.NewSlotClock(chaintime.SlotClockConfig{
		Logger:        logger,
		GenesisTime:   genesisTime,
		SlotLength:    slotLength,
		SlotsPerEpoch: cfg.SlotsPerEpoch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create slot clock: %w", err)
	}
	db, err := database.New(&database.Config{
		Logger:         logger,
		PromRegistry:   promRegistry,
		DataDir:        cfg.DatabasePath,
		MetadataDriver: cfg.DatabaseDriver,
		PostgresDsn:    cfg.PostgresDsn,
		Tracing:        cfg.Tracing,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	eventBus := event.NewEventBus(promRegistry, logger)
	u, err := updater.New(updater.Config{
		Database:     db,
		EventBus:     eventBus,
		Engine:       voter.NewEngine(metadata.NewDecoder(), slotClock),
		SlotSource:   slotClock,
		Logger:       logger,
		PromRegistry: promRegistry,
	})
	if err != nil {
		eventBus.Stop()
		return nil, errors.Join(err, db.Close())
	}
	n := &Node{
		config:    cfg,
		logger:    logger.With("component", "node"),
		db:        db,
		slotClock: slotClock,
		eventBus:  eventBus,
		updater:   u,
	}
	if promRegistry != nil {
		n.metrics = &nodeMetrics{}
		n.metrics.init(promRegistry)
	}
	return n, nil
}

func (n *Node) Updater() *updater.Updater {
	return n.updater
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Close stops the background components and closes the database
func (n *Node) Close() error {
	n.slotClock.Stop()
	n.eventBus.Stop()
	return n.db.Close()
}

// watchSlots tracks slot ticks until ctx is done
func (n *Node) watchSlots(ctx context.Context) {
	ticks := n.slotClock.Subscribe()
	defer n.slotClock.Unsubscribe(ticks)
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			if n.metrics != nil {
				n.metrics.currentSlot.Set(float64(tick.Slot))
				n.metrics.currentEpoch.Set(float64(tick.Epoch))
			}
			if tick.IsEpochStart {
				n.logger.Info(
					"new epoch",
					"epoch", tick.Epoch,
					"slot", tick.Slot,
				)
			}
		}
	}
}

// logEvents logs voter weight events at debug level
func (n *Node) logEvents() {
	n.eventBus.SubscribeFunc(
		event.VoterWeightUpdatedEventType,
		func(evt event.Event) {
			data, ok := evt.Data.(event.VoterWeightUpdatedEvent)
			if !ok {
				return
			}
			n.logger.Debug(
				"voter weight updated",
				"record", data.RecordAddress.String(),
				"weight", data.VoterWeight,
				"slot", data.Slot,
			)
		},
	)
	n.eventBus.SubscribeFunc(
		event.VoterWeightRejectedEventType,
		func(evt event.Event) {
			data, ok := evt.Data.(event.VoterWeightRejectedEvent)
			if !ok {
				return
			}
			n.logger.Debug(
				"voter weight rejected",
				"record", data.RecordAddress.String(),
				"kind", data.Kind,
			)
		},
	)
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	shutdownTimeout, err := cfg.ParseShutdownTimeout()
	if err != nil {
		return err
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Configure tracing
	if cfg.Tracing {
		shutdownTracing, err := setupTracing(signalCtx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			//nolint:contextcheck
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Error("tracing shutdown error", "error", err)
			}
		}()
	}

	n, err := New(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
		}
	}()
	n.logEvents()
	n.slotClock.Start(signalCtx)
	go n.watchSlots(signalCtx)

	apiServer := api.New(
		api.Config{
			ListenAddress: cfg.ApiListenAddress(),
			Logger:        logger,
			PromRegistry:  prometheus.DefaultRegisterer,
		},
		n.updater,
	)
	if err := apiServer.Start(signalCtx); err != nil {
		return err
	}

	// Metrics listener
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.MetricsListenAddress(),
		Handler:           metricsMux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		logger.Info(
			"serving prometheus metrics on "+cfg.MetricsListenAddress(),
			"component", "node",
		)
		if err := metricsServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("failed to start metrics listener: %w", err)
		}
	}()

	// Wait for signal or error
	var runErr error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
	case runErr = <-errChan:
		logger.Error("node error", "error", runErr)
		signalCtxStop()
	}

	//nolint:contextcheck
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	//nolint:contextcheck
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}
	//nolint:contextcheck
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "error", err)
	}
	if runErr == nil {
		logger.Info("shutdown complete")
	}
	return runErr
}
