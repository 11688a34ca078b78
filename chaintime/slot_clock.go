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

package chaintime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultSlotLength     = 400 * time.Millisecond
	DefaultSlotsPerEpoch  = 432_000
	DefaultClockTolerance = 100 * time.Millisecond
)

var (
	ErrBeforeGenesis     = errors.New("time is before genesis")
	ErrInvalidSlotLength = errors.New("slot length must be positive")
)

// SlotTick represents a notification that a slot boundary has been reached
type SlotTick struct {
	Slot      uint64
	SlotStart time.Time
	Epoch     uint64
	// EpochSlot is the slot number within the current epoch (0-indexed)
	EpochSlot    uint64
	IsEpochStart bool
}

// EpochInfo contains epoch boundary information
type EpochInfo struct {
	EpochId       uint64
	StartSlot     uint64
	LengthInSlots uint64
}

// EndSlot returns the first slot of the next epoch
func (e EpochInfo) EndSlot() uint64 {
	return e.StartSlot + e.LengthInSlots
}

// SlotClockConfig holds configuration for the SlotClock
type SlotClockConfig struct {
	Logger      *slog.Logger
	GenesisTime time.Time
	SlotLength  time.Duration
	// SlotsPerEpoch is only used for tick annotations
	SlotsPerEpoch uint64
	// ClockTolerance is the maximum drift allowed when waking at slot
	// boundaries before a warning is logged
	ClockTolerance time.Duration
}

// SlotClock converts wall-clock time into slots and, once started, notifies
// subscribers at every slot boundary
type SlotClock struct {
	config      SlotClockConfig
	logger      *slog.Logger
	subscribers []chan SlotTick
	mu          sync.RWMutex
	cancel      context.CancelFunc
	ctx         context.Context
	running     bool
	wg          sync.WaitGroup

	// For testing: allow injection of custom time source
	nowFunc func() time.Time
}

// NewSlotClock creates a new SlotClock with the given configuration
func NewSlotClock(config SlotClockConfig) (*SlotClock, error) {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if config.SlotLength == 0 {
		config.SlotLength = DefaultSlotLength
	}
	if config.SlotLength < 0 {
		return nil, ErrInvalidSlotLength
	}
	if config.SlotsPerEpoch == 0 {
		config.SlotsPerEpoch = DefaultSlotsPerEpoch
	}
	if config.ClockTolerance == 0 {
		config.ClockTolerance = DefaultClockTolerance
	}
	return &SlotClock{
		config:  config,
		logger:  config.Logger.With("component", "slot_clock"),
		nowFunc: time.Now,
	}, nil
}

// TimeToSlot returns the slot containing the given time
func (sc *SlotClock) TimeToSlot(t time.Time) (uint64, error) {
	if t.Before(sc.config.GenesisTime) {
		return 0, fmt.Errorf(
			"%w: %s < %s",
			ErrBeforeGenesis,
			t.UTC().Format(time.RFC3339),
			sc.config.GenesisTime.UTC().Format(time.RFC3339),
		)
	}
	return uint64(t.Sub(sc.config.GenesisTime) / sc.config.SlotLength), nil
}

// SlotToTime returns the time when the given slot starts
func (sc *SlotClock) SlotToTime(slot uint64) time.Time {
	return sc.config.GenesisTime.Add(
		time.Duration(slot) * sc.config.SlotLength,
	)
}

// SlotToEpoch returns epoch information for the given slot
func (sc *SlotClock) SlotToEpoch(slot uint64) EpochInfo {
	epoch := slot / sc.config.SlotsPerEpoch
	return EpochInfo{
		EpochId:       epoch,
		StartSlot:     epoch * sc.config.SlotsPerEpoch,
		LengthInSlots: sc.config.SlotsPerEpoch,
	}
}

// CurrentSlot returns the current slot number based on wall-clock time
func (sc *SlotClock) CurrentSlot() (uint64, error) {
	return sc.TimeToSlot(sc.nowFunc())
}

// CurrentEpoch returns the current epoch based on wall-clock time
func (sc *SlotClock) CurrentEpoch() (EpochInfo, error) {
	slot, err := sc.CurrentSlot()
	if err != nil {
		return EpochInfo{}, err
	}
	return sc.SlotToEpoch(slot), nil
}

// NextSlotTime returns the time when the next slot will start
func (sc *SlotClock) NextSlotTime() (time.Time, error) {
	slot, err := sc.CurrentSlot()
	if err != nil {
		return time.Time{}, err
	}
	return sc.SlotToTime(slot + 1), nil
}

// Start begins the slot clock ticking loop. Returns immediately; the tick
// loop runs in a goroutine
func (sc *SlotClock) Start(ctx context.Context) {
	sc.mu.Lock()
	if sc.running {
		sc.mu.Unlock()
		return
	}
	sc.running = true
	sc.ctx, sc.cancel = context.WithCancel(ctx)
	sc.mu.Unlock()

	sc.wg.Add(1)
	go sc.run()
}

// Stop halts the slot clock, waits for the tick loop to exit and closes all
// subscriber channels
func (sc *SlotClock) Stop() {
	sc.mu.Lock()
	if !sc.running {
		sc.mu.Unlock()
		return
	}
	sc.running = false
	if sc.cancel != nil {
		sc.cancel()
	}
	sc.mu.Unlock()

	sc.wg.Wait()

	sc.mu.Lock()
	for _, ch := range sc.subscribers {
		close(ch)
	}
	sc.subscribers = nil
	sc.mu.Unlock()
}

// Subscribe returns a channel that will receive SlotTick notifications. The
// channel is buffered and ticks are dropped for slow subscribers
func (sc *SlotClock) Subscribe() <-chan SlotTick {
	ch := make(chan SlotTick, 1)
	sc.mu.Lock()
	sc.subscribers = append(sc.subscribers, ch)
	sc.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel
func (sc *SlotClock) Unsubscribe(ch <-chan SlotTick) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for i, sub := range sc.subscribers {
		if sub == ch {
			close(sub)
			sc.subscribers = append(sc.subscribers[:i], sc.subscribers[i+1:]...)
			return
		}
	}
}

func (sc *SlotClock) run() {
	defer sc.wg.Done()
	for {
		now := sc.nowFunc()
		var nextSlotTime time.Time
		currentSlot, err := sc.TimeToSlot(now)
		if err != nil {
			// Wait for genesis
			nextSlotTime = sc.config.GenesisTime
		} else {
			nextSlotTime = sc.SlotToTime(currentSlot + 1)
		}

		if sleepDuration := nextSlotTime.Sub(now); sleepDuration > 0 {
			timer := time.NewTimer(sleepDuration)
			select {
			case <-sc.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		} else {
			select {
			case <-sc.ctx.Done():
				return
			default:
			}
		}

		actualNow := sc.nowFunc()
		actualSlot, err := sc.TimeToSlot(actualNow)
		if err != nil {
			sc.logger.Error("failed to verify slot after wake", "error", err)
			continue
		}
		if drift := actualNow.Sub(nextSlotTime); drift > sc.config.ClockTolerance {
			sc.logger.Warn(
				"slot clock drift detected",
				"actual_slot", actualSlot,
				"drift", drift,
			)
		}
		sc.emitTick(sc.buildSlotTick(actualSlot))
	}
}

func (sc *SlotClock) buildSlotTick(slot uint64) SlotTick {
	epoch := sc.SlotToEpoch(slot)
	return SlotTick{
		Slot:         slot,
		SlotStart:    sc.SlotToTime(slot),
		Epoch:        epoch.EpochId,
		EpochSlot:    slot - epoch.StartSlot,
		IsEpochStart: slot == epoch.StartSlot,
	}
}

func (sc *SlotClock) emitTick(tick SlotTick) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	for _, ch := range sc.subscribers {
		select {
		case ch <- tick:
		default:
			sc.logger.Debug(
				"slot tick dropped for slow subscriber",
				"slot", tick.Slot,
			)
		}
	}
}

// FixedSlot is a slot source that always reports the same slot
type FixedSlot uint64

func (f FixedSlot) CurrentSlot() (uint64, error) {
	return uint64(f), nil
}
