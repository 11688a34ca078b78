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
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/database"
	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/event"
	"github.com/blinklabs-io/nftvoter/token"
	"github.com/blinklabs-io/nftvoter/voter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/nftvoter/updater"

var (
	ErrMissingDatabase   = errors.New("updater: database is required")
	ErrMissingEngine     = errors.New("updater: engine is required")
	ErrMissingSlotSource = errors.New("updater: slot source is required")
)

type Config struct {
	Database *database.Database
	// EventBus is optional. Events are only published when set, and are
	// delivered asynchronously so slow subscribers can't hold up updates
	EventBus     *event.EventBus
	Engine       *voter.Engine
	SlotSource   voter.SlotSource
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// UpdateRequest references the accounts involved in a voter weight update by
// address
type UpdateRequest struct {
	Registrar         address.Address
	VoterWeightRecord address.Address
	NftToken          address.Address
	NftMetadata       address.Address
	Action            voter.VoterWeightAction
}

// Updater runs voter weight updates against stored state. Each update loads
// the registrar, record and accounts, runs the engine and persists the
// result together with an attestation log entry in a single transaction
type Updater struct {
	config  Config
	logger  *slog.Logger
	metrics *updaterMetrics
	locks   *recordLocks
	tracer  trace.Tracer
}

func New(cfg Config) (*Updater, error) {
	if cfg.Database == nil {
		return nil, ErrMissingDatabase
	}
	if cfg.Engine == nil {
		return nil, ErrMissingEngine
	}
	if cfg.SlotSource == nil {
		return nil, ErrMissingSlotSource
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	u := &Updater{
		config: cfg,
		logger: cfg.Logger.With("component", "updater"),
		locks:  newRecordLocks(),
		tracer: otel.Tracer(tracerName),
	}
	if cfg.PromRegistry != nil {
		u.metrics = &updaterMetrics{}
		u.metrics.init(cfg.PromRegistry)
	}
	return u, nil
}

// CreateVoterWeightRecord creates the initial stale record for a governing
// token owner. The registrar for the realm and mint must already exist
func (u *Updater) CreateVoterWeightRecord(
	ctx context.Context,
	realm address.Address,
	mint address.Address,
	owner address.Address,
) (*voter.VoterWeightRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db := u.config.Database
	record := voter.NewVoterWeightRecord(realm, mint, owner)
	txn := db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		if _, err := db.GetRegistrar(
			voter.RegistrarAddress(realm, mint),
			txn,
		); err != nil {
			return err
		}
		return db.CreateVoterWeightRecord(record, txn)
	})
	if err != nil {
		return nil, err
	}
	u.logger.Info(
		"created voter weight record",
		"record", record.Address().String(),
		"realm", realm.String(),
		"owner", owner.String(),
	)
	return record, nil
}

// UpdateVoterWeightRecord attests the voter weight for the referenced record.
// On success the updated record is returned. Domain rejections leave the
// record untouched, are logged as rejected attestations and return an error
// that voter.ErrorKind can classify
func (u *Updater) UpdateVoterWeightRecord(
	ctx context.Context,
	req UpdateRequest,
) (*voter.VoterWeightRecord, error) {
	ctx, span := u.tracer.Start(
		ctx,
		"UpdateVoterWeightRecord",
		trace.WithAttributes(
			attribute.String("nftvoter.record", req.VoterWeightRecord.String()),
			attribute.String("nftvoter.registrar", req.Registrar.String()),
			attribute.String("nftvoter.action", req.Action.String()),
		),
	)
	defer span.End()
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := u.locks.lock(req.VoterWeightRecord)
	defer unlock()

	record, err := u.attest(req)
	if u.metrics != nil {
		u.metrics.attestationDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		u.handleFailure(req, err)
		return nil, err
	}
	slot := *record.VoterWeightExpiry
	span.SetAttributes(
		attribute.Int64("nftvoter.slot", int64(slot)),                 //nolint:gosec
		attribute.Int64("nftvoter.weight", int64(record.VoterWeight)), //nolint:gosec
	)
	if u.metrics != nil {
		u.metrics.attestationsTotal.WithLabelValues(resultAccepted).Inc()
		u.metrics.lastAttestedSlot.Set(float64(slot))
	}
	u.logger.Info(
		"updated voter weight record",
		"record", req.VoterWeightRecord.String(),
		"owner", record.GoverningTokenOwner.String(),
		"action", req.Action.String(),
		"weight", record.VoterWeight,
		"slot", slot,
	)
	if u.config.EventBus != nil {
		evt := event.VoterWeightUpdatedEvent{
			RecordAddress:       req.VoterWeightRecord,
			Registrar:           req.Registrar,
			GoverningTokenOwner: record.GoverningTokenOwner,
			Action:              req.Action,
			VoterWeight:         record.VoterWeight,
			Slot:                slot,
			AttestationHash: attestationHash(
				req,
				slot,
				models.AttestationResultAccepted,
			),
		}
		u.config.EventBus.PublishAsync(
			event.VoterWeightUpdatedEventType,
			event.NewEvent(event.VoterWeightUpdatedEventType, evt),
		)
	}
	return record, nil
}

// attest runs the load, validate and store cycle in a single transaction
func (u *Updater) attest(req UpdateRequest) (*voter.VoterWeightRecord, error) {
	db := u.config.Database
	// CastVote and unknown actions are rejected before any account is
	// looked up
	if err := voter.CheckAction(req.Action); err != nil {
		return nil, err
	}
	var ret *voter.VoterWeightRecord
	txn := db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		registrar, err := db.GetRegistrar(req.Registrar, txn)
		if err != nil {
			return err
		}
		record, err := db.GetVoterWeightRecord(req.VoterWeightRecord, txn)
		if err != nil {
			return err
		}
		if err := voter.CheckRecordMatchesRegistrar(registrar, record); err != nil {
			return err
		}
		tokenData, err := db.GetAccount(req.NftToken, txn)
		if err != nil {
			return fmt.Errorf("nft token account %s: %w", req.NftToken, err)
		}
		tokenAccount, err := token.DecodeAccount(tokenData)
		if err != nil {
			return fmt.Errorf("%w: %w", voter.ErrTokenAccountDecode, err)
		}
		rawMetadata, err := db.GetAccount(req.NftMetadata, txn)
		if err != nil {
			return fmt.Errorf("nft metadata account %s: %w", req.NftMetadata, err)
		}
		if err := u.config.Engine.UpdateVoterWeightRecord(
			registrar,
			record,
			tokenAccount.Ownership(),
			rawMetadata,
			req.Action,
		); err != nil {
			return err
		}
		if err := db.SetVoterWeightRecord(record, txn); err != nil {
			return err
		}
		slot := *record.VoterWeightExpiry
		if err := db.AddAttestation(
			&models.Attestation{
				Hash: attestationHash(
					req,
					slot,
					models.AttestationResultAccepted,
				),
				RecordAddress: req.VoterWeightRecord.Bytes(),
				Registrar:     req.Registrar.Bytes(),
				NftToken:      req.NftToken.Bytes(),
				NftMetadata:   req.NftMetadata.Bytes(),
				Action:        uint8(req.Action),
				Slot:          slot,
				Weight:        record.VoterWeight,
				Result:        models.AttestationResultAccepted,
			},
			txn,
		); err != nil {
			return err
		}
		ret = record
		return nil
	})
	return ret, err
}

// handleFailure records metrics for a failed update. Failures the engine or
// the record boundary check classify are logged as rejected attestations
// and published as rejection events
func (u *Updater) handleFailure(req UpdateRequest, err error) {
	kind := voter.ErrorKind(err)
	if kind == voter.KindInternal {
		if u.metrics != nil {
			u.metrics.attestationsTotal.WithLabelValues(resultError).Inc()
		}
		u.logger.Error(
			"voter weight update failed",
			"record", req.VoterWeightRecord.String(),
			"error", err,
		)
		return
	}
	if u.metrics != nil {
		u.metrics.attestationsTotal.WithLabelValues(resultRejected).Inc()
		u.metrics.rejectionsTotal.WithLabelValues(kind).Inc()
	}
	u.logger.Warn(
		"voter weight update rejected",
		"record", req.VoterWeightRecord.String(),
		"action", req.Action.String(),
		"kind", kind,
		"error", err,
	)
	// The slot only timestamps the log entry
	slot, slotErr := u.config.SlotSource.CurrentSlot()
	if slotErr != nil {
		slot = 0
	}
	if logErr := u.config.Database.AddAttestation(
		&models.Attestation{
			Hash: attestationHash(
				req,
				slot,
				models.AttestationResultRejected,
			),
			RecordAddress: req.VoterWeightRecord.Bytes(),
			Registrar:     req.Registrar.Bytes(),
			NftToken:      req.NftToken.Bytes(),
			NftMetadata:   req.NftMetadata.Bytes(),
			Action:        uint8(req.Action),
			Slot:          slot,
			Result:        models.AttestationResultRejected,
			Kind:          kind,
			Error:         err.Error(),
		},
		nil,
	); logErr != nil {
		u.logger.Error(
			"failed to log rejected attestation",
			"record", req.VoterWeightRecord.String(),
			"error", logErr,
		)
	}
	if u.config.EventBus != nil {
		evt := event.VoterWeightRejectedEvent{
			RecordAddress: req.VoterWeightRecord,
			Registrar:     req.Registrar,
			Action:        req.Action,
			Kind:          kind,
			Error:         err.Error(),
		}
		u.config.EventBus.PublishAsync(
			event.VoterWeightRejectedEventType,
			event.NewEvent(event.VoterWeightRejectedEventType, evt),
		)
	}
}

// attestationHash identifies an update attempt by its inputs and outcome
func attestationHash(req UpdateRequest, slot uint64, result string) []byte {
	buf := make([]byte, 0, 4*address.Size+9+len(result))
	buf = append(buf, req.Registrar[:]...)
	buf = append(buf, req.VoterWeightRecord[:]...)
	buf = append(buf, req.NftToken[:]...)
	buf = append(buf, req.NftMetadata[:]...)
	buf = append(buf, byte(req.Action))
	buf = binary.BigEndian.AppendUint64(buf, slot)
	buf = append(buf, result...)
	sum := blake3.Sum256(buf)
	return sum[:]
}

// GetVoterWeightRecord returns the record stored at addr along with its
// state at the current slot
func (u *Updater) GetVoterWeightRecord(
	ctx context.Context,
	addr address.Address,
) (*voter.VoterWeightRecord, voter.RecordState, error) {
	if err := ctx.Err(); err != nil {
		return nil, voter.RecordStateStale, err
	}
	record, err := u.config.Database.GetVoterWeightRecord(addr, nil)
	if err != nil {
		return nil, voter.RecordStateStale, err
	}
	slot, err := u.config.SlotSource.CurrentSlot()
	if err != nil {
		return nil, voter.RecordStateStale, fmt.Errorf(
			"failed to get current slot: %w",
			err,
		)
	}
	return record, record.State(slot), nil
}

// GetRegistrar returns the registrar stored at addr
func (u *Updater) GetRegistrar(
	ctx context.Context,
	addr address.Address,
) (*voter.Registrar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return u.config.Database.GetRegistrar(addr, nil)
}

// CountVoterWeightRecords returns the number of records created for a
// registrar's realm and governing token mint
func (u *Updater) CountVoterWeightRecords(
	ctx context.Context,
	registrar *voter.Registrar,
) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return u.config.Database.CountVoterWeightRecords(
		registrar.Realm,
		registrar.GoverningTokenMint,
		nil,
	)
}

// SetRegistrar stores a registrar snapshot
func (u *Updater) SetRegistrar(
	ctx context.Context,
	registrar *voter.Registrar,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return u.config.Database.SetRegistrar(registrar, nil)
}

// GetAttestations returns up to limit attestation log entries for a record,
// newest first
func (u *Updater) GetAttestations(
	ctx context.Context,
	addr address.Address,
	limit int,
) ([]models.Attestation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return u.config.Database.GetAttestations(addr, limit, nil)
}

// PutAccount stores a raw account snapshot
func (u *Updater) PutAccount(
	ctx context.Context,
	addr address.Address,
	data []byte,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := u.config.Database.SetAccount(addr, data, nil); err != nil {
		return err
	}
	u.logger.Debug(
		"stored account",
		"address", addr.String(),
		"size", len(data),
	)
	return nil
}
