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
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/internal/config"
	"github.com/blinklabs-io/nftvoter/metadata"
	"github.com/blinklabs-io/nftvoter/token"
	"github.com/blinklabs-io/nftvoter/updater"
	"github.com/blinklabs-io/nftvoter/voter"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSnapshotAccount = errors.New("invalid snapshot account")

// Snapshot is a YAML state dump used to seed the database
type Snapshot struct {
	Registrars         []voter.Registrar `yaml:"registrars"`
	Accounts           []SnapshotAccount `yaml:"accounts"`
	VoterWeightRecords []SnapshotRecord  `yaml:"voterWeightRecords"`
}

// SnapshotAccount is a raw account. Exactly one of Data, TokenAccount or
// Metadata must be set. TokenAccount and Metadata are packed into their
// on-chain layouts before being stored
type SnapshotAccount struct {
	Address address.Address `yaml:"address"`
	// Data is the base64 encoded raw account
	Data         string                `yaml:"data"`
	TokenAccount *SnapshotTokenAccount `yaml:"tokenAccount"`
	Metadata     *SnapshotMetadata     `yaml:"metadata"`
}

type SnapshotTokenAccount struct {
	Mint     address.Address  `yaml:"mint"`
	Owner    address.Address  `yaml:"owner"`
	Amount   uint64           `yaml:"amount"`
	Delegate *address.Address `yaml:"delegate"`
	// State defaults to initialized
	State string `yaml:"state"`
}

type SnapshotMetadata struct {
	UpdateAuthority address.Address     `yaml:"updateAuthority"`
	Mint            address.Address     `yaml:"mint"`
	Name            string              `yaml:"name"`
	Symbol          string              `yaml:"symbol"`
	URI             string              `yaml:"uri"`
	Collection      *SnapshotCollection `yaml:"collection"`
}

type SnapshotCollection struct {
	Key      address.Address `yaml:"key"`
	Verified bool            `yaml:"verified"`
}

type SnapshotRecord struct {
	Realm               address.Address `yaml:"realm"`
	GoverningTokenMint  address.Address `yaml:"governingTokenMint"`
	GoverningTokenOwner address.Address `yaml:"governingTokenOwner"`
}

// LoadStats counts the entries imported from a snapshot
type LoadStats struct {
	Registrars     int
	Accounts       int
	Records        int
	SkippedRecords int
}

func (a *SnapshotAccount) raw() ([]byte, error) {
	set := 0
	var ret []byte
	if a.Data != "" {
		set++
		tmp, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			return nil, fmt.Errorf(
				"%w %s: %w",
				ErrInvalidSnapshotAccount,
				a.Address.String(),
				err,
			)
		}
		ret = tmp
	}
	if a.TokenAccount != nil {
		set++
		state := token.AccountStateInitialized
		if a.TokenAccount.State != "" {
			tmp, err := token.ParseAccountState(a.TokenAccount.State)
			if err != nil {
				return nil, fmt.Errorf(
					"%w %s: %w",
					ErrInvalidSnapshotAccount,
					a.Address.String(),
					err,
				)
			}
			state = tmp
		}
		tokenAccount := &token.Account{
			Mint:     a.TokenAccount.Mint,
			Owner:    a.TokenAccount.Owner,
			Amount:   a.TokenAccount.Amount,
			Delegate: a.TokenAccount.Delegate,
			State:    state,
		}
		ret = tokenAccount.Encode()
	}
	if a.Metadata != nil {
		set++
		m := &metadata.Metadata{
			UpdateAuthority: a.Metadata.UpdateAuthority,
			Mint:            a.Metadata.Mint,
			Data: metadata.Data{
				Name:   a.Metadata.Name,
				Symbol: a.Metadata.Symbol,
				URI:    a.Metadata.URI,
			},
		}
		if a.Metadata.Collection != nil {
			m.Collection = &metadata.Collection{
				Key:      a.Metadata.Collection.Key,
				Verified: a.Metadata.Collection.Verified,
			}
		}
		ret = m.Encode()
	}
	if set != 1 {
		return nil, fmt.Errorf(
			"%w %s: exactly one of data, tokenAccount or metadata is required",
			ErrInvalidSnapshotAccount,
			a.Address.String(),
		)
	}
	return ret, nil
}

// ReadSnapshot parses a YAML snapshot
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var ret Snapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ret); err != nil {
		if errors.Is(err, io.EOF) {
			return &ret, nil
		}
		return nil, fmt.Errorf("error parsing snapshot: %w", err)
	}
	return &ret, nil
}

// ImportSnapshot stores the snapshot contents. Registrars are imported first
// so records can be checked against them. Records that already exist are
// left untouched
func ImportSnapshot(
	ctx context.Context,
	u *updater.Updater,
	snapshot *Snapshot,
	logger *slog.Logger,
) (LoadStats, error) {
	var stats LoadStats
	for i := range snapshot.Registrars {
		registrar := &snapshot.Registrars[i]
		if err := u.SetRegistrar(ctx, registrar); err != nil {
			return stats, fmt.Errorf(
				"failed to import registrar %s: %w",
				registrar.Address().String(),
				err,
			)
		}
		stats.Registrars++
	}
	for i := range snapshot.Accounts {
		acct := &snapshot.Accounts[i]
		data, err := acct.raw()
		if err != nil {
			return stats, err
		}
		if err := u.PutAccount(ctx, acct.Address, data); err != nil {
			return stats, fmt.Errorf(
				"failed to import account %s: %w",
				acct.Address.String(),
				err,
			)
		}
		stats.Accounts++
	}
	for _, rec := range snapshot.VoterWeightRecords {
		_, err := u.CreateVoterWeightRecord(
			ctx,
			rec.Realm,
			rec.GoverningTokenMint,
			rec.GoverningTokenOwner,
		)
		if err != nil {
			if errors.Is(err, models.ErrVoterWeightRecordExists) {
				logger.Debug(
					"skipping existing voter weight record",
					"owner", rec.GoverningTokenOwner.String(),
				)
				stats.SkippedRecords++
				continue
			}
			return stats, fmt.Errorf(
				"failed to import voter weight record for %s: %w",
				rec.GoverningTokenOwner.String(),
				err,
			)
		}
		stats.Records++
	}
	return stats, nil
}

// Load imports a snapshot file into the configured database
func Load(cfg *config.Config, logger *slog.Logger, snapshotFile string) error {
	f, err := os.Open(snapshotFile)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	snapshot, err := ReadSnapshot(f)
	if err != nil {
		return err
	}
	n, err := New(cfg, logger, nil)
	if err != nil {
		return err
	}
	stats, importErr := ImportSnapshot(
		context.Background(),
		n.Updater(),
		snapshot,
		logger,
	)
	if err := errors.Join(importErr, n.Close()); err != nil {
		return err
	}
	logger.Info(
		fmt.Sprintf(
			"imported %d registrars, %d accounts and %d voter weight records (%d already present)",
			stats.Registrars,
			stats.Accounts,
			stats.Records,
			stats.SkippedRecords,
		),
		"component", "node",
	)
	return nil
}
