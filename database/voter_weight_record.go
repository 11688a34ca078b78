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

package database

import (
	"fmt"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/voter"
)

// GetVoterWeightRecord returns the voter weight record stored at the given
// address
func (d *Database) GetVoterWeightRecord(
	addr address.Address,
	txn *Txn,
) (*voter.VoterWeightRecord, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	tmp, err := d.metadata.GetVoterWeightRecord(addr.Bytes(), txn.Metadata())
	if err != nil {
		return nil, fmt.Errorf("failed to get voter weight record: %w", err)
	}
	if tmp == nil {
		return nil, models.ErrVoterWeightRecordNotFound
	}
	return recordFromModel(tmp)
}

// CreateVoterWeightRecord stores a new record at its derived address
func (d *Database) CreateVoterWeightRecord(
	record *voter.VoterWeightRecord,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer func() {
			if owned {
				txn.Rollback() //nolint:errcheck
			}
		}()
	}
	if err := d.metadata.CreateVoterWeightRecord(
		recordToModel(record),
		txn.Metadata(),
	); err != nil {
		return fmt.Errorf("failed to create voter weight record: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		owned = false
	}
	return nil
}

// SetVoterWeightRecord creates or updates a record at its derived address
func (d *Database) SetVoterWeightRecord(
	record *voter.VoterWeightRecord,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer func() {
			if owned {
				txn.Rollback() //nolint:errcheck
			}
		}()
	}
	if err := d.metadata.SetVoterWeightRecord(
		recordToModel(record),
		txn.Metadata(),
	); err != nil {
		return fmt.Errorf("failed to set voter weight record: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		owned = false
	}
	return nil
}

// CountVoterWeightRecords returns the number of records for a realm and
// governing token mint
func (d *Database) CountVoterWeightRecords(
	realm address.Address,
	mint address.Address,
	txn *Txn,
) (int64, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	ret, err := d.metadata.CountVoterWeightRecords(
		realm.Bytes(),
		mint.Bytes(),
		txn.Metadata(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count voter weight records: %w", err)
	}
	return ret, nil
}

func recordToModel(r *voter.VoterWeightRecord) *models.VoterWeightRecord {
	ret := &models.VoterWeightRecord{
		Address:             r.Address().Bytes(),
		Realm:               r.Realm.Bytes(),
		GoverningTokenMint:  r.GoverningTokenMint.Bytes(),
		GoverningTokenOwner: r.GoverningTokenOwner.Bytes(),
		VoterWeight:         r.VoterWeight,
	}
	if r.VoterWeightExpiry != nil {
		expiry := *r.VoterWeightExpiry
		ret.VoterWeightExpiry = &expiry
	}
	if r.WeightAction != nil {
		action := uint8(*r.WeightAction)
		ret.WeightAction = &action
	}
	if r.WeightActionTarget != nil {
		ret.WeightActionTarget = r.WeightActionTarget.Bytes()
	}
	return ret
}

func recordFromModel(
	m *models.VoterWeightRecord,
) (*voter.VoterWeightRecord, error) {
	realm, err := address.FromBytes(m.Realm)
	if err != nil {
		return nil, fmt.Errorf("decode record realm: %w", err)
	}
	mint, err := address.FromBytes(m.GoverningTokenMint)
	if err != nil {
		return nil, fmt.Errorf("decode record mint: %w", err)
	}
	owner, err := address.FromBytes(m.GoverningTokenOwner)
	if err != nil {
		return nil, fmt.Errorf("decode record owner: %w", err)
	}
	ret := voter.NewVoterWeightRecord(realm, mint, owner)
	ret.VoterWeight = m.VoterWeight
	if m.VoterWeightExpiry != nil {
		expiry := *m.VoterWeightExpiry
		ret.VoterWeightExpiry = &expiry
	}
	if m.WeightAction != nil {
		action := voter.VoterWeightAction(*m.WeightAction)
		ret.WeightAction = &action
	}
	if len(m.WeightActionTarget) > 0 {
		target, err := address.FromBytes(m.WeightActionTarget)
		if err != nil {
			return nil, fmt.Errorf("decode weight action target: %w", err)
		}
		ret.WeightActionTarget = &target
	}
	return ret, nil
}
