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

package metadata

import (
	"errors"

	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetVoterWeightRecord returns the record with the given address. Returns nil
// if not found
func (d *MetadataStore) GetVoterWeightRecord(
	addr []byte,
	txn types.Txn,
) (*models.VoterWeightRecord, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.VoterWeightRecord{}
	if result := db.First(ret, "address = ?", addr); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// CreateVoterWeightRecord inserts a new record. Returns
// models.ErrVoterWeightRecordExists if a record with the same address exists
func (d *MetadataStore) CreateVoterWeightRecord(
	record *models.VoterWeightRecord,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(record)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrVoterWeightRecordExists
	}
	return nil
}

// SetVoterWeightRecord creates or updates a record by address
func (d *MetadataStore) SetVoterWeightRecord(
	record *models.VoterWeightRecord,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"voter_weight",
			"voter_weight_expiry",
			"weight_action",
			"weight_action_target",
			"updated_at",
		}),
	}
	if result := db.Clauses(onConflict).Create(record); result.Error != nil {
		return result.Error
	}
	return nil
}

// CountVoterWeightRecords returns the number of records for a realm and
// governing token mint
func (d *MetadataStore) CountVoterWeightRecords(
	realm []byte,
	mint []byte,
	txn types.Txn,
) (int64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var ret int64
	if result := db.Model(&models.VoterWeightRecord{}).Where(
		"realm = ? AND governing_token_mint = ?",
		realm,
		mint,
	).Count(&ret); result.Error != nil {
		return 0, result.Error
	}
	return ret, nil
}
