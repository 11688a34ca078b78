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
	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/database/types"
)

// AddAttestation appends an entry to the attestation log
func (d *MetadataStore) AddAttestation(
	attestation *models.Attestation,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(attestation); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetAttestations returns the most recent attestation log entries for a
// record, newest first. A limit of 0 returns all entries
func (d *MetadataStore) GetAttestations(
	recordAddr []byte,
	limit int,
	txn types.Txn,
) ([]models.Attestation, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Attestation
	query := db.Where("record_address = ?", recordAddr).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
