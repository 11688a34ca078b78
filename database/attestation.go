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
)

// AddAttestation appends an entry to the attestation log
func (d *Database) AddAttestation(
	attestation *models.Attestation,
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
	if err := d.metadata.AddAttestation(attestation, txn.Metadata()); err != nil {
		return fmt.Errorf("failed to add attestation: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		owned = false
	}
	return nil
}

// GetAttestations returns up to limit attestation log entries for a record,
// newest first. A limit of 0 returns all entries
func (d *Database) GetAttestations(
	recordAddr address.Address,
	limit int,
	txn *Txn,
) ([]models.Attestation, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	ret, err := d.metadata.GetAttestations(
		recordAddr.Bytes(),
		limit,
		txn.Metadata(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get attestations: %w", err)
	}
	return ret, nil
}
