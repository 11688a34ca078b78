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
	"errors"
	"fmt"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/database/types"
)

// GetAccount returns the raw data of an account snapshot
func (d *Database) GetAccount(addr address.Address, txn *Txn) ([]byte, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	ret, err := d.blob.Get(txn.Blob(), types.AccountBlobKey(addr.Bytes()))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", addr, err)
	}
	return ret, nil
}

// SetAccount stores the raw data of an account snapshot
func (d *Database) SetAccount(
	addr address.Address,
	data []byte,
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
	if err := d.blob.Set(
		txn.Blob(),
		types.AccountBlobKey(addr.Bytes()),
		data,
	); err != nil {
		return fmt.Errorf("failed to set account %s: %w", addr, err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		owned = false
	}
	return nil
}

// GetAccountAddresses returns the addresses of all stored account snapshots
func (d *Database) GetAccountAddresses(txn *Txn) ([]address.Address, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	keys, err := d.blob.Keys(txn.Blob(), []byte(types.AccountBlobKeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	ret := make([]address.Address, 0, len(keys))
	for _, key := range keys {
		addr, err := address.FromBytes(key[len(types.AccountBlobKeyPrefix):])
		if err != nil {
			return nil, fmt.Errorf("decode account key: %w", err)
		}
		ret = append(ret, addr)
	}
	return ret, nil
}
