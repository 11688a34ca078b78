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

// GetRegistrar returns the registrar stored at the given address
func (d *Database) GetRegistrar(
	addr address.Address,
	txn *Txn,
) (*voter.Registrar, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	tmp, err := d.metadata.GetRegistrar(addr.Bytes(), txn.Metadata())
	if err != nil {
		return nil, fmt.Errorf("failed to get registrar: %w", err)
	}
	if tmp == nil {
		return nil, models.ErrRegistrarNotFound
	}
	return registrarFromModel(tmp)
}

// SetRegistrar stores a registrar at its derived address, replacing any
// existing collection configs
func (d *Database) SetRegistrar(
	registrar *voter.Registrar,
	txn *Txn,
) error {
	if err := registrar.Validate(); err != nil {
		return err
	}
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
	if err := d.metadata.SetRegistrar(
		registrarToModel(registrar),
		txn.Metadata(),
	); err != nil {
		return fmt.Errorf("failed to set registrar: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		owned = false
	}
	return nil
}

func registrarToModel(r *voter.Registrar) *models.Registrar {
	ret := &models.Registrar{
		Address:            r.Address().Bytes(),
		Realm:              r.Realm.Bytes(),
		GoverningTokenMint: r.GoverningTokenMint.Bytes(),
		CollectionConfigs: make(
			[]models.CollectionConfig,
			0,
			len(r.CollectionConfigs),
		),
	}
	for i, cfg := range r.CollectionConfigs {
		ret.CollectionConfigs = append(
			ret.CollectionConfigs,
			models.CollectionConfig{
				Collection: cfg.Collection.Bytes(),
				Position:   uint(i),
				Weight:     cfg.Weight,
			},
		)
	}
	return ret
}

func registrarFromModel(m *models.Registrar) (*voter.Registrar, error) {
	realm, err := address.FromBytes(m.Realm)
	if err != nil {
		return nil, fmt.Errorf("decode registrar realm: %w", err)
	}
	mint, err := address.FromBytes(m.GoverningTokenMint)
	if err != nil {
		return nil, fmt.Errorf("decode registrar mint: %w", err)
	}
	ret := &voter.Registrar{
		Realm:              realm,
		GoverningTokenMint: mint,
		CollectionConfigs: make(
			[]voter.CollectionConfig,
			0,
			len(m.CollectionConfigs),
		),
	}
	for _, cfg := range m.CollectionConfigs {
		collection, err := address.FromBytes(cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("decode collection: %w", err)
		}
		ret.CollectionConfigs = append(
			ret.CollectionConfigs,
			voter.CollectionConfig{
				Collection: collection,
				Weight:     cfg.Weight,
			},
		)
	}
	return ret, nil
}
