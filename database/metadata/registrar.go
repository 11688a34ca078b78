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
)

// GetRegistrar returns the registrar with the given address along with its
// collection configs in configured order. Returns nil if not found
func (d *MetadataStore) GetRegistrar(
	addr []byte,
	txn types.Txn,
) (*models.Registrar, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Registrar{}
	result := db.Preload(
		"CollectionConfigs",
		func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		},
	).First(ret, "address = ?", addr)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetRegistrar creates or replaces a registrar and its collection configs
func (d *MetadataStore) SetRegistrar(
	registrar *models.Registrar,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	var existing models.Registrar
	result := db.Where("address = ?", registrar.Address).Limit(1).Find(&existing)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		if result := db.Where(
			"registrar_id = ?",
			existing.ID,
		).Delete(&models.CollectionConfig{}); result.Error != nil {
			return result.Error
		}
		registrar.ID = existing.ID
		if result := db.Model(&existing).Updates(map[string]any{
			"realm":                registrar.Realm,
			"governing_token_mint": registrar.GoverningTokenMint,
		}); result.Error != nil {
			return result.Error
		}
		for i := range registrar.CollectionConfigs {
			registrar.CollectionConfigs[i].ID = 0
			registrar.CollectionConfigs[i].RegistrarID = existing.ID
		}
		if len(registrar.CollectionConfigs) > 0 {
			if result := db.Create(&registrar.CollectionConfigs); result.Error != nil {
				return result.Error
			}
		}
		return nil
	}
	if result := db.Create(registrar); result.Error != nil {
		return result.Error
	}
	return nil
}
