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

package models

// Registrar holds the collection configuration for a realm and governing
// token mint
type Registrar struct {
	ID                 uint               `gorm:"primarykey"`
	Address            []byte             `gorm:"uniqueIndex;size:32;not null"`
	Realm              []byte             `gorm:"size:32;not null"`
	GoverningTokenMint []byte             `gorm:"size:32;not null"`
	CollectionConfigs  []CollectionConfig `gorm:"foreignKey:RegistrarID;constraint:OnDelete:CASCADE"`
}

func (Registrar) TableName() string {
	return "registrar"
}

// CollectionConfig is a single collection entry of a registrar. Position
// preserves the configured order
type CollectionConfig struct {
	ID          uint   `gorm:"primarykey"`
	RegistrarID uint   `gorm:"uniqueIndex:idx_collection_config_unique,priority:1;not null"`
	Collection  []byte `gorm:"uniqueIndex:idx_collection_config_unique,priority:2;size:32;not null"`
	Position    uint   `gorm:"not null"`
	Weight      uint16 `gorm:"not null"`
}

func (CollectionConfig) TableName() string {
	return "collection_config"
}
