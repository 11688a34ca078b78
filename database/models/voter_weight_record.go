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

import "time"

// VoterWeightRecord is the persisted attestation for a single governing token
// owner
type VoterWeightRecord struct {
	ID                  uint    `gorm:"primarykey"`
	Address             []byte  `gorm:"uniqueIndex;size:32;not null"`
	Realm               []byte  `gorm:"index:idx_vwr_realm_mint,priority:1;size:32;not null"`
	GoverningTokenMint  []byte  `gorm:"index:idx_vwr_realm_mint,priority:2;size:32;not null"`
	GoverningTokenOwner []byte  `gorm:"index;size:32;not null"`
	VoterWeight         uint64  `gorm:"not null"`
	VoterWeightExpiry   *uint64 `gorm:"index"`
	// WeightAction is nil until the first successful attestation
	WeightAction       *uint8
	WeightActionTarget []byte `gorm:"size:32"`
	UpdatedAt          time.Time
}

func (VoterWeightRecord) TableName() string {
	return "voter_weight_record"
}
