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

const (
	AttestationResultAccepted = "accepted"
	AttestationResultRejected = "rejected"
)

// Attestation is an audit log entry for an update attempt. Rejected attempts
// are logged as well, with Kind and Error describing the failure
type Attestation struct {
	ID            uint   `gorm:"primarykey"`
	Hash          []byte `gorm:"index;size:32;not null"`
	RecordAddress []byte `gorm:"index;size:32;not null"`
	Registrar     []byte `gorm:"size:32;not null"`
	NftToken      []byte `gorm:"size:32;not null"`
	NftMetadata   []byte `gorm:"size:32;not null"`
	Action        uint8  `gorm:"not null"`
	Slot          uint64 `gorm:"index;not null"`
	Weight        uint64 `gorm:"not null"`
	Result        string `gorm:"size:16;not null"`
	Kind          string `gorm:"size:64"`
	Error         string
	CreatedAt     time.Time
}

func (Attestation) TableName() string {
	return "attestation"
}

// Accepted reports whether the attempt produced a fresh attestation
func (a *Attestation) Accepted() bool {
	return a.Result == AttestationResultAccepted
}
