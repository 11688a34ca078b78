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

package api

import (
	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/voter"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool   `json:"is_healthy"`
	Version   string `json:"version"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	// Kind is the voter error classification, when there is one
	Kind string `json:"kind,omitempty"`
}

// RegistrarResponse is returned by GET /api/v0/registrars/{address}
type RegistrarResponse struct {
	Address            address.Address `json:"address"`
	VoterWeightRecords int64           `json:"voterWeightRecords"`
	voter.Registrar
}

// CreateVoterWeightRecordRequest is the body of
// POST /api/v0/voter-weight-records
type CreateVoterWeightRecordRequest struct {
	Realm               address.Address `json:"realm"`
	GoverningTokenMint  address.Address `json:"governingTokenMint"`
	GoverningTokenOwner address.Address `json:"governingTokenOwner"`
}

// VoterWeightRecordResponse is a record along with its address and state at
// the current slot
type VoterWeightRecordResponse struct {
	Address address.Address `json:"address"`
	State   string          `json:"state,omitempty"`
	voter.VoterWeightRecord
}

// UpdateVoterWeightRecordRequest is the body of
// POST /api/v0/voter-weight-records/{address}/update
type UpdateVoterWeightRecordRequest struct {
	Registrar   address.Address `json:"registrar"`
	NftToken    address.Address `json:"nftToken"`
	NftMetadata address.Address `json:"nftMetadata"`
	Action      string          `json:"action"`
}

// AttestationResponse is a single attestation log entry
type AttestationResponse struct {
	Hash        string `json:"hash"`
	Slot        uint64 `json:"slot"`
	Action      string `json:"action"`
	Weight      uint64 `json:"weight"`
	Result      string `json:"result"`
	Kind        string `json:"kind,omitempty"`
	Error       string `json:"error,omitempty"`
	NftToken    string `json:"nftToken"`
	NftMetadata string `json:"nftMetadata"`
	CreatedAt   int64  `json:"createdAt"`
}

// PutAccountRequest is the body of PUT /api/v0/accounts/{address}. Data is
// the base64 encoded raw account
type PutAccountRequest struct {
	Data []byte `json:"data"`
}
