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
	"context"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/updater"
	"github.com/blinklabs-io/nftvoter/voter"
)

// Service is the interface the API server uses to read and update voter
// weight state. It is satisfied by *updater.Updater
type Service interface {
	GetRegistrar(
		ctx context.Context,
		addr address.Address,
	) (*voter.Registrar, error)

	CountVoterWeightRecords(
		ctx context.Context,
		registrar *voter.Registrar,
	) (int64, error)

	CreateVoterWeightRecord(
		ctx context.Context,
		realm address.Address,
		mint address.Address,
		owner address.Address,
	) (*voter.VoterWeightRecord, error)

	GetVoterWeightRecord(
		ctx context.Context,
		addr address.Address,
	) (*voter.VoterWeightRecord, voter.RecordState, error)

	UpdateVoterWeightRecord(
		ctx context.Context,
		req updater.UpdateRequest,
	) (*voter.VoterWeightRecord, error)

	GetAttestations(
		ctx context.Context,
		addr address.Address,
		limit int,
	) ([]models.Attestation, error)

	PutAccount(
		ctx context.Context,
		addr address.Address,
		data []byte,
	) error
}

var _ Service = (*updater.Updater)(nil)
