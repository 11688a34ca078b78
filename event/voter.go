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

package event

import (
	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/voter"
)

const (
	// VoterWeightUpdatedEventType is published after a fresh attestation has
	// been committed
	VoterWeightUpdatedEventType = EventType("voter.weight_updated")
	// VoterWeightRejectedEventType is published when an update request fails
	// validation
	VoterWeightRejectedEventType = EventType("voter.weight_rejected")
)

type VoterWeightUpdatedEvent struct {
	RecordAddress       address.Address
	Registrar           address.Address
	GoverningTokenOwner address.Address
	Action              voter.VoterWeightAction
	VoterWeight         uint64
	Slot                uint64
	AttestationHash     []byte
}

type VoterWeightRejectedEvent struct {
	RecordAddress address.Address
	Registrar     address.Address
	Action        voter.VoterWeightAction
	// Kind is the stable error classification from voter.ErrorKind
	Kind  string
	Error string
}
