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

package voter

import (
	"fmt"

	"github.com/blinklabs-io/nftvoter/address"
)

const (
	registrarSeed         = "registrar"
	voterWeightRecordSeed = "voter-weight-record"
)

// CollectionConfig assigns a voter weight to every NFT of a verified
// collection
type CollectionConfig struct {
	Collection address.Address `json:"collection" yaml:"collection"`
	Weight     uint16          `json:"weight"     yaml:"weight"`
}

// Registrar holds the collection configs for a realm and governing token mint
type Registrar struct {
	Realm              address.Address    `json:"realm"              yaml:"realm"`
	GoverningTokenMint address.Address    `json:"governingTokenMint" yaml:"governingTokenMint"`
	CollectionConfigs  []CollectionConfig `json:"collectionConfigs"  yaml:"collectionConfigs"`
}

// RegistrarAddress returns the address of the registrar for a realm and mint
func RegistrarAddress(realm, mint address.Address) address.Address {
	return address.Derive([]byte(registrarSeed), realm[:], mint[:])
}

func (r *Registrar) Address() address.Address {
	return RegistrarAddress(r.Realm, r.GoverningTokenMint)
}

// CollectionConfig returns the config for the given collection. The table is
// small and rarely changes, so a linear scan in configured order is enough
func (r *Registrar) CollectionConfig(
	collection address.Address,
) (CollectionConfig, bool) {
	for _, cc := range r.CollectionConfigs {
		if cc.Collection == collection {
			return cc, true
		}
	}
	return CollectionConfig{}, false
}

// Validate checks that collections are unique within the registrar
func (r *Registrar) Validate() error {
	seen := make(map[address.Address]struct{}, len(r.CollectionConfigs))
	for _, cc := range r.CollectionConfigs {
		if _, ok := seen[cc.Collection]; ok {
			return fmt.Errorf(
				"%w: %s",
				ErrDuplicateCollection,
				cc.Collection.String(),
			)
		}
		seen[cc.Collection] = struct{}{}
	}
	return nil
}

// RecordState describes the freshness of a voter weight record
type RecordState int

const (
	RecordStateStale RecordState = iota
	RecordStateFresh
)

func (s RecordState) String() string {
	switch s {
	case RecordStateFresh:
		return "fresh"
	default:
		return "stale"
	}
}

// VoterWeightRecord is the attested voter weight for a single governing
// token owner within a realm
type VoterWeightRecord struct {
	Realm               address.Address    `json:"realm"`
	GoverningTokenMint  address.Address    `json:"governingTokenMint"`
	GoverningTokenOwner address.Address    `json:"governingTokenOwner"`
	VoterWeight         uint64             `json:"voterWeight"`
	VoterWeightExpiry   *uint64            `json:"voterWeightExpiry"`
	WeightAction        *VoterWeightAction `json:"weightAction"`
	WeightActionTarget  *address.Address   `json:"weightActionTarget"`
}

// NewVoterWeightRecord returns a record in the initial stale state
func NewVoterWeightRecord(
	realm address.Address,
	mint address.Address,
	owner address.Address,
) *VoterWeightRecord {
	return &VoterWeightRecord{
		Realm:               realm,
		GoverningTokenMint:  mint,
		GoverningTokenOwner: owner,
	}
}

// VoterWeightRecordAddress returns the address of the voter weight record for
// a realm, mint and owner
func VoterWeightRecordAddress(
	realm address.Address,
	mint address.Address,
	owner address.Address,
) address.Address {
	return address.Derive(
		[]byte(voterWeightRecordSeed),
		realm[:],
		mint[:],
		owner[:],
	)
}

func (r *VoterWeightRecord) Address() address.Address {
	return VoterWeightRecordAddress(
		r.Realm,
		r.GoverningTokenMint,
		r.GoverningTokenOwner,
	)
}

// State reports whether the record weight is valid at the given slot. A
// weight only stays fresh for the slot it was attested in
func (r *VoterWeightRecord) State(currentSlot uint64) RecordState {
	if r.VoterWeightExpiry != nil && *r.VoterWeightExpiry == currentSlot {
		return RecordStateFresh
	}
	return RecordStateStale
}

// Clone returns a deep copy of the record
func (r *VoterWeightRecord) Clone() *VoterWeightRecord {
	ret := *r
	if r.VoterWeightExpiry != nil {
		tmp := *r.VoterWeightExpiry
		ret.VoterWeightExpiry = &tmp
	}
	if r.WeightAction != nil {
		tmp := *r.WeightAction
		ret.WeightAction = &tmp
	}
	if r.WeightActionTarget != nil {
		tmp := *r.WeightActionTarget
		ret.WeightActionTarget = &tmp
	}
	return &ret
}

// CheckRecordMatchesRegistrar enforces that a record belongs to the realm and
// governing token mint served by the registrar
func CheckRecordMatchesRegistrar(
	registrar *Registrar,
	record *VoterWeightRecord,
) error {
	if record.Realm != registrar.Realm {
		return ErrInvalidVoterWeightRecordRealm
	}
	if record.GoverningTokenMint != registrar.GoverningTokenMint {
		return ErrInvalidVoterWeightRecordMint
	}
	return nil
}

// TokenOwnership is the owner and mint of the token account holding the NFT
type TokenOwnership struct {
	Owner address.Address
	Mint  address.Address
}

// Collection is the collection membership claimed by NFT metadata
type Collection struct {
	Key      address.Address
	Verified bool
}

// NftMetadata is the subset of NFT metadata needed to resolve a weight
type NftMetadata struct {
	Mint       address.Address
	Collection *Collection
}
