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
	"errors"
	"fmt"
)

// ProvenanceDecoder decodes a raw NFT metadata account
type ProvenanceDecoder interface {
	DecodeProvenance(data []byte) (NftMetadata, error)
}

// ProvenanceDecoderFunc adapts a plain function to ProvenanceDecoder
type ProvenanceDecoderFunc func([]byte) (NftMetadata, error)

func (f ProvenanceDecoderFunc) DecodeProvenance(
	data []byte,
) (NftMetadata, error) {
	return f(data)
}

// SlotSource provides the current chain slot
type SlotSource interface {
	CurrentSlot() (uint64, error)
}

// Engine computes NFT-based voter weights
type Engine struct {
	decoder ProvenanceDecoder
	slots   SlotSource
}

func NewEngine(decoder ProvenanceDecoder, slots SlotSource) *Engine {
	return &Engine{
		decoder: decoder,
		slots:   slots,
	}
}

// UpdateVoterWeightRecord validates the presented NFT and overwrites the
// weight fields of record. Checks run in a fixed order and the first failure
// is returned. The record is only written after every check has passed, so a
// failed call leaves it exactly as it was.
//
// The caller is responsible for ensuring the record belongs to the
// registrar's realm and mint (see CheckRecordMatchesRegistrar).
func (e *Engine) UpdateVoterWeightRecord(
	registrar *Registrar,
	record *VoterWeightRecord,
	token TokenOwnership,
	rawMetadata []byte,
	action VoterWeightAction,
) error {
	if err := CheckAction(action); err != nil {
		return err
	}
	// The governing token owner must hold the NFT
	if token.Owner != record.GoverningTokenOwner {
		return ErrVoterDoesNotOwnNft
	}
	metadata, err := e.decoder.DecodeProvenance(rawMetadata)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProvenanceDecode, err)
	}
	if metadata.Mint != token.Mint {
		return ErrTokenMetadataDoesNotMatch
	}
	collection, err := verifiedCollection(metadata)
	if err != nil {
		return err
	}
	collectionConfig, ok := registrar.CollectionConfig(collection.Key)
	if !ok {
		return ErrCollectionNotFound
	}
	// The weight is only valid as of the current slot
	slot, err := e.slots.CurrentSlot()
	if err != nil {
		return fmt.Errorf("failed to get current slot: %w", err)
	}
	record.VoterWeight = uint64(collectionConfig.Weight)
	record.VoterWeightExpiry = &slot
	// Scope the weight to the requested action so it can't be reused for
	// another one
	record.WeightAction = &action
	record.WeightActionTarget = nil
	return nil
}

// CheckAction rejects actions that can't be given an NFT voter weight,
// independent of any NFT. New actions must be added to this switch explicitly
func CheckAction(action VoterWeightAction) error {
	switch action {
	case CastVote:
		// Casting a vote needs a weight computed for the specific proposal
		return ErrCastVoteNotAllowed
	case CommentProposal,
		CreateGovernance,
		CreateProposal,
		SignOffProposal:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownVoterWeightAction, uint8(action))
	}
}

// verifiedCollection requires a collection claim that has been verified by
// the collection authority
func verifiedCollection(metadata NftMetadata) (Collection, error) {
	if metadata.Collection == nil || !metadata.Collection.Verified {
		return Collection{}, ErrCollectionMustBeVerified
	}
	return *metadata.Collection, nil
}

// IsDecodeError returns true if err was caused by undecodable NFT metadata
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrProvenanceDecode)
}
