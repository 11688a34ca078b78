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

import "errors"

// Domain rejections. Each is terminal for a single update and leaves the
// voter weight record untouched
var (
	ErrCastVoteNotAllowed        = errors.New("cast vote is not allowed")
	ErrVoterDoesNotOwnNft        = errors.New("voter does not own nft")
	ErrTokenMetadataDoesNotMatch = errors.New("token metadata does not match")
	ErrCollectionMustBeVerified  = errors.New("collection must be verified")
	ErrCollectionNotFound        = errors.New("collection not found")
)

// ErrProvenanceDecode wraps failures to decode the NFT metadata account. It
// signals malformed input rather than a non-qualifying NFT
var ErrProvenanceDecode = errors.New("failed to decode nft metadata")

// ErrTokenAccountDecode wraps failures to decode the NFT token account
var ErrTokenAccountDecode = errors.New("failed to decode nft token account")

// Caller boundary errors
var (
	ErrInvalidVoterWeightRecordRealm = errors.New(
		"invalid voter weight record realm",
	)
	ErrInvalidVoterWeightRecordMint = errors.New(
		"invalid voter weight record mint",
	)
)

var (
	ErrUnknownVoterWeightAction = errors.New("unknown voter weight action")
	ErrDuplicateCollection      = errors.New("duplicate collection config")
)

// Error kinds reported by ErrorKind
const (
	KindActionNotAllowed              = "action_not_allowed"
	KindOwnershipMismatch             = "ownership_mismatch"
	KindProvenanceDecodeFailure       = "provenance_decode_failure"
	KindOwnershipDecodeFailure        = "ownership_decode_failure"
	KindMintMismatch                  = "mint_mismatch"
	KindCollectionUnverifiedOrMissing = "collection_unverified_or_missing"
	KindCollectionNotConfigured       = "collection_not_configured"
	KindInvalidRecordRealm            = "invalid_record_realm"
	KindInvalidRecordMint             = "invalid_record_mint"
	KindUnknownAction                 = "unknown_action"
	KindInternal                      = "internal"
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrCastVoteNotAllowed, KindActionNotAllowed},
	{ErrVoterDoesNotOwnNft, KindOwnershipMismatch},
	{ErrProvenanceDecode, KindProvenanceDecodeFailure},
	{ErrTokenAccountDecode, KindOwnershipDecodeFailure},
	{ErrTokenMetadataDoesNotMatch, KindMintMismatch},
	{ErrCollectionMustBeVerified, KindCollectionUnverifiedOrMissing},
	{ErrCollectionNotFound, KindCollectionNotConfigured},
	{ErrInvalidVoterWeightRecordRealm, KindInvalidRecordRealm},
	{ErrInvalidVoterWeightRecordMint, KindInvalidRecordMint},
	{ErrUnknownVoterWeightAction, KindUnknownAction},
}

// ErrorKind maps an error returned by this package to a stable identifier
// suitable for metrics labels and API responses. Unrecognized errors map to
// KindInternal
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindInternal
}

// IsValidationError returns true for well-formed input that does not qualify
// for a voter weight. Decode failures and internal faults return false
func IsValidationError(err error) bool {
	switch ErrorKind(err) {
	case KindActionNotAllowed,
		KindOwnershipMismatch,
		KindMintMismatch,
		KindCollectionUnverifiedOrMissing,
		KindCollectionNotConfigured,
		KindInvalidRecordRealm,
		KindInvalidRecordMint:
		return true
	default:
		return false
	}
}
