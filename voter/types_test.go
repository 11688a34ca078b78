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

package voter_test

import (
	"encoding/json"
	"testing"

	"github.com/blinklabs-io/nftvoter/voter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoterWeightActionText(t *testing.T) {
	for _, action := range voter.AllVoterWeightActions() {
		text, err := action.MarshalText()
		require.NoError(t, err)
		var out voter.VoterWeightAction
		require.NoError(t, out.UnmarshalText(text))
		assert.Equal(t, action, out)
	}
	_, err := voter.VoterWeightAction(9).MarshalText()
	require.ErrorIs(t, err, voter.ErrUnknownVoterWeightAction)
	_, err = voter.ParseVoterWeightAction("vote")
	require.ErrorIs(t, err, voter.ErrUnknownVoterWeightAction)
	assert.Equal(t, "unknown(9)", voter.VoterWeightAction(9).String())
}

func TestVoterWeightActionOrder(t *testing.T) {
	// On-chain discriminants must not move
	assert.Equal(t, voter.VoterWeightAction(0), voter.CastVote)
	assert.Equal(t, voter.VoterWeightAction(1), voter.CommentProposal)
	assert.Equal(t, voter.VoterWeightAction(2), voter.CreateGovernance)
	assert.Equal(t, voter.VoterWeightAction(3), voter.CreateProposal)
	assert.Equal(t, voter.VoterWeightAction(4), voter.SignOffProposal)
}

func TestRegistrarValidate(t *testing.T) {
	reg := &voter.Registrar{
		Realm:              testRealm,
		GoverningTokenMint: testMint,
		CollectionConfigs: []voter.CollectionConfig{
			{Collection: testCollection, Weight: 1},
			{Collection: testOther, Weight: 2},
		},
	}
	require.NoError(t, reg.Validate())
	reg.CollectionConfigs = append(
		reg.CollectionConfigs,
		voter.CollectionConfig{Collection: testCollection, Weight: 3},
	)
	require.ErrorIs(t, reg.Validate(), voter.ErrDuplicateCollection)
}

func TestRegistrarAddress(t *testing.T) {
	reg := &voter.Registrar{Realm: testRealm, GoverningTokenMint: testMint}
	assert.Equal(
		t,
		voter.RegistrarAddress(testRealm, testMint),
		reg.Address(),
	)
	assert.NotEqual(
		t,
		voter.RegistrarAddress(testMint, testRealm),
		reg.Address(),
	)
	record := voter.NewVoterWeightRecord(testRealm, testMint, testOwner)
	assert.NotEqual(t, reg.Address(), record.Address())
	assert.Equal(
		t,
		voter.VoterWeightRecordAddress(testRealm, testMint, testOwner),
		record.Address(),
	)
}

func TestNewVoterWeightRecordIsStale(t *testing.T) {
	record := voter.NewVoterWeightRecord(testRealm, testMint, testOwner)
	assert.Equal(t, voter.RecordStateStale, record.State(0))
	assert.Zero(t, record.VoterWeight)
	assert.Nil(t, record.VoterWeightExpiry)
	assert.Nil(t, record.WeightAction)
	assert.Nil(t, record.WeightActionTarget)
}

func TestVoterWeightRecordCloneIsDeep(t *testing.T) {
	slot := uint64(7)
	action := voter.CreateProposal
	record := voter.NewVoterWeightRecord(testRealm, testMint, testOwner)
	record.VoterWeightExpiry = &slot
	record.WeightAction = &action
	clone := record.Clone()
	*clone.VoterWeightExpiry = 8
	*clone.WeightAction = voter.SignOffProposal
	assert.Equal(t, uint64(7), *record.VoterWeightExpiry)
	assert.Equal(t, voter.CreateProposal, *record.WeightAction)
}

func TestVoterWeightRecordJSON(t *testing.T) {
	slot := uint64(1000)
	action := voter.CommentProposal
	record := voter.NewVoterWeightRecord(testRealm, testMint, testOwner)
	record.VoterWeight = 5
	record.VoterWeightExpiry = &slot
	record.WeightAction = &action
	data, err := json.Marshal(record)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "commentProposal", raw["weightAction"])
	assert.Nil(t, raw["weightActionTarget"])
	assert.Equal(t, testOwner.String(), raw["governingTokenOwner"])
	var out voter.VoterWeightRecord
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, record, &out)
}
