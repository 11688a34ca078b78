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

package database_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/database"
	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/voter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func testAddr(b byte) address.Address {
	var ret address.Address
	for i := range ret {
		ret[i] = b
	}
	return ret
}

func TestRegistrarRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	reg := &voter.Registrar{
		Realm:              testAddr(1),
		GoverningTokenMint: testAddr(2),
		CollectionConfigs: []voter.CollectionConfig{
			{Collection: testAddr(12), Weight: 3},
			{Collection: testAddr(10), Weight: 5},
		},
	}
	require.NoError(t, db.SetRegistrar(reg, nil))

	got, err := db.GetRegistrar(reg.Address(), nil)
	require.NoError(t, err)
	assert.Equal(t, reg, got)

	_, err = db.GetRegistrar(testAddr(99), nil)
	require.ErrorIs(t, err, models.ErrRegistrarNotFound)
}

func TestSetRegistrarRejectsDuplicates(t *testing.T) {
	db := newTestDatabase(t)
	err := db.SetRegistrar(&voter.Registrar{
		Realm:              testAddr(1),
		GoverningTokenMint: testAddr(2),
		CollectionConfigs: []voter.CollectionConfig{
			{Collection: testAddr(10), Weight: 3},
			{Collection: testAddr(10), Weight: 5},
		},
	}, nil)
	require.ErrorIs(t, err, voter.ErrDuplicateCollection)
}

func TestVoterWeightRecordRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	rec := voter.NewVoterWeightRecord(testAddr(1), testAddr(2), testAddr(3))
	require.NoError(t, db.CreateVoterWeightRecord(rec, nil))

	err := db.CreateVoterWeightRecord(rec, nil)
	require.ErrorIs(t, err, models.ErrVoterWeightRecordExists)

	count, err := db.CountVoterWeightRecords(testAddr(1), testAddr(2), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = db.CountVoterWeightRecords(testAddr(1), testAddr(9), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	got, err := db.GetVoterWeightRecord(rec.Address(), nil)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	expiry := uint64(1234)
	action := voter.CreateProposal
	rec.VoterWeight = 65535
	rec.VoterWeightExpiry = &expiry
	rec.WeightAction = &action
	require.NoError(t, db.SetVoterWeightRecord(rec, nil))

	got, err = db.GetVoterWeightRecord(rec.Address(), nil)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, voter.RecordStateFresh, got.State(1234))

	_, err = db.GetVoterWeightRecord(testAddr(99), nil)
	require.ErrorIs(t, err, models.ErrVoterWeightRecordNotFound)
}

func TestAccounts(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.GetAccount(testAddr(1), nil)
	require.ErrorIs(t, err, models.ErrAccountNotFound)

	require.NoError(t, db.SetAccount(testAddr(1), []byte("data"), nil))
	require.NoError(t, db.SetAccount(testAddr(2), []byte("more"), nil))
	got, err := db.GetAccount(testAddr(1), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	addrs, err := db.GetAccountAddresses(nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []address.Address{testAddr(1), testAddr(2)}, addrs)
}

func TestTxnDoCommitsBothStores(t *testing.T) {
	db := newTestDatabase(t)
	rec := voter.NewVoterWeightRecord(testAddr(1), testAddr(2), testAddr(3))
	txn := db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		if err := db.CreateVoterWeightRecord(rec, txn); err != nil {
			return err
		}
		return db.SetAccount(testAddr(4), []byte("acct"), txn)
	})
	require.NoError(t, err)

	_, err = db.GetVoterWeightRecord(rec.Address(), nil)
	require.NoError(t, err)
	_, err = db.GetAccount(testAddr(4), nil)
	require.NoError(t, err)
}

func TestTxnDoRollsBackBothStores(t *testing.T) {
	db := newTestDatabase(t)
	rec := voter.NewVoterWeightRecord(testAddr(1), testAddr(2), testAddr(3))
	errBoom := errors.New("boom")
	txn := db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		if err := db.CreateVoterWeightRecord(rec, txn); err != nil {
			return err
		}
		if err := db.SetAccount(testAddr(4), []byte("acct"), txn); err != nil {
			return err
		}
		if err := db.AddAttestation(&models.Attestation{
			Hash:          testAddr(5).Bytes(),
			RecordAddress: rec.Address().Bytes(),
			Registrar:     testAddr(6).Bytes(),
			NftToken:      testAddr(7).Bytes(),
			NftMetadata:   testAddr(8).Bytes(),
			Result:        models.AttestationResultAccepted,
		}, txn); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = db.GetVoterWeightRecord(rec.Address(), nil)
	require.ErrorIs(t, err, models.ErrVoterWeightRecordNotFound)
	_, err = db.GetAccount(testAddr(4), nil)
	require.ErrorIs(t, err, models.ErrAccountNotFound)
	atts, err := db.GetAttestations(rec.Address(), 0, nil)
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestAttestationLog(t *testing.T) {
	db := newTestDatabase(t)
	rec := testAddr(1)
	for slot := range uint64(3) {
		require.NoError(t, db.AddAttestation(&models.Attestation{
			Hash:          testAddr(byte(10 + slot)).Bytes(),
			RecordAddress: rec.Bytes(),
			Registrar:     testAddr(2).Bytes(),
			NftToken:      testAddr(3).Bytes(),
			NftMetadata:   testAddr(4).Bytes(),
			Slot:          slot,
			Result:        models.AttestationResultAccepted,
		}, nil))
	}
	atts, err := db.GetAttestations(rec, 1, nil)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, uint64(2), atts[0].Slot)
}

func TestCommitReadOnlyTxn(t *testing.T) {
	db := newTestDatabase(t)
	txn := db.Transaction(false)
	require.NoError(t, txn.Commit())
	// Finished transactions ignore further calls
	require.NoError(t, txn.Rollback())
	txn.Release()
}
