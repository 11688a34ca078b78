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

package metadata_test

import (
	"testing"

	"github.com/blinklabs-io/nftvoter/database/metadata"
	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *metadata.MetadataStore {
	t.Helper()
	store, err := metadata.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func addr(b byte) []byte {
	ret := make([]byte, 32)
	for i := range ret {
		ret[i] = b
	}
	return ret
}

func TestNewErrors(t *testing.T) {
	_, err := metadata.New(metadata.WithDriver("mysql"))
	require.ErrorIs(t, err, metadata.ErrUnsupportedDriver)

	_, err = metadata.New(metadata.WithDriver(metadata.DriverPostgres))
	require.ErrorIs(t, err, metadata.ErrMissingDsn)
}

func TestNewDataDir(t *testing.T) {
	dir := t.TempDir()
	store, err := metadata.New(
		metadata.WithDataDir(dir),
		metadata.WithPromRegistry(prometheus.NewRegistry()),
		metadata.WithTracing(true),
	)
	require.NoError(t, err)
	assert.Equal(t, metadata.DriverSqlite, store.Driver())
	require.NoError(
		t,
		store.SetVoterWeightRecord(&models.VoterWeightRecord{
			Address:             addr(1),
			Realm:               addr(2),
			GoverningTokenMint:  addr(3),
			GoverningTokenOwner: addr(4),
		}, nil),
	)
	require.NoError(t, store.Close())

	// Data survives reopening
	store, err = metadata.New(metadata.WithDataDir(dir))
	require.NoError(t, err)
	defer store.Close()
	rec, err := store.GetVoterWeightRecord(addr(1), nil)
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	require.NoError(t, a.AddAttestation(&models.Attestation{
		Hash:          addr(9),
		RecordAddress: addr(1),
		Registrar:     addr(2),
		NftToken:      addr(3),
		NftMetadata:   addr(4),
		Result:        models.AttestationResultAccepted,
	}, nil))
	got, err := b.GetAttestations(addr(1), 0, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRegistrar(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetRegistrar(addr(1), nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	reg := &models.Registrar{
		Address:            addr(1),
		Realm:              addr(2),
		GoverningTokenMint: addr(3),
		CollectionConfigs: []models.CollectionConfig{
			{Collection: addr(10), Position: 0, Weight: 5},
			{Collection: addr(11), Position: 1, Weight: 65535},
		},
	}
	require.NoError(t, store.SetRegistrar(reg, nil))

	got, err = store.GetRegistrar(addr(1), nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, addr(2), got.Realm)
	require.Len(t, got.CollectionConfigs, 2)
	assert.Equal(t, addr(10), got.CollectionConfigs[0].Collection)
	assert.Equal(t, uint16(65535), got.CollectionConfigs[1].Weight)

	// Replacing swaps the collection configs
	require.NoError(t, store.SetRegistrar(&models.Registrar{
		Address:            addr(1),
		Realm:              addr(2),
		GoverningTokenMint: addr(3),
		CollectionConfigs: []models.CollectionConfig{
			{Collection: addr(12), Position: 0, Weight: 7},
		},
	}, nil))
	got, err = store.GetRegistrar(addr(1), nil)
	require.NoError(t, err)
	require.Len(t, got.CollectionConfigs, 1)
	assert.Equal(t, addr(12), got.CollectionConfigs[0].Collection)
	assert.Equal(t, uint16(7), got.CollectionConfigs[0].Weight)
}

func TestVoterWeightRecord(t *testing.T) {
	store := newTestStore(t)
	rec := &models.VoterWeightRecord{
		Address:             addr(1),
		Realm:               addr(2),
		GoverningTokenMint:  addr(3),
		GoverningTokenOwner: addr(4),
	}
	require.NoError(t, store.CreateVoterWeightRecord(rec, nil))
	err := store.CreateVoterWeightRecord(&models.VoterWeightRecord{
		Address:             addr(1),
		Realm:               addr(2),
		GoverningTokenMint:  addr(3),
		GoverningTokenOwner: addr(4),
	}, nil)
	require.ErrorIs(t, err, models.ErrVoterWeightRecordExists)

	got, err := store.GetVoterWeightRecord(addr(1), nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(0), got.VoterWeight)
	assert.Nil(t, got.VoterWeightExpiry)
	assert.Nil(t, got.WeightAction)

	expiry := uint64(1000)
	action := uint8(3)
	require.NoError(t, store.SetVoterWeightRecord(&models.VoterWeightRecord{
		Address:             addr(1),
		Realm:               addr(2),
		GoverningTokenMint:  addr(3),
		GoverningTokenOwner: addr(4),
		VoterWeight:         5,
		VoterWeightExpiry:   &expiry,
		WeightAction:        &action,
	}, nil))
	got, err = store.GetVoterWeightRecord(addr(1), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.VoterWeight)
	require.NotNil(t, got.VoterWeightExpiry)
	assert.Equal(t, expiry, *got.VoterWeightExpiry)
	require.NotNil(t, got.WeightAction)
	assert.Equal(t, action, *got.WeightAction)

	count, err := store.CountVoterWeightRecords(addr(2), addr(3), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	missing, err := store.GetVoterWeightRecord(addr(9), nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetVoterWeightRecord(&models.VoterWeightRecord{
		Address:             addr(1),
		Realm:               addr(2),
		GoverningTokenMint:  addr(3),
		GoverningTokenOwner: addr(4),
	}, txn))
	require.NoError(t, txn.Rollback())
	// Rolling back twice is a no-op
	require.NoError(t, txn.Rollback())

	got, err := store.GetVoterWeightRecord(addr(1), nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	// A finished transaction can't be reused
	_, err = store.GetVoterWeightRecord(addr(1), txn)
	require.Error(t, err)
}

func TestAttestations(t *testing.T) {
	store := newTestStore(t)
	for i := range 5 {
		require.NoError(t, store.AddAttestation(&models.Attestation{
			Hash:          addr(byte(100 + i)),
			RecordAddress: addr(1),
			Registrar:     addr(2),
			NftToken:      addr(3),
			NftMetadata:   addr(4),
			Action:        1,
			Slot:          uint64(i),
			Result:        models.AttestationResultAccepted,
		}, nil))
	}
	require.NoError(t, store.AddAttestation(&models.Attestation{
		Hash:          addr(200),
		RecordAddress: addr(9),
		Registrar:     addr(2),
		NftToken:      addr(3),
		NftMetadata:   addr(4),
		Result:        models.AttestationResultRejected,
		Kind:          "ownership_mismatch",
	}, nil))

	all, err := store.GetAttestations(addr(1), 0, nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	latest, err := store.GetAttestations(addr(1), 2, nil)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, uint64(4), latest[0].Slot)
	assert.Equal(t, uint64(3), latest[1].Slot)
	assert.True(t, latest[0].Accepted())

	other, err := store.GetAttestations(addr(9), 0, nil)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.False(t, other[0].Accepted())
}
