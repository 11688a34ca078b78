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

package updater_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/chaintime"
	"github.com/blinklabs-io/nftvoter/database"
	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/event"
	"github.com/blinklabs-io/nftvoter/metadata"
	"github.com/blinklabs-io/nftvoter/token"
	"github.com/blinklabs-io/nftvoter/updater"
	"github.com/blinklabs-io/nftvoter/voter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSlot = 1000

func testAddr(seed string) address.Address {
	return address.Derive([]byte(seed))
}

type fixture struct {
	db       *database.Database
	bus      *event.EventBus
	registry *prometheus.Registry
	updater  *updater.Updater

	realm      address.Address
	mint       address.Address
	owner      address.Address
	collection address.Address
	nftMint    address.Address
	registrar  *voter.Registrar
	record     *voter.VoterWeightRecord
	tokenAddr  address.Address
	metaAddr   address.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(func() {
		bus.Stop()
		require.NoError(t, db.Close())
	})
	f := &fixture{
		db:         db,
		bus:        bus,
		registry:   prometheus.NewRegistry(),
		realm:      testAddr("realm"),
		mint:       testAddr("governing-mint"),
		owner:      testAddr("owner"),
		collection: testAddr("collection"),
		nftMint:    testAddr("nft-mint"),
		tokenAddr:  testAddr("nft-token"),
		metaAddr:   testAddr("nft-metadata"),
	}
	f.updater, err = updater.New(updater.Config{
		Database: db,
		EventBus: bus,
		Engine: voter.NewEngine(
			metadata.NewDecoder(),
			chaintime.FixedSlot(testSlot),
		),
		SlotSource:   chaintime.FixedSlot(testSlot),
		PromRegistry: f.registry,
	})
	require.NoError(t, err)

	f.registrar = &voter.Registrar{
		Realm:              f.realm,
		GoverningTokenMint: f.mint,
		CollectionConfigs: []voter.CollectionConfig{
			{Collection: f.collection, Weight: 5},
		},
	}
	require.NoError(t, f.updater.SetRegistrar(t.Context(), f.registrar))
	f.record, err = f.updater.CreateVoterWeightRecord(
		t.Context(),
		f.realm,
		f.mint,
		f.owner,
	)
	require.NoError(t, err)
	f.putToken(t, f.owner, f.nftMint)
	f.putMetadata(t, f.nftMint, &metadata.Collection{Verified: true, Key: f.collection})
	return f
}

func (f *fixture) putToken(t *testing.T, owner, mint address.Address) {
	t.Helper()
	acct := &token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: 1,
		State:  token.AccountStateInitialized,
	}
	require.NoError(t, f.updater.PutAccount(t.Context(), f.tokenAddr, acct.Encode()))
}

func (f *fixture) putMetadata(
	t *testing.T,
	mint address.Address,
	collection *metadata.Collection,
) {
	t.Helper()
	m := &metadata.Metadata{
		Mint:       mint,
		Data:       metadata.Data{Name: "Voter", Symbol: "VOTE"},
		Collection: collection,
	}
	require.NoError(t, f.updater.PutAccount(t.Context(), f.metaAddr, m.Encode()))
}

func (f *fixture) request(action voter.VoterWeightAction) updater.UpdateRequest {
	return updater.UpdateRequest{
		Registrar:         f.registrar.Address(),
		VoterWeightRecord: f.record.Address(),
		NftToken:          f.tokenAddr,
		NftMetadata:       f.metaAddr,
		Action:            action,
	}
}

func TestUpdateVoterWeightRecord(t *testing.T) {
	f := newFixture(t)
	_, updCh := f.bus.Subscribe(event.VoterWeightUpdatedEventType)

	got, err := f.updater.UpdateVoterWeightRecord(
		t.Context(),
		f.request(voter.CreateProposal),
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.VoterWeight)
	require.NotNil(t, got.VoterWeightExpiry)
	assert.Equal(t, uint64(testSlot), *got.VoterWeightExpiry)
	require.NotNil(t, got.WeightAction)
	assert.Equal(t, voter.CreateProposal, *got.WeightAction)
	assert.Nil(t, got.WeightActionTarget)

	stored, state, err := f.updater.GetVoterWeightRecord(t.Context(), f.record.Address())
	require.NoError(t, err)
	assert.Equal(t, got, stored)
	assert.Equal(t, voter.RecordStateFresh, state)

	atts, err := f.updater.GetAttestations(t.Context(), f.record.Address(), 0)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.True(t, atts[0].Accepted())
	assert.Equal(t, uint64(5), atts[0].Weight)
	assert.Equal(t, uint64(testSlot), atts[0].Slot)
	assert.Len(t, atts[0].Hash, 32)

	select {
	case evt := <-updCh:
		data, ok := evt.Data.(event.VoterWeightUpdatedEvent)
		require.True(t, ok)
		assert.Equal(t, f.record.Address(), data.RecordAddress)
		assert.Equal(t, uint64(5), data.VoterWeight)
		assert.Equal(t, atts[0].Hash, data.AttestationHash)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for update event")
	}

	assert.InDelta(
		t,
		1,
		counterValue(t, f.registry, "nftvoter_attestations_total", "accepted"),
		0,
	)
}

// counterValue returns the value of the counter series with the given label
// value
func counterValue(
	t *testing.T,
	reg *prometheus.Registry,
	name string,
	labelValue string,
) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == labelValue {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestUpdateVoterWeightRecordRejections(t *testing.T) {
	testCases := []struct {
		name   string
		setup  func(t *testing.T, f *fixture)
		action voter.VoterWeightAction
		err    error
		kind   string
	}{
		{
			name:   "cast vote",
			action: voter.CastVote,
			err:    voter.ErrCastVoteNotAllowed,
			kind:   voter.KindActionNotAllowed,
		},
		{
			name: "not owner",
			setup: func(t *testing.T, f *fixture) {
				f.putToken(t, testAddr("someone-else"), f.nftMint)
			},
			action: voter.CommentProposal,
			err:    voter.ErrVoterDoesNotOwnNft,
			kind:   voter.KindOwnershipMismatch,
		},
		{
			name: "mint mismatch",
			setup: func(t *testing.T, f *fixture) {
				f.putMetadata(t, testAddr("other-mint"), &metadata.Collection{
					Verified: true,
					Key:      f.collection,
				})
			},
			action: voter.CommentProposal,
			err:    voter.ErrTokenMetadataDoesNotMatch,
			kind:   voter.KindMintMismatch,
		},
		{
			name: "unverified collection",
			setup: func(t *testing.T, f *fixture) {
				f.putMetadata(t, f.nftMint, &metadata.Collection{Key: f.collection})
			},
			action: voter.CommentProposal,
			err:    voter.ErrCollectionMustBeVerified,
			kind:   voter.KindCollectionUnverifiedOrMissing,
		},
		{
			name: "unknown collection",
			setup: func(t *testing.T, f *fixture) {
				f.putMetadata(t, f.nftMint, &metadata.Collection{
					Verified: true,
					Key:      testAddr("other-collection"),
				})
			},
			action: voter.CommentProposal,
			err:    voter.ErrCollectionNotFound,
			kind:   voter.KindCollectionNotConfigured,
		},
		{
			name: "metadata without trailing fields",
			setup: func(t *testing.T, f *fixture) {
				m := &metadata.Metadata{
					Mint: f.nftMint,
					Data: metadata.Data{Name: "Voter", Symbol: "VOTE"},
				}
				raw := m.Encode()
				// Drop the edition nonce, token standard, collection and
				// uses option tags
				raw = raw[:len(raw)-4]
				require.NoError(t, f.updater.PutAccount(t.Context(), f.metaAddr, raw))
			},
			action: voter.CommentProposal,
			err:    voter.ErrCollectionMustBeVerified,
			kind:   voter.KindCollectionUnverifiedOrMissing,
		},
		{
			name: "undecodable metadata",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.updater.PutAccount(t.Context(), f.metaAddr, []byte{4, 1, 2}))
			},
			action: voter.CommentProposal,
			err:    voter.ErrProvenanceDecode,
			kind:   voter.KindProvenanceDecodeFailure,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(t, f)
			}
			_, rejCh := f.bus.Subscribe(event.VoterWeightRejectedEventType)

			_, err := f.updater.UpdateVoterWeightRecord(t.Context(), f.request(tc.action))
			require.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.kind, voter.ErrorKind(err))

			stored, state, err := f.updater.GetVoterWeightRecord(t.Context(), f.record.Address())
			require.NoError(t, err)
			assert.Equal(t, f.record, stored, "record must be unchanged")
			assert.Equal(t, voter.RecordStateStale, state)

			atts, err := f.updater.GetAttestations(t.Context(), f.record.Address(), 0)
			require.NoError(t, err)
			require.Len(t, atts, 1)
			assert.False(t, atts[0].Accepted())
			assert.Equal(t, tc.kind, atts[0].Kind)
			assert.NotEmpty(t, atts[0].Error)

			assert.InDelta(
				t,
				1,
				counterValue(t, f.registry, "nftvoter_attestation_rejections_total", tc.kind),
				0,
			)

			select {
			case evt := <-rejCh:
				data, ok := evt.Data.(event.VoterWeightRejectedEvent)
				require.True(t, ok)
				assert.Equal(t, tc.kind, data.Kind)
			case <-time.After(time.Second):
				t.Fatal("timeout waiting for rejection event")
			}
		})
	}
}

func TestUpdateVoterWeightRecordBoundary(t *testing.T) {
	f := newFixture(t)
	// A registrar for a different realm can't update this record
	other := &voter.Registrar{
		Realm:              testAddr("other-realm"),
		GoverningTokenMint: f.mint,
		CollectionConfigs:  f.registrar.CollectionConfigs,
	}
	require.NoError(t, f.updater.SetRegistrar(t.Context(), other))
	req := f.request(voter.CommentProposal)
	req.Registrar = other.Address()
	_, err := f.updater.UpdateVoterWeightRecord(t.Context(), req)
	require.ErrorIs(t, err, voter.ErrInvalidVoterWeightRecordRealm)

	otherMint := &voter.Registrar{
		Realm:              f.realm,
		GoverningTokenMint: testAddr("other-mint"),
		CollectionConfigs:  f.registrar.CollectionConfigs,
	}
	require.NoError(t, f.updater.SetRegistrar(t.Context(), otherMint))
	req.Registrar = otherMint.Address()
	_, err = f.updater.UpdateVoterWeightRecord(t.Context(), req)
	require.ErrorIs(t, err, voter.ErrInvalidVoterWeightRecordMint)
}

func TestUpdateVoterWeightRecordMissingState(t *testing.T) {
	f := newFixture(t)

	req := f.request(voter.CommentProposal)
	req.Registrar = testAddr("missing")
	_, err := f.updater.UpdateVoterWeightRecord(t.Context(), req)
	require.ErrorIs(t, err, models.ErrRegistrarNotFound)

	req = f.request(voter.CommentProposal)
	req.VoterWeightRecord = testAddr("missing")
	_, err = f.updater.UpdateVoterWeightRecord(t.Context(), req)
	require.ErrorIs(t, err, models.ErrVoterWeightRecordNotFound)

	req = f.request(voter.CommentProposal)
	req.NftToken = testAddr("missing")
	_, err = f.updater.UpdateVoterWeightRecord(t.Context(), req)
	require.ErrorIs(t, err, models.ErrAccountNotFound)

	req = f.request(voter.CommentProposal)
	req.NftMetadata = testAddr("missing")
	_, err = f.updater.UpdateVoterWeightRecord(t.Context(), req)
	require.ErrorIs(t, err, models.ErrAccountNotFound)

	// Lookup failures are not attestations
	atts, err := f.updater.GetAttestations(t.Context(), f.record.Address(), 0)
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestUpdateVoterWeightRecordBadTokenAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.updater.PutAccount(t.Context(), f.tokenAddr, []byte("short")))
	_, err := f.updater.UpdateVoterWeightRecord(t.Context(), f.request(voter.CommentProposal))
	require.ErrorIs(t, err, voter.ErrTokenAccountDecode)
	require.ErrorIs(t, err, token.ErrInvalidAccountSize)
	assert.Equal(t, voter.KindOwnershipDecodeFailure, voter.ErrorKind(err))

	// Undecodable token accounts are logged like undecodable metadata
	atts, err := f.updater.GetAttestations(t.Context(), f.record.Address(), 0)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.False(t, atts[0].Accepted())
	assert.Equal(t, voter.KindOwnershipDecodeFailure, atts[0].Kind)
	assert.InDelta(
		t,
		1,
		counterValue(t, f.registry, "nftvoter_attestation_rejections_total", voter.KindOwnershipDecodeFailure),
		0,
	)
}

func TestCastVoteRejectedBeforeAccountLookup(t *testing.T) {
	f := newFixture(t)
	req := f.request(voter.CastVote)
	req.NftToken = testAddr("missing-token")
	req.NftMetadata = testAddr("missing-metadata")
	_, err := f.updater.UpdateVoterWeightRecord(t.Context(), req)
	require.ErrorIs(t, err, voter.ErrCastVoteNotAllowed)
	require.NotErrorIs(t, err, models.ErrAccountNotFound)
	assert.Equal(t, voter.KindActionNotAllowed, voter.ErrorKind(err))

	req.Action = voter.VoterWeightAction(42)
	_, err = f.updater.UpdateVoterWeightRecord(t.Context(), req)
	require.ErrorIs(t, err, voter.ErrUnknownVoterWeightAction)
}

func TestBlockedSubscriberDoesNotStallUpdates(t *testing.T) {
	f := newFixture(t)
	// Nobody reads from this channel, so its buffer fills up
	_, updCh := f.bus.Subscribe(event.VoterWeightUpdatedEventType)

	updates := 2*event.EventQueueSize + event.AsyncWorkerPoolSize
	done := make(chan error, 1)
	go func() {
		for range updates {
			_, err := f.updater.UpdateVoterWeightRecord(
				context.Background(),
				f.request(voter.CommentProposal),
			)
			if err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("updates blocked behind a full event subscriber")
	}
	assert.Eventually(t, func() bool {
		return len(updCh) == event.EventQueueSize
	}, time.Second, 5*time.Millisecond)

	atts, err := f.updater.GetAttestations(t.Context(), f.record.Address(), 0)
	require.NoError(t, err)
	assert.Len(t, atts, updates)
}

func TestCreateVoterWeightRecord(t *testing.T) {
	f := newFixture(t)

	_, err := f.updater.CreateVoterWeightRecord(t.Context(), f.realm, f.mint, f.owner)
	require.ErrorIs(t, err, models.ErrVoterWeightRecordExists)

	_, err = f.updater.CreateVoterWeightRecord(
		t.Context(),
		testAddr("unknown-realm"),
		f.mint,
		f.owner,
	)
	require.ErrorIs(t, err, models.ErrRegistrarNotFound)

	rec, err := f.updater.CreateVoterWeightRecord(
		t.Context(),
		f.realm,
		f.mint,
		testAddr("second-owner"),
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), rec.VoterWeight)
	assert.Nil(t, rec.VoterWeightExpiry)
}

func TestConcurrentUpdates(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			action := voter.CommentProposal
			if i%2 == 0 {
				action = voter.SignOffProposal
			}
			_, err := f.updater.UpdateVoterWeightRecord(context.Background(), f.request(action))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	atts, err := f.updater.GetAttestations(t.Context(), f.record.Address(), 0)
	require.NoError(t, err)
	assert.Len(t, atts, 10)
}

func TestCanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := f.updater.UpdateVoterWeightRecord(ctx, f.request(voter.CommentProposal))
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewValidation(t *testing.T) {
	_, err := updater.New(updater.Config{})
	require.ErrorIs(t, err, updater.ErrMissingDatabase)

	db, err := database.New(nil)
	require.NoError(t, err)
	defer db.Close()
	_, err = updater.New(updater.Config{Database: db})
	require.ErrorIs(t, err, updater.ErrMissingEngine)
	_, err = updater.New(updater.Config{
		Database: db,
		Engine:   voter.NewEngine(metadata.NewDecoder(), chaintime.FixedSlot(1)),
	})
	require.ErrorIs(t, err, updater.ErrMissingSlotSource)
}
