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

package blob_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/nftvoter/database/blob"
	"github.com/blinklabs-io/nftvoter/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStoreInMemory(t *testing.T) {
	store, err := blob.New()
	require.NoError(t, err)
	defer store.Close()

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("acct:a"), []byte("one")))
	require.NoError(t, store.Set(txn, []byte("acct:b"), []byte("two")))
	require.NoError(t, store.Set(txn, []byte("other"), []byte("three")))
	require.NoError(t, txn.Commit())
	// Committing twice is a no-op
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := store.Get(txn, []byte("acct:a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), val)

	_, err = store.Get(txn, []byte("acct:missing"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)

	keys, err := store.Keys(txn, []byte("acct:"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("acct:a"), []byte("acct:b")}, keys)
}

func TestBlobStoreRollback(t *testing.T) {
	store, err := blob.New()
	require.NoError(t, err)
	defer store.Close()

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())

	_, err = store.Get(txn, []byte("k"))
	require.ErrorIs(t, err, types.ErrTxnFinished)

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = store.Get(txn, []byte("k"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestBlobStoreDelete(t *testing.T) {
	store, err := blob.New()
	require.NoError(t, err)
	defer store.Close()

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, store.Delete(txn, []byte("k")))
	_, err = store.Get(txn, []byte("k"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Commit())
}

func TestBlobStoreTxnValidation(t *testing.T) {
	a, err := blob.New()
	require.NoError(t, err)
	defer a.Close()
	b, err := blob.New()
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Get(nil, []byte("k"))
	require.ErrorIs(t, err, types.ErrNilTxn)

	txn := b.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = a.Get(txn, []byte("k"))
	require.Error(t, err)
}

func TestBlobStoreDataDir(t *testing.T) {
	dir := t.TempDir()
	store, err := blob.New(
		blob.WithDataDir(dir),
		blob.WithGcInterval(10*time.Millisecond),
		blob.WithValueLogFileSize(1<<20),
		blob.WithPromRegistry(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	// Let the GC loop run at least once
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, store.Close())
	// Close is idempotent
	require.NoError(t, store.Close())

	store, err = blob.New(blob.WithDataDir(dir), blob.WithGc(false))
	require.NoError(t, err)
	defer store.Close()
	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := store.Get(txn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}
