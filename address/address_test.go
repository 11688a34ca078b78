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

package address_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known program IDs used as fixtures
const (
	testTokenProgram    = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	testMetadataProgram = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
)

func TestParseRoundTrip(t *testing.T) {
	for _, s := range []string{testTokenProgram, testMetadataProgram} {
		addr, err := address.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, addr.String())
		assert.False(t, addr.IsZero())
	}
}

func TestParseInvalid(t *testing.T) {
	testDefs := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "too short", input: "abc"},
		{name: "invalid alphabet", input: "0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := address.Parse(testDef.input)
			require.ErrorIs(t, err, address.ErrInvalidAddress)
		})
	}
}

func TestFromBytes(t *testing.T) {
	_, err := address.FromBytes(make([]byte, 31))
	require.ErrorIs(t, err, address.ErrInvalidAddress)
	raw := make([]byte, address.Size)
	raw[0] = 0x01
	addr, err := address.FromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, addr.Bytes())
}

func TestDeriveDeterministic(t *testing.T) {
	mint := address.MustParse(testTokenProgram)
	a := address.Derive([]byte("registrar"), mint[:])
	b := address.Derive([]byte("registrar"), mint[:])
	assert.Equal(t, a, b)
	c := address.Derive([]byte("registrar"), mint[:], mint[:])
	assert.NotEqual(t, a, c)
	// Shifting bytes between seeds must produce a different address
	d := address.Derive([]byte("ab"), []byte("c"))
	e := address.Derive([]byte("a"), []byte("bc"))
	assert.NotEqual(t, d, e)
}

func TestDeriveLongSeeds(t *testing.T) {
	// A 256 byte seed must not share a length prefix with an empty seed
	tail := bytes.Repeat([]byte{0x00}, 255)
	long := append([]byte{0xff}, tail...)
	assert.NotEqual(t, address.Derive(long), address.Derive(nil, tail))

	a := bytes.Repeat([]byte{0x01}, 300)
	b := bytes.Repeat([]byte{0x01}, 301)
	assert.NotEqual(t, address.Derive(a), address.Derive(b))
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		Mint address.Address `json:"mint"`
	}
	w := wrapper{Mint: address.MustParse(testTokenProgram)}
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mint":"`+testTokenProgram+`"}`, string(data))
	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, w, out)
	require.Error(t, json.Unmarshal([]byte(`{"mint":"xyz"}`), &out))
}

func TestValueScan(t *testing.T) {
	addr := address.MustParse(testMetadataProgram)
	val, err := addr.Value()
	require.NoError(t, err)
	var out address.Address
	require.NoError(t, out.Scan(val))
	assert.Equal(t, addr, out)
	require.Error(t, out.Scan(int64(1)))
}
