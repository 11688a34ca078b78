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

package metadata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/voter"
)

// Account discriminators used by the token metadata program
const (
	KeyUninitialized   uint8 = 0
	KeyEditionV1       uint8 = 1
	KeyMasterEditionV1 uint8 = 2
	KeyMetadataV1      uint8 = 4
)

var ErrInvalidAccountKey = errors.New("account is not a metadata account")

type Creator struct {
	Address  address.Address `json:"address"`
	Verified bool            `json:"verified"`
	Share    uint8           `json:"share"`
}

type Data struct {
	Name                 string    `json:"name"`
	Symbol               string    `json:"symbol"`
	URI                  string    `json:"uri"`
	SellerFeeBasisPoints uint16    `json:"sellerFeeBasisPoints"`
	Creators             []Creator `json:"creators,omitempty"`
}

type Collection struct {
	Verified bool            `json:"verified"`
	Key      address.Address `json:"key"`
}

type Uses struct {
	UseMethod uint8  `json:"useMethod"`
	Remaining uint64 `json:"remaining"`
	Total     uint64 `json:"total"`
}

// Metadata is a decoded token metadata account
type Metadata struct {
	Key                 uint8           `json:"key"`
	UpdateAuthority     address.Address `json:"updateAuthority"`
	Mint                address.Address `json:"mint"`
	Data                Data            `json:"data"`
	PrimarySaleHappened bool            `json:"primarySaleHappened"`
	IsMutable           bool            `json:"isMutable"`
	EditionNonce        *uint8          `json:"editionNonce,omitempty"`
	TokenStandard       *uint8          `json:"tokenStandard,omitempty"`
	Collection          *Collection     `json:"collection,omitempty"`
	Uses                *Uses           `json:"uses,omitempty"`
}

// Decode parses a raw token metadata account. Bytes following the last
// field are account padding and are ignored. Optional fields after
// is_mutable may be missing entirely
func Decode(data []byte) (*Metadata, error) {
	r := newBorshReader(data)
	ret := &Metadata{}
	var err error
	if ret.Key, err = r.u8(); err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if ret.Key != KeyMetadataV1 {
		return nil, fmt.Errorf("%w: key %d", ErrInvalidAccountKey, ret.Key)
	}
	if ret.UpdateAuthority, err = r.address(); err != nil {
		return nil, fmt.Errorf("decode update authority: %w", err)
	}
	if ret.Mint, err = r.address(); err != nil {
		return nil, fmt.Errorf("decode mint: %w", err)
	}
	if err := decodeData(r, &ret.Data); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	if ret.PrimarySaleHappened, err = r.bool(); err != nil {
		return nil, fmt.Errorf("decode primary sale happened: %w", err)
	}
	if ret.IsMutable, err = r.bool(); err != nil {
		return nil, fmt.Errorf("decode is mutable: %w", err)
	}
	// Accounts written before these fields existed end here. Missing
	// trailing fields decode as absent
	if r.done() {
		return ret, nil
	}
	if ret.EditionNonce, err = optionalU8(r); err != nil {
		return nil, fmt.Errorf("decode edition nonce: %w", err)
	}
	if r.done() {
		return ret, nil
	}
	if ret.TokenStandard, err = optionalU8(r); err != nil {
		return nil, fmt.Errorf("decode token standard: %w", err)
	}
	if r.done() {
		return ret, nil
	}
	if ret.Collection, err = decodeCollection(r); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if r.done() {
		return ret, nil
	}
	if ret.Uses, err = decodeUses(r); err != nil {
		return nil, fmt.Errorf("decode uses: %w", err)
	}
	return ret, nil
}

func decodeData(r *borshReader, d *Data) error {
	var err error
	if d.Name, err = r.string(); err != nil {
		return err
	}
	if d.Symbol, err = r.string(); err != nil {
		return err
	}
	if d.URI, err = r.string(); err != nil {
		return err
	}
	d.Name = trimPadding(d.Name)
	d.Symbol = trimPadding(d.Symbol)
	d.URI = trimPadding(d.URI)
	if d.SellerFeeBasisPoints, err = r.u16(); err != nil {
		return err
	}
	present, err := r.option()
	if err != nil || !present {
		return err
	}
	count, err := r.u32()
	if err != nil {
		return err
	}
	// Each creator occupies 34 bytes
	if int(count) > (len(r.data)-r.offset)/34 {
		return fmt.Errorf("%w: %d creators", ErrUnexpectedEOF, count)
	}
	d.Creators = make([]Creator, 0, count)
	for range count {
		var c Creator
		if c.Address, err = r.address(); err != nil {
			return err
		}
		if c.Verified, err = r.bool(); err != nil {
			return err
		}
		if c.Share, err = r.u8(); err != nil {
			return err
		}
		d.Creators = append(d.Creators, c)
	}
	return nil
}

func decodeCollection(r *borshReader) (*Collection, error) {
	present, err := r.option()
	if err != nil || !present {
		return nil, err
	}
	ret := &Collection{}
	if ret.Verified, err = r.bool(); err != nil {
		return nil, err
	}
	if ret.Key, err = r.address(); err != nil {
		return nil, err
	}
	return ret, nil
}

func decodeUses(r *borshReader) (*Uses, error) {
	present, err := r.option()
	if err != nil || !present {
		return nil, err
	}
	ret := &Uses{}
	if ret.UseMethod, err = r.u8(); err != nil {
		return nil, err
	}
	if ret.Remaining, err = r.u64(); err != nil {
		return nil, err
	}
	if ret.Total, err = r.u64(); err != nil {
		return nil, err
	}
	return ret, nil
}

func optionalU8(r *borshReader) (*uint8, error) {
	present, err := r.option()
	if err != nil || !present {
		return nil, err
	}
	v, err := r.u8()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func trimPadding(s string) string {
	return strings.TrimRight(s, "\x00")
}

// Provenance returns the subset of the metadata used for weight attestation
func (m *Metadata) Provenance() voter.NftMetadata {
	ret := voter.NftMetadata{Mint: m.Mint}
	if m.Collection != nil {
		ret.Collection = &voter.Collection{
			Key:      m.Collection.Key,
			Verified: m.Collection.Verified,
		}
	}
	return ret
}

// Decoder implements voter.ProvenanceDecoder for token metadata accounts
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (Decoder) DecodeProvenance(data []byte) (voter.NftMetadata, error) {
	m, err := Decode(data)
	if err != nil {
		return voter.NftMetadata{}, err
	}
	return m.Provenance(), nil
}
