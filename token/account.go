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

package token

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/voter"
)

// AccountSize is the packed length of an SPL token account
const AccountSize = 165

var (
	ErrInvalidAccountSize   = errors.New("invalid token account size")
	ErrAccountUninitialized = errors.New("token account is uninitialized")
	ErrInvalidAccountState  = errors.New("invalid token account state")
)

type AccountState uint8

const (
	AccountStateUninitialized AccountState = 0
	AccountStateInitialized   AccountState = 1
	AccountStateFrozen        AccountState = 2
)

func (s AccountState) String() string {
	switch s {
	case AccountStateUninitialized:
		return "uninitialized"
	case AccountStateInitialized:
		return "initialized"
	case AccountStateFrozen:
		return "frozen"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseAccountState accepts the lowercase state name
func ParseAccountState(str string) (AccountState, error) {
	for _, state := range []AccountState{
		AccountStateUninitialized,
		AccountStateInitialized,
		AccountStateFrozen,
	} {
		if state.String() == str {
			return state, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAccountState, str)
}

func (s AccountState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AccountState) UnmarshalText(data []byte) error {
	tmp, err := ParseAccountState(string(data))
	if err != nil {
		return err
	}
	*s = tmp
	return nil
}

// Account is a decoded SPL token account
type Account struct {
	Mint            address.Address  `json:"mint"`
	Owner           address.Address  `json:"owner"`
	Amount          uint64           `json:"amount"`
	Delegate        *address.Address `json:"delegate,omitempty"`
	State           AccountState     `json:"state"`
	IsNative        *uint64          `json:"isNative,omitempty"`
	DelegatedAmount uint64           `json:"delegatedAmount"`
	CloseAuthority  *address.Address `json:"closeAuthority,omitempty"`
}

// DecodeAccount parses a packed SPL token account. Data beyond AccountSize
// is ignored
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) < AccountSize {
		return nil, fmt.Errorf(
			"%w: got %d bytes, expected %d",
			ErrInvalidAccountSize,
			len(data),
			AccountSize,
		)
	}
	ret := &Account{
		Amount:          binary.LittleEndian.Uint64(data[64:72]),
		State:           AccountState(data[108]),
		DelegatedAmount: binary.LittleEndian.Uint64(data[121:129]),
	}
	copy(ret.Mint[:], data[0:32])
	copy(ret.Owner[:], data[32:64])
	switch ret.State {
	case AccountStateUninitialized:
		return nil, ErrAccountUninitialized
	case AccountStateInitialized, AccountStateFrozen:
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidAccountState, data[108])
	}
	var err error
	if ret.Delegate, err = optionalAddress(data[72:108]); err != nil {
		return nil, fmt.Errorf("decode delegate: %w", err)
	}
	if ret.CloseAuthority, err = optionalAddress(data[129:165]); err != nil {
		return nil, fmt.Errorf("decode close authority: %w", err)
	}
	switch tag := binary.LittleEndian.Uint32(data[109:113]); tag {
	case 0:
	case 1:
		v := binary.LittleEndian.Uint64(data[113:121])
		ret.IsNative = &v
	default:
		return nil, fmt.Errorf("decode is native: invalid option tag %d", tag)
	}
	return ret, nil
}

// optionalAddress decodes a COption<Pubkey>: a u32 tag followed by 32 bytes
func optionalAddress(data []byte) (*address.Address, error) {
	switch tag := binary.LittleEndian.Uint32(data[0:4]); tag {
	case 0:
		return nil, nil
	case 1:
		ret, err := address.FromBytes(data[4:36])
		if err != nil {
			return nil, err
		}
		return &ret, nil
	default:
		return nil, fmt.Errorf("invalid option tag %d", tag)
	}
}

// Ownership returns the owner/mint pair used as an ownership proof
func (a *Account) Ownership() voter.TokenOwnership {
	return voter.TokenOwnership{
		Owner: a.Owner,
		Mint:  a.Mint,
	}
}

// Encode packs the account into its on-chain layout
func (a *Account) Encode() []byte {
	ret := make([]byte, AccountSize)
	copy(ret[0:32], a.Mint[:])
	copy(ret[32:64], a.Owner[:])
	binary.LittleEndian.PutUint64(ret[64:72], a.Amount)
	if a.Delegate != nil {
		binary.LittleEndian.PutUint32(ret[72:76], 1)
		copy(ret[76:108], a.Delegate[:])
	}
	ret[108] = byte(a.State)
	if a.IsNative != nil {
		binary.LittleEndian.PutUint32(ret[109:113], 1)
		binary.LittleEndian.PutUint64(ret[113:121], *a.IsNative)
	}
	binary.LittleEndian.PutUint64(ret[121:129], a.DelegatedAmount)
	if a.CloseAuthority != nil {
		binary.LittleEndian.PutUint32(ret[129:133], 1)
		copy(ret[133:165], a.CloseAuthority[:])
	}
	return ret
}
