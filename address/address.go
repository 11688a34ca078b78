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

package address

import (
	"bytes"
	"database/sql/driver"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/zeebo/blake3"
)

// Size is the length in bytes of an account address
const Size = 32

var ErrInvalidAddress = errors.New("invalid address")

// Address is a 32-byte account key, rendered as base58
type Address [Size]byte

// Parse decodes a base58 address string
func Parse(s string) (Address, error) {
	var ret Address
	if s == "" {
		return ret, fmt.Errorf("%w: empty string", ErrInvalidAddress)
	}
	decoded := base58.Decode(s)
	if len(decoded) != Size {
		return ret, fmt.Errorf(
			"%w: %q decodes to %d bytes, expected %d",
			ErrInvalidAddress,
			s,
			len(decoded),
			Size,
		)
	}
	copy(ret[:], decoded)
	return ret, nil
}

// MustParse is like Parse but panics on error. It is intended for tests and
// package-level constants only
func MustParse(s string) Address {
	ret, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ret
}

// FromBytes copies a 32-byte slice into an Address
func FromBytes(b []byte) (Address, error) {
	var ret Address
	if len(b) != Size {
		return ret, fmt.Errorf(
			"%w: got %d bytes, expected %d",
			ErrInvalidAddress,
			len(b),
			Size,
		)
	}
	copy(ret[:], b)
	return ret, nil
}

// Derive computes a deterministic address from the given seeds. Each seed is
// prefixed with its uvarint length before hashing so that seed boundaries
// cannot be shifted
func Derive(seeds ...[]byte) Address {
	h := blake3.New()
	var prefix [binary.MaxVarintLen64]byte
	for _, seed := range seeds {
		n := binary.PutUvarint(prefix[:], uint64(len(seed)))
		// blake3 hash writes never fail
		_, _ = h.Write(prefix[:n])
		_, _ = h.Write(seed)
	}
	var ret Address
	copy(ret[:], h.Sum(nil))
	return ret
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) Bytes() []byte {
	return bytes.Clone(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) Equal(other Address) bool {
	return a == other
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	tmp, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

// Value implements driver.Valuer so addresses can be stored as raw bytes
func (a Address) Value() (driver.Value, error) {
	return a[:], nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(val any) error {
	switch v := val.(type) {
	case []byte:
		tmp, err := FromBytes(v)
		if err != nil {
			return err
		}
		*a = tmp
	case string:
		// Some drivers hand back BLOB columns as strings
		tmp, err := FromBytes([]byte(v))
		if err != nil {
			return err
		}
		*a = tmp
	default:
		return fmt.Errorf(
			"value was not expected type, wanted []byte, got %T",
			val,
		)
	}
	return nil
}
