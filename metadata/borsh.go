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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blinklabs-io/nftvoter/address"
)

var ErrUnexpectedEOF = errors.New("unexpected end of data")

// maxStringLen bounds length prefixes so corrupt input can't trigger huge
// allocations. On-chain metadata strings are far shorter than this
const maxStringLen = 1 << 16

// borshReader decodes Borsh-encoded values from a byte slice
type borshReader struct {
	data   []byte
	offset int
}

func newBorshReader(data []byte) *borshReader {
	return &borshReader{data: data}
}

func (r *borshReader) next(n int) ([]byte, error) {
	if n < 0 || len(r.data)-r.offset < n {
		return nil, fmt.Errorf(
			"%w: need %d bytes at offset %d, have %d",
			ErrUnexpectedEOF,
			n,
			r.offset,
			len(r.data)-r.offset,
		)
	}
	ret := r.data[r.offset : r.offset+n]
	r.offset += n
	return ret, nil
}

// done reports whether all input has been consumed
func (r *borshReader) done() bool {
	return r.offset >= len(r.data)
}

func (r *borshReader) u8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *borshReader) u16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *borshReader) u32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *borshReader) u64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *borshReader) bool() (bool, error) {
	b, err := r.u8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf(
			"invalid bool value %d at offset %d",
			b,
			r.offset-1,
		)
	}
}

// option reads an Option<T> tag
func (r *borshReader) option() (bool, error) {
	tag, err := r.u8()
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf(
			"invalid option tag %d at offset %d",
			tag,
			r.offset-1,
		)
	}
}

func (r *borshReader) string() (string, error) {
	length, err := r.u32()
	if err != nil {
		return "", err
	}
	if length > maxStringLen {
		return "", fmt.Errorf("string length %d exceeds limit", length)
	}
	b, err := r.next(int(length))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *borshReader) address() (address.Address, error) {
	b, err := r.next(address.Size)
	if err != nil {
		return address.Address{}, err
	}
	return address.FromBytes(b)
}
