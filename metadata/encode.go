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

import "encoding/binary"

// Encode packs the metadata into its on-chain Borsh layout. Key is always
// written as KeyMetadataV1
func (m *Metadata) Encode() []byte {
	w := &borshWriter{}
	w.u8(KeyMetadataV1)
	w.bytes(m.UpdateAuthority[:])
	w.bytes(m.Mint[:])
	w.string(m.Data.Name)
	w.string(m.Data.Symbol)
	w.string(m.Data.URI)
	w.u16(m.Data.SellerFeeBasisPoints)
	if m.Data.Creators == nil {
		w.u8(0)
	} else {
		w.u8(1)
		w.u32(uint32(len(m.Data.Creators))) //nolint:gosec
		for _, c := range m.Data.Creators {
			w.bytes(c.Address[:])
			w.bool(c.Verified)
			w.u8(c.Share)
		}
	}
	w.bool(m.PrimarySaleHappened)
	w.bool(m.IsMutable)
	w.optionalU8(m.EditionNonce)
	w.optionalU8(m.TokenStandard)
	if m.Collection == nil {
		w.u8(0)
	} else {
		w.u8(1)
		w.bool(m.Collection.Verified)
		w.bytes(m.Collection.Key[:])
	}
	if m.Uses == nil {
		w.u8(0)
	} else {
		w.u8(1)
		w.u8(m.Uses.UseMethod)
		w.u64(m.Uses.Remaining)
		w.u64(m.Uses.Total)
	}
	return w.buf
}

type borshWriter struct {
	buf []byte
}

func (w *borshWriter) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *borshWriter) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *borshWriter) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *borshWriter) u64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *borshWriter) bool(v bool) {
	if v {
		w.u8(1)
		return
	}
	w.u8(0)
}

func (w *borshWriter) bytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *borshWriter) string(s string) {
	w.u32(uint32(len(s))) //nolint:gosec
	w.buf = append(w.buf, s...)
}

func (w *borshWriter) optionalU8(v *uint8) {
	if v == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.u8(*v)
}
