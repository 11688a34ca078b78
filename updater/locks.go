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

package updater

import (
	"sync"

	"github.com/blinklabs-io/nftvoter/address"
)

// recordLocks serializes updates per voter weight record
type recordLocks struct {
	mu    sync.Mutex
	locks map[address.Address]*recordLock
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{
		locks: make(map[address.Address]*recordLock),
	}
}

// lock blocks until the record is free and returns the matching unlock func
func (r *recordLocks) lock(addr address.Address) func() {
	r.mu.Lock()
	l, ok := r.locks[addr]
	if !ok {
		l = &recordLock{}
		r.locks[addr] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, addr)
		}
		r.mu.Unlock()
	}
}

func (r *recordLocks) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
