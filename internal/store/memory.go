// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

// MemoryStore is a no-op store (non-persistent).
type MemoryStore struct{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (ms *MemoryStore) Load(quantity uint16) ([]uint16, error) {
	return make([]uint16, quantity), nil
}

func (ms *MemoryStore) Save(regs []uint16) error {
	return nil
}

func (ms *MemoryStore) OnChange(index uint16, value uint16) {
	// No-op
}

func (ms *MemoryStore) Close() error {
	return nil
}
