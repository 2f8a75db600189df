// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

import (
	"fmt"
	"log/slog"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

// MmapStore persists the register window in a memory-mapped file,
// two bytes per register.
//
// The window slice handed out by Load is backed directly by the
// mapping via an unsafe cast, so updates are zero-copy; values are
// stored in host byte order, which sacrifices portability of the
// snapshot file across architectures with different endianness.
type MmapStore struct {
	path string
	file *os.File
	data mmap.MMap
	regs []uint16
}

// NewMmapStore creates a new MmapStore.
func NewMmapStore(path string) *MmapStore {
	return &MmapStore{
		path: path,
	}
}

// Load memory-maps the snapshot file, creating or resizing it to fit
// quantity registers.
func (ms *MmapStore) Load(quantity uint16) ([]uint16, error) {
	size := int64(quantity) * 2

	f, err := os.OpenFile(ms.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open snapshot file: %w", err)
	}
	ms.file = f

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() != size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("store: failed to resize snapshot file: %w", err)
		}
	}

	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: mmap failed: %w", err)
	}
	ms.data = data
	ms.regs = unsafe.Slice((*uint16)(unsafe.Pointer(&data[0])), quantity)

	window := make([]uint16, quantity)
	copy(window, ms.regs)
	return window, nil
}

// Save writes the window into the mapping and flushes it to disk.
func (ms *MmapStore) Save(regs []uint16) error {
	if ms.data == nil {
		return fmt.Errorf("store: snapshot not loaded")
	}
	copy(ms.regs, regs)
	return ms.data.Flush()
}

// OnChange updates one register in the mapping and flushes.
func (ms *MmapStore) OnChange(index uint16, value uint16) {
	if ms.data == nil || int(index) >= len(ms.regs) {
		return
	}
	ms.regs[index] = value
	if err := ms.data.Flush(); err != nil {
		slog.Error("store: failed to flush snapshot mmap", "path", ms.path, "err", err)
	}
}

// Close unmaps and closes the file.
func (ms *MmapStore) Close() error {
	var err error
	if ms.data != nil {
		if e := ms.data.Unmap(); e != nil {
			err = e
		}
		ms.data = nil
		ms.regs = nil
	}
	if ms.file != nil {
		if e := ms.file.Close(); e != nil {
			err = e
		}
		ms.file = nil
	}
	return err
}
