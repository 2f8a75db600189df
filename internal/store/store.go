// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package store persists the last-seen values of a polled register
// window, so a restarted poller resumes from the previous snapshot
// instead of reporting every register as changed.
package store

import (
	"fmt"

	"github.com/bruceschaller/modbus-rtu/internal/config"
)

// Store is the interface for persisting one register window.
type Store interface {
	// Load loads the persisted window, sized to quantity registers.
	// If nothing was persisted yet it returns a zeroed window.
	Load(quantity uint16) ([]uint16, error)

	// Save persists the whole window.
	Save(regs []uint16) error

	// OnChange is a hook called whenever a single register changed.
	// It allows the store to perform real-time persistence.
	OnChange(index uint16, value uint16)

	Close() error
}

// New builds the store selected by cfg.
func New(cfg config.SnapshotConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "mmap":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: mmap snapshot requires a path")
		}
		return NewMmapStore(cfg.Path), nil
	case "sql":
		if cfg.Driver == "" || cfg.DSN == "" {
			return nil, fmt.Errorf("store: sql snapshot requires driver and dsn")
		}
		return NewSQLStore(cfg.Driver, cfg.DSN), nil
	default:
		return nil, fmt.Errorf("store: unknown snapshot type %q", cfg.Type)
	}
}
