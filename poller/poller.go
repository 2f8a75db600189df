// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package poller reads a fixed register window on an interval and
// reports value changes. It is a consumer of the bus master's public
// operations, not part of the protocol engine: retry and device
// modeling stay out of the engine and live in layers like this one.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bruceschaller/modbus-rtu/internal/store"
)

// RegisterReader is the slice of the bus master the poller needs.
type RegisterReader interface {
	ReadHoldingRegisters(ctx context.Context, slaveID byte, start, quantity uint16) ([]uint16, error)
}

// ChangeFunc is invoked for every register whose value changed,
// with its absolute address and the old and new values.
type ChangeFunc func(address uint16, old, new uint16)

// ErrorFunc is invoked when a poll cycle fails. Polling continues.
type ErrorFunc func(err error)

// Config defines the polled window.
type Config struct {
	SlaveID  byte
	Start    uint16
	Quantity uint16
	Interval time.Duration
}

// Poller polls one register window and diffs successive reads against
// a persisted snapshot, so only real changes are reported, including
// across restarts.
type Poller struct {
	reader   RegisterReader
	cfg      Config
	snap     store.Store
	onChange ChangeFunc
	onError  ErrorFunc

	last []uint16
}

// New creates a poller over reader, persisting last-seen values in snap.
func New(reader RegisterReader, cfg Config, snap store.Store) *Poller {
	return &Poller{
		reader: reader,
		cfg:    cfg,
		snap:   snap,
	}
}

// OnChange sets the change callback. It must be set before Run.
func (p *Poller) OnChange(fn ChangeFunc) {
	p.onChange = fn
}

// OnError sets the poll-failure callback. It must be set before Run.
func (p *Poller) OnError(fn ErrorFunc) {
	p.onError = fn
}

// Run polls until ctx is cancelled, then saves the snapshot. The first
// cycle diffs against the loaded snapshot, so values unchanged since
// the last run do not re-fire.
func (p *Poller) Run(ctx context.Context) error {
	last, err := p.snap.Load(p.cfg.Quantity)
	if err != nil {
		return fmt.Errorf("poller: failed to load snapshot: %w", err)
	}
	p.last = last

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			if err := p.snap.Save(p.last); err != nil {
				slog.Error("poller: failed to save snapshot", "slave", p.cfg.SlaveID, "err", err)
			}
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	regs, err := p.reader.ReadHoldingRegisters(ctx, p.cfg.SlaveID, p.cfg.Start, p.cfg.Quantity)
	if err != nil {
		if p.onError != nil {
			p.onError(err)
		}
		return
	}
	for i, v := range regs {
		if v == p.last[i] {
			continue
		}
		old := p.last[i]
		p.last[i] = v
		p.snap.OnChange(uint16(i), v)
		if p.onChange != nil {
			p.onChange(p.cfg.Start+uint16(i), old, v)
		}
	}
}
