// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package rtu

import "time"

// Assembler reconstructs RTU frames from an undelimited byte stream.
// RTU has no in-band framing: a frame is complete only once the line
// has been silent for the configured quiet period (the t3.5 gap).
// Completion is never inferred from length, since response length
// varies by function code and register count.
//
// The assembler is not safe for concurrent use; it is owned by the
// master's event loop, which pushes inbound chunks and selects on the
// quiet-period channel.
type Assembler struct {
	quiet time.Duration
	buf   []byte
	timer *time.Timer
	armed bool
}

// NewAssembler returns an assembler using the given quiet period.
// Too short a period splits frames (and fails CRC); too long wastes
// idle bus time between polls.
func NewAssembler(quiet time.Duration) *Assembler {
	return &Assembler{
		quiet: quiet,
		buf:   make([]byte, 0, MaxSize),
	}
}

// Push appends an inbound chunk and re-arms the quiet-period timer.
// The transport may deliver any number of bytes per chunk.
func (a *Assembler) Push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	a.buf = append(a.buf, chunk...)
	if a.timer == nil {
		a.timer = time.NewTimer(a.quiet)
	} else {
		a.stopTimer()
		a.timer.Reset(a.quiet)
	}
	a.armed = true
}

// Quiet returns the channel that fires once the line has been silent
// for the quiet period. It is nil while no frame is accumulating, so
// it can sit in a select without spurious wakeups.
func (a *Assembler) Quiet() <-chan time.Time {
	if !a.armed {
		return nil
	}
	return a.timer.C
}

// Complete snapshots the accumulated bytes as a finished frame and
// resets the assembler to idle. It must be called after Quiet fires;
// the result is nil if nothing was buffered.
func (a *Assembler) Complete() []byte {
	a.armed = false
	if len(a.buf) == 0 {
		return nil
	}
	frame := make([]byte, len(a.buf))
	copy(frame, a.buf)
	a.buf = a.buf[:0]
	return frame
}

// Discard drops any partially accumulated frame, e.g. stale bytes left
// over after a response deadline expired.
func (a *Assembler) Discard() {
	if a.armed {
		a.stopTimer()
		a.armed = false
	}
	a.buf = a.buf[:0]
}

// Pending returns the number of buffered bytes.
func (a *Assembler) Pending() int {
	return len(a.buf)
}

// stopTimer stops the timer and drains a pending fire so a stale tick
// cannot complete a later frame early.
func (a *Assembler) stopTimer() {
	if !a.timer.Stop() {
		select {
		case <-a.timer.C:
		default:
		}
	}
}
