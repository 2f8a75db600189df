// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package serial provides the transport.Transport implementation for a
// physical serial port.
package serial

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/grid-x/serial"
)

const (
	// Default idle period after which an open port is closed.
	defaultIdleTimeout = 60 * time.Second

	// readBufSize covers the largest RTU frame.
	readBufSize = 256

	// recvBacklog bounds chunks buffered towards the master while its
	// event loop is busy.
	recvBacklog = 64
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("serial: transport closed")

// openPort opens the physical port. Swapped out in tests.
var openPort = func(cfg *serial.Config) (io.ReadWriteCloser, error) {
	return serial.Open(cfg)
}

// Port is a serial-line transport. The port is opened lazily on first
// write and closed again after IdleTimeout without traffic; a
// background pump forwards everything the line delivers to the Recv
// channel.
type Port struct {
	// Serial port configuration.
	serial.Config

	IdleTimeout time.Duration

	mu           sync.Mutex
	port         io.ReadWriteCloser
	lastActivity time.Time
	closeTimer   *time.Timer
	closed       bool

	recv chan []byte
	wg   sync.WaitGroup
}

// NewPort returns an unopened serial transport.
func NewPort(cfg serial.Config) *Port {
	return &Port{
		Config:      cfg,
		IdleTimeout: defaultIdleTimeout,
		recv:        make(chan []byte, recvBacklog),
	}
}

// Connect opens the serial port. Calling it is optional; Write opens
// the port on demand.
func (p *Port) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.connect()
}

// connect opens the port and starts the read pump. Caller must hold
// the mutex.
func (p *Port) connect() error {
	if p.closed {
		return ErrClosed
	}
	if p.port != nil {
		return nil
	}
	port, err := openPort(&p.Config)
	if err != nil {
		return fmt.Errorf("serial: could not open %s: %w", p.Config.Address, err)
	}
	p.port = port
	p.wg.Add(1)
	go p.pump(port)
	return nil
}

// Write sends one frame on the line as a single write.
func (p *Port) Write(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(); err != nil {
		return err
	}
	p.lastActivity = time.Now()
	p.startCloseTimer()

	if _, err := p.port.Write(b); err != nil {
		return fmt.Errorf("serial: write on %s failed: %w", p.Config.Address, err)
	}
	return nil
}

// Recv returns the inbound chunk stream. The channel stays open across
// idle closes and reopens; it is closed only by Close.
func (p *Port) Recv() <-chan []byte {
	return p.recv
}

// pump drains the port into the recv channel until the port is closed.
func (p *Port) pump(port io.ReadWriteCloser) {
	defer p.wg.Done()

	buf := make([]byte, readBufSize)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			p.mu.Lock()
			p.lastActivity = time.Now()
			closed := p.closed
			p.mu.Unlock()
			if closed {
				return
			}
			select {
			case p.recv <- chunk:
			default:
				slog.Warn("serial: dropping inbound chunk, receiver backlog full",
					"device", p.Config.Address, "bytes", n)
			}
		}
		if err != nil {
			// A read timeout is routine on an idle line; anything else
			// ends this pump.
			if isTimeout(err) {
				continue
			}
			// Release the dead port so the next Write reopens it
			// instead of short-circuiting on the stale handle.
			p.mu.Lock()
			if p.port == port {
				if !p.closed {
					slog.Warn("serial: read failed, closing port",
						"device", p.Config.Address, "err", err)
				}
				p.close()
			}
			p.mu.Unlock()
			return
		}
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// Close shuts the transport down for good.
func (p *Port) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.closeTimer != nil {
		p.closeTimer.Stop()
	}
	err := p.close()
	p.mu.Unlock()

	p.wg.Wait()
	close(p.recv)
	return err
}

// close closes the port if it is open. Caller must hold the mutex.
func (p *Port) close() (err error) {
	if p.port != nil {
		err = p.port.Close()
		p.port = nil
	}
	return
}

func (p *Port) startCloseTimer() {
	if p.IdleTimeout <= 0 {
		return
	}
	if p.closeTimer == nil {
		p.closeTimer = time.AfterFunc(p.IdleTimeout, p.closeIdle)
	} else {
		p.closeTimer.Reset(p.IdleTimeout)
	}
}

// closeIdle closes the port once the last activity is further back
// than IdleTimeout.
func (p *Port) closeIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.IdleTimeout <= 0 {
		return
	}
	if idle := time.Since(p.lastActivity); idle >= p.IdleTimeout {
		slog.Debug("serial: closing idle port", "device", p.Config.Address, "idle", idle)
		p.close()
	}
}
