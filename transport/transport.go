// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package transport defines the byte-stream boundary between the bus
// master and the physical serial line.
package transport

// Transport is an opaque ordered byte channel to the half-duplex bus.
// The master writes one complete frame per Write call and drains
// inbound bytes from Recv; the transport may deliver any number of
// bytes per chunk, with unspecified latency and fragmentation.
type Transport interface {
	// Write sends a complete frame in a single transport write.
	Write(p []byte) error

	// Recv returns the inbound chunk stream. The channel is closed
	// when the transport shuts down for good.
	Recv() <-chan []byte

	Close() error
}
