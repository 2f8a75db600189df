// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package crc implements the 16-bit cyclic redundancy check used by
// Modbus RTU frames: reflected polynomial 0xA001, initial register
// 0xFFFF, transmitted low byte first.
package crc

const polynomial = 0xA001

// CRC accumulates the checksum over pushed bytes.
type CRC struct {
	crc uint16
}

// Reset initializes the checksum register.
func (c *CRC) Reset() *CRC {
	c.crc = 0xFFFF
	return c
}

// PushBytes folds bs into the running checksum.
func (c *CRC) PushBytes(bs []byte) *CRC {
	for _, b := range bs {
		c.crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if c.crc&1 != 0 {
				c.crc = c.crc>>1 ^ polynomial
			} else {
				c.crc >>= 1
			}
		}
	}
	return c
}

// Value returns the current checksum register.
func (c *CRC) Value() uint16 {
	return c.crc
}

// Checksum computes the checksum of bs in one call.
func Checksum(bs []byte) uint16 {
	var c CRC
	return c.Reset().PushBytes(bs).Value()
}

// Verify recomputes the checksum over all of frame except the trailing
// two bytes and compares it against them, low byte first.
func Verify(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	n := len(frame) - 2
	sum := Checksum(frame[:n])
	return frame[n] == byte(sum) && frame[n+1] == byte(sum>>8)
}
