// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package rtu implements the Modbus RTU wire format: the application
// data unit wrapping a PDU with slave address and CRC, and the
// quiet-period assembler that reconstructs frames from a raw byte
// stream.
package rtu

import (
	"errors"
	"fmt"

	"github.com/bruceschaller/modbus-rtu/modbus"
	"github.com/bruceschaller/modbus-rtu/modbus/crc"
)

const (
	// MinSize is the smallest legal frame: address, function code and CRC.
	MinSize = 4
	// MaxSize bounds a serial-line frame.
	MaxSize = 256
)

// ErrShortFrame is returned when a frame ends before reaching the
// minimum RTU size.
var ErrShortFrame = errors.New("rtu: frame shorter than minimum")

// ApplicationDataUnit is a complete on-wire RTU message.
type ApplicationDataUnit struct {
	SlaveID byte
	Pdu     modbus.ProtocolDataUnit
}

// Encode encodes the PDU into an RTU frame:
//
//	Slave Address   : 1 byte
//	Function        : 1 byte
//	Data            : 0 up to 252 bytes
//	CRC             : 2 bytes, low byte first
func (adu *ApplicationDataUnit) Encode() ([]byte, error) {
	length := len(adu.Pdu.Data) + MinSize
	if length > MaxSize {
		return nil, fmt.Errorf("rtu: frame length %d exceeds maximum %d", length, MaxSize)
	}
	raw := make([]byte, length)

	raw[0] = adu.SlaveID
	raw[1] = adu.Pdu.FunctionCode
	copy(raw[2:], adu.Pdu.Data)

	checksum := crc.Checksum(raw[:length-2])
	raw[length-2] = byte(checksum)
	raw[length-1] = byte(checksum >> 8)
	return raw, nil
}

// Decode verifies the CRC of a raw frame and splits it into slave
// address and PDU. A checksum failure is reported as modbus.ErrCRC.
func Decode(raw []byte) (*ApplicationDataUnit, error) {
	length := len(raw)
	if length < MinSize {
		return nil, fmt.Errorf("rtu: frame length %d below minimum %d: %w", length, MinSize, ErrShortFrame)
	}
	if !crc.Verify(raw) {
		received := uint16(raw[length-1])<<8 | uint16(raw[length-2])
		return nil, fmt.Errorf("rtu: received crc %#04x does not match computed %#04x: %w",
			received, crc.Checksum(raw[:length-2]), modbus.ErrCRC)
	}
	return &ApplicationDataUnit{
		SlaveID: raw[0],
		Pdu: modbus.ProtocolDataUnit{
			FunctionCode: raw[1],
			Data:         raw[2 : length-2],
		},
	}, nil
}
