// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package modbus holds the protocol-level types shared by the RTU
// framing layer and the bus master: the PDU representation, the
// supported function codes and the request/response codec.
package modbus

// Function codes supported by this master.
const (
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleRegisters = 0x10
)

// Protocol limits.
const (
	// SlaveIDMin and SlaveIDMax bound the unicast slave address range.
	// Address 0 is broadcast and 248-255 are reserved.
	SlaveIDMin = 1
	SlaveIDMax = 247

	// MaxReadQuantity is the largest register count a single 0x03
	// request may ask for (Modbus Application Protocol V1.1b3, 6.3).
	MaxReadQuantity = 125

	// MaxWriteQuantity is the largest register count a single 0x10
	// request may carry.
	MaxWriteQuantity = 123

	// exceptionBit is set on the response function code when the slave
	// reports an exception instead of a normal reply.
	exceptionBit = 0x80
)

// ProtocolDataUnit is the transport-independent part of a Modbus
// message: function code plus data, excluding slave address and CRC.
type ProtocolDataUnit struct {
	FunctionCode byte
	Data         []byte
}

// ValidSlaveID reports whether id is a legal unicast slave address.
func ValidSlaveID(id byte) bool {
	return id >= SlaveIDMin && id <= SlaveIDMax
}
