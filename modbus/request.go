// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import "encoding/binary"

// NewReadHoldingRegistersRequest builds a 0x03 request PDU reading
// quantity registers starting at start.
func NewReadHoldingRegistersRequest(start, quantity uint16) (ProtocolDataUnit, error) {
	if quantity < 1 || quantity > MaxReadQuantity {
		return ProtocolDataUnit{}, &InvalidArgumentError{
			Arg: "quantity", Value: int(quantity), Min: 1, Max: MaxReadQuantity,
		}
	}
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], start)
	binary.BigEndian.PutUint16(data[2:4], quantity)
	return ProtocolDataUnit{FunctionCode: FuncCodeReadHoldingRegisters, Data: data}, nil
}

// NewWriteSingleRegisterRequest builds a 0x06 request PDU writing
// value into the register at address.
func NewWriteSingleRegisterRequest(address, value uint16) (ProtocolDataUnit, error) {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], address)
	binary.BigEndian.PutUint16(data[2:4], value)
	return ProtocolDataUnit{FunctionCode: FuncCodeWriteSingleRegister, Data: data}, nil
}

// NewWriteMultipleRegistersRequest builds a 0x10 request PDU writing
// values into consecutive registers starting at start. The payload is
// start + quantity + byte count + big-endian register values.
func NewWriteMultipleRegistersRequest(start uint16, values []uint16) (ProtocolDataUnit, error) {
	quantity := len(values)
	if quantity < 1 || quantity > MaxWriteQuantity {
		return ProtocolDataUnit{}, &InvalidArgumentError{
			Arg: "quantity", Value: quantity, Min: 1, Max: MaxWriteQuantity,
		}
	}
	data := make([]byte, 5+2*quantity)
	binary.BigEndian.PutUint16(data[0:2], start)
	binary.BigEndian.PutUint16(data[2:4], uint16(quantity))
	data[4] = byte(2 * quantity)
	for i, v := range values {
		binary.BigEndian.PutUint16(data[5+2*i:], v)
	}
	return ProtocolDataUnit{FunctionCode: FuncCodeWriteMultipleRegisters, Data: data}, nil
}
