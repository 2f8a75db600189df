// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"encoding/binary"
	"fmt"
)

// DecodeResponse validates a response PDU against the request it
// answers and extracts the payload. For reads the result is the
// register values in request order; for writes it is nil and the
// echoed fields are checked against the request.
func DecodeResponse(req, resp ProtocolDataUnit) ([]uint16, error) {
	if err := checkFunctionCode(req.FunctionCode, resp); err != nil {
		return nil, err
	}
	switch req.FunctionCode {
	case FuncCodeReadHoldingRegisters:
		return decodeReadRegisters(req, resp)
	case FuncCodeWriteSingleRegister:
		return nil, checkWriteEcho(req, resp, "register address", "register value")
	case FuncCodeWriteMultipleRegisters:
		// The echo carries start address and quantity, not the values.
		return nil, checkWriteEcho(req, resp, "start address", "register quantity")
	default:
		return nil, &UnsupportedFunctionError{FunctionCode: req.FunctionCode}
	}
}

// checkFunctionCode classifies the response function code: the echo of
// the request proceeds, the exception form resolves to ExceptionError,
// anything else is either a misaligned frame or a code this master
// does not speak.
func checkFunctionCode(want byte, resp ProtocolDataUnit) error {
	switch resp.FunctionCode {
	case want:
		return nil
	case want | exceptionBit:
		code := byte(0)
		if len(resp.Data) > 0 {
			code = resp.Data[0]
		}
		return &ExceptionError{FunctionCode: want, ExceptionCode: code}
	case FuncCodeReadHoldingRegisters, FuncCodeWriteSingleRegister, FuncCodeWriteMultipleRegisters:
		return &MismatchError{Field: "function code", Want: uint16(want), Got: uint16(resp.FunctionCode)}
	default:
		return &UnsupportedFunctionError{FunctionCode: resp.FunctionCode}
	}
}

func decodeReadRegisters(req, resp ProtocolDataUnit) ([]uint16, error) {
	if len(resp.Data) < 1 {
		return nil, fmt.Errorf("modbus: read response carries no byte count")
	}
	byteCount := int(resp.Data[0])
	if len(resp.Data)-1 != byteCount {
		return nil, fmt.Errorf("modbus: read response byte count %d does not match %d data bytes",
			byteCount, len(resp.Data)-1)
	}
	quantity := binary.BigEndian.Uint16(req.Data[2:4])
	if byteCount != 2*int(quantity) {
		return nil, &MismatchError{Field: "register quantity", Want: quantity, Got: uint16(byteCount / 2)}
	}
	regs := make([]uint16, quantity)
	for i := range regs {
		regs[i] = binary.BigEndian.Uint16(resp.Data[1+2*i:])
	}
	return regs, nil
}

// checkWriteEcho verifies that the first two 16-bit fields of a write
// response echo the request. Both 0x06 and 0x10 responses are exactly
// address + value/quantity.
func checkWriteEcho(req, resp ProtocolDataUnit, addrField, valueField string) error {
	if len(resp.Data) != 4 {
		return fmt.Errorf("modbus: write response data length %d, expected 4", len(resp.Data))
	}
	wantAddr := binary.BigEndian.Uint16(req.Data[0:2])
	wantVal := binary.BigEndian.Uint16(req.Data[2:4])
	gotAddr := binary.BigEndian.Uint16(resp.Data[0:2])
	gotVal := binary.BigEndian.Uint16(resp.Data[2:4])
	if gotAddr != wantAddr {
		return &MismatchError{Field: addrField, Want: wantAddr, Got: gotAddr}
	}
	if gotVal != wantVal {
		return &MismatchError{Field: valueField, Want: wantVal, Got: gotVal}
	}
	return nil
}
