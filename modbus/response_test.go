// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeReadResponse(t *testing.T) {
	req, _ := NewReadHoldingRegistersRequest(0, 4)
	resp := ProtocolDataUnit{
		FunctionCode: FuncCodeReadHoldingRegisters,
		Data:         []byte{0x08, 0x00, 0x0A, 0x00, 0x64, 0x00, 0x6E, 0x00, 0x32},
	}

	regs, err := DecodeResponse(req, resp)
	if err != nil {
		t.Fatalf("DecodeResponse() error: %v", err)
	}
	want := []uint16{10, 100, 110, 50}
	if !reflect.DeepEqual(regs, want) {
		t.Errorf("registers = %v, want %v", regs, want)
	}
}

func TestDecodeReadResponseByteCountMismatch(t *testing.T) {
	req, _ := NewReadHoldingRegistersRequest(0, 4)
	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"TruncatedPayload", []byte{0x08, 0x00, 0x0A}},
		{"WrongQuantity", []byte{0x02, 0x00, 0x0A}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ProtocolDataUnit{FunctionCode: FuncCodeReadHoldingRegisters, Data: tt.data}
			if _, err := DecodeResponse(req, resp); err == nil {
				t.Error("DecodeResponse() accepted malformed read response")
			}
		})
	}
}

func TestDecodeWriteSingleEcho(t *testing.T) {
	req, _ := NewWriteSingleRegisterRequest(2, 150)

	// Exact echo resolves successfully.
	resp := ProtocolDataUnit{FunctionCode: FuncCodeWriteSingleRegister, Data: []byte{0x00, 0x02, 0x00, 0x96}}
	if _, err := DecodeResponse(req, resp); err != nil {
		t.Fatalf("DecodeResponse() error on exact echo: %v", err)
	}

	// An echo naming register 0x0003 indicates a misaligned frame.
	resp.Data = []byte{0x00, 0x03, 0x00, 0x96}
	_, err := DecodeResponse(req, resp)
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want *MismatchError", err)
	}
	if mismatch.Want != 2 || mismatch.Got != 3 {
		t.Errorf("mismatch = %+v, want Want=2 Got=3", mismatch)
	}
}

func TestDecodeWriteMultipleEcho(t *testing.T) {
	req, _ := NewWriteMultipleRegistersRequest(1, []uint16{10, 20})

	resp := ProtocolDataUnit{FunctionCode: FuncCodeWriteMultipleRegisters, Data: []byte{0x00, 0x01, 0x00, 0x02}}
	if _, err := DecodeResponse(req, resp); err != nil {
		t.Fatalf("DecodeResponse() error on exact echo: %v", err)
	}

	resp.Data = []byte{0x00, 0x01, 0x00, 0x03}
	var mismatch *MismatchError
	if _, err := DecodeResponse(req, resp); !errors.As(err, &mismatch) {
		t.Errorf("error = %v, want *MismatchError", err)
	}
}

func TestDecodeExceptionResponse(t *testing.T) {
	req, _ := NewReadHoldingRegistersRequest(0, 1)
	resp := ProtocolDataUnit{FunctionCode: FuncCodeReadHoldingRegisters | 0x80, Data: []byte{0x02}}

	_, err := DecodeResponse(req, resp)
	var exc *ExceptionError
	if !errors.As(err, &exc) {
		t.Fatalf("error = %v, want *ExceptionError", err)
	}
	if exc.ExceptionCode != 0x02 {
		t.Errorf("ExceptionCode = %#02x, want 0x02", exc.ExceptionCode)
	}
}

func TestDecodeUnsupportedFunction(t *testing.T) {
	req, _ := NewReadHoldingRegistersRequest(0, 1)
	resp := ProtocolDataUnit{FunctionCode: 0x2B, Data: []byte{0x00}}

	_, err := DecodeResponse(req, resp)
	var unsupported *UnsupportedFunctionError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error = %v, want *UnsupportedFunctionError", err)
	}
}

func TestDecodeCrossedFunctionCode(t *testing.T) {
	// A supported but different function code is a framing anomaly,
	// not an unsupported reply.
	req, _ := NewReadHoldingRegistersRequest(0, 1)
	resp := ProtocolDataUnit{FunctionCode: FuncCodeWriteSingleRegister, Data: []byte{0x00, 0x00, 0x00, 0x01}}

	_, err := DecodeResponse(req, resp)
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("error = %v, want *MismatchError", err)
	}
}
