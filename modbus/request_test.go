// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewReadHoldingRegistersRequest(t *testing.T) {
	tests := []struct {
		name     string
		start    uint16
		quantity uint16
		want     []byte
		wantErr  bool
	}{
		{"Single", 0x0000, 1, []byte{0x00, 0x00, 0x00, 0x01}, false},
		{"Window", 0x0010, 4, []byte{0x00, 0x10, 0x00, 0x04}, false},
		{"MaxQuantity", 0x0000, 125, []byte{0x00, 0x00, 0x00, 0x7D}, false},
		{"ZeroQuantity", 0x0000, 0, nil, true},
		{"OverMaxQuantity", 0x0000, 126, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdu, err := NewReadHoldingRegistersRequest(tt.start, tt.quantity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var argErr *InvalidArgumentError
				if !errors.As(err, &argErr) {
					t.Errorf("error type = %T, want *InvalidArgumentError", err)
				}
				return
			}
			if pdu.FunctionCode != FuncCodeReadHoldingRegisters {
				t.Errorf("FunctionCode = %#02x, want 0x03", pdu.FunctionCode)
			}
			if !bytes.Equal(pdu.Data, tt.want) {
				t.Errorf("Data = % X, want % X", pdu.Data, tt.want)
			}
		})
	}
}

func TestNewWriteSingleRegisterRequest(t *testing.T) {
	pdu, err := NewWriteSingleRegisterRequest(2, 150)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	want := []byte{0x00, 0x02, 0x00, 0x96}
	if pdu.FunctionCode != FuncCodeWriteSingleRegister || !bytes.Equal(pdu.Data, want) {
		t.Errorf("pdu = %#02x % X, want 0x06 % X", pdu.FunctionCode, pdu.Data, want)
	}
}

func TestNewWriteMultipleRegistersRequest(t *testing.T) {
	pdu, err := NewWriteMultipleRegistersRequest(1, []uint16{10, 20})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	want := []byte{0x00, 0x01, 0x00, 0x02, 0x04, 0x00, 0x0A, 0x00, 0x14}
	if pdu.FunctionCode != FuncCodeWriteMultipleRegisters || !bytes.Equal(pdu.Data, want) {
		t.Errorf("pdu = %#02x % X, want 0x10 % X", pdu.FunctionCode, pdu.Data, want)
	}

	if _, err := NewWriteMultipleRegistersRequest(0, nil); err == nil {
		t.Error("accepted empty value list")
	}
	if _, err := NewWriteMultipleRegistersRequest(0, make([]uint16, MaxWriteQuantity+1)); err == nil {
		t.Error("accepted oversize value list")
	}
}
