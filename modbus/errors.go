// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when no complete frame arrives within the
	// response deadline of an operation.
	ErrTimeout = errors.New("modbus: request timed out")

	// ErrCRC is returned when a complete frame was received but its
	// checksum does not match the frame contents.
	ErrCRC = errors.New("modbus: frame checksum mismatch")
)

// InvalidArgumentError reports a caller-supplied value outside the
// protocol-legal range. It is raised before any bytes reach the bus.
type InvalidArgumentError struct {
	Arg      string
	Value    int
	Min, Max int
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("modbus: %s %d out of range [%d, %d]", e.Arg, e.Value, e.Min, e.Max)
}

// MismatchError reports a decoded response field that does not echo
// the originating request. It usually means a misaligned frame
// boundary slipped past the CRC.
type MismatchError struct {
	Field     string
	Want, Got uint16
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("modbus: response %s mismatch: expected %#04x, got %#04x", e.Field, e.Want, e.Got)
}

// UnsupportedFunctionError reports a response function code this
// master does not recognize.
type UnsupportedFunctionError struct {
	FunctionCode byte
}

func (e *UnsupportedFunctionError) Error() string {
	return fmt.Sprintf("modbus: unsupported function code %#02x in response", e.FunctionCode)
}

// ExceptionError is a well-formed exception reply from the slave
// (function code with the high bit set, one exception code byte).
type ExceptionError struct {
	FunctionCode  byte
	ExceptionCode byte
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus: exception %#02x (%s) for function %#02x",
		e.ExceptionCode, exceptionMessage(e.ExceptionCode), e.FunctionCode)
}

func exceptionMessage(code byte) string {
	switch code {
	case 0x01:
		return "illegal function"
	case 0x02:
		return "illegal data address"
	case 0x03:
		return "illegal data value"
	case 0x04:
		return "slave device failure"
	case 0x05:
		return "acknowledge"
	case 0x06:
		return "slave device busy"
	case 0x08:
		return "memory parity error"
	case 0x0A:
		return "gateway path unavailable"
	case 0x0B:
		return "gateway target device failed to respond"
	default:
		return "unknown exception code"
	}
}
