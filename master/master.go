// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package master implements the Modbus RTU bus master: it serializes
// logical register operations onto a half-duplex serial line, frames
// and checksums requests, reassembles responses from the undelimited
// byte stream and resolves each operation with decoded data or a
// specific failure.
//
// All protocol state lives on a single event-loop goroutine. Callers
// submit operations over a channel and suspend on a per-operation
// result channel; inbound bytes, quiet-period expiry and response
// deadlines are reactions on the same loop, so at most one
// request/response cycle is ever outstanding on the bus.
package master

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bruceschaller/modbus-rtu/modbus"
	"github.com/bruceschaller/modbus-rtu/modbus/rtu"
	"github.com/bruceschaller/modbus-rtu/transport"
)

// ErrClosed is returned for operations submitted to, or pending on, a
// closed master.
var ErrClosed = errors.New("master: closed")

// Config carries the engine timing knobs. Both are read once at
// construction.
type Config struct {
	// QuietPeriod is the inter-character silence window that marks a
	// frame boundary (t3.5). Too short splits frames and fails CRC;
	// too long wastes idle bus time between polls.
	QuietPeriod time.Duration

	// ResponseTimeout bounds the lifetime of an in-flight operation
	// from dispatch until a complete frame arrives.
	ResponseTimeout time.Duration
}

// operation is one logical request from submission to resolution.
type operation struct {
	slaveID byte
	req     modbus.ProtocolDataUnit
	done    chan opResult
}

type opResult struct {
	regs []uint16
	err  error
}

// Master drives a single half-duplex bus through a Transport.
type Master struct {
	cfg Config
	tr  transport.Transport

	submit   chan *operation
	quit     chan struct{}
	loopDone chan struct{}
}

// New starts a master over tr. Close releases it.
func New(tr transport.Transport, cfg Config) *Master {
	m := &Master{
		cfg:      cfg,
		tr:       tr,
		submit:   make(chan *operation),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	go m.loop()
	return m
}

// Close stops the event loop. Pending and in-flight operations resolve
// with ErrClosed. The transport is not closed; it belongs to the
// caller.
func (m *Master) Close() {
	select {
	case <-m.quit:
		return
	default:
	}
	close(m.quit)
	<-m.loopDone
}

// ReadHoldingRegisters reads quantity holding registers of slaveID
// starting at start (function 0x03).
func (m *Master) ReadHoldingRegisters(ctx context.Context, slaveID byte, start, quantity uint16) ([]uint16, error) {
	if err := checkSlaveID(slaveID); err != nil {
		return nil, err
	}
	req, err := modbus.NewReadHoldingRegistersRequest(start, quantity)
	if err != nil {
		return nil, err
	}
	return m.execute(ctx, slaveID, req)
}

// WriteSingleRegister writes value into the register at address of
// slaveID (function 0x06).
func (m *Master) WriteSingleRegister(ctx context.Context, slaveID byte, address, value uint16) error {
	if err := checkSlaveID(slaveID); err != nil {
		return err
	}
	req, err := modbus.NewWriteSingleRegisterRequest(address, value)
	if err != nil {
		return err
	}
	_, err = m.execute(ctx, slaveID, req)
	return err
}

// WriteMultipleRegisters writes values into consecutive registers of
// slaveID starting at start (function 0x10).
func (m *Master) WriteMultipleRegisters(ctx context.Context, slaveID byte, start uint16, values []uint16) error {
	if err := checkSlaveID(slaveID); err != nil {
		return err
	}
	req, err := modbus.NewWriteMultipleRegistersRequest(start, values)
	if err != nil {
		return err
	}
	_, err = m.execute(ctx, slaveID, req)
	return err
}

func checkSlaveID(id byte) error {
	if !modbus.ValidSlaveID(id) {
		return &modbus.InvalidArgumentError{
			Arg: "slave id", Value: int(id), Min: modbus.SlaveIDMin, Max: modbus.SlaveIDMax,
		}
	}
	return nil
}

// execute hands the operation to the event loop and waits for its
// resolution. Cancelling ctx abandons the wait only: there is no
// mid-flight cancellation on a half-duplex bus, so the cycle still
// runs to completion or deadline before the queue advances.
func (m *Master) execute(ctx context.Context, slaveID byte, req modbus.ProtocolDataUnit) ([]uint16, error) {
	op := &operation{
		slaveID: slaveID,
		req:     req,
		done:    make(chan opResult, 1),
	}
	select {
	case m.submit <- op:
	case <-m.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-op.done:
		return res.regs, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// loop owns all bus state: the FIFO of pending operations, the single
// in-flight operation, the frame assembler and the response deadline.
// Every reaction (submission, inbound chunk, timer expiry) runs
// serialized here.
func (m *Master) loop() {
	defer close(m.loopDone)

	var (
		fifo     []*operation
		inflight *operation
	)
	asm := rtu.NewAssembler(m.cfg.QuietPeriod)

	deadline := time.NewTimer(0)
	if !deadline.Stop() {
		<-deadline.C
	}
	var deadlineC <-chan time.Time

	dispatch := func(op *operation) {
		for op != nil {
			adu := rtu.ApplicationDataUnit{SlaveID: op.slaveID, Pdu: op.req}
			frame, err := adu.Encode()
			if err != nil {
				op.done <- opResult{err: err}
				op = nextOp(&fifo)
				continue
			}
			slog.Debug("master: dispatch", "slave", op.slaveID,
				"function", fmt.Sprintf("%#02x", op.req.FunctionCode),
				"frame", hex.EncodeToString(frame))
			if err := m.tr.Write(frame); err != nil {
				op.done <- opResult{err: fmt.Errorf("master: transport write failed: %w", err)}
				op = nextOp(&fifo)
				continue
			}
			inflight = op
			stopTimer(deadline)
			deadline.Reset(m.cfg.ResponseTimeout)
			deadlineC = deadline.C
			return
		}
		inflight = nil
		deadlineC = nil
	}

	resolve := func(res opResult) {
		stopTimer(deadline)
		deadlineC = nil
		inflight.done <- res
		inflight = nil
		dispatch(nextOp(&fifo))
	}

	recv := m.tr.Recv()
	for {
		select {
		case op := <-m.submit:
			if inflight != nil {
				fifo = append(fifo, op)
				continue
			}
			dispatch(op)

		case chunk, ok := <-recv:
			if !ok {
				// Transport is gone. In-flight and later operations
				// fail through their deadlines or write errors.
				recv = nil
				continue
			}
			asm.Push(chunk)

		case <-asm.Quiet():
			frame := asm.Complete()
			if frame == nil {
				continue
			}
			if inflight == nil {
				slog.Warn("master: dropping unsolicited frame", "frame", hex.EncodeToString(frame))
				continue
			}
			resolve(m.decode(inflight, frame))

		case <-deadlineC:
			// Fires only while an operation is in flight; resolution
			// stops and drains this timer first, so a late tick can
			// never fail an already-resolved operation.
			slog.Debug("master: response deadline expired", "slave", inflight.slaveID,
				"function", fmt.Sprintf("%#02x", inflight.req.FunctionCode))
			asm.Discard()
			resolve(opResult{err: modbus.ErrTimeout})

		case <-m.quit:
			if inflight != nil {
				inflight.done <- opResult{err: ErrClosed}
			}
			for _, op := range fifo {
				op.done <- opResult{err: ErrClosed}
			}
			return
		}
	}
}

// decode turns an assembled frame into the operation's result:
// CRC verification, ADU split, then PDU decoding against the request.
func (m *Master) decode(op *operation, frame []byte) opResult {
	adu, err := rtu.Decode(frame)
	if err != nil {
		return opResult{err: err}
	}
	if adu.SlaveID != op.slaveID {
		return opResult{err: &modbus.MismatchError{
			Field: "slave id", Want: uint16(op.slaveID), Got: uint16(adu.SlaveID),
		}}
	}
	regs, err := modbus.DecodeResponse(op.req, adu.Pdu)
	return opResult{regs: regs, err: err}
}

// nextOp pops the FIFO head, or nil if the queue is empty.
func nextOp(fifo *[]*operation) *operation {
	if len(*fifo) == 0 {
		return nil
	}
	op := (*fifo)[0]
	(*fifo)[0] = nil
	*fifo = (*fifo)[1:]
	return op
}

// stopTimer stops t and drains a pending fire.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
