/*
 * Arkam - VM fault codes and step status.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package vm

import "strconv"

// Status is the tri-state result of a single Step. The main loop continues
// only on StatusOK.
type Status int

const (
	StatusOK Status = iota
	StatusHalt
	StatusErr
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusHalt:
		return "HALT"
	case StatusErr:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// Fault identifies why a Step returned StatusErr.
type Fault int

const (
	FaultNone Fault = iota
	FaultDSOverflow
	FaultDSUnderflow
	FaultRSOverflow
	FaultRSUnderflow
	FaultInvalidAddr
	FaultInvalidInst
	FaultZeroDivision
	FaultIOUnknownDev
	FaultIOUnknownOp
	FaultIONotRegistered
	FaultIODeviceError
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "NONE"
	case FaultDSOverflow:
		return "DS_OVERFLOW"
	case FaultDSUnderflow:
		return "DS_UNDERFLOW"
	case FaultRSOverflow:
		return "RS_OVERFLOW"
	case FaultRSUnderflow:
		return "RS_UNDERFLOW"
	case FaultInvalidAddr:
		return "INVALID_ADDR"
	case FaultInvalidInst:
		return "INVALID_INST"
	case FaultZeroDivision:
		return "ZERO_DIVISION"
	case FaultIOUnknownDev:
		return "IO_UNKNOWN_DEV"
	case FaultIOUnknownOp:
		return "IO_UNKNOWN_OP"
	case FaultIONotRegistered:
		return "IO_NOT_REGISTERED"
	case FaultIODeviceError:
		return "IO_DEVICE_ERROR"
	default:
		return "UNKNOWN_FAULT"
	}
}

// fault sets the VM's error register and returns StatusErr. The caller must
// not have mutated any stack or memory state before calling fault -- every
// primitive validates its preconditions first (per-instruction atomicity,
// spec §4.1).
func (m *VM) fault(f Fault) Status {
	m.err = f
	return StatusErr
}

// Error reports the VM's fault state the way an embedder inspects it after a
// Step or Run returns StatusErr. It satisfies the error interface so a VM
// fault can be threaded through ordinary Go error handling at the CLI layer.
type Error struct {
	Fault Fault
	IP    Cell
}

func (e *Error) Error() string {
	return "arkam: " + e.Fault.String() + " at ip=" + strconv.Itoa(int(e.IP))
}
