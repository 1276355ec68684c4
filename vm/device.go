/*
 * Arkam - IO bus dispatch.
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

// opIO implements the IO primitive: stack effect `op dev — ...`. A device
// handler is responsible for popping its own operands (op and dev are
// already consumed here) and pushing its own results.
//
// Narrowed from the teacher's device.Device interface (StartIO/StartCmd/
// HaltIO/InitDev/Shutdown/Debug, one method per S/370 channel-command
// phase) down to the single request/response method the spec's IO bus
// needs: Arkam devices are synchronous request/response against the data
// stack, not multi-phase channel programs.
//
// op and dev stay on the stack until the dispatch is known to succeed; a
// fault raised by the handler itself comes after they have been consumed.
func opIO(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	dev := v.top()
	op := v.under()

	if dev < 0 || int(dev) >= DevicesCount {
		if op == 0 {
			v.pop()
			v.pop()
			if !v.dsFree(1) {
				return v.fault(FaultDSOverflow)
			}
			v.push(0)
			return StatusOK
		}
		return v.fault(FaultIOUnknownDev)
	}

	handler := v.devices[dev]
	if op == -1 {
		v.pop()
		v.pop()
		if !v.dsFree(1) {
			return v.fault(FaultDSOverflow)
		}
		v.push(boolCell(handler != nil))
		return StatusOK
	}

	if handler == nil {
		return v.fault(FaultIONotRegistered)
	}
	v.pop()
	v.pop()
	return handler.Handle(v, op)
}

// sysDevice is the always-registered SYS device at slot 0: basic machine
// introspection, grounded on emu/cpu/cpu_system.go's system-info dispatch.
type sysDevice struct{}

func (sysDevice) Handle(v *VM, op Cell) Status {
	switch op {
	case 0:
		if !v.dsFree(1) {
			return v.fault(FaultDSOverflow)
		}
		v.push(v.Mem.Size())
	case 2:
		if !v.dsFree(1) {
			return v.fault(FaultDSOverflow)
		}
		v.push((v.Mem.RSBase() - v.Mem.DSBase()) / CellSize)
	case 3:
		if !v.dsFree(1) {
			return v.fault(FaultDSOverflow)
		}
		v.push(v.Mem.DSBase())
	case 4:
		if !v.dsFree(1) {
			return v.fault(FaultDSOverflow)
		}
		v.push((v.Mem.Size() - v.Mem.RSBase()) / CellSize)
	case 5:
		if !v.dsFree(1) {
			return v.fault(FaultDSOverflow)
		}
		v.push(v.Mem.RSBase())
	case 6:
		if !v.dsFree(1) {
			return v.fault(FaultDSOverflow)
		}
		v.push(CellSize)
	case 7:
		if !v.dsFree(1) {
			return v.fault(FaultDSOverflow)
		}
		v.push(0x7fffffff)
	case 8:
		if !v.dsFree(1) {
			return v.fault(FaultDSOverflow)
		}
		v.push(-0x7fffffff - 1)
	default:
		return v.fault(FaultIOUnknownOp)
	}
	return StatusOK
}
