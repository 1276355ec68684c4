/*
 * Arkam - Fetch/decode/execute loop.
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

// Step performs one decode/dispatch cycle, grounded on emu/cpu/cpu.go's
// CycleCPU fetch/execute shape but generalized from S/370's switch-heavy
// opcode table (sparse 8-bit opcode space) to a branchless shift-and-mask
// decode followed by a dense array dispatch, since Arkam's tag bit and
// small contiguous opcode range (spec §4.1, §9) make that the natural fit.
func (v *VM) Step() Status {
	cell, ok := v.Mem.Load(v.ip)
	if !ok {
		return v.fault(FaultInvalidAddr)
	}
	v.ip += CellSize

	if cell&1 == 1 {
		op := int(UCell(cell) >> 1)
		if op < 0 || op > OpMax {
			return v.fault(FaultInvalidInst)
		}
		return primitives[op](v)
	}

	// Low bit clear: either a call to a valid address, or garbage.
	if cell == 0 || !v.Mem.Valid(cell) {
		return v.fault(FaultInvalidInst)
	}
	if !v.rsFree(1) {
		return v.fault(FaultRSOverflow)
	}
	v.pushR(v.ip)
	v.ip = cell
	return StatusOK
}

// Run steps the VM until a Step returns anything other than StatusOK.
func (v *VM) Run() Status {
	for {
		status := v.Step()
		if status != StatusOK {
			return status
		}
	}
}
