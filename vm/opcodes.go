/*
 * Arkam - Primitive instruction set.
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

// Primitive opcodes. The spec's prose says "35 primitives" with a valid
// range of [0,34], but its own instruction table enumerates 36 distinct
// mnemonics (GETSP/SETSP/GETRP/SETRP are four separate ops, not three). All
// 36 are implemented rather than silently dropping one; OpMax is widened to
// 35 to fit the full table. See DESIGN.md for the resolution of this
// inconsistency.
const (
	OpNOOP = iota
	OpHALT
	OpLIT
	OpRET
	OpDUP
	OpDROP
	OpSWAP
	OpOVER
	OpADD
	OpSUB
	OpMUL
	OpDMOD
	OpEQ
	OpNEQ
	OpGT
	OpLT
	OpJMP
	OpZJMP
	OpGET
	OpSET
	OpBGET
	OpBSET
	OpAND
	OpOR
	OpNOT
	OpXOR
	OpLSHIFT
	OpASHIFT
	OpIO
	OpRPUSH
	OpRPOP
	OpRDROP
	OpGETSP
	OpSETSP
	OpGETRP
	OpSETRP
	opCount // one past the last valid opcode
)

// OpMax is the highest valid primitive opcode.
const OpMax = opCount - 1

type primitive func(v *VM) Status

var primitives [opCount]primitive

func init() {
	primitives[OpNOOP] = opNoop
	primitives[OpHALT] = opHalt
	primitives[OpLIT] = opLit
	primitives[OpRET] = opRet
	primitives[OpDUP] = opDup
	primitives[OpDROP] = opDrop
	primitives[OpSWAP] = opSwap
	primitives[OpOVER] = opOver
	primitives[OpADD] = opAdd
	primitives[OpSUB] = opSub
	primitives[OpMUL] = opMul
	primitives[OpDMOD] = opDmod
	primitives[OpEQ] = opEq
	primitives[OpNEQ] = opNeq
	primitives[OpGT] = opGt
	primitives[OpLT] = opLt
	primitives[OpJMP] = opJmp
	primitives[OpZJMP] = opZjmp
	primitives[OpGET] = opGet
	primitives[OpSET] = opSet
	primitives[OpBGET] = opBget
	primitives[OpBSET] = opBset
	primitives[OpAND] = opAnd
	primitives[OpOR] = opOr
	primitives[OpNOT] = opNot
	primitives[OpXOR] = opXor
	primitives[OpLSHIFT] = opLshift
	primitives[OpASHIFT] = opAshift
	primitives[OpIO] = opIO
	primitives[OpRPUSH] = opRpush
	primitives[OpRPOP] = opRpop
	primitives[OpRDROP] = opRdrop
	primitives[OpGETSP] = opGetsp
	primitives[OpSETSP] = opSetsp
	primitives[OpGETRP] = opGetrp
	primitives[OpSETRP] = opSetrp
}

func opNoop(v *VM) Status { return StatusOK }

func opHalt(v *VM) Status { return StatusHalt }

// opLit reads the cell following the opcode as a literal and pushes it.
func opLit(v *VM) Status {
	lit, ok := v.Mem.Load(v.ip)
	if !ok {
		return v.fault(FaultInvalidAddr)
	}
	if !v.dsFree(1) {
		return v.fault(FaultDSOverflow)
	}
	v.ip += CellSize
	v.result = lit
	v.push(lit)
	return StatusOK
}

// opRet pops the return stack into ip, ending the current call.
func opRet(v *VM) Status {
	if !v.rsHas(1) {
		return v.fault(FaultRSUnderflow)
	}
	v.ip = v.popR()
	return StatusOK
}

func opDup(v *VM) Status {
	if !v.dsHas(1) {
		return v.fault(FaultDSUnderflow)
	}
	if !v.dsFree(1) {
		return v.fault(FaultDSOverflow)
	}
	v.push(v.top())
	return StatusOK
}

func opDrop(v *VM) Status {
	if !v.dsHas(1) {
		return v.fault(FaultDSUnderflow)
	}
	v.pop()
	return StatusOK
}

func opSwap(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	a := v.pop()
	b := v.pop()
	v.push(a)
	v.push(b)
	return StatusOK
}

func opOver(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	if !v.dsFree(1) {
		return v.fault(FaultDSOverflow)
	}
	v.push(v.under())
	return StatusOK
}

func opAdd(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	v.push(Cell(UCell(a) + UCell(b)))
	return StatusOK
}

func opSub(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	v.push(Cell(UCell(a) - UCell(b)))
	return StatusOK
}

func opMul(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	v.push(Cell(UCell(a) * UCell(b)))
	return StatusOK
}

// opDmod leaves a/b a%b on the stack; a zero divisor leaves the stack
// untouched and faults (spec §8 boundary).
func opDmod(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.top()
	a := v.under()
	if b == 0 {
		return v.fault(FaultZeroDivision)
	}
	v.pop()
	v.pop()
	v.push(a / b)
	v.push(a % b)
	return StatusOK
}

func boolCell(b bool) Cell {
	if b {
		return -1
	}
	return 0
}

func opEq(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	v.push(boolCell(a == b))
	return StatusOK
}

func opNeq(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	v.push(boolCell(a != b))
	return StatusOK
}

func opGt(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	v.push(boolCell(a > b))
	return StatusOK
}

func opLt(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	v.push(boolCell(a < b))
	return StatusOK
}

// opJmp reads the next cell as a jump target and validates it before
// setting ip.
func opJmp(v *VM) Status {
	target, ok := v.Mem.Load(v.ip)
	if !ok {
		return v.fault(FaultInvalidAddr)
	}
	if !v.Mem.Valid(target) {
		return v.fault(FaultInvalidAddr)
	}
	v.ip = target
	return StatusOK
}

// opZjmp jumps like JMP when the popped flag is zero; otherwise it advances
// ip past the (unused) target cell.
func opZjmp(v *VM) Status {
	if !v.dsHas(1) {
		return v.fault(FaultDSUnderflow)
	}
	target, ok := v.Mem.Load(v.ip)
	if !ok {
		return v.fault(FaultInvalidAddr)
	}
	flag := v.top()
	if flag == 0 {
		if !v.Mem.Valid(target) {
			return v.fault(FaultInvalidAddr)
		}
		v.pop()
		v.ip = target
	} else {
		v.pop()
		v.ip += CellSize
	}
	return StatusOK
}

func opGet(v *VM) Status {
	if !v.dsHas(1) {
		return v.fault(FaultDSUnderflow)
	}
	addr := v.top()
	val, ok := v.Mem.Load(addr)
	if !ok {
		return v.fault(FaultInvalidAddr)
	}
	v.pop()
	v.result = val
	v.push(val)
	return StatusOK
}

func opSet(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	addr := v.top()
	val := v.under()
	if !v.Mem.validCell(addr) {
		return v.fault(FaultInvalidAddr)
	}
	v.pop()
	v.pop()
	v.Mem.Store(addr, val)
	return StatusOK
}

func opBget(v *VM) Status {
	if !v.dsHas(1) {
		return v.fault(FaultDSUnderflow)
	}
	addr := v.top()
	b, ok := v.Mem.LoadByte(addr)
	if !ok {
		return v.fault(FaultInvalidAddr)
	}
	v.pop()
	v.result = Cell(b)
	v.push(Cell(b))
	return StatusOK
}

func opBset(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	addr := v.top()
	val := v.under()
	if !v.Mem.Valid(addr) {
		return v.fault(FaultInvalidAddr)
	}
	v.pop()
	v.pop()
	v.Mem.StoreByte(addr, val)
	return StatusOK
}

func opAnd(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	v.push(a & b)
	return StatusOK
}

func opOr(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	v.push(a | b)
	return StatusOK
}

func opNot(v *VM) Status {
	if !v.dsHas(1) {
		return v.fault(FaultDSUnderflow)
	}
	a := v.pop()
	v.push(^a)
	return StatusOK
}

func opXor(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	v.push(a ^ b)
	return StatusOK
}

// shiftAmount masks a shift count to the 5 bits that matter for a 32-bit
// cell, the spec's suggested safe default for out-of-range shifts (§9).
func shiftAmount(n Cell) uint {
	if n < 0 {
		n = -n
	}
	return uint(n) & 0x1f
}

// opLshift performs a logical shift; negative b shifts right (unsigned).
func opLshift(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	n := shiftAmount(b)
	if b < 0 {
		v.push(Cell(UCell(a) >> n))
	} else {
		v.push(Cell(UCell(a) << n))
	}
	return StatusOK
}

// opAshift performs an arithmetic (sign-extending) shift; negative b shifts
// right.
func opAshift(v *VM) Status {
	if !v.dsHas(2) {
		return v.fault(FaultDSUnderflow)
	}
	b := v.pop()
	a := v.pop()
	n := shiftAmount(b)
	if b < 0 {
		v.push(a >> n)
	} else {
		v.push(Cell(UCell(a) << n))
	}
	return StatusOK
}

func opRpush(v *VM) Status {
	if !v.dsHas(1) {
		return v.fault(FaultDSUnderflow)
	}
	if !v.rsFree(1) {
		return v.fault(FaultRSOverflow)
	}
	v.pushR(v.pop())
	return StatusOK
}

func opRpop(v *VM) Status {
	if !v.rsHas(1) {
		return v.fault(FaultRSUnderflow)
	}
	if !v.dsFree(1) {
		return v.fault(FaultDSOverflow)
	}
	v.push(v.popR())
	return StatusOK
}

func opRdrop(v *VM) Status {
	if !v.rsHas(1) {
		return v.fault(FaultRSUnderflow)
	}
	v.popR()
	return StatusOK
}

func opGetsp(v *VM) Status {
	if !v.dsFree(1) {
		return v.fault(FaultDSOverflow)
	}
	v.push(v.sp)
	return StatusOK
}

// opSetsp sets the data stack pointer to the popped address, which must lie
// within the data stack region.
func opSetsp(v *VM) Status {
	if !v.dsHas(1) {
		return v.fault(FaultDSUnderflow)
	}
	addr := v.top()
	if addr < v.Mem.DSBase()-CellSize || addr >= v.Mem.RSBase() {
		return v.fault(FaultInvalidAddr)
	}
	v.pop()
	v.sp = addr
	return StatusOK
}

func opGetrp(v *VM) Status {
	if !v.dsFree(1) {
		return v.fault(FaultDSOverflow)
	}
	v.push(v.rp)
	return StatusOK
}

// opSetrp sets the return stack pointer to the popped address, which must
// lie within the return stack region.
func opSetrp(v *VM) Status {
	if !v.dsHas(1) {
		return v.fault(FaultDSUnderflow)
	}
	addr := v.top()
	if addr < v.Mem.RSBase()-CellSize || addr >= v.Mem.Size() {
		return v.fault(FaultInvalidAddr)
	}
	v.pop()
	v.rp = addr
	return StatusOK
}
