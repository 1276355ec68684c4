/*
 * Arkam - VM execution engine tests.
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

import "testing"

// asm is a tiny test-only assembler: it writes cells at consecutive
// addresses starting at HeaderFirstCode; here reports the next free address.
type asm struct {
	v    *VM
	addr Cell
}

func newAsm(v *VM) *asm {
	return &asm{v: v, addr: HeaderFirstCode}
}

func (a *asm) op(o int) *asm {
	a.v.Mem.Store(a.addr, Cell(o<<1|1))
	a.addr += CellSize
	return a
}

func (a *asm) lit(n Cell) *asm {
	a.op(OpLIT)
	a.v.Mem.Store(a.addr, n)
	a.addr += CellSize
	return a
}

func (a *asm) call(target Cell) *asm {
	a.v.Mem.Store(a.addr, target)
	a.addr += CellSize
	return a
}

func (a *asm) jmpTarget(target Cell) *asm {
	a.v.Mem.Store(a.addr, target)
	a.addr += CellSize
	return a
}

func (a *asm) here() Cell { return a.addr }

func newTestVM() *VM {
	return New(256, 32, 32)
}

// Scenario 1: LIT 40, LIT 2, ADD, HALT -> top == 42, status HALT.
func TestScenarioAddHalt(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)
	a.lit(40).lit(2).op(OpADD).op(OpHALT)
	v.SetIP(HeaderFirstCode)

	status := v.Run()
	if status != StatusHalt {
		t.Fatalf("status got: %v expected: %v", status, StatusHalt)
	}
	if got := v.top(); got != 42 {
		t.Errorf("top got: %d expected: %d", got, 42)
	}
}

// Scenario 2: LIT 7, LIT 3, DMOD, HALT -> stack bottom..top = [2, 1].
func TestScenarioDmod(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)
	a.lit(7).lit(3).op(OpDMOD).op(OpHALT)
	v.SetIP(HeaderFirstCode)

	if status := v.Run(); status != StatusHalt {
		t.Fatalf("status got: %v expected: %v", status, StatusHalt)
	}
	rem := v.pop()
	quot := v.pop()
	if quot != 2 || rem != 1 {
		t.Errorf("DMOD got: quot=%d rem=%d expected: quot=2 rem=1", quot, rem)
	}
}

// Scenario 3: a subroutine call via the tagged-call encoding.
// At A: ADD, RET. Entry: LIT 40, LIT 2, <A>, HALT.
func TestScenarioCall(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)

	subStart := a.here()
	a.op(OpADD).op(OpRET)

	entry := a.here()
	a.lit(40).lit(2).call(subStart).op(OpHALT)

	v.SetIP(entry)
	if status := v.Run(); status != StatusHalt {
		t.Fatalf("status got: %v expected: %v", status, StatusHalt)
	}
	if got := v.top(); got != 42 {
		t.Errorf("top got: %d expected: %d", got, 42)
	}
	if depth := v.rsDepth(); depth != 0 {
		t.Errorf("return stack depth got: %d expected: 0", depth)
	}
}

// Scenario 8: IO probe of a device slot with no handler installed.
func TestScenarioIOProbe(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)
	a.lit(-1).lit(11).op(OpIO).op(OpHALT)
	v.SetIP(HeaderFirstCode)

	if status := v.Run(); status != StatusHalt {
		t.Fatalf("status got: %v expected: %v", status, StatusHalt)
	}
	if got := v.pop(); got != 0 {
		t.Errorf("probe got: %d expected: 0", got)
	}

	v2 := newTestVM()
	a2 := newAsm(v2)
	a2.lit(5).lit(11).op(OpIO).op(OpHALT)
	v2.SetIP(HeaderFirstCode)
	status := v2.Run()
	if status != StatusErr {
		t.Fatalf("status got: %v expected: %v", status, StatusErr)
	}
	if v2.Err() != FaultIONotRegistered {
		t.Errorf("fault got: %v expected: %v", v2.Err(), FaultIONotRegistered)
	}
}

// LIT n RPUSH RPOP yields n on the data stack, return stack empty.
func TestRoundTripRStack(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)
	a.lit(99).op(OpRPUSH).op(OpRPOP).op(OpHALT)
	v.SetIP(HeaderFirstCode)

	if status := v.Run(); status != StatusHalt {
		t.Fatalf("status got: %v expected: %v", status, StatusHalt)
	}
	if got := v.pop(); got != 99 {
		t.Errorf("got: %d expected: 99", got)
	}
	if depth := v.rsDepth(); depth != 0 {
		t.Errorf("return stack depth got: %d expected: 0", depth)
	}
}

// DUP SWAP == DUP (shape idempotence).
func TestDupSwapIdempotent(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)
	a.lit(7).op(OpDUP).op(OpSWAP).op(OpHALT)
	v.SetIP(HeaderFirstCode)
	v.Run()
	b := v.under()
	top := v.top()
	if b != 7 || top != 7 {
		t.Errorf("DUP SWAP got: (%d,%d) expected: (7,7)", b, top)
	}
}

// SWAP . SWAP and NOT . NOT are identities.
func TestSwapSwapAndNotNotIdentity(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)
	a.lit(1).lit(2).op(OpSWAP).op(OpSWAP).op(OpHALT)
	v.SetIP(HeaderFirstCode)
	v.Run()
	top := v.pop()
	under := v.pop()
	if under != 1 || top != 2 {
		t.Errorf("SWAP SWAP got: (%d,%d) expected: (1,2)", under, top)
	}

	v2 := newTestVM()
	a2 := newAsm(v2)
	a2.lit(42).op(OpNOT).op(OpNOT).op(OpHALT)
	v2.SetIP(HeaderFirstCode)
	v2.Run()
	if got := v2.top(); got != 42 {
		t.Errorf("NOT NOT got: %d expected: 42", got)
	}
}

// Address 0 rejects both reads and writes.
func TestAddressZeroInvalid(t *testing.T) {
	v := newTestVM()
	if v.Mem.Valid(0) {
		t.Errorf("address 0 reported valid")
	}
	if _, ok := v.Mem.Load(0); ok {
		t.Errorf("Load(0) succeeded, want failure")
	}
	if ok := v.Mem.Store(0, 1); ok {
		t.Errorf("Store(0) succeeded, want failure")
	}
}

// Pushing into a one-cell-free data stack succeeds; the next push overflows.
func TestDataStackOverflowBoundary(t *testing.T) {
	v := New(16, 1, 4)
	a := newAsm(v)
	a.lit(1).op(OpHALT)
	v.SetIP(HeaderFirstCode)
	if status := v.Run(); status != StatusHalt {
		t.Fatalf("first push status got: %v expected: %v", status, StatusHalt)
	}

	v2 := New(16, 1, 4)
	a2 := newAsm(v2)
	a2.lit(1).lit(2).op(OpHALT)
	v2.SetIP(HeaderFirstCode)
	status := v2.Run()
	if status != StatusErr || v2.Err() != FaultDSOverflow {
		t.Errorf("second push got: (%v,%v) expected: (%v,%v)", status, v2.Err(), StatusErr, FaultDSOverflow)
	}
}

// Popping from a one-item stack succeeds; the next pop underflows.
func TestDataStackUnderflowBoundary(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)
	a.lit(5).op(OpDROP).op(OpDROP).op(OpHALT)
	v.SetIP(HeaderFirstCode)
	status := v.Run()
	if status != StatusErr || v.Err() != FaultDSUnderflow {
		t.Errorf("got: (%v,%v) expected: (%v,%v)", status, v.Err(), StatusErr, FaultDSUnderflow)
	}
}

// DMOD with a zero divisor leaves both operands on the stack.
func TestDmodZeroDivisionLeavesStack(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)
	a.lit(7).lit(0).op(OpDMOD).op(OpHALT)
	v.SetIP(HeaderFirstCode)
	status := v.Run()
	if status != StatusErr || v.Err() != FaultZeroDivision {
		t.Fatalf("got: (%v,%v) expected: (%v,%v)", status, v.Err(), StatusErr, FaultZeroDivision)
	}
	b := v.pop()
	aVal := v.pop()
	if aVal != 7 || b != 0 {
		t.Errorf("stack after fault got: (%d,%d) expected: (7,0)", aVal, b)
	}
}

// BSET stores only the low byte, discarding the high bits silently.
func TestBsetTruncatesToLowByte(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)
	a.lit(0x1234abcd).lit(HeaderFirstCode + 64).op(OpBSET).op(OpHALT)
	v.SetIP(HeaderFirstCode)
	if status := v.Run(); status != StatusHalt {
		t.Fatalf("status got: %v expected: %v", status, StatusHalt)
	}
	b, _ := v.Mem.LoadByte(HeaderFirstCode + 64)
	if b != 0xcd {
		t.Errorf("byte got: %02x expected: cd", b)
	}
}

// ADD wraps around using two's-complement arithmetic (spec §9 open question).
func TestAddWraparound(t *testing.T) {
	v := newTestVM()
	a := newAsm(v)
	a.lit(0x7fffffff).lit(1).op(OpADD).op(OpHALT)
	v.SetIP(HeaderFirstCode)
	v.Run()
	if got := v.top(); got != -0x80000000 {
		t.Errorf("got: %d expected: %d", got, int32(-0x80000000))
	}
}
