/*
 * Arkam - VM instance: registers, construction, device registry.
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

// Package vm implements the Arkam execution engine: a fixed-cell,
// stack-oriented virtual machine with byte-addressable memory, two stacks,
// and a pluggable device-IO bus.
package vm

// Device handles IO operations dispatched to one of the 13 bus slots. See
// the IO primitive in device.go for the dispatch contract.
type Device interface {
	Handle(m *VM, op Cell) Status
}

// VM is one independently-addressed virtual machine instance: its own
// memory, its own stacks, its own device table. Running several VMs in one
// process is safe as long as each is only ever stepped from one goroutine
// at a time (spec §5).
type VM struct {
	Mem *Memory

	ip     Cell
	sp     Cell
	rp     Cell
	result Cell
	err    Fault

	devices [DevicesCount]Device
}

// New constructs a VM with the given region sizes, in cells, and registers
// the built-in SYS device at slot 0. Stacks start empty: sp/rp point one
// cell below their region's top, per spec §3.
func New(heapCells, dsCells, rsCells int) *VM {
	m := NewMemory(heapCells, dsCells, rsCells)
	v := &VM{
		Mem: m,
		sp:  m.RSBase() - CellSize,
		rp:  m.Size() - CellSize,
	}
	v.RegisterDevice(DevSYS, sysDevice{})
	return v
}

// RegisterDevice installs a handler at the given bus slot. Passing nil
// unregisters any handler previously installed there.
func (v *VM) RegisterDevice(slot int, d Device) {
	v.devices[slot] = d
}

// IP returns the current instruction pointer.
func (v *VM) IP() Cell { return v.ip }

// SetIP sets the instruction pointer without validation; an invalid ip is
// only caught when the next Step fails to fetch from it. Jump primitives,
// by contrast, validate their target before setting ip.
func (v *VM) SetIP(ip Cell) { v.ip = ip }

// SP returns the data stack pointer.
func (v *VM) SP() Cell { return v.sp }

// RP returns the return stack pointer.
func (v *VM) RP() Cell { return v.rp }

// Result returns the last value read by a primitive that records one (LIT,
// GET, BGET, and similar); used by the debug monitor for display only.
func (v *VM) Result() Cell { return v.result }

// Err returns the fault code set by the most recent failed Step.
func (v *VM) Err() Fault { return v.err }

// Push pushes a value onto the data stack. Exported for Device
// implementations living outside package vm (socket, and any embedder's
// own handlers); callers must check DSFree(1) first, same as an opcode
// handler would.
func (v *VM) Push(val Cell) { v.push(val) }

// Pop pops and returns the top of the data stack. Exported for Device
// implementations outside package vm; callers must check DSHas(1) first.
func (v *VM) Pop() Cell { return v.pop() }

// DSHas reports whether the data stack holds at least n items. Exported
// for Device implementations outside package vm.
func (v *VM) DSHas(n Cell) bool { return v.dsHas(n) }

// DSFree reports whether the data stack has room for at least n more
// items. Exported for Device implementations outside package vm.
func (v *VM) DSFree(n Cell) bool { return v.dsFree(n) }

// Fault sets the VM's fault register and returns StatusErr. Exported so a
// Device implemented outside package vm can report a failure through the
// same channel an opcode handler uses.
func (v *VM) Fault(f Fault) Status { return v.fault(f) }

// dsDepth returns the number of cells currently on the data stack.
func (v *VM) dsDepth() Cell {
	return ((v.Mem.RSBase() - CellSize) - v.sp) / CellSize
}

// rsDepth returns the number of cells currently on the return stack.
func (v *VM) rsDepth() Cell {
	return ((v.Mem.Size() - CellSize) - v.rp) / CellSize
}

// dsHas reports whether the data stack holds at least n items.
func (v *VM) dsHas(n Cell) bool {
	return v.sp+CellSize*n < v.Mem.RSBase()
}

// dsFree reports whether the data stack has room for at least n more items.
func (v *VM) dsFree(n Cell) bool {
	return v.sp-CellSize*(n-1) >= v.Mem.DSBase()
}

// rsHas reports whether the return stack holds at least n items.
func (v *VM) rsHas(n Cell) bool {
	return v.rp+CellSize*n < v.Mem.Size()
}

// rsFree reports whether the return stack has room for at least n more items.
func (v *VM) rsFree(n Cell) bool {
	return v.rp-CellSize*(n-1) >= v.Mem.RSBase()
}

// push pushes a cell onto the data stack. sp points one cell below the
// current top (spec §3), so a push stores at the current sp and then backs
// sp away from rs; the top ends up at sp+CellSize. Callers must have
// already checked dsFree(1).
func (v *VM) push(val Cell) {
	_ = v.Mem.Store(v.sp, val)
	v.sp -= CellSize
}

// pop pops and returns the top of the data stack. Callers must have already
// checked dsHas(1).
func (v *VM) pop() Cell {
	v.sp += CellSize
	val, _ := v.Mem.Load(v.sp)
	return val
}

// top peeks the top of the data stack without popping it. Callers must have
// already checked dsHas(1).
func (v *VM) top() Cell {
	val, _ := v.Mem.Load(v.sp + CellSize)
	return val
}

// under peeks the second-from-top cell of the data stack without popping
// anything. Callers must have already checked dsHas(2).
func (v *VM) under() Cell {
	val, _ := v.Mem.Load(v.sp + 2*CellSize)
	return val
}

// pushR pushes a cell onto the return stack, same convention as push.
// Callers must have already checked rsFree(1).
func (v *VM) pushR(val Cell) {
	_ = v.Mem.Store(v.rp, val)
	v.rp -= CellSize
}

// popR pops and returns the top of the return stack. Callers must have
// already checked rsHas(1).
func (v *VM) popR() Cell {
	v.rp += CellSize
	val, _ := v.Mem.Load(v.rp)
	return val
}
