/*
 * Arkam - Bounds-checked memory access.
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

import "encoding/binary"

// Memory is the VM's single contiguous byte array, partitioned into heap,
// data stack, and return stack regions. Unlike the teacher's emu/memory
// package (one package-level array shared by the one mainframe a process
// simulates), Memory is a value owned by a single VM instance: spec §5
// requires that an embedder be able to run several independent VMs, each
// with its own memory and stacks, so the region boundaries and backing
// array live on a receiver instead of in package state.
type Memory struct {
	buf []byte
	ds  Cell // start of data stack region
	rs  Cell // start of return stack region
	end Cell // end of return stack region (== total size)
}

// NewMemory allocates a Memory of the given region sizes, in cells.
func NewMemory(heapCells, dsCells, rsCells int) *Memory {
	ds := Cell(heapCells * CellSize)
	rs := ds + Cell(dsCells*CellSize)
	end := rs + Cell(rsCells*CellSize)
	return &Memory{
		buf: make([]byte, end),
		ds:  ds,
		rs:  rs,
		end: end,
	}
}

// Size returns the total memory size in bytes.
func (m *Memory) Size() Cell { return m.end }

// DSBase returns the byte offset where the data stack region begins.
func (m *Memory) DSBase() Cell { return m.ds }

// RSBase returns the byte offset where the return stack region begins.
func (m *Memory) RSBase() Cell { return m.rs }

// Valid reports whether addr is a legal address: 0 is reserved, and every
// address must lie strictly inside the memory array (spec §3 invariants).
func (m *Memory) Valid(addr Cell) bool {
	return addr > 0 && addr < m.end
}

// validCell reports whether addr is a legal address with room for a full
// cell read/write. Alignment is not checked.
func (m *Memory) validCell(addr Cell) bool {
	return m.Valid(addr) && addr+CellSize <= m.end
}

// Load reads a little-endian cell at addr.
func (m *Memory) Load(addr Cell) (Cell, bool) {
	if !m.validCell(addr) {
		return 0, false
	}
	return Cell(binary.LittleEndian.Uint32(m.buf[addr : addr+4])), true
}

// Store writes a little-endian cell at addr.
func (m *Memory) Store(addr Cell, v Cell) bool {
	if !m.validCell(addr) {
		return false
	}
	binary.LittleEndian.PutUint32(m.buf[addr:addr+4], uint32(v))
	return true
}

// LoadByte reads a single byte at addr.
func (m *Memory) LoadByte(addr Cell) (byte, bool) {
	if !m.Valid(addr) {
		return 0, false
	}
	return m.buf[addr], true
}

// StoreByte writes the low 8 bits of v at addr, silently discarding the
// high bits (spec §9 open question: BSET preserves this truncation).
func (m *Memory) StoreByte(addr Cell, v Cell) bool {
	if !m.Valid(addr) {
		return false
	}
	m.buf[addr] = byte(v)
	return true
}

// Bytes returns the raw backing slice [0,n) for image writing and the core
// compiler's "assembler sandbox" use of a VM instance as scratch memory.
func (m *Memory) Bytes(n Cell) []byte {
	return m.buf[:n]
}

// loadRaw is a package-internal helper used while loading an image: it
// writes raw bytes starting at offset 0 without going through Store, since
// the image dump already has the right layout and alignment.
func (m *Memory) loadRaw(data []byte) {
	copy(m.buf, data)
}
