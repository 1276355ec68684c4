/*
 * Arkam - Cell types and memory-layout constants.
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

// Cell is the VM's native word: a signed 32-bit integer and the address unit.
type Cell int32

// UCell is the unsigned reinterpretation of Cell, used for bit-shifts and
// address arithmetic where wraparound must be unsigned.
type UCell uint32

// CellSize is sizeof(Cell) in bytes.
const CellSize = 4

// Image header field offsets, in bytes. See spec §3.
const (
	HeaderReserved0 Cell = 0x00
	HeaderEntry     Cell = 0x04
	HeaderHere      Cell = 0x08
	HeaderReserved1 Cell = 0x0C
	HeaderFirstCode Cell = 0x10
)

// HeaderSize is the size of the fixed image header in bytes.
const HeaderSize = 32

// DevicesCount is the number of IO device slots on the bus.
const DevicesCount = 13

// Device slot indices, matching the names in spec §4.1.
const (
	DevSYS = iota
	DevSTDIO
	DevRANDOM
	DevVIDEO
	DevAUDIO
	DevKEY
	DevMOUSE
	DevPAD
	DevFILE
	DevDATETIME
	DevSOCKET
	DevEMU
	DevAPP
)
