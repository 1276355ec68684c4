/*
 * Arkam - Back-patching: immediate and deferred link-chain.
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

package sol

import "github.com/rcornwell/arkam/vm"

// Value is a `val:` mutable cell: Back is the head of a deferred link-chain
// threading every site (the getter's LIT, the setter's LIT, and every
// `&name`) that needs the eventual storage address, resolved once at image
// finalization.
type Value struct {
	Name string
	Back vm.Cell
}

// patch is the immediate back-patch: a single cell address, filled once the
// target address is known. Used by IF/ELSE/END and by quotation and
// string-literal skip jumps.
func (c *Compiler) patch(addr, target vm.Cell) {
	c.vm.Mem.Store(addr, target)
}

// addLink threads addr onto the value's deferred chain: addr's current
// content becomes the previous chain head, and addr becomes the new head.
func (v *Value) addLink(c *Compiler, addr vm.Cell) {
	c.vm.Mem.Store(addr, v.Back)
	v.Back = addr
}

// resolve allots one fresh heap cell (content 0, the variable's default) and
// walks v's chain, writing that cell's address into every link site.
func (v *Value) resolve(c *Compiler) {
	cell := c.alloc()
	cur := v.Back
	for cur != 0 {
		next, _ := c.vm.Mem.Load(cur)
		c.vm.Mem.Store(cur, cell)
		cur = next
	}
}

// alloc bumps here by one cell, zero-initialized (memory starts zeroed), and
// returns its address.
func (c *Compiler) alloc() vm.Cell {
	addr := c.here
	c.here += vm.CellSize
	return addr
}
