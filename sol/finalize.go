/*
 * Arkam - Image finalization.
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

// Finalize closes out the image: it requires a toplevel `main` word, emits
// the startup trampoline (`LIT 0 <addr-of-main> HALT`, so a plain RET from
// main halts with a default exit value of 0), resolves every val:'s deferred
// link-chain by allotting its storage cell, and writes the entry point and
// final here into the header.
func (c *Compiler) Finalize() *CompileError {
	main := c.dict.Resolve(nil, "main")
	if main == nil || main.Type != WordUser {
		return errAt(Pos{}, msgNoMain)
	}

	entry := c.here
	c.emitLit(0)
	c.emitRaw(main.Inst)
	c.emitOp(vm.OpHALT)
	c.vm.Mem.Store(vm.HeaderEntry, entry)

	c.alignHere()
	for _, v := range c.values {
		v.resolve(c)
	}

	c.vm.Mem.Store(vm.HeaderHere, c.here)
	return nil
}
