/*
 * Arkam - Bundled core library.
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

import _ "embed"

//go:embed corelib.sol
var coreLib string

// coreLibSource is the pseudo-path the core library compiles under, so its
// own include-cycle bookkeeping and any error positions read sensibly.
const coreLibSource = "<corelib>"

// CompileCoreLib compiles the bundled core library into c, ahead of any real
// source file. cmd/sol skips this call when --no-corelib is given.
func (c *Compiler) CompileCoreLib() *CompileError {
	c.compiling[coreLibSource] = true
	err := c.compileSource(coreLibSource, coreLib)
	c.compiling[coreLibSource] = false
	c.compiled[coreLibSource] = true
	return err
}
