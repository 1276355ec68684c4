/*
 * Arkam - Defining-word state machine.
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

import (
	"path/filepath"
	"strconv"

	"github.com/rcornwell/arkam/vm"
)

// FileReader resolves include: and datafile: paths. cmd/sol wires this to
// the OS filesystem; tests can supply an in-memory stand-in.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Compiler holds the full state of one compilation run: the dictionary
// forest, the defining-word stack (current), a dedicated compile-time
// stack for pending control-flow back-patches (spec.md §9 notes this is
// "behaviorally equivalent, cleaner separation" to reusing the VM's own
// data stack), and the target image under construction in a *vm.VM's
// memory.
type Compiler struct {
	vm   *vm.VM
	here vm.Cell

	dict    Dict
	current *Word
	values  []*Value
	cstack  []vm.Cell

	reader  FileReader
	libPath []string

	compiling map[string]bool
	compiled  map[string]bool
	curDir    string
}

// NewCompiler constructs a Compiler that emits into v's memory starting
// right after the header, the layout spec.md §4.1/§4.2 assumes.
func NewCompiler(v *vm.VM, reader FileReader, libPath []string) *Compiler {
	return &Compiler{
		vm:        v,
		here:      vm.HeaderFirstCode,
		reader:    reader,
		libPath:   libPath,
		compiling: map[string]bool{},
		compiled:  map[string]bool{},
	}
}

// Here returns the current bump pointer, exposed for finalize.go and tests.
func (c *Compiler) Here() vm.Cell { return c.here }

func (c *Compiler) emitOp(op int) {
	c.vm.Mem.Store(c.here, vm.Cell(op<<1|1))
	c.here += vm.CellSize
}

func (c *Compiler) emitRaw(v vm.Cell) {
	c.vm.Mem.Store(c.here, v)
	c.here += vm.CellSize
}

func (c *Compiler) emitLit(v vm.Cell) {
	c.emitOp(vm.OpLIT)
	c.emitRaw(v)
}

func (c *Compiler) storeByte(b byte) {
	c.vm.Mem.StoreByte(c.here, vm.Cell(b))
	c.here++
}

func (c *Compiler) alignHere() {
	for c.here%vm.CellSize != 0 {
		c.storeByte(0)
	}
}

func (c *Compiler) pushCompile(addr vm.Cell) { c.cstack = append(c.cstack, addr) }

func (c *Compiler) popCompile() (vm.Cell, bool) {
	if len(c.cstack) == 0 {
		return 0, false
	}
	n := len(c.cstack) - 1
	addr := c.cstack[n]
	c.cstack = c.cstack[:n]
	return addr, true
}

func (c *Compiler) level() int {
	if c.current == nil {
		return 0
	}
	return c.current.Level + 1
}

// CompileFile is the entry point used by cmd/sol for each source path: it
// compiles the file and records it as done, for include: cycle tracking.
func (c *Compiler) CompileFile(path string) *CompileError {
	data, err := c.reader.ReadFile(path)
	if err != nil {
		return errAt(Pos{Source: path}, msgIncludeNotFound+": "+path)
	}
	abs := path
	c.curDir = filepath.Dir(path)
	c.compiling[abs] = true
	cerr := c.compileSource(path, string(data))
	c.compiling[abs] = false
	c.compiled[abs] = true
	return cerr
}

// compileSource tokenizes and compiles one source buffer under the given
// name, used both for top-level sources and for include: targets.
func (c *Compiler) compileSource(name, text string) *CompileError {
	lx := newLexer(name, text)
	for {
		tok, err := lx.next()
		if err != nil {
			return err
		}
		if tok.kind == tokEOF {
			break
		}
		if tok.kind == tokString {
			if err := c.emitStringLiteral(tok); err != nil {
				return err
			}
			continue
		}
		if err := c.dispatch(lx, tok); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) dispatch(lx *lexer, tok token) *CompileError {
	switch tok.text {
	case ":":
		return c.handleColon(lx, tok.pos)
	case ";":
		return c.handleSemicolon(tok.pos)
	case "const:":
		return c.handleConst(lx, tok.pos)
	case "val:":
		return c.handleVal(lx, tok.pos)
	case "IF":
		return c.handleIf()
	case "ELSE":
		return c.handleElse(tok.pos)
	case "END":
		return c.handleEnd(tok.pos)
	case "AGAIN":
		return c.handleAgain(tok.pos)
	case "RECUR":
		return c.handleRecur(tok.pos)
	case "[":
		return c.handleOpenQuote(tok.pos)
	case "]":
		return c.handleCloseQuote(tok.pos)
	case "&":
		return c.handleAmp(lx, tok.pos)
	case "include:":
		return c.handleInclude(lx, tok.pos)
	case "datafile:":
		return c.handleDatafile(lx, tok.pos)
	default:
		return c.compileWordOrNumber(tok)
	}
}

func (c *Compiler) readName(lx *lexer, pos Pos) (string, Pos, *CompileError) {
	tok, err := lx.next()
	if err != nil {
		return "", Pos{}, err
	}
	if tok.kind != tokWord || tok.text == "" {
		return "", Pos{}, errAt(pos, msgWordNameRequired)
	}
	return tok.text, tok.pos, nil
}

func parseNumber(s string) (vm.Cell, bool) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, false
	}
	return vm.Cell(int32(n)), true
}

func (c *Compiler) compileWordOrNumber(tok token) *CompileError {
	if w := c.dict.Resolve(c.current, tok.text); w != nil {
		return c.emitWordRef(w)
	}
	if op, ok := primitiveTable[tok.text]; ok {
		c.emitOp(op)
		return nil
	}
	if n, ok := parseNumber(tok.text); ok {
		c.emitLit(n)
		return nil
	}
	return errAt(tok.pos, msgUnknownWord+": "+tok.text)
}

func (c *Compiler) emitWordRef(w *Word) *CompileError {
	switch w.Type {
	case WordConstant:
		c.emitLit(w.Inst)
	case WordUser:
		c.emitRaw(w.Inst)
	}
	return nil
}

// handleColon begins a user word. A nested `:` may only appear before any
// of its parent's own code has been emitted (spec.md §4.2).
func (c *Compiler) handleColon(lx *lexer, pos Pos) *CompileError {
	name, namePos, err := c.readName(lx, pos)
	if err != nil {
		return err
	}
	if c.current != nil {
		if c.current.Type == WordQuotation {
			return errAt(namePos, msgNestedInQuotation)
		}
		if c.here != c.current.Inst {
			return errAt(namePos, msgNestedNotFirst)
		}
	}
	w := &Word{Type: WordUser, Name: name, Inst: c.here, Level: c.level(), Parent: c.current}
	c.dict.Add(c.current, w)
	c.current = w
	return nil
}

func (c *Compiler) handleSemicolon(pos Pos) *CompileError {
	if c.current == nil || c.current.Type == WordQuotation {
		return errAt(pos, msgSemiOutOfDef)
	}
	c.emitOp(vm.OpRET)
	finished := c.current
	c.current = finished.Parent
	if c.current != nil {
		c.current.Inst = c.here
	}
	return nil
}

func (c *Compiler) handleConst(lx *lexer, pos Pos) *CompileError {
	name, _, err := c.readName(lx, pos)
	if err != nil {
		return err
	}
	tok, lerr := lx.next()
	if lerr != nil {
		return lerr
	}
	value, ok := c.constValue(tok)
	if !ok {
		return errAt(tok.pos, msgConstNeedsNumber)
	}
	w := &Word{Type: WordConstant, Name: name, Inst: value, Level: c.level()}
	c.dict.Add(c.current, w)
	return nil
}

func (c *Compiler) constValue(tok token) (vm.Cell, bool) {
	if tok.kind != tokWord {
		return 0, false
	}
	if n, ok := parseNumber(tok.text); ok {
		return n, true
	}
	if w := c.dict.Resolve(c.current, tok.text); w != nil && w.Type == WordConstant {
		return w.Inst, true
	}
	return 0, false
}

func (c *Compiler) handleVal(lx *lexer, pos Pos) *CompileError {
	name, _, err := c.readName(lx, pos)
	if err != nil {
		return err
	}
	value := &Value{Name: name}
	c.values = append(c.values, value)
	level := c.level()

	getter := &Word{Type: WordUser, Name: name, Inst: c.here, Level: level, ValueRef: value}
	c.emitOp(vm.OpLIT)
	link := c.here
	c.emitRaw(0)
	value.addLink(c, link)
	c.emitOp(vm.OpGET)
	c.emitOp(vm.OpRET)
	c.dict.Add(c.current, getter)

	setter := &Word{Type: WordUser, Name: name + "!", Inst: c.here, Level: level, ValueRef: value}
	c.emitOp(vm.OpLIT)
	link = c.here
	c.emitRaw(0)
	value.addLink(c, link)
	c.emitOp(vm.OpSET)
	c.emitOp(vm.OpRET)
	c.dict.Add(c.current, setter)
	return nil
}

func (c *Compiler) handleIf() *CompileError {
	c.emitOp(vm.OpZJMP)
	addr := c.here
	c.emitRaw(0)
	c.pushCompile(addr)
	return nil
}

func (c *Compiler) handleElse(pos Pos) *CompileError {
	ifAddr, ok := c.popCompile()
	if !ok {
		return errAt(pos, msgElseWithoutIf)
	}
	c.emitOp(vm.OpJMP)
	elseAddr := c.here
	c.emitRaw(0)
	c.patch(ifAddr, c.here)
	c.pushCompile(elseAddr)
	return nil
}

func (c *Compiler) handleEnd(pos Pos) *CompileError {
	addr, ok := c.popCompile()
	if !ok {
		return errAt(pos, msgEndWithoutIf)
	}
	c.patch(addr, c.here)
	return nil
}

func (c *Compiler) handleAgain(pos Pos) *CompileError {
	if c.current == nil {
		return errAt(pos, msgAgainOutOfDef)
	}
	c.emitOp(vm.OpJMP)
	c.emitRaw(c.current.Inst)
	return nil
}

func (c *Compiler) handleRecur(pos Pos) *CompileError {
	if c.current == nil {
		return errAt(pos, msgRecurOutOfDef)
	}
	c.emitRaw(c.current.Inst)
	return nil
}

func (c *Compiler) handleOpenQuote(pos Pos) *CompileError {
	if c.current == nil {
		return errAt(pos, msgQuotOutOfDef)
	}
	c.emitOp(vm.OpJMP)
	skipAddr := c.here
	c.emitRaw(0)
	q := &Word{Type: WordQuotation, Inst: c.here, Back: skipAddr, Level: c.level(), Parent: c.current}
	c.dict.Add(c.current, q)
	c.current = q
	return nil
}

func (c *Compiler) handleCloseQuote(pos Pos) *CompileError {
	if c.current == nil || c.current.Type != WordQuotation {
		return errAt(pos, msgCloseQuotOutOfQuot)
	}
	c.emitOp(vm.OpRET)
	q := c.current
	c.patch(q.Back, c.here)
	c.current = q.Parent
	c.emitLit(q.Inst)
	return nil
}

func (c *Compiler) handleAmp(lx *lexer, pos Pos) *CompileError {
	tok, err := lx.next()
	if err != nil {
		return err
	}
	if tok.kind != tokWord {
		return errAt(pos, msgWordNameRequired)
	}
	w := c.dict.Resolve(c.current, tok.text)
	if w == nil {
		return errAt(tok.pos, msgUnknownWord+": "+tok.text)
	}
	if w.Type == WordConstant {
		return errAt(tok.pos, tok.text+" "+msgAmpOnConstant)
	}
	if w.ValueRef != nil {
		c.emitOp(vm.OpLIT)
		addr := c.here
		c.emitRaw(0)
		w.ValueRef.addLink(c, addr)
		return nil
	}
	c.emitLit(w.Inst)
	return nil
}

func (c *Compiler) emitStringLiteral(tok token) *CompileError {
	c.emitOp(vm.OpJMP)
	jaddr := c.here
	c.emitRaw(0)
	start := c.here
	for _, b := range []byte(tok.text) {
		c.storeByte(b)
	}
	c.storeByte(0)
	c.alignHere()
	c.patch(jaddr, c.here)
	c.emitLit(start)
	return nil
}

func (c *Compiler) handleInclude(lx *lexer, pos Pos) *CompileError {
	tok, err := lx.next()
	if err != nil {
		return err
	}
	if tok.kind != tokString {
		return errAt(pos, msgWordNameRequired)
	}
	resolved, data, rerr := c.resolveInclude(tok.text)
	if rerr != nil {
		return errAt(pos, msgIncludeNotFound+": "+tok.text)
	}
	if c.compiling[resolved] {
		return errAt(pos, msgCircularInclude+": "+resolved)
	}
	if c.compiled[resolved] {
		return nil
	}
	c.compiling[resolved] = true
	savedDir := c.curDir
	c.curDir = filepath.Dir(resolved)
	cerr := c.compileSource(resolved, string(data))
	c.curDir = savedDir
	c.compiling[resolved] = false
	c.compiled[resolved] = true
	return cerr
}

func (c *Compiler) resolveInclude(path string) (string, []byte, error) {
	candidates := []string{filepath.Join(c.curDir, path)}
	for _, dir := range c.libPath {
		candidates = append(candidates, filepath.Join(dir, path))
	}
	var lastErr error
	for _, cand := range candidates {
		data, err := c.reader.ReadFile(cand)
		if err == nil {
			return cand, data, nil
		}
		lastErr = err
	}
	return "", nil, lastErr
}

func (c *Compiler) handleDatafile(lx *lexer, pos Pos) *CompileError {
	name, _, err := c.readName(lx, pos)
	if err != nil {
		return err
	}
	tok, lerr := lx.next()
	if lerr != nil {
		return lerr
	}
	if tok.kind != tokString {
		return errAt(pos, msgWordNameRequired)
	}
	if c.here%vm.CellSize != 0 {
		return errAt(pos, msgDatafileNotAligned)
	}
	_, data, rerr := c.resolveInclude(tok.text)
	if rerr != nil {
		return errAt(pos, msgIncludeNotFound+": "+tok.text)
	}
	w := &Word{Type: WordConstant, Name: name, Inst: c.here, Level: c.level()}
	c.dict.Add(c.current, w)
	c.emitRaw(vm.Cell(len(data)))
	for _, b := range data {
		c.storeByte(b)
	}
	c.alignHere()
	return nil
}
