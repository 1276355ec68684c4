/*
 * Arkam - Dictionary forest and hyper-static name resolution.
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
	"strings"

	"github.com/rcornwell/arkam/vm"
)

// WordType distinguishes the dictionary-entry kinds the compiler creates.
type WordType int

const (
	// WordUser is a `:`-defined word: Inst is its code address.
	WordUser WordType = iota
	// WordConstant is a `const:`-defined name: Inst is its value.
	WordConstant
	// WordValue is not assigned by the compiler: `val:` defines its getter
	// and setter as WordUser entries that share a Value through ValueRef,
	// and the deferred link chain lives on that Value.
	WordValue
	// WordQuotation marks an anonymous `[ ... ]` entry pushed as current so
	// `]` can find its matching `[`; it is skipped by name resolution and,
	// once closed, stays linked in the dictionary without being reachable
	// by name.
	WordQuotation
)

// Word is one dictionary entry: the nested forest is built from Child (most
// recently added nested definition), Next (the next older sibling, or for
// the oldest child its parent's Next; see Add), and Parent (the enclosing
// definition), exactly as spec.md's §4.2 resolution walk expects.
type Word struct {
	Type   WordType
	Name   string
	Inst   vm.Cell // code address (User, Quotation) or value (Constant)
	Back   vm.Cell // address of the skip jump's operand (Quotation only)
	Level  int     // nesting depth at which this entry was defined
	Next   *Word
	Child  *Word
	Parent *Word

	// ValueRef is set on the getter/setter Words a val: definition
	// creates; it is the shared deferred-chain descriptor both of them,
	// and every `&name` reference to either, link onto.
	ValueRef *Value
}

// Dict is the toplevel dictionary: Head is the most recently defined
// top-level Word, each possibly the root of a nested Child forest.
type Dict struct {
	Head *Word
}

// Add threads w onto the front of current's Child list (or the toplevel list
// if current is nil), newest-first, exactly like a classic Forth dictionary.
// When w is the first entry added under current, w.Next escalates straight
// to current.Next instead of stopping at nil: walking a single Next chain
// from any word therefore surfaces, in order, its own later-added siblings,
// then (once those run out) whatever was visible at the point current itself
// was opened, one enclosing scope at a time, all the way out to the toplevel.
// This single escalating chain is what makes Resolve's ascent work without a
// separate parent-walking loop, and is why a `:`-redefinition shadows an
// earlier one: the newer entry always sorts before the older one it shadows.
func (d *Dict) Add(current *Word, w *Word) {
	if current == nil {
		w.Level = 0
		w.Next = d.Head
		d.Head = w
		return
	}
	w.Level = current.Level + 1
	w.Parent = current
	if current.Child != nil {
		w.Next = current.Child
	} else {
		w.Next = current.Next
	}
	current.Child = w
}

// Resolve implements the hyper-static lookup from spec.md §4.2: search
// starts at current.Child if it exists, else current.Next, else the
// toplevel head. Because Add threads that chain newest-first and escalating
// (see Add), one linear walk finds the innermost visible prior definition:
// current's own later-added nested siblings first, then each enclosing
// scope's siblings defined strictly before it was opened, out to the
// toplevel. A `:`-separated name additionally descends into a matching
// prefix's Child forest one segment at a time, and that descent alone is
// level-bounded: a sibling whose Level is below the level where the last
// segment match began stops the search rather than leaking into scopes the
// qualified name was never meant to reach.
func (d *Dict) Resolve(current *Word, name string) *Word {
	var start *Word
	switch {
	case current == nil:
		start = d.Head
	case current.Child != nil:
		start = current.Child
	default:
		start = current.Next
	}
	return resolveFrom(start, name, 0)
}

func resolveFrom(w *Word, name string, level int) *Word {
	for w != nil {
		if w.Type == WordQuotation {
			w = w.Next
			continue
		}
		if w.Level < level {
			return nil
		}
		if w.Name == name {
			return w
		}
		if prefix, ok := splitAtColon(name, w.Name); ok {
			if found := resolveFrom(w.Child, prefix, level+1); found != nil {
				return found
			}
		}
		w = w.Next
	}
	return nil
}

// splitAtColon reports whether candidate is a proper prefix of name ending
// exactly at a `:`, returning the remainder after that colon.
func splitAtColon(name, candidate string) (string, bool) {
	p := candidate + ":"
	if !strings.HasPrefix(name, p) {
		return "", false
	}
	return name[len(p):], true
}

// primitiveTable maps the uppercase mnemonics used in sol source to their
// opcode, the "fixed primitive/word table" spec.md §4.2 falls back to once
// the user dictionary search misses.
var primitiveTable = map[string]int{
	"NOOP":    vm.OpNOOP,
	"HALT":    vm.OpHALT,
	"LIT":     vm.OpLIT,
	"RET":     vm.OpRET,
	"DUP":     vm.OpDUP,
	"DROP":    vm.OpDROP,
	"SWAP":    vm.OpSWAP,
	"OVER":    vm.OpOVER,
	"ADD":     vm.OpADD,
	"SUB":     vm.OpSUB,
	"MUL":     vm.OpMUL,
	"DMOD":    vm.OpDMOD,
	"EQ":      vm.OpEQ,
	"NEQ":     vm.OpNEQ,
	"GT":      vm.OpGT,
	"LT":      vm.OpLT,
	"JMP":     vm.OpJMP,
	"ZJMP":    vm.OpZJMP,
	"GET":     vm.OpGET,
	"SET":     vm.OpSET,
	"BGET":    vm.OpBGET,
	"BSET":    vm.OpBSET,
	"AND":     vm.OpAND,
	"OR":      vm.OpOR,
	"NOT":     vm.OpNOT,
	"XOR":     vm.OpXOR,
	"LSHIFT":  vm.OpLSHIFT,
	"ASHIFT":  vm.OpASHIFT,
	"IO":      vm.OpIO,
	"RPUSH":   vm.OpRPUSH,
	"RPOP":    vm.OpRPOP,
	"RDROP":   vm.OpRDROP,
	"GETSP":   vm.OpGETSP,
	"SETSP":   vm.OpSETSP,
	"GETRP":   vm.OpGETRP,
	"SETRP":   vm.OpSETRP,
}
