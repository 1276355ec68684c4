/*
 * Arkam - Source lexer for the sol compiler.
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

// Package sol implements the single-pass Forth-family compiler that turns
// sol source into an Arkam image.
package sol

import (
	"strconv"
	"strings"
	"unicode"
)

// maxTokenLen bounds a single word or string literal.
const maxTokenLen = 2048

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  Pos
}

// Pos locates a token in a named source for error reporting, grounded on
// configparser.go's "file:line" style, extended with a column since sol
// tokens (unlike configparser's whole-line options) can start mid-line.
type Pos struct {
	Source string
	Line   int
	Col    int
}

func (p Pos) String() string {
	return p.Source + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}

// lexer is a rune-at-a-time cursor over one source buffer, grounded on
// configparser.go's optionLine cursor (pos int, skipSpace/isEOL/getNext
// methods) but extended to a whole multi-line buffer with line/col tracking,
// since sol source spans many lines while a config line is parsed one at a
// time.
type lexer struct {
	source string
	buf    []rune
	pos    int
	line   int
	col    int
}

func newLexer(source, text string) *lexer {
	return &lexer{source: source, buf: []rune(text), line: 1, col: 1}
}

func (lx *lexer) here() Pos {
	return Pos{Source: lx.source, Line: lx.line, Col: lx.col}
}

func (lx *lexer) eof() bool {
	return lx.pos >= len(lx.buf)
}

func (lx *lexer) peek() rune {
	if lx.eof() {
		return 0
	}
	return lx.buf[lx.pos]
}

func (lx *lexer) advance() rune {
	r := lx.buf[lx.pos]
	lx.pos++
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

// skipLayout consumes whitespace, `#` line comments, and nestless `(...)`
// comments until real content or EOF is reached.
func (lx *lexer) skipLayout() *CompileError {
	for !lx.eof() {
		r := lx.peek()
		switch {
		case unicode.IsSpace(r):
			lx.advance()
		case r == '#':
			for !lx.eof() && lx.peek() != '\n' {
				lx.advance()
			}
		case r == '(':
			start := lx.here()
			lx.advance()
			closed := false
			for !lx.eof() {
				if lx.advance() == ')' {
					closed = true
					break
				}
			}
			if !closed {
				return &CompileError{Pos: start, Msg: "Unclosed paren"}
			}
		default:
			return nil
		}
	}
	return nil
}

// next returns the next token, skipping layout first.
func (lx *lexer) next() (token, *CompileError) {
	if err := lx.skipLayout(); err != nil {
		return token{}, err
	}
	if lx.eof() {
		return token{kind: tokEOF, pos: lx.here()}, nil
	}
	start := lx.here()
	if lx.peek() == '"' {
		return lx.readString(start)
	}
	return lx.readWord(start)
}

func (lx *lexer) readString(start Pos) (token, *CompileError) {
	lx.advance() // opening quote
	var b strings.Builder
	for {
		if lx.eof() {
			return token{}, &CompileError{Pos: start, Msg: "unterminated string"}
		}
		r := lx.advance()
		if r == '"' {
			return token{kind: tokString, text: b.String(), pos: start}, nil
		}
		if r == '\\' {
			if lx.eof() {
				return token{}, &CompileError{Pos: start, Msg: "unterminated string"}
			}
			esc := lx.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			default:
				b.WriteRune(esc)
			}
			continue
		}
		b.WriteRune(r)
		if b.Len() > maxTokenLen {
			return token{}, &CompileError{Pos: start, Msg: "Too long token"}
		}
	}
}

func (lx *lexer) readWord(start Pos) (token, *CompileError) {
	var b strings.Builder
	for !lx.eof() && !unicode.IsSpace(lx.peek()) {
		b.WriteRune(lx.advance())
		if b.Len() > maxTokenLen {
			return token{}, &CompileError{Pos: start, Msg: "Too long token"}
		}
	}
	return token{kind: tokWord, text: b.String(), pos: start}, nil
}
