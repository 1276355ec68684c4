/*
 * Arkam - Compiler error type and fatal-message catalogue.
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

// CompileError is a fatal compile-time error: the compiler stops at the
// first one, printing source:line:col the way configparser.go embeds
// "line: %d" in its own parse errors.
type CompileError struct {
	Pos Pos
	Msg string
}

func (e *CompileError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

func errAt(pos Pos, msg string) *CompileError {
	return &CompileError{Pos: pos, Msg: msg}
}

// Fatal message catalogue (spec's compiler-errors list), collected here so
// every call site uses the same wording.
const (
	msgUnknownToken       = "Unknown token"
	msgWordNameRequired   = "Word name required"
	msgTooLongToken       = "Too long token"
	msgUnclosedParen      = "Unclosed paren"
	msgUnterminatedString = "unterminated string"
	msgNestedNotFirst     = "Nested word is not at first of parent definition"
	msgNestedInQuotation  = "Do not create nested word in quotation"
	msgQuotOutOfDef       = "Quotation out of definition"
	msgCloseQuotOutOfQuot = "Close quot out of quotation"
	msgSemiOutOfDef       = "Semicolon out of word definition"
	msgConstNeedsNumber   = "Constant value should be number or constant"
	msgIncludeNotFound    = "include not found"
	msgCircularInclude    = "Circular include detected"
	msgDatafileNotAligned = "datafile: not aligned before"
	msgAmpOnConstant      = "is a constant. Do not use & for it."
	msgUnknownWord        = "Unknown word"
	msgNoMain             = "No main entrypoint"
	msgElseWithoutIf      = "ELSE without matching IF"
	msgEndWithoutIf       = "END without matching IF or ELSE"
	msgAgainOutOfDef      = "AGAIN out of word definition"
	msgRecurOutOfDef      = "RECUR out of word definition"
)
