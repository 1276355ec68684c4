/*
 * Arkam - Image file loading and writing.
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

import (
	"fmt"
	"io"
)

// LoadImage copies an image dump byte-for-byte into v's memory starting at
// offset 0, the remainder of memory already being zero-filled by New. It
// does not move ip; callers run the loaded program with v.SetIP(v.Entry())
// followed by Run, or simply Run after SetIP.
func LoadImage(v *VM, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("arkam: reading image: %w", err)
	}
	if len(data) < HeaderSize {
		return fmt.Errorf("arkam: image too small for header: %d bytes", len(data))
	}
	if Cell(len(data)) > v.Mem.Size() {
		return fmt.Errorf("arkam: image (%d bytes) larger than VM memory (%d bytes)", len(data), v.Mem.Size())
	}
	v.Mem.loadRaw(data)
	return nil
}

// Entry reads the entry-point address recorded at header offset 0x04.
func (v *VM) Entry() Cell {
	e, _ := v.Mem.Load(HeaderEntry)
	return e
}

// Here reads the end-of-image-data marker recorded at header offset 0x08.
func (v *VM) Here() Cell {
	h, _ := v.Mem.Load(HeaderHere)
	return h
}

// WriteCode writes memory bytes [0,here) to w, the final step of image
// finalization (spec §4.2 step 6).
func (v *VM) WriteCode(w io.Writer, here Cell) error {
	if here < HeaderSize || here > v.Mem.Size() {
		return fmt.Errorf("arkam: invalid image length %d", here)
	}
	_, err := w.Write(v.Mem.Bytes(here))
	return err
}
