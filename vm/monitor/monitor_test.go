/*
 * Arkam - debug monitor tests.
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

package monitor

import (
	"testing"

	"github.com/rcornwell/arkam/vm"
)

func op(o int) vm.Cell { return vm.Cell(o<<1 | 1) }

// program writes `LIT 7 HALT` at HeaderFirstCode and returns a VM parked
// at its entry, the same raw-cell assembly style vm's own tests use.
func program(t *testing.T) *vm.VM {
	t.Helper()
	v := vm.New(256, 64, 64)
	addr := vm.HeaderFirstCode
	v.Mem.Store(addr, op(vm.OpLIT))
	addr += vm.CellSize
	v.Mem.Store(addr, 7)
	addr += vm.CellSize
	v.Mem.Store(addr, op(vm.OpHALT))
	v.SetIP(vm.HeaderFirstCode)
	return v
}

func TestMatchCommandAbbreviation(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"s", 1},
		{"st", 1},
		{"step", 1},
		{"c", 1},
		{"cont", 1},
		{"q", 1},
		{"x", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := len(matchList(c.input)); got != c.want {
			t.Errorf("matchList(%q) got %d matches, expected %d", c.input, got, c.want)
		}
	}
}

func TestCmdStepAdvancesAndHalts(t *testing.T) {
	v := program(t)
	m := &monitor{v: v, status: vm.StatusOK}

	done, err := m.cmdStep(nil)
	if err != nil || done {
		t.Fatalf("first step got: done=%v err=%v, expected done=false", done, err)
	}
	if v.IP() != vm.HeaderFirstCode+2*vm.CellSize {
		t.Fatalf("ip after LIT got: %#x", v.IP())
	}

	done, err = m.cmdStep(nil)
	if err != nil || !done {
		t.Fatalf("second step got: done=%v err=%v, expected done=true", done, err)
	}
	if m.status != vm.StatusHalt {
		t.Fatalf("status got: %v expected: %v", m.status, vm.StatusHalt)
	}
}

func TestCmdDumpRejectsMissingAddress(t *testing.T) {
	v := program(t)
	m := &monitor{v: v, status: vm.StatusOK}
	if _, err := m.cmdDump(nil); err == nil {
		t.Fatalf("expected an error for a missing address")
	}
}

func TestCmdDumpReadsMemory(t *testing.T) {
	v := program(t)
	m := &monitor{v: v, status: vm.StatusOK}
	if _, err := m.cmdDump([]string{"0x10", "1"}); err != nil {
		t.Fatalf("dump error: %v", err)
	}
}
