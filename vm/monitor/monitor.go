/*
 * Arkam - Interactive debug monitor.
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

// Package monitor implements the --debug interactive stepper: a Step()-at-a-
// time REPL replacing the plain Run() loop, grounded on command/parser's
// verb-table dispatch (prefix-abbreviation matching against a minimum
// length) and command/reader's liner-backed console loop.
package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/rcornwell/arkam/vm"
)

type cmd struct {
	name    string
	min     int
	process func(*monitor, []string) (bool, error)
}

var cmdList = []cmd{
	{name: "step", min: 1, process: (*monitor).cmdStep},
	{name: "regs", min: 1, process: (*monitor).cmdRegs},
	{name: "dump", min: 1, process: (*monitor).cmdDump},
	{name: "continue", min: 1, process: (*monitor).cmdContinue},
	{name: "quit", min: 1, process: (*monitor).cmdQuit},
}

// matchCommand reports whether command matches match's name to at least
// match.min characters, the same prefix-abbreviation rule parser.go uses.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.name) {
		return false
	}
	for i := range command {
		if match.name[i] != command[i] {
			return false
		}
	}
	return len(command) >= match.min
}

func matchList(command string) []cmd {
	if command == "" {
		return nil
	}
	var out []cmd
	for _, m := range cmdList {
		if matchCommand(m, command) {
			out = append(out, m)
		}
	}
	return out
}

type monitor struct {
	v      *vm.VM
	line   *liner.State
	status vm.Status
}

// Run starts the interactive monitor over v, blocking until "quit", a halt
// or fault from step, any "continue", a prompt abort (Ctrl-C), or a read
// error such as end of input (Ctrl-D). It returns the VM's final status.
func Run(v *vm.VM) vm.Status {
	m := &monitor{v: v, status: vm.StatusOK}
	m.line = liner.NewLiner()
	defer m.line.Close()

	m.line.SetCtrlCAborts(true)
	m.line.SetCompleter(func(line string) []string {
		names := make([]string, 0, len(cmdList))
		for _, c := range matchList(line) {
			names = append(names, c.name)
		}
		return names
	})

	fmt.Printf("arkam debug monitor: ip=%#x\n", v.IP())
	for {
		input, err := m.line.Prompt("arkam> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return m.status
			}
			fmt.Println("error reading line: " + err.Error())
			return m.status
		}
		m.line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}
		matches := matchList(fields[0])
		switch len(matches) {
		case 0:
			fmt.Println("Error: command not found: " + fields[0])
			continue
		case 1:
		default:
			fmt.Println("Error: ambiguous command: " + fields[0])
			continue
		}

		done, perr := matches[0].process(m, fields[1:])
		if perr != nil {
			fmt.Println("Error: " + perr.Error())
		}
		if done {
			return m.status
		}
	}
}

func (m *monitor) cmdStep(_ []string) (bool, error) {
	m.status = m.v.Step()
	fmt.Printf("ip=%#x status=%v\n", m.v.IP(), m.status)
	if m.status != vm.StatusOK {
		return true, nil
	}
	return false, nil
}

func (m *monitor) cmdContinue(_ []string) (bool, error) {
	m.status = m.v.Run()
	fmt.Printf("status=%v\n", m.status)
	return true, nil
}

func (m *monitor) cmdQuit(_ []string) (bool, error) {
	return true, nil
}

func (m *monitor) cmdRegs(_ []string) (bool, error) {
	fmt.Printf("ip=%#x sp=%#x rp=%#x result=%d err=%v\n",
		m.v.IP(), m.v.SP(), m.v.RP(), m.v.Result(), m.v.Err())
	return false, nil
}

// dump addr [count] prints count cells (default 8) starting at addr; addr is
// hexadecimal (optional 0x prefix), count is decimal.
func (m *monitor) cmdDump(args []string) (bool, error) {
	if len(args) == 0 {
		return false, errors.New("dump requires an address")
	}
	addr, err := strconv.ParseInt(strings.TrimPrefix(args[0], "0x"), 16, 64)
	if err != nil {
		return false, errors.New("invalid address: " + args[0])
	}
	count := int64(8)
	if len(args) > 1 {
		count, err = strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return false, errors.New("invalid count: " + args[1])
		}
	}
	a := vm.Cell(addr)
	for i := int64(0); i < count; i++ {
		val, ok := m.v.Mem.Load(a)
		if !ok {
			fmt.Printf("%#08x: <invalid>\n", a)
			break
		}
		fmt.Printf("%#08x: %#08x\n", a, val)
		a += vm.CellSize
	}
	return false, nil
}
