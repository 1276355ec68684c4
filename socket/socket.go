/*
 * Arkam - SOCKET device.
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

// Package socket implements the SOCKET device (IO bus slot 10): a
// line-oriented TCP listener exposed to sol programs through the IO
// primitive. It demonstrates a real network device built against the
// vm.Device ABI, generalized from the teacher's telnet listener/multiplexer
// pair down to plain line framing -- Arkam's bus has no telnet concept. The
// accept loop runs on its own goroutine and feeds a channel that accept
// polls without blocking; reads and writes on a connection run directly on
// the goroutine calling Handle.
package socket

import (
	"bufio"
	"net"
	"sync"

	"github.com/rcornwell/arkam/vm"
)

// Device is the SOCKET handler. One Device can own several listeners and
// several accepted connections at once, each identified to sol programs by
// a small integer handle. Handle is called only from the goroutine driving
// the owning VM's Step/Run loop; each listener's accept loop runs on its own
// goroutine and only hands connections over through the listener's buffered
// channel, never touching Device state directly. Connection reads and writes
// happen inside Handle itself, so read-line blocks the calling Step.
type Device struct {
	mu        sync.Mutex
	listeners map[vm.Cell]*listener
	conns     map[vm.Cell]*connection
	nextID    vm.Cell
}

type listener struct {
	ln       net.Listener
	accepted chan net.Conn
}

type connection struct {
	conn   net.Conn
	reader *bufio.Reader
}

// New constructs an empty SOCKET device ready for RegisterDevice.
func New() *Device {
	return &Device{
		listeners: make(map[vm.Cell]*listener),
		conns:     make(map[vm.Cell]*connection),
	}
}

// Ops, stack effects documented in terms of what Handle pops/pushes itself
// (the IO primitive has already popped op and dev). Line buffers are always
// supplied by the caller, never allocated by the device: the VM has no
// runtime heap allocator, only the compiler's build-time `here` cursor, so
// read-line fills a caller-owned buffer the same way a classic console
// device call takes a destination address and a maximum length.
//
//	0  open-listener  ( port -- handle | -1 )
//	1  accept         ( handle -- conn-handle | -1 )
//	2  read-line      ( addr maxlen conn-handle -- len | -1 )
//	3  write-line     ( addr len conn-handle -- ok )
//	4  close          ( handle -- )
const (
	opOpenListener vm.Cell = iota
	opAccept
	opReadLine
	opWriteLine
	opClose
)

func (d *Device) Handle(v *vm.VM, op vm.Cell) vm.Status {
	switch op {
	case opOpenListener:
		return d.openListener(v)
	case opAccept:
		return d.accept(v)
	case opReadLine:
		return d.readLine(v)
	case opWriteLine:
		return d.writeLine(v)
	case opClose:
		return d.close(v)
	default:
		return v.Fault(vm.FaultIOUnknownOp)
	}
}

func (d *Device) allot() vm.Cell {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	return id
}

func (d *Device) openListener(v *vm.VM) vm.Status {
	if !v.DSHas(1) {
		return v.Fault(vm.FaultDSUnderflow)
	}
	port := v.Pop()
	if !v.DSFree(1) {
		return v.Fault(vm.FaultDSOverflow)
	}

	ln, err := net.Listen("tcp", ":"+portString(port))
	if err != nil {
		v.Push(-1)
		return vm.StatusOK
	}

	l := &listener{ln: ln, accepted: make(chan net.Conn, 16)}
	id := d.allot()
	d.mu.Lock()
	d.listeners[id] = l
	d.mu.Unlock()

	go acceptLoop(l)

	v.Push(id)
	return vm.StatusOK
}

// acceptLoop feeds accepted connections into l.accepted until the listener
// is closed, mirroring telnet.Server.acceptConnections's shape: a tight
// Accept loop handing off to a channel, never touching Device state
// directly.
func acceptLoop(l *listener) {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			close(l.accepted)
			return
		}
		l.accepted <- conn
	}
}

func (d *Device) accept(v *vm.VM) vm.Status {
	if !v.DSHas(1) {
		return v.Fault(vm.FaultDSUnderflow)
	}
	handle := v.Pop()
	if !v.DSFree(1) {
		return v.Fault(vm.FaultDSOverflow)
	}

	d.mu.Lock()
	l, ok := d.listeners[handle]
	d.mu.Unlock()
	if !ok {
		return v.Fault(vm.FaultIODeviceError)
	}

	select {
	case conn, ok := <-l.accepted:
		if !ok {
			v.Push(-1)
			return vm.StatusOK
		}
		id := d.allot()
		d.mu.Lock()
		d.conns[id] = &connection{conn: conn, reader: bufio.NewReader(conn)}
		d.mu.Unlock()
		v.Push(id)
	default:
		v.Push(-1)
	}
	return vm.StatusOK
}

// readLine blocks the calling Step until a full line or EOF arrives. A
// program wanting non-blocking polling should only call read-line after an
// out-of-band readiness signal; Arkam's bus has no such signal today, so
// this op is synchronous by design, same as the teacher's per-connection
// handler reads one record at a time off its own goroutine.
func (d *Device) readLine(v *vm.VM) vm.Status {
	if !v.DSHas(3) {
		return v.Fault(vm.FaultDSUnderflow)
	}
	handle := v.Pop()
	maxLen := v.Pop()
	addr := v.Pop()
	if !v.DSFree(1) {
		return v.Fault(vm.FaultDSOverflow)
	}

	d.mu.Lock()
	c, ok := d.conns[handle]
	d.mu.Unlock()
	if !ok {
		return v.Fault(vm.FaultIODeviceError)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		v.Push(-1)
		return vm.StatusOK
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	if vm.Cell(len(line)) > maxLen {
		line = line[:maxLen]
	}

	for i := 0; i < len(line); i++ {
		if !v.Mem.StoreByte(addr+vm.Cell(i), vm.Cell(line[i])) {
			return v.Fault(vm.FaultInvalidAddr)
		}
	}
	v.Push(vm.Cell(len(line)))
	return vm.StatusOK
}

func (d *Device) writeLine(v *vm.VM) vm.Status {
	if !v.DSHas(3) {
		return v.Fault(vm.FaultDSUnderflow)
	}
	handle := v.Pop()
	length := v.Pop()
	addr := v.Pop()
	if !v.DSFree(1) {
		return v.Fault(vm.FaultDSOverflow)
	}

	d.mu.Lock()
	c, ok := d.conns[handle]
	d.mu.Unlock()
	if !ok {
		return v.Fault(vm.FaultIODeviceError)
	}

	data := make([]byte, length)
	for i := vm.Cell(0); i < length; i++ {
		b, ok := v.Mem.LoadByte(addr + i)
		if !ok {
			return v.Fault(vm.FaultInvalidAddr)
		}
		data[i] = b
	}
	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		v.Push(0)
		return vm.StatusOK
	}
	v.Push(-1)
	return vm.StatusOK
}

func (d *Device) close(v *vm.VM) vm.Status {
	if !v.DSHas(1) {
		return v.Fault(vm.FaultDSUnderflow)
	}
	handle := v.Pop()

	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.conns[handle]; ok {
		c.conn.Close()
		delete(d.conns, handle)
		return vm.StatusOK
	}
	if l, ok := d.listeners[handle]; ok {
		l.ln.Close()
		delete(d.listeners, handle)
		return vm.StatusOK
	}
	return v.Fault(vm.FaultIODeviceError)
}

func portString(port vm.Cell) string {
	buf := make([]byte, 0, 6)
	if port == 0 {
		return "0"
	}
	n := uint32(port)
	var digits [10]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	buf = append(buf, digits[i:]...)
	return string(buf)
}
