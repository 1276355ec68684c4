/*
 * Arkam - SOCKET device tests.
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

package socket

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/rcornwell/arkam/vm"
)

func newVM() *vm.VM {
	v := vm.New(4096, 256, 256)
	return v
}

func dsPush(v *vm.VM, vals ...vm.Cell) {
	for _, val := range vals {
		v.Push(val)
	}
}

func dsTop(v *vm.VM) vm.Cell {
	return v.Pop()
}

func TestOpenListenerAndAccept(t *testing.T) {
	v := newVM()
	d := New()
	v.RegisterDevice(vm.DevSOCKET, d)

	dsPush(v, 0) // port 0: let the OS choose one
	if status := d.Handle(v, opOpenListener); status != vm.StatusOK {
		t.Fatalf("open-listener status got: %v", status)
	}
	handle := dsTop(v)
	if handle < 0 {
		t.Fatalf("open-listener returned -1")
	}

	d.mu.Lock()
	addr := d.listeners[handle].ln.Addr().(*net.TCPAddr)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
		if err != nil {
			t.Errorf("dial: %v", err)
			close(done)
			return
		}
		defer conn.Close()
		conn.Write([]byte("hello\n"))
		reply, _ := bufio.NewReader(conn).ReadString('\n')
		if reply != "echo: hello\n" {
			t.Errorf("reply got: %q expected: %q", reply, "echo: hello\n")
		}
		close(done)
	}()

	dsPush(v, handle)
	var connHandle vm.Cell = -1
	deadline := time.Now().Add(time.Second)
	for connHandle < 0 && time.Now().Before(deadline) {
		if status := d.Handle(v, opAccept); status != vm.StatusOK {
			t.Fatalf("accept status got: %v", status)
		}
		connHandle = dsTop(v)
		if connHandle < 0 {
			dsPush(v, handle)
			time.Sleep(time.Millisecond)
		}
	}
	if connHandle < 0 {
		t.Fatalf("accept never produced a connection")
	}

	bufAddr := vm.HeaderFirstCode

	dsPush(v, bufAddr, 64, connHandle)
	if status := d.Handle(v, opReadLine); status != vm.StatusOK {
		t.Fatalf("read-line status got: %v", status)
	}
	n := dsTop(v)
	if n < 0 {
		t.Fatalf("read-line returned -1")
	}
	line := make([]byte, n)
	for i := vm.Cell(0); i < n; i++ {
		b, _ := v.Mem.LoadByte(bufAddr + i)
		line[i] = b
	}
	if string(line) != "hello" {
		t.Fatalf("read-line got: %q expected: %q", line, "hello")
	}

	reply := []byte("echo: hello")
	for i, b := range reply {
		v.Mem.StoreByte(bufAddr+vm.Cell(i), vm.Cell(b))
	}
	dsPush(v, bufAddr, vm.Cell(len(reply)), connHandle)
	if status := d.Handle(v, opWriteLine); status != vm.StatusOK {
		t.Fatalf("write-line status got: %v", status)
	}
	if ok := dsTop(v); ok != -1 {
		t.Fatalf("write-line ok got: %d expected: -1", ok)
	}

	<-done

	dsPush(v, connHandle)
	if status := d.Handle(v, opClose); status != vm.StatusOK {
		t.Fatalf("close conn status got: %v", status)
	}
	dsPush(v, handle)
	if status := d.Handle(v, opClose); status != vm.StatusOK {
		t.Fatalf("close listener status got: %v", status)
	}
}

func TestCloseUnknownHandleFaults(t *testing.T) {
	v := newVM()
	d := New()
	dsPush(v, 999)
	status := d.Handle(v, opClose)
	if status != vm.StatusErr || v.Err() != vm.FaultIODeviceError {
		t.Fatalf("close unknown handle got: status=%v fault=%v", status, v.Err())
	}
}
