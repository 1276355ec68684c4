/*
 * Arkam - arkam runner CLI.
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

// Command arkam loads and runs a compiled image, the way the teacher's
// top-level main.go loads a configuration and drives a run: getopt for
// flags, slog through util/logger for diagnostics, a clean SIGINT/SIGTERM
// shutdown for the --debug monitor's liner prompt.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/arkam/socket"
	"github.com/rcornwell/arkam/util/logger"
	"github.com/rcornwell/arkam/vm"
	"github.com/rcornwell/arkam/vm/monitor"
)

func main() {
	optMem := getopt.IntLong("mem", 0, 65536, "Heap size in cells")
	optDS := getopt.IntLong("ds", 0, 4096, "Data stack size in cells")
	optRS := getopt.IntLong("rs", 0, 1024, "Return stack size in cells")
	optDebug := getopt.BoolLong("debug", 'd', "Start in the interactive monitor")
	optLog := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if *optLog != "" {
		f, err := os.Create(*optLog)
		if err != nil {
			slog.Error("creating log file: " + err.Error())
			os.Exit(1)
		}
		logFile = f
		defer logFile.Close()
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelWarn)
	var out *os.File = logFile
	if out == nil {
		out = os.Stderr
	}
	slog.SetDefault(slog.New(logger.NewHandler(out, &slog.HandlerOptions{Level: programLevel}, optDebug)))

	args := getopt.Args()
	if len(args) != 1 {
		getopt.Usage()
		os.Exit(1)
	}

	f, err := os.Open(args[0])
	if err != nil {
		slog.Error("opening image: " + err.Error())
		os.Exit(1)
	}
	defer f.Close()

	v := vm.New(*optMem, *optDS, *optRS)
	if err := vm.LoadImage(v, f); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	v.RegisterDevice(vm.DevSOCKET, socket.New())
	v.SetIP(v.Entry())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Warn("interrupted")
		os.Exit(130)
	}()

	var status vm.Status
	if *optDebug {
		status = monitor.Run(v)
	} else {
		status = v.Run()
	}

	if status == vm.StatusErr {
		slog.Error(v.Err().String())
		os.Exit(1)
	}

	code, _ := v.Mem.Load(v.SP() + vm.CellSize)
	if code < 0 {
		code = 0
	}
	if code > 255 {
		code = 255
	}
	os.Exit(int(code))
}
