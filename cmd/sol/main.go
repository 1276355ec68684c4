/*
 * Arkam - sol compiler CLI.
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

// Command sol compiles one or more sol source files into an Arkam image,
// the way the teacher's top-level main.go drives a run from flags: getopt
// for argument parsing, slog through util/logger for diagnostics.
package main

import (
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/arkam/sol"
	"github.com/rcornwell/arkam/util/logger"
	"github.com/rcornwell/arkam/vm"
)

// stringList collects repeated -L/--libpath occurrences into an ordered
// slice; getopt/v2 calls Set once per occurrence on the command line.
type stringList struct {
	values *[]string
}

func (s stringList) String() string { return "" }

func (s stringList) Set(value string, _ getopt.Option) error {
	*s.values = append(*s.values, value)
	return nil
}

func osFileReader() sol.FileReader { return fileReader{} }

type fileReader struct{}

func (fileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func main() {
	var libPath []string

	optNoCoreLib := getopt.BoolLong("no-corelib", 'n', "Skip the bundled core library")
	getopt.FlagLong(stringList{&libPath}, "libpath", 'L', "Directory to search for include:/datafile: paths")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelWarn)
	debug := false
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel}, &debug)))

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) < 2 {
		getopt.Usage()
		os.Exit(1)
	}
	sources, image := args[:len(args)-1], args[len(args)-1]

	v := vm.New(65536, 4096, 1024)
	c := sol.NewCompiler(v, osFileReader(), libPath)

	if !*optNoCoreLib {
		if err := c.CompileCoreLib(); err != nil {
			slog.Error("compiling core library: " + err.Error())
			os.Exit(1)
		}
	}

	for _, src := range sources {
		if err := c.CompileFile(src); err != nil {
			slog.Error(src + ": " + err.Error())
			os.Exit(1)
		}
	}

	if err := c.Finalize(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	out, err := os.Create(image)
	if err != nil {
		slog.Error("creating image: " + err.Error())
		os.Exit(1)
	}
	defer out.Close()

	if err := v.WriteCode(out, v.Here()); err != nil {
		slog.Error("writing image: " + err.Error())
		os.Exit(1)
	}
}
