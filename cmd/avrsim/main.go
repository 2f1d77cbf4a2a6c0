// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/ezrec/avrsim/emulator"
	"github.com/ezrec/avrsim/translate"
)

var f = translate.From

var ErrStepLimit = errors.New(f("step limit reached"))

// promptFile asks for a source file name on an interactive terminal.
func promptFile() (file string, err error) {
	rl, err := readline.New("file: ")
	if err != nil {
		return
	}
	defer rl.Close()

	for len(file) == 0 {
		var line string
		line, err = rl.Readline()
		if err != nil {
			return
		}
		file = strings.TrimSpace(line)
	}
	return
}

// runSteps runs until halted, or until the step limit if positive.
func runSteps(emu *emulator.Emulator, steps int) (err error) {
	if steps <= 0 {
		_, err = emu.Run(context.Background())
		return
	}

	defer emu.Console.Flush()
	for range steps {
		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}

	err = ErrStepLimit
	return
}

func main() {
	var verbose bool
	var run bool
	var steps int
	var color bool

	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&run, "run", false, "Run to completion, printing the console output")
	flag.IntVar(&steps, "steps", 0, "Maximum instructions for -run, 0 for no limit")
	flag.BoolVar(&color, "color", term.IsTerminal(int(os.Stdout.Fd())), "Highlight changed registers")

	flag.Parse()

	if flag.NArg() > 1 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args()[1:])
	}

	file := flag.Arg(0)
	if len(file) == 0 {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			flag.Usage()
			os.Exit(2)
		}
		var err error
		file, err = promptFile()
		if err != nil {
			log.Fatalf("%v: %v", os.Args[0], err)
		}
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Console.Output = os.Stdout

	err := emu.LoadFile(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if run {
		err = runSteps(emu, steps)
		if err != nil {
			log.Fatalf("%v: %v", file, err)
		}
		return
	}

	sh, err := NewShell(emu, color)
	if err != nil {
		log.Fatalf("%v: %v", file, err)
	}
	defer sh.Close()

	err = sh.Run()
	if err != nil {
		log.Fatalf("%v: %v", file, err)
	}
}
