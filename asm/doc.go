// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package asm implements the two-pass assembler for the AVR simulator.
//
// The lexer groups the source into token lines. The assembler then builds
// the data segment, pre-scans the text segment for code labels, and emits
// fully resolved instruction records with every operand range checked.
//
// Compile-time $(...) expressions are evaluated with Starlark, with the
// data symbols, code labels and .def aliases predeclared as integers.
package asm
