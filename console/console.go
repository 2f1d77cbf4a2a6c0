// Package console collects the text printed by a simulated program.
package console

import (
	"bytes"
	"io"
	"strings"
)

// Console is the in-memory log of program output, with an optional copy
// written line by line to an io.Writer.
type Console struct {
	Output io.Writer // If set, receives the console text.

	text    strings.Builder
	pending []byte // Output not yet sent to Output.
}

// Write appends text to the console, sending every complete line to Output.
func (con *Console) Write(text string) (err error) {
	con.text.WriteString(text)

	if con.Output == nil {
		return
	}

	con.pending = append(con.pending, text...)
	end := bytes.LastIndexByte(con.pending, '\n')
	if end < 0 {
		return
	}

	_, err = con.Output.Write(con.pending[:end+1])
	con.pending = append(con.pending[:0], con.pending[end+1:]...)
	return
}

// Flush sends any partial line to Output.
func (con *Console) Flush() (err error) {
	if con.Output == nil || len(con.pending) == 0 {
		return
	}

	_, err = con.Output.Write(con.pending)
	con.pending = con.pending[:0]
	return
}

// String returns all of the text written since the last Reset.
func (con *Console) String() string {
	return con.text.String()
}

// Reset clears the console log, discarding unsent output.
func (con *Console) Reset() {
	con.text.Reset()
	con.pending = con.pending[:0]
}
