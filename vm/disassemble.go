package vm

import (
	"fmt"
	"io"
)

// Disassemble writes one line per instruction, prefixed with its index
func Disassemble(w io.Writer, p Program) error {
	for i, inst := range p {
		_, err := fmt.Fprintln(w, DisassembleAt(p, i))
		if err != nil {
			return fmt.Errorf("disassemble %d (%s): %w", i, inst, err)
		}
	}
	return nil
}

func DisassembleAt(p Program, i int) string {
	if i < 0 || i >= len(p) {
		return fmt.Sprintf("%04d  <end>", i)
	}
	if p[i] == nil {
		return fmt.Sprintf("%04d  <nil>", i)
	}
	return fmt.Sprintf("%04d  %s", i, p[i])
}
