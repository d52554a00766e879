package symbols

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ParseSyscalls reads `equ <name> <id>` lines from a q3asm syscall table such as
// cg_syscalls.asm. Other lines are ignored.
func (t *Table) ParseSyscalls(r io.Reader) error {
	return scanLines(r, "syscalls", func(f []string) error {
		if f[0] != "equ" {
			return errors.New("not an equ line")
		}
		if len(f) < 3 {
			return errors.New("incomplete equ")
		}
		id, err := strconv.ParseInt(f[2], 0, 32)
		if err != nil {
			return fmt.Errorf("id: %w", err)
		}
		if id >= 0 {
			return fmt.Errorf("id %d is not negative", id)
		}
		t.SyscallNames[int32(id)] = displayName(f[1])
		return nil
	})
}

// LoadSyscalls parses the syscall table at path into the table.
func (t *Table) LoadSyscalls(path string) error {
	return loadFile(path, func(r io.Reader, _ string) error { return t.ParseSyscalls(r) })
}
