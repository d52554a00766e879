package symbols

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Map segments as written by q3asm.
const (
	SegCode = 0
	SegData = 1
	SegLit  = 2
	SegBSS  = 3
)

// maxFunctionAddr separates in-image functions from the syscall entries q3asm writes
// into the code segment with negative (wrapped) addresses.
const maxFunctionAddr = 0x7fffffff

var stackSymbols = map[string]bool{"_stackStart": true, "_stackEnd": true}

// MapEntry is one line of a linker map.
type MapEntry struct {
	Segment int
	Addr    uint32
	Name    string
}

// ParseMap reads `<segment> <hex-address> <name>` lines.
func ParseMap(r io.Reader) ([]MapEntry, error) {
	var entries []MapEntry
	err := scanLines(r, "map", func(f []string) error {
		if len(f) < 3 {
			return errors.New("incomplete line")
		}
		seg, err := strconv.Atoi(f[0])
		if err != nil {
			return fmt.Errorf("segment: %w", err)
		}
		addr, err := strconv.ParseUint(f[1], 16, 32)
		if err != nil {
			return fmt.Errorf("address: %w", err)
		}
		entries = append(entries, MapEntry{Segment: seg, Addr: uint32(addr), Name: f[2]})
		return nil
	})
	return entries, err
}

// AddMap merges map entries into the table. Code entries below 0x7fffffff other than
// the stack markers become function names; wrapped code entries become syscall names;
// entries of the other segments become data names.
func (t *Table) AddMap(entries []MapEntry) {
	for _, e := range entries {
		name := displayName(e.Name)
		switch {
		case e.Segment != SegCode:
			t.DataNames[int32(e.Addr)] = name
		case stackSymbols[e.Name]:
		case e.Addr < maxFunctionAddr:
			t.FuncNames[int32(e.Addr)] = name
		default:
			t.SyscallNames[int32(e.Addr)] = name
		}
	}
}

// FunctionsFromMap returns only the function names of a map, as the hash-map converter
// needs them.
func FunctionsFromMap(entries []MapEntry) *Table {
	t := New()
	for _, e := range entries {
		if e.Segment == SegCode && e.Addr < maxFunctionAddr && !stackSymbols[e.Name] {
			t.FuncNames[int32(e.Addr)] = displayName(e.Name)
		}
	}
	return t
}

// LoadMap parses the map file at path into the table.
func (t *Table) LoadMap(path string) error {
	return loadFile(path, func(r io.Reader, _ string) error {
		entries, err := ParseMap(r)
		if err != nil {
			return err
		}
		t.AddMap(entries)
		return nil
	})
}
