// Package symbols loads the optional name sources used to annotate a disassembly:
// q3asm linker maps, syscall equ tables and function hash maps.
package symbols

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// Table maps addresses to names. It satisfies analysis.Names.
type Table struct {
	FuncNames    map[int32]string // enter ordinal -> name
	DataNames    map[int32]string // data/lit/bss address -> name
	SyscallNames map[int32]string // negative call target -> name
}

// New returns an empty table.
func New() *Table {
	return &Table{
		FuncNames:    make(map[int32]string),
		DataNames:    make(map[int32]string),
		SyscallNames: make(map[int32]string),
	}
}

func (t *Table) Function(ordinal int32) (string, bool) {
	n, ok := t.FuncNames[ordinal]
	return n, ok
}

func (t *Table) Syscall(id int32) (string, bool) {
	n, ok := t.SyscallNames[id]
	return n, ok
}

func (t *Table) Data(addr int32) (string, bool) {
	n, ok := t.DataNames[addr]
	return n, ok
}

// Len is the total number of names.
func (t *Table) Len() int {
	return len(t.FuncNames) + len(t.DataNames) + len(t.SyscallNames)
}

// NamedFunc is a function name with its enter ordinal.
type NamedFunc struct {
	Entry int32
	Name  string
}

// SortedFunctions lists the function names in ordinal order.
func (t *Table) SortedFunctions() []NamedFunc {
	out := make([]NamedFunc, 0, len(t.FuncNames))
	for e, n := range t.FuncNames {
		out = append(out, NamedFunc{Entry: e, Name: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entry < out[j].Entry })
	return out
}

// displayName normalises a name read from a symbol file.
func displayName(raw string) string {
	if d := demangle.Filter(raw, demangle.NoClones); d != "" {
		return d
	}
	return raw
}

// scanLines calls fn with the fields of every non-blank line. fn returns an error
// describing why a line was skipped; skipped lines are logged at debug level.
func scanLines(r io.Reader, source string, fn func(fields []string) error) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if err := fn(fields); err != nil {
			slog.Debug("skipping line", "source", source, "line", lineNo, "reason", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}
	return nil
}

func loadFile(path string, load func(r io.Reader, source string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open symbol file: %w", err)
	}
	defer f.Close()
	return load(f, path)
}
