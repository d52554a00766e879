package symbols

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"qvmdis/internal/analysis"
)

// HashEntry is one line of a function hash map.
type HashEntry struct {
	Entry int32
	Name  string
	Hash  string
}

// ParseHashMap reads `0x<ordinal> <name> <hash>` lines.
func ParseHashMap(r io.Reader) ([]HashEntry, error) {
	var out []HashEntry
	err := scanLines(r, "hmap", func(f []string) error {
		if len(f) < 3 {
			return errors.New("incomplete line")
		}
		entry, err := strconv.ParseInt(f[0], 0, 32)
		if err != nil {
			return fmt.Errorf("ordinal: %w", err)
		}
		out = append(out, HashEntry{Entry: int32(entry), Name: f[1], Hash: f[2]})
		return nil
	})
	return out, err
}

// BuildHashMap pairs every named function with its hash. Functions without a
// computed hash are left out.
func BuildHashMap(named *Table, hashes []analysis.FuncHash) []HashEntry {
	byEntry := make(map[int32]string, len(hashes))
	for _, h := range hashes {
		byEntry[int32(h.Entry)] = h.Hash
	}
	var out []HashEntry
	for _, f := range named.SortedFunctions() {
		h, ok := byEntry[f.Entry]
		if !ok {
			continue
		}
		out = append(out, HashEntry{Entry: f.Entry, Name: f.Name, Hash: h})
	}
	return out
}

// ApplyHashMap names the functions of the current image whose hash appears in db.
// Hashes that map to more than one name are ambiguous and skipped, and functions
// that already have a name keep it. It returns how many names were added.
func (t *Table) ApplyHashMap(db []HashEntry, hashes []analysis.FuncHash) int {
	names := make(map[string]string, len(db))
	ambiguous := make(map[string]bool)
	for _, e := range db {
		if prev, ok := names[e.Hash]; ok && prev != e.Name {
			ambiguous[e.Hash] = true
		}
		names[e.Hash] = e.Name
	}
	added := 0
	for _, h := range hashes {
		name, ok := names[h.Hash]
		if !ok || ambiguous[h.Hash] {
			continue
		}
		if _, named := t.FuncNames[int32(h.Entry)]; named {
			continue
		}
		t.FuncNames[int32(h.Entry)] = displayName(name)
		added++
	}
	return added
}

// LoadHashMap reads the hash map at path and applies it against hashes.
func (t *Table) LoadHashMap(path string, hashes []analysis.FuncHash) (int, error) {
	var added int
	err := loadFile(path, func(r io.Reader, _ string) error {
		db, err := ParseHashMap(r)
		if err != nil {
			return err
		}
		added = t.ApplyHashMap(db, hashes)
		return nil
	})
	return added, err
}
