package symbols

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qvmdis/internal/analysis"
)

const sampleMap = `0 0 vmMain
0 1f CG_Init
0 fffffffe trap_Print
0 200 _stackStart
0 300 _stackEnd
1 4 cg_version
2 10 helloStr
3 40 cg_entities
garbage line
0 zz broken
`

func TestParseMap(t *testing.T) {
	entries, err := ParseMap(strings.NewReader(sampleMap))
	require.NoError(t, err)
	require.Len(t, entries, 8)
	assert.Equal(t, MapEntry{Segment: SegCode, Addr: 0xfffffffe, Name: "trap_Print"}, entries[2])

	tab := New()
	tab.AddMap(entries)

	name, ok := tab.Function(0x1f)
	assert.True(t, ok)
	assert.Equal(t, "CG_Init", name)

	name, ok = tab.Syscall(-2)
	assert.True(t, ok)
	assert.Equal(t, "trap_Print", name)

	for _, addr := range []int32{0x200, 0x300} {
		_, ok = tab.Function(addr)
		assert.False(t, ok, "stack markers are not functions")
	}

	for addr, want := range map[int32]string{4: "cg_version", 0x10: "helloStr", 0x40: "cg_entities"} {
		name, ok = tab.Data(addr)
		assert.True(t, ok)
		assert.Equal(t, want, name)
	}
	assert.Equal(t, 6, tab.Len())
	assert.Equal(t, []NamedFunc{{0, "vmMain"}, {0x1f, "CG_Init"}}, tab.SortedFunctions())
}

func TestFunctionsFromMap(t *testing.T) {
	entries, err := ParseMap(strings.NewReader(sampleMap))
	require.NoError(t, err)

	tab := FunctionsFromMap(entries)
	assert.Len(t, tab.FuncNames, 2)
	assert.Empty(t, tab.DataNames)
	assert.Empty(t, tab.SyscallNames)
}

func TestParseSyscalls(t *testing.T) {
	src := `code

equ	trap_Print		-1
equ	trap_Error		-2
equ trap_Milliseconds	-0x3
equ bogus 5
proc foo 0 0
`
	tab := New()
	require.NoError(t, tab.ParseSyscalls(strings.NewReader(src)))
	assert.Len(t, tab.SyscallNames, 3)

	name, ok := tab.Syscall(-3)
	assert.True(t, ok)
	assert.Equal(t, "trap_Milliseconds", name)
}

func TestHashMap(t *testing.T) {
	hashes := []analysis.FuncHash{
		{Entry: 0, Hash: "aaaa"},
		{Entry: 7, Hash: "bbbb"},
		{Entry: 9, Hash: "cccc"},
		{Entry: 12, Hash: "dddd"},
	}

	named := New()
	named.FuncNames[0] = "vmMain"
	named.FuncNames[7] = "CG_Init"
	named.FuncNames[99] = "not_in_image"
	hm := BuildHashMap(named, hashes)
	assert.Equal(t, []HashEntry{
		{Entry: 0, Name: "vmMain", Hash: "aaaa"},
		{Entry: 7, Name: "CG_Init", Hash: "bbbb"},
	}, hm)

	db, err := ParseHashMap(strings.NewReader("0x0 vmMain aaaa\n0x7 CG_Init bbbb\n0x1 dup_a cccc\n0x2 dup_b cccc\nbad\n"))
	require.NoError(t, err)
	require.Len(t, db, 4)

	tab := New()
	tab.FuncNames[0] = "keep_me"
	added := tab.ApplyHashMap(db, hashes)
	assert.Equal(t, 1, added)
	assert.Equal(t, "keep_me", tab.FuncNames[0])
	assert.Equal(t, "CG_Init", tab.FuncNames[7])
	_, ok := tab.Function(9)
	assert.False(t, ok, "ambiguous hash")
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "cgame.map")
	require.NoError(t, os.WriteFile(mapPath, []byte(sampleMap), 0o644))
	hmapPath := filepath.Join(dir, "cgame.hmap")
	require.NoError(t, os.WriteFile(hmapPath, []byte("0x3 CG_Shutdown eeee\n"), 0o644))

	tab := New()
	require.NoError(t, tab.LoadMap(mapPath))
	assert.Len(t, tab.FuncNames, 2)

	added, err := tab.LoadHashMap(hmapPath, []analysis.FuncHash{{Entry: 40, Hash: "eeee"}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, "CG_Shutdown", tab.FuncNames[40])

	assert.Error(t, tab.LoadSyscalls(filepath.Join(dir, "missing.asm")))
}
