package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qvmdis/internal/qvm"
)

// writeSample writes a small image with one function that prints "hello" through
// syscall -1 and returns the path.
func writeSample(t *testing.T) string {
	t.Helper()
	im := &qvm.Image{
		Header: qvm.Header{InstructionCount: 6, BSSLength: 8},
		Code: []byte{
			0x03, 0x08, 0x00, 0x00, 0x00, // enter 8
			0x08, 0x04, 0x00, 0x00, 0x00, // const 4 -> "hello"
			0x21, 0x08, // arg 8
			0x08, 0xff, 0xff, 0xff, 0xff, // const -1
			0x05,                         // call
			0x04, 0x08, 0x00, 0x00, 0x00, // leave 8
		},
		Data: []byte{0x2a, 0x00, 0x00, 0x00},
		Lit:  []byte("hello\x00"),
	}
	raw, err := im.MarshalBinary()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sample.qvm")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenSession(t *testing.T) {
	path := writeSample(t)
	dir := t.TempDir()
	opts := options{
		mapFile:     writeFile(t, dir, "sample.map", "0 0 vmMain\n1 0 answer\n"),
		syscallFile: writeFile(t, dir, "syscalls.asm", "equ trap_Print -1\n"),
		strict:      true,
	}

	s, err := openSession(path, opts)
	require.NoError(t, err)
	assert.Len(t, s.code, 6)
	require.Len(t, s.hashes, 1)
	assert.Len(t, s.functionListing(s.hashes[0]), 6)

	var buf bytes.Buffer
	require.NoError(t, runListing(&buf, s, modes{code: true}, false))
	out := buf.String()
	assert.Contains(t, out, "vmMain ()\n")
	assert.Contains(t, out, "  \"hello\"\n")
	assert.Contains(t, out, "// trap_Print ()")
	assert.NotContains(t, out, "/* Data Segment */")
}

func TestOpenSessionErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := openSession(writeFile(t, dir, "bad.qvm", strings.Repeat("\x00", 40)), options{})
	assert.ErrorIs(t, err, qvm.ErrInvalidFormat)

	path := writeSample(t)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(raw, 0), 0o644))
	_, err = openSession(path, options{strict: true})
	assert.ErrorIs(t, err, qvm.ErrInvalidFormat, "trailing byte fails strict layout check")
	_, err = openSession(path, options{})
	assert.NoError(t, err)

	_, err = openSession(writeSample(t), options{mapFile: filepath.Join(dir, "missing.map")})
	assert.Error(t, err)
}

func TestRunListingAllModes(t *testing.T) {
	s, err := openSession(writeSample(t), options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, runListing(&buf, s, modes{header: true, code: true, data: true, lit: true, funcHash: true}, false))
	out := buf.String()

	order := []string{"instruction count: 0x6", "/* Code Segment */", "/* Data Segment */", "/* Lit Segment */", "00000000 00000000 "}
	last := -1
	for _, marker := range order {
		i := strings.Index(out, marker)
		require.GreaterOrEqual(t, i, 0, marker)
		assert.Greater(t, i, last, marker)
		last = i
	}
	assert.Contains(t, out, "0x00000004  \"hello\"")
}

func TestRootCommand(t *testing.T) {
	path := writeSample(t)
	envBefore, hadEnv := os.LookupEnv("QVMDIS_NO_COLOR")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--no-color", "--func-hash", path})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "00000000 00000000 "))
	assert.NotContains(t, out.String(), "\x1b[")

	envAfter, hasEnv := os.LookupEnv("QVMDIS_NO_COLOR")
	assert.Equal(t, hadEnv, hasEnv, "--no-color stays local to the command")
	assert.Equal(t, envBefore, envAfter)
}

func TestResolveOptionsNoColor(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{"--no-color"}))
	opts, err := resolveOptions(rootCmd)
	require.NoError(t, err)
	assert.False(t, opts.color)
}

func TestInfoMarkdown(t *testing.T) {
	path := writeSample(t)
	s, err := openSession(path, options{})
	require.NoError(t, err)

	md := infoMarkdown(path, s)
	assert.Contains(t, md, "# sample.qvm")
	assert.Contains(t, md, "| code | 0x00000020 | 23 |")
	assert.Contains(t, md, "1 functions, 0 named")
	assert.Contains(t, md, "1 string, 0 data and 1 call constants")
}
