// Package qvm reads and writes the Q3VM bytecode container: a fixed header followed by
// the code, data and literal segments.
package qvm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// Magic identifies a Q3VM image.
const Magic int32 = 0x12721444

// HeaderSize is the size in bytes of the eight little-endian header fields.
const HeaderSize = 8 * 4

// Header is the fixed container header. All fields are signed 32-bit on disk.
type Header struct {
	Magic            int32
	InstructionCount int32
	CodeOffset       int32
	CodeLength       int32
	DataOffset       int32
	DataLength       int32
	LitLength        int32
	BSSLength        int32
}

// LitOffset is the file offset of the literal segment, which directly follows data.
func (h Header) LitOffset() int32 { return h.DataOffset + h.DataLength }

// BSSOffset is where the zero-filled segment would start if it were stored.
func (h Header) BSSOffset() int32 { return h.LitOffset() + h.LitLength }

func (h Header) fields() []int32 {
	return []int32{h.Magic, h.InstructionCount, h.CodeOffset, h.CodeLength,
		h.DataOffset, h.DataLength, h.LitLength, h.BSSLength}
}

func decodeHeader(b []byte) Header {
	le := binary.LittleEndian
	at := func(i int) int32 { return int32(le.Uint32(b[i*4:])) }
	return Header{
		Magic:            at(0),
		InstructionCount: at(1),
		CodeOffset:       at(2),
		CodeLength:       at(3),
		DataOffset:       at(4),
		DataLength:       at(5),
		LitLength:        at(6),
		BSSLength:        at(7),
	}
}

func (h Header) check() error {
	if h.Magic != Magic {
		return invalidf("bad magic 0x%08x, want 0x%08x", uint32(h.Magic), uint32(Magic))
	}
	named := []struct {
		name string
		v    int32
	}{
		{"instruction count", h.InstructionCount},
		{"code offset", h.CodeOffset},
		{"code length", h.CodeLength},
		{"data offset", h.DataOffset},
		{"data length", h.DataLength},
		{"lit length", h.LitLength},
		{"bss length", h.BSSLength},
	}
	for _, f := range named {
		if f.v < 0 {
			return invalidf("negative %s %d", f.name, f.v)
		}
	}
	if int64(h.DataOffset)+int64(h.DataLength)+int64(h.LitLength) > 1<<31-1 {
		return invalidf("data and lit segments overflow the address space")
	}
	return nil
}

// Image is a parsed container. Segment buffers are owned by the image and never modified.
type Image struct {
	Path   string
	Header Header
	Code   []byte
	Data   []byte
	Lit    []byte

	// Size and CRC32 describe the file the image was read from; they are zero when the
	// image was parsed from a bare reader.
	Size  int64
	CRC32 uint32
}

// sizer is implemented by readers that know their length, such as *bytes.Reader
// and *io.SectionReader.
type sizer interface {
	Size() int64
}

// Parse reads the header and the code, data and literal segments from r.
// Nothing past the header is read when the magic number does not match. When r
// reports its size, segments that end past it are rejected before any buffer is
// allocated for them.
func Parse(r io.ReaderAt) (*Image, error) {
	var hb [HeaderSize]byte
	if n, err := r.ReadAt(hb[:], 0); n < HeaderSize {
		return nil, invalidf("truncated header (%d bytes): %v", n, err)
	}
	h := decodeHeader(hb[:])
	if err := h.check(); err != nil {
		return nil, err
	}

	if sz, ok := r.(sizer); ok {
		if err := h.fits(sz.Size()); err != nil {
			return nil, err
		}
	}

	im := &Image{Header: h}
	var err error
	if im.Code, err = readSegment(r, "code", h.CodeOffset, h.CodeLength); err != nil {
		return nil, err
	}
	if im.Data, err = readSegment(r, "data", h.DataOffset, h.DataLength); err != nil {
		return nil, err
	}
	if im.Lit, err = readSegment(r, "lit", h.LitOffset(), h.LitLength); err != nil {
		return nil, err
	}
	return im, nil
}

// fits checks that every stored segment ends within size bytes.
func (h Header) fits(size int64) error {
	segs := []struct {
		name        string
		off, length int32
	}{
		{"code", h.CodeOffset, h.CodeLength},
		{"data", h.DataOffset, h.DataLength},
		{"lit", h.LitOffset(), h.LitLength},
	}
	for _, s := range segs {
		if s.length > 0 && int64(s.off)+int64(s.length) > size {
			return invalidf("truncated %s segment: want %d bytes at 0x%x, file has %d", s.name, s.length, s.off, size)
		}
	}
	return nil
}

func readSegment(r io.ReaderAt, name string, off, length int32) ([]byte, error) {
	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}
	n, err := r.ReadAt(buf, int64(off))
	if n < len(buf) {
		return nil, invalidf("truncated %s segment: want %d bytes at 0x%x, got %d: %v", name, length, off, n, err)
	}
	return buf, nil
}

// Open reads the image at path.
func Open(path string) (*Image, error) {
	all, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	im, err := Parse(bytes.NewReader(all))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	im.Path = path
	im.Size = int64(len(all))
	im.CRC32 = crc32.ChecksumIEEE(all)
	return im, nil
}

// Validate applies the engine loader's layout checks against the size of the file the
// image came from: code inside the file, data directly after code, and data plus literals
// ending exactly at end of file.
func (im *Image) Validate(fileSize int64) error {
	h := im.Header
	code := int64(h.CodeOffset)
	switch {
	case code >= fileSize:
		return invalidf("bad code segment offset %d", h.CodeOffset)
	case h.CodeLength <= 0 || code+int64(h.CodeLength) > fileSize:
		return invalidf("bad code segment length %d", h.CodeLength)
	case int64(h.DataOffset) >= fileSize || h.DataOffset != h.CodeOffset+h.CodeLength:
		return invalidf("bad data segment offset %d", h.DataOffset)
	case int64(h.DataOffset)+int64(h.DataLength) > fileSize:
		return invalidf("bad data segment length %d", h.DataLength)
	case int64(h.BSSOffset()) != fileSize:
		return invalidf("bad lit segment length %d", h.LitLength)
	}
	return nil
}

// MarshalBinary writes the image as a container with code placed directly after the
// header and data directly after code. Lengths are taken from the segment buffers;
// instruction count and BSS length are kept from the header.
func (im *Image) MarshalBinary() ([]byte, error) {
	h := Header{
		Magic:            Magic,
		InstructionCount: im.Header.InstructionCount,
		CodeOffset:       HeaderSize,
		CodeLength:       int32(len(im.Code)),
		DataLength:       int32(len(im.Data)),
		LitLength:        int32(len(im.Lit)),
		BSSLength:        im.Header.BSSLength,
	}
	h.DataOffset = h.CodeOffset + h.CodeLength

	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(im.Code) + len(im.Data) + len(im.Lit))
	if err := binary.Write(&buf, binary.LittleEndian, h.fields()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	buf.Write(im.Code)
	buf.Write(im.Data)
	buf.Write(im.Lit)
	return buf.Bytes(), nil
}

// DataWord returns the four bytes at off in the data segment. Bytes past the end of the
// segment read as zero; ok is false when any padding was needed.
func (im *Image) DataWord(off int) (w [4]byte, ok bool) {
	if off < 0 || off >= len(im.Data) {
		return w, false
	}
	n := copy(w[:], im.Data[off:])
	return w, n == 4
}
