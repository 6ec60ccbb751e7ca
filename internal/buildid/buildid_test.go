package buildid

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testID = []byte{0x4d, 0x7e, 0x25, 0xcb, 0x25, 0xae, 0xfa, 0x30, 0x0b, 0x44,
	0xf3, 0x2f, 0xe1, 0xfe, 0xfe, 0x7b, 0xea, 0x76, 0xcb, 0x41}

// buildNote assembles one ELF note entry: header, NUL-terminated owner name
// and descriptor, each padded to 4-byte alignment.
func buildNote(owner string, typ uint32, desc []byte) []byte {
	name := append([]byte(owner), 0)
	var buf bytes.Buffer
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(name)))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(desc)))
	binary.LittleEndian.PutUint32(hdr[8:12], typ)
	buf.Write(hdr[:])
	buf.Write(name)
	buf.Write(make([]byte, align4(len(name))-len(name)))
	buf.Write(desc)
	buf.Write(make([]byte, align4(len(desc))-len(desc)))
	return buf.Bytes()
}

// writeTestELF writes a minimal ELF64 binary whose .note.gnu.build-id
// section holds note. A nil note omits the section entirely.
func writeTestELF(t *testing.T, note []byte) string {
	t.Helper()

	shstrtab := []byte("\x00.note.gnu.build-id\x00.shstrtab\x00")
	strtabName := uint32(20)
	shnum := uint16(3)
	if note == nil {
		shstrtab = []byte("\x00.shstrtab\x00")
		strtabName = 1
		shnum = 2
	}

	noteOff := uint64(64)
	strOff := noteOff + uint64(len(note))
	shoff := (strOff + uint64(len(shstrtab)) + 7) &^ 7

	le := binary.LittleEndian
	var buf bytes.Buffer
	ident := [16]byte{0x7f, 'E', 'L', 'F', 2, 1, 1} // ELF64, little endian
	buf.Write(ident[:])
	for _, v := range []any{
		uint16(2),  // e_type: ET_EXEC
		uint16(62), // e_machine: EM_X86_64
		uint32(1),  // e_version
		uint64(0),  // e_entry
		uint64(0),  // e_phoff
		shoff,      // e_shoff
		uint32(0),  // e_flags
		uint16(64), // e_ehsize
		uint16(0),  // e_phentsize
		uint16(0),  // e_phnum
		uint16(64), // e_shentsize
		shnum,      // e_shnum
		shnum - 1,  // e_shstrndx
	} {
		require.NoError(t, binary.Write(&buf, le, v))
	}
	buf.Write(note)
	buf.Write(shstrtab)
	buf.Write(make([]byte, int(shoff)-buf.Len()))

	type shdr struct {
		Name, Type             uint32
		Flags, Addr, Off, Size uint64
		Link, Info             uint32
		Addralign, Entsize     uint64
	}
	headers := []shdr{{}}
	if note != nil {
		headers = append(headers, shdr{Name: 1, Type: 7 /* SHT_NOTE */, Off: noteOff, Size: uint64(len(note)), Addralign: 4})
	}
	headers = append(headers, shdr{Name: strtabName, Type: 3 /* SHT_STRTAB */, Off: strOff, Size: uint64(len(shstrtab)), Addralign: 1})
	for _, sh := range headers {
		require.NoError(t, binary.Write(&buf, le, sh))
	}

	path := filepath.Join(t.TempDir(), "binary")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o755))
	return path
}

func TestFromFile(t *testing.T) {
	path := writeTestELF(t, buildNote("GNU", noteTypeGNUBuildID, testID))

	id, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, testID, id)
	assert.Equal(t, "4d7e25cb25aefa300b44f32fe1fefe7bea76cb41", hex.EncodeToString(id))
}

func TestFromFileWalksPastForeignNotes(t *testing.T) {
	// An ABI-tag note shares the section format; the walk must skip it.
	section := append(
		buildNote("Linux", 1, []byte{0, 0, 0, 0, 0, 0, 0, 3}),
		buildNote("GNU", noteTypeGNUBuildID, testID)...)
	path := writeTestELF(t, section)

	id, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, testID, id)
}

func TestFromFileWrongOwner(t *testing.T) {
	path := writeTestELF(t, buildNote("XYZ", noteTypeGNUBuildID, testID))

	_, err := FromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NT_GNU_BUILD_ID")
}

func TestFromFileWithoutNoteSection(t *testing.T) {
	path := writeTestELF(t, nil)

	_, err := FromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".note.gnu.build-id")
}

func TestFromFileNotELF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-elf")
	require.NoError(t, os.WriteFile(path, []byte("plain text, no magic"), 0o644))

	_, err := FromFile(path)
	assert.Error(t, err)
}

func TestParseNotesTruncatedInput(t *testing.T) {
	whole := buildNote("GNU", noteTypeGNUBuildID, testID)
	for cut := 0; cut < len(whole); cut++ {
		assert.Nil(t, parseNotes(whole[:cut], binary.LittleEndian), "cut at %d", cut)
	}
	assert.Equal(t, testID, parseNotes(whole, binary.LittleEndian))
}

func TestFromPIDUnknownProcess(t *testing.T) {
	_, err := FromPID(1 << 30)
	assert.Error(t, err)
}

func TestIsHex(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"4d7e25cb25aefa300b44f32fe1fefe7bea76cb41", true},
		{"abcdef0123456789", true},
		{"f", true},
		{"", false},
		{"4D7E25", false}, // uppercase reads as a path
		{"/bin/gcc", false},
		{"deadbeef.so", false},
		{"abc xyz", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsHex(tc.in), "IsHex(%q)", tc.in)
	}
}
