// Package buildid extracts GNU build IDs from ELF binaries and running
// processes, and classifies command-line arguments as build ids or paths.
package buildid

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// noteTypeGNUBuildID is NT_GNU_BUILD_ID from the GNU note ABI.
const noteTypeGNUBuildID = 3

// noteNameGNU is the owner name of GNU notes, with the NUL the note format
// stores as part of the name.
var noteNameGNU = []byte("GNU\x00")

// FromFile reads the GNU build ID of the ELF binary at path: the descriptor
// bytes of its first NT_GNU_BUILD_ID note. The raw bytes are returned so
// they can travel to a retrieval engine with exact length semantics; render
// with encoding/hex for display.
func FromFile(path string) ([]byte, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ELF file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	section := f.Section(".note.gnu.build-id")
	if section == nil {
		return nil, fmt.Errorf("%s has no .note.gnu.build-id section", path)
	}
	data, err := section.Data()
	if err != nil {
		return nil, fmt.Errorf("read build-id section of %s: %w", path, err)
	}

	id := parseNotes(data, f.ByteOrder)
	if id == nil {
		return nil, fmt.Errorf("%s carries no NT_GNU_BUILD_ID note", path)
	}
	return id, nil
}

// FromPID reads the GNU build ID of the executable behind a running process.
func FromPID(pid int32) ([]byte, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", pid, err)
	}
	exe, err := proc.Exe()
	if err != nil {
		return nil, fmt.Errorf("resolve executable of process %d: %w", pid, err)
	}
	return FromFile(exe)
}

// IsHex reports whether s looks like a build id rendered as hex text rather
// than a filesystem path: non-empty and lowercase hex digits only. This is
// how the argument of the find commands is dispatched; an uppercase or
// separator-bearing string is treated as a path.
func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// parseNotes walks the ELF note entries in data and returns the descriptor
// of the first NT_GNU_BUILD_ID note owned by "GNU", or nil when none is
// present. Entry layout: namesz(4) descsz(4) type(4), then the name and the
// descriptor, each padded to 4-byte alignment.
func parseNotes(data []byte, bo binary.ByteOrder) []byte {
	for len(data) >= 12 {
		namesz := int(bo.Uint32(data[0:4]))
		descsz := int(bo.Uint32(data[4:8]))
		typ := bo.Uint32(data[8:12])
		data = data[12:]

		if namesz < 0 || namesz > len(data) {
			return nil
		}
		name := data[:namesz]
		data = data[min(align4(namesz), len(data)):]

		if descsz < 0 || descsz > len(data) {
			return nil
		}
		desc := data[:descsz]
		data = data[min(align4(descsz), len(data)):]

		if typ == noteTypeGNUBuildID && bytes.Equal(name, noteNameGNU) {
			return desc
		}
	}
	return nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}
