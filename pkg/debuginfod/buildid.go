package debuginfod

// BuildID is a binary's build identifier in one of the two input forms the
// engine accepts. Use HexID for the conventional lowercase hex rendering
// (for GNU build IDs, 40 hex characters) and RawID for the identifier's raw
// bytes, for example the descriptor of a .note.gnu.build-id section read
// straight from an ELF file.
type BuildID interface {
	isBuildID()
}

// HexID is a build identifier as a string of hex digits.
type HexID string

func (HexID) isBuildID() {}

// RawID is a build identifier as its raw byte sequence.
type RawID []byte

func (RawID) isBuildID() {}

// canonicalize lowers a BuildID to the engine's wire form: a NUL-terminated
// buffer plus the length tag passed in the build_id_len parameter. Hex input
// is tagged 0 so the engine infers the length from the terminator; raw input
// reports its exact byte count. An empty or nil id yields the one-byte buffer
// {0} with tag 0.
//
// Hex digits are not validated here. A malformed id travels to the engine
// unchanged and surfaces as a query failure, not a local error.
func canonicalize(id BuildID) (buf []byte, lengthTag int) {
	switch v := id.(type) {
	case HexID:
		return terminate([]byte(v)), 0
	case RawID:
		return terminate(v), len(v)
	default:
		return []byte{0}, 0
	}
}

// terminate copies b and appends the single NUL terminator the engine
// expects on every buffer it receives.
func terminate(b []byte) []byte {
	buf := make([]byte, len(b)+1)
	copy(buf, b)
	return buf
}
