package debuginfod

// Capability names an optional operation of the retrieval engine. Engine
// builds older than elfutils 0.179 ship without some of these entry points,
// so their presence is probed at load time rather than assumed.
type Capability int

const (
	// CapVerboseFd redirects engine diagnostics to a file descriptor
	// (debuginfod_set_verbose_fd).
	CapVerboseFd Capability = iota

	// CapURL reports the URL of the most recent successful transfer
	// (debuginfod_get_url).
	CapURL

	// CapHTTPHeader attaches a custom header to outgoing requests
	// (debuginfod_add_http_header).
	CapHTTPHeader

	// CapSetUserData stores an opaque caller pointer on the session
	// (debuginfod_set_user_data).
	CapSetUserData

	// CapGetUserData reads the opaque caller pointer back
	// (debuginfod_get_user_data).
	CapGetUserData

	numCapabilities // sentinel, keep last
)

// capabilitySymbols maps each capability to the engine symbol whose presence
// announces it.
var capabilitySymbols = [numCapabilities]string{
	CapVerboseFd:   "debuginfod_set_verbose_fd",
	CapURL:         "debuginfod_get_url",
	CapHTTPHeader:  "debuginfod_add_http_header",
	CapSetUserData: "debuginfod_set_user_data",
	CapGetUserData: "debuginfod_get_user_data",
}

// symbol returns the native entry point probed for this capability.
func (c Capability) symbol() string {
	if c < 0 || c >= numCapabilities {
		return ""
	}
	return capabilitySymbols[c]
}

// String returns the capability's symbol name, which doubles as its
// human-readable identity in errors and logs.
func (c Capability) String() string {
	if s := c.symbol(); s != "" {
		return s
	}
	return "unknown capability"
}

// capabilitySet records which optional entry points the loaded engine build
// exports. It is computed once when the engine binding is created and is
// immutable afterwards.
type capabilitySet [numCapabilities]bool

func (s capabilitySet) has(c Capability) bool {
	if c < 0 || c >= numCapabilities {
		return false
	}
	return s[c]
}
