package core

import (
	"sort"
	"sync"

	"dmxled/protocol"
)

// Dictionary is the self-description the host downloads with identify: the
// command and response formats with their IDs plus firmware constants.
type Dictionary struct {
	mu            sync.RWMutex
	registry      *CommandRegistry
	constants     map[string]interface{}
	version       string
	buildVersions string
	cached        []byte
	cachedCount   int // registry size when cached was built
}

var globalDictionary = NewDictionary(globalRegistry)

// NewDictionary creates a dictionary over reg
func NewDictionary(reg *CommandRegistry) *Dictionary {
	return &Dictionary{
		registry:      reg,
		constants:     make(map[string]interface{}),
		version:       "dmxled-" + protocol.Version,
		buildVersions: "go-tinygo",
	}
}

// RegisterConstant adds a constant to the global dictionary
func RegisterConstant(name string, value interface{}) {
	globalDictionary.AddConstant(name, value)
}

// GetGlobalDictionary returns the dictionary served by identify
func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}

// AddConstant adds or replaces a constant
func (d *Dictionary) AddConstant(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = value
	d.cached = nil
}

// SetVersion sets the firmware version string
func (d *Dictionary) SetVersion(version string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = version
	d.cached = nil
}

// SetBuildVersions sets the toolchain description
func (d *Dictionary) SetBuildVersions(versions string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buildVersions = versions
	d.cached = nil
}

// Generate returns the dictionary JSON, rebuilt after any change
func (d *Dictionary) Generate() []byte {
	// registry lock first, dictionary lock second
	entries := d.registry.Entries()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached == nil || d.cachedCount != len(entries) {
		d.cached = d.buildLocked(entries)
		d.cachedCount = len(entries)
		DebugPrintln("[DICT] built " + itoa(len(d.cached)) + " bytes, " + itoa(len(entries)) + " entries")
	}
	return d.cached
}

func (d *Dictionary) buildLocked(entries []Command) []byte {
	out := make([]byte, 0, 512)
	out = append(out, `{"version":`...)
	out = appendJSONString(out, d.version)
	out = append(out, `,"build_versions":`...)
	out = appendJSONString(out, d.buildVersions)

	out = append(out, `,"config":{`...)
	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			out = append(out, ',')
		}
		out = appendJSONString(out, name)
		out = append(out, ':')
		out = appendJSONString(out, valueToString(d.constants[name]))
	}

	out = append(out, `},"commands":{`...)
	out = appendEntries(out, entries, false)
	out = append(out, `},"responses":{`...)
	out = appendEntries(out, entries, true)
	out = append(out, "}}"...)
	return out
}

func appendEntries(out []byte, entries []Command, responses bool) []byte {
	first := true
	for i := range entries {
		if entries[i].IsResponse() != responses {
			continue
		}
		if !first {
			out = append(out, ',')
		}
		first = false
		out = appendJSONString(out, entries[i].Signature())
		out = append(out, ':')
		out = append(out, utoa(uint32(entries[i].ID))...)
	}
	return out
}

func appendJSONString(out []byte, s string) []byte {
	const hex = "0123456789abcdef"
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			out = append(out, '\\', c)
		case c < 0x20:
			out = append(out, '\\', 'u', '0', '0', hex[c>>4], hex[c&0xF])
		default:
			out = append(out, c)
		}
	}
	return append(out, '"')
}

// GetChunk returns up to count bytes of the dictionary from offset. The
// result is a copy; an offset past the end yields an empty chunk.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return []byte{}
	}

	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}
