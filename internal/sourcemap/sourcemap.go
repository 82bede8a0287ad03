package sourcemap

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Entry correlates a generated position with an original one. Lines are
// 1-based, columns 0-based.
type Entry struct {
	GenLine    int
	GenColumn  int
	OrigLine   int
	OrigColumn int
}

func (e Entry) before(line, column int) bool {
	if e.GenLine != line {
		return e.GenLine < line
	}
	return e.GenColumn < column
}

// Map is an append-only list of entries ordered by generated position.
type Map struct {
	entries []Entry
}

func New() *Map {
	return &Map{entries: make([]Entry, 0)}
}

// Add appends an entry. Entries must arrive in generated order; a violation
// is a bug in the caller and panics.
func (m *Map) Add(e Entry) {
	if n := len(m.entries); n > 0 {
		last := m.entries[n-1]
		if e.before(last.GenLine, last.GenColumn) {
			panic(fmt.Sprintf("sourcemap: entry %d:%d added after %d:%d", e.GenLine, e.GenColumn, last.GenLine, last.GenColumn))
		}
	}
	m.entries = append(m.entries, e)
}

func (m *Map) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the recorded entries.
func (m *Map) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Lookup returns the entry at or nearest before the generated position.
func (m *Map) Lookup(line, column int) (Entry, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		e := m.entries[i]
		return !e.before(line, column) && !(e.GenLine == line && e.GenColumn == column)
	})
	if i == 0 {
		return Entry{}, false
	}
	return m.entries[i-1], true
}

// Generated returns the first entry produced for an original line.
func (m *Map) Generated(origLine int) (Entry, bool) {
	for _, e := range m.entries {
		if e.OrigLine == origLine {
			return e, true
		}
	}
	return Entry{}, false
}

type v3 struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// V3 renders the map in the Source Map revision 3 JSON format with a single
// source. sourceContent is embedded when non-empty.
func (m *Map) V3(file, sourceName, sourceContent string) ([]byte, error) {
	doc := v3{
		Version:  3,
		File:     file,
		Sources:  []string{sourceName},
		Names:    []string{},
		Mappings: m.mappings(),
	}
	if sourceContent != "" {
		doc.SourcesContent = []string{sourceContent}
	}

	return json.Marshal(doc)
}

// mappings encodes the entries as Base64 VLQ segments. Generated columns
// are relative within a line, every other field is relative to the
// previous segment.
func (m *Map) mappings() string {
	var sb strings.Builder
	line := 1
	prevOrigLine, prevOrigColumn := 0, 0

	for i := 0; i < len(m.entries); {
		e := m.entries[i]
		for ; line < e.GenLine; line++ {
			sb.WriteByte(';')
		}

		prevGenColumn := 0
		for first := true; i < len(m.entries) && m.entries[i].GenLine == line; i++ {
			e := m.entries[i]
			if !first {
				sb.WriteByte(',')
			}
			first = false

			origLine := e.OrigLine - 1
			writeVLQ(&sb, e.GenColumn-prevGenColumn)
			writeVLQ(&sb, 0)
			writeVLQ(&sb, origLine-prevOrigLine)
			writeVLQ(&sb, e.OrigColumn-prevOrigColumn)

			prevGenColumn = e.GenColumn
			prevOrigLine = origLine
			prevOrigColumn = e.OrigColumn
		}
	}

	return sb.String()
}

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func writeVLQ(sb *strings.Builder, value int) {
	vlq := value << 1
	if value < 0 {
		vlq = (-value << 1) | 1
	}

	for {
		digit := vlq & 31
		vlq >>= 5
		if vlq > 0 {
			digit |= 32
		}
		sb.WriteByte(base64Chars[digit])
		if vlq == 0 {
			return
		}
	}
}
