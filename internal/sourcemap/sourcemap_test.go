package sourcemap

import (
	"encoding/json"
	"strings"
	"testing"
)

func sample() *Map {
	m := New()
	m.Add(Entry{GenLine: 1, GenColumn: 0, OrigLine: 1, OrigColumn: 0})
	m.Add(Entry{GenLine: 2, GenColumn: 4, OrigLine: 2, OrigColumn: 2})
	m.Add(Entry{GenLine: 4, GenColumn: 0, OrigLine: 5, OrigColumn: 0})
	return m
}

func TestLookup(t *testing.T) {
	m := sample()

	tests := []struct {
		line, column int
		want         Entry
		found        bool
	}{
		{1, 0, Entry{1, 0, 1, 0}, true},
		{1, 7, Entry{1, 0, 1, 0}, true},
		{2, 2, Entry{1, 0, 1, 0}, true},
		{2, 4, Entry{2, 4, 2, 2}, true},
		{3, 10, Entry{2, 4, 2, 2}, true},
		{9, 0, Entry{4, 0, 5, 0}, true},
		{0, 0, Entry{}, false},
	}

	for _, tt := range tests {
		got, ok := m.Lookup(tt.line, tt.column)
		if ok != tt.found || got != tt.want {
			t.Errorf("Lookup(%d, %d) = %+v, %v; want %+v, %v", tt.line, tt.column, got, ok, tt.want, tt.found)
		}
	}
}

func TestGenerated(t *testing.T) {
	m := sample()
	if e, ok := m.Generated(5); !ok || e.GenLine != 4 {
		t.Fatalf("Generated(5) = %+v, %v", e, ok)
	}
	if _, ok := m.Generated(3); ok {
		t.Fatalf("line 3 has no generated code")
	}
}

func TestAddOutOfOrderPanics(t *testing.T) {
	m := sample()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	m.Add(Entry{GenLine: 2, GenColumn: 0})
}

func TestEntriesIsACopy(t *testing.T) {
	m := sample()
	entries := m.Entries()
	entries[0].GenLine = 99
	if got, _ := m.Lookup(1, 0); got.GenLine != 1 {
		t.Fatalf("Entries must not expose internal storage")
	}
	if m.Len() != 3 {
		t.Fatalf("Len() = %d", m.Len())
	}
}

func TestVLQ(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "A"},
		{1, "C"},
		{-1, "D"},
		{15, "e"},
		{16, "gB"},
		{-16, "hB"},
		{1000, "w+B"},
	}

	for _, tt := range tests {
		var sb strings.Builder
		writeVLQ(&sb, tt.value)
		if got := sb.String(); got != tt.want {
			t.Errorf("vlq(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestV3(t *testing.T) {
	data, err := sample().V3("out.py", "in.sona", "let x = 1\n")
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Version        int      `json:"version"`
		File           string   `json:"file"`
		Sources        []string `json:"sources"`
		SourcesContent []string `json:"sourcesContent"`
		Mappings       string   `json:"mappings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON %s: %v", data, err)
	}

	if doc.Version != 3 || doc.File != "out.py" || len(doc.Sources) != 1 || doc.Sources[0] != "in.sona" {
		t.Fatalf("unexpected header: %s", data)
	}
	if len(doc.SourcesContent) != 1 || doc.SourcesContent[0] != "let x = 1\n" {
		t.Fatalf("unexpected sourcesContent: %s", data)
	}
	if doc.Mappings != "AAAA;IACE;;AAGF" {
		t.Fatalf("mappings = %q", doc.Mappings)
	}
}

func TestV3Empty(t *testing.T) {
	data, err := New().V3("", "in.sona", "")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"version":3,"sources":["in.sona"],"names":[],"mappings":""}` {
		t.Fatalf("unexpected document %s", data)
	}
}
