package generator

import (
	"sort"
	"strconv"
	"strings"
)

const lineMarker = "//gox:line "

// SourceMap tracks line mappings from generated Go code to the script
type SourceMap struct {
	Entries []SourceMapEntry
}

type SourceMapEntry struct {
	GoLine  int
	GoxLine int
	GoxFile string
}

// BuildSourceMap reads the line markers of generated code. Each entry maps
// the first Go line after a marker to the script line it names.
func BuildSourceMap(code string) *SourceMap {
	sm := &SourceMap{Entries: []SourceMapEntry{}}
	for i, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, lineMarker) {
			continue
		}
		ref := strings.TrimPrefix(line, lineMarker)
		colon := strings.LastIndex(ref, ":")
		if colon < 0 {
			continue
		}
		n, err := strconv.Atoi(ref[colon+1:])
		if err != nil {
			continue
		}
		sm.Entries = append(sm.Entries, SourceMapEntry{
			GoLine:  i + 2,
			GoxLine: n,
			GoxFile: ref[:colon],
		})
	}
	return sm
}

// Lookup returns the script line the given Go line was generated from.
func (sm *SourceMap) Lookup(goLine int) (SourceMapEntry, bool) {
	if sm == nil {
		return SourceMapEntry{}, false
	}
	i := sort.Search(len(sm.Entries), func(i int) bool {
		return sm.Entries[i].GoLine > goLine
	})
	if i == 0 {
		return SourceMapEntry{}, false
	}
	return sm.Entries[i-1], true
}
