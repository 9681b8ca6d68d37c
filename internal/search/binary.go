// Package search implements binary search within sorted shard data.
//
// A shard is JSON Lines, one Record per line, sorted by Record.ID.
package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/discochess/gamereview/internal/eval"
)

// ErrNotFound indicates the key was not found in the shard.
var ErrNotFound = errors.New("search: key not found")

// ErrCorrupt indicates a record line that does not decode.
var ErrCorrupt = errors.New("search: corrupt record")

// Record is one cached evaluation inside a shard.
type Record struct {
	ID    string   `json:"id"`
	Key   eval.Key `json:"key"`
	Lines eval.Set `json:"lines"`
}

// NewRecord builds the record stored for key.
func NewRecord(key eval.Key, lines eval.Set) Record {
	if lines == nil {
		lines = eval.Set{}
	}
	return Record{ID: key.ID(), Key: key, Lines: lines}
}

// Search looks up id in sorted JSONL shard data.
// Returns the record if found, ErrNotFound, or ErrCorrupt when the
// matching line is unreadable.
func Search(data []byte, id string) (*Record, error) {
	lines := SplitLines(data)
	if len(lines) == 0 {
		return nil, ErrNotFound
	}

	idx := sort.Search(len(lines), func(i int) bool {
		return ExtractID(lines[i]) >= id
	})
	if idx >= len(lines) || ExtractID(lines[idx]) != id {
		return nil, ErrNotFound
	}

	var record Record
	if err := json.Unmarshal(lines[idx], &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if record.Lines == nil {
		record.Lines = eval.Set{}
	}
	return &record, nil
}

// Merge returns shard data holding the union of data and records, sorted
// by ID. Records replace existing lines with the same ID.
func Merge(data []byte, records []Record) ([]byte, error) {
	byID := make(map[string][]byte, len(records))
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encoding shard record: %w", err)
		}
		byID[r.ID] = b
	}
	for _, line := range SplitLines(data) {
		id := ExtractID(line)
		if id == "" {
			continue
		}
		if _, ok := byID[id]; !ok {
			byID[id] = line
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf bytes.Buffer
	for _, id := range ids {
		buf.Write(byID[id])
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// SplitLines splits data into lines, excluding empty lines.
func SplitLines(data []byte) [][]byte {
	n := bytes.Count(data, []byte{'\n'}) + 1
	lines := make([][]byte, 0, n)
	for len(data) > 0 {
		idx := bytes.IndexByte(data, '\n')
		var line []byte
		if idx < 0 {
			line = data
			data = nil
		} else {
			line = data[:idx]
			data = data[idx+1:]
		}
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

// ExtractID reads the id field from a JSON line without full parsing.
// IDs never contain quotes or escapes.
func ExtractID(line []byte) string {
	const prefix = `"id":"`
	idx := bytes.Index(line, []byte(prefix))
	if idx < 0 {
		return ""
	}

	start := idx + len(prefix)
	end := bytes.IndexByte(line[start:], '"')
	if end < 0 {
		return ""
	}
	return string(line[start : start+end])
}
