package cli

import (
	"sort"
	"strings"

	"github.com/roach88/regrest/internal/record"
	"github.com/roach88/regrest/internal/store"
)

// LoadFailure describes a stored record that could not be parsed.
type LoadFailure struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// loadRecords reads and parses every stored record. Unparseable entries
// are collected, not fatal: a single damaged file must not hide the rest.
func loadRecords(st store.Store) ([]record.Record, []LoadFailure, error) {
	keys, err := st.List("")
	if err != nil {
		return nil, nil, err
	}

	var records []record.Record
	var failures []LoadFailure

	for _, key := range keys {
		data, found, err := st.Get(key)
		if err != nil {
			failures = append(failures, LoadFailure{Key: key, Message: err.Error()})
			continue
		}
		if !found {
			continue // deleted between List and Get
		}

		rec, err := record.Parse(data)
		if err != nil {
			failures = append(failures, LoadFailure{Key: key, Message: err.Error()})
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.Function != b.Function {
			return a.Function < b.Function
		}
		return a.Timestamp.Before(b.Timestamp)
	})

	return records, failures, nil
}

// filterRecords keeps records whose module or function name contains the
// keyword (case-insensitive). An empty keyword keeps everything.
func filterRecords(records []record.Record, keyword string) []record.Record {
	if keyword == "" {
		return records
	}
	kw := strings.ToLower(keyword)

	var out []record.Record
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Module), kw) ||
			strings.Contains(strings.ToLower(r.Function), kw) {
			out = append(out, r)
		}
	}
	return out
}

// findByID locates a record by its fingerprint, accepting unambiguous
// prefixes of at least 4 characters.
func findByID(records []record.Record, id string) (record.Record, bool) {
	if len(id) >= 4 {
		var matched []record.Record
		for _, r := range records {
			if strings.HasPrefix(r.RecordID, id) {
				matched = append(matched, r)
			}
		}
		if len(matched) == 1 {
			return matched[0], true
		}
	}
	return record.Record{}, false
}
